package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// clearEnv blanks every variable Load reads so the host environment
// cannot leak into assertions.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDataDir, EnvBaseURL, EnvCacheSize, EnvDefaultName} {
		t.Setenv(k, "")
	}
}

// writeEnvFile writes a dotenv file into a temp dir and returns its path.
func writeEnvFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	return path
}

// --- Defaults ---

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	if cfg.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %s, want %s", cfg.BaseURL, DefaultBaseURL)
	}
	if cfg.CacheSize != DefaultCacheSize {
		t.Errorf("CacheSize = %d, want %d", cfg.CacheSize, DefaultCacheSize)
	}
	if !strings.HasSuffix(cfg.DataDir, dataDirName) {
		t.Errorf("DataDir = %s, want it to end in %s", cfg.DataDir, dataDirName)
	}
	if cfg.DefaultName != "" {
		t.Errorf("DefaultName = %q, want empty", cfg.DefaultName)
	}
}

// --- Dotenv file ---

func TestLoad_ReadsDotenvFile(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "OST_BASE_URL=https://trees.example.com\nOST_CACHE_SIZE=32\nOST_DEFAULT_NAME=Team board\n")

	cfg := Load(path)

	if cfg.BaseURL != "https://trees.example.com/" {
		t.Errorf("BaseURL = %s", cfg.BaseURL)
	}
	if cfg.CacheSize != 32 {
		t.Errorf("CacheSize = %d, want 32", cfg.CacheSize)
	}
	if cfg.DefaultName != "Team board" {
		t.Errorf("DefaultName = %q", cfg.DefaultName)
	}
}

func TestLoad_EnvOverridesDotenv(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "OST_DATA_DIR=/from/file\n")
	t.Setenv(EnvDataDir, "/from/env")

	cfg := Load(path)

	if cfg.DataDir != "/from/env" {
		t.Errorf("DataDir = %s, want /from/env", cfg.DataDir)
	}
}

func TestLoad_DoesNotMutateEnvironment(t *testing.T) {
	clearEnv(t)
	path := writeEnvFile(t, "OST_DEFAULT_NAME=leaky\n")

	Load(path)

	if v := os.Getenv(EnvDefaultName); v != "" {
		t.Errorf("Load leaked %s=%q into the environment", EnvDefaultName, v)
	}
}

func TestLoad_InvalidCacheSizeFallsBack(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-5"} {
		clearEnv(t)
		t.Setenv(EnvCacheSize, raw)

		if got := Load(filepath.Join(t.TempDir(), "none")).CacheSize; got != DefaultCacheSize {
			t.Errorf("CacheSize for %q = %d, want %d", raw, got, DefaultCacheSize)
		}
	}
}

// --- Derived values ---

func TestConfig_ShareAndURLs(t *testing.T) {
	cfg := &Config{DataDir: "/data", BaseURL: "https://ost.tools/", CacheSize: 9}

	sc := cfg.Share()
	if sc.DataDir != "/data" || sc.CacheSize != 9 {
		t.Errorf("Share() = %+v", sc)
	}
	if got := cfg.ShareURL("abc123"); got != "https://ost.tools/s/abc123" {
		t.Errorf("ShareURL = %s", got)
	}
}

func TestNormalizeBaseURL(t *testing.T) {
	tests := map[string]string{
		"https://a.b":    "https://a.b/",
		"https://a.b/":   "https://a.b/",
		"https://a.b///": "https://a.b/",
	}
	for in, want := range tests {
		if got := normalizeBaseURL(in); got != want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}
}
