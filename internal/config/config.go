// Package config resolves runtime settings for the ost binary.
//
// Values come from the process environment first, then from a dotenv file
// (".env" in the working directory unless other paths are given), then
// built-in defaults. Loading never mutates the process environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/HendryAvila/ostmd/internal/share"
)

// Environment variable names.
const (
	EnvDataDir     = "OST_DATA_DIR"
	EnvBaseURL     = "OST_BASE_URL"
	EnvCacheSize   = "OST_CACHE_SIZE"
	EnvDefaultName = "OST_DEFAULT_NAME"
)

const (
	// DefaultBaseURL is the viewer that share links point at.
	DefaultBaseURL = "https://ost.tools/"
	// DefaultCacheSize bounds the stored-share read cache.
	DefaultCacheSize = 256
	dataDirName      = ".ost"
)

// Config holds resolved settings.
type Config struct {
	DataDir     string
	BaseURL     string
	CacheSize   int
	DefaultName string
}

// Load resolves the configuration. A missing dotenv file is not an error.
func Load(envFiles ...string) *Config {
	file, err := godotenv.Read(envFiles...)
	if err != nil {
		file = map[string]string{}
	}
	get := func(key string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return strings.TrimSpace(file[key])
	}

	return &Config{
		DataDir:     firstNonEmpty(get(EnvDataDir), defaultDataDir()),
		BaseURL:     normalizeBaseURL(firstNonEmpty(get(EnvBaseURL), DefaultBaseURL)),
		CacheSize:   parsePositive(get(EnvCacheSize), DefaultCacheSize),
		DefaultName: get(EnvDefaultName),
	}
}

// Share returns the stored-share store configuration.
func (c *Config) Share() share.Config {
	return share.Config{DataDir: c.DataDir, CacheSize: c.CacheSize}
}

// ShareURL returns the viewer URL of a stored share.
func (c *Config) ShareURL(id string) string {
	return c.BaseURL + "s/" + id
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return dataDirName
	}
	return filepath.Join(home, dataDirName)
}

// normalizeBaseURL ensures a single trailing slash so paths can be appended.
func normalizeBaseURL(u string) string {
	return strings.TrimRight(u, "/") + "/"
}

func parsePositive(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
