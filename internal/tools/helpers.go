// Package tools implements MCP tool handlers over the tree engine.
//
// Each tool is a struct holding its dependencies, with a Definition()
// returning the mcp.Tool schema and a Handle() compatible with mcp-go's
// CallToolRequest signature.
//
// Design principles:
// - SRP: each file = one concern (parse, serialize, fragment, share)
// - DIP: share tools depend on the ShareStore interface, not *share.Store
// - User mistakes become tool errors; only infrastructure failures return a Go error
package tools

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/fragment"
)

// maxDocumentBytes caps documents read from disk by the path argument.
const maxDocumentBytes = 4 << 20

// markdownArg resolves a document from either the "markdown" argument or a
// "path" argument pointing at a file. Returns a user-facing message when
// neither is usable.
func markdownArg(req mcp.CallToolRequest) (string, string) {
	if md := req.GetString("markdown", ""); md != "" {
		return md, ""
	}
	path := req.GetString("path", "")
	if path == "" {
		return "", "either 'markdown' or 'path' is required"
	}
	md, err := readDocument(path)
	if err != nil {
		return "", err.Error()
	}
	return md, ""
}

// readDocument reads a markdown file, resolving relative paths against
// the working directory.
func readDocument(path string) (string, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getting working directory: %w", err)
		}
		path = filepath.Join(wd, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file %s does not exist", path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	if info.Size() > maxDocumentBytes {
		return "", fmt.Errorf("file %s is larger than %d bytes", path, maxDocumentBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// settingsArgs builds display settings from the optional layout arguments.
// Returns nil when none is set.
func settingsArgs(req mcp.CallToolRequest) (*fragment.Settings, string) {
	s, err := fragment.ParseSettings(
		req.GetString("layout_direction", ""),
		req.GetString("experiment_layout", ""),
		req.GetString("view_density", ""),
	)
	if err != nil {
		return nil, err.Error()
	}
	return s, ""
}

// collapsedArg reads collapsed card ids from either a JSON array or a
// comma-separated string.
func collapsedArg(req mcp.CallToolRequest) []string {
	if ids := req.GetStringSlice("collapsed_ids", nil); len(ids) > 0 {
		return ids
	}
	var ids []string
	for _, id := range strings.Split(req.GetString("collapsed_ids", ""), ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// intArg extracts an integer argument, returning defaultVal if the key is
// missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
