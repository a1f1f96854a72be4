// Package resources implements MCP resource handlers for stored trees.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (ost://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/share"
)

// listLimit bounds the shares listing resource.
const listLimit = 100

// ShareLister is the read access the resources need. *share.Store
// satisfies it.
type ShareLister interface {
	List(limit int) ([]share.Summary, error)
	Stats() (*share.Stats, error)
}

// Handler manages tree resource endpoints.
type Handler struct {
	store ShareLister
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store ShareLister) *Handler {
	return &Handler{store: store}
}

// SharesResource returns the MCP resource definition for the share listing.
func (h *Handler) SharesResource() mcp.Resource {
	return mcp.NewResource(
		"ost://shares",
		"Stored Trees",
		mcp.WithResourceDescription("Stored trees with card counts and sizes, most recently updated first"),
		mcp.WithMIMEType("application/json"),
	)
}

type sharesView struct {
	Stats  *share.Stats    `json:"stats"`
	Shares []share.Summary `json:"shares"`
}

// HandleShares returns the stored share listing as JSON.
func (h *Handler) HandleShares(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	summaries, err := h.store.List(listLimit)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	stats, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if summaries == nil {
		summaries = []share.Summary{}
	}

	data, err := json.MarshalIndent(sharesView{Stats: stats, Shares: summaries}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling shares: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
