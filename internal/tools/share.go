package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/ost"
	"github.com/HendryAvila/ostmd/internal/share"
)

// ShareStore is the persistence the share tools need. *share.Store
// satisfies it.
type ShareStore interface {
	Save(p share.SaveParams) (*share.Share, error)
	Get(id string) (*share.Share, error)
	Delete(id string) error
	List(limit int) ([]share.Summary, error)
}

// URLFunc maps a share id to its public URL.
type URLFunc func(id string) string

const defaultListLimit = 20

// --- ost_share_save ---

// ShareSaveTool handles the ost_share_save MCP tool.
type ShareSaveTool struct {
	store ShareStore
	url   URLFunc
}

// NewShareSaveTool creates a ShareSaveTool.
func NewShareSaveTool(store ShareStore, url URLFunc) *ShareSaveTool {
	return &ShareSaveTool{store: store, url: url}
}

// Definition returns the MCP tool definition for registration.
func (t *ShareSaveTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_share_save",
		mcp.WithDescription(
			"Store a tree under a short id for trees too large for a fragment link. "+
				"Saving identical content again returns the same id.",
		),
		mcp.WithString("markdown",
			mcp.Description("The tree document. Either this or 'path' is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a markdown file, relative to the working directory"),
		),
		mcp.WithString("name",
			mcp.Description("Tree display name. Defaults to the document's title heading."),
		),
		mcp.WithString("layout_direction",
			mcp.Description("Main tree layout: 'horizontal' or 'vertical'"),
		),
		mcp.WithString("experiment_layout",
			mcp.Description("Experiment layout: 'horizontal' or 'vertical'"),
		),
		mcp.WithString("view_density",
			mcp.Description("Card density: 'compact' or 'full'"),
		),
		mcp.WithArray("collapsed_ids",
			mcp.Description("Card ids to show collapsed"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the ost_share_save tool call.
func (t *ShareSaveTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, msg := markdownArg(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	settings, msg := settingsArgs(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	name := req.GetString("name", "")
	if name == "" {
		name = ost.Parse(md).Name
	}

	sh, err := t.store.Save(share.SaveParams{
		Name:         name,
		Markdown:     md,
		Settings:     settings,
		CollapsedIDs: collapsedArg(req),
	})
	if err != nil {
		return nil, fmt.Errorf("saving share: %w", err)
	}

	verb := "Saved"
	if sh.SaveCount > 1 {
		verb = "Already stored"
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"%s **%s** (%d cards)\n\nID: %s\nURL: %s\n",
		verb, sh.Name, sh.CardCount, sh.ID, t.url(sh.ID),
	)), nil
}

// --- ost_share_get ---

// ShareGetTool handles the ost_share_get MCP tool.
type ShareGetTool struct {
	store ShareStore
}

// NewShareGetTool creates a ShareGetTool.
func NewShareGetTool(store ShareStore) *ShareGetTool {
	return &ShareGetTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ShareGetTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_share_get",
		mcp.WithDescription("Fetch a stored tree by id, including its markdown and view settings."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The share id returned by ost_share_save"),
		),
	)
}

// Handle processes the ost_share_get tool call.
func (t *ShareGetTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sh, err := t.store.Get(id)
	if err != nil {
		if errors.Is(err, share.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("share %q not found", id)), nil
		}
		return nil, fmt.Errorf("getting share: %w", err)
	}
	return jsonResult(sh)
}

// --- ost_share_list ---

// ShareListTool handles the ost_share_list MCP tool.
type ShareListTool struct {
	store ShareStore
}

// NewShareListTool creates a ShareListTool.
func NewShareListTool(store ShareStore) *ShareListTool {
	return &ShareListTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ShareListTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_share_list",
		mcp.WithDescription("List stored trees, most recently updated first."),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of shares to return (default 20)"),
		),
	)
}

// Handle processes the ost_share_list tool call.
func (t *ShareListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := intArg(req, "limit", defaultListLimit)
	if limit <= 0 {
		limit = defaultListLimit
	}

	summaries, err := t.store.List(limit)
	if err != nil {
		return nil, fmt.Errorf("listing shares: %w", err)
	}
	if len(summaries) == 0 {
		return mcp.NewToolResultText("No stored trees yet. Use ost_share_save to store one."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("# Stored Trees (%d)\n\n", len(summaries)))
	for _, s := range summaries {
		sb.WriteString(fmt.Sprintf("- **%s** `%s`: %d cards, %d bytes, updated %s\n",
			s.Name, s.ID, s.CardCount, s.Size, s.UpdatedAt))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// --- ost_share_delete ---

// ShareDeleteTool handles the ost_share_delete MCP tool.
type ShareDeleteTool struct {
	store ShareStore
}

// NewShareDeleteTool creates a ShareDeleteTool.
func NewShareDeleteTool(store ShareStore) *ShareDeleteTool {
	return &ShareDeleteTool{store: store}
}

// Definition returns the MCP tool definition for registration.
func (t *ShareDeleteTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_share_delete",
		mcp.WithDescription("Delete a stored tree. Links to it stop working."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("The share id to delete"),
		),
	)
}

// Handle processes the ost_share_delete tool call.
func (t *ShareDeleteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := t.store.Delete(id); err != nil {
		if errors.Is(err, share.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("share %q not found", id)), nil
		}
		return nil, fmt.Errorf("deleting share: %w", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted share %s.", id)), nil
}
