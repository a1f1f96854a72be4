package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/fragment"
	"github.com/HendryAvila/ostmd/internal/ost"
)

// EncodeFragmentTool handles the ost_encode_fragment MCP tool.
type EncodeFragmentTool struct {
	baseURL string
}

// NewEncodeFragmentTool creates an EncodeFragmentTool producing links
// under baseURL.
func NewEncodeFragmentTool(baseURL string) *EncodeFragmentTool {
	return &EncodeFragmentTool{baseURL: baseURL}
}

// Definition returns the MCP tool definition for registration.
func (t *EncodeFragmentTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_encode_fragment",
		mcp.WithDescription(
			"Pack a tree document and its view state into a URL-safe fragment token and a share link. "+
				"The whole tree travels in the link; nothing is stored server-side.",
		),
		mcp.WithString("markdown",
			mcp.Description("The tree document. Either this or 'path' is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a markdown file, relative to the working directory"),
		),
		mcp.WithString("name",
			mcp.Description("Tree display name carried in the link"),
		),
		mcp.WithString("layout_direction",
			mcp.Description("Main tree layout"),
			mcp.Enum(string(fragment.DirectionHorizontal), string(fragment.DirectionVertical)),
		),
		mcp.WithString("experiment_layout",
			mcp.Description("Layout of experiments under a solution"),
			mcp.Enum(string(fragment.DirectionHorizontal), string(fragment.DirectionVertical)),
		),
		mcp.WithString("view_density",
			mcp.Description("Card density"),
			mcp.Enum(string(fragment.DensityCompact), string(fragment.DensityFull)),
		),
		mcp.WithArray("collapsed_ids",
			mcp.Description("Card ids to show collapsed (ids from ost_parse)"),
			mcp.WithStringItems(),
		),
	)
}

// Handle processes the ost_encode_fragment tool call.
func (t *EncodeFragmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, msg := markdownArg(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	settings, msg := settingsArgs(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}
	collapsed := collapsedArg(req)

	name := req.GetString("name", "")
	token, err := fragment.Encode(md,
		fragment.WithName(name),
		fragment.WithSettings(settings),
		fragment.WithCollapsed(collapsed),
	)
	if err != nil {
		return nil, fmt.Errorf("encoding fragment: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# Share Link\n\n")
	sb.WriteString(fragment.Link(t.baseURL, token) + "\n\n")
	sb.WriteString(fmt.Sprintf("**Token** (%d chars):\n\n%s\n", len(token), token))
	if unknown := unknownIDs(ost.Parse(md), collapsed); len(unknown) > 0 {
		sb.WriteString(fmt.Sprintf("\nWARNING: collapsed ids not in this tree: %s\n", strings.Join(unknown, ", ")))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// unknownIDs returns the ids that name no card in tree.
func unknownIDs(tree *ost.Tree, ids []string) []string {
	var out []string
	for _, id := range ids {
		if tree.Card(id) == nil {
			out = append(out, id)
		}
	}
	return out
}

// DecodeFragmentTool handles the ost_decode_fragment MCP tool.
type DecodeFragmentTool struct{}

// NewDecodeFragmentTool creates a DecodeFragmentTool.
func NewDecodeFragmentTool() *DecodeFragmentTool {
	return &DecodeFragmentTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *DecodeFragmentTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_decode_fragment",
		mcp.WithDescription(
			"Unpack a share link or fragment token into the tree document, name and view settings. "+
				"Accepts both current tokens and legacy markdown-only tokens.",
		),
		mcp.WithString("fragment",
			mcp.Required(),
			mcp.Description("A share link (anything after '#' is used) or a bare token"),
		),
	)
}

// Handle processes the ost_decode_fragment tool call.
func (t *DecodeFragmentTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("fragment")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, err := fragment.Decode(fragment.FromLink(raw))
	if err != nil {
		if errors.Is(err, fragment.ErrDecodeFailed) {
			return mcp.NewToolResultError("not a valid tree link: the token is not base64url text"), nil
		}
		return nil, fmt.Errorf("decoding fragment: %w", err)
	}
	return jsonResult(payload)
}
