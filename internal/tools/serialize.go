package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/ost"
)

// --- ost_format ---

// FormatTool handles the ost_format MCP tool.
type FormatTool struct {
	defaultName string
}

// NewFormatTool creates a FormatTool. defaultName is used when the caller
// passes no name and the document has no title heading.
func NewFormatTool(defaultName string) *FormatTool {
	return &FormatTool{defaultName: defaultName}
}

// Definition returns the MCP tool definition for registration.
func (t *FormatTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_format",
		mcp.WithDescription(
			"Normalize an Opportunity Solution Tree document to canonical Markdown: "+
				"every card gets an explicit [Type] tag at its type's heading level, "+
				"known statuses are kept as @status and outcome metrics are rewritten as start/current/target lines.",
		),
		mcp.WithString("markdown",
			mcp.Description("The tree document. Either this or 'path' is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a markdown file, relative to the working directory"),
		),
		mcp.WithString("name",
			mcp.Description("Tree name written as the '# ' title line. Defaults to the document's own title."),
		),
	)
}

// Handle processes the ost_format tool call.
func (t *FormatTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, msg := markdownArg(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	tree := ost.Parse(md)
	name := req.GetString("name", "")
	if name == "" && tree.Name != ost.DefaultTreeName {
		name = tree.Name
	}
	if name == "" {
		name = t.defaultName
	}
	return mcp.NewToolResultText(ost.Serialize(tree, name)), nil
}

// --- ost_serialize ---

// SerializeTool handles the ost_serialize MCP tool.
type SerializeTool struct{}

// NewSerializeTool creates a SerializeTool.
func NewSerializeTool() *SerializeTool {
	return &SerializeTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *SerializeTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_serialize",
		mcp.WithDescription(
			"Render a tree structure (the JSON produced by ost_parse with format=json) back into Markdown. "+
				"Use this after editing cards programmatically.",
		),
		mcp.WithString("tree",
			mcp.Required(),
			mcp.Description("Tree JSON with 'cards' (map of id to card) and 'root_ids'"),
		),
		mcp.WithString("name",
			mcp.Description("Tree name written as the '# ' title line. Defaults to the tree's 'name' field."),
		),
	)
}

// Handle processes the ost_serialize tool call.
func (t *SerializeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("tree")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var tree ost.Tree
	if err := json.Unmarshal([]byte(raw), &tree); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid tree JSON: %v", err)), nil
	}
	if msg := validateTree(&tree); msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	name := req.GetString("name", "")
	if name == "" {
		name = tree.Name
	}
	return mcp.NewToolResultText(ost.Serialize(&tree, name)), nil
}

// validateTree checks that every referenced card exists and has a known
// type, so serialization never emits a heading without '#'.
func validateTree(tree *ost.Tree) string {
	for id, c := range tree.Cards {
		if c == nil {
			return fmt.Sprintf("card %q is null", id)
		}
		if c.Type.HeadingLevel() == 0 {
			return fmt.Sprintf("card %q has unknown type %q", id, c.Type)
		}
		for _, child := range c.Children {
			if tree.Card(child) == nil {
				return fmt.Sprintf("card %q lists missing child %q", id, child)
			}
		}
	}
	for _, id := range tree.RootIDs {
		if tree.Card(id) == nil {
			return fmt.Sprintf("root_ids lists missing card %q", id)
		}
	}
	return ""
}
