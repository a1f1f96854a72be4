package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/ostmd/internal/ost"
)

// ParseTool handles the ost_parse MCP tool.
type ParseTool struct{}

// NewParseTool creates a ParseTool.
func NewParseTool() *ParseTool {
	return &ParseTool{}
}

// Definition returns the MCP tool definition for registration.
func (t *ParseTool) Definition() mcp.Tool {
	return mcp.NewTool("ost_parse",
		mcp.WithDescription(
			"Parse an Opportunity Solution Tree written in Markdown into its structure. "+
				"Headings ## to ##### map to Outcome, Opportunity, Solution and Experiment, "+
				"or use an explicit [Type] tag. Returns card ids, parents, children, status and metrics.",
		),
		mcp.WithString("markdown",
			mcp.Description("The tree document. Either this or 'path' is required."),
		),
		mcp.WithString("path",
			mcp.Description("Path to a markdown file, relative to the working directory"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'json' (full tree) or 'outline' (indented summary). Defaults to 'outline'."),
			mcp.DefaultString("outline"),
			mcp.Enum("json", "outline"),
		),
	)
}

// Handle processes the ost_parse tool call.
func (t *ParseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	md, msg := markdownArg(req)
	if msg != "" {
		return mcp.NewToolResultError(msg), nil
	}

	tree := ost.Parse(md)

	switch format := req.GetString("format", "outline"); format {
	case "json":
		return jsonResult(tree)
	case "outline":
		if tree.Len() == 0 {
			return mcp.NewToolResultText(
				"No cards found. Use headings like `## [Outcome] Increase retention` " +
					"(## Outcome, ### Opportunity, #### Solution, ##### Experiment).",
			), nil
		}
		counts := tree.CountByType()
		summary := fmt.Sprintf("%d cards: %d outcomes, %d opportunities, %d solutions, %d experiments\n\n",
			tree.Len(), counts[ost.TypeOutcome], counts[ost.TypeOpportunity],
			counts[ost.TypeSolution], counts[ost.TypeExperiment])
		return mcp.NewToolResultText(summary + ost.Outline(tree)), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("'format' must be 'json' or 'outline', got %q", format)), nil
	}
}
