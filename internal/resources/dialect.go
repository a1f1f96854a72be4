package resources

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const dialectGuide = `# Opportunity Solution Tree Markdown

| Heading | Card        | Explicit tag    |
|---------|-------------|-----------------|
| ##      | Outcome     | [Outcome]       |
| ###     | Opportunity | [Opportunity]   |
| ####    | Solution    | [Solution]      |
| #####   | Experiment  | [Experiment]    |

A tag wins over the heading level: "### [Solution] Idea" is a Solution.
A single "# Title" line names the tree. Other headings are ignored.

Status suffix on the heading: @on-track, @at-risk, @next, @done.

Outcome metrics, one per line below the heading:

    - start: 120
    - current: 164
    - target: 250

Every other line under a card is its description.
`

// DialectResource returns the MCP resource definition for the syntax guide.
func (h *Handler) DialectResource() mcp.Resource {
	return mcp.NewResource(
		"ost://dialect",
		"Tree Markdown Syntax",
		mcp.WithResourceDescription("How headings, tags, statuses and metrics map to tree cards"),
		mcp.WithMIMEType("text/markdown"),
	)
}

// HandleDialect returns the syntax guide.
func (h *Handler) HandleDialect(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "text/markdown",
			Text:     dialectGuide,
		},
	}, nil
}
