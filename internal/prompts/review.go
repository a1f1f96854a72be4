package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// ReviewPrompt handles the ost-review MCP prompt.
// It instructs the AI to critique the structure of an existing tree.
type ReviewPrompt struct{}

// NewReviewPrompt creates a ReviewPrompt.
func NewReviewPrompt() *ReviewPrompt {
	return &ReviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ReviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ost-review",
		mcp.WithPromptDescription(
			"Review an Opportunity Solution Tree. "+
				"Checks outcome metrics, solution coverage and experiment gaps, "+
				"and suggests what to work on next.",
		),
		mcp.WithArgument("source",
			mcp.ArgumentDescription("A markdown file path, a share link or a stored share id"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the ost-review prompt request.
func (p *ReviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	source := ""
	if args := req.Params.Arguments; args != nil {
		source = args["source"]
	}

	return &mcp.GetPromptResult{
		Description: "Tree review",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please review my Opportunity Solution Tree: " + source + "\n\n" +
						"Load it first: use `ost_parse` with path for a file, " +
						"`ost_decode_fragment` for a link, or `ost_share_get` for a stored id.\n\n" +
						"Then:\n" +
						"1. Check that every outcome has start, current and target metrics\n" +
						"2. Flag opportunities with fewer than three solutions\n" +
						"3. Flag solutions marked @next that have no experiment\n" +
						"4. List everything @at-risk\n" +
						"5. Tell me the single most useful next step",
				),
			},
		},
	}, nil
}
