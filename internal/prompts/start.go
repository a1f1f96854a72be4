// Package prompts implements MCP prompt handlers for tree authoring.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// StartPrompt handles the ost-start MCP prompt.
// It guides the AI to draft a new tree around one desired outcome.
type StartPrompt struct{}

// NewStartPrompt creates a StartPrompt.
func NewStartPrompt() *StartPrompt {
	return &StartPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StartPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("ost-start",
		mcp.WithPromptDescription(
			"Start a new Opportunity Solution Tree. "+
				"Walks from a measurable outcome down to opportunities, "+
				"solutions and the experiments that test them.",
		),
		mcp.WithArgument("outcome",
			mcp.ArgumentDescription("The outcome the team is driving, e.g. 'Increase weekly active teams'"),
		),
		mcp.WithArgument("name",
			mcp.ArgumentDescription("Tree name. Default: the outcome"),
		),
	)
}

// Handle processes the ost-start prompt request.
func (p *StartPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	outcome := ""
	name := ""
	if args := req.Params.Arguments; args != nil {
		outcome = args["outcome"]
		name = args["name"]
	}
	if name == "" {
		name = outcome
	}
	if name == "" {
		name = "New tree"
	}

	first := "1. Ask me which outcome we are driving and how we measure it today\n"
	if outcome != "" {
		first = fmt.Sprintf("1. Start from the outcome '%s' and ask me for its start, current and target numbers\n", outcome)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Start tree: %s", name),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Help me build an Opportunity Solution Tree called '%s'.\n\n"+
						"Write it in this Markdown dialect:\n"+
						"- `# %s` as the title line\n"+
						"- `## [Outcome] Title @on-track` with `- start: N`, `- current: N`, `- target: N` lines\n"+
						"- `### [Opportunity] ...` for customer needs and pain points\n"+
						"- `#### [Solution] ...` for ideas that address an opportunity\n"+
						"- `##### [Experiment] ...` for tests of a solution's assumptions\n"+
						"- optional status suffix: @on-track, @at-risk, @next or @done\n\n"+
						"Please:\n"+
						"%s"+
						"2. Interview me for opportunities; keep them as problems, not features\n"+
						"3. For the most important opportunity, brainstorm at least three solutions\n"+
						"4. Propose one small experiment per promising solution\n"+
						"5. Run `ost_format` on the draft and show me the result with `ost_parse`\n"+
						"6. When I'm happy, create a link with `ost_encode_fragment` "+
						"(or `ost_share_save` if the tree is large)",
					name, name, first,
				)),
			},
		},
	}, nil
}
