// Package server wires all MCP components and creates the server instance.
//
// This is the composition root (DIP): it creates concrete implementations
// and injects them into the tools/prompts/resources that depend on abstractions.
// No business logic lives here, only wiring.
package server

import (
	"log"

	"github.com/mark3labs/mcp-go/server"

	"github.com/HendryAvila/ostmd/internal/config"
	"github.com/HendryAvila/ostmd/internal/prompts"
	"github.com/HendryAvila/ostmd/internal/resources"
	"github.com/HendryAvila/ostmd/internal/share"
	"github.com/HendryAvila/ostmd/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// openStore is swapped in tests to simulate an unavailable share store.
var openStore = share.New

// New creates and configures the MCP server with all tools, prompts,
// and resources registered. This is the single place where all
// dependencies are resolved.
//
// The returned cleanup function closes the share store's database
// connection and must be called on shutdown (typically via defer).
// It is always non-nil and safe to call even if the store failed to open.
func New(cfg *config.Config) (*server.MCPServer, func(), error) {
	s := server.NewMCPServer(
		"ost",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// --- Register tree tools ---

	parseTool := tools.NewParseTool()
	s.AddTool(parseTool.Definition(), parseTool.Handle)

	formatTool := tools.NewFormatTool(cfg.DefaultName)
	s.AddTool(formatTool.Definition(), formatTool.Handle)

	serializeTool := tools.NewSerializeTool()
	s.AddTool(serializeTool.Definition(), serializeTool.Handle)

	encodeTool := tools.NewEncodeFragmentTool(cfg.BaseURL)
	s.AddTool(encodeTool.Definition(), encodeTool.Handle)

	decodeTool := tools.NewDecodeFragmentTool()
	s.AddTool(decodeTool.Definition(), decodeTool.Handle)

	// --- Register prompts ---

	startPrompt := prompts.NewStartPrompt()
	s.AddPrompt(startPrompt.Definition(), startPrompt.Handle)

	reviewPrompt := prompts.NewReviewPrompt()
	s.AddPrompt(reviewPrompt.Definition(), reviewPrompt.Handle)

	// --- Register share tools ---
	//
	// Stored shares are an independent subsystem: if the database cannot
	// be opened, the pure tree tools keep working. We log a warning and
	// skip share tool registration.

	store, err := openStore(cfg.Share())
	if err != nil {
		log.Printf("WARNING: share store disabled: %v", err)
		resourceHandler := resources.NewHandler(nil)
		s.AddResource(resourceHandler.DialectResource(), resourceHandler.HandleDialect)
		return s, noop, nil
	}
	cleanup := func() {
		if err := store.Close(); err != nil {
			log.Printf("WARNING: share store close: %v", err)
		}
	}
	registerShareTools(s, store, cfg.ShareURL)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(store)
	s.AddResource(resourceHandler.DialectResource(), resourceHandler.HandleDialect)
	s.AddResource(resourceHandler.SharesResource(), resourceHandler.HandleShares)

	return s, cleanup, nil
}

// noop is a no-op cleanup function used when the share store is disabled.
func noop() {}

// registerShareTools registers the stored-share MCP tools with the server.
func registerShareTools(s *server.MCPServer, store *share.Store, url tools.URLFunc) {
	saveTool := tools.NewShareSaveTool(store, url)
	s.AddTool(saveTool.Definition(), saveTool.Handle)

	getTool := tools.NewShareGetTool(store)
	s.AddTool(getTool.Definition(), getTool.Handle)

	listTool := tools.NewShareListTool(store)
	s.AddTool(listTool.Definition(), listTool.Handle)

	deleteTool := tools.NewShareDeleteTool(store)
	s.AddTool(deleteTool.Definition(), deleteTool.Handle)
}

// serverInstructions returns the system instructions that tell the AI
// how to work with tree documents.
func serverInstructions() string {
	return `You have access to an Opportunity Solution Tree (OST) toolkit.

## THE FORMAT

A tree is a plain Markdown document:
- "# Name" names the tree
- "## [Outcome] ..." is the measurable goal; "- start: / - current: / - target:" lines hold its metrics
- "### [Opportunity] ..." is a customer need or pain point
- "#### [Solution] ..." is an idea that addresses an opportunity
- "##### [Experiment] ..." tests a solution's riskiest assumption
- "@on-track", "@at-risk", "@next" or "@done" at the end of a heading sets the card status

Tags are optional when the heading level matches the type. Read ost://dialect for the full guide.

## WORKFLOW

1. Draft or edit the markdown with the user
2. Run ost_format to normalize it, and ost_parse to check the structure
3. To edit programmatically, take ost_parse format=json, change cards, then ost_serialize
4. Share with ost_encode_fragment (the whole tree lives in the link)
5. For trees too long for a link, use ost_share_save and hand out the URL

Card ids are derived from each card's position and title. Editing a title or
reordering siblings changes ids, so re-read ids with ost_parse before passing
collapsed_ids.`
}
