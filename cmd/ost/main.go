// ost: Opportunity Solution Trees as plain Markdown.
//
// Parses, formats and shares tree documents, and serves the same operations
// to AI coding tools over MCP.
//
// Usage:
//
//	ost parse tree.md            # Print the tree structure as JSON
//	ost fmt --write tree.md      # Normalize a document in place
//	ost link tree.md             # Print a share link carrying the tree
//	ost decode '<link>'          # Recover the markdown from a link
//	ost share save tree.md       # Store a tree too large for a link
//	ost stats 'docs/**/*.md'     # Count cards per file
//	ost serve                    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ostmd/internal/config"
	ostserver "github.com/HendryAvila/ostmd/internal/server"
)

// cfg is resolved once before any command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "ost",
	Short: "Opportunity Solution Trees as plain Markdown",
	Long: `ost reads and writes Opportunity Solution Trees kept as Markdown documents.

Headings map to cards: ## Outcome, ### Opportunity, #### Solution,
##### Experiment, or an explicit [Type] tag. A "# Name" line names the tree.`,
	Version:       ostserver.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load(envFile)
	},
}

var envFile string

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Dotenv file with OST_* settings")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readInput returns the document named by args[0], or stdin when no file
// (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", args[0], err)
	}
	return string(data), nil
}
