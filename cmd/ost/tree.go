package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"text/tabwriter"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/ostmd/internal/fragment"
	"github.com/HendryAvila/ostmd/internal/ost"
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Print the tree structure of a document",
	Long: `Parse a tree document (or stdin) and print its cards.

Formats:
  json     full tree: ids, parents, children, status, metrics (default)
  yaml     the same structure as YAML
  outline  indented one-line-per-card summary`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt [file]",
	Short: "Normalize a document to canonical tree Markdown",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFmt,
}

var linkCmd = &cobra.Command{
	Use:   "link [file]",
	Short: "Print a share link that carries the whole tree",
	Long: `Encode a tree document and its view settings into a share link.

The tree travels in the link's #fragment, so nothing is uploaded.

Examples:
  ost link tree.md
  ost link --layout vertical --density compact tree.md
  ost link --collapsed k2j1x0,p0a9zz --open tree.md`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLink,
}

var decodeCmd = &cobra.Command{
	Use:   "decode <token|link>",
	Short: "Recover the markdown carried by a share link",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecode,
}

var statsCmd = &cobra.Command{
	Use:   "stats <glob>...",
	Short: "Count cards per type in every matching document",
	Long: `Count cards per type in every file matching the patterns.

Patterns support ** for recursive matching, e.g. 'docs/**/*.md'.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStats,
}

var (
	parseFormat string

	fmtName  string
	fmtWrite bool

	linkName        string
	linkLayout      string
	linkExperiments string
	linkDensity     string
	linkCollapsed   []string
	linkNormalize   bool
	linkOpen        bool

	decodeJSON bool
)

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "json", "Output format: json, yaml or outline")

	fmtCmd.Flags().StringVar(&fmtName, "name", "", "Tree name for the '# ' title line (default: the document's title)")
	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "Write the result back to the file")

	linkCmd.Flags().StringVar(&linkName, "name", "", "Tree name carried in the link (default: the document's title)")
	linkCmd.Flags().StringVar(&linkLayout, "layout", "", "Tree layout: horizontal or vertical")
	linkCmd.Flags().StringVar(&linkExperiments, "experiments", "", "Experiment layout: horizontal or vertical")
	linkCmd.Flags().StringVar(&linkDensity, "density", "", "Card density: compact or full")
	linkCmd.Flags().StringSliceVar(&linkCollapsed, "collapsed", nil, "Card ids to show collapsed")
	linkCmd.Flags().BoolVar(&linkNormalize, "normalize", false, "Normalize the document before encoding")
	linkCmd.Flags().BoolVar(&linkOpen, "open", false, "Open the link in the default browser")

	decodeCmd.Flags().BoolVar(&decodeJSON, "json", false, "Print the full payload as JSON")

	rootCmd.AddCommand(parseCmd, fmtCmd, linkCmd, decodeCmd, statsCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	md, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	tree := ost.Parse(md)
	out := cmd.OutOrStdout()

	switch parseFormat {
	case "json":
		return writeJSON(out, tree)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "outline":
		_, err := io.WriteString(out, ost.Outline(tree))
		return err
	default:
		return fmt.Errorf("unknown format %q: must be json, yaml or outline", parseFormat)
	}
}

func runFmt(cmd *cobra.Command, args []string) error {
	if fmtWrite && (len(args) == 0 || args[0] == "-") {
		return errors.New("--write needs a file argument")
	}
	md, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	tree := ost.Parse(md)
	formatted := ost.Serialize(tree, treeName(fmtName, tree))

	if !fmtWrite {
		_, err := io.WriteString(cmd.OutOrStdout(), formatted)
		return err
	}
	if formatted == md {
		return nil
	}
	info, err := os.Stat(args[0])
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], []byte(formatted), info.Mode().Perm()); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "formatted %s\n", args[0])
	return nil
}

func runLink(cmd *cobra.Command, args []string) error {
	md, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	settings, err := fragment.ParseSettings(linkLayout, linkExperiments, linkDensity)
	if err != nil {
		return err
	}

	tree := ost.Parse(md)
	name := treeName(linkName, tree)
	if linkNormalize {
		md = ost.Serialize(tree, name)
	}
	for _, id := range linkCollapsed {
		if tree.Card(id) == nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: collapsed id %s is not a card in this tree\n", id)
		}
	}

	token, err := fragment.Encode(md,
		fragment.WithName(name),
		fragment.WithSettings(settings),
		fragment.WithCollapsed(linkCollapsed),
	)
	if err != nil {
		return err
	}
	link := fragment.Link(cfg.BaseURL, token)
	fmt.Fprintln(cmd.OutOrStdout(), link)

	if linkOpen {
		return openBrowser(link)
	}
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	payload, err := fragment.Decode(fragment.FromLink(args[0]))
	if err != nil {
		if errors.Is(err, fragment.ErrDecodeFailed) {
			return errors.New("not a valid tree link")
		}
		return err
	}
	if decodeJSON {
		return writeJSON(cmd.OutOrStdout(), payload)
	}
	_, err = io.WriteString(cmd.OutOrStdout(), payload.Markdown)
	return err
}

func runStats(cmd *cobra.Command, args []string) error {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range args {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return fmt.Errorf("bad pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return errors.New("no files matched")
	}
	sort.Strings(files)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "FILE\tOUTCOMES\tOPPORTUNITIES\tSOLUTIONS\tEXPERIMENTS\tTOTAL")
	var total [5]int
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "WARNING: skipping %s: %v\n", path, err)
			continue
		}
		tree := ost.Parse(string(data))
		row := countRow(tree)
		for i, n := range row {
			total[i] += n
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\n", path, row[0], row[1], row[2], row[3], row[4])
	}
	if len(files) > 1 {
		fmt.Fprintf(w, "TOTAL\t%d\t%d\t%d\t%d\t%d\n", total[0], total[1], total[2], total[3], total[4])
	}
	return w.Flush()
}

// countRow returns card counts in taxonomy order followed by the total.
func countRow(tree *ost.Tree) [5]int {
	var row [5]int
	counts := tree.CountByType()
	for i, typ := range ost.CardTypes {
		row[i] = counts[typ]
	}
	row[4] = tree.Len()
	return row
}

// treeName picks the explicit name, then the document's title, then the
// configured default.
func treeName(explicit string, tree *ost.Tree) string {
	if explicit != "" {
		return explicit
	}
	if tree.Name != ost.DefaultTreeName {
		return tree.Name
	}
	return cfg.DefaultName
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// openBrowser hands url to the platform's default opener.
func openBrowser(url string) error {
	var c *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		c = exec.Command("open", url)
	case "windows":
		c = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		c = exec.Command("xdg-open", url)
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("opening browser: %w", err)
	}
	return c.Process.Release()
}
