package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/HendryAvila/ostmd/internal/fragment"
	"github.com/HendryAvila/ostmd/internal/ost"
	"github.com/HendryAvila/ostmd/internal/share"
)

var shareCmd = &cobra.Command{
	Use:   "share",
	Short: "Stored share commands",
	Long: `Store trees under short ids for documents too large for a link.

Shares live in a SQLite database under OST_DATA_DIR (default ~/.ost).`,
}

var shareSaveCmd = &cobra.Command{
	Use:   "save [file]",
	Short: "Store a tree and print its URL",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runShareSave,
}

var shareGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Print a stored tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareGet,
}

var shareUpdateCmd = &cobra.Command{
	Use:   "update <id> [file]",
	Short: "Replace a stored tree's content, keeping its id",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runShareUpdate,
}

var shareListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored trees",
	Args:  cobra.NoArgs,
	RunE:  runShareList,
}

var shareDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a stored tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runShareDelete,
}

var (
	shareName      string
	shareLayout    string
	shareExpLayout string
	shareDensity   string
	shareCollapsed []string
	shareJSON      bool
	shareLimit     int
)

func init() {
	for _, c := range []*cobra.Command{shareSaveCmd, shareUpdateCmd} {
		c.Flags().StringVar(&shareName, "name", "", "Tree name (default: the document's title)")
		c.Flags().StringVar(&shareLayout, "layout", "", "Tree layout: horizontal or vertical")
		c.Flags().StringVar(&shareExpLayout, "experiments", "", "Experiment layout: horizontal or vertical")
		c.Flags().StringVar(&shareDensity, "density", "", "Card density: compact or full")
		c.Flags().StringSliceVar(&shareCollapsed, "collapsed", nil, "Card ids to show collapsed")
	}
	shareGetCmd.Flags().BoolVar(&shareJSON, "json", false, "Print the share record as JSON")
	shareListCmd.Flags().IntVarP(&shareLimit, "limit", "n", 20, "Number of shares to show")

	shareCmd.AddCommand(shareSaveCmd, shareGetCmd, shareUpdateCmd, shareListCmd, shareDeleteCmd)
	rootCmd.AddCommand(shareCmd)
}

// withStore opens the share store for the duration of fn.
func withStore(fn func(*share.Store) error) error {
	store, err := share.New(cfg.Share())
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}

func runShareSave(cmd *cobra.Command, args []string) error {
	md, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	settings, err := fragment.ParseSettings(shareLayout, shareExpLayout, shareDensity)
	if err != nil {
		return err
	}

	return withStore(func(store *share.Store) error {
		sh, err := store.Save(share.SaveParams{
			Name:         treeName(shareName, ost.Parse(md)),
			Markdown:     md,
			Settings:     settings,
			CollapsedIDs: shareCollapsed,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.ShareURL(sh.ID))
		return nil
	})
}

func runShareGet(cmd *cobra.Command, args []string) error {
	return withStore(func(store *share.Store) error {
		sh, err := store.Get(args[0])
		if err != nil {
			return err
		}
		if shareJSON {
			return writeJSON(cmd.OutOrStdout(), sh)
		}
		_, err = io.WriteString(cmd.OutOrStdout(), sh.Markdown)
		return err
	})
}

func runShareUpdate(cmd *cobra.Command, args []string) error {
	id := args[0]
	flags := cmd.Flags()

	var p share.UpdateParams
	if len(args) == 2 {
		md, err := readInput(cmd, args[1:])
		if err != nil {
			return err
		}
		p.Markdown = &md
	}
	if flags.Changed("name") {
		p.Name = &shareName
	}
	if flags.Changed("layout") || flags.Changed("experiments") || flags.Changed("density") {
		settings, err := fragment.ParseSettings(shareLayout, shareExpLayout, shareDensity)
		if err != nil {
			return err
		}
		if settings == nil {
			settings = &fragment.Settings{}
		}
		p.Settings = settings
	}
	if flags.Changed("collapsed") {
		p.CollapsedIDs = &shareCollapsed
	}

	return withStore(func(store *share.Store) error {
		sh, err := store.Update(id, p)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "updated %s (%d cards)\n", sh.ID, sh.CardCount)
		return nil
	})
}

func runShareList(cmd *cobra.Command, args []string) error {
	return withStore(func(store *share.Store) error {
		summaries, err := store.List(shareLimit)
		if err != nil {
			return err
		}
		if len(summaries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored trees.")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCARDS\tBYTES\tUPDATED")
		for _, s := range summaries {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\n", s.ID, s.Name, s.CardCount, s.Size, s.UpdatedAt)
		}
		return w.Flush()
	})
}

func runShareDelete(cmd *cobra.Command, args []string) error {
	return withStore(func(store *share.Store) error {
		if err := store.Delete(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	})
}
