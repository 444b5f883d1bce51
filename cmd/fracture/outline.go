package main

import (
	"fmt"
	"os"

	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/pdfdoc"
	"github.com/dgallion1/fracture/internal/segment"
	"github.com/spf13/cobra"
)

var outlineCmd = &cobra.Command{
	Use:   "outline [flags] file.pdf",
	Short: "Show the page ranges a split would produce",
	Long: `Resolve the bookmarks of a PDF inside the depth window and print the
segments in page order without writing any files.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		win := outline.Window{Start: cfg.StartDepth, End: cfg.EndDepth}
		if err := win.Validate(); err != nil {
			return err
		}
		boundary, err := segment.ParseBoundary(cfg.Boundary)
		if err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		doc, err := pdfdoc.Open(data)
		if err != nil {
			return err
		}
		entries, stats, err := outline.Collect(doc, win)
		if err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
		log.Debug("outline walked", "items", stats.Items, "unresolved", stats.Unresolved, "cycles", stats.Cycles)

		segs := segment.Plan(segment.SortByPageOrder(entries), doc.PageCount(), boundary)
		printOutline(cmd.OutOrStdout(), args[0], doc.PageCount(), segs, stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(outlineCmd)
}
