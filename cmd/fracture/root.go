package main

import (
	"io"
	"log/slog"

	"github.com/dgallion1/fracture/internal/config"
	"github.com/spf13/cobra"
)

var (
	cfg = config.Load()
	log = slog.New(slog.DiscardHandler)

	verbose  bool
	jsonLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "fracture [flags] file.pdf...",
	Short: "Split bookmarked PDFs into per-section PDF and markdown files",
	Long: `fracture cuts a PDF along its bookmarks. Every bookmark inside the depth
window becomes a page range that is written as its own PDF, rendered to
markdown, and trimmed to the section whose heading matches the bookmark title.

Running fracture with files and no subcommand is the same as "fracture split".
Settings are read from the environment (and an optional .env file) and can be
overridden with flags.`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		log = newLogger(cmd.ErrOrStderr(), verbose, jsonLogs)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && manifestPath == "" {
			return cmd.Help()
		}
		return runSplit(cmd, args)
	},
}

func newLogger(w io.Writer, verbose, asJSON bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if asJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVarP(&verbose, "verbose", "v", false, "Log debug detail for every bookmark and segment")
	pf.BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")

	// Splitting
	pf.IntVarP(&cfg.StartDepth, "start", "s", cfg.StartDepth, "Shallowest bookmark depth to split on (1 = top level)")
	pf.IntVarP(&cfg.EndDepth, "end", "e", cfg.EndDepth, "Deepest bookmark depth to split on (0 = no limit)")
	pf.StringVarP(&cfg.OutputDir, "output", "o", cfg.OutputDir, "Directory for segment files")
	pf.Float64Var(&cfg.MarginRatio, "margin", cfg.MarginRatio, "Fraction of each page edge cropped before rendering")
	pf.Float64Var(&cfg.DistanceRatio, "distance", cfg.DistanceRatio, "Maximum relative edit distance for a heading match")
	pf.IntVar(&cfg.MaxBasename, "max-basename", cfg.MaxBasename, "Maximum length of a segment file name")
	pf.IntVar(&cfg.IndexPadding, "index-padding", cfg.IndexPadding, "Digits in the segment index prefix")
	pf.StringVar(&cfg.Boundary, "boundary", cfg.Boundary, "Segment end: successor or sibling")
	pf.StringVar(&cfg.Align, "align", cfg.Align, "Markdown trimming: bracket or level")
	pf.BoolVar(&cfg.NameFromHeading, "name-from-heading", cfg.NameFromHeading, "Name segments after the first rendered heading")

	// Conversion
	pf.StringVar(&cfg.Converter, "converter", cfg.Converter, "Markdown converter: builtin or command")
	pf.StringVar(&cfg.ConverterCmd, "converter-cmd", cfg.ConverterCmd, "Command line for the command converter")
	pf.StringVar(&cfg.ConverterFormat, "converter-format", cfg.ConverterFormat, "Output of the command converter: markdown or html")
	pf.BoolVar(&cfg.PDFFallbackPdftotext, "pdftotext-fallback", cfg.PDFFallbackPdftotext, "Use pdftotext when the builtin converter finds no text")

	// Enrichment
	pf.BoolVar(&cfg.Enrich, "enrich", cfg.Enrich, "Extract references from every section with a language model")
	pf.StringVar(&cfg.PromptFile, "prompt", cfg.PromptFile, "Prompt template file (must contain <INPUT>)")
	pf.StringVar(&cfg.Provider, "provider", cfg.Provider, "Model provider: ollama, claude or gemini")
	pf.StringVar(&cfg.Model, "model", cfg.Model, "Model name (defaults per provider)")

	rootCmd.Flags().StringVar(&manifestPath, "manifest", "", "CSV file listing inputs (path,start,end,output)")
}
