package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dgallion1/fracture/internal/align"
	"github.com/dgallion1/fracture/internal/convert"
	"github.com/dgallion1/fracture/internal/enrich"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/pdfdoc"
	"github.com/dgallion1/fracture/internal/pipeline"
	"github.com/dgallion1/fracture/internal/segment"
	"github.com/spf13/cobra"
)

var manifestPath string

var splitCmd = &cobra.Command{
	Use:   "split [flags] file.pdf...",
	Short: "Split PDFs along their bookmarks",
	Long: `Split every input along the bookmarks inside the depth window. Each
segment is written as NNNNNN_<bookmark path>.pdf and .md, plus .json when
--enrich is set. Existing files are never overwritten.

Inputs can also be listed in a CSV manifest with a "path" column and optional
"start", "end" and "output" columns that override the flags per document.`,
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().StringVar(&manifestPath, "manifest", "", "CSV file listing inputs (path,start,end,output)")
	rootCmd.AddCommand(splitCmd)
}

// extractorCloser is implemented by extractors that hold connections.
type extractorCloser interface {
	Close()
}

func runSplit(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	ctx := cmd.Context()

	win := outline.Window{Start: cfg.StartDepth, End: cfg.EndDepth}
	if err := win.Validate(); err != nil {
		return err
	}

	inputs := make([]pipeline.Input, 0, len(args))
	for _, path := range args {
		inputs = append(inputs, pipeline.Input{Path: path})
	}
	if manifestPath != "" {
		listed, err := pipeline.LoadManifest(manifestPath, win)
		if err != nil {
			return err
		}
		inputs = append(inputs, listed...)
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no input files")
	}

	s, stats, closeFn, err := buildSplitter(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	start := time.Now()
	res, runErr := s.Run(ctx, inputs, cfg.OutputDir)
	printSummary(cmd.OutOrStdout(), res, time.Since(start))
	if stats != nil {
		printLLMStats(cmd.OutOrStdout(), cfg.Provider, cfg.ModelFor(), stats.Snapshot())
	}

	if runErr != nil {
		return runErr
	}
	if res.Failed() {
		return fmt.Errorf("%d of %d documents failed", len(res.Failures), len(inputs))
	}
	return nil
}

// buildSplitter wires the converter, aligner and optional enricher from cfg.
// The returned func releases model client connections.
func buildSplitter(ctx context.Context) (*pipeline.Splitter, *enrich.Stats, func(), error) {
	noop := func() {}

	conv, err := convert.New(convert.Options{
		Kind:              cfg.Converter,
		Command:           cfg.ConverterCmd,
		Format:            cfg.ConverterFormat,
		FallbackPdftotext: cfg.PDFFallbackPdftotext,
	})
	if err != nil {
		return nil, nil, noop, err
	}
	boundary, err := segment.ParseBoundary(cfg.Boundary)
	if err != nil {
		return nil, nil, noop, err
	}
	mode, ok := align.ParseMode(cfg.Align)
	if !ok {
		return nil, nil, noop, fmt.Errorf("unknown align mode %q (want bracket or level)", cfg.Align)
	}

	var (
		en    pipeline.Enricher
		stats *enrich.Stats
		done  = noop
	)
	if cfg.Enrich {
		tmpl, err := enrich.LoadPrompt(cfg.PromptFile)
		if err != nil {
			return nil, nil, noop, err
		}
		ex, err := enrich.NewExtractor(ctx, enrich.ProviderOptions{
			Provider:        cfg.Provider,
			Model:           cfg.ModelFor(),
			Temperature:     cfg.OllamaTemperature,
			OllamaHost:      cfg.OllamaHost,
			AnthropicAPIKey: cfg.AnthropicAPIKey,
			GeminiAPIKey:    cfg.GeminiAPIKey,
		})
		if err != nil {
			return nil, nil, noop, err
		}
		if c, ok := ex.(extractorCloser); ok {
			done = c.Close
		}
		stats = enrich.NewStats(time.Hour)
		v := enrich.Validation{WindowBand: cfg.RefWindowBand, MaxDistanceRatio: cfg.RefDistanceRatio}
		en = enrich.NewEnricher(ex, tmpl, v, stats, log)
		log.Info("reference extraction enabled", "provider", cfg.Provider, "model", cfg.ModelFor())
	}

	s := pipeline.NewSplitter(
		pdfdoc.Engine{},
		conv,
		align.Aligner{Mode: mode, MaxDistanceRatio: cfg.DistanceRatio},
		en,
		pipeline.Options{
			Window:          outline.Window{Start: cfg.StartDepth, End: cfg.EndDepth},
			Boundary:        boundary,
			MarginRatio:     cfg.MarginRatio,
			MaxBasename:     cfg.MaxBasename,
			IndexPadding:    cfg.IndexPadding,
			NameFromHeading: cfg.NameFromHeading,
		},
		log,
	)
	return s, stats, done, nil
}
