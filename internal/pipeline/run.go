package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dgallion1/fracture/internal/outline"
)

// Input is one document to split. Zero fields fall back to the splitter's
// options and the run's default output directory.
type Input struct {
	Path      string
	Window    outline.Window
	OutputDir string
}

// Failure records a document that could not be processed.
type Failure struct {
	Path string
	Err  error
}

// RunResult collects what happened to each input.
type RunResult struct {
	Reports  []Report
	Skipped  []string
	Failures []Failure
}

// Failed reports whether any input failed.
func (r RunResult) Failed() bool { return len(r.Failures) > 0 }

// Run splits inputs in order. Per-document failures are recorded and the run
// continues; ErrOutputExists and context cancellation stop it and are
// returned.
func (s *Splitter) Run(ctx context.Context, inputs []Input, defaultOutDir string) (RunResult, error) {
	var res RunResult
	for _, in := range inputs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		log := s.log.With("file", in.Path)

		report, err := s.runOne(ctx, in, defaultOutDir)
		switch {
		case err == nil:
			res.Reports = append(res.Reports, report)
		case errors.Is(err, outline.ErrNoOutline) || errors.Is(err, ErrNoEntries):
			log.Warn("no usable bookmarks, skipping", "reason", err)
			res.Skipped = append(res.Skipped, in.Path)
		case errors.Is(err, ErrOutputExists):
			log.Error("refusing to overwrite", "error", err)
			res.Failures = append(res.Failures, Failure{Path: in.Path, Err: err})
			return res, err
		case errors.Is(err, context.Canceled):
			return res, err
		default:
			log.Error("document failed", "error", err)
			res.Failures = append(res.Failures, Failure{Path: in.Path, Err: err})
		}
	}
	return res, nil
}

func (s *Splitter) runOne(ctx context.Context, in Input, defaultOutDir string) (Report, error) {
	data, err := os.ReadFile(in.Path)
	if err != nil {
		return Report{}, fmt.Errorf("read input: %w", err)
	}

	outDir := in.OutputDir
	if outDir == "" {
		outDir = defaultOutDir
	}
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return Report{}, fmt.Errorf("create output dir: %w", err)
	}

	w := in.Window
	if w.Start <= 0 {
		w = s.opts.Window
	}
	return s.split(ctx, data, BaseName(in.Path), outDir, w)
}

// BaseName strips the directory and extension from a document path.
func BaseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
