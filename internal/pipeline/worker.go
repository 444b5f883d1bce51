package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgallion1/fracture/internal/outline"
)

// Worker processes split jobs one at a time.
type Worker struct {
	splitter *Splitter
	log      *slog.Logger
}

func NewWorker(s *Splitter, log *slog.Logger) *Worker {
	return &Worker{splitter: s, log: log}
}

// Process splits the job's document into its output directory.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	job.SetStatus(StatusSplitting, "splitting")
	data := job.TakeFileData()
	if len(data) == 0 {
		job.AddError("empty upload")
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		log.Error("create output dir", "error", err)
		job.AddError(fmt.Sprintf("create output dir: %s", err))
		job.SetStatus(StatusFailed, "splitting")
		return
	}

	s := w.splitter.with(job.Boundary, job.Align)
	win := job.Window
	if win.Start <= 0 {
		win = s.opts.Window
	}
	report, err := s.split(ctx, data, BaseName(job.Filename), job.OutputDir, win)
	job.SetOutputs(report.Outputs)

	switch {
	case err == nil:
		log.Info("job completed", "segments", len(report.Outputs))
		job.SetStatus(StatusCompleted, "done")
	case errors.Is(err, outline.ErrNoOutline) || errors.Is(err, ErrNoEntries):
		log.Warn("no usable bookmarks", "reason", err)
		job.AddError(err.Error())
		job.SetStatus(StatusSkipped, "done")
	default:
		log.Error("split failed", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "splitting")
	}
}
