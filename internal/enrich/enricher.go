package enrich

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Result is the per-section reference list written next to the markdown.
type Result struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Refs     []ValidatedRef `json:"refs"`
	Rejected []string       `json:"rejected,omitempty"`
}

// Enricher renders the prompt for one section, asks the extractor with
// retries, and validates the answer against the section text.
type Enricher struct {
	extractor  Extractor
	template   string
	validation Validation
	stats      *Stats
	log        *slog.Logger

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEnricher(ex Extractor, template string, v Validation, stats *Stats, log *slog.Logger) *Enricher {
	if template == "" {
		template = DefaultPrompt
	}
	if v.WindowBand <= 0 {
		v.WindowBand = DefaultValidation.WindowBand
	}
	if v.MaxDistanceRatio <= 0 {
		v.MaxDistanceRatio = DefaultValidation.MaxDistanceRatio
	}
	if stats == nil {
		stats = NewStats(time.Hour)
	}
	return &Enricher{
		extractor:  ex,
		template:   template,
		validation: v,
		stats:      stats,
		log:        log,
		sleep:      sleepCtx,
	}
}

// Stats returns the call statistics shared by this enricher.
func (e *Enricher) Stats() *Stats { return e.stats }

// Enrich extracts and validates references for one section of markdown.
func (e *Enricher) Enrich(ctx context.Context, markdown string) (Result, error) {
	prompt := RenderPrompt(e.template, markdown)

	var refs Refs
	var lastErr error
	for attempt := range MaxRetries {
		start := time.Now()
		refs, lastErr = e.extractor.Extract(ctx, prompt)
		e.stats.Record(time.Since(start), lastErr)
		if lastErr == nil || !IsRetryable(lastErr) {
			break
		}
		if attempt == MaxRetries-1 {
			break
		}
		e.log.Warn("retryable extraction error", "attempt", attempt, "error", lastErr)
		e.stats.RecordRetry()
		if err := e.sleep(ctx, Backoff(attempt)); err != nil {
			return Result{}, err
		}
	}
	if lastErr != nil {
		return Result{}, fmt.Errorf("%s extract: %w", e.extractor.Provider(), lastErr)
	}

	kept, rejected := ValidateRefs(refs.Refs, markdown, e.validation)
	if len(rejected) > 0 {
		e.log.Debug("dropped unverified refs", "count", len(rejected))
	}
	if kept == nil {
		kept = []ValidatedRef{}
	}
	return Result{
		Provider: e.extractor.Provider(),
		Model:    e.extractor.Model(),
		Refs:     kept,
		Rejected: rejected,
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
