package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dgallion1/fracture/internal/doctree"
	"github.com/dgallion1/fracture/internal/enrich"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/pipeline"
)

var (
	// titleStyle for bold headers
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("33"))

	// dimStyle for muted metadata text
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("196"))

	// boxStyle for the run summary
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("33")).
			Padding(0, 1)
)

// printSummary renders one line per document and a totals box.
func printSummary(w io.Writer, res pipeline.RunResult, elapsed time.Duration) {
	segments := 0
	for _, r := range res.Reports {
		segments += len(r.Outputs)
		line := fmt.Sprintf("%s %s %s",
			successStyle.Render("✓"),
			r.File,
			dimStyle.Render(fmt.Sprintf("%d pages, %d segments -> %s", r.Pages, len(r.Outputs), r.OutputDir)),
		)
		if r.Degenerate > 0 {
			line += " " + warnStyle.Render(fmt.Sprintf("(%d empty ranges skipped)", r.Degenerate))
		}
		fmt.Fprintln(w, line)
	}
	for _, path := range res.Skipped {
		fmt.Fprintf(w, "%s %s %s\n", warnStyle.Render("-"), path, dimStyle.Render("no usable bookmarks"))
	}
	for _, f := range res.Failures {
		fmt.Fprintf(w, "%s %s %s\n", errorStyle.Render("✗"), f.Path, dimStyle.Render(f.Err.Error()))
	}

	status := successStyle.Render("OK")
	if res.Failed() {
		status = errorStyle.Render("FAILED")
	}
	content := titleStyle.Render("Split Complete") + "\n" +
		fmt.Sprintf("%s %d  %s %d  %s %d  %s %d\n%s %.1fs  %s",
			dimStyle.Render("Documents:"), len(res.Reports),
			dimStyle.Render("Segments:"), segments,
			dimStyle.Render("Skipped:"), len(res.Skipped),
			dimStyle.Render("Failed:"), len(res.Failures),
			dimStyle.Render("Duration:"), elapsed.Seconds(),
			status,
		)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// printLLMStats renders the reference extraction call statistics.
func printLLMStats(w io.Writer, provider, model string, s enrich.StatsSnapshot) {
	content := titleStyle.Render("Reference Extraction") + "\n" +
		fmt.Sprintf("%s %s/%s\n%s %d  %s %d  %s %d\n%s %.0fms  %s %.0fms  %s %.0fms",
			dimStyle.Render("Model:"), provider, model,
			dimStyle.Render("Calls:"), s.Calls,
			dimStyle.Render("Failed:"), s.Failed,
			dimStyle.Render("Retries:"), s.Retries,
			dimStyle.Render("Avg:"), s.AvgMs,
			dimStyle.Render("p50:"), s.P50Ms,
			dimStyle.Render("p95:"), s.P95Ms,
		)
	fmt.Fprintln(w, boxStyle.Render(content))
}

// printOutline lists planned segments, indented by bookmark depth. Pages are
// shown one-based.
func printOutline(w io.Writer, file string, pages int, segs []doctree.Segment, stats outline.Stats) {
	fmt.Fprintf(w, "%s %s\n", titleStyle.Render(file), dimStyle.Render(fmt.Sprintf("%d pages", pages)))
	for _, seg := range segs {
		indent := strings.Repeat("  ", max(seg.Entry.Depth-1, 0))
		pageRange := fmt.Sprintf("%4d-%-4d", seg.Start+1, seg.End+1)
		if seg.Degenerate() {
			pageRange = warnStyle.Render(fmt.Sprintf("%9s", "empty"))
		}
		marker := " "
		if !seg.Entry.AtTopOfPage {
			marker = dimStyle.Render("~")
		}
		fmt.Fprintf(w, "%s %s%s %s%s\n",
			dimStyle.Render(fmt.Sprintf("%03d", seg.Index)), pageRange, marker, indent, seg.Entry.Title)
	}
	if stats.Unresolved > 0 || stats.Cycles > 0 {
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d unresolved bookmarks, %d cycles", stats.Unresolved, stats.Cycles)))
	}
}
