package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/fracture/internal/align"
	"github.com/dgallion1/fracture/internal/convert"
	"github.com/dgallion1/fracture/internal/doctree"
	"github.com/dgallion1/fracture/internal/enrich"
	"github.com/dgallion1/fracture/internal/naming"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/dgallion1/fracture/internal/segment"
)

var (
	// ErrOutputExists means a segment file is already on disk. It aborts the
	// whole run rather than just the current document.
	ErrOutputExists = errors.New("output file already exists")
	// ErrNoEntries means the outline has no usable bookmarks in the window.
	ErrNoEntries = errors.New("no bookmarks in depth window")
)

// Source opens documents and cuts page ranges out of them.
type Source interface {
	Load(data []byte) (outline.Graph, error)
	Extract(data []byte, start, end int) ([]byte, error)
	Crop(data []byte, ratio float64) ([]byte, error)
}

// Enricher produces the reference list for one rendered section.
type Enricher interface {
	Enrich(ctx context.Context, markdown string) (enrich.Result, error)
}

// Options controls how documents are cut and named.
type Options struct {
	Window          outline.Window
	Boundary        segment.Boundary
	MarginRatio     float64
	MaxBasename     int
	IndexPadding    int
	NameFromHeading bool
}

// Output describes the files written for one segment.
type Output struct {
	Index int      `json:"index"`
	Title string   `json:"title"`
	Name  string   `json:"name"`
	Start int      `json:"start_page"`
	End   int      `json:"end_page"`
	Files []string `json:"files"`
	Refs  int      `json:"refs,omitempty"`
}

// Report summarizes one split document.
type Report struct {
	File       string        `json:"file"`
	OutputDir  string        `json:"output_dir"`
	Pages      int           `json:"pages"`
	Entries    int           `json:"entries"`
	Degenerate int           `json:"degenerate"`
	Outline    outline.Stats `json:"-"`
	Outputs    []Output      `json:"outputs"`
}

// Splitter turns one bookmarked PDF into per-section PDF and markdown files.
type Splitter struct {
	source    Source
	converter convert.Converter
	aligner   align.Aligner
	enricher  Enricher
	opts      Options
	log       *slog.Logger
}

// NewSplitter wires the stages together. enricher may be nil.
func NewSplitter(src Source, conv convert.Converter, al align.Aligner, en Enricher, opts Options, log *slog.Logger) *Splitter {
	if opts.MaxBasename <= 0 {
		opts.MaxBasename = naming.DefaultMaxLength
	}
	if opts.IndexPadding <= 0 {
		opts.IndexPadding = naming.DefaultIndexPadding
	}
	if opts.Window.Start <= 0 {
		opts.Window.Start = 1
	}
	if opts.Boundary == "" {
		opts.Boundary = segment.BoundarySuccessor
	}
	return &Splitter{
		source:    src,
		converter: conv,
		aligner:   al,
		enricher:  en,
		opts:      opts,
		log:       log,
	}
}

// Split processes data with the configured depth window. baseName names
// segments that have no usable bookmark path.
func (s *Splitter) Split(ctx context.Context, data []byte, baseName, outDir string) (Report, error) {
	return s.split(ctx, data, baseName, outDir, s.opts.Window)
}

// with returns a copy of s using the given boundary and align mode when set.
func (s *Splitter) with(b segment.Boundary, m align.Mode) *Splitter {
	c := *s
	if b != "" {
		c.opts.Boundary = b
	}
	if m != "" {
		c.aligner.Mode = m
	}
	return &c
}

func (s *Splitter) split(ctx context.Context, data []byte, baseName, outDir string, w outline.Window) (Report, error) {
	log := s.log.With("file", baseName)
	report := Report{File: baseName, OutputDir: outDir}

	g, err := s.source.Load(data)
	if err != nil {
		return report, fmt.Errorf("open document: %w", err)
	}
	report.Pages = g.PageCount()

	entries, stats, err := outline.Collect(g, w)
	report.Outline = stats
	if err != nil {
		return report, err
	}
	if stats.Cycles > 0 {
		log.Warn("outline contains cycles", "cycles", stats.Cycles)
	}
	if stats.Unresolved > 0 {
		log.Debug("dropped unresolved bookmarks", "count", stats.Unresolved)
	}
	if len(entries) == 0 {
		return report, ErrNoEntries
	}
	report.Entries = len(entries)

	sorted := segment.SortByPageOrder(entries)
	for _, seg := range segment.Plan(sorted, g.PageCount(), s.opts.Boundary) {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if seg.Degenerate() {
			report.Degenerate++
			log.Debug("skipping empty segment", "segment", seg.Index, "title", seg.Entry.Title)
			continue
		}
		out, err := s.writeSegment(ctx, log, data, baseName, outDir, seg)
		if err != nil {
			return report, err
		}
		report.Outputs = append(report.Outputs, out)
	}

	log.Info("document split", "segments", len(report.Outputs), "pages", report.Pages)
	return report, nil
}

func (s *Splitter) writeSegment(ctx context.Context, log *slog.Logger, data []byte, baseName, outDir string, seg doctree.Segment) (Output, error) {
	log = log.With("segment", seg.Index, "pages", fmt.Sprintf("%d-%d", seg.Start, seg.End))

	part, err := s.source.Extract(data, seg.Start, seg.End)
	if err != nil {
		return Output{}, fmt.Errorf("segment %d: extract pages: %w", seg.Index, err)
	}
	cropped, err := s.source.Crop(part, s.opts.MarginRatio)
	if err != nil {
		return Output{}, fmt.Errorf("segment %d: crop margins: %w", seg.Index, err)
	}

	md, err := s.converter.Convert(ctx, cropped)
	if err != nil {
		return Output{}, fmt.Errorf("segment %d: convert with %s: %w", seg.Index, s.converter.Name(), err)
	}

	next := ""
	if seg.Next != nil {
		next = seg.Next.Title
	}
	md = s.aligner.Trim(md, seg.Entry.Title, next)

	parts := naming.SanitizeParts(seg.Entry.PathNames)
	if s.opts.NameFromHeading {
		if h, ok := align.FirstHeading(md); ok && h != "" {
			parts = []string{naming.Sanitize(h)}
		}
	}
	base := naming.SafeBasename(parts, baseName, seg.Index, s.opts.MaxBasename)
	name := naming.SegmentName(seg.Index, s.opts.IndexPadding, base)

	out := Output{
		Index: seg.Index,
		Title: seg.Entry.Title,
		Name:  name,
		Start: seg.Start,
		End:   seg.End,
	}

	var refs []byte
	if s.enricher != nil {
		res, err := s.enricher.Enrich(ctx, md)
		if err != nil {
			return Output{}, fmt.Errorf("segment %d: enrich: %w", seg.Index, err)
		}
		refs, err = json.MarshalIndent(res, "", "  ")
		if err != nil {
			return Output{}, fmt.Errorf("segment %d: encode refs: %w", seg.Index, err)
		}
		out.Refs = len(res.Refs)
	}

	files := []outFile{{".pdf", part}, {".md", []byte(md)}}
	if refs != nil {
		files = append(files, outFile{".json", refs})
	}
	for _, f := range files {
		path := filepath.Join(outDir, name+f.ext)
		if err := writeExclusive(path, f.data); err != nil {
			return Output{}, err
		}
		out.Files = append(out.Files, path)
	}

	log.Info("segment written", "name", name, "title", seg.Entry.Title)
	return out, nil
}

type outFile struct {
	ext  string
	data []byte
}

// writeExclusive creates path and fails with ErrOutputExists if it is
// already present.
func writeExclusive(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: %s", ErrOutputExists, path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
