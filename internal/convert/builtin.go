package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	pdflib "github.com/ledongthuc/pdf"
)

// Builtin renders PDFs to markdown with ledongthuc/pdf. Headings are inferred
// from font size, and only text inside each page's CropBox is kept. When the
// library yields no text and FallbackPdftotext is set, pdftotext is tried.
type Builtin struct {
	FallbackPdftotext bool
}

func (b *Builtin) Name() string { return "builtin" }

func (b *Builtin) Convert(ctx context.Context, pdf []byte) (string, error) {
	md, err := extractMarkdown(pdf)
	if err == nil && strings.TrimSpace(md) != "" {
		return md, nil
	}
	if b.FallbackPdftotext {
		text, ferr := extractPdftotext(ctx, pdf)
		if ferr == nil {
			return text, nil
		}
		if err == nil {
			err = ferr
		}
	}
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}
	return md, nil
}

func extractMarkdown(pdf []byte) (string, error) {
	reader, err := pdflib.NewReader(bytes.NewReader(pdf), int64(len(pdf)))
	if err != nil {
		return "", err
	}

	pages := make([][]Line, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		glyphs, err := pageGlyphs(page)
		if err != nil {
			continue
		}
		pages = append(pages, GroupLines(glyphs))
	}
	return RenderMarkdown(pages), nil
}

// pageGlyphs reads positioned text from a page, dropping anything outside
// its visible box. The library panics on some malformed content streams.
func pageGlyphs(page pdflib.Page) (glyphs []Glyph, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read page content: %v", r)
		}
	}()

	box, hasBox := visibleBox(page)
	for _, t := range page.Content().Text {
		if hasBox && (t.Y < box[1] || t.Y > box[3]) {
			continue
		}
		glyphs = append(glyphs, Glyph{S: t.S, X: t.X, Y: t.Y, W: t.W, Size: t.FontSize})
	}
	return glyphs, nil
}

// visibleBox returns the inherited CropBox, or the MediaBox, as llx lly urx ury.
func visibleBox(page pdflib.Page) ([4]float64, bool) {
	for _, key := range []string{"CropBox", "MediaBox"} {
		for v := page.V; !v.IsNull(); v = v.Key("Parent") {
			box := v.Key(key)
			if box.IsNull() || box.Len() != 4 {
				continue
			}
			var r [4]float64
			for i := range 4 {
				r[i] = box.Index(i).Float64()
			}
			return [4]float64{min(r[0], r[2]), min(r[1], r[3]), max(r[0], r[2]), max(r[1], r[3])}, true
		}
	}
	return [4]float64{}, false
}

func extractPdftotext(ctx context.Context, pdf []byte) (string, error) {
	tmp, err := os.CreateTemp("", "fracture-pdf-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(pdf); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write temp file: %w", err)
	}
	tmp.Close()

	cmd := exec.CommandContext(ctx, "pdftotext", "-layout", tmpPath, "-")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext: %w", err)
	}
	return string(out), nil
}
