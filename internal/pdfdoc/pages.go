package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/fracture/internal/outline"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Rect is a PDF rectangle in user space.
type Rect struct {
	LLX, LLY, URX, URY float64
}

func (r Rect) Height() float64 { return r.URY - r.LLY }

func (r Rect) Width() float64 { return r.URX - r.LLX }

// Array renders r as a PDF rectangle array.
func (r Rect) Array() types.Array {
	return types.Array{types.Float(r.LLX), types.Float(r.LLY), types.Float(r.URX), types.Float(r.URY)}
}

// CropMargins shrinks a box by ratio of its height at the top and bottom.
// The second result is false when nothing would remain.
func (r Rect) CropMargins(ratio float64) (Rect, bool) {
	h := r.Height()
	newY := r.LLY + h*ratio
	newH := h * (1 - 2*ratio)
	if newH <= 0 {
		return r, false
	}
	return Rect{LLX: r.LLX, LLY: newY, URX: r.URX, URY: newY + newH}, true
}

func rectFromArray(g outline.Graph, arr types.Array) (Rect, bool) {
	if len(arr) != 4 {
		return Rect{}, false
	}
	var v [4]float64
	for i, o := range arr {
		n, ok := outline.Number(g.Deref(o))
		if !ok {
			return Rect{}, false
		}
		v[i] = n
	}
	// Normalize corners; some producers write them in either order.
	return Rect{
		LLX: min(v[0], v[2]), LLY: min(v[1], v[3]),
		URX: max(v[0], v[2]), URY: max(v[1], v[3]),
	}, true
}

// ExtractRange returns a new PDF holding pages start through end, zero-based
// and inclusive.
func ExtractRange(data []byte, start, end int) ([]byte, error) {
	if start < 0 || end < start {
		return nil, fmt.Errorf("invalid page range [%d,%d]", start, end)
	}
	var buf bytes.Buffer
	sel := []string{fmt.Sprintf("%d-%d", start+1, end+1)}
	if err := api.Trim(bytes.NewReader(data), &buf, sel, newConfiguration()); err != nil {
		return nil, fmt.Errorf("extract pages %d-%d: %w", start+1, end+1, err)
	}
	return buf.Bytes(), nil
}

// CropMargins sets each page's CropBox to exclude a band of ratio times the
// page height at the top and at the bottom. Pages where the bands would
// leave nothing are left alone. A ratio of zero or less returns data as is.
func CropMargins(data []byte, ratio float64) ([]byte, error) {
	if ratio <= 0 {
		return data, nil
	}
	doc, err := Open(data)
	if err != nil {
		return nil, err
	}

	for i, page := range doc.pages {
		box, ok := doc.inheritedBox(page, "CropBox")
		if !ok {
			box, ok = doc.inheritedBox(page, "MediaBox")
		}
		if !ok {
			box = Rect{URX: 612, URY: doc.PageHeight(i)}
		}
		cropped, ok := box.CropMargins(ratio)
		if !ok {
			continue
		}
		page["CropBox"] = cropped.Array()
	}

	var buf bytes.Buffer
	if err := api.WriteContext(doc.ctx, &buf); err != nil {
		return nil, fmt.Errorf("write cropped pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// Engine bundles the document operations behind one value.
type Engine struct{}

func (Engine) Load(data []byte) (outline.Graph, error) { return Open(data) }

func (Engine) Extract(data []byte, start, end int) ([]byte, error) {
	return ExtractRange(data, start, end)
}

func (Engine) Crop(data []byte, ratio float64) ([]byte, error) {
	return CropMargins(data, ratio)
}
