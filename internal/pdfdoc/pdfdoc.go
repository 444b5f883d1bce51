// Package pdfdoc adapts pdfcpu to the object graph, page extraction and
// cropping operations the splitter needs.
package pdfdoc

import (
	"bytes"
	"fmt"

	"github.com/dgallion1/fracture/internal/outline"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// US Letter, used when a page carries no usable MediaBox.
const defaultPageHeight = 792.0

// Document is a parsed PDF exposing its object graph read-only.
type Document struct {
	ctx     *model.Context
	pages   []types.Dict
	heights []float64
	refs    map[types.IndirectRef]int
}

var _ outline.Graph = (*Document)(nil)

func newConfiguration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Open parses data and indexes its pages.
func Open(data []byte) (*Document, error) {
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), newConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	doc := &Document{
		ctx:  ctx,
		refs: make(map[types.IndirectRef]int, ctx.PageCount),
	}
	for i := 1; i <= ctx.PageCount; i++ {
		d, ref, inh, err := ctx.PageDict(i, false)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", i, err)
		}
		if ref != nil {
			doc.refs[*ref] = i - 1
		}
		doc.pages = append(doc.pages, d)

		height := defaultPageHeight
		if r, ok := doc.inheritedBox(d, "MediaBox"); ok {
			height = r.Height()
		} else if inh != nil && inh.MediaBox != nil {
			height = inh.MediaBox.Height()
		}
		doc.heights = append(doc.heights, height)
	}
	return doc, nil
}

func (d *Document) Catalog() (types.Dict, error) {
	return d.ctx.Catalog()
}

func (d *Document) Deref(o types.Object) types.Object {
	if o == nil {
		return nil
	}
	v, err := d.ctx.Dereference(o)
	if err != nil {
		return nil
	}
	return v
}

func (d *Document) PageCount() int {
	return len(d.pages)
}

func (d *Document) PageHeight(i int) float64 {
	if i < 0 || i >= len(d.heights) {
		return defaultPageHeight
	}
	return d.heights[i]
}

func (d *Document) PageRefs() map[types.IndirectRef]int {
	return d.refs
}

func (d *Document) PageIndexOf(o types.Object) (int, bool) {
	for i, p := range d.pages {
		if outline.SameObject(p, o) {
			return i, true
		}
	}
	return 0, false
}

// inheritedBox looks up a page box on the page or the nearest ancestor.
func (d *Document) inheritedBox(page types.Dict, key string) (Rect, bool) {
	node := page
	for depth := 0; node != nil && depth < 64; depth++ {
		if arr, ok := outline.DerefArray(d, node[key]); ok {
			return rectFromArray(d, arr)
		}
		parent, ok := outline.DerefDict(d, node["Parent"])
		if !ok {
			break
		}
		node = parent
	}
	return Rect{}, false
}
