package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/dgallion1/fracture/internal/align"
	"github.com/dgallion1/fracture/internal/enrich"
	"github.com/dgallion1/fracture/internal/outline"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const pageHeight = 792

// fakeGraph is an in-memory bookmarked document.
type fakeGraph struct {
	objects map[int]types.Object
	catalog types.Dict
	pages   []types.Dict
	refs    map[types.IndirectRef]int
}

type mark struct {
	title    string
	page     int
	top      float64
	children []mark
}

func newFakeGraph(pageCount int, marks ...mark) *fakeGraph {
	g := &fakeGraph{
		objects: map[int]types.Object{},
		catalog: types.Dict{},
		refs:    map[types.IndirectRef]int{},
	}
	for i := range pageCount {
		page := types.Dict{"Type": types.Name("Page")}
		g.pages = append(g.pages, page)
		g.refs[g.add(page)] = i
	}
	if marks != nil {
		root := types.Dict{"Type": types.Name("Outlines")}
		g.link(root, marks)
		g.catalog["Outlines"] = g.add(root)
	}
	return g
}

func (g *fakeGraph) add(o types.Object) types.IndirectRef {
	n := len(g.objects) + 1
	g.objects[n] = o
	return types.IndirectRef{ObjectNumber: types.Integer(n)}
}

func (g *fakeGraph) pageRef(i int) types.IndirectRef {
	for ref, idx := range g.refs {
		if idx == i {
			return ref
		}
	}
	panic("no such page")
}

func (g *fakeGraph) link(parent types.Dict, marks []mark) {
	var prev types.Dict
	for _, m := range marks {
		item := types.Dict{
			"Title": types.StringLiteral(m.title),
			"Dest": types.Array{
				g.pageRef(m.page), types.Name("XYZ"), types.Integer(0), types.Float(m.top), types.Integer(0),
			},
		}
		ref := g.add(item)
		if prev == nil {
			parent["First"] = ref
		} else {
			prev["Next"] = ref
		}
		if len(m.children) > 0 {
			g.link(item, m.children)
		}
		prev = item
	}
}

func (g *fakeGraph) Catalog() (types.Dict, error) { return g.catalog, nil }

func (g *fakeGraph) Deref(o types.Object) types.Object {
	if ref, ok := o.(types.IndirectRef); ok {
		return g.objects[int(ref.ObjectNumber)]
	}
	return o
}

func (g *fakeGraph) PageCount() int { return len(g.pages) }

func (g *fakeGraph) PageHeight(int) float64 { return pageHeight }

func (g *fakeGraph) PageRefs() map[types.IndirectRef]int { return g.refs }

func (g *fakeGraph) PageIndexOf(o types.Object) (int, bool) {
	for i, p := range g.pages {
		if outline.SameObject(p, o) {
			return i, true
		}
	}
	return 0, false
}

// fakeSource returns the same graph for every document and encodes the
// requested range in the extracted bytes.
type fakeSource struct {
	graph   *fakeGraph
	loadErr error

	mu     sync.Mutex
	ratios []float64
}

func (s *fakeSource) Load([]byte) (outline.Graph, error) {
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return s.graph, nil
}

func (s *fakeSource) Extract(_ []byte, start, end int) ([]byte, error) {
	return []byte(fmt.Sprintf("pages %d-%d", start, end)), nil
}

func (s *fakeSource) Crop(data []byte, ratio float64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratios = append(s.ratios, ratio)
	return data, nil
}

// fakeConverter renders every segment as the same markdown.
type fakeConverter struct {
	markdown string
	err      error

	mu     sync.Mutex
	inputs []string
}

func (c *fakeConverter) Convert(_ context.Context, pdf []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, string(pdf))
	if c.err != nil {
		return "", c.err
	}
	return c.markdown, nil
}

func (c *fakeConverter) Name() string { return "fake" }

type fakeEnricher struct {
	refs []string
}

func (e *fakeEnricher) Enrich(_ context.Context, markdown string) (enrich.Result, error) {
	res := enrich.Result{Provider: "fake", Model: "fake-1", Refs: []enrich.ValidatedRef{}}
	for _, r := range e.refs {
		res.Refs = append(res.Refs, enrich.ValidatedRef{Text: r, Match: enrich.MatchExact})
	}
	return res, nil
}

const bookMarkdown = "# Chapter 1\n\nIntro text.\n\n# Chapter 2\n\nMore text.\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSplitter(src Source, conv *fakeConverter, en Enricher, opts Options) *Splitter {
	return NewSplitter(src, conv, align.Aligner{Mode: align.ModeBracket}, en, opts, discardLogger())
}

// twoChapters is a ten page book with chapters starting on pages 0 and 5.
func twoChapters() *fakeGraph {
	return newFakeGraph(10,
		mark{title: "Chapter 1", page: 0, top: pageHeight},
		mark{title: "Chapter 2", page: 5, top: pageHeight},
	)
}
