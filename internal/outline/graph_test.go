package outline

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// memGraph is an in-memory object graph for tests.
type memGraph struct {
	objects map[int]types.Object
	catalog types.Dict
	pages   []types.Dict
	heights []float64
	refs    map[types.IndirectRef]int
}

func newMemGraph(pageCount int, height float64) *memGraph {
	g := &memGraph{
		objects: map[int]types.Object{},
		catalog: types.Dict{},
		refs:    map[types.IndirectRef]int{},
	}
	for i := range pageCount {
		page := types.Dict{"Type": types.Name("Page")}
		ref := g.add(page)
		g.pages = append(g.pages, page)
		g.heights = append(g.heights, height)
		g.refs[ref] = i
	}
	return g
}

// add stores o under the next object number and returns its reference.
func (g *memGraph) add(o types.Object) types.IndirectRef {
	n := len(g.objects) + 1
	g.objects[n] = o
	return types.IndirectRef{ObjectNumber: types.Integer(n)}
}

func (g *memGraph) pageRef(i int) types.IndirectRef {
	for ref, idx := range g.refs {
		if idx == i {
			return ref
		}
	}
	panic("no such page")
}

func (g *memGraph) Catalog() (types.Dict, error) { return g.catalog, nil }

func (g *memGraph) Deref(o types.Object) types.Object {
	if ref, ok := o.(types.IndirectRef); ok {
		return g.objects[int(ref.ObjectNumber)]
	}
	return o
}

func (g *memGraph) PageCount() int { return len(g.pages) }

func (g *memGraph) PageHeight(i int) float64 { return g.heights[i] }

func (g *memGraph) PageRefs() map[types.IndirectRef]int { return g.refs }

func (g *memGraph) PageIndexOf(o types.Object) (int, bool) {
	for i, p := range g.pages {
		if SameObject(p, o) {
			return i, true
		}
	}
	return 0, false
}

// item builds an outline item dictionary with an explicit /XYZ destination.
func (g *memGraph) item(title string, page int, top float64) types.Dict {
	return types.Dict{
		"Title": types.StringLiteral(title),
		"Dest": types.Array{
			g.pageRef(page), types.Name("XYZ"), types.Integer(0), types.Float(top), types.Integer(0),
		},
	}
}

// chain links items as siblings under parent and returns their references.
func (g *memGraph) chain(parent types.Dict, items ...types.Dict) []types.IndirectRef {
	refs := make([]types.IndirectRef, len(items))
	for i, it := range items {
		refs[i] = g.add(it)
	}
	for i, it := range items {
		if i+1 < len(items) {
			it["Next"] = refs[i+1]
		}
		if i > 0 {
			it["Prev"] = refs[i-1]
		}
	}
	if len(items) > 0 {
		parent["First"] = refs[0]
		parent["Last"] = refs[len(refs)-1]
	}
	return refs
}
