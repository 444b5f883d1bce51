package outline

import (
	"fmt"
	"slices"

	"github.com/dgallion1/fracture/internal/doctree"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Window bounds the bookmark depths that produce entries. Depth 1 is the top
// level. End 0 means no lower bound.
type Window struct {
	Start int
	End   int
}

// Contains reports whether depth is inside the window.
func (w Window) Contains(depth int) bool {
	return depth >= w.Start && (w.End == 0 || depth <= w.End)
}

// Validate checks the window bounds.
func (w Window) Validate() error {
	if w.Start < 1 {
		return fmt.Errorf("start depth must be at least 1, got %d", w.Start)
	}
	if w.End < 0 {
		return fmt.Errorf("end depth must not be negative, got %d", w.End)
	}
	if w.End != 0 && w.End < w.Start {
		return fmt.Errorf("end depth %d is above start depth %d", w.End, w.Start)
	}
	return nil
}

// Stats counts what a walk saw.
type Stats struct {
	Items      int // Outline items visited
	Unresolved int // Items whose target page could not be identified
	Cycles     int // Links back to an item already visited
}

// Collect walks the document's bookmark tree and returns the entries inside w.
func Collect(g Graph, w Window) ([]doctree.BookmarkEntry, Stats, error) {
	cat, err := g.Catalog()
	if err != nil {
		return nil, Stats{}, fmt.Errorf("read catalog: %w", err)
	}
	root, ok := DerefDict(g, cat["Outlines"])
	if !ok {
		return nil, Stats{}, ErrNoOutline
	}
	entries, stats := Walk(g, root["First"], g.PageRefs(), w)
	return entries, stats, nil
}

// Walk visits the outline in pre-order starting at first (depth 1): each item,
// then its children, then its following siblings. Entries are emitted in
// visit order.
func Walk(g Graph, first types.Object, pageIndexByRef map[types.IndirectRef]int, w Window) ([]doctree.BookmarkEntry, Stats) {
	if w.Start < 1 {
		w.Start = 1
	}
	wk := &walker{
		g:    g,
		refs: pageIndexByRef,
		win:  w,
		seen: make(map[types.IndirectRef]bool),
	}
	wk.siblings(first, 1)
	return wk.out, wk.stats
}

type walker struct {
	g     Graph
	refs  map[types.IndirectRef]int
	win   Window
	seen  map[types.IndirectRef]bool
	stack []string
	out   []doctree.BookmarkEntry
	stats Stats
}

// siblings handles one /Next chain iteratively and recurses only into /First.
func (wk *walker) siblings(node types.Object, depth int) {
	for node != nil {
		if ref, ok := node.(types.IndirectRef); ok {
			if wk.seen[ref] {
				wk.stats.Cycles++
				return
			}
			wk.seen[ref] = true
		}
		item, ok := DerefDict(wk.g, node)
		if !ok {
			return
		}
		wk.stats.Items++

		title, _ := Text(wk.g.Deref(item["Title"]))

		if tgt, ok := Resolve(wk.g, item, wk.refs); ok {
			if wk.win.Contains(depth) {
				path := append(slices.Clone(wk.stack[wk.win.Start-1:]), title)
				wk.out = append(wk.out, doctree.BookmarkEntry{
					Title:       title,
					PageIndex:   tgt.PageIndex,
					AtTopOfPage: tgt.AtTopOfPage,
					Depth:       depth,
					PathNames:   path,
				})
			}
		} else {
			wk.stats.Unresolved++
		}

		if child := item["First"]; child != nil {
			wk.stack = append(wk.stack, title)
			wk.siblings(child, depth+1)
			wk.stack = wk.stack[:len(wk.stack)-1]
		}

		node = item["Next"]
	}
}
