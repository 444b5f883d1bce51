// Package segment turns page-ordered bookmarks into inclusive page ranges.
package segment

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/fracture/internal/doctree"
)

// Boundary selects which later bookmark closes a segment.
type Boundary string

const (
	// BoundarySuccessor closes a segment at the next bookmark in page order.
	BoundarySuccessor Boundary = "successor"
	// BoundarySibling closes a segment at the next bookmark at the same or a shallower depth,
	// so a parent segment spans its children.
	BoundarySibling Boundary = "sibling"
)

// ParseBoundary validates a boundary name. Empty selects BoundarySuccessor.
func ParseBoundary(s string) (Boundary, error) {
	switch Boundary(strings.ToLower(strings.TrimSpace(s))) {
	case "", BoundarySuccessor:
		return BoundarySuccessor, nil
	case BoundarySibling:
		return BoundarySibling, nil
	}
	return "", fmt.Errorf("unknown boundary %q (want successor or sibling)", s)
}

// SortByPageOrder returns a copy of entries ordered by page, with bookmarks
// that point into the middle of a page ahead of those at its top. The sort is
// stable so outline order breaks remaining ties.
func SortByPageOrder(entries []doctree.BookmarkEntry) []doctree.BookmarkEntry {
	out := slices.Clone(entries)
	slices.SortStableFunc(out, func(a, b doctree.BookmarkEntry) int {
		if a.PageIndex != b.PageIndex {
			return a.PageIndex - b.PageIndex
		}
		switch {
		case a.AtTopOfPage == b.AtTopOfPage:
			return 0
		case a.AtTopOfPage:
			return 1
		default:
			return -1
		}
	})
	return out
}

// EndPage computes the last page (inclusive) of the segment opened by cur.
// A boundary on the same page keeps that page; a boundary at the top of a
// later page ends the segment on the page before it; a boundary mid-page
// shares that page.
func EndPage(cur doctree.BookmarkEntry, next *doctree.BookmarkEntry, pageCount int) int {
	if next == nil {
		return pageCount - 1
	}
	if cur.PageIndex == next.PageIndex {
		return next.PageIndex
	}
	if next.AtTopOfPage {
		return next.PageIndex - 1
	}
	return next.PageIndex
}

// NextSiblingOrShallower returns the index of the nearest entry after i whose
// depth is not greater than entries[i].Depth, or -1.
func NextSiblingOrShallower(entries []doctree.BookmarkEntry, i int) int {
	for j := i + 1; j < len(entries); j++ {
		if entries[j].Depth <= entries[i].Depth {
			return j
		}
	}
	return -1
}

// Plan builds one segment per sorted entry. Entries must already be in page
// order. Degenerate segments are returned too so callers keep stable
// indices, and should be skipped.
func Plan(sorted []doctree.BookmarkEntry, pageCount int, boundary Boundary) []doctree.Segment {
	segs := make([]doctree.Segment, 0, len(sorted))
	for i, cur := range sorted {
		j := i + 1
		if boundary == BoundarySibling {
			j = NextSiblingOrShallower(sorted, i)
		}

		var next *doctree.BookmarkEntry
		if j >= 0 && j < len(sorted) {
			n := sorted[j]
			next = &n
		}

		segs = append(segs, doctree.Segment{
			Index: i,
			Start: cur.PageIndex,
			End:   EndPage(cur, next, pageCount),
			Entry: cur,
			Next:  next,
		})
	}
	return segs
}
