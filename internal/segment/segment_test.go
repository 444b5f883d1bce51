package segment

import (
	"testing"

	"github.com/dgallion1/fracture/internal/doctree"
)

func entry(title string, page int, top bool, depth int) doctree.BookmarkEntry {
	return doctree.BookmarkEntry{Title: title, PageIndex: page, AtTopOfPage: top, Depth: depth, PathNames: []string{title}}
}

func TestSortByPageOrder_TieBreak(t *testing.T) {
	in := []doctree.BookmarkEntry{
		entry("a", 2, false, 1),
		entry("b", 2, true, 1),
		entry("c", 1, true, 1),
	}
	got := SortByPageOrder(in)

	want := []struct {
		page int
		top  bool
	}{{1, true}, {2, false}, {2, true}}
	for i, w := range want {
		if got[i].PageIndex != w.page || got[i].AtTopOfPage != w.top {
			t.Fatalf("position %d: expected (%d,%v), got (%d,%v)", i, w.page, w.top, got[i].PageIndex, got[i].AtTopOfPage)
		}
	}
	if in[0].Title != "a" {
		t.Error("expected input slice to be left untouched")
	}
}

func TestSortByPageOrder_Stable(t *testing.T) {
	in := []doctree.BookmarkEntry{
		entry("first", 4, true, 1),
		entry("second", 4, true, 2),
		entry("third", 4, true, 3),
	}
	got := SortByPageOrder(in)
	for i, title := range []string{"first", "second", "third"} {
		if got[i].Title != title {
			t.Fatalf("expected outline order preserved, got %q at %d", got[i].Title, i)
		}
	}
}

func TestEndPage(t *testing.T) {
	tests := []struct {
		name string
		cur  doctree.BookmarkEntry
		next *doctree.BookmarkEntry
		n    int
		want int
	}{
		{"same page", entry("c", 3, true, 1), ptr(entry("n", 3, false, 1)), 10, 3},
		{"next at top", entry("c", 3, true, 1), ptr(entry("n", 5, true, 1)), 10, 4},
		{"next mid page", entry("c", 3, true, 1), ptr(entry("n", 5, false, 1)), 10, 5},
		{"no next", entry("c", 3, true, 1), nil, 10, 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EndPage(tt.cur, tt.next, tt.n); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestNextSiblingOrShallower(t *testing.T) {
	entries := []doctree.BookmarkEntry{
		entry("1", 0, true, 1),
		entry("1.1", 1, true, 2),
		entry("1.1.1", 2, true, 3),
		entry("1.2", 3, true, 2),
		entry("2", 5, true, 1),
	}
	tests := []struct {
		i, want int
	}{{0, 4}, {1, 3}, {2, 3}, {3, 4}, {4, -1}}
	for _, tt := range tests {
		if got := NextSiblingOrShallower(entries, tt.i); got != tt.want {
			t.Errorf("index %d: expected %d, got %d", tt.i, tt.want, got)
		}
	}
}

func TestPlan_Successor(t *testing.T) {
	sorted := []doctree.BookmarkEntry{
		entry("Chapter 1", 0, true, 1),
		entry("Chapter 2", 5, true, 1),
	}
	segs := Plan(sorted, 10, BoundarySuccessor)
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Start != 0 || segs[0].End != 4 {
		t.Errorf("expected [0,4], got [%d,%d]", segs[0].Start, segs[0].End)
	}
	if segs[1].Start != 5 || segs[1].End != 9 {
		t.Errorf("expected [5,9], got [%d,%d]", segs[1].Start, segs[1].End)
	}
	if segs[0].Next == nil || segs[0].Next.Title != "Chapter 2" {
		t.Errorf("expected first segment closed by Chapter 2")
	}
	if segs[1].Next != nil {
		t.Errorf("expected last segment to run to end of document")
	}
}

func TestPlan_SiblingSpansChildren(t *testing.T) {
	sorted := []doctree.BookmarkEntry{
		entry("1", 0, true, 1),
		entry("1.1", 2, true, 2),
		entry("2", 6, true, 1),
	}
	segs := Plan(sorted, 8, BoundarySibling)
	if segs[0].Start != 0 || segs[0].End != 5 {
		t.Errorf("expected parent to span [0,5], got [%d,%d]", segs[0].Start, segs[0].End)
	}
	if segs[1].Start != 2 || segs[1].End != 5 {
		t.Errorf("expected child [2,5], got [%d,%d]", segs[1].Start, segs[1].End)
	}
	if segs[2].End != 7 {
		t.Errorf("expected last segment to end at 7, got %d", segs[2].End)
	}
}

func TestPlan_DegenerateKeptWithIndex(t *testing.T) {
	sorted := []doctree.BookmarkEntry{
		entry("a", 3, true, 1),
		entry("b", 3, true, 1),
		entry("c", 4, true, 1),
	}
	segs := Plan(sorted, 5, BoundarySuccessor)
	// b at the top of 3 followed by c at the top of 4 ends at 3; a shares page 3.
	if segs[0].Degenerate() || segs[1].Degenerate() {
		t.Fatalf("unexpected degenerate segments: %+v", segs)
	}

	sorted = []doctree.BookmarkEntry{
		entry("x", 4, false, 1),
		entry("y", 4, true, 1),
	}
	segs = Plan(sorted, 4, BoundarySuccessor)
	if !segs[1].Degenerate() {
		t.Fatalf("expected bookmark past the last page to be degenerate, got [%d,%d]", segs[1].Start, segs[1].End)
	}
	if segs[1].Index != 1 {
		t.Errorf("expected index 1, got %d", segs[1].Index)
	}
}

func TestParseBoundary(t *testing.T) {
	if b, err := ParseBoundary(""); err != nil || b != BoundarySuccessor {
		t.Errorf("expected successor default, got %q %v", b, err)
	}
	if b, err := ParseBoundary("Sibling"); err != nil || b != BoundarySibling {
		t.Errorf("expected sibling, got %q %v", b, err)
	}
	if _, err := ParseBoundary("chapter"); err == nil {
		t.Error("expected error for unknown boundary")
	}
}

func ptr(e doctree.BookmarkEntry) *doctree.BookmarkEntry { return &e }
