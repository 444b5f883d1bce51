package doctree

// BookmarkEntry is one resolved outline item inside the requested depth window.
type BookmarkEntry struct {
	Title       string   // Decoded bookmark title
	PageIndex   int      // Zero-based page the bookmark jumps to
	AtTopOfPage bool     // Jump target has no vertical offset, or sits within 5pt of the page top
	Depth       int      // 1 for top-level bookmarks
	PathNames   []string // Ancestor titles from the window start, ending with Title
}

// Segment is an inclusive page range owned by one bookmark.
type Segment struct {
	Index int            // Ordinal in page order
	Start int            // First page, zero-based
	End   int            // Last page, inclusive
	Entry BookmarkEntry  // Bookmark that opens the range
	Next  *BookmarkEntry // Bookmark that closes the range, nil at end of document
}

// Degenerate reports whether the range is empty.
func (s Segment) Degenerate() bool {
	return s.Start > s.End
}

// Pages returns the number of pages covered.
func (s Segment) Pages() int {
	if s.Degenerate() {
		return 0
	}
	return s.End - s.Start + 1
}
