// Package align crops a markdown rendering of a page range down to the
// section that belongs to a bookmark, matching bookmark titles against
// headings approximately.
package align

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultMaxDistanceRatio is the edit distance, relative to the longer of the
// two normalized strings, above which a heading is not considered a match.
const DefaultMaxDistanceRatio = 0.4

// Mode selects how the end of a section is found.
type Mode string

const (
	// ModeBracket ends the section at the heading that matches the next bookmark title.
	ModeBracket Mode = "bracket"
	// ModeLevel ends the section at the next heading of the same or higher prominence.
	ModeLevel Mode = "level"
)

// ParseMode validates a mode name. Empty selects ModeBracket.
func ParseMode(s string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeBracket:
		return ModeBracket, true
	case ModeLevel:
		return ModeLevel, true
	}
	return "", false
}

// Aligner trims markdown to bookmark sections.
type Aligner struct {
	Mode             Mode
	MaxDistanceRatio float64
}

// Trim crops md to the section titled anchor. next is the title of the
// following bookmark and only matters in bracket mode.
func (a Aligner) Trim(md, anchor, next string) string {
	ratio := a.MaxDistanceRatio
	if ratio <= 0 {
		ratio = DefaultMaxDistanceRatio
	}
	if a.Mode == ModeLevel {
		return TrimToSection(md, anchor, ratio)
	}
	return TrimBetween(md, anchor, next, ratio)
}

// TrimToSection keeps the text from the heading best matching anchor up to
// the next heading whose level is the same or more prominent. When no heading
// matches, md is returned unchanged.
func TrimToSection(md, anchor string, maxDistanceRatio float64) string {
	src := []byte(md)
	hs := Headings(src)

	start := bestMatch(hs, anchor, 0, maxDistanceRatio)
	if start < 0 {
		return md
	}

	end := len(src)
	for _, h := range hs[start+1:] {
		if h.Level <= hs[start].Level {
			end = h.Offset
			break
		}
	}
	return strings.TrimRightFunc(string(src[hs[start].Offset:end]), unicode.IsSpace)
}

// TrimBetween keeps the text from the heading best matching anchor up to the
// heading best matching next, searched only after the anchor. Without a match
// for next the section runs to the end of md. When anchor does not match, md
// is returned unchanged.
func TrimBetween(md, anchor, next string, maxDistanceRatio float64) string {
	src := []byte(md)
	hs := Headings(src)

	start := bestMatch(hs, anchor, 0, maxDistanceRatio)
	if start < 0 {
		return md
	}

	end := len(src)
	if next != "" {
		if i := bestMatch(hs, next, start+1, maxDistanceRatio); i >= 0 {
			end = hs[i].Offset
		}
	}
	return strings.TrimRightFunc(string(src[hs[start].Offset:end]), unicode.IsSpace)
}

// bestMatch returns the index of the heading at or after from with the
// smallest edit distance to title, or -1. Ties go to the earliest heading.
func bestMatch(hs []Heading, title string, from int, maxDistanceRatio float64) int {
	target := Normalize(title)
	targetLen := utf8.RuneCountInString(target)

	best, bestDist := -1, 0
	for i := from; i < len(hs); i++ {
		norm := Normalize(hs[i].Text)
		d := levenshtein.ComputeDistance(norm, target)
		if Exceeds(d, max(utf8.RuneCountInString(norm), targetLen, 1), maxDistanceRatio) {
			continue
		}
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Exceeds reports whether distance d over length n is above ratio.
func Exceeds(d, n int, ratio float64) bool {
	return float64(d)/float64(n) > ratio
}
