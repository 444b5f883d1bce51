package align

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading is a top-level markdown heading and where its line starts in the source.
type Heading struct {
	Text   string
	Level  int // 1 is the most prominent
	Offset int // Byte offset of the heading line
}

// Headings tokenizes src and returns its top-level headings in document order.
// Headings nested in lists or block quotes are not section boundaries and are ignored.
func Headings(src []byte) []Heading {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var out []Heading
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok {
			continue
		}
		lines := h.Lines()
		if lines.Len() == 0 {
			// Bare "#" lines carry no text to match against.
			continue
		}
		out = append(out, Heading{
			Text:   string(h.Text(src)),
			Level:  h.Level,
			Offset: lineStart(src, lines.At(0).Start),
		})
	}
	return out
}

func lineStart(src []byte, pos int) int {
	if pos > len(src) {
		pos = len(src)
	}
	if i := bytes.LastIndexByte(src[:pos], '\n'); i >= 0 {
		return i + 1
	}
	return 0
}

// Normalize lowercases s and drops everything that is not a letter or digit.
func Normalize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			sb.WriteRune(r)
		}
	}
	return strings.TrimSpace(sb.String())
}

// FirstHeading returns the normalized text of the first heading in src.
func FirstHeading(src string) (string, bool) {
	hs := Headings([]byte(src))
	if len(hs) == 0 {
		return "", false
	}
	return Normalize(hs[0].Text), true
}
