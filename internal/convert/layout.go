package convert

import (
	"cmp"
	"math"
	"slices"
	"strings"
)

// Glyph is a positioned run of text on a page.
type Glyph struct {
	S    string
	X, Y float64
	W    float64
	Size float64
}

// Line is glyphs sharing a baseline, joined left to right.
type Line struct {
	Text string
	Y    float64
	Size float64
}

// headingScale is how much larger than body text a line must be to count as a heading.
const headingScale = 1.15

// GroupLines clusters glyphs into baselines from the top of the page down and
// joins each cluster left to right. A space is inserted where the horizontal
// gap is wider than a fifth of the font size.
func GroupLines(glyphs []Glyph) []Line {
	if len(glyphs) == 0 {
		return nil
	}
	gs := slices.Clone(glyphs)
	slices.SortStableFunc(gs, func(a, b Glyph) int { return cmp.Compare(b.Y, a.Y) })

	var clusters [][]Glyph
	for _, g := range gs {
		n := len(clusters)
		if n > 0 && sameBaseline(clusters[n-1][0], g) {
			clusters[n-1] = append(clusters[n-1], g)
			continue
		}
		clusters = append(clusters, []Glyph{g})
	}

	lines := make([]Line, 0, len(clusters))
	for _, c := range clusters {
		slices.SortStableFunc(c, func(a, b Glyph) int { return cmp.Compare(a.X, b.X) })

		var sb strings.Builder
		l := Line{Y: c[0].Y}
		prevEnd := math.Inf(-1)
		for _, g := range c {
			if sb.Len() > 0 && g.X-prevEnd > 0.2*g.Size {
				sb.WriteByte(' ')
			}
			sb.WriteString(g.S)
			prevEnd = g.X + g.W
			if strings.TrimSpace(g.S) != "" {
				l.Size = max(l.Size, g.Size)
			}
		}
		l.Text = strings.Join(strings.Fields(sb.String()), " ")
		if l.Text != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func sameBaseline(a, b Glyph) bool {
	return math.Abs(a.Y-b.Y) <= 0.5*max(a.Size, b.Size, 1)
}

// BodySize returns the font size carrying the most characters.
func BodySize(pages [][]Line) float64 {
	weight := map[float64]int{}
	for _, lines := range pages {
		for _, l := range lines {
			weight[round1(l.Size)] += len(l.Text)
		}
	}
	var body float64
	best := -1
	for size, w := range weight {
		if w > best || (w == best && size < body) {
			body, best = size, w
		}
	}
	return body
}

// HeadingLevels ranks font sizes above body size: the largest gets level 1.
// At most six sizes are ranked; smaller ones share level 6.
func HeadingLevels(pages [][]Line, body float64) map[float64]int {
	var sizes []float64
	seen := map[float64]bool{}
	for _, lines := range pages {
		for _, l := range lines {
			s := round1(l.Size)
			if s > body*headingScale && !seen[s] {
				seen[s] = true
				sizes = append(sizes, s)
			}
		}
	}
	slices.Sort(sizes)
	slices.Reverse(sizes)

	levels := make(map[float64]int, len(sizes))
	for i, s := range sizes {
		levels[s] = min(i+1, 6)
	}
	return levels
}

// RenderMarkdown turns per-page lines into markdown. Lines in a heading size
// become ATX headings, consecutive lines of the same heading size are merged,
// and large vertical gaps or page breaks start a new paragraph.
func RenderMarkdown(pages [][]Line) string {
	body := BodySize(pages)
	levels := HeadingLevels(pages, body)

	var sb strings.Builder
	var para []string
	flushPara := func() {
		if len(para) > 0 {
			sb.WriteString(strings.Join(para, "\n"))
			sb.WriteString("\n\n")
			para = nil
		}
	}

	for _, lines := range pages {
		var heading []string
		headingLevel := 0
		flushHeading := func() {
			if len(heading) > 0 {
				sb.WriteString(strings.Repeat("#", headingLevel))
				sb.WriteByte(' ')
				sb.WriteString(strings.Join(heading, " "))
				sb.WriteString("\n\n")
				heading = nil
			}
		}

		for i, l := range lines {
			level := levels[round1(l.Size)]
			if level > 0 {
				if level != headingLevel {
					flushHeading()
				}
				flushPara()
				heading = append(heading, l.Text)
				headingLevel = level
				continue
			}
			flushHeading()
			headingLevel = 0
			if i > 0 && len(para) > 0 && lines[i-1].Y-l.Y > 1.8*max(l.Size, 1) {
				flushPara()
			}
			para = append(para, l.Text)
		}
		flushHeading()
		flushPara()
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
