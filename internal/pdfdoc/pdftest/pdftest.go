// Package pdftest writes small bookmarked PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"slices"
	"strings"
)

// Page size of every generated page (US Letter).
const (
	Width  = 612
	Height = 792
)

// Font sizes and baselines used for the page text.
const (
	HeaderSize  = 9
	HeadingSize = 18
	BodySize    = 11

	HeaderY  = 770
	HeadingY = 700
	BodyY    = 650
)

// Page is the text drawn on one page. Empty fields are left out.
type Page struct {
	Header  string
	Heading string
	Body    string
}

// Bookmark is a top-level outline item. When Named is set the item jumps
// through the /Names destination tree to Page, otherwise its /Dest is an
// explicit /XYZ destination at the top of Page.
type Bookmark struct {
	Title string
	Page  int
	Named string
}

type writer struct {
	buf     bytes.Buffer
	offsets []int
}

func (w *writer) object(n int, body string) {
	for len(w.offsets) < n {
		w.offsets = append(w.offsets, 0)
	}
	w.offsets[n-1] = w.buf.Len()
	fmt.Fprintf(&w.buf, "%d 0 obj\n%s\nendobj\n", n, body)
}

// Build renders pages and bookmarks into a complete PDF with a classic
// cross-reference table.
func Build(pages []Page, marks []Bookmark) []byte {
	const (
		catalogObj = 1
		pagesObj   = 2
		fontObj    = 3
		outlineObj = 4
		namesObj   = 5
		destsObj   = 6
		leafObj    = 7
		firstPage  = 8
	)
	pageObj := func(i int) int { return firstPage + 2*i }
	firstMark := firstPage + 2*len(pages)

	w := &writer{}
	w.buf.WriteString("%PDF-1.7\n")

	var named []Bookmark
	for _, m := range marks {
		if m.Named != "" {
			named = append(named, m)
		}
	}
	slices.SortFunc(named, func(a, b Bookmark) int { return strings.Compare(a.Named, b.Named) })

	catalog := fmt.Sprintf("<< /Type /Catalog /Pages %d 0 R", pagesObj)
	if len(marks) > 0 {
		catalog += fmt.Sprintf(" /Outlines %d 0 R", outlineObj)
	}
	if len(named) > 0 {
		catalog += fmt.Sprintf(" /Names %d 0 R", namesObj)
	}
	w.object(catalogObj, catalog+" >>")

	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", pageObj(i))
	}
	w.object(pagesObj, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d /MediaBox [0 0 %d %d] >>",
		strings.Join(kids, " "), len(pages), Width, Height))
	w.object(fontObj, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	// Unused slots are written as null to keep object numbers dense.
	if len(marks) > 0 {
		w.object(outlineObj, fmt.Sprintf("<< /Type /Outlines /First %d 0 R /Last %d 0 R /Count %d >>",
			firstMark, firstMark+len(marks)-1, len(marks)))
	} else {
		w.object(outlineObj, "null")
	}
	if len(named) > 0 {
		pairs := make([]string, len(named))
		for i, m := range named {
			pairs[i] = fmt.Sprintf("(%s) [%d 0 R /Fit]", m.Named, pageObj(m.Page))
		}
		w.object(namesObj, fmt.Sprintf("<< /Dests %d 0 R >>", destsObj))
		w.object(destsObj, fmt.Sprintf("<< /Kids [%d 0 R] >>", leafObj))
		w.object(leafObj, fmt.Sprintf("<< /Names [%s] /Limits [(%s) (%s)] >>",
			strings.Join(pairs, " "), named[0].Named, named[len(named)-1].Named))
	} else {
		for _, n := range []int{namesObj, destsObj, leafObj} {
			w.object(n, "null")
		}
	}

	for i, p := range pages {
		content := pageContent(p)
		w.object(pageObj(i), fmt.Sprintf("<< /Type /Page /Parent %d 0 R /Resources << /Font << /F1 %d 0 R >> >> /Contents %d 0 R >>",
			pagesObj, fontObj, pageObj(i)+1))
		w.object(pageObj(i)+1, fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content))
	}

	for i, m := range marks {
		n := firstMark + i
		item := fmt.Sprintf("<< /Title (%s) /Parent %d 0 R", escape(m.Title), outlineObj)
		if i > 0 {
			item += fmt.Sprintf(" /Prev %d 0 R", n-1)
		}
		if i < len(marks)-1 {
			item += fmt.Sprintf(" /Next %d 0 R", n+1)
		}
		if m.Named != "" {
			item += fmt.Sprintf(" /Dest (%s)", m.Named)
		} else {
			item += fmt.Sprintf(" /Dest [%d 0 R /XYZ 0 %d 0]", pageObj(m.Page), Height)
		}
		w.object(n, item+" >>")
	}

	xref := w.buf.Len()
	fmt.Fprintf(&w.buf, "xref\n0 %d\n0000000000 65535 f \n", len(w.offsets)+1)
	for _, off := range w.offsets {
		fmt.Fprintf(&w.buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&w.buf, "trailer\n<< /Size %d /Root %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(w.offsets)+1, catalogObj, xref)
	return w.buf.Bytes()
}

func pageContent(p Page) string {
	var sb strings.Builder
	line := func(s string, size, y int) {
		if s != "" {
			fmt.Fprintf(&sb, "BT /F1 %d Tf 72 %d Td (%s) Tj ET\n", size, y, escape(s))
		}
	}
	line(p.Header, HeaderSize, HeaderY)
	line(p.Heading, HeadingSize, HeadingY)
	line(p.Body, BodySize, BodyY)
	return strings.TrimRight(sb.String(), "\n")
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}
