package outline

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// topTolerance is how far below the page top, in points, a jump target still
// counts as the top of the page.
const topTolerance = 5

// DestKind tags the encoding a bookmark uses for its jump target.
type DestKind int

const (
	// DestExplicit is an array [page /Mode operands...].
	DestExplicit DestKind = iota
	// DestNamed is a name or string looked up in the catalog.
	DestNamed
	// DestAction is a /GoTo action wrapping an explicit or named destination.
	DestAction
)

func (k DestKind) String() string {
	switch k {
	case DestExplicit:
		return "explicit"
	case DestNamed:
		return "named"
	case DestAction:
		return "action"
	}
	return "unknown"
}

// RawDest is a destination as found on a bookmark, before page lookup.
type RawDest struct {
	Kind  DestKind
	Array types.Array // DestExplicit
	Name  string      // DestNamed
	Inner *RawDest    // DestAction
}

// Target is where a bookmark lands.
type Target struct {
	PageIndex   int
	AtTopOfPage bool
}

// Resolve finds the page a bookmark item points at. It tries /Dest first and
// falls back to a /GoTo action in /A. The second result is false when no page
// can be identified; such bookmarks are not errors.
func Resolve(g Graph, item types.Dict, pageIndexByRef map[types.IndirectRef]int) (Target, bool) {
	var dest types.Array
	if raw, ok := destFromEntry(g, item["Dest"]); ok {
		dest, _ = explicitArray(g, raw)
	}
	if dest == nil {
		if raw, ok := actionDest(g, item["A"]); ok {
			dest, _ = explicitArray(g, raw)
		}
	}
	if len(dest) == 0 {
		return Target{}, false
	}

	idx, ok := pageOf(g, dest[0], pageIndexByRef)
	if !ok {
		return Target{}, false
	}

	top, hasTop := destTop(g, dest)
	height := g.PageHeight(idx)
	return Target{
		PageIndex:   idx,
		AtTopOfPage: !hasTop || top >= height-topTolerance,
	}, true
}

// destFromEntry classifies a /Dest value or the /D of an action.
func destFromEntry(g Graph, o types.Object) (RawDest, bool) {
	if o == nil {
		return RawDest{}, false
	}
	switch v := g.Deref(o).(type) {
	case types.Array:
		return RawDest{Kind: DestExplicit, Array: v}, true
	case types.Name, types.StringLiteral, types.HexLiteral:
		if name, ok := Text(v); ok {
			return RawDest{Kind: DestNamed, Name: name}, true
		}
	}
	return RawDest{}, false
}

// actionDest reads a /GoTo action. Any other action type yields nothing.
func actionDest(g Graph, o types.Object) (RawDest, bool) {
	if o == nil {
		return RawDest{}, false
	}
	a, ok := DerefDict(g, o)
	if !ok {
		return RawDest{}, false
	}
	s, ok := g.Deref(a["S"]).(types.Name)
	if !ok || s != "GoTo" {
		return RawDest{}, false
	}
	inner, ok := destFromEntry(g, a["D"])
	if !ok {
		return RawDest{}, false
	}
	return RawDest{Kind: DestAction, Inner: &inner}, true
}

// explicitArray reduces any destination variant to its explicit array.
func explicitArray(g Graph, d RawDest) (types.Array, bool) {
	switch d.Kind {
	case DestExplicit:
		return d.Array, d.Array != nil
	case DestNamed:
		return LookupNamed(g, d.Name)
	case DestAction:
		if d.Inner == nil {
			return nil, false
		}
		return explicitArray(g, *d.Inner)
	}
	return nil, false
}

// pageOf identifies the page that the first destination element designates.
func pageOf(g Graph, first types.Object, pageIndexByRef map[types.IndirectRef]int) (int, bool) {
	if ref, ok := first.(types.IndirectRef); ok {
		idx, ok := pageIndexByRef[ref]
		return idx, ok
	}
	return g.PageIndexOf(first)
}

// destTop returns the vertical operand for /XYZ and /FitH destinations.
// Other modes, and missing or non-numeric operands, have no offset.
func destTop(g Graph, dest types.Array) (float64, bool) {
	if len(dest) < 2 {
		return 0, false
	}
	mode, ok := g.Deref(dest[1]).(types.Name)
	if !ok {
		return 0, false
	}

	var at int
	switch {
	case mode == "XYZ" && len(dest) >= 5:
		at = 3
	case mode == "FitH" && len(dest) >= 3:
		at = 2
	default:
		return 0, false
	}
	return Number(g.Deref(dest[at]))
}
