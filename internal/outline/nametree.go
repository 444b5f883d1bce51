package outline

import (
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// LookupNamed resolves a named destination. The catalog /Dests dictionary is
// consulted first, then the /Names /Dests name tree.
func LookupNamed(g Graph, name string) (types.Array, bool) {
	cat, err := g.Catalog()
	if err != nil || cat == nil {
		return nil, false
	}

	if dests, ok := DerefDict(g, cat["Dests"]); ok {
		if v, ok := dests[name]; ok {
			if arr, ok := destValue(g, v); ok {
				return arr, true
			}
		}
	}

	names, ok := DerefDict(g, cat["Names"])
	if !ok {
		return nil, false
	}
	root, ok := names["Dests"]
	if !ok {
		return nil, false
	}
	return findInNameTree(g, name, root, map[types.IndirectRef]bool{})
}

// findInNameTree searches a name tree node's /Names pairs, then its /Kids in
// order. The first key equal to name decides the result.
func findInNameTree(g Graph, name string, node types.Object, seen map[types.IndirectRef]bool) (types.Array, bool) {
	if ref, ok := node.(types.IndirectRef); ok {
		if seen[ref] {
			return nil, false
		}
		seen[ref] = true
	}
	d, ok := DerefDict(g, node)
	if !ok {
		return nil, false
	}

	if pairs, ok := DerefArray(g, d["Names"]); ok {
		for i := 0; i+1 < len(pairs); i += 2 {
			key, ok := Text(g.Deref(pairs[i]))
			if !ok || key != name {
				continue
			}
			return destValue(g, pairs[i+1])
		}
	}

	if kids, ok := DerefArray(g, d["Kids"]); ok {
		for _, kid := range kids {
			if arr, ok := findInNameTree(g, name, kid, seen); ok {
				return arr, true
			}
		}
	}
	return nil, false
}

// destValue accepts either a destination array or a dictionary holding one in /D.
func destValue(g Graph, o types.Object) (types.Array, bool) {
	switch v := g.Deref(o).(type) {
	case types.Array:
		return v, true
	case types.Dict:
		return DerefArray(g, v["D"])
	}
	return nil, false
}
