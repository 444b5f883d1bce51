// Package outline walks a PDF bookmark tree and resolves each bookmark to the
// page it points at.
package outline

import (
	"errors"
	"reflect"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrNoOutline is returned when the catalog has no bookmark tree.
var ErrNoOutline = errors.New("document has no outline")

// Graph is the read-only view of a PDF object graph the resolver needs.
type Graph interface {
	// Catalog returns the document catalog.
	Catalog() (types.Dict, error)
	// Deref follows indirect references. Missing objects come back as nil.
	Deref(o types.Object) types.Object
	// PageCount is the number of pages in document order.
	PageCount() int
	// PageHeight is MediaBox ury minus lly for the zero-based page i.
	PageHeight(i int) float64
	// PageRefs maps each page object reference to its zero-based index.
	PageRefs() map[types.IndirectRef]int
	// PageIndexOf finds a page given as a direct object by identity.
	PageIndexOf(o types.Object) (int, bool)
}

// DerefDict resolves o and returns it when it is a dictionary.
func DerefDict(g Graph, o types.Object) (types.Dict, bool) {
	d, ok := g.Deref(o).(types.Dict)
	return d, ok
}

// DerefArray resolves o and returns it when it is an array.
func DerefArray(g Graph, o types.Object) (types.Array, bool) {
	a, ok := g.Deref(o).(types.Array)
	return a, ok
}

// SameObject reports whether two direct dictionaries are the same object.
// Dictionaries are maps, so identity is map identity.
func SameObject(a, b types.Object) bool {
	da, ok := a.(types.Dict)
	if !ok {
		return false
	}
	db, ok := b.(types.Dict)
	if !ok {
		return false
	}
	return reflect.ValueOf(da).UnsafePointer() == reflect.ValueOf(db).UnsafePointer()
}

// Text decodes a PDF text object: literal strings, hex strings and names.
func Text(o types.Object) (string, bool) {
	switch v := o.(type) {
	case types.StringLiteral:
		s, err := types.StringLiteralToString(v)
		if err != nil {
			return string(v), true
		}
		return s, true
	case types.HexLiteral:
		s, err := types.HexLiteralToString(v)
		if err != nil {
			return "", false
		}
		return s, true
	case types.Name:
		return string(v), true
	}
	return "", false
}

// Number returns the value of an integer or real object.
func Number(o types.Object) (float64, bool) {
	switch v := o.(type) {
	case types.Integer:
		return float64(v), true
	case types.Float:
		return float64(v), true
	}
	return 0, false
}
