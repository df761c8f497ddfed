// Package envelope turns change-capture envelopes of unknown shape into
// canonical entity documents and resolves the latest version when the same
// natural key has been observed more than once.
package envelope

// Document is an entity or envelope as decoded from JSON.
type Document = map[string]any

// Shape classifies the envelope variants observed in the landing tables.
// Detection order matters: a structured CDC envelope stored as "the document"
// must not be mistaken for a flat entity.
type Shape int

const (
	// ShapeEmpty: no input at all.
	ShapeEmpty Shape = iota
	// ShapeCDC: structured envelope with an operation marker and a nested
	// "after" payload.
	ShapeCDC
	// ShapeLegacy: simplified envelope carrying only the "after" payload.
	ShapeLegacy
	// ShapeFullDocument: a replicated change-stream document whose
	// "fullDocument" field holds the envelope (or the entity itself).
	ShapeFullDocument
	// ShapeFlat: the document already is the entity.
	ShapeFlat
)

func (s Shape) String() string {
	switch s {
	case ShapeCDC:
		return "cdc"
	case ShapeLegacy:
		return "legacy"
	case ShapeFullDocument:
		return "full-document"
	case ShapeFlat:
		return "flat"
	default:
		return "empty"
	}
}

// Detect returns the envelope shape of doc.
func Detect(doc Document) Shape {
	if doc == nil {
		return ShapeEmpty
	}
	if after := nestedDoc(doc, "after"); after != nil {
		if _, ok := doc["op"]; ok {
			return ShapeCDC
		}
		if _, ok := doc["operation"]; ok {
			return ShapeCDC
		}
		return ShapeLegacy
	}
	if nestedDoc(doc, "fullDocument") != nil {
		return ShapeFullDocument
	}
	return ShapeFlat
}

// Extract returns the canonical entity document inside doc. The boolean is
// false only when doc itself is absent; a missing or empty field never fails.
func Extract(doc Document) (Document, bool) {
	switch Detect(doc) {
	case ShapeEmpty:
		return nil, false
	case ShapeCDC, ShapeLegacy:
		return nestedDoc(doc, "after"), true
	case ShapeFullDocument:
		full := nestedDoc(doc, "fullDocument")
		if after := nestedDoc(full, "after"); after != nil {
			return after, true
		}
		return full, true
	default:
		return doc, true
	}
}

func nestedDoc(doc Document, key string) Document {
	if doc == nil {
		return nil
	}
	inner, ok := doc[key].(map[string]any)
	if !ok {
		return nil
	}
	return inner
}
