package store

import (
	"bytes"
	"encoding/json"
)

// matches reports whether doc contains every field of match with a
// structurally equal value. Values are compared through their canonical
// JSON encoding so that documents round-tripped through a backend compare
// equal to freshly built ones (e.g. int vs float64 after decoding).
func matches(doc, match Document) bool {
	for key, want := range match {
		got, ok := doc[key]
		if !ok {
			return false
		}
		if !valueEqual(got, want) {
			return false
		}
	}
	return true
}

func valueEqual(a, b any) bool {
	ab, err := json.Marshal(a)
	if err != nil {
		return false
	}
	bb, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(ab, bb)
}

// applySet copies the set fields onto doc, returning doc.
func applySet(doc, set Document) Document {
	for key, val := range set {
		doc[key] = val
	}
	return doc
}

// cloneDocument returns a shallow-plus-JSON copy so callers cannot mutate
// stored state through a returned document.
func cloneDocument(doc Document) Document {
	raw, err := json.Marshal(doc)
	if err != nil {
		out := make(Document, len(doc))
		for k, v := range doc {
			out[k] = v
		}
		return out
	}
	var out Document
	if err := json.Unmarshal(raw, &out); err != nil {
		out = make(Document, len(doc))
		for k, v := range doc {
			out[k] = v
		}
	}
	return out
}
