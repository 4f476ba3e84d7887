// Package format renders parsed documents as JSON, tab-separated lines,
// markdown reports and HTML.
package format

import (
	"encoding"

	"github.com/dhamidi/crabrl/xbrl"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(doc *xbrl.Document) error
}

// Summary holds the document counts printed by the parse command and
// returned by the HTTP API.
type Summary struct {
	Facts      int `json:"facts"`
	TupleFacts int `json:"tupleFacts"`
	Contexts   int `json:"contexts"`
	Units      int `json:"units"`
	Tuples     int `json:"tuples"`
	Footnotes  int `json:"footnotes"`
	Concepts   int `json:"concepts"`
	SchemaRefs int `json:"schemaRefs"`
	Unresolved int `json:"unresolvedContexts"`
}

func Summarize(doc *xbrl.Document) Summary {
	s := Summary{
		Facts:      doc.Facts.Len(),
		TupleFacts: doc.TupleFactCount(),
		Contexts:   len(doc.Contexts),
		Units:      len(doc.Units),
		Tuples:     len(doc.Tuples),
		Footnotes:  len(doc.Footnotes),
		Concepts:   len(doc.Concepts()),
		SchemaRefs: len(doc.SchemaRefs),
	}
	for _, ci := range doc.Facts.ContextIndices {
		if ci < 0 {
			s.Unresolved++
		}
	}
	return s
}
