// Package parser turns the bytes of an XBRL instance document into an
// [xbrl.Document] in a single pass.
//
// # Overview
//
// The parser does its own tokenization. It walks the buffer with a
// [scanner.Scanner], copies the text it keeps into an [arena.Arena] and
// interns concept names and repeated references in the document's symbol
// table. Nothing in the input is buffered or built into a tree first.
//
//	┌─────────────┐     ┌─────────────┐     ┌─────────────┐
//	│   Input     │────▶│   Scanner   │────▶│   Machine   │
//	│  (bytes)    │     │  (cursor)   │     │  (handlers) │
//	└─────────────┘     └─────────────┘     └─────────────┘
//	                                               │
//	                           ┌───────────────────┤
//	                           ▼                   ▼
//	                    ┌─────────────┐     ┌─────────────┐
//	                    │ Arena and   │     │  Document   │
//	                    │ Interner    │     │ (columnar)  │
//	                    └─────────────┘     └─────────────┘
//
// # Elements
//
// Inside the root element the machine dispatches on the local name of
// each tag:
//
//   - context, unit, schemaRef, roleRef, arcroleRef and footnoteLink have
//     dedicated handlers.
//   - Any other element with a structural prefix (link, xbrli, xbrldi, or a
//     prefix bound to one of their namespaces) is skipped with its subtree.
//   - Any other prefixed element is a fact when it carries a contextRef
//     attribute and a tuple otherwise. A [ConceptClassifier] supplied with
//     [WithConceptClassifier] overrides that guess for concepts it knows.
//
// Open tuples live on an explicit stack, so nesting depth is bounded only
// by memory.
//
// # Errors
//
// A missing id on a context or unit, malformed attributes, unterminated
// markup and invalid UTF-8 abort the parse with an [*xbrl.SyntaxError].
// Everything else is tolerated: stray closing tags are ignored, tuples
// left open at the end are closed, unmatched footnote arcs are dropped and
// references to unknown contexts or units are kept for the validator.
//
// # References
//
// A fact's contextRef and unitRef resolve against the contexts and units
// that appear before it. [WithDeferredResolution] retries unresolved
// references once the whole document has been read.
package parser
