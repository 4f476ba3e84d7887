package parser

import (
	"github.com/dhamidi/crabrl/arena"
	"github.com/dhamidi/crabrl/scanner"
	"github.com/dhamidi/crabrl/xbrl"
	"github.com/tliron/commonlog"
)

const (
	nsInstance  = "http://www.xbrl.org/2003/instance"
	nsLinkbase  = "http://www.xbrl.org/2003/linkbase"
	nsDimension = "http://xbrl.org/2006/xbrldi"
)

// machine holds the state of one parse.
type machine struct {
	s          *scanner.Scanner
	a          *arena.Arena
	doc        *xbrl.Document
	log        commonlog.Logger
	classifier ConceptClassifier
	deferred   bool

	attrs      []attr
	inRoot     bool
	done       bool
	structural map[string]bool

	// tuples is the stack of open tuples, innermost last.
	tuples []*xbrl.Tuple

	contexts map[string]int32
	units    map[string]uint32
	pending  []int
}

func newMachine(p *Parser, s *scanner.Scanner, doc *xbrl.Document) *machine {
	return &machine{
		s:          s,
		a:          p.arena,
		doc:        doc,
		log:        p.log,
		classifier: p.classifier,
		deferred:   p.deferred,
		attrs:      make([]attr, 0, 16),
		structural: map[string]bool{"link": true, "xbrli": true, "xbrldi": true},
		contexts:   make(map[string]int32),
		units:      make(map[string]uint32),
	}
}

func (m *machine) syntax(format string, args ...any) error {
	return xbrl.Syntax(m.s.Pos(), format, args...)
}

func (m *machine) syntaxAt(offset int, format string, args ...any) error {
	return xbrl.Syntax(offset, format, args...)
}

// str copies b into the arena.
func (m *machine) str(b []byte) string {
	return m.a.String(b)
}

// canonical returns the interned copy of b. Used for strings that repeat
// across facts.
func (m *machine) canonical(b []byte) string {
	return m.doc.Symbols.Canonical(b)
}

func (m *machine) internText(s string) string {
	return m.doc.Symbols.Canonical([]byte(s))
}

func (m *machine) run() error {
	m.skipBOM()
	for !m.done {
		lt := m.s.FindNext('<')
		if lt < 0 {
			break
		}
		m.s.Seek(lt)
		if err := m.markup(); err != nil {
			return err
		}
	}
	m.finish()
	return nil
}

// markup dispatches on the construct starting at '<'.
func (m *machine) markup() error {
	if ok, err := m.skipSpecial(); ok {
		return err
	}
	if m.s.HasPrefix(closeOpen) {
		name, err := m.readCloseTag()
		if err != nil {
			return err
		}
		m.closeTag(name)
		return nil
	}
	el, err := m.readOpenTag()
	if err != nil {
		return err
	}
	if !m.inRoot {
		if localNameIs(el.name, "xbrl") {
			m.openRoot(el)
		}
		return nil
	}
	return m.openTag(el)
}

func (m *machine) openRoot(el element) {
	for _, a := range el.attrs {
		switch {
		case string(a.name) == "xmlns":
			m.doc.Namespaces[""] = m.str(a.value)
		case len(a.name) > 6 && string(a.name[:6]) == "xmlns:":
			prefix := m.str(a.name[6:])
			uri := m.str(a.value)
			m.doc.Namespaces[prefix] = uri
			switch uri {
			case nsInstance, nsLinkbase, nsDimension:
				m.structural[prefix] = true
			}
		}
	}
	m.inRoot = true
	if el.selfClosing {
		m.done = true
	}
}

// isStructural reports whether name is in the instance, linkbase or
// dimension vocabulary. Unprefixed names count when the default namespace
// is not declared or is one of those.
func (m *machine) isStructural(name []byte) bool {
	prefix := prefixOf(name)
	if prefix == nil {
		switch m.doc.Namespaces[""] {
		case "", nsInstance, nsLinkbase, nsDimension:
			return true
		}
		return false
	}
	return m.structural[string(prefix)]
}

func (m *machine) openTag(el element) error {
	structural := m.isStructural(el.name)
	if structural {
		switch local := string(localName(el.name)); local {
		case "context":
			return m.parseContext(el)
		case "unit":
			return m.parseUnit(el)
		case "footnoteLink":
			return m.parseFootnoteLink(el)
		case "schemaRef", "roleRef", "arcroleRef":
			m.recordRef(local, el)
			return m.skipElement(el)
		}
		return m.skipElement(el)
	}
	if prefixOf(el.name) == nil {
		return m.skipElement(el)
	}
	if m.isTuple(el) {
		m.openTuple(el)
		return nil
	}
	return m.parseFact(el)
}

func (m *machine) recordRef(kind string, el element) {
	switch kind {
	case "schemaRef":
		if v, ok := el.localAttr("href"); ok {
			m.doc.SchemaRefs = append(m.doc.SchemaRefs, m.str(v))
		}
	case "roleRef":
		if v, ok := el.attr("roleURI"); ok {
			m.doc.RoleRefs = append(m.doc.RoleRefs, m.str(v))
		}
	case "arcroleRef":
		if v, ok := el.attr("arcroleURI"); ok {
			m.doc.ArcroleRefs = append(m.doc.ArcroleRefs, m.str(v))
		}
	}
}

func (m *machine) isTuple(el element) bool {
	_, hasContext := el.attr("contextRef")
	tuple := !hasContext
	if m.classifier != nil {
		prefix := prefixOf(el.name)
		ns := m.doc.Namespaces[string(prefix)]
		if t, known := m.classifier.IsTuple(ns, string(localName(el.name))); known {
			tuple = t
		}
	}
	return tuple
}

func (m *machine) openTuple(el element) {
	t := &xbrl.Tuple{Name: m.canonical(el.name)}
	if id, ok := el.attr("id"); ok {
		t.ID = m.str(id)
	}
	m.tuples = append(m.tuples, t)
	if el.selfClosing {
		m.popTuple()
	}
}

// popTuple closes the innermost tuple, attaching it to its parent or to the
// document.
func (m *machine) popTuple() {
	n := len(m.tuples)
	t := m.tuples[n-1]
	m.tuples = m.tuples[:n-1]
	if n > 1 {
		parent := m.tuples[n-2]
		parent.Items = append(parent.Items, xbrl.TupleItem{Tuple: t})
		return
	}
	m.doc.Tuples = append(m.doc.Tuples, *t)
}

func (m *machine) closeTag(name []byte) {
	if n := len(m.tuples); n > 0 && sameElement([]byte(m.tuples[n-1].Name), name) {
		m.popTuple()
		return
	}
	if m.inRoot && localNameIs(name, "xbrl") {
		m.done = true
		return
	}
	m.log.Debugf("ignoring stray closing tag </%s> at offset %d", name, m.s.Pos())
}

// fact attributes, copied out of the attribute buffer before the content
// is read.
type factAttrs struct {
	contextRef []byte
	unitRef    []byte
	id         []byte
	decimals   []byte
	precision  []byte
	nilReason  []byte
	isNil      bool
}

func (m *machine) parseFact(el element) error {
	var fa factAttrs
	for _, a := range el.attrs {
		switch {
		case string(a.name) == "contextRef":
			fa.contextRef = a.value
		case string(a.name) == "unitRef":
			fa.unitRef = a.value
		case string(a.name) == "id":
			fa.id = a.value
		case string(a.name) == "decimals":
			fa.decimals = a.value
		case string(a.name) == "precision":
			fa.precision = a.value
		case localNameIs(a.name, "nil"):
			fa.isNil = string(a.value) == "true" || string(a.value) == "1"
		case localNameIs(a.name, "nilReason"):
			fa.nilReason = a.value
		}
	}

	var raw string
	switch {
	case el.selfClosing:
	case fa.isNil:
		if err := m.skipElement(el); err != nil {
			return err
		}
	case m.startsWithChild("numerator"):
		s, err := m.readFraction(el)
		if err != nil {
			return err
		}
		raw = s
	default:
		s, _, err := m.readText(el)
		if err != nil {
			return err
		}
		raw = s
	}

	value := xbrl.CoerceValue(raw, fa.isNil, m.internText)
	concept := m.canonical(el.name)

	if n := len(m.tuples); n > 0 {
		f := &xbrl.Fact{
			Concept:    concept,
			ContextRef: m.canonical(fa.contextRef),
			UnitRef:    m.canonical(fa.unitRef),
			ID:         m.str(fa.id),
			Value:      value,
			Decimals:   xbrl.ParseAccuracy(view(fa.decimals)),
			Precision:  xbrl.ParseAccuracy(view(fa.precision)),
			NilReason:  m.str(fa.nilReason),
		}
		top := m.tuples[n-1]
		top.Items = append(top.Items, xbrl.TupleItem{Fact: f})
		return nil
	}

	row := xbrl.Row{
		Concept:    m.doc.Symbols.InternBytes(el.name),
		Value:      value,
		Decimals:   xbrl.ParseAccuracy(view(fa.decimals)),
		Precision:  xbrl.ParseAccuracy(view(fa.precision)),
		ID:         m.str(fa.id),
		ContextRef: m.canonical(fa.contextRef),
		UnitRef:    m.canonical(fa.unitRef),
		NilReason:  m.str(fa.nilReason),
	}
	ci, cok := m.contextIndex(row.ContextRef)
	ui, uok := m.unitIndex(row.UnitRef)
	row.ContextIndex = ci
	row.UnitIndex = ui
	i := m.doc.Facts.Append(row)
	if !cok || !uok {
		if m.deferred {
			m.pending = append(m.pending, i)
		} else {
			m.log.Debugf("fact %s at offset %d references unknown context %q or unit %q",
				concept, el.offset, row.ContextRef, row.UnitRef)
		}
	}
	return nil
}

func (m *machine) contextIndex(ref string) (int32, bool) {
	if i, ok := m.contexts[ref]; ok {
		return i, true
	}
	return -1, false
}

// unitIndex returns the offset-by-one index of a unit. A fact without a
// unit resolves to 0.
func (m *machine) unitIndex(ref string) (uint32, bool) {
	if ref == "" {
		return 0, true
	}
	if i, ok := m.units[ref]; ok {
		return i + 1, true
	}
	return 0, false
}

func (m *machine) commitContext(ctx xbrl.Context) {
	i := int32(len(m.doc.Contexts))
	m.doc.Contexts = append(m.doc.Contexts, ctx)
	if _, dup := m.contexts[ctx.ID]; !dup {
		m.contexts[ctx.ID] = i
	}
}

func (m *machine) commitUnit(u xbrl.Unit) {
	i := uint32(len(m.doc.Units))
	m.doc.Units = append(m.doc.Units, u)
	if _, dup := m.units[u.ID]; !dup {
		m.units[u.ID] = i
	}
}

// nextChild advances to the next child element of parent, skipping
// character data, comments and processing instructions. done is true once
// parent's closing tag has been consumed. A closing tag for some other
// element also ends the children; it is left for the caller's caller.
func (m *machine) nextChild(parent element) (element, bool, error) {
	if parent.selfClosing {
		return element{}, true, nil
	}
	for {
		lt := m.s.FindNext('<')
		if lt < 0 {
			return element{}, true, m.syntaxAt(parent.offset, "unterminated element <%s>", parent.name)
		}
		m.s.Seek(lt)
		if ok, err := m.skipSpecial(); ok {
			if err != nil {
				return element{}, true, err
			}
			continue
		}
		if m.s.HasPrefix(closeOpen) {
			name, err := m.readCloseTag()
			if err != nil {
				return element{}, true, err
			}
			if !sameElement(parent.name, name) {
				m.log.Debugf("element <%s> closed by </%s>", parent.name, name)
				m.s.Seek(lt)
			}
			return element{}, true, nil
		}
		el, err := m.readOpenTag()
		return el, false, err
	}
}

func (m *machine) finish() {
	for len(m.tuples) > 0 {
		m.log.Warningf("closing unterminated tuple %s", m.tuples[len(m.tuples)-1].Name)
		m.popTuple()
	}
	if m.deferred {
		m.resolvePending()
	}
	m.linkFootnotes()
}

func (m *machine) resolvePending() {
	f := &m.doc.Facts
	for _, i := range m.pending {
		if ci, ok := m.contextIndex(f.ContextRefs[i]); ok {
			f.ContextIndices[i] = ci
		}
		if ui, ok := m.unitIndex(f.UnitRefs[i]); ok {
			f.UnitIndices[i] = ui
		}
	}
	m.pending = nil
}

// linkFootnotes records each footnote's id on the facts it references.
func (m *machine) linkFootnotes() {
	if len(m.doc.Footnotes) == 0 {
		return
	}
	rows := make(map[string]int)
	for i, id := range m.doc.Facts.IDs {
		if id != "" {
			if _, dup := rows[id]; !dup {
				rows[id] = i
			}
		}
	}
	for _, fn := range m.doc.Footnotes {
		for _, ref := range fn.FactRefs {
			if i, ok := rows[ref]; ok {
				m.doc.Facts.FootnoteRefs[i] = append(m.doc.Facts.FootnoteRefs[i], fn.ID)
			}
		}
	}
}
