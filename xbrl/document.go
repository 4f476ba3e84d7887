// Package xbrl holds the in-memory model of a parsed instance document.
package xbrl

import (
	"slices"
	"strconv"
	"strings"

	"github.com/dhamidi/crabrl/arena"
)

type Document struct {
	Facts     FactStorage
	Contexts  []Context
	Units     []Unit
	Tuples    []Tuple
	Footnotes []Footnote

	PresentationLinks []PresentationLink
	CalculationLinks  []CalculationLink
	DefinitionLinks   []DefinitionLink
	LabelLinks        []LabelLink
	ReferenceLinks    []ReferenceLink

	// Namespaces maps prefixes declared on the root element to URIs. The
	// default namespace is stored under "".
	Namespaces  map[string]string
	SchemaRefs  []string
	RoleRefs    []string
	ArcroleRefs []string

	Symbols *arena.Interner
}

func NewDocument(symbols *arena.Interner) *Document {
	if symbols == nil {
		symbols = arena.NewInterner()
	}
	return &Document{
		Namespaces: make(map[string]string),
		Symbols:    symbols,
	}
}

// Concept returns the concept name of fact i.
func (d *Document) Concept(i int) string {
	return d.Symbols.MustResolve(d.Facts.ConceptIDs[i])
}

// Context returns the context of fact i, if it was resolved.
func (d *Document) Context(i int) (*Context, bool) {
	ci := d.Facts.ContextIndices[i]
	if ci < 0 || int(ci) >= len(d.Contexts) {
		return nil, false
	}
	return &d.Contexts[ci], true
}

// Unit returns the unit of fact i, if it has one.
func (d *Document) Unit(i int) (*Unit, bool) {
	ui := d.Facts.UnitIndices[i]
	if ui == 0 || int(ui) > len(d.Units) {
		return nil, false
	}
	return &d.Units[ui-1], true
}

// Fact materializes row i of the fact storage.
func (d *Document) Fact(i int) Fact {
	s := &d.Facts
	return Fact{
		Concept:      d.Concept(i),
		ContextRef:   s.ContextRefs[i],
		UnitRef:      s.UnitRefs[i],
		ID:           s.IDs[i],
		Value:        s.Values[i],
		Decimals:     s.Decimals[i],
		Precision:    s.Precision[i],
		NilReason:    s.NilReasons[i],
		FootnoteRefs: s.FootnoteRefs[i],
	}
}

// ContextIndex returns the position of the first context with the given id.
func (d *Document) ContextIndex(id string) (int, bool) {
	for i := range d.Contexts {
		if d.Contexts[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func (d *Document) UnitIndex(id string) (int, bool) {
	for i := range d.Units {
		if d.Units[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

// FactIndexByID returns the row of the fact with the given id attribute.
func (d *Document) FactIndexByID(id string) (int, bool) {
	if id == "" {
		return -1, false
	}
	for i, fid := range d.Facts.IDs {
		if fid == id {
			return i, true
		}
	}
	return -1, false
}

// Concepts returns the distinct concept names reported by top-level facts in
// first-seen order.
func (d *Document) Concepts() []string {
	seen := make(map[arena.Symbol]bool)
	var out []string
	for _, id := range d.Facts.ConceptIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, d.Symbols.MustResolve(id))
	}
	return out
}

// TupleFactCount counts the facts held inside tuples, at any depth.
func (d *Document) TupleFactCount() int {
	n := 0
	var walk func(t *Tuple)
	walk = func(t *Tuple) {
		for _, it := range t.Items {
			if it.Fact != nil {
				n++
			}
			if it.Tuple != nil {
				walk(it.Tuple)
			}
		}
	}
	for i := range d.Tuples {
		walk(&d.Tuples[i])
	}
	return n
}

// FactStorage is a structure of arrays over the document's top-level facts.
// All columns have the same length.
type FactStorage struct {
	ConceptIDs []arena.Symbol
	// ContextIndices holds -1 for references that did not resolve.
	ContextIndices []int32
	// UnitIndices is offset by one; 0 means the fact has no unit.
	UnitIndices  []uint32
	Values       []FactValue
	Decimals     []Accuracy
	Precision    []Accuracy
	IDs          []string
	FootnoteRefs [][]string
	ContextRefs  []string
	UnitRefs     []string
	NilReasons   []string
}

func (s *FactStorage) Len() int { return len(s.ConceptIDs) }

// Grow reserves room for n more facts in every column.
func (s *FactStorage) Grow(n int) {
	if n <= 0 {
		return
	}
	s.ConceptIDs = slices.Grow(s.ConceptIDs, n)
	s.ContextIndices = slices.Grow(s.ContextIndices, n)
	s.UnitIndices = slices.Grow(s.UnitIndices, n)
	s.Values = slices.Grow(s.Values, n)
	s.Decimals = slices.Grow(s.Decimals, n)
	s.Precision = slices.Grow(s.Precision, n)
	s.IDs = slices.Grow(s.IDs, n)
	s.FootnoteRefs = slices.Grow(s.FootnoteRefs, n)
	s.ContextRefs = slices.Grow(s.ContextRefs, n)
	s.UnitRefs = slices.Grow(s.UnitRefs, n)
	s.NilReasons = slices.Grow(s.NilReasons, n)
}

// Row is one fact as appended to FactStorage.
type Row struct {
	Concept      arena.Symbol
	ContextIndex int32
	UnitIndex    uint32
	Value        FactValue
	Decimals     Accuracy
	Precision    Accuracy
	ID           string
	ContextRef   string
	UnitRef      string
	NilReason    string
}

func (s *FactStorage) Append(r Row) int {
	s.ConceptIDs = append(s.ConceptIDs, r.Concept)
	s.ContextIndices = append(s.ContextIndices, r.ContextIndex)
	s.UnitIndices = append(s.UnitIndices, r.UnitIndex)
	s.Values = append(s.Values, r.Value)
	s.Decimals = append(s.Decimals, r.Decimals)
	s.Precision = append(s.Precision, r.Precision)
	s.IDs = append(s.IDs, r.ID)
	s.FootnoteRefs = append(s.FootnoteRefs, nil)
	s.ContextRefs = append(s.ContextRefs, r.ContextRef)
	s.UnitRefs = append(s.UnitRefs, r.UnitRef)
	s.NilReasons = append(s.NilReasons, r.NilReason)
	return len(s.ConceptIDs) - 1
}

// Accuracy is a decimals or precision attribute. Set is false when the
// attribute was absent or unreadable.
type Accuracy struct {
	Value    int
	Infinite bool
	Set      bool
}

func ParseAccuracy(s string) Accuracy {
	s = strings.TrimSpace(s)
	if s == "" {
		return Accuracy{}
	}
	if s == "INF" {
		return Accuracy{Infinite: true, Set: true}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Accuracy{}
	}
	return Accuracy{Value: n, Set: true}
}

func (a Accuracy) String() string {
	switch {
	case !a.Set:
		return ""
	case a.Infinite:
		return "INF"
	}
	return strconv.Itoa(a.Value)
}

// Fact is a single fact. Facts inside tuples are stored in this form.
type Fact struct {
	Concept      string
	ContextRef   string
	UnitRef      string
	ID           string
	Value        FactValue
	Decimals     Accuracy
	Precision    Accuracy
	NilReason    string
	FootnoteRefs []string
}

type Context struct {
	ID       string
	Entity   Entity
	Period   Period
	Scenario *Qualifiers
}

type Entity struct {
	Identifier string
	Scheme     string
	Segment    *Qualifiers
}

// Qualifiers is the dimensional content of a segment or scenario.
type Qualifiers struct {
	ExplicitMembers []ExplicitMember
	TypedMembers    []TypedMember
}

func (q *Qualifiers) Empty() bool {
	return q == nil || (len(q.ExplicitMembers) == 0 && len(q.TypedMembers) == 0)
}

type ExplicitMember struct {
	Dimension string
	Member    string
}

// TypedMember keeps the member content as raw markup.
type TypedMember struct {
	Dimension string
	Value     string
}

type PeriodKind uint8

const (
	PeriodInstant PeriodKind = iota
	PeriodDuration
	PeriodForever
)

func (k PeriodKind) String() string {
	switch k {
	case PeriodInstant:
		return "instant"
	case PeriodDuration:
		return "duration"
	case PeriodForever:
		return "forever"
	}
	return "unknown"
}

type Period struct {
	Kind    PeriodKind
	Instant string
	Start   string
	End     string
}

func (p Period) String() string {
	switch p.Kind {
	case PeriodInstant:
		return p.Instant
	case PeriodDuration:
		return p.Start + "--" + p.End
	}
	return "forever"
}

// EndDate is the instant of an instant period or the end of a duration.
func (p Period) EndDate() string {
	if p.Kind == PeriodInstant {
		return p.Instant
	}
	return p.End
}

type UnitKind uint8

const (
	UnitSimple UnitKind = iota
	UnitDivide
	UnitMultiply
)

type UnitType struct {
	Kind        UnitKind
	Measures    []Measure
	Numerator   []Measure
	Denominator []Measure
}

type Unit struct {
	ID   string
	Type UnitType
}

func (u *Unit) String() string {
	join := func(ms []Measure, sep string) string {
		parts := make([]string, len(ms))
		for i, m := range ms {
			parts[i] = m.String()
		}
		return strings.Join(parts, sep)
	}
	switch u.Type.Kind {
	case UnitDivide:
		return join(u.Type.Numerator, "*") + "/" + join(u.Type.Denominator, "*")
	case UnitMultiply:
		return join(u.Type.Measures, "*")
	}
	return join(u.Type.Measures, " ")
}

// Measure is a prefixed unit name such as iso4217:USD.
type Measure struct {
	Namespace string
	Name      string
}

// ParseMeasure splits s on its first colon.
func ParseMeasure(s string) Measure {
	s = strings.TrimSpace(s)
	if ns, name, ok := strings.Cut(s, ":"); ok {
		return Measure{Namespace: ns, Name: name}
	}
	return Measure{Name: s}
}

func (m Measure) String() string {
	if m.Namespace == "" {
		return m.Name
	}
	return m.Namespace + ":" + m.Name
}

type Tuple struct {
	ID    string
	Name  string
	Items []TupleItem
}

// TupleItem holds exactly one of Fact or Tuple.
type TupleItem struct {
	Fact  *Fact
	Tuple *Tuple
}

type Footnote struct {
	ID       string
	Role     string
	Lang     string
	Content  string
	FactRefs []string
}
