// Package linkbase reads presentation, calculation, definition, label and
// reference linkbases and answers queries over them.
package linkbase

import (
	"cmp"
	"math"
	"slices"
	"strconv"

	"github.com/dhamidi/crabrl/xbrl"
	"golang.org/x/text/language"
)

const (
	RoleLabel         = "http://www.xbrl.org/2003/role/label"
	RoleTerseLabel    = "http://www.xbrl.org/2003/role/terseLabel"
	RoleVerboseLabel  = "http://www.xbrl.org/2003/role/verboseLabel"
	RoleDocumentation = "http://www.xbrl.org/2003/role/documentation"
)

// DefaultTolerance is the absolute difference allowed between a reported
// total and the weighted sum of its children.
const DefaultTolerance = 0.01

type Processor struct {
	presLinks  []xbrl.PresentationLink
	calcLinks  []xbrl.CalculationLink
	defLinks   []xbrl.DefinitionLink
	labelLinks []xbrl.LabelLink
	refLinks   []xbrl.ReferenceLink

	presentation map[string][]xbrl.PresentationArc
	calculation  map[string][]xbrl.CalculationArc
	definition   map[string][]xbrl.DefinitionArc
	labels       map[string][]xbrl.Label
	references   map[string][]xbrl.Reference
}

func New() *Processor {
	p := &Processor{}
	p.rebuild()
	return p
}

// AddPresentation adds a presentation arc in its own link role.
func (p *Processor) AddPresentation(role string, arc xbrl.PresentationArc) {
	p.presLinks = append(p.presLinks, xbrl.PresentationLink{Role: role, Arcs: []xbrl.PresentationArc{arc}})
	p.rebuild()
}

func (p *Processor) AddCalculation(role string, arc xbrl.CalculationArc) {
	p.calcLinks = append(p.calcLinks, xbrl.CalculationLink{Role: role, Arcs: []xbrl.CalculationArc{arc}})
	p.rebuild()
}

func (p *Processor) AddLabel(l xbrl.Label) {
	l.Lang = CanonicalLang(l.Lang)
	p.labelLinks = append(p.labelLinks, xbrl.LabelLink{Role: "", Labels: []xbrl.Label{l}})
	p.rebuild()
}

// rebuild recomputes the per-concept indexes after prohibited arcs have been
// applied. Arcs of each parent keep their encounter order.
func (p *Processor) rebuild() {
	p.presentation = make(map[string][]xbrl.PresentationArc)
	var pres []xbrl.PresentationArc
	for _, l := range p.presLinks {
		pres = append(pres, l.Arcs...)
	}
	for _, a := range applyProhibitions(pres, func(a xbrl.PresentationArc) xbrl.Arc { return a.Arc }) {
		p.presentation[a.From] = append(p.presentation[a.From], a)
	}

	p.calculation = make(map[string][]xbrl.CalculationArc)
	var calc []xbrl.CalculationArc
	for _, l := range p.calcLinks {
		calc = append(calc, l.Arcs...)
	}
	seen := make(map[[2]string]bool)
	for _, a := range applyProhibitions(calc, func(a xbrl.CalculationArc) xbrl.Arc { return a.Arc }) {
		// the same summation in several roles counts once
		key := [2]string{a.From, a.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		p.calculation[a.From] = append(p.calculation[a.From], a)
	}

	p.definition = make(map[string][]xbrl.DefinitionArc)
	var def []xbrl.DefinitionArc
	for _, l := range p.defLinks {
		def = append(def, l.Arcs...)
	}
	for _, a := range applyProhibitions(def, func(a xbrl.DefinitionArc) xbrl.Arc { return a.Arc }) {
		p.definition[a.From] = append(p.definition[a.From], a)
	}

	p.labels = make(map[string][]xbrl.Label)
	for _, l := range p.labelLinks {
		for _, lab := range l.Labels {
			p.labels[lab.Concept] = append(p.labels[lab.Concept], lab)
		}
	}
	p.references = make(map[string][]xbrl.Reference)
	for _, l := range p.refLinks {
		for _, r := range l.References {
			p.references[r.Concept] = append(p.references[r.Concept], r)
		}
	}
}

// applyProhibitions drops every arc whose (from, to) relationship is
// prohibited at a priority at least as high as its own, along with the
// prohibiting arcs themselves.
func applyProhibitions[T any](arcs []T, base func(T) xbrl.Arc) []T {
	prohibited := make(map[[2]string]int)
	for _, a := range arcs {
		b := base(a)
		if !b.Prohibited() {
			continue
		}
		key := [2]string{b.From, b.To}
		if p, ok := prohibited[key]; !ok || b.Priority > p {
			prohibited[key] = b.Priority
		}
	}
	if len(prohibited) == 0 {
		return arcs
	}
	out := make([]T, 0, len(arcs))
	for _, a := range arcs {
		b := base(a)
		if b.Prohibited() {
			continue
		}
		if p, ok := prohibited[[2]string{b.From, b.To}]; ok && p >= b.Priority {
			continue
		}
		out = append(out, a)
	}
	return out
}

// PresentationTree returns the children of root ordered by the order
// attribute. Equal orders keep their encounter order.
func (p *Processor) PresentationTree(root string) []xbrl.PresentationArc {
	arcs := slices.Clone(p.presentation[root])
	slices.SortStableFunc(arcs, func(a, b xbrl.PresentationArc) int {
		return cmp.Compare(a.Order, b.Order)
	})
	return arcs
}

// WalkPresentation visits the presentation hierarchy below root depth
// first. Concepts already on the current path are not revisited.
func (p *Processor) WalkPresentation(root string, fn func(depth int, arc xbrl.PresentationArc)) {
	path := map[string]bool{root: true}
	var walk func(parent string, depth int)
	walk = func(parent string, depth int) {
		for _, arc := range p.PresentationTree(parent) {
			fn(depth, arc)
			if path[arc.To] {
				continue
			}
			path[arc.To] = true
			walk(arc.To, depth+1)
			delete(path, arc.To)
		}
	}
	walk(root, 0)
}

// PresentationRoots returns parents that never appear as a child, sorted.
func (p *Processor) PresentationRoots() []string {
	child := make(map[string]bool)
	for _, arcs := range p.presentation {
		for _, a := range arcs {
			child[a.To] = true
		}
	}
	var roots []string
	for parent := range p.presentation {
		if !child[parent] {
			roots = append(roots, parent)
		}
	}
	slices.Sort(roots)
	return roots
}

func (p *Processor) CalculationChildren(parent string) []xbrl.CalculationArc {
	return p.calculation[parent]
}

func (p *Processor) DefinitionChildren(parent string) []xbrl.DefinitionArc {
	return p.definition[parent]
}

func (p *Processor) References(concept string) []xbrl.Reference {
	return p.references[concept]
}

// CalculationTotal returns the weighted sum of parent's children. Missing
// child values count as zero. A concept without children totals to its own
// value.
func (p *Processor) CalculationTotal(parent string, facts map[string]float64) float64 {
	arcs, ok := p.calculation[parent]
	if !ok {
		return facts[parent]
	}
	total := 0.0
	for _, a := range arcs {
		total += facts[a.To] * a.Weight
	}
	return total
}

// Label returns the label of concept for role and lang, falling back to
// any role in lang and then to the concept's first label.
func (p *Processor) Label(concept, role, lang string) (string, bool) {
	labels := p.labels[concept]
	if len(labels) == 0 {
		return "", false
	}
	lang = CanonicalLang(lang)
	for _, l := range labels {
		if l.Role == role && l.Lang == lang {
			return l.Text, true
		}
	}
	for _, l := range labels {
		if l.Lang == lang {
			return l.Text, true
		}
	}
	return labels[0].Text, true
}

// Inconsistency is a calculation whose reported total differs from the sum
// of its children by more than the tolerance.
type Inconsistency struct {
	Concept  string
	Context  string
	Expected float64
	Actual   float64
}

func (i Inconsistency) Difference() float64 { return math.Abs(i.Expected - i.Actual) }

func (i Inconsistency) String() string {
	return i.Concept + ": expected " + strconv.FormatFloat(i.Expected, 'f', -1, 64) +
		", reported " + strconv.FormatFloat(i.Actual, 'f', -1, 64)
}

// CheckCalculations compares every reported parent total in facts with the
// weighted sum of its children. tolerance <= 0 means DefaultTolerance.
func (p *Processor) CheckCalculations(facts map[string]float64, tolerance float64) []Inconsistency {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	var out []Inconsistency
	for parent := range p.calculation {
		actual, ok := facts[parent]
		if !ok {
			continue
		}
		expected := p.CalculationTotal(parent, facts)
		if math.Abs(expected-actual) > tolerance {
			out = append(out, Inconsistency{Concept: parent, Expected: expected, Actual: actual})
		}
	}
	slices.SortFunc(out, func(a, b Inconsistency) int { return cmp.Compare(a.Concept, b.Concept) })
	return out
}

// CheckDocument runs CheckCalculations once per context over the
// document's numeric top-level facts. Facts without a resolved context are
// ignored.
func (p *Processor) CheckDocument(doc *xbrl.Document, tolerance float64) []Inconsistency {
	byContext := make(map[int32]map[string]float64)
	for i := 0; i < doc.Facts.Len(); i++ {
		ci := doc.Facts.ContextIndices[i]
		if ci < 0 || int(ci) >= len(doc.Contexts) {
			continue
		}
		v, ok := doc.Facts.Values[i].Float()
		if !ok {
			continue
		}
		facts := byContext[ci]
		if facts == nil {
			facts = make(map[string]float64)
			byContext[ci] = facts
		}
		concept := doc.Concept(i)
		if _, dup := facts[concept]; !dup {
			facts[concept] = v
		}
	}
	contexts := make([]int32, 0, len(byContext))
	for ci := range byContext {
		contexts = append(contexts, ci)
	}
	slices.Sort(contexts)
	var out []Inconsistency
	for _, ci := range contexts {
		for _, inc := range p.CheckCalculations(byContext[ci], tolerance) {
			inc.Context = doc.Contexts[ci].ID
			out = append(out, inc)
		}
	}
	return out
}

// Attach copies the loaded links into doc.
func (p *Processor) Attach(doc *xbrl.Document) {
	doc.PresentationLinks = append(doc.PresentationLinks, p.presLinks...)
	doc.CalculationLinks = append(doc.CalculationLinks, p.calcLinks...)
	doc.DefinitionLinks = append(doc.DefinitionLinks, p.defLinks...)
	doc.LabelLinks = append(doc.LabelLinks, p.labelLinks...)
	doc.ReferenceLinks = append(doc.ReferenceLinks, p.refLinks...)
}

// FromDocument builds a processor over the links already attached to doc.
func FromDocument(doc *xbrl.Document) *Processor {
	p := &Processor{
		presLinks:  slices.Clone(doc.PresentationLinks),
		calcLinks:  slices.Clone(doc.CalculationLinks),
		defLinks:   slices.Clone(doc.DefinitionLinks),
		labelLinks: slices.Clone(doc.LabelLinks),
		refLinks:   slices.Clone(doc.ReferenceLinks),
	}
	p.rebuild()
	return p
}

type Stats struct {
	PresentationArcs int
	CalculationArcs  int
	DefinitionArcs   int
	Labels           int
	References       int
}

func (p *Processor) Stats() Stats {
	var s Stats
	for _, arcs := range p.presentation {
		s.PresentationArcs += len(arcs)
	}
	for _, arcs := range p.calculation {
		s.CalculationArcs += len(arcs)
	}
	for _, arcs := range p.definition {
		s.DefinitionArcs += len(arcs)
	}
	for _, l := range p.labels {
		s.Labels += len(l)
	}
	for _, r := range p.references {
		s.References += len(r)
	}
	return s
}

// CanonicalLang normalizes a language tag, so "en-us" and "en-US" compare
// equal. Unparseable tags are returned unchanged.
func CanonicalLang(lang string) string {
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return lang
	}
	return tag.String()
}
