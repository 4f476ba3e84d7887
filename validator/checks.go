package validator

import (
	"math"
	"strconv"
	"strings"

	"github.com/dhamidi/crabrl/schema"
	"github.com/dhamidi/crabrl/xbrl"
)

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func checkContexts(c *collector, doc *xbrl.Document) {
	seen := make(map[string]bool, len(doc.Contexts))
	for i := range doc.Contexts {
		ctx := &doc.Contexts[i]
		if seen[ctx.ID] {
			c.errorf(DuplicateID, ctx.ID, -1, "context id %q is declared more than once", ctx.ID)
		}
		seen[ctx.ID] = true
		if ctx.Entity.Identifier == "" {
			c.errorf(MissingRequiredElement, ctx.ID, -1, "context %s has an empty entity identifier", ctx.ID)
		}
		if ctx.Period.Kind != xbrl.PeriodDuration {
			continue
		}
		start, err1 := xbrl.ParseDate(ctx.Period.Start)
		end, err2 := xbrl.ParseDate(ctx.Period.End)
		switch {
		case err1 != nil || err2 != nil:
			if ctx.Period.Start > ctx.Period.End {
				c.errorf(InvalidDataType, ctx.ID, -1, "context %s: period start %s is after end %s", ctx.ID, ctx.Period.Start, ctx.Period.End)
			}
		case start.After(end):
			c.errorf(InvalidDataType, ctx.ID, -1, "context %s: period start %s is after end %s", ctx.ID, ctx.Period.Start, ctx.Period.End)
		}
	}
}

func checkUnits(c *collector, doc *xbrl.Document) {
	seen := make(map[string]bool, len(doc.Units))
	for i := range doc.Units {
		u := &doc.Units[i]
		if seen[u.ID] {
			c.errorf(DuplicateID, u.ID, -1, "unit id %q is declared more than once", u.ID)
		}
		seen[u.ID] = true
		switch u.Type.Kind {
		case xbrl.UnitSimple, xbrl.UnitMultiply:
			if len(u.Type.Measures) == 0 {
				c.errorf(MissingRequiredElement, u.ID, -1, "unit %s has no measures", u.ID)
			}
		case xbrl.UnitDivide:
			if len(u.Type.Numerator) == 0 || len(u.Type.Denominator) == 0 {
				c.errorf(MissingRequiredElement, u.ID, -1, "unit %s needs both numerator and denominator measures", u.ID)
			}
		}
	}
}

func checkFacts(c *collector, doc *xbrl.Document) {
	s := &doc.Facts
	ids := make(map[string]bool)
	for i := 0; i < s.Len(); i++ {
		concept := doc.Concept(i)
		ci := s.ContextIndices[i]
		if ci < 0 || int(ci) >= len(doc.Contexts) {
			c.errorf(InvalidContextRef, s.ContextRefs[i], i, "fact %d (%s) references unknown context %q", i, concept, s.ContextRefs[i])
		}
		ui := s.UnitIndices[i]
		switch {
		case int(ui) > len(doc.Units):
			c.errorf(InvalidUnitRef, s.UnitRefs[i], i, "fact %d (%s) references unit index %d out of range", i, concept, ui)
		case ui == 0 && s.UnitRefs[i] != "":
			c.errorf(InvalidUnitRef, s.UnitRefs[i], i, "fact %d (%s) references unknown unit %q", i, concept, s.UnitRefs[i])
		}
		if s.Decimals[i].Set && s.Precision[i].Set {
			c.errorf(InvalidDataType, concept, i, "fact %d (%s) sets both decimals and precision", i, concept)
		}
		if id := s.IDs[i]; id != "" {
			if ids[id] {
				c.errorf(DuplicateID, id, i, "fact id %q is used more than once", id)
			}
			ids[id] = true
		}
	}
}

// checkTupleFacts verifies the references of facts nested in tuples, which
// the parser keeps by id only.
func checkTupleFacts(c *collector, doc *xbrl.Document) {
	contexts := make(map[string]bool, len(doc.Contexts))
	for i := range doc.Contexts {
		contexts[doc.Contexts[i].ID] = true
	}
	units := make(map[string]bool, len(doc.Units))
	for i := range doc.Units {
		units[doc.Units[i].ID] = true
	}
	var walk func(t *xbrl.Tuple)
	walk = func(t *xbrl.Tuple) {
		for _, it := range t.Items {
			if it.Tuple != nil {
				walk(it.Tuple)
				continue
			}
			f := it.Fact
			if f == nil {
				continue
			}
			if f.ContextRef != "" && !contexts[f.ContextRef] {
				c.errorf(InvalidContextRef, f.ContextRef, -1, "fact %s in tuple %s references unknown context %q", f.Concept, t.Name, f.ContextRef)
			}
			if f.UnitRef != "" && !units[f.UnitRef] {
				c.errorf(InvalidUnitRef, f.UnitRef, -1, "fact %s in tuple %s references unknown unit %q", f.Concept, t.Name, f.UnitRef)
			}
		}
	}
	for i := range doc.Tuples {
		walk(&doc.Tuples[i])
	}
}

func checkFootnotes(c *collector, doc *xbrl.Document) {
	if len(doc.Footnotes) == 0 {
		return
	}
	ids := make(map[string]bool, doc.Facts.Len())
	for _, id := range doc.Facts.IDs {
		if id != "" {
			ids[id] = true
		}
	}
	for _, fn := range doc.Footnotes {
		for _, ref := range fn.FactRefs {
			if !ids[ref] {
				c.warnf(InvalidFootnoteRef, ref, -1, "footnote %s refers to unknown fact %q", fn.ID, ref)
			}
		}
	}
}

// checkLinks flags relationship attributes outside their usual ranges.
func checkLinks(c *collector, doc *xbrl.Document) {
	for _, l := range doc.PresentationLinks {
		for _, a := range l.Arcs {
			if a.Order < 0 || a.Order > 1000 {
				c.warnf(InvalidDataType, a.From, -1, "presentation arc %s -> %s has order %s outside 0..1000", a.From, a.To, formatFloat(a.Order))
			}
		}
	}
	for _, l := range doc.CalculationLinks {
		for _, a := range l.Arcs {
			if math.Abs(a.Weight) > 10 {
				c.warnf(InvalidDataType, a.From, -1, "calculation arc %s -> %s has weight %s", a.From, a.To, formatFloat(a.Weight))
			}
		}
	}
}

func checkDuplicateFacts(c *collector, doc *xbrl.Document) {
	type key struct {
		concept uint32
		context int32
		unit    uint32
	}
	s := &doc.Facts
	seen := make(map[key]int, s.Len())
	for i := 0; i < s.Len(); i++ {
		k := key{uint32(s.ConceptIDs[i]), s.ContextIndices[i], s.UnitIndices[i]}
		if first, dup := seen[k]; dup {
			c.errorf(DuplicateID, doc.Concept(i), i, "fact %d duplicates fact %d (%s in context %s)", i, first, doc.Concept(i), s.ContextRefs[i])
			continue
		}
		seen[k] = i
	}
}

func checkDataTypes(c *collector, doc *xbrl.Document, set *schema.Set) {
	s := &doc.Facts
	for i := 0; i < s.Len(); i++ {
		v := s.Values[i]
		if v.IsNil() {
			continue
		}
		concept := doc.Concept(i)
		prefix, local, ok := strings.Cut(concept, ":")
		if !ok {
			prefix, local = "", concept
		}
		var want string
		switch set.DataType(doc.Namespaces[prefix], local) {
		case schema.TypeNumeric:
			if _, ok := v.Float(); !ok {
				want = "numeric"
			}
		case schema.TypeBoolean:
			if v.Kind != xbrl.KindBoolean && !(v.Kind == xbrl.KindInteger && (v.Integer == 0 || v.Integer == 1)) {
				want = "boolean"
			}
		case schema.TypeDate:
			if _, err := xbrl.CoerceDate(v.String()); err != nil {
				want = "date"
			}
		}
		if want != "" {
			c.errorf(InvalidDataType, concept, i, "fact %d (%s) expects a %s value, got %q", i, concept, want, v.String())
		}
	}
}
