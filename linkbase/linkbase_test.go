package linkbase

import (
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/xbrl"
)

func calc(from, to string, weight float64) xbrl.CalculationArc {
	return xbrl.CalculationArc{Arc: xbrl.Arc{From: from, To: to, Order: 1}, Weight: weight}
}

func TestCheckCalculations(t *testing.T) {
	p := New()
	p.AddCalculation("r", calc("A", "B", 1))
	p.AddCalculation("r", calc("A", "C", 1))

	tests := []struct {
		name  string
		facts map[string]float64
		want  int
	}{
		{"exact", map[string]float64{"A": 100, "B": 60, "C": 40}, 0},
		{"within tolerance", map[string]float64{"A": 100, "B": 60, "C": 40.005}, 0},
		{"off by two cents", map[string]float64{"A": 100, "B": 60, "C": 40.02}, 1},
		{"missing child counts as zero", map[string]float64{"A": 100, "B": 60}, 1},
		{"no parent value", map[string]float64{"B": 60, "C": 40}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.CheckCalculations(tt.facts, DefaultTolerance)
			if len(got) != tt.want {
				t.Errorf("inconsistencies = %v, want %d", got, tt.want)
			}
		})
	}
}

func TestCheckCalculationsReportsValues(t *testing.T) {
	p := New()
	p.AddCalculation("r", calc("A", "B", 1))
	p.AddCalculation("r", calc("A", "C", -1))
	got := p.CheckCalculations(map[string]float64{"A": 10, "B": 30, "C": 5}, 0)
	want := []Inconsistency{{Concept: "A", Expected: 25, Actual: 10}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CheckCalculations = %+v, want %+v", got, want)
	}
	if d := got[0].Difference(); d != 15 {
		t.Errorf("Difference = %v, want 15", d)
	}
}

func TestCalculationTotal(t *testing.T) {
	p := New()
	p.AddCalculation("r", calc("A", "B", 1))
	p.AddCalculation("r", calc("A", "C", 0.5))
	facts := map[string]float64{"B": 10, "C": 4, "D": 7}
	if got := p.CalculationTotal("A", facts); got != 12 {
		t.Errorf("CalculationTotal(A) = %v, want 12", got)
	}
	if got := p.CalculationTotal("D", facts); got != 7 {
		t.Errorf("CalculationTotal(D) = %v, want 7", got)
	}
}

func TestCalculationDedupedAcrossRoles(t *testing.T) {
	p := New()
	p.AddCalculation("r1", calc("A", "B", 1))
	p.AddCalculation("r2", calc("A", "B", 1))
	if got := p.CalculationTotal("A", map[string]float64{"B": 5}); got != 5 {
		t.Errorf("CalculationTotal = %v, want 5", got)
	}
}

func TestLabelFallback(t *testing.T) {
	p := New()
	p.AddLabel(xbrl.Label{Concept: "X", Role: "R1", Lang: "en", Text: "Foo"})
	p.AddLabel(xbrl.Label{Concept: "X", Role: "R2", Lang: "fr", Text: "Bar"})

	tests := []struct {
		role, lang string
		want       string
		ok         bool
	}{
		{"R1", "en", "Foo", true},
		{"R2", "fr", "Bar", true},
		// No fr label has role R1, so the same-language fallback picks Bar.
		{"R1", "fr", "Bar", true},
		{"R3", "de", "Foo", true},
		{"R1", "EN", "Foo", true},
	}
	for _, tt := range tests {
		got, ok := p.Label("X", tt.role, tt.lang)
		if got != tt.want || ok != tt.ok {
			t.Errorf("Label(X, %s, %s) = %q, %t, want %q, %t", tt.role, tt.lang, got, ok, tt.want, tt.ok)
		}
	}
	if _, ok := p.Label("Y", "R1", "en"); ok {
		t.Errorf("Label(Y) found a label, want none")
	}
}

func TestPresentationTreeOrder(t *testing.T) {
	p := New()
	for _, a := range []struct {
		to    string
		order float64
	}{{"c", 3}, {"a", 1}, {"b1", 2}, {"b2", 2}} {
		p.AddPresentation("r", xbrl.PresentationArc{Arc: xbrl.Arc{From: "root", To: a.to, Order: a.order}})
	}
	var got []string
	for _, arc := range p.PresentationTree("root") {
		got = append(got, arc.To)
	}
	want := []string{"a", "b1", "b2", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PresentationTree = %v, want %v", got, want)
	}
}

func TestWalkPresentationStopsOnCycle(t *testing.T) {
	p := New()
	p.AddPresentation("r", xbrl.PresentationArc{Arc: xbrl.Arc{From: "a", To: "b"}})
	p.AddPresentation("r", xbrl.PresentationArc{Arc: xbrl.Arc{From: "b", To: "a"}})
	var visits int
	p.WalkPresentation("a", func(int, xbrl.PresentationArc) { visits++ })
	if visits != 2 {
		t.Errorf("visits = %d, want 2", visits)
	}
}

func TestConceptFromHref(t *testing.T) {
	tests := []struct{ href, want string }{
		{"us-gaap-2023.xsd#us-gaap_Assets", "us-gaap:Assets"},
		{"ex.xsd#ex_Some_Thing", "ex:Some_Thing"},
		{"#Plain", "Plain"},
		{"noprefix", "noprefix"},
	}
	for _, tt := range tests {
		if got := ConceptFromHref(tt.href); got != tt.want {
			t.Errorf("ConceptFromHref(%q) = %q, want %q", tt.href, got, tt.want)
		}
	}
}

func load(t *testing.T, names ...string) *Processor {
	t.Helper()
	p := New()
	for _, name := range names {
		if err := p.LoadFile(filepath.Join("testdata", name)); err != nil {
			t.Fatalf("LoadFile(%s): %v", name, err)
		}
	}
	return p
}

func TestLoadCalculationWithProhibition(t *testing.T) {
	p := load(t, "cal.xml")
	var got []string
	for _, arc := range p.CalculationChildren("ex:Assets") {
		got = append(got, arc.To)
	}
	want := []string{"ex:CurrentAssets", "ex:NoncurrentAssets"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("children = %v, want %v", got, want)
	}
	facts := map[string]float64{"ex:Assets": 100, "ex:CurrentAssets": 70, "ex:NoncurrentAssets": 30, "ex:Goodwill": 5}
	if inc := p.CheckCalculations(facts, 0); len(inc) != 0 {
		t.Errorf("inconsistencies = %v, want none", inc)
	}
}

func TestLoadPresentation(t *testing.T) {
	p := load(t, "pre.xml")
	if got := p.PresentationRoots(); !reflect.DeepEqual(got, []string{"ex:BalanceSheetAbstract"}) {
		t.Errorf("roots = %v", got)
	}
	tree := p.PresentationTree("ex:BalanceSheetAbstract")
	if len(tree) != 2 || tree[0].To != "ex:Assets" || tree[1].To != "ex:Liabilities" {
		t.Fatalf("tree = %+v", tree)
	}
	if tree[0].PreferredLabel != "http://www.xbrl.org/2003/role/totalLabel" {
		t.Errorf("preferredLabel = %q", tree[0].PreferredLabel)
	}
	var lines []string
	p.WalkPresentation("ex:BalanceSheetAbstract", func(depth int, arc xbrl.PresentationArc) {
		lines = append(lines, strings.Repeat(" ", depth)+arc.To)
	})
	want := []string{"ex:Assets", " ex:CurrentAssets", "ex:Liabilities"}
	if !reflect.DeepEqual(lines, want) {
		t.Errorf("walk = %q, want %q", lines, want)
	}
	if arcs := p.PresentationTree("ex:Assets"); len(arcs) != 1 || arcs[0].Order != 1 {
		t.Errorf("default order arcs = %+v", arcs)
	}
}

func TestLoadLabelsReferencesDefinitions(t *testing.T) {
	p := load(t, "lab.xml")
	if got, _ := p.Label("ex:Assets", RoleLabel, "en-US"); got != "Assets" {
		t.Errorf("label en-US = %q, want Assets", got)
	}
	if got, _ := p.Label("ex:Assets", RoleLabel, "de"); got != "Vermögen" {
		t.Errorf("label de = %q, want Vermögen", got)
	}
	refs := p.References("ex:Assets")
	if len(refs) != 1 {
		t.Fatalf("references = %d, want 1", len(refs))
	}
	want := []xbrl.ReferencePart{{Name: "Topic", Value: "210"}, {Name: "Section", Value: "10"}}
	if !reflect.DeepEqual(refs[0].Parts, want) {
		t.Errorf("parts = %+v, want %+v", refs[0].Parts, want)
	}
	defs := p.DefinitionChildren("ex:SegmentAxis")
	if len(defs) != 1 || defs[0].Arcrole != "http://xbrl.org/int/dim/arcrole/dimension-domain" {
		t.Errorf("definition arcs = %+v", defs)
	}
	s := p.Stats()
	if s.Labels != 2 || s.References != 1 || s.DefinitionArcs != 1 {
		t.Errorf("stats = %+v", s)
	}
}

func TestLoadErrors(t *testing.T) {
	p := New()
	if err := p.LoadFile(filepath.Join("testdata", "missing.xml")); !errors.Is(err, xbrl.ErrIO) {
		t.Errorf("LoadFile(missing) = %v, want ErrIO", err)
	}
	if err := p.LoadBytes([]byte("<a><b></a>")); !errors.Is(err, xbrl.ErrParse) {
		t.Errorf("LoadBytes(malformed) = %v, want ErrParse", err)
	}
}

func TestCheckDocumentPerContext(t *testing.T) {
	data := []byte(`<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:ex="http://example.com/ex">
<xbrli:context id="c1"><xbrli:entity><xbrli:identifier scheme="s">1</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2023-12-31</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:context id="c2"><xbrli:entity><xbrli:identifier scheme="s">1</xbrli:identifier></xbrli:entity><xbrli:period><xbrli:instant>2022-12-31</xbrli:instant></xbrli:period></xbrli:context>
<xbrli:unit id="u"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
<ex:Assets contextRef="c1" unitRef="u">100</ex:Assets>
<ex:CurrentAssets contextRef="c1" unitRef="u">60</ex:CurrentAssets>
<ex:NoncurrentAssets contextRef="c1" unitRef="u">40</ex:NoncurrentAssets>
<ex:Assets contextRef="c2" unitRef="u">90</ex:Assets>
<ex:CurrentAssets contextRef="c2" unitRef="u">60</ex:CurrentAssets>
<ex:NoncurrentAssets contextRef="c2" unitRef="u">40</ex:NoncurrentAssets>
</xbrli:xbrl>`)
	doc, err := parser.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := load(t, "cal.xml")
	got := p.CheckDocument(doc, DefaultTolerance)
	want := []Inconsistency{{Concept: "ex:Assets", Context: "c2", Expected: 100, Actual: 90}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CheckDocument = %+v, want %+v", got, want)
	}
}

func TestAttachAndFromDocument(t *testing.T) {
	p := load(t, "cal.xml", "pre.xml", "lab.xml")
	doc := xbrl.NewDocument(nil)
	p.Attach(doc)
	if len(doc.CalculationLinks) != 2 || len(doc.PresentationLinks) != 1 || len(doc.LabelLinks) != 1 {
		t.Fatalf("attached links: calc=%d pres=%d label=%d", len(doc.CalculationLinks), len(doc.PresentationLinks), len(doc.LabelLinks))
	}
	q := FromDocument(doc)
	if !reflect.DeepEqual(q.Stats(), p.Stats()) {
		t.Errorf("FromDocument stats = %+v, want %+v", q.Stats(), p.Stats())
	}
}
