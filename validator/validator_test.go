package validator

import (
	"errors"
	"strings"
	"testing"

	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/schema"
	"github.com/dhamidi/crabrl/xbrl"
)

const header = `<xbrli:xbrl xmlns:xbrli="http://www.xbrl.org/2003/instance" xmlns:iso4217="http://www.xbrl.org/2003/iso4217" xmlns:dei="http://xbrl.sec.gov/dei/2023" xmlns:us-gaap="http://fasb.org/us-gaap/2023" xmlns:ex="http://example.com/ex" xmlns:xbrldi="http://xbrl.org/2006/xbrldi">
`

func context(id, identifier, scheme, period string) string {
	return `<xbrli:context id="` + id + `"><xbrli:entity><xbrli:identifier scheme="` + scheme + `">` + identifier +
		`</xbrli:identifier></xbrli:entity><xbrli:period>` + period + `</xbrli:period></xbrli:context>
`
}

func instant(d string) string { return `<xbrli:instant>` + d + `</xbrli:instant>` }

func duration(start, end string) string {
	return `<xbrli:startDate>` + start + `</xbrli:startDate><xbrli:endDate>` + end + `</xbrli:endDate>`
}

const usd = `<xbrli:unit id="USD"><xbrli:measure>iso4217:USD</xbrli:measure></xbrli:unit>
`

func parse(t *testing.T, body string) *xbrl.Document {
	t.Helper()
	doc, err := parser.Parse([]byte(header + body + `</xbrli:xbrl>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func codes(issues []Issue) []Code {
	out := make([]Code, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func count(issues []Issue, code Code) int {
	n := 0
	for _, is := range issues {
		if is.Code == code {
			n++
		}
	}
	return n
}

func TestValidDocument(t *testing.T) {
	doc := parse(t, context("c1", "0000320193", "http://www.sec.gov/CIK", instant("2023-12-31"))+usd+
		`<us-gaap:Assets contextRef="c1" unitRef="USD" decimals="0">100</us-gaap:Assets>`)
	res := Validate(doc)
	if !res.Valid {
		t.Fatalf("Valid = false, errors %v", res.Errors)
	}
	if err := res.Err(); err != nil {
		t.Errorf("Err = %v, want nil", err)
	}
	if res.Stats.Facts != 1 || res.Stats.Contexts != 1 || res.Stats.Units != 1 {
		t.Errorf("stats = %+v", res.Stats)
	}
}

func TestGenericChecks(t *testing.T) {
	c1 := context("c1", "1", "s", instant("2023-12-31"))
	tests := []struct {
		name string
		body string
		want Code
	}{
		{"unknown context", c1 + usd + `<ex:A contextRef="nope" unitRef="USD">1</ex:A>`, InvalidContextRef},
		{"unknown unit", c1 + usd + `<ex:A contextRef="c1" unitRef="EUR">1</ex:A>`, InvalidUnitRef},
		{"duplicate context", c1 + c1, DuplicateID},
		{"duplicate unit", usd + usd, DuplicateID},
		{"duplicate fact id", c1 + `<ex:A contextRef="c1" id="f">1</ex:A><ex:B contextRef="c1" id="f">2</ex:B>`, DuplicateID},
		{"empty identifier", context("c1", "", "s", instant("2023-12-31")), MissingRequiredElement},
		{"start after end", context("c1", "1", "s", duration("2023-12-31", "2023-01-01")), InvalidDataType},
		{"decimals and precision", c1 + usd + `<ex:A contextRef="c1" unitRef="USD" decimals="0" precision="3">1</ex:A>`, InvalidDataType},
		{"tuple fact context", `<ex:T><ex:A contextRef="gone">1</ex:A></ex:T>`, InvalidContextRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(parse(t, tt.body))
			if res.Valid {
				t.Fatalf("Valid = true, want a %s error", tt.want)
			}
			if count(res.Errors, tt.want) != 1 {
				t.Errorf("errors = %v, want one %s", codes(res.Errors), tt.want)
			}
			if !errors.Is(res.Err(), xbrl.ErrValidation) {
				t.Errorf("Err = %v, want ErrValidation", res.Err())
			}
		})
	}
}

func TestUnitShapes(t *testing.T) {
	usdMeasure := xbrl.Measure{Namespace: "iso4217", Name: "USD"}
	tests := []struct {
		name string
		typ  xbrl.UnitType
		ok   bool
	}{
		{"simple", xbrl.UnitType{Kind: xbrl.UnitSimple, Measures: []xbrl.Measure{usdMeasure}}, true},
		{"simple empty", xbrl.UnitType{Kind: xbrl.UnitSimple}, false},
		{"multiply empty", xbrl.UnitType{Kind: xbrl.UnitMultiply}, false},
		{"divide", xbrl.UnitType{Kind: xbrl.UnitDivide, Numerator: []xbrl.Measure{usdMeasure}, Denominator: []xbrl.Measure{{Name: "shares"}}}, true},
		{"divide no denominator", xbrl.UnitType{Kind: xbrl.UnitDivide, Numerator: []xbrl.Measure{usdMeasure}}, false},
	}
	for _, tt := range tests {
		doc := xbrl.NewDocument(nil)
		doc.Units = append(doc.Units, xbrl.Unit{ID: "u", Type: tt.typ})
		res := Validate(doc)
		if res.Valid != tt.ok {
			t.Errorf("%s: Valid = %t, want %t (%v)", tt.name, res.Valid, tt.ok, res.Errors)
		}
		if !tt.ok && count(res.Errors, MissingRequiredElement) != 1 {
			t.Errorf("%s: errors = %v", tt.name, codes(res.Errors))
		}
	}
}

func TestStrictMode(t *testing.T) {
	body := context("c1", "1", "s", instant("2023-12-31")) + usd +
		`<ex:A contextRef="c1" unitRef="USD">1</ex:A><ex:A contextRef="c1" unitRef="USD">1</ex:A>` +
		`<link:footnoteLink xmlns:link="http://www.xbrl.org/2003/linkbase" xmlns:xlink="http://www.w3.org/1999/xlink">` +
		`<link:footnote xlink:label="fn">note</link:footnote>` +
		`<link:footnoteArc xlink:from="ghost" xlink:to="fn"/></link:footnoteLink>`
	doc := parse(t, body)

	lax := Validate(doc)
	if !lax.Valid {
		t.Errorf("lax Valid = false: %v", lax.Errors)
	}
	if count(lax.Warnings, InvalidFootnoteRef) != 1 {
		t.Errorf("lax warnings = %v, want one InvalidFootnoteRef", codes(lax.Warnings))
	}

	strict := Validate(doc, WithStrict(true))
	if strict.Valid {
		t.Errorf("strict Valid = true, want false")
	}
	if count(strict.Errors, DuplicateID) != 1 || count(strict.Errors, InvalidFootnoteRef) != 1 {
		t.Errorf("strict errors = %v", codes(strict.Errors))
	}
	if len(strict.Warnings) != 0 {
		t.Errorf("strict warnings = %v, want none", strict.Warnings)
	}
	for _, is := range strict.Errors {
		if is.Severity != SeverityError {
			t.Errorf("%s severity = %v, want error", is.Code, is.Severity)
		}
	}
}

func TestCalculationCheck(t *testing.T) {
	p := linkbase.New()
	p.AddCalculation("r", xbrl.CalculationArc{Arc: xbrl.Arc{From: "ex:A", To: "ex:B"}, Weight: 1})
	p.AddCalculation("r", xbrl.CalculationArc{Arc: xbrl.Arc{From: "ex:A", To: "ex:C"}, Weight: 1})
	body := context("c1", "1", "s", instant("2023-12-31")) + usd +
		`<ex:A contextRef="c1" unitRef="USD">100</ex:A><ex:B contextRef="c1" unitRef="USD">60</ex:B><ex:C contextRef="c1" unitRef="USD">40.02</ex:C>`
	doc := parse(t, body)

	res := Validate(doc, WithCalculations(p))
	if count(res.Errors, CalculationInconsistency) != 1 {
		t.Errorf("errors = %v, want one CalculationInconsistency", codes(res.Errors))
	}
	res = Validate(doc, WithCalculations(p), WithTolerance(0.05))
	if !res.Valid {
		t.Errorf("with tolerance 0.05: errors = %v", res.Errors)
	}

	p.Attach(doc)
	if res := Validate(doc); count(res.Errors, CalculationInconsistency) != 1 {
		t.Errorf("attached links: errors = %v, want one CalculationInconsistency", codes(res.Errors))
	}
}

func TestLinkRanges(t *testing.T) {
	doc := xbrl.NewDocument(nil)
	doc.PresentationLinks = []xbrl.PresentationLink{{Arcs: []xbrl.PresentationArc{{Arc: xbrl.Arc{From: "a", To: "b", Order: 1001}}}}}
	doc.CalculationLinks = []xbrl.CalculationLink{{Arcs: []xbrl.CalculationArc{{Arc: xbrl.Arc{From: "a", To: "b"}, Weight: 11}}}}
	res := Validate(doc)
	if !res.Valid || count(res.Warnings, InvalidDataType) != 2 {
		t.Errorf("valid=%t warnings=%v, want two InvalidDataType warnings", res.Valid, codes(res.Warnings))
	}
}

func TestSECProfile(t *testing.T) {
	good := context("CurrentYear", "0000320193", "http://www.sec.gov/CIK", duration("2023-01-01", "2023-12-31")) + usd +
		`<dei:DocumentType contextRef="CurrentYear">10-K</dei:DocumentType>` +
		`<us-gaap:Assets contextRef="CurrentYear" unitRef="USD">352583000000</us-gaap:Assets>`
	if res := Validate(parse(t, good), WithProfile(SECEdgar)); !res.Valid {
		t.Errorf("good filing: errors = %v", res.Errors)
	}

	byEndDate := context("c1", "0000320193", "http://www.sec.gov/CIK", duration("2023-01-01", "2023-12-31")) +
		`<dei:DocumentPeriodEndDate contextRef="c1">2023-12-31</dei:DocumentPeriodEndDate>`
	if res := Validate(parse(t, byEndDate), WithProfile(SECEdgar)); !res.Valid {
		t.Errorf("period end date: errors = %v", res.Errors)
	}

	bad := context("CurrentYear", "12345", "http://www.sec.gov/CIK", instant("2023-12-31")) + usd +
		`<dei:DocumentType contextRef="CurrentYear">10-K</dei:DocumentType>` +
		`<us-gaap:Assets contextRef="CurrentYear" unitRef="USD">99000000000000</us-gaap:Assets>`
	res := Validate(parse(t, bad), WithProfile(SECEdgar))
	if count(res.Errors, InvalidDataType) != 2 {
		t.Errorf("bad filing: errors = %v, want CIK and magnitude errors", res.Errors)
	}

	empty := context("c1", "1", "http://example.com", instant("2023-12-31"))
	res = Validate(parse(t, empty), WithProfile(SECEdgar))
	if count(res.Errors, MissingRequiredElement) != 3 {
		t.Errorf("empty filing: errors = %v, want three MissingRequiredElement", codes(res.Errors))
	}

	if res := Validate(parse(t, empty), WithProfile(USGAAP)); !res.Valid {
		t.Errorf("us-gaap profile: errors = %v", res.Errors)
	}
}

func TestIFRSProfile(t *testing.T) {
	body := context("cy", "LEI1", "http://standards.iso.org/iso/17442", duration("2023-01-01", "2023-12-31")) +
		context("py", "LEI1", "http://standards.iso.org/iso/17442", duration("2022-01-01", "2022-12-31")) +
		`<ex:Assets contextRef="cy">1</ex:Assets><ex:Revenue contextRef="cy">1</ex:Revenue>` +
		`<ex:CashFlowsFromOperations contextRef="cy">1</ex:CashFlowsFromOperations><ex:Equity contextRef="py">1</ex:Equity>`
	if res := Validate(parse(t, body), WithProfile(IFRS)); !res.Valid {
		t.Errorf("complete IFRS filing: errors = %v", res.Errors)
	}

	partial := context("cy", "LEI1", "s", duration("2023-01-01", "2023-12-31")) +
		`<ex:Assets contextRef="cy">1</ex:Assets>`
	res := Validate(parse(t, partial), WithProfile(IFRS))
	var msgs []string
	for _, is := range res.Errors {
		msgs = append(msgs, is.Message)
	}
	joined := strings.Join(msgs, "; ")
	for _, want := range []string{"comparative", "Comprehensive Income", "Cash Flows", "Changes in Equity"} {
		if !strings.Contains(joined, want) {
			t.Errorf("errors %q do not mention %q", joined, want)
		}
	}
	if strings.Contains(joined, "Financial Position") {
		t.Errorf("errors %q mention Financial Position", joined)
	}
}

func TestRules(t *testing.T) {
	doc := parse(t, context("c1", "1", "s", instant("2023-12-31"))+usd+
		`<dei:DocumentType contextRef="c1">10-K</dei:DocumentType><us-gaap:Assets contextRef="c1" unitRef="USD">100</us-gaap:Assets>`)

	rules, err := ParseRules(strings.NewReader(`
# document rules
has-type: Has("dei:DocumentType")
positive-assets: Value("us-gaap:Assets") > 0
too-many: Facts > 5
`))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if len(rules) != 3 {
		t.Fatalf("rules = %d, want 3", len(rules))
	}
	res := Validate(doc, WithRules(rules...))
	if len(res.Errors) != 1 || res.Errors[0].Code != RuleViolation || res.Errors[0].Ref != "too-many" {
		t.Errorf("errors = %v, want one too-many violation", res.Errors)
	}

	if _, err := CompileRule("bad", "Facts +"); err == nil {
		t.Errorf("CompileRule(bad syntax) = nil error")
	}
	if _, err := CompileRule("not-bool", "Facts + 1"); err == nil {
		t.Errorf("CompileRule(non-boolean) = nil error")
	}
	if _, err := ParseRules(strings.NewReader("no colon here")); err == nil {
		t.Errorf("ParseRules(no colon) = nil error")
	}
}

func TestDataTypes(t *testing.T) {
	sc, err := schema.ParseBytes([]byte(`<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema" xmlns:xbrli="http://www.xbrl.org/2003/instance" targetNamespace="http://example.com/ex">
<xs:element name="Amount" type="xbrli:monetaryItemType" substitutionGroup="xbrli:item"/>
<xs:element name="Flag" type="xbrli:booleanItemType" substitutionGroup="xbrli:item"/>
<xs:element name="When" type="xbrli:dateItemType" substitutionGroup="xbrli:item"/>
</xs:schema>`))
	if err != nil {
		t.Fatalf("schema: %v", err)
	}
	set := schema.NewSet()
	set.Add(sc)

	c1 := context("c1", "1", "s", instant("2023-12-31"))
	tests := []struct {
		fact string
		ok   bool
	}{
		{`<ex:Amount contextRef="c1">12.5</ex:Amount>`, true},
		{`<ex:Amount contextRef="c1">twelve</ex:Amount>`, false},
		{`<ex:Flag contextRef="c1">true</ex:Flag>`, true},
		{`<ex:Flag contextRef="c1">1</ex:Flag>`, true},
		{`<ex:Flag contextRef="c1">yes</ex:Flag>`, false},
		{`<ex:When contextRef="c1">2023-06-30</ex:When>`, true},
		{`<ex:When contextRef="c1">June</ex:When>`, false},
		{`<ex:Other contextRef="c1">anything</ex:Other>`, true},
	}
	for _, tt := range tests {
		res := Validate(parse(t, c1+tt.fact), WithSchema(set))
		if res.Valid != tt.ok {
			t.Errorf("%s: Valid = %t, want %t (%v)", tt.fact, res.Valid, tt.ok, res.Errors)
		}
	}
}

func TestParseProfile(t *testing.T) {
	tests := []struct {
		in   string
		want Profile
		err  bool
	}{
		{"", Generic, false},
		{"generic", Generic, false},
		{"SEC", SECEdgar, false},
		{"sec-edgar", SECEdgar, false},
		{"ifrs", IFRS, false},
		{"us-gaap", USGAAP, false},
		{"bogus", Generic, true},
	}
	for _, tt := range tests {
		got, err := ParseProfile(tt.in)
		if got != tt.want || (err != nil) != tt.err {
			t.Errorf("ParseProfile(%q) = %v, %v, want %v, err=%t", tt.in, got, err, tt.want, tt.err)
		}
		if !tt.err {
			if back, _ := ParseProfile(got.String()); back != got {
				t.Errorf("ParseProfile(%q.String()) = %v", got, back)
			}
		}
	}
}
