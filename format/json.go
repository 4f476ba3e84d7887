package format

import (
	"encoding/json"
	"io"

	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

type JSONEncoder struct {
	w           io.Writer
	doc         *xbrl.Document
	result      *validator.Result
	summaryOnly bool
}

func NewJSONEncoder(w io.Writer) *JSONEncoder {
	return &JSONEncoder{w: w}
}

// SummaryOnly omits contexts, units, facts, tuples and footnotes.
func (e *JSONEncoder) SummaryOnly() *JSONEncoder {
	e.summaryOnly = true
	return e
}

// WithValidation includes a validation result in the output.
func (e *JSONEncoder) WithValidation(r *validator.Result) *JSONEncoder {
	e.result = r
	return e
}

func (e *JSONEncoder) Encode(doc *xbrl.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	text = append(text, '\n')
	_, err = e.w.Write(text)
	return err
}

func (e *JSONEncoder) MarshalText() ([]byte, error) {
	return json.MarshalIndent(e.buildDocument(), "", "  ")
}

type jsonDocument struct {
	Summary     Summary           `json:"summary"`
	Namespaces  map[string]string `json:"namespaces,omitempty"`
	SchemaRefs  []string          `json:"schemaRefs,omitempty"`
	RoleRefs    []string          `json:"roleRefs,omitempty"`
	ArcroleRefs []string          `json:"arcroleRefs,omitempty"`
	Contexts    []jsonContext     `json:"contexts,omitempty"`
	Units       []jsonUnit        `json:"units,omitempty"`
	Facts       []jsonFact        `json:"facts,omitempty"`
	Tuples      []jsonTuple       `json:"tuples,omitempty"`
	Footnotes   []jsonFootnote    `json:"footnotes,omitempty"`
	Validation  *ValidationReport `json:"validation,omitempty"`
}

type jsonContext struct {
	ID         string       `json:"id"`
	Identifier string       `json:"identifier"`
	Scheme     string       `json:"scheme"`
	Period     jsonPeriod   `json:"period"`
	Segment    []jsonMember `json:"segment,omitempty"`
	Scenario   []jsonMember `json:"scenario,omitempty"`
}

type jsonPeriod struct {
	Kind    string `json:"kind"`
	Instant string `json:"instant,omitempty"`
	Start   string `json:"start,omitempty"`
	End     string `json:"end,omitempty"`
}

type jsonMember struct {
	Dimension string `json:"dimension"`
	Member    string `json:"member,omitempty"`
	Typed     string `json:"typed,omitempty"`
}

type jsonUnit struct {
	ID      string `json:"id"`
	Measure string `json:"measure"`
}

type jsonFact struct {
	Concept   string   `json:"concept"`
	Context   string   `json:"context,omitempty"`
	Unit      string   `json:"unit,omitempty"`
	ID        string   `json:"id,omitempty"`
	Type      string   `json:"type"`
	Value     any      `json:"value"`
	Decimals  string   `json:"decimals,omitempty"`
	Precision string   `json:"precision,omitempty"`
	NilReason string   `json:"nilReason,omitempty"`
	Footnotes []string `json:"footnotes,omitempty"`
}

type jsonTuple struct {
	Name   string      `json:"name"`
	ID     string      `json:"id,omitempty"`
	Facts  []jsonFact  `json:"facts,omitempty"`
	Tuples []jsonTuple `json:"tuples,omitempty"`
}

type jsonFootnote struct {
	ID    string   `json:"id"`
	Role  string   `json:"role,omitempty"`
	Lang  string   `json:"lang,omitempty"`
	Text  string   `json:"text"`
	Facts []string `json:"facts,omitempty"`
}

type ValidationReport struct {
	Valid    bool          `json:"valid"`
	Errors   []IssueReport `json:"errors"`
	Warnings []IssueReport `json:"warnings"`
}

type IssueReport struct {
	Code    string `json:"code"`
	Ref     string `json:"ref,omitempty"`
	Message string `json:"message"`
}

func (e *JSONEncoder) buildDocument() jsonDocument {
	doc := e.doc
	data := jsonDocument{
		Summary:    Summarize(doc),
		Validation: ValidationJSON(e.result),
	}
	if e.summaryOnly {
		return data
	}
	data.Namespaces = doc.Namespaces
	data.SchemaRefs = doc.SchemaRefs
	data.RoleRefs = doc.RoleRefs
	data.ArcroleRefs = doc.ArcroleRefs
	for i := range doc.Contexts {
		data.Contexts = append(data.Contexts, buildContext(&doc.Contexts[i]))
	}
	for i := range doc.Units {
		data.Units = append(data.Units, jsonUnit{ID: doc.Units[i].ID, Measure: doc.Units[i].String()})
	}
	for i := 0; i < doc.Facts.Len(); i++ {
		data.Facts = append(data.Facts, buildFact(doc.Fact(i)))
	}
	for i := range doc.Tuples {
		data.Tuples = append(data.Tuples, buildTuple(&doc.Tuples[i]))
	}
	for _, fn := range doc.Footnotes {
		data.Footnotes = append(data.Footnotes, jsonFootnote{
			ID:    fn.ID,
			Role:  fn.Role,
			Lang:  fn.Lang,
			Text:  PlainText(fn.Content),
			Facts: fn.FactRefs,
		})
	}
	return data
}

func buildContext(c *xbrl.Context) jsonContext {
	jc := jsonContext{
		ID:         c.ID,
		Identifier: c.Entity.Identifier,
		Scheme:     c.Entity.Scheme,
		Period: jsonPeriod{
			Kind:    c.Period.Kind.String(),
			Instant: c.Period.Instant,
			Start:   c.Period.Start,
			End:     c.Period.End,
		},
		Segment:  buildMembers(c.Entity.Segment),
		Scenario: buildMembers(c.Scenario),
	}
	return jc
}

func buildMembers(q *xbrl.Qualifiers) []jsonMember {
	if q == nil {
		return nil
	}
	var out []jsonMember
	for _, m := range q.ExplicitMembers {
		out = append(out, jsonMember{Dimension: m.Dimension, Member: m.Member})
	}
	for _, m := range q.TypedMembers {
		out = append(out, jsonMember{Dimension: m.Dimension, Typed: m.Value})
	}
	return out
}

func buildFact(f xbrl.Fact) jsonFact {
	jf := jsonFact{
		Concept:   f.Concept,
		Context:   f.ContextRef,
		Unit:      f.UnitRef,
		ID:        f.ID,
		Type:      f.Value.Kind.String(),
		Value:     factValue(f.Value),
		NilReason: f.NilReason,
		Footnotes: f.FootnoteRefs,
	}
	if f.Decimals.Set {
		jf.Decimals = f.Decimals.String()
	}
	if f.Precision.Set {
		jf.Precision = f.Precision.String()
	}
	return jf
}

func factValue(v xbrl.FactValue) any {
	switch v.Kind {
	case xbrl.KindNil:
		return nil
	case xbrl.KindDecimal:
		return v.Decimal
	case xbrl.KindInteger:
		return v.Integer
	case xbrl.KindBoolean:
		return v.Bool
	}
	return v.String()
}

func buildTuple(t *xbrl.Tuple) jsonTuple {
	jt := jsonTuple{Name: t.Name, ID: t.ID}
	for _, it := range t.Items {
		switch {
		case it.Fact != nil:
			jt.Facts = append(jt.Facts, buildFact(*it.Fact))
		case it.Tuple != nil:
			jt.Tuples = append(jt.Tuples, buildTuple(it.Tuple))
		}
	}
	return jt
}

// ValidationJSON converts a validation result to the shape used in JSON
// output. It returns nil for a nil result.
func ValidationJSON(r *validator.Result) *ValidationReport {
	if r == nil {
		return nil
	}
	jv := &ValidationReport{Valid: r.Valid, Errors: []IssueReport{}, Warnings: []IssueReport{}}
	for _, is := range r.Errors {
		jv.Errors = append(jv.Errors, IssueReport{Code: string(is.Code), Ref: is.Ref, Message: is.Message})
	}
	for _, is := range r.Warnings {
		jv.Warnings = append(jv.Warnings, IssueReport{Code: string(is.Code), Ref: is.Ref, Message: is.Message})
	}
	return jv
}
