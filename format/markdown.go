package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

// DefaultFactLimit is the number of facts listed in a report.
const DefaultFactLimit = 100

// MarkdownEncoder writes a human-readable report of a document.
type MarkdownEncoder struct {
	w         io.Writer
	doc       *xbrl.Document
	title     string
	result    *validator.Result
	links     *linkbase.Processor
	lang      string
	factLimit int
}

func NewMarkdownEncoder(w io.Writer) *MarkdownEncoder {
	return &MarkdownEncoder{w: w, title: "XBRL report", lang: "en", factLimit: DefaultFactLimit}
}

func (e *MarkdownEncoder) WithTitle(title string) *MarkdownEncoder {
	e.title = title
	return e
}

func (e *MarkdownEncoder) WithValidation(r *validator.Result) *MarkdownEncoder {
	e.result = r
	return e
}

// WithLinkbase labels facts and adds the presentation hierarchy using
// labels in lang.
func (e *MarkdownEncoder) WithLinkbase(p *linkbase.Processor, lang string) *MarkdownEncoder {
	e.links = p
	if lang != "" {
		e.lang = lang
	}
	return e
}

// WithFactLimit sets how many facts are listed; n <= 0 lists all.
func (e *MarkdownEncoder) WithFactLimit(n int) *MarkdownEncoder {
	e.factLimit = n
	return e
}

func (e *MarkdownEncoder) Encode(doc *xbrl.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *MarkdownEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	d := e.doc
	s := Summarize(d)

	fmt.Fprintf(&sb, "# %s\n\n", e.title)
	sb.WriteString("| Item | Count |\n|---|---:|\n")
	for _, row := range []struct {
		name string
		n    int
	}{
		{"Facts", s.Facts},
		{"Facts in tuples", s.TupleFacts},
		{"Concepts", s.Concepts},
		{"Contexts", s.Contexts},
		{"Units", s.Units},
		{"Tuples", s.Tuples},
		{"Footnotes", s.Footnotes},
	} {
		fmt.Fprintf(&sb, "| %s | %d |\n", row.name, row.n)
	}

	if e.result != nil {
		e.writeValidation(&sb)
	}

	if len(d.Contexts) > 0 {
		sb.WriteString("\n## Contexts\n\n| ID | Entity | Period | Dimensions |\n|---|---|---|---|\n")
		for i := range d.Contexts {
			c := &d.Contexts[i]
			fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
				cell(c.ID), cell(c.Entity.Identifier), cell(c.Period.String()), cell(dimensions(c)))
		}
	}

	if len(d.Units) > 0 {
		sb.WriteString("\n## Units\n\n| ID | Measure |\n|---|---|\n")
		for i := range d.Units {
			fmt.Fprintf(&sb, "| %s | %s |\n", cell(d.Units[i].ID), cell(d.Units[i].String()))
		}
	}

	if n := d.Facts.Len(); n > 0 {
		limit := n
		if e.factLimit > 0 && e.factLimit < n {
			limit = e.factLimit
		}
		sb.WriteString("\n## Facts\n\n")
		if limit < n {
			fmt.Fprintf(&sb, "First %d of %d facts.\n\n", limit, n)
		}
		sb.WriteString("| Concept | Label | Context | Unit | Value | Decimals |\n|---|---|---|---|---:|---|\n")
		for i := 0; i < limit; i++ {
			f := d.Fact(i)
			fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s | %s |\n",
				cell(f.Concept), cell(e.label(f.Concept, "")), cell(f.ContextRef),
				cell(f.UnitRef), cell(PlainText(f.Value.String())), cell(accuracy(f.Decimals)))
		}
	}

	if len(d.Footnotes) > 0 {
		sb.WriteString("\n## Footnotes\n\n")
		for _, fn := range d.Footnotes {
			fmt.Fprintf(&sb, "- **%s**", inline(fn.ID))
			if fn.Lang != "" {
				fmt.Fprintf(&sb, " (%s)", inline(fn.Lang))
			}
			fmt.Fprintf(&sb, ": %s", inline(PlainText(fn.Content)))
			if len(fn.FactRefs) > 0 {
				fmt.Fprintf(&sb, " [%s]", inline(strings.Join(fn.FactRefs, ", ")))
			}
			sb.WriteByte('\n')
		}
	}

	if e.links != nil {
		e.writePresentation(&sb)
	}

	return []byte(sb.String()), nil
}

func (e *MarkdownEncoder) writeValidation(sb *strings.Builder) {
	r := e.result
	sb.WriteString("\n## Validation\n\n")
	if r.Valid {
		fmt.Fprintf(sb, "**Valid** with %d warnings.\n", len(r.Warnings))
	} else {
		fmt.Fprintf(sb, "**Invalid**: %d errors, %d warnings.\n", len(r.Errors), len(r.Warnings))
	}
	if len(r.Errors)+len(r.Warnings) == 0 {
		return
	}
	sb.WriteByte('\n')
	for _, is := range r.Errors {
		fmt.Fprintf(sb, "- error `%s`: %s\n", is.Code, inline(is.Message))
	}
	for _, is := range r.Warnings {
		fmt.Fprintf(sb, "- warning `%s`: %s\n", is.Code, inline(is.Message))
	}
}

func (e *MarkdownEncoder) writePresentation(sb *strings.Builder) {
	roots := e.links.PresentationRoots()
	if len(roots) == 0 {
		return
	}
	sb.WriteString("\n## Presentation\n\n")
	for _, root := range roots {
		fmt.Fprintf(sb, "- %s\n", inline(e.label(root, "")))
		e.links.WalkPresentation(root, func(depth int, arc xbrl.PresentationArc) {
			fmt.Fprintf(sb, "%s- %s\n", strings.Repeat("  ", depth+1), inline(e.label(arc.To, arc.PreferredLabel)))
		})
	}
}

// label falls back to the concept name when no label is known.
func (e *MarkdownEncoder) label(concept, role string) string {
	if e.links == nil {
		return concept
	}
	if role == "" {
		role = linkbase.RoleLabel
	}
	if l, ok := e.links.Label(concept, role, e.lang); ok {
		return l
	}
	return concept
}

func dimensions(c *xbrl.Context) string {
	var parts []string
	for _, q := range []*xbrl.Qualifiers{c.Entity.Segment, c.Scenario} {
		if q == nil {
			continue
		}
		for _, m := range q.ExplicitMembers {
			parts = append(parts, m.Dimension+"="+m.Member)
		}
		for _, m := range q.TypedMembers {
			parts = append(parts, m.Dimension+"="+PlainText(m.Value))
		}
	}
	return strings.Join(parts, ", ")
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\n", " ", "\r", " ")

func cell(s string) string {
	if s == "" {
		return " "
	}
	return cellReplacer.Replace(s)
}

var inlineReplacer = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`", "[", `\[`, "]", `\]`, "<", "&lt;", "\n", " ")

func inline(s string) string {
	return inlineReplacer.Replace(s)
}
