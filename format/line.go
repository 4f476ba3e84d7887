package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/crabrl/xbrl"
)

// LineEncoder writes one tab-separated record per context, unit, fact and
// footnote. The first column names the record kind.
type LineEncoder struct {
	w   io.Writer
	doc *xbrl.Document
}

func NewLineEncoder(w io.Writer) *LineEncoder {
	return &LineEncoder{w: w}
}

func (e *LineEncoder) Encode(doc *xbrl.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

func (e *LineEncoder) MarshalText() ([]byte, error) {
	var sb strings.Builder
	d := e.doc

	for i := range d.Contexts {
		c := &d.Contexts[i]
		fmt.Fprintf(&sb, "context\t%s\t%s\t%s\t%s\n",
			field(c.ID),
			field(c.Entity.Identifier),
			c.Period.Kind,
			field(c.Period.String()),
		)
	}

	for i := range d.Units {
		u := &d.Units[i]
		fmt.Fprintf(&sb, "unit\t%s\t%s\n", field(u.ID), field(u.String()))
	}

	for i := 0; i < d.Facts.Len(); i++ {
		f := d.Fact(i)
		fmt.Fprintf(&sb, "fact\t%s\t%s\t%s\t%s\t%s\t%s\n",
			field(f.Concept),
			field(f.ContextRef),
			field(f.UnitRef),
			f.Value.Kind,
			field(f.Value.String()),
			accuracy(f.Decimals),
		)
	}

	for _, fn := range d.Footnotes {
		fmt.Fprintf(&sb, "footnote\t%s\t%s\t%s\t%s\n",
			field(fn.ID),
			field(fn.Lang),
			field(strings.Join(fn.FactRefs, ",")),
			field(PlainText(fn.Content)),
		)
	}

	return []byte(sb.String()), nil
}

func accuracy(a xbrl.Accuracy) string {
	if !a.Set {
		return "-"
	}
	return a.String()
}

// field makes s safe for a single tab-separated column.
func field(s string) string {
	if s == "" {
		return "-"
	}
	if !strings.ContainsAny(s, "\t\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
