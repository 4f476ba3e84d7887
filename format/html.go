package format

import (
	"bytes"
	"fmt"
	"html"
	"io"

	"github.com/dhamidi/crabrl/xbrl"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// HTMLEncoder renders the markdown report as a standalone HTML page.
type HTMLEncoder struct {
	w        io.Writer
	doc      *xbrl.Document
	markdown *MarkdownEncoder
	md       goldmark.Markdown
}

func NewHTMLEncoder(w io.Writer) *HTMLEncoder {
	return &HTMLEncoder{
		w:        w,
		markdown: NewMarkdownEncoder(io.Discard),
		md:       goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Report gives access to the report options, for example
// e.Report().WithValidation(res).
func (e *HTMLEncoder) Report() *MarkdownEncoder { return e.markdown }

func (e *HTMLEncoder) Encode(doc *xbrl.Document) error {
	e.doc = doc
	text, err := e.MarshalText()
	if err != nil {
		return err
	}
	_, err = e.w.Write(text)
	return err
}

const pageStyle = `body{font-family:sans-serif;margin:2em auto;max-width:72em;padding:0 1em}` +
	`table{border-collapse:collapse;margin:1em 0}th,td{border:1px solid #ccc;padding:.25em .5em}` +
	`th{background:#f4f4f4}td:nth-child(5){font-variant-numeric:tabular-nums}`

func (e *HTMLEncoder) MarshalText() ([]byte, error) {
	e.markdown.doc = e.doc
	src, err := e.markdown.MarshalText()
	if err != nil {
		return nil, err
	}
	var body bytes.Buffer
	if err := e.md.Convert(src, &body); err != nil {
		return nil, fmt.Errorf("render report: %w", err)
	}
	var page bytes.Buffer
	fmt.Fprintf(&page, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n<style>%s</style>\n</head>\n<body>\n",
		html.EscapeString(e.markdown.title), pageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
