package workspace

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

// Position is a zero-based line and UTF-16 column, as editors count them.
type Position struct {
	Line   int
	Column int
}

type Diagnostic struct {
	Start    Position
	End      Position
	Severity validator.Severity
	Code     string
	Message  string
}

// Diagnostics returns the findings for the filing at path: the syntax error
// when the content failed to parse, otherwise the validation errors and
// warnings located at the element they refer to.
func (w *Workspace) Diagnostics(path string) []Diagnostic {
	f := w.GetFile(path)
	if f == nil {
		return nil
	}
	return f.Diagnostics()
}

func (f *Filing) Diagnostics() []Diagnostic {
	if f.ParseErr != nil {
		offset := 0
		var se *xbrl.SyntaxError
		if errors.As(f.ParseErr, &se) {
			offset = se.Offset
		}
		pos := OffsetPosition(f.Content, offset)
		return []Diagnostic{{
			Start:    pos,
			End:      Position{Line: pos.Line, Column: pos.Column + 1},
			Severity: validator.SeverityError,
			Code:     "ParseError",
			Message:  f.ParseErr.Error(),
		}}
	}
	if f.Result == nil {
		return nil
	}
	out := make([]Diagnostic, 0, len(f.Result.Errors)+len(f.Result.Warnings))
	for _, issues := range [][]validator.Issue{f.Result.Errors, f.Result.Warnings} {
		for _, is := range issues {
			start, end := locate(f.Content, is.Ref)
			out = append(out, Diagnostic{
				Start:    OffsetPosition(f.Content, start),
				End:      OffsetPosition(f.Content, end),
				Severity: is.Severity,
				Code:     string(is.Code),
				Message:  is.Message,
			})
		}
	}
	return out
}

// locate finds the byte range that best represents ref in content: an id
// attribute value, then a contextRef or unitRef value, then an element
// named ref. It returns 0, 0 when nothing matches.
func locate(content []byte, ref string) (int, int) {
	if ref == "" {
		return 0, 0
	}
	for _, attr := range []string{`id="`, `contextRef="`, `unitRef="`} {
		needle := []byte(attr + ref + `"`)
		if i := bytes.Index(content, needle); i >= 0 {
			start := i + len(attr)
			return start, start + len(ref)
		}
	}
	needle := []byte("<" + ref)
	for from := 0; ; {
		i := bytes.Index(content[from:], needle)
		if i < 0 {
			break
		}
		i += from
		end := i + len(needle)
		if end == len(content) || isNameEnd(content[end]) {
			return i + 1, end
		}
		from = end
	}
	return 0, 0
}

func isNameEnd(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '>', '/':
		return true
	}
	return false
}

// OffsetPosition converts a byte offset into a line and UTF-16 column.
// Offsets past the end are clamped.
func OffsetPosition(content []byte, offset int) Position {
	if offset > len(content) {
		offset = len(content)
	}
	if offset < 0 {
		offset = 0
	}
	lineStart := bytes.LastIndexByte(content[:offset], '\n') + 1
	line := bytes.Count(content[:lineStart], []byte{'\n'})
	col := 0
	for rest := content[lineStart:offset]; len(rest) > 0; {
		r, size := utf8.DecodeRune(rest)
		if r >= 0x10000 {
			col += 2
		} else {
			col++
		}
		rest = rest[size:]
	}
	return Position{Line: line, Column: col}
}
