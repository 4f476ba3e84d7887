package parser

import (
	"bytes"
	"strconv"
	"strings"
	"unicode/utf8"
	"unsafe"
)

// decode resolves the predefined XML entities and numeric character
// references. Anything else after '&' is kept literally. Input without '&'
// is returned as is.
func decode(b []byte) string {
	if bytes.IndexByte(b, '&') < 0 {
		return view(b)
	}
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		amp := bytes.IndexByte(b, '&')
		if amp < 0 {
			out = append(out, b...)
			break
		}
		out = append(out, b[:amp]...)
		b = b[amp:]
		semi := bytes.IndexByte(b, ';')
		if semi < 0 || semi > maxEntityLen {
			out = append(out, '&')
			b = b[1:]
			continue
		}
		r, ok := entityRune(b[1:semi])
		if !ok {
			out = append(out, '&')
			b = b[1:]
			continue
		}
		out = utf8.AppendRune(out, r)
		b = b[semi+1:]
	}
	return string(out)
}

// maxEntityLen bounds the search for ';' after '&'. "&#x10FFFF;" is the
// longest reference.
const maxEntityLen = 9

func entityRune(name []byte) (rune, bool) {
	switch string(name) {
	case "amp":
		return '&', true
	case "lt":
		return '<', true
	case "gt":
		return '>', true
	case "quot":
		return '"', true
	case "apos":
		return '\'', true
	}
	if len(name) < 2 || name[0] != '#' {
		return 0, false
	}
	digits, base := name[1:], 10
	if digits[0] == 'x' {
		digits, base = digits[1:], 16
	}
	if len(digits) == 0 || digits[0] == '+' || digits[0] == '-' {
		return 0, false
	}
	n, err := strconv.ParseUint(string(digits), base, 32)
	if err != nil || n == 0 || !utf8.ValidRune(rune(n)) {
		return 0, false
	}
	return rune(n), true
}

// view returns a string sharing b's memory. The result must not outlive the
// input buffer unless it is copied or interned.
func view(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(&b[0], len(b))
}

// readText reads the content of el up to its closing tag. Character data
// is entity-decoded, CDATA sections are taken literally and comments and
// processing instructions are dropped. If a child element appears the
// content is re-read as markup. The result may alias the input.
func (m *machine) readText(el element) (string, bool, error) {
	if el.selfClosing {
		return "", false, nil
	}
	start := m.s.Pos()
	seg := start
	var buf []byte
	pieces := false
	for {
		lt := m.s.FindNext('<')
		if lt < 0 {
			return "", false, m.syntaxAt(el.offset, "unterminated element <%s>", el.name)
		}
		m.s.Seek(lt)
		switch {
		case m.s.HasPrefix(closeOpen):
			text := m.s.Slice(seg, lt)
			if _, err := m.readCloseTag(); err != nil {
				return "", false, err
			}
			if !pieces {
				if err := m.checkUTF8(text, seg); err != nil {
					return "", false, err
				}
				return decode(text), false, nil
			}
			buf = append(buf, decode(text)...)
			if err := m.checkUTF8(buf, start); err != nil {
				return "", false, err
			}
			return view(buf), false, nil
		case m.s.HasPrefix(cdataOpen):
			buf = append(buf, decode(m.s.Slice(seg, lt))...)
			body := lt + len(cdataOpen)
			if !m.s.SkipPast(cdataClose) {
				return "", false, m.syntaxAt(lt, "unterminated CDATA section")
			}
			buf = append(buf, m.s.Slice(body, m.s.Pos()-len(cdataClose))...)
			seg = m.s.Pos()
			pieces = true
		case m.s.HasPrefix(commentOpen) || m.s.HasPrefix(piOpen):
			buf = append(buf, decode(m.s.Slice(seg, lt))...)
			if _, err := m.skipSpecial(); err != nil {
				return "", false, err
			}
			seg = m.s.Pos()
			pieces = true
		default:
			m.s.Seek(start)
			s, err := m.readMarkup(el)
			return s, true, err
		}
	}
}

// readMarkup returns the content of el verbatim, with CDATA sections
// unwrapped and references decoded, and consumes el's closing tag.
func (m *machine) readMarkup(el element) (string, error) {
	seg := m.s.Pos()
	var buf []byte
	depth := 0
	for {
		lt := m.s.FindNext('<')
		if lt < 0 {
			return "", m.syntaxAt(el.offset, "unterminated element <%s>", el.name)
		}
		m.s.Seek(lt)
		switch {
		case m.s.HasPrefix(cdataOpen):
			buf = append(buf, m.s.Slice(seg, lt)...)
			body := lt + len(cdataOpen)
			if !m.s.SkipPast(cdataClose) {
				return "", m.syntaxAt(lt, "unterminated CDATA section")
			}
			buf = append(buf, m.s.Slice(body, m.s.Pos()-len(cdataClose))...)
			seg = m.s.Pos()
		case m.s.HasPrefix(closeOpen):
			if depth == 0 {
				buf = append(buf, m.s.Slice(seg, lt)...)
				if _, err := m.readCloseTag(); err != nil {
					return "", err
				}
				if err := m.checkUTF8(buf, seg); err != nil {
					return "", err
				}
				return decode(buf), nil
			}
			if _, err := m.readCloseTag(); err != nil {
				return "", err
			}
			depth--
		default:
			if ok, err := m.skipSpecial(); ok {
				if err != nil {
					return "", err
				}
				continue
			}
			m.s.Advance(1)
			m.readName()
			selfClosing, err := m.skipTagRest()
			if err != nil {
				return "", err
			}
			if !selfClosing {
				depth++
			}
		}
	}
}

// readFraction reads numerator and denominator children of a fraction fact
// and returns "num/den".
func (m *machine) readFraction(el element) (string, error) {
	var num, den string
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return "", err
		}
		if done {
			break
		}
		switch {
		case localNameIs(child.name, "numerator"):
			s, _, err := m.readText(child)
			if err != nil {
				return "", err
			}
			num = strings.TrimSpace(s)
		case localNameIs(child.name, "denominator"):
			s, _, err := m.readText(child)
			if err != nil {
				return "", err
			}
			den = strings.TrimSpace(s)
		default:
			if err := m.skipElement(child); err != nil {
				return "", err
			}
		}
	}
	return num + "/" + den, nil
}

// startsWithChild reports whether the first element at the cursor, after
// whitespace, comments and processing instructions, has local name local.
func (m *machine) startsWithChild(local string) bool {
	data := m.s.Data()
	i := m.s.Pos()
	for {
		for i < len(data) && (data[i] == ' ' || data[i] == '\t' || data[i] == '\n' || data[i] == '\r') {
			i++
		}
		rest := data[i:]
		var closer []byte
		switch {
		case bytes.HasPrefix(rest, commentOpen):
			closer = commentClose
		case bytes.HasPrefix(rest, piOpen):
			closer = piClose
		}
		if closer == nil {
			break
		}
		end := bytes.Index(rest, closer)
		if end < 0 {
			return false
		}
		i += end + len(closer)
	}
	if i >= len(data) || data[i] != '<' {
		return false
	}
	j := i + 1
	for j < len(data) && !isNameEnd(data[j]) {
		j++
	}
	return localNameIs(data[i+1:j], local)
}
