package parser

import (
	"bytes"
	"unicode/utf8"
)

var (
	commentOpen  = []byte("<!--")
	commentClose = []byte("-->")
	cdataOpen    = []byte("<![CDATA[")
	cdataClose   = []byte("]]>")
	piOpen       = []byte("<?")
	piClose      = []byte("?>")
	closeOpen    = []byte("</")
	declOpen     = []byte("<!")
	bom          = []byte{0xEF, 0xBB, 0xBF}
)

type attr struct {
	name  []byte
	value []byte
}

// element is an opening tag whose attributes have been read. attrs aliases
// the machine's attribute buffer and is overwritten by the next tag read.
type element struct {
	name        []byte
	attrs       []attr
	selfClosing bool
	offset      int
}

func (e *element) attr(name string) ([]byte, bool) {
	for _, a := range e.attrs {
		if string(a.name) == name {
			return a.value, true
		}
	}
	return nil, false
}

// localAttr finds an attribute by local name regardless of prefix.
func (e *element) localAttr(local string) ([]byte, bool) {
	for _, a := range e.attrs {
		if localNameIs(a.name, local) {
			return a.value, true
		}
	}
	return nil, false
}

func localName(name []byte) []byte {
	if i := bytes.LastIndexByte(name, ':'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func prefixOf(name []byte) []byte {
	if i := bytes.IndexByte(name, ':'); i >= 0 {
		return name[:i]
	}
	return nil
}

// localNameIs matches name against local by suffix, with or without a
// prefix.
func localNameIs(name []byte, local string) bool {
	n := len(name)
	l := len(local)
	if n == l {
		return string(name) == local
	}
	return n > l && name[n-l-1] == ':' && string(name[n-l:]) == local
}

// sameElement reports whether a closing tag name closes an element opened
// with open. Names match exactly or by local name.
func sameElement(open, closing []byte) bool {
	return bytes.Equal(open, closing) || bytes.Equal(localName(open), localName(closing))
}

func isNameEnd(c byte) bool {
	switch c {
	case ' ', '\t', '\r', '\n', '/', '>', '=':
		return true
	}
	return false
}

// readName reads a tag or attribute name at the cursor.
func (m *machine) readName() []byte {
	data := m.s.Data()
	start := m.s.Pos()
	i := start
	for i < len(data) && !isNameEnd(data[i]) {
		i++
	}
	m.s.Seek(i)
	return data[start:i]
}

// readOpenTag reads an opening tag starting at '<'.
func (m *machine) readOpenTag() (element, error) {
	offset := m.s.Pos()
	m.s.Advance(1)
	name := m.readName()
	if len(name) == 0 {
		return element{}, m.syntaxAt(offset, "empty tag name")
	}
	if err := m.checkUTF8(name, offset); err != nil {
		return element{}, err
	}
	attrs, selfClosing, err := m.readAttrs(name)
	if err != nil {
		return element{}, err
	}
	return element{name: name, attrs: attrs, selfClosing: selfClosing, offset: offset}, nil
}

// readAttrs reads name="value" pairs up to and including the tag
// terminator.
func (m *machine) readAttrs(tag []byte) ([]attr, bool, error) {
	m.attrs = m.attrs[:0]
	for {
		m.s.SkipWhitespace()
		c, ok := m.s.Peek()
		if !ok {
			return nil, false, m.syntax("unterminated tag <%s>", tag)
		}
		switch c {
		case '>':
			m.s.Advance(1)
			return m.attrs, false, nil
		case '/':
			if next, _ := m.s.PeekAt(1); next == '>' {
				m.s.Advance(2)
				return m.attrs, true, nil
			}
			return nil, false, m.syntax("unexpected '/' in tag <%s>", tag)
		}
		name := m.readName()
		if len(name) == 0 {
			return nil, false, m.syntax("unexpected %q in tag <%s>", c, tag)
		}
		m.s.SkipWhitespace()
		if c, _ := m.s.Peek(); c != '=' {
			return nil, false, m.syntax("attribute %s of <%s> has no '='", name, tag)
		}
		m.s.Advance(1)
		m.s.SkipWhitespace()
		q, ok := m.s.Peek()
		if !ok {
			return nil, false, m.syntax("unterminated tag <%s>", tag)
		}
		if q != '"' && q != '\'' {
			return nil, false, m.syntax("attribute %s of <%s> is not quoted", name, tag)
		}
		m.s.Advance(1)
		end := m.s.FindNext(q)
		if end < 0 {
			return nil, false, m.syntax("unterminated value of attribute %s", name)
		}
		value := m.s.Slice(m.s.Pos(), end)
		if err := m.checkUTF8(value, m.s.Pos()); err != nil {
			return nil, false, err
		}
		m.s.Seek(end + 1)
		m.attrs = append(m.attrs, attr{name: name, value: value})
	}
}

// skipTagRest consumes the remainder of a tag whose attributes are not
// needed. Quoted values may contain '>'.
func (m *machine) skipTagRest() (selfClosing bool, err error) {
	data := m.s.Data()
	start := m.s.Pos()
	for i := start; i < len(data); i++ {
		switch c := data[i]; c {
		case '"', '\'':
			m.s.Seek(i + 1)
			end := m.s.FindNext(c)
			if end < 0 {
				return false, m.syntax("unterminated attribute value")
			}
			i = end
		case '>':
			m.s.Seek(i + 1)
			return i > start && data[i-1] == '/', nil
		}
	}
	m.s.Seek(len(data))
	return false, m.syntaxAt(start, "unterminated tag")
}

// readCloseTag reads a closing tag starting at "</" and returns its name.
func (m *machine) readCloseTag() ([]byte, error) {
	offset := m.s.Pos()
	m.s.Advance(2)
	name := m.readName()
	end := m.s.FindNext('>')
	if end < 0 {
		return nil, m.syntaxAt(offset, "unterminated closing tag </%s", name)
	}
	m.s.Seek(end + 1)
	return name, nil
}

// skipSpecial consumes a comment, CDATA section, processing instruction or
// declaration at the cursor. It reports false when the cursor is at none of
// these.
func (m *machine) skipSpecial() (bool, error) {
	offset := m.s.Pos()
	switch {
	case m.s.HasPrefix(commentOpen):
		if !m.s.SkipPast(commentClose) {
			return true, m.syntaxAt(offset, "unterminated comment")
		}
	case m.s.HasPrefix(cdataOpen):
		if !m.s.SkipPast(cdataClose) {
			return true, m.syntaxAt(offset, "unterminated CDATA section")
		}
	case m.s.HasPrefix(piOpen):
		if !m.s.SkipPast(piClose) {
			return true, m.syntaxAt(offset, "unterminated processing instruction")
		}
	case m.s.HasPrefix(declOpen):
		return true, m.skipDeclaration()
	default:
		return false, nil
	}
	return true, nil
}

// skipDeclaration skips <!DOCTYPE ...> and similar declarations, including
// an internal subset in brackets.
func (m *machine) skipDeclaration() error {
	data := m.s.Data()
	start := m.s.Pos()
	depth := 0
	var quote byte
	for i := start + 2; i < len(data); i++ {
		c := data[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[':
			depth++
		case c == ']':
			depth--
		case c == '>' && depth <= 0:
			m.s.Seek(i + 1)
			return nil
		}
	}
	m.s.Seek(len(data))
	return m.syntaxAt(start, "unterminated declaration")
}

// skipElement consumes the content and closing tag of an element whose
// opening tag has been read. Nested elements, self-closing tags included,
// are tracked with a depth counter.
func (m *machine) skipElement(el element) error {
	if el.selfClosing {
		return nil
	}
	depth := 1
	for {
		lt := m.s.FindNext('<')
		if lt < 0 {
			m.s.Seek(len(m.s.Data()))
			return m.syntaxAt(el.offset, "unterminated element <%s>", el.name)
		}
		m.s.Seek(lt)
		if ok, err := m.skipSpecial(); ok {
			if err != nil {
				return err
			}
			continue
		}
		if m.s.HasPrefix(closeOpen) {
			if _, err := m.readCloseTag(); err != nil {
				return err
			}
			depth--
			if depth == 0 {
				return nil
			}
			continue
		}
		m.s.Advance(1)
		m.readName()
		selfClosing, err := m.skipTagRest()
		if err != nil {
			return err
		}
		if !selfClosing {
			depth++
		}
	}
}

func (m *machine) skipBOM() {
	if m.s.Pos() == 0 && m.s.HasPrefix(bom) {
		m.s.Advance(len(bom))
	}
}

func (m *machine) checkUTF8(b []byte, offset int) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size <= 1 {
			return m.syntaxAt(offset+i, "invalid UTF-8")
		}
		i += size
	}
	return m.syntaxAt(offset, "invalid UTF-8")
}
