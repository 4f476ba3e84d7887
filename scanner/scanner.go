// Package scanner implements a byte cursor over an immutable buffer with
// word-parallel whitespace skipping and substring search.
package scanner

import (
	"bytes"

	"golang.org/x/sys/cpu"
)

// BlockSize is the number of bytes examined per iteration of the vectorized
// whitespace skip.
const BlockSize = 32

// HasVector reports whether the running CPU advertises wide vector support.
// Scanners created with New take the block path only when it is true.
var HasVector = cpu.X86.HasAVX2 || cpu.ARM64.HasASIMD

type Scanner struct {
	data   []byte
	pos    int
	vector bool
}

func New(data []byte) *Scanner {
	return &Scanner{data: data, vector: HasVector}
}

// NewScalar returns a scanner that never takes the vectorized paths.
func NewScalar(data []byte) *Scanner {
	return &Scanner{data: data}
}

func (s *Scanner) Vectorized() bool { return s.vector }

func (s *Scanner) Data() []byte { return s.data }

func (s *Scanner) Pos() int { return s.pos }

// Seek moves the cursor to an absolute offset, clamped to the buffer.
func (s *Scanner) Seek(pos int) {
	switch {
	case pos < 0:
		s.pos = 0
	case pos > len(s.data):
		s.pos = len(s.data)
	default:
		s.pos = pos
	}
}

func (s *Scanner) IsEOF() bool { return s.pos >= len(s.data) }

func (s *Scanner) Remaining() int { return len(s.data) - s.pos }

func (s *Scanner) Peek() (byte, bool) {
	if s.pos >= len(s.data) {
		return 0, false
	}
	return s.data[s.pos], true
}

// PeekAt returns the byte n positions past the cursor.
func (s *Scanner) PeekAt(n int) (byte, bool) {
	i := s.pos + n
	if i < 0 || i >= len(s.data) {
		return 0, false
	}
	return s.data[i], true
}

func (s *Scanner) HasPrefix(p []byte) bool {
	return bytes.HasPrefix(s.data[s.pos:], p)
}

// Advance moves the cursor forward n bytes, never past the end.
func (s *Scanner) Advance(n int) {
	s.pos += n
	if s.pos > len(s.data) {
		s.pos = len(s.data)
	}
}

// Slice returns data[start:end] without copying.
func (s *Scanner) Slice(start, end int) []byte {
	return s.data[start:end]
}

// SkipWhitespace advances past ASCII space, tab, CR and LF.
func (s *Scanner) SkipWhitespace() {
	if s.vector {
		s.pos = skipWhitespaceBlocks(s.data, s.pos)
	}
	s.pos = skipWhitespaceScalar(s.data, s.pos)
}

// FindNext returns the absolute offset of the next b at or after the cursor,
// or -1.
func (s *Scanner) FindNext(b byte) int {
	if s.pos >= len(s.data) {
		return -1
	}
	var i int
	if s.vector {
		i = bytes.IndexByte(s.data[s.pos:], b)
	} else {
		i = indexByteScalar(s.data[s.pos:], b)
	}
	if i < 0 {
		return -1
	}
	return s.pos + i
}

// FindPattern returns the absolute offset of the next occurrence of p at or
// after the cursor, or -1. An empty pattern matches at the cursor.
func (s *Scanner) FindPattern(p []byte) int {
	if len(p) == 0 {
		return s.pos
	}
	if s.pos >= len(s.data) {
		return -1
	}
	var i int
	if s.vector {
		i = bytes.Index(s.data[s.pos:], p)
	} else {
		i = indexScalar(s.data[s.pos:], p)
	}
	if i < 0 {
		return -1
	}
	return s.pos + i
}

// SkipPast moves the cursor just past the next occurrence of p and reports
// whether it was found. On failure the cursor is left at the end.
func (s *Scanner) SkipPast(p []byte) bool {
	i := s.FindPattern(p)
	if i < 0 {
		s.pos = len(s.data)
		return false
	}
	s.pos = i + len(p)
	return true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func skipWhitespaceScalar(data []byte, pos int) int {
	for pos < len(data) && isSpace(data[pos]) {
		pos++
	}
	return pos
}

func indexByteScalar(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}

func indexScalar(data, p []byte) int {
	first := p[0]
	for i := 0; i+len(p) <= len(data); i++ {
		if data[i] != first {
			continue
		}
		j := 1
		for j < len(p) && data[i+j] == p[j] {
			j++
		}
		if j == len(p) {
			return i
		}
	}
	return -1
}
