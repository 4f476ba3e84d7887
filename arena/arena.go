// Package arena provides a block bump allocator for parser-owned text and a
// lock-guarded string interner.
package arena

import (
	"errors"
	"unsafe"
)

// DefaultBlockSize is the capacity of each regular block.
const DefaultBlockSize = 1 << 20

var ErrNotFound = errors.New("not found")

// Arena hands out byte slices carved from large blocks. Exhausted blocks are
// retained until Reset so that earlier slices stay addressable through the
// arena; the garbage collector keeps any block alive while a slice into it
// is referenced.
type Arena struct {
	blockSize int
	cur       []byte
	full      [][]byte
	allocs    int
	bytes     int
}

type Stats struct {
	Blocks    int
	Allocs    int
	Bytes     int
	BlockSize int
}

func New(blockSize int) *Arena {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	return &Arena{blockSize: blockSize}
}

// Alloc returns n zeroed bytes. Requests larger than the block size get a
// dedicated block and leave the current block untouched.
func (a *Arena) Alloc(n int) []byte {
	if n <= 0 {
		return nil
	}
	a.allocs++
	a.bytes += n
	if n > a.blockSize {
		b := make([]byte, n)
		a.full = append(a.full, b)
		return b
	}
	if cap(a.cur)-len(a.cur) < n {
		if a.cur != nil {
			a.full = append(a.full, a.cur)
		}
		a.cur = make([]byte, 0, a.blockSize)
	}
	start := len(a.cur)
	a.cur = a.cur[:start+n]
	return a.cur[start : start+n : start+n]
}

// AllocBytes copies b into the arena.
func (a *Arena) AllocBytes(b []byte) []byte {
	dst := a.Alloc(len(b))
	copy(dst, b)
	return dst
}

// String copies b into the arena and returns a string viewing the copy.
func (a *Arena) String(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	dst := a.AllocBytes(b)
	return unsafe.String(&dst[0], len(dst))
}

func (a *Arena) AllocString(s string) string {
	if s == "" {
		return ""
	}
	dst := a.Alloc(len(s))
	copy(dst, s)
	return unsafe.String(&dst[0], len(dst))
}

// Reset forgets every block. Strings handed out earlier remain valid; their
// memory is reclaimed once nothing references it.
func (a *Arena) Reset() {
	a.cur = nil
	a.full = nil
	a.allocs = 0
	a.bytes = 0
}

func (a *Arena) Stats() Stats {
	blocks := len(a.full)
	if a.cur != nil {
		blocks++
	}
	return Stats{Blocks: blocks, Allocs: a.allocs, Bytes: a.bytes, BlockSize: a.blockSize}
}
