package arena

import (
	"fmt"
	"sync"
)

// Symbol is a dense id issued by an Interner, starting at 0.
type Symbol uint32

// Interner maps string content to a Symbol. It is safe for concurrent use.
type Interner struct {
	mu      sync.Mutex
	ids     map[string]Symbol
	strings []string
	store   *Arena
}

func NewInterner() *Interner {
	return &Interner{
		ids:   make(map[string]Symbol),
		store: New(64 << 10),
	}
}

// Intern returns the symbol for s, issuing a new one the first time s is
// seen. The stored copy lives in the interner's own arena, so s may point
// into a buffer that is later discarded.
func (in *Interner) Intern(s string) Symbol {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[s]; ok {
		return id
	}
	owned := in.store.AllocString(s)
	id := Symbol(len(in.strings))
	in.strings = append(in.strings, owned)
	in.ids[owned] = id
	return id
}

// InternBytes is Intern for a byte slice; it does not allocate when the
// content is already known.
func (in *Interner) InternBytes(b []byte) Symbol {
	in.mu.Lock()
	if id, ok := in.ids[string(b)]; ok {
		in.mu.Unlock()
		return id
	}
	in.mu.Unlock()
	return in.Intern(string(b))
}

// Canonical interns b and returns the interner's copy of the content, so
// equal strings share one backing array.
func (in *Interner) Canonical(b []byte) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.ids[string(b)]; ok {
		return in.strings[id]
	}
	owned := in.store.String(b)
	in.ids[owned] = Symbol(len(in.strings))
	in.strings = append(in.strings, owned)
	return owned
}

// Lookup returns the symbol for s without issuing one.
func (in *Interner) Lookup(s string) (Symbol, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()
	id, ok := in.ids[s]
	return id, ok
}

func (in *Interner) Resolve(id Symbol) (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	if int(id) >= len(in.strings) {
		return "", fmt.Errorf("symbol %d: %w", id, ErrNotFound)
	}
	return in.strings[id], nil
}

// MustResolve returns the content for id or the empty string.
func (in *Interner) MustResolve(id Symbol) string {
	s, _ := in.Resolve(id)
	return s
}

func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.strings)
}
