package arena

import (
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestAllocWithinBlock(t *testing.T) {
	a := New(16)
	x := a.AllocString("hello")
	y := a.AllocString("world")
	if x != "hello" || y != "world" {
		t.Fatalf("got %q %q", x, y)
	}
	if st := a.Stats(); st.Blocks != 1 || st.Allocs != 2 || st.Bytes != 10 {
		t.Errorf("Stats = %+v, want 1 block, 2 allocs, 10 bytes", st)
	}
}

func TestAllocRollsToNewBlock(t *testing.T) {
	a := New(8)
	first := a.String([]byte("abcdef"))
	second := a.String([]byte("ghijk"))
	if first != "abcdef" || second != "ghijk" {
		t.Fatalf("got %q %q", first, second)
	}
	if got := a.Stats().Blocks; got != 2 {
		t.Errorf("Blocks = %d, want 2", got)
	}
}

func TestAllocOversize(t *testing.T) {
	a := New(8)
	small := a.AllocString("ab")
	big := a.AllocString(strings.Repeat("z", 20))
	tail := a.AllocString("cd")
	if small != "ab" || tail != "cd" || len(big) != 20 {
		t.Fatalf("got %q %q %d", small, tail, len(big))
	}
	// the oversize block does not displace the current one
	if got := a.Stats().Blocks; got != 2 {
		t.Errorf("Blocks = %d, want 2", got)
	}
}

func TestAllocSlicesDoNotOverlap(t *testing.T) {
	a := New(32)
	b1 := a.Alloc(4)
	b2 := a.Alloc(4)
	copy(b1, "aaaa")
	copy(b2, "bbbb")
	b1 = append(b1, 'x')
	if string(b2) != "bbbb" {
		t.Errorf("append to first allocation clobbered second: %q", b2)
	}
}

func TestResetKeepsStrings(t *testing.T) {
	a := New(0)
	s := a.AllocString("context-1")
	a.Reset()
	a.AllocString("overwrite")
	if s != "context-1" {
		t.Errorf("string after Reset = %q", s)
	}
	if got := a.Stats().Blocks; got != 1 {
		t.Errorf("Blocks = %d, want 1", got)
	}
}

func TestInterner(t *testing.T) {
	in := NewInterner()
	a := in.Intern("us-gaap:Assets")
	b := in.InternBytes([]byte("us-gaap:Liabilities"))
	c := in.Intern("us-gaap:Assets")
	if a != 0 || b != 1 {
		t.Errorf("ids = %d, %d, want 0, 1", a, b)
	}
	if a != c {
		t.Errorf("equal content got ids %d and %d", a, c)
	}
	if got, err := in.Resolve(b); err != nil || got != "us-gaap:Liabilities" {
		t.Errorf("Resolve(%d) = %q, %v", b, got, err)
	}
	if _, err := in.Resolve(99); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(99) error = %v, want ErrNotFound", err)
	}
	if id, ok := in.Lookup("dei:EntityCentralIndexKey"); ok {
		t.Errorf("Lookup of unknown content returned %d", id)
	}
	if in.Len() != 2 {
		t.Errorf("Len = %d, want 2", in.Len())
	}
}

func TestInternerOwnsContent(t *testing.T) {
	in := NewInterner()
	buf := []byte("dei:DocumentType")
	id := in.InternBytes(buf)
	copy(buf, "XXXXXXXXXXXXXXXX")
	if got := in.MustResolve(id); got != "dei:DocumentType" {
		t.Errorf("Resolve after buffer reuse = %q", got)
	}
}

func TestInternerConcurrent(t *testing.T) {
	in := NewInterner()
	names := []string{"a", "b", "c", "d", "e"}
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				in.Intern(names[i%len(names)])
			}
		}()
	}
	wg.Wait()
	if in.Len() != len(names) {
		t.Errorf("Len = %d, want %d", in.Len(), len(names))
	}
}
