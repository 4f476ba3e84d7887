package parser

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/dhamidi/crabrl/arena"
	"github.com/dhamidi/crabrl/scanner"
	"github.com/dhamidi/crabrl/xbrl"
	"github.com/tliron/commonlog"
)

// ConceptClassifier decides whether a concept is a tuple. known is false
// for concepts the classifier has no declaration for.
type ConceptClassifier interface {
	IsTuple(namespace, local string) (tuple, known bool)
}

type Option func(*Parser)

// WithArena makes the parser allocate from a caller-owned arena. The arena
// is not reset between parses.
func WithArena(a *arena.Arena) Option {
	return func(p *Parser) {
		p.arena = a
		p.sharedArena = true
	}
}

func WithBlockSize(n int) Option {
	return func(p *Parser) {
		p.blockSize = n
	}
}

// WithInterner shares one symbol table across documents.
func WithInterner(in *arena.Interner) Option {
	return func(p *Parser) {
		p.symbols = in
	}
}

// WithScalarScanner disables the vectorized scanning paths.
func WithScalarScanner() Option {
	return func(p *Parser) {
		p.scalar = true
	}
}

func WithConceptClassifier(c ConceptClassifier) Option {
	return func(p *Parser) {
		p.classifier = c
	}
}

// WithDeferredResolution resolves references to contexts and units that
// are declared after the facts using them.
func WithDeferredResolution() Option {
	return func(p *Parser) {
		p.deferred = true
	}
}

func WithLogger(log commonlog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// Parser parses instance documents. A Parser runs one parse at a time;
// concurrent calls are serialized.
type Parser struct {
	mu          sync.Mutex
	arena       *arena.Arena
	sharedArena bool
	blockSize   int
	symbols     *arena.Interner
	scalar      bool
	classifier  ConceptClassifier
	deferred    bool
	log         commonlog.Logger
}

func New(opts ...Option) *Parser {
	p := &Parser{}
	for _, opt := range opts {
		opt(p)
	}
	if p.arena == nil {
		p.arena = arena.New(p.blockSize)
	}
	if p.log == nil {
		p.log = commonlog.GetLogger("crabrl.parser")
	}
	return p
}

// Parse is a convenience for New(opts...).Parse(data).
func Parse(data []byte, opts ...Option) (*xbrl.Document, error) {
	return New(opts...).Parse(data)
}

func ParseFile(path string, opts ...Option) (*xbrl.Document, error) {
	return New(opts...).ParseFile(path)
}

// Parse parses one instance document. No document is returned on error.
func (p *Parser) Parse(data []byte) (*xbrl.Document, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.sharedArena {
		p.arena.Reset()
	}
	var s *scanner.Scanner
	if p.scalar {
		s = scanner.NewScalar(data)
	} else {
		s = scanner.New(data)
	}
	symbols := p.symbols
	if symbols == nil {
		symbols = arena.NewInterner()
	}
	m := newMachine(p, s, xbrl.NewDocument(symbols))
	if err := m.run(); err != nil {
		return nil, err
	}
	return m.doc, nil
}

func (p *Parser) ParseFile(path string) (*xbrl.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", xbrl.ErrIO, err)
	}
	return p.Parse(data)
}

func (p *Parser) ParseReader(r io.Reader) (*xbrl.Document, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %w", xbrl.ErrIO, err)
	}
	return p.Parse(buf.Bytes())
}

// ArenaStats reports the allocation counters of the parser's arena after
// the most recent parse.
func (p *Parser) ArenaStats() arena.Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.arena.Stats()
}
