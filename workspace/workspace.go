// Package workspace keeps a set of parsed filings under a root directory
// up to date and serves their diagnostics over the Language Server
// Protocol.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
	"github.com/tliron/commonlog"
)

type Workspace struct {
	mu            sync.RWMutex
	rootDir       string
	files         map[string]*Filing
	cache         *docCache
	parserOpts    []parser.Option
	validatorOpts []validator.Option
	log           commonlog.Logger
}

// Filing is one instance document known to the workspace. Doc is nil when
// the content failed to parse; ParseErr holds the reason.
type Filing struct {
	Path     string
	Content  []byte
	Hash     string
	Doc      *xbrl.Document
	ParseErr error
	Result   *validator.Result
}

type Option func(*Workspace)

func WithParserOptions(opts ...parser.Option) Option {
	return func(w *Workspace) { w.parserOpts = append(w.parserOpts, opts...) }
}

func WithValidatorOptions(opts ...validator.Option) Option {
	return func(w *Workspace) { w.validatorOpts = append(w.validatorOpts, opts...) }
}

// WithCacheSize bounds the number of parse results kept by content hash.
func WithCacheSize(n int) Option {
	return func(w *Workspace) { w.cache = newDocCache(n) }
}

func New(rootDir string, opts ...Option) *Workspace {
	w := &Workspace{
		rootDir: rootDir,
		files:   make(map[string]*Filing),
		log:     commonlog.GetLogger("crabrl.workspace"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.cache == nil {
		w.cache = newDocCache(DefaultCacheSize)
	}
	return w
}

func (w *Workspace) RootDir() string {
	return w.rootDir
}

// linkbaseSuffixes name the usual linkbase files that sit next to an
// instance and are not instances themselves.
var linkbaseSuffixes = []string{"_cal.xml", "_def.xml", "_lab.xml", "_pre.xml", "_ref.xml"}

// IsInstancePath reports whether path looks like an instance document.
func IsInstancePath(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	switch filepath.Ext(name) {
	case ".xbrl":
		return true
	case ".xml":
		for _, s := range linkbaseSuffixes {
			if strings.HasSuffix(name, s) {
				return false
			}
		}
		return true
	}
	return false
}

// ScanAll parses every instance document below the root directory.
// Hidden directories are skipped.
func (w *Workspace) ScanAll() error {
	return filepath.Walk(w.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != w.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if IsInstancePath(path) {
			if err := w.ScanFile(path); err != nil {
				w.log.Warningf("scan %s: %s", path, err)
			}
		}
		return nil
	})
}

func (w *Workspace) ScanFile(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: %w", xbrl.ErrIO, err)
	}
	w.UpdateFile(path, content)
	return nil
}

// UpdateFile parses and validates content as the new state of path and
// returns the resulting filing. A parse failure is recorded on the filing,
// not returned.
func (w *Workspace) UpdateFile(path string, content []byte) *Filing {
	hash := contentHash(content)
	p, ok := w.cache.get(hash)
	if !ok {
		p = w.parse(path, content)
		w.cache.put(hash, p)
	}
	f := &Filing{
		Path:     path,
		Content:  content,
		Hash:     hash,
		Doc:      p.doc,
		ParseErr: p.err,
		Result:   p.result,
	}

	w.mu.Lock()
	w.files[path] = f
	w.mu.Unlock()
	return f
}

func (w *Workspace) parse(path string, content []byte) *parsed {
	doc, err := parser.New(w.parserOpts...).Parse(content)
	if err != nil {
		w.log.Debugf("parse %s: %s", path, err)
		return &parsed{err: err}
	}
	res := validator.Validate(doc, w.validatorOpts...)
	w.log.Debugf("parsed %s: %d facts, %d errors, %d warnings", path, doc.Facts.Len(), len(res.Errors), len(res.Warnings))
	return &parsed{doc: doc, result: res}
}

func (w *Workspace) RemoveFile(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.files, path)
}

func (w *Workspace) GetFile(path string) *Filing {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[path]
}

// Paths returns the known filing paths in sorted order.
func (w *Workspace) Paths() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	paths := make([]string, 0, len(w.files))
	for p := range w.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (w *Workspace) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.files)
}

func (w *Workspace) CacheStats() CacheStats {
	return w.cache.stats()
}
