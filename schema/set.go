package schema

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("crabrl.schema")

// DataType is the broad value category of an item concept.
type DataType int

const (
	TypeUnknown DataType = iota
	TypeNumeric
	TypeBoolean
	TypeDate
	TypeString
)

func (t DataType) String() string {
	switch t {
	case TypeNumeric:
		return "numeric"
	case TypeBoolean:
		return "boolean"
	case TypeDate:
		return "date"
	case TypeString:
		return "string"
	}
	return "unknown"
}

var builtinTypes = map[string]DataType{
	"monetaryItemType":           TypeNumeric,
	"decimalItemType":            TypeNumeric,
	"floatItemType":              TypeNumeric,
	"doubleItemType":             TypeNumeric,
	"sharesItemType":             TypeNumeric,
	"pureItemType":               TypeNumeric,
	"perShareItemType":           TypeNumeric,
	"percentItemType":            TypeNumeric,
	"areaItemType":               TypeNumeric,
	"volumeItemType":             TypeNumeric,
	"fractionItemType":           TypeNumeric,
	"integerItemType":            TypeNumeric,
	"nonNegativeIntegerItemType": TypeNumeric,
	"positiveIntegerItemType":    TypeNumeric,
	"nonPositiveIntegerItemType": TypeNumeric,
	"negativeIntegerItemType":    TypeNumeric,
	"longItemType":               TypeNumeric,
	"intItemType":                TypeNumeric,
	"shortItemType":              TypeNumeric,
	"booleanItemType":            TypeBoolean,
	"dateItemType":               TypeDate,
	"dateTimeItemType":           TypeDate,
	"stringItemType":             TypeString,
	"normalizedStringItemType":   TypeString,
	"tokenItemType":              TypeString,
	"anyURIItemType":             TypeString,
	"QNameItemType":              TypeString,

	"decimal": TypeNumeric,
	"integer": TypeNumeric,
	"double":  TypeNumeric,
	"float":   TypeNumeric,
	"boolean": TypeBoolean,
	"date":    TypeDate,
	"string":  TypeString,
	"token":   TypeString,
}

// Set is a collection of schemas indexed by target namespace. It is safe
// for concurrent use.
type Set struct {
	mu          sync.RWMutex
	byLocation  map[string]*Schema
	byNamespace map[string][]*Schema
	order       []*Schema
}

func NewSet() *Set {
	return &Set{
		byLocation:  make(map[string]*Schema),
		byNamespace: make(map[string][]*Schema),
	}
}

// LoadFile parses the schema at path and every schema it imports from the
// local filesystem. Remote imports are skipped. Schemas already in the set
// are not read again.
func (s *Set) LoadFile(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	s.mu.RLock()
	_, seen := s.byLocation[abs]
	s.mu.RUnlock()
	if seen {
		return nil
	}
	sc, err := ParseFile(abs)
	if err != nil {
		return err
	}
	s.Add(sc)
	for _, imp := range sc.Imports {
		if imp.Location == "" || isRemote(imp.Location) {
			log.Debugf("skipping import of %s", imp.Location)
			continue
		}
		if err := s.LoadFile(filepath.Join(filepath.Dir(abs), imp.Location)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) Add(sc *Schema) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sc.Location != "" {
		if _, ok := s.byLocation[sc.Location]; ok {
			return
		}
		s.byLocation[sc.Location] = sc
	}
	s.byNamespace[sc.TargetNamespace] = append(s.byNamespace[sc.TargetNamespace], sc)
	s.order = append(s.order, sc)
}

func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Set) Lookup(namespace, local string) (*Element, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.byNamespace[namespace] {
		if el, ok := sc.Elements[local]; ok {
			return el, true
		}
	}
	return nil, false
}

// IsTuple reports whether the concept is declared as a tuple. known is
// false for concepts the set does not declare.
func (s *Set) IsTuple(namespace, local string) (tuple, known bool) {
	el, ok := s.Lookup(namespace, local)
	if !ok {
		return false, false
	}
	return el.IsTuple(), true
}

// DataType follows the concept's type through local derivations until it
// reaches a built-in XBRL or XML Schema type.
func (s *Set) DataType(namespace, local string) DataType {
	el, ok := s.Lookup(namespace, local)
	if !ok || el.Type == "" {
		return TypeUnknown
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	typ := el.Type
	for range 16 {
		name := localPart(typ)
		if dt, ok := builtinTypes[name]; ok {
			return dt
		}
		base := s.baseOf(name)
		if base == "" {
			return TypeUnknown
		}
		typ = base
	}
	return TypeUnknown
}

func (s *Set) baseOf(name string) string {
	for _, sc := range s.order {
		if base, ok := sc.Bases[name]; ok {
			return base
		}
	}
	return ""
}

// LinkbaseFiles returns the local paths of the linkbases referenced by the
// loaded schemas.
func (s *Set) LinkbaseFiles() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, sc := range s.order {
		for _, href := range sc.LinkbaseRefs {
			if isRemote(href) || sc.Location == "" {
				continue
			}
			if i := strings.IndexByte(href, '#'); i >= 0 {
				href = href[:i]
			}
			out = append(out, filepath.Join(filepath.Dir(sc.Location), href))
		}
	}
	return out
}

// RoleDefinition returns the human-readable definition of a role URI.
func (s *Set) RoleDefinition(uri string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.order {
		for _, rt := range sc.RoleTypes {
			if rt.URI == uri {
				return rt.Definition, true
			}
		}
	}
	return "", false
}

func isRemote(loc string) bool {
	return strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://")
}
