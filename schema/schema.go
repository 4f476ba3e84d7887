// Package schema reads taxonomy schemas far enough to classify concepts:
// which are tuples, which data type an item carries, and where the
// taxonomy's linkbases live.
package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"github.com/dhamidi/crabrl/xbrl"
)

var (
	rootExpr        = xpath.MustCompile("/*[local-name()='schema']")
	elementExpr     = xpath.MustCompile("/*[local-name()='schema']/*[local-name()='element']")
	typeExpr        = xpath.MustCompile("/*[local-name()='schema']/*[local-name()='complexType' or local-name()='simpleType']")
	derivationExpr  = xpath.MustCompile(".//*[local-name()='restriction' or local-name()='extension']")
	importExpr      = xpath.MustCompile("/*[local-name()='schema']/*[local-name()='import' or local-name()='include']")
	linkbaseRefExpr = xpath.MustCompile("//*[local-name()='linkbaseRef']")
	roleTypeExpr    = xpath.MustCompile("//*[local-name()='roleType']")
	definitionExpr  = xpath.MustCompile("./*[local-name()='definition']")
)

// Element is a global element declaration.
type Element struct {
	Name              string
	ID                string
	Type              string
	SubstitutionGroup string
	PeriodType        string
	Balance           string
	Abstract          bool
	Nillable          bool
}

// IsTuple reports whether the element substitutes for xbrli:tuple.
func (e *Element) IsTuple() bool { return localPart(e.SubstitutionGroup) == "tuple" }

func (e *Element) IsItem() bool { return localPart(e.SubstitutionGroup) == "item" }

type Import struct {
	Namespace string
	Location  string
}

type RoleType struct {
	URI        string
	ID         string
	Definition string
}

type Schema struct {
	Location        string
	TargetNamespace string
	Elements        map[string]*Element
	// Bases maps a locally declared type name to the QName it derives from.
	Bases        map[string]string
	Imports      []Import
	LinkbaseRefs []string
	RoleTypes    []RoleType
}

func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w: %w", xbrl.ErrIO, err)
	}
	s, err := ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.Location = path
	return s, nil
}

func Parse(r io.Reader) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w: %w", xbrl.ErrIO, err)
	}
	return ParseBytes(data)
}

func ParseBytes(data []byte) (*Schema, error) {
	doc, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse schema: %w: %w", xbrl.ErrParse, err)
	}
	root := xmlquery.QuerySelector(doc, rootExpr)
	if root == nil {
		return nil, fmt.Errorf("document is not an XML schema: %w", xbrl.ErrParse)
	}
	s := &Schema{
		TargetNamespace: root.SelectAttr("targetNamespace"),
		Elements:        make(map[string]*Element),
		Bases:           make(map[string]string),
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, elementExpr) {
		el := &Element{
			Name:              n.SelectAttr("name"),
			ID:                n.SelectAttr("id"),
			Type:              n.SelectAttr("type"),
			SubstitutionGroup: n.SelectAttr("substitutionGroup"),
			PeriodType:        attrLocal(n, "periodType"),
			Balance:           attrLocal(n, "balance"),
			Abstract:          n.SelectAttr("abstract") == "true",
			Nillable:          n.SelectAttr("nillable") == "true",
		}
		if el.Name == "" {
			continue
		}
		if _, dup := s.Elements[el.Name]; !dup {
			s.Elements[el.Name] = el
		}
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, typeExpr) {
		name := n.SelectAttr("name")
		if name == "" {
			continue
		}
		if d := xmlquery.QuerySelector(n, derivationExpr); d != nil {
			s.Bases[name] = d.SelectAttr("base")
		}
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, importExpr) {
		s.Imports = append(s.Imports, Import{
			Namespace: n.SelectAttr("namespace"),
			Location:  n.SelectAttr("schemaLocation"),
		})
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, linkbaseRefExpr) {
		if href := attrLocal(n, "href"); href != "" {
			s.LinkbaseRefs = append(s.LinkbaseRefs, href)
		}
	}
	for _, n := range xmlquery.QuerySelectorAll(doc, roleTypeExpr) {
		rt := RoleType{URI: n.SelectAttr("roleURI"), ID: n.SelectAttr("id")}
		if d := xmlquery.QuerySelector(n, definitionExpr); d != nil {
			rt.Definition = strings.TrimSpace(d.InnerText())
		}
		s.RoleTypes = append(s.RoleTypes, rt)
	}
	return s, nil
}

// attrLocal returns the value of the first attribute with the given local
// name, whatever its prefix.
func attrLocal(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func localPart(qname string) string {
	if i := strings.LastIndexByte(qname, ':'); i >= 0 {
		return qname[i+1:]
	}
	return qname
}
