package linkbase

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/dhamidi/crabrl/xbrl"
)

// LoadFile reads one linkbase file and merges its relationships.
func (p *Processor) LoadFile(path string) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return fmt.Errorf("read linkbase %s: %w: %w", path, xbrl.ErrIO, err)
	}
	return p.load(doc)
}

func (p *Processor) LoadBytes(data []byte) error {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return fmt.Errorf("read linkbase: %w: %w", xbrl.ErrParse, err)
	}
	return p.load(doc)
}

func (p *Processor) Load(r io.Reader) error {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return fmt.Errorf("read linkbase: %w: %w", xbrl.ErrParse, err)
	}
	return p.load(doc)
}

func (p *Processor) load(doc *etree.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("linkbase has no root element: %w", xbrl.ErrParse)
	}
	p.walk(root)
	p.rebuild()
	return nil
}

// walk finds extended links at any depth; linkbases may be embedded in a
// schema's appinfo.
func (p *Processor) walk(el *etree.Element) {
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "presentationLink", "calculationLink", "definitionLink", "labelLink", "referenceLink":
			p.readLink(child)
		default:
			p.walk(child)
		}
	}
}

// extendedLink holds the locators and resources of one extended link.
type extendedLink struct {
	role       string
	locs       map[string][]string
	labels     map[string][]xbrl.Label
	references map[string][]xbrl.Reference
}

func (p *Processor) readLink(el *etree.Element) {
	link := extendedLink{
		role:       el.SelectAttrValue("xlink:role", ""),
		locs:       make(map[string][]string),
		labels:     make(map[string][]xbrl.Label),
		references: make(map[string][]xbrl.Reference),
	}
	var arcs []*etree.Element
	for _, child := range el.ChildElements() {
		label := child.SelectAttrValue("xlink:label", "")
		switch child.Tag {
		case "loc":
			concept := ConceptFromHref(child.SelectAttrValue("xlink:href", ""))
			link.locs[label] = append(link.locs[label], concept)
		case "label":
			link.labels[label] = append(link.labels[label], xbrl.Label{
				Role: child.SelectAttrValue("xlink:role", RoleLabel),
				Lang: CanonicalLang(child.SelectAttrValue("xml:lang", "")),
				Text: strings.TrimSpace(textContent(child)),
			})
		case "reference":
			ref := xbrl.Reference{Role: child.SelectAttrValue("xlink:role", "")}
			for _, part := range child.ChildElements() {
				ref.Parts = append(ref.Parts, xbrl.ReferencePart{
					Name:  part.Tag,
					Value: strings.TrimSpace(part.Text()),
				})
			}
			link.references[label] = append(link.references[label], ref)
		default:
			if strings.HasSuffix(child.Tag, "Arc") {
				arcs = append(arcs, child)
			}
		}
	}

	switch el.Tag {
	case "presentationLink":
		pl := xbrl.PresentationLink{Role: link.role}
		for _, a := range arcs {
			base := readArc(a)
			for _, from := range link.locs[base.From] {
				for _, to := range link.locs[base.To] {
					arc := xbrl.PresentationArc{Arc: base, PreferredLabel: a.SelectAttrValue("preferredLabel", "")}
					arc.From, arc.To = from, to
					pl.Arcs = append(pl.Arcs, arc)
				}
			}
		}
		p.presLinks = append(p.presLinks, pl)
	case "calculationLink":
		cl := xbrl.CalculationLink{Role: link.role}
		for _, a := range arcs {
			base := readArc(a)
			weight := parseFloat(a.SelectAttrValue("weight", ""), 1)
			for _, from := range link.locs[base.From] {
				for _, to := range link.locs[base.To] {
					arc := xbrl.CalculationArc{Arc: base, Weight: weight}
					arc.From, arc.To = from, to
					cl.Arcs = append(cl.Arcs, arc)
				}
			}
		}
		p.calcLinks = append(p.calcLinks, cl)
	case "definitionLink":
		dl := xbrl.DefinitionLink{Role: link.role}
		for _, a := range arcs {
			base := readArc(a)
			arcrole := a.SelectAttrValue("xlink:arcrole", "")
			for _, from := range link.locs[base.From] {
				for _, to := range link.locs[base.To] {
					arc := xbrl.DefinitionArc{Arc: base, Arcrole: arcrole}
					arc.From, arc.To = from, to
					dl.Arcs = append(dl.Arcs, arc)
				}
			}
		}
		p.defLinks = append(p.defLinks, dl)
	case "labelLink":
		ll := xbrl.LabelLink{Role: link.role}
		for _, a := range arcs {
			base := readArc(a)
			if base.Prohibited() {
				continue
			}
			for _, concept := range link.locs[base.From] {
				for _, l := range link.labels[base.To] {
					l.Concept = concept
					ll.Labels = append(ll.Labels, l)
				}
			}
		}
		p.labelLinks = append(p.labelLinks, ll)
	case "referenceLink":
		rl := xbrl.ReferenceLink{Role: link.role}
		for _, a := range arcs {
			base := readArc(a)
			if base.Prohibited() {
				continue
			}
			for _, concept := range link.locs[base.From] {
				for _, r := range link.references[base.To] {
					r.Concept = concept
					rl.References = append(rl.References, r)
				}
			}
		}
		p.refLinks = append(p.refLinks, rl)
	}
}

// readArc reads the attributes common to all arcs. From and To are still
// link labels.
func readArc(a *etree.Element) xbrl.Arc {
	return xbrl.Arc{
		From:     a.SelectAttrValue("xlink:from", ""),
		To:       a.SelectAttrValue("xlink:to", ""),
		Order:    parseFloat(a.SelectAttrValue("order", ""), 1),
		Priority: parseInt(a.SelectAttrValue("priority", ""), 0),
		Use:      a.SelectAttrValue("use", "optional"),
	}
}

func parseFloat(s string, def float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return def
	}
	return f
}

func parseInt(s string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return def
	}
	return n
}

// ConceptFromHref turns a locator href such as
// "us-gaap-2023.xsd#us-gaap_Assets" into "us-gaap:Assets".
func ConceptFromHref(href string) string {
	frag := href
	if i := strings.LastIndexByte(href, '#'); i >= 0 {
		frag = href[i+1:]
	}
	if i := strings.IndexByte(frag, '_'); i >= 0 {
		return frag[:i] + ":" + frag[i+1:]
	}
	return frag
}

func textContent(el *etree.Element) string {
	var sb strings.Builder
	for _, node := range el.Child {
		switch t := node.(type) {
		case *etree.CharData:
			sb.WriteString(t.Data)
		case *etree.Element:
			sb.WriteString(textContent(t))
		}
	}
	return sb.String()
}
