package parser

import (
	"strings"

	"github.com/dhamidi/crabrl/xbrl"
)

type footnoteArc struct {
	from string
	to   string
}

// parseFootnoteLink collects the footnotes, locators and arcs of one
// footnoteLink, then attaches fact references to footnotes. Arcs whose
// target is not a footnote of this link are dropped.
func (m *machine) parseFootnoteLink(el element) error {
	var (
		notes   []*xbrl.Footnote
		byLabel = make(map[string]*xbrl.Footnote)
		locs    = make(map[string]string)
		arcs    []footnoteArc
	)
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return err
		}
		if done {
			break
		}
		switch {
		case localNameIs(child.name, "footnote"):
			fn := &xbrl.Footnote{}
			if v, ok := child.localAttr("label"); ok {
				fn.ID = m.str(v)
			} else if v, ok := child.attr("id"); ok {
				fn.ID = m.str(v)
			}
			if v, ok := child.localAttr("role"); ok {
				fn.Role = m.canonical(v)
			}
			if v, ok := child.localAttr("lang"); ok {
				fn.Lang = m.canonical(v)
			}
			content, _, err := m.readText(child)
			if err != nil {
				return err
			}
			fn.Content = m.a.AllocString(strings.TrimSpace(content))
			notes = append(notes, fn)
			if _, dup := byLabel[fn.ID]; !dup {
				byLabel[fn.ID] = fn
			}
		case localNameIs(child.name, "loc"):
			label, _ := child.localAttr("label")
			href, _ := child.localAttr("href")
			if len(label) > 0 {
				target := string(href)
				if i := strings.IndexByte(target, '#'); i >= 0 {
					target = target[i+1:]
				}
				locs[string(label)] = target
			}
			if err := m.skipElement(child); err != nil {
				return err
			}
		case localNameIs(child.name, "footnoteArc"):
			from, _ := child.localAttr("from")
			to, _ := child.localAttr("to")
			arcs = append(arcs, footnoteArc{from: string(from), to: string(to)})
			if err := m.skipElement(child); err != nil {
				return err
			}
		default:
			if err := m.skipElement(child); err != nil {
				return err
			}
		}
	}

	for _, arc := range arcs {
		fn, ok := byLabel[arc.to]
		if !ok {
			m.log.Debugf("dropping footnote arc %s -> %s", arc.from, arc.to)
			continue
		}
		ref := arc.from
		if target, ok := locs[arc.from]; ok {
			ref = target
		}
		fn.FactRefs = append(fn.FactRefs, m.internText(ref))
	}
	for _, fn := range notes {
		m.doc.Footnotes = append(m.doc.Footnotes, *fn)
	}
	return nil
}
