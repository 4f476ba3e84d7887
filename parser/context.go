package parser

import (
	"strings"

	"github.com/dhamidi/crabrl/xbrl"
)

func (m *machine) parseContext(el element) error {
	id, ok := el.attr("id")
	if !ok {
		return m.syntaxAt(el.offset, "context without id attribute")
	}
	ctx := xbrl.Context{ID: m.canonical(id)}
	var hasEntity, hasPeriod bool
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return err
		}
		if done {
			break
		}
		switch {
		case localNameIs(child.name, "entity"):
			if hasEntity, err = m.parseEntity(child, &ctx.Entity); err != nil {
				return err
			}
		case localNameIs(child.name, "period"):
			if hasPeriod, err = m.parsePeriod(child, &ctx.Period); err != nil {
				return err
			}
		case localNameIs(child.name, "scenario"):
			q, err := m.parseQualifiers(child)
			if err != nil {
				return err
			}
			ctx.Scenario = q
		default:
			if err := m.skipElement(child); err != nil {
				return err
			}
		}
	}
	if !hasEntity || !hasPeriod {
		m.log.Debugf("dropping context %s: entity=%t period=%t", ctx.ID, hasEntity, hasPeriod)
		return nil
	}
	m.commitContext(ctx)
	return nil
}

func (m *machine) parseEntity(el element, e *xbrl.Entity) (bool, error) {
	found := false
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return false, err
		}
		if done {
			return found, nil
		}
		switch {
		case localNameIs(child.name, "identifier"):
			if scheme, ok := child.attr("scheme"); ok {
				e.Scheme = m.canonical(scheme)
			}
			s, _, err := m.readText(child)
			if err != nil {
				return false, err
			}
			e.Identifier = m.internText(strings.TrimSpace(s))
			found = true
		case localNameIs(child.name, "segment"):
			q, err := m.parseQualifiers(child)
			if err != nil {
				return false, err
			}
			e.Segment = q
		default:
			if err := m.skipElement(child); err != nil {
				return false, err
			}
		}
	}
}

// parsePeriod fills p from instant, startDate/endDate or forever children,
// preferring them in that order.
func (m *machine) parsePeriod(el element, p *xbrl.Period) (bool, error) {
	var instant, start, end string
	var hasInstant, hasStart, hasEnd, forever bool
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return false, err
		}
		if done {
			break
		}
		switch {
		case localNameIs(child.name, "instant"):
			if instant, err = m.readTrimmed(child); err != nil {
				return false, err
			}
			hasInstant = true
		case localNameIs(child.name, "startDate"):
			if start, err = m.readTrimmed(child); err != nil {
				return false, err
			}
			hasStart = true
		case localNameIs(child.name, "endDate"):
			if end, err = m.readTrimmed(child); err != nil {
				return false, err
			}
			hasEnd = true
		case localNameIs(child.name, "forever"):
			forever = true
			if err := m.skipElement(child); err != nil {
				return false, err
			}
		default:
			if err := m.skipElement(child); err != nil {
				return false, err
			}
		}
	}
	switch {
	case hasInstant:
		*p = xbrl.Period{Kind: xbrl.PeriodInstant, Instant: instant}
	case hasStart && hasEnd:
		*p = xbrl.Period{Kind: xbrl.PeriodDuration, Start: start, End: end}
	case forever:
		*p = xbrl.Period{Kind: xbrl.PeriodForever}
	default:
		return false, nil
	}
	return true, nil
}

// readTrimmed reads the text of el with surrounding whitespace removed and
// returns an interned copy.
func (m *machine) readTrimmed(el element) (string, error) {
	s, _, err := m.readText(el)
	if err != nil {
		return "", err
	}
	return m.internText(strings.TrimSpace(s)), nil
}

// parseQualifiers reads the explicit and typed members of a segment or
// scenario.
func (m *machine) parseQualifiers(el element) (*xbrl.Qualifiers, error) {
	q := &xbrl.Qualifiers{}
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return nil, err
		}
		if done {
			return q, nil
		}
		switch {
		case localNameIs(child.name, "explicitMember"):
			dim, _ := child.attr("dimension")
			dimension := m.canonical(dim)
			member, err := m.readTrimmed(child)
			if err != nil {
				return nil, err
			}
			q.ExplicitMembers = append(q.ExplicitMembers, xbrl.ExplicitMember{Dimension: dimension, Member: member})
		case localNameIs(child.name, "typedMember"):
			dim, _ := child.attr("dimension")
			dimension := m.canonical(dim)
			var value string
			if !child.selfClosing {
				s, err := m.readMarkup(child)
				if err != nil {
					return nil, err
				}
				value = m.a.AllocString(strings.TrimSpace(s))
			}
			q.TypedMembers = append(q.TypedMembers, xbrl.TypedMember{Dimension: dimension, Value: value})
		default:
			if err := m.skipElement(child); err != nil {
				return nil, err
			}
		}
	}
}

func (m *machine) parseUnit(el element) error {
	id, ok := el.attr("id")
	if !ok {
		return m.syntaxAt(el.offset, "unit without id attribute")
	}
	u := xbrl.Unit{ID: m.canonical(id)}
	shape := false
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return err
		}
		if done {
			break
		}
		switch {
		case localNameIs(child.name, "measure"):
			ms, err := m.readMeasure(child)
			if err != nil {
				return err
			}
			if !shape || u.Type.Kind == xbrl.UnitSimple {
				u.Type.Kind = xbrl.UnitSimple
				u.Type.Measures = append(u.Type.Measures, ms)
				shape = true
			}
		case localNameIs(child.name, "divide"):
			num, den, err := m.parseDivide(child)
			if err != nil {
				return err
			}
			if !shape {
				u.Type = xbrl.UnitType{Kind: xbrl.UnitDivide, Numerator: num, Denominator: den}
				shape = true
			}
		default:
			if err := m.skipElement(child); err != nil {
				return err
			}
		}
	}
	if !shape {
		m.log.Debugf("dropping unit %s without measures", u.ID)
		return nil
	}
	m.commitUnit(u)
	return nil
}

func (m *machine) readMeasure(el element) (xbrl.Measure, error) {
	s, _, err := m.readText(el)
	if err != nil {
		return xbrl.Measure{}, err
	}
	return xbrl.ParseMeasure(m.internText(strings.TrimSpace(s))), nil
}

func (m *machine) parseDivide(el element) (num, den []xbrl.Measure, err error) {
	for {
		child, done, err := m.nextChild(el)
		if err != nil {
			return nil, nil, err
		}
		if done {
			return num, den, nil
		}
		var target *[]xbrl.Measure
		switch {
		case localNameIs(child.name, "unitNumerator"):
			target = &num
		case localNameIs(child.name, "unitDenominator"):
			target = &den
		default:
			if err := m.skipElement(child); err != nil {
				return nil, nil, err
			}
			continue
		}
		for {
			mc, done, err := m.nextChild(child)
			if err != nil {
				return nil, nil, err
			}
			if done {
				break
			}
			if !localNameIs(mc.name, "measure") {
				if err := m.skipElement(mc); err != nil {
					return nil, nil, err
				}
				continue
			}
			ms, err := m.readMeasure(mc)
			if err != nil {
				return nil, nil, err
			}
			*target = append(*target, ms)
		}
	}
}
