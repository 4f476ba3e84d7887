package validator

import (
	"math"
	"strings"

	"github.com/dhamidi/crabrl/xbrl"
)

// maxMonetary is the largest plausible monetary amount in a filing.
const maxMonetary = 10_000_000_000_000.0

var currentPeriodMarkers = []string{"CurrentYear", "CurrentPeriod", "DocumentPeriodEndDate"}

func secRules(c *collector, doc *xbrl.Document) {
	var hasCurrent, hasCIK, hasDEI bool

	periodEnd := ""
	for i := 0; i < doc.Facts.Len(); i++ {
		concept := doc.Concept(i)
		if strings.HasPrefix(concept, "dei:") || strings.Contains(concept, "DocumentType") || strings.Contains(concept, "EntityRegistrantName") {
			hasDEI = true
		}
		if localPart(concept) == "DocumentPeriodEndDate" && periodEnd == "" {
			periodEnd = strings.TrimSpace(doc.Facts.Values[i].String())
		}
	}

	for i := range doc.Contexts {
		ctx := &doc.Contexts[i]
		for _, m := range currentPeriodMarkers {
			if strings.Contains(ctx.ID, m) {
				hasCurrent = true
			}
		}
		if periodEnd != "" && ctx.Period.EndDate() == periodEnd {
			hasCurrent = true
		}
		if strings.Contains(ctx.Entity.Scheme, "sec.gov/CIK") {
			hasCIK = true
			if !isCIK(ctx.Entity.Identifier) {
				c.errorf(InvalidDataType, ctx.ID, -1, "context %s: CIK %q is not a 10-digit number", ctx.ID, ctx.Entity.Identifier)
			}
		}
		if seg := ctx.Entity.Segment; seg != nil {
			for _, m := range seg.ExplicitMembers {
				if m.Dimension == "" || m.Member == "" {
					c.errorf(InvalidDataType, ctx.ID, -1, "context %s: incomplete segment member %s=%s", ctx.ID, m.Dimension, m.Member)
				}
			}
		}
	}

	if !hasCurrent {
		c.errorf(MissingRequiredElement, "", -1, "no context covers the current reporting period")
	}
	if !hasCIK {
		c.errorf(MissingRequiredElement, "", -1, "no context identifies the entity by SEC CIK")
	}
	if !hasDEI {
		c.errorf(MissingRequiredElement, "", -1, "document and entity information (dei) facts are missing")
	}

	for i := 0; i < doc.Facts.Len(); i++ {
		v := doc.Facts.Values[i]
		if v.Kind != xbrl.KindDecimal && v.Kind != xbrl.KindInteger {
			continue
		}
		u, ok := doc.Unit(i)
		if !ok || !isUSD(u) {
			continue
		}
		f, _ := v.Float()
		switch {
		case math.IsNaN(f) || math.IsInf(f, 0):
			c.errorf(InvalidDataType, doc.Concept(i), i, "fact %d (%s) is not a finite monetary amount", i, doc.Concept(i))
		case math.Abs(f) > maxMonetary:
			c.errorf(InvalidDataType, doc.Concept(i), i, "fact %d (%s) reports an implausible amount %s", i, doc.Concept(i), formatFloat(f))
		}
	}
}

func isCIK(s string) bool {
	if len(s) != 10 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isUSD(u *xbrl.Unit) bool {
	if u.Type.Kind != xbrl.UnitSimple {
		return false
	}
	for _, m := range u.Type.Measures {
		if strings.EqualFold(m.Name, "USD") {
			return true
		}
	}
	return false
}

var comparativeMarkers = []string{"PriorYear", "Comparative"}

// statement lists the concept name fragments that indicate each primary
// statement is present.
var statements = []struct {
	name      string
	fragments []string
}{
	{"Statement of Financial Position", []string{"financialposition", "balancesheet", "assets", "liabilities"}},
	{"Statement of Comprehensive Income", []string{"comprehensiveincome", "profitorloss", "income", "revenue"}},
	{"Statement of Cash Flows", []string{"cashflow"}},
	{"Statement of Changes in Equity", []string{"changesinequity", "equity"}},
}

func ifrsRules(c *collector, doc *xbrl.Document) {
	var hasReporting, hasComparative, hasEntity bool
	ends := make(map[string]bool)
	for i := range doc.Contexts {
		ctx := &doc.Contexts[i]
		switch ctx.Period.Kind {
		case xbrl.PeriodDuration:
			hasReporting = true
			if strings.Contains(ctx.Period.Start, "PY") {
				hasComparative = true
			}
		case xbrl.PeriodInstant:
			if ctx.Period.Instant != "" {
				hasReporting = true
			}
		}
		if e := ctx.Period.EndDate(); e != "" {
			ends[e] = true
		}
		for _, m := range comparativeMarkers {
			if strings.Contains(ctx.ID, m) {
				hasComparative = true
			}
		}
		if ctx.Entity.Identifier != "" {
			hasEntity = true
		}
		if seg := ctx.Entity.Segment; seg != nil {
			for _, m := range seg.ExplicitMembers {
				if !strings.Contains(m.Dimension, ":") {
					c.warnf(InvalidDataType, ctx.ID, -1, "context %s: dimension %q is not a qualified name", ctx.ID, m.Dimension)
				}
				if strings.Contains(m.Dimension, "ifrs") && m.Member == "" {
					c.errorf(InvalidDataType, ctx.ID, -1, "context %s: dimension %s has no member", ctx.ID, m.Dimension)
				}
			}
			for _, m := range seg.TypedMembers {
				if strings.Contains(m.Dimension, "ifrs") && m.Value == "" {
					c.errorf(InvalidDataType, ctx.ID, -1, "context %s: typed dimension %s is empty", ctx.ID, m.Dimension)
				}
			}
		}
		if sc := ctx.Scenario; sc != nil {
			for _, m := range sc.ExplicitMembers {
				if strings.Contains(m.Dimension, "ifrs") && m.Member == "" {
					c.errorf(InvalidDataType, ctx.ID, -1, "context %s: scenario dimension %s has no member", ctx.ID, m.Dimension)
				}
			}
		}
	}
	// two distinct period ends mean prior-period figures are reported
	if len(ends) > 1 {
		hasComparative = true
	}

	if !hasReporting {
		c.errorf(MissingRequiredElement, "", -1, "no reporting period context")
	}
	if !hasComparative {
		c.errorf(MissingRequiredElement, "", -1, "no comparative period information")
	}
	if !hasEntity {
		c.errorf(MissingRequiredElement, "", -1, "no context identifies the entity")
	}

	concepts := doc.Concepts()
	for _, st := range statements {
		found := false
		for _, concept := range concepts {
			lower := strings.ToLower(localPart(concept))
			for _, frag := range st.fragments {
				if strings.Contains(lower, frag) {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			c.errorf(MissingRequiredElement, "", -1, "%s is missing", st.name)
		}
	}
}

func localPart(concept string) string {
	if i := strings.LastIndexByte(concept, ':'); i >= 0 {
		return concept[i+1:]
	}
	return concept
}
