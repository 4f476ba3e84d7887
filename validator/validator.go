// Package validator checks a parsed document for broken cross references,
// inconsistent structure and profile-specific filing requirements. It never
// modifies the document.
package validator

import (
	"fmt"
	"strings"
	"time"

	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/schema"
	"github.com/dhamidi/crabrl/xbrl"
)

type Code string

const (
	InvalidContextRef        Code = "InvalidContextRef"
	InvalidUnitRef           Code = "InvalidUnitRef"
	CalculationInconsistency Code = "CalculationInconsistency"
	InvalidDataType          Code = "InvalidDataType"
	MissingRequiredElement   Code = "MissingRequiredElement"
	DuplicateID              Code = "DuplicateId"
	RuleViolation            Code = "RuleViolation"
	InvalidFootnoteRef       Code = "InvalidFootnoteRef"
)

type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Issue is one finding. Ref names the context, unit, fact or concept the
// finding is about; Fact is the fact row, or -1.
type Issue struct {
	Code     Code
	Severity Severity
	Ref      string
	Fact     int
	Message  string
}

func (i Issue) String() string {
	return string(i.Code) + ": " + i.Message
}

func (i Issue) Error() string { return i.String() }

func (i Issue) Unwrap() error { return xbrl.ErrValidation }

type Stats struct {
	Facts      int
	TupleFacts int
	Contexts   int
	Units      int
	Footnotes  int
	Duration   time.Duration
}

type Result struct {
	Valid    bool
	Errors   []Issue
	Warnings []Issue
	Stats    Stats
}

// Err returns nil for a valid result and otherwise an error wrapping
// xbrl.ErrValidation.
func (r *Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %d errors, first: %s", xbrl.ErrValidation, len(r.Errors), r.Errors[0])
}

type Profile int

const (
	Generic Profile = iota
	SECEdgar
	IFRS
	USGAAP
)

func (p Profile) String() string {
	switch p {
	case SECEdgar:
		return "sec"
	case IFRS:
		return "ifrs"
	case USGAAP:
		return "us-gaap"
	}
	return "generic"
}

// ParseProfile accepts the names printed by Profile.String and a few
// common spellings.
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "generic":
		return Generic, nil
	case "sec", "sec-edgar", "edgar":
		return SECEdgar, nil
	case "ifrs":
		return IFRS, nil
	case "us-gaap", "usgaap", "gaap":
		return USGAAP, nil
	}
	return Generic, fmt.Errorf("unknown validation profile %q", s)
}

type Option func(*Validator)

func WithProfile(p Profile) Option {
	return func(v *Validator) { v.profile = p }
}

// WithStrict turns warnings into errors and reports duplicate facts.
func WithStrict(strict bool) Option {
	return func(v *Validator) { v.strict = strict }
}

func WithTolerance(tol float64) Option {
	return func(v *Validator) {
		if tol > 0 {
			v.tolerance = tol
		}
	}
}

// WithCalculations checks every context against the calculation
// relationships of p.
func WithCalculations(p *linkbase.Processor) Option {
	return func(v *Validator) { v.calc = p }
}

// WithSchema checks fact values against the data types the schema
// declares for their concepts.
func WithSchema(s *schema.Set) Option {
	return func(v *Validator) { v.schema = s }
}

func WithRules(rules ...*Rule) Option {
	return func(v *Validator) { v.rules = append(v.rules, rules...) }
}

type Validator struct {
	profile   Profile
	strict    bool
	tolerance float64
	calc      *linkbase.Processor
	schema    *schema.Set
	rules     []*Rule
}

func New(opts ...Option) *Validator {
	v := &Validator{tolerance: linkbase.DefaultTolerance}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs the generic checks, the profile checks and any custom
// rules over doc.
func (v *Validator) Validate(doc *xbrl.Document) *Result {
	start := time.Now()
	c := &collector{}

	checkContexts(c, doc)
	checkUnits(c, doc)
	checkFacts(c, doc)
	checkTupleFacts(c, doc)
	checkFootnotes(c, doc)
	checkLinks(c, doc)
	if v.strict {
		checkDuplicateFacts(c, doc)
	}
	if v.schema != nil {
		checkDataTypes(c, doc, v.schema)
	}
	calc := v.calc
	if calc == nil && len(doc.CalculationLinks) > 0 {
		calc = linkbase.FromDocument(doc)
	}
	if calc != nil {
		for _, inc := range calc.CheckDocument(doc, v.tolerance) {
			c.errorf(CalculationInconsistency, inc.Concept, -1,
				"%s in context %s: children sum to %s, reported %s",
				inc.Concept, inc.Context, formatFloat(inc.Expected), formatFloat(inc.Actual))
		}
	}

	switch v.profile {
	case SECEdgar:
		secRules(c, doc)
	case IFRS:
		ifrsRules(c, doc)
	}

	for _, r := range v.rules {
		r.check(c, doc)
	}

	res := &Result{Errors: c.errors, Warnings: c.warnings}
	if v.strict {
		for _, w := range res.Warnings {
			w.Severity = SeverityError
			res.Errors = append(res.Errors, w)
		}
		res.Warnings = nil
	}
	res.Valid = len(res.Errors) == 0
	res.Stats = Stats{
		Facts:      doc.Facts.Len(),
		TupleFacts: doc.TupleFactCount(),
		Contexts:   len(doc.Contexts),
		Units:      len(doc.Units),
		Footnotes:  len(doc.Footnotes),
		Duration:   time.Since(start),
	}
	return res
}

// Validate runs a validator built from opts.
func Validate(doc *xbrl.Document, opts ...Option) *Result {
	return New(opts...).Validate(doc)
}

type collector struct {
	errors   []Issue
	warnings []Issue
}

func (c *collector) errorf(code Code, ref string, fact int, format string, args ...any) {
	c.errors = append(c.errors, Issue{Code: code, Severity: SeverityError, Ref: ref, Fact: fact, Message: fmt.Sprintf(format, args...)})
}

func (c *collector) warnf(code Code, ref string, fact int, format string, args ...any) {
	c.warnings = append(c.warnings, Issue{Code: code, Severity: SeverityWarning, Ref: ref, Fact: fact, Message: fmt.Sprintf(format, args...)})
}
