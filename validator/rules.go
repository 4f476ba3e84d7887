package validator

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dhamidi/crabrl/xbrl"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// RuleEnv is the environment custom rules are evaluated in. Values holds
// the first numeric value reported for each concept.
type RuleEnv struct {
	Facts     int
	Contexts  int
	Units     int
	Tuples    int
	Footnotes int
	Concepts  []string
	Values    map[string]float64
	Entities  []string
}

// Has reports whether a top-level fact for concept exists.
func (e RuleEnv) Has(concept string) bool {
	for _, c := range e.Concepts {
		if c == concept {
			return true
		}
	}
	return false
}

// Value returns the numeric value of concept, or 0.
func (e RuleEnv) Value(concept string) float64 { return e.Values[concept] }

func NewRuleEnv(doc *xbrl.Document) RuleEnv {
	env := RuleEnv{
		Facts:     doc.Facts.Len(),
		Contexts:  len(doc.Contexts),
		Units:     len(doc.Units),
		Tuples:    len(doc.Tuples),
		Footnotes: len(doc.Footnotes),
		Concepts:  doc.Concepts(),
		Values:    make(map[string]float64),
	}
	for i := 0; i < doc.Facts.Len(); i++ {
		concept := doc.Concept(i)
		if _, ok := env.Values[concept]; ok {
			continue
		}
		if f, ok := doc.Facts.Values[i].Float(); ok {
			env.Values[concept] = f
		}
	}
	seen := make(map[string]bool)
	for i := range doc.Contexts {
		id := doc.Contexts[i].Entity.Identifier
		if id != "" && !seen[id] {
			seen[id] = true
			env.Entities = append(env.Entities, id)
		}
	}
	return env
}

// Rule is a boolean expression that must hold for a valid document, such
// as `Has("dei:DocumentType") && Value("us-gaap:Assets") > 0`.
type Rule struct {
	Name    string
	Source  string
	program *vm.Program
}

func CompileRule(name, source string) (*Rule, error) {
	program, err := expr.Compile(source, expr.Env(RuleEnv{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile rule %s: %w", name, err)
	}
	return &Rule{Name: name, Source: source, program: program}, nil
}

func (r *Rule) Eval(env RuleEnv) (bool, error) {
	var machine vm.VM
	out, err := machine.Run(r.program, env)
	if err != nil {
		return false, fmt.Errorf("rule %s: %w", r.Name, err)
	}
	ok, _ := out.(bool)
	return ok, nil
}

func (r *Rule) check(c *collector, doc *xbrl.Document) {
	ok, err := r.Eval(NewRuleEnv(doc))
	switch {
	case err != nil:
		c.errorf(RuleViolation, r.Name, -1, "%v", err)
	case !ok:
		c.errorf(RuleViolation, r.Name, -1, "rule %s does not hold: %s", r.Name, r.Source)
	}
}

// ParseRules reads one rule per line in the form "name: expression".
// Blank lines and lines starting with '#' are ignored.
func ParseRules(r io.Reader) ([]*Rule, error) {
	var rules []*Rule
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		name, source, ok := strings.Cut(text, ":")
		if !ok {
			return nil, fmt.Errorf("line %d: expected \"name: expression\"", line)
		}
		rule, err := CompileRule(strings.TrimSpace(name), strings.TrimSpace(source))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return rules, nil
}
