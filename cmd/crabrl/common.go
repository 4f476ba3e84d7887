package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/config"
	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/schema"
	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

// loadConfig reads the environment. Flags set on a command take precedence
// over what it returns.
func loadConfig() config.Config {
	return config.Load()
}

// parseFlags are the parser settings shared by every command that reads an
// instance document.
type parseFlags struct {
	scalar   bool
	deferred bool
	schemas  []string
}

func (f *parseFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.scalar, "scalar", false, "force the scalar byte scanner")
	cmd.Flags().BoolVar(&f.deferred, "deferred", false, "resolve context and unit references after the whole document is read")
	cmd.Flags().StringSliceVar(&f.schemas, "schema", nil, "schema files used to classify tuples and check data types")
}

// options merges the environment configuration with the flags. The schema
// set is nil when no schema was given.
func (f *parseFlags) options(cfg config.Config) ([]parser.Option, *schema.Set, error) {
	cfg.Scalar = cfg.Scalar || f.scalar
	cfg.DeferredRefs = cfg.DeferredRefs || f.deferred
	opts := cfg.ParserOptions()
	set, err := loadSchemas(f.schemas)
	if err != nil {
		return nil, nil, err
	}
	if set != nil {
		opts = append(opts, parser.WithConceptClassifier(set))
	}
	return opts, set, nil
}

func (f *parseFlags) parse(path string) (*xbrl.Document, *schema.Set, error) {
	opts, set, err := f.options(loadConfig())
	if err != nil {
		return nil, nil, err
	}
	doc, err := parser.ParseFile(path, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, set, nil
}

func loadSchemas(paths []string) (*schema.Set, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	set := schema.NewSet()
	for _, p := range paths {
		if err := set.LoadFile(p); err != nil {
			return nil, fmt.Errorf("load schema: %w", err)
		}
	}
	return set, nil
}

// loadLinkbases reads the given linkbase files plus any the schema set
// references. It returns nil when there is nothing to read.
func loadLinkbases(paths []string, set *schema.Set) (*linkbase.Processor, error) {
	if set != nil {
		for _, lb := range set.LinkbaseFiles() {
			if _, err := os.Stat(lb); err == nil {
				paths = append(paths, lb)
			}
		}
	}
	if len(paths) == 0 {
		return nil, nil
	}
	p := linkbase.New()
	seen := make(map[string]bool)
	for _, path := range paths {
		if seen[path] {
			continue
		}
		seen[path] = true
		if err := p.LoadFile(path); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func loadRules(path string) ([]*validator.Rule, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rules: %w", err)
	}
	defer f.Close()
	rules, err := validator.ParseRules(f)
	if err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}
