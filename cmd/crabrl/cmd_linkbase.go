package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/linkbase"
	"github.com/dhamidi/crabrl/parser"
	"github.com/dhamidi/crabrl/xbrl"
)

func newLinkbaseCmd() *cobra.Command {
	var instance string
	var tolerance float64
	var lang string
	var tree bool

	cmd := &cobra.Command{
		Use:   "linkbase <file>...",
		Short: "Load linkbase files and show their relationships",
		Long: `Load one or more linkbase files and print arc counts. With --tree the
presentation hierarchy is printed using labels in --lang. With --instance the
calculation relationships are checked against the facts of that document.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadLinkbases(args, nil)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			printLinkbaseStats(w, p.Stats())

			if tree {
				printPresentation(w, p, lang)
			}

			if instance == "" {
				return nil
			}
			doc, err := parser.ParseFile(instance, loadConfig().ParserOptions()...)
			if err != nil {
				return fmt.Errorf("parse %s: %w", instance, err)
			}
			incs := p.CheckDocument(doc, tolerance)
			if len(incs) == 0 {
				fmt.Fprintf(w, "✓ %s - calculations consistent\n", instance)
				return nil
			}
			fmt.Fprintf(w, "✗ %s - %d calculation inconsistencies\n", instance, len(incs))
			for _, inc := range incs {
				fmt.Fprintf(w, "  %s\n", inc)
			}
			return fmt.Errorf("%s: %w", instance, xbrl.ErrValidation)
		},
	}

	cmd.Flags().StringVarP(&instance, "instance", "i", "", "instance document to check calculations against")
	cmd.Flags().Float64Var(&tolerance, "tolerance", linkbase.DefaultTolerance, "allowed calculation difference")
	cmd.Flags().StringVar(&lang, "lang", "en", "label language")
	cmd.Flags().BoolVarP(&tree, "tree", "t", false, "print the presentation hierarchy")

	return cmd
}

func printLinkbaseStats(w io.Writer, s linkbase.Stats) {
	fmt.Fprintf(w, "Presentation arcs: %d\n", s.PresentationArcs)
	fmt.Fprintf(w, "Calculation arcs:  %d\n", s.CalculationArcs)
	fmt.Fprintf(w, "Definition arcs:   %d\n", s.DefinitionArcs)
	fmt.Fprintf(w, "Labels:            %d\n", s.Labels)
	fmt.Fprintf(w, "References:        %d\n", s.References)
}

func printPresentation(w io.Writer, p *linkbase.Processor, lang string) {
	label := func(concept, role string) string {
		if role == "" {
			role = linkbase.RoleLabel
		}
		if l, ok := p.Label(concept, role, lang); ok {
			return l + " (" + concept + ")"
		}
		return concept
	}
	for _, root := range p.PresentationRoots() {
		fmt.Fprintln(w, label(root, ""))
		p.WalkPresentation(root, func(depth int, arc xbrl.PresentationArc) {
			fmt.Fprintf(w, "%s%s\n", strings.Repeat("  ", depth+1), label(arc.To, arc.PreferredLabel))
		})
	}
}
