package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/format"
	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

// maxListedErrors is how many errors the text output prints.
const maxListedErrors = 5

func newValidateCmd() *cobra.Command {
	var profileName string
	var strict bool
	var tolerance float64
	var rulesPath string
	var linkbases []string
	var outputFormat string
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate an instance document",
		Long: `Validate an instance document against the generic checks and an optional
filing profile (generic, sec, ifrs, us-gaap). The command exits with status 1
when the document is invalid and --strict is set.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cfg := loadConfig()

			if !cmd.Flags().Changed("profile") {
				profileName = cfg.Profile
			}
			profile, err := validator.ParseProfile(profileName)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("strict") {
				strict = cfg.Strict
			}
			if !cmd.Flags().Changed("tolerance") {
				tolerance = cfg.Tolerance
			}

			doc, set, err := pf.parse(path)
			if err != nil {
				return err
			}

			opts := []validator.Option{
				validator.WithProfile(profile),
				validator.WithStrict(strict),
				validator.WithTolerance(tolerance),
			}
			if set != nil {
				opts = append(opts, validator.WithSchema(set))
			}
			links, err := loadLinkbases(linkbases, set)
			if err != nil {
				return err
			}
			if links != nil {
				opts = append(opts, validator.WithCalculations(links))
			}
			rules, err := loadRules(rulesPath)
			if err != nil {
				return err
			}
			opts = append(opts, validator.WithRules(rules...))

			res := validator.Validate(doc, opts...)

			switch outputFormat {
			case "text":
				printResult(cmd.OutOrStdout(), path, res)
			case "json":
				if err := format.NewJSONEncoder(cmd.OutOrStdout()).SummaryOnly().WithValidation(res).Encode(doc); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			if !res.Valid && strict {
				return fmt.Errorf("%s: %w", path, xbrl.ErrValidation)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&profileName, "profile", "p", "generic", "validation profile (generic, sec, ifrs, us-gaap)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors and fail on an invalid document")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 0, "allowed calculation difference (default 0.01)")
	cmd.Flags().StringVar(&rulesPath, "rules", "", "file of custom rules, one \"name: expression\" per line")
	cmd.Flags().StringSliceVarP(&linkbases, "linkbase", "l", nil, "linkbase files with calculation relationships")
	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")
	pf.register(cmd)

	return cmd
}

func printResult(w io.Writer, path string, res *validator.Result) {
	if res.Valid {
		fmt.Fprintf(w, "✓ %s - Document is valid\n", path)
		if n := len(res.Warnings); n > 0 {
			fmt.Fprintf(w, "  Warnings: %d\n", n)
		}
		return
	}
	fmt.Fprintf(w, "✗ %s - Validation failed\n", path)
	fmt.Fprintf(w, "  Errors: %d\n", len(res.Errors))
	fmt.Fprintf(w, "  Warnings: %d\n", len(res.Warnings))
	for i, is := range res.Errors {
		if i == maxListedErrors {
			fmt.Fprintf(w, "  ... and %d more errors\n", len(res.Errors)-maxListedErrors)
			break
		}
		fmt.Fprintf(w, "  ERROR: %s\n", is)
	}
}
