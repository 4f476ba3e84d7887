package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/format"
	"github.com/dhamidi/crabrl/validator"
)

func newReportCmd() *cobra.Command {
	var outputFormat string
	var outPath string
	var title string
	var lang string
	var factLimit int
	var profileName string
	var linkbases []string
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "report <file>",
		Short: "Write a markdown or HTML report of an instance document",
		Args:  cobra.ExactArgs(1),
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

			doc, set, err := pf.parse(path)
			if err != nil {
				return err
			}
			links, err := loadLinkbases(linkbases, set)
			if err != nil {
				return err
			}

			opts := []validator.Option{validator.WithProfile(profile), validator.WithTolerance(cfg.Tolerance)}
			if set != nil {
				opts = append(opts, validator.WithSchema(set))
			}
			if links != nil {
				opts = append(opts, validator.WithCalculations(links))
			}
			res := validator.Validate(doc, opts...)

			var w io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("create %s: %w", outPath, err)
				}
				defer f.Close()
				w = f
			}

			if title == "" {
				title = "XBRL report: " + path
			}

			var encoder format.Encoder
			var report *format.MarkdownEncoder
			switch outputFormat {
			case "markdown":
				report = format.NewMarkdownEncoder(w)
				encoder = report
			case "html":
				html := format.NewHTMLEncoder(w)
				report = html.Report()
				encoder = html
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			report.WithTitle(title).WithValidation(res).WithFactLimit(factLimit)
			if links != nil {
				report.WithLinkbase(links, lang)
			}

			if err := encoder.Encode(doc); err != nil {
				return fmt.Errorf("encode: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "markdown", "report format (markdown, html)")
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the report to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "report title")
	cmd.Flags().StringVar(&lang, "lang", "en", "label language")
	cmd.Flags().IntVar(&factLimit, "facts", format.DefaultFactLimit, "number of facts to list (0 for all)")
	cmd.Flags().StringVarP(&profileName, "profile", "p", "generic", "validation profile (generic, sec, ifrs, us-gaap)")
	cmd.Flags().StringSliceVarP(&linkbases, "linkbase", "l", nil, "linkbase files with labels and presentation relationships")
	pf.register(cmd)

	return cmd
}
