package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/format"
	"github.com/dhamidi/crabrl/xbrl"
)

func newParseCmd() *cobra.Command {
	var outputFormat string
	var stats bool
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Parse an instance document and print its contents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			start := time.Now()
			doc, _, err := pf.parse(path)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			var encoder format.Encoder
			switch outputFormat {
			case "text":
				printCounts(cmd.OutOrStdout(), path, doc)
			case "json":
				encoder = format.NewJSONEncoder(cmd.OutOrStdout())
			case "line":
				encoder = format.NewLineEncoder(cmd.OutOrStdout())
			case "markdown":
				encoder = format.NewMarkdownEncoder(cmd.OutOrStdout())
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}
			if encoder != nil {
				if err := encoder.Encode(doc); err != nil {
					return fmt.Errorf("encode: %w", err)
				}
			}

			if stats {
				// Timing goes to stderr when stdout carries encoded output.
				w := cmd.ErrOrStderr()
				if outputFormat == "text" {
					w = cmd.OutOrStdout()
				}
				printTiming(w, doc, elapsed)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json, line, markdown)")
	cmd.Flags().BoolVarP(&stats, "stats", "s", false, "print parse time and throughput")
	pf.register(cmd)

	return cmd
}

func printCounts(w io.Writer, path string, doc *xbrl.Document) {
	fmt.Fprintf(w, "✓ %s\n", path)
	fmt.Fprintf(w, "  Facts: %d\n", doc.Facts.Len())
	fmt.Fprintf(w, "  Contexts: %d\n", len(doc.Contexts))
	fmt.Fprintf(w, "  Units: %d\n", len(doc.Units))
	if n := len(doc.Tuples); n > 0 {
		fmt.Fprintf(w, "  Tuples: %d (%d facts)\n", n, doc.TupleFactCount())
	}
	if n := len(doc.Footnotes); n > 0 {
		fmt.Fprintf(w, "  Footnotes: %d\n", n)
	}
}

func printTiming(w io.Writer, doc *xbrl.Document, elapsed time.Duration) {
	fmt.Fprintf(w, "  Time: %.2fms\n", ms(elapsed))
	if secs := elapsed.Seconds(); secs > 0 {
		fmt.Fprintf(w, "  Throughput: %.0f facts/sec\n", float64(doc.Facts.Len())/secs)
	}
}

func ms(d time.Duration) float64 {
	return d.Seconds() * 1000
}
