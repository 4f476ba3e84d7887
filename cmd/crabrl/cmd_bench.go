package main

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/parser"
)

func newBenchCmd() *cobra.Command {
	var iterations int
	var warmups int
	var pf parseFlags

	cmd := &cobra.Command{
		Use:   "bench <file>",
		Short: "Measure parse time over repeated runs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if iterations <= 0 {
				return fmt.Errorf("iterations must be positive, got %d", iterations)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			opts, _, err := pf.options(loadConfig())
			if err != nil {
				return err
			}
			p := parser.New(opts...)

			for i := 0; i < warmups; i++ {
				if _, err := p.Parse(data); err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
			}

			times := make([]time.Duration, 0, iterations)
			facts := 0
			for i := 0; i < iterations; i++ {
				start := time.Now()
				doc, err := p.Parse(data)
				if err != nil {
					return fmt.Errorf("parse %s: %w", path, err)
				}
				times = append(times, time.Since(start))
				facts = doc.Facts.Len()
			}

			printBench(cmd.OutOrStdout(), path, iterations, facts, len(data), summarize(times))
			return nil
		},
	}

	cmd.Flags().IntVarP(&iterations, "iterations", "n", 100, "number of measured runs")
	cmd.Flags().IntVar(&warmups, "warmup", 3, "number of unmeasured runs before measuring")
	pf.register(cmd)

	return cmd
}

type timings struct {
	Min, Median, Mean, P95, Max time.Duration
}

// summarize sorts times in place.
func summarize(times []time.Duration) timings {
	if len(times) == 0 {
		return timings{}
	}
	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	var total time.Duration
	for _, t := range times {
		total += t
	}
	p95 := (len(times)*95 + 99) / 100
	return timings{
		Min:    times[0],
		Median: times[len(times)/2],
		Mean:   total / time.Duration(len(times)),
		P95:    times[p95-1],
		Max:    times[len(times)-1],
	}
}

func printBench(w io.Writer, path string, iterations, facts, size int, t timings) {
	fmt.Fprintf(w, "Benchmark Results for %s\n", path)
	fmt.Fprintf(w, "  Iterations: %d\n", iterations)
	fmt.Fprintf(w, "  Facts: %d\n", facts)
	fmt.Fprintf(w, "  Min:    %.3fms\n", ms(t.Min))
	fmt.Fprintf(w, "  Median: %.3fms\n", ms(t.Median))
	fmt.Fprintf(w, "  Mean:   %.3fms\n", ms(t.Mean))
	fmt.Fprintf(w, "  P95:    %.3fms\n", ms(t.P95))
	fmt.Fprintf(w, "  Max:    %.3fms\n", ms(t.Max))
	if secs := t.Mean.Seconds(); secs > 0 {
		fmt.Fprintf(w, "  Throughput: %.0f facts/sec, %.1f MB/s\n", float64(facts)/secs, float64(size)/secs/1e6)
	}
}
