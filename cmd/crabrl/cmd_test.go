package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/validator"
	"github.com/dhamidi/crabrl/xbrl"
)

var sample = filepath.Join("..", "..", "parser", "testdata", "sample.xml")

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseCommand(t *testing.T) {
	out, err := run(t, newParseCmd(), sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	for _, want := range []string{"Facts: 7", "Contexts: 2", "Units: 2", "Tuples: 1 (1 facts)", "Footnotes: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestParseCommandFormats(t *testing.T) {
	out, err := run(t, newParseCmd(), "--format", "line", sample)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !strings.Contains(out, "fact\tus-gaap:Revenues\tFY2023\tUSD\tinteger\t383285000000\t-6") {
		t.Errorf("line output:\n%s", out)
	}

	if _, err := run(t, newParseCmd(), "--format", "yaml", sample); err == nil {
		t.Error("unknown format accepted")
	}
	if _, err := run(t, newParseCmd(), "missing.xml"); !errors.Is(err, xbrl.ErrIO) {
		t.Errorf("missing file: %v, want ErrIO", err)
	}
}

func TestValidateCommand(t *testing.T) {
	out, err := run(t, newValidateCmd(), sample)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Document is valid") {
		t.Errorf("output:\n%s", out)
	}

	_, err = run(t, newValidateCmd(), "--profile", "ifrs", "--strict", sample)
	if !errors.Is(err, xbrl.ErrValidation) {
		t.Errorf("strict ifrs: %v, want ErrValidation", err)
	}
}

func TestPrintResultListsFiveErrors(t *testing.T) {
	res := &validator.Result{}
	for i := 0; i < 7; i++ {
		res.Errors = append(res.Errors, validator.Issue{Code: validator.InvalidUnitRef, Message: "bad unit"})
	}
	var buf bytes.Buffer
	printResult(&buf, "f.xml", res)
	out := buf.String()
	if got := strings.Count(out, "ERROR:"); got != maxListedErrors {
		t.Errorf("listed %d errors, want %d", got, maxListedErrors)
	}
	if !strings.Contains(out, "... and 2 more errors") {
		t.Errorf("output:\n%s", out)
	}
}

func TestSummarizeTimings(t *testing.T) {
	var times []time.Duration
	for i := 20; i >= 1; i-- {
		times = append(times, time.Duration(i)*time.Millisecond)
	}
	got := summarize(times)
	want := timings{
		Min:    1 * time.Millisecond,
		Median: 11 * time.Millisecond,
		Mean:   10500 * time.Microsecond,
		P95:    19 * time.Millisecond,
		Max:    20 * time.Millisecond,
	}
	if got != want {
		t.Errorf("summarize = %+v, want %+v", got, want)
	}
	if (summarize(nil) != timings{}) {
		t.Error("summarize(nil) not zero")
	}
}

func TestBenchCommand(t *testing.T) {
	out, err := run(t, newBenchCmd(), "-n", "3", "--warmup", "1", sample)
	if err != nil {
		t.Fatalf("bench: %v", err)
	}
	for _, want := range []string{"Iterations: 3", "Facts: 7", "Median:", "P95:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output lacks %q:\n%s", want, out)
		}
	}
	if _, err := run(t, newBenchCmd(), "-n", "0", sample); err == nil {
		t.Error("zero iterations accepted")
	}
}
