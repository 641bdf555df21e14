package conformance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sarchlab/ebf/config"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/program"
	"github.com/sarchlab/ebf/verify"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	base config.Options
}

// NewRunner creates a runner whose programs start from the default options
func NewRunner() *Runner {
	return &Runner{base: config.Default()}
}

var errorKinds = map[string]error{
	"decode":          program.ErrUnknownToken,
	"unbalanced":      program.ErrUnbalanced,
	"undefined_label": core.ErrUndefinedLabel,
	"step_limit":      core.ErrStepLimit,
}

// RunAll runs every test in order
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, 0, len(tests))
	for _, t := range tests {
		results = append(results, r.Run(t))
	}
	return results
}

// Run runs one test on the interpreter, checks its expectations, and checks
// that the lowered form behaves the same
func (r *Runner) Run(lt LoadedTest) TestResult {
	result := TestResult{Test: lt}

	if skip, reason := lt.Test.IsSkipped(); skip {
		result.Skipped = true
		result.SkipReason = reason
		return result
	}

	result.Error = r.run(&lt.Test)
	result.Passed = result.Error == nil
	return result
}

func (r *Runner) run(tc *TestCase) error {
	want := tc.Expect

	p, err := program.Decode(tc.Source)
	if err != nil {
		if want.Error == "decode" {
			return nil
		}
		return fmt.Errorf("decode: %w", err)
	}
	if want.Error == "decode" {
		return errors.New("expected a decode error")
	}

	opts, err := r.options(tc, p)
	if err != nil {
		return err
	}

	var out bytes.Buffer
	m := opts.Configure(core.NewBuilder()).
		WithInput(bytes.NewReader([]byte(tc.Input))).
		WithOutput(&out).
		BuildMachine(p)

	runErr := m.Run(context.Background(), 0)
	if err := checkError(want.Error, runErr); err != nil {
		return err
	}

	if err := checkOutput(want, out.Bytes()); err != nil {
		return err
	}

	for idx, v := range want.Memory {
		if got := int(m.Peek(idx)); got != v {
			return fmt.Errorf("mem[%d] = %d, want %d", idx, got, v)
		}
	}

	if want.DP != nil && m.DP() != *want.DP {
		return fmt.Errorf("dp = %d, want %d", m.DP(), *want.DP)
	}

	return checkLowered(p, tc, opts)
}

// options layers the test's settings over the base, then the program's own
// config block over those.
func (r *Runner) options(tc *TestCase, p *program.Program) (config.Options, error) {
	opts := r.base
	if tc.EOF != nil {
		opts.EOF = *tc.EOF
	}
	if tc.MemorySize > 0 {
		opts.MemorySize = tc.MemorySize
	}
	if tc.MaxSteps > 0 {
		opts.MaxSteps = tc.MaxSteps
	}

	return config.ForProgram(p, opts)
}

func checkError(want string, got error) error {
	if want == "" {
		if got != nil {
			return fmt.Errorf("unexpected fault: %w", got)
		}
		return nil
	}

	kind, ok := errorKinds[want]
	if !ok {
		return fmt.Errorf("unknown error kind %q", want)
	}

	if !errors.Is(got, kind) {
		return fmt.Errorf("expected %s, got %v", want, got)
	}
	return nil
}

func checkOutput(want Expectation, got []byte) error {
	if want.Output != nil && string(got) != *want.Output {
		return fmt.Errorf("output %q, want %q", got, *want.Output)
	}

	if want.OutputBytes != nil {
		exp := make([]byte, len(want.OutputBytes))
		for i, b := range want.OutputBytes {
			exp[i] = byte(b)
		}
		if !bytes.Equal(got, exp) {
			return fmt.Errorf("output %v, want %v", got, exp)
		}
	}

	return nil
}

// checkLowered compares the interpreter with the lowered form. Programs that
// are expected to fail before they could be lowered are left out.
func checkLowered(p *program.Program, tc *TestCase, opts config.Options) error {
	switch tc.Expect.Error {
	case "unbalanced", "undefined_label":
		return nil
	}

	report := verify.GenerateReport(p, verify.ReportOptions{
		Input:      []byte(tc.Input),
		EOF:        byte(opts.EOF),
		MemorySize: opts.MemorySize,
		MaxSteps:   opts.MaxSteps,
	})

	if !report.Equivalent {
		return fmt.Errorf("lowered form disagrees: %s", report.Mismatch)
	}
	return nil
}

// Stats summarizes a set of results
type Stats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats counts results by outcome
func ComputeStats(results []TestResult) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

// FormatStats renders the stats as a short summary
func FormatStats(s Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Total:   %d\n", s.Total)
	fmt.Fprintf(&sb, "Passed:  %d\n", s.Passed)
	fmt.Fprintf(&sb, "Failed:  %d\n", s.Failed)
	fmt.Fprintf(&sb, "Skipped: %d\n", s.Skipped)
	return sb.String()
}
