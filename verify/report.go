package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/lower"
	"github.com/sarchlab/ebf/program"
)

// ReportOptions configures both runs of an equivalence check.
type ReportOptions struct {
	Input      []byte
	EOF        byte
	MemorySize int // zero means core.DefaultMemorySize
	MaxSteps   int // zero means no bound
}

// RunResult is how one engine finished.
type RunResult struct {
	Output []byte
	Memory []byte
	Steps  int
	Err    error
}

// VerificationReport represents a complete verification report
type VerificationReport struct {
	Program      *program.Program
	LintIssues   []Issue
	StructIssues []Issue
	FlowIssues   []Issue

	LowerErr    error
	Interpreted RunResult
	Lowered     RunResult

	Equivalent bool
	Mismatch   string
}

// GenerateReport runs lint, then runs the program on the interpreter and its
// lowered form on the functional simulator, and compares the two.
func GenerateReport(p *program.Program, opts ReportOptions) *VerificationReport {
	memSize := opts.MemorySize
	if memSize <= 0 {
		memSize = core.DefaultMemorySize
	}

	report := &VerificationReport{Program: p}

	// Run lint
	report.LintIssues = RunLint(p)

	// Categorize issues
	for _, issue := range report.LintIssues {
		if issue.Type == IssueStruct {
			report.StructIssues = append(report.StructIssues, issue)
		} else {
			report.FlowIssues = append(report.FlowIssues, issue)
		}
	}

	report.Interpreted = interpret(p, opts, memSize)

	stmts, err := lower.Lower(p)
	if err != nil {
		report.LowerErr = err
		report.Mismatch = "program does not lower: " + err.Error()
		return report
	}

	fs := NewFunctionalSimulator(stmts, memSize)
	fs.SetInput(opts.Input)
	fs.SetEOF(opts.EOF)
	err = fs.Run(opts.MaxSteps)
	report.Lowered = RunResult{
		Output: fs.Output(),
		Memory: fs.Memory(),
		Steps:  fs.Steps(),
		Err:    err,
	}

	report.Mismatch = compare(report.Interpreted, report.Lowered)
	report.Equivalent = report.Mismatch == ""

	return report
}

func interpret(p *program.Program, opts ReportOptions, memSize int) RunResult {
	var out bytes.Buffer
	m := core.NewBuilder().
		WithMemorySize(memSize).
		WithEOF(opts.EOF).
		WithInput(bytes.NewReader(opts.Input)).
		WithOutput(&out).
		BuildMachine(p)

	err := m.Run(context.Background(), opts.MaxSteps)

	return RunResult{
		Output: out.Bytes(),
		Memory: m.Memory(),
		Steps:  m.Steps(),
		Err:    err,
	}
}

// compare describes the first difference between two runs, or returns ""
// when they agree.
func compare(a, b RunResult) string {
	if outcome(a.Err) != outcome(b.Err) {
		return fmt.Sprintf("runs ended differently: interpreter %s, lowered %s",
			outcome(a.Err), outcome(b.Err))
	}

	if a.Steps != b.Steps {
		return fmt.Sprintf("step counts differ: interpreter %d, lowered %d", a.Steps, b.Steps)
	}

	if !bytes.Equal(a.Output, b.Output) {
		return fmt.Sprintf("outputs differ: interpreter %q, lowered %q", a.Output, b.Output)
	}

	for i := range a.Memory {
		if i >= len(b.Memory) || a.Memory[i] != b.Memory[i] {
			var got byte
			if i < len(b.Memory) {
				got = b.Memory[i]
			}
			return fmt.Sprintf("memory differs at cell %d: interpreter %d, lowered %d",
				i, a.Memory[i], got)
		}
	}

	return ""
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "halted"
	case errors.Is(err, core.ErrStepLimit):
		return "step limit"
	default:
		return "faulted"
	}
}

// WriteReport writes a formatted report to a writer
func (r *VerificationReport) WriteReport(w io.Writer) {
	separator := strings.Repeat("=", 60)

	fmt.Fprintln(w, separator)
	fmt.Fprintln(w, "EBF VERIFICATION REPORT")
	fmt.Fprintln(w, separator)

	fmt.Fprintf(w, "\nProgram: %d instructions, %d labels\n",
		r.Program.Len(), len(r.Program.Labels))

	// STAGE 1: LINT
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STAGE 1: STATIC LINT CHECKS")
	fmt.Fprintln(w, separator)

	if len(r.LintIssues) == 0 {
		fmt.Fprintln(w, "No lint issues found")
	} else {
		issues := table.NewWriter()
		issues.AppendHeader(table.Row{"Type", "Inst", "Offset", "Message"})
		for _, issue := range r.LintIssues {
			issues.AppendRow(table.Row{issue.Type, issue.Pos, issue.Offset, issue.Message})
		}
		fmt.Fprintf(w, "Found %d lint issues (%d STRUCT, %d FLOW):\n",
			len(r.LintIssues), len(r.StructIssues), len(r.FlowIssues))
		fmt.Fprintln(w, issues.Render())
	}

	// STAGE 2: BOTH ENGINES
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "STAGE 2: INTERPRETER VS LOWERED")
	fmt.Fprintln(w, separator)

	if r.LowerErr != nil {
		fmt.Fprintf(w, "Lowering failed: %v\n", r.LowerErr)
	}

	runs := table.NewWriter()
	runs.AppendHeader(table.Row{"Engine", "Ended", "Steps", "Output"})
	runs.AppendRow(runRow("interpreter", r.Interpreted))
	if r.LowerErr == nil {
		runs.AppendRow(runRow("lowered", r.Lowered))
	}
	fmt.Fprintln(w, runs.Render())

	// STAGE 3: SUMMARY
	fmt.Fprintln(w, "\n"+separator)
	fmt.Fprintln(w, "VERIFICATION SUMMARY")
	fmt.Fprintln(w, separator)

	if r.Equivalent {
		fmt.Fprintln(w, "EQUIVALENT: lowered statements match the interpreter")
	} else {
		fmt.Fprintf(w, "MISMATCH: %s\n", r.Mismatch)
	}

	fmt.Fprintln(w)
}

func runRow(name string, rr RunResult) table.Row {
	ended := outcome(rr.Err)
	if rr.Err != nil {
		ended += ": " + rr.Err.Error()
	}
	return table.Row{name, ended, rr.Steps, fmt.Sprintf("%q", rr.Output)}
}

// SaveReportToFile saves the report to a file
func (r *VerificationReport) SaveReportToFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	r.WriteReport(file)
	return nil
}
