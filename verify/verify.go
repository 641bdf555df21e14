// Package verify provides debugging tools for EBF programs and their lowered
// form.
//
// This package implements three complementary stages:
//
// 1. Static Lint (lint.go): Fast structural and control-flow checks
//   - STRUCT checks: bracket balance, undefined jump and call labels
//   - FLOW checks: unused labels, returns with no call to come back from,
//     jumps into the middle of a loop
//
// 2. Functional Simulator (funcsim.go): Interpreter for lowered statements
//   - Executes the output of lower.Lower without going back to the source
//   - Counts one step per lowered instruction, the same budget as core.Machine
//   - Useful for isolating lowering bugs from interpreter bugs
//
// 3. Equivalence Report (report.go): Runs a program on core.Machine and its
// lowered form on the functional simulator with the same input, and compares
// output bytes, final memory and how each run ended.
//
// # Usage Example
//
//	p := program.MustDecode(src)
//
//	// Stage 1: Lint checks
//	for _, issue := range verify.RunLint(p) {
//	    log.Printf("[%s] inst=%d: %s", issue.Type, issue.Pos, issue.Message)
//	}
//
//	// Stage 2: Functional simulation
//	stmts, _ := lower.Lower(p)
//	fs := verify.NewFunctionalSimulator(stmts, 1024)
//	fs.SetInput([]byte("hi"))
//	if err := fs.Run(10000); err != nil {
//	    panic(err)
//	}
//	fmt.Printf("out=%q mem[0]=%d\n", fs.Output(), fs.GetMemoryValue(0))
//
//	// Stage 3: Compare with the interpreter
//	report := verify.GenerateReport(p, verify.ReportOptions{Input: []byte("hi")})
//	report.WriteReport(os.Stdout)
package verify

import (
	"github.com/sarchlab/ebf/instr"
)

// IssueType categorizes lint issues
type IssueType string

const (
	IssueStruct IssueType = "STRUCT" // Program cannot run or lower (unbalanced, undefined label)
	IssueFlow   IssueType = "FLOW"   // Program runs but control flow is suspicious
)

// Issue represents a single lint issue
type Issue struct {
	Type    IssueType              // STRUCT or FLOW
	Pos     int                    // Instruction index (-1 if not applicable)
	Offset  int                    // Byte offset in the source (-1 if not applicable)
	Message string                 // Human-readable description
	Details map[string]interface{} // Additional structured data
}

// SimState captures the registers and memory of the functional simulator.
type SimState struct {
	DP, ShadowDP int
	ShadowIP     int
	Memory       []byte
}

// NewSimState creates a state with zeroed registers and memory.
func NewSimState(memSize int) *SimState {
	return &SimState{Memory: make([]byte, memSize)}
}

// ReadCell reads the cell at addr, wrapped into memory.
func (s *SimState) ReadCell(addr int) byte {
	return s.Memory[instr.Wrap(addr, len(s.Memory))]
}

// WriteCell writes the cell at addr, wrapped into memory.
func (s *SimState) WriteCell(addr int, v byte) {
	s.Memory[instr.Wrap(addr, len(s.Memory))] = v
}
