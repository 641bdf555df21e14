package core

import "github.com/sarchlab/ebf/instr"

// Resolved is an instruction's addressing evaluated against live registers
// and memory.
type Resolved struct {
	// Target is the cell index the instruction mutates or tests. Without an
	// @-family mode it is the data pointer itself.
	Target    int
	HasTarget bool

	Source    int
	HasSource bool
}

// Resolve evaluates the addressing of inst. Target indices are already
// wrapped into memory. Source values are left as computed, so a '#' literal
// keeps its sign and magnitude.
func Resolve(inst instr.Instruction, dp, sdp int, mem []byte) Resolved {
	acc := instr.Operands(inst)
	r := Resolved{Target: dp}

	if acc.Target != nil {
		r.Target = instr.Wrap(acc.Target.Eval(dp, sdp, mem), len(mem))
		r.HasTarget = true
	}

	if acc.Source != nil {
		r.Source = acc.Source.Eval(dp, sdp, mem)
		r.HasSource = true
	}

	return r
}
