package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/program"
)

// DefaultMemorySize is the number of cells a machine gets unless configured
// otherwise.
const DefaultMemorySize = 1024

var (
	// ErrUndefinedLabel is raised by a jump or call to a missing label.
	ErrUndefinedLabel = program.ErrUndefinedLabel

	// ErrStepLimit is raised when a machine runs out of its step budget.
	ErrStepLimit = errors.New("step limit reached")
)

// InputSource supplies the bytes read by ','. Returning io.EOF means the
// input is exhausted. *bytes.Reader and *bufio.Reader satisfy it.
type InputSource interface {
	ReadByte() (byte, error)
}

// OutputSink receives the bytes written by '.'. *bytes.Buffer and
// *bufio.Writer satisfy it.
type OutputSink interface {
	WriteByte(c byte) error
}

// Status is the run state of a machine.
type Status int

// Machine states.
const (
	Running Status = iota
	Halted
	Faulted
)

func (s Status) String() string {
	switch s {
	case Running:
		return "Running"
	case Halted:
		return "Halted"
	case Faulted:
		return "Faulted"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Fault records the instruction a machine stopped on.
type Fault struct {
	Pos  int
	Inst instr.Instruction
	Err  error
}

func (f *Fault) Error() string {
	return fmt.Sprintf("fault at instruction %d %s (offset %d): %v",
		f.Pos, f.Inst, f.Inst.Pos, f.Err)
}

func (f *Fault) Unwrap() error {
	return f.Err
}

// Machine interprets one program against its own memory and registers.
type Machine struct {
	prog  *program.Program
	state coreState
	emu   *instEmulator

	status   Status
	fault    *Fault
	steps    int
	maxSteps int
}

// Program returns the program the machine runs.
func (m *Machine) Program() *program.Program {
	return m.prog
}

// Status returns the run state.
func (m *Machine) Status() Status {
	return m.status
}

// Fault returns the recorded fault, or nil.
func (m *Machine) Fault() error {
	if m.fault == nil {
		return nil
	}
	return m.fault
}

// Steps returns the number of instructions executed so far.
func (m *Machine) Steps() int {
	return m.steps
}

func (m *Machine) DP() int       { return m.state.DP }
func (m *Machine) ShadowDP() int { return m.state.ShadowDP }
func (m *Machine) IP() int       { return m.state.IP }
func (m *Machine) ShadowIP() int { return m.state.ShadowIP }

// Memory returns a copy of the memory.
func (m *Machine) Memory() []byte {
	out := make([]byte, len(m.state.Memory))
	copy(out, m.state.Memory)
	return out
}

// Peek returns the cell at addr, wrapped into memory.
func (m *Machine) Peek(addr int) byte {
	return m.state.Memory[instr.Wrap(addr, len(m.state.Memory))]
}

// Preload copies data into memory starting at addr, wrapping at the end.
func (m *Machine) Preload(addr int, data []byte) {
	for i, b := range data {
		m.state.Memory[instr.Wrap(addr+i, len(m.state.Memory))] = b
	}
}

// Step executes the instruction under the instruction pointer. Stepping a
// halted machine does nothing. Stepping a faulted machine returns the same
// fault again.
func (m *Machine) Step() error {
	switch m.status {
	case Halted:
		return nil
	case Faulted:
		return m.fault
	}

	if m.state.IP >= m.prog.Len() {
		m.status = Halted
		return nil
	}

	if m.maxSteps > 0 && m.steps >= m.maxSteps {
		return m.fail(ErrStepLimit)
	}

	pos := m.state.IP
	inst := m.prog.Instructions[pos]
	if err := m.emu.RunInst(inst, &m.state); err != nil {
		return m.fail(err)
	}

	m.state.IP++
	m.steps++

	if traceEnabled() {
		Trace("Step",
			"Pos", pos,
			"Inst", inst.String(),
			"DP", m.state.DP,
			"Cell", m.state.Memory[m.state.DP],
			"IP", m.state.IP,
			"ShadowIP", m.state.ShadowIP,
		)
	}

	if m.state.IP >= m.prog.Len() {
		m.status = Halted
	}

	return nil
}

// Run steps until the machine halts or faults, the context is done, or
// maxSteps more instructions have run. A maxSteps of zero or less means no
// bound. Running out of steps faults the machine with ErrStepLimit.
func (m *Machine) Run(ctx context.Context, maxSteps int) error {
	for n := 0; m.status == Running; n++ {
		if maxSteps > 0 && n >= maxSteps {
			return m.fail(ErrStepLimit)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := m.Step(); err != nil {
			return err
		}
	}

	return m.Fault()
}

func (m *Machine) fail(err error) error {
	pos := m.state.IP
	var inst instr.Instruction
	if pos >= 0 && pos < m.prog.Len() {
		inst = m.prog.Instructions[pos]
	}

	m.fault = &Fault{Pos: pos, Inst: inst, Err: err}
	m.status = Faulted

	Trace("Fault", "Pos", pos, "Inst", inst.String(), "Err", err)

	return m.fault
}
