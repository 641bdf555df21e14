package verify

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ebf/core"
	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/lower"
)

// ErrBadStatement is returned when the statement list cannot be run, such as
// a jump to a label it never defines.
var ErrBadStatement = errors.New("malformed statement list")

// FunctionalSimulator executes lowered statements directly.
type FunctionalSimulator struct {
	stmts []lower.Stmt
	state *SimState

	input  []byte
	eof    byte
	output []byte

	pc    int
	steps int

	labels  map[string]int
	resumes map[int]int
	begins  map[int]int
	ends    map[int]int

	TraceStmtPre  func(pc int, s lower.Stmt, state *SimState)
	TraceStmtPost func(pc int, s lower.Stmt, state *SimState)
}

// NewFunctionalSimulator creates a simulator over stmts with memSize zeroed
// cells. A memSize of zero or less uses core.DefaultMemorySize.
func NewFunctionalSimulator(stmts []lower.Stmt, memSize int) *FunctionalSimulator {
	if memSize <= 0 {
		memSize = core.DefaultMemorySize
	}

	fs := &FunctionalSimulator{
		stmts:   stmts,
		state:   NewSimState(memSize),
		labels:  make(map[string]int),
		resumes: make(map[int]int),
		begins:  make(map[int]int),
		ends:    make(map[int]int),
	}

	for pc, s := range stmts {
		switch s := s.(type) {
		case lower.Label:
			fs.labels[s.Name] = pc
		case lower.Resume:
			fs.resumes[s.Index] = pc
		case lower.LoopBegin:
			fs.begins[s.ID] = pc
		case lower.LoopEnd:
			fs.ends[s.ID] = pc
		}
	}

	return fs
}

// SetInput sets the bytes consumed by Input statements.
func (fs *FunctionalSimulator) SetInput(data []byte) {
	fs.input = append([]byte(nil), data...)
}

// SetEOF sets the byte stored once the input is exhausted.
func (fs *FunctionalSimulator) SetEOF(eof byte) {
	fs.eof = eof
}

// PreloadMemory preloads a memory location with a value
func (fs *FunctionalSimulator) PreloadMemory(addr int, value byte) {
	fs.state.WriteCell(addr, value)
}

// GetMemoryValue retrieves a memory value
func (fs *FunctionalSimulator) GetMemoryValue(addr int) byte {
	return fs.state.ReadCell(addr)
}

// GetMemoryRange retrieves the memory values from start to end, inclusive
func (fs *FunctionalSimulator) GetMemoryRange(start, end int) []byte {
	var result []byte
	for addr := start; addr <= end; addr++ {
		result = append(result, fs.state.ReadCell(addr))
	}
	return result
}

// Memory returns a copy of the whole memory.
func (fs *FunctionalSimulator) Memory() []byte {
	return append([]byte(nil), fs.state.Memory...)
}

// Output returns the bytes written so far.
func (fs *FunctionalSimulator) Output() []byte {
	return fs.output
}

// State returns the live registers and memory.
func (fs *FunctionalSimulator) State() *SimState {
	return fs.state
}

// Steps returns the number of statements that stand for an instruction and
// have run so far.
func (fs *FunctionalSimulator) Steps() int {
	return fs.steps
}

// Run executes statements until the end of the list or until maxSteps
// instructions have run. A maxSteps of zero or less means no bound. Running
// out of steps returns core.ErrStepLimit.
func (fs *FunctionalSimulator) Run(maxSteps int) error {
	for fs.pc < len(fs.stmts) {
		s := fs.stmts[fs.pc]

		if isMarker(s) {
			fs.pc++
			continue
		}

		if maxSteps > 0 && fs.steps >= maxSteps {
			return fmt.Errorf("statement %d: %w", fs.pc, core.ErrStepLimit)
		}

		if fs.TraceStmtPre != nil {
			fs.TraceStmtPre(fs.pc, s, fs.state)
		}

		pc := fs.pc
		next, err := fs.exec(s)
		if err != nil {
			return fmt.Errorf("statement %d: %w", pc, err)
		}

		fs.pc = next
		fs.steps++

		if fs.TraceStmtPost != nil {
			fs.TraceStmtPost(pc, s, fs.state)
		}
	}

	return nil
}

func isMarker(s lower.Stmt) bool {
	switch s.(type) {
	case lower.Label, lower.Resume:
		return true
	}
	return false
}

// exec runs one statement and returns the index of the next one.
func (fs *FunctionalSimulator) exec(s lower.Stmt) (int, error) {
	st := fs.state
	next := fs.pc + 1

	switch s := s.(type) {
	case lower.MovePtr:
		v := fs.eval(s.Value)
		switch s.Op {
		case lower.PtrSet:
			st.DP = fs.wrap(v)
		case lower.PtrAdd:
			st.DP = fs.wrap(st.DP + v)
		case lower.PtrSub:
			st.DP = fs.wrap(st.DP - v)
		}

	case lower.Modify:
		fs.modify(s)

	case lower.Output:
		fs.output = append(fs.output, byte(fs.eval(s.Value)))

	case lower.Input:
		st.WriteCell(fs.eval(s.Cell), fs.readByte())

	case lower.LoopBegin:
		if fs.holds(s.Skip) {
			end, ok := fs.ends[s.ID]
			if !ok {
				return 0, fmt.Errorf("%w: loop %d has no end", ErrBadStatement, s.ID)
			}
			next = end + 1
		}

	case lower.LoopEnd:
		if fs.holds(s.Repeat) {
			begin, ok := fs.begins[s.ID]
			if !ok {
				return 0, fmt.Errorf("%w: loop %d has no begin", ErrBadStatement, s.ID)
			}
			next = begin + 1
		}

	case lower.Goto:
		return fs.jump(s.Label)

	case lower.Call:
		st.ShadowIP = s.Site
		return fs.jump(s.Label)

	case lower.Return:
		site := st.ShadowIP
		st.ShadowIP = s.Site

		pc, ok := fs.resumes[site+1]
		if !ok {
			return 0, fmt.Errorf("%w: no resume point after instruction %d",
				ErrBadStatement, site)
		}
		next = pc

	case lower.SwapPtr:
		st.DP, st.ShadowDP = st.ShadowDP, st.DP

	default:
		return 0, fmt.Errorf("%w: unknown statement %T", ErrBadStatement, s)
	}

	return next, nil
}

func (fs *FunctionalSimulator) jump(label string) (int, error) {
	pc, ok := fs.labels[label]
	if !ok {
		return 0, fmt.Errorf("%w %q", core.ErrUndefinedLabel, label)
	}
	return pc, nil
}

func (fs *FunctionalSimulator) modify(s lower.Modify) {
	st := fs.state
	addr := fs.eval(s.Cell)
	v := fs.eval(s.Value)

	switch s.Op {
	case lower.OpNot:
		st.WriteCell(addr, ^byte(v))
	case lower.OpAssign:
		st.WriteCell(addr, byte(v))
	default:
		g, _ := s.Op.Glyph()
		st.WriteCell(addr, instr.Combine(g, st.ReadCell(addr), v))
	}
}

func (fs *FunctionalSimulator) holds(c lower.Cond) bool {
	cell := int(fs.state.ReadCell(fs.eval(c.Cell)))
	return (cell == fs.eval(c.Value)) == c.Equal
}

func (fs *FunctionalSimulator) readByte() byte {
	if len(fs.input) == 0 {
		return fs.eof
	}

	b := fs.input[0]
	fs.input = fs.input[1:]
	return b
}

func (fs *FunctionalSimulator) wrap(v int) int {
	return instr.Wrap(v, len(fs.state.Memory))
}

func (fs *FunctionalSimulator) eval(e lower.Expr) int {
	switch e := e.(type) {
	case lower.Const:
		return e.Value
	case lower.DP:
		return fs.state.DP
	case lower.ShadowDP:
		return fs.state.ShadowDP
	case lower.Sum:
		return fs.eval(e.X) + fs.eval(e.Y)
	case lower.Cell:
		return int(fs.state.ReadCell(fs.eval(e.Index)))
	default:
		return 0
	}
}
