// Package lower translates a decoded EBF program into a flat sequence of
// primitive statements that a host program can embed. The statements use the
// same addressing table and bracket pairing as the interpreter, so running
// them gives the same output and memory.
package lower

import (
	"fmt"
	"sort"

	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/program"
)

// Stmt is one primitive statement.
type Stmt interface {
	isStmt()
}

// PtrOp is how MovePtr changes the data pointer.
type PtrOp int

// Pointer operations.
const (
	PtrSet PtrOp = iota
	PtrAdd
	PtrSub
)

// ModOp is the read-modify-write applied by Modify.
type ModOp int

// Modify operations. OpNot and OpAssign ignore the old cell value.
const (
	OpAdd ModOp = iota
	OpSub
	OpAnd
	OpOr
	OpXor
	OpShr
	OpShl
	OpNot
	OpAssign
)

var glyphOps = map[instr.Glyph]ModOp{
	instr.Inc:        OpAdd,
	instr.Dec:        OpSub,
	instr.And:        OpAnd,
	instr.Or:         OpOr,
	instr.Xor:        OpXor,
	instr.ShiftRight: OpShr,
	instr.ShiftLeft:  OpShl,
}

// Glyph returns the instruction glyph whose combine rule the operation
// follows, if any.
func (op ModOp) Glyph() (instr.Glyph, bool) {
	for g, o := range glyphOps {
		if o == op {
			return g, true
		}
	}
	return 0, false
}

// Cond compares the cell at index Cell with Value.
type Cond struct {
	Cell  Expr
	Equal bool
	Value Expr
}

// MovePtr changes the data pointer. The result wraps into memory.
type MovePtr struct {
	Op    PtrOp
	Value Expr
}

// Modify rewrites the cell at index Cell.
type Modify struct {
	Cell  Expr
	Op    ModOp
	Value Expr
}

// Output writes the low byte of Value.
type Output struct{ Value Expr }

// Input reads one byte into the cell at index Cell.
type Input struct{ Cell Expr }

// LoopBegin jumps past its LoopEnd when Skip holds.
type LoopBegin struct {
	ID   int
	Skip Cond
}

// LoopEnd jumps back just past its LoopBegin when Repeat holds.
type LoopEnd struct {
	ID     int
	Repeat Cond
}

// Label is a user label.
type Label struct{ Name string }

// Resume marks where a return to instruction Index lands.
type Resume struct{ Index int }

// Goto jumps to a user label.
type Goto struct{ Label string }

// Call records Site as the return site and jumps to a user label.
type Call struct {
	Label string
	Site  int
}

// Return swaps the return site with Site and resumes just past the old
// site. Targets lists every Resume index the old site can lead to.
type Return struct {
	Site    int
	Targets []int
}

// SwapPtr swaps the data pointer and the shadow data pointer.
type SwapPtr struct{}

func (MovePtr) isStmt()   {}
func (Modify) isStmt()    {}
func (Output) isStmt()    {}
func (Input) isStmt()     {}
func (LoopBegin) isStmt() {}
func (LoopEnd) isStmt()   {}
func (Label) isStmt()     {}
func (Resume) isStmt()    {}
func (Goto) isStmt()      {}
func (Call) isStmt()      {}
func (Return) isStmt()    {}
func (SwapPtr) isStmt()   {}

// Symmetric reports whether the loop end repeats exactly when the loop begin
// would not skip, which makes the pair an ordinary while loop.
func (b LoopBegin) Symmetric(e LoopEnd) bool {
	return b.ID == e.ID &&
		SameExpr(b.Skip.Cell, e.Repeat.Cell) &&
		SameExpr(b.Skip.Value, e.Repeat.Value) &&
		b.Skip.Equal != e.Repeat.Equal
}

type lowerer struct {
	prog    *program.Program
	pairs   []int
	resumes map[int]bool
	targets []int
	out     []Stmt
}

// Lower translates p into primitive statements. Unbalanced brackets and
// undefined labels are reported up front.
func Lower(p *program.Program) ([]Stmt, error) {
	pairs, err := program.MatchAll(p)
	if err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}

	if err := p.CheckLabels(); err != nil {
		return nil, fmt.Errorf("lower: %w", err)
	}

	l := &lowerer{prog: p, pairs: pairs}
	l.collectReturnSites()

	for i, inst := range p.Instructions {
		l.emitLabels(i)
		l.emit(l.lowerInst(i, inst))
	}
	l.emitLabels(p.Len())

	return l.out, nil
}

// collectReturnSites finds every instruction index the shadow instruction
// pointer can hold: zero at start, every call site, and every bare '!'.
func (l *lowerer) collectReturnSites() {
	hasReturn := false
	sites := map[int]bool{0: true}
	for i, inst := range l.prog.Instructions {
		if inst.Glyph != instr.SwapInst {
			continue
		}
		if !inst.IsJump() {
			hasReturn = true
			sites[i] = true
		} else if inst.Save {
			sites[i] = true
		}
	}

	l.resumes = make(map[int]bool)
	if !hasReturn {
		return
	}

	for s := range sites {
		l.resumes[s+1] = true
		l.targets = append(l.targets, s+1)
	}
	sort.Ints(l.targets)
}

func (l *lowerer) emitLabels(idx int) {
	for _, name := range l.prog.Labels.At(idx) {
		l.emit(Label{Name: name})
	}
	if l.resumes[idx] {
		l.emit(Resume{Index: idx})
	}
}

func (l *lowerer) emit(s Stmt) {
	l.out = append(l.out, s)
}

func (l *lowerer) lowerInst(i int, inst instr.Instruction) Stmt {
	acc := instr.Operands(inst)

	var target Expr = DP{}
	if acc.Target != nil {
		target = addrExpr(acc.Target)
	}

	var source Expr
	if acc.Source != nil {
		source = addrExpr(acc.Source)
	}

	switch g := inst.Glyph; {
	case g == instr.MoveRight || g == instr.MoveLeft:
		if acc.Target != nil {
			return MovePtr{Op: PtrSet, Value: target}
		}
		if g == instr.MoveRight {
			return MovePtr{Op: PtrAdd, Value: source}
		}
		return MovePtr{Op: PtrSub, Value: source}

	case g.Combines():
		return Modify{Cell: target, Op: glyphOps[g], Value: source}

	case g == instr.Output:
		if acc.Target != nil {
			return Modify{Cell: target, Op: OpAssign, Value: Cell{Index: DP{}}}
		}
		return Output{Value: source}

	case g == instr.Input:
		if source != nil {
			return Modify{Cell: DP{}, Op: OpAssign, Value: source}
		}
		return Input{Cell: target}

	case g == instr.Not:
		if source != nil {
			return Modify{Cell: DP{}, Op: OpNot, Value: source}
		}
		return Modify{Cell: target, Op: OpNot, Value: Cell{Index: target}}

	case g == instr.LoopOpen:
		return LoopBegin{
			ID:   i,
			Skip: Cond{Cell: target, Equal: true, Value: source},
		}

	case g == instr.LoopClose:
		return LoopEnd{
			ID:     l.pairs[i],
			Repeat: Cond{Cell: target, Equal: false, Value: source},
		}

	case g == instr.SwapData:
		return SwapPtr{}

	case inst.IsJump() && inst.Save:
		return Call{Label: inst.Label, Site: i}

	case inst.IsJump():
		return Goto{Label: inst.Label}

	default:
		return Return{Site: i, Targets: l.targets}
	}
}
