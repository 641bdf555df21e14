package program

import (
	"errors"
	"fmt"

	"github.com/sarchlab/ebf/instr"
)

// ErrUnbalanced is the kind of every MismatchError.
var ErrUnbalanced = errors.New("unbalanced bracket")

// ErrNotBracket is returned when MatchBracket is asked about a position that
// does not hold a loop bracket.
var ErrNotBracket = errors.New("not a bracket")

// MismatchError reports a loop bracket without a partner.
type MismatchError struct {
	Index int
	Inst  instr.Instruction
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v: %s at instruction %d (offset %d)",
		ErrUnbalanced, e.Inst, e.Index, e.Inst.Pos)
}

func (e *MismatchError) Unwrap() error {
	return ErrUnbalanced
}

// MatchBracket finds the partner of the bracket at pos. It scans forward from
// '[' or backward from ']', counting brackets of the starting direction up
// and the opposite direction down. Addressing modes play no part in the
// pairing.
func MatchBracket(p *Program, pos int) (int, error) {
	insts := p.Instructions
	if pos < 0 || pos >= len(insts) || !insts[pos].IsBracket() {
		return -1, fmt.Errorf("%w: instruction %d", ErrNotBracket, pos)
	}

	same, other, step := instr.LoopOpen, instr.LoopClose, 1
	if insts[pos].Glyph == instr.LoopClose {
		same, other, step = instr.LoopClose, instr.LoopOpen, -1
	}

	depth := 0
	for i := pos; i >= 0 && i < len(insts); i += step {
		switch insts[i].Glyph {
		case same:
			depth++
		case other:
			depth--
		}

		if depth == 0 {
			return i, nil
		}
	}

	return -1, &MismatchError{Index: pos, Inst: insts[pos]}
}

// MatchAll pairs every bracket of the program in one pass. The result holds
// the partner index for each bracket and -1 for every other instruction. The
// first unpaired bracket in source order is reported.
func MatchAll(p *Program) ([]int, error) {
	insts := p.Instructions
	pairs := make([]int, len(insts))
	var open []int

	for i, inst := range insts {
		pairs[i] = -1

		switch inst.Glyph {
		case instr.LoopOpen:
			open = append(open, i)
		case instr.LoopClose:
			if len(open) == 0 {
				return nil, &MismatchError{Index: i, Inst: inst}
			}
			o := open[len(open)-1]
			open = open[:len(open)-1]
			pairs[o] = i
			pairs[i] = o
		}
	}

	if len(open) > 0 {
		return nil, &MismatchError{Index: open[0], Inst: insts[open[0]]}
	}

	return pairs, nil
}
