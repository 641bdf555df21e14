package core

import (
	"errors"
	"fmt"
	"io"

	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/program"
)

// ErrUnknownGlyph means an instruction carries a glyph the emulator has no
// behavior for. Decoded programs never contain one.
var ErrUnknownGlyph = errors.New("unknown glyph")

type coreState struct {
	DP, ShadowDP int
	IP, ShadowIP int
	Memory       []byte
}

type instFunc func(inst instr.Instruction, r Resolved, state *coreState) error

type instEmulator struct {
	prog *program.Program
	in   InputSource
	out  OutputSink
	eof  byte

	funcs   map[instr.Glyph]instFunc
	matches map[int]int
}

func newInstEmulator(
	prog *program.Program,
	in InputSource,
	out OutputSink,
	eof byte,
) *instEmulator {
	i := &instEmulator{
		prog:    prog,
		in:      in,
		out:     out,
		eof:     eof,
		matches: make(map[int]int),
	}

	i.funcs = map[instr.Glyph]instFunc{
		instr.MoveRight:  i.runMove(1),
		instr.MoveLeft:   i.runMove(-1),
		instr.Inc:        i.runCombine,
		instr.Dec:        i.runCombine,
		instr.Output:     i.runOutput,
		instr.Input:      i.runInput,
		instr.LoopOpen:   i.runLoopOpen,
		instr.LoopClose:  i.runLoopClose,
		instr.Not:        i.runNot,
		instr.And:        i.runCombine,
		instr.Or:         i.runCombine,
		instr.Xor:        i.runCombine,
		instr.ShiftRight: i.runCombine,
		instr.ShiftLeft:  i.runCombine,
		instr.SwapData:   i.runSwapData,
		instr.SwapInst:   i.runSwapInst,
	}

	return i
}

// RunInst applies one instruction to the state. The instruction pointer is
// left one before the next instruction to run; the caller advances it.
func (i *instEmulator) RunInst(inst instr.Instruction, state *coreState) error {
	f, ok := i.funcs[inst.Glyph]
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownGlyph, byte(inst.Glyph))
	}

	r := Resolve(inst, state.DP, state.ShadowDP, state.Memory)
	return f(inst, r, state)
}

func (i *instEmulator) runMove(sign int) instFunc {
	return func(_ instr.Instruction, r Resolved, state *coreState) error {
		if r.HasTarget {
			state.DP = r.Target
			return nil
		}

		state.DP = instr.Wrap(state.DP+sign*r.Source, len(state.Memory))
		return nil
	}
}

func (i *instEmulator) runCombine(inst instr.Instruction, r Resolved, state *coreState) error {
	cell := &state.Memory[r.Target]
	*cell = instr.Combine(inst.Glyph, *cell, r.Source)
	return nil
}

func (i *instEmulator) runOutput(_ instr.Instruction, r Resolved, state *coreState) error {
	if r.HasTarget {
		state.Memory[r.Target] = state.Memory[state.DP]
		return nil
	}

	if i.out == nil {
		return nil
	}

	if err := i.out.WriteByte(byte(r.Source)); err != nil {
		return fmt.Errorf("output: %w", err)
	}

	return nil
}

func (i *instEmulator) runInput(_ instr.Instruction, r Resolved, state *coreState) error {
	if r.HasSource {
		state.Memory[state.DP] = byte(r.Source)
		return nil
	}

	b, err := i.readByte()
	if err != nil {
		return err
	}

	state.Memory[r.Target] = b
	return nil
}

// readByte reads one input byte. Exhausted input yields the EOF sentinel.
func (i *instEmulator) readByte() (byte, error) {
	if i.in == nil {
		return i.eof, nil
	}

	b, err := i.in.ReadByte()
	if errors.Is(err, io.EOF) {
		return i.eof, nil
	}

	if err != nil {
		return 0, fmt.Errorf("input: %w", err)
	}

	return b, nil
}

func (i *instEmulator) runLoopOpen(_ instr.Instruction, r Resolved, state *coreState) error {
	if int(state.Memory[r.Target]) != r.Source {
		return nil
	}

	return i.jumpToPartner(state)
}

func (i *instEmulator) runLoopClose(_ instr.Instruction, r Resolved, state *coreState) error {
	if int(state.Memory[r.Target]) == r.Source {
		return nil
	}

	return i.jumpToPartner(state)
}

// jumpToPartner moves the instruction pointer onto the partner bracket, so
// the common increment lands just past it.
func (i *instEmulator) jumpToPartner(state *coreState) error {
	partner, ok := i.matches[state.IP]
	if !ok {
		var err error
		partner, err = program.MatchBracket(i.prog, state.IP)
		if err != nil {
			return err
		}

		i.matches[state.IP] = partner
	}

	state.IP = partner
	return nil
}

func (i *instEmulator) runNot(_ instr.Instruction, r Resolved, state *coreState) error {
	if r.HasSource {
		state.Memory[state.DP] = ^byte(r.Source)
		return nil
	}

	state.Memory[r.Target] = ^state.Memory[r.Target]
	return nil
}

func (i *instEmulator) runSwapData(_ instr.Instruction, _ Resolved, state *coreState) error {
	state.DP, state.ShadowDP = state.ShadowDP, state.DP
	return nil
}

func (i *instEmulator) runSwapInst(inst instr.Instruction, _ Resolved, state *coreState) error {
	if !inst.IsJump() {
		state.IP, state.ShadowIP = state.ShadowIP, state.IP
		return nil
	}

	target, ok := i.prog.Labels.Lookup(inst.Label)
	if !ok {
		return fmt.Errorf("%w %q", ErrUndefinedLabel, inst.Label)
	}

	if inst.Save {
		state.ShadowIP = state.IP
	}

	state.IP = target - 1
	return nil
}
