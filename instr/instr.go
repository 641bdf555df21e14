// Package instr defines EBF instructions and the addressing-mode algebra that
// both the interpreter and the lowering pass share.
package instr

import (
	"fmt"
	"strings"
)

// Glyph is the single-character opcode of an instruction.
type Glyph byte

// The core glyph set.
const (
	MoveRight  Glyph = '>'
	MoveLeft   Glyph = '<'
	Inc        Glyph = '+'
	Dec        Glyph = '-'
	Output     Glyph = '.'
	Input      Glyph = ','
	LoopOpen   Glyph = '['
	LoopClose  Glyph = ']'
	Not        Glyph = '~'
	SwapData   Glyph = '%'
	SwapInst   Glyph = '!'
	And        Glyph = '&'
	Or         Glyph = '|'
	Xor        Glyph = '^'
	ShiftRight Glyph = '/'
	ShiftLeft  Glyph = '\\'
)

var glyphNames = map[Glyph]string{
	MoveRight:  "MoveRight",
	MoveLeft:   "MoveLeft",
	Inc:        "Inc",
	Dec:        "Dec",
	Output:     "Output",
	Input:      "Input",
	LoopOpen:   "LoopOpen",
	LoopClose:  "LoopClose",
	Not:        "Not",
	SwapData:   "SwapData",
	SwapInst:   "SwapInst",
	And:        "And",
	Or:         "Or",
	Xor:        "Xor",
	ShiftRight: "ShiftRight",
	ShiftLeft:  "ShiftLeft",
}

// IsGlyph reports whether c is one of the core glyphs.
func IsGlyph(c byte) bool {
	_, ok := glyphNames[Glyph(c)]
	return ok
}

// Addressable reports whether the glyph accepts an addressing-mode suffix.
func (g Glyph) Addressable() bool {
	return IsGlyph(byte(g)) && g != SwapData && g != SwapInst
}

// Name returns the mnemonic of the glyph.
func (g Glyph) Name() string {
	if n, ok := glyphNames[g]; ok {
		return n
	}
	return fmt.Sprintf("Glyph(%q)", byte(g))
}

func (g Glyph) String() string {
	return string(rune(g))
}

// Mode selects how an instruction's operand maps to a target cell or a
// source value.
type Mode uint8

// Addressing modes. The @-family relocates the target cell, the #-family
// relocates the source value. See modeSelectors for the source spelling.
const (
	Implicit Mode = iota
	At
	AtDeref
	AtRel
	AtRelDeref
	Hash
	HashDeref
	HashRel
	HashRelDeref
)

var modeSelectors = [...]string{
	Implicit:     "",
	At:           "@",
	AtDeref:      "@*",
	AtRel:        "@:",
	AtRelDeref:   "@:*",
	Hash:         "#",
	HashDeref:    "#*",
	HashRel:      "#:",
	HashRelDeref: "#:*",
}

// ParseMode converts a mode selector such as "@:*" into a Mode.
func ParseMode(sel string) (Mode, bool) {
	for m, s := range modeSelectors {
		if m != int(Implicit) && s == sel {
			return Mode(m), true
		}
	}
	return Implicit, false
}

// Selector returns the source text of the mode.
func (m Mode) Selector() string {
	if int(m) < len(modeSelectors) {
		return modeSelectors[m]
	}
	return "?"
}

func (m Mode) String() string {
	if m == Implicit {
		return "Implicit"
	}
	return m.Selector()
}

// Locus tells which side of an operation a mode relocates.
type Locus uint8

// Loci.
const (
	LocusNone Locus = iota
	LocusTarget
	LocusSource
)

// Locus returns whether the mode relocates the target or the source.
func (m Mode) Locus() Locus {
	switch {
	case m >= At && m <= AtRelDeref:
		return LocusTarget
	case m >= Hash && m <= HashRelDeref:
		return LocusSource
	default:
		return LocusNone
	}
}

// Relative reports whether the operand is added to the data pointer.
func (m Mode) Relative() bool {
	switch m {
	case AtRel, AtRelDeref, HashRel, HashRelDeref:
		return true
	}
	return false
}

// Indirect reports whether the mode carries the '*' dereference marker.
func (m Mode) Indirect() bool {
	switch m {
	case AtDeref, AtRelDeref, HashDeref, HashRelDeref:
		return true
	}
	return false
}

// Instruction is one decoded EBF instruction.
type Instruction struct {
	Glyph   Glyph
	Mode    Mode
	Operand Operand

	// Label is set only on jumps and calls. Save marks a call, which stores
	// the current instruction pointer in the shadow register before jumping.
	Label string
	Save  bool

	// Pos is the byte offset of the instruction in the source text.
	Pos int
}

// IsJump reports whether the instruction is a labeled jump or call.
func (i Instruction) IsJump() bool {
	return i.Glyph == SwapInst && i.Label != ""
}

// IsBracket reports whether the instruction is a loop bracket, in any mode.
func (i Instruction) IsBracket() bool {
	return i.Glyph == LoopOpen || i.Glyph == LoopClose
}

// String renders the instruction in canonical source form.
func (i Instruction) String() string {
	switch {
	case i.IsJump():
		if i.Save {
			return "(!:" + i.Label + ")"
		}
		return "(!" + i.Label + ")"
	case i.Mode == Implicit:
		return i.Glyph.String()
	}

	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteByte(byte(i.Glyph))
	sb.WriteString(i.Mode.Selector())
	sb.WriteString(i.Operand.String())
	sb.WriteByte(')')
	return sb.String()
}

// SameShape reports whether two instructions test the same condition. Loop
// brackets with the same shape pair into a plain while loop.
func (i Instruction) SameShape(o Instruction) bool {
	return i.Mode == o.Mode && i.Operand == o.Operand
}
