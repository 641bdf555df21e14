// Package program decodes EBF source text into an immutable Program and
// pairs its loop brackets.
package program

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sarchlab/ebf/instr"
)

// LabelTable maps a label identifier to the index of the instruction it
// names. An index equal to the program length names the end of the program.
type LabelTable map[string]int

// Lookup returns the index of a label.
func (t LabelTable) Lookup(name string) (int, bool) {
	idx, ok := t[name]
	return idx, ok
}

// At returns the labels defined at an instruction index, sorted by name.
func (t LabelTable) At(idx int) []string {
	var names []string
	for name, i := range t {
		if i == idx {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// ErrUndefinedLabel is the kind of error for a jump or call to a label the
// program never defines.
var ErrUndefinedLabel = errors.New("undefined label")

// Program is a decoded EBF program. It is never modified after Decode returns
// and can be shared by any number of machines and lowering passes.
type Program struct {
	Instructions []instr.Instruction
	Labels       LabelTable

	// Config is the raw body of the #%( ... ) block, if the source had one.
	Config string
}

// Len returns the number of executable instructions.
func (p *Program) Len() int {
	return len(p.Instructions)
}

// String disassembles the program back into canonical source.
func (p *Program) String() string {
	var sb strings.Builder

	if p.Config != "" {
		sb.WriteString("#%(")
		sb.WriteString(p.Config)
		sb.WriteString(")\n")
	}

	for i, inst := range p.Instructions {
		for _, name := range p.Labels.At(i) {
			sb.WriteString("(@" + name + ")")
		}
		sb.WriteString(inst.String())
	}

	for _, name := range p.Labels.At(len(p.Instructions)) {
		sb.WriteString("(@" + name + ")")
	}

	return sb.String()
}

// CheckLabels reports the first jump or call whose label is not defined.
func (p *Program) CheckLabels() error {
	for i, inst := range p.Instructions {
		if !inst.IsJump() {
			continue
		}
		if _, ok := p.Labels.Lookup(inst.Label); !ok {
			return fmt.Errorf("%w %q at instruction %d (offset %d)",
				ErrUndefinedLabel, inst.Label, i, inst.Pos)
		}
	}
	return nil
}
