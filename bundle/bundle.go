// Package bundle stores decoded programs as CBOR images, so hosts can ship a
// program without its source text or a decoder.
package bundle

import (
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"

	"github.com/sarchlab/ebf/instr"
	"github.com/sarchlab/ebf/program"
)

// Version is the image format version written by Marshal.
const Version = 1

// ErrBadImage is the kind of every error about a malformed image.
var ErrBadImage = errors.New("bad program image")

// Image is the serialized form of a program.
type Image struct {
	Version      int            `cbor:"1,keyasint"`
	Instructions []Inst         `cbor:"2,keyasint"`
	Labels       map[string]int `cbor:"3,keyasint,omitempty"`
	Config       string         `cbor:"4,keyasint,omitempty"`
}

// Inst is one serialized instruction.
type Inst struct {
	Glyph  uint8  `cbor:"1,keyasint"`
	Mode   uint8  `cbor:"2,keyasint,omitempty"`
	Value  int    `cbor:"3,keyasint,omitempty"`
	Shadow bool   `cbor:"4,keyasint,omitempty"`
	Label  string `cbor:"5,keyasint,omitempty"`
	Save   bool   `cbor:"6,keyasint,omitempty"`
	Pos    int    `cbor:"7,keyasint,omitempty"`
}

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bundle: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a program. Equal programs always give equal bytes.
func Marshal(p *program.Program) ([]byte, error) {
	img := Image{
		Version: Version,
		Labels:  p.Labels,
		Config:  p.Config,
	}

	for _, inst := range p.Instructions {
		img.Instructions = append(img.Instructions, Inst{
			Glyph:  uint8(inst.Glyph),
			Mode:   uint8(inst.Mode),
			Value:  inst.Operand.Value,
			Shadow: inst.Operand.Shadow,
			Label:  inst.Label,
			Save:   inst.Save,
			Pos:    inst.Pos,
		})
	}

	return cborEncMode.Marshal(img)
}

// Unmarshal deserializes and checks a program image.
func Unmarshal(data []byte) (*program.Program, error) {
	var img Image
	if err := cbor.Unmarshal(data, &img); err != nil {
		return nil, fmt.Errorf("bundle: unmarshal image: %w", err)
	}

	if img.Version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadImage, img.Version, Version)
	}

	p := &program.Program{
		Labels: program.LabelTable{},
		Config: img.Config,
	}

	for i, in := range img.Instructions {
		inst := instr.Instruction{
			Glyph:   instr.Glyph(in.Glyph),
			Mode:    instr.Mode(in.Mode),
			Operand: instr.Operand{Value: in.Value, Shadow: in.Shadow},
			Label:   in.Label,
			Save:    in.Save,
			Pos:     in.Pos,
		}

		if err := check(inst); err != nil {
			return nil, fmt.Errorf("%w: instruction %d: %v", ErrBadImage, i, err)
		}

		p.Instructions = append(p.Instructions, inst)
	}

	for name, idx := range img.Labels {
		if idx < 0 || idx > len(p.Instructions) {
			return nil, fmt.Errorf("%w: label %q at %d is out of range", ErrBadImage, name, idx)
		}
		p.Labels[name] = idx
	}

	return p, nil
}

func check(inst instr.Instruction) error {
	if !instr.IsGlyph(byte(inst.Glyph)) {
		return fmt.Errorf("unknown glyph %q", byte(inst.Glyph))
	}

	if inst.Mode.Selector() == "?" {
		return fmt.Errorf("unknown mode %d", inst.Mode)
	}

	if inst.Mode != instr.Implicit && !inst.Glyph.Addressable() {
		return fmt.Errorf("%s takes no addressing mode", inst.Glyph)
	}

	if inst.Label != "" && inst.Glyph != instr.SwapInst {
		return fmt.Errorf("%s cannot carry a label", inst.Glyph)
	}

	return nil
}

// Write writes the image of p to w.
func Write(w io.Writer, p *program.Program) error {
	data, err := Marshal(p)
	if err != nil {
		return err
	}

	_, err = w.Write(data)
	return err
}

// Read reads a whole image from r.
func Read(r io.Reader) (*program.Program, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bundle: read image: %w", err)
	}
	return Unmarshal(data)
}
