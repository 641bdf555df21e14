package program

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sarchlab/ebf/instr"
)

// Decode error kinds. Match them with errors.Is.
var (
	ErrUnknownToken     = errors.New("unknown token")
	ErrDuplicateLabel   = errors.New("duplicate label")
	ErrMalformedLiteral = instr.ErrMalformedLiteral
	ErrMultipleConfig   = errors.New("multiple config blocks")
)

// DecodeError reports where decoding failed.
type DecodeError struct {
	Kind   error
	Offset int
	Line   int
	Col    int
	Text   string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%d:%d: %v: %q", e.Line, e.Col, e.Kind, e.Text)
}

func (e *DecodeError) Unwrap() error {
	return e.Kind
}

var (
	configBlock = regexp.MustCompile(`(?ms)^[ \t]*#%\((.*?)\)[ \t]*$`)
	identifier  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

const (
	blockOpen  = "#|"
	blockClose = "|#"
)

type decoder struct {
	src  string
	text []byte
	prog *Program
}

// Decode turns source text into a Program. Comments, the config block and
// label definitions take no instruction slot.
func Decode(source string) (*Program, error) {
	d := &decoder{
		src:  source,
		text: []byte(source),
		prog: &Program{Labels: LabelTable{}},
	}

	if err := d.extractConfig(); err != nil {
		return nil, err
	}
	d.stripComments()

	if err := d.tokenize(); err != nil {
		return nil, err
	}

	return d.prog, nil
}

// MustDecode is Decode for sources known to be valid. It panics on error.
func MustDecode(source string) *Program {
	p, err := Decode(source)
	if err != nil {
		panic(err)
	}
	return p
}

// blank overwrites text[from:to] with spaces, keeping newlines so that
// offsets, lines and columns still point into the original source.
func (d *decoder) blank(from, to int) {
	for i := from; i < to; i++ {
		if d.text[i] != '\n' {
			d.text[i] = ' '
		}
	}
}

func (d *decoder) extractConfig() error {
	blocks := configBlock.FindAllSubmatchIndex(d.text, -1)
	if len(blocks) == 0 {
		return nil
	}
	if len(blocks) > 1 {
		second := blocks[1]
		return d.errorAt(ErrMultipleConfig, second[0], d.src[second[0]:second[1]])
	}

	b := blocks[0]
	d.prog.Config = strings.TrimSpace(d.src[b[2]:b[3]])
	d.blank(b[0], b[1])
	return nil
}

// stripComments blanks block and line comments in one left to right pass. A
// '#' that is the first non-blank character of a line starts a line comment
// unless it opens a block comment.
func (d *decoder) stripComments() {
	lineStart := true
	for i := 0; i < len(d.text); {
		c := d.text[i]
		switch {
		case bytes.HasPrefix(d.text[i:], []byte(blockOpen)):
			end := bytes.Index(d.text[i+len(blockOpen):], []byte(blockClose))
			if end < 0 {
				d.blank(i, len(d.text))
				return
			}
			end += i + len(blockOpen) + len(blockClose)

			if bytes.IndexByte(d.text[i:end], '\n') >= 0 {
				lineStart = true
			}
			d.blank(i, end)
			i = end

		case lineStart && c == '#':
			end := i
			for end < len(d.text) && d.text[end] != '\n' {
				end++
			}
			d.blank(i, end)
			i = end

		case c == '\n':
			lineStart = true
			i++

		case c == ' ' || c == '\t' || c == '\r':
			i++

		default:
			lineStart = false
			i++
		}
	}
}

func (d *decoder) tokenize() error {
	i := 0
	for i < len(d.text) {
		c := d.text[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			end := strings.IndexByte(string(d.text[i:]), ')')
			if end < 0 {
				return d.errorAt(ErrUnknownToken, i, string(d.text[i:]))
			}
			if err := d.parseForm(i, string(d.text[i+1:i+end])); err != nil {
				return err
			}
			i += end + 1
		case instr.IsGlyph(c):
			d.emit(instr.Instruction{Glyph: instr.Glyph(c), Pos: i})
			i++
		default:
			return d.errorAt(ErrUnknownToken, i, string(c))
		}
	}
	return nil
}

// parseForm handles the body of a parenthesized token starting at pos.
func (d *decoder) parseForm(pos int, body string) error {
	text := "(" + body + ")"
	if body == "" {
		return d.errorAt(ErrUnknownToken, pos, text)
	}

	switch body[0] {
	case '@':
		return d.defineLabel(pos, body[1:], text)
	case '!':
		return d.parseJump(pos, body[1:], text)
	}

	g := instr.Glyph(body[0])
	if !g.Addressable() {
		return d.errorAt(ErrUnknownToken, pos, text)
	}

	mode, rest, ok := splitSelector(body[1:])
	if !ok || rest == "" {
		return d.errorAt(ErrUnknownToken, pos, text)
	}

	op, err := instr.ParseOperand(rest)
	if err != nil {
		return d.errorAt(ErrMalformedLiteral, pos, text)
	}

	d.emit(instr.Instruction{Glyph: g, Mode: mode, Operand: op, Pos: pos})
	return nil
}

// splitSelector takes the longest mode selector off the front of s.
func splitSelector(s string) (instr.Mode, string, bool) {
	for n := 3; n >= 1; n-- {
		if len(s) < n {
			continue
		}
		if m, ok := instr.ParseMode(s[:n]); ok {
			return m, s[n:], true
		}
	}
	return instr.Implicit, s, false
}

func (d *decoder) defineLabel(pos int, name, text string) error {
	if !identifier.MatchString(name) {
		return d.errorAt(ErrUnknownToken, pos, text)
	}
	if _, dup := d.prog.Labels[name]; dup {
		return d.errorAt(ErrDuplicateLabel, pos, text)
	}
	d.prog.Labels[name] = len(d.prog.Instructions)
	return nil
}

func (d *decoder) parseJump(pos int, target, text string) error {
	save := strings.HasPrefix(target, ":")
	if save {
		target = target[1:]
	}
	if !identifier.MatchString(target) {
		return d.errorAt(ErrUnknownToken, pos, text)
	}

	d.emit(instr.Instruction{
		Glyph: instr.SwapInst,
		Label: target,
		Save:  save,
		Pos:   pos,
	})
	return nil
}

func (d *decoder) emit(inst instr.Instruction) {
	d.prog.Instructions = append(d.prog.Instructions, inst)
}

func (d *decoder) errorAt(kind error, offset int, text string) *DecodeError {
	line, col := position(d.src, offset)
	return &DecodeError{
		Kind:   kind,
		Offset: offset,
		Line:   line,
		Col:    col,
		Text:   text,
	}
}

// position converts a byte offset into a 1-based line and column.
func position(src string, offset int) (line, col int) {
	if offset > len(src) {
		offset = len(src)
	}
	before := src[:offset]
	line = strings.Count(before, "\n") + 1
	col = offset - strings.LastIndexByte(before, '\n')
	return line, col
}
