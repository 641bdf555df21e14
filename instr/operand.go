package instr

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// ErrMalformedLiteral is returned for a numeric literal outside the
// decimal/hex/octal grammar.
var ErrMalformedLiteral = errors.New("malformed literal")

// Operand is the literal carried by an addressed form. When Shadow is set the
// operand is the '%' spelling and evaluates to the shadow data pointer at the
// time the instruction runs.
type Operand struct {
	Value  int
	Shadow bool
}

// Lit makes a literal operand.
func Lit(v int) Operand {
	return Operand{Value: v}
}

// ShadowOperand makes the '%' operand.
func ShadowOperand() Operand {
	return Operand{Shadow: true}
}

func (o Operand) String() string {
	if o.Shadow {
		return "%"
	}
	return strconv.Itoa(o.Value)
}

var (
	hexLiteral   = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
	octalLiteral = regexp.MustCompile(`^0[0-7]*$`)
	decLiteral   = regexp.MustCompile(`^[1-9][0-9]*$`)
)

// ParseLiteral parses a signed numeric literal: 0x-prefixed hex, 0-prefixed
// octal, plain decimal, or 0. A leading '-' negates any of them.
func ParseLiteral(s string) (int, error) {
	body := s
	neg := false
	if len(body) > 0 && body[0] == '-' {
		neg = true
		body = body[1:]
	}

	var (
		v   int64
		err error
	)
	switch {
	case hexLiteral.MatchString(body):
		v, err = strconv.ParseInt(body[2:], 16, 64)
	case octalLiteral.MatchString(body):
		v, err = strconv.ParseInt(body, 8, 64)
	case decLiteral.MatchString(body):
		v, err = strconv.ParseInt(body, 10, 64)
	default:
		return 0, fmt.Errorf("%w: %q", ErrMalformedLiteral, s)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrMalformedLiteral, s, err)
	}

	if neg {
		v = -v
	}
	return int(v), nil
}

// ParseOperand parses either a numeric literal or the '%' shadow operand.
func ParseOperand(s string) (Operand, error) {
	if s == "%" {
		return ShadowOperand(), nil
	}
	v, err := ParseLiteral(s)
	if err != nil {
		return Operand{}, err
	}
	return Lit(v), nil
}
