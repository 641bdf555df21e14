package instr

// Addr computes an index or a value from an operand: start from the operand
// (the literal, or the shadow data pointer for '%'), add the data pointer when
// Relative, then look the result up in memory Derefs times.
type Addr struct {
	Operand  Operand
	Relative bool
	Derefs   int
}

// Const is an Addr that evaluates to v.
func Const(v int) *Addr {
	return &Addr{Operand: Lit(v)}
}

// CellAt is an Addr that evaluates to the byte stored off cells away from the
// data pointer.
func CellAt(off int) *Addr {
	return &Addr{Operand: Lit(off), Relative: true, Derefs: 1}
}

// IsConst reports whether the address is a plain literal.
func (a *Addr) IsConst() bool {
	return !a.Relative && a.Derefs == 0 && !a.Operand.Shadow
}

// Eval evaluates the address against a data pointer, a shadow data pointer
// and memory. Lookups wrap around the memory length.
func (a *Addr) Eval(dp, sdp int, mem []byte) int {
	v := a.Operand.Value
	if a.Operand.Shadow {
		v = sdp
	}
	if a.Relative {
		v += dp
	}
	for i := 0; i < a.Derefs; i++ {
		v = int(mem[Wrap(v, len(mem))])
	}
	return v
}

// Wrap reduces i into [0, n). Negative values wrap from the end.
func Wrap(i, n int) int {
	r := i % n
	if r < 0 {
		r += n
	}
	return r
}

// Access is the resolved shape of an instruction's operands. A nil Target
// means the cell under the data pointer. A nil Source means the glyph takes no
// value (input, unary not, register swaps).
type Access struct {
	Target *Addr
	Source *Addr
}

// modeAddr is the addressing table. The @-family entries yield a target index,
// the #-family entries yield a source value.
func modeAddr(m Mode, op Operand) *Addr {
	switch m {
	case At, Hash:
		return &Addr{Operand: op}
	case AtDeref, HashDeref:
		return &Addr{Operand: op, Derefs: 1}
	case AtRel:
		return &Addr{Operand: op, Relative: true}
	case AtRelDeref, HashRel:
		return &Addr{Operand: op, Relative: true, Derefs: 1}
	case HashRelDeref:
		return &Addr{Operand: op, Relative: true, Derefs: 2}
	default:
		return nil
	}
}

// Operands returns the target and source of an instruction. Every engine
// derives its behavior from this one table, so they cannot disagree on what
// an addressed form means.
func Operands(inst Instruction) Access {
	var acc Access

	addr := modeAddr(inst.Mode, inst.Operand)
	switch inst.Mode.Locus() {
	case LocusTarget:
		acc.Target = addr
	case LocusSource:
		acc.Source = addr
	}

	// Relative pointer moves step by an offset in the glyph's direction
	// instead of landing on an absolute index.
	if inst.Glyph == MoveRight || inst.Glyph == MoveLeft {
		switch inst.Mode {
		case AtRel:
			acc.Target, acc.Source = nil, &Addr{Operand: inst.Operand}
		case AtRelDeref:
			acc.Target, acc.Source = nil, &Addr{Operand: inst.Operand, Relative: true, Derefs: 1}
		}
	}

	if acc.Source != nil {
		return acc
	}

	switch inst.Glyph {
	case Inc, Dec:
		acc.Source = Const(1)
	case MoveRight, MoveLeft:
		if acc.Target == nil {
			acc.Source = Const(1)
		}
	case LoopOpen, LoopClose:
		acc.Source = Const(0)
	case Output:
		acc.Source = CellAt(0)
	case And, Or, Xor:
		if acc.Target != nil {
			acc.Source = CellAt(0)
		} else {
			acc.Source = CellAt(1)
		}
	case ShiftRight, ShiftLeft:
		if acc.Target != nil {
			acc.Source = CellAt(0)
		} else {
			acc.Source = Const(1)
		}
	}

	return acc
}
