package lower

import (
	"fmt"
	"strings"
)

// RenderOptions controls the C text produced by RenderC.
type RenderOptions struct {
	// MemorySize is the number of cells. Zero means 1024.
	MemorySize int

	// CellWidth is the cell size in bits: 8, 16, 32 or 64. Zero means 8.
	// Only 8-bit cells wrap exactly like the interpreter.
	CellWidth int

	// Endianness is "host", "little" or "big", recorded as an
	// EBF_BYTE_ORDER_<NAME> define.
	Endianness string

	// Includes are extra headers, written as given inside #include <...>.
	Includes []string

	// EOF is the byte stored by an input once stdin is exhausted.
	EOF byte

	// InitHook and CleanupHook name C functions called before the first and
	// after the last statement.
	InitHook    string
	CleanupHook string

	// FuncName is the name of the generated function. Empty means "main".
	FuncName string
}

var cellTypes = map[int]string{
	8:  "uint8_t",
	16: "uint16_t",
	32: "uint32_t",
	64: "uint64_t",
}

type renderer struct {
	sb     strings.Builder
	depth  int
	begins map[int]LoopBegin
	ends   map[int]LoopEnd
}

// RenderC renders lowered statements as a self-contained C translation unit.
func RenderC(stmts []Stmt, opts RenderOptions) (string, error) {
	if opts.MemorySize == 0 {
		opts.MemorySize = 1024
	}
	if opts.MemorySize < 0 {
		return "", fmt.Errorf("render: memory size %d", opts.MemorySize)
	}

	if opts.CellWidth == 0 {
		opts.CellWidth = 8
	}
	cellType, ok := cellTypes[opts.CellWidth]
	if !ok {
		return "", fmt.Errorf("render: unsupported cell width %d", opts.CellWidth)
	}

	if opts.Endianness == "" {
		opts.Endianness = "host"
	}
	if opts.FuncName == "" {
		opts.FuncName = "main"
	}

	r := &renderer{
		begins: make(map[int]LoopBegin),
		ends:   make(map[int]LoopEnd),
	}
	for _, s := range stmts {
		switch s := s.(type) {
		case LoopBegin:
			r.begins[s.ID] = s
		case LoopEnd:
			r.ends[s.ID] = s
		}
	}

	r.prelude(opts, cellType)

	r.depth = 1
	if opts.InitHook != "" {
		r.line("%s();", opts.InitHook)
	}

	for _, s := range stmts {
		if err := r.stmt(s); err != nil {
			return "", err
		}
	}

	if opts.CleanupHook != "" {
		r.line("%s();", opts.CleanupHook)
	}
	r.line("return 0;")
	r.depth = 0
	r.line("}")

	return r.sb.String(), nil
}

func (r *renderer) prelude(opts RenderOptions, cellType string) {
	r.line("#include <stdint.h>")
	r.line("#include <stdio.h>")
	for _, inc := range opts.Includes {
		r.line("#include <%s>", inc)
	}
	r.line("")
	r.line("#define EBF_MEM_SIZE %d", opts.MemorySize)
	r.line("#define EBF_EOF %d", opts.EOF)
	r.line("#define EBF_BYTE_ORDER_%s 1", strings.ToUpper(opts.Endianness))
	r.line("#define EBF_WRAP(i) ((((long)(i)) %% EBF_MEM_SIZE + EBF_MEM_SIZE) %% EBF_MEM_SIZE)")
	r.line("#define EBF_SHR(c, n) ((n) < 0 || (n) >= 8 ? 0 : (c) >> (n))")
	r.line("#define EBF_SHL(c, n) ((n) < 0 || (n) >= 8 ? 0 : (c) << (n))")
	r.line("")
	r.line("typedef %s ebf_cell;", cellType)
	r.line("")
	if opts.InitHook != "" {
		r.line("void %s(void);", opts.InitHook)
	}
	if opts.CleanupHook != "" {
		r.line("void %s(void);", opts.CleanupHook)
	}
	r.line("static ebf_cell MEM[EBF_MEM_SIZE];")
	r.line("static long DP, SDP, SIP;")
	r.line("")
	r.line("int %s(void) {", opts.FuncName)
}

func (r *renderer) line(format string, args ...any) {
	r.sb.WriteString(strings.Repeat("    ", r.depth))
	fmt.Fprintf(&r.sb, format, args...)
	r.sb.WriteByte('\n')
}

func (r *renderer) stmt(s Stmt) error {
	switch s := s.(type) {
	case MovePtr:
		r.movePtr(s)
	case Modify:
		r.modify(s)
	case Output:
		r.line("putchar((unsigned char)(%s));", cExpr(s.Value))
	case Input:
		r.line("{ int c = getchar(); %s = c == EOF ? EBF_EOF : (ebf_cell)c; }",
			cCell(s.Cell))
	case LoopBegin:
		r.loopBegin(s)
	case LoopEnd:
		r.loopEnd(s)
	case Label:
		r.line("%s:;", s.Name)
	case Resume:
		r.line("%s:;", resumeLabel(s.Index))
	case Goto:
		r.line("goto %s;", s.Label)
	case Call:
		r.line("SIP = %d;", s.Site)
		r.line("goto %s;", s.Label)
	case Return:
		r.ret(s)
	case SwapPtr:
		r.line("{ long t = DP; DP = SDP; SDP = t; }")
	default:
		return fmt.Errorf("render: unknown statement %T", s)
	}

	return nil
}

func (r *renderer) movePtr(s MovePtr) {
	v := cExpr(s.Value)
	switch s.Op {
	case PtrSet:
		r.line("DP = EBF_WRAP(%s);", v)
	case PtrAdd:
		r.line("DP = EBF_WRAP(DP + %s);", v)
	case PtrSub:
		r.line("DP = EBF_WRAP(DP - %s);", v)
	}
}

func (r *renderer) modify(s Modify) {
	cell := cCell(s.Cell)
	v := cExpr(s.Value)

	switch s.Op {
	case OpAdd:
		r.line("%s += %s;", cell, v)
	case OpSub:
		r.line("%s -= %s;", cell, v)
	case OpAnd:
		r.line("%s &= (uint8_t)(%s);", cell, v)
	case OpOr:
		r.line("%s |= (uint8_t)(%s);", cell, v)
	case OpXor:
		r.line("%s ^= (uint8_t)(%s);", cell, v)
	case OpShr:
		r.line("%s = EBF_SHR(%s, %s);", cell, cell, v)
	case OpShl:
		r.line("%s = EBF_SHL(%s, %s);", cell, cell, v)
	case OpNot:
		r.line("%s = (ebf_cell)~(%s);", cell, v)
	case OpAssign:
		r.line("%s = (ebf_cell)(%s);", cell, v)
	}
}

func (r *renderer) loopBegin(s LoopBegin) {
	if e, ok := r.ends[s.ID]; ok && s.Symmetric(e) {
		r.line("while (%s) {", cCond(e.Repeat))
	} else {
		r.line("if (%s) goto %s;", cCond(s.Skip), loopEndLabel(s.ID))
		r.line("do {")
	}
	r.depth++
}

func (r *renderer) loopEnd(s LoopEnd) {
	r.depth--
	if b, ok := r.begins[s.ID]; ok && b.Symmetric(s) {
		r.line("}")
		return
	}

	r.line("} while (%s);", cCond(s.Repeat))
	r.line("%s:;", loopEndLabel(s.ID))
}

func (r *renderer) ret(s Return) {
	r.line("{")
	r.depth++
	r.line("long site = SIP;")
	r.line("SIP = %d;", s.Site)
	r.line("switch (site + 1) {")
	for _, t := range s.Targets {
		r.line("case %d: goto %s;", t, resumeLabel(t))
	}
	r.line("}")
	r.depth--
	r.line("}")
}

func resumeLabel(idx int) string {
	return fmt.Sprintf("ebf_resume_%d", idx)
}

func loopEndLabel(id int) string {
	return fmt.Sprintf("ebf_loop_end_%d", id)
}

func cCond(c Cond) string {
	op := "!="
	if c.Equal {
		op = "=="
	}
	return fmt.Sprintf("%s %s %s", cCell(c.Cell), op, cExpr(c.Value))
}

func cCell(index Expr) string {
	if _, ok := index.(DP); ok {
		return "MEM[DP]"
	}
	return "MEM[EBF_WRAP(" + cExpr(index) + ")]"
}

func cExpr(e Expr) string {
	switch e := e.(type) {
	case Const:
		if e.Value < 0 {
			return fmt.Sprintf("(%d)", e.Value)
		}
		return fmt.Sprintf("%d", e.Value)
	case DP:
		return "DP"
	case ShadowDP:
		return "SDP"
	case Sum:
		return "(" + cExpr(e.X) + " + " + cExpr(e.Y) + ")"
	case Cell:
		return cCell(e.Index)
	default:
		return "0"
	}
}
