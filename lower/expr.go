package lower

import (
	"strconv"

	"github.com/sarchlab/ebf/instr"
)

// Expr is a value computed at run time by lowered code.
type Expr interface {
	String() string
	isExpr()
}

// Const is a literal value.
type Const struct{ Value int }

// DP is the data pointer.
type DP struct{}

// ShadowDP is the shadow data pointer.
type ShadowDP struct{}

// Sum adds two expressions.
type Sum struct{ X, Y Expr }

// Cell reads memory. The index wraps around the memory size at run time.
type Cell struct{ Index Expr }

func (Const) isExpr()    {}
func (DP) isExpr()       {}
func (ShadowDP) isExpr() {}
func (Sum) isExpr()      {}
func (Cell) isExpr()     {}

func (e Const) String() string  { return strconv.Itoa(e.Value) }
func (DP) String() string       { return "DP" }
func (ShadowDP) String() string { return "SDP" }
func (e Sum) String() string    { return "(" + e.X.String() + " + " + e.Y.String() + ")" }
func (e Cell) String() string   { return "MEM[" + e.Index.String() + "]" }

// SameExpr reports whether two expressions compute the same thing.
func SameExpr(a, b Expr) bool {
	return a.String() == b.String()
}

// addrExpr turns an addressing entry into an expression. It is the lowered
// counterpart of instr.Addr.Eval.
func addrExpr(a *instr.Addr) Expr {
	var e Expr = Const{Value: a.Operand.Value}
	if a.Operand.Shadow {
		e = ShadowDP{}
	}

	if a.Relative {
		if c, ok := e.(Const); ok && c.Value == 0 {
			e = DP{}
		} else {
			e = Sum{X: DP{}, Y: e}
		}
	}

	for i := 0; i < a.Derefs; i++ {
		e = Cell{Index: e}
	}

	return e
}
