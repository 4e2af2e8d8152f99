package sema

import (
	"fmt"

	"nwnsc/internal/ast"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// constValue is a folded compile-time constant of one of the three
// literal-bearing base types (spec.md §4.4 "Default arguments" and
// "Constant folding" both require this for parameters, const globals,
// and case labels).
type constValue struct {
	i int32
	f float32
	s string
}

// key renders the value for use as a switch-case duplicate-detection map
// key, typed by t so an int 0 and a float 0.0 are never conflated (not
// that mixed-type case labels are legal, but defense in depth costs
// nothing here).
func (v constValue) key(t types.Type) string {
	switch t.Kind {
	case types.Float:
		return fmt.Sprintf("f:%v", v.f)
	case types.String:
		return "s:" + v.s
	default:
		return fmt.Sprintf("i:%d", v.i)
	}
}

// evalConst evaluates e as a compile-time constant of type want, per
// spec.md §4.4: a literal, a folded literal (the parser already folds
// literal arithmetic), or a reference to a previously declared const
// symbol. It does not itself fold arbitrary expressions — by the time
// sema runs, the parser's constant folder has already reduced every
// foldable literal subexpression, so this only needs to recognize the
// result plus bare const-name references (spec.md §3: "default
// expressions... must themselves be compile-time constants or
// references to constant declarations").
func (c *checker) evalConst(id ast.ExprID, want types.Type) (constValue, bool) {
	e := c.unit.Exprs.Get(id)
	if e == nil {
		return constValue{}, false
	}

	switch e.Kind {
	case ast.ExprIntLit:
		c.checkExpr(id)
		return c.coerceConst(constValue{i: e.IVal}, types.TInt, want)
	case ast.ExprFloatLit:
		c.checkExpr(id)
		return c.coerceConst(constValue{f: e.FVal}, types.TFloat, want)
	case ast.ExprStringLit:
		c.checkExpr(id)
		return c.coerceConst(constValue{s: e.SVal}, types.TString, want)
	case ast.ExprName:
		symID, sym, ok := c.table.Lookup(e.Name)
		if !ok || sym.Kind != symbols.KindConstant {
			return constValue{}, false
		}
		e.Sym = uint32(symID)
		e.Type = sym.Type
		return c.coerceConst(constValue{i: sym.ConstI, f: sym.ConstF, s: sym.ConstS}, sym.Type, want)
	default:
		// Covers the rare case where the parser left an unfolded
		// constant binary/unary/ternary node (e.g. an operand that
		// only became constant after name resolution, such as
		// "const int Y = X + 1" referencing an earlier const X).
		return c.evalConstFallback(id, want)
	}
}

// evalConstFallback folds binary/unary/ternary nodes whose operands
// became constant only after name resolution (the parser's own folder
// only sees bare literals, since it runs before symbols exist).
func (c *checker) evalConstFallback(id ast.ExprID, want types.Type) (constValue, bool) {
	e := c.unit.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprBinary:
		l, lok := c.evalConst(e.Left, types.Type{})
		r, rok := c.evalConst(e.Right, types.Type{})
		if !lok || !rok {
			return constValue{}, false
		}
		lt := c.unit.Exprs.Get(e.Left).Type
		if lt.Kind == types.Int {
			if v, ok := foldIntOp(e.Op, l.i, r.i); ok {
				c.unit.Exprs.Get(id).Type = types.TInt
				return c.coerceConst(constValue{i: v}, types.TInt, want)
			}
		}
		if lt.Kind == types.Float {
			if v, ok := foldFloatOp(e.Op, l.f, r.f); ok {
				c.unit.Exprs.Get(id).Type = types.TFloat
				return c.coerceConst(constValue{f: v}, types.TFloat, want)
			}
		}
		return constValue{}, false
	case ast.ExprUnary:
		operand, ok := c.evalConst(e.Left, types.Type{})
		if !ok {
			return constValue{}, false
		}
		operandType := c.unit.Exprs.Get(e.Left).Type
		return c.foldUnaryConst(e, operand, operandType, want)
	case ast.ExprTernary:
		cond, ok := c.evalConst(e.Base, types.TInt)
		if !ok {
			return constValue{}, false
		}
		if cond.i != 0 {
			return c.evalConst(e.Left, want)
		}
		return c.evalConst(e.Right, want)
	default:
		return constValue{}, false
	}
}

func (c *checker) foldUnaryConst(e *ast.Expr, v constValue, t, want types.Type) (constValue, bool) {
	switch t.Kind {
	case types.Int:
		switch e.Op {
		case token.Minus:
			v.i = -v.i
		case token.Tilde:
			v.i = ^v.i
		case token.Bang:
			v.i = boolToInt32(v.i == 0)
		default:
			return constValue{}, false
		}
	case types.Float:
		if e.Op != token.Minus {
			return constValue{}, false
		}
		v.f = -v.f
	default:
		return constValue{}, false
	}
	return c.coerceConst(v, t, want)
}

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

// coerceConst applies the int-to-float widening rule to a constant,
// mirroring assignable for runtime values.
func (c *checker) coerceConst(v constValue, have, want types.Type) (constValue, bool) {
	if want.Kind == types.Invalid || have == want {
		return v, true
	}
	if want.Kind == types.Float && have.Kind == types.Int {
		v.f = float32(v.i)
		return v, true
	}
	return v, false
}

// foldIntOp and foldFloatOp mirror internal/parser's constant folder
// (spec.md §4.4) so that const names participating in arithmetic still
// fold once they're resolved — something the parser, which runs before
// name resolution, cannot do itself.
func foldIntOp(op token.Kind, a, b int32) (int32, bool) {
	switch op {
	case token.Plus:
		return a + b, true
	case token.Minus:
		return a - b, true
	case token.Star:
		return a * b, true
	case token.Slash:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	case token.Percent:
		if b == 0 {
			return 0, false
		}
		return a % b, true
	case token.Amp:
		return a & b, true
	case token.Pipe:
		return a | b, true
	case token.Caret:
		return a ^ b, true
	case token.Shl:
		return a << uint32(b), true
	case token.Shr:
		return a >> uint32(b), true
	default:
		return 0, false
	}
}

func foldFloatOp(op token.Kind, a, b float32) (float32, bool) {
	switch op {
	case token.Plus:
		return a + b, true
	case token.Minus:
		return a - b, true
	case token.Star:
		return a * b, true
	case token.Slash:
		if b == 0 {
			return 0, false
		}
		return a / b, true
	default:
		return 0, false
	}
}
