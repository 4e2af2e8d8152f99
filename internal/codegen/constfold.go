package codegen

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// constInt folds a switch-case label to a comparable literal value.
// internal/sema's checkSwitch already verified id evaluates to a
// compile-time constant of the scrutinee's type, so every shape this
// needs to handle is a literal, a const-name reference, or an arithmetic
// combination of those (mirroring internal/sema's own evalConst/
// evalConstFallback, which does not persist its folded result back onto
// the expression node for codegen to reuse).
func (g *generator) constInt(id ast.ExprID) int32 {
	v, _ := g.constIntOK(id)
	return v
}

func (g *generator) constIntOK(id ast.ExprID) (int32, bool) {
	e := g.unit.Exprs.Get(id)
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprIntLit:
		return e.IVal, true
	case ast.ExprName:
		sym := g.table.Get(symbols.SymbolID(e.Sym))
		if sym == nil || sym.Kind != symbols.KindConstant {
			return 0, false
		}
		return sym.ConstI, true
	case ast.ExprUnary:
		v, ok := g.constIntOK(e.Left)
		if !ok {
			return 0, false
		}
		switch e.Op {
		case token.Minus:
			return -v, true
		case token.Tilde:
			return ^v, true
		case token.Bang:
			if v == 0 {
				return 1, true
			}
			return 0, true
		}
		return 0, false
	case ast.ExprBinary:
		l, lok := g.constIntOK(e.Left)
		r, rok := g.constIntOK(e.Right)
		if !lok || !rok {
			return 0, false
		}
		switch e.Op {
		case token.Plus:
			return l + r, true
		case token.Minus:
			return l - r, true
		case token.Star:
			return l * r, true
		case token.Slash:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		case token.Percent:
			if r == 0 {
				return 0, false
			}
			return l % r, true
		case token.Amp:
			return l & r, true
		case token.Pipe:
			return l | r, true
		case token.Caret:
			return l ^ r, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// constFloatOK folds a float-typed constant expression the same way
// constIntOK folds an int-typed one, promoting any int sub-result to
// float so a mixed literal combination like "1 + 2.5" still folds.
func (g *generator) constFloatOK(id ast.ExprID) (float32, bool) {
	e := g.unit.Exprs.Get(id)
	if e == nil {
		return 0, false
	}
	switch e.Kind {
	case ast.ExprFloatLit:
		return e.FVal, true
	case ast.ExprIntLit:
		return float32(e.IVal), true
	case ast.ExprName:
		sym := g.table.Get(symbols.SymbolID(e.Sym))
		if sym == nil || sym.Kind != symbols.KindConstant {
			return 0, false
		}
		if sym.Type.Kind == types.Float {
			return sym.ConstF, true
		}
		if sym.Type.Kind == types.Int {
			return float32(sym.ConstI), true
		}
		return 0, false
	case ast.ExprUnary:
		v, ok := g.constFloatOK(e.Left)
		if !ok || e.Op != token.Minus {
			return 0, false
		}
		return -v, true
	case ast.ExprBinary:
		l, lok := g.constFloatOK(e.Left)
		r, rok := g.constFloatOK(e.Right)
		if !lok || !rok {
			return 0, false
		}
		switch e.Op {
		case token.Plus:
			return l + r, true
		case token.Minus:
			return l - r, true
		case token.Star:
			return l * r, true
		case token.Slash:
			if r == 0 {
				return 0, false
			}
			return l / r, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func (g *generator) constString(id ast.ExprID) string {
	e := g.unit.Exprs.Get(id)
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.ExprStringLit:
		return e.SVal
	case ast.ExprName:
		sym := g.table.Get(symbols.SymbolID(e.Sym))
		if sym == nil || sym.Kind != symbols.KindConstant {
			return ""
		}
		return sym.ConstS
	default:
		return ""
	}
}
