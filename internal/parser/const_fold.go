package parser

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/token"
)

// foldBinary reduces id in place to an int/float/string literal when both
// operands already folded to constants, per spec.md §4.4 "Constant
// folding". It only handles the operators whose operands can themselves
// be literals at parse time (int/float arithmetic, string concatenation);
// sema's evalConstFallback extends this after name resolution lets
// const-qualified identifiers participate too.
func (p *Parser) foldBinary(id ast.ExprID) {
	e := p.unit.Exprs.Get(id)
	l := p.unit.Exprs.Get(e.Left)
	r := p.unit.Exprs.Get(e.Right)
	if l == nil || r == nil || !l.ConstValid || !r.ConstValid {
		return
	}

	switch {
	case l.Kind == ast.ExprIntLit && r.Kind == ast.ExprIntLit:
		if v, ok := foldIntOp(e.Op, l.ConstI, r.ConstI); ok {
			e.Kind = ast.ExprIntLit
			e.IVal, e.ConstI = v, v
			e.ConstValid = true
		}
	case l.Kind == ast.ExprFloatLit && r.Kind == ast.ExprFloatLit:
		if v, ok := foldFloatOp(e.Op, l.ConstF, r.ConstF); ok {
			e.Kind = ast.ExprFloatLit
			e.FVal, e.ConstF = v, v
			e.ConstValid = true
		}
	case l.Kind == ast.ExprStringLit && r.Kind == ast.ExprStringLit && e.Op == token.Plus:
		e.Kind = ast.ExprStringLit
		e.SVal = l.ConstS + r.ConstS
		e.ConstS = e.SVal
		e.ConstValid = true
	}
}

func (p *Parser) foldUnary(id ast.ExprID) {
	e := p.unit.Exprs.Get(id)
	operand := p.unit.Exprs.Get(e.Left)
	if operand == nil || !operand.ConstValid {
		return
	}
	switch operand.Kind {
	case ast.ExprIntLit:
		v := operand.ConstI
		switch e.Op {
		case token.Minus:
			v = -v
		case token.Tilde:
			v = ^v
		case token.Bang:
			v = boolToInt32(v == 0)
		default:
			return
		}
		e.Kind = ast.ExprIntLit
		e.IVal, e.ConstI = v, v
		e.ConstValid = true
	case ast.ExprFloatLit:
		if e.Op != token.Minus {
			return
		}
		v := -operand.ConstF
		e.Kind = ast.ExprFloatLit
		e.FVal, e.ConstF = v, v
		e.ConstValid = true
	}
}

func (p *Parser) foldTernary(id ast.ExprID) {
	e := p.unit.Exprs.Get(id)
	cond := p.unit.Exprs.Get(e.Base)
	if cond == nil || !cond.ConstValid || cond.Kind != ast.ExprIntLit {
		return
	}
	var chosen ast.ExprID
	if cond.ConstI != 0 {
		chosen = e.Left
	} else {
		chosen = e.Right
	}
	src := p.unit.Exprs.Get(chosen)
	if src == nil || !src.ConstValid {
		return
	}
	*e = *src
	e.Span = p.spanOf(id)
}

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
	case token.EqEq:
		return boolToInt32(a == b), true
	case token.BangEq:
		return boolToInt32(a != b), true
	case token.Lt:
		return boolToInt32(a < b), true
	case token.LtEq:
		return boolToInt32(a <= b), true
	case token.Gt:
		return boolToInt32(a > b), true
	case token.GtEq:
		return boolToInt32(a >= b), true
	case token.AndAnd:
		return boolToInt32(a != 0 && b != 0), true
	case token.OrOr:
		return boolToInt32(a != 0 || b != 0), true
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

func boolToInt32(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
