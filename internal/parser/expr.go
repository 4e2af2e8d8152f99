package parser

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

// parseExpr parses a full expression at assignment precedence, the entry
// point used everywhere an <expr> production appears (spec.md §4.4).
func (p *Parser) parseExpr() ast.ExprID { return p.parseAssign() }

// parseAssign implements C's right-associative assignment-expression:
// a conditional-expression, optionally followed by an assignment operator
// and another assignment-expression.
func (p *Parser) parseAssign() ast.ExprID {
	left := p.parseTernary()
	if p.cur.Kind.IsAssignOp() {
		op := p.advance()
		right := p.parseAssign()
		span := p.spanOf(left).Cover(p.spanOf(right))
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprAssign, Op: op.Kind, Left: left, Right: right, Span: span})
	}
	return left
}

func (p *Parser) spanOf(id ast.ExprID) source.Span {
	if e := p.unit.Exprs.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

func (p *Parser) parseTernary() ast.ExprID {
	cond := p.parseLogicalOr()
	if _, ok := p.accept(token.Question); ok {
		then := p.parseAssign()
		p.expect(token.Colon)
		els := p.parseAssign()
		span := p.spanOf(cond).Cover(p.spanOf(els))
		id := p.unit.Exprs.New(ast.Expr{Kind: ast.ExprTernary, Base: cond, Left: then, Right: els, Span: span})
		p.foldTernary(id)
		return id
	}
	return cond
}

func (p *Parser) parseBinaryChain(next func() ast.ExprID, kinds ...token.Kind) ast.ExprID {
	left := next()
	for {
		matched := false
		for _, k := range kinds {
			if p.cur.Kind == k {
				matched = true
				break
			}
		}
		if !matched {
			return left
		}
		op := p.advance()
		right := next()
		span := p.spanOf(left).Cover(p.spanOf(right))
		id := p.unit.Exprs.New(ast.Expr{Kind: ast.ExprBinary, Op: op.Kind, Left: left, Right: right, Span: span})
		p.foldBinary(id)
		left = id
	}
}

func (p *Parser) parseLogicalOr() ast.ExprID {
	return p.parseBinaryChain(p.parseLogicalAnd, token.OrOr)
}
func (p *Parser) parseLogicalAnd() ast.ExprID {
	return p.parseBinaryChain(p.parseBitOr, token.AndAnd)
}
func (p *Parser) parseBitOr() ast.ExprID { return p.parseBinaryChain(p.parseBitXor, token.Pipe) }
func (p *Parser) parseBitXor() ast.ExprID {
	return p.parseBinaryChain(p.parseBitAnd, token.Caret)
}
func (p *Parser) parseBitAnd() ast.ExprID { return p.parseBinaryChain(p.parseEquality, token.Amp) }
func (p *Parser) parseEquality() ast.ExprID {
	return p.parseBinaryChain(p.parseRelational, token.EqEq, token.BangEq)
}
func (p *Parser) parseRelational() ast.ExprID {
	return p.parseBinaryChain(p.parseShift, token.Lt, token.LtEq, token.Gt, token.GtEq)
}
func (p *Parser) parseShift() ast.ExprID {
	return p.parseBinaryChain(p.parseAdditive, token.Shl, token.Shr)
}
func (p *Parser) parseAdditive() ast.ExprID {
	return p.parseBinaryChain(p.parseMultiplicative, token.Plus, token.Minus)
}
func (p *Parser) parseMultiplicative() ast.ExprID {
	return p.parseBinaryChain(p.parseUnary, token.Star, token.Slash, token.Percent)
}

func (p *Parser) parseUnary() ast.ExprID {
	switch p.cur.Kind {
	case token.Minus, token.Bang, token.Tilde:
		op := p.advance()
		operand := p.parseUnary()
		span := op.Span.Cover(p.spanOf(operand))
		id := p.unit.Exprs.New(ast.Expr{Kind: ast.ExprUnary, Op: op.Kind, Left: operand, Span: span})
		p.foldUnary(id)
		return id
	case token.PlusPlus, token.MinusMinus:
		op := p.advance()
		operand := p.parseUnary()
		span := op.Span.Cover(p.spanOf(operand))
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprUnary, Op: op.Kind, Left: operand, Span: span})
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() ast.ExprID {
	e := p.parsePrimary()
	for {
		switch p.cur.Kind {
		case token.PlusPlus, token.MinusMinus:
			op := p.advance()
			span := p.spanOf(e).Cover(op.Span)
			e = p.unit.Exprs.New(ast.Expr{Kind: ast.ExprUnary, Op: op.Kind, Left: e, Postfix: true, Span: span})
		case token.LParen:
			e = p.parseCallTail(e)
		case token.LBracket:
			p.advance()
			idx := p.parseExpr()
			end := p.expect(token.RBracket)
			span := p.spanOf(e).Cover(end.Span)
			e = p.unit.Exprs.New(ast.Expr{Kind: ast.ExprIndex, Base: e, Index: idx, Span: span})
		case token.Dot:
			p.advance()
			name := p.expect(token.Ident)
			span := p.spanOf(e).Cover(name.Span)
			e = p.unit.Exprs.New(ast.Expr{Kind: ast.ExprMember, Base: e, Member: name.Text, Span: span})
		default:
			return e
		}
	}
}

// parseCallTail parses "( args )" once the callee expression callee (a
// bare ExprName, per spec.md §4.4's grammar — NWScript has no function
// pointers or first-class call expressions beyond direct name calls) has
// already been parsed.
func (p *Parser) parseCallTail(callee ast.ExprID) ast.ExprID {
	open := p.expect(token.LParen)
	var args []ast.ExprID
	if !p.at(token.RParen) {
		args = append(args, p.parseExpr())
		for {
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
			args = append(args, p.parseExpr())
		}
	}
	close := p.expect(token.RParen)
	_ = open
	name := ""
	if ce := p.unit.Exprs.Get(callee); ce != nil {
		name = ce.Name
	}
	span := p.spanOf(callee).Cover(close.Span)
	return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprCall, Name: name, Args: args, Span: span})
}

func (p *Parser) parsePrimary() ast.ExprID {
	switch p.cur.Kind {
	case token.IntLit:
		t := p.advance()
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprIntLit, IVal: t.IVal, ConstValid: true, ConstI: t.IVal, Span: t.Span})
	case token.FloatLit:
		t := p.advance()
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprFloatLit, FVal: t.FVal, ConstValid: true, ConstF: t.FVal, Span: t.Span})
	case token.StringLit:
		t := p.advance()
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprStringLit, SVal: t.SVal, ConstValid: true, ConstS: t.SVal, Span: t.Span})
	case token.Ident:
		t := p.advance()
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprName, Name: t.Text, Span: t.Span})
	case token.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RParen)
		return e
	case token.LBracket:
		return p.parseVectorLit()
	default:
		p.errorf(diag.ParseUnexpectedToken, p.cur.Span, "unexpected token %s in expression", p.cur.Kind)
		t := p.advance()
		return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprInvalid, Span: t.Span})
	}
}

// parseVectorLit parses "[x, y, z]" literal sugar for a vector value.
func (p *Parser) parseVectorLit() ast.ExprID {
	open := p.expect(token.LBracket)
	x := p.parseExpr()
	p.expect(token.Comma)
	y := p.parseExpr()
	p.expect(token.Comma)
	z := p.parseExpr()
	close := p.expect(token.RBracket)
	span := open.Span.Cover(close.Span)
	return p.unit.Exprs.New(ast.Expr{Kind: ast.ExprVectorLit, Vec: [3]ast.ExprID{x, y, z}, Span: span})
}
