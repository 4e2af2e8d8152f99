package parser

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

// parseCompound parses "{ stmt... }", the body of a function or any
// brace-delimited block; every compound introduces a new lexical scope
// (spec.md §3 "Scope"), enforced later by sema, not here.
func (p *Parser) parseCompound() ast.StmtID {
	open := p.expect(token.LBrace)
	var stmts []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.fatal {
		stmts = append(stmts, p.parseStmt())
	}
	close := p.expect(token.RBrace)
	span := open.Span.Cover(close.Span)
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtCompound, Stmts: stmts, Span: span})
}

// parseStmt parses a single statement per spec.md §4.4's statement
// grammar: compound, selection (if), iteration (while/do/for), jump
// (break/continue/return), a local declaration, or a bare expression.
func (p *Parser) parseStmt() ast.StmtID {
	switch p.cur.Kind {
	case token.LBrace:
		return p.parseCompound()
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		return p.parseWhile()
	case token.KwDo:
		return p.parseDoWhile()
	case token.KwFor:
		return p.parseFor()
	case token.KwSwitch:
		return p.parseSwitch()
	case token.KwBreak:
		t := p.advance()
		end := p.expect(token.Semicolon)
		return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtBreak, Span: t.Span.Cover(end.Span)})
	case token.KwContinue:
		t := p.advance()
		end := p.expect(token.Semicolon)
		return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtContinue, Span: t.Span.Cover(end.Span)})
	case token.KwReturn:
		t := p.advance()
		val := ast.NoExprID
		if !p.at(token.Semicolon) {
			val = p.parseExpr()
		}
		end := p.expect(token.Semicolon)
		return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtReturn, Expr: val, Span: t.Span.Cover(end.Span)})
	case token.Semicolon:
		t := p.advance()
		return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtEmpty, Span: t.Span})
	case token.KwConst:
		return p.parseLocalDecl()
	default:
		if p.startsType() {
			return p.parseLocalDecl()
		}
		return p.parseExprStmt()
	}
}

func (p *Parser) parseLocalDecl() ast.StmtID {
	start := p.cur.Span
	id, ok := p.parseGlobalDecl()
	if !ok {
		return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtInvalid, Span: start})
	}
	d := p.unit.Decls.Get(id)
	if d != nil && (d.Kind == ast.DeclFuncProto || d.Kind == ast.DeclFuncDef) {
		p.errorf(diag.ParseUnexpectedToken, d.Span, "function declarations are not allowed inside a block")
	}
	span := start
	if d != nil {
		span = d.Span
	}
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtDecl, Decl: id, Span: span})
}

func (p *Parser) parseExprStmt() ast.StmtID {
	start := p.cur.Span
	e := p.parseExpr()
	end := p.expect(token.Semicolon)
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtExpr, Expr: e, Span: start.Cover(end.Span)})
}

func (p *Parser) parseIf() ast.StmtID {
	start := p.expect(token.KwIf)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	then := p.parseStmt()
	els := ast.NoStmtID
	end := p.spanOfStmt(then)
	if _, ok := p.accept(token.KwElse); ok {
		els = p.parseStmt()
		end = p.spanOfStmt(els)
	}
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtIf, Cond: cond, Then: then, Else: els, Span: start.Span.Cover(end)})
}

func (p *Parser) parseWhile() ast.StmtID {
	start := p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	body := p.parseStmt()
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtWhile, Cond: cond, Body: body, Span: start.Span.Cover(p.spanOfStmt(body))})
}

func (p *Parser) parseDoWhile() ast.StmtID {
	start := p.expect(token.KwDo)
	body := p.parseStmt()
	p.expect(token.KwWhile)
	p.expect(token.LParen)
	cond := p.parseExpr()
	p.expect(token.RParen)
	end := p.expect(token.Semicolon)
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtDo, Cond: cond, Body: body, Span: start.Span.Cover(end.Span)})
}

func (p *Parser) parseFor() ast.StmtID {
	start := p.expect(token.KwFor)
	p.expect(token.LParen)
	init := ast.NoExprID
	if !p.at(token.Semicolon) {
		init = p.parseExpr()
	}
	p.expect(token.Semicolon)
	cond := ast.NoExprID
	if !p.at(token.Semicolon) {
		cond = p.parseExpr()
	}
	p.expect(token.Semicolon)
	post := ast.NoExprID
	if !p.at(token.RParen) {
		post = p.parseExpr()
	}
	p.expect(token.RParen)
	body := p.parseStmt()
	span := start.Span.Cover(p.spanOfStmt(body))
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtFor, Init: init, Cond: cond, Post: post, Body: body, Span: span})
}

// parseSwitch parses "switch (expr) { case c: stmt... default: stmt... }".
// Per spec.md §3 "Statement node", each case/default is its own node with
// the statements that follow it up to the next label, matching C's
// fallthrough semantics (sema enforces constant, non-duplicate case
// values and that case/default only appear directly inside a switch).
func (p *Parser) parseSwitch() ast.StmtID {
	start := p.expect(token.KwSwitch)
	p.expect(token.LParen)
	scrut := p.parseExpr()
	p.expect(token.RParen)
	open := p.expect(token.LBrace)

	var cases []ast.StmtID
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.fatal {
		cstart := p.cur.Span
		switch p.cur.Kind {
		case token.KwCase:
			p.advance()
			val := p.parseExpr()
			p.expect(token.Colon)
			body := p.parseCaseBody()
			span := cstart.Cover(p.caseBodySpan(cstart, body))
			cases = append(cases, p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtCase, CaseValue: val, Stmts: body, Span: span}))
		case token.KwDefault:
			p.advance()
			p.expect(token.Colon)
			body := p.parseCaseBody()
			span := cstart.Cover(p.caseBodySpan(cstart, body))
			cases = append(cases, p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtDefault, Stmts: body, Span: span}))
		default:
			p.errorf(diag.ParseUnexpectedToken, p.cur.Span, "expected 'case' or 'default', found %s", p.cur.Kind)
			return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtInvalid, Span: cstart})
		}
	}
	close := p.expect(token.RBrace)
	_ = open
	return p.unit.Stmts.New(ast.Stmt{Kind: ast.StmtSwitch, Scrutinee: scrut, Cases: cases, Span: start.Span.Cover(close.Span)})
}

// parseCaseBody collects statements following a case/default label up to
// the next label or the closing brace.
func (p *Parser) parseCaseBody() []ast.StmtID {
	var stmts []ast.StmtID
	for !p.at(token.KwCase) && !p.at(token.KwDefault) && !p.at(token.RBrace) && !p.at(token.EOF) && !p.fatal {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *Parser) caseBodySpan(fallback source.Span, stmts []ast.StmtID) source.Span {
	if len(stmts) == 0 {
		return fallback
	}
	return p.unit.Stmts.Get(stmts[len(stmts)-1]).Span
}
