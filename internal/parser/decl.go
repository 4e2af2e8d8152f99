package parser

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// parseGlobalDecl parses one file-scope declaration: a variable
// declaration, a const declaration, a function prototype, or a function
// definition, per spec.md §4.4's translation-unit grammar. The boolean
// result is false when a fatal parse error stopped the declaration short.
func (p *Parser) parseGlobalDecl() (ast.DeclID, bool) {
	start := p.cur.Span
	isConst := false
	if p.at(token.KwConst) {
		isConst = true
		p.advance()
	}

	if !p.startsType() {
		p.errorf(diag.ParseUnexpectedToken, p.cur.Span, "expected a declaration, found %s", p.cur.Kind)
		return ast.NoDeclID, false
	}
	typ := p.parseType()

	name := p.expect(token.Ident)
	if p.fatal {
		return ast.NoDeclID, false
	}

	if p.at(token.LParen) {
		return p.parseFuncTail(start, typ, name.Text)
	}

	kind := ast.DeclVar
	if isConst {
		kind = ast.DeclConst
	}
	init := ast.NoExprID
	if _, ok := p.accept(token.Assign); ok {
		init = p.parseExpr()
	} else if isConst {
		p.errorf(diag.ParseExpectToken, p.cur.Span, "const declaration requires an initializer")
		return ast.NoDeclID, false
	}
	end := p.expect(token.Semicolon)
	if p.fatal {
		return ast.NoDeclID, false
	}
	span := start.Cover(end.Span)
	id := p.unit.Decls.New(ast.Decl{Kind: kind, Span: span, Type: typ, Name: name.Text, Init: init})
	return id, true
}

// parseFuncTail parses "( params ) ;" or "( params ) { body }" once the
// return type and name of a function declaration have already been
// consumed.
func (p *Parser) parseFuncTail(start source.Span, ret types.Type, name string) (ast.DeclID, bool) {
	params, minParams := p.parseParamList()
	if p.fatal {
		return ast.NoDeclID, false
	}

	if _, ok := p.accept(token.Semicolon); ok {
		span := start.Cover(p.prevSpan())
		id := p.unit.Decls.New(ast.Decl{
			Kind: ast.DeclFuncProto, Span: span, Type: ret, Name: name,
			Params: params, MinParams: minParams, Body: ast.NoStmtID,
		})
		return id, true
	}

	body := p.parseCompound()
	if p.fatal {
		return ast.NoDeclID, false
	}
	span := start.Cover(p.spanOfStmt(body))
	id := p.unit.Decls.New(ast.Decl{
		Kind: ast.DeclFuncDef, Span: span, Type: ret, Name: name,
		Params: params, MinParams: minParams, Body: body,
	})
	return id, true
}

// parseParamList parses "( [type name (= default)? , ...] )". Per
// spec.md §4.4 "Default arguments", once one parameter has a default
// every parameter after it must too; minParams counts the leading run of
// parameters without one.
func (p *Parser) parseParamList() ([]ast.Param, int) {
	p.expect(token.LParen)
	var params []ast.Param
	minParams := 0
	seenDefault := false
	if !p.at(token.RParen) && !p.at(token.KwVoid) {
		for {
			pstart := p.cur.Span
			ptyp := p.parseType()
			pname := p.expect(token.Ident)
			if p.fatal {
				break
			}
			def := ast.NoExprID
			if _, ok := p.accept(token.Assign); ok {
				def = p.parseExpr()
				seenDefault = true
			} else if seenDefault {
				p.errorf(diag.ArityMissingDefault, p.cur.Span, "parameter %q must have a default value", pname.Text)
				break
			} else {
				minParams++
			}
			span := pstart.Cover(p.prevSpan())
			params = append(params, ast.Param{Type: ptyp, Name: pname.Text, Default: def, Span: span})
			if _, ok := p.accept(token.Comma); !ok {
				break
			}
		}
	} else if p.at(token.KwVoid) {
		p.advance()
	}
	p.expect(token.RParen)
	return params, minParams
}

func (p *Parser) spanOfStmt(id ast.StmtID) source.Span {
	if s := p.unit.Stmts.Get(id); s != nil {
		return s.Span
	}
	return source.Span{}
}
