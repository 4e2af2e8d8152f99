// Package parser implements the hand-written recursive-descent grammar
// spec.md §4.4 describes: a translation unit is a sequence of global
// declarations (variables, function prototypes, function definitions),
// expressions follow C precedence, and constant subexpressions are folded
// as they are built. Name resolution and type checking are layered on top
// by internal/sema; this package only builds the shape of the program.
package parser

import (
	"fmt"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

// TokenSource is anything that can feed the parser a flattened,
// macro-expanded token stream — in production, an
// *internal/preprocess.Preprocessor; in unit tests, a bare lexer or a
// canned slice.
type TokenSource interface {
	Next() (token.Token, error)
}

// Options configures grammar-level behavior that spec.md §4.4 gates
// behind the engine-extensions flag, plus the engine-type name table.
type Options struct {
	// Extensions enables const globals of any base type, compound
	// assignment on vectors, and switch on string.
	Extensions bool
	Engine     EngineTypeTable
	// MultiDiagnostic resyncs at the next ';' or '}' after a parse error
	// instead of aborting the unit outright, so the caller sees every
	// syntax error in one pass instead of only the first (spec.md §7).
	// Semantic phases still never run on a unit that had any parse error.
	MultiDiagnostic bool
}

// Parser holds per-unit parsing state: the token source, a one-token
// lookahead buffer, the arena the resulting nodes land in, and the
// diagnostic sink.
type Parser struct {
	src    TokenSource
	diags  *diag.Bag
	opts   Options
	unit   *ast.Unit
	cur      token.Token
	peeked   *token.Token
	fatal    bool
	hadErr   bool
	lastSpan source.Span
}

// New returns a Parser that will append nodes to unit.
func New(src TokenSource, diags *diag.Bag, unit *ast.Unit, opts Options) *Parser {
	p := &Parser{src: src, diags: diags, unit: unit, opts: opts}
	p.advance()
	return p
}

// Fatal reports whether parsing hit an unrecoverable error (spec.md §7:
// "compilation aborts on the first hard error").
func (p *Parser) Fatal() bool { return p.fatal }

// prevSpan returns the span of the token most recently consumed by
// advance(), used when a production needs the end position of something
// already fully parsed but doesn't have a node handle on it (e.g. a
// closing ")" that wasn't kept).
func (p *Parser) prevSpan() source.Span { return p.lastSpan }

func (p *Parser) advance() token.Token {
	prev := p.cur
	p.lastSpan = prev.Span
	if p.peeked != nil {
		p.cur = *p.peeked
		p.peeked = nil
	} else {
		tok, err := p.src.Next()
		if err != nil {
			p.cur = token.Token{Kind: token.EOF}
		} else {
			p.cur = tok
		}
	}
	return prev
}

func (p *Parser) peekNext() token.Token {
	if p.peeked == nil {
		tok, err := p.src.Next()
		if err != nil {
			tok = token.Token{Kind: token.EOF}
		}
		p.peeked = &tok
	}
	return *p.peeked
}

func (p *Parser) at(k token.Kind) bool { return p.cur.Kind == k }

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.cur.Kind == k {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes a token of kind k or reports ParseExpectToken and marks
// the unit fatal (spec.md §7: a parse error aborts the unit).
func (p *Parser) expect(k token.Kind) token.Token {
	if p.cur.Kind == k {
		return p.advance()
	}
	p.errorf(diag.ParseExpectToken, p.cur.Span, "expected %s, found %s", k, p.cur.Kind)
	return p.cur
}

func (p *Parser) errorf(code diag.Code, span source.Span, format string, args ...any) {
	p.fatal = true
	p.hadErr = true
	if p.diags == nil {
		return
	}
	p.diags.Add(diag.Diagnostic{Severity: diag.SevError, Code: code, Message: fmt.Sprintf(format, args...), Primary: span})
}

// HadError reports whether any parse error was seen, even if
// MultiDiagnostic let parsing continue past it. The façade never runs
// sema/codegen on a unit where this is true.
func (p *Parser) HadError() bool { return p.hadErr }

// ParseUnit parses a full translation unit: every top-level declaration in
// order, until EOF or the first fatal error. The declarations parsed so
// far stay in the unit even on error, since the caller (sema/façade) needs the
// location of the failure, not a fully nil tree.
func (p *Parser) ParseUnit() {
	for !p.at(token.EOF) && !p.fatal {
		id, ok := p.parseGlobalDecl()
		if !ok {
			if !p.opts.MultiDiagnostic {
				return
			}
			p.fatal = false
			p.resync()
			continue
		}
		p.unit.TopLevel = append(p.unit.TopLevel, id)
	}
}

// resync consumes tokens until the next statement boundary (';' or '}')
// so that, when multi-diagnostic mode is enabled, later declarations can
// still be parsed (spec.md §7).
func (p *Parser) resync() {
	for !p.at(token.EOF) {
		if p.at(token.Semicolon) {
			p.advance()
			return
		}
		if p.at(token.RBrace) {
			p.advance()
			return
		}
		p.advance()
	}
}
