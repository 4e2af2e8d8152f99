package parser

import (
	"nwnsc/internal/diag"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// startsType reports whether the current token could begin a type, i.e. a
// declaration rather than an expression statement, per spec.md §4.4's
// translation-unit / declaration grammar.
func (p *Parser) startsType() bool {
	switch p.cur.Kind {
	case token.KwVoid, token.KwInt, token.KwFloat, token.KwString,
		token.KwObject, token.KwVector, token.KwAction, token.KwConst:
		return true
	case token.KwStruct:
		return true // reserved; parseType reports the diagnostic
	case token.Ident:
		_, ok := p.opts.Engine[p.cur.Text]
		return ok
	default:
		return false
	}
}

// parseType consumes a type name and returns its resolved types.Type. The
// const qualifier, when present (an engine extension, spec.md §4.4), is
// reported by the caller since only global/local variable declarations
// accept it, not parameter or return types.
func (p *Parser) parseType() types.Type {
	switch p.cur.Kind {
	case token.KwVoid:
		p.advance()
		return types.TVoid
	case token.KwInt:
		p.advance()
		return types.TInt
	case token.KwFloat:
		p.advance()
		return types.TFloat
	case token.KwString:
		p.advance()
		return types.TString
	case token.KwObject:
		p.advance()
		return types.TObject
	case token.KwVector:
		p.advance()
		return types.TVector
	case token.KwAction:
		p.advance()
		return types.TAction
	case token.KwStruct:
		p.errorf(diag.ParseStructUnsupported, p.cur.Span, "'struct' is reserved and not supported")
		p.advance()
		return types.TVoid
	case token.Ident:
		if idx, ok := p.opts.Engine[p.cur.Text]; ok {
			p.advance()
			return types.EngineType(idx)
		}
		fallthrough
	default:
		p.errorf(diag.ParseUnexpectedToken, p.cur.Span, "expected a type, found %s", p.cur.Kind)
		return types.TVoid
	}
}
