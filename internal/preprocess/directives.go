package preprocess

import (
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

// handleDirective is called with top's lexer positioned just past the '#'
// that opens a logical line (spec.md §4.1: "The lexer recognizes
// preprocessor directive tokens only at the start of a logical line").
func (p *Preprocessor) handleDirective(top *frame) error {
	// "if" and "else" lex as keywords; every other directive name is an Ident.
	tok, atStart := top.next()
	name, span := tok.Text, tok.Span
	ok := !atStart && (tok.Kind == token.Ident || tok.Kind == token.KwIf || tok.Kind == token.KwElse)
	if atStart {
		top.pushback(tok, atStart)
	}
	if !ok {
		p.report(diag.PreUnknownDirective, span, "expected a preprocessor directive name")
		p.drainLine(top)
		return nil
	}

	switch name {
	case "define":
		if top.cond.active() {
			p.doDefine(top)
		} else {
			p.drainLine(top)
		}
	case "undef":
		if top.cond.active() {
			p.doUndef(top)
		} else {
			p.drainLine(top)
		}
	case "ifdef":
		macName, _, _ := p.rawIdent(top)
		top.cond.push(p.macros.defined(macName))
	case "ifndef":
		macName, _, _ := p.rawIdent(top)
		top.cond.push(!p.macros.defined(macName))
	case "if":
		p.doIf(top)
	case "else":
		if !top.cond.else_() {
			p.report(diag.PreMismatchedElse, span, "#else without matching #if/#ifdef/#ifndef")
		}
	case "endif":
		if !top.cond.pop() {
			p.report(diag.PreMismatchedEndif, span, "#endif without matching #if/#ifdef/#ifndef")
		}
	case "include":
		if top.cond.active() {
			p.doInclude(top, span)
		} else {
			p.drainLine(top)
		}
	default:
		p.report(diag.PreUnknownDirective, span, "unknown preprocessor directive %q", name)
		p.drainLine(top)
	}
	return nil
}

func (p *Preprocessor) drainLine(top *frame) { p.rawLine(top) }

func (p *Preprocessor) doDefine(top *frame) {
	name, span, ok := p.rawIdent(top)
	if !ok {
		p.report(diag.PreUnknownDirective, span, "#define requires a name")
		return
	}
	body := p.rawLine(top)
	if existing, had := p.macros.lookup(name); had && !sameTokenText(existing.Tokens, body) {
		p.report(diag.PreRedefinedMacro, span, "macro %q redefined with a different body", name)
	}
	p.macros.define(name, body)
}

func (p *Preprocessor) doUndef(top *frame) {
	name, span, ok := p.rawIdent(top)
	if !ok {
		p.report(diag.PreUnknownDirective, span, "#undef requires a name")
		return
	}
	p.macros.undef(name)
}

func (p *Preprocessor) doIf(top *frame) {
	raw := p.rawLine(top)
	expanded := p.expandConstExprTokens(raw)
	v, err := evalConstIntExpr(expanded)
	if err != nil {
		span := source.Span{}
		if len(raw) > 0 {
			span = raw[0].Span
		}
		p.report(diag.PreBadConditional, span, "malformed #if expression: %v", err)
		top.cond.push(false)
		return
	}
	top.cond.push(v != 0)
}

func (p *Preprocessor) doInclude(top *frame, span source.Span) {
	toks := p.rawLine(top)
	if len(toks) != 1 || toks[0].Kind != token.StringLit {
		p.report(diag.IncludeNotFound, span, "#include expects a single \"name\"")
		return
	}
	name := toks[0].SVal
	norm := source.NormalizeResourceName(name)
	if p.includedFully[norm] {
		return
	}
	if p.including[norm] {
		p.report(diag.IncludeCircular, span, "circular include of %q", name)
		return
	}
	data, err := p.resolver.ResolveInclude(name)
	if err != nil {
		p.report(diag.IncludeNotFound, span, "cannot resolve include %q: %v", name, err)
		return
	}
	fileID := p.fs.Add(name, data, source.FileVirtual)
	f := p.fs.Get(fileID)
	p.including[norm] = true
	p.stack = append(p.stack, &frame{lx: lexer.New(f, p.opts, p.diags), file: f})
}

// expandConstExprTokens macro-expands toks in place, non-recursively per
// name, for use inside a #if expression (spec.md §4.2 feeds #if the same
// macro table as ordinary token expansion).
func (p *Preprocessor) expandConstExprTokens(toks []token.Token) []token.Token {
	var out []token.Token
	expanding := map[string]bool{}
	var walk func([]token.Token)
	walk = func(ts []token.Token) {
		for _, t := range ts {
			if t.Kind == token.Ident && !expanding[t.Text] {
				if mac, ok := p.macros.lookup(t.Text); ok {
					expanding[t.Text] = true
					walk(mac.Tokens)
					expanding[t.Text] = false
					continue
				}
			}
			out = append(out, t)
		}
	}
	walk(toks)
	return out
}

func sameTokenText(a, b []token.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Kind != b[i].Kind || a[i].Text != b[i].Text {
			return false
		}
	}
	return true
}
