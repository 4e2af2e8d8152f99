// Package preprocess implements the #define/#undef/#ifdef/#ifndef/#if/
// #else/#endif/#include token filter that spec.md §4.2 describes: a layer
// between the lexer and the parser that performs non-recursive macro
// substitution, tracks conditional-nesting, and inlines #include content
// at the point of inclusion by pushing a fresh lexer frame.
package preprocess

import (
	"fmt"

	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

type savedTok struct {
	tok     token.Token
	atStart bool
}

// frame is one entry in the include stack: the lexer for one file plus
// that file's own #if nesting (which never crosses an #include boundary).
type frame struct {
	lx    *lexer.Lexer
	file  *source.File
	cond  condStack
	saved *savedTok
}

func (f *frame) next() (token.Token, bool) {
	if f.saved != nil {
		s := *f.saved
		f.saved = nil
		return s.tok, s.atStart
	}
	return f.lx.Next()
}

func (f *frame) pushback(tok token.Token, atStart bool) {
	f.saved = &savedTok{tok: tok, atStart: atStart}
}

type pendingItem struct {
	tok     token.Token
	unguard string // non-empty: consuming this item re-enables expansion of this macro name
}

// Preprocessor layers macro expansion, conditional compilation, and
// #include inlining over internal/lexer, presenting a single flattened
// token stream to internal/parser.
type Preprocessor struct {
	fs       *source.FileSet
	opts     lexer.Options
	diags    *diag.Bag
	resolver IncludeResolver

	macros    *macroTable
	expanding map[string]bool

	stack   []*frame
	pending []pendingItem

	// includedFully tracks resource names (case-insensitive, per spec.md
	// §4.2) whose content has completely finished parsing, short-
	// circuiting a later #include of the same name (header-guard idiom).
	includedFully map[string]bool
	// including tracks names currently mid-parse, to raise IncludeCircular
	// the moment a cycle is detected instead of recursing forever.
	including map[string]bool
}

// New returns a Preprocessor whose first frame lexes root. diags may be
// nil to drop diagnostics silently (some tests only check token shape).
func New(fs *source.FileSet, opts lexer.Options, diags *diag.Bag, resolver IncludeResolver, root *source.File) *Preprocessor {
	p := &Preprocessor{
		fs:            fs,
		opts:          opts,
		diags:         diags,
		resolver:      resolver,
		macros:        newMacroTable(),
		expanding:     make(map[string]bool),
		includedFully: make(map[string]bool),
		including:     make(map[string]bool),
	}
	p.including[source.NormalizeResourceName(root.Name)] = true
	p.stack = append(p.stack, &frame{lx: lexer.New(root, opts, diags), file: root})
	return p
}

// DefineInitial installs a macro before lexing begins, for callers driving
// -D-style predefined symbols from the CLI/project manifest.
func (p *Preprocessor) DefineInitial(name string) {
	p.macros.define(name, nil)
}

// Next returns the next token the parser should see: already macro-
// expanded, with suppressed conditional branches skipped and #include
// content spliced in inline.
func (p *Preprocessor) Next() (token.Token, error) {
	for {
		if len(p.pending) > 0 {
			item := p.pending[0]
			p.pending = p.pending[1:]
			if item.unguard != "" {
				delete(p.expanding, item.unguard)
				continue
			}
			if item.tok.Kind == token.Ident && !p.expanding[item.tok.Text] {
				if mac, ok := p.macros.lookup(item.tok.Text); ok {
					p.expandInline(mac)
					continue
				}
			}
			return item.tok, nil
		}

		if len(p.stack) == 0 {
			return token.Token{Kind: token.EOF}, nil
		}
		top := p.stack[len(p.stack)-1]
		tok, atStart := top.next()

		if tok.Kind == token.EOF {
			if top.cond.depth() != 0 {
				p.report(diag.PreMismatchedEndif, tok.Span, "missing #endif at end of file")
			}
			if len(p.stack) == 1 {
				return tok, nil
			}
			p.finishFrame(top)
			p.stack = p.stack[:len(p.stack)-1]
			continue
		}

		if atStart && tok.Kind == token.Hash {
			if err := p.handleDirective(top); err != nil {
				return token.Token{}, err
			}
			continue
		}

		if !top.cond.active() {
			continue
		}

		if tok.Kind == token.Ident && !p.expanding[tok.Text] {
			if mac, ok := p.macros.lookup(tok.Text); ok {
				p.expandInline(mac)
				continue
			}
		}
		return tok, nil
	}
}

func (p *Preprocessor) finishFrame(f *frame) {
	p.including[source.NormalizeResourceName(f.file.Name)] = false
	p.includedFully[source.NormalizeResourceName(f.file.Name)] = true
}

// expandInline pushes mac's replacement tokens to the front of the pending
// queue, guarded so the same name cannot recursively re-expand inside its
// own expansion (spec.md §4.2 "non-recursive").
func (p *Preprocessor) expandInline(mac Macro) {
	p.expanding[mac.Name] = true
	items := make([]pendingItem, 0, len(mac.Tokens)+1)
	for _, t := range mac.Tokens {
		items = append(items, pendingItem{tok: t})
	}
	items = append(items, pendingItem{unguard: mac.Name})
	p.pending = append(append([]pendingItem{}, items...), p.pending...)
}

func (p *Preprocessor) report(code diag.Code, span source.Span, msg string, args ...any) {
	if p.diags == nil {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	p.diags.Add(diag.Diagnostic{Severity: diag.SevError, Code: code, Message: msg, Primary: span})
}

// rawLine reads tokens from f's underlying lexer, raw (no macro expansion,
// no conditional filtering), until the next token would start a new
// logical line; that lookahead token is pushed back onto f.
func (p *Preprocessor) rawLine(f *frame) []token.Token {
	var toks []token.Token
	for {
		tok, atStart := f.next()
		if tok.Kind == token.EOF {
			return toks
		}
		if atStart {
			f.pushback(tok, atStart)
			return toks
		}
		toks = append(toks, tok)
	}
}

func (p *Preprocessor) rawIdent(f *frame) (string, source.Span, bool) {
	tok, atStart := f.next()
	if atStart {
		f.pushback(tok, atStart)
		return "", tok.Span, false
	}
	if tok.Kind != token.Ident {
		return "", tok.Span, false
	}
	return tok.Text, tok.Span, true
}
