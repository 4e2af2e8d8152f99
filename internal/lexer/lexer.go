// Package lexer turns an 8-bit ASCII byte buffer into a token stream per
// spec.md §4.1: comments and whitespace are skipped, identifiers and
// keywords are classified, and literal payloads are decoded eagerly.
package lexer

import (
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

// Lexer scans one file. It does not know about #include or macros; that is
// the preprocess package's job, layered on top via the TokenSource interface.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	diags  *diag.Bag
	// lineStart tracks whether the next significant token begins a new
	// logical line, i.e. whether a preprocessor directive could start here.
	lineStart bool
}

// New returns a Lexer over file using opts. diags receives LexError
// diagnostics; it may be nil to silently drop them (tests that only check
// token shape do this).
func New(file *source.File, opts Options, diags *diag.Bag) *Lexer {
	return &Lexer{
		file:      file,
		cursor:    NewCursor(file),
		opts:      opts,
		diags:     diags,
		lineStart: true,
	}
}

// Next returns the next significant token and whether it begins a new
// logical line (after only whitespace/comments since the prior newline).
func (lx *Lexer) Next() (token.Token, bool) {
	atStart := lx.skipTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}, atStart
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStart(ch):
		tok = lx.scanIdentOrKeyword()
	case isDigit(ch):
		tok = lx.scanNumber()
	case ch == '.' && isDigit(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString()
	default:
		tok = lx.scanOperator()
	}
	return tok, atStart
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

// skipTrivia consumes whitespace and comments, returning whether a newline
// was crossed (making the following token a logical line start).
func (lx *Lexer) skipTrivia() bool {
	crossedNewline := lx.lineStart
	lx.lineStart = false
	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch {
		case ch == '\n':
			crossedNewline = true
			lx.cursor.Bump()
		case ch == ' ' || ch == '\t' || ch == '\r':
			lx.cursor.Bump()
		case ch == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case ch == '/' && lx.cursor.PeekAt(1) == '*':
			lx.skipBlockComment()
		default:
			return crossedNewline
		}
	}
	return crossedNewline
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Bump()
	for {
		if lx.cursor.EOF() {
			lx.report(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
			return
		}
		if lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == '/' {
			lx.cursor.Bump()
			lx.cursor.Bump()
			return
		}
		lx.cursor.Bump()
	}
}

func (lx *Lexer) report(code diag.Code, span source.Span, msg string) {
	if lx.diags == nil {
		return
	}
	lx.diags.Add(diag.Diagnostic{Severity: diag.SevError, Code: code, Message: msg, Primary: span})
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || isDigit(b)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isHexDigit(b byte) bool {
	return isDigit(b) || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func isOctalDigit(b byte) bool { return b >= '0' && b <= '7' }
