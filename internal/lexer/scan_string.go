package lexer

import (
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"nwnsc/internal/diag"
	"nwnsc/internal/token"
)

// scanString decodes a double-quoted string literal with backslash escapes
// \\ \" \n \r \t, per spec.md §4.1. Non-ASCII bytes are permitted in string
// literals (never in identifiers); Version169 additionally rejects raw C0
// control bytes that Version174 passes through unchanged (Open Question 2).
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening quote

	decoded := make([]byte, 0, 16)
	for {
		if lx.cursor.EOF() {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		b := lx.cursor.Peek()
		if b == '"' {
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{
				Kind: token.StringLit,
				Span: sp,
				Text: string(lx.file.Content[sp.Start:sp.End]),
				SVal: string(decoded),
			}
		}
		if b == '\n' {
			sp := lx.cursor.SpanFrom(start)
			lx.report(diag.LexUnterminatedString, sp, "newline in string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
		}
		if b == '\\' {
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				sp := lx.cursor.SpanFrom(start)
				lx.report(diag.LexUnterminatedString, sp, "unterminated string literal")
				return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.file.Content[sp.Start:sp.End])}
			}
			esc := lx.cursor.Bump()
			switch esc {
			case '\\':
				decoded = append(decoded, '\\')
			case '"':
				decoded = append(decoded, '"')
			case 'n':
				decoded = append(decoded, '\n')
			case 'r':
				decoded = append(decoded, '\r')
			case 't':
				decoded = append(decoded, '\t')
			default:
				mark := lx.cursor.Mark()
				sp := lx.cursor.SpanFrom(mark - 2)
				lx.report(diag.LexUnknownChar, sp, "unknown string escape")
				decoded = append(decoded, esc)
			}
			continue
		}
		if lx.opts.Version == Version169 {
			if isC0Control(b) {
				sp := lx.cursor.SpanFrom(lx.cursor.Mark())
				lx.report(diag.LexUnknownChar, sp, "control byte in string literal")
			} else if b >= 0x80 && !definedInCodepage(b) {
				sp := lx.cursor.SpanFrom(lx.cursor.Mark())
				lx.report(diag.LexUnknownChar, sp, "undefined codepage byte in string literal")
			}
		}
		decoded = append(decoded, b)
		lx.cursor.Bump()
	}
}

func isC0Control(b byte) bool { return b < 0x20 }

// definedInCodepage reports whether b decodes to a real character under the
// Windows-1252 codepage the original 169-era toolchain's string literals
// were authored against. Version174 never calls this: it treats every
// non-ASCII byte as opaque data, while Version169's narrower behavior
// additionally flags codepage gaps (spec.md Open Question 2).
func definedInCodepage(b byte) bool {
	return charmap.Windows1252.DecodeByte(b) != utf8.RuneError
}
