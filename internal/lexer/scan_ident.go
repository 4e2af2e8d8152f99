package lexer

import "nwnsc/internal/token"

func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinue(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	span := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[span.Start:span.End])

	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: span, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: span, Text: text}
}
