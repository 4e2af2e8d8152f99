package lexer

import (
	"strconv"

	"nwnsc/internal/diag"
	"nwnsc/internal/token"
)

// scanNumber decodes decimal, 0x hex, and 0-prefixed octal integer
// literals, plus float literals requiring a decimal point or exponent and
// an optional trailing 'f', per spec.md §4.1.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()

	if lx.cursor.Peek() == '0' && (lx.cursor.PeekAt(1) == 'x' || lx.cursor.PeekAt(1) == 'X') {
		lx.cursor.Bump()
		lx.cursor.Bump()
		digitsStart := lx.cursor.Mark()
		for !lx.cursor.EOF() && isHexDigit(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		span := lx.cursor.SpanFrom(start)
		text := string(lx.file.Content[span.Start:span.End])
		if lx.cursor.Mark() == digitsStart {
			lx.report(diag.LexBadNumber, span, "hex literal has no digits")
			return token.Token{Kind: token.IntLit, Span: span, Text: text}
		}
		v, _ := strconv.ParseUint(string(lx.file.Content[digitsStart:lx.cursor.Off]), 16, 64)
		return token.Token{Kind: token.IntLit, Span: span, Text: text, IVal: int32(uint32(v))}
	}

	isFloat := false
	for !lx.cursor.EOF() && isDigit(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if !lx.cursor.EOF() && lx.cursor.Peek() == '.' && isDigit(lx.cursor.PeekAt(1)) {
		isFloat = true
		lx.cursor.Bump()
		for !lx.cursor.EOF() && isDigit(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	} else if !lx.cursor.EOF() && lx.cursor.Peek() == '.' {
		// "1." with no trailing digit is still a float literal.
		peekNext := lx.cursor.PeekAt(1)
		if peekNext != '.' {
			isFloat = true
			lx.cursor.Bump()
		}
	}
	if !lx.cursor.EOF() && (lx.cursor.Peek() == 'e' || lx.cursor.Peek() == 'E') {
		save := lx.cursor
		lx.cursor.Bump()
		if lx.cursor.Peek() == '+' || lx.cursor.Peek() == '-' {
			lx.cursor.Bump()
		}
		if isDigit(lx.cursor.Peek()) {
			isFloat = true
			for !lx.cursor.EOF() && isDigit(lx.cursor.Peek()) {
				lx.cursor.Bump()
			}
		} else {
			lx.cursor = save
		}
	}

	digitsSpan := lx.cursor.SpanFrom(start)
	hasFSuffix := false
	if !lx.cursor.EOF() && (lx.cursor.Peek() == 'f' || lx.cursor.Peek() == 'F') {
		hasFSuffix = true
		isFloat = true
		lx.cursor.Bump()
	}

	span := lx.cursor.SpanFrom(start)
	text := string(lx.file.Content[span.Start:span.End])

	if isFloat {
		numText := string(lx.file.Content[digitsSpan.Start:digitsSpan.End])
		f, err := strconv.ParseFloat(numText, 32)
		if err != nil {
			lx.report(diag.LexBadNumber, span, "malformed float literal")
		}
		_ = hasFSuffix
		return token.Token{Kind: token.FloatLit, Span: span, Text: text, FVal: float32(f)}
	}

	numText := text
	if len(numText) > 1 && numText[0] == '0' {
		v, err := strconv.ParseUint(numText, 8, 64)
		if err != nil {
			lx.report(diag.LexBadNumber, span, "malformed octal literal")
			return token.Token{Kind: token.IntLit, Span: span, Text: text}
		}
		return token.Token{Kind: token.IntLit, Span: span, Text: text, IVal: int32(uint32(v))}
	}
	v, err := strconv.ParseInt(numText, 10, 64)
	if err != nil {
		lx.report(diag.LexBadNumber, span, "malformed integer literal")
		return token.Token{Kind: token.IntLit, Span: span, Text: text}
	}
	return token.Token{Kind: token.IntLit, Span: span, Text: text, IVal: int32(v)}
}
