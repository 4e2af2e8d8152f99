package preprocess

import (
	"fmt"

	"nwnsc/internal/token"
)

// exprEval evaluates a macro-expanded token list as a constant integer
// expression for #if, per spec.md §4.2 and Testable Property 6 (32-bit
// two's-complement semantics, identical to the folded value the full
// language's constant folder would produce for the same expression).
// Undefined identifiers evaluate to 0, matching the reference compiler's
// treatment of "#if SOME_UNDEFINED_NAME".
type exprEval struct {
	toks []token.Token
	pos  int
}

func evalConstIntExpr(toks []token.Token) (int32, error) {
	e := &exprEval{toks: toks}
	v, err := e.ternary()
	if err != nil {
		return 0, err
	}
	if e.pos != len(e.toks) {
		return 0, fmt.Errorf("unexpected token %q in #if expression", e.peek().Text)
	}
	return v, nil
}

func (e *exprEval) peek() token.Token {
	if e.pos >= len(e.toks) {
		return token.Token{Kind: token.EOF}
	}
	return e.toks[e.pos]
}

func (e *exprEval) advance() token.Token {
	t := e.peek()
	e.pos++
	return t
}

func (e *exprEval) ternary() (int32, error) {
	cond, err := e.logicalOr()
	if err != nil {
		return 0, err
	}
	if e.peek().Kind == token.Question {
		e.advance()
		a, err := e.ternary()
		if err != nil {
			return 0, err
		}
		if e.peek().Kind != token.Colon {
			return 0, fmt.Errorf("expected ':' in #if conditional expression")
		}
		e.advance()
		b, err := e.ternary()
		if err != nil {
			return 0, err
		}
		if cond != 0 {
			return a, nil
		}
		return b, nil
	}
	return cond, nil
}

func (e *exprEval) binary(next func() (int32, error), kinds ...token.Kind) (int32, error) {
	lhs, err := next()
	if err != nil {
		return 0, err
	}
	for {
		op := e.peek().Kind
		matched := false
		for _, k := range kinds {
			if op == k {
				matched = true
				break
			}
		}
		if !matched {
			return lhs, nil
		}
		e.advance()
		rhs, err := next()
		if err != nil {
			return 0, err
		}
		lhs = applyBinary(op, lhs, rhs)
	}
}

func (e *exprEval) logicalOr() (int32, error) {
	return e.binary(e.logicalAnd, token.OrOr)
}
func (e *exprEval) logicalAnd() (int32, error) {
	return e.binary(e.bitOr, token.AndAnd)
}
func (e *exprEval) bitOr() (int32, error) { return e.binary(e.bitXor, token.Pipe) }
func (e *exprEval) bitXor() (int32, error) {
	return e.binary(e.bitAnd, token.Caret)
}
func (e *exprEval) bitAnd() (int32, error) { return e.binary(e.equality, token.Amp) }
func (e *exprEval) equality() (int32, error) {
	return e.binary(e.relational, token.EqEq, token.BangEq)
}
func (e *exprEval) relational() (int32, error) {
	return e.binary(e.shift, token.Lt, token.LtEq, token.Gt, token.GtEq)
}
func (e *exprEval) shift() (int32, error) {
	return e.binary(e.additive, token.Shl, token.Shr)
}
func (e *exprEval) additive() (int32, error) {
	return e.binary(e.multiplicative, token.Plus, token.Minus)
}
func (e *exprEval) multiplicative() (int32, error) {
	return e.binary(e.unary, token.Star, token.Slash, token.Percent)
}

func (e *exprEval) unary() (int32, error) {
	switch e.peek().Kind {
	case token.Minus:
		e.advance()
		v, err := e.unary()
		return -v, err
	case token.Bang:
		e.advance()
		v, err := e.unary()
		if err != nil {
			return 0, err
		}
		if v == 0 {
			return 1, nil
		}
		return 0, nil
	case token.Tilde:
		e.advance()
		v, err := e.unary()
		return ^v, err
	}
	return e.primary()
}

func (e *exprEval) primary() (int32, error) {
	t := e.advance()
	switch t.Kind {
	case token.IntLit:
		return t.IVal, nil
	case token.Ident:
		// Undefined macro names (already expanded by the caller before
		// reaching here) fold to 0.
		return 0, nil
	case token.LParen:
		v, err := e.ternary()
		if err != nil {
			return 0, err
		}
		if e.peek().Kind != token.RParen {
			return 0, fmt.Errorf("expected ')' in #if expression")
		}
		e.advance()
		return v, nil
	default:
		return 0, fmt.Errorf("unexpected token %q in #if expression", t.String())
	}
}

func applyBinary(op token.Kind, a, b int32) int32 {
	switch op {
	case token.Plus:
		return a + b
	case token.Minus:
		return a - b
	case token.Star:
		return a * b
	case token.Slash:
		if b == 0 {
			return 0
		}
		return a / b
	case token.Percent:
		if b == 0 {
			return 0
		}
		return a % b
	case token.Amp:
		return a & b
	case token.Pipe:
		return a | b
	case token.Caret:
		return a ^ b
	case token.Shl:
		return a << uint32(b)
	case token.Shr:
		return a >> uint32(b)
	case token.EqEq:
		return boolInt(a == b)
	case token.BangEq:
		return boolInt(a != b)
	case token.Lt:
		return boolInt(a < b)
	case token.LtEq:
		return boolInt(a <= b)
	case token.Gt:
		return boolInt(a > b)
	case token.GtEq:
		return boolInt(a >= b)
	case token.AndAnd:
		return boolInt(a != 0 && b != 0)
	case token.OrOr:
		return boolInt(a != 0 || b != 0)
	default:
		return 0
	}
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
