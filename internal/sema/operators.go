package sema

import (
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// assignable reports whether a value of type src may be stored into a
// slot of type dst: exact match, or int widening to float (spec.md §4.4
// "Assignment requires compatible types; int-to-float is implicitly
// widened; no narrowing conversions are implicit").
func (c *checker) assignable(dst, src types.Type) bool {
	if dst == src {
		return true
	}
	return dst.Kind == types.Float && src.Kind == types.Int
}

// binaryResult computes the result type of op applied to operands of type
// l and r, or ok=false if the combination is not permitted (spec.md §4.4
// and the NWScript arithmetic/vector/string operator set).
func (c *checker) binaryResult(op token.Kind, l, r types.Type) (types.Type, bool) {
	switch op {
	case token.Plus:
		switch {
		case l.Kind == types.Int && r.Kind == types.Int:
			return types.TInt, true
		case l.Kind == types.Float && r.Kind == types.Float:
			return types.TFloat, true
		case l.Kind == types.Int && r.Kind == types.Float, l.Kind == types.Float && r.Kind == types.Int:
			return types.TFloat, true
		case l.Kind == types.String && r.Kind == types.String:
			return types.TString, true
		case l.Kind == types.Vector && r.Kind == types.Vector:
			return types.TVector, true
		}
		return types.Type{}, false

	case token.Minus:
		switch {
		case l.Kind == types.Int && r.Kind == types.Int:
			return types.TInt, true
		case l.Kind == types.Float && r.Kind == types.Float:
			return types.TFloat, true
		case l.Kind == types.Int && r.Kind == types.Float, l.Kind == types.Float && r.Kind == types.Int:
			return types.TFloat, true
		case l.Kind == types.Vector && r.Kind == types.Vector:
			return types.TVector, true
		}
		return types.Type{}, false

	case token.Star:
		switch {
		case l.Kind == types.Int && r.Kind == types.Int:
			return types.TInt, true
		case l.Kind == types.Float && r.Kind == types.Float:
			return types.TFloat, true
		case l.Kind == types.Int && r.Kind == types.Float, l.Kind == types.Float && r.Kind == types.Int:
			return types.TFloat, true
		case l.Kind == types.Vector && r.Kind == types.Float, l.Kind == types.Float && r.Kind == types.Vector:
			return types.TVector, true
		}
		return types.Type{}, false

	case token.Slash:
		switch {
		case l.Kind == types.Int && r.Kind == types.Int:
			return types.TInt, true
		case l.Kind == types.Float && r.Kind == types.Float:
			return types.TFloat, true
		case l.Kind == types.Int && r.Kind == types.Float, l.Kind == types.Float && r.Kind == types.Int:
			return types.TFloat, true
		case l.Kind == types.Vector && r.Kind == types.Float:
			return types.TVector, true
		}
		return types.Type{}, false

	case token.Percent:
		if l.Kind == types.Int && r.Kind == types.Int {
			return types.TInt, true
		}
		return types.Type{}, false

	case token.Amp, token.Pipe, token.Caret, token.Shl, token.Shr:
		if l.Kind == types.Int && r.Kind == types.Int {
			return types.TInt, true
		}
		return types.Type{}, false

	case token.EqEq, token.BangEq:
		if l == r && l.Comparable() {
			return types.TInt, true
		}
		if l.IsArithmetic() && r.IsArithmetic() {
			return types.TInt, true
		}
		return types.Type{}, false

	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		if l.IsArithmetic() && r.IsArithmetic() {
			return types.TInt, true
		}
		return types.Type{}, false

	case token.AndAnd, token.OrOr:
		if l.CoercesToBool() && r.CoercesToBool() {
			return types.TInt, true
		}
		return types.Type{}, false
	}
	return types.Type{}, false
}

// unaryResult computes the result type of a prefix/postfix unary
// operator applied to operand type t.
func (c *checker) unaryResult(op token.Kind, t types.Type) (types.Type, bool) {
	switch op {
	case token.Minus:
		if t.IsArithmetic() || t.Kind == types.Vector {
			return t, true
		}
	case token.Bang:
		if t.CoercesToBool() {
			return types.TInt, true
		}
	case token.Tilde:
		if t.Kind == types.Int {
			return types.TInt, true
		}
	case token.PlusPlus, token.MinusMinus:
		if t.IsArithmetic() {
			return t, true
		}
	}
	return types.Type{}, false
}

// assignBaseOp returns the arithmetic operator a compound assignment
// operator applies before storing, e.g. PlusEq -> Plus; Assign has no
// base operator.
func assignBaseOp(op token.Kind) (token.Kind, bool) {
	switch op {
	case token.PlusEq:
		return token.Plus, true
	case token.MinusEq:
		return token.Minus, true
	case token.StarEq:
		return token.Star, true
	case token.SlashEq:
		return token.Slash, true
	case token.PercentEq:
		return token.Percent, true
	default:
		return token.Invalid, false
	}
}

// compoundAssignOK reports whether op (a compound assignment operator
// like +=) is valid for destination type dst, given the engine
// extensions flag (spec.md §4.4: "compound assignment on vectors" is an
// extension).
func (c *checker) compoundAssignOK(op token.Kind, dst types.Type) bool {
	if dst.Kind == types.Vector && op != token.Assign {
		return c.opts.Extensions
	}
	return true
}
