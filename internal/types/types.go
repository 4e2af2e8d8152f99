// Package types describes NWScript's closed set of value types: the base
// types (void/int/float/string/object/vector/action) and the ten opaque
// engine-defined handle types, per spec.md §3 "Type". There is no
// user-defined composite type, so unlike a general-purpose language's type
// system this package needs no interner or arena: every Type is a small
// value comparable with ==.
package types

import "fmt"

// Kind tags a Type. Types compare by tag alone (spec.md §3).
type Kind uint8

const (
	Invalid Kind = iota
	Void
	Int
	Float
	String
	Object
	Vector
	Action
	Engine // opaque engine_0..engine_9; Index distinguishes which one
)

// MaxEngineTypes is the number of distinct opaque engine types a script
// may reference (engine_0 .. engine_9).
const MaxEngineTypes = 10

// Type is a tagged value type. Index is only meaningful when Kind == Engine,
// selecting which of the ten engine_N slots this is.
type Type struct {
	Kind  Kind
	Index uint8
}

// Void, Int, Float, String, Object, Vector, and Action are the singleton
// base types; engine types are produced by Engine(idx).
var (
	TVoid   = Type{Kind: Void}
	TInt    = Type{Kind: Int}
	TFloat  = Type{Kind: Float}
	TString = Type{Kind: String}
	TObject = Type{Kind: Object}
	TVector = Type{Kind: Vector}
	TAction = Type{Kind: Action}
)

// EngineType returns the opaque engine_idx type. idx must be < MaxEngineTypes.
func EngineType(idx uint8) Type {
	return Type{Kind: Engine, Index: idx}
}

// IsArithmetic reports whether values of t support + - * / (the int-only
// operators like % and the bitwise ops are gated separately, by sema).
func (t Type) IsArithmetic() bool {
	return t.Kind == Int || t.Kind == Float
}

// IsNumeric is an alias kept for readability at call sites checking the
// int/float promotion rule.
func (t Type) IsNumeric() bool { return t.IsArithmetic() }

// Comparable reports whether == and != are defined for two values of this
// type (spec.md §4.4: "Equality/inequality are defined for identical
// types"); action values are explicitly excluded.
func (t Type) Comparable() bool {
	return t.Kind != Action && t.Kind != Void && t.Kind != Invalid
}

// CoercesToBool reports whether t may appear as a logical-operator operand,
// coerced by "!= 0" (int) or "!= OBJECT_INVALID" (object).
func (t Type) CoercesToBool() bool {
	return t.Kind == Int || t.Kind == Object
}

func (t Type) String() string {
	switch t.Kind {
	case Void:
		return "void"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Object:
		return "object"
	case Vector:
		return "vector"
	case Action:
		return "action"
	case Engine:
		return fmt.Sprintf("engine_%d", t.Index)
	default:
		return "invalid"
	}
}

// StackSlots returns how many 4-byte VM stack slots a value of this type
// occupies: 1 for every scalar, 3 for vector (its three float components),
// 0 for void.
func (t Type) StackSlots() int {
	switch t.Kind {
	case Void:
		return 0
	case Vector:
		return 3
	default:
		return 1
	}
}
