package ast

import (
	"nwnsc/internal/source"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// ExprKind tags an expression node per spec.md §3.
type ExprKind uint8

const (
	ExprInvalid ExprKind = iota
	ExprIntLit
	ExprFloatLit
	ExprStringLit
	ExprVectorLit // [x, y, z] literal sugar; lowered to three float pushes
	ExprObjectLit // OBJECT_SELF / OBJECT_INVALID and friends, resolved as a name
	ExprName
	ExprCall
	ExprUnary
	ExprBinary
	ExprAssign
	ExprIndex
	ExprMember
	ExprTernary
	ExprImplicitCast // int -> float widening inserted by sema
)

// Expr is one node in the expression arena. Only the fields relevant to
// Kind are populated; the rest are zero. Type and Const are filled in by
// internal/sema; the parser leaves them zero.
type Expr struct {
	Kind ExprKind
	Span source.Span
	Type types.Type

	// Literal payloads (ExprIntLit/ExprFloatLit/ExprStringLit).
	IVal int32
	FVal float32
	SVal string

	// ExprVectorLit operands, in (x, y, z) order.
	Vec [3]ExprID

	// ExprName: the raw identifier text; sema resolves it to a symbol ID
	// (stored separately in Sym since the ast package cannot import
	// symbols without creating an import cycle).
	Name string
	Sym  uint32 // symbols.SymbolID, opaque here

	// ExprCall: callee name/symbol (reuses Name/Sym) plus argument list.
	Args []ExprID

	// ExprUnary/ExprBinary/ExprAssign: operator and operand(s).
	Op    token.Kind
	Left  ExprID
	Right ExprID

	// ExprUnary postfix vs prefix (++x vs x++).
	Postfix bool

	// ExprIndex: array/vector base and the index (vector component select
	// by constant 0/1/2 is the only indexing form NWScript's base types
	// support).
	Base  ExprID
	Index ExprID

	// ExprMember: base.Name (vector .x/.y/.z swizzle).
	Member string

	// ExprTernary: cond ? Left : Right (cond reuses Base).
	Cond ExprID

	// Const holds a constant-folder result; ConstValid is true when the
	// parser/sema succeeded in folding this node to a compile-time value
	// (spec.md §4.4 "Constant folding").
	ConstValid bool
	ConstI     int32
	ConstF     float32
	ConstS     string
}

// Exprs is the per-compilation-unit expression arena.
type Exprs struct {
	arena *Arena[Expr]
}

// NewExprs returns an empty expression arena.
func NewExprs(capHint int) *Exprs {
	return &Exprs{arena: NewArena[Expr](capHint)}
}

// New allocates e and returns its ID.
func (es *Exprs) New(e Expr) ExprID { return ExprID(es.arena.Allocate(e)) }

// Get returns the node for id, or nil if id is invalid.
func (es *Exprs) Get(id ExprID) *Expr { return es.arena.Get(uint32(id)) }

// Len returns the number of allocated expression nodes.
func (es *Exprs) Len() uint32 { return es.arena.Len() }

// All exposes every allocated node, in allocation order.
func (es *Exprs) All() []Expr { return es.arena.Slice() }
