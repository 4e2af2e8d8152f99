package ast

import "nwnsc/internal/source"

// StmtKind tags a statement node per spec.md §3.
type StmtKind uint8

const (
	StmtInvalid StmtKind = iota
	StmtDecl
	StmtExpr
	StmtIf
	StmtWhile
	StmtDo
	StmtFor
	StmtSwitch
	StmtCase
	StmtDefault
	StmtBreak
	StmtContinue
	StmtReturn
	StmtCompound
	StmtEmpty
)

// Stmt is one node in the statement arena.
type Stmt struct {
	Kind StmtKind
	Span source.Span

	// StmtDecl: the local variable declaration (reuses DeclID).
	Decl DeclID

	// StmtExpr, StmtReturn (value may be NoExprID for bare "return;").
	Expr ExprID

	// StmtIf: Cond/Then/Else (Else may be NoStmtID).
	Cond ExprID
	Then StmtID
	Else StmtID

	// StmtWhile/StmtDo: Cond + Body.
	Body StmtID

	// StmtFor: Init/Cond/Post (each may be absent) + Body.
	Init ExprID
	Post ExprID

	// StmtSwitch: the scrutinee plus ordered case/default bodies.
	Scrutinee ExprID
	Cases     []StmtID

	// StmtCase: the (constant) match value; StmtDefault has none.
	CaseValue ExprID

	// StmtCompound: the statement list. Every compound introduces a new
	// lexical scope, so no per-node scope marker is stored.
	Stmts []StmtID
}

// Stmts is the per-compilation-unit statement arena.
type Stmts struct {
	arena *Arena[Stmt]
}

// NewStmts returns an empty statement arena.
func NewStmts(capHint int) *Stmts { return &Stmts{arena: NewArena[Stmt](capHint)} }

// New allocates s and returns its ID.
func (ss *Stmts) New(s Stmt) StmtID { return StmtID(ss.arena.Allocate(s)) }

// Get returns the node for id, or nil if id is invalid.
func (ss *Stmts) Get(id StmtID) *Stmt { return ss.arena.Get(uint32(id)) }

// Len returns the number of allocated statement nodes.
func (ss *Stmts) Len() uint32 { return ss.arena.Len() }

// All exposes every allocated node, in allocation order.
func (ss *Stmts) All() []Stmt { return ss.arena.Slice() }
