package ast

import (
	"nwnsc/internal/source"
	"nwnsc/internal/types"
)

// DeclKind tags a top-level or local declaration.
type DeclKind uint8

const (
	DeclInvalid DeclKind = iota
	DeclVar               // type name (= expr)? ;
	DeclConst             // const type name = expr ;  (engine extension)
	DeclFuncProto         // type name ( params ) ;
	DeclFuncDef           // type name ( params ) { body }
)

// Param is one function parameter: its declared type, name, and an
// optional default-value expression (spec.md §3 "Symbol" parameter list).
type Param struct {
	Type    types.Type
	Name    string
	Default ExprID // NoExprID when the parameter has no default
	Span    source.Span

	// Sym is filled in by internal/sema once the parameter is declared in
	// the function's scope; internal/codegen uses it to assign the
	// parameter's stack-frame offset under the same SymbolID every
	// ExprName reference inside the body already resolved to.
	Sym uint32
}

// Decl is one node in the declaration arena; it covers both file-scope
// declarations and local variable declarations inside a compound
// statement (spec.md §3 "Statement node" StmtDecl wraps a DeclID).
type Decl struct {
	Kind DeclKind
	Span source.Span

	Type types.Type
	Name string

	// DeclVar/DeclConst initializer, or NoExprID.
	Init ExprID

	// DeclFuncProto/DeclFuncDef.
	Params []Param
	Body   StmtID // NoStmtID for a prototype

	// MinParams is the count of leading parameters with no default,
	// spec.md §3 "min_parameters"; len(Params) is num_parameters.
	MinParams int

	// Sym is filled in once the symbol table has assigned this
	// declaration's symbol; opaque here to avoid an import cycle with
	// internal/symbols.
	Sym uint32
}

// Decls is the per-compilation-unit declaration arena.
type Decls struct {
	arena *Arena[Decl]
}

// NewDecls returns an empty declaration arena.
func NewDecls(capHint int) *Decls { return &Decls{arena: NewArena[Decl](capHint)} }

// New allocates d and returns its ID.
func (ds *Decls) New(d Decl) DeclID { return DeclID(ds.arena.Allocate(d)) }

// Get returns the node for id, or nil if id is invalid.
func (ds *Decls) Get(id DeclID) *Decl { return ds.arena.Get(uint32(id)) }

// Len returns the number of allocated declaration nodes.
func (ds *Decls) Len() uint32 { return ds.arena.Len() }

// All exposes every allocated node, in allocation order.
func (ds *Decls) All() []Decl { return ds.arena.Slice() }
