package ast

// Unit is the top-level arena bundle for one compilation unit: the source
// identifier, the ordered top-level declaration list, and the three node
// arenas, per spec.md §3 "Compilation unit". The arenas are released
// together when the unit finishes code generation (its owner simply drops
// the *Unit).
type Unit struct {
	SourceName string

	Exprs *Exprs
	Stmts *Stmts
	Decls *Decls

	// TopLevel holds the file-scope declarations in source order,
	// spanning this unit plus everything pulled in via #include (included
	// declarations are spliced in at the point of inclusion, per
	// spec.md §4.2).
	TopLevel []DeclID

	// Includes records the case-insensitive resource names this unit
	// pulled in, in inclusion order (spec.md §3 "dependency list").
	Includes []string
}

// NewUnit returns an empty Unit for sourceName.
func NewUnit(sourceName string) *Unit {
	return &Unit{
		SourceName: sourceName,
		Exprs:      NewExprs(64),
		Stmts:      NewStmts(64),
		Decls:      NewDecls(16),
	}
}
