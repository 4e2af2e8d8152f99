// Package sema implements the NWScript type checker: name resolution,
// type checking, constant folding of names into literals, the
// default-argument law, and recursion rejection (spec.md §4.4). It runs
// after internal/parser has built an ast.Unit and before internal/codegen
// walks it; every Expr/Decl node it annotates lives in the same arenas
// the parser built, so codegen sees one consistent tree.
package sema

import (
	"fmt"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
)

// Options configures a semantic pass over one compilation unit.
type Options struct {
	// Extensions enables const globals of any base type, compound
	// assignment on vectors, and switch on string (spec.md §4.4
	// "Engine extensions").
	Extensions bool

	// Table is the symbol table to populate. Callers create it with
	// symbols.NewTable and, for a real compilation, call
	// PopulatePrelude with the parsed nwscript.nss prototypes before
	// Check runs; a nil Table causes Check to allocate an empty one
	// with no engine actions declared, which unit tests use when they
	// don't need action calls resolved.
	Table *symbols.Table
}

// Result is what the checker produces: the populated symbol table plus
// whether any diagnostic at or above error severity was raised. Callers
// (the compiler façade) skip codegen when Failed is true.
type Result struct {
	Table  *symbols.Table
	Failed bool
}

// Check runs every semantic pass over unit and returns the populated
// symbol table. diags receives every diagnostic; it must not be nil.
func Check(unit *ast.Unit, diags *diag.Bag, opts Options) Result {
	table := opts.Table
	if table == nil {
		table = symbols.NewTable()
	}
	c := &checker{
		unit:    unit,
		table:   table,
		diags:   diags,
		opts:    opts,
		callees: map[string]map[string]bool{},
	}
	for _, id := range unit.TopLevel {
		c.checkGlobalDecl(id)
	}
	c.checkRecursion()
	return Result{Table: table, Failed: diags.HasErrors()}
}

// checker carries the mutable state threaded through every pass: the
// unit being annotated, the symbol table it populates, and the call
// graph recursion detection needs (spec.md §4.4 "Recursion policy").
type checker struct {
	unit  *ast.Unit
	table *symbols.Table
	diags *diag.Bag
	opts  Options

	// curFunc names the function whose body is currently being
	// checked, "" at file scope. callees[f] collects every function or
	// engine-action name f's body calls directly; calls to undeclared or
	// non-callable names are not recorded.
	curFunc string
	callees map[string]map[string]bool

	// curReturn is the declaration of the function whose body is being
	// checked; its Type, the declared return type, validates "return
	// expr;" statements.
	curReturn   ast.DeclID
	loopDepth   int
	switchDepth int
}

func (c *checker) errorf(code diag.Code, span source.Span, format string, args ...any) {
	c.diags.Add(diag.Diagnostic{Severity: diag.SevError, Code: code, Message: fmt.Sprintf(format, args...), Primary: span})
}
