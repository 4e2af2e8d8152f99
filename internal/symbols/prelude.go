package symbols

import "nwnsc/internal/ast"

// PrototypeDecl is one engine-action forward declaration read from the
// canonical nwscript.nss prototype source, in declaration order. The
// compiler façade parses that file once (through the ordinary lex/parse
// pipeline, since a prototype declaration is syntactically just a
// function forward declaration) and hands the results here; this package
// never parses source text itself.
type PrototypeDecl struct {
	Name      string
	Return    ast.Param // Type carries the return type; Name/Default unused
	Params    []ast.Param
	MinParams int
}

// PopulatePrelude declares every prototype as a KindEngineAction symbol in
// the global scope, in order, so ActionIndex matches GetActionPrototype's
// index argument (spec.md §6). Called once per Table, lazily, the first
// time a compilation needs engine actions resolved.
func (t *Table) PopulatePrelude(protos []PrototypeDecl) error {
	for i, p := range protos {
		sym := Symbol{
			Kind:        KindEngineAction,
			Type:        p.Return.Type,
			Params:      p.Params,
			MinParams:   p.MinParams,
			ActionID:    i,
			ActionIndex: i,
			HasBody:     false,
		}
		if _, err := t.Declare(p.Name, sym); err != nil {
			return err
		}
	}
	return nil
}
