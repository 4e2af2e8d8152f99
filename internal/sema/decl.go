package sema

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
	"nwnsc/internal/types"
)

// checkGlobalDecl type-checks and declares one file-scope declaration, in
// source order (NWScript, like C, requires a name be declared before its
// first use — this is also how forward function prototypes let mutually
// recursive-looking call graphs exist at all, spec.md §4.4 "Recursion
// policy").
func (c *checker) checkGlobalDecl(id ast.DeclID) {
	d := c.unit.Decls.Get(id)
	if d == nil {
		return
	}
	switch d.Kind {
	case ast.DeclVar:
		c.checkGlobalVar(id, d)
	case ast.DeclConst:
		c.checkGlobalConst(id, d)
	case ast.DeclFuncProto:
		c.checkFuncProto(id, d)
	case ast.DeclFuncDef:
		c.checkFuncDef(id, d)
	}
}

func (c *checker) checkGlobalVar(id ast.DeclID, d *ast.Decl) {
	if d.Type.Kind == types.Void {
		c.errorf(diag.TypeVoidExpression, d.Span, "variable %q cannot have type void", d.Name)
	}
	if d.Init.IsValid() {
		initType := c.checkExpr(d.Init)
		if !c.assignable(d.Type, initType) {
			c.errorf(diag.TypeAssignIncompatible, d.Span, "cannot initialize %s %q with %s", d.Type, d.Name, initType)
		}
	}
	sym := symbols.Symbol{Kind: symbols.KindVariable, Type: d.Type, Storage: symbols.StorageGlobal, Span: d.Span}
	c.declare(d.Name, sym, id)
}

func (c *checker) checkGlobalConst(id ast.DeclID, d *ast.Decl) {
	if !c.opts.Extensions && d.Type.Kind != types.Int && d.Type.Kind != types.Float && d.Type.Kind != types.String {
		c.errorf(diag.TypeExtensionDisabled, d.Span, "const globals of type %s require engine extensions", d.Type)
	}
	val, ok := c.evalConst(d.Init, d.Type)
	if !ok {
		c.errorf(diag.ConstNotConstant, d.Span, "initializer for const %q is not a compile-time constant", d.Name)
	}
	sym := symbols.Symbol{Kind: symbols.KindConstant, Type: d.Type, Storage: symbols.StorageGlobal, Span: d.Span}
	if ok {
		sym.ConstI, sym.ConstF, sym.ConstS = val.i, val.f, val.s
	}
	c.declare(d.Name, sym, id)
}

func (c *checker) checkFuncProto(id ast.DeclID, d *ast.Decl) {
	sym := symbols.Symbol{
		Kind: symbols.KindFunction, Type: d.Type, Span: d.Span,
		Params: d.Params, MinParams: d.MinParams, HasBody: false,
	}
	c.checkDefaults(d.Params)
	c.declareOrMerge(d.Name, sym, id)
}

func (c *checker) checkFuncDef(id ast.DeclID, d *ast.Decl) {
	c.checkDefaults(d.Params)

	sym := symbols.Symbol{
		Kind: symbols.KindFunction, Type: d.Type, Span: d.Span,
		Params: d.Params, MinParams: d.MinParams, HasBody: true,
	}
	c.declareOrMerge(d.Name, sym, id)

	prevFunc, prevReturn := c.curFunc, c.curReturn
	c.curFunc = d.Name
	c.curReturn = id
	if c.callees[d.Name] == nil {
		c.callees[d.Name] = map[string]bool{}
	}

	c.table.PushScope(symbols.ScopeFunction, d.Span)
	for i, param := range d.Params {
		symID, err := c.table.Declare(param.Name, symbols.Symbol{
			Kind: symbols.KindParameter, Type: param.Type,
			Storage: symbols.StorageStack, Span: param.Span,
		})
		if err != nil {
			c.reportDeclareErr(param.Name, err, param.Span)
			continue
		}
		d.Params[i].Sym = uint32(symID)
	}
	c.checkStmtAsBlock(d.Body)
	c.table.PopScope()

	c.curFunc, c.curReturn = prevFunc, prevReturn
}

// checkDefaults verifies every default-value expression is a compile-time
// constant of the parameter's type (spec.md §4.4 "Default arguments").
func (c *checker) checkDefaults(params []ast.Param) {
	for _, p := range params {
		if !p.Default.IsValid() {
			continue
		}
		if _, ok := c.evalConst(p.Default, p.Type); !ok {
			c.errorf(diag.ConstNotConstant, p.Span, "default value for %q is not a compile-time constant", p.Name)
		}
	}
}

// declare adds a fresh symbol, reporting NameRedefinition on collision.
// declID links the declaration node back to its symbol for codegen.
func (c *checker) declare(name string, sym symbols.Symbol, declID ast.DeclID) {
	symID, err := c.table.Declare(name, sym)
	if err != nil {
		c.reportDeclareErr(name, err, sym.Span)
		return
	}
	if declID.IsValid() {
		c.unit.Decls.Get(declID).Sym = uint32(symID)
	}
}

// declareOrMerge handles the proto-then-definition case: a function may
// be forward-declared and later defined, which is not a redefinition as
// long as the signatures match.
func (c *checker) declareOrMerge(name string, sym symbols.Symbol, declID ast.DeclID) {
	if existingID, existing, ok := c.table.LookupLocal(name); ok && existing.Kind == symbols.KindFunction {
		if !sameParamTypes(existing.Params, sym.Params) || existing.Type != sym.Type {
			c.errorf(diag.NameRedefinition, sym.Span, "redeclaration of %q does not match its prototype", name)
			return
		}
		if existing.HasBody && sym.HasBody {
			c.errorf(diag.NameRedefinition, sym.Span, "redefinition of function %q", name)
			return
		}
		if sym.HasBody {
			c.table.Redeclare(existingID, sym)
		}
		if declID.IsValid() {
			c.unit.Decls.Get(declID).Sym = uint32(existingID)
		}
		return
	}
	c.declare(name, sym, declID)
}

func (c *checker) reportDeclareErr(name string, err error, span source.Span) {
	switch e := err.(type) {
	case *symbols.ErrRedefinition:
		c.errorf(diag.NameRedefinition, e.Previous, "redefinition of %q", name)
	case *symbols.ErrEngineActionRedecl:
		c.errorf(diag.NameEngineActionRedecl, span, "%q is an engine action and cannot be redeclared with a different signature", name)
	}
}

func sameParamTypes(a, b []ast.Param) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Type != b[i].Type {
			return false
		}
	}
	return true
}
