package parser

import (
	"testing"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// lexAdapter bridges the raw lexer's (Token, bool) shape to the
// TokenSource interface the parser expects, the same role
// internal/preprocess.Preprocessor plays in production.
type lexAdapter struct {
	lx *lexer.Lexer
}

func (a lexAdapter) Next() (token.Token, error) {
	tok, _ := a.lx.Next()
	return tok, nil
}

func newParser(t *testing.T, src string) (*Parser, *diag.Bag, *ast.Unit) {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.Add("test", []byte(src), 0)
	file := fs.Get(fid)
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.DefaultOptions(), diags)
	unit := ast.NewUnit("test")
	p := New(lexAdapter{lx}, diags, unit, Options{Engine: DefaultEngineTypes()})
	return p, diags, unit
}

func TestParseGlobalVarDecl(t *testing.T) {
	p, diags, unit := newParser(t, `int x = 1 + 2;`)
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(unit.TopLevel) != 1 {
		t.Fatalf("want 1 top-level decl, got %d", len(unit.TopLevel))
	}
	d := unit.Decls.Get(unit.TopLevel[0])
	if d.Kind != ast.DeclVar || d.Name != "x" {
		t.Fatalf("unexpected decl: %+v", d)
	}
	init := unit.Exprs.Get(d.Init)
	if init.Kind != ast.ExprIntLit || init.IVal != 3 {
		t.Fatalf("expected constant-folded 1+2=3, got %+v", init)
	}
}

func TestParseFunctionDefinition(t *testing.T) {
	src := `void main(int a, int b = 2) { if (a > b) { return; } else { a = a + 1; } }`
	p, diags, unit := newParser(t, src)
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(unit.TopLevel) != 1 {
		t.Fatalf("want 1 top-level decl, got %d", len(unit.TopLevel))
	}
	d := unit.Decls.Get(unit.TopLevel[0])
	if d.Kind != ast.DeclFuncDef || d.Name != "main" {
		t.Fatalf("unexpected decl: %+v", d)
	}
	if len(d.Params) != 2 || d.MinParams != 1 {
		t.Fatalf("unexpected params: %+v minParams=%d", d.Params, d.MinParams)
	}
	body := unit.Stmts.Get(d.Body)
	if body.Kind != ast.StmtCompound || len(body.Stmts) != 1 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestParseSwitchStatement(t *testing.T) {
	src := `void f() { switch (1) { case 1: break; default: break; } }`
	p, diags, unit := newParser(t, src)
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	d := unit.Decls.Get(unit.TopLevel[0])
	body := unit.Stmts.Get(d.Body)
	sw := unit.Stmts.Get(body.Stmts[0])
	if sw.Kind != ast.StmtSwitch || len(sw.Cases) != 2 {
		t.Fatalf("unexpected switch: %+v", sw)
	}
}

func TestDefaultParameterMustTrailNonDefaults(t *testing.T) {
	p, diags, _ := newParser(t, `void f(int a = 1, int b) { }`)
	p.ParseUnit()
	if !diags.HasErrors() {
		t.Fatalf("expected an error for a non-default parameter after a default one")
	}
}

func TestConstDeclarationRequiresInitializer(t *testing.T) {
	p, diags, _ := newParser(t, `const int x;`)
	p.ParseUnit()
	if !diags.HasErrors() {
		t.Fatalf("expected an error for a const without an initializer")
	}
}

func TestConstantFoldingTernary(t *testing.T) {
	p, diags, unit := newParser(t, `int x = 1 ? 10 : 20;`)
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	d := unit.Decls.Get(unit.TopLevel[0])
	init := unit.Exprs.Get(d.Init)
	if init.Kind != ast.ExprIntLit || init.IVal != 10 {
		t.Fatalf("expected folded ternary to 10, got %+v", init)
	}
}

func TestVectorLiteralAndEngineType(t *testing.T) {
	p, diags, unit := newParser(t, `vector v = [1.0, 2.0, 3.0]; effect e;`)
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags)
	}
	if len(unit.TopLevel) != 2 {
		t.Fatalf("want 2 decls, got %d", len(unit.TopLevel))
	}
	eDecl := unit.Decls.Get(unit.TopLevel[1])
	if eDecl.Type.Kind != types.Engine {
		t.Fatalf("expected engine type, got %s", eDecl.Type)
	}
}
