package sema

import (
	"testing"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/parser"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

type lexAdapter struct{ lx *lexer.Lexer }

func (a lexAdapter) Next() (token.Token, error) {
	tok, _ := a.lx.Next()
	return tok, nil
}

func parseUnit(t *testing.T, src string, popts parser.Options) (*ast.Unit, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.Add("test", []byte(src), 0)
	file := fs.Get(fid)
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.DefaultOptions(), diags)
	unit := ast.NewUnit("test")
	if popts.Engine == nil {
		popts.Engine = parser.DefaultEngineTypes()
	}
	p := parser.New(lexAdapter{lx}, diags, unit, popts)
	p.ParseUnit()
	return unit, diags
}

func checkSrc(t *testing.T, src string, opts Options) *diag.Bag {
	t.Helper()
	unit, diags := parseUnit(t, src, parser.Options{Extensions: opts.Extensions})
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}
	Check(unit, diags, opts)
	return diags
}

func TestGlobalVarAndConstDeclare(t *testing.T) {
	diags := checkSrc(t, `int x = 1; const float PI = 3.0; float y = x;`, Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
}

func TestUndeclaredNameIsError(t *testing.T) {
	diags := checkSrc(t, `void main() { x = 1; }`, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected an undeclared-name error")
	}
}

func TestAssignmentNarrowingRejected(t *testing.T) {
	diags := checkSrc(t, `void main() { float f = 1.0; int i = f; }`, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a narrowing-assignment error")
	}
}

func TestIntToFloatWidening(t *testing.T) {
	diags := checkSrc(t, `void main() { float f = 1; }`, Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected errors: %v", diags.Items())
	}
}

func TestArityTooFewArguments(t *testing.T) {
	diags := checkSrc(t, `int f(int a, int b) { return a + b; } void main() { f(1); }`, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected an arity error")
	}
}

func TestDefaultArgumentFillsMissingCall(t *testing.T) {
	unit, diags := parseUnit(t, `int f(int a, int b = 2) { return a + b; } void main() { f(1); }`, parser.Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}
	Check(unit, diags, Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected sema errors: %v", diags.Items())
	}
}

func TestDirectRecursionRejected(t *testing.T) {
	diags := checkSrc(t, `int f(int x) { return f(x-1); }`, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a recursion error")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Code == diag.RecursionDirect {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RecursionDirect, got %v", diags.Items())
	}
}

func TestIndirectRecursionRejected(t *testing.T) {
	src := `int g(int x); int f(int x) { return g(x); } int g(int x) { return f(x); }`
	diags := checkSrc(t, src, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a recursion error")
	}
	found := false
	for _, d := range diags.Items() {
		if d.Code == diag.RecursionIndirect {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected RecursionIndirect, got %v", diags.Items())
	}
}

func TestSwitchOnStringRequiresExtensions(t *testing.T) {
	src := `void main() { switch ("a") { case "a": break; } }`
	diags := checkSrc(t, src, Options{Extensions: false})
	if !diags.HasErrors() {
		t.Fatalf("expected extension-disabled error")
	}

	diags2 := checkSrc(t, src, Options{Extensions: true})
	if diags2.HasErrors() {
		t.Fatalf("unexpected errors with extensions enabled: %v", diags2.Items())
	}
}

func TestBreakOutsideLoopRejected(t *testing.T) {
	diags := checkSrc(t, `void main() { break; }`, Options{})
	if !diags.HasErrors() {
		t.Fatalf("expected a misplaced-break error")
	}
}

func TestEngineActionCallResolvesFromPrelude(t *testing.T) {
	table := symbols.NewTable()
	err := table.PopulatePrelude([]symbols.PrototypeDecl{
		{Name: "PrintString", Return: ast.Param{}, Params: []ast.Param{{Name: "sMessage", Type: types.TString}}, MinParams: 1},
	})
	if err != nil {
		t.Fatalf("PopulatePrelude: %v", err)
	}
	unit, diags := parseUnit(t, `void main() { PrintString("hi"); }`, parser.Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}
	Check(unit, diags, Options{Table: table})
	if diags.HasErrors() {
		t.Fatalf("unexpected sema errors: %v", diags.Items())
	}
}
