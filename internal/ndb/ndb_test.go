package ndb

import (
	"testing"

	"nwnsc/internal/ast"
	"nwnsc/internal/codegen"
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/parser"
	"nwnsc/internal/sema"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
)

type lexAdapter struct{ lx *lexer.Lexer }

func (a lexAdapter) Next() (token.Token, error) {
	tok, _ := a.lx.Next()
	return tok, nil
}

func generate(t *testing.T, src string) codegen.Result {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.Add("test.nss", []byte(src), 0)
	file := fs.Get(fid)
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.DefaultOptions(), diags)
	unit := ast.NewUnit("test")
	p := parser.New(lexAdapter{lx}, diags, unit, parser.Options{Engine: parser.DefaultEngineTypes()})
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}
	res := sema.Check(unit, diags, sema.Options{Table: symbols.NewTable()})
	if res.Failed {
		t.Fatalf("unexpected sema errors: %v", diags.Items())
	}
	gen := codegen.Generate(unit, res.Table, fs, diags, codegen.Options{Debug: true})
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	return gen
}

func TestWriteThenParseRoundTrips(t *testing.T) {
	gen := generate(t, `int f(int x) { int y = x + 1; return y; }`)

	text := Write(gen)
	sym, err := Parse(text)
	if err != nil {
		t.Fatalf("Parse: %v\n%s", err, text)
	}

	if len(sym.Files) != 1 || sym.Files[0] != "test.nss" {
		t.Fatalf("expected one file record, got %v", sym.Files)
	}
	if len(sym.Funcs) != 1 || sym.Funcs[0].Name != "f" {
		t.Fatalf("expected a record for function f, got %v", sym.Funcs)
	}
	if len(sym.Funcs[0].Params) != 1 || sym.Funcs[0].Params[0].Name != "x" {
		t.Fatalf("expected param x recovered, got %v", sym.Funcs[0].Params)
	}
	if len(sym.Vars) < 2 {
		t.Fatalf("expected at least 2 variable records (param x, local y), got %v", sym.Vars)
	}
	for _, v := range sym.Vars {
		if v.End == 0 {
			t.Fatalf("variable %q has an unclosed live range", v.Name)
		}
	}
}

func TestParseRejectsMalformedLine(t *testing.T) {
	if _, err := Parse([]byte("Q garbage\n")); err == nil {
		t.Fatalf("expected an error for an unknown record kind")
	}
}
