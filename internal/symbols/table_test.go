package symbols

import (
	"testing"

	"nwnsc/internal/source"
	"nwnsc/internal/types"
)

func TestDeclareLookupShadowing(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.Declare("g", Symbol{Kind: KindVariable, Type: types.TInt}); err != nil {
		t.Fatal(err)
	}
	tbl.PushScope(ScopeFunction, source.Span{})
	if _, err := tbl.Declare("g", Symbol{Kind: KindVariable, Type: types.TFloat}); err != nil {
		t.Fatalf("local shadowing a global should be allowed: %v", err)
	}
	_, sym, ok := tbl.Lookup("g")
	if !ok || sym.Type != types.TFloat {
		t.Fatalf("expected innermost 'g' to shadow, got %+v", sym)
	}
	tbl.PopScope()
	_, sym, ok = tbl.Lookup("g")
	if !ok || sym.Type != types.TInt {
		t.Fatalf("expected outer 'g' after pop, got %+v", sym)
	}
}

func TestRedefinitionInSameScopeFails(t *testing.T) {
	tbl := NewTable()
	if _, err := tbl.Declare("x", Symbol{Kind: KindVariable, Type: types.TInt}); err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.Declare("x", Symbol{Kind: KindVariable, Type: types.TInt}); err == nil {
		t.Fatal("expected redefinition error")
	}
}

func TestEngineActionCannotBeShadowedWithDifferentSignature(t *testing.T) {
	tbl := NewTable()
	err := tbl.PopulatePrelude([]PrototypeDecl{
		{Name: "PrintString", Params: nil, MinParams: 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	_, err = tbl.Declare("PrintString", Symbol{Kind: KindFunction, Type: types.TInt})
	if err == nil {
		t.Fatal("expected engine action redeclaration error")
	}
}
