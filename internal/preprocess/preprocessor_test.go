package preprocess

import (
	"errors"
	"testing"

	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

func allTokens(t *testing.T, pp *Preprocessor) []token.Token {
	t.Helper()
	var out []token.Token
	for {
		tok, err := pp.Next()
		if err != nil {
			t.Fatalf("preprocess error: %v", err)
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func newPP(t *testing.T, src string, resolver IncludeResolver) *Preprocessor {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("main", []byte(src), source.FileVirtual)
	bag := diag.NewBag(0)
	return New(fs, lexer.DefaultOptions(), bag, resolver, fs.Get(id))
}

func TestMacroExpansionSimple(t *testing.T) {
	pp := newPP(t, "#define FOO 42\nint x = FOO;", nil)
	toks := allTokens(t, pp)
	var got []token.Kind
	for _, tk := range toks {
		got = append(got, tk.Kind)
	}
	want := []token.Kind{token.KwInt, token.Ident, token.Assign, token.IntLit, token.Semicolon, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d: got %s want %s", i, got[i], want[i])
		}
	}
}

func TestIfdefSkipsBranch(t *testing.T) {
	pp := newPP(t, "#ifdef NOPE\nint skipped;\n#else\nint kept;\n#endif\n", nil)
	toks := allTokens(t, pp)
	if toks[1].Text != "kept" {
		t.Fatalf("expected 'kept' identifier, got %+v", toks)
	}
}

func TestIfConstantExpr(t *testing.T) {
	pp := newPP(t, "#if 1 + 2 * 3 == 7\nint yes;\n#endif\n", nil)
	toks := allTokens(t, pp)
	if toks[1].Text != "yes" {
		t.Fatalf("expected folded #if to take the branch, got %+v", toks)
	}
}

func TestIncludeInlinesContent(t *testing.T) {
	resolver := IncludeResolverFunc(func(name string) ([]byte, error) {
		if name == "hdr" {
			return []byte("int included;"), nil
		}
		return nil, errors.New("not found")
	})
	pp := newPP(t, `#include "hdr"`+"\nint main_var;", resolver)
	toks := allTokens(t, pp)
	if toks[1].Text != "included" || toks[4].Text != "main_var" {
		t.Fatalf("expected included content inlined, got %+v", toks)
	}
}

func TestCircularIncludeReportsDiagnostic(t *testing.T) {
	var resolver IncludeResolverFunc
	resolver = func(name string) ([]byte, error) {
		return []byte(`#include "main"` + "\n"), nil
	}
	fs := source.NewFileSet()
	id := fs.Add("main", []byte(`#include "other"`+"\n"), source.FileVirtual)
	bag := diag.NewBag(0)
	pp := New(fs, lexer.DefaultOptions(), bag, resolver, fs.Get(id))
	allTokens(t, pp)
	if !bag.HasErrors() {
		t.Fatal("expected circular include diagnostic")
	}
}
