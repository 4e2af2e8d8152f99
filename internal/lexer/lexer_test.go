package lexer

import (
	"testing"

	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/token"
)

func lexAll(t *testing.T, src string) []token.Token {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.Add("test", []byte(src), source.FileVirtual)
	f := fs.Get(id)
	bag := diag.NewBag(0)
	lx := New(f, DefaultOptions(), bag)
	var toks []token.Token
	for {
		tok, _ := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected lex errors: %+v", bag.Items())
	}
	return toks
}

func TestLexKeywordsAndIdents(t *testing.T) {
	toks := lexAll(t, "void main() { int x; }")
	want := []token.Kind{
		token.KwVoid, token.Ident, token.LParen, token.RParen, token.LBrace,
		token.KwInt, token.Ident, token.Semicolon, token.RBrace, token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d: %+v", len(toks), len(want), toks)
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexIntLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want int32
	}{
		{"7", 7},
		{"0x1A", 26},
		{"017", 15},
		{"0", 0},
	}
	for _, c := range cases {
		toks := lexAll(t, c.src)
		if toks[0].Kind != token.IntLit || toks[0].IVal != c.want {
			t.Errorf("%q: got kind=%s ival=%d, want %d", c.src, toks[0].Kind, toks[0].IVal, c.want)
		}
	}
}

func TestLexFloatLiterals(t *testing.T) {
	cases := []struct {
		src  string
		want float32
	}{
		{"1.0", 1.0},
		{"1.", 1.0},
		{"3f", 3.0},
		{"1.5e2", 150.0},
	}
	for _, c := range cases {
		toks := lexAll(t, c.src)
		if toks[0].Kind != token.FloatLit || toks[0].FVal != c.want {
			t.Errorf("%q: got kind=%s fval=%v, want %v", c.src, toks[0].Kind, toks[0].FVal, c.want)
		}
	}
}

func TestLexString(t *testing.T) {
	toks := lexAll(t, `"hi\nthere"`)
	if toks[0].Kind != token.StringLit {
		t.Fatalf("got kind=%s", toks[0].Kind)
	}
	if toks[0].SVal != "hi\nthere" {
		t.Errorf("got SVal=%q", toks[0].SVal)
	}
}

func TestLexOperators(t *testing.T) {
	toks := lexAll(t, "+= == != <= >= << >> && || ++ --")
	want := []token.Kind{
		token.PlusEq, token.EqEq, token.BangEq, token.LtEq, token.GtEq,
		token.Shl, token.Shr, token.AndAnd, token.OrOr, token.PlusPlus, token.MinusMinus, token.EOF,
	}
	for i, k := range want {
		if toks[i].Kind != k {
			t.Errorf("token %d: got %s, want %s", i, toks[i].Kind, k)
		}
	}
}

func TestLexCommentsSkipped(t *testing.T) {
	toks := lexAll(t, "// line comment\nint /* block */ x;")
	if toks[0].Kind != token.KwInt {
		t.Fatalf("got %s", toks[0].Kind)
	}
}

func TestLexUnterminatedString(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("test", []byte(`"oops`), source.FileVirtual)
	bag := diag.NewBag(0)
	lx := New(fs.Get(id), DefaultOptions(), bag)
	lx.Next()
	if !bag.HasErrors() {
		t.Fatal("expected a lex error for unterminated string")
	}
}

func TestLexLineStartTracksHash(t *testing.T) {
	fs := source.NewFileSet()
	id := fs.Add("test", []byte("int x;\n#define FOO\n"), source.FileVirtual)
	lx := New(fs.Get(id), DefaultOptions(), nil)
	var atLineStarts []bool
	for {
		tok, atStart := lx.Next()
		atLineStarts = append(atLineStarts, atStart)
		if tok.Kind == token.EOF {
			break
		}
	}
	if !atLineStarts[0] {
		t.Error("first token should be a line start")
	}
}
