package disasm

import (
	"strings"
	"testing"

	"nwnsc/internal/ast"
	"nwnsc/internal/codegen"
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/ncs"
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

func compile(t *testing.T, src string) []byte {
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
	gen := codegen.Generate(unit, res.Table, fs, diags, codegen.Options{})
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	return gen.Code
}

// S6. Disassembling the .ncs produced from S1's source begins with the
// NCS V1.0 header note, then lists instructions in address order with
// offsets starting at 0x0D, including the folded push of 7 and no
// runtime multiply.
func TestDisassemblyRoundTrip(t *testing.T) {
	code := compile(t, `void main() { int x = 1 + 2 * 3; }`)
	file := ncs.Write(code)

	stripped, err := ncs.Parse(file)
	if err != nil {
		t.Fatalf("ncs.Parse: %v", err)
	}

	listing, err := Listing(stripped, Options{BaseAddr: uint32(ncs.HeaderLen)})
	if err != nil {
		t.Fatalf("Listing: %v\n%s", err, listing)
	}

	lines := strings.Split(strings.TrimRight(listing, "\n"), "\n")
	if lines[0] != "; NCS V1.0" {
		t.Fatalf("expected the header note first, got %q", lines[0])
	}
	if len(lines) < 2 || !strings.HasPrefix(lines[1], "0000000D") {
		t.Fatalf("expected the first instruction at offset 0x0D, got %q", lines[1])
	}
	if strings.Contains(listing, "MUL") || strings.Contains(listing, "ADD") {
		t.Fatalf("expected constant folding, found a runtime arithmetic mnemonic:\n%s", listing)
	}
	if !strings.Contains(listing, "CONST") || !strings.Contains(listing, "int 7") {
		t.Fatalf("expected a folded CONST int 7, got:\n%s", listing)
	}
	if !strings.Contains(listing, "RETN") {
		t.Fatalf("expected a RETN in the listing, got:\n%s", listing)
	}
}

func TestListingRejectsTruncatedOperand(t *testing.T) {
	// CONST opcode with an int tag but no 4-byte payload.
	code := []byte{byte(codegen.OpConst), byte(codegen.TagInt), 0x00}
	if _, err := Listing(code, Options{}); err == nil {
		t.Fatalf("expected an error for a truncated CONST operand")
	}
}
