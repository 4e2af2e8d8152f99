package codegen

import (
	"testing"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/lexer"
	"nwnsc/internal/parser"
	"nwnsc/internal/sema"
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

// compile runs the full parse+check+generate pipeline over src, declaring
// extraActions (if any) as engine actions before semantic analysis so a
// test can reference a call with a specific action id without parsing the
// full nwscript.nss prototype list.
func compile(t *testing.T, src string, extraActions map[string]symbols.Symbol) (Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	fid := fs.Add("test", []byte(src), 0)
	file := fs.Get(fid)
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.DefaultOptions(), diags)
	unit := ast.NewUnit("test")
	p := parser.New(lexAdapter{lx}, diags, unit, parser.Options{Engine: parser.DefaultEngineTypes()})
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}

	table := symbols.NewTable()
	for name, sym := range extraActions {
		if _, err := table.Declare(name, sym); err != nil {
			t.Fatalf("declaring action %q: %v", name, err)
		}
	}

	res := sema.Check(unit, diags, sema.Options{Table: table})
	if res.Failed {
		t.Fatalf("unexpected sema errors: %v", diags.Items())
	}

	gen := Generate(unit, res.Table, fs, diags, Options{})
	return gen, diags
}

// S1. "1 + 2 * 3" must compile to a single folded push(7), not a runtime
// multiply: a CONST int 7 in the stream and no OpMul or OpAdd anywhere.
func TestHelloConstantsFolds(t *testing.T) {
	gen, diags := compile(t, `void main() { int x = 1 + 2 * 3; }`, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	if containsOp(gen.Code, OpMul) || containsOp(gen.Code, OpAdd) {
		t.Fatalf("expected constant folding, found a runtime arithmetic op in %v", gen.Code)
	}
	if !containsConstInt(gen.Code, 7) {
		t.Fatalf("expected a folded push of 7, got %v", gen.Code)
	}
}

// S2. A vector literal pushes three floats, and vector addition emits a
// vector-tagged Add instruction rather than folding (neither operand is a
// compile-time constant component-wise in a way the int/float folder
// handles, and vectors are never constant-folded).
func TestVectorArithmeticEmitsVectorAdd(t *testing.T) {
	gen, diags := compile(t, `void main() { vector v = [1.0, 2.0, 3.0]; v = v + [0.0, 0.0, 1.0]; }`, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	if !containsOpAux(gen.Code, OpAdd, pairAux(TagVector, TagVector)) {
		t.Fatalf("expected a vector-tagged Add, got %v", gen.Code)
	}
	floatPushes := countOpWithTag(gen.Code, OpConst, TagFloat)
	if floatPushes < 6 {
		t.Fatalf("expected at least 6 float pushes (two 3-component literals), got %d", floatPushes)
	}
}

// S3. A call to an engine action declared at id 74 emits push-string,
// action-call(id=74, argc=1).
func TestEngineActionCallEmitsAction(t *testing.T) {
	printString := symbols.Symbol{
		Kind:      symbols.KindEngineAction,
		Type:      types.TVoid,
		Params:    []ast.Param{{Name: "sString", Type: types.TString}},
		MinParams: 1,
		ActionID:  74,
	}
	gen, diags := compile(t, `void main() { PrintString("hi"); }`, map[string]symbols.Symbol{"PrintString": printString})
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	if !containsActionCall(gen.Code, 74, 1) {
		t.Fatalf("expected action-call(id=74, argc=1) in %v", gen.Code)
	}
}

// S4. "if (x > 0) return 1; return 0;" emits a comparison, a jump, and two
// distinct RETN sites.
func TestConditionalEmitsCompareJumpAndTwoReturns(t *testing.T) {
	gen, diags := compile(t, `int f(int x) { if (x > 0) return 1; return 0; }`, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	if !containsOp(gen.Code, OpGT) {
		t.Fatalf("expected a GT comparison, got %v", gen.Code)
	}
	if !containsOp(gen.Code, OpJz) {
		t.Fatalf("expected a conditional jump, got %v", gen.Code)
	}
	if n := countOp(gen.Code, OpRetn); n != 2 {
		t.Fatalf("expected exactly 2 RETN sites, got %d in %v", n, gen.Code)
	}
}

// A direct self-call is rejected by semantic analysis (not at parse time)
// and never reaches code generation.
func TestDirectRecursionNeverReachesCodegen(t *testing.T) {
	fs := source.NewFileSet()
	fid := fs.Add("test", []byte(`int f(int x) { return f(x-1); }`), 0)
	file := fs.Get(fid)
	diags := diag.NewBag(0)
	lx := lexer.New(file, lexer.DefaultOptions(), diags)
	unit := ast.NewUnit("test")
	p := parser.New(lexAdapter{lx}, diags, unit, parser.Options{Engine: parser.DefaultEngineTypes()})
	p.ParseUnit()
	if diags.HasErrors() {
		t.Fatalf("unexpected parse errors: %v", diags.Items())
	}

	res := sema.Check(unit, diags, sema.Options{})
	if !res.Failed {
		t.Fatalf("expected recursion to be rejected by semantic analysis")
	}
}

// The global-init prologue addresses an earlier global SP-relative, not
// BP-relative, since OpSaveBP has not run yet when the second initializer
// references the first.
func TestGlobalInitPrologueAddressesSPRelative(t *testing.T) {
	gen, diags := compile(t, `int x = 5; int y = x + 1;`, nil)
	if diags.HasErrors() {
		t.Fatalf("unexpected codegen errors: %v", diags.Items())
	}
	ops := instrOps(gen.Code)
	saveBPAt := -1
	for i, op := range ops {
		if op == OpSaveBP {
			saveBPAt = i
			break
		}
	}
	if saveBPAt < 0 {
		t.Fatalf("expected an OpSaveBP in the prologue, got %v", gen.Code)
	}
	for _, op := range ops[:saveBPAt] {
		if op == OpCpTopBP {
			t.Fatalf("prologue referenced a global BP-relative before OpSaveBP ran: %v", gen.Code)
		}
	}
}

// instrOps returns the opcode of every instruction in code, in order,
// stepping over operand bytes so that a literal or offset whose value
// equals an opcode (the 5 in "int x = 5" equals OpCpTopBP) is never
// mistaken for one. Operand widths follow the emitter's encoding.
func instrOps(code []byte) []Op {
	var ops []Op
	for i := 0; i < len(code); {
		op := Op(code[i])
		ops = append(ops, op)
		switch op {
		case OpConst:
			if i+3 < len(code) && TypeTag(code[i+1]) == TagString {
				i += 4 + (int(code[i+2])<<8 | int(code[i+3]))
			} else {
				i += 6
			}
		case OpCpDownSP, OpCpTopSP, OpCpDownBP, OpCpTopBP:
			i += 7
		case OpMovSP, OpJmp, OpJsr, OpJz, OpJnz:
			i += 5
		case OpAction:
			i += 4
		case OpStoreState:
			i += 9
		case OpNop, OpSaveBP, OpRestoreBP, OpNot, OpComp, OpRetn, OpScriptEnd:
			i++
		default: // arithmetic, logical, comparison, NEG and CONV carry one aux byte
			i += 2
		}
	}
	return ops
}

func containsOp(code []byte, op Op) bool { return indexOfOp(code, op) >= 0 }

func indexOfOp(code []byte, op Op) int {
	for i := 0; i < len(code); i++ {
		if Op(code[i]) == op {
			return i
		}
	}
	return -1
}

func containsOpBefore(code []byte, op Op, before int) bool {
	i := indexOfOp(code, op)
	return i >= 0 && i < before
}

func countOp(code []byte, op Op) int {
	n := 0
	for i := 0; i < len(code); i++ {
		if Op(code[i]) == op {
			n++
		}
	}
	return n
}

func containsOpAux(code []byte, op Op, aux uint8) bool {
	for i := 0; i+1 < len(code); i++ {
		if Op(code[i]) == op && code[i+1] == aux {
			return true
		}
	}
	return false
}

func countOpWithTag(code []byte, op Op, tag TypeTag) int {
	n := 0
	for i := 0; i+1 < len(code); i++ {
		if Op(code[i]) == op && TypeTag(code[i+1]) == tag {
			n++
		}
	}
	return n
}

func containsConstInt(code []byte, v int32) bool {
	for i := 0; i+6 <= len(code); i++ {
		if Op(code[i]) != OpConst || TypeTag(code[i+1]) != TagInt {
			continue
		}
		got := int32(uint32(code[i+2])<<24 | uint32(code[i+3])<<16 | uint32(code[i+4])<<8 | uint32(code[i+5]))
		if got == v {
			return true
		}
	}
	return false
}

func containsActionCall(code []byte, actionID uint16, argc uint8) bool {
	for i := 0; i+3 < len(code); i++ {
		if Op(code[i]) != OpAction {
			continue
		}
		id := uint16(code[i+1])<<8 | uint16(code[i+2])
		if id == actionID && code[i+3] == argc {
			return true
		}
	}
	return false
}
