package compiler

import (
	"strings"
	"testing"

	"nwnsc/internal/disasm"
	"nwnsc/internal/ncs"
	"nwnsc/internal/resource"
)

func TestCompileProducesRunnableNCS(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"test": []byte(`void main() { int x = 1 + 2 * 3; }`),
	})
	c := New(Options{Loader: loader})

	res, err := c.Compile("test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Failed {
		t.Fatalf("unexpected failure: %v", res.Diags.Items())
	}
	if len(res.NCS) == 0 {
		t.Fatalf("expected non-empty NCS output")
	}

	stripped, err := ncs.Parse(res.NCS)
	if err != nil {
		t.Fatalf("ncs.Parse: %v", err)
	}
	listing, err := disasm.Listing(stripped, disasm.Options{BaseAddr: uint32(ncs.HeaderLen)})
	if err != nil {
		t.Fatalf("disasm.Listing: %v\n%s", err, listing)
	}
	if !strings.Contains(listing, "RETN") {
		t.Fatalf("expected a RETN in the listing:\n%s", listing)
	}
}

func TestCompileWithDebugProducesNDB(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"test": []byte(`int f(int x) { return x; }`),
	})
	c := New(Options{Loader: loader, Debug: true})

	res, err := c.Compile("test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Failed {
		t.Fatalf("unexpected failure: %v", res.Diags.Items())
	}
	if len(res.NDB) == 0 {
		t.Fatalf("expected non-empty NDB output")
	}
}

func TestCompileReportsMissingResource(t *testing.T) {
	loader := resource.NewMapLoader(nil)
	c := New(Options{Loader: loader})

	res, err := c.Compile("missing")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !res.Failed {
		t.Fatalf("expected Failed for a missing resource")
	}
	if len(res.Diags.Items()) == 0 {
		t.Fatalf("expected a diagnostic explaining the failure")
	}
}

func TestCompileResolvesIncludes(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"consts":    []byte(`const int TWO = 2;`),
		"test_main": []byte("#include \"consts\"\nvoid main() { int x = TWO; }"),
	})
	c := New(Options{Loader: loader})

	res, err := c.Compile("test_main")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Failed {
		t.Fatalf("unexpected failure: %v", res.Diags.Items())
	}
}

func TestDisassembleRendersCompiledOutput(t *testing.T) {
	src := resource.NewMapLoader(map[string][]byte{
		"test": []byte(`void main() { int x = 1 + 2; }`),
	})
	c := New(Options{Loader: src})

	res, err := c.Compile("test")
	if err != nil || res.Failed {
		t.Fatalf("Compile: err=%v failed=%v", err, res.Failed)
	}

	compiled := resource.NewMapLoader(nil)
	compiled.Put("test", resource.TypeNCS, res.NCS)
	d := New(Options{Loader: compiled})

	listing, err := d.Disassemble("test")
	if err != nil {
		t.Fatalf("Disassemble: %v", err)
	}
	if !strings.Contains(listing, "RETN") {
		t.Fatalf("expected a RETN in the listing:\n%s", listing)
	}
}

func TestActionPrototypesPopulatePrelude(t *testing.T) {
	loader := resource.NewMapLoader(map[string][]byte{
		"nwscript": []byte("void PrintString(string sMessage);"),
		"test":     []byte(`void main() { PrintString("hi"); }`),
	})
	c := New(Options{Loader: loader, PrototypeResource: "nwscript"})

	res, err := c.Compile("test")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Failed {
		t.Fatalf("unexpected failure: %v", res.Diags.Items())
	}
	if c.ActionCount() != 1 {
		t.Fatalf("expected 1 prototype loaded, got %d", c.ActionCount())
	}
	proto, ok := c.GetActionPrototype(0)
	if !ok || proto.Name != "PrintString" {
		t.Fatalf("expected PrintString at index 0, got %+v ok=%v", proto, ok)
	}
}
