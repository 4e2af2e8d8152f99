package codegen

import (
	"fmt"

	"fortio.org/safecast"

	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
	"nwnsc/internal/types"
)

// Options configures one code-generation pass.
type Options struct {
	// Extensions mirrors sema.Options.Extensions. Generate does not read
	// it: extension constructs are accepted or rejected by internal/sema,
	// and codegen emits the same opcodes either way.
	Extensions bool

	// Debug controls whether line-table and variable-range entries are
	// collected for .ndb emission (spec.md §4.5 "Generation is optional").
	Debug bool

	// EntryFunc names the function codegen treats as the script's
	// runnable entry point, JSR'd to from the global-init prologue. An
	// empty string asks Generate to guess "main", then
	// "StartingConditional", matching the two conventional NWScript
	// entry points; a unit with neither is compiled as a library with no
	// runnable entry.
	EntryFunc string
}

// LocalDebug is one local/parameter's stack-offset range, used by
// internal/ndb to emit 'v' records.
type LocalDebug struct {
	Name   string
	Offset int32
	Type   types.Type
	Begin  uint32
	End    uint32

	// sym lets popLocalsTo find which entries to close when its defining
	// scope exits; never serialized.
	sym symbols.SymbolID
}

// FuncDebug is one function's entry metadata, used by internal/ndb to
// emit 'f' records.
type FuncDebug struct {
	Name    string
	Addr    uint32
	Return  types.Type
	Params  []ast.Param
	Locals  []LocalDebug
	EndAddr uint32
}

// LineEntry maps a byte-code address to a source (file, line) pair, used
// by internal/ndb to emit 'l' records.
type LineEntry struct {
	Addr uint32
	File uint32
	Line uint32
}

// Result is the output of one code-generation pass.
type Result struct {
	Code      []byte
	Funcs     []FuncDebug
	Lines     []LineEntry
	FileNames []string
	Failed    bool
}

// Generate lowers every function defined in unit into a single linear
// byte-code stream, preceded by a global-variable initializer prologue
// (spec.md §4.5). unit and table must already have passed internal/sema
// with no errors; Generate does not re-validate types or names.
func Generate(unit *ast.Unit, table *symbols.Table, fset *source.FileSet, diags *diag.Bag, opts Options) Result {
	g := &generator{
		unit:    unit,
		table:   table,
		fset:    fset,
		diags:   diags,
		opts:    opts,
		fileIdx: map[source.FileID]int{},
	}
	g.layoutGlobals()
	g.emitProgram()
	return g.finish()
}

type generator struct {
	unit  *ast.Unit
	table *symbols.Table
	fset  *source.FileSet
	diags *diag.Bag
	opts  Options

	code       []byte
	callFixups []callFixup
	funcs      []FuncDebug
	lines      []LineEntry
	fileNames  []string
	fileIdx    map[source.FileID]int
	failed     bool
}

func (g *generator) errorf(code diag.Code, span source.Span, format string, args ...any) {
	g.failed = true
	g.diags.Add(diag.Diagnostic{Severity: diag.SevError, Code: code, Message: fmt.Sprintf(format, args...), Primary: span})
}

// layoutGlobals assigns every global variable and constant its fixed
// BP-relative stack offset, in declaration order, before any code is
// emitted (a function may reference a global declared textually after it).
func (g *generator) layoutGlobals() {
	f := newFrame()
	widths := map[symbols.SymbolID]int{}
	for _, id := range g.unit.TopLevel {
		d := g.unit.Decls.Get(id)
		if d == nil || (d.Kind != ast.DeclVar && d.Kind != ast.DeclConst) {
			continue
		}
		sym := symbols.SymbolID(d.Sym)
		slots := d.Type.StackSlots()
		f.declareLocal(sym, slots)
		widths[sym] = slots
	}
	for sym, slots := range widths {
		s := g.table.Get(sym)
		if s == nil {
			continue
		}
		s.StackOffset = f.spOffsetBytes(sym, slots)
	}
}

// emitProgram writes the global-init prologue, then every function body
// in source order, linking each into the shared byte stream and
// recording its symbol's EntryAddr as it goes.
func (g *generator) emitProgram() {
	prologue := newEmitter()
	pf := newFrame()
	fg := &funcGen{gen: g, e: prologue, f: pf, returnType: types.TVoid, prologue: true}

	for _, id := range g.unit.TopLevel {
		d := g.unit.Decls.Get(id)
		if d == nil || (d.Kind != ast.DeclVar && d.Kind != ast.DeclConst) {
			continue
		}
		if d.Init.IsValid() {
			fg.emitExprInto(d.Init, d.Type)
		} else {
			fg.emitZeroValue(d.Type)
		}
		pf.declareLocal(symbols.SymbolID(d.Sym), d.Type.StackSlots())
	}
	prologue.op(OpSaveBP)

	if entry, ok := g.findEntry(); ok {
		prologue.call(uint32(entry))
	}
	prologue.op(OpScriptEnd)
	g.link(prologue)

	for _, id := range g.unit.TopLevel {
		d := g.unit.Decls.Get(id)
		if d == nil || d.Kind != ast.DeclFuncDef {
			continue
		}
		g.emitFunction(d)
	}

	g.resolveCallFixups()
}

func (g *generator) findEntry() (symbols.SymbolID, bool) {
	names := []string{g.opts.EntryFunc}
	if g.opts.EntryFunc == "" {
		names = []string{"main", "StartingConditional"}
	}
	for _, name := range names {
		if name == "" {
			continue
		}
		if id, sym, ok := g.table.Lookup(name); ok && sym.Kind == symbols.KindFunction && sym.HasBody {
			return id, true
		}
	}
	return symbols.NoSymbolID, false
}

func (g *generator) emitFunction(d *ast.Decl) {
	symID := symbols.SymbolID(d.Sym)
	sym := g.table.Get(symID)
	if sym == nil {
		return
	}

	e := newEmitter()
	f := newFrame()
	widths := make([]int, len(d.Params))
	for i, p := range d.Params {
		widths[i] = p.Type.StackSlots()
	}

	fg := &funcGen{
		gen:        g,
		e:          e,
		f:          f,
		returnType: d.Type,
	}
	fg.declareParams(d.Params, widths)

	fg.emitBlock(d.Body)
	if !stmtAlwaysReturns(g.unit, d.Body) {
		fg.emitEpilogue()
	}

	sym.EntryAddr = g.codeLen()
	g.link(e)

	if g.opts.Debug {
		// Live ranges were recorded relative to the function's own buffer.
		for i := range fg.localDebug {
			fg.localDebug[i].Begin += sym.EntryAddr
			if fg.localDebug[i].End != 0 {
				fg.localDebug[i].End += sym.EntryAddr
			}
		}
		g.funcs = append(g.funcs, FuncDebug{
			Name: d.Name, Addr: sym.EntryAddr, Return: d.Type,
			Params: d.Params, Locals: fg.localDebug, EndAddr: g.codeLen(),
		})
	}
}

// codeLen returns the program's current length, narrowed to the wire
// format's 32-bit address space.
func (g *generator) codeLen() uint32 {
	n, err := safecast.Conv[uint32](len(g.code))
	if err != nil {
		panic(fmt.Errorf("codegen: program size overflow: %w", err))
	}
	return n
}

// link resolves e's intra-function jump fixups, appends its bytes to the
// program stream, and carries its call fixups and line marks forward
// with the base offset applied.
func (g *generator) link(e *emitter) {
	if !e.resolveJumps() {
		g.errorf(diag.CodegenUnresolvedFixup, source.Span{}, "unresolved jump label in generated code")
	}
	base := len(g.code)
	g.code = append(g.code, e.code...)
	for _, cf := range e.callFixups {
		g.callFixups = append(g.callFixups, callFixup{siteOperand: base + cf.siteOperand, sym: cf.sym})
	}
	for _, lm := range e.lineMarks {
		addr, err := safecast.Conv[uint32](base + lm.addr)
		if err != nil {
			panic(fmt.Errorf("codegen: line-mark address overflow: %w", err))
		}
		g.lines = append(g.lines, LineEntry{Addr: addr, File: g.fileIndex(lm.file), Line: lm.line})
	}
}

// resolveCallFixups patches every call site against its target's now-known
// EntryAddr. Testable property 5 requires this table be empty once
// generation completes; any entry still unresolved here is a compiler bug
// (sema already rejects calls to undeclared functions), reported as
// CodegenUnresolvedFixup rather than silently linking a call to address 0.
func (g *generator) resolveCallFixups() {
	for _, cf := range g.callFixups {
		sym := g.table.Get(symbols.SymbolID(cf.sym))
		if sym == nil || sym.EntryAddr == 0 {
			g.errorf(diag.CodegenUnresolvedFixup, source.Span{}, "call to %q never resolved to an address", symName(sym))
			continue
		}
		patch32(g.code, cf.siteOperand, sym.EntryAddr)
	}
	g.callFixups = nil
}

// stmtAlwaysReturns reports whether every control path through id ends in
// a return statement, so emitFunction can skip appending a redundant
// epilogue RETN after a body that already terminates on all paths
// (spec.md §8 S4: "if (x > 0) return 1; return 0;" emits exactly two
// return sites, not a trailing fallthrough one). This is a conservative
// syntactic check, not full reachability analysis: it only recognizes the
// shapes a well-formed non-void function body actually uses.
func stmtAlwaysReturns(unit *ast.Unit, id ast.StmtID) bool {
	s := unit.Stmts.Get(id)
	if s == nil {
		return false
	}
	switch s.Kind {
	case ast.StmtReturn:
		return true
	case ast.StmtCompound:
		if len(s.Stmts) == 0 {
			return false
		}
		return stmtAlwaysReturns(unit, s.Stmts[len(s.Stmts)-1])
	case ast.StmtIf:
		return s.Else.IsValid() && stmtAlwaysReturns(unit, s.Then) && stmtAlwaysReturns(unit, s.Else)
	default:
		return false
	}
}

func symName(sym *symbols.Symbol) string {
	if sym == nil {
		return "<unknown>"
	}
	return sym.Name
}

func (g *generator) finish() Result {
	return Result{
		Code:      g.code,
		Funcs:     g.funcs,
		Lines:     g.lines,
		FileNames: g.fileNames,
		Failed:    g.failed || g.diags.HasErrors(),
	}
}

func (g *generator) fileIndex(id source.FileID) uint32 {
	toFileIdx := func(idx int) uint32 {
		n, err := safecast.Conv[uint32](idx)
		if err != nil {
			panic(fmt.Errorf("codegen: file table overflow: %w", err))
		}
		return n
	}
	if idx, ok := g.fileIdx[id]; ok {
		return toFileIdx(idx)
	}
	f := g.fset.Get(id)
	name := ""
	if f != nil {
		name = f.Name
	}
	idx := len(g.fileNames)
	g.fileNames = append(g.fileNames, name)
	g.fileIdx[id] = idx
	return toFileIdx(idx)
}
