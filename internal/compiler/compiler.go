// Package compiler is the façade spec.md §1 describes: one entry point
// that drives the lexer, preprocessor, parser, semantic checker, and
// code generator over a single named resource and returns either a
// compiled program or the diagnostics explaining why it failed. Nothing
// above this package touches internal/parser, internal/sema, or
// internal/codegen directly; cmd/nwnsc uses internal/lexer only for its
// version selector and for the standalone tokenize command.
package compiler

import (
	"errors"
	"fmt"
	"sync"

	"nwnsc/internal/ast"
	"nwnsc/internal/codegen"
	"nwnsc/internal/diag"
	"nwnsc/internal/disasm"
	"nwnsc/internal/lexer"
	"nwnsc/internal/ncs"
	"nwnsc/internal/ndb"
	"nwnsc/internal/parser"
	"nwnsc/internal/preprocess"
	"nwnsc/internal/resource"
	"nwnsc/internal/sema"
	"nwnsc/internal/source"
	"nwnsc/internal/symbols"
)

// Options configures every compilation a Compiler instance performs
// (spec.md §9's "Configuration" surface, turned into a record per the
// module's DESIGN NOTES rather than mutable globals).
type Options struct {
	// Loader resolves #include targets and the nwscript.nss prototype
	// source by resource name. Required.
	Loader resource.Loader

	// Version selects the 169 vs. 174 lexer quirk (Open Question 2).
	Version lexer.Version

	// Extensions enables the engine-extension grammar/sema/codegen rules
	// (const globals of any type, vector compound assignment, switch on
	// string).
	Extensions bool

	// Debug controls whether .ndb-capable line/variable tables are
	// collected during code generation.
	Debug bool

	// EntryFunc overrides codegen's default "main"/"StartingConditional"
	// entry-point guess.
	EntryFunc string

	// MaxDiagnostics caps each unit's diagnostic bag (0 = unlimited).
	MaxDiagnostics int

	// PredefinedMacros installs each name via Preprocessor.DefineInitial
	// before lexing begins.
	PredefinedMacros []string

	// PrototypeResource names the engine-action prototype source to load
	// once per Compiler and parse into the symbol table's prelude. Empty
	// skips prelude population, for embedding callers that never call
	// engine actions.
	PrototypeResource string
}

// Compiler holds the one piece of state that legitimately lives longer
// than a single compilation: the parsed engine-action prototype table
// (spec.md §5: "the include cache ... lives for the lifetime of the
// compiler façade"). Everything else — token arenas, the symbol table, the
// AST — is built fresh per Compile call and discarded with its Unit.
//
// A Compiler is safe for concurrent Compile calls only if its Options.Loader
// is itself safe for concurrent use (spec.md §5).
type Compiler struct {
	opts Options

	protoOnce sync.Once
	protoErr  error
	protos    []symbols.PrototypeDecl
}

// New returns a Compiler configured by opts. opts.Loader must not be nil.
func New(opts Options) *Compiler {
	return &Compiler{opts: opts}
}

// Result is one compiled unit: the byte-code, its optional wire-format
// encodings, and the diagnostics raised along the way. Failed mirrors
// sema.Result.Failed: when true, Code/NCS/NDB are empty and partial
// output has been discarded (spec.md §7 "Failure modes").
type Result struct {
	Unit    *ast.Unit
	FileSet *source.FileSet
	Diags   *diag.Bag
	Failed  bool

	Code []byte // raw codegen output, header-free
	NCS  []byte // ncs.Write(Code)
	NDB  []byte // ndb.Write(gen), only populated when Options.Debug is set
}

// Compile loads name (resource type nss) through opts.Loader and runs it
// through every phase. A resource-loading failure is reported as a single
// ResourceError diagnostic and Compile returns with Failed set, the same
// outcome shape as any other phase's failure (spec.md §7: "Resource-loading
// failures propagate unchanged").
func (c *Compiler) Compile(name string) (*Result, error) {
	if err := c.ensurePrelude(); err != nil {
		return nil, fmt.Errorf("compiler: loading prototype source: %w", err)
	}

	diags := diag.NewBag(c.opts.MaxDiagnostics)
	fs := source.NewFileSet()

	data, err := c.opts.Loader.Load(name, resource.TypeNSS)
	if err != nil {
		diags.Add(diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.ResourceNotFound,
			Message:  fmt.Sprintf("cannot load %q: %v", name, err),
		})
		return &Result{Diags: diags, Failed: true, FileSet: fs}, nil
	}

	root := fs.Get(fs.Add(name, data, 0))

	lopts := lexer.Options{Version: c.opts.Version}
	resolver := resource.IncludeResolverAdapter{Loader: c.opts.Loader}
	pp := preprocess.New(fs, lopts, diags, resolver, root)
	for _, m := range c.opts.PredefinedMacros {
		pp.DefineInitial(m)
	}

	unit := ast.NewUnit(name)
	p := parser.New(pp, diags, unit, parser.Options{
		Extensions: c.opts.Extensions,
		Engine:     parser.DefaultEngineTypes(),
	})
	p.ParseUnit()
	if diags.HasErrors() {
		return &Result{Unit: unit, FileSet: fs, Diags: diags, Failed: true}, nil
	}

	table := symbols.NewTable()
	if len(c.protos) > 0 {
		if err := table.PopulatePrelude(c.protos); err != nil {
			return nil, fmt.Errorf("compiler: populating prelude: %w", err)
		}
	}

	semaRes := sema.Check(unit, diags, sema.Options{Extensions: c.opts.Extensions, Table: table})
	if semaRes.Failed {
		return &Result{Unit: unit, FileSet: fs, Diags: diags, Failed: true}, nil
	}

	gen := codegen.Generate(unit, semaRes.Table, fs, diags, codegen.Options{
		Extensions: c.opts.Extensions,
		Debug:      c.opts.Debug,
		EntryFunc:  c.opts.EntryFunc,
	})
	if diags.HasErrors() || gen.Failed {
		return &Result{Unit: unit, FileSet: fs, Diags: diags, Failed: true}, nil
	}

	res := &Result{
		Unit:    unit,
		FileSet: fs,
		Diags:   diags,
		Code:    gen.Code,
		NCS:     ncs.Write(gen.Code),
	}
	if c.opts.Debug {
		res.NDB = ndb.Write(gen)
	}
	return res, nil
}

// ensurePrelude parses opts.PrototypeResource exactly once, regardless of
// how many Compile calls follow.
func (c *Compiler) ensurePrelude() error {
	c.protoOnce.Do(func() {
		if c.opts.PrototypeResource == "" {
			return
		}
		c.protos, c.protoErr = loadPrototypes(c.opts.Loader, c.opts.PrototypeResource, c.opts.Version)
	})
	return c.protoErr
}

// loadPrototypes parses name as an ordinary compilation unit (a prototype
// declaration is syntactically just a function forward declaration,
// spec.md §6 GetActionPrototype) and converts its top-level DeclFuncProto
// nodes into symbols.PrototypeDecl, in source order.
func loadPrototypes(loader resource.Loader, name string, version lexer.Version) ([]symbols.PrototypeDecl, error) {
	data, err := loader.Load(name, resource.TypeNSS)
	if err != nil {
		return nil, err
	}

	fs := source.NewFileSet()
	file := fs.Get(fs.Add(name, data, source.FilePrototype))
	diags := diag.NewBag(0)
	resolver := resource.IncludeResolverAdapter{Loader: loader}
	pp := preprocess.New(fs, lexer.Options{Version: version}, diags, resolver, file)

	unit := ast.NewUnit(name)
	p := parser.New(pp, diags, unit, parser.Options{Extensions: true, Engine: parser.DefaultEngineTypes()})
	p.ParseUnit()
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %q: %d diagnostics", name, len(diags.Items()))
	}

	var protos []symbols.PrototypeDecl
	for _, id := range unit.TopLevel {
		d := unit.Decls.Get(id)
		if d == nil || d.Kind != ast.DeclFuncProto {
			continue
		}
		minParams := d.MinParams
		protos = append(protos, symbols.PrototypeDecl{
			Name:      d.Name,
			Return:    ast.Param{Type: d.Type},
			Params:    d.Params,
			MinParams: minParams,
		})
	}
	return protos, nil
}

// GetActionPrototype returns the nth engine-action prototype, spec.md §6's
// GetActionPrototype(index), for the nwnsc actions listing subcommand.
func (c *Compiler) GetActionPrototype(index int) (symbols.PrototypeDecl, bool) {
	if err := c.ensurePrelude(); err != nil || index < 0 || index >= len(c.protos) {
		return symbols.PrototypeDecl{}, false
	}
	return c.protos[index], true
}

// ActionCount returns how many engine-action prototypes were loaded.
func (c *Compiler) ActionCount() int {
	_ = c.ensurePrelude()
	return len(c.protos)
}

// Disassemble loads name as a compiled resource through opts.Loader and
// renders it as a readable listing, annotated with the matching .ndb's
// symbols when one is present. A missing .ndb is not an error: the
// listing is just unannotated, the same graceful fallback cmd/nwnsc's
// standalone disasm command applies to a bare .ncs file.
func (c *Compiler) Disassemble(name string) (string, error) {
	code, err := c.opts.Loader.Load(name, resource.TypeNCS)
	if err != nil {
		return "", fmt.Errorf("compiler: loading %q: %w", name, err)
	}
	stream, err := ncs.Parse(code)
	if err != nil {
		return "", fmt.Errorf("compiler: parsing %q: %w", name, err)
	}

	var sym *ndb.Symbols
	raw, err := c.opts.Loader.Load(name, resource.TypeNDB)
	switch {
	case err == nil:
		sym, err = ndb.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("compiler: parsing %q debug symbols: %w", name, err)
		}
	case errors.As(err, new(*resource.ErrNotFound)):
		// no debug symbols for this resource; disassemble unannotated.
	default:
		return "", fmt.Errorf("compiler: loading %q debug symbols: %w", name, err)
	}

	return disasm.Listing(stream, disasm.Options{Symbols: sym, BaseAddr: uint32(ncs.HeaderLen)})
}
