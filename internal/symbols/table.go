// Package symbols implements the scoped symbol table spec.md §4.3
// describes: an arena of Scope frames forming a stack, each mapping name
// to Symbol, with engine actions pre-populated into the outermost frame
// and immune to the shadowing rule that otherwise lets nested locals
// reuse an outer name.
package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"nwnsc/internal/source"
)

// ErrRedefinition is returned by Declare when name already exists in the
// current (innermost) frame.
type ErrRedefinition struct {
	Name     string
	Previous source.Span
}

func (e *ErrRedefinition) Error() string {
	return fmt.Sprintf("redefinition of %q", e.Name)
}

// ErrEngineActionRedecl is returned when user code tries to declare a name
// that collides with a differently-signatured engine action.
type ErrEngineActionRedecl struct{ Name string }

func (e *ErrEngineActionRedecl) Error() string {
	return fmt.Sprintf("%q is an engine action and cannot be redeclared", e.Name)
}

// Table owns the scope stack and the symbol arena for one compilation
// unit. The global scope (index 0 in the stack) is created by NewTable
// and never popped; it holds file-scope declarations plus, once
// PopulatePrelude has run, every engine action.
type Table struct {
	scopes []Scope
	ids    []ScopeID // the active stack, innermost last
	syms   []Symbol  // 1-based arena; syms[0] is the unused sentinel
}

// NewTable returns a Table with its global scope already pushed.
func NewTable() *Table {
	t := &Table{syms: make([]Symbol, 1)}
	t.scopes = append(t.scopes, Scope{Kind: ScopeGlobal, Parent: NoScopeID, names: map[string]SymbolID{}})
	t.ids = []ScopeID{1}
	return t
}

func (t *Table) scopeAt(id ScopeID) *Scope {
	if !id.IsValid() || int(id) > len(t.scopes) {
		return nil
	}
	return &t.scopes[id-1]
}

// PushScope opens a new nested frame and returns its ID.
func (t *Table) PushScope(kind ScopeKind, span source.Span) ScopeID {
	parent := t.ids[len(t.ids)-1]
	t.scopes = append(t.scopes, Scope{Kind: kind, Parent: parent, Span: span, names: map[string]SymbolID{}})
	n, err := safecast.Conv[uint32](len(t.scopes))
	if err != nil {
		panic(fmt.Errorf("symbols: scope arena overflow: %w", err))
	}
	id := ScopeID(n)
	t.ids = append(t.ids, id)
	return id
}

// PopScope closes the innermost frame. Popping the global frame panics:
// callers never do this, matching the global scope's unit lifetime.
func (t *Table) PopScope() {
	if len(t.ids) <= 1 {
		panic("symbols: cannot pop the global scope")
	}
	t.ids = t.ids[:len(t.ids)-1]
}

// Current returns the innermost open scope's ID.
func (t *Table) Current() ScopeID { return t.ids[len(t.ids)-1] }

// Global returns the outermost scope's ID.
func (t *Table) Global() ScopeID { return t.ids[0] }

// Declare adds sym to the innermost frame. It fails with
// *ErrRedefinition if name is already declared in that same frame, or
// *ErrEngineActionRedecl if name names an engine action in the global
// frame with a different signature (spec.md §4.3).
func (t *Table) Declare(name string, sym Symbol) (SymbolID, error) {
	cur := t.scopeAt(t.Current())
	if existing, ok := cur.names[name]; ok {
		prev := t.syms[existing]
		if prev.Kind == KindEngineAction && !sameSignature(prev, sym) {
			return NoSymbolID, &ErrEngineActionRedecl{Name: name}
		}
		if prev.Kind != KindEngineAction {
			return NoSymbolID, &ErrRedefinition{Name: name, Previous: prev.Span}
		}
	}
	// A forward prototype followed by its definition is not a
	// redefinition; callers distinguish that case themselves before
	// calling Declare a second time (see Redeclare).
	sym.Name = name
	t.syms = append(t.syms, sym)
	n, err := safecast.Conv[uint32](len(t.syms) - 1)
	if err != nil {
		panic(fmt.Errorf("symbols: symbol arena overflow: %w", err))
	}
	id := SymbolID(n)
	cur.names[name] = id
	cur.order = append(cur.order, id)
	return id, nil
}

// Redeclare overwrites the symbol at id in place, used when a function
// definition completes a previously-declared prototype.
func (t *Table) Redeclare(id SymbolID, sym Symbol) {
	if !id.IsValid() || int(id) >= len(t.syms) {
		return
	}
	sym.Name = t.syms[id].Name
	t.syms[id] = sym
}

// Lookup walks from the innermost scope outward and returns the first
// matching symbol (spec.md §3 "Scope": "Lookup walks from innermost
// outward").
func (t *Table) Lookup(name string) (SymbolID, *Symbol, bool) {
	for i := len(t.ids) - 1; i >= 0; i-- {
		scope := t.scopeAt(t.ids[i])
		if id, ok := scope.names[name]; ok {
			return id, &t.syms[id], true
		}
	}
	return NoSymbolID, nil, false
}

// LookupLocal reports whether name is declared in the current (innermost)
// frame only, without walking outward. Used to implement the "Name
// collisions within the same frame fail" rule distinctly from shadowing.
func (t *Table) LookupLocal(name string) (SymbolID, *Symbol, bool) {
	scope := t.scopeAt(t.Current())
	if id, ok := scope.names[name]; ok {
		return id, &t.syms[id], true
	}
	return NoSymbolID, nil, false
}

// Get returns the symbol for id, or nil if id is invalid.
func (t *Table) Get(id SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(t.syms) {
		return nil
	}
	return &t.syms[id]
}

// All returns every declared symbol across every scope, in declaration
// order, for debug-symbol and prototype-listing generation.
func (t *Table) All() []Symbol {
	if len(t.syms) == 0 {
		return nil
	}
	return t.syms[1:]
}

func sameSignature(a, b Symbol) bool {
	if a.Type != b.Type || len(a.Params) != len(b.Params) {
		return false
	}
	for i := range a.Params {
		if a.Params[i].Type != b.Params[i].Type {
			return false
		}
	}
	return true
}
