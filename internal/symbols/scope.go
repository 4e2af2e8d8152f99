package symbols

import "nwnsc/internal/source"

// ScopeKind distinguishes the global frame (file-scope declarations and
// engine actions) from nested function/compound-statement frames, per
// spec.md §3 "Scope".
type ScopeKind uint8

const (
	ScopeInvalid ScopeKind = iota
	ScopeGlobal
	ScopeFunction
	ScopeBlock
)

// Scope is one frame in the lexical stack: an ordered set of names,
// declared in this frame only. Lookup walks Parent outward.
type Scope struct {
	Kind   ScopeKind
	Parent ScopeID
	Span   source.Span
	names  map[string]SymbolID
	order  []SymbolID
}
