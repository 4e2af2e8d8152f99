package source

// StringID identifies an interned string.
type StringID uint32

// NoStringID marks the absence of an interned string.
const NoStringID StringID = 0

// Interner deduplicates identifier and literal text so that symbols and AST
// nodes can carry a cheap, comparable handle instead of a Go string.
type Interner struct {
	byID  []string
	index map[string]StringID
}

// NewInterner returns an Interner pre-seeded so index 0 means "no string".
func NewInterner() *Interner {
	return &Interner{
		byID:  []string{""},
		index: map[string]StringID{"": 0},
	}
}

// Intern returns the StringID for s, allocating a new one if s is unseen.
func (in *Interner) Intern(s string) StringID {
	if id, ok := in.index[s]; ok {
		return id
	}
	cpy := string([]byte(s)) // detach from caller's backing array
	id := StringID(len(in.byID))
	in.byID = append(in.byID, cpy)
	in.index[cpy] = id
	return id
}

// Lookup returns the string for id, or ("", false) if id is not valid.
func (in *Interner) Lookup(id StringID) (string, bool) {
	if int(id) < 0 || int(id) >= len(in.byID) {
		return "", false
	}
	return in.byID[id], true
}

// MustLookup is Lookup but panics on an invalid id; callers hold ids they
// minted themselves, so this should never fire outside a bug.
func (in *Interner) MustLookup(id StringID) string {
	s, ok := in.Lookup(id)
	if !ok {
		panic("source: invalid StringID")
	}
	return s
}

// Len returns the number of distinct strings interned, including the empty
// sentinel at NoStringID.
func (in *Interner) Len() int { return len(in.byID) }
