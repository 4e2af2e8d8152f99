package codegen

import "nwnsc/internal/symbols"

// slotBytes is the size of one stack slot; every scalar occupies one,
// a vector occupies three (types.Type.StackSlots).
const slotBytes = 4

// frame tracks the operand-stack height simulator and the
// variable-to-stack-offset map spec.md §4.5 calls for, scoped to one
// function body. Offsets are always computed relative to the *current*
// height, since SP moves as expressions push and pop intermediate
// values; nothing is cached across a push/pop boundary.
type frame struct {
	height int // slots currently live, counted from function entry (0)
	decl   map[symbols.SymbolID]int
	peak   int
}

func newFrame() *frame {
	return &frame{decl: map[symbols.SymbolID]int{}}
}

// push grows the simulated stack by n slots, e.g. after emitting a CONST
// or an arithmetic result.
func (f *frame) push(n int) {
	f.height += n
	if f.height > f.peak {
		f.peak = f.height
	}
}

// pop shrinks the simulated stack by n slots, e.g. after MOVSP(-n*4).
func (f *frame) pop(n int) { f.height -= n }

// declareParamAt records a parameter's declared height directly; the
// caller (checkFuncDef's codegen counterpart) computes it from the
// parameter list's slot widths since a parameter sits below the
// function-entry stack pointer, pushed by the caller before JSR pushed
// the return address.
func (f *frame) declareParamAt(sym symbols.SymbolID, declHeight int) {
	f.decl[sym] = declHeight
}

// declareLocal records a local's position at the moment it becomes live,
// i.e. immediately after its value (or reserved slot) has been pushed.
func (f *frame) declareLocal(sym symbols.SymbolID, slots int) {
	f.push(slots)
	f.decl[sym] = f.height
}

// localsAbove returns every declared symbol whose height lies above
// height, used when a scope closes to find which locals just went out
// of scope (for the .ndb variable live-range end address).
func (f *frame) localsAbove(height int) []symbols.SymbolID {
	var out []symbols.SymbolID
	for sym, h := range f.decl {
		if h > height {
			out = append(out, sym)
		}
	}
	return out
}

// spOffsetBytes returns the signed SP-relative byte offset for the start
// of sym's region, given its width in slots (1 for a scalar or a single
// vector component, 3 for a whole vector read as one unit): the VM's
// CPTOPSP/CPDOWNSP operand, always negative since SP points one slot past
// the top of stack and a local's region is pushed low-address-first.
func (f *frame) spOffsetBytes(sym symbols.SymbolID, slots int) int32 {
	declHeight, ok := f.decl[sym]
	if !ok {
		return 0
	}
	distanceToLast := f.height - declHeight + 1
	startDistance := distanceToLast + (slots - 1)
	return int32(-startDistance * slotBytes)
}
