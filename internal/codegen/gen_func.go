package codegen

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/symbols"
	"nwnsc/internal/types"
)

// funcGen holds the state threaded through code generation for one
// function body (or the global-init prologue, which reuses the same
// machinery with returnType void and paramSlots 0).
type funcGen struct {
	gen *generator
	e   *emitter
	f   *frame

	returnType types.Type
	paramSlots int

	// prologue is true only for the global-init funcGen: inside it, a
	// "global" symbol has not actually been frozen to its BP-relative
	// offset yet (OpSaveBP has not run), so it must be addressed the same
	// SP-relative way as an ordinary local until the prologue ends.
	prologue bool

	localDebug []LocalDebug

	// breakTargets is pushed by every loop and switch; continueTargets
	// only by loops, so a continue inside a switch nested in a loop
	// correctly skips the switch's entry and pops back to the loop's.
	breakTargets    []loopTarget
	continueTargets []loopTarget
}

type loopTarget struct {
	label  int
	height int
}

func (fg *funcGen) pushBreak(label int) { fg.breakTargets = append(fg.breakTargets, loopTarget{label, fg.f.height}) }
func (fg *funcGen) popBreak()           { fg.breakTargets = fg.breakTargets[:len(fg.breakTargets)-1] }

func (fg *funcGen) pushContinue(label int) {
	fg.continueTargets = append(fg.continueTargets, loopTarget{label, fg.f.height})
}
func (fg *funcGen) popContinue() { fg.continueTargets = fg.continueTargets[:len(fg.continueTargets)-1] }

// declareParams assigns each parameter its SP-relative declared height,
// per the suffix-sum law frame.spOffsetBytes relies on (spec.md §4.5
// "Stack-frame protocol": "Parameters are pushed by the caller
// left-to-right, then call is emitted, which pushes the return address").
func (fg *funcGen) declareParams(params []ast.Param, widths []int) {
	n := len(params)
	suffix := make([]int, n+1)
	for i := n - 1; i >= 0; i-- {
		suffix[i] = suffix[i+1] + widths[i]
	}
	fg.paramSlots = suffix[0]
	for i, p := range params {
		sym := symbols.SymbolID(p.Sym)
		fg.f.declareParamAt(sym, -suffix[i])
		if fg.gen.opts.Debug {
			fg.localDebug = append(fg.localDebug, LocalDebug{
				Name: p.Name, Offset: fg.f.spOffsetBytes(sym, widths[i]), Type: p.Type,
				Begin: 0, End: 0, sym: sym,
			})
		}
	}
}

// emitBlock generates a function body, which the parser always
// represents as a StmtCompound.
func (fg *funcGen) emitBlock(id ast.StmtID) {
	fg.emitStmt(id)
}

// emitEpilogue appends a trailing cleanup+return for control flow that
// falls off the end of the function body without an explicit return
// statement (always correct for void functions; for a non-void function
// this path is unreachable in a well-formed program, but codegen keeps
// the stack balanced regardless rather than asserting unreachable code
// away).
func (fg *funcGen) emitEpilogue() {
	fg.emitReturn(ast.NoExprID)
}

// emitReturn pops every local declared since function entry plus every
// parameter pushed by the caller, leaving only the (optional) return
// value above the return address, then emits RETN (spec.md §4.5: "The
// callee is responsible for popping its parameters before return; the
// return value, if any, is left below the return address").
func (fg *funcGen) emitReturn(valueExpr ast.ExprID) {
	valueSlots := 0
	if valueExpr.IsValid() {
		fg.emitExprInto(valueExpr, fg.returnType)
		valueSlots = fg.returnType.StackSlots()
	}

	localsBelow := fg.f.height - valueSlots
	gap := localsBelow + fg.paramSlots
	if gap > 0 && valueSlots > 0 {
		fg.e.op(OpCpDownSP)
		fg.e.i32(int32(-(fg.f.height + fg.paramSlots) * slotBytes))
		fg.e.u16(u16Size(valueSlots * slotBytes))
	}
	if gap > 0 {
		fg.e.op(OpMovSP)
		fg.e.i32(int32(-gap * slotBytes))
		fg.f.pop(gap)
	}
	fg.e.op(OpRetn)
}

// popLocalsTo emits a MOVSP cleaning the stack back down to targetHeight,
// used when a block scope ends or a break/continue jumps out of one or
// more nested scopes (spec.md §4.5: "break/continue emit an explicit pop
// of the locals between the jump site and target").
func (fg *funcGen) popLocalsTo(targetHeight int) {
	n := fg.f.height - targetHeight
	if n <= 0 {
		return
	}
	fg.closeLocalsAbove(targetHeight)
	fg.e.op(OpMovSP)
	fg.e.i32(int32(-n * slotBytes))
	fg.f.pop(n)
}

// closeLocalsAbove records the current address as the live-range end for
// every local declared above height, for .ndb 'v' records. A local whose
// scope is exited along more than one path (a break, then the block's own
// closing pop) ends up with the later of those addresses, since the
// block's own pop is always emitted after anything nested inside it.
func (fg *funcGen) closeLocalsAbove(height int) {
	if !fg.gen.opts.Debug {
		return
	}
	addr := u32Size(fg.e.here())
	for _, sym := range fg.f.localsAbove(height) {
		for i := range fg.localDebug {
			if fg.localDebug[i].sym == sym {
				fg.localDebug[i].End = addr
			}
		}
	}
}
