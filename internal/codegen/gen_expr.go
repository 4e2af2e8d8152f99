package codegen

import (
	"fmt"

	"fortio.org/safecast"

	"nwnsc/internal/ast"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

func tag(t types.Type) TypeTag {
	switch t.Kind {
	case types.Int:
		return TagInt
	case types.Float:
		return TagFloat
	case types.String:
		return TagString
	case types.Object:
		return TagObject
	case types.Vector:
		return TagVector
	case types.Action:
		return TagAction
	default:
		return TagEngine
	}
}

// emitExprInto evaluates id and leaves a value of type want on top of the
// stack, inserting the int-to-float widening conversion spec.md §4.4
// requires wherever the expression's natural type and want differ (every
// context that stores or passes a value — initializers, assignments,
// arguments, returns — needs this; emitExpr alone never widens).
func (fg *funcGen) emitExprInto(id ast.ExprID, want types.Type) {
	got := fg.emitExpr(id)
	fg.emitConv(got, want)
}

func (fg *funcGen) emitConv(from, to types.Type) {
	if from == to || to.Kind == types.Invalid {
		return
	}
	if from.Kind == types.Int && to.Kind == types.Float {
		fg.e.op(OpConv)
		fg.e.u8(pairAux(TagInt, TagFloat))
	}
}

// emitExpr evaluates id, leaves its value on top of the stack in its own
// natural (un-widened) type, and returns that type.
func (fg *funcGen) emitExpr(id ast.ExprID) types.Type {
	e := fg.gen.unit.Exprs.Get(id)
	if e == nil {
		return types.TVoid
	}

	switch e.Kind {
	case ast.ExprIntLit:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagInt))
		fg.e.i32(e.IVal)
		fg.f.push(1)
		return types.TInt

	case ast.ExprFloatLit:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(e.FVal)
		fg.f.push(1)
		return types.TFloat

	case ast.ExprStringLit:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagString))
		fg.e.str(e.SVal)
		fg.f.push(1)
		return types.TString

	case ast.ExprObjectLit:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagObject))
		fg.e.i32(e.IVal)
		fg.f.push(1)
		return types.TObject

	case ast.ExprVectorLit:
		for _, comp := range e.Vec {
			fg.emitExprInto(comp, types.TFloat)
		}
		return types.TVector

	case ast.ExprName:
		return fg.emitLoadName(e)

	case ast.ExprCall:
		return fg.emitCall(e)

	case ast.ExprUnary:
		if t, ok := fg.emitConstFold(id, e); ok {
			return t
		}
		return fg.emitUnary(e)

	case ast.ExprBinary:
		if t, ok := fg.emitConstFold(id, e); ok {
			return t
		}
		return fg.emitBinary(e)

	case ast.ExprAssign:
		return fg.emitAssign(e)

	case ast.ExprIndex:
		return fg.emitVectorComponent(e.Base, constVectorIndex(fg.gen, e.Index))

	case ast.ExprMember:
		return fg.emitVectorComponent(e.Base, memberIndex(e.Member))

	case ast.ExprTernary:
		return fg.emitTernary(e)

	default:
		return e.Type
	}
}

// emitConstFold tries to collapse a binary or unary arithmetic expression
// into a single pushed literal (spec.md §8 S1: "1 + 2 * 3" must compile to
// push-int(7), not a runtime multiply). ++/-- never fold since they have a
// store side effect; anything involving a non-constant operand falls
// through to the ordinary runtime-evaluating path unchanged.
func (fg *funcGen) emitConstFold(id ast.ExprID, e *ast.Expr) (types.Type, bool) {
	if e.Kind == ast.ExprUnary && (e.Postfix || e.Op == token.PlusPlus || e.Op == token.MinusMinus) {
		return types.Type{}, false
	}
	switch e.Type.Kind {
	case types.Int:
		v, ok := fg.gen.constIntOK(id)
		if !ok {
			return types.Type{}, false
		}
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagInt))
		fg.e.i32(v)
		fg.f.push(1)
		return types.TInt, true
	case types.Float:
		v, ok := fg.gen.constFloatOK(id)
		if !ok {
			return types.Type{}, false
		}
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(v)
		fg.f.push(1)
		return types.TFloat, true
	default:
		return types.Type{}, false
	}
}

func memberIndex(member string) int {
	switch member {
	case "x":
		return 0
	case "y":
		return 1
	case "z":
		return 2
	default:
		return 0
	}
}

// constVectorIndex resolves a [vector index] expression to 0/1/2. The
// grammar only admits this form with a literal index, so a non-literal
// here is a codegen bug, not a user error; it is clamped defensively
// rather than panicking.
func constVectorIndex(g *generator, id ast.ExprID) int {
	e := g.unit.Exprs.Get(id)
	if e == nil || e.Kind != ast.ExprIntLit {
		return 0
	}
	if e.IVal < 0 || e.IVal > 2 {
		return 0
	}
	return int(e.IVal)
}

// emitVectorComponent loads one float component out of a vector-typed
// name reference. base must resolve to a plain variable: NWScript has no
// notion of taking a vector's address independent of a named slot, so
// "(a+b).x" is not a legal lvalue and never reaches codegen (sema only
// type-checks, but the grammar never produces such a node).
func (fg *funcGen) emitVectorComponent(base ast.ExprID, comp int) types.Type {
	be := fg.gen.unit.Exprs.Get(base)
	if be == nil || be.Kind != ast.ExprName {
		// Unreachable per the grammar (component/index access only ever
		// applies to a named vector); discard whatever was computed and
		// push a placeholder rather than leave the stack unbalanced.
		baseType := fg.emitExpr(base)
		fg.e.op(OpMovSP)
		fg.e.i32(int32(-baseType.StackSlots() * slotBytes))
		fg.f.pop(baseType.StackSlots())
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(0)
		fg.f.push(1)
		return types.TFloat
	}
	symID := symbols.SymbolID(be.Sym)
	sym := fg.gen.table.Get(symID)
	if sym == nil {
		return types.TFloat
	}
	off := fg.offsetFor(symID, sym, sym.Type.StackSlots()) + int32(comp*slotBytes)
	fg.emitLoadAt(fg.useBP(sym), off, slotBytes)
	return types.TFloat
}

func (fg *funcGen) emitLoadName(e *ast.Expr) types.Type {
	symID := symbols.SymbolID(e.Sym)
	sym := fg.gen.table.Get(symID)
	if sym == nil {
		return e.Type
	}
	if sym.Kind == symbols.KindConstant {
		return fg.emitConstSymbol(sym)
	}
	off := fg.offsetFor(symID, sym, sym.Type.StackSlots())
	fg.emitLoadAt(fg.useBP(sym), off, sym.Type.StackSlots()*slotBytes)
	return sym.Type
}

func (fg *funcGen) emitConstSymbol(sym *symbols.Symbol) types.Type {
	switch sym.Type.Kind {
	case types.Int:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagInt))
		fg.e.i32(sym.ConstI)
	case types.Float:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(sym.ConstF)
	case types.String:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagString))
		fg.e.str(sym.ConstS)
	}
	fg.f.push(1)
	return sym.Type
}

// useBP reports whether sym should be addressed relative to the frozen
// base pointer: true for a global outside the prologue that establishes
// it, false for everything else (locals, parameters, and globals while
// still being addressed from inside that same prologue).
func (fg *funcGen) useBP(sym *symbols.Symbol) bool {
	return sym.Storage == symbols.StorageGlobal && !fg.prologue
}

func (fg *funcGen) offsetFor(symID symbols.SymbolID, sym *symbols.Symbol, regionSlots int) int32 {
	if fg.useBP(sym) {
		return sym.StackOffset
	}
	return fg.f.spOffsetBytes(symID, regionSlots)
}

// u16Size narrows a byte count or slot-derived size into the wire format's
// 16-bit operand fields, panicking on an NWScript program with a single
// variable too large for the format to address.
func u16Size(n int) uint16 {
	v, err := safecast.Conv[uint16](n)
	if err != nil {
		panic(fmt.Errorf("codegen: operand size overflow: %w", err))
	}
	return v
}

// u32Size is u16Size's 32-bit counterpart, for STORE_STATE's frame-size
// operands.
func u32Size(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(fmt.Errorf("codegen: frame size overflow: %w", err))
	}
	return v
}

func (fg *funcGen) emitLoadAt(useBP bool, off int32, sizeBytes int) {
	op := OpCpTopSP
	if useBP {
		op = OpCpTopBP
	}
	fg.e.op(op)
	fg.e.i32(off)
	fg.e.u16(u16Size(sizeBytes))
	fg.f.push(sizeBytes / slotBytes)
}

func (fg *funcGen) emitStoreAt(useBP bool, off int32, sizeBytes int) {
	op := OpCpDownSP
	if useBP {
		op = OpCpDownBP
	}
	fg.e.op(op)
	fg.e.i32(off)
	fg.e.u16(u16Size(sizeBytes))
}

func (fg *funcGen) emitStoreName(e *ast.Expr) {
	symID := symbols.SymbolID(e.Sym)
	sym := fg.gen.table.Get(symID)
	if sym == nil {
		return
	}
	slots := sym.Type.StackSlots()
	off := fg.offsetFor(symID, sym, slots)
	fg.emitStoreAt(fg.useBP(sym), off, slots*slotBytes)
}

func (fg *funcGen) emitCall(e *ast.Expr) types.Type {
	symID := symbols.SymbolID(e.Sym)
	sym := fg.gen.table.Get(symID)
	if sym == nil {
		return e.Type
	}
	for i, a := range e.Args {
		arg := fg.gen.unit.Exprs.Get(a)
		want := types.TVoid
		if i < len(sym.Params) {
			want = sym.Params[i].Type
		}
		if arg != nil && arg.Type.Kind == types.Action {
			fg.emitActionArg(a)
			continue
		}
		fg.emitExprInto(a, want)
	}

	if sym.Kind == symbols.KindEngineAction {
		actionID, err := safecast.Conv[uint16](sym.ActionID)
		if err != nil {
			panic(fmt.Errorf("codegen: action id overflow: %w", err))
		}
		argc, err := safecast.Conv[uint8](len(e.Args))
		if err != nil {
			panic(fmt.Errorf("codegen: action argument count overflow: %w", err))
		}
		fg.e.op(OpAction)
		fg.e.u16(actionID)
		fg.e.u8(argc)
	} else {
		fg.e.call(uint32(symID))
	}

	argSlots := 0
	for i := range e.Args {
		if i < len(sym.Params) {
			argSlots += sym.Params[i].Type.StackSlots()
		}
	}
	fg.f.pop(argSlots)
	fg.f.push(sym.Type.StackSlots())
	return sym.Type
}

// emitActionArg generates a deferred-call argument: the VM snapshots the
// current locals as the action's captured state, then the ordinary call
// sequence follows (spec.md §4.5 "Action closures" — DelayCommand and
// AssignCommand pass one of these as their last argument). Whatever the
// wrapped call itself returns is irrelevant to the caller — the slot left
// behind represents the captured action value, not a call result — so
// the stack effect is normalized to exactly one slot regardless of the
// wrapped call's own return type.
func (fg *funcGen) emitActionArg(id ast.ExprID) {
	fg.e.op(OpStoreState)
	fg.e.u32(u32Size(fg.f.height * slotBytes))
	fg.e.u32(u32Size(fg.paramSlots * slotBytes))

	before := fg.f.height
	fg.emitExpr(id)
	pushed := fg.f.height - before
	switch {
	case pushed == 1:
	case pushed > 1:
		fg.e.op(OpMovSP)
		fg.e.i32(int32(-(pushed - 1) * slotBytes))
		fg.f.pop(pushed - 1)
	default:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagAction))
		fg.e.i32(0)
		fg.f.push(1)
	}
}

func (fg *funcGen) emitUnary(e *ast.Expr) types.Type {
	if e.Postfix || e.Op == token.PlusPlus || e.Op == token.MinusMinus {
		return fg.emitIncDec(e)
	}
	operandType := fg.emitExpr(e.Left)
	switch e.Op {
	case token.Minus:
		fg.e.op(OpNeg)
		fg.e.u8(uint8(tag(operandType)))
	case token.Bang:
		fg.e.op(OpNot)
	case token.Tilde:
		fg.e.op(OpComp)
	}
	if e.Op == token.Bang {
		return types.TInt
	}
	return operandType
}

func (fg *funcGen) emitIncDec(e *ast.Expr) types.Type {
	name := fg.gen.unit.Exprs.Get(e.Left)
	if name == nil || name.Kind != ast.ExprName {
		return fg.emitExpr(e.Left)
	}
	t := fg.emitLoadName(name)

	if e.Postfix {
		fg.duplicateTop(t.StackSlots())
	}
	fg.pushOne(t)
	op := OpAdd
	if e.Op == token.MinusMinus {
		op = OpSub
	}
	fg.e.op(op)
	fg.e.u8(pairAux(tag(t), tag(t)))
	fg.f.pop(1)

	if !e.Postfix {
		fg.duplicateTop(t.StackSlots())
	}
	fg.emitStoreName(name)
	fg.f.pop(t.StackSlots())
	return t
}

// duplicateTop copies the top n slots to a fresh position above
// themselves, leaving two live copies (used so increment/decrement can
// both store the new value and leave the requested old/new value live
// for the surrounding expression).
func (fg *funcGen) duplicateTop(n int) {
	fg.e.op(OpCpTopSP)
	fg.e.i32(int32(-n * slotBytes))
	fg.e.u16(u16Size(n * slotBytes))
	fg.f.push(n)
}

func (fg *funcGen) pushOne(t types.Type) {
	fg.e.op(OpConst)
	if t.Kind == types.Float {
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(1)
	} else {
		fg.e.u8(uint8(TagInt))
		fg.e.i32(1)
	}
	fg.f.push(1)
}

func binaryOp(op token.Kind) Op {
	switch op {
	case token.Plus:
		return OpAdd
	case token.Minus:
		return OpSub
	case token.Star:
		return OpMul
	case token.Slash:
		return OpDiv
	case token.Percent:
		return OpMod
	case token.Amp:
		return OpBoolAnd
	case token.Pipe:
		return OpIncOr
	case token.Caret:
		return OpExcOr
	case token.Shl:
		return OpShLeft
	case token.Shr:
		return OpShRight
	case token.EqEq:
		return OpEqual
	case token.BangEq:
		return OpNEqual
	case token.Lt:
		return OpLT
	case token.LtEq:
		return OpLEq
	case token.Gt:
		return OpGT
	case token.GtEq:
		return OpGEq
	case token.AndAnd:
		return OpLogAnd
	case token.OrOr:
		return OpLogOr
	default:
		return OpNop
	}
}

func (fg *funcGen) emitBinary(e *ast.Expr) types.Type {
	lt := fg.emitExpr(e.Left)
	rt := fg.emitExpr(e.Right)
	resultType := binaryResultType(e.Op, lt, rt)

	fg.e.op(binaryOp(e.Op))
	fg.e.u8(pairAux(tag(lt), tag(rt)))

	fg.f.pop(lt.StackSlots() + rt.StackSlots())
	fg.f.push(resultType.StackSlots())
	return resultType
}

// binaryResultType mirrors internal/sema's binaryResult closely enough
// for codegen's own bookkeeping (stack width, widening); sema has
// already rejected any combination that would make this fall through to
// its zero-value default.
func binaryResultType(op token.Kind, l, r types.Type) types.Type {
	switch op {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.AndAnd, token.OrOr:
		return types.TInt
	case token.Star, token.Slash:
		if l.Kind == types.Vector || r.Kind == types.Vector {
			return types.TVector
		}
	case token.Plus, token.Minus:
		if l.Kind == types.Vector && r.Kind == types.Vector {
			return types.TVector
		}
	}
	if l.Kind == types.Float || r.Kind == types.Float {
		return types.TFloat
	}
	return l
}

func (fg *funcGen) emitAssign(e *ast.Expr) types.Type {
	name := fg.gen.unit.Exprs.Get(e.Left)
	dst := fg.exprType(e.Left)

	if base, ok := assignBaseOp(e.Op); ok {
		fg.emitExpr(e.Left)
		rt := fg.emitExpr(e.Right)
		result := binaryResultType(base, dst, rt)
		fg.e.op(binaryOp(base))
		fg.e.u8(pairAux(tag(dst), tag(rt)))
		fg.f.pop(dst.StackSlots() + rt.StackSlots())
		fg.f.push(result.StackSlots())
		fg.duplicateTop(result.StackSlots())
		if name != nil && name.Kind == ast.ExprName {
			fg.emitStoreName(name)
		}
		fg.f.pop(result.StackSlots())
		return dst
	}

	fg.emitExprInto(e.Right, dst)
	fg.duplicateTop(dst.StackSlots())
	if name != nil && name.Kind == ast.ExprName {
		fg.emitStoreName(name)
	}
	fg.f.pop(dst.StackSlots())
	return dst
}

func (fg *funcGen) exprType(id ast.ExprID) types.Type {
	e := fg.gen.unit.Exprs.Get(id)
	if e == nil {
		return types.TVoid
	}
	return e.Type
}

func assignBaseOp(op token.Kind) (token.Kind, bool) {
	switch op {
	case token.PlusEq:
		return token.Plus, true
	case token.MinusEq:
		return token.Minus, true
	case token.StarEq:
		return token.Star, true
	case token.SlashEq:
		return token.Slash, true
	case token.PercentEq:
		return token.Percent, true
	default:
		return token.Invalid, false
	}
}

func (fg *funcGen) emitTernary(e *ast.Expr) types.Type {
	elseLabel := fg.e.newLabel()
	endLabel := fg.e.newLabel()

	fg.emitExpr(e.Base)
	fg.f.pop(1)
	fg.e.jumpTo(OpJz, elseLabel)

	resultType := fg.exprType(e.Left)
	height := fg.f.height
	fg.emitExprInto(e.Left, resultType)
	fg.e.jumpTo(OpJmp, endLabel)

	fg.f.height = height
	fg.e.placeLabel(elseLabel)
	fg.emitExprInto(e.Right, resultType)

	fg.e.placeLabel(endLabel)
	return resultType
}
