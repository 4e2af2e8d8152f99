package codegen

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/symbols"
	"nwnsc/internal/types"
)

func (fg *funcGen) emitStmt(id ast.StmtID) {
	s := fg.gen.unit.Stmts.Get(id)
	if s == nil {
		return
	}
	if fg.gen.opts.Debug && s.Kind != ast.StmtCompound {
		fg.e.mark(s.Span.File, fg.gen.fset.Position(s.Span.File, s.Span.Start).Line)
	}

	switch s.Kind {
	case ast.StmtCompound:
		height := fg.f.height
		for _, inner := range s.Stmts {
			fg.emitStmt(inner)
		}
		fg.popLocalsTo(height)

	case ast.StmtDecl:
		fg.emitLocalDecl(s.Decl)

	case ast.StmtExpr:
		fg.emitDiscard(s.Expr)

	case ast.StmtIf:
		fg.emitIf(s)

	case ast.StmtWhile:
		fg.emitWhile(s)

	case ast.StmtDo:
		fg.emitDo(s)

	case ast.StmtFor:
		fg.emitFor(s)

	case ast.StmtSwitch:
		fg.emitSwitch(s)

	case ast.StmtBreak:
		t := fg.breakTargets[len(fg.breakTargets)-1]
		fg.popLocalsTo(t.height)
		fg.e.jumpTo(OpJmp, t.label)

	case ast.StmtContinue:
		t := fg.continueTargets[len(fg.continueTargets)-1]
		fg.popLocalsTo(t.height)
		fg.e.jumpTo(OpJmp, t.label)

	case ast.StmtReturn:
		fg.emitReturn(s.Expr)

	case ast.StmtEmpty:
		// nothing to emit
	}
}

// emitLocalDecl generates a local variable or const declaration: its
// initializer (or a zero value, since the slot must exist regardless),
// then records the symbol's declared height.
func (fg *funcGen) emitLocalDecl(id ast.DeclID) {
	d := fg.gen.unit.Decls.Get(id)
	if d == nil || (d.Kind != ast.DeclVar && d.Kind != ast.DeclConst) {
		return
	}
	if d.Init.IsValid() {
		fg.emitExprInto(d.Init, d.Type)
	} else {
		fg.emitZeroValue(d.Type)
	}
	sym := symbols.SymbolID(d.Sym)
	fg.f.declareLocal(sym, d.Type.StackSlots())

	if fg.gen.opts.Debug {
		fg.localDebug = append(fg.localDebug, LocalDebug{
			Name: d.Name, Offset: fg.f.spOffsetBytes(sym, d.Type.StackSlots()),
			Type: d.Type, Begin: u32Size(fg.e.here()), sym: sym,
		})
	}
}

func (fg *funcGen) emitZeroValue(t types.Type) {
	switch t.Kind {
	case types.Int, types.Object:
		fg.e.op(OpConst)
		fg.e.u8(uint8(tag(t)))
		fg.e.i32(0)
		fg.f.push(1)
	case types.Float:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagFloat))
		fg.e.f32(0)
		fg.f.push(1)
	case types.String:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagString))
		fg.e.str("")
		fg.f.push(1)
	case types.Vector:
		for i := 0; i < 3; i++ {
			fg.e.op(OpConst)
			fg.e.u8(uint8(TagFloat))
			fg.e.f32(0)
			fg.f.push(1)
		}
	default:
		fg.e.op(OpConst)
		fg.e.u8(uint8(TagInt))
		fg.e.i32(0)
		fg.f.push(1)
	}
}

// emitDiscard evaluates id for its side effects and drops any value it
// leaves behind, the way a bare "foo();" expression statement does.
func (fg *funcGen) emitDiscard(id ast.ExprID) {
	if !id.IsValid() {
		return
	}
	t := fg.emitExpr(id)
	slots := t.StackSlots()
	if slots == 0 {
		return
	}
	fg.e.op(OpMovSP)
	fg.e.i32(int32(-slots * slotBytes))
	fg.f.pop(slots)
}

func (fg *funcGen) emitIf(s *ast.Stmt) {
	condType := fg.emitExpr(s.Cond)
	fg.f.pop(condType.StackSlots())

	elseLabel := fg.e.newLabel()
	fg.e.jumpTo(OpJz, elseLabel)
	fg.emitStmt(s.Then)

	if s.Else.IsValid() {
		endLabel := fg.e.newLabel()
		fg.e.jumpTo(OpJmp, endLabel)
		fg.e.placeLabel(elseLabel)
		fg.emitStmt(s.Else)
		fg.e.placeLabel(endLabel)
		return
	}
	fg.e.placeLabel(elseLabel)
}

func (fg *funcGen) emitWhile(s *ast.Stmt) {
	condLabel := fg.e.newLabel()
	endLabel := fg.e.newLabel()

	fg.e.placeLabel(condLabel)
	condType := fg.emitExpr(s.Cond)
	fg.f.pop(condType.StackSlots())
	fg.e.jumpTo(OpJz, endLabel)

	fg.pushBreak(endLabel)
	fg.pushContinue(condLabel)
	fg.emitStmt(s.Body)
	fg.popContinue()
	fg.popBreak()

	fg.e.jumpTo(OpJmp, condLabel)
	fg.e.placeLabel(endLabel)
}

func (fg *funcGen) emitDo(s *ast.Stmt) {
	bodyLabel := fg.e.newLabel()
	contLabel := fg.e.newLabel()
	endLabel := fg.e.newLabel()

	fg.e.placeLabel(bodyLabel)
	fg.pushBreak(endLabel)
	fg.pushContinue(contLabel)
	fg.emitStmt(s.Body)
	fg.popContinue()
	fg.popBreak()

	fg.e.placeLabel(contLabel)
	condType := fg.emitExpr(s.Cond)
	fg.f.pop(condType.StackSlots())
	fg.e.jumpTo(OpJnz, bodyLabel)
	fg.e.placeLabel(endLabel)
}

func (fg *funcGen) emitFor(s *ast.Stmt) {
	blockHeight := fg.f.height
	fg.emitDiscard(s.Init)

	condLabel := fg.e.newLabel()
	postLabel := fg.e.newLabel()
	endLabel := fg.e.newLabel()

	fg.e.placeLabel(condLabel)
	if s.Cond.IsValid() {
		condType := fg.emitExpr(s.Cond)
		fg.f.pop(condType.StackSlots())
		fg.e.jumpTo(OpJz, endLabel)
	}

	fg.pushBreak(endLabel)
	fg.pushContinue(postLabel)
	fg.emitStmt(s.Body)
	fg.popContinue()
	fg.popBreak()

	fg.e.placeLabel(postLabel)
	fg.emitDiscard(s.Post)
	fg.e.jumpTo(OpJmp, condLabel)
	fg.e.placeLabel(endLabel)
	fg.popLocalsTo(blockHeight)
}

// emitSwitch lays out a cascade of equality tests against the scrutinee
// (evaluated once, kept live through every test) followed by the case
// bodies in source order; NWScript switch falls through between cases
// exactly like C, so bodies are not individually wrapped in jumps — only
// an explicit break exits early (spec.md §4.4 "switch").
//
// A local declared inside one case and referenced after falling through
// from an earlier case works; jumping directly into a later case past a
// declaration does not give that local a defined value, same restriction
// C places on crossing over an initializer with goto.
func (fg *funcGen) emitSwitch(s *ast.Stmt) {
	switchHeight := fg.f.height
	scrutType := fg.emitExpr(s.Scrutinee)

	type caseSite struct {
		label   int
		isDef   bool
		stmtIdx int
	}
	var sites []caseSite
	defaultLabel := -1

	for i, caseID := range s.Cases {
		c := fg.gen.unit.Stmts.Get(caseID)
		if c == nil {
			continue
		}
		label := fg.e.newLabel()
		if c.Kind == ast.StmtDefault {
			defaultLabel = label
			sites = append(sites, caseSite{label: label, isDef: true, stmtIdx: i})
			continue
		}
		fg.duplicateTop(scrutType.StackSlots())
		if scrutType.Kind == types.String {
			fg.e.op(OpConst)
			fg.e.u8(uint8(TagString))
			fg.e.str(fg.gen.constString(c.CaseValue))
		} else {
			fg.e.op(OpConst)
			fg.e.u8(uint8(TagInt))
			fg.e.i32(fg.gen.constInt(c.CaseValue))
		}
		fg.f.push(1)
		fg.e.op(OpEqual)
		fg.e.u8(pairAux(tag(scrutType), tag(scrutType)))
		fg.f.pop(2)
		fg.f.push(1)
		fg.f.pop(1)
		fg.e.jumpTo(OpJnz, label)
		sites = append(sites, caseSite{label: label, stmtIdx: i})
	}

	endLabel := fg.e.newLabel()
	if defaultLabel >= 0 {
		fg.e.jumpTo(OpJmp, defaultLabel)
	} else {
		fg.e.jumpTo(OpJmp, endLabel)
	}

	fg.pushBreak(endLabel)
	for _, site := range sites {
		fg.e.placeLabel(site.label)
		c := fg.gen.unit.Stmts.Get(s.Cases[site.stmtIdx])
		for _, inner := range c.Stmts {
			fg.emitStmt(inner)
		}
	}
	fg.popBreak()

	fg.e.placeLabel(endLabel)
	fg.popLocalsTo(switchHeight)
}
