package sema

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/symbols"
	"nwnsc/internal/types"
)

// checkStmtAsBlock checks a function body, which the parser always
// represents as a StmtCompound even for an empty "{}". Unlike a nested
// compound, the body opens no scope of its own: its statements are
// checked directly in the function scope the caller pushed, so the
// parameters and the body's outermost locals share one frame.
func (c *checker) checkStmtAsBlock(id ast.StmtID) {
	s := c.unit.Stmts.Get(id)
	if s == nil || s.Kind != ast.StmtCompound {
		return
	}
	for _, inner := range s.Stmts {
		c.checkStmt(inner)
	}
}

func (c *checker) checkStmt(id ast.StmtID) {
	s := c.unit.Stmts.Get(id)
	if s == nil {
		return
	}
	switch s.Kind {
	case ast.StmtCompound:
		c.table.PushScope(symbols.ScopeBlock, s.Span)
		for _, inner := range s.Stmts {
			c.checkStmt(inner)
		}
		c.table.PopScope()

	case ast.StmtDecl:
		c.checkLocalDecl(s.Decl)

	case ast.StmtExpr:
		c.checkExpr(s.Expr)

	case ast.StmtIf:
		condType := c.checkExpr(s.Cond)
		if !condType.CoercesToBool() {
			c.errorf(diag.TypeInvalidOperands, s.Span, "if condition must be int or object, found %s", condType)
		}
		c.checkStmt(s.Then)
		if s.Else.IsValid() {
			c.checkStmt(s.Else)
		}

	case ast.StmtWhile:
		condType := c.checkExpr(s.Cond)
		if !condType.CoercesToBool() {
			c.errorf(diag.TypeInvalidOperands, s.Span, "while condition must be int or object, found %s", condType)
		}
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--

	case ast.StmtDo:
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--
		condType := c.checkExpr(s.Cond)
		if !condType.CoercesToBool() {
			c.errorf(diag.TypeInvalidOperands, s.Span, "do/while condition must be int or object, found %s", condType)
		}

	case ast.StmtFor:
		c.table.PushScope(symbols.ScopeBlock, s.Span)
		if s.Init.IsValid() {
			c.checkExpr(s.Init)
		}
		if s.Cond.IsValid() {
			condType := c.checkExpr(s.Cond)
			if !condType.CoercesToBool() {
				c.errorf(diag.TypeInvalidOperands, s.Span, "for condition must be int or object, found %s", condType)
			}
		}
		if s.Post.IsValid() {
			c.checkExpr(s.Post)
		}
		c.loopDepth++
		c.checkStmt(s.Body)
		c.loopDepth--
		c.table.PopScope()

	case ast.StmtSwitch:
		c.checkSwitch(s)

	case ast.StmtBreak:
		if c.loopDepth == 0 && c.switchDepth == 0 {
			c.errorf(diag.ParseMisplacedJumpStmt, s.Span, "break outside a loop or switch")
		}

	case ast.StmtContinue:
		if c.loopDepth == 0 {
			c.errorf(diag.ParseMisplacedJumpStmt, s.Span, "continue outside a loop")
		}

	case ast.StmtReturn:
		c.checkReturn(s)
	}
}

func (c *checker) checkLocalDecl(id ast.DeclID) {
	d := c.unit.Decls.Get(id)
	if d == nil {
		return
	}
	if d.Kind != ast.DeclVar && d.Kind != ast.DeclConst {
		return
	}
	if d.Type.Kind == types.Void {
		c.errorf(diag.TypeVoidExpression, d.Span, "variable %q cannot have type void", d.Name)
	}
	kind := symbols.KindVariable
	var constVal constValue
	constOK := true
	if d.Init.IsValid() {
		if d.Kind == ast.DeclConst {
			kind = symbols.KindConstant
			constVal, constOK = c.evalConst(d.Init, d.Type)
			if !constOK {
				c.errorf(diag.ConstNotConstant, d.Span, "initializer for const %q is not a compile-time constant", d.Name)
			}
		}
		initType := c.checkExpr(d.Init)
		if !c.assignable(d.Type, initType) {
			c.errorf(diag.TypeAssignIncompatible, d.Span, "cannot initialize %s %q with %s", d.Type, d.Name, initType)
		}
	} else if d.Kind == ast.DeclConst {
		c.errorf(diag.ConstNotConstant, d.Span, "const declaration requires an initializer")
	}
	sym := symbols.Symbol{Kind: kind, Type: d.Type, Storage: symbols.StorageStack, Span: d.Span}
	if kind == symbols.KindConstant && constOK {
		sym.ConstI, sym.ConstF, sym.ConstS = constVal.i, constVal.f, constVal.s
	}
	c.declare(d.Name, sym, id)
}

// checkSwitch validates the scrutinee's type, that it is a string only
// under the engine-extensions flag, and that every case value is a
// compile-time constant of the same type as the scrutinee (spec.md §4.4
// "Engine extensions": "switch on string").
func (c *checker) checkSwitch(s *ast.Stmt) {
	scrutType := c.checkExpr(s.Scrutinee)
	switch scrutType.Kind {
	case types.Int:
		// always permitted
	case types.String:
		if !c.opts.Extensions {
			c.errorf(diag.TypeExtensionDisabled, s.Span, "switch on string requires engine extensions")
		}
	default:
		c.errorf(diag.TypeInvalidOperands, s.Span, "switch scrutinee must be int%s, found %s",
			map[bool]string{true: " or string", false: ""}[c.opts.Extensions], scrutType)
	}

	c.switchDepth++
	seen := map[string]bool{}
	for _, caseID := range s.Cases {
		caseStmt := c.unit.Stmts.Get(caseID)
		if caseStmt == nil {
			continue
		}
		if caseStmt.Kind == ast.StmtCase {
			val, ok := c.evalConst(caseStmt.CaseValue, scrutType)
			if !ok {
				c.errorf(diag.ConstNotConstant, caseStmt.Span, "case label is not a compile-time constant")
			} else {
				key := val.key(scrutType)
				if seen[key] {
					c.errorf(diag.NameRedefinition, caseStmt.Span, "duplicate case label")
				}
				seen[key] = true
			}
		}
		for _, inner := range caseStmt.Stmts {
			c.checkStmt(inner)
		}
	}
	c.switchDepth--
}

func (c *checker) checkReturn(s *ast.Stmt) {
	fn := c.unit.Decls.Get(c.curReturn)
	if fn == nil {
		return
	}
	if !s.Expr.IsValid() {
		if fn.Type.Kind != types.Void {
			c.errorf(diag.TypeReturnMismatch, s.Span, "missing return value in function returning %s", fn.Type)
		}
		return
	}
	valType := c.checkExpr(s.Expr)
	if fn.Type.Kind == types.Void {
		c.errorf(diag.TypeReturnMismatch, s.Span, "returning a value from a void function")
		return
	}
	if !c.assignable(fn.Type, valType) {
		c.errorf(diag.TypeReturnMismatch, s.Span, "cannot return %s from function returning %s", valType, fn.Type)
	}
}
