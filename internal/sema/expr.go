package sema

import (
	"nwnsc/internal/ast"
	"nwnsc/internal/diag"
	"nwnsc/internal/symbols"
	"nwnsc/internal/token"
	"nwnsc/internal/types"
)

// checkExpr resolves names, type-checks e, and annotates its Type (and,
// for name/call nodes, Sym) in place. It returns the resolved type so
// callers composing larger expressions don't need a second lookup.
func (c *checker) checkExpr(id ast.ExprID) types.Type {
	e := c.unit.Exprs.Get(id)
	if e == nil {
		return types.TVoid
	}

	var t types.Type
	switch e.Kind {
	case ast.ExprIntLit:
		t = types.TInt
	case ast.ExprFloatLit:
		t = types.TFloat
	case ast.ExprStringLit:
		t = types.TString
	case ast.ExprVectorLit:
		t = c.checkVectorLit(e)
	case ast.ExprObjectLit:
		t = types.TObject
	case ast.ExprName:
		t = c.checkName(e)
	case ast.ExprCall:
		t = c.checkCall(e)
	case ast.ExprUnary:
		t = c.checkUnary(e)
	case ast.ExprBinary:
		t = c.checkBinary(e)
	case ast.ExprAssign:
		t = c.checkAssign(e)
	case ast.ExprIndex:
		t = c.checkIndex(e)
	case ast.ExprMember:
		t = c.checkMember(e)
	case ast.ExprTernary:
		t = c.checkTernary(e)
	default:
		t = types.TVoid
	}
	e.Type = t
	return t
}

func (c *checker) checkVectorLit(e *ast.Expr) types.Type {
	for _, comp := range e.Vec {
		ct := c.checkExpr(comp)
		if ct.Kind != types.Int && ct.Kind != types.Float {
			c.errorf(diag.TypeInvalidOperands, e.Span, "vector components must be numeric, found %s", ct)
		}
	}
	return types.TVector
}

func (c *checker) checkName(e *ast.Expr) types.Type {
	symID, sym, ok := c.table.Lookup(e.Name)
	if !ok {
		c.errorf(diag.NameUndeclared, e.Span, "undeclared identifier %q", e.Name)
		return types.TVoid
	}
	e.Sym = uint32(symID)
	if sym.Kind == symbols.KindFunction || sym.Kind == symbols.KindEngineAction {
		c.errorf(diag.NameWrongKind, e.Span, "%q is a function, not a value", e.Name)
		return types.TVoid
	}
	if sym.Kind == symbols.KindConstant {
		switch sym.Type.Kind {
		case types.Int:
			e.ConstValid, e.ConstI = true, sym.ConstI
		case types.Float:
			e.ConstValid, e.ConstF = true, sym.ConstF
		case types.String:
			e.ConstValid, e.ConstS = true, sym.ConstS
		}
	}
	return sym.Type
}

// checkCall resolves the callee, checks arity against
// [min_parameters, num_parameters], and fills any missing trailing
// arguments with the callee's default-value expressions (spec.md §3
// "Arity law", §4.4 "Default arguments"). It also records the call as an
// edge in the current function's call graph for the recursion pass.
func (c *checker) checkCall(e *ast.Expr) types.Type {
	symID, sym, ok := c.table.Lookup(e.Name)
	if !ok {
		c.errorf(diag.NameUndeclared, e.Span, "call to undeclared function %q", e.Name)
		for _, a := range e.Args {
			c.checkExpr(a)
		}
		return types.TVoid
	}
	if sym.Kind != symbols.KindFunction && sym.Kind != symbols.KindEngineAction {
		c.errorf(diag.NameWrongKind, e.Span, "%q is not callable", e.Name)
		return types.TVoid
	}
	e.Sym = uint32(symID)

	if c.curFunc != "" {
		if c.callees[c.curFunc] == nil {
			c.callees[c.curFunc] = map[string]bool{}
		}
		c.callees[c.curFunc][e.Name] = true
	}

	n := len(e.Args)
	if n > len(sym.Params) {
		c.errorf(diag.ArityTooManyArguments, e.Span, "too many arguments to %q: want at most %d, got %d", e.Name, len(sym.Params), n)
		return sym.Type
	}
	if n < sym.MinParams {
		c.errorf(diag.ArityTooFewArguments, e.Span, "too few arguments to %q: want at least %d, got %d", e.Name, sym.MinParams, n)
		return sym.Type
	}
	for i := n; i < len(sym.Params); i++ {
		p := sym.Params[i]
		if !p.Default.IsValid() {
			c.errorf(diag.ArityMissingDefault, e.Span, "missing argument %d to %q and it has no default", i+1, e.Name)
			return sym.Type
		}
		e.Args = append(e.Args, p.Default)
	}
	for i, a := range e.Args {
		// An "action"-typed parameter receives a deferred call, written
		// as an ordinary call expression at the argument site (the
		// DelayCommand/AssignCommand idiom): the callee's own return
		// type is irrelevant since it is never actually invoked here,
		// only captured as a closure (spec.md §4.5 "Action closures").
		if i < len(sym.Params) && sym.Params[i].Type.Kind == types.Action {
			arg := c.unit.Exprs.Get(a)
			if arg == nil || arg.Kind != ast.ExprCall {
				c.errorf(diag.TypeMismatch, e.Span, "argument %d to %q must be an action (a call expression)", i+1, e.Name)
				continue
			}
			c.checkCall(arg)
			arg.Type = types.TAction
			continue
		}
		at := c.checkExpr(a)
		if i < len(sym.Params) && !c.assignable(sym.Params[i].Type, at) {
			c.errorf(diag.TypeMismatch, e.Span, "argument %d to %q: cannot use %s as %s", i+1, e.Name, at, sym.Params[i].Type)
		}
	}
	return sym.Type
}

func (c *checker) checkUnary(e *ast.Expr) types.Type {
	operandType := c.checkExpr(e.Left)
	if e.Postfix || e.Op == token.PlusPlus || e.Op == token.MinusMinus {
		if !operandType.IsArithmetic() {
			c.errorf(diag.TypeInvalidOperands, e.Span, "%s requires a numeric operand, found %s", e.Op, operandType)
		}
		return operandType
	}
	t, ok := c.unaryResult(e.Op, operandType)
	if !ok {
		c.errorf(diag.TypeInvalidOperands, e.Span, "invalid operand type %s for unary %s", operandType, e.Op)
		return types.TVoid
	}
	return t
}

func (c *checker) checkBinary(e *ast.Expr) types.Type {
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	t, ok := c.binaryResult(e.Op, lt, rt)
	if !ok {
		c.errorf(diag.TypeInvalidOperands, e.Span, "invalid operand types %s and %s for %s", lt, rt, e.Op)
		return types.TVoid
	}
	return t
}

func (c *checker) checkAssign(e *ast.Expr) types.Type {
	dst := c.checkExpr(e.Left)
	src := c.checkExpr(e.Right)

	if base, ok := assignBaseOp(e.Op); ok {
		if !c.compoundAssignOK(e.Op, dst) {
			c.errorf(diag.TypeExtensionDisabled, e.Span, "compound assignment on %s requires engine extensions", dst)
			return dst
		}
		if _, ok := c.binaryResult(base, dst, src); !ok {
			c.errorf(diag.TypeInvalidOperands, e.Span, "invalid operand types %s and %s for %s", dst, src, e.Op)
		}
		return dst
	}

	if !c.assignable(dst, src) {
		c.errorf(diag.TypeAssignIncompatible, e.Span, "cannot assign %s to %s", src, dst)
	}
	return dst
}

func (c *checker) checkIndex(e *ast.Expr) types.Type {
	baseType := c.checkExpr(e.Base)
	idxType := c.checkExpr(e.Index)
	if baseType.Kind != types.Vector {
		c.errorf(diag.TypeInvalidOperands, e.Span, "%s is not indexable", baseType)
		return types.TVoid
	}
	if idxType.Kind != types.Int {
		c.errorf(diag.TypeInvalidOperands, e.Span, "vector index must be int, found %s", idxType)
	}
	return types.TFloat
}

func (c *checker) checkMember(e *ast.Expr) types.Type {
	baseType := c.checkExpr(e.Base)
	if baseType.Kind != types.Vector {
		c.errorf(diag.TypeInvalidOperands, e.Span, "%s has no member %q", baseType, e.Member)
		return types.TVoid
	}
	switch e.Member {
	case "x", "y", "z":
		return types.TFloat
	default:
		c.errorf(diag.TypeInvalidOperands, e.Span, "vector has no member %q", e.Member)
		return types.TVoid
	}
}

func (c *checker) checkTernary(e *ast.Expr) types.Type {
	condType := c.checkExpr(e.Base)
	if !condType.CoercesToBool() {
		c.errorf(diag.TypeInvalidOperands, e.Span, "ternary condition must be int or object, found %s", condType)
	}
	lt := c.checkExpr(e.Left)
	rt := c.checkExpr(e.Right)
	if lt != rt {
		if lt.Kind == types.Int && rt.Kind == types.Float {
			return types.TFloat
		}
		if lt.Kind == types.Float && rt.Kind == types.Int {
			return types.TFloat
		}
		c.errorf(diag.TypeMismatch, e.Span, "ternary branches have different types: %s and %s", lt, rt)
		return lt
	}
	return lt
}
