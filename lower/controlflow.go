package lower

import (
	"github.com/thiremani/ceres/canon"
	"github.com/thiremani/ceres/ir"
	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// loopContext tracks the innermost enclosing loop while its body lowers.
type loopContext struct {
	exit ir.BlockID
	cont ir.BlockID
	// carried lists the mutable bindings threaded through the loop
	// header, in header parameter order. continue jumps supply their
	// current values in exactly this order.
	carried []carriedVar
	// carriesValue reports whether exit takes the loop result as its
	// first parameter. loop yields its break value; for yields unit, its
	// exit is a branch target and holds no parameters, so break inside
	// for discards the value.
	carriesValue bool
}

// carriedVar is one mutable binding a loop header re-versions per
// iteration.
type carriedVar struct {
	name  string
	param ir.VarID
}

// carriedArgs reads the current variable of each carried binding, in
// header parameter order. A missing name means the binding was shadowed
// immutably; its header parameter still holds the loop-entry value.
func (l *Lowerer) carriedArgs(carried []carriedVar) []ir.VarID {
	args := make([]ir.VarID, len(carried))
	for i, c := range carried {
		if v, ok := l.scope.Lookup(c.name); ok && l.scope.IsMutable(c.name) {
			args[i] = v
		} else {
			args[i] = c.param
		}
	}
	return args
}

// lowerBlock runs the statements in a child scope, stopping early once
// one of them terminated the current block, then evaluates the optional
// result. Bindings made inside do not escape.
func (l *Lowerer) lowerBlock(ex *canon.Block) ir.VarID {
	parent := l.scope.Clone()

	for _, stmt := range ex.Stmts {
		if l.builder.IsTerminated() {
			break
		}
		l.lowerExpr(stmt)
	}

	var result ir.VarID
	switch {
	case ex.Result != nil && !l.builder.IsTerminated():
		result = l.lowerExpr(ex.Result)
	case !l.builder.IsTerminated():
		result = l.emitUnit(ex.Sp)
	}

	l.scope = parent
	return result
}

func (l *Lowerer) lowerLet(ex *canon.Let) ir.VarID {
	init := l.lowerExpr(ex.Init)
	l.bindPattern(ex.Pattern, init, ex.Mutable, l.exprType(ex.Init), ex.Sp)
	return l.emitUnit(ex.Sp)
}

// bindPattern destructures an irrefutable let pattern over value,
// projecting each field and binding the names it contains. Refutable
// shapes were rejected upstream; one slipping through records a problem
// and binds nothing.
func (l *Lowerer) bindPattern(pat canon.FlatPattern, value ir.VarID, mutable bool, valType types.Type, sp token.Span) {
	switch p := pat.(type) {
	case canon.PatWildcard:

	case canon.PatBinding:
		l.bindName(p.Name, value, mutable)

	case canon.PatTuple:
		for i, sub := range p.Elems {
			elemTy := tupleElemType(valType, i)
			proj := l.builder.EmitProject(value, i, elemTy, sp)
			l.bindPattern(sub, proj, mutable, elemTy, sp)
		}

	case canon.PatStruct:
		for i, f := range p.Fields {
			fieldTy := structFieldTypeAt(valType, i)
			proj := l.builder.EmitProject(value, i, fieldTy, sp)
			l.bindPattern(f.Pat, proj, mutable, fieldTy, sp)
		}

	case canon.PatList:
		elemTy := listElemType(valType)
		for i, sub := range p.Elems {
			proj := l.builder.EmitProject(value, i, elemTy, sp)
			l.bindPattern(sub, proj, mutable, elemTy, sp)
		}
		if p.HasRest && p.Rest != "" {
			rest := l.builder.EmitProject(value, len(p.Elems), valType, sp)
			l.bindName(p.Rest, rest, mutable)
		}

	case canon.PatAt:
		l.bindName(p.Name, value, mutable)
		l.bindPattern(p.Inner, value, mutable, valType, sp)

	default:
		l.problem(sp, "refutable pattern %T in let binding", pat)
	}
}

func (l *Lowerer) bindName(name string, v ir.VarID, mutable bool) {
	if mutable {
		l.scope.BindMutable(name, v)
	} else {
		l.scope.Bind(name, v)
	}
}

func tupleElemType(ty types.Type, i int) types.Type {
	if t, ok := ty.(types.Tuple); ok && i < len(t.Elems) {
		return t.Elems[i]
	}
	return types.Unresolved{}
}

func structFieldTypeAt(ty types.Type, i int) types.Type {
	if t, ok := ty.(types.Struct); ok && i < len(t.Fields) {
		return t.Fields[i].Type
	}
	return types.Unresolved{}
}

func listElemType(ty types.Type) types.Type {
	if t, ok := ty.(types.List); ok {
		return t.Elem
	}
	return types.Unresolved{}
}

// lowerIf branches on the condition into then/else blocks and joins them
// at a merge block. The merge takes the expression result as its first
// parameter, plus one parameter per mutable binding the branches
// reassigned divergently.
func (l *Lowerer) lowerIf(ex *canon.If) ir.VarID {
	cond := l.lowerExpr(ex.Cond)

	thenBlock := l.builder.NewBlock()
	elseBlock := l.builder.NewBlock()
	mergeBlock := l.builder.NewBlock()
	l.builder.TerminateBranch(cond, thenBlock, elseBlock)

	preScope := l.scope.Clone()
	varTypes := make(map[string]types.Type)
	for _, mb := range preScope.MutableBindings() {
		varTypes[mb.Name] = l.builder.VarType(mb.Var)
	}

	// Nested lowering can fan out extra blocks, so each branch records
	// the block it actually finished in; the merge jump leaves from
	// there, not from the branch's entry block.
	l.builder.PositionAt(thenBlock)
	l.scope = preScope.Clone()
	thenVal := l.lowerExpr(ex.Then)
	thenScope := l.scope
	thenTerminated := l.builder.IsTerminated()
	thenExit := l.builder.CurrentBlock()

	l.builder.PositionAt(elseBlock)
	l.scope = preScope.Clone()
	var elseVal ir.VarID
	if ex.Else != nil {
		elseVal = l.lowerExpr(ex.Else)
	} else {
		elseVal = l.emitUnit(ex.Sp)
	}
	elseScope := l.scope
	elseTerminated := l.builder.IsTerminated()
	elseExit := l.builder.CurrentBlock()

	resultParam := l.builder.AddBlockParam(mergeBlock, l.exprType(ex))
	rebindings := mergeMutableVars(l.builder, mergeBlock, preScope, []*Scope{thenScope, elseScope}, varTypes)

	if !thenTerminated {
		l.builder.PositionAt(thenExit)
		l.builder.TerminateJump(mergeBlock, branchJumpArgs(thenVal, rebindings, thenScope))
	}
	if !elseTerminated {
		l.builder.PositionAt(elseExit)
		l.builder.TerminateJump(mergeBlock, branchJumpArgs(elseVal, rebindings, elseScope))
	}

	l.builder.PositionAt(mergeBlock)
	l.scope = preScope
	for _, rb := range rebindings {
		l.scope.BindMutable(rb.name, rb.param)
	}
	return resultParam
}

// branchJumpArgs orders a branch's merge arguments: the branch result
// first, then its current value for each rebound name.
func branchJumpArgs(val ir.VarID, rebindings []rebinding, scope *Scope) []ir.VarID {
	args := make([]ir.VarID, 0, 1+len(rebindings))
	args = append(args, val)
	for _, rb := range rebindings {
		v, ok := scope.Lookup(rb.name)
		if !ok {
			v = val
		}
		args = append(args, v)
	}
	return args
}

// lowerLoop threads every pre-loop mutable binding through the header as
// a block parameter, so each iteration sees the previous iteration's
// versions. The exit takes one result parameter fed by break sites;
// reassignments inside the loop do not escape it.
func (l *Lowerer) lowerLoop(ex *canon.Loop) ir.VarID {
	header := l.builder.NewBlock()
	exit := l.builder.NewBlock()

	preScope := l.scope.Clone()

	mutables := preScope.MutableBindings()
	carried := make([]carriedVar, 0, len(mutables))
	entryArgs := make([]ir.VarID, 0, len(mutables))
	for _, mb := range mutables {
		param := l.builder.AddBlockParam(header, l.builder.VarType(mb.Var))
		carried = append(carried, carriedVar{name: mb.Name, param: param})
		entryArgs = append(entryArgs, mb.Var)
	}
	l.builder.TerminateJump(header, entryArgs)

	l.builder.PositionAt(header)
	l.scope = preScope.Clone()
	for _, c := range carried {
		l.scope.BindMutable(c.name, c.param)
	}

	prev := l.loopCtx
	l.loopCtx = &loopContext{exit: exit, cont: header, carried: carried, carriesValue: true}

	l.lowerExpr(ex.Body)

	if !l.builder.IsTerminated() {
		l.builder.TerminateJump(header, l.carriedArgs(carried))
	}

	l.loopCtx = prev

	l.builder.PositionAt(exit)
	l.scope = preScope
	return l.builder.AddBlockParam(exit, l.exprType(ex))
}

// lowerFor iterates an induction variable over a start/end range. The
// header tests the bound; a guard, when present, gets its own block
// between header and body and skips to the latch when it fails. The
// construct evaluates to unit.
func (l *Lowerer) lowerFor(ex *canon.For) ir.VarID {
	iter := l.lowerExpr(ex.Iterable)

	header := l.builder.NewBlock()
	body := l.builder.NewBlock()
	latch := l.builder.NewBlock()
	exit := l.builder.NewBlock()

	start := l.builder.EmitProject(iter, 0, types.I64, ex.Sp)
	end := l.builder.EmitProject(iter, 1, types.I64, ex.Sp)
	l.builder.TerminateJump(header, []ir.VarID{start})

	l.builder.PositionAt(header)
	induction := l.builder.AddBlockParam(header, types.I64)
	inBounds := l.builder.EmitLet(ir.PrimOp{
		Op:   canon.OpLt.String(),
		Args: []ir.VarID{induction, end},
	}, types.BoolType, ex.Sp)

	if ex.Guard != nil {
		guarded := l.builder.NewBlock()
		l.builder.TerminateBranch(inBounds, guarded, exit)
		l.builder.PositionAt(guarded)
		l.scope.Bind(ex.Var, induction)
		guardVal := l.lowerExpr(ex.Guard)
		l.builder.TerminateBranch(guardVal, body, latch)
	} else {
		l.builder.TerminateBranch(inBounds, body, exit)
	}

	l.builder.PositionAt(body)
	l.scope.Bind(ex.Var, induction)

	prev := l.loopCtx
	l.loopCtx = &loopContext{exit: exit, cont: latch}

	l.lowerExpr(ex.Body)

	if !l.builder.IsTerminated() {
		l.builder.TerminateJump(latch, nil)
	}

	l.loopCtx = prev

	l.builder.PositionAt(latch)
	one := l.builder.EmitLet(ir.ConstInt(1), types.I64, ex.Sp)
	next := l.builder.EmitLet(ir.PrimOp{
		Op:   canon.OpAdd.String(),
		Args: []ir.VarID{induction, one},
	}, types.I64, ex.Sp)
	l.builder.TerminateJump(header, []ir.VarID{next})

	l.builder.PositionAt(exit)
	return l.emitUnit(ex.Sp)
}

func (l *Lowerer) lowerBreak(ex *canon.Break) ir.VarID {
	var val ir.VarID
	if ex.Value != nil {
		val = l.lowerExpr(ex.Value)
	} else {
		val = l.emitUnit(ex.Sp)
	}

	if l.loopCtx == nil {
		l.problem(ex.Sp, "break outside of loop")
		return l.emitUnit(ex.Sp)
	}

	if l.loopCtx.carriesValue {
		l.builder.TerminateJump(l.loopCtx.exit, []ir.VarID{val})
	} else {
		l.builder.TerminateJump(l.loopCtx.exit, nil)
	}
	return l.emitUnit(ex.Sp)
}

func (l *Lowerer) lowerContinue(ex *canon.Continue) ir.VarID {
	if l.loopCtx == nil {
		l.problem(ex.Sp, "continue outside of loop")
		return l.emitUnit(ex.Sp)
	}
	l.builder.TerminateJump(l.loopCtx.cont, l.carriedArgs(l.loopCtx.carried))
	return l.emitUnit(ex.Sp)
}

// lowerAssign represents mutation without mutable cells: assigning a
// mutable name binds it to a fresh variable holding the new value, and
// merges reconcile the versions. Field and index targets mutate in place
// through runtime setters instead.
func (l *Lowerer) lowerAssign(ex *canon.Assign) ir.VarID {
	rhs := l.lowerExpr(ex.Value)

	switch target := ex.Target.(type) {
	case *canon.Ident:
		if !l.scope.IsMutable(target.Name) {
			l.problem(ex.Sp, "assignment to immutable name %s", target.Name)
			break
		}
		next := l.builder.EmitLet(ir.VarRef{ID: rhs}, l.exprType(ex.Value), ex.Sp)
		l.scope.BindMutable(target.Name, next)

	case *canon.Field:
		recv := l.lowerExpr(target.Receiver)
		idx := l.builder.EmitLet(ir.ConstInt(int64(target.Index)), types.I64, target.Sp)
		l.builder.EmitApply("__set_field", []ir.VarID{recv, idx, rhs}, types.UnitType, ex.Sp)

	case *canon.Index:
		recv := l.lowerExpr(target.Receiver)
		key := l.lowerExpr(target.Key)
		l.builder.EmitApply("__set_index", []ir.VarID{recv, key, rhs}, types.UnitType, ex.Sp)

	default:
		l.problem(ex.Sp, "unsupported assignment target %T", ex.Target)
	}

	return l.emitUnit(ex.Sp)
}

// lowerMatch compiles the arms into a decision tree and emits it. Every
// leaf jumps to one merge block whose parameter is the match value.
func (l *Lowerer) lowerMatch(ex *canon.Match) ir.VarID {
	scrut := l.lowerExpr(ex.Scrutinee)

	if len(ex.Arms) == 0 {
		return l.emitUnit(ex.Sp)
	}

	merge := l.builder.NewBlock()
	resultParam := l.builder.AddBlockParam(merge, l.exprType(ex))

	bodies := make([]canon.Expr, len(ex.Arms))
	for i, arm := range ex.Arms {
		bodies[i] = arm.Body
	}

	ctx := &emitContext{
		rootScrutinee: scrut,
		merge:         merge,
		armBodies:     bodies,
		sp:            ex.Sp,
	}
	l.emitTree(l.treeFor(ex), ctx)

	l.builder.PositionAt(merge)
	return resultParam
}
