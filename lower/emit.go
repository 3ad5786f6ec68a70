package lower

import (
	"fmt"
	"math"

	"github.com/thiremani/ceres/canon"
	"github.com/thiremani/ceres/ir"
	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// emitContext carries what every node of one match emission shares: the
// lowered scrutinee all paths project from, the merge block leaves jump
// to, and the arm bodies indexed by arm.
type emitContext struct {
	rootScrutinee ir.VarID
	merge         ir.BlockID
	armBodies     []canon.Expr
	sp            token.Span
}

// emitTree turns one decision tree node into blocks, leaving every
// emitted path either jumped to the merge block or unreachable.
func (l *Lowerer) emitTree(tree canon.DecisionTree, ctx *emitContext) {
	switch t := tree.(type) {
	case *canon.Leaf:
		l.emitLeaf(t, ctx)
	case *canon.Guard:
		l.emitGuard(t, ctx)
	case canon.Fail:
		// Exhaustiveness proved this unreachable.
		l.builder.TerminateUnreachable()
	case *canon.Switch:
		switch t.Kind {
		case canon.EnumTag:
			l.emitTagSwitch(t, ctx)
		case canon.IntEq, canon.BoolEq, canon.CharEq:
			l.emitSwitchEdges(t, l.resolvePath(t.Path, ctx), ctx)
		case canon.StrEq, canon.FloatEq:
			l.emitEqChain(t, ctx)
		case canon.IntRange:
			l.emitRangeChain(t, ctx)
		case canon.ListLen:
			l.emitListLen(t, ctx)
		default:
			panic(fmt.Sprintf("unhandled test kind %v", t.Kind))
		}
	default:
		panic(fmt.Sprintf("unhandled decision tree node %T", tree))
	}
}

// emitLeaf binds the leaf's captured names and lowers its arm body.
func (l *Lowerer) emitLeaf(leaf *canon.Leaf, ctx *emitContext) {
	l.bindTreeBindings(leaf.Bindings, ctx)
	val := l.lowerExpr(ctx.armBodies[leaf.ArmIndex])
	if !l.builder.IsTerminated() {
		l.builder.TerminateJump(ctx.merge, []ir.VarID{val})
	}
}

// emitGuard evaluates the arm's guard with its bindings in scope,
// entering the arm body on success and the rest of the tree on failure.
func (l *Lowerer) emitGuard(g *canon.Guard, ctx *emitContext) {
	l.bindTreeBindings(g.Bindings, ctx)
	guardVal := l.lowerExpr(g.GuardExpr)

	bodyBlock := l.builder.NewBlock()
	failBlock := l.builder.NewBlock()
	l.builder.TerminateBranch(guardVal, bodyBlock, failBlock)

	l.builder.PositionAt(bodyBlock)
	val := l.lowerExpr(ctx.armBodies[g.ArmIndex])
	if !l.builder.IsTerminated() {
		l.builder.TerminateJump(ctx.merge, []ir.VarID{val})
	}

	l.builder.PositionAt(failBlock)
	l.emitTree(g.OnFail, ctx)
}

func (l *Lowerer) bindTreeBindings(bindings []canon.Binding, ctx *emitContext) {
	for _, b := range bindings {
		l.scope.Bind(b.Name, l.resolvePath(b.Path, ctx))
	}
}

// emitTagSwitch dispatches an enum scrutinee on its discriminant, which
// lives in field 0 ahead of the payload slots.
func (l *Lowerer) emitTagSwitch(sw *canon.Switch, ctx *emitContext) {
	scrut := l.resolvePath(sw.Path, ctx)
	tag := l.builder.EmitProject(scrut, 0, types.I64, ctx.sp)
	l.emitSwitchEdges(sw, tag, ctx)
}

// emitSwitchEdges terminates the current block with a switch over scrut,
// one case per edge plus a default block. The default block holds the
// tree's default subtree when present; otherwise the edges are
// exhaustive and falling past them is unreachable.
func (l *Lowerer) emitSwitchEdges(sw *canon.Switch, scrut ir.VarID, ctx *emitContext) {
	cases := make([]ir.SwitchCase, len(sw.Edges))
	edgeBlocks := make([]ir.BlockID, len(sw.Edges))
	for i, e := range sw.Edges {
		edgeBlocks[i] = l.builder.NewBlock()
		cases[i] = ir.SwitchCase{Value: switchCaseValue(e.Value), Target: edgeBlocks[i]}
	}
	defaultBlock := l.builder.NewBlock()
	l.builder.TerminateSwitch(scrut, cases, defaultBlock)

	for i, e := range sw.Edges {
		l.builder.PositionAt(edgeBlocks[i])
		l.emitTree(e.Tree, ctx)
	}

	l.builder.PositionAt(defaultBlock)
	l.emitChainDefault(sw.Default, ctx)
}

// emitEqChain tests string and float edges one at a time. Switch
// terminators take integer case values only, so these dispatch as a
// chain of equality branches in edge order.
func (l *Lowerer) emitEqChain(sw *canon.Switch, ctx *emitContext) {
	scrut := l.resolvePath(sw.Path, ctx)

	for _, e := range sw.Edges {
		lit, ty := eqLiteral(e.Value)
		litVar := l.builder.EmitLet(lit, ty, ctx.sp)
		eq := l.builder.EmitLet(ir.PrimOp{
			Op:   canon.OpEq.String(),
			Args: []ir.VarID{scrut, litVar},
		}, types.BoolType, ctx.sp)
		l.emitChainEdge(eq, e.Tree, ctx)
	}

	l.emitChainDefault(sw.Default, ctx)
}

func eqLiteral(tv canon.TestValue) (ir.Lit, types.Type) {
	switch v := tv.(type) {
	case canon.StrValue:
		return ir.ConstStr(v.Value), types.StrType
	case canon.FloatValue:
		return ir.ConstFloat(math.Float64frombits(v.Bits)), types.F64
	}
	panic(fmt.Sprintf("test value %v is not an equality literal", tv))
}

// emitRangeChain tests each closed range as scrut >= lo combined with
// scrut <= hi (or < hi when exclusive), falling through to the next edge
// on failure.
func (l *Lowerer) emitRangeChain(sw *canon.Switch, ctx *emitContext) {
	scrut := l.resolvePath(sw.Path, ctx)

	for _, e := range sw.Edges {
		rv, ok := e.Value.(canon.RangeValue)
		if !ok {
			panic(fmt.Sprintf("test value %v in range dispatch", e.Value))
		}

		lo := l.builder.EmitLet(ir.ConstInt(rv.Lo), types.I64, ctx.sp)
		geLo := l.builder.EmitLet(ir.PrimOp{
			Op:   canon.OpGe.String(),
			Args: []ir.VarID{scrut, lo},
		}, types.BoolType, ctx.sp)

		hiOp := canon.OpLt
		if rv.Inclusive {
			hiOp = canon.OpLe
		}
		hi := l.builder.EmitLet(ir.ConstInt(rv.Hi), types.I64, ctx.sp)
		belowHi := l.builder.EmitLet(ir.PrimOp{
			Op:   hiOp.String(),
			Args: []ir.VarID{scrut, hi},
		}, types.BoolType, ctx.sp)

		within := l.builder.EmitLet(ir.PrimOp{
			Op:   canon.OpAnd.String(),
			Args: []ir.VarID{geLo, belowHi},
		}, types.BoolType, ctx.sp)
		l.emitChainEdge(within, e.Tree, ctx)
	}

	l.emitChainDefault(sw.Default, ctx)
}

// emitListLen dispatches on the derived length. Exact-only edges fit a
// switch terminator; a rest pattern needs an at-least test, so any such
// edge downgrades the whole dispatch to a comparison chain in edge order,
// which keeps higher-priority rows tested first.
func (l *Lowerer) emitListLen(sw *canon.Switch, ctx *emitContext) {
	scrut := l.resolvePath(sw.Path, ctx)
	length := l.builder.EmitApply("len", []ir.VarID{scrut}, types.I64, ctx.sp)

	allExact := true
	for _, e := range sw.Edges {
		if v, ok := e.Value.(canon.ListLenValue); ok && !v.Exact {
			allExact = false
			break
		}
	}
	if allExact {
		l.emitSwitchEdges(sw, length, ctx)
		return
	}

	for _, e := range sw.Edges {
		v, ok := e.Value.(canon.ListLenValue)
		if !ok {
			panic(fmt.Sprintf("test value %v in list length dispatch", e.Value))
		}

		op := canon.OpGe
		if v.Exact {
			op = canon.OpEq
		}
		want := l.builder.EmitLet(ir.ConstInt(int64(v.Len)), types.I64, ctx.sp)
		cmp := l.builder.EmitLet(ir.PrimOp{
			Op:   op.String(),
			Args: []ir.VarID{length, want},
		}, types.BoolType, ctx.sp)
		l.emitChainEdge(cmp, e.Tree, ctx)
	}

	l.emitChainDefault(sw.Default, ctx)
}

// emitChainEdge branches on cond into the edge's subtree and leaves
// emission positioned in the fall-through block.
func (l *Lowerer) emitChainEdge(cond ir.VarID, tree canon.DecisionTree, ctx *emitContext) {
	matchBlock := l.builder.NewBlock()
	nextBlock := l.builder.NewBlock()
	l.builder.TerminateBranch(cond, matchBlock, nextBlock)

	l.builder.PositionAt(matchBlock)
	l.emitTree(tree, ctx)

	l.builder.PositionAt(nextBlock)
}

// emitChainDefault seals the fall-through after the last edge.
func (l *Lowerer) emitChainDefault(def canon.DecisionTree, ctx *emitContext) {
	if def != nil {
		l.emitTree(def, ctx)
		return
	}
	l.builder.TerminateUnreachable()
}

// resolvePath projects from the root scrutinee down to the sub-value a
// path addresses. Tag payload slot i lives at field i+1, after the
// discriminant; every other step projects its index directly. Projection
// types refine in a later pass; emission only needs the placeholder.
func (l *Lowerer) resolvePath(path canon.ScrutineePath, ctx *emitContext) ir.VarID {
	v := ctx.rootScrutinee
	for _, step := range path {
		field := step.Index
		if step.Op == canon.PathTagPayload {
			field = step.Index + 1
		}
		v = l.builder.EmitProject(v, field, types.Unresolved{}, ctx.sp)
	}
	return v
}

// switchCaseValue encodes a test value as a switch case constant.
// Negative integers keep their two's complement bits.
func switchCaseValue(tv canon.TestValue) uint64 {
	switch v := tv.(type) {
	case canon.TagValue:
		return uint64(v.Index)
	case canon.IntValue:
		return uint64(v.Value)
	case canon.BoolValue:
		if v.Value {
			return 1
		}
		return 0
	case canon.CharValue:
		return uint64(uint32(v.Value))
	case canon.ListLenValue:
		return uint64(v.Len)
	}
	panic(fmt.Sprintf("test value %v cannot be a switch case", tv))
}
