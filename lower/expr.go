package lower

import (
	"fmt"

	"github.com/thiremani/ceres/canon"
	"github.com/thiremani/ceres/ir"
	"github.com/thiremani/ceres/types"
)

// lowerExpr emits e into the current block and returns the variable
// holding its value. Control constructs may leave emission positioned in
// a different block than they started in.
func (l *Lowerer) lowerExpr(e canon.Expr) ir.VarID {
	switch ex := e.(type) {
	case *canon.IntLit:
		return l.builder.EmitLet(ir.ConstInt(ex.Value), l.exprType(e), ex.Sp)
	case *canon.FloatLit:
		return l.builder.EmitLet(ir.ConstFloat(ex.Value), l.exprType(e), ex.Sp)
	case *canon.BoolLit:
		return l.builder.EmitLet(ir.ConstBool(ex.Value), l.exprType(e), ex.Sp)
	case *canon.StrLit:
		return l.builder.EmitLet(ir.ConstStr(ex.Value), l.exprType(e), ex.Sp)
	case *canon.CharLit:
		return l.builder.EmitLet(ir.ConstChar(ex.Value), l.exprType(e), ex.Sp)
	case *canon.UnitLit:
		return l.emitUnit(ex.Sp)

	case *canon.Ident:
		return l.lowerIdent(ex)
	case *canon.Binary:
		return l.lowerBinary(ex)
	case *canon.Unary:
		operand := l.lowerExpr(ex.Operand)
		return l.builder.EmitLet(ir.PrimOp{Op: ex.Op.String(), Args: []ir.VarID{operand}}, l.exprType(e), ex.Sp)
	case *canon.Call:
		return l.lowerCall(ex)

	case *canon.TupleLit:
		return l.builder.EmitConstruct(ir.CtorTuple, "", 0, l.lowerAll(ex.Elems), l.exprType(e), ex.Sp)
	case *canon.ListLit:
		return l.builder.EmitConstruct(ir.CtorList, "", 0, l.lowerAll(ex.Elems), l.exprType(e), ex.Sp)
	case *canon.StructLit:
		return l.builder.EmitConstruct(ir.CtorStruct, ex.Name, 0, l.lowerAll(ex.Fields), l.exprType(e), ex.Sp)
	case *canon.VariantLit:
		return l.builder.EmitConstruct(ir.CtorEnumVariant, ex.EnumName, ex.Tag, l.lowerAll(ex.Args), l.exprType(e), ex.Sp)

	case *canon.Field:
		recv := l.lowerExpr(ex.Receiver)
		return l.builder.EmitProject(recv, ex.Index, l.exprType(e), ex.Sp)
	case *canon.Index:
		recv := l.lowerExpr(ex.Receiver)
		key := l.lowerExpr(ex.Key)
		return l.builder.EmitApply("__index", []ir.VarID{recv, key}, l.exprType(e), ex.Sp)
	case *canon.RangeLit:
		start := l.lowerExpr(ex.Start)
		end := l.lowerExpr(ex.End)
		return l.builder.EmitConstruct(ir.CtorTuple, "", 0, []ir.VarID{start, end}, l.exprType(e), ex.Sp)

	case *canon.Block:
		return l.lowerBlock(ex)
	case *canon.Let:
		return l.lowerLet(ex)
	case *canon.If:
		return l.lowerIf(ex)
	case *canon.Loop:
		return l.lowerLoop(ex)
	case *canon.For:
		return l.lowerFor(ex)
	case *canon.Break:
		return l.lowerBreak(ex)
	case *canon.Continue:
		return l.lowerContinue(ex)
	case *canon.Assign:
		return l.lowerAssign(ex)
	case *canon.Match:
		return l.lowerMatch(ex)
	}
	panic(fmt.Sprintf("unhandled expression type: %T", e))
}

func (l *Lowerer) lowerAll(exprs []canon.Expr) []ir.VarID {
	vars := make([]ir.VarID, len(exprs))
	for i, e := range exprs {
		vars[i] = l.lowerExpr(e)
	}
	return vars
}

// lowerIdent copies the bound variable into a fresh one, so every read
// is its own tracked value.
func (l *Lowerer) lowerIdent(ex *canon.Ident) ir.VarID {
	v, ok := l.scope.Lookup(ex.Name)
	if !ok {
		l.problem(ex.Sp, "unbound name %s", ex.Name)
		return l.emitUnit(ex.Sp)
	}
	return l.builder.EmitLet(ir.VarRef{ID: v}, l.exprType(ex), ex.Sp)
}

func (l *Lowerer) lowerBinary(ex *canon.Binary) ir.VarID {
	switch ex.Op {
	case canon.OpAnd, canon.OpOr:
		return l.lowerShortCircuit(ex)
	}
	lhs := l.lowerExpr(ex.LHS)
	rhs := l.lowerExpr(ex.RHS)
	return l.builder.EmitLet(ir.PrimOp{Op: ex.Op.String(), Args: []ir.VarID{lhs, rhs}}, l.exprType(ex), ex.Sp)
}

// lowerShortCircuit desugars `a && b` to `if a { b } else { false }` and
// `a || b` to `if a { true } else { b }`, so the right operand evaluates
// only when it must and the usual merge machinery builds the join.
func (l *Lowerer) lowerShortCircuit(ex *canon.Binary) ir.VarID {
	lit := &canon.BoolLit{Value: ex.Op == canon.OpOr, Sp: ex.Sp}
	l.exprTypes[lit] = types.BoolType

	synth := &canon.If{Cond: ex.LHS, Sp: ex.Sp}
	if ex.Op == canon.OpAnd {
		synth.Then, synth.Else = ex.RHS, lit
	} else {
		synth.Then, synth.Else = lit, ex.RHS
	}
	l.exprTypes[synth] = types.BoolType
	return l.lowerIf(synth)
}

func (l *Lowerer) lowerCall(ex *canon.Call) ir.VarID {
	args := l.lowerAll(ex.Args)
	return l.builder.EmitApply(ex.Callee, args, l.exprType(ex), ex.Sp)
}
