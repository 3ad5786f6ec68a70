// Package lower transforms canonicalized, type-checked function bodies
// into block-structured IR. Pattern matches compile to decision trees
// (CompileMatrix) and every control construct lowers to blocks whose
// joins carry values through block parameters; mutable names are SSA
// versions reconciled at merges, never storage cells.
package lower

import (
	"fmt"

	"github.com/nikandfor/tlog"

	"github.com/thiremani/ceres/canon"
	"github.com/thiremani/ceres/ir"
	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// Lowerer drives lowering for one function at a time. It owns the
// builder, the scope, and the loop context stack exclusively; nothing
// here synchronizes, and independent Lowerers may run in parallel over
// different functions.
type Lowerer struct {
	builder *ir.Builder
	scope   *Scope
	loopCtx *loopContext

	exprTypes map[canon.Expr]types.Type
	trees     map[*canon.Match]canon.DecisionTree

	// Problems records conditions an earlier pass should have rejected
	// (unbound names, break outside a loop). Lowering degrades gracefully
	// and keeps going; the driver decides whether to surface them.
	Problems []*token.CompileError

	log *tlog.Logger
}

// NewLowerer builds a Lowerer over the checker's expression type table.
// log may be nil.
func NewLowerer(exprTypes map[canon.Expr]types.Type, log *tlog.Logger) *Lowerer {
	if exprTypes == nil {
		exprTypes = make(map[canon.Expr]types.Type)
	}
	return &Lowerer{
		exprTypes: exprTypes,
		trees:     make(map[*canon.Match]canon.DecisionTree),
		log:       log,
	}
}

// LowerFunction lowers one function body to IR. Parameters are bound
// immutably; the body's value becomes the return value unless the body
// already terminated every path itself. The error reports verifier
// failures, which indicate lowering bugs rather than bad input.
func (l *Lowerer) LowerFunction(fn *canon.Function) (*ir.Function, error) {
	l.builder = ir.NewBuilder(fn.Name, fn.RetType, l.log)
	l.scope = NewScope()
	l.loopCtx = nil

	for _, p := range fn.Params {
		v := l.builder.AddParam(p.Type)
		l.scope.Bind(p.Name, v)
	}

	val := l.lowerExpr(fn.Body)
	if !l.builder.IsTerminated() {
		l.builder.TerminateReturn(val)
	}

	return l.builder.Finish()
}

// exprType reads the checker's type for e. Entries can be missing for
// synthesized nodes; those lower with a placeholder.
func (l *Lowerer) exprType(e canon.Expr) types.Type {
	if ty, ok := l.exprTypes[e]; ok {
		return ty
	}
	return types.Unresolved{}
}

func (l *Lowerer) emitUnit(sp token.Span) ir.VarID {
	return l.builder.EmitLet(ir.ConstUnit(), types.UnitType, sp)
}

// problem records a condition upstream validation should have rejected.
// The program was already accepted, so these are never user-facing.
func (l *Lowerer) problem(sp token.Span, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.Problems = append(l.Problems, &token.CompileError{Span: sp, Msg: msg})
	l.log.Printw("lowering problem", "msg", msg, "span", sp)
}
