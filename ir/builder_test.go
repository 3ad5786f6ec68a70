package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

func TestStraightLine(t *testing.T) {
	b := NewBuilder("inc", types.I64, nil)
	x := b.AddParam(types.I64)
	one := b.EmitLet(ConstInt(1), types.I64, token.Dummy())
	sum := b.EmitLet(PrimOp{Op: "add", Args: []VarID{x, one}}, types.I64, token.Dummy())
	b.TerminateReturn(sum)

	fn, err := b.Finish()
	require.NoError(t, err)
	assert.Len(t, fn.Blocks, 1)
	assert.Equal(t, 3, fn.NumVars())
	assert.Equal(t, types.I64, fn.VarType(sum))
	assert.Equal(t, Return{Value: sum}, fn.Blocks[0].Term)
}

func TestDiamondMerge(t *testing.T) {
	b := NewBuilder("pick", types.I64, nil)
	cond := b.AddParam(types.BoolType)

	then := b.NewBlock()
	els := b.NewBlock()
	merge := b.NewBlock()
	b.TerminateBranch(cond, then, els)

	b.PositionAt(then)
	x := b.EmitLet(ConstInt(1), types.I64, token.Dummy())
	b.TerminateJump(merge, []VarID{x})

	b.PositionAt(els)
	y := b.EmitLet(ConstInt(2), types.I64, token.Dummy())
	b.TerminateJump(merge, []VarID{y})

	res := b.AddBlockParam(merge, types.I64)
	b.PositionAt(merge)
	b.TerminateReturn(res)

	fn, err := b.Finish()
	require.NoError(t, err)
	require.Len(t, fn.Blocks, 4)

	require.Len(t, fn.Blocks[merge].Params, 1)
	assert.Equal(t, res, fn.Blocks[merge].Params[0].Var)

	jump, ok := fn.Blocks[then].Term.(Jump)
	require.True(t, ok)
	assert.Equal(t, merge, jump.Target)
	assert.Equal(t, []VarID{x}, jump.Args)
}

func TestIsTerminated(t *testing.T) {
	b := NewBuilder("f", types.UnitType, nil)
	assert.False(t, b.IsTerminated())

	u := b.EmitLet(ConstUnit(), types.UnitType, token.Dummy())
	b.TerminateReturn(u)
	assert.True(t, b.IsTerminated())

	next := b.NewBlock()
	b.PositionAt(next)
	assert.False(t, b.IsTerminated())
	assert.Equal(t, next, b.CurrentBlock())
}

func TestDoubleTerminatePanics(t *testing.T) {
	b := NewBuilder("f", types.UnitType, nil)
	u := b.EmitLet(ConstUnit(), types.UnitType, token.Dummy())
	b.TerminateReturn(u)
	assert.Panics(t, func() { b.TerminateReturn(u) })
}

func TestPositionAtUnknownBlockPanics(t *testing.T) {
	b := NewBuilder("f", types.UnitType, nil)
	assert.Panics(t, func() { b.PositionAt(7) })
}

func TestFinishSealsOpenBlocks(t *testing.T) {
	b := NewBuilder("f", types.UnitType, nil)
	u := b.EmitLet(ConstUnit(), types.UnitType, token.Dummy())
	b.TerminateReturn(u)
	open := b.NewBlock()

	fn, err := b.Finish()
	require.NoError(t, err)
	assert.Equal(t, Unreachable{}, fn.Blocks[open].Term)
}

func TestVerifyErrors(t *testing.T) {
	cases := []struct {
		name          string
		build         func() *Builder
		errorContains string
	}{
		{
			name: "jump arity mismatch",
			build: func() *Builder {
				b := NewBuilder("f", types.I64, nil)
				target := b.NewBlock()
				res := b.AddBlockParam(target, types.I64)
				b.TerminateJump(target, nil)
				b.PositionAt(target)
				b.TerminateReturn(res)
				return b
			},
			errorContains: "jumps to b1 with 0 args",
		},
		{
			name: "branch target declares params",
			build: func() *Builder {
				b := NewBuilder("f", types.UnitType, nil)
				cond := b.EmitLet(ConstBool(true), types.BoolType, token.Dummy())
				then := b.NewBlock()
				els := b.NewBlock()
				b.AddBlockParam(then, types.I64)
				b.TerminateBranch(cond, then, els)
				return b
			},
			errorContains: "branches to b1",
		},
		{
			name: "switch target declares params",
			build: func() *Builder {
				b := NewBuilder("f", types.UnitType, nil)
				scrut := b.EmitLet(ConstInt(0), types.I64, token.Dummy())
				zero := b.NewBlock()
				def := b.NewBlock()
				b.AddBlockParam(def, types.I64)
				b.TerminateSwitch(scrut, []SwitchCase{{Value: 0, Target: zero}}, def)
				return b
			},
			errorContains: "switches to b2",
		},
		{
			name: "definition does not reach use",
			build: func() *Builder {
				b := NewBuilder("f", types.I64, nil)
				cond := b.AddParam(types.BoolType)
				then := b.NewBlock()
				els := b.NewBlock()
				merge := b.NewBlock()
				b.TerminateBranch(cond, then, els)

				b.PositionAt(then)
				x := b.EmitLet(ConstInt(1), types.I64, token.Dummy())
				b.TerminateJump(merge, nil)

				b.PositionAt(els)
				b.TerminateJump(merge, nil)

				b.PositionAt(merge)
				b.TerminateReturn(x)
				return b
			},
			errorContains: "before its definition",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.build().Finish()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errorContains)
		})
	}
}

func TestVerifyRejectsSecondDefinition(t *testing.T) {
	fn := &Function{
		Name:     "dup",
		RetType:  types.I64,
		VarTypes: []types.Type{types.I64},
		Blocks: []*Block{{
			ID: 0,
			Instrs: []Instr{
				Let{Dst: 0, Val: ConstInt(1)},
				Let{Dst: 0, Val: ConstInt(2)},
			},
			InstrSpans: []token.Span{token.Dummy(), token.Dummy()},
			Term:       Return{Value: 0},
		}},
	}
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a second time")
}

func TestVerifyRejectsUnknownVariable(t *testing.T) {
	fn := &Function{
		Name:     "oob",
		RetType:  types.I64,
		VarTypes: []types.Type{types.I64},
		Blocks: []*Block{{
			ID:   0,
			Term: Return{Value: 9},
		}},
	}
	err := Verify(fn)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown variable v9")
}
