package lower

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiremani/ceres/canon"
)

func asSwitch(t *testing.T, tree canon.DecisionTree) *canon.Switch {
	t.Helper()
	sw, ok := tree.(*canon.Switch)
	require.True(t, ok, "want *canon.Switch, got %T", tree)
	return sw
}

func asLeaf(t *testing.T, tree canon.DecisionTree) *canon.Leaf {
	t.Helper()
	leaf, ok := tree.(*canon.Leaf)
	require.True(t, ok, "want *canon.Leaf, got %T", tree)
	return leaf
}

func asGuard(t *testing.T, tree canon.DecisionTree) *canon.Guard {
	t.Helper()
	g, ok := tree.(*canon.Guard)
	require.True(t, ok, "want *canon.Guard, got %T", tree)
	return g
}

func TestCompileEmptyMatrixIsFail(t *testing.T) {
	assert.Equal(t, canon.Fail{}, CompileMatrix(nil, nil))
}

func TestCompileColumnMismatchPanics(t *testing.T) {
	matrix := canon.PatternMatrix{{
		Patterns: []canon.FlatPattern{canon.PatWildcard{}, canon.PatWildcard{}},
	}}
	assert.Panics(t, func() { CompileMatrix(matrix, []canon.ScrutineePath{nil}) })
}

func TestCompileFirstRowBindingWins(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatBinding{Name: "x"}},
		{Pattern: canon.PatInt{Value: 1}},
	})

	leaf := asLeaf(t, tree)
	assert.Equal(t, 0, leaf.ArmIndex)
	require.Len(t, leaf.Bindings, 1)
	assert.Equal(t, "x", leaf.Bindings[0].Name)
	assert.Empty(t, leaf.Bindings[0].Path)
}

func TestCompileGuardedWildcardKeepsFallback(t *testing.T) {
	g := &canon.BoolLit{Value: true}
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatBinding{Name: "x"}, Guard: g},
		{Pattern: canon.PatWildcard{}},
	})

	guard := asGuard(t, tree)
	assert.Equal(t, 0, guard.ArmIndex)
	assert.Same(t, g, guard.GuardExpr)
	require.Len(t, guard.Bindings, 1)
	assert.Equal(t, "x", guard.Bindings[0].Name)

	fallback := asLeaf(t, guard.OnFail)
	assert.Equal(t, 1, fallback.ArmIndex)
}

func TestCompileBoolSwitch(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatBool{Value: true}},
		{Pattern: canon.PatBool{Value: false}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.BoolEq, sw.Kind)
	assert.Empty(t, sw.Path)
	require.Len(t, sw.Edges, 2)
	assert.Equal(t, canon.BoolValue{Value: true}, sw.Edges[0].Value)
	assert.Equal(t, canon.BoolValue{Value: false}, sw.Edges[1].Value)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[0].Tree).ArmIndex)
	assert.Equal(t, 1, asLeaf(t, sw.Edges[1].Tree).ArmIndex)
	assert.Nil(t, sw.Default, "both constructors are claimed, nothing falls through")
}

func TestCompileOptionSwitch(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatVariant{Name: "Some", Index: 0, Fields: []canon.FlatPattern{canon.PatBinding{Name: "x"}}}},
		{Pattern: canon.PatVariant{Name: "None", Index: 1}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.EnumTag, sw.Kind)
	require.Len(t, sw.Edges, 2)
	assert.Equal(t, canon.TagValue{Index: 0, Name: "Some"}, sw.Edges[0].Value)
	assert.Equal(t, canon.TagValue{Index: 1, Name: "None"}, sw.Edges[1].Value)
	assert.Nil(t, sw.Default)

	some := asLeaf(t, sw.Edges[0].Tree)
	assert.Equal(t, 0, some.ArmIndex)
	require.Len(t, some.Bindings, 1)
	assert.Equal(t, "x", some.Bindings[0].Name)
	assert.Equal(t, canon.ScrutineePath{canon.TagPayload(0)}, some.Bindings[0].Path)

	none := asLeaf(t, sw.Edges[1].Tree)
	assert.Equal(t, 1, none.ArmIndex)
	assert.Empty(t, none.Bindings)
}

func TestCompileVariantWildcardDefault(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatVariant{Name: "Ok", Index: 0, Fields: []canon.FlatPattern{canon.PatWildcard{}}}},
		{Pattern: canon.PatWildcard{}},
	})

	sw := asSwitch(t, tree)
	require.Len(t, sw.Edges, 1)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[0].Tree).ArmIndex)
	require.NotNil(t, sw.Default)
	assert.Equal(t, 1, asLeaf(t, sw.Default).ArmIndex)
}

func TestCompileGuardChainInsideEdge(t *testing.T) {
	g := &canon.BoolLit{Value: true}
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatVariant{Name: "Some", Index: 0, Fields: []canon.FlatPattern{canon.PatBinding{Name: "x"}}}, Guard: g},
		{Pattern: canon.PatVariant{Name: "Some", Index: 0, Fields: []canon.FlatPattern{canon.PatBinding{Name: "y"}}}},
		{Pattern: canon.PatVariant{Name: "None", Index: 1}},
	})

	sw := asSwitch(t, tree)
	require.Len(t, sw.Edges, 2)

	// Both Some arms share one edge; the guard keeps the second alive.
	guard := asGuard(t, sw.Edges[0].Tree)
	assert.Equal(t, 0, guard.ArmIndex)
	require.Len(t, guard.Bindings, 1)
	assert.Equal(t, "x", guard.Bindings[0].Name)
	assert.Equal(t, canon.ScrutineePath{canon.TagPayload(0)}, guard.Bindings[0].Path)

	fallback := asLeaf(t, guard.OnFail)
	assert.Equal(t, 1, fallback.ArmIndex)
	require.Len(t, fallback.Bindings, 1)
	assert.Equal(t, "y", fallback.Bindings[0].Name)

	assert.Equal(t, 2, asLeaf(t, sw.Edges[1].Tree).ArmIndex)
	assert.Nil(t, sw.Default)
}

func TestCompileDuplicateLiteralKeepsFirstArm(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatInt{Value: 1}},
		{Pattern: canon.PatInt{Value: 1}},
		{Pattern: canon.PatWildcard{}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.IntEq, sw.Kind)
	require.Len(t, sw.Edges, 1)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[0].Tree).ArmIndex)
	assert.Equal(t, 2, asLeaf(t, sw.Default).ArmIndex)
}

func TestCompileOrPatternSharesArm(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatOr{Alts: []canon.FlatPattern{canon.PatInt{Value: 1}, canon.PatInt{Value: 2}}}},
		{Pattern: canon.PatWildcard{}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.IntEq, sw.Kind)
	require.Len(t, sw.Edges, 2)
	assert.Equal(t, canon.IntValue{Value: 1}, sw.Edges[0].Value)
	assert.Equal(t, canon.IntValue{Value: 2}, sw.Edges[1].Value)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[0].Tree).ArmIndex)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[1].Tree).ArmIndex)
	assert.Equal(t, 1, asLeaf(t, sw.Default).ArmIndex)
}

func TestCompileTupleDecomposition(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatTuple{Elems: []canon.FlatPattern{canon.PatInt{Value: 1}, canon.PatBinding{Name: "b"}}}},
		{Pattern: canon.PatWildcard{}},
	})

	// The tuple decomposes without a test; the switch lands on the int
	// element directly.
	sw := asSwitch(t, tree)
	assert.Equal(t, canon.IntEq, sw.Kind)
	assert.Equal(t, canon.ScrutineePath{canon.TupleIndex(0)}, sw.Path)
	require.Len(t, sw.Edges, 1)

	leaf := asLeaf(t, sw.Edges[0].Tree)
	assert.Equal(t, 0, leaf.ArmIndex)
	require.Len(t, leaf.Bindings, 1)
	assert.Equal(t, canon.Binding{Name: "b", Path: canon.ScrutineePath{canon.TupleIndex(1)}}, leaf.Bindings[0])

	assert.Equal(t, 1, asLeaf(t, sw.Default).ArmIndex)
}

func TestCompileStructDecomposition(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatStruct{Fields: []canon.StructFieldPat{
			{Name: "x", Pat: canon.PatBinding{Name: "px"}},
			{Name: "y", Pat: canon.PatBinding{Name: "py"}},
		}}},
	})

	leaf := asLeaf(t, tree)
	assert.Equal(t, 0, leaf.ArmIndex)
	require.Len(t, leaf.Bindings, 2)
	assert.Equal(t, canon.Binding{Name: "px", Path: canon.ScrutineePath{canon.StructField(0)}}, leaf.Bindings[0])
	assert.Equal(t, canon.Binding{Name: "py", Path: canon.ScrutineePath{canon.StructField(1)}}, leaf.Bindings[1])
}

func TestCompileAtPatternBindsWhole(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatAt{
			Name: "whole",
			Inner: canon.PatTuple{Elems: []canon.FlatPattern{
				canon.PatBinding{Name: "a"},
				canon.PatBinding{Name: "b"},
			}},
		}},
	})

	leaf := asLeaf(t, tree)
	require.Len(t, leaf.Bindings, 3)
	assert.Equal(t, "whole", leaf.Bindings[0].Name)
	assert.Empty(t, leaf.Bindings[0].Path)
	assert.Equal(t, canon.Binding{Name: "a", Path: canon.ScrutineePath{canon.TupleIndex(0)}}, leaf.Bindings[1])
	assert.Equal(t, canon.Binding{Name: "b", Path: canon.ScrutineePath{canon.TupleIndex(1)}}, leaf.Bindings[2])
}

func TestCompileListLengthEdges(t *testing.T) {
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatList{Elems: []canon.FlatPattern{canon.PatBinding{Name: "x"}}}},
		{Pattern: canon.PatList{Elems: []canon.FlatPattern{canon.PatBinding{Name: "a"}}, Rest: "r", HasRest: true}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.ListLen, sw.Kind)
	require.Len(t, sw.Edges, 2)
	assert.Equal(t, canon.ListLenValue{Len: 1, Exact: true}, sw.Edges[0].Value)
	assert.Equal(t, canon.ListLenValue{Len: 1, Exact: false}, sw.Edges[1].Value)

	// On the exact edge the first arm wins; the exact pattern must not
	// claim the at-least edge.
	exact := asLeaf(t, sw.Edges[0].Tree)
	assert.Equal(t, 0, exact.ArmIndex)
	require.Len(t, exact.Bindings, 1)
	assert.Equal(t, canon.Binding{Name: "x", Path: canon.ScrutineePath{canon.ListElement(0)}}, exact.Bindings[0])

	atLeast := asLeaf(t, sw.Edges[1].Tree)
	assert.Equal(t, 1, atLeast.ArmIndex)
	require.Len(t, atLeast.Bindings, 2)
	assert.Equal(t, canon.Binding{Name: "r", Path: canon.ScrutineePath{canon.ListRest(1)}}, atLeast.Bindings[0])
	assert.Equal(t, canon.Binding{Name: "a", Path: canon.ScrutineePath{canon.ListElement(0)}}, atLeast.Bindings[1])
}

func TestCompileRangeEdge(t *testing.T) {
	lo, hi := int64(0), int64(9)
	tree := compileArms([]canon.MatchArm{
		{Pattern: canon.PatRange{Start: &lo, End: &hi, Inclusive: true}},
		{Pattern: canon.PatWildcard{}},
	})

	sw := asSwitch(t, tree)
	assert.Equal(t, canon.IntRange, sw.Kind)
	require.Len(t, sw.Edges, 1)
	assert.Equal(t, canon.RangeValue{Lo: 0, Hi: 9, Inclusive: true}, sw.Edges[0].Value)
	assert.Equal(t, 0, asLeaf(t, sw.Edges[0].Tree).ArmIndex)
	assert.Equal(t, 1, asLeaf(t, sw.Default).ArmIndex)
}

func TestCompilePickColumnMostConstructors(t *testing.T) {
	paths := []canon.ScrutineePath{
		{canon.TupleIndex(0)},
		{canon.TupleIndex(1)},
	}
	matrix := canon.PatternMatrix{
		{Patterns: []canon.FlatPattern{canon.PatInt{Value: 7}, canon.PatBool{Value: true}}, ArmIndex: 0},
		{Patterns: []canon.FlatPattern{canon.PatInt{Value: 7}, canon.PatBool{Value: false}}, ArmIndex: 1},
	}

	// Column 1 has two constructors against column 0's one, so it is
	// tested first.
	sw := asSwitch(t, CompileMatrix(matrix, paths))
	assert.Equal(t, paths[1], sw.Path)
	assert.Equal(t, canon.BoolEq, sw.Kind)
}
