package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsWildcardLike(t *testing.T) {
	tests := []struct {
		name string
		pat  FlatPattern
		want bool
	}{
		{"wildcard", PatWildcard{}, true},
		{"binding", PatBinding{Name: "x"}, true},
		{"int literal", PatInt{Value: 3}, false},
		{"bool literal", PatBool{Value: true}, false},
		{"variant", PatVariant{Name: "Some", Index: 1, Fields: []FlatPattern{PatWildcard{}}}, false},
		{"tuple", PatTuple{Elems: []FlatPattern{PatWildcard{}}}, false},
		{"or with wildcard alt", PatOr{Alts: []FlatPattern{PatInt{Value: 1}, PatWildcard{}}}, true},
		{"or all constructors", PatOr{Alts: []FlatPattern{PatInt{Value: 1}, PatInt{Value: 2}}}, false},
		{"at over binding", PatAt{Name: "whole", Inner: PatWildcard{}}, true},
		{"at over constructor", PatAt{Name: "whole", Inner: PatInt{Value: 1}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWildcardLike(tt.pat))
			if tt.want {
				assert.False(t, IsConstructor(tt.pat), "wildcard-like patterns are not constructors")
			}
		})
	}
}

func TestCollectBindingsSimple(t *testing.T) {
	got := CollectBindings(PatBinding{Name: "x"}, ScrutineePath{}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].Name)
	assert.Empty(t, got[0].Path)
}

func TestCollectBindingsVariantPayload(t *testing.T) {
	pat := PatVariant{
		Name:   "Some",
		Index:  1,
		Fields: []FlatPattern{PatBinding{Name: "v"}},
	}
	got := CollectBindings(pat, ScrutineePath{}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "v", got[0].Name)
	assert.Equal(t, ScrutineePath{TagPayload(0)}, got[0].Path)
}

func TestCollectBindingsNested(t *testing.T) {
	// (a, Point { x, y })
	pat := PatTuple{Elems: []FlatPattern{
		PatBinding{Name: "a"},
		PatStruct{Fields: []StructFieldPat{
			{Name: "x", Pat: PatBinding{Name: "x"}},
			{Name: "y", Pat: PatBinding{Name: "y"}},
		}},
	}}
	got := CollectBindings(pat, ScrutineePath{}, nil)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, ScrutineePath{TupleIndex(0)}, got[0].Path)

	assert.Equal(t, "x", got[1].Name)
	assert.Equal(t, ScrutineePath{TupleIndex(1), StructField(0)}, got[1].Path)

	assert.Equal(t, "y", got[2].Name)
	assert.Equal(t, ScrutineePath{TupleIndex(1), StructField(1)}, got[2].Path)
}

func TestCollectBindingsListRest(t *testing.T) {
	// [a, b, ..rest]
	pat := PatList{
		Elems:   []FlatPattern{PatBinding{Name: "a"}, PatBinding{Name: "b"}},
		Rest:    "rest",
		HasRest: true,
	}
	got := CollectBindings(pat, ScrutineePath{}, nil)
	require.Len(t, got, 3)

	assert.Equal(t, "a", got[0].Name)
	assert.Equal(t, ScrutineePath{ListElement(0)}, got[0].Path)
	assert.Equal(t, "b", got[1].Name)
	assert.Equal(t, ScrutineePath{ListElement(1)}, got[1].Path)
	assert.Equal(t, "rest", got[2].Name)
	assert.Equal(t, ScrutineePath{ListRest(2)}, got[2].Path)
}

func TestCollectBindingsAt(t *testing.T) {
	// whole @ Some(v)
	pat := PatAt{
		Name: "whole",
		Inner: PatVariant{
			Name:   "Some",
			Index:  1,
			Fields: []FlatPattern{PatBinding{Name: "v"}},
		},
	}
	got := CollectBindings(pat, ScrutineePath{}, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "whole", got[0].Name)
	assert.Empty(t, got[0].Path)
	assert.Equal(t, "v", got[1].Name)
	assert.Equal(t, ScrutineePath{TagPayload(0)}, got[1].Path)
}

func TestCollectBindingsOrUsesFirstAlternative(t *testing.T) {
	// Circle(r) | Sphere(r): both alternatives bind r, collection reads
	// the first.
	pat := PatOr{Alts: []FlatPattern{
		PatVariant{Name: "Circle", Index: 0, Fields: []FlatPattern{PatBinding{Name: "r"}}},
		PatVariant{Name: "Sphere", Index: 1, Fields: []FlatPattern{PatBinding{Name: "r"}}},
	}}
	got := CollectBindings(pat, ScrutineePath{}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "r", got[0].Name)
	assert.Equal(t, ScrutineePath{TagPayload(0)}, got[0].Path)
}

func TestPathExtendDoesNotAlias(t *testing.T) {
	base := ScrutineePath{TupleIndex(0)}
	left := base.Extend(StructField(1))
	right := base.Extend(StructField(2))

	assert.Equal(t, ScrutineePath{TupleIndex(0), StructField(1)}, left)
	assert.Equal(t, ScrutineePath{TupleIndex(0), StructField(2)}, right)
	assert.Equal(t, ScrutineePath{TupleIndex(0)}, base)
}

func TestPathString(t *testing.T) {
	assert.Equal(t, "root", ScrutineePath{}.String())
	p := ScrutineePath{TagPayload(0), TupleIndex(2)}
	assert.Equal(t, "root.payload(0).tuple(2)", p.String())
}
