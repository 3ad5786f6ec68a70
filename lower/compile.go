package lower

import (
	"fmt"

	"github.com/thiremani/ceres/canon"
)

// CompileMatrix builds a decision tree from a pattern matrix using matrix
// specialization (Maranget 2008): pick the column with the most branching
// power, partition its distinct constructors into edges, specialize the
// matrix per edge, and recurse. Rows wildcard-like at the chosen column
// form the default edge.
//
// paths names the sub-value each column inspects; initially one empty path
// for the root scrutinee. The matrix must already be exhaustiveness- and
// reachability-checked; CompileMatrix never rejects input, and a column
// count mismatch between rows and paths is an internal bug.
func CompileMatrix(matrix canon.PatternMatrix, paths []canon.ScrutineePath) canon.DecisionTree {
	for i, row := range matrix {
		if len(row.Patterns) != len(paths) {
			panic(fmt.Sprintf("pattern matrix row %d (arm %d) has %d columns, paths have %d",
				i, row.ArmIndex, len(row.Patterns), len(paths)))
		}
	}

	// No rows left: unreachable by exhaustiveness.
	if len(matrix) == 0 {
		return canon.Fail{}
	}

	// First row all wildcard-like: it matches. A guarded row keeps the
	// rest of the matrix alive as its fallback.
	if allWildcardLike(matrix[0].Patterns) {
		bindings := extractAllBindings(matrix[0], paths)
		if matrix[0].Guard != nil {
			return &canon.Guard{
				ArmIndex:  matrix[0].ArmIndex,
				Bindings:  bindings,
				GuardExpr: matrix[0].Guard,
				OnFail:    CompileMatrix(matrix[1:], paths),
			}
		}
		return &canon.Leaf{ArmIndex: matrix[0].ArmIndex, Bindings: bindings}
	}

	col := pickColumn(matrix)
	path := paths[col]

	// Tuples and structs have exactly one shape, so the column decomposes
	// into its field columns without a runtime test.
	if isSingleCtorColumn(matrix, col) {
		dec := decomposeSingleCtor(matrix, col, paths, path)
		return CompileMatrix(dec.matrix, dec.paths)
	}

	testValues := collectTestValues(matrix, col)
	kind := inferTestKind(testValues)

	edges := make([]canon.TreeEdge, 0, len(testValues))
	for _, tv := range testValues {
		spec := specializeMatrix(matrix, col, tv, paths, path)
		edges = append(edges, canon.TreeEdge{
			Value: tv,
			Tree:  CompileMatrix(spec.matrix, spec.paths),
		})
	}

	var def canon.DecisionTree
	if d := defaultMatrix(matrix, col, paths); len(d.matrix) > 0 {
		def = CompileMatrix(d.matrix, d.paths)
	}

	return &canon.Switch{Path: path, Kind: kind, Edges: edges, Default: def}
}

func allWildcardLike(pats []canon.FlatPattern) bool {
	for _, p := range pats {
		if !canon.IsWildcardLike(p) {
			return false
		}
	}
	return true
}

// Column selection

// pickColumn chooses the column with the most distinct constructors,
// breaking ties leftmost. When no column has a constructor key (only
// or/range shapes that produce no edges), it falls back to the first
// column holding any non-wildcard-like pattern.
func pickColumn(matrix canon.PatternMatrix) int {
	ncols := len(matrix[0].Patterns)
	bestCol := 0
	bestScore := 0

	for col := 0; col < ncols; col++ {
		if score := countDistinctCtors(matrix, col); score > bestScore {
			bestScore = score
			bestCol = col
		}
	}

	if bestScore == 0 {
		for col := 0; col < ncols; col++ {
			for _, row := range matrix {
				if !canon.IsWildcardLike(row.Patterns[col]) {
					return col
				}
			}
		}
	}

	return bestCol
}

// Single-constructor decomposition

// isSingleCtorColumn reports whether the column holds only tuple or struct
// patterns plus wildcard-likes.
func isSingleCtorColumn(matrix canon.PatternMatrix, col int) bool {
	hasSingleCtor := false
	for _, row := range matrix {
		switch unwrapAt(row.Patterns[col]).(type) {
		case canon.PatTuple, canon.PatStruct:
			hasSingleCtor = true
		case canon.PatWildcard, canon.PatBinding:
		default:
			return false
		}
	}
	return hasSingleCtor
}

func unwrapAt(p canon.FlatPattern) canon.FlatPattern {
	if at, ok := p.(canon.PatAt); ok {
		return unwrapAt(at.Inner)
	}
	return p
}

// decomposeSingleCtor splices a tuple/struct column's sub-patterns in
// place of the column. Like specializeMatrix but unconditional: the shape
// needs no test.
func decomposeSingleCtor(matrix canon.PatternMatrix, col int, paths []canon.ScrutineePath, basePath canon.ScrutineePath) specialized {
	subCount := singleCtorSubCount(matrix, col)

	newPaths := make([]canon.ScrutineePath, 0, len(paths)-1+subCount)
	newPaths = append(newPaths, paths[:col]...)
	for i := 0; i < subCount; i++ {
		newPaths = append(newPaths, basePath.Extend(singleCtorPathStep(matrix, col, i)))
	}
	newPaths = append(newPaths, paths[col+1:]...)

	newMatrix := make(canon.PatternMatrix, 0, len(matrix))
	for _, row := range matrix {
		bindings := append([]canon.Binding{}, row.Bindings...)
		bindings = append(bindings, collectConsumedBindings(row.Patterns[col], basePath)...)

		subPats := decomposeSingleCtorPattern(row.Patterns[col], subCount)
		newPatterns := make([]canon.FlatPattern, 0, len(row.Patterns)-1+len(subPats))
		newPatterns = append(newPatterns, row.Patterns[:col]...)
		newPatterns = append(newPatterns, subPats...)
		newPatterns = append(newPatterns, row.Patterns[col+1:]...)

		newMatrix = append(newMatrix, canon.PatternRow{
			Patterns: newPatterns,
			ArmIndex: row.ArmIndex,
			Guard:    row.Guard,
			Bindings: bindings,
		})
	}

	return specialized{matrix: newMatrix, paths: newPaths}
}

// singleCtorSubCount finds the field count from the first concrete tuple
// or struct pattern in the column.
func singleCtorSubCount(matrix canon.PatternMatrix, col int) int {
	for _, row := range matrix {
		switch pat := unwrapAt(row.Patterns[col]).(type) {
		case canon.PatTuple:
			return len(pat.Elems)
		case canon.PatStruct:
			return len(pat.Fields)
		}
	}
	return 0
}

func singleCtorPathStep(matrix canon.PatternMatrix, col, index int) canon.PathInstruction {
	for _, row := range matrix {
		switch unwrapAt(row.Patterns[col]).(type) {
		case canon.PatTuple:
			return canon.TupleIndex(index)
		case canon.PatStruct:
			return canon.StructField(index)
		}
	}
	return canon.TupleIndex(index)
}

func decomposeSingleCtorPattern(p canon.FlatPattern, subCount int) []canon.FlatPattern {
	switch pat := p.(type) {
	case canon.PatTuple:
		return pat.Elems
	case canon.PatStruct:
		subs := make([]canon.FlatPattern, len(pat.Fields))
		for i, f := range pat.Fields {
			subs[i] = f.Pat
		}
		return subs
	case canon.PatAt:
		return decomposeSingleCtorPattern(pat.Inner, subCount)
	case canon.PatOr:
		if len(pat.Alts) > 0 {
			return decomposeSingleCtorPattern(pat.Alts[0], subCount)
		}
	}
	return wildcards(subCount)
}

func wildcards(n int) []canon.FlatPattern {
	subs := make([]canon.FlatPattern, n)
	for i := range subs {
		subs[i] = canon.PatWildcard{}
	}
	return subs
}

// Constructor keys

type ctorClass int

const (
	ctorVariant ctorClass = iota
	ctorInt
	ctorFloat
	ctorBool
	ctorStr
	ctorChar
	ctorTuple
	ctorStruct
	ctorListLen
	ctorRange
)

// ctorKey identifies a constructor ignoring sub-patterns. Patterns with
// equal keys are served by the same edge. Fields unrelated to a class stay
// zero, so struct equality is key equality.
type ctorKey struct {
	class   ctorClass
	index   int // variant tag, list element count
	intVal  int64
	endVal  int64
	bits    uint64
	boolVal bool // bool literal, list has-rest, range inclusive
	strVal  string
	charVal rune
	openLo  bool
	openHi  bool
}

func ctorKeyOf(p canon.FlatPattern) (ctorKey, bool) {
	switch pat := p.(type) {
	case canon.PatWildcard, canon.PatBinding:
		return ctorKey{}, false
	case canon.PatInt:
		return ctorKey{class: ctorInt, intVal: pat.Value}, true
	case canon.PatFloat:
		return ctorKey{class: ctorFloat, bits: pat.Bits}, true
	case canon.PatBool:
		return ctorKey{class: ctorBool, boolVal: pat.Value}, true
	case canon.PatStr:
		return ctorKey{class: ctorStr, strVal: pat.Value}, true
	case canon.PatChar:
		return ctorKey{class: ctorChar, charVal: pat.Value}, true
	case canon.PatVariant:
		return ctorKey{class: ctorVariant, index: pat.Index}, true
	case canon.PatTuple:
		return ctorKey{class: ctorTuple}, true
	case canon.PatStruct:
		return ctorKey{class: ctorStruct}, true
	case canon.PatList:
		return ctorKey{class: ctorListLen, index: len(pat.Elems), boolVal: pat.HasRest}, true
	case canon.PatRange:
		k := ctorKey{class: ctorRange, boolVal: pat.Inclusive}
		if pat.Start != nil {
			k.intVal = *pat.Start
		} else {
			k.openLo = true
		}
		if pat.End != nil {
			k.endVal = *pat.End
		} else {
			k.openHi = true
		}
		return k, true
	case canon.PatOr:
		if len(pat.Alts) == 0 {
			return ctorKey{}, false
		}
		return ctorKeyOf(pat.Alts[0])
	case canon.PatAt:
		return ctorKeyOf(pat.Inner)
	}
	panic(fmt.Sprintf("unhandled pattern type: %T", p))
}

func countDistinctCtors(matrix canon.PatternMatrix, col int) int {
	seen := make(map[ctorKey]struct{})
	for _, row := range matrix {
		if key, ok := ctorKeyOf(row.Patterns[col]); ok {
			seen[key] = struct{}{}
		}
	}
	return len(seen)
}

// Test value collection

// collectTestValues gathers the distinct test values at a column in first
// occurrence order, so edge order is deterministic and follows arm
// priority.
func collectTestValues(matrix canon.PatternMatrix, col int) []canon.TestValue {
	seen := make(map[canon.TestValue]struct{})
	var values []canon.TestValue

	for _, row := range matrix {
		for _, tv := range testValuesFromPattern(row.Patterns[col]) {
			if _, dup := seen[tv]; !dup {
				seen[tv] = struct{}{}
				values = append(values, tv)
			}
		}
	}

	return values
}

// testValuesFromPattern yields the test value(s) a pattern demands. Most
// yield one; or-patterns yield one per alternative; wildcard-likes,
// tuples, structs, and open ranges yield none (tuples and structs need no
// tag test, they decompose instead).
func testValuesFromPattern(p canon.FlatPattern) []canon.TestValue {
	switch pat := p.(type) {
	case canon.PatWildcard, canon.PatBinding:
		return nil
	case canon.PatInt:
		return []canon.TestValue{canon.IntValue{Value: pat.Value}}
	case canon.PatFloat:
		return []canon.TestValue{canon.FloatValue{Bits: pat.Bits}}
	case canon.PatBool:
		return []canon.TestValue{canon.BoolValue{Value: pat.Value}}
	case canon.PatStr:
		return []canon.TestValue{canon.StrValue{Value: pat.Value}}
	case canon.PatChar:
		return []canon.TestValue{canon.CharValue{Value: pat.Value}}
	case canon.PatVariant:
		return []canon.TestValue{canon.TagValue{Index: pat.Index, Name: pat.Name}}
	case canon.PatTuple, canon.PatStruct:
		return nil
	case canon.PatList:
		return []canon.TestValue{canon.ListLenValue{Len: len(pat.Elems), Exact: !pat.HasRest}}
	case canon.PatRange:
		if pat.Start != nil && pat.End != nil {
			return []canon.TestValue{canon.RangeValue{Lo: *pat.Start, Hi: *pat.End, Inclusive: pat.Inclusive}}
		}
		return nil
	case canon.PatOr:
		var values []canon.TestValue
		for _, alt := range pat.Alts {
			values = append(values, testValuesFromPattern(alt)...)
		}
		return values
	case canon.PatAt:
		return testValuesFromPattern(pat.Inner)
	}
	panic(fmt.Sprintf("unhandled pattern type: %T", p))
}

// inferTestKind reads the kind off the first test value. A well-typed
// column never mixes kinds; an empty column defaults to a tag test.
func inferTestKind(values []canon.TestValue) canon.TestKind {
	if len(values) == 0 {
		return canon.EnumTag
	}
	switch values[0].(type) {
	case canon.IntValue:
		return canon.IntEq
	case canon.StrValue:
		return canon.StrEq
	case canon.BoolValue:
		return canon.BoolEq
	case canon.FloatValue:
		return canon.FloatEq
	case canon.CharValue:
		return canon.CharEq
	case canon.RangeValue:
		return canon.IntRange
	case canon.ListLenValue:
		return canon.ListLen
	case canon.TagValue:
		return canon.EnumTag
	}
	panic(fmt.Sprintf("unhandled test value type: %T", values[0]))
}

// Matrix specialization

type specialized struct {
	matrix canon.PatternMatrix
	paths  []canon.ScrutineePath
}

// specializeMatrix narrows the matrix to rows compatible with tv at col:
// matching rows contribute their sub-patterns in the column's place,
// wildcard-like rows stay with wildcard sub-patterns, mismatched rows
// drop out.
func specializeMatrix(matrix canon.PatternMatrix, col int, tv canon.TestValue, paths []canon.ScrutineePath, basePath canon.ScrutineePath) specialized {
	subCount := inferSubPatternCount(matrix, col, tv)

	newPaths := make([]canon.ScrutineePath, 0, len(paths)-1+subCount)
	newPaths = append(newPaths, paths[:col]...)
	for i := 0; i < subCount; i++ {
		newPaths = append(newPaths, basePath.Extend(subPathStep(tv, i)))
	}
	newPaths = append(newPaths, paths[col+1:]...)

	colPath := paths[col]
	var newMatrix canon.PatternMatrix
	for _, row := range matrix {
		if newRow, ok := specializeRow(row, col, tv, subCount, colPath); ok {
			newMatrix = append(newMatrix, newRow)
		}
	}

	return specialized{matrix: newMatrix, paths: newPaths}
}

// inferSubPatternCount determines how many sub-pattern columns tv opens.
// Literals have none. Variant payload arity comes from the first variant
// pattern carrying the tag, since wildcard rows say nothing about it.
func inferSubPatternCount(matrix canon.PatternMatrix, col int, tv canon.TestValue) int {
	switch v := tv.(type) {
	case canon.TagValue:
		for _, row := range matrix {
			if count, ok := variantFieldCount(row.Patterns[col], v.Index); ok {
				return count
			}
		}
		return 0
	case canon.ListLenValue:
		return v.Len
	default:
		return 0
	}
}

func variantFieldCount(p canon.FlatPattern, targetIndex int) (int, bool) {
	switch pat := p.(type) {
	case canon.PatVariant:
		if pat.Index == targetIndex {
			return len(pat.Fields), true
		}
	case canon.PatOr:
		for _, alt := range pat.Alts {
			if count, ok := variantFieldCount(alt, targetIndex); ok {
				return count, true
			}
		}
	case canon.PatAt:
		return variantFieldCount(pat.Inner, targetIndex)
	}
	return 0, false
}

func subPathStep(tv canon.TestValue, index int) canon.PathInstruction {
	switch tv.(type) {
	case canon.TagValue:
		return canon.TagPayload(index)
	case canon.ListLenValue:
		return canon.ListElement(index)
	}
	panic(fmt.Sprintf("test value %v opens no sub-patterns", tv))
}

func specializeRow(row canon.PatternRow, col int, tv canon.TestValue, subCount int, colPath canon.ScrutineePath) (canon.PatternRow, bool) {
	pat := row.Patterns[col]
	subPats, ok := specializePattern(pat, tv, subCount)
	if !ok {
		return canon.PatternRow{}, false
	}

	bindings := append([]canon.Binding{}, row.Bindings...)
	bindings = append(bindings, collectConsumedBindings(pat, colPath)...)

	newPatterns := make([]canon.FlatPattern, 0, len(row.Patterns)-1+len(subPats))
	newPatterns = append(newPatterns, row.Patterns[:col]...)
	newPatterns = append(newPatterns, subPats...)
	newPatterns = append(newPatterns, row.Patterns[col+1:]...)

	return canon.PatternRow{
		Patterns: newPatterns,
		ArmIndex: row.ArmIndex,
		Guard:    row.Guard,
		Bindings: bindings,
	}, true
}

// specializePattern matches one pattern against one test value, yielding
// the sub-patterns that replace it. Wildcard-likes match anything and pad
// with wildcards. An exact list pattern refuses an at-least edge: it must
// not win arm priority over rest patterns there.
func specializePattern(p canon.FlatPattern, tv canon.TestValue, subCount int) ([]canon.FlatPattern, bool) {
	switch pat := p.(type) {
	case canon.PatWildcard, canon.PatBinding:
		return wildcards(subCount), true

	case canon.PatVariant:
		if v, ok := tv.(canon.TagValue); ok && pat.Index == v.Index {
			return pat.Fields, true
		}
		return nil, false

	case canon.PatInt:
		if v, ok := tv.(canon.IntValue); ok && pat.Value == v.Value {
			return nil, true
		}
		return nil, false

	case canon.PatBool:
		if v, ok := tv.(canon.BoolValue); ok && pat.Value == v.Value {
			return nil, true
		}
		return nil, false

	case canon.PatStr:
		if v, ok := tv.(canon.StrValue); ok && pat.Value == v.Value {
			return nil, true
		}
		return nil, false

	case canon.PatFloat:
		if v, ok := tv.(canon.FloatValue); ok && pat.Bits == v.Bits {
			return nil, true
		}
		return nil, false

	case canon.PatChar:
		if v, ok := tv.(canon.CharValue); ok && pat.Value == v.Value {
			return nil, true
		}
		return nil, false

	case canon.PatList:
		v, ok := tv.(canon.ListLenValue)
		if !ok || len(pat.Elems) != v.Len {
			return nil, false
		}
		if !pat.HasRest && !v.Exact {
			return nil, false
		}
		return pat.Elems, true

	case canon.PatRange:
		v, ok := tv.(canon.RangeValue)
		if ok && pat.Start != nil && *pat.Start == v.Lo &&
			pat.End != nil && *pat.End == v.Hi && pat.Inclusive == v.Inclusive {
			return nil, true
		}
		return nil, false

	case canon.PatOr:
		var matching [][]canon.FlatPattern
		for _, alt := range pat.Alts {
			if subs, ok := specializePattern(alt, tv, subCount); ok {
				matching = append(matching, subs)
			}
		}
		switch len(matching) {
		case 0:
			return nil, false
		case 1:
			return matching[0], true
		default:
			// Several alternatives fit this edge: recombine their
			// sub-patterns element-wise so each sub-column still
			// carries every alternative.
			combined := make([]canon.FlatPattern, subCount)
			for i := 0; i < subCount; i++ {
				alts := make([]canon.FlatPattern, len(matching))
				for j, subs := range matching {
					alts[j] = subs[i]
				}
				combined[i] = canon.PatOr{Alts: alts}
			}
			return combined, true
		}

	case canon.PatAt:
		return specializePattern(pat.Inner, tv, subCount)
	}

	panic(fmt.Sprintf("unhandled pattern type: %T", p))
}

// defaultMatrix keeps the rows that are wildcard-like at col, dropping the
// column. These rows cover every value no explicit edge claimed.
func defaultMatrix(matrix canon.PatternMatrix, col int, paths []canon.ScrutineePath) specialized {
	newPaths := make([]canon.ScrutineePath, 0, len(paths)-1)
	newPaths = append(newPaths, paths[:col]...)
	newPaths = append(newPaths, paths[col+1:]...)

	colPath := paths[col]
	var newMatrix canon.PatternMatrix
	for _, row := range matrix {
		if !canon.IsWildcardLike(row.Patterns[col]) {
			continue
		}
		bindings := append([]canon.Binding{}, row.Bindings...)
		bindings = append(bindings, collectConsumedBindings(row.Patterns[col], colPath)...)

		newPatterns := make([]canon.FlatPattern, 0, len(row.Patterns)-1)
		newPatterns = append(newPatterns, row.Patterns[:col]...)
		newPatterns = append(newPatterns, row.Patterns[col+1:]...)

		newMatrix = append(newMatrix, canon.PatternRow{
			Patterns: newPatterns,
			ArmIndex: row.ArmIndex,
			Guard:    row.Guard,
			Bindings: bindings,
		})
	}

	return specialized{matrix: newMatrix, paths: newPaths}
}

// Binding extraction

// extractAllBindings merges a matched row's accumulated bindings with the
// bindings its remaining wildcard-like patterns still hold.
func extractAllBindings(row canon.PatternRow, paths []canon.ScrutineePath) []canon.Binding {
	bindings := append([]canon.Binding{}, row.Bindings...)
	for i, pat := range row.Patterns {
		bindings = canon.CollectBindings(pat, paths[i], bindings)
	}
	return bindings
}

// collectConsumedBindings saves the names a pattern binds at the column
// being consumed: a plain binding, an at-pattern's name, or a list rest.
// Without this the names would vanish with the column.
func collectConsumedBindings(p canon.FlatPattern, path canon.ScrutineePath) []canon.Binding {
	switch pat := p.(type) {
	case canon.PatBinding:
		return []canon.Binding{{Name: pat.Name, Path: path}}
	case canon.PatAt:
		bindings := []canon.Binding{{Name: pat.Name, Path: path}}
		return append(bindings, collectConsumedBindings(pat.Inner, path)...)
	case canon.PatList:
		if pat.HasRest && pat.Rest != "" {
			return []canon.Binding{{Name: pat.Rest, Path: path.Extend(canon.ListRest(len(pat.Elems)))}}
		}
	}
	return nil
}
