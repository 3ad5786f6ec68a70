package canon

// FlatPattern is the canonical, checker-resolved pattern form consumed by
// match compilation. Variant and struct fields are already positional,
// literals already folded. The set is closed; matching code dispatches
// with exhaustive type switches.
type FlatPattern interface {
	patNode()
}

// PatWildcard matches anything and binds nothing.
type PatWildcard struct{}

// PatBinding matches anything and binds the whole value to Name.
type PatBinding struct {
	Name string
}

type PatInt struct {
	Value int64
}

// PatFloat carries the IEEE-754 bit pattern so NaN and -0.0 literals
// compare deterministically during deduplication.
type PatFloat struct {
	Bits uint64
}

type PatBool struct {
	Value bool
}

type PatStr struct {
	Value string
}

type PatChar struct {
	Value rune
}

// PatVariant matches one enum constructor. Index is the runtime tag.
type PatVariant struct {
	Name   string
	Index  int
	Fields []FlatPattern
}

type PatTuple struct {
	Elems []FlatPattern
}

// StructFieldPat pairs a field name with its sub-pattern. Fields arrive in
// resolved positional order, so position i projects struct field i.
type StructFieldPat struct {
	Name string
	Pat  FlatPattern
}

type PatStruct struct {
	Fields []StructFieldPat
}

// PatList matches a list by length. Without a rest binding the length is
// exact; with one (`[a, b, ..rest]`) it is a minimum, and Rest names the
// tail starting after the fixed elements.
type PatList struct {
	Elems   []FlatPattern
	Rest    string
	HasRest bool
}

// PatRange matches integers in [Start, End) or [Start, End] per Inclusive.
// Canonicalization closes open bounds before patterns reach match
// compilation, so both bounds are set here.
type PatRange struct {
	Start     *int64
	End       *int64
	Inclusive bool
}

// PatOr matches if any alternative matches. All alternatives bind the same
// name set; the checker enforces this, and binding collection uses the
// first alternative.
type PatOr struct {
	Alts []FlatPattern
}

// PatAt binds the whole value to Name and keeps matching Inner.
type PatAt struct {
	Name  string
	Inner FlatPattern
}

func (PatWildcard) patNode() {}
func (PatBinding) patNode()  {}
func (PatInt) patNode()      {}
func (PatFloat) patNode()    {}
func (PatBool) patNode()     {}
func (PatStr) patNode()      {}
func (PatChar) patNode()     {}
func (PatVariant) patNode()  {}
func (PatTuple) patNode()    {}
func (PatStruct) patNode()   {}
func (PatList) patNode()     {}
func (PatRange) patNode()    {}
func (PatOr) patNode()       {}
func (PatAt) patNode()       {}

// IsWildcardLike reports whether p matches any value of its type without a
// runtime test. An or-pattern is wildcard-like if any alternative is.
func IsWildcardLike(p FlatPattern) bool {
	switch pat := p.(type) {
	case PatWildcard, PatBinding:
		return true
	case PatOr:
		for _, alt := range pat.Alts {
			if IsWildcardLike(alt) {
				return true
			}
		}
		return false
	case PatAt:
		return IsWildcardLike(pat.Inner)
	default:
		return false
	}
}

// IsConstructor reports whether p requires a runtime test or decomposition
// to match.
func IsConstructor(p FlatPattern) bool {
	switch pat := p.(type) {
	case PatInt, PatFloat, PatBool, PatStr, PatChar,
		PatVariant, PatTuple, PatStruct, PatList, PatRange:
		return true
	case PatAt:
		return IsConstructor(pat.Inner)
	default:
		return false
	}
}

// Binding names a value reachable from the root scrutinee.
type Binding struct {
	Name string
	Path ScrutineePath
}

// CollectBindings appends every (name, path) pair p binds, left to right.
// Or-patterns contribute the first alternative's bindings; at-patterns
// bind at the current path and then recurse.
func CollectBindings(p FlatPattern, path ScrutineePath, out []Binding) []Binding {
	switch pat := p.(type) {
	case PatBinding:
		out = append(out, Binding{Name: pat.Name, Path: path})
	case PatAt:
		out = append(out, Binding{Name: pat.Name, Path: path})
		out = CollectBindings(pat.Inner, path, out)
	case PatVariant:
		for i, f := range pat.Fields {
			out = CollectBindings(f, path.Extend(TagPayload(i)), out)
		}
	case PatTuple:
		for i, e := range pat.Elems {
			out = CollectBindings(e, path.Extend(TupleIndex(i)), out)
		}
	case PatStruct:
		for i, f := range pat.Fields {
			out = CollectBindings(f.Pat, path.Extend(StructField(i)), out)
		}
	case PatList:
		for i, e := range pat.Elems {
			out = CollectBindings(e, path.Extend(ListElement(i)), out)
		}
		if pat.HasRest && pat.Rest != "" {
			out = append(out, Binding{Name: pat.Rest, Path: path.Extend(ListRest(len(pat.Elems)))})
		}
	case PatOr:
		if len(pat.Alts) > 0 {
			out = CollectBindings(pat.Alts[0], path, out)
		}
	}
	return out
}
