package canon

import (
	"fmt"
	"strconv"
)

// TestKind classifies the runtime test a Switch node performs. Every edge
// of one Switch carries test values of the matching kind.
type TestKind int

const (
	EnumTag TestKind = iota
	IntEq
	StrEq
	BoolEq
	FloatEq
	IntRange
	CharEq
	ListLen
)

func (k TestKind) String() string {
	switch k {
	case EnumTag:
		return "tag"
	case IntEq:
		return "int"
	case StrEq:
		return "str"
	case BoolEq:
		return "bool"
	case FloatEq:
		return "float"
	case IntRange:
		return "range"
	case CharEq:
		return "char"
	case ListLen:
		return "len"
	}
	return "test(" + strconv.Itoa(int(k)) + ")"
}

// TestValue is one tested constant. All implementations are comparable
// value types, so a map keyed by TestValue deduplicates edges.
type TestValue interface {
	testValue()
}

// TagValue tests an enum discriminant. Name is carried for readable dumps;
// Index alone decides equality of the runtime test.
type TagValue struct {
	Index int
	Name  string
}

type IntValue struct {
	Value int64
}

type StrValue struct {
	Value string
}

type BoolValue struct {
	Value bool
}

// FloatValue compares by bit pattern, mirroring the pattern literal form.
type FloatValue struct {
	Bits uint64
}

type CharValue struct {
	Value rune
}

// RangeValue tests lo <= v and v < hi (or <= hi when Inclusive).
type RangeValue struct {
	Lo        int64
	Hi        int64
	Inclusive bool
}

// ListLenValue tests list length: equal when Exact, at-least otherwise.
type ListLenValue struct {
	Len   int
	Exact bool
}

func (TagValue) testValue()     {}
func (IntValue) testValue()     {}
func (StrValue) testValue()     {}
func (BoolValue) testValue()    {}
func (FloatValue) testValue()   {}
func (CharValue) testValue()    {}
func (RangeValue) testValue()   {}
func (ListLenValue) testValue() {}

// DecisionTree is the compiled form of one match expression: a tree of
// tests over parts of the scrutinee. The set is closed (Switch, Leaf,
// Guard, Fail) and trees are immutable once built, shared by pointer
// across emission sites.
type DecisionTree interface {
	treeNode()
}

type TreeEdge struct {
	Value TestValue
	Tree  DecisionTree
}

// Switch tests the sub-value at Path with one kind of test and dispatches
// over Edges. Default, when present, covers the untested remainder; when
// absent the edges are complete for the scrutinee's type.
type Switch struct {
	Path    ScrutineePath
	Kind    TestKind
	Edges   []TreeEdge
	Default DecisionTree // nil when the edge set is complete
}

// Leaf runs arm ArmIndex after binding Bindings.
type Leaf struct {
	ArmIndex int
	Bindings []Binding
}

// Guard binds like a Leaf, then evaluates GuardExpr; on failure control
// continues with OnFail, which already encodes every remaining compatible
// arm, not just the next one.
type Guard struct {
	ArmIndex  int
	Bindings  []Binding
	GuardExpr Expr
	OnFail    DecisionTree
}

// Fail is the terminal for paths no value reaches. Exhaustiveness is
// proven upstream, so emitting it produces an unreachable marker only.
type Fail struct{}

func (*Switch) treeNode() {}
func (*Leaf) treeNode()   {}
func (*Guard) treeNode()  {}
func (Fail) treeNode()    {}

func (v TagValue) String() string   { return v.Name + "#" + strconv.Itoa(v.Index) }
func (v IntValue) String() string   { return strconv.FormatInt(v.Value, 10) }
func (v StrValue) String() string   { return strconv.Quote(v.Value) }
func (v BoolValue) String() string  { return strconv.FormatBool(v.Value) }
func (v FloatValue) String() string { return fmt.Sprintf("0x%x", v.Bits) }
func (v CharValue) String() string  { return strconv.QuoteRune(v.Value) }

func (v ListLenValue) String() string {
	if v.Exact {
		return "len=" + strconv.Itoa(v.Len)
	}
	return "len>=" + strconv.Itoa(v.Len)
}

func (v RangeValue) String() string {
	op := ".."
	if v.Inclusive {
		op = "..="
	}
	return strconv.FormatInt(v.Lo, 10) + op + strconv.FormatInt(v.Hi, 10)
}
