package types

import (
	"fmt"
	"strings"
)

type Kind int

const (
	UnresolvedKind Kind = iota
	UnitKind
	BoolKind
	IntKind
	FloatKind
	StrKind
	CharKind
	TupleKind
	StructKind
	EnumKind
	ListKind
	RangeKind
	FuncKind
)

// Type is the interface for all static types the middle-end sees.
// Types arrive fully resolved from the checker; lowering only reads them.
type Type interface {
	String() string
	Kind() Kind
}

// Common concrete types (aliases) for readability.
// These are value-typed singletons; using them in maps/keys is safe since
// the scalar types are comparable by value.
var (
	UnitType Type = Unit{}
	BoolType Type = Bool{}
	I64      Type = Int{Width: 64}
	F64      Type = Float{Width: 64}
	StrType  Type = Str{}
	CharType Type = Char{}
)

// Unresolved is the placeholder for values whose precise type the checker
// already validated but the middle-end does not need to re-derive, such as
// intermediate projections while resolving a scrutinee path.
type Unresolved struct{}

func (u Unresolved) Kind() Kind     { return UnresolvedKind }
func (u Unresolved) String() string { return "?" }

// Unit is the type of expressions evaluated for effect only.
type Unit struct{}

func (u Unit) Kind() Kind     { return UnitKind }
func (u Unit) String() string { return "Unit" }

type Bool struct{}

func (b Bool) Kind() Kind     { return BoolKind }
func (b Bool) String() string { return "Bool" }

// Int represents an integer type with a given bit width.
type Int struct {
	Width uint32 // e.g. 8, 16, 32, 64
}

func (i Int) Kind() Kind     { return IntKind }
func (i Int) String() string { return fmt.Sprintf("I%d", i.Width) }

// Float represents a floating-point type with a given precision.
type Float struct {
	Width uint32 // e.g. 32, 64
}

func (f Float) Kind() Kind     { return FloatKind }
func (f Float) String() string { return fmt.Sprintf("F%d", f.Width) }

type Str struct{}

func (s Str) Kind() Kind     { return StrKind }
func (s Str) String() string { return "Str" }

type Char struct{}

func (c Char) Kind() Kind     { return CharKind }
func (c Char) String() string { return "Char" }

type Tuple struct {
	Elems []Type
}

func (t Tuple) Kind() Kind { return TupleKind }

func (t Tuple) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		parts[i] = e.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type StructField struct {
	Name string
	Type Type
}

// Struct is a nominal record type. Fields are in resolved declaration
// order; pattern columns and projections address them by position.
type Struct struct {
	Name   string
	Fields []StructField
}

func (s Struct) Kind() Kind     { return StructKind }
func (s Struct) String() string { return s.Name }

// FieldIndex returns the positional index of the named field, or -1.
func (s Struct) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

type Variant struct {
	Name   string
	Fields []Type
}

// Enum is a tagged sum type. Variant order fixes the runtime tag values:
// variant i carries discriminant i in payload slot 0.
type Enum struct {
	Name     string
	Variants []Variant
}

func (e Enum) Kind() Kind     { return EnumKind }
func (e Enum) String() string { return e.Name }

// VariantIndex returns the tag of the named variant, or -1.
func (e Enum) VariantIndex(name string) int {
	for i, v := range e.Variants {
		if v.Name == name {
			return i
		}
	}
	return -1
}

type List struct {
	Elem Type
}

func (l List) Kind() Kind     { return ListKind }
func (l List) String() string { return "[" + l.Elem.String() + "]" }

// Range is the type of `start..end` iterables. Start and end share Elem.
type Range struct {
	Elem Type
}

func (r Range) Kind() Kind     { return RangeKind }
func (r Range) String() string { return "Range[" + r.Elem.String() + "]" }

type Func struct {
	Params []Type
	Ret    Type
}

func (f Func) Kind() Kind { return FuncKind }

func (f Func) String() string {
	parts := make([]string, len(f.Params))
	for i, p := range f.Params {
		parts[i] = p.String()
	}
	return "fn(" + strings.Join(parts, ", ") + ") -> " + f.Ret.String()
}
