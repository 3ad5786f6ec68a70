package canon

import (
	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// Expr is a canonicalized, type-checked expression. Name resolution,
// operator typing, and field-position resolution all happened upstream;
// lowering consumes these nodes without re-validating them.
type Expr interface {
	Span() token.Span
	exprNode()
}

type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpRem
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd // short-circuit
	OpOr  // short-circuit
)

var binOpNames = [...]string{
	OpAdd: "add",
	OpSub: "sub",
	OpMul: "mul",
	OpDiv: "div",
	OpRem: "rem",
	OpEq:  "eq",
	OpNe:  "ne",
	OpLt:  "lt",
	OpLe:  "le",
	OpGt:  "gt",
	OpGe:  "ge",
	OpAnd: "and",
	OpOr:  "or",
}

func (op BinOp) String() string {
	if op >= 0 && int(op) < len(binOpNames) {
		return binOpNames[op]
	}
	return "op?"
}

type UnOp int

const (
	OpNeg UnOp = iota
	OpNot
)

func (op UnOp) String() string {
	if op == OpNeg {
		return "neg"
	}
	return "not"
}

type IntLit struct {
	Value int64
	Sp    token.Span
}

type FloatLit struct {
	Value float64
	Sp    token.Span
}

type BoolLit struct {
	Value bool
	Sp    token.Span
}

type StrLit struct {
	Value string
	Sp    token.Span
}

type CharLit struct {
	Value rune
	Sp    token.Span
}

// UnitLit is the value of empty blocks and effect-only constructs.
type UnitLit struct {
	Sp token.Span
}

// Ident is a resolved reference to a bound name.
type Ident struct {
	Name string
	Sp   token.Span
}

type Binary struct {
	Op  BinOp
	LHS Expr
	RHS Expr
	Sp  token.Span
}

type Unary struct {
	Op      UnOp
	Operand Expr
	Sp      token.Span
}

// Call applies a resolved function by name. Indirect calls and closures
// stay with the full expression lowerer upstream of this package.
type Call struct {
	Callee string
	Args   []Expr
	Sp     token.Span
}

type TupleLit struct {
	Elems []Expr
	Sp    token.Span
}

type ListLit struct {
	Elems []Expr
	Sp    token.Span
}

// StructLit constructs a named struct; Fields are in resolved positional
// order.
type StructLit struct {
	Name   string
	Fields []Expr
	Sp     token.Span
}

// VariantLit constructs enum EnumName's variant with runtime tag Tag.
type VariantLit struct {
	EnumName string
	Variant  string
	Tag      int
	Args     []Expr
	Sp       token.Span
}

// Field projects positional field Index from a tuple or struct value.
type Field struct {
	Receiver Expr
	Index    int
	Sp       token.Span
}

type Index struct {
	Receiver Expr
	Key      Expr
	Sp       token.Span
}

// RangeLit is `start..end`, the iterable form consumed by For.
type RangeLit struct {
	Start Expr
	End   Expr
	Sp    token.Span
}

// Block evaluates Stmts in order, then Result; a nil Result yields unit.
type Block struct {
	Stmts  []Expr
	Result Expr
	Sp     token.Span
}

// Let binds an irrefutable pattern to the initializer's value. Mutable
// marks every name it binds as reassignable.
type Let struct {
	Pattern FlatPattern
	Mutable bool
	Init    Expr
	Sp      token.Span
}

type If struct {
	Cond Expr
	Then Expr
	Else Expr // nil for one-armed if; the value is then unit
	Sp   token.Span
}

// Loop repeats Body until a break; its value is the break's value.
type Loop struct {
	Body Expr
	Sp   token.Span
}

// For iterates Var over a range iterable. Guard, when present, filters
// iterations. The construct evaluates to unit.
type For struct {
	Var      string
	Iterable Expr
	Guard    Expr // nil when unguarded
	Body     Expr
	Sp       token.Span
}

type Break struct {
	Value Expr // nil breaks with unit
	Sp    token.Span
}

type Continue struct {
	Sp token.Span
}

// Assign mutates Target. Targets are mutable names, fields, or indexes;
// anything else was rejected upstream.
type Assign struct {
	Target Expr
	Value  Expr
	Sp     token.Span
}

type MatchArm struct {
	Pattern FlatPattern
	Guard   Expr // nil when unguarded
	Body    Expr
}

type Match struct {
	Scrutinee Expr
	Arms      []MatchArm
	Sp        token.Span
}

func (e *IntLit) Span() token.Span     { return e.Sp }
func (e *FloatLit) Span() token.Span   { return e.Sp }
func (e *BoolLit) Span() token.Span    { return e.Sp }
func (e *StrLit) Span() token.Span     { return e.Sp }
func (e *CharLit) Span() token.Span    { return e.Sp }
func (e *UnitLit) Span() token.Span    { return e.Sp }
func (e *Ident) Span() token.Span      { return e.Sp }
func (e *Binary) Span() token.Span     { return e.Sp }
func (e *Unary) Span() token.Span      { return e.Sp }
func (e *Call) Span() token.Span       { return e.Sp }
func (e *TupleLit) Span() token.Span   { return e.Sp }
func (e *ListLit) Span() token.Span    { return e.Sp }
func (e *StructLit) Span() token.Span  { return e.Sp }
func (e *VariantLit) Span() token.Span { return e.Sp }
func (e *Field) Span() token.Span      { return e.Sp }
func (e *Index) Span() token.Span      { return e.Sp }
func (e *RangeLit) Span() token.Span   { return e.Sp }
func (e *Block) Span() token.Span      { return e.Sp }
func (e *Let) Span() token.Span        { return e.Sp }
func (e *If) Span() token.Span         { return e.Sp }
func (e *Loop) Span() token.Span       { return e.Sp }
func (e *For) Span() token.Span        { return e.Sp }
func (e *Break) Span() token.Span      { return e.Sp }
func (e *Continue) Span() token.Span   { return e.Sp }
func (e *Assign) Span() token.Span     { return e.Sp }
func (e *Match) Span() token.Span      { return e.Sp }

func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*BoolLit) exprNode()    {}
func (*StrLit) exprNode()     {}
func (*CharLit) exprNode()    {}
func (*UnitLit) exprNode()    {}
func (*Ident) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Unary) exprNode()      {}
func (*Call) exprNode()       {}
func (*TupleLit) exprNode()   {}
func (*ListLit) exprNode()    {}
func (*StructLit) exprNode()  {}
func (*VariantLit) exprNode() {}
func (*Field) exprNode()      {}
func (*Index) exprNode()      {}
func (*RangeLit) exprNode()   {}
func (*Block) exprNode()      {}
func (*Let) exprNode()        {}
func (*If) exprNode()         {}
func (*Loop) exprNode()       {}
func (*For) exprNode()        {}
func (*Break) exprNode()      {}
func (*Continue) exprNode()   {}
func (*Assign) exprNode()     {}
func (*Match) exprNode()      {}

// Param is one function parameter, fully typed by the checker.
type Param struct {
	Name string
	Type types.Type
}

// Function is the unit of lowering: one type-checked function body.
type Function struct {
	Name    string
	Params  []Param
	RetType types.Type
	Body    Expr
	Sp      token.Span
}
