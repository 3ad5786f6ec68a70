package ir

import (
	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// VarID identifies one SSA value within a function. IDs are dense and
// index Function.VarTypes.
type VarID uint32

// BlockID identifies one basic block within a function. Block 0 is the
// entry.
type BlockID uint32

// Value is the right-hand side of a Let: a variable copy, a literal, or
// a primitive operation over already-computed variables.
type Value interface {
	valueNode()
	UsedVars() []VarID
}

type VarRef struct {
	ID VarID
}

type LitKind int

const (
	LitUnit LitKind = iota
	LitBool
	LitInt
	LitFloat
	LitStr
	LitChar
)

type Lit struct {
	Kind     LitKind
	IntVal   int64
	FloatVal float64
	BoolVal  bool
	StrVal   string
	CharVal  rune
}

func ConstUnit() Lit          { return Lit{Kind: LitUnit} }
func ConstBool(v bool) Lit    { return Lit{Kind: LitBool, BoolVal: v} }
func ConstInt(v int64) Lit    { return Lit{Kind: LitInt, IntVal: v} }
func ConstFloat(v float64) Lit { return Lit{Kind: LitFloat, FloatVal: v} }
func ConstStr(v string) Lit   { return Lit{Kind: LitStr, StrVal: v} }
func ConstChar(v rune) Lit    { return Lit{Kind: LitChar, CharVal: v} }

// PrimOp applies a primitive operator ("add", "lt", "not", ...) to
// argument variables. Operand typing was checked upstream.
type PrimOp struct {
	Op   string
	Args []VarID
}

func (VarRef) valueNode() {}
func (Lit) valueNode()    {}
func (PrimOp) valueNode() {}

func (v VarRef) UsedVars() []VarID { return []VarID{v.ID} }
func (Lit) UsedVars() []VarID      { return nil }
func (p PrimOp) UsedVars() []VarID { return p.Args }

// Instr is one value-producing operation. Every instruction defines
// exactly one fresh variable.
type Instr interface {
	instrNode()
	DefinedVar() VarID
	UsedVars() []VarID
}

// Let materializes a Value into Dst.
type Let struct {
	Dst VarID
	Val Value
}

// Apply calls a resolved function or runtime builtin by name.
type Apply struct {
	Dst    VarID
	Callee string
	Args   []VarID
}

// Project reads positional field Field from Base. For enum values,
// field 0 is the discriminant and payload slot i lives at field i+1.
type Project struct {
	Dst   VarID
	Base  VarID
	Field int
}

type CtorKind int

const (
	CtorTuple CtorKind = iota
	CtorStruct
	CtorEnumVariant
	CtorList
)

// Construct builds a composite value. TypeName and Tag apply to structs
// and enum variants; lists and tuples use only Args.
type Construct struct {
	Dst      VarID
	Kind     CtorKind
	TypeName string
	Tag      int
	Args     []VarID
}

func (Let) instrNode()       {}
func (Apply) instrNode()     {}
func (Project) instrNode()   {}
func (Construct) instrNode() {}

func (i Let) DefinedVar() VarID       { return i.Dst }
func (i Apply) DefinedVar() VarID     { return i.Dst }
func (i Project) DefinedVar() VarID   { return i.Dst }
func (i Construct) DefinedVar() VarID { return i.Dst }

func (i Let) UsedVars() []VarID       { return i.Val.UsedVars() }
func (i Apply) UsedVars() []VarID     { return i.Args }
func (i Project) UsedVars() []VarID   { return []VarID{i.Base} }
func (i Construct) UsedVars() []VarID { return i.Args }

// Terminator is the single control transfer ending a block.
type Terminator interface {
	termNode()
	Successors() []BlockID
	UsedVars() []VarID
}

type Return struct {
	Value VarID
}

// Jump transfers to Target, supplying one argument per target block
// parameter, in order.
type Jump struct {
	Target BlockID
	Args   []VarID
}

type Branch struct {
	Cond VarID
	Then BlockID
	Else BlockID
}

type SwitchCase struct {
	Value  uint64
	Target BlockID
}

// Switch dispatches on an integer-classed scrutinee (enum tag, int, bool,
// char, list length). String and float dispatch never reach here; they
// lower to comparison chains.
type Switch struct {
	Scrutinee VarID
	Cases     []SwitchCase
	Default   BlockID
}

// Unreachable marks control flow upstream passes proved impossible.
type Unreachable struct{}

func (Return) termNode()      {}
func (Jump) termNode()        {}
func (Branch) termNode()      {}
func (Switch) termNode()      {}
func (Unreachable) termNode() {}

func (Return) Successors() []BlockID   { return nil }
func (t Jump) Successors() []BlockID   { return []BlockID{t.Target} }
func (t Branch) Successors() []BlockID { return []BlockID{t.Then, t.Else} }
func (Unreachable) Successors() []BlockID { return nil }

func (t Switch) Successors() []BlockID {
	succ := make([]BlockID, 0, len(t.Cases)+1)
	for _, c := range t.Cases {
		succ = append(succ, c.Target)
	}
	return append(succ, t.Default)
}

func (t Return) UsedVars() []VarID      { return []VarID{t.Value} }
func (t Jump) UsedVars() []VarID        { return t.Args }
func (t Branch) UsedVars() []VarID      { return []VarID{t.Cond} }
func (t Switch) UsedVars() []VarID      { return []VarID{t.Scrutinee} }
func (Unreachable) UsedVars() []VarID   { return nil }

// Param is a typed SSA slot: a function parameter or a block parameter
// acting as a phi join.
type Param struct {
	Var  VarID
	Type types.Type
}

// Block is a maximal straight-line instruction sequence with exactly one
// terminator. InstrSpans parallels Instrs.
type Block struct {
	ID         BlockID
	Params     []Param
	Instrs     []Instr
	InstrSpans []token.Span
	Term       Terminator // nil only while under construction
}

// Function is one lowered function body in block-structured SSA form.
// Blocks[0] is the entry; function parameters are its implicit inputs.
type Function struct {
	Name     string
	Params   []Param
	RetType  types.Type
	Blocks   []*Block
	VarTypes []types.Type
}

func (f *Function) Block(id BlockID) *Block {
	return f.Blocks[id]
}

func (f *Function) VarType(v VarID) types.Type {
	return f.VarTypes[v]
}

// NumVars returns how many SSA variables the function defines.
func (f *Function) NumVars() int {
	return len(f.VarTypes)
}
