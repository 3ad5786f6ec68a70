package ir

import (
	"fmt"

	"github.com/nikandfor/errors"
	"github.com/nikandfor/tlog"

	"github.com/thiremani/ceres/token"
	"github.com/thiremani/ceres/types"
)

// Builder emits instructions into one Function under construction. It is
// exclusively owned by a single lowering pass; nothing here synchronizes.
//
// Emission is positional: instructions land in the current block, and a
// block accepts exactly one terminator. A second terminator is a compiler
// bug and panics rather than producing silently wrong control flow.
type Builder struct {
	fn  *Function
	cur BlockID
	log *tlog.Logger
}

// NewBuilder starts a function with an empty entry block (block 0) and
// positions emission there. log may be nil.
func NewBuilder(name string, ret types.Type, log *tlog.Logger) *Builder {
	fn := &Function{
		Name:    name,
		RetType: ret,
	}
	fn.Blocks = append(fn.Blocks, &Block{ID: 0})
	return &Builder{fn: fn, log: log}
}

// AddParam declares the next function parameter and returns its variable.
func (b *Builder) AddParam(ty types.Type) VarID {
	v := b.freshVar(ty)
	b.fn.Params = append(b.fn.Params, Param{Var: v, Type: ty})
	return v
}

// NewBlock appends an empty block and returns its ID without moving the
// emission position.
func (b *Builder) NewBlock() BlockID {
	id := BlockID(len(b.fn.Blocks))
	b.fn.Blocks = append(b.fn.Blocks, &Block{ID: id})
	return id
}

// PositionAt moves emission to the end of block id.
func (b *Builder) PositionAt(id BlockID) {
	if int(id) >= len(b.fn.Blocks) {
		panic(fmt.Sprintf("position at unknown block b%d", id))
	}
	b.cur = id
}

func (b *Builder) CurrentBlock() BlockID {
	return b.cur
}

// VarType reports the declared type of v.
func (b *Builder) VarType(v VarID) types.Type {
	return b.fn.VarType(v)
}

// IsTerminated reports whether the current block already has its
// terminator. Lowering queries this before sealing joins so constructs
// ending in return/break/continue are not double-terminated.
func (b *Builder) IsTerminated() bool {
	return b.fn.Blocks[b.cur].Term != nil
}

// AddBlockParam declares a typed parameter on block id and returns the
// variable carrying its value inside the block. Predecessor jumps must
// supply arguments in declaration order.
func (b *Builder) AddBlockParam(id BlockID, ty types.Type) VarID {
	v := b.freshVar(ty)
	blk := b.fn.Blocks[id]
	blk.Params = append(blk.Params, Param{Var: v, Type: ty})
	return v
}

func (b *Builder) freshVar(ty types.Type) VarID {
	v := VarID(len(b.fn.VarTypes))
	b.fn.VarTypes = append(b.fn.VarTypes, ty)
	return v
}

func (b *Builder) emit(instr Instr, sp token.Span) {
	blk := b.fn.Blocks[b.cur]
	blk.Instrs = append(blk.Instrs, instr)
	blk.InstrSpans = append(blk.InstrSpans, sp)
}

// EmitLet materializes val into a fresh variable of type ty.
func (b *Builder) EmitLet(val Value, ty types.Type, sp token.Span) VarID {
	dst := b.freshVar(ty)
	b.emit(Let{Dst: dst, Val: val}, sp)
	return dst
}

// EmitApply calls callee with args, producing a fresh variable of type ty.
func (b *Builder) EmitApply(callee string, args []VarID, ty types.Type, sp token.Span) VarID {
	dst := b.freshVar(ty)
	b.emit(Apply{Dst: dst, Callee: callee, Args: args}, sp)
	return dst
}

// EmitProject reads positional field from base.
func (b *Builder) EmitProject(base VarID, field int, ty types.Type, sp token.Span) VarID {
	dst := b.freshVar(ty)
	b.emit(Project{Dst: dst, Base: base, Field: field}, sp)
	return dst
}

// EmitConstruct builds a composite value.
func (b *Builder) EmitConstruct(kind CtorKind, typeName string, tag int, args []VarID, ty types.Type, sp token.Span) VarID {
	dst := b.freshVar(ty)
	b.emit(Construct{Dst: dst, Kind: kind, TypeName: typeName, Tag: tag, Args: args}, sp)
	return dst
}

func (b *Builder) terminate(term Terminator) {
	blk := b.fn.Blocks[b.cur]
	if blk.Term != nil {
		panic(fmt.Sprintf("block b%d terminated twice: %s then %s",
			b.cur, termString(blk.Term), termString(term)))
	}
	blk.Term = term
}

func (b *Builder) TerminateReturn(v VarID) {
	b.terminate(Return{Value: v})
}

func (b *Builder) TerminateJump(target BlockID, args []VarID) {
	b.terminate(Jump{Target: target, Args: args})
}

func (b *Builder) TerminateBranch(cond VarID, then, els BlockID) {
	b.terminate(Branch{Cond: cond, Then: then, Else: els})
}

func (b *Builder) TerminateSwitch(scrut VarID, cases []SwitchCase, def BlockID) {
	b.terminate(Switch{Scrutinee: scrut, Cases: cases, Default: def})
}

func (b *Builder) TerminateUnreachable() {
	b.terminate(Unreachable{})
}

// Finish seals the function: any block left without a terminator gets
// Unreachable (with a diagnostic record, since well-formed lowering seals
// every block itself), the result is verified, and unused block
// parameters are reported at low verbosity.
func (b *Builder) Finish() (*Function, error) {
	for _, blk := range b.fn.Blocks {
		if blk.Term == nil {
			b.log.Printw("unterminated block sealed", "func", b.fn.Name, "block", blk.ID)
			blk.Term = Unreachable{}
		}
	}

	if err := Verify(b.fn); err != nil {
		return nil, errors.Wrap(err, "verify %v", b.fn.Name)
	}

	if l := b.log.V("liveness"); l != nil {
		live := Liveness(b.fn)
		for _, blk := range b.fn.Blocks {
			for _, p := range blk.Params {
				if !live.LiveAnywhere(blk.ID, p.Var) {
					l.Printw("unused block parameter",
						"func", b.fn.Name, "block", blk.ID, "var", p.Var)
				}
			}
		}
	}

	return b.fn, nil
}
