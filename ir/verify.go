package ir

import (
	"github.com/nikandfor/errors"
)

// Verify checks a sealed function's structural invariants: every block
// carries exactly one terminator, control transfers stay in range, jump
// arguments match the target's declared parameters, branch and switch
// targets take no parameters (arguments flow only through jumps), each
// variable has a single definition, and every use is preceded by its
// definition on all paths from entry.
//
// Lowering bugs surface here as errors instead of as silently wrong
// generated code.
func Verify(fn *Function) error {
	if len(fn.Blocks) == 0 {
		return errors.New("function %v has no blocks", fn.Name)
	}
	if err := verifyVars(fn); err != nil {
		return err
	}
	for _, blk := range fn.Blocks {
		if err := verifyTerm(fn, blk); err != nil {
			return err
		}
	}
	return verifyDefsReachUses(fn)
}

// verifyVars checks every referenced variable is in range and every
// variable is defined at most once.
func verifyVars(fn *Function) error {
	nv := fn.NumVars()
	defined := newVarSet(nv)

	define := func(where string, v VarID) error {
		if int(v) >= nv {
			return errors.New("%v defines unknown variable %v", where, v)
		}
		if defined[v] {
			return errors.New("%v defines %v a second time", where, v)
		}
		defined[v] = true
		return nil
	}

	for _, p := range fn.Params {
		if err := define("param list", p.Var); err != nil {
			return err
		}
	}
	for _, blk := range fn.Blocks {
		for _, p := range blk.Params {
			if err := define(blk.ID.String(), p.Var); err != nil {
				return err
			}
		}
		for _, instr := range blk.Instrs {
			if err := define(blk.ID.String(), instr.DefinedVar()); err != nil {
				return err
			}
			for _, v := range instr.UsedVars() {
				if int(v) >= nv {
					return errors.New("block %v uses unknown variable %v", blk.ID, v)
				}
			}
		}
		if blk.Term != nil {
			for _, v := range blk.Term.UsedVars() {
				if int(v) >= nv {
					return errors.New("block %v terminator uses unknown variable %v", blk.ID, v)
				}
			}
		}
	}
	return nil
}

func verifyTerm(fn *Function, blk *Block) error {
	if blk.Term == nil {
		return errors.New("block %v is not terminated", blk.ID)
	}
	for _, succ := range blk.Term.Successors() {
		if int(succ) >= len(fn.Blocks) {
			return errors.New("block %v targets unknown block %v", blk.ID, succ)
		}
	}
	switch term := blk.Term.(type) {
	case Jump:
		want := len(fn.Blocks[term.Target].Params)
		if len(term.Args) != want {
			return errors.New("block %v jumps to %v with %d args, target declares %d params",
				blk.ID, term.Target, len(term.Args), want)
		}
	case Branch:
		for _, succ := range []BlockID{term.Then, term.Else} {
			if n := len(fn.Blocks[succ].Params); n != 0 {
				return errors.New("block %v branches to %v which declares %d params",
					blk.ID, succ, n)
			}
		}
	case Switch:
		for _, succ := range term.Successors() {
			if n := len(fn.Blocks[succ].Params); n != 0 {
				return errors.New("block %v switches to %v which declares %d params",
					blk.ID, succ, n)
			}
		}
	}
	return nil
}

// verifyDefsReachUses runs a forward must-reach analysis: availIn(b) is
// the set of variables defined on every path from entry to b. Non-entry
// blocks start at the full set so unreachable blocks never constrain the
// meet (and are themselves checked vacuously).
func verifyDefsReachUses(fn *Function) error {
	n := len(fn.Blocks)
	nv := fn.NumVars()

	preds := make([][]BlockID, n)
	for _, blk := range fn.Blocks {
		for _, succ := range blk.Term.Successors() {
			preds[succ] = append(preds[succ], blk.ID)
		}
	}

	availOut := make([]varSet, n)
	for i := range availOut {
		availOut[i] = newVarSet(nv)
		for v := range availOut[i] {
			availOut[i][v] = true
		}
	}

	for changed := true; changed; {
		changed = false
		for i, blk := range fn.Blocks {
			out := availIn(fn, preds, availOut, i)
			for _, p := range blk.Params {
				out[p.Var] = true
			}
			for _, instr := range blk.Instrs {
				out[instr.DefinedVar()] = true
			}
			if !out.equal(availOut[i]) {
				availOut[i] = out
				changed = true
			}
		}
	}

	for i, blk := range fn.Blocks {
		avail := availIn(fn, preds, availOut, i)
		for _, p := range blk.Params {
			avail[p.Var] = true
		}
		for _, instr := range blk.Instrs {
			for _, v := range instr.UsedVars() {
				if !avail[v] {
					return errors.New("block %v uses %v before its definition reaches it", blk.ID, v)
				}
			}
			avail[instr.DefinedVar()] = true
		}
		for _, v := range blk.Term.UsedVars() {
			if !avail[v] {
				return errors.New("block %v terminator uses %v before its definition reaches it", blk.ID, v)
			}
		}
	}
	return nil
}

// availIn meets the predecessors' avail-out sets. The entry block starts
// from the function parameters; a non-entry block without predecessors is
// unreachable and keeps the full set.
func availIn(fn *Function, preds [][]BlockID, availOut []varSet, i int) varSet {
	nv := fn.NumVars()
	in := newVarSet(nv)
	switch {
	case i == 0:
		for _, p := range fn.Params {
			in[p.Var] = true
		}
	case len(preds[i]) == 0:
		for v := range in {
			in[v] = true
		}
	default:
		copy(in, availOut[preds[i][0]])
		for _, p := range preds[i][1:] {
			in.and(availOut[p])
		}
	}
	return in
}
