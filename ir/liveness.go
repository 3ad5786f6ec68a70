package ir

// varSet is a dense variable set sized to the function's variable count.
type varSet []bool

func newVarSet(n int) varSet {
	return make(varSet, n)
}

// or adds every member of other, reporting whether s grew.
func (s varSet) or(other varSet) bool {
	changed := false
	for i, b := range other {
		if b && !s[i] {
			s[i] = true
			changed = true
		}
	}
	return changed
}

// and drops members absent from other.
func (s varSet) and(other varSet) {
	for i := range s {
		s[i] = s[i] && other[i]
	}
}

func (s varSet) equal(other varSet) bool {
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// LiveSets is the result of Liveness: per block, which variables are live
// entering it, live leaving it, and referenced inside it.
type LiveSets struct {
	in   []varSet
	out  []varSet
	used []varSet
}

func (l *LiveSets) LiveIn(b BlockID, v VarID) bool {
	return l.in[b][v]
}

func (l *LiveSets) LiveOut(b BlockID, v VarID) bool {
	return l.out[b][v]
}

// LiveAnywhere reports whether v matters to block b at all: live on entry,
// referenced inside, or live on exit. A block parameter failing this for
// its own block is a dead phi slot.
func (l *LiveSets) LiveAnywhere(b BlockID, v VarID) bool {
	return l.in[b][v] || l.used[b][v] || l.out[b][v]
}

// Liveness computes per-block live-variable sets for a sealed function by
// backward fixpoint. Jump arguments count as uses in the jumping block;
// the receiving block's parameters count as definitions there.
func Liveness(fn *Function) *LiveSets {
	n := len(fn.Blocks)
	nv := fn.NumVars()

	l := &LiveSets{
		in:   make([]varSet, n),
		out:  make([]varSet, n),
		used: make([]varSet, n),
	}
	def := make([]varSet, n)
	upUse := make([]varSet, n)

	for i, blk := range fn.Blocks {
		l.in[i] = newVarSet(nv)
		l.out[i] = newVarSet(nv)
		l.used[i] = newVarSet(nv)
		def[i] = newVarSet(nv)
		upUse[i] = newVarSet(nv)

		if i == 0 {
			for _, p := range fn.Params {
				def[i][p.Var] = true
			}
		}
		for _, p := range blk.Params {
			def[i][p.Var] = true
		}

		record := func(vars []VarID) {
			for _, v := range vars {
				l.used[i][v] = true
				if !def[i][v] {
					upUse[i][v] = true
				}
			}
		}
		for _, instr := range blk.Instrs {
			record(instr.UsedVars())
			def[i][instr.DefinedVar()] = true
		}
		record(blk.Term.UsedVars())
	}

	for changed := true; changed; {
		changed = false
		for i := n - 1; i >= 0; i-- {
			out := l.out[i]
			for _, succ := range fn.Blocks[i].Term.Successors() {
				if out.or(l.in[succ]) {
					changed = true
				}
			}
			in := l.in[i]
			for v := range in {
				if in[v] {
					continue
				}
				if upUse[i][v] || (out[v] && !def[i][v]) {
					in[v] = true
					changed = true
				}
			}
		}
	}

	return l
}
