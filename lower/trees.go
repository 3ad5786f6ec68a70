package lower

import (
	"github.com/thiremani/ceres/canon"
)

// treeFor returns the decision tree for a match node, compiling it on
// first use. Trees are immutable once built; repeated emission call
// sites share the pointer rather than recompiling or deep-copying.
func (l *Lowerer) treeFor(m *canon.Match) canon.DecisionTree {
	if tree, ok := l.trees[m]; ok {
		return tree
	}
	tree := compileArms(m.Arms)
	l.trees[m] = tree
	return tree
}

// compileArms flattens the arms into a single-column matrix over the
// root scrutinee and compiles it.
func compileArms(arms []canon.MatchArm) canon.DecisionTree {
	matrix := make(canon.PatternMatrix, len(arms))
	for i, arm := range arms {
		matrix[i] = canon.PatternRow{
			Patterns: []canon.FlatPattern{arm.Pattern},
			ArmIndex: i,
			Guard:    arm.Guard,
		}
	}
	return CompileMatrix(matrix, []canon.ScrutineePath{nil})
}
