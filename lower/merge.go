package lower

import (
	"github.com/thiremani/ceres/ir"
	"github.com/thiremani/ceres/types"
)

// rebinding pairs a mutable name that diverged across branches with the
// merge block parameter now carrying its value. Callers append jump
// arguments and rebind names post-merge in slice order.
type rebinding struct {
	name  string
	param ir.VarID
}

// mergeMutableVars adds one parameter on merge per mutable binding whose
// variable differs from its pre-branch variable in any branch scope.
// Bindings no branch reassigned get no parameter, so parameter count
// scales with actual divergence. Names come out in sorted order; jump
// argument order depends on it.
func mergeMutableVars(b *ir.Builder, merge ir.BlockID, pre *Scope, branches []*Scope, varTypes map[string]types.Type) []rebinding {
	var rebindings []rebinding
	for _, mb := range pre.MutableBindings() {
		diverged := false
		for _, branch := range branches {
			if v, ok := branch.Lookup(mb.Name); ok && v != mb.Var {
				diverged = true
				break
			}
		}
		if !diverged {
			continue
		}

		ty, ok := varTypes[mb.Name]
		if !ok {
			ty = types.UnitType
		}
		rebindings = append(rebindings, rebinding{
			name:  mb.Name,
			param: b.AddBlockParam(merge, ty),
		})
	}
	return rebindings
}
