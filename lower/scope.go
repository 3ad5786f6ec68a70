package lower

import (
	"cmp"
	"maps"
	"slices"

	"github.com/thiremani/ceres/ir"
)

// Scope maps source names to the variables currently carrying their
// values. Assignment never mutates a variable: it binds the name to a
// fresh one, so a scope snapshot is just a copy of the maps.
//
// Branch lowering clones the scope per arm and diffs the clones against
// the pre-branch scope to decide which names need merge parameters.
type Scope struct {
	vars    map[string]ir.VarID
	mutable map[string]struct{}
}

func NewScope() *Scope {
	return &Scope{
		vars:    make(map[string]ir.VarID),
		mutable: make(map[string]struct{}),
	}
}

func (s *Scope) Clone() *Scope {
	return &Scope{
		vars:    maps.Clone(s.vars),
		mutable: maps.Clone(s.mutable),
	}
}

// Bind introduces or shadows name as an immutable binding. Shadowing a
// mutable name drops its mutability: the new binding is a different
// variable that assignments may not touch.
func (s *Scope) Bind(name string, v ir.VarID) {
	s.vars[name] = v
	delete(s.mutable, name)
}

// BindMutable introduces name as assignable, or rebinds an already
// mutable name to its next version.
func (s *Scope) BindMutable(name string, v ir.VarID) {
	s.vars[name] = v
	s.mutable[name] = struct{}{}
}

func (s *Scope) Lookup(name string) (ir.VarID, bool) {
	v, ok := s.vars[name]
	return v, ok
}

func (s *Scope) IsMutable(name string) bool {
	_, ok := s.mutable[name]
	return ok
}

// MutableBinding pairs a mutable name with its current variable.
type MutableBinding struct {
	Name string
	Var  ir.VarID
}

// MutableBindings lists the mutable bindings sorted by name. Loop headers
// thread these as block parameters, and the order fixes the parameter
// order, so it must be deterministic.
func (s *Scope) MutableBindings() []MutableBinding {
	out := make([]MutableBinding, 0, len(s.mutable))
	for name := range s.mutable {
		out = append(out, MutableBinding{Name: name, Var: s.vars[name]})
	}
	slices.SortFunc(out, func(a, b MutableBinding) int {
		return cmp.Compare(a.Name, b.Name)
	})
	return out
}
