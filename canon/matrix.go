package canon

// PatternRow is one arm's remaining patterns during match compilation.
// Specialization consumes columns and accumulates the bindings those
// columns carried; ArmIndex survives so the leaf knows which body to run.
type PatternRow struct {
	Patterns []FlatPattern
	ArmIndex int
	Guard    Expr // nil when the arm is unguarded
	Bindings []Binding
}

// PatternMatrix is the ordered set of rows still in play. Row order is arm
// priority: earlier rows win overlaps.
type PatternMatrix []PatternRow
