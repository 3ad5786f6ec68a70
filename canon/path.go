package canon

import (
	"strconv"
	"strings"
)

// PathOp is one projection step kind used to address a sub-value of a
// match scrutinee.
type PathOp int

const (
	// PathTagPayload selects payload slot Index of an enum value. Payload
	// slots start after the discriminant, so slot i lives at field i+1.
	PathTagPayload PathOp = iota
	// PathTupleIndex selects tuple element Index.
	PathTupleIndex
	// PathStructField selects the struct field at resolved position Index.
	PathStructField
	// PathListElement selects list element Index.
	PathListElement
	// PathListRest selects the list tail starting at element Index.
	PathListRest
)

type PathInstruction struct {
	Op    PathOp
	Index int
}

func TagPayload(i int) PathInstruction  { return PathInstruction{Op: PathTagPayload, Index: i} }
func TupleIndex(i int) PathInstruction  { return PathInstruction{Op: PathTupleIndex, Index: i} }
func StructField(i int) PathInstruction { return PathInstruction{Op: PathStructField, Index: i} }
func ListElement(i int) PathInstruction { return PathInstruction{Op: PathListElement, Index: i} }
func ListRest(i int) PathInstruction    { return PathInstruction{Op: PathListRest, Index: i} }

func (pi PathInstruction) String() string {
	switch pi.Op {
	case PathTagPayload:
		return "payload(" + strconv.Itoa(pi.Index) + ")"
	case PathTupleIndex:
		return "tuple(" + strconv.Itoa(pi.Index) + ")"
	case PathStructField:
		return "field(" + strconv.Itoa(pi.Index) + ")"
	case PathListElement:
		return "elem(" + strconv.Itoa(pi.Index) + ")"
	case PathListRest:
		return "rest(" + strconv.Itoa(pi.Index) + ")"
	}
	return "path(" + strconv.Itoa(int(pi.Op)) + "," + strconv.Itoa(pi.Index) + ")"
}

// ScrutineePath addresses a sub-value reachable from the root scrutinee by
// a sequence of projections. The empty path is the root itself. A step is
// only resolvable once an enclosing test has proven the shape it assumes.
type ScrutineePath []PathInstruction

// Extend returns a new path with step appended. The receiver is never
// mutated; paths are shared across pattern rows during specialization.
func (p ScrutineePath) Extend(step PathInstruction) ScrutineePath {
	child := make(ScrutineePath, len(p), len(p)+1)
	copy(child, p)
	return append(child, step)
}

func (p ScrutineePath) String() string {
	if len(p) == 0 {
		return "root"
	}
	parts := make([]string, len(p))
	for i, step := range p {
		parts[i] = step.String()
	}
	return "root." + strings.Join(parts, ".")
}
