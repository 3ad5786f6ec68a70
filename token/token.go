package token

import (
	"fmt"
	"strconv"
)

// Span is a half-open byte range [Lo, Hi) into the original source.
// The middle-end never re-reads source text; spans ride along on lowered
// instructions so later stages can attribute generated code.
type Span struct {
	Lo uint32
	Hi uint32
}

func NewSpan(lo, hi uint32) Span {
	return Span{Lo: lo, Hi: hi}
}

// Dummy is the span for synthesized code with no source counterpart.
func Dummy() Span {
	return Span{}
}

// Merge returns the smallest span covering both s and other.
func (s Span) Merge(other Span) Span {
	lo := s.Lo
	if other.Lo < lo {
		lo = other.Lo
	}
	hi := s.Hi
	if other.Hi > hi {
		hi = other.Hi
	}
	return Span{Lo: lo, Hi: hi}
}

func (s Span) IsDummy() bool {
	return s.Lo == 0 && s.Hi == 0
}

func (s Span) String() string {
	return strconv.Itoa(int(s.Lo)) + ".." + strconv.Itoa(int(s.Hi))
}

// CompileError records a condition an earlier pass should have rejected.
// The middle-end collects these for the driver instead of reporting to the
// user directly; user diagnostics belong to type checking.
type CompileError struct {
	Span Span
	Msg  string
}

func (ce *CompileError) Error() string {
	if ce.Span.IsDummy() {
		return ce.Msg
	}
	return fmt.Sprintf("%s: %s", ce.Span, ce.Msg)
}
