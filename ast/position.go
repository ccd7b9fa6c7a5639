package ast

import "fmt"

// Span is the (start offset, length) range a node covers in the source text.
type Span struct {
	Start  int `json:"start" yaml:"start"`
	Length int `json:"length" yaml:"length"`
}

// NoSpan marks nodes that were synthesized and have no source range.
var NoSpan = Span{Start: -1}

// NewSpan returns the span [start, start+length).
func NewSpan(start, length int) Span {
	return Span{Start: start, Length: length}
}

// Between returns the smallest span covering both a and b.
func Between(a, b Span) Span {
	if !a.IsKnown() {
		return b
	}
	if !b.IsKnown() {
		return a
	}
	start := a.Start
	if b.Start < start {
		start = b.Start
	}
	end := a.End()
	if b.End() > end {
		end = b.End()
	}
	return Span{Start: start, Length: end - start}
}

// End returns the offset one past the last character of the span.
func (s Span) End() int {
	return s.Start + s.Length
}

// IsKnown reports whether the span points into real source text.
func (s Span) IsKnown() bool {
	return s.Start >= 0
}

// NodeSpan makes every node that embeds a Span satisfy Node.
func (s Span) NodeSpan() Span {
	return s
}

func (s Span) String() string {
	if !s.IsKnown() {
		return "<unknown>"
	}
	return fmt.Sprintf("%d+%d", s.Start, s.Length)
}
