// Package engine builds executable node trees from parsed units and runs
// them. Operator nodes specialize themselves to the operand kinds they
// observe; see specializer.
package engine

import (
	"lama/ast"
	"lama/runtime"
)

// Tag marks nodes for observers such as statement tracing.
type Tag uint8

const (
	TagStatement Tag = 1 << iota
	TagCall
	TagRoot
)

// Node is any element of an executable tree.
type Node interface {
	Span() ast.Span
	HasTag(tag Tag) bool
	addTag(tag Tag)
}

// ExpressionNode produces a value.
type ExpressionNode interface {
	Node
	Execute(f *runtime.Frame) (runtime.Value, error)
}

// StatementNode runs for effect and reports how control leaves it.
type StatementNode interface {
	Node
	Run(f *runtime.Frame) (Completion, error)
}

type nodeBase struct {
	span ast.Span
	tags Tag
}

func (n *nodeBase) Span() ast.Span { return n.span }

func (n *nodeBase) HasTag(tag Tag) bool { return n.tags&tag != 0 }

func (n *nodeBase) addTag(tag Tag) { n.tags |= tag }

// CompletionKind says how a statement finished.
type CompletionKind uint8

const (
	CompletionNormal CompletionKind = iota
	CompletionBreak
	CompletionContinue
	CompletionReturn
)

func (k CompletionKind) String() string {
	switch k {
	case CompletionNormal:
		return "normal"
	case CompletionBreak:
		return "break"
	case CompletionContinue:
		return "continue"
	case CompletionReturn:
		return "return"
	default:
		return "unknown"
	}
}

// Completion is the result of running a statement. Value is the statement's
// value for CompletionNormal and the returned value for CompletionReturn.
type Completion struct {
	Kind  CompletionKind
	Value runtime.Value
}

var (
	completionBreak    = Completion{Kind: CompletionBreak}
	completionContinue = Completion{Kind: CompletionContinue}
)

func normal(v runtime.Value) Completion {
	return Completion{Kind: CompletionNormal, Value: v}
}
