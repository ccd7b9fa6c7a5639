package engine

import (
	"strings"

	"lama/ast"
	"lama/errors"
	"lama/runtime"
)

// CompareNode is < <= or ==. The parser-facing operators > >= and != are
// built as a NotNode over <= < and == respectively.
type CompareNode struct {
	nodeBase
	specializer[operands]
	left, right ExpressionNode
}

func (n *CompareNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	l, err := n.left.Execute(f)
	if err != nil {
		return nil, err
	}
	r, err := n.right.Execute(f)
	if err != nil {
		return nil, err
	}
	return n.execute(operands{l, r})
}

// NewCompareNode returns the node for op, or nil for an unknown operator.
func NewCompareNode(ctx *Context, op string, span ast.Span, left, right ExpressionNode) *CompareNode {
	return newCompareNode(ctx, op, op, span, left, right)
}

// newCompareNode builds the node for op but reports errors and transitions
// under label, the operator as written in the source.
func newCompareNode(ctx *Context, op, label string, span ast.Span, left, right ExpressionNode) *CompareNode {
	n := &CompareNode{
		nodeBase: nodeBase{span: span},
		left:     left,
		right:    right,
	}

	var specs []specialization[operands]
	switch op {
	case "<", "<=":
		orEqual := op == "<="
		holds := func(cmp int) runtime.Value {
			return runtime.BoolOf(cmp < 0 || (orEqual && cmp == 0))
		}
		order := func(in operands) (runtime.Value, error) {
			switch {
			case bothInt64(in):
				return holds(compareInt64(in)), nil
			case bothNumbers(in):
				return holds(compareBig(in)), nil
			case bothStrings(in):
				return holds(strings.Compare(string(in.left.(runtime.String)), string(in.right.(runtime.String)))), nil
			}
			return nil, errors.NewTypeError(label, span, in.left, in.right)
		}
		specs = []specialization[operands]{
			{name: "int64", guard: bothInt64, execute: func(in operands) (runtime.Value, error) {
				return holds(compareInt64(in)), nil
			}},
			{name: "bigint", guard: bothNumbers, execute: func(in operands) (runtime.Value, error) {
				return holds(compareBig(in)), nil
			}},
			{name: "string", guard: bothStrings, execute: func(in operands) (runtime.Value, error) {
				return holds(strings.Compare(string(in.left.(runtime.String)), string(in.right.(runtime.String)))), nil
			}},
			{name: "generic", execute: order},
		}
	case "==":
		specs = []specialization[operands]{
			{name: "int64", guard: bothInt64, execute: func(in operands) (runtime.Value, error) {
				return runtime.BoolOf(in.left.(runtime.Int64) == in.right.(runtime.Int64)), nil
			}},
			{name: "bool", guard: bothBools, execute: func(in operands) (runtime.Value, error) {
				return runtime.BoolOf(in.left.(runtime.Bool) == in.right.(runtime.Bool)), nil
			}},
			{name: "string", guard: bothStrings, execute: func(in operands) (runtime.Value, error) {
				return runtime.BoolOf(in.left.(runtime.String) == in.right.(runtime.String)), nil
			}},
			{name: "generic", execute: func(in operands) (runtime.Value, error) {
				eq, ok := runtime.Equal(in.left, in.right)
				if !ok {
					return nil, errors.NewTypeError(label, span, in.left, in.right)
				}
				return runtime.BoolOf(eq), nil
			}},
		}
	default:
		return nil
	}

	n.specializer = newSpecializer(ctx, label, span, specs...)
	return n
}

func compareInt64(in operands) int {
	l, r := in.left.(runtime.Int64), in.right.(runtime.Int64)
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func compareBig(in operands) int {
	l, _ := runtime.ToBig(in.left)
	r, _ := runtime.ToBig(in.right)
	return l.Cmp(r)
}

// NotNode is logical negation, defined for booleans only.
type NotNode struct {
	nodeBase
	specializer[runtime.Value]
	operand ExpressionNode
}

func NewNotNode(ctx *Context, op string, span ast.Span, operand ExpressionNode) *NotNode {
	n := &NotNode{
		nodeBase: nodeBase{span: span},
		operand:  operand,
	}
	n.specializer = newSpecializer(ctx, op, span,
		specialization[runtime.Value]{
			name: "bool",
			guard: func(v runtime.Value) bool {
				_, ok := v.(runtime.Bool)
				return ok
			},
			execute: func(v runtime.Value) (runtime.Value, error) {
				return runtime.BoolOf(!bool(v.(runtime.Bool))), nil
			},
		},
		specialization[runtime.Value]{
			name: "generic",
			execute: func(v runtime.Value) (runtime.Value, error) {
				if b, ok := v.(runtime.Bool); ok {
					return runtime.BoolOf(!bool(b)), nil
				}
				return nil, errors.NewTypeError(op, span, v)
			},
		},
	)
	return n
}

func (n *NotNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	v, err := n.operand.Execute(f)
	if err != nil {
		return nil, err
	}
	return n.execute(v)
}

// LogicalNode is a short-circuit && or ||. Both operands must be booleans;
// the right one is evaluated only when the left does not decide the result.
type LogicalNode struct {
	nodeBase
	op          string
	isAnd       bool
	left, right ExpressionNode
}

func NewLogicalNode(op string, span ast.Span, left, right ExpressionNode) *LogicalNode {
	return &LogicalNode{
		nodeBase: nodeBase{span: span},
		op:       op,
		isAnd:    op == "&&",
		left:     left,
		right:    right,
	}
}

func (n *LogicalNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	l, err := n.left.Execute(f)
	if err != nil {
		return nil, err
	}
	lb, ok := l.(runtime.Bool)
	if !ok {
		return nil, errors.NewTypeError(n.op, n.span, l)
	}
	if bool(lb) != n.isAnd {
		return lb, nil
	}
	r, err := n.right.Execute(f)
	if err != nil {
		return nil, err
	}
	if _, ok := r.(runtime.Bool); !ok {
		return nil, errors.NewTypeError(n.op, n.span, l, r)
	}
	return r, nil
}
