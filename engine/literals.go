package engine

import (
	"lama/ast"
	"lama/runtime"
)

// LiteralNode yields a constant. Integer literals that do not fit in 64 bits
// hold a BigInt.
type LiteralNode struct {
	nodeBase
	value runtime.Value
}

func NewLiteralNode(value runtime.Value, span ast.Span) *LiteralNode {
	return &LiteralNode{nodeBase: nodeBase{span: span}, value: value}
}

func (n *LiteralNode) Execute(*runtime.Frame) (runtime.Value, error) {
	return n.value, nil
}

// Value returns the constant.
func (n *LiteralNode) Value() runtime.Value { return n.value }

// ArrayLiteralNode builds a fresh array on every execution.
type ArrayLiteralNode struct {
	nodeBase
	elements []ExpressionNode
}

func NewArrayLiteralNode(elements []ExpressionNode, span ast.Span) *ArrayLiteralNode {
	return &ArrayLiteralNode{nodeBase: nodeBase{span: span}, elements: elements}
}

func (n *ArrayLiteralNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	values := make([]runtime.Value, len(n.elements))
	for i, e := range n.elements {
		v, err := e.Execute(f)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return runtime.NewArray(values...), nil
}

// RecordLiteralNode builds a fresh record; members keep source order.
type RecordLiteralNode struct {
	nodeBase
	keys   []string
	values []ExpressionNode
}

func NewRecordLiteralNode(keys []string, values []ExpressionNode, span ast.Span) *RecordLiteralNode {
	return &RecordLiteralNode{nodeBase: nodeBase{span: span}, keys: keys, values: values}
}

func (n *RecordLiteralNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	rec := runtime.NewRecord()
	for i, key := range n.keys {
		v, err := n.values[i].Execute(f)
		if err != nil {
			return nil, err
		}
		rec.Put(key, v)
	}
	return rec, nil
}
