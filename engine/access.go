package engine

import (
	"lama/ast"
	"lama/errors"
	"lama/runtime"
)

const indexOp = "[]"

// IndexNode is receiver[index]: an array element, the character code of a
// string position, or a record member by string key.
type IndexNode struct {
	nodeBase
	specializer[operands]
	receiver, index ExpressionNode
}

func NewIndexNode(ctx *Context, span ast.Span, receiver, index ExpressionNode) *IndexNode {
	n := &IndexNode{
		nodeBase: nodeBase{span: span},
		receiver: receiver,
		index:    index,
	}
	n.specializer = newSpecializer(ctx, indexOp, span,
		specialization[operands]{name: "array", guard: arrayIndexed, execute: readArray},
		specialization[operands]{name: "string", guard: stringIndexed, execute: readString},
		specialization[operands]{name: "record", guard: recordKeyed, execute: readRecord},
		specialization[operands]{
			name: "generic",
			execute: func(in operands) (runtime.Value, error) {
				switch {
				case arrayIndexed(in):
					return readArray(in)
				case stringIndexed(in):
					return readString(in)
				case recordKeyed(in):
					return readRecord(in)
				}
				return nil, indexFailure(span, in)
			},
		},
	)
	return n
}

func (n *IndexNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	recv, err := n.receiver.Execute(f)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.Execute(f)
	if err != nil {
		return nil, err
	}
	v, err := n.execute(operands{recv, idx})
	if err != nil {
		return nil, errors.AttachSpan(err, n.span)
	}
	return v, nil
}

func arrayIndexed(in operands) bool {
	_, a := in.left.(*runtime.Array)
	_, i := in.right.(runtime.Int64)
	return a && i
}

func stringIndexed(in operands) bool {
	_, s := in.left.(runtime.String)
	_, i := in.right.(runtime.Int64)
	return s && i
}

func recordKeyed(in operands) bool {
	_, r := in.left.(*runtime.Record)
	_, k := in.right.(runtime.String)
	return r && k
}

func readArray(in operands) (runtime.Value, error) {
	arr := in.left.(*runtime.Array)
	i := in.right.(runtime.Int64)
	v, ok := arr.Get(int64(i))
	if !ok {
		return nil, errors.NewIndexOutOfRangeError(i, arr.Len())
	}
	return v, nil
}

func readString(in operands) (runtime.Value, error) {
	chars := []rune(string(in.left.(runtime.String)))
	i := in.right.(runtime.Int64)
	if i < 0 || int64(i) >= int64(len(chars)) {
		return nil, errors.NewIndexOutOfRangeError(i, len(chars))
	}
	return runtime.Int64(chars[i]), nil
}

func readRecord(in operands) (runtime.Value, error) {
	if v, ok := in.left.(*runtime.Record).Get(string(in.right.(runtime.String))); ok {
		return v, nil
	}
	return runtime.Null, nil
}

// indexFailure distinguishes a bigint index, which is merely out of range,
// from receiver or key kinds that cannot be indexed at all.
func indexFailure(span ast.Span, in operands) error {
	if _, big := in.right.(*runtime.BigInt); big {
		switch recv := in.left.(type) {
		case *runtime.Array:
			return errors.NewIndexOutOfRangeError(in.right, recv.Len())
		case runtime.String:
			return errors.NewIndexOutOfRangeError(in.right, len([]rune(string(recv))))
		}
	}
	return errors.NewTypeError(indexOp, span, in.left, in.right)
}

type indexWrite struct {
	receiver, index, value runtime.Value
}

// IndexAssignNode is receiver[index] = value and yields value. Writing one
// past the end of an array appends.
type IndexAssignNode struct {
	nodeBase
	specializer[indexWrite]
	receiver, index, value ExpressionNode
}

func NewIndexAssignNode(ctx *Context, span ast.Span, receiver, index, value ExpressionNode) *IndexAssignNode {
	n := &IndexAssignNode{
		nodeBase: nodeBase{span: span},
		receiver: receiver,
		index:    index,
		value:    value,
	}
	arrayGuard := func(in indexWrite) bool { return arrayIndexed(operands{in.receiver, in.index}) }
	recordGuard := func(in indexWrite) bool { return recordKeyed(operands{in.receiver, in.index}) }
	n.specializer = newSpecializer(ctx, indexOp+"=", span,
		specialization[indexWrite]{name: "array", guard: arrayGuard, execute: writeArray},
		specialization[indexWrite]{name: "record", guard: recordGuard, execute: writeRecord},
		specialization[indexWrite]{
			name: "generic",
			execute: func(in indexWrite) (runtime.Value, error) {
				switch {
				case arrayGuard(in):
					return writeArray(in)
				case recordGuard(in):
					return writeRecord(in)
				}
				if arr, isArray := in.receiver.(*runtime.Array); isArray {
					if _, big := in.index.(*runtime.BigInt); big {
						return nil, errors.NewIndexOutOfRangeError(in.index, arr.Len())
					}
				}
				return nil, errors.NewTypeError(indexOp+"=", span, in.receiver, in.index, in.value)
			},
		},
	)
	return n
}

func (n *IndexAssignNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	recv, err := n.receiver.Execute(f)
	if err != nil {
		return nil, err
	}
	idx, err := n.index.Execute(f)
	if err != nil {
		return nil, err
	}
	v, err := n.value.Execute(f)
	if err != nil {
		return nil, err
	}
	out, err := n.execute(indexWrite{recv, idx, v})
	if err != nil {
		return nil, errors.AttachSpan(err, n.span)
	}
	return out, nil
}

func writeArray(in indexWrite) (runtime.Value, error) {
	arr := in.receiver.(*runtime.Array)
	i := in.index.(runtime.Int64)
	if !arr.Set(int64(i), in.value) {
		return nil, errors.NewIndexOutOfRangeError(i, arr.Len())
	}
	return in.value, nil
}

func writeRecord(in indexWrite) (runtime.Value, error) {
	in.receiver.(*runtime.Record).Put(string(in.index.(runtime.String)), in.value)
	return in.value, nil
}

// PropertyNode is receiver.name; an absent member reads as null.
type PropertyNode struct {
	nodeBase
	specializer[runtime.Value]
	receiver ExpressionNode
	name     string
}

func NewPropertyNode(ctx *Context, span ast.Span, receiver ExpressionNode, name string) *PropertyNode {
	n := &PropertyNode{
		nodeBase: nodeBase{span: span},
		receiver: receiver,
		name:     name,
	}
	op := "." + name
	read := func(v runtime.Value) (runtime.Value, error) {
		if member, ok := v.(*runtime.Record).Get(name); ok {
			return member, nil
		}
		return runtime.Null, nil
	}
	n.specializer = newSpecializer(ctx, op, span,
		specialization[runtime.Value]{name: "record", guard: isRecord, execute: read},
		specialization[runtime.Value]{
			name: "generic",
			execute: func(v runtime.Value) (runtime.Value, error) {
				if isRecord(v) {
					return read(v)
				}
				return nil, errors.NewTypeError(op, span, v)
			},
		},
	)
	return n
}

func isRecord(v runtime.Value) bool {
	_, ok := v.(*runtime.Record)
	return ok
}

func (n *PropertyNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	recv, err := n.receiver.Execute(f)
	if err != nil {
		return nil, err
	}
	return n.execute(recv)
}

// PropertyAssignNode is receiver.name = value and yields value.
type PropertyAssignNode struct {
	nodeBase
	specializer[operands]
	receiver, value ExpressionNode
	name            string
}

func NewPropertyAssignNode(ctx *Context, span ast.Span, receiver ExpressionNode, name string, value ExpressionNode) *PropertyAssignNode {
	n := &PropertyAssignNode{
		nodeBase: nodeBase{span: span},
		receiver: receiver,
		value:    value,
		name:     name,
	}
	op := "." + name + "="
	write := func(in operands) (runtime.Value, error) {
		in.left.(*runtime.Record).Put(name, in.right)
		return in.right, nil
	}
	n.specializer = newSpecializer(ctx, op, span,
		specialization[operands]{
			name:    "record",
			guard:   func(in operands) bool { return isRecord(in.left) },
			execute: write,
		},
		specialization[operands]{
			name: "generic",
			execute: func(in operands) (runtime.Value, error) {
				if isRecord(in.left) {
					return write(in)
				}
				return nil, errors.NewTypeError(op, span, in.left, in.right)
			},
		},
	)
	return n
}

func (n *PropertyAssignNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	recv, err := n.receiver.Execute(f)
	if err != nil {
		return nil, err
	}
	v, err := n.value.Execute(f)
	if err != nil {
		return nil, err
	}
	return n.execute(operands{recv, v})
}
