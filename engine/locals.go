package engine

import (
	"lama/ast"
	"lama/runtime"
)

// ReadLocalNode reads one frame slot. It keeps reading unboxed while the slot
// holds an unboxed payload and falls back to boxed reads for good otherwise.
type ReadLocalNode struct {
	nodeBase
	specializer[*runtime.Frame]
	name string
	slot int
}

func NewReadLocalNode(ctx *Context, name string, slot int, span ast.Span) *ReadLocalNode {
	n := &ReadLocalNode{
		nodeBase: nodeBase{span: span},
		name:     name,
		slot:     slot,
	}
	n.specializer = newSpecializer(ctx, "read "+name, span,
		specialization[*runtime.Frame]{
			name:  "int64",
			guard: func(f *runtime.Frame) bool { return f.IsInt64(n.slot) },
			execute: func(f *runtime.Frame) (runtime.Value, error) {
				return runtime.Int64(f.ReadInt64(n.slot)), nil
			},
		},
		specialization[*runtime.Frame]{
			name:  "bool",
			guard: func(f *runtime.Frame) bool { return f.IsBool(n.slot) },
			execute: func(f *runtime.Frame) (runtime.Value, error) {
				return runtime.BoolOf(f.ReadBool(n.slot)), nil
			},
		},
		specialization[*runtime.Frame]{
			name: "generic",
			execute: func(f *runtime.Frame) (runtime.Value, error) {
				return f.Read(n.slot), nil
			},
		},
	)
	return n
}

func (n *ReadLocalNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	return n.execute(f)
}

// Name returns the variable name the slot was allocated for.
func (n *ReadLocalNode) Name() string { return n.name }

// Slot returns the frame slot index.
func (n *ReadLocalNode) Slot() int { return n.slot }

type localWrite struct {
	frame *runtime.Frame
	value runtime.Value
}

// WriteLocalNode stores a value into a slot and yields it. The int64 and bool
// strategies require the slot kind to match or still be uninitialized; any
// other combination settles the node on the generic write, which boxes the
// slot when the kinds disagree.
type WriteLocalNode struct {
	nodeBase
	specializer[localWrite]
	name  string
	slot  int
	value ExpressionNode
}

func NewWriteLocalNode(ctx *Context, name string, slot int, value ExpressionNode, span ast.Span) *WriteLocalNode {
	n := &WriteLocalNode{
		nodeBase: nodeBase{span: span},
		name:     name,
		slot:     slot,
		value:    value,
	}
	n.specializer = newSpecializer(ctx, "write "+name, span,
		specialization[localWrite]{
			name: "int64",
			guard: func(in localWrite) bool {
				_, ok := in.value.(runtime.Int64)
				return ok && kindAccepts(in.frame.Kind(n.slot), runtime.SlotInt64)
			},
			execute: func(in localWrite) (runtime.Value, error) {
				if !in.frame.WriteInt64(n.slot, int64(in.value.(runtime.Int64))) {
					return nil, errRewrite
				}
				return in.value, nil
			},
		},
		specialization[localWrite]{
			name: "bool",
			guard: func(in localWrite) bool {
				_, ok := in.value.(runtime.Bool)
				return ok && kindAccepts(in.frame.Kind(n.slot), runtime.SlotBool)
			},
			execute: func(in localWrite) (runtime.Value, error) {
				if !in.frame.WriteBool(n.slot, bool(in.value.(runtime.Bool))) {
					return nil, errRewrite
				}
				return in.value, nil
			},
		},
		specialization[localWrite]{
			name: "generic",
			execute: func(in localWrite) (runtime.Value, error) {
				in.frame.Write(n.slot, in.value)
				return in.value, nil
			},
		},
	)
	return n
}

func kindAccepts(current, want runtime.SlotKind) bool {
	return current == want || current == runtime.SlotUninitialized
}

func (n *WriteLocalNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	v, err := n.value.Execute(f)
	if err != nil {
		return nil, err
	}
	return n.execute(localWrite{frame: f, value: v})
}

// Name returns the variable name the slot was allocated for.
func (n *WriteLocalNode) Name() string { return n.name }

// Slot returns the frame slot index.
func (n *WriteLocalNode) Slot() int { return n.slot }

// ReadArgumentNode reads argument index of the current call; missing
// arguments read as null. Function prologues copy arguments into parameter
// slots with it.
type ReadArgumentNode struct {
	nodeBase
	index int
}

func NewReadArgumentNode(index int, span ast.Span) *ReadArgumentNode {
	return &ReadArgumentNode{nodeBase: nodeBase{span: span}, index: index}
}

func (n *ReadArgumentNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	return f.Argument(n.index), nil
}
