package engine

import (
	"lama/ast"
	"lama/errors"
	"lama/runtime"
)

// FunctionLiteralNode yields the function bound to a name. A defined binding
// is cached once seen; while the name is undefined every execution looks it
// up again, so a call site that ran before its target was registered picks it
// up later. A name nothing defines yields an undefined placeholder, so only
// calling it fails.
type FunctionLiteralNode struct {
	nodeBase
	name     string
	registry *runtime.FunctionRegistry
	cached   *runtime.Function
}

func NewFunctionLiteralNode(ctx *Context, name string, span ast.Span) *FunctionLiteralNode {
	return &FunctionLiteralNode{
		nodeBase: nodeBase{span: span},
		name:     name,
		registry: ctx.Registry,
	}
}

func (n *FunctionLiteralNode) Execute(*runtime.Frame) (runtime.Value, error) {
	if n.cached != nil {
		return n.cached, nil
	}
	fn := n.registry.LookupOrCreateUndefined(n.name)
	if fn.IsDefined() {
		n.cached = fn
	}
	return fn, nil
}

// Name returns the referenced function name.
func (n *FunctionLiteralNode) Name() string { return n.name }

// InvokeNode calls the function its callee evaluates to. Arguments are
// evaluated left to right before the call.
type InvokeNode struct {
	nodeBase
	ctx       *Context
	callee    ExpressionNode
	arguments []ExpressionNode
}

func NewInvokeNode(ctx *Context, callee ExpressionNode, arguments []ExpressionNode, span ast.Span) *InvokeNode {
	n := &InvokeNode{
		nodeBase:  nodeBase{span: span},
		ctx:       ctx,
		callee:    callee,
		arguments: arguments,
	}
	n.addTag(TagCall)
	return n
}

func (n *InvokeNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	if err := n.ctx.checkInterrupt(); err != nil {
		return nil, errors.AttachSpan(err, n.span)
	}
	calleeValue, err := n.callee.Execute(f)
	if err != nil {
		return nil, err
	}
	fn, ok := calleeValue.(*runtime.Function)
	if !ok {
		return nil, errors.NewTypeError("call", n.span, calleeValue)
	}

	args := make([]runtime.Value, len(n.arguments))
	for i, arg := range n.arguments {
		if args[i], err = arg.Execute(f); err != nil {
			return nil, err
		}
	}

	v, err := fn.Call(args)
	if err != nil {
		return nil, errors.AttachSpan(err, n.span)
	}
	return v, nil
}

// RootNode is the compiled body of one function and the Callable stored in
// the registry. Every call gets a fresh frame laid out by descriptor; the
// prologue copies arguments into the parameter slots.
type RootNode struct {
	nodeBase
	name       string
	params     []string
	descriptor *runtime.FrameDescriptor
	prologue   []*WriteLocalNode
	body       *BlockNode
}

func newRootNode(name string, params []string, descriptor *runtime.FrameDescriptor, prologue []*WriteLocalNode, body *BlockNode, span ast.Span) *RootNode {
	n := &RootNode{
		nodeBase:   nodeBase{span: span},
		name:       name,
		params:     params,
		descriptor: descriptor,
		prologue:   prologue,
		body:       body,
	}
	n.addTag(TagRoot)
	return n
}

// Call implements runtime.Callable.
func (n *RootNode) Call(args []runtime.Value) (runtime.Value, error) {
	v, _, err := n.Invoke(args)
	return v, err
}

// Invoke runs the function and also hands back the finished frame for
// inspection. Falling off the end of the body returns null.
func (n *RootNode) Invoke(args []runtime.Value) (runtime.Value, *runtime.Frame, error) {
	f := runtime.NewFrame(n.descriptor, args)
	for _, write := range n.prologue {
		if _, err := write.Execute(f); err != nil {
			return nil, f, err
		}
	}

	c, err := n.body.Run(f)
	if err != nil {
		return nil, f, err
	}
	if c.Kind == CompletionReturn {
		return c.Value, f, nil
	}
	return runtime.Null, f, nil
}

func (n *RootNode) Name() string { return n.name }

// Params returns the formal parameter names.
func (n *RootNode) Params() []string { return n.params }

// Descriptor returns the frame layout shared by all calls.
func (n *RootNode) Descriptor() *runtime.FrameDescriptor { return n.descriptor }

// Body returns the function body.
func (n *RootNode) Body() *BlockNode { return n.body }
