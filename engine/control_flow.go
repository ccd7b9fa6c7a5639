package engine

import (
	"lama/ast"
	"lama/errors"
	"lama/runtime"
)

// BlockNode runs its statements in order. Its value is the value of the last
// statement, or null for an empty block.
type BlockNode struct {
	nodeBase
	statements []StatementNode
	listener   StatementListener
}

func NewBlockNode(ctx *Context, statements []StatementNode, span ast.Span) *BlockNode {
	n := &BlockNode{
		nodeBase:   nodeBase{span: span},
		statements: statements,
	}
	if ctx != nil {
		n.listener = ctx.Listener
	}
	return n
}

func (n *BlockNode) Run(f *runtime.Frame) (Completion, error) {
	var last runtime.Value = runtime.Null
	for _, s := range n.statements {
		if n.listener != nil && s.HasTag(TagStatement) {
			n.listener(s, f)
		}
		c, err := s.Run(f)
		if err != nil {
			return Completion{}, err
		}
		if c.Kind != CompletionNormal {
			return c, nil
		}
		last = c.Value
	}
	return normal(last), nil
}

// Statements returns the children in execution order.
func (n *BlockNode) Statements() []StatementNode { return n.statements }

// ExpressionStatementNode runs an expression as a statement.
type ExpressionStatementNode struct {
	nodeBase
	expression ExpressionNode
}

func NewExpressionStatementNode(expression ExpressionNode, span ast.Span) *ExpressionStatementNode {
	return &ExpressionStatementNode{
		nodeBase:   nodeBase{span: span},
		expression: expression,
	}
}

func (n *ExpressionStatementNode) Run(f *runtime.Frame) (Completion, error) {
	v, err := n.expression.Execute(f)
	if err != nil {
		return Completion{}, err
	}
	return normal(v), nil
}

// Expression returns the wrapped expression.
func (n *ExpressionStatementNode) Expression() ExpressionNode { return n.expression }

// evalCondition requires a boolean; op names the construct in type errors.
func evalCondition(f *runtime.Frame, cond ExpressionNode, op string, span ast.Span) (bool, error) {
	v, err := cond.Execute(f)
	if err != nil {
		return false, err
	}
	b, ok := v.(runtime.Bool)
	if !ok {
		return false, errors.NewTypeError(op, span, v)
	}
	return bool(b), nil
}

// IfNode runs exactly one branch; without an else branch a false condition
// yields null.
type IfNode struct {
	nodeBase
	condition  ExpressionNode
	thenBranch StatementNode
	elseBranch StatementNode
}

func NewIfNode(condition ExpressionNode, thenBranch, elseBranch StatementNode, span ast.Span) *IfNode {
	return &IfNode{
		nodeBase:   nodeBase{span: span},
		condition:  condition,
		thenBranch: thenBranch,
		elseBranch: elseBranch,
	}
}

func (n *IfNode) Run(f *runtime.Frame) (Completion, error) {
	holds, err := evalCondition(f, n.condition, "if", n.span)
	if err != nil {
		return Completion{}, err
	}
	if holds {
		return n.thenBranch.Run(f)
	}
	if n.elseBranch != nil {
		return n.elseBranch.Run(f)
	}
	return normal(runtime.Null), nil
}

// WhileNode loops while its condition holds. break leaves the loop, continue
// goes back to the condition, return passes through to the function.
type WhileNode struct {
	nodeBase
	ctx        *Context
	condition  ExpressionNode
	body       StatementNode
	iterations uint64
}

func NewWhileNode(ctx *Context, condition ExpressionNode, body StatementNode, span ast.Span) *WhileNode {
	return &WhileNode{
		nodeBase:  nodeBase{span: span},
		ctx:       ctx,
		condition: condition,
		body:      body,
	}
}

func (n *WhileNode) Run(f *runtime.Frame) (Completion, error) {
	for {
		holds, err := evalCondition(f, n.condition, "while", n.span)
		if err != nil {
			return Completion{}, err
		}
		if !holds {
			return normal(runtime.Null), nil
		}
		n.iterations++

		c, err := n.body.Run(f)
		if err != nil {
			return Completion{}, err
		}
		switch c.Kind {
		case CompletionBreak:
			return normal(runtime.Null), nil
		case CompletionReturn:
			return c, nil
		}
		if err := n.ctx.checkInterrupt(); err != nil {
			return Completion{}, errors.AttachSpan(err, n.span)
		}
	}
}

// Iterations counts loop bodies entered over the node's lifetime.
func (n *WhileNode) Iterations() uint64 { return n.iterations }

type BreakNode struct {
	nodeBase
}

func NewBreakNode(span ast.Span) *BreakNode {
	return &BreakNode{nodeBase: nodeBase{span: span}}
}

func (n *BreakNode) Run(*runtime.Frame) (Completion, error) {
	return completionBreak, nil
}

type ContinueNode struct {
	nodeBase
}

func NewContinueNode(span ast.Span) *ContinueNode {
	return &ContinueNode{nodeBase: nodeBase{span: span}}
}

func (n *ContinueNode) Run(*runtime.Frame) (Completion, error) {
	return completionContinue, nil
}

// ReturnNode leaves the function; a missing value returns null.
type ReturnNode struct {
	nodeBase
	value ExpressionNode
}

func NewReturnNode(value ExpressionNode, span ast.Span) *ReturnNode {
	return &ReturnNode{nodeBase: nodeBase{span: span}, value: value}
}

func (n *ReturnNode) Run(f *runtime.Frame) (Completion, error) {
	var v runtime.Value = runtime.Null
	if n.value != nil {
		var err error
		if v, err = n.value.Execute(f); err != nil {
			return Completion{}, err
		}
	}
	return Completion{Kind: CompletionReturn, Value: v}, nil
}
