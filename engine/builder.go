package engine

import (
	"fmt"

	"lama/ast"
	"lama/errors"
	"lama/runtime"
	"lama/shared"
)

// nodeBuilder turns the declaration of one function into an executable tree,
// assigning frame slots as it walks.
type nodeBuilder struct {
	ctx   *Context
	scope *shared.FunctionScope
}

// BuildFunction resolves decl and returns its root node. Static problems such
// as a break outside any loop are reported here, before anything runs.
func BuildFunction(ctx *Context, decl *ast.FunctionDecl) (*RootNode, error) {
	b := &nodeBuilder{
		ctx:   ctx,
		scope: shared.NewFunctionScope(decl.Name),
	}

	params := make([]string, len(decl.Params))
	prologue := make([]*WriteLocalNode, len(decl.Params))
	for i, p := range decl.Params {
		if _, taken := b.scope.Resolve(p.Name); taken {
			return nil, errors.NewResolutionError(errors.CodeDuplicateParameter,
				fmt.Sprintf("duplicate parameter %q in function %s", p.Name, decl.Name), p.Span).
				WithContext("function", decl.Name)
		}
		slot := b.scope.Declare(p.Name)
		params[i] = p.Name
		prologue[i] = NewWriteLocalNode(ctx, p.Name, slot, NewReadArgumentNode(i, p.Span), p.Span)
	}

	body := decl.Body
	if body == nil {
		body = &ast.Block{Span: decl.Span}
	}
	block, err := b.block(body)
	if err != nil {
		return nil, err
	}
	return newRootNode(decl.Name, params, b.scope.Descriptor(), prologue, block, decl.Span), nil
}

func (b *nodeBuilder) block(blk *ast.Block) (*BlockNode, error) {
	b.scope.EnterScope()
	defer b.scope.ExitScope()

	statements := make([]StatementNode, 0, len(blk.Statements))
	for _, s := range blk.Statements {
		node, err := b.statement(s)
		if err != nil {
			return nil, err
		}
		statements = append(statements, node)
	}
	return NewBlockNode(b.ctx, statements, blk.Span), nil
}

func (b *nodeBuilder) statement(s ast.Statement) (StatementNode, error) {
	node, err := b.buildStatement(s)
	if err != nil {
		return nil, err
	}
	node.addTag(TagStatement)
	return node, nil
}

func (b *nodeBuilder) buildStatement(s ast.Statement) (StatementNode, error) {
	switch s := s.(type) {
	case *ast.Block:
		return b.block(s)

	case *ast.ExpressionStatement:
		e, err := b.expression(s.Expression)
		if err != nil {
			return nil, err
		}
		return NewExpressionStatementNode(e, s.Span), nil

	case *ast.VarDecl:
		var value ExpressionNode = NewLiteralNode(runtime.Null, s.Span)
		if s.Value != nil {
			var err error
			if value, err = b.expression(s.Value); err != nil {
				return nil, err
			}
		}
		slot := b.scope.Declare(s.Name)
		return NewExpressionStatementNode(NewWriteLocalNode(b.ctx, s.Name, slot, value, s.Span), s.Span), nil

	case *ast.If:
		cond, err := b.expression(s.Condition)
		if err != nil {
			return nil, err
		}
		then, err := b.statement(s.Then)
		if err != nil {
			return nil, err
		}
		var otherwise StatementNode
		if s.Else != nil {
			if otherwise, err = b.statement(s.Else); err != nil {
				return nil, err
			}
		}
		return NewIfNode(cond, then, otherwise, s.Span), nil

	case *ast.While:
		cond, err := b.expression(s.Condition)
		if err != nil {
			return nil, err
		}
		b.scope.EnterLoop()
		body, err := b.statement(s.Body)
		b.scope.ExitLoop()
		if err != nil {
			return nil, err
		}
		return NewWhileNode(b.ctx, cond, body, s.Span), nil

	case *ast.Break:
		if !b.scope.InLoop() {
			return nil, errors.NewResolutionError(errors.CodeBreakOutsideLoop,
				"break outside of a loop in function "+b.scope.Name(), s.Span)
		}
		return NewBreakNode(s.Span), nil

	case *ast.Continue:
		if !b.scope.InLoop() {
			return nil, errors.NewResolutionError(errors.CodeContinueOutsideLoop,
				"continue outside of a loop in function "+b.scope.Name(), s.Span)
		}
		return NewContinueNode(s.Span), nil

	case *ast.Return:
		var value ExpressionNode
		if s.Value != nil {
			var err error
			if value, err = b.expression(s.Value); err != nil {
				return nil, err
			}
		}
		return NewReturnNode(value, s.Span), nil

	case nil:
		return nil, errors.NewResolutionError(errors.CodeUnknownNode, "missing statement", ast.NoSpan)
	}
	return nil, errors.NewResolutionError(errors.CodeUnknownNode,
		fmt.Sprintf("unsupported statement %T", s), s.NodeSpan())
}

func (b *nodeBuilder) expressions(list []ast.Expression) ([]ExpressionNode, error) {
	out := make([]ExpressionNode, len(list))
	for i, e := range list {
		node, err := b.expression(e)
		if err != nil {
			return nil, err
		}
		out[i] = node
	}
	return out, nil
}

func (b *nodeBuilder) expression(e ast.Expression) (ExpressionNode, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		v, err := runtime.ParseIntLiteral(e.Text)
		if err != nil {
			return nil, errors.NewResolutionError(errors.CodeInvalidLiteral, err.Error(), e.Span)
		}
		return NewLiteralNode(v, e.Span), nil

	case *ast.StringLiteral:
		return NewLiteralNode(runtime.String(e.Value), e.Span), nil

	case *ast.BoolLiteral:
		return NewLiteralNode(runtime.BoolOf(e.Value), e.Span), nil

	case *ast.NullLiteral:
		return NewLiteralNode(runtime.Null, e.Span), nil

	case *ast.Name:
		if slot, ok := b.scope.Resolve(e.Name); ok {
			return NewReadLocalNode(b.ctx, e.Name, slot, e.Span), nil
		}
		return NewFunctionLiteralNode(b.ctx, e.Name, e.Span), nil

	case *ast.Assign:
		value, err := b.expression(e.Value)
		if err != nil {
			return nil, err
		}
		slot := b.scope.Bind(e.Name)
		return NewWriteLocalNode(b.ctx, e.Name, slot, value, e.Span), nil

	case *ast.Binary:
		return b.binary(e)

	case *ast.Not:
		operand, err := b.expression(e.Operand)
		if err != nil {
			return nil, err
		}
		return NewNotNode(b.ctx, "!", e.Span, operand), nil

	case *ast.Call:
		callee, err := b.expression(e.Callee)
		if err != nil {
			return nil, err
		}
		args, err := b.expressions(e.Args)
		if err != nil {
			return nil, err
		}
		return NewInvokeNode(b.ctx, callee, args, e.Span), nil

	case *ast.Index:
		recv, err := b.expression(e.Receiver)
		if err != nil {
			return nil, err
		}
		idx, err := b.expression(e.Index)
		if err != nil {
			return nil, err
		}
		return NewIndexNode(b.ctx, e.Span, recv, idx), nil

	case *ast.IndexAssign:
		parts, err := b.expressions([]ast.Expression{e.Receiver, e.Index, e.Value})
		if err != nil {
			return nil, err
		}
		return NewIndexAssignNode(b.ctx, e.Span, parts[0], parts[1], parts[2]), nil

	case *ast.Property:
		recv, err := b.expression(e.Receiver)
		if err != nil {
			return nil, err
		}
		return NewPropertyNode(b.ctx, e.Span, recv, e.Name), nil

	case *ast.PropertyAssign:
		parts, err := b.expressions([]ast.Expression{e.Receiver, e.Value})
		if err != nil {
			return nil, err
		}
		return NewPropertyAssignNode(b.ctx, e.Span, parts[0], e.Name, parts[1]), nil

	case *ast.ArrayLiteral:
		elements, err := b.expressions(e.Elements)
		if err != nil {
			return nil, err
		}
		return NewArrayLiteralNode(elements, e.Span), nil

	case *ast.RecordLiteral:
		keys := make([]string, len(e.Fields))
		values := make([]ast.Expression, len(e.Fields))
		for i, field := range e.Fields {
			keys[i], values[i] = field.Key, field.Value
		}
		nodes, err := b.expressions(values)
		if err != nil {
			return nil, err
		}
		return NewRecordLiteralNode(keys, nodes, e.Span), nil

	case nil:
		return nil, errors.NewResolutionError(errors.CodeUnknownNode, "missing expression", ast.NoSpan)
	}
	return nil, errors.NewResolutionError(errors.CodeUnknownNode,
		fmt.Sprintf("unsupported expression %T", e), e.NodeSpan())
}

// binary maps the surface operators onto node families. > and >= are the
// negations of <= and <, != the negation of ==.
func (b *nodeBuilder) binary(e *ast.Binary) (ExpressionNode, error) {
	left, err := b.expression(e.Left)
	if err != nil {
		return nil, err
	}
	right, err := b.expression(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case "+", "-", "*", "/", "%":
		return NewArithmeticNode(b.ctx, e.Op, e.Span, left, right), nil
	case "<", "<=", "==":
		return NewCompareNode(b.ctx, e.Op, e.Span, left, right), nil
	case ">":
		return NewNotNode(b.ctx, e.Op, e.Span, newCompareNode(b.ctx, "<=", e.Op, e.Span, left, right)), nil
	case ">=":
		return NewNotNode(b.ctx, e.Op, e.Span, newCompareNode(b.ctx, "<", e.Op, e.Span, left, right)), nil
	case "!=":
		return NewNotNode(b.ctx, e.Op, e.Span, newCompareNode(b.ctx, "==", e.Op, e.Span, left, right)), nil
	case "&&", "||":
		return NewLogicalNode(e.Op, e.Span, left, right), nil
	}
	return nil, errors.NewResolutionError(errors.CodeUnknownOperator,
		fmt.Sprintf("unknown operator %q", e.Op), e.Span).WithContext("operator", e.Op)
}
