package engine

import (
	"math"
	"math/big"

	"lama/ast"
	"lama/errors"
	"lama/runtime"
)

// ArithmeticNode is a binary + - * / or %.
type ArithmeticNode struct {
	nodeBase
	specializer[operands]
	left, right ExpressionNode
}

type bigOp func(a, b *big.Int) (runtime.Value, error)

func (n *ArithmeticNode) Execute(f *runtime.Frame) (runtime.Value, error) {
	l, err := n.left.Execute(f)
	if err != nil {
		return nil, err
	}
	r, err := n.right.Execute(f)
	if err != nil {
		return nil, err
	}
	v, err := n.execute(operands{l, r})
	if err != nil {
		return nil, errors.AttachSpan(err, n.span)
	}
	return v, nil
}

// NewArithmeticNode returns the node for op, or nil for an unknown operator.
func NewArithmeticNode(ctx *Context, op string, span ast.Span, left, right ExpressionNode) *ArithmeticNode {
	var fast func(a, b int64) (int64, bool)
	var slow bigOp
	switch op {
	case "+":
		fast, slow = addInt64, bigArith((*big.Int).Add)
	case "-":
		fast, slow = subInt64, bigArith((*big.Int).Sub)
	case "*":
		fast, slow = mulInt64, bigArith((*big.Int).Mul)
	case "/":
		fast, slow = runtime.FloorDiv, bigDivision(op, runtime.BigFloorDiv)
	case "%":
		fast, slow = runtime.FloorMod, bigDivision(op, runtime.BigFloorMod)
	default:
		return nil
	}

	n := &ArithmeticNode{
		nodeBase: nodeBase{span: span},
		left:     left,
		right:    right,
	}

	specs := []specialization[operands]{
		{
			name:  "int64",
			guard: bothInt64,
			execute: func(in operands) (runtime.Value, error) {
				v, ok := fast(int64(in.left.(runtime.Int64)), int64(in.right.(runtime.Int64)))
				if !ok {
					return nil, errRewrite
				}
				return runtime.Int64(v), nil
			},
		},
		{
			name:  "bigint",
			guard: bothNumbers,
			execute: func(in operands) (runtime.Value, error) {
				a, _ := runtime.ToBig(in.left)
				b, _ := runtime.ToBig(in.right)
				return slow(a, b)
			},
		},
	}
	if op == "+" {
		specs = append(specs, specialization[operands]{
			name:    "string",
			guard:   bothStrings,
			execute: concat,
		})
	}
	specs = append(specs, specialization[operands]{
		name: "generic",
		execute: func(in operands) (runtime.Value, error) {
			switch {
			case bothInt64(in):
				if v, ok := fast(int64(in.left.(runtime.Int64)), int64(in.right.(runtime.Int64))); ok {
					return runtime.Int64(v), nil
				}
				fallthrough
			case bothNumbers(in):
				a, _ := runtime.ToBig(in.left)
				b, _ := runtime.ToBig(in.right)
				return slow(a, b)
			case op == "+" && bothStrings(in):
				return concat(in)
			}
			return nil, errors.NewTypeError(op, span, in.left, in.right)
		},
	})

	n.specializer = newSpecializer(ctx, op, span, specs...)
	return n
}

func concat(in operands) (runtime.Value, error) {
	return in.left.(runtime.String) + in.right.(runtime.String), nil
}

func bigArith(apply func(z, a, b *big.Int) *big.Int) bigOp {
	return func(a, b *big.Int) (runtime.Value, error) {
		return runtime.Normalize(apply(new(big.Int), a, b)), nil
	}
}

func bigDivision(op string, apply func(a, b *big.Int) *big.Int) bigOp {
	return func(a, b *big.Int) (runtime.Value, error) {
		if b.Sign() == 0 {
			return nil, errors.NewDivisionByZeroError(op)
		}
		return runtime.Normalize(apply(a, b)), nil
	}
}

func addInt64(a, b int64) (int64, bool) {
	c := a + b
	return c, (a^c)&(b^c) >= 0
}

func subInt64(a, b int64) (int64, bool) {
	c := a - b
	return c, (a^b)&(a^c) >= 0
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	return c, c/b == a
}
