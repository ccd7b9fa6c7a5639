package engine

import (
	"bytes"
	"strings"
	"testing"

	"lama/ast"
	"lama/runtime"

	"github.com/stretchr/testify/require"
)

// pos hands out increasing spans so errors can be traced to the node that
// raised them.
var pos int

func sp() ast.Span {
	pos += 10
	return ast.NewSpan(pos, 5)
}

func num(text string) *ast.IntLiteral     { return &ast.IntLiteral{Span: sp(), Text: text} }
func str(s string) *ast.StringLiteral     { return &ast.StringLiteral{Span: sp(), Value: s} }
func boolean(b bool) *ast.BoolLiteral     { return &ast.BoolLiteral{Span: sp(), Value: b} }
func null() *ast.NullLiteral              { return &ast.NullLiteral{Span: sp()} }
func name(n string) *ast.Name             { return &ast.Name{Span: sp(), Name: n} }
func not(e ast.Expression) *ast.Not       { return &ast.Not{Span: sp(), Operand: e} }
func brk() *ast.Break                     { return &ast.Break{Span: sp()} }
func cont() *ast.Continue                 { return &ast.Continue{Span: sp()} }
func block(s ...ast.Statement) *ast.Block { return &ast.Block{Span: sp(), Statements: s} }

func bin(op string, l, r ast.Expression) *ast.Binary {
	return &ast.Binary{Span: sp(), Op: op, Left: l, Right: r}
}

func assign(n string, v ast.Expression) *ast.Assign {
	return &ast.Assign{Span: sp(), Name: n, Value: v}
}

func call(callee string, args ...ast.Expression) *ast.Call {
	return &ast.Call{Span: sp(), Callee: name(callee), Args: args}
}

func index(recv, idx ast.Expression) *ast.Index {
	return &ast.Index{Span: sp(), Receiver: recv, Index: idx}
}

func indexSet(recv, idx, v ast.Expression) *ast.IndexAssign {
	return &ast.IndexAssign{Span: sp(), Receiver: recv, Index: idx, Value: v}
}

func prop(recv ast.Expression, n string) *ast.Property {
	return &ast.Property{Span: sp(), Receiver: recv, Name: n}
}

func propSet(recv ast.Expression, n string, v ast.Expression) *ast.PropertyAssign {
	return &ast.PropertyAssign{Span: sp(), Receiver: recv, Name: n, Value: v}
}

func array(elements ...ast.Expression) *ast.ArrayLiteral {
	return &ast.ArrayLiteral{Span: sp(), Elements: elements}
}

func record(fields ...ast.Field) *ast.RecordLiteral {
	return &ast.RecordLiteral{Span: sp(), Fields: fields}
}

func expr(e ast.Expression) *ast.ExpressionStatement {
	return &ast.ExpressionStatement{Span: sp(), Expression: e}
}

func set(n string, v ast.Expression) *ast.ExpressionStatement { return expr(assign(n, v)) }

func decl(n string, v ast.Expression) *ast.VarDecl {
	return &ast.VarDecl{Span: sp(), Name: n, Value: v}
}

func ret(v ast.Expression) *ast.Return { return &ast.Return{Span: sp(), Value: v} }

func ifElse(cond ast.Expression, then, otherwise ast.Statement) *ast.If {
	return &ast.If{Span: sp(), Condition: cond, Then: then, Else: otherwise}
}

func while(cond ast.Expression, body ast.Statement) *ast.While {
	return &ast.While{Span: sp(), Condition: cond, Body: body}
}

func fn(n string, params []string, body ...ast.Statement) *ast.FunctionDecl {
	ps := make([]ast.Param, len(params))
	for i, p := range params {
		ps[i] = ast.Param{Span: sp(), Name: p}
	}
	return &ast.FunctionDecl{Span: sp(), Name: n, Params: ps, Body: block(body...)}
}

func unit(fns ...*ast.FunctionDecl) *ast.Unit {
	return &ast.Unit{Name: "test", Functions: fns}
}

type harness struct {
	engine *ExecutionEngine
	out    *bytes.Buffer
}

func newHarness(t *testing.T, input string) *harness {
	t.Helper()
	out := &bytes.Buffer{}
	e := NewExecutionEngineWithConfig(ExecutionEngineConfig{
		Output: out,
		Input:  strings.NewReader(input),
	})
	return &harness{engine: e, out: out}
}

// run compiles u and evaluates its main function.
func run(t *testing.T, u *ast.Unit, args ...interface{}) (runtime.Value, error) {
	t.Helper()
	h := newHarness(t, "")
	p, err := h.engine.Compile(u)
	require.NoError(t, err)
	return h.engine.Evaluate(p, args...)
}

func mustRun(t *testing.T, u *ast.Unit, args ...interface{}) runtime.Value {
	t.Helper()
	v, err := run(t, u, args...)
	require.NoError(t, err)
	return v
}
