package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"lama/ast"
	"lama/errors"
	"lama/runtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       string
		left     string
		right    string
		expected string
	}{
		{"add", "+", "2", "3", "5"},
		{"subtract", "-", "2", "3", "-1"},
		{"multiply", "*", "-4", "6", "-24"},
		{"floor division", "/", "-7", "2", "-4"},
		{"floor division positive", "/", "7", "2", "3"},
		{"floor division negative divisor", "/", "7", "-2", "-4"},
		{"floor modulo", "%", "-7", "2", "1"},
		{"floor modulo negative divisor", "%", "7", "-2", "-1"},
		{"add overflow promotes", "+", "9223372036854775807", "1", "9223372036854775808"},
		{"subtract overflow promotes", "-", "-9223372036854775808", "1", "-9223372036854775809"},
		{"multiply overflow promotes", "*", "9223372036854775807", "2", "18446744073709551614"},
		{"min int division promotes", "/", "-9223372036854775808", "-1", "9223372036854775808"},
		{"big literal narrows back", "-", "9223372036854775808", "1", "9223372036854775807"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustRun(t, unit(fn("main", nil, ret(bin(tt.op, num(tt.left), num(tt.right))))))
			assert.Equal(t, tt.expected, v.String())
		})
	}
}

func TestOverflowResultIsExact(t *testing.T) {
	v := mustRun(t, unit(fn("main", nil, ret(bin("+", num("9223372036854775807"), num("1"))))))

	big, ok := v.(*runtime.BigInt)
	require.True(t, ok, "expected a bigint, got %T", v)
	assert.Equal(t, "9223372036854775808", big.Big().String())
}

func TestNarrowedResultIsInt64(t *testing.T) {
	v := mustRun(t, unit(fn("main", nil, ret(bin("-", num("9223372036854775808"), num("1"))))))
	assert.Equal(t, runtime.Int64(9223372036854775807), v)
}

func TestComparison(t *testing.T) {
	tests := []struct {
		name     string
		expr     ast.Expression
		expected bool
	}{
		{"less", bin("<", num("1"), num("2")), true},
		{"less equal", bin("<=", num("2"), num("2")), true},
		{"greater", bin(">", num("2"), num("2")), false},
		{"greater equal", bin(">=", num("2"), num("2")), true},
		{"equal", bin("==", num("3"), num("3")), true},
		{"not equal", bin("!=", num("3"), num("4")), true},
		{"bigint against int64", bin("<", num("1"), num("99999999999999999999")), true},
		{"strings", bin("<", str("abc"), str("abd")), true},
		{"string equality", bin("==", str("x"), str("x")), true},
		{"bool equality", bin("==", boolean(true), boolean(false)), false},
		{"null equality", bin("==", null(), null()), true},
		{"null against int", bin("==", null(), num("1")), false},
		{"function identity", bin("==", name("main"), name("main")), true},
		{"function against int", bin("!=", name("main"), num("1")), true},
		{"not", not(boolean(false)), true},
		{"and short circuit", bin("&&", boolean(false), call("missing")), false},
		{"or short circuit", bin("||", boolean(true), call("missing")), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := mustRun(t, unit(fn("main", nil, ret(tt.expr))))
			assert.Equal(t, runtime.BoolOf(tt.expected), v)
		})
	}
}

func TestStrings(t *testing.T) {
	v := mustRun(t, unit(fn("main", nil, ret(bin("+", str("foo"), str("bar"))))))
	assert.Equal(t, runtime.String("foobar"), v)

	v = mustRun(t, unit(fn("main", nil, ret(index(str("abc"), num("1"))))))
	assert.Equal(t, runtime.Int64('b'), v)
}

func TestTypeErrorsCarrySpan(t *testing.T) {
	plus := bin("+", num("1"), boolean(true))
	_, err := run(t, unit(fn("main", nil, ret(plus))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTypeError))

	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "+", execErr.Operator)
	assert.Equal(t, plus.Span, execErr.Span)
	assert.Equal(t, []interface{}{runtime.Int64(1), runtime.True}, execErr.Operands)

	tests := []struct {
		name string
		body ast.Statement
		op   string
	}{
		{"mismatched equality", ret(bin("==", num("1"), str("1"))), "=="},
		{"ordering bools", ret(bin("<", boolean(true), boolean(false))), "<"},
		{"not on int", ret(not(num("1"))), "!"},
		{"logical on int", ret(bin("&&", num("1"), boolean(true))), "&&"},
		{"if on int", ifElse(num("1"), ret(num("1")), nil), "if"},
		{"while on null", while(null(), brk()), "while"},
		{"call on int", expr(&ast.Call{Span: sp(), Callee: num("1")}), "call"},
		{"index int", ret(index(num("1"), num("0"))), "[]"},
		{"concat string and int", ret(bin("+", str("a"), num("1"))), "+"},
		{"greater on mixed kinds", ret(bin(">", str("a"), num("1"))), ">"},
		{"greater or equal on bools", ret(bin(">=", boolean(true), boolean(false))), ">="},
		{"inequality on mixed kinds", ret(bin("!=", num("1"), str("1"))), "!="},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, unit(fn("main", nil, tt.body)))
			require.Error(t, err)
			require.True(t, errors.Is(err, errors.ErrTypeError), "got %v", err)
			execErr, _ := errors.AsExecutionError(err)
			assert.Equal(t, tt.op, execErr.Operator)
			assert.True(t, execErr.Span.IsKnown())
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	for _, op := range []string{"/", "%"} {
		t.Run(op, func(t *testing.T) {
			div := bin(op, num("1"), num("0"))
			_, err := run(t, unit(fn("main", nil, ret(div))))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrDivisionByZero))

			execErr, _ := errors.AsExecutionError(err)
			assert.Equal(t, div.Span, execErr.Span)
		})
	}
}

func TestIndexOutOfRange(t *testing.T) {
	tests := []struct {
		name string
		expr ast.Expression
	}{
		{"past end", index(array(num("1"), num("2")), num("2"))},
		{"negative", index(array(num("1")), num("-1"))},
		{"bigint index", index(array(num("1")), num("99999999999999999999"))},
		{"string", index(str("ab"), num("5"))},
		{"write past append position", indexSet(array(), num("1"), num("1"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, unit(fn("main", nil, ret(tt.expr))))
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrIndexOutOfRange), "got %v", err)
		})
	}
}

func TestShadowing(t *testing.T) {
	t.Run("declaration inside block shadows", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("x", num("1")),
			block(decl("x", num("2")), set("x", bin("+", name("x"), num("10")))),
			ret(name("x")),
		)))
		assert.Equal(t, runtime.Int64(1), v)
	})

	t.Run("assignment inside block reuses outer slot", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("x", num("1")),
			block(set("x", num("2"))),
			ret(name("x")),
		)))
		assert.Equal(t, runtime.Int64(2), v)
	})

	t.Run("block local is gone after the block", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			block(set("y", num("5"))),
			ret(name("y")),
		)))
		f, ok := v.(*runtime.Function)
		require.True(t, ok, "expected y to resolve to a function, got %T", v)
		assert.Equal(t, "y", f.Name())
		assert.False(t, f.IsDefined())

		_, err := run(t, unit(fn("main", nil,
			block(set("y", num("5"))),
			ret(call("y")),
		)))
		assert.True(t, errors.Is(err, errors.ErrUndefinedFunction))
	})

	t.Run("slots are not reused", func(t *testing.T) {
		h := newHarness(t, "")
		p, err := h.engine.Compile(unit(fn("main", nil,
			block(set("a", num("1"))),
			block(set("a", boolean(true))),
		)))
		require.NoError(t, err)
		root, _ := p.Root("main")
		assert.Equal(t, 2, root.Descriptor().Size())
	})

	t.Run("parameter shadowed by declaration", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", []string{"p"},
			decl("p", str("inner")),
			ret(name("p")),
		)), int64(1))
		assert.Equal(t, runtime.String("inner"), v)
	})
}

func TestForwardReference(t *testing.T) {
	v := mustRun(t, unit(
		fn("main", nil, ret(call("a", num("20")))),
		fn("a", []string{"n"}, ret(call("b", name("n")))),
		fn("b", []string{"n"}, ret(bin("*", name("n"), num("2")))),
	))
	assert.Equal(t, runtime.Int64(40), v)
}

func TestBreakAndContinue(t *testing.T) {
	t.Run("break", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("x", num("0")),
			while(boolean(true), block(
				ifElse(bin("==", name("x"), num("3")), brk(), nil),
				set("x", bin("+", name("x"), num("1"))),
			)),
			ret(name("x")),
		)))
		assert.Equal(t, runtime.Int64(3), v)
	})

	t.Run("continue skips even numbers", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("i", num("0")),
			set("sum", num("0")),
			while(bin("<", name("i"), num("10")), block(
				set("i", bin("+", name("i"), num("1"))),
				ifElse(bin("==", bin("%", name("i"), num("2")), num("0")), cont(), nil),
				set("sum", bin("+", name("sum"), name("i"))),
			)),
			ret(name("sum")),
		)))
		assert.Equal(t, runtime.Int64(25), v)
	})

	t.Run("return leaves nested loops", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			while(boolean(true), while(boolean(true), ret(str("out")))),
		)))
		assert.Equal(t, runtime.String("out"), v)
	})
}

func TestStaticErrors(t *testing.T) {
	tests := []struct {
		name string
		unit *ast.Unit
		code string
	}{
		{"break outside loop", unit(fn("main", nil, brk())), errors.CodeBreakOutsideLoop},
		{"continue outside loop", unit(fn("main", nil, ifElse(boolean(true), cont(), nil))), errors.CodeContinueOutsideLoop},
		{"duplicate parameter", unit(fn("f", []string{"a", "a"})), errors.CodeDuplicateParameter},
		{"duplicate function", unit(fn("f", nil), fn("f", nil)), errors.CodeDuplicateFunction},
		{"invalid literal", unit(fn("f", nil, ret(num("12x")))), errors.CodeInvalidLiteral},
		{"unknown operator", unit(fn("f", nil, ret(bin("**", num("1"), num("2"))))), errors.CodeUnknownOperator},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecutionEngine().Compile(tt.unit)
			require.Error(t, err)
			execErr, ok := errors.AsExecutionError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, execErr.Code)
			assert.Equal(t, errors.ErrorTypeResolution, execErr.Type)
		})
	}

	_, err := NewExecutionEngine().Compile(unit(fn("main", nil, brk())))
	assert.True(t, errors.Is(err, errors.ErrBreakOutsideLoop))
}

func TestUndefinedFunction(t *testing.T) {
	c := call("g")
	_, err := run(t, unit(fn("main", nil, ret(c))))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUndefinedFunction))

	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "g", execErr.Function)
	assert.Contains(t, err.Error(), "g")
	assert.Equal(t, c.Span, execErr.Span)
}

func TestLateDefinitionReachesEarlierCallSite(t *testing.T) {
	h := newHarness(t, "")
	caller, err := h.engine.Compile(unit(fn("main", nil, ret(call("g")))))
	require.NoError(t, err)

	_, err = h.engine.Evaluate(caller)
	require.True(t, errors.Is(err, errors.ErrUndefinedFunction))

	callee, err := h.engine.Compile(&ast.Unit{Name: "callee", Functions: []*ast.FunctionDecl{
		fn("g", nil, ret(num("7"))),
	}})
	require.NoError(t, err)
	h.engine.Register(callee)

	v, err := h.engine.Evaluate(caller)
	require.NoError(t, err)
	assert.Equal(t, runtime.Int64(7), v)
}

func TestEvaluateRunsTheProgramsOwnEntry(t *testing.T) {
	h := newHarness(t, "")
	a, err := h.engine.Compile(unit(fn("main", nil, ret(num("1")))))
	require.NoError(t, err)
	b, err := h.engine.Compile(unit(fn("main", nil, ret(num("2")))))
	require.NoError(t, err)

	for _, step := range []struct {
		program  *Program
		expected runtime.Value
	}{
		{a, runtime.Int64(1)},
		{b, runtime.Int64(2)},
		{a, runtime.Int64(1)},
	} {
		v, err := h.engine.Evaluate(step.program)
		require.NoError(t, err)
		assert.Equal(t, step.expected, v)
	}

	// The name itself stays bound to the program registered last.
	v, err := h.engine.Call("main")
	require.NoError(t, err)
	assert.Equal(t, runtime.Int64(2), v)
}

func TestCallContextStopsRunningLoop(t *testing.T) {
	h := newHarness(t, "")
	p, err := h.engine.Compile(unit(
		fn("spin", nil, while(boolean(true), set("x", num("1")))),
		fn("one", nil, ret(num("1"))),
	))
	require.NoError(t, err)
	h.engine.Register(p)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = h.engine.CallContext(ctx, "spin")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCancelled))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	execErr, _ := errors.AsExecutionError(err)
	assert.True(t, execErr.Span.IsKnown())

	cancelled, cancelNow := context.WithCancel(context.Background())
	cancelNow()
	_, err = h.engine.CallContext(cancelled, "one")
	assert.True(t, errors.Is(err, context.Canceled), "a done context never starts the call")

	// The engine is free again afterwards.
	v, err := h.engine.Call("one")
	require.NoError(t, err)
	assert.Equal(t, runtime.Int64(1), v)
}

func TestRegistrationIsIdempotent(t *testing.T) {
	h := newHarness(t, "")
	p, err := h.engine.Compile(unit(fn("main", nil, ret(num("1")))))
	require.NoError(t, err)

	assert.True(t, h.engine.Register(p))
	first, ok := h.engine.Registry().Lookup("main")
	require.True(t, ok)

	assert.False(t, h.engine.Register(p))
	_, err = h.engine.Evaluate(p)
	require.NoError(t, err)
	again, _ := h.engine.Registry().Lookup("main")
	assert.Same(t, first, again)

	// An identical but separately compiled unit is a different set.
	q, err := h.engine.Compile(unit(fn("main", nil, ret(num("1")))))
	require.NoError(t, err)
	assert.True(t, h.engine.Register(q))
	replaced, _ := h.engine.Registry().Lookup("main")
	assert.NotSame(t, first, replaced)
}

func TestConcurrentEvaluateRegistersOnce(t *testing.T) {
	h := newHarness(t, "")
	p, err := h.engine.Compile(unit(fn("main", []string{"n"}, ret(bin("*", name("n"), name("n"))))))
	require.NoError(t, err)

	var wg sync.WaitGroup
	results := make([]runtime.Value, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := h.engine.Evaluate(p, i)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}
	wg.Wait()

	for i, v := range results {
		assert.Equal(t, runtime.Int64(i*i), v)
	}
	assert.True(t, h.engine.Registry().IsRegistered(p.Definitions()))
}

func TestFactorial(t *testing.T) {
	factorial := unit(
		fn("main", []string{"n"}, ret(call("fact", name("n")))),
		fn("fact", []string{"n"},
			ifElse(bin("<=", name("n"), num("1")), ret(num("1")), nil),
			ret(bin("*", name("n"), call("fact", bin("-", name("n"), num("1"))))),
		),
	)

	tests := []struct {
		n        int
		expected string
	}{
		{0, "1"},
		{5, "120"},
		{20, "2432902008176640000"},
		{25, "15511210043330985984000000"},
	}
	h := newHarness(t, "")
	p, err := h.engine.Compile(factorial)
	require.NoError(t, err)
	for _, tt := range tests {
		v, err := h.engine.Evaluate(p, tt.n)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, v.String(), "fact(%d)", tt.n)
	}
}

func TestDeterminism(t *testing.T) {
	h := newHarness(t, "")
	p, err := h.engine.Compile(unit(fn("main", []string{"a", "b"},
		ret(bin("+", name("a"), name("b"))))))
	require.NoError(t, err)

	first, err := h.engine.Evaluate(p, 40, 2)
	require.NoError(t, err)
	second, err := h.engine.Evaluate(p, 40, 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRecordsAndArrays(t *testing.T) {
	t.Run("property read and write", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("r", record(ast.Field{Key: "a", Value: num("1")})),
			expr(propSet(name("r"), "b", num("2"))),
			ret(array(prop(name("r"), "a"), prop(name("r"), "b"), prop(name("r"), "missing"))),
		)))
		assert.Equal(t, "[1, 2, null]", v.String())
	})

	t.Run("record indexed by string", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("r", call("new")),
			expr(indexSet(name("r"), str("k"), str("v"))),
			ret(index(name("r"), str("k"))),
		)))
		assert.Equal(t, runtime.String("v"), v)
	})

	t.Run("index write at length appends", func(t *testing.T) {
		v := mustRun(t, unit(fn("main", nil,
			set("a", array(num("1"))),
			expr(indexSet(name("a"), num("1"), num("2"))),
			expr(indexSet(name("a"), num("0"), num("7"))),
			ret(array(call("len", name("a")), index(name("a"), num("0")), index(name("a"), num("1")))),
		)))
		assert.Equal(t, "[2, 7, 2]", v.String())
	})

	t.Run("property on non record", func(t *testing.T) {
		_, err := run(t, unit(fn("main", nil, ret(prop(num("1"), "x")))))
		assert.True(t, errors.Is(err, errors.ErrTypeError))
	})
}

func TestBuiltins(t *testing.T) {
	h := newHarness(t, "first line\nsecond\n")
	p, err := h.engine.Compile(unit(fn("main", nil,
		expr(call("write", str("hello"))),
		expr(call("write", array(num("1"), str("x")))),
		set("a", call("read")),
		set("b", call("read")),
		set("c", call("read")),
		ret(array(name("a"), name("b"), name("c"), call("len", str("héllo")))),
	)))
	require.NoError(t, err)

	v, err := h.engine.Evaluate(p)
	require.NoError(t, err)
	assert.Equal(t, "hello\n[1, \"x\"]\n", h.out.String())
	assert.Equal(t, `["first line", "second", null, 5]`, v.String())

	_, err = h.engine.Call("len", int64(1))
	assert.True(t, errors.Is(err, errors.ErrTypeError))
	_, err = h.engine.Call("write")
	assert.True(t, errors.Is(err, errors.ErrTypeError))
}

func TestEvaluateEntry(t *testing.T) {
	h := newHarness(t, "")
	p, err := h.engine.Compile(unit(
		fn("helper", []string{"s"}, ret(bin("+", name("s"), str("!")))),
	))
	require.NoError(t, err)

	v, err := h.engine.Evaluate(p)
	require.NoError(t, err)
	assert.Same(t, runtime.Null, v)

	v, err = h.engine.EvaluateEntry(p, "helper", "hi")
	require.NoError(t, err)
	assert.Equal(t, runtime.String("hi!"), v)

	v, err = h.engine.Call("helper", "again")
	require.NoError(t, err)
	assert.Equal(t, runtime.String("again!"), v)

	_, err = h.engine.Call("nope")
	assert.True(t, errors.Is(err, errors.ErrUndefinedFunction))
}

func TestReturnValues(t *testing.T) {
	assert.Same(t, runtime.Null, mustRun(t, unit(fn("main", nil, ret(nil)))))
	assert.Same(t, runtime.Null, mustRun(t, unit(fn("main", nil, set("x", num("1"))))))
	assert.Same(t, runtime.Null, mustRun(t, unit(fn("main", []string{"missing"}, ret(name("missing"))))))
}
