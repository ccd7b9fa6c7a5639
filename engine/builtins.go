package engine

import (
	"fmt"
	"io"
	"strings"

	"lama/ast"
	"lama/errors"
	"lama/runtime"
	"lama/shared"
)

// Builtin is a host-implemented function body. Builtins are installed
// through the registry exactly like compiled functions.
type Builtin struct {
	name  string
	arity int
	fn    func(args []runtime.Value) (runtime.Value, error)
}

// Call implements runtime.Callable.
func (b *Builtin) Call(args []runtime.Value) (runtime.Value, error) {
	if b.arity >= 0 && len(args) != b.arity {
		return nil, errors.NewTypeError(b.name, ast.NoSpan, argumentValues(args)...).
			WithContext("expected_arguments", b.arity).
			WithContext("actual_arguments", len(args))
	}
	return b.fn(args)
}

func (b *Builtin) Name() string { return b.name }

func argumentValues(args []runtime.Value) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		out[i] = a
	}
	return out
}

// builtinDefinitions returns the definition set of write, read, new and len
// bound to ctx's streams.
func builtinDefinitions(ctx *Context) *runtime.DefinitionSet {
	builtins := []*Builtin{
		{name: "write", arity: 1, fn: func(args []runtime.Value) (runtime.Value, error) {
			return builtinWrite(ctx.Output, args[0])
		}},
		{name: "read", arity: 0, fn: func([]runtime.Value) (runtime.Value, error) {
			return builtinRead(ctx)
		}},
		{name: "new", arity: 0, fn: func([]runtime.Value) (runtime.Value, error) {
			return runtime.NewRecord(), nil
		}},
		{name: "len", arity: 1, fn: builtinLen},
	}

	defs := make(map[string]runtime.Callable, len(builtins))
	for _, b := range builtins {
		defs[b.name] = b
	}
	return runtime.NewDefinitionSet(defs)
}

func builtinWrite(out io.Writer, v runtime.Value) (runtime.Value, error) {
	if out == nil {
		return v, nil
	}
	if _, err := fmt.Fprintln(out, shared.FormatValueForDisplay(v)); err != nil {
		return nil, errors.WrapError(err, "OUTPUT_FAILED", "write failed")
	}
	return v, nil
}

func builtinRead(ctx *Context) (runtime.Value, error) {
	if ctx.Input == nil {
		return runtime.Null, nil
	}
	line, err := ctx.Input.ReadString('\n')
	if err == io.EOF && line == "" {
		return runtime.Null, nil
	}
	if err != nil && err != io.EOF {
		return nil, errors.WrapError(err, "INPUT_FAILED", "read failed")
	}
	return runtime.String(strings.TrimRight(line, "\r\n")), nil
}

func builtinLen(args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case *runtime.Array:
		return runtime.Int64(v.Len()), nil
	case *runtime.Record:
		return runtime.Int64(v.Len()), nil
	case runtime.String:
		return runtime.Int64(len([]rune(string(v)))), nil
	}
	return nil, errors.NewTypeError("len", ast.NoSpan, args[0])
}
