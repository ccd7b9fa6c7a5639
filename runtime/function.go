package runtime

import (
	"lama/errors"
)

// Callable is an executable function body: a compiled root node or a builtin.
type Callable interface {
	Call(args []Value) (Value, error)
}

// Function is a first-class reference to a named function. A Function whose
// body is nil is an undefined placeholder; calling it is the only way the
// undefined-function failure is raised.
type Function struct {
	name string
	body Callable
}

// NewDefinedFunction binds name to body.
func NewDefinedFunction(name string, body Callable) *Function {
	return &Function{name: name, body: body}
}

// NewUndefinedFunction returns a placeholder for a name nothing defines yet.
func NewUndefinedFunction(name string) *Function {
	return &Function{name: name}
}

func (*Function) Kind() Kind { return KindFunction }

func (f *Function) Name() string { return f.name }

func (f *Function) String() string { return f.name }

// IsDefined reports whether the function has a body.
func (f *Function) IsDefined() bool { return f.body != nil }

// Body returns the callable behind a defined function, or nil.
func (f *Function) Body() Callable { return f.body }

// Call runs the body with a fresh activation.
func (f *Function) Call(args []Value) (Value, error) {
	if f.body == nil {
		return nil, errors.NewUndefinedFunctionError(f.name)
	}
	return f.body.Call(args)
}
