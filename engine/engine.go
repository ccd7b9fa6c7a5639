package engine

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"reflect"
	"sync"
	"time"

	"lama/ast"
	"lama/errors"
	"lama/logging"
	"lama/runtime"
)

// DefaultEntryFunction is invoked by Evaluate unless configured otherwise.
const DefaultEntryFunction = "main"

// ExecutionEngineConfig contains configuration for the execution engine
type ExecutionEngineConfig struct {
	Registry        *runtime.FunctionRegistry // Optional: a fresh registry is created when nil
	Logger          logging.Logger            // Optional: defaults to a no-op logger
	EntryFunction   string                    // Function Evaluate invokes; DefaultEntryFunction when empty
	Output          io.Writer                 // Target of write(); os.Stdout when nil
	Input           io.Reader                 // Source of read(); os.Stdin when nil
	TraceStatements bool                      // Log every statement before it runs
	Converters      []runtime.ForeignConverter
}

// ExecutionEngine compiles units and runs their functions. Evaluations are
// serialized: node trees cache specialization state and are not safe to run
// from two goroutines at once.
type ExecutionEngine struct {
	mu       sync.Mutex
	ctx      *Context
	logger   logging.Logger
	entry    string
	builtins *runtime.DefinitionSet
}

// Program is a compiled unit. Its definition set is created once, so
// registering the same Program any number of times applies it once.
type Program struct {
	name        string
	order       []string
	roots       map[string]*RootNode
	definitions *runtime.DefinitionSet
}

func (p *Program) Name() string { return p.name }

// Functions returns the defined names in source order.
func (p *Program) Functions() []string {
	out := make([]string, len(p.order))
	copy(out, p.order)
	return out
}

// Root returns the compiled body of name.
func (p *Program) Root(name string) (*RootNode, bool) {
	root, ok := p.roots[name]
	return root, ok
}

// Definitions returns the definition set the program registers.
func (p *Program) Definitions() *runtime.DefinitionSet { return p.definitions }

// NewExecutionEngine creates an engine with default configuration
func NewExecutionEngine() *ExecutionEngine {
	return NewExecutionEngineWithConfig(ExecutionEngineConfig{})
}

// NewExecutionEngineWithConfig creates a new execution engine with configuration
func NewExecutionEngineWithConfig(config ExecutionEngineConfig) *ExecutionEngine {
	logger := config.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	registry := config.Registry
	if registry == nil {
		registry = runtime.NewFunctionRegistry(logger)
	}
	entry := config.EntryFunction
	if entry == "" {
		entry = DefaultEntryFunction
	}
	output := config.Output
	if output == nil {
		output = os.Stdout
	}
	input := config.Input
	if input == nil {
		input = os.Stdin
	}

	e := &ExecutionEngine{
		logger: logger.WithComponent("engine"),
		entry:  entry,
	}
	e.ctx = &Context{
		Registry:   registry,
		Logger:     logger.WithComponent("specializer"),
		Output:     output,
		Input:      bufio.NewReader(input),
		Converters: config.Converters,
	}
	if config.TraceStatements {
		e.ctx.Listener = e.traceStatement
	}

	e.builtins = builtinDefinitions(e.ctx)
	registry.Register(e.builtins)
	return e
}

func (e *ExecutionEngine) traceStatement(node Node, f *runtime.Frame) {
	e.logger.Debug("statement",
		logging.StringField("node", reflect.TypeOf(node).Elem().Name()),
		logging.StringField("span", node.Span().String()),
		logging.IntField("slots", f.Descriptor().Size()))
}

// Registry returns the registry functions are installed in.
func (e *ExecutionEngine) Registry() *runtime.FunctionRegistry { return e.ctx.Registry }

// EntryFunction returns the name Evaluate invokes.
func (e *ExecutionEngine) EntryFunction() string { return e.entry }

// Compile builds the node trees of every function in unit. Nothing is
// registered yet; see Register and Evaluate.
func (e *ExecutionEngine) Compile(unit *ast.Unit) (*Program, error) {
	if unit == nil {
		return nil, errors.NewValidationError("NIL_UNIT", "cannot compile a nil unit")
	}

	p := &Program{
		name:  unit.Name,
		roots: make(map[string]*RootNode, len(unit.Functions)),
	}
	defs := make(map[string]runtime.Callable, len(unit.Functions))
	for _, decl := range unit.Functions {
		if _, dup := p.roots[decl.Name]; dup {
			return nil, errors.NewResolutionError(errors.CodeDuplicateFunction,
				fmt.Sprintf("function %s defined twice in unit %s", decl.Name, unit.Name), decl.Span).
				WithContext("function", decl.Name)
		}
		root, err := BuildFunction(e.ctx, decl)
		if err != nil {
			return nil, err
		}
		p.roots[decl.Name] = root
		p.order = append(p.order, decl.Name)
		defs[decl.Name] = root
	}
	p.definitions = runtime.NewDefinitionSet(defs)

	e.logger.Debug("compiled unit",
		logging.StringField("unit", unit.Name),
		logging.IntField("functions", len(p.order)))
	return p, nil
}

// Register installs the program's functions. It reports false when this
// program was registered before, in which case nothing changes.
func (e *ExecutionEngine) Register(p *Program) bool {
	applied := e.ctx.Registry.Register(p.definitions)
	e.logger.Debug("register unit",
		logging.StringField("unit", p.name),
		logging.Uint64Field("set", uint64(p.definitions.ID())),
		logging.BoolField("applied", applied))
	return applied
}

// Evaluate registers p and invokes the configured entry function.
func (e *ExecutionEngine) Evaluate(p *Program, args ...interface{}) (runtime.Value, error) {
	return e.EvaluateEntry(p, e.entry, args...)
}

// EvaluateEntry registers p (at most once) and calls p's own entry function
// with args converted to runtime values. The call goes to the root compiled
// from p even when another program has since rebound the name. A program
// that does not define entry evaluates to null.
func (e *ExecutionEngine) EvaluateEntry(p *Program, entry string, args ...interface{}) (runtime.Value, error) {
	return e.EvaluateEntryContext(context.Background(), p, entry, args...)
}

// EvaluateEntryContext is EvaluateEntry stopping with a cancelled error once
// ctx is done.
func (e *ExecutionEngine) EvaluateEntryContext(ctx context.Context, p *Program, entry string, args ...interface{}) (runtime.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Register(p)
	root, defined := p.roots[entry]
	if !defined {
		e.logger.Debug("entry function not defined",
			logging.StringField("unit", p.name),
			logging.StringField("entry", entry))
		return runtime.Null, nil
	}
	return e.invoke(ctx, entry, root, args)
}

// Call invokes whatever name is currently bound to. An unknown name fails
// with an undefined function error.
func (e *ExecutionEngine) Call(name string, args ...interface{}) (runtime.Value, error) {
	return e.CallContext(context.Background(), name, args...)
}

// CallContext is Call stopping with a cancelled error once ctx is done.
// Running loops notice on their next iteration, calls on entry.
func (e *ExecutionEngine) CallContext(ctx context.Context, name string, args ...interface{}) (runtime.Value, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.invoke(ctx, name, e.ctx.Registry.LookupOrCreateUndefined(name), args)
}

func (e *ExecutionEngine) invoke(ctx context.Context, name string, fn runtime.Callable, args []interface{}) (runtime.Value, error) {
	if err := ctx.Err(); err != nil {
		e.logger.Info("evaluation cancelled before start", logging.StringField("entry", name))
		return nil, errors.NewCancelledError(err)
	}
	e.ctx.interrupt = ctx
	defer func() { e.ctx.interrupt = nil }()

	values := make([]runtime.Value, len(args))
	for i, arg := range args {
		values[i] = runtime.FromForeign(arg, e.ctx.Converters...)
	}

	start := time.Now()
	e.logger.Debug("invoke", logging.StringField("function", name), logging.IntField("args", len(values)))

	result, err := fn.Call(values)
	if err != nil {
		switch {
		case errors.Is(err, errors.ErrCancelled):
			e.logger.Info("evaluation cancelled",
				logging.StringField("entry", name),
				logging.DurationField("elapsed", time.Since(start)))
		case errors.IsExecutionError(err):
			e.logger.ErrorExecution(err, logging.StringField("entry", name))
		default:
			e.logger.Error("evaluation failed", logging.StringField("entry", name), logging.ErrorField("error", err))
		}
		return nil, err
	}
	e.logger.Debug("invoke finished",
		logging.StringField("function", name),
		logging.DurationField("elapsed", time.Since(start)))
	return result, nil
}
