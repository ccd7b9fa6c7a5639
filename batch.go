package main

import (
	"fmt"
	"io"
	"os"

	"lama/engine"
	"lama/logging"
	"lama/runtime"
	"lama/runtime/lua"
	"lama/serialization"
	"lama/shared"

	"github.com/funvibe/funbit/pkg/funbit"
)

// BatchOptions describes one non-interactive evaluation of a unit file
type BatchOptions struct {
	UnitPath  string
	Entry     string
	LuaArgs   string
	BytesArg  string
	PatchPath string
	Output    io.Writer
	Input     io.Reader
}

// BatchMode compiles the unit at opts.UnitPath, registers it and evaluates
// its entry function, printing the result.
func BatchMode(cfg *Config, logger logging.Logger, opts BatchOptions) (runtime.Value, error) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	loadOptions := serialization.LoadOptions{Validate: cfg.Units.ValidateSchema}
	if opts.PatchPath != "" {
		patch, err := os.ReadFile(opts.PatchPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read patch file: %v", err)
		}
		loadOptions.Patch = patch
	}

	unit, err := serialization.LoadUnitFile(opts.UnitPath, loadOptions)
	if err != nil {
		return nil, err
	}

	args, err := batchArguments(opts)
	if err != nil {
		return nil, err
	}

	entry := opts.Entry
	if entry == "" {
		entry = cfg.Engine.EntryFunction
	}
	eng := engine.NewExecutionEngineWithConfig(engine.ExecutionEngineConfig{
		Logger:          logger,
		EntryFunction:   entry,
		Output:          out,
		Input:           opts.Input,
		TraceStatements: cfg.Engine.TraceStatements,
		Converters:      []runtime.ForeignConverter{lua.Converter},
	})

	program, err := eng.Compile(unit)
	if err != nil {
		return nil, err
	}
	logger.Info("evaluating unit",
		logging.StringField("unit", program.Name()),
		logging.StringField("entry", entry),
		logging.IntField("args", len(args)))

	result, err := eng.Evaluate(program, args...)
	if err != nil {
		return nil, err
	}
	fmt.Fprintf(out, "=> %s\n", shared.FormatValueForDisplay(result))
	return result, nil
}

// batchArguments builds the entry argument vector: the Lua expression list
// first, then the raw bytes of -bytes-arg as a bitstring.
func batchArguments(opts BatchOptions) ([]interface{}, error) {
	var args []interface{}
	if opts.LuaArgs != "" {
		values, err := lua.EvalArguments(opts.LuaArgs)
		if err != nil {
			return nil, err
		}
		for _, v := range values {
			args = append(args, v)
		}
	}
	if opts.BytesArg != "" {
		data, err := os.ReadFile(opts.BytesArg)
		if err != nil {
			return nil, fmt.Errorf("failed to read bytes argument: %v", err)
		}
		args = append(args, funbit.NewBitStringFromBytes(data))
	}
	return args, nil
}

// DiffMode prints which functions differ between two unit documents
func DiffMode(cfg *Config, oldPath, newPath string, out io.Writer) ([]serialization.FunctionChange, error) {
	if out == nil {
		out = os.Stdout
	}
	loadOptions := serialization.LoadOptions{Validate: cfg.Units.ValidateSchema}

	before, err := serialization.ReadDocumentFile(oldPath, loadOptions)
	if err != nil {
		return nil, err
	}
	after, err := serialization.ReadDocumentFile(newPath, loadOptions)
	if err != nil {
		return nil, err
	}
	changes, err := serialization.DiffUnits(before, after)
	if err != nil {
		return nil, err
	}

	if len(changes) == 0 {
		fmt.Fprintln(out, "No changes")
	}
	for _, change := range changes {
		switch change.Kind {
		case serialization.FunctionAdded:
			fmt.Fprintf(out, "+ %s\n", change.Name)
		case serialization.FunctionRemoved:
			fmt.Fprintf(out, "- %s\n", change.Name)
		default:
			fmt.Fprintf(out, "~ %s (%d operations)\n", change.Name, change.Operations)
		}
	}
	return changes, nil
}
