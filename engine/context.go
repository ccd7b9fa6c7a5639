package engine

import (
	"bufio"
	"context"
	"io"

	"lama/errors"
	"lama/logging"
	"lama/runtime"
)

// StatementListener observes every statement-tagged node just before it runs.
type StatementListener func(node Node, f *runtime.Frame)

// Context is shared by every node built by one engine.
type Context struct {
	Registry   *runtime.FunctionRegistry
	Logger     logging.Logger
	Output     io.Writer
	Input      *bufio.Reader
	Listener   StatementListener
	Converters []runtime.ForeignConverter

	// interrupt belongs to the evaluation currently holding the engine.
	interrupt context.Context
}

func (c *Context) debugEnabled() bool {
	return c != nil && c.Logger != nil && c.Logger.IsEnabled(logging.LevelDebug)
}

// checkInterrupt fails once the running evaluation's context is done. Loops
// poll it on every back-edge and calls on entry.
func (c *Context) checkInterrupt() error {
	if c == nil || c.interrupt == nil {
		return nil
	}
	select {
	case <-c.interrupt.Done():
		return errors.NewCancelledError(c.interrupt.Err())
	default:
		return nil
	}
}
