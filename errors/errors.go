package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"lama/ast"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrorTypeType              ErrorType = "TYPE"
	ErrorTypeUndefinedFunction ErrorType = "UNDEFINED_FUNCTION"
	ErrorTypeArithmetic        ErrorType = "ARITHMETIC"
	ErrorTypeIndex             ErrorType = "INDEX"
	ErrorTypeResolution        ErrorType = "RESOLUTION"
	ErrorTypeValidation        ErrorType = "VALIDATION"
	ErrorTypeSystem            ErrorType = "SYSTEM"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityDebug   ErrorSeverity = "DEBUG"
	SeverityInfo    ErrorSeverity = "INFO"
	SeverityWarning ErrorSeverity = "WARNING"
	SeverityError   ErrorSeverity = "ERROR"
	SeverityFatal   ErrorSeverity = "FATAL"
)

// Error codes raised by the interpreter.
const (
	CodeTypeError           = "TYPE_ERROR"
	CodeUndefinedFunction   = "UNDEFINED_FUNCTION"
	CodeDivisionByZero      = "DIVISION_BY_ZERO"
	CodeIndexOutOfRange     = "INDEX_OUT_OF_RANGE"
	CodeBreakOutsideLoop    = "BREAK_OUTSIDE_LOOP"
	CodeContinueOutsideLoop = "CONTINUE_OUTSIDE_LOOP"
	CodeDuplicateParameter  = "DUPLICATE_PARAMETER"
	CodeDuplicateFunction   = "DUPLICATE_FUNCTION"
	CodeInvalidLiteral      = "INVALID_LITERAL"
	CodeUnknownOperator     = "UNKNOWN_OPERATOR"
	CodeUnknownNode         = "UNKNOWN_NODE"
	CodeCancelled           = "CANCELLED"
)

// Sentinels for errors.Is; matching compares Code and Type only.
var (
	ErrTypeError           = &ExecutionError{Code: CodeTypeError, Type: ErrorTypeType}
	ErrUndefinedFunction   = &ExecutionError{Code: CodeUndefinedFunction, Type: ErrorTypeUndefinedFunction}
	ErrDivisionByZero      = &ExecutionError{Code: CodeDivisionByZero, Type: ErrorTypeArithmetic}
	ErrIndexOutOfRange     = &ExecutionError{Code: CodeIndexOutOfRange, Type: ErrorTypeIndex}
	ErrBreakOutsideLoop    = &ExecutionError{Code: CodeBreakOutsideLoop, Type: ErrorTypeResolution}
	ErrContinueOutsideLoop = &ExecutionError{Code: CodeContinueOutsideLoop, Type: ErrorTypeResolution}
	ErrCancelled           = &ExecutionError{Code: CodeCancelled, Type: ErrorTypeSystem}
)

// ExecutionError represents a structured error with detailed information
type ExecutionError struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Span      ast.Span               `json:"span"`
	Operator  string                 `json:"operator,omitempty"`
	Operands  []interface{}          `json:"operands,omitempty"`
	Function  string                 `json:"function,omitempty"`
	Context   map[string]interface{} `json:"context,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Severity  ErrorSeverity          `json:"severity"`
	Type      ErrorType              `json:"type"`
	Cause     error                  `json:"-"`
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	var builder strings.Builder

	// Format: [TYPE][CODE] message
	builder.WriteString(fmt.Sprintf("[%s][%s] %s", e.Type, e.Code, e.Message))
	if len(e.Operands) > 0 {
		parts := make([]string, len(e.Operands))
		for i, op := range e.Operands {
			parts[i] = fmt.Sprint(op)
		}
		builder.WriteString(" (operands: " + strings.Join(parts, ", ") + ")")
	}
	if e.Span.IsKnown() {
		builder.WriteString(" at " + e.Span.String())
	}
	if e.Cause != nil {
		builder.WriteString(": " + e.Cause.Error())
	}
	return builder.String()
}

// Unwrap returns the underlying error
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *ExecutionError) Is(target error) bool {
	if other, ok := target.(*ExecutionError); ok {
		return e.Code == other.Code && e.Type == other.Type
	}
	return false
}

// WithContext adds context information to the error
func (e *ExecutionError) WithContext(key string, value interface{}) *ExecutionError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the severity level for the error
func (e *ExecutionError) WithSeverity(severity ErrorSeverity) *ExecutionError {
	e.Severity = severity
	return e
}

// WithSpan sets the source span for the error
func (e *ExecutionError) WithSpan(span ast.Span) *ExecutionError {
	e.Span = span
	return e
}

// Wrap wraps another error
func (e *ExecutionError) Wrap(err error) *ExecutionError {
	e.Cause = err
	return e
}

func newError(errorType ErrorType, code, message string) *ExecutionError {
	return &ExecutionError{
		Code:      code,
		Message:   message,
		Span:      ast.NoSpan,
		Timestamp: time.Now(),
		Severity:  SeverityError,
		Type:      errorType,
		Context:   make(map[string]interface{}),
	}
}

// NewTypeError reports an operand-kind combination no specialization of
// operator accepts. Operands are kept as-is for caller-side formatting.
func NewTypeError(operator string, span ast.Span, operands ...interface{}) *ExecutionError {
	e := newError(ErrorTypeType, CodeTypeError, fmt.Sprintf("operation %q not defined for these operand kinds", operator))
	e.Operator = operator
	e.Operands = operands
	e.Span = span
	return e
}

// NewUndefinedFunctionError reports a call through a placeholder with no body.
func NewUndefinedFunctionError(name string) *ExecutionError {
	e := newError(ErrorTypeUndefinedFunction, CodeUndefinedFunction, fmt.Sprintf("undefined function: %s", name))
	e.Function = name
	return e
}

// NewDivisionByZeroError reports a zero divisor for / or %.
func NewDivisionByZeroError(operator string) *ExecutionError {
	e := newError(ErrorTypeArithmetic, CodeDivisionByZero, "division by zero")
	e.Operator = operator
	return e
}

// NewIndexOutOfRangeError reports an array or string index outside [0, length).
func NewIndexOutOfRangeError(index interface{}, length int) *ExecutionError {
	e := newError(ErrorTypeIndex, CodeIndexOutOfRange, fmt.Sprintf("index %v out of range [0, %d)", index, length))
	e.Operands = []interface{}{index}
	return e.WithContext("length", length)
}

// NewResolutionError reports a static problem found while building node trees.
func NewResolutionError(code, message string, span ast.Span) *ExecutionError {
	return newError(ErrorTypeResolution, code, message).WithSpan(span)
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string) *ExecutionError {
	return newError(ErrorTypeValidation, code, message).WithSeverity(SeverityWarning)
}

// NewSystemError creates a new system error
func NewSystemError(code, message string) *ExecutionError {
	return newError(ErrorTypeSystem, code, message)
}

// NewCancelledError reports an evaluation stopped because its context ended.
// The context error stays reachable through Unwrap.
func NewCancelledError(cause error) *ExecutionError {
	return NewSystemError(CodeCancelled, "evaluation cancelled").WithSeverity(SeverityInfo).Wrap(cause)
}

// WrapError wraps an existing error into an ExecutionError
func WrapError(err error, code, message string) *ExecutionError {
	return NewSystemError(code, message).Wrap(err)
}

// AttachSpan fills in span on err if err is an ExecutionError without one.
// Errors raised below the node layer (registry, builtins, frame access) get
// the span of the innermost node they propagate through.
func AttachSpan(err error, span ast.Span) error {
	if execErr, ok := AsExecutionError(err); ok && !execErr.Span.IsKnown() {
		execErr.Span = span
	}
	return err
}

// IsExecutionError checks if an error is an ExecutionError
func IsExecutionError(err error) bool {
	_, ok := AsExecutionError(err)
	return ok
}

// AsExecutionError converts an error to ExecutionError if possible
func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// GetErrorChain returns the chain of errors
func GetErrorChain(err error) []error {
	var chain []error
	for err != nil {
		chain = append(chain, err)
		err = stderrors.Unwrap(err)
	}
	return chain
}
