package logging

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"lama/errors"
)

// LogLevel represents the severity level of a log entry
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelFatal
)

var levelNames = [...]string{"DEBUG", "INFO", "WARNING", "ERROR", "FATAL"}

func (l LogLevel) String() string {
	if l < LevelDebug || l > LevelFatal {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a configuration string to a level. "warn" is accepted for
// warning; anything unrecognised maps to info.
func ParseLevel(levelStr string) LogLevel {
	name := strings.ToUpper(strings.TrimSpace(levelStr))
	if name == "WARN" {
		return LevelWarning
	}
	for i, n := range levelNames {
		if n == name {
			return LogLevel(i)
		}
	}
	return LevelInfo
}

// LogField is one key-value pair of a structured entry.
type LogField struct {
	Key   string      `json:"key"`
	Value interface{} `json:"value"`
}

// LogEntry is what formatters render.
type LogEntry struct {
	Timestamp time.Time              `json:"timestamp"`
	Level     LogLevel               `json:"level"`
	Message   string                 `json:"message"`
	Fields    map[string]interface{} `json:"fields,omitempty"`
	Caller    string                 `json:"caller,omitempty"`
	Component string                 `json:"component,omitempty"`
}

// Logger is the structured logger every package receives. Implementations
// must be safe to derive from concurrently; derived loggers never change
// their parent.
type Logger interface {
	Debug(msg string, fields ...LogField)
	Info(msg string, fields ...LogField)
	Warn(msg string, fields ...LogField)
	Error(msg string, fields ...LogField)

	// ErrorExecution logs err at error level with the code, type and span
	// of an interpreter error as fields.
	ErrorExecution(err error, fields ...LogField)

	WithFields(fields ...LogField) Logger
	WithComponent(component string) Logger

	// IsEnabled reports whether entries at level would be written, so hot
	// paths can skip building fields.
	IsEnabled(level LogLevel) bool
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// Formatter renders one entry, newline included.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
	GetName() string
}

// Writer is a destination for formatted entries.
type Writer interface {
	Write(data []byte) error
	Flush() error
	Close() error
	GetName() string
}

// DefaultLogger writes every entry through each formatter to each writer.
// Derived loggers share formatters and writers but own their fields.
type DefaultLogger struct {
	level      LogLevel
	fields     map[string]interface{}
	component  string
	formatters []Formatter
	writers    []Writer
	callerSkip int
}

// LoggerConfig contains configuration for the logger. CallerSkip counts
// stack frames above the internal log call: 2 records whoever called Debug,
// Info and friends, 0 leaves the caller out.
type LoggerConfig struct {
	Level      LogLevel
	Formatters []Formatter
	Writers    []Writer
	CallerSkip int
}

// ApplyLogLevel applies log level from string configuration
func (lc *LoggerConfig) ApplyLogLevel(levelStr string) {
	lc.Level = ParseLevel(levelStr)
}

// NewDefaultLoggerWithConfig builds a logger; JSON to stderr fills in for
// missing formatters and writers.
func NewDefaultLoggerWithConfig(config LoggerConfig) *DefaultLogger {
	logger := &DefaultLogger{
		level:      config.Level,
		fields:     map[string]interface{}{},
		formatters: config.Formatters,
		writers:    config.Writers,
		callerSkip: config.CallerSkip,
	}
	if len(logger.formatters) == 0 {
		logger.formatters = []Formatter{NewJSONFormatter()}
	}
	if len(logger.writers) == 0 {
		logger.writers = []Writer{NewConsoleWriterWithFile(os.Stderr)}
	}
	return logger
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *DefaultLogger {
	return NewDefaultLoggerWithConfig(LoggerConfig{
		Level:   LevelFatal + 1,
		Writers: []Writer{NewNullWriter()},
	})
}

func (l *DefaultLogger) Debug(msg string, fields ...LogField) { l.log(LevelDebug, msg, fields) }
func (l *DefaultLogger) Info(msg string, fields ...LogField)  { l.log(LevelInfo, msg, fields) }
func (l *DefaultLogger) Warn(msg string, fields ...LogField)  { l.log(LevelWarning, msg, fields) }
func (l *DefaultLogger) Error(msg string, fields ...LogField) { l.log(LevelError, msg, fields) }

// ErrorExecution logs err at error level. Interpreter errors contribute
// their code, type, span, operator and function as fields.
func (l *DefaultLogger) ErrorExecution(err error, fields ...LogField) {
	execErr, ok := errors.AsExecutionError(err)
	if !ok {
		l.log(LevelError, err.Error(), append(fields, ErrorField("error", err)))
		return
	}

	fields = append(fields,
		StringField("error_code", execErr.Code),
		StringField("error_type", string(execErr.Type)))
	if execErr.Span.IsKnown() {
		fields = append(fields,
			IntField("span_start", execErr.Span.Start),
			IntField("span_length", execErr.Span.Length))
	}
	if execErr.Operator != "" {
		fields = append(fields, StringField("operator", execErr.Operator))
	}
	if execErr.Function != "" {
		fields = append(fields, StringField("function", execErr.Function))
	}
	l.log(LevelError, execErr.Message, fields)
}

func (l *DefaultLogger) WithFields(fields ...LogField) Logger {
	derived := l.derive()
	for _, field := range fields {
		derived.fields[field.Key] = field.Value
	}
	return derived
}

func (l *DefaultLogger) WithComponent(component string) Logger {
	derived := l.derive()
	derived.component = component
	return derived
}

func (l *DefaultLogger) IsEnabled(level LogLevel) bool { return level >= l.level }

func (l *DefaultLogger) SetLevel(level LogLevel) { l.level = level }

func (l *DefaultLogger) GetLevel() LogLevel { return l.level }

// Close flushes and closes every writer, returning the first failure.
func (l *DefaultLogger) Close() error {
	var firstErr error
	for _, writer := range l.writers {
		if err := writer.Flush(); err != nil {
			fmt.Fprintf(os.Stderr, "log writer %s: flush: %v\n", writer.GetName(), err)
		}
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (l *DefaultLogger) log(level LogLevel, msg string, fields []LogField) {
	if !l.IsEnabled(level) {
		return
	}

	entry := &LogEntry{
		Timestamp: time.Now(),
		Level:     level,
		Message:   msg,
		Fields:    make(map[string]interface{}, len(l.fields)+len(fields)),
		Component: l.component,
	}
	if l.callerSkip > 0 {
		if _, file, line, ok := runtime.Caller(l.callerSkip); ok {
			entry.Caller = fmt.Sprintf("%s:%d", file, line)
		}
	}
	for k, v := range l.fields {
		entry.Fields[k] = v
	}
	for _, field := range fields {
		entry.Fields[field.Key] = field.Value
	}

	for _, formatter := range l.formatters {
		data, err := formatter.Format(entry)
		if err != nil {
			data = []byte(fmt.Sprintf("log entry %q not formatted by %s: %v\n", msg, formatter.GetName(), err))
		}
		for _, writer := range l.writers {
			if err := writer.Write(data); err != nil {
				fmt.Fprintf(os.Stderr, "log writer %s: %v\n", writer.GetName(), err)
			}
		}
	}
}

func (l *DefaultLogger) derive() *DefaultLogger {
	derived := *l
	derived.fields = make(map[string]interface{}, len(l.fields))
	for k, v := range l.fields {
		derived.fields[k] = v
	}
	return &derived
}

func StringField(key, value string) LogField        { return LogField{Key: key, Value: value} }
func IntField(key string, value int) LogField       { return LogField{Key: key, Value: value} }
func Int64Field(key string, value int64) LogField   { return LogField{Key: key, Value: value} }
func Uint64Field(key string, value uint64) LogField { return LogField{Key: key, Value: value} }
func BoolField(key string, value bool) LogField     { return LogField{Key: key, Value: value} }
func ErrorField(key string, value error) LogField   { return LogField{Key: key, Value: value.Error()} }
func DurationField(key string, d time.Duration) LogField {
	return LogField{Key: key, Value: d.String()}
}
