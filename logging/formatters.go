package logging

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// JSONFormatter formats log entries as JSON
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format formats a log entry as one JSON object per line
func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	output := make(map[string]interface{})

	output["timestamp"] = entry.Timestamp.Format(time.RFC3339)
	output["level"] = entry.Level.String()
	output["message"] = entry.Message

	if entry.Caller != "" {
		output["caller"] = entry.Caller
	}
	if entry.Component != "" {
		output["component"] = entry.Component
	}
	if len(entry.Fields) > 0 {
		output["fields"] = entry.Fields
	}

	data, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// GetName returns the name of the formatter
func (f *JSONFormatter) GetName() string {
	return "json"
}

// TextFormatter formats log entries as plain text
type TextFormatter struct {
	// IncludeTimestamp controls whether to include the timestamp
	IncludeTimestamp bool
	// IncludeCaller controls whether to include the caller information
	IncludeCaller bool
	// IncludeLevel controls whether to include the log level
	IncludeLevel bool
	// ColorOutput controls whether to use ANSI color codes
	ColorOutput bool
}

// NewTextFormatter creates a new text formatter with default settings
func NewTextFormatter() *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: true,
		IncludeCaller:    false,
		IncludeLevel:     true,
		ColorOutput:      false,
	}
}

// NewTextFormatterWithOptions creates a new text formatter with custom options
func NewTextFormatterWithOptions(includeTimestamp, includeCaller, includeLevel, colorOutput bool) *TextFormatter {
	return &TextFormatter{
		IncludeTimestamp: includeTimestamp,
		IncludeCaller:    includeCaller,
		IncludeLevel:     includeLevel,
		ColorOutput:      colorOutput,
	}
}

// Format formats a log entry as plain text
func (f *TextFormatter) Format(entry *LogEntry) ([]byte, error) {
	var b strings.Builder

	if f.IncludeTimestamp {
		b.WriteString(fmt.Sprintf("[%s] ", entry.Timestamp.Format("2006-01-02 15:04:05.000")))
	}
	if f.IncludeLevel {
		levelStr := entry.Level.String()
		if f.ColorOutput {
			levelStr = f.colorizeLevel(levelStr, entry.Level)
		}
		b.WriteString(fmt.Sprintf("[%s] ", levelStr))
	}
	if entry.Component != "" {
		b.WriteString(fmt.Sprintf("[%s] ", entry.Component))
	}

	b.WriteString(entry.Message)

	if f.IncludeCaller && entry.Caller != "" {
		b.WriteString(fmt.Sprintf(" (caller: %s)", entry.Caller))
	}
	if len(entry.Fields) > 0 {
		b.WriteString(" " + f.formatFields(entry.Fields))
	}

	b.WriteString("\n")
	return []byte(b.String()), nil
}

// GetName returns the name of the formatter
func (f *TextFormatter) GetName() string {
	return "text"
}

// formatFields renders fields in key order so output is stable.
func (f *TextFormatter) formatFields(fields map[string]interface{}) string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, key := range keys {
		parts[i] = fmt.Sprintf("%s=%v", key, fields[key])
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// colorizeLevel adds ANSI color codes to the level string
func (f *TextFormatter) colorizeLevel(level string, logLevel LogLevel) string {
	switch logLevel {
	case LevelDebug:
		return fmt.Sprintf("\x1b[36m%s\x1b[0m", level) // Cyan
	case LevelInfo:
		return fmt.Sprintf("\x1b[32m%s\x1b[0m", level) // Green
	case LevelWarning:
		return fmt.Sprintf("\x1b[33m%s\x1b[0m", level) // Yellow
	case LevelError:
		return fmt.Sprintf("\x1b[31m%s\x1b[0m", level) // Red
	case LevelFatal:
		return fmt.Sprintf("\x1b[35m%s\x1b[0m", level) // Magenta
	default:
		return level
	}
}

// NewFormatter returns the formatter registered under name ("json" or "text").
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "", "json":
		return NewJSONFormatter(), nil
	case "text":
		return NewTextFormatter(), nil
	case "console":
		return NewTextFormatterWithOptions(true, false, true, true), nil
	default:
		return nil, fmt.Errorf("unknown log format %q", name)
	}
}
