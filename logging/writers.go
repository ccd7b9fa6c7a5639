package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ConsoleWriter writes log entries to a stream, stderr by default
type ConsoleWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

// NewConsoleWriter creates a new console writer that writes to stderr
func NewConsoleWriter() *ConsoleWriter {
	return &ConsoleWriter{writer: os.Stderr}
}

// NewConsoleWriterWithFile creates a new console writer with a specific file
func NewConsoleWriterWithFile(file *os.File) *ConsoleWriter {
	return &ConsoleWriter{writer: file}
}

// NewStreamWriter wraps any io.Writer, e.g. a buffer in tests
func NewStreamWriter(w io.Writer) *ConsoleWriter {
	return &ConsoleWriter{writer: w}
}

// Write writes data to the console
func (w *ConsoleWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.writer.Write(data)
	return err
}

// Flush flushes the console writer
func (w *ConsoleWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if f, ok := w.writer.(*os.File); ok && f != os.Stdout && f != os.Stderr {
		return f.Sync()
	}
	return nil
}

// Close is a no-op; the console writer does not own its stream
func (w *ConsoleWriter) Close() error {
	return nil
}

// GetName returns the name of the writer
func (w *ConsoleWriter) GetName() string {
	return "console"
}

// FileWriter writes log entries to a file
type FileWriter struct {
	mu       sync.Mutex
	file     *os.File
	filePath string
}

// NewFileWriter creates a new file writer
func NewFileWriter(filePath string) (*FileWriter, error) {
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return &FileWriter{
		file:     file,
		filePath: filePath,
	}, nil
}

// Write writes data to the file
func (w *FileWriter) Write(data []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	_, err := w.file.Write(data)
	return err
}

// Flush flushes the file writer
func (w *FileWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Sync()
}

// Close closes the file writer
func (w *FileWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	return w.file.Close()
}

// GetName returns the name of the writer
func (w *FileWriter) GetName() string {
	return fmt.Sprintf("file:%s", w.filePath)
}

// MultiWriter fans every entry out to several writers
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a new multi writer
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write writes data to every writer and returns the first error
func (w *MultiWriter) Write(data []byte) error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Write(data); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Flush flushes every writer
func (w *MultiWriter) Flush() error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close closes every writer
func (w *MultiWriter) Close() error {
	var firstErr error
	for _, writer := range w.writers {
		if err := writer.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// GetName returns the name of the writer
func (w *MultiWriter) GetName() string {
	return "multi"
}

// NullWriter discards everything
type NullWriter struct{}

// NewNullWriter creates a new null writer
func NewNullWriter() *NullWriter {
	return &NullWriter{}
}

func (w *NullWriter) Write(data []byte) error { return nil }
func (w *NullWriter) Flush() error            { return nil }
func (w *NullWriter) Close() error            { return nil }
func (w *NullWriter) GetName() string         { return "null" }
