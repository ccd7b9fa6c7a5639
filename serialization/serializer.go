package serialization

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// UnitCodec converts between the bytes of a unit document and its generic
// tree form (maps, slices and scalars) used by validation, patching and
// decoding.
type UnitCodec interface {
	// Decode parses document bytes into a generic tree
	Decode(data []byte) (interface{}, error)

	// Encode renders a generic tree as document bytes
	Encode(doc interface{}) ([]byte, error)

	// GetName returns the name of the format
	GetName() string

	// Extensions returns the file extensions handled by the codec, with dot
	Extensions() []string
}

// SerializationError represents an error that occurred while reading or
// writing a unit document
type SerializationError struct {
	Operation string
	Message   string
	Format    string
	Context   map[string]interface{}
	Cause     error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("[%s %s error] %s", e.Format, e.Operation, e.Message)
}

func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// NewSerializationError creates a new serialization error
func NewSerializationError(format, operation, message string) *SerializationError {
	return &SerializationError{
		Format:    format,
		Operation: operation,
		Message:   message,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds context information to the error
func (e *SerializationError) WithContext(key string, value interface{}) *SerializationError {
	e.Context[key] = value
	return e
}

// Wrap records the underlying error
func (e *SerializationError) Wrap(err error) *SerializationError {
	e.Cause = err
	return e
}

// CodecRegistry manages the document formats known to the loader
type CodecRegistry struct {
	codecs        map[string]UnitCodec
	byExtension   map[string]string
	defaultFormat string
}

// NewCodecRegistry creates an empty codec registry
func NewCodecRegistry() *CodecRegistry {
	return &CodecRegistry{
		codecs:        make(map[string]UnitCodec),
		byExtension:   make(map[string]string),
		defaultFormat: "yaml",
	}
}

// RegisterCodec registers a codec and its extensions
func (cr *CodecRegistry) RegisterCodec(codec UnitCodec) error {
	name := codec.GetName()
	if _, exists := cr.codecs[name]; exists {
		return fmt.Errorf("codec '%s' is already registered", name)
	}

	cr.codecs[name] = codec
	for _, ext := range codec.Extensions() {
		cr.byExtension[strings.ToLower(ext)] = name
	}
	return nil
}

// GetCodec returns a codec by name
func (cr *CodecRegistry) GetCodec(name string) (UnitCodec, error) {
	codec, exists := cr.codecs[name]
	if !exists {
		return nil, fmt.Errorf("codec '%s' not found", name)
	}
	return codec, nil
}

// CodecForPath picks the codec by file extension, falling back to the
// default format for unknown extensions
func (cr *CodecRegistry) CodecForPath(path string) (UnitCodec, error) {
	if name, ok := cr.byExtension[strings.ToLower(filepath.Ext(path))]; ok {
		return cr.GetCodec(name)
	}
	return cr.GetCodec(cr.defaultFormat)
}

// SetDefaultFormat sets the format used for unknown extensions
func (cr *CodecRegistry) SetDefaultFormat(name string) error {
	if _, exists := cr.codecs[name]; !exists {
		return fmt.Errorf("codec '%s' not found", name)
	}

	cr.defaultFormat = name
	return nil
}

// ListCodecs returns the names of all registered codecs, sorted
func (cr *CodecRegistry) ListCodecs() []string {
	names := make([]string, 0, len(cr.codecs))
	for name := range cr.codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ConvertFormat re-encodes a document from one format to another
func (cr *CodecRegistry) ConvertFormat(data []byte, fromFormat, toFormat string) ([]byte, error) {
	from, err := cr.GetCodec(fromFormat)
	if err != nil {
		return nil, err
	}
	doc, err := from.Decode(data)
	if err != nil {
		return nil, err
	}

	to, err := cr.GetCodec(toFormat)
	if err != nil {
		return nil, err
	}
	return to.Encode(doc)
}

// IsFormatSupported checks if a format is supported
func (cr *CodecRegistry) IsFormatSupported(format string) bool {
	_, exists := cr.codecs[format]
	return exists
}
