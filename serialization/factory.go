package serialization

// NewDefaultCodecRegistry creates a codec registry with the JSON and YAML
// codecs; YAML is the default for unknown extensions
func NewDefaultCodecRegistry() *CodecRegistry {
	registry := NewCodecRegistry()

	// Both names are fixed and distinct, registration cannot fail
	_ = registry.RegisterCodec(NewJSONCodec())
	_ = registry.RegisterCodec(NewYAMLCodec())
	_ = registry.SetDefaultFormat("yaml")

	return registry
}

// GetCodec returns a codec by name from the default registry
func GetCodec(name string) (UnitCodec, error) {
	return NewDefaultCodecRegistry().GetCodec(name)
}

// ConvertFormat converts a document from one format to another
func ConvertFormat(data []byte, fromFormat, toFormat string) ([]byte, error) {
	return NewDefaultCodecRegistry().ConvertFormat(data, fromFormat, toFormat)
}

// GetSupportedFormats returns all supported document formats
func GetSupportedFormats() []string {
	return NewDefaultCodecRegistry().ListCodecs()
}

// IsFormatSupported checks if a format is supported
func IsFormatSupported(format string) bool {
	return NewDefaultCodecRegistry().IsFormatSupported(format)
}
