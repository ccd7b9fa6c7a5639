package serialization

import (
	"bytes"
	"encoding/json"
)

// JSONCodec reads and writes JSON unit documents. Numbers are kept as
// json.Number so integer literals wider than 64 bits survive decoding.
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Decode converts JSON bytes to a generic tree
func (jc *JSONCodec) Decode(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewSerializationError("json", "decode", "document is empty")
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var result interface{}
	if err := dec.Decode(&result); err != nil {
		return nil, NewSerializationError("json", "decode", err.Error()).Wrap(err)
	}
	return result, nil
}

// Encode converts a generic tree to indented JSON
func (jc *JSONCodec) Encode(doc interface{}) ([]byte, error) {
	if doc == nil {
		return nil, NewSerializationError("json", "encode", "document is nil")
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, NewSerializationError("json", "encode", err.Error()).Wrap(err)
	}
	return append(data, '\n'), nil
}

func (jc *JSONCodec) GetName() string {
	return "json"
}

func (jc *JSONCodec) Extensions() []string {
	return []string{".json"}
}
