package serialization

import (
	"bytes"
	"encoding/json"
	"math/big"
	"strings"

	"gopkg.in/yaml.v3"
)

// YAMLCodec reads and writes YAML unit documents.
type YAMLCodec struct{}

func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Decode converts YAML bytes to a generic tree with string-keyed maps.
// Integer scalars become json.Number holding their exact digits, so literals
// wider than 64 bits survive like they do in JSON documents.
func (yc *YAMLCodec) Decode(data []byte) (interface{}, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, NewSerializationError("yaml", "decode", "document is empty")
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, NewSerializationError("yaml", "decode", err.Error()).Wrap(err)
	}
	return yamlTree(&root)
}

// Encode converts a generic tree to YAML
func (yc *YAMLCodec) Encode(doc interface{}) ([]byte, error) {
	if doc == nil {
		return nil, NewSerializationError("yaml", "encode", "document is nil")
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, NewSerializationError("yaml", "encode", err.Error()).Wrap(err)
	}
	if err := enc.Close(); err != nil {
		return nil, NewSerializationError("yaml", "encode", err.Error()).Wrap(err)
	}
	return buf.Bytes(), nil
}

func (yc *YAMLCodec) GetName() string {
	return "yaml"
}

func (yc *YAMLCodec) Extensions() []string {
	return []string{".yaml", ".yml"}
}

func yamlTree(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return yamlTree(n.Content[0])
	case yaml.AliasNode:
		return yamlTree(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]interface{}, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := yamlTree(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]interface{}, len(n.Content))
		for i, item := range n.Content {
			v, err := yamlTree(item)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	if n.ShortTag() == "!!int" {
		if num, ok := yamlInteger(n.Value); ok {
			return num, nil
		}
	}
	var v interface{}
	if err := n.Decode(&v); err != nil {
		return nil, NewSerializationError("yaml", "decode", err.Error()).
			WithContext("line", n.Line).
			Wrap(err)
	}
	return v, nil
}

// yamlInteger renders a YAML integer scalar (decimal, 0x, 0o or 0b, with
// optional underscores) as decimal digits.
func yamlInteger(text string) (json.Number, bool) {
	v, ok := new(big.Int).SetString(strings.ReplaceAll(text, "_", ""), 0)
	if !ok {
		return "", false
	}
	return json.Number(v.String()), true
}
