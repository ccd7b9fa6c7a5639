package serialization

import (
	"os"
	"path/filepath"
	"testing"

	"lama/ast"
	"lama/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const doubleYAML = `
name: demo
functions:
  - name: main
    params: [n]
    span: [0, 40]
    body:
      - kind: return
        span: [10, 20]
        value:
          kind: binary
          op: "*"
          span: [17, 5]
          left: {kind: name, name: n}
          right: {kind: int, value: 2}
`

const bigJSON = `{
  "functions": [
    {"name": "main", "body": [
      {"kind": "var", "name": "x", "value": {"kind": "int", "value": "123456789012345678901234567890"}},
      {"kind": "while", "condition": {"kind": "bool", "value": false}, "body": {"kind": "block", "statements": [{"kind": "break"}]}},
      {"kind": "call", "callee": {"kind": "name", "name": "write"}, "args": [{"kind": "string", "value": "hi"}]},
      {"kind": "return", "value": {"kind": "name", "name": "x"}}
    ]},
    {"name": "other", "params": ["a", "b"], "body": []}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLUnit(t *testing.T) {
	path := writeFile(t, "double.yaml", doubleYAML)

	unit, err := LoadUnitFile(path, LoadOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "demo", unit.Name)
	require.Len(t, unit.Functions, 1)

	main := unit.Functions[0]
	assert.Equal(t, "main", main.Name)
	assert.Equal(t, ast.NewSpan(0, 40), main.Span)
	require.Len(t, main.Params, 1)
	assert.Equal(t, "n", main.Params[0].Name)

	ret, ok := main.Body.Statements[0].(*ast.Return)
	require.True(t, ok)
	assert.Equal(t, ast.NewSpan(10, 20), ret.Span)

	bin, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, "*", bin.Op)
	assert.Equal(t, ast.NewSpan(17, 5), bin.Span)
	assert.Equal(t, &ast.Name{Span: ast.NoSpan, Name: "n"}, bin.Left)
	assert.Equal(t, &ast.IntLiteral{Span: ast.NoSpan, Text: "2"}, bin.Right)
}

func TestYAMLIntegersKeepTheirDigits(t *testing.T) {
	doc := `
functions:
  - name: main
    span: [0, 0x10]
    body:
      - kind: var
        name: big
        value: {kind: int, value: 100000000000000000000}
      - kind: return
        value: {kind: int, value: 1_000}
`
	unit, err := LoadUnit([]byte(doc), NewYAMLCodec(), "wide", LoadOptions{Validate: true})
	require.NoError(t, err)
	main := unit.Functions[0]
	assert.Equal(t, ast.NewSpan(0, 16), main.Span)

	decl, ok := main.Body.Statements[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, &ast.IntLiteral{Span: ast.NoSpan, Text: "100000000000000000000"}, decl.Value)

	ret, ok := main.Body.Statements[1].(*ast.Return)
	require.True(t, ok)
	assert.Equal(t, &ast.IntLiteral{Span: ast.NoSpan, Text: "1000"}, ret.Value)
}

func TestLoadJSONUnit(t *testing.T) {
	path := writeFile(t, "big.json", bigJSON)

	unit, err := LoadUnitFile(path, LoadOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, "big", unit.Name, "unnamed documents take the file name")
	require.Len(t, unit.Functions, 2)

	body := unit.Functions[0].Body.Statements
	require.Len(t, body, 4)

	decl, ok := body[0].(*ast.VarDecl)
	require.True(t, ok)
	assert.Equal(t, "x", decl.Name)
	assert.Equal(t, "123456789012345678901234567890", decl.Value.(*ast.IntLiteral).Text)

	loop, ok := body[1].(*ast.While)
	require.True(t, ok)
	assert.IsType(t, &ast.Break{}, loop.Body.(*ast.Block).Statements[0])

	stmt, ok := body[2].(*ast.ExpressionStatement)
	require.True(t, ok, "bare expression nodes become expression statements")
	assert.Equal(t, "write", stmt.Expression.(*ast.Call).Callee.(*ast.Name).Name)

	other := unit.Functions[1]
	assert.Len(t, other.Params, 2)
	assert.Empty(t, other.Body.Statements)
}

func TestSchemaValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"functions missing", `{"name": "x"}`},
		{"unknown kind", `{"functions": [{"name": "f", "body": [{"kind": "goto"}]}]}`},
		{"binary without operator", `{"functions": [{"name": "f", "body": [{"kind": "binary", "left": {"kind": "null"}, "right": {"kind": "null"}}]}]}`},
		{"int with bool value", `{"functions": [{"name": "f", "body": [{"kind": "int", "value": true}]}]}`},
		{"bad span", `{"functions": [{"name": "f", "span": [1], "body": []}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadUnit([]byte(tt.doc), NewJSONCodec(), "t", LoadOptions{Validate: true})
			require.Error(t, err)
			execErr, ok := errors.AsExecutionError(err)
			require.True(t, ok)
			assert.Equal(t, "INVALID_UNIT_DOCUMENT", execErr.Code)
			assert.Equal(t, errors.ErrorTypeValidation, execErr.Type)
		})
	}
}

func TestDecodeRejectsMalformedNodes(t *testing.T) {
	_, err := LoadUnit([]byte(`{"functions": [{"name": "f", "body": [{"kind": "int", "value": "12x"}]}]}`),
		NewJSONCodec(), "t", LoadOptions{})
	require.Error(t, err)

	_, err = LoadUnit([]byte(`{"functions": [{"name": "f", "body": [{"kind": "if", "then": {"kind": "break"}}]}]}`),
		NewJSONCodec(), "t", LoadOptions{})
	require.Error(t, err)
}

func TestPatches(t *testing.T) {
	t.Run("json patch", func(t *testing.T) {
		patch := []byte(`[{"op": "replace", "path": "/functions/0/body/0/value/right/value", "value": 3}]`)
		unit, err := LoadUnit([]byte(doubleYAML), NewYAMLCodec(), "t", LoadOptions{Validate: true, Patch: patch})
		require.NoError(t, err)

		bin := unit.Functions[0].Body.Statements[0].(*ast.Return).Value.(*ast.Binary)
		assert.Equal(t, "3", bin.Right.(*ast.IntLiteral).Text)
	})

	t.Run("merge patch", func(t *testing.T) {
		unit, err := LoadUnit([]byte(doubleYAML), NewYAMLCodec(), "t",
			LoadOptions{Patch: []byte(`{"name": "renamed"}`)})
		require.NoError(t, err)
		assert.Equal(t, "renamed", unit.Name)
		assert.Len(t, unit.Functions, 1)
	})

	t.Run("invalid patch", func(t *testing.T) {
		_, err := LoadUnit([]byte(doubleYAML), NewYAMLCodec(), "t",
			LoadOptions{Patch: []byte(`[{"op": "remove", "path": "/nope/0"}]`)})
		require.Error(t, err)
		execErr, ok := errors.AsExecutionError(err)
		require.True(t, ok)
		assert.Equal(t, "PATCH_FAILED", execErr.Code)
	})

	t.Run("patched document is validated", func(t *testing.T) {
		_, err := LoadUnit([]byte(doubleYAML), NewYAMLCodec(), "t", LoadOptions{
			Validate: true,
			Patch:    []byte(`[{"op": "replace", "path": "/functions/0/body/0/kind", "value": "jump"}]`),
		})
		require.Error(t, err)
	})
}

func TestDiffUnits(t *testing.T) {
	before, err := NewJSONCodec().Decode([]byte(`{"functions": [
		{"name": "a", "body": [{"kind": "return", "value": {"kind": "int", "value": 1}}]},
		{"name": "b", "body": []},
		{"name": "gone", "body": []}
	]}`))
	require.NoError(t, err)
	after, err := NewJSONCodec().Decode([]byte(`{"functions": [
		{"name": "b", "body": []},
		{"name": "a", "body": [{"kind": "return", "value": {"kind": "int", "value": 2}}]},
		{"name": "new", "params": ["x"], "body": []}
	]}`))
	require.NoError(t, err)

	changes, err := DiffUnits(before, after)
	require.NoError(t, err)
	require.Len(t, changes, 3)

	assert.Equal(t, "a", changes[0].Name)
	assert.Equal(t, FunctionModified, changes[0].Kind)
	assert.Equal(t, "gone", changes[1].Name)
	assert.Equal(t, FunctionRemoved, changes[1].Kind)
	assert.Equal(t, "new", changes[2].Name)
	assert.Equal(t, FunctionAdded, changes[2].Kind)

	same, err := DiffUnits(before, before)
	require.NoError(t, err)
	assert.Empty(t, same)

	_, err = DiffUnits([]interface{}{}, before)
	assert.Error(t, err)
}

func TestCodecRegistry(t *testing.T) {
	registry := NewDefaultCodecRegistry()
	assert.Equal(t, []string{"json", "yaml"}, registry.ListCodecs())

	codec, err := registry.CodecForPath("unit.JSON")
	require.NoError(t, err)
	assert.Equal(t, "json", codec.GetName())

	codec, err = registry.CodecForPath("unit.yml")
	require.NoError(t, err)
	assert.Equal(t, "yaml", codec.GetName())

	codec, err = registry.CodecForPath("unit.txt")
	require.NoError(t, err)
	assert.Equal(t, "yaml", codec.GetName())

	assert.Error(t, registry.RegisterCodec(NewJSONCodec()))
	_, err = registry.GetCodec("xml")
	assert.Error(t, err)
	assert.True(t, IsFormatSupported("yaml"))
	assert.False(t, IsFormatSupported("msgpack"))
}

func TestConvertFormat(t *testing.T) {
	converted, err := ConvertFormat([]byte(doubleYAML), "yaml", "json")
	require.NoError(t, err)

	fromJSON, err := LoadUnit(converted, NewJSONCodec(), "t", LoadOptions{Validate: true})
	require.NoError(t, err)
	fromYAML, err := LoadUnit([]byte(doubleYAML), NewYAMLCodec(), "t", LoadOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, fromYAML, fromJSON)

	back, err := ConvertFormat(converted, "json", "yaml")
	require.NoError(t, err)
	again, err := LoadUnit(back, NewYAMLCodec(), "t", LoadOptions{Validate: true})
	require.NoError(t, err)
	assert.Equal(t, fromYAML, again)
}

func TestEmptyDocuments(t *testing.T) {
	_, err := NewJSONCodec().Decode([]byte("  "))
	assert.Error(t, err)
	_, err = NewYAMLCodec().Decode(nil)
	assert.Error(t, err)

	_, err = LoadUnitFile(filepath.Join(t.TempDir(), "missing.yaml"), LoadOptions{})
	assert.Error(t, err)
}
