package serialization

import (
	"fmt"
	"strings"

	"lama/errors"

	"github.com/xeipuuv/gojsonschema"
)

// UnitSchema describes the document form of a unit. Node objects are
// discriminated by "kind"; spans are [start, length] pairs.
const UnitSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["functions"],
  "properties": {
    "name": {"type": "string"},
    "functions": {
      "type": "array",
      "items": {"$ref": "#/definitions/function"}
    }
  },
  "definitions": {
    "span": {
      "type": "array",
      "items": {"type": "integer"},
      "minItems": 2,
      "maxItems": 2
    },
    "function": {
      "type": "object",
      "required": ["name", "body"],
      "properties": {
        "name": {"type": "string", "minLength": 1},
        "params": {"type": "array", "items": {"type": "string", "minLength": 1}},
        "span": {"$ref": "#/definitions/span"},
        "body": {"type": "array", "items": {"$ref": "#/definitions/node"}}
      }
    },
    "node": {
      "type": "object",
      "required": ["kind"],
      "properties": {
        "kind": {
          "enum": [
            "int", "string", "bool", "null", "name", "assign", "binary", "not",
            "call", "index", "index_assign", "property", "property_assign",
            "array", "record",
            "block", "if", "while", "break", "continue", "return", "var", "expr"
          ]
        },
        "span": {"$ref": "#/definitions/span"},
        "name": {"type": "string"},
        "op": {"type": "string"},
        "left": {"$ref": "#/definitions/node"},
        "right": {"$ref": "#/definitions/node"},
        "operand": {"$ref": "#/definitions/node"},
        "callee": {"$ref": "#/definitions/node"},
        "receiver": {"$ref": "#/definitions/node"},
        "index": {"$ref": "#/definitions/node"},
        "condition": {"$ref": "#/definitions/node"},
        "then": {"$ref": "#/definitions/node"},
        "else": {"$ref": "#/definitions/node"},
        "body": {"$ref": "#/definitions/node"},
        "expression": {"$ref": "#/definitions/node"},
        "args": {"type": "array", "items": {"$ref": "#/definitions/node"}},
        "elements": {"type": "array", "items": {"$ref": "#/definitions/node"}},
        "statements": {"type": "array", "items": {"$ref": "#/definitions/node"}},
        "fields": {
          "type": "array",
          "items": {
            "type": "object",
            "required": ["key", "value"],
            "properties": {
              "key": {"type": "string"},
              "value": {"$ref": "#/definitions/node"}
            }
          }
        }
      },
      "allOf": [
        {"if": {"properties": {"kind": {"const": "int"}}},
         "then": {"required": ["value"], "properties": {"value": {"type": ["integer", "string"]}}}},
        {"if": {"properties": {"kind": {"const": "string"}}},
         "then": {"required": ["value"], "properties": {"value": {"type": "string"}}}},
        {"if": {"properties": {"kind": {"const": "bool"}}},
         "then": {"required": ["value"], "properties": {"value": {"type": "boolean"}}}},
        {"if": {"properties": {"kind": {"enum": ["name", "var", "assign", "property"]}}},
         "then": {"required": ["name"]}},
        {"if": {"properties": {"kind": {"const": "binary"}}},
         "then": {"required": ["op", "left", "right"]}}
      ]
    }
  }
}`

var unitSchema = gojsonschema.NewStringLoader(UnitSchema)

// ValidateDocument checks a generic document tree against UnitSchema. All
// violations are reported in one validation error.
func ValidateDocument(doc interface{}) error {
	result, err := gojsonschema.Validate(unitSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return errors.WrapError(err, "SCHEMA_FAILURE", "unit schema could not be applied")
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return errors.NewValidationError("INVALID_UNIT_DOCUMENT",
		"unit document does not match the schema: "+strings.Join(violations, "; ")).
		WithContext("violations", violations)
}
