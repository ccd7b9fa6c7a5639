package serialization

import (
	"encoding/json"
	"fmt"

	"lama/ast"
	"lama/errors"
)

// unitDoc, functionDoc and nodeDoc mirror UnitSchema. Literal payloads and
// the value expression of assignments share the "value" member, so it stays
// raw until the node kind is known.
type unitDoc struct {
	Name      string         `json:"name"`
	Functions []*functionDoc `json:"functions"`
}

type functionDoc struct {
	Name   string     `json:"name"`
	Params []string   `json:"params"`
	Span   []int      `json:"span"`
	Body   []*nodeDoc `json:"body"`
}

type fieldDoc struct {
	Key   string   `json:"key"`
	Value *nodeDoc `json:"value"`
}

type nodeDoc struct {
	Kind       string          `json:"kind"`
	Span       []int           `json:"span"`
	Value      json.RawMessage `json:"value"`
	Name       string          `json:"name"`
	Op         string          `json:"op"`
	Left       *nodeDoc        `json:"left"`
	Right      *nodeDoc        `json:"right"`
	Operand    *nodeDoc        `json:"operand"`
	Callee     *nodeDoc        `json:"callee"`
	Receiver   *nodeDoc        `json:"receiver"`
	Index      *nodeDoc        `json:"index"`
	Condition  *nodeDoc        `json:"condition"`
	Then       *nodeDoc        `json:"then"`
	Else       *nodeDoc        `json:"else"`
	Body       *nodeDoc        `json:"body"`
	Expression *nodeDoc        `json:"expression"`
	Args       []*nodeDoc      `json:"args"`
	Elements   []*nodeDoc      `json:"elements"`
	Statements []*nodeDoc      `json:"statements"`
	Fields     []fieldDoc      `json:"fields"`
}

// DecodeUnit converts a generic document tree into an ast.Unit. fallbackName
// names the unit when the document does not.
func DecodeUnit(doc interface{}, fallbackName string) (*ast.Unit, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, NewSerializationError("json", "decode", err.Error()).Wrap(err)
	}
	var ud unitDoc
	if err := json.Unmarshal(raw, &ud); err != nil {
		return nil, errors.NewValidationError("INVALID_UNIT_DOCUMENT", err.Error()).Wrap(err)
	}

	unit := &ast.Unit{Name: ud.Name}
	if unit.Name == "" {
		unit.Name = fallbackName
	}
	for i, fd := range ud.Functions {
		if fd == nil {
			return nil, invalidNode(fmt.Sprintf("functions[%d]", i), "function entry is null")
		}
		fn, err := decodeFunction(fd)
		if err != nil {
			return nil, err
		}
		unit.Functions = append(unit.Functions, fn)
	}
	return unit, nil
}

func decodeFunction(fd *functionDoc) (*ast.FunctionDecl, error) {
	span := decodeSpan(fd.Span)
	fn := &ast.FunctionDecl{
		Span: span,
		Name: fd.Name,
		Body: &ast.Block{Span: span},
	}
	for _, p := range fd.Params {
		fn.Params = append(fn.Params, ast.Param{Span: span, Name: p})
	}
	for _, nd := range fd.Body {
		s, err := decodeStatement(nd)
		if err != nil {
			return nil, err
		}
		fn.Body.Statements = append(fn.Body.Statements, s)
	}
	return fn, nil
}

func decodeSpan(s []int) ast.Span {
	if len(s) != 2 {
		return ast.NoSpan
	}
	return ast.NewSpan(s[0], s[1])
}

func invalidNode(where, message string) error {
	return errors.NewValidationError("INVALID_UNIT_DOCUMENT", where+": "+message)
}

// valueNode decodes the "value" member as an expression node.
func (nd *nodeDoc) valueNode() (*nodeDoc, error) {
	if len(nd.Value) == 0 || string(nd.Value) == "null" {
		return nil, nil
	}
	var v nodeDoc
	if err := json.Unmarshal(nd.Value, &v); err != nil {
		return nil, invalidNode(nd.Kind, "value must be a node: "+err.Error())
	}
	return &v, nil
}

func decodeStatement(nd *nodeDoc) (ast.Statement, error) {
	if nd == nil {
		return nil, invalidNode("statement", "missing")
	}
	span := decodeSpan(nd.Span)

	switch nd.Kind {
	case "block":
		block := &ast.Block{Span: span}
		for _, child := range nd.Statements {
			s, err := decodeStatement(child)
			if err != nil {
				return nil, err
			}
			block.Statements = append(block.Statements, s)
		}
		return block, nil

	case "if":
		cond, err := decodeExpression(nd.Condition)
		if err != nil {
			return nil, err
		}
		then, err := decodeStatement(nd.Then)
		if err != nil {
			return nil, err
		}
		stmt := &ast.If{Span: span, Condition: cond, Then: then}
		if nd.Else != nil {
			if stmt.Else, err = decodeStatement(nd.Else); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case "while":
		cond, err := decodeExpression(nd.Condition)
		if err != nil {
			return nil, err
		}
		body, err := decodeStatement(nd.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Span: span, Condition: cond, Body: body}, nil

	case "break":
		return &ast.Break{Span: span}, nil

	case "continue":
		return &ast.Continue{Span: span}, nil

	case "return":
		stmt := &ast.Return{Span: span}
		vd, err := nd.valueNode()
		if err != nil {
			return nil, err
		}
		if vd != nil {
			if stmt.Value, err = decodeExpression(vd); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case "var":
		stmt := &ast.VarDecl{Span: span, Name: nd.Name}
		vd, err := nd.valueNode()
		if err != nil {
			return nil, err
		}
		if vd != nil {
			if stmt.Value, err = decodeExpression(vd); err != nil {
				return nil, err
			}
		}
		return stmt, nil

	case "expr":
		e, err := decodeExpression(nd.Expression)
		if err != nil {
			return nil, err
		}
		return &ast.ExpressionStatement{Span: span, Expression: e}, nil
	}

	// A bare expression node in statement position is an expression statement.
	e, err := decodeExpression(nd)
	if err != nil {
		return nil, err
	}
	return &ast.ExpressionStatement{Span: span, Expression: e}, nil
}

func decodeExpressions(list []*nodeDoc) ([]ast.Expression, error) {
	out := make([]ast.Expression, 0, len(list))
	for _, nd := range list {
		e, err := decodeExpression(nd)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func decodeExpression(nd *nodeDoc) (ast.Expression, error) {
	if nd == nil {
		return nil, invalidNode("expression", "missing")
	}
	span := decodeSpan(nd.Span)

	switch nd.Kind {
	case "int":
		var text json.Number
		if err := json.Unmarshal(nd.Value, &text); err != nil {
			return nil, invalidNode("int", "value must be an integer: "+err.Error())
		}
		return &ast.IntLiteral{Span: span, Text: text.String()}, nil

	case "string":
		var s string
		if err := json.Unmarshal(nd.Value, &s); err != nil {
			return nil, invalidNode("string", "value must be a string")
		}
		return &ast.StringLiteral{Span: span, Value: s}, nil

	case "bool":
		var b bool
		if err := json.Unmarshal(nd.Value, &b); err != nil {
			return nil, invalidNode("bool", "value must be a boolean")
		}
		return &ast.BoolLiteral{Span: span, Value: b}, nil

	case "null":
		return &ast.NullLiteral{Span: span}, nil

	case "name":
		return &ast.Name{Span: span, Name: nd.Name}, nil

	case "assign":
		vd, err := nd.valueNode()
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(vd)
		if err != nil {
			return nil, err
		}
		return &ast.Assign{Span: span, Name: nd.Name, Value: value}, nil

	case "binary":
		left, err := decodeExpression(nd.Left)
		if err != nil {
			return nil, err
		}
		right, err := decodeExpression(nd.Right)
		if err != nil {
			return nil, err
		}
		return &ast.Binary{Span: span, Op: nd.Op, Left: left, Right: right}, nil

	case "not":
		operand, err := decodeExpression(nd.Operand)
		if err != nil {
			return nil, err
		}
		return &ast.Not{Span: span, Operand: operand}, nil

	case "call":
		callee, err := decodeExpression(nd.Callee)
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(nd.Args)
		if err != nil {
			return nil, err
		}
		return &ast.Call{Span: span, Callee: callee, Args: args}, nil

	case "index", "index_assign":
		recv, err := decodeExpression(nd.Receiver)
		if err != nil {
			return nil, err
		}
		idx, err := decodeExpression(nd.Index)
		if err != nil {
			return nil, err
		}
		if nd.Kind == "index" {
			return &ast.Index{Span: span, Receiver: recv, Index: idx}, nil
		}
		vd, err := nd.valueNode()
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(vd)
		if err != nil {
			return nil, err
		}
		return &ast.IndexAssign{Span: span, Receiver: recv, Index: idx, Value: value}, nil

	case "property", "property_assign":
		recv, err := decodeExpression(nd.Receiver)
		if err != nil {
			return nil, err
		}
		if nd.Kind == "property" {
			return &ast.Property{Span: span, Receiver: recv, Name: nd.Name}, nil
		}
		vd, err := nd.valueNode()
		if err != nil {
			return nil, err
		}
		value, err := decodeExpression(vd)
		if err != nil {
			return nil, err
		}
		return &ast.PropertyAssign{Span: span, Receiver: recv, Name: nd.Name, Value: value}, nil

	case "array":
		elements, err := decodeExpressions(nd.Elements)
		if err != nil {
			return nil, err
		}
		return &ast.ArrayLiteral{Span: span, Elements: elements}, nil

	case "record":
		rec := &ast.RecordLiteral{Span: span}
		for _, f := range nd.Fields {
			value, err := decodeExpression(f.Value)
			if err != nil {
				return nil, err
			}
			rec.Fields = append(rec.Fields, ast.Field{Key: f.Key, Value: value})
		}
		return rec, nil
	}
	return nil, invalidNode(nd.Kind, "not an expression kind")
}
