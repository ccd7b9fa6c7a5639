// Package ast holds the unresolved node tree handed to the interpreter by an
// external parser. Names are still plain strings here; slot assignment happens
// when the engine builds executable nodes from a Unit.
package ast

// Node is implemented by every tree element.
type Node interface {
	NodeSpan() Span
}

// Expression is a node that produces a value.
type Expression interface {
	Node
	expressionMarker()
}

// Statement is a node executed for its effect or control transfer.
type Statement interface {
	Node
	statementMarker()
}

// Param is a formal parameter of a function.
type Param struct {
	Span
	Name string
}

// FunctionDecl is one named function definition.
type FunctionDecl struct {
	Span
	Name   string
	Params []Param
	Body   *Block
}

// Unit is everything one parse produced: the source name plus every function
// definition in textual order.
type Unit struct {
	Name      string
	Functions []*FunctionDecl
}

// Function returns the declaration named name, if the unit defines one.
func (u *Unit) Function(name string) (*FunctionDecl, bool) {
	for _, fn := range u.Functions {
		if fn.Name == name {
			return fn, true
		}
	}
	return nil, false
}
