package ast

// Block is a brace-delimited statement list; it opens a new lexical scope.
type Block struct {
	Span
	Statements []Statement
}

// If has an optional Else branch.
type If struct {
	Span
	Condition Expression
	Then      Statement
	Else      Statement
}

type While struct {
	Span
	Condition Expression
	Body      Statement
}

type Break struct {
	Span
}

type Continue struct {
	Span
}

// Return carries an optional value; nil returns null.
type Return struct {
	Span
	Value Expression
}

// VarDecl always introduces a fresh local in the current scope, shadowing any
// outer binding of the same name until the scope closes.
type VarDecl struct {
	Span
	Name  string
	Value Expression
}

// ExpressionStatement evaluates an expression and discards nothing: a block
// used as a value yields its last statement's value.
type ExpressionStatement struct {
	Span
	Expression Expression
}

func (*Block) statementMarker()               {}
func (*If) statementMarker()                  {}
func (*While) statementMarker()               {}
func (*Break) statementMarker()               {}
func (*Continue) statementMarker()            {}
func (*Return) statementMarker()              {}
func (*VarDecl) statementMarker()             {}
func (*ExpressionStatement) statementMarker() {}
