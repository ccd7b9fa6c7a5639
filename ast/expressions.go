package ast

// IntLiteral keeps the literal text so that values wider than 64 bits survive.
type IntLiteral struct {
	Span
	Text string
}

type StringLiteral struct {
	Span
	Value string
}

type BoolLiteral struct {
	Span
	Value bool
}

type NullLiteral struct {
	Span
}

// Name reads a local variable, or refers to a function when no local with
// that name is visible.
type Name struct {
	Span
	Name string
}

// Assign stores into a visible local, or binds a new one in the current scope.
type Assign struct {
	Span
	Name  string
	Value Expression
}

// Binary covers arithmetic, comparison and the short-circuit operators.
// Op is one of + - * / % < <= > >= == != && ||.
type Binary struct {
	Span
	Op    string
	Left  Expression
	Right Expression
}

// Not is logical negation.
type Not struct {
	Span
	Operand Expression
}

// Call invokes the function Callee evaluates to.
type Call struct {
	Span
	Callee Expression
	Args   []Expression
}

// Index is receiver[index].
type Index struct {
	Span
	Receiver Expression
	Index    Expression
}

// IndexAssign is receiver[index] = value.
type IndexAssign struct {
	Span
	Receiver Expression
	Index    Expression
	Value    Expression
}

// Property is receiver.name.
type Property struct {
	Span
	Receiver Expression
	Name     string
}

// PropertyAssign is receiver.name = value.
type PropertyAssign struct {
	Span
	Receiver Expression
	Name     string
	Value    Expression
}

type ArrayLiteral struct {
	Span
	Elements []Expression
}

// Field is one key/value entry of a record literal.
type Field struct {
	Key   string
	Value Expression
}

type RecordLiteral struct {
	Span
	Fields []Field
}

func (*IntLiteral) expressionMarker()     {}
func (*StringLiteral) expressionMarker()  {}
func (*BoolLiteral) expressionMarker()    {}
func (*NullLiteral) expressionMarker()    {}
func (*Name) expressionMarker()           {}
func (*Assign) expressionMarker()         {}
func (*Binary) expressionMarker()         {}
func (*Not) expressionMarker()            {}
func (*Call) expressionMarker()           {}
func (*Index) expressionMarker()          {}
func (*IndexAssign) expressionMarker()    {}
func (*Property) expressionMarker()       {}
func (*PropertyAssign) expressionMarker() {}
func (*ArrayLiteral) expressionMarker()   {}
func (*RecordLiteral) expressionMarker()  {}
