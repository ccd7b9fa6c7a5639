package engine

import (
	stderrors "errors"

	"lama/ast"
	"lama/logging"
	"lama/runtime"
)

// errRewrite is returned by a specialization whose fast path cannot produce
// the right answer for this input, e.g. on int64 overflow. The node then
// abandons that specialization and tries the next one. It never escapes a
// node.
var errRewrite = stderrors.New("engine: rewrite")

const uninitialized = "uninitialized"

// specialization is one guarded strategy of an operator node. A nil guard
// accepts every input; such an entry is the node's generic fallback and must
// be last.
type specialization[In any] struct {
	name    string
	guard   func(in In) bool
	execute func(in In) (runtime.Value, error)
}

// specializer holds the ordered strategies of one node and remembers which
// one is active. Leaving a specialization, through a failed guard or a
// rewrite, only ever moves to a later entry, so a node settles after at most
// len(specs) transitions and the generic fallback is never left again.
type specializer[In any] struct {
	ctx         *Context
	op          string
	site        ast.Span
	specs       []specialization[In]
	active      int
	transitions int
}

func newSpecializer[In any](ctx *Context, op string, span ast.Span, specs ...specialization[In]) specializer[In] {
	return specializer[In]{
		ctx:    ctx,
		op:     op,
		site:   span,
		specs:  specs,
		active: -1,
	}
}

func (s *specializer[In]) execute(in In) (runtime.Value, error) {
	if s.active >= 0 {
		spec := &s.specs[s.active]
		if spec.guard == nil || spec.guard(in) {
			v, err := spec.execute(in)
			if err != errRewrite {
				return v, err
			}
		}
		return s.respecialize(in, s.active+1)
	}
	return s.respecialize(in, 0)
}

func (s *specializer[In]) respecialize(in In, from int) (runtime.Value, error) {
	for i := from; i < len(s.specs); i++ {
		spec := &s.specs[i]
		if spec.guard != nil && !spec.guard(in) {
			continue
		}
		s.activate(i)
		v, err := spec.execute(in)
		if err == errRewrite {
			continue
		}
		return v, err
	}
	// Only reachable for lists without a generic fallback.
	return nil, errRewrite
}

func (s *specializer[In]) activate(i int) {
	if s.active == i {
		return
	}
	from := s.name()
	s.active = i
	s.transitions++
	if s.ctx.debugEnabled() {
		s.ctx.Logger.Debug("node specialized",
			logging.StringField("operator", s.op),
			logging.StringField("from", from),
			logging.StringField("to", s.specs[i].name),
			logging.StringField("span", s.site.String()))
	}
}

// name returns the active specialization's name.
func (s *specializer[In]) name() string {
	if s.active < 0 {
		return uninitialized
	}
	return s.specs[s.active].name
}

func (s *specializer[In]) isGeneric() bool {
	return s.active >= 0 && s.specs[s.active].guard == nil
}

// Specialized is implemented by every node that adapts to operand kinds.
type Specialized interface {
	Node
	// Specialization names the currently active strategy.
	Specialization() string
	// IsGeneric reports whether the node has settled on its fallback.
	IsGeneric() bool
	// Transitions counts how often the active strategy changed.
	Transitions() int
}

func (s *specializer[In]) Specialization() string { return s.name() }
func (s *specializer[In]) IsGeneric() bool        { return s.isGeneric() }
func (s *specializer[In]) Transitions() int       { return s.transitions }

// operands is the input of binary operator nodes.
type operands struct {
	left, right runtime.Value
}

func bothInt64(in operands) bool {
	_, l := in.left.(runtime.Int64)
	_, r := in.right.(runtime.Int64)
	return l && r
}

func bothNumbers(in operands) bool {
	return runtime.IsNumber(in.left) && runtime.IsNumber(in.right)
}

func bothStrings(in operands) bool {
	_, l := in.left.(runtime.String)
	_, r := in.right.(runtime.String)
	return l && r
}

func bothBools(in operands) bool {
	_, l := in.left.(runtime.Bool)
	_, r := in.right.(runtime.Bool)
	return l && r
}
