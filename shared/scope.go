package shared

import (
	"lama/runtime"
)

// LexicalScope maps the names visible at one point of a function body to
// frame slots. A nested scope starts as a copy of its outer scope, so leaving
// it restores the outer view without undoing anything.
type LexicalScope struct {
	outer  *LexicalScope
	locals map[string]int
}

// NewScope creates a scope that inherits every binding of outer.
func NewScope(outer *LexicalScope) *LexicalScope {
	s := &LexicalScope{
		outer:  outer,
		locals: make(map[string]int),
	}
	if outer != nil {
		for name, slot := range outer.locals {
			s.locals[name] = slot
		}
	}
	return s
}

// Get returns the slot name is bound to in this scope.
func (s *LexicalScope) Get(name string) (int, bool) {
	slot, ok := s.locals[name]
	return slot, ok
}

// Set records or overwrites the binding of name in this scope only.
func (s *LexicalScope) Set(name string, slot int) {
	s.locals[name] = slot
}

// Outer returns the enclosing scope, nil for a function's top scope.
func (s *LexicalScope) Outer() *LexicalScope {
	return s.outer
}

// Names returns every visible name.
func (s *LexicalScope) Names() []string {
	names := make([]string, 0, len(s.locals))
	for name := range s.locals {
		names = append(names, name)
	}
	return names
}

// FunctionScope resolves the locals of one function while its node tree is
// being built. Slots are allocated in the function's frame descriptor and are
// never reclaimed: a block-local keeps its slot after the block closes, it
// just stops being reachable by name.
type FunctionScope struct {
	name       string
	descriptor *runtime.FrameDescriptor
	current    *LexicalScope
	loopDepth  int
}

// NewFunctionScope opens the top scope of function name.
func NewFunctionScope(name string) *FunctionScope {
	return &FunctionScope{
		name:       name,
		descriptor: runtime.NewFrameDescriptor(),
		current:    NewScope(nil),
	}
}

// Name returns the function being resolved.
func (f *FunctionScope) Name() string { return f.name }

// Descriptor returns the frame layout built so far.
func (f *FunctionScope) Descriptor() *runtime.FrameDescriptor { return f.descriptor }

// Current returns the innermost scope.
func (f *FunctionScope) Current() *LexicalScope { return f.current }

// EnterScope pushes a scope that sees every binding visible now.
func (f *FunctionScope) EnterScope() {
	f.current = NewScope(f.current)
}

// ExitScope drops the innermost scope and everything bound in it.
func (f *FunctionScope) ExitScope() {
	if f.current.outer == nil {
		panic("shared: ExitScope on the top scope of " + f.name)
	}
	f.current = f.current.outer
}

// Resolve returns the slot of the nearest visible binding of name. A name
// with no binding refers to a function.
func (f *FunctionScope) Resolve(name string) (int, bool) {
	return f.current.Get(name)
}

// Bind returns the slot for an assignment to name: the visible binding when
// there is one, otherwise a fresh slot bound in the innermost scope.
func (f *FunctionScope) Bind(name string) int {
	if slot, ok := f.current.Get(name); ok {
		return slot
	}
	return f.Declare(name)
}

// Declare always allocates a fresh slot for name in the innermost scope,
// shadowing any outer binding until the scope closes.
func (f *FunctionScope) Declare(name string) int {
	slot := f.descriptor.AddSlot(name)
	f.current.Set(name, slot)
	return slot
}

// EnterLoop and ExitLoop bracket a loop body so break and continue can be
// checked statically.
func (f *FunctionScope) EnterLoop() { f.loopDepth++ }

func (f *FunctionScope) ExitLoop() { f.loopDepth-- }

// InLoop reports whether a loop encloses the current position.
func (f *FunctionScope) InLoop() bool { return f.loopDepth > 0 }
