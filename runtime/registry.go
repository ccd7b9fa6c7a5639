package runtime

import (
	"sort"
	"sync"
	"sync/atomic"

	"lama/logging"
)

var definitionSetIDs atomic.Uint64

// DefinitionSetID is the identity of one DefinitionSet, handed out once when
// the set is created and never derived from its contents.
type DefinitionSetID uint64

// DefinitionSet is a name to callable map produced by compiling one unit.
// It is not mutated after creation.
type DefinitionSet struct {
	id    DefinitionSetID
	names []string
	defs  map[string]Callable
}

// NewDefinitionSet copies defs and stamps the copy with a fresh identity.
// Two calls with equal maps produce two distinct sets.
func NewDefinitionSet(defs map[string]Callable) *DefinitionSet {
	set := &DefinitionSet{
		id:   DefinitionSetID(definitionSetIDs.Add(1)),
		defs: make(map[string]Callable, len(defs)),
	}
	for name, body := range defs {
		set.defs[name] = body
		set.names = append(set.names, name)
	}
	sort.Strings(set.names)
	return set
}

func (s *DefinitionSet) ID() DefinitionSetID { return s.id }

// Names returns the defined names in sorted order.
func (s *DefinitionSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

func (s *DefinitionSet) Get(name string) (Callable, bool) {
	body, ok := s.defs[name]
	return body, ok
}

func (s *DefinitionSet) Len() int { return len(s.names) }

// FunctionRegistry maps names to their current Function. It is the only
// structure in the interpreter that is safe for concurrent use, since several
// evaluation entries may try to register the same compiled unit.
type FunctionRegistry struct {
	mu        sync.Mutex
	functions map[string]*Function
	applied   map[DefinitionSetID]struct{}
	logger    logging.Logger
}

// NewFunctionRegistry creates an empty registry.
func NewFunctionRegistry(logger logging.Logger) *FunctionRegistry {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &FunctionRegistry{
		functions: make(map[string]*Function),
		applied:   make(map[DefinitionSetID]struct{}),
		logger:    logger.WithComponent("registry"),
	}
}

// LookupOrCreateUndefined returns the current binding for name, creating and
// storing an undefined placeholder when there is none.
func (r *FunctionRegistry) LookupOrCreateUndefined(name string) *Function {
	r.mu.Lock()
	defer r.mu.Unlock()

	if fn, ok := r.functions[name]; ok {
		return fn
	}
	fn := NewUndefinedFunction(name)
	r.functions[name] = fn
	return fn
}

// Lookup returns the current binding for name without creating one.
func (r *FunctionRegistry) Lookup(name string) (*Function, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fn, ok := r.functions[name]
	return fn, ok
}

// Redefine replaces whatever name is bound to with a new Function object.
// References handed out earlier, placeholders included, keep the old object.
func (r *FunctionRegistry) Redefine(name string, body Callable) *Function {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.redefineLocked(name, body)
}

func (r *FunctionRegistry) redefineLocked(name string, body Callable) *Function {
	fn := NewDefinedFunction(name, body)
	r.functions[name] = fn
	return fn
}

// Register applies every definition of set at most once per set identity.
// It reports whether this call applied the set.
func (r *FunctionRegistry) Register(set *DefinitionSet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, done := r.applied[set.id]; done {
		r.logger.Debug("definition set already registered",
			logging.Uint64Field("set", uint64(set.id)))
		return false
	}
	for _, name := range set.names {
		r.redefineLocked(name, set.defs[name])
	}
	r.applied[set.id] = struct{}{}
	r.logger.Debug("registered definition set",
		logging.Uint64Field("set", uint64(set.id)),
		logging.IntField("functions", len(set.names)))
	return true
}

// IsRegistered reports whether set has been applied.
func (r *FunctionRegistry) IsRegistered(set *DefinitionSet) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, done := r.applied[set.id]
	return done
}

// Functions returns every bound function sorted by name.
func (r *FunctionRegistry) Functions() []*Function {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*Function, 0, len(r.functions))
	for _, fn := range r.functions {
		out = append(out, fn)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}
