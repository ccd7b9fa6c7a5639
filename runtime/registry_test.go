package runtime

import (
	"sync"
	"sync/atomic"
	"testing"

	"lama/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type constBody struct {
	value Value
	calls *atomic.Int64
}

func (c constBody) Call(args []Value) (Value, error) {
	if c.calls != nil {
		c.calls.Add(1)
	}
	return c.value, nil
}

func TestLookupOrCreateUndefined(t *testing.T) {
	r := NewFunctionRegistry(nil)

	g := r.LookupOrCreateUndefined("g")
	assert.False(t, g.IsDefined())
	assert.Same(t, g, r.LookupOrCreateUndefined("g"))

	_, err := g.Call(nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUndefinedFunction))
	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "g", execErr.Function)
}

func TestRedefineLeavesPlaceholders(t *testing.T) {
	r := NewFunctionRegistry(nil)
	placeholder := r.LookupOrCreateUndefined("f")

	defined := r.Redefine("f", constBody{value: Int64(1)})
	assert.NotSame(t, placeholder, defined)
	assert.False(t, placeholder.IsDefined())

	current, ok := r.Lookup("f")
	require.True(t, ok)
	assert.Same(t, defined, current)

	v, err := current.Call(nil)
	require.NoError(t, err)
	assert.Equal(t, Int64(1), v)
}

func TestRegisterIsIdempotentPerSet(t *testing.T) {
	r := NewFunctionRegistry(nil)
	defs := map[string]Callable{"a": constBody{value: Int64(1)}, "b": constBody{value: Int64(2)}}

	set := NewDefinitionSet(defs)
	assert.Equal(t, []string{"a", "b"}, set.Names())
	assert.True(t, r.Register(set))
	a, _ := r.Lookup("a")

	assert.False(t, r.Register(set))
	again, _ := r.Lookup("a")
	assert.Same(t, a, again, "a repeated registration leaves bindings alone")
	assert.True(t, r.IsRegistered(set))

	equal := NewDefinitionSet(defs)
	assert.NotEqual(t, set.ID(), equal.ID())
	assert.False(t, r.IsRegistered(equal))
	assert.True(t, r.Register(equal), "equal contents are a different set")
	replaced, _ := r.Lookup("a")
	assert.NotSame(t, a, replaced)
}

func TestConcurrentRegister(t *testing.T) {
	r := NewFunctionRegistry(nil)
	set := NewDefinitionSet(map[string]Callable{"main": constBody{value: Null}})

	var applied atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Register(set) {
				applied.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), applied.Load())
	require.Len(t, r.Functions(), 1)
	assert.Equal(t, "main", r.Functions()[0].Name())
}

func TestFunctionsSortedByName(t *testing.T) {
	r := NewFunctionRegistry(nil)
	r.LookupOrCreateUndefined("zeta")
	r.Redefine("alpha", constBody{value: Null})
	r.LookupOrCreateUndefined("mid")

	var names []string
	for _, fn := range r.Functions() {
		names = append(names, fn.Name())
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}
