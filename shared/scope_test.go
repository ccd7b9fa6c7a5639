package shared

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockLocalsGoOutOfScope(t *testing.T) {
	fs := NewFunctionScope("f")
	x := fs.Declare("x")

	fs.EnterScope()
	inner := fs.Declare("x")
	assert.NotEqual(t, x, inner)
	slot, ok := fs.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, inner, slot)
	y := fs.Declare("y")
	fs.ExitScope()

	slot, ok = fs.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, x, slot, "the outer binding is visible again")
	_, ok = fs.Resolve("y")
	assert.False(t, ok)

	assert.Equal(t, 3, fs.Descriptor().Size())
	assert.Equal(t, "y", fs.Descriptor().SlotName(y))
}

func TestBindReusesVisibleSlot(t *testing.T) {
	fs := NewFunctionScope("f")
	x := fs.Bind("x")
	assert.Equal(t, x, fs.Bind("x"))

	fs.EnterScope()
	assert.Equal(t, x, fs.Bind("x"), "assignment in a block writes the outer variable")
	z := fs.Bind("z")
	fs.ExitScope()

	assert.NotEqual(t, z, fs.Bind("z"), "a block-local does not survive its block")
}

func TestLoopDepth(t *testing.T) {
	fs := NewFunctionScope("f")
	assert.False(t, fs.InLoop())
	fs.EnterLoop()
	fs.EnterLoop()
	fs.ExitLoop()
	assert.True(t, fs.InLoop())
	fs.ExitLoop()
	assert.False(t, fs.InLoop())
}

func TestScopeNames(t *testing.T) {
	outer := NewScope(nil)
	outer.Set("a", 0)
	inner := NewScope(outer)
	inner.Set("b", 1)

	names := inner.Names()
	sort.Strings(names)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, []string{"a"}, outer.Names())
	assert.Same(t, outer, inner.Outer())
}

func TestExitTopScopePanics(t *testing.T) {
	fs := NewFunctionScope("f")
	assert.Panics(t, fs.ExitScope)
}
