package lua

import (
	"testing"

	"lama/errors"
	"lama/runtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
)

func TestEvalArguments(t *testing.T) {
	b := NewLuaBridge()
	defer b.Close()

	args, err := b.EvalArguments(`1, "two", true, nil, {3, 4}, {name = "x", n = 2}`)
	require.NoError(t, err)
	require.Len(t, args, 6)

	assert.Equal(t, runtime.Int64(1), args[0])
	assert.Equal(t, runtime.String("two"), args[1])
	assert.Equal(t, runtime.True, args[2])
	assert.Equal(t, runtime.Value(runtime.Null), args[3])

	arr, ok := args[4].(*runtime.Array)
	require.True(t, ok)
	assert.Equal(t, []runtime.Value{runtime.Int64(3), runtime.Int64(4)}, arr.Elements())

	rec, ok := args[5].(*runtime.Record)
	require.True(t, ok)
	assert.Equal(t, []string{"n", "name"}, rec.Keys())

	// the stack is left balanced between calls
	args, err = b.EvalArguments("2 * 21")
	require.NoError(t, err)
	assert.Equal(t, []runtime.Value{runtime.Int64(42)}, args)
}

func TestEvalArgumentsEdgeCases(t *testing.T) {
	args, err := EvalArguments("   ")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = EvalArguments("1.5, {}")
	require.NoError(t, err)
	assert.Equal(t, runtime.Value(runtime.Null), args[0], "fractional numbers have no counterpart")
	assert.IsType(t, &runtime.Record{}, args[1])

	args, err = EvalArguments(`bytes("AB")`)
	require.NoError(t, err)
	arr, ok := args[0].(*runtime.Array)
	require.True(t, ok)
	assert.Equal(t, []runtime.Value{runtime.Int64(65), runtime.Int64(66)}, arr.Elements())

	_, err = EvalArguments("1 +")
	require.Error(t, err)
	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "LUA_ARGUMENTS", execErr.Code)
}

func TestFromLuaTables(t *testing.T) {
	L := lua.NewState()
	defer L.Close()

	sparse := L.NewTable()
	sparse.RawSetInt(1, lua.LNumber(1))
	sparse.RawSetInt(3, lua.LNumber(3))
	rec, ok := FromLua(sparse).(*runtime.Record)
	require.True(t, ok, "a table with holes is not a sequence")
	assert.Equal(t, []string{"1", "3"}, rec.Keys())

	cyclic := L.NewTable()
	cyclic.RawSetString("self", cyclic)
	rec, ok = FromLua(cyclic).(*runtime.Record)
	require.True(t, ok)
	self, _ := rec.Get("self")
	assert.Equal(t, runtime.Value(runtime.Null), self)
}

func TestConverter(t *testing.T) {
	v, ok := Converter(lua.LString("s"))
	assert.True(t, ok)
	assert.Equal(t, runtime.String("s"), v)

	_, ok = Converter("plain go string")
	assert.False(t, ok)

	assert.Equal(t, runtime.Int64(9), runtime.FromForeign(lua.LNumber(9), Converter))
}
