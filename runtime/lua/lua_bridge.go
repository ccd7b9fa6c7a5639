// Package lua builds argument vectors for the interpreter from Lua
// expressions and converts Lua values into the interpreter's value model.
package lua

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"
	"sync"

	"lama/errors"
	"lama/runtime"

	"github.com/funvibe/funbit/pkg/funbit"
	lua "github.com/yuin/gopher-lua"
)

// LuaBridge owns one Lua state used to evaluate argument expressions such as
// `1, "two", {3, 4}, {name = "x"}, bytes("raw")`.
type LuaBridge struct {
	state *lua.LState
	mu    sync.Mutex
}

// NewLuaBridge creates a bridge with the base libraries and the bytes helper.
func NewLuaBridge() *LuaBridge {
	state := lua.NewState()
	b := &LuaBridge{state: state}
	b.registerHelpers()
	return b
}

// registerHelpers exposes bytes(s) which wraps a string in a bitstring; the
// bitstring arrives on the interpreter side as an array of byte values.
func (b *LuaBridge) registerHelpers() {
	b.state.SetGlobal("bytes", b.state.NewFunction(func(L *lua.LState) int {
		data := L.CheckString(1)
		ud := L.NewUserData()
		ud.Value = funbit.NewBitStringFromBytes([]byte(data))
		L.Push(ud)
		return 1
	}))
}

// EvalArguments evaluates expr as a Lua expression list and converts every
// resulting value. An empty expression yields no arguments.
func (b *LuaBridge) EvalArguments(expr string) ([]runtime.Value, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if strings.TrimSpace(expr) == "" {
		return nil, nil
	}

	base := b.state.GetTop()
	if err := b.state.DoString("return " + expr); err != nil {
		return nil, errors.NewValidationError("LUA_ARGUMENTS", fmt.Sprintf("cannot evaluate arguments %q", expr)).Wrap(err)
	}
	top := b.state.GetTop()
	args := make([]runtime.Value, 0, top-base)
	for i := base + 1; i <= top; i++ {
		args = append(args, FromLua(b.state.Get(i)))
	}
	b.state.Pop(top - base)
	return args, nil
}

// Close releases the Lua state.
func (b *LuaBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != nil {
		b.state.Close()
		b.state = nil
	}
}

// EvalArguments is a one-shot helper using a throwaway bridge.
func EvalArguments(expr string) ([]runtime.Value, error) {
	b := NewLuaBridge()
	defer b.Close()
	return b.EvalArguments(expr)
}

// Converter lets the engine accept lua.LValue arguments directly.
func Converter(v interface{}) (runtime.Value, bool) {
	if lv, ok := v.(lua.LValue); ok {
		return FromLua(lv), true
	}
	return nil, false
}

// FromLua converts a Lua value. Non-integral numbers, functions and other
// kinds the interpreter has no counterpart for become Null.
func FromLua(value lua.LValue) runtime.Value {
	return fromLuaWithVisited(value, make(map[uintptr]bool))
}

func fromLuaWithVisited(value lua.LValue, visited map[uintptr]bool) runtime.Value {
	switch value.Type() {
	case lua.LTString:
		return runtime.String(value.String())
	case lua.LTNumber:
		num := float64(value.(lua.LNumber))
		if num != math.Trunc(num) {
			return runtime.Null
		}
		return runtime.FromForeign(num)
	case lua.LTBool:
		return runtime.BoolOf(bool(value.(lua.LBool)))
	case lua.LTNil:
		return runtime.Null
	case lua.LTUserData:
		return runtime.FromForeign(value.(*lua.LUserData).Value)
	case lua.LTTable:
		ptr := reflect.ValueOf(value).Pointer()
		if visited[ptr] {
			return runtime.Null
		}
		visited[ptr] = true
		defer delete(visited, ptr)
		return fromTable(value.(*lua.LTable), visited)
	default:
		return runtime.Null
	}
}

// fromTable turns a sequence 1..n into an Array and anything else into a
// Record with keys in sorted order.
func fromTable(table *lua.LTable, visited map[uintptr]bool) runtime.Value {
	isArray := true
	count := 0
	table.ForEach(func(key, _ lua.LValue) {
		count++
		if key.Type() != lua.LTNumber {
			isArray = false
		}
	})

	if isArray && count > 0 && table.MaxN() == count {
		elements := make([]runtime.Value, count)
		for i := 1; i <= count; i++ {
			elements[i-1] = fromLuaWithVisited(table.RawGetInt(i), visited)
		}
		return runtime.NewArray(elements...)
	}

	members := make(map[string]runtime.Value)
	keys := make([]string, 0, count)
	table.ForEach(func(key, val lua.LValue) {
		var keyStr string
		if key.Type() == lua.LTNumber {
			num := float64(key.(lua.LNumber))
			if num == math.Trunc(num) {
				keyStr = fmt.Sprintf("%.0f", num)
			} else {
				keyStr = fmt.Sprintf("%v", num)
			}
		} else {
			keyStr = key.String()
		}
		keys = append(keys, keyStr)
		members[keyStr] = fromLuaWithVisited(val, visited)
	})
	sort.Strings(keys)

	rec := runtime.NewRecord()
	for _, k := range keys {
		rec.Put(k, members[k])
	}
	return rec
}
