package runtime

import (
	"math"
	"math/big"
	"sort"

	"github.com/funvibe/funbit/pkg/funbit"
)

// ForeignConverter converts one host value it recognizes; ok is false for
// values it does not handle.
type ForeignConverter func(v interface{}) (value Value, ok bool)

// FromForeign converts a host value into the value model. Converters are
// consulted first; anything nobody recognizes becomes Null.
func FromForeign(v interface{}, converters ...ForeignConverter) Value {
	for _, convert := range converters {
		if value, ok := convert(v); ok {
			return value
		}
	}

	switch x := v.(type) {
	case nil:
		return Null
	case Value:
		return x
	case bool:
		return BoolOf(x)
	case int:
		return Int64(x)
	case int8:
		return Int64(x)
	case int16:
		return Int64(x)
	case int32:
		return Int64(x)
	case int64:
		return Int64(x)
	case uint:
		return Normalize(new(big.Int).SetUint64(uint64(x)))
	case uint8:
		return Int64(x)
	case uint16:
		return Int64(x)
	case uint32:
		return Int64(x)
	case uint64:
		return Normalize(new(big.Int).SetUint64(x))
	case float64:
		return fromFloat(x)
	case float32:
		return fromFloat(float64(x))
	case *big.Int:
		return Normalize(new(big.Int).Set(x))
	case string:
		return String(x)
	case []byte:
		return bytesToArray(x)
	case *funbit.BitString:
		return bytesToArray(x.ToBytes())
	case []interface{}:
		elements := make([]Value, len(x))
		for i, e := range x {
			elements[i] = FromForeign(e, converters...)
		}
		return NewArray(elements...)
	case []Value:
		return NewArray(append([]Value(nil), x...)...)
	case map[string]interface{}:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		rec := NewRecord()
		for _, k := range keys {
			rec.Put(k, FromForeign(x[k], converters...))
		}
		return rec
	default:
		return Null
	}
}

// fromFloat accepts integral floats only; JSON and Lua numbers arrive this way.
func fromFloat(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Null
	}
	if f >= -(1<<63) && f < (1<<63) {
		return Int64(int64(f))
	}
	b, _ := big.NewFloat(f).Int(nil)
	return Normalize(b)
}

func bytesToArray(data []byte) *Array {
	elements := make([]Value, len(data))
	for i, b := range data {
		elements[i] = Int64(b)
	}
	return NewArray(elements...)
}

// ToHost converts a value back into plain Go data: int64, *big.Int, bool,
// string, nil, []interface{}, map[string]interface{}. Functions become their
// name.
func ToHost(v Value) interface{} {
	switch x := v.(type) {
	case Int64:
		return int64(x)
	case *BigInt:
		return new(big.Int).Set(x.val)
	case Bool:
		return bool(x)
	case String:
		return string(x)
	case *Array:
		out := make([]interface{}, len(x.elements))
		for i, e := range x.elements {
			out[i] = ToHost(e)
		}
		return out
	case *Record:
		out := make(map[string]interface{}, len(x.keys))
		for _, k := range x.keys {
			out[k] = ToHost(x.values[k])
		}
		return out
	case *Function:
		return x.name
	default:
		return nil
	}
}
