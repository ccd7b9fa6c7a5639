package runtime

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind identifies the variant of a Value.
type Kind int

const (
	KindNull Kind = iota
	KindInt64
	KindBigInt
	KindBool
	KindString
	KindArray
	KindRecord
	KindFunction
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt64:
		return "int64"
	case KindBigInt:
		return "bigint"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindRecord:
		return "record"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Value is any runtime value of the language.
type Value interface {
	Kind() Kind
	String() string
}

// Int64 is a 64-bit integer, the common case for all arithmetic.
type Int64 int64

// Bool is a boolean.
type Bool bool

// String is an immutable string.
type String string

// NullValue is the type of the single Null instance.
type NullValue struct{}

// Null is the only NullValue ever created; compare with ==.
var Null = &NullValue{}

// True and False avoid re-boxing the two booleans.
var (
	True  Value = Bool(true)
	False Value = Bool(false)
)

func (Int64) Kind() Kind      { return KindInt64 }
func (Bool) Kind() Kind       { return KindBool }
func (String) Kind() Kind     { return KindString }
func (*NullValue) Kind() Kind { return KindNull }

func (v Int64) String() string    { return strconv.FormatInt(int64(v), 10) }
func (v Bool) String() string     { return strconv.FormatBool(bool(v)) }
func (v String) String() string   { return string(v) }
func (*NullValue) String() string { return "null" }

// BoolOf returns the shared boxed boolean for b.
func BoolOf(b bool) Value {
	if b {
		return True
	}
	return False
}

// BigInt is an arbitrary-precision integer. Arithmetic only produces one when
// the exact result does not fit in 64 bits; see Normalize.
type BigInt struct {
	val *big.Int
}

// NewBigInt wraps v without copying; callers hand over ownership.
func NewBigInt(v *big.Int) *BigInt {
	return &BigInt{val: v}
}

func (*BigInt) Kind() Kind { return KindBigInt }

func (b *BigInt) String() string { return b.val.String() }

// Big returns the underlying integer. It must not be mutated.
func (b *BigInt) Big() *big.Int { return b.val }

// Normalize returns an Int64 when v fits in 64 bits and a BigInt otherwise.
func Normalize(v *big.Int) Value {
	if v.IsInt64() {
		return Int64(v.Int64())
	}
	return NewBigInt(v)
}

// ToBig widens any integer value; ok is false for non-integers.
func ToBig(v Value) (*big.Int, bool) {
	switch n := v.(type) {
	case Int64:
		return big.NewInt(int64(n)), true
	case *BigInt:
		return n.val, true
	default:
		return nil, false
	}
}

// IsNumber reports whether v is an Int64 or a BigInt.
func IsNumber(v Value) bool {
	switch v.(type) {
	case Int64, *BigInt:
		return true
	}
	return false
}

// Array is a mutable, resizable sequence. Identity is the pointer.
type Array struct {
	elements []Value
}

// NewArray takes ownership of elements.
func NewArray(elements ...Value) *Array {
	if elements == nil {
		elements = []Value{}
	}
	return &Array{elements: elements}
}

func (*Array) Kind() Kind { return KindArray }

func (a *Array) Len() int { return len(a.elements) }

// Get returns the element at i; ok is false outside [0, Len()).
func (a *Array) Get(i int64) (Value, bool) {
	if i < 0 || i >= int64(len(a.elements)) {
		return nil, false
	}
	return a.elements[i], true
}

// Set stores v at i. Writing at Len() appends; ok is false otherwise
// outside [0, Len()].
func (a *Array) Set(i int64, v Value) bool {
	switch {
	case i >= 0 && i < int64(len(a.elements)):
		a.elements[i] = v
	case i == int64(len(a.elements)):
		a.elements = append(a.elements, v)
	default:
		return false
	}
	return true
}

func (a *Array) Append(v Value) {
	a.elements = append(a.elements, v)
}

// Elements returns a copy of the current contents.
func (a *Array) Elements() []Value {
	out := make([]Value, len(a.elements))
	copy(out, a.elements)
	return out
}

func (a *Array) String() string {
	parts := make([]string, len(a.elements))
	for i, e := range a.elements {
		parts[i] = Repr(e)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Record is a string-keyed mapping whose keys enumerate in insertion order.
type Record struct {
	keys   []string
	values map[string]Value
}

func NewRecord() *Record {
	return &Record{values: make(map[string]Value)}
}

func (*Record) Kind() Kind { return KindRecord }

func (r *Record) Len() int { return len(r.keys) }

// Get returns the member named key.
func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Put adds key at the end of the key order, or overwrites it in place.
func (r *Record) Put(key string, v Value) {
	if _, exists := r.values[key]; !exists {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

// Remove deletes key and reports whether it was present.
func (r *Record) Remove(key string) bool {
	if _, exists := r.values[key]; !exists {
		return false
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the member names in insertion order.
func (r *Record) Keys() []string {
	out := make([]string, len(r.keys))
	copy(out, r.keys)
	return out
}

func (r *Record) String() string {
	parts := make([]string, len(r.keys))
	for i, k := range r.keys {
		parts[i] = k + ": " + Repr(r.values[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// Repr is the nested rendering of a value: strings are quoted.
func Repr(v Value) string {
	if s, ok := v.(String); ok {
		return strconv.Quote(string(s))
	}
	return v.String()
}

// Equal compares two values of matching kind. ok is false when the kinds
// cannot be compared. Functions and null compare by identity against anything.
func Equal(left, right Value) (result bool, ok bool) {
	if lf, isFn := left.(*Function); isFn {
		return Value(lf) == right, true
	}
	if rf, isFn := right.(*Function); isFn {
		return left == Value(rf), true
	}
	if left == Value(Null) || right == Value(Null) {
		return left == right, true
	}
	switch l := left.(type) {
	case Int64:
		switch r := right.(type) {
		case Int64:
			return l == r, true
		case *BigInt:
			return false, true
		}
	case *BigInt:
		if r, isNum := ToBig(right); isNum {
			return l.val.Cmp(r) == 0, true
		}
	case Bool:
		if r, match := right.(Bool); match {
			return l == r, true
		}
	case String:
		if r, match := right.(String); match {
			return l == r, true
		}
	case *Array:
		if r, match := right.(*Array); match {
			return l == r, true
		}
	case *Record:
		if r, match := right.(*Record); match {
			return l == r, true
		}
	}
	return false, false
}

// ParseIntLiteral turns integer literal text into an Int64, or a BigInt when
// the literal does not fit in 64 bits.
func ParseIntLiteral(text string) (Value, error) {
	if n, err := strconv.ParseInt(text, 10, 64); err == nil {
		return Int64(n), nil
	}
	v, ok := new(big.Int).SetString(text, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer literal %q", text)
	}
	return Normalize(v), nil
}

// FloorDiv divides rounding toward negative infinity. ok is false on a zero
// divisor or when the quotient overflows (MinInt64 / -1).
func FloorDiv(a, b int64) (int64, bool) {
	if b == 0 || (a == math.MinInt64 && b == -1) {
		return 0, false
	}
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q, true
}

// FloorMod returns the remainder whose sign follows the divisor.
func FloorMod(a, b int64) (int64, bool) {
	if b == 0 {
		return 0, false
	}
	if b == -1 {
		return 0, true
	}
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m, true
}

// BigFloorDiv is FloorDiv over arbitrary precision. b must be non-zero.
func BigFloorDiv(a, b *big.Int) *big.Int {
	q, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() != b.Sign()) {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

// BigFloorMod is FloorMod over arbitrary precision. b must be non-zero.
func BigFloorMod(a, b *big.Int) *big.Int {
	_, r := new(big.Int).QuoRem(a, b, new(big.Int))
	if r.Sign() != 0 && (r.Sign() != b.Sign()) {
		r.Add(r, b)
	}
	return r
}
