package runtime

// SlotKind is the storage representation a slot currently uses. Kinds only
// move forward: Uninitialized to Int64 or Bool, and anything to Object.
type SlotKind uint8

const (
	SlotUninitialized SlotKind = iota
	SlotInt64
	SlotBool
	SlotObject
)

func (k SlotKind) String() string {
	switch k {
	case SlotUninitialized:
		return "uninitialized"
	case SlotInt64:
		return "int64"
	case SlotBool:
		return "bool"
	case SlotObject:
		return "object"
	default:
		return "unknown"
	}
}

// FrameDescriptor is the static layout of one function's frames: the slot
// names in allocation order and each slot's kind. The kinds are shared by all
// activations of the function, so a transition seen by one call is seen by
// every later call.
type FrameDescriptor struct {
	names []string
	kinds []SlotKind
}

func NewFrameDescriptor() *FrameDescriptor {
	return &FrameDescriptor{}
}

// AddSlot allocates a new slot. Slots are never reused, even when a name is
// allocated twice.
func (d *FrameDescriptor) AddSlot(name string) int {
	d.names = append(d.names, name)
	d.kinds = append(d.kinds, SlotUninitialized)
	return len(d.names) - 1
}

func (d *FrameDescriptor) Size() int { return len(d.names) }

func (d *FrameDescriptor) SlotName(slot int) string { return d.names[slot] }

func (d *FrameDescriptor) Kind(slot int) SlotKind { return d.kinds[slot] }

// Frame is the storage of one activation. Int64 and Bool payloads stay
// unboxed in prims; Object payloads live in objects. tags records how each
// slot of this particular frame was last written, which can lag behind the
// shared descriptor kind when a nested call of the same function boxed it.
type Frame struct {
	desc    *FrameDescriptor
	args    []Value
	prims   []int64
	objects []Value
	tags    []SlotKind
}

// NewFrame allocates storage for one call with the given argument vector.
func NewFrame(desc *FrameDescriptor, args []Value) *Frame {
	n := desc.Size()
	return &Frame{
		desc:    desc,
		args:    args,
		prims:   make([]int64, n),
		objects: make([]Value, n),
		tags:    make([]SlotKind, n),
	}
}

func (f *Frame) Descriptor() *FrameDescriptor { return f.desc }

// Arguments returns the raw argument vector of the call.
func (f *Frame) Arguments() []Value { return f.args }

// Argument returns argument i, or Null when the caller passed fewer.
func (f *Frame) Argument(i int) Value {
	if i < len(f.args) {
		return f.args[i]
	}
	return Null
}

// Kind returns the shared kind of slot.
func (f *Frame) Kind(slot int) SlotKind { return f.desc.kinds[slot] }

// IsInt64 reports whether slot holds an unboxed integer in this frame.
func (f *Frame) IsInt64(slot int) bool { return f.tags[slot] == SlotInt64 }

// IsBool reports whether slot holds an unboxed boolean in this frame.
func (f *Frame) IsBool(slot int) bool { return f.tags[slot] == SlotBool }

// ReadInt64 requires IsInt64(slot).
func (f *Frame) ReadInt64(slot int) int64 { return f.prims[slot] }

// ReadBool requires IsBool(slot).
func (f *Frame) ReadBool(slot int) bool { return f.prims[slot] != 0 }

// WriteInt64 stores v unboxed. It fails, leaving the slot untouched, when the
// slot kind is neither Int64 nor Uninitialized.
func (f *Frame) WriteInt64(slot int, v int64) bool {
	switch f.desc.kinds[slot] {
	case SlotUninitialized:
		f.desc.kinds[slot] = SlotInt64
	case SlotInt64:
	default:
		return false
	}
	f.prims[slot] = v
	f.tags[slot] = SlotInt64
	return true
}

// WriteBool stores v unboxed under the same rule as WriteInt64.
func (f *Frame) WriteBool(slot int, v bool) bool {
	switch f.desc.kinds[slot] {
	case SlotUninitialized:
		f.desc.kinds[slot] = SlotBool
	case SlotBool:
	default:
		return false
	}
	if v {
		f.prims[slot] = 1
	} else {
		f.prims[slot] = 0
	}
	f.tags[slot] = SlotBool
	return true
}

// WriteObject moves the slot kind to Object for good and stores v boxed.
func (f *Frame) WriteObject(slot int, v Value) {
	f.desc.kinds[slot] = SlotObject
	f.objects[slot] = v
	f.tags[slot] = SlotObject
}

// Write stores v using the cheapest representation the slot kind allows;
// any mismatch boxes the slot.
func (f *Frame) Write(slot int, v Value) {
	switch x := v.(type) {
	case Int64:
		if f.WriteInt64(slot, int64(x)) {
			return
		}
	case Bool:
		if f.WriteBool(slot, bool(x)) {
			return
		}
	}
	f.WriteObject(slot, v)
}

// Read returns the slot content boxed. An unwritten slot reads as Null.
func (f *Frame) Read(slot int) Value {
	switch f.tags[slot] {
	case SlotInt64:
		return Int64(f.prims[slot])
	case SlotBool:
		return BoolOf(f.prims[slot] != 0)
	case SlotObject:
		return f.objects[slot]
	default:
		return Null
	}
}

// IsWritten reports whether this activation has stored into slot.
func (f *Frame) IsWritten(slot int) bool { return f.tags[slot] != SlotUninitialized }

// Lookup returns the value of the most recently allocated slot named name.
// It is meant for inspection from outside the node tree, e.g. a debugger.
func (f *Frame) Lookup(name string) (Value, bool) {
	for slot := len(f.desc.names) - 1; slot >= 0; slot-- {
		if f.desc.names[slot] == name {
			return f.Read(slot), true
		}
	}
	return nil, false
}
