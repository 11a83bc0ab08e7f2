// Package value implements the tagged Value wrapper of spec.md §3: plain
// scalars held inline, String/List/Function holding a reference-counted
// heap.Slot, and Tuple holding its items inline (its stack footprint is the
// sum of its subtypes' sizes, not a separate allocation — spec.md §3).
//
// spec.md models the VM stack as a flat down-growing byte buffer with
// Value::write/read serialising to/from it. The teacher's own VM
// (_examples/funvibe-funxy/internal/vm/value.go) instead keeps a tagged Go
// struct (`Type ValueType; Data uint64; Obj evaluator.Object`) and never
// serialises to raw bytes at all — idiomatic Go favors exactly that, and
// since our stack (internal/machine) is a slice of Value rather than a byte
// array, there are no Write/Read methods here: the machine pushes and pops
// whole Values, one slot each. This is documented as an explicit adaptation in
// DESIGN.md: every spec.md invariant about push/pull balancing the type
// stack and IncRef/DecRef bookkeeping is preserved, only the literal
// "flat byte buffer" implementation detail is swapped for a Go slice.
package value

import (
	"math"

	"github.com/emberlang/ember/internal/heap"
	"github.com/emberlang/ember/internal/types"
)

// Value is a stack-representable runtime value.
type Value struct {
	Type types.TypeInfo

	// Scalar payload for Bool/Byte/Char/Int32/Int64/Float32/Float64.
	Data uint64

	// Slot backs String/List/Function (closures): the heap-allocated
	// buffer whose refcount this Value shares ownership of.
	Slot *heap.Slot

	// Items backs Tuple: its component values, stored inline (no slot of
	// its own — spec.md §3).
	Items []Value

	// Closure is set when Type.Tag == Function: the called function plus
	// (optionally) its captured-non-locals slot. Untyped to avoid a
	// value<->module import cycle; module.Function is expected.
	Closure *Closure
}

// Closure pairs a raw function reference with its captured non-local
// values (spec.md §3 GLOSSARY: "Closure"). Free is the shared refcount
// marker (spec.md §4.11's heap slot); Captured holds the actual values in
// declaration order, following the same split List uses between a slot
// that exists purely to be refcounted and a plain Go slice for the
// payload (spec.md's byte-buffer Heap has no notion of a slice of typed
// Values, so this is the same value-slot adaptation documented above).
type Closure struct {
	Fn       any // *module.Function
	Free     *heap.Slot
	Captured []Value
}

// Void is the canonical Void value.
func Void() Value { return Value{Type: types.NewPrimitive(types.Void)} }

func Bool(b bool) Value {
	v := Value{Type: types.NewPrimitive(types.Bool)}
	if b {
		v.Data = 1
	}
	return v
}

func Byte(b byte) Value { return Value{Type: types.NewPrimitive(types.Byte), Data: uint64(b)} }
func Char(r rune) Value { return Value{Type: types.NewPrimitive(types.Char), Data: uint64(uint32(r))} }
func Int32(i int32) Value {
	return Value{Type: types.NewPrimitive(types.Int32), Data: uint64(uint32(i))}
}
func Int64(i int64) Value { return Value{Type: types.NewPrimitive(types.Int64), Data: uint64(i)} }

func Float32(f float32) Value {
	return Value{Type: types.NewPrimitive(types.Float32), Data: uint64(math.Float32bits(f))}
}
func Float64(f float64) Value {
	return Value{Type: types.NewPrimitive(types.Float64), Data: math.Float64bits(f)}
}

func (v Value) AsBool() bool       { return v.Data != 0 }
func (v Value) AsByte() byte       { return byte(v.Data) }
func (v Value) AsChar() rune       { return rune(uint32(v.Data)) }
func (v Value) AsInt32() int32     { return int32(uint32(v.Data)) }
func (v Value) AsInt64() int64     { return int64(v.Data) }
func (v Value) AsFloat32() float32 { return math.Float32frombits(uint32(v.Data)) }
func (v Value) AsFloat64() float64 { return math.Float64frombits(v.Data) }

// NewString allocates a fresh heap slot holding s's bytes, refcount 1.
func NewString(s string) Value {
	return Value{Type: types.NewPrimitive(types.String), Slot: heap.NewFromBytes([]byte(s))}
}

func (v Value) AsString() string { return string(v.Slot.Bytes()) }

// NewListFromItems builds a List of elemType from items. The items are kept
// as a plain []Value in Items; the List's Slot is an empty heap slot that
// exists only to carry the shared refcount.
func NewListFromItems(elemType types.TypeInfo, items []Value) Value {
	v := Value{Type: types.NewList(elemType)}
	v.Slot = heap.New(0) // presence marks "allocated"; payload lives in Items
	v.Items = items
	return v
}

func (v Value) AsList() []Value { return v.Items }

// NewTuple builds a Tuple value from its component values (no slot of its
// own, per spec.md §3).
func NewTuple(items ...Value) Value {
	subtypes := make([]types.TypeInfo, len(items))
	for i, it := range items {
		subtypes[i] = it.Type
	}
	return Value{Type: types.NewTuple(subtypes...), Items: items}
}

// NewClosure wraps fn (a *module.Function) with its captured non-locals.
func NewClosure(sig *types.Signature, fn any, free *heap.Slot, captured []Value) Value {
	return Value{Type: types.NewFunction(sig), Slot: free, Closure: &Closure{Fn: fn, Free: free, Captured: captured}}
}

// Size returns the value's fixed stack size per its type (spec.md §3).
func (v Value) Size() int { return v.Type.Size() }

// Incref bumps the refcount of every heap slot this value directly owns:
// its own Slot, plus (recursively) any Tuple items (spec.md §4.11).
func (v Value) Incref() {
	v.Slot.Incref()
	for _, it := range v.Items {
		if v.Type.Tag != types.Tuple {
			break
		}
		it.Incref()
	}
}

// Decref drops the refcount of every heap slot this value directly owns.
func (v Value) Decref() {
	v.Slot.Decref()
	if v.Type.Tag == types.Tuple {
		for _, it := range v.Items {
			it.Decref()
		}
	}
}
