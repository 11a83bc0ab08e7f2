// Package heap implements the reference-counted heap slot primitive that
// backs every String, List, Tuple, and Closure value (spec.md §3, §4.11).
//
// A Slot is a byte buffer paired with a separate int32 refcount field (the
// Heap component of the original interpreter,
// original_source/src/xci/script/Heap.h, keeps the count as a prefix of the
// buffer instead): construction sets the count to 1,
// Incref/Decref adjust it, and the buffer is freed once the count reaches
// zero. Execution is single-threaded (spec.md §5), so the count is a plain
// int32, not an atomic.
package heap

// Slot is the unit of shared ownership for heap-allocated values. A nil
// *Slot is a valid, empty slot and Incref/Decref on it are no-ops (spec.md
// §4.11).
type Slot struct {
	refcount int32
	data     []byte
}

// New allocates a Slot of the given size with refcount 1.
func New(size int) *Slot {
	return &Slot{refcount: 1, data: make([]byte, size)}
}

// NewFromBytes allocates a Slot that owns a copy of b, with refcount 1.
func NewFromBytes(b []byte) *Slot {
	s := &Slot{refcount: 1, data: make([]byte, len(b))}
	copy(s.data, b)
	return s
}

// Bytes returns the slot's payload. The returned slice aliases the slot's
// storage; callers must not retain it past a Decref that could free it.
func (s *Slot) Bytes() []byte {
	if s == nil {
		return nil
	}
	return s.data
}

// Len returns the payload length, or 0 for a nil slot.
func (s *Slot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.data)
}

// Refcount reports the current reference count, or 0 for a nil slot.
func (s *Slot) Refcount() int32 {
	if s == nil {
		return 0
	}
	return s.refcount
}

// Incref bumps the reference count. No-op on a nil slot.
func (s *Slot) Incref() {
	if s == nil {
		return
	}
	s.refcount++
}

// Decref drops the reference count and frees the payload once it reaches
// zero. No-op on a nil slot. Returns true if this call freed the slot.
func (s *Slot) Decref() bool {
	if s == nil {
		return false
	}
	s.refcount--
	if s.refcount <= 0 {
		s.data = nil
		return true
	}
	return false
}

// GC is the explicit sweep entry point named in spec.md §3 ("gc: delete
// buffer when refcount reaches zero on explicit sweep"). In this
// single-threaded, eagerly-freeing implementation Decref already frees on
// the reaching-zero transition, so GC is a defensive alias kept for
// callers that model the two as distinct steps.
func (s *Slot) GC() {
	if s == nil {
		return
	}
	if s.refcount <= 0 {
		s.data = nil
	}
}
