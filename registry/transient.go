// Package registry implements the two resource-store flavours from
// spec.md §4.2: a per-frame Transient registry (fixed capacity, reset as a
// whole between frames) and a cross-frame Persistent registry (chunked,
// individually freed, with no reference counting). Both hand out handle.Handle
// values and validate them by generation, following the
// storage-slot-plus-epoch pattern of core/storage.go and core/registry.go
// in the teacher.
package registry

import (
	"sync/atomic"

	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/internal/diag"
)

// Transient is a fixed-capacity, per-frame resource store. Allocation is a
// single fetch-add on a cursor (spec.md §4.2); Reset bumps a shared
// generation counter, which invalidates every handle issued since the
// previous reset without touching individual slots.
//
// A Transient registry is only ever written from the compile thread (no
// allocation-time locking is provided; see spec.md §5), so Alloc itself
// uses a plain atomic counter rather than a mutex.
type Transient[T any] struct {
	kind     handle.Kind
	regIndex uint8
	capacity uint32

	cursor     atomic.Uint32
	generation atomic.Uint32

	items []T
	valid []bool
}

// NewTransient creates a transient registry for resources of kind, with the
// given fixed capacity and registry index (the 4-bit field in a transient
// handle that lets multiple concurrently-executing graphs use distinct
// transient registries without colliding).
func NewTransient[T any](kind handle.Kind, regIndex uint8, capacity uint32) *Transient[T] {
	if capacity == 0 {
		diag.Fatalf("registry: transient capacity must be positive")
	}
	r := &Transient[T]{
		kind:     kind,
		regIndex: regIndex,
		capacity: capacity,
		items:    make([]T, capacity),
		valid:    make([]bool, capacity),
	}
	r.generation.Store(1) // generation 0 is reserved so the zero Handle is always invalid.
	return r
}

// Alloc reserves the next slot and stores item in it. Per spec.md §4.2 and
// §7, over-capacity transient allocation is a fatal programming error (the
// caller recorded more transient resources in one frame than the registry
// was sized for) rather than a condition to recover from, so Alloc reports
// it through diag.Fatalf instead of returning an error.
func (r *Transient[T]) Alloc(item T, flags handle.Flags) handle.Handle {
	idx := r.cursor.Add(1) - 1
	if idx >= r.capacity {
		diag.Fatalf("registry: transient registry exhausted (capacity %d)", r.capacity)
	}
	r.items[idx] = item
	r.valid[idx] = true
	// The handle's generation field is 8 bits; the internal counter keeps
	// counting past 256 resets and is simply truncated. A handle surviving
	// 256 resets past its issuing frame is already a use-after-free bug by
	// construction (transient resources don't outlive one submission), so
	// the wraparound never masks a real collision in practice.
	gen := uint8(r.generation.Load())
	return handle.Pack(r.kind, flags, gen, r.regIndex, idx)
}

// Get retrieves the item stored at h's slot, validating that h's generation
// matches the registry's current generation (i.e. h was issued since the
// last Reset).
func (r *Transient[T]) Get(h handle.Handle) (T, error) {
	var zero T
	if h.IsZero() {
		return zero, ErrInvalidHandle
	}
	idx := h.Slot()
	if idx >= r.capacity {
		return zero, ErrOutOfRange
	}
	if h.Generation() != uint8(r.generation.Load()) {
		return zero, ErrStaleHandle
	}
	if !r.valid[idx] {
		return zero, ErrStaleHandle
	}
	return r.items[idx], nil
}

// GetMut calls fn with a pointer to the item at h's slot, for in-place
// mutation. Returns the same errors as Get.
func (r *Transient[T]) GetMut(h handle.Handle, fn func(*T)) error {
	if h.IsZero() {
		return ErrInvalidHandle
	}
	idx := h.Slot()
	if idx >= r.capacity {
		return ErrOutOfRange
	}
	if h.Generation() != uint8(r.generation.Load()) || !r.valid[idx] {
		return ErrStaleHandle
	}
	fn(&r.items[idx])
	return nil
}

// Len returns the number of slots allocated so far this frame, capped at
// Capacity. Alloc calls racing past the limit advance the internal cursor
// beyond Capacity, but only the first Capacity allocations succeed.
func (r *Transient[T]) Len() uint32 {
	n := r.cursor.Load()
	if n > r.capacity {
		return r.capacity
	}
	return n
}

// Capacity returns the registry's fixed slot count.
func (r *Transient[T]) Capacity() uint32 { return r.capacity }

// Generation returns the registry's current generation.
func (r *Transient[T]) Generation() uint32 { return r.generation.Load() }

// Reset invalidates every handle issued since the last reset and makes the
// full capacity available again. Called once per frame after the backend
// confirms the previous submission has completed (spec.md §4.7).
func (r *Transient[T]) Reset() {
	r.cursor.Store(0)
	if uint8(r.generation.Add(1)) == 0 {
		// Skip generations that truncate to 0 in the handle, which stays
		// reserved for the zero Handle.
		r.generation.Add(1)
	}
	for i := range r.valid {
		r.valid[i] = false
		var zero T
		r.items[i] = zero
	}
}
