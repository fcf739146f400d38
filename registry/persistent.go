package registry

import (
	"sync"
	"sync/atomic"

	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/internal/diag"
)

// ChunkSize is the number of slots per chunk in a Persistent registry.
// Chunks are appended on demand (spec.md §4.2: "chunked (fixed-size
// chunks, added on demand)"); existing chunks never move, so a pointer
// into persistentSlot.item stays valid across growth.
const ChunkSize = 256

// persistentSlot holds one resource plus the concurrency bookkeeping
// spec.md §4.2 assigns to every persistent slot: an atomic bitmask of which
// render graphs currently have this resource marked in-use, and per-queue
// read/write wait indices the CPU must wait for before touching the
// backing memory.
type persistentSlot[T any] struct {
	item       T
	generation uint8
	valid      bool

	activeGraphs atomic.Uint64 // one bit per concurrent graph, set(OR)/cleared(AND) atomically
	readWait     []atomic.Uint64
	writeWait    []atomic.Uint64
}

// Persistent is a chunked resource store whose slots persist across frames
// until explicitly Freed. It keeps no reference count: a slot is released
// only by Free. Unlike Transient, each
// slot carries its own generation, incremented on free (spec.md §4.2).
type Persistent[T any] struct {
	mu        sync.Mutex
	kind      handle.Kind
	numQueues int

	chunks   [][]*persistentSlot[T]
	freeList []uint32 // slot indices available for reuse
	nextIdx  uint32
}

// NewPersistent creates a persistent registry for resources of kind.
// numQueues bounds the per-queue wait-index arrays (spec.md's Q); pass the
// number of logical submission lanes the backend exposes.
func NewPersistent[T any](kind handle.Kind, numQueues int) *Persistent[T] {
	if numQueues <= 0 {
		diag.Fatalf("registry: numQueues must be positive")
	}
	return &Persistent[T]{kind: kind, numQueues: numQueues}
}

func (r *Persistent[T]) slotAt(idx uint32) *persistentSlot[T] {
	chunkIdx := idx / ChunkSize
	offset := idx % ChunkSize
	return r.chunks[chunkIdx][offset]
}

func (r *Persistent[T]) growTo(idx uint32) {
	for uint32(len(r.chunks))*ChunkSize <= idx {
		chunk := make([]*persistentSlot[T], ChunkSize)
		for i := range chunk {
			chunk[i] = &persistentSlot[T]{
				generation: 1, // generation 0 reserved so zero Handle is always invalid
				readWait:   make([]atomic.Uint64, r.numQueues),
				writeWait:  make([]atomic.Uint64, r.numQueues),
			}
		}
		r.chunks = append(r.chunks, chunk)
	}
}

// Alloc stores item in a fresh or recycled slot and returns its handle.
func (r *Persistent[T]) Alloc(item T, flags handle.Flags) handle.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.freeList); n > 0 {
		idx = r.freeList[n-1]
		r.freeList = r.freeList[:n-1]
	} else {
		idx = r.nextIdx
		r.nextIdx++
		r.growTo(idx)
	}

	slot := r.slotAt(idx)
	slot.item = item
	slot.valid = true
	slot.activeGraphs.Store(0)
	for i := range slot.readWait {
		slot.readWait[i].Store(0)
		slot.writeWait[i].Store(0)
	}

	return handle.Pack(r.kind, flags|handle.FlagPersistent, slot.generation, 0, idx)
}

func (r *Persistent[T]) lookup(h handle.Handle) (*persistentSlot[T], error) {
	if h.IsZero() {
		return nil, ErrInvalidHandle
	}
	idx := h.Slot()
	r.mu.Lock()
	if idx >= r.nextIdx {
		r.mu.Unlock()
		return nil, ErrOutOfRange
	}
	slot := r.slotAt(idx)
	r.mu.Unlock()

	if !slot.valid || slot.generation != h.Generation() {
		return nil, ErrStaleHandle
	}
	return slot, nil
}

// Get retrieves the item addressed by h.
func (r *Persistent[T]) Get(h handle.Handle) (T, error) {
	var zero T
	slot, err := r.lookup(h)
	if err != nil {
		return zero, err
	}
	return slot.item, nil
}

// GetMut calls fn with a pointer to the item addressed by h.
func (r *Persistent[T]) GetMut(h handle.Handle, fn func(*T)) error {
	slot, err := r.lookup(h)
	if err != nil {
		return err
	}
	fn(&slot.item)
	return nil
}

// Free releases h's slot for reuse and bumps its generation so existing
// copies of h become stale.
func (r *Persistent[T]) Free(h handle.Handle) error {
	slot, err := r.lookup(h)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	slot.valid = false
	slot.generation++
	var zero T
	slot.item = zero
	r.freeList = append(r.freeList, h.Slot())
	return nil
}

// MarkInUse sets graphBit in the slot's active-render-graphs mask. Nothing
// in this module calls it: graph.Compile's usage evaluation stage does not
// mark registry bits, so the mask changes only through MarkInUse and
// ClearInUse.
func (r *Persistent[T]) MarkInUse(h handle.Handle, graphBit uint64) error {
	slot, err := r.lookup(h)
	if err != nil {
		return err
	}
	slot.activeGraphs.Or(graphBit)
	return nil
}

// ClearInUse clears graphBit from the slot's active-render-graphs mask.
// The submission driver does not call it directly; on backend completion it
// runs the caller-supplied submit.Hooks.ClearActiveGraph closure, which is
// where a call to ClearInUse can be made.
func (r *Persistent[T]) ClearInUse(h handle.Handle, graphBit uint64) error {
	slot, err := r.lookup(h)
	if err != nil {
		return err
	}
	slot.activeGraphs.And(^graphBit)
	return nil
}

// SetWaitIndex records the command index on queue that the CPU must wait
// for before reading (forRead=true) or writing (forRead=false) h's backing
// memory. Wait indices only move forward; callers must not call this with
// a lower index than already stored for the same (handle, queue, kind).
func (r *Persistent[T]) SetWaitIndex(h handle.Handle, queue int, forRead bool, index uint64) error {
	slot, err := r.lookup(h)
	if err != nil {
		return err
	}
	if queue < 0 || queue >= len(slot.readWait) {
		return ErrOutOfRange
	}
	if forRead {
		slot.readWait[queue].Store(index)
	} else {
		slot.writeWait[queue].Store(index)
	}
	return nil
}

// IsKnownInUse reports whether h's resource is known to be in use by any
// render graph, either because its active-render-graphs mask is non-zero
// or because some queue's last-completed command index hasn't yet reached
// one of its recorded wait indices (spec.md §4.2).
func (r *Persistent[T]) IsKnownInUse(h handle.Handle, lastCompleted []uint64) (bool, error) {
	slot, err := r.lookup(h)
	if err != nil {
		return false, err
	}
	if slot.activeGraphs.Load() != 0 {
		return true, nil
	}
	for q := 0; q < len(slot.readWait) && q < len(lastCompleted); q++ {
		if slot.readWait[q].Load() > lastCompleted[q] {
			return true, nil
		}
		if slot.writeWait[q].Load() > lastCompleted[q] {
			return true, nil
		}
	}
	return false, nil
}

// Count returns the number of currently-allocated (non-freed) slots.
func (r *Persistent[T]) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int(r.nextIdx) - len(r.freeList)
}
