package registry

import (
	"testing"

	"github.com/gogpu/rendergraph/handle"
)

func TestPersistentAllocGetFree(t *testing.T) {
	r := NewPersistent[string](handle.KindTexture, 2)

	h := r.Alloc("swapchain-color", 0)
	if !h.IsPersistent() {
		t.Fatal("handle from Persistent.Alloc must carry FlagPersistent")
	}
	got, err := r.Get(h)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != "swapchain-color" {
		t.Fatalf("Get = %q, want swapchain-color", got)
	}

	if err := r.Free(h); err != nil {
		t.Fatalf("Free: %v", err)
	}
	if _, err := r.Get(h); err != ErrStaleHandle {
		t.Fatalf("Get after Free = %v, want ErrStaleHandle", err)
	}
}

func TestPersistentFreeRecyclesSlotWithNewGeneration(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 1)

	h1 := r.Alloc(1, 0)
	if err := r.Free(h1); err != nil {
		t.Fatalf("Free: %v", err)
	}

	h2 := r.Alloc(2, 0)
	if h2.Slot() != h1.Slot() {
		t.Fatalf("expected slot reuse, got slot %d vs %d", h2.Slot(), h1.Slot())
	}
	if h2.Generation() == h1.Generation() {
		t.Fatal("recycled slot must bump generation")
	}

	if _, err := r.Get(h1); err != ErrStaleHandle {
		t.Fatalf("Get(h1) after recycle = %v, want ErrStaleHandle", err)
	}
	got, err := r.Get(h2)
	if err != nil || got != 2 {
		t.Fatalf("Get(h2) = %d, %v, want 2, nil", got, err)
	}
}

func TestPersistentGrowsAcrossChunkBoundary(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 1)

	handles := make([]handle.Handle, ChunkSize+10)
	for i := range handles {
		handles[i] = r.Alloc(i, 0)
	}
	for i, h := range handles {
		got, err := r.Get(h)
		if err != nil {
			t.Fatalf("Get(%d): %v", i, err)
		}
		if got != i {
			t.Fatalf("Get(%d) = %d, want %d", i, got, i)
		}
	}
	if r.Count() != len(handles) {
		t.Fatalf("Count = %d, want %d", r.Count(), len(handles))
	}
}

func TestPersistentGetMut(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 1)
	h := r.Alloc(10, 0)

	if err := r.GetMut(h, func(v *int) { *v *= 2 }); err != nil {
		t.Fatalf("GetMut: %v", err)
	}
	got, _ := r.Get(h)
	if got != 20 {
		t.Fatalf("Get after GetMut = %d, want 20", got)
	}
}

func TestPersistentGetInvalidAndOutOfRange(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 1)

	var zero handle.Handle
	if _, err := r.Get(zero); err != ErrInvalidHandle {
		t.Fatalf("Get(zero) = %v, want ErrInvalidHandle", err)
	}

	bogus := handle.Pack(handle.KindBuffer, 0, 1, 0, 999)
	if _, err := r.Get(bogus); err != ErrOutOfRange {
		t.Fatalf("Get(never-allocated) = %v, want ErrOutOfRange", err)
	}
}

func TestPersistentMarkAndClearInUse(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 2)
	h := r.Alloc(1, 0)

	lastCompleted := []uint64{0, 0}

	inUse, err := r.IsKnownInUse(h, lastCompleted)
	if err != nil {
		t.Fatalf("IsKnownInUse: %v", err)
	}
	if inUse {
		t.Fatal("freshly allocated resource should not be in use")
	}

	const graphBit = uint64(1) << 3
	if err := r.MarkInUse(h, graphBit); err != nil {
		t.Fatalf("MarkInUse: %v", err)
	}
	inUse, err = r.IsKnownInUse(h, lastCompleted)
	if err != nil || !inUse {
		t.Fatalf("IsKnownInUse after MarkInUse = %v, %v, want true, nil", inUse, err)
	}

	if err := r.ClearInUse(h, graphBit); err != nil {
		t.Fatalf("ClearInUse: %v", err)
	}
	inUse, err = r.IsKnownInUse(h, lastCompleted)
	if err != nil || inUse {
		t.Fatalf("IsKnownInUse after ClearInUse = %v, %v, want false, nil", inUse, err)
	}
}

func TestPersistentWaitIndexKeepsResourceInUse(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 2)
	h := r.Alloc(1, 0)

	if err := r.SetWaitIndex(h, 1, false, 42); err != nil {
		t.Fatalf("SetWaitIndex: %v", err)
	}

	inUse, err := r.IsKnownInUse(h, []uint64{0, 10})
	if err != nil || !inUse {
		t.Fatalf("IsKnownInUse with pending write wait = %v, %v, want true, nil", inUse, err)
	}

	inUse, err = r.IsKnownInUse(h, []uint64{0, 42})
	if err != nil || inUse {
		t.Fatalf("IsKnownInUse once completed caught up = %v, %v, want false, nil", inUse, err)
	}
}

func TestPersistentSetWaitIndexOutOfRangeQueue(t *testing.T) {
	r := NewPersistent[int](handle.KindBuffer, 1)
	h := r.Alloc(1, 0)

	if err := r.SetWaitIndex(h, 5, true, 1); err != ErrOutOfRange {
		t.Fatalf("SetWaitIndex(bad queue) = %v, want ErrOutOfRange", err)
	}
}
