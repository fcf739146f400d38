package pass

import (
	"testing"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/recorder"
)

func newTestRecord(t *testing.T, kind Kind, index uint32) (*Record, *recorder.Recorder) {
	t.Helper()
	pool := arena.NewPool()
	view := pool.ThreadView(arena.NewTag(arena.KindPerPassScratch, index))
	rec := recorder.New(index, view)
	return New(index, "test-pass", kind, rec), rec
}

func TestSideEffectFromPersistentWrite(t *testing.T) {
	p, rec := newTestRecord(t, KindDraw, 0)
	target := handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, 5)
	rec.WrittenResources()[target] = struct{}{}
	p.Writes = rec.WrittenResources()

	if !p.ComputeSideEffect() {
		t.Fatal("writing a persistent resource must be a side effect")
	}
}

func TestNoSideEffectFromTransientOnlyWrite(t *testing.T) {
	p, rec := newTestRecord(t, KindDraw, 0)
	target := handle.Pack(handle.KindBuffer, 0, 1, 0, 5)
	rec.WrittenResources()[target] = struct{}{}
	p.Writes = rec.WrittenResources()

	if p.ComputeSideEffect() {
		t.Fatal("writing a plain transient resource must not be a side effect")
	}
}

func TestSideEffectFromPersistentRead(t *testing.T) {
	p, rec := newTestRecord(t, KindDraw, 0)
	target := handle.Pack(handle.KindTexture, handle.FlagPersistent, 1, 0, 5)
	rec.ReadResources()[target] = struct{}{}
	p.Reads = rec.ReadResources()

	if !p.ComputeSideEffect() {
		t.Fatal("reading a persistent resource must be a side effect, so its wait index is observed even with no in-frame consumer")
	}
}

func TestResourcelessCPUPassHasSideEffect(t *testing.T) {
	p, _ := newTestRecord(t, KindCPU, 0)
	if !p.ComputeSideEffect() {
		t.Fatal("a resourceless cpu pass must be treated as a side effect")
	}
}

func TestExternalPassAlwaysHasSideEffect(t *testing.T) {
	p, _ := newTestRecord(t, KindExternal, 0)
	if !p.ComputeSideEffect() {
		t.Fatal("external passes always have side effects")
	}
}

func TestRenderTargetsMergeableRejectsConflictingAttachment(t *testing.T) {
	texA := handle.Pack(handle.KindTexture, 0, 1, 0, 1)
	texB := handle.Pack(handle.KindTexture, 0, 1, 0, 2)

	a := NewRenderTargets(1920, 1080, 1).WithColor(ColorAttachment{Texture: texA})
	b := NewRenderTargets(1920, 1080, 1).WithColor(ColorAttachment{Texture: texB})

	if a.Mergeable(b) {
		t.Fatal("descriptors binding different textures to the same slot must not merge")
	}
}

func TestRenderTargetsMergeableAcceptsCompatibleDescriptors(t *testing.T) {
	tex := handle.Pack(handle.KindTexture, 0, 1, 0, 1)
	a := NewRenderTargets(1920, 1080, 1).WithColor(ColorAttachment{Texture: tex})
	b := NewRenderTargets(1920, 1080, 1)

	if !a.Mergeable(b) {
		t.Fatal("a descriptor with an unbound slot must be mergeable with one that binds it")
	}
}
