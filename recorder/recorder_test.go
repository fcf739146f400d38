package recorder

import (
	"testing"

	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/usage"
)

func newTestRecorder(t *testing.T, pass uint32) *Recorder {
	t.Helper()
	pool := arena.NewPool()
	view := pool.ThreadView(arena.NewTag(arena.KindPerPassScratch, pass))
	return New(pass, view)
}

func bufferHandle(slot uint32, flags handle.Flags) handle.Handle {
	return handle.Pack(handle.KindBuffer, flags, 1, 0, slot)
}

func TestRecordWithPayloadCopiesIntoArena(t *testing.T) {
	r := newTestRecorder(t, 0)
	src := []byte{1, 2, 3, 4}
	r.RecordWithPayload(command.OpSetBytes, 0, src)

	cmds := r.Commands()
	if len(cmds) != 1 {
		t.Fatalf("Commands len = %d, want 1", len(cmds))
	}
	src[0] = 0xFF
	if cmds[0].Payload[0] == 0xFF {
		t.Fatal("command payload aliases caller's slice instead of an arena copy")
	}
}

func TestDrawCommandsIncrementDrawCount(t *testing.T) {
	r := newTestRecorder(t, 0)
	r.Record(command.OpSetRenderPipelineState, 0)
	r.Record(command.OpDrawPrimitives, 0)
	r.Record(command.OpDrawIndexedPrimitives, 0)

	if r.Draws() != 2 {
		t.Fatalf("Draws = %d, want 2", r.Draws())
	}
}

func TestAddResourceUsageTracksReadsAndWrites(t *testing.T) {
	r := newTestRecorder(t, 0)
	buf := bufferHandle(1, 0)

	r.AddResourceUsage(buf, usage.HintShaderRead|usage.HintShaderWrite, usage.Write, usage.StageFragment, usage.Full(), 0, false, false)

	if _, ok := r.WrittenResources()[buf]; !ok {
		t.Fatal("expected buf to be recorded as written")
	}
	list := r.UsageByResource()[buf]
	if list == nil || list.Len() != 1 {
		t.Fatalf("expected one usage record for buf, got %v", list)
	}
}

func TestAddResourceUsageRejectsDisallowedAccess(t *testing.T) {
	r := newTestRecorder(t, 0)
	buf := bufferHandle(1, 0)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for access not permitted by usage hint")
		}
	}()
	r.AddResourceUsage(buf, usage.HintShaderRead, usage.Write, usage.StageFragment, usage.Full(), 0, false, false)
}

func TestAddResourceUsageRejectsDoubleWriteToImmutable(t *testing.T) {
	r := newTestRecorder(t, 0)
	buf := bufferHandle(1, handle.FlagImmutableOnceInitialised)

	r.AddResourceUsage(buf, usage.HintShaderWrite, usage.Write, usage.StageCompute, usage.Full(), 0, false, false)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic writing an immutable-once-initialised resource twice")
		}
	}()
	r.AddResourceUsage(buf, usage.HintShaderWrite, usage.Write, usage.StageCompute, usage.Full(), 1, false, false)
}

func TestAddAccelerationStructureUsageWalksBuffers(t *testing.T) {
	r := newTestRecorder(t, 0)
	as := bufferHandle(1, 0)
	vertex := bufferHandle(2, 0)
	index := bufferHandle(3, 0)

	r.AddAccelerationStructureUsage(as, usage.HintShaderRead, usage.StageAccelerationStructure, 0,
		AccelerationStructureBuffers{Vertex: vertex, Index: index},
		func(handle.Handle) usage.Hint { return usage.HintShaderRead })

	if r.UsageByResource()[as] == nil {
		t.Fatal("expected a usage record for the acceleration structure itself")
	}
	vList := r.UsageByResource()[vertex]
	if vList == nil || vList.Len() != 1 {
		t.Fatal("expected an indirect usage record for the vertex buffer")
	}
	if !vList.Records()[0].IndirectlyBound {
		t.Fatal("vertex buffer usage must be marked indirectly bound")
	}
}

func TestKeepAliveAndRelease(t *testing.T) {
	r := newTestRecorder(t, 0)
	type descriptor struct{ name string }
	r.KeepAlive(&descriptor{name: "pipeline"})
	if len(r.keepAlive) != 1 {
		t.Fatalf("keepAlive len = %d, want 1", len(r.keepAlive))
	}
	r.Release()
	if len(r.keepAlive) != 0 {
		t.Fatal("Release must clear keep-alive list")
	}
}
