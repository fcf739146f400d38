package rendergraph

import (
	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/recorder"
	"github.com/gogpu/rendergraph/usage"
)

// Builder is the per-pass recording surface handed to a pass's execute
// closure. It is a thin wrapper over recorder.Recorder: per spec.md §1,
// a draw/compute/blit/external encoder facade is out of scope and is
// specified only by the commands it emits, so Builder does not invent a
// binding-slot or pipeline-state model of its own - closures emit raw
// command.Op values and declare the resource usage that goes with them.
//
// A Builder must not be used after its closure returns; non-CPU pass
// closures may run concurrently with each other, each against its own
// Builder.
type Builder struct {
	rec *recorder.Recorder
}

// Recorder exposes the underlying recorder for callers that need direct
// access to AddAccelerationStructureUsage or other recorder-level detail
// Builder doesn't wrap.
func (b *Builder) Recorder() *recorder.Recorder { return b.rec }

// Emit appends a command with no arena payload, returning its index within
// this pass's command stream.
func (b *Builder) Emit(op command.Op, inline uint64) uint32 {
	return b.rec.Record(op, inline)
}

// EmitWithPayload appends a command whose payload is copied into the
// frame's graph-execution arena; the copy stays valid through compilation
// and backend submission.
func (b *Builder) EmitWithPayload(op command.Op, inline uint64, payload []byte) uint32 {
	return b.rec.RecordWithPayload(op, inline, payload)
}

// CopyBytes copies src into the frame's arena, for payloads that need
// arena-owned storage without a command recorded directly around them.
func (b *Builder) CopyBytes(src []byte) []byte {
	return b.rec.CopyBytes(src)
}

// Use declares that the command stream emitted so far in this pass
// accesses h with the given hint/access/stages/range, starting at
// firstCmd (normally the index returned by the Emit call this usage
// belongs to).
func (b *Builder) Use(h handle.Handle, hint usage.Hint, access usage.AccessKind, stages usage.Stages, rng usage.SubRange, firstCmd uint32) {
	b.rec.AddResourceUsage(h, hint, access, stages, rng, firstCmd, false, false)
}

// UseInArgumentBuffer is Use for a binding reached indirectly through an
// argument buffer rather than declared directly by the pass.
func (b *Builder) UseInArgumentBuffer(h handle.Handle, hint usage.Hint, access usage.AccessKind, stages usage.Stages, rng usage.SubRange, firstCmd uint32) {
	b.rec.AddResourceUsage(h, hint, access, stages, rng, firstCmd, true, false)
}

// UseAccelerationStructure records a read usage on as plus an indirect
// read usage on every buffer its descriptor references (spec.md §4.4).
func (b *Builder) UseAccelerationStructure(
	as handle.Handle,
	asHint usage.Hint,
	stages usage.Stages,
	firstCmd uint32,
	buffers recorder.AccelerationStructureBuffers,
	hintOf func(handle.Handle) usage.Hint,
) {
	b.rec.AddAccelerationStructureUsage(as, asHint, stages, firstCmd, buffers, hintOf)
}

// KeepAlive retains ref until this pass's graph-execution arena tag is
// freed, for pipeline/descriptor objects the command stream references by
// raw pointer rather than by copy.
func (b *Builder) KeepAlive(ref any) {
	b.rec.KeepAlive(ref)
}

// Draw is sugar for a draw_primitives command, the one render command
// every backend interprets identically regardless of pipeline shape.
func (b *Builder) Draw(vertexCount, instanceCount uint32) uint32 {
	return b.rec.Record(command.OpDrawPrimitives, pack32(vertexCount, instanceCount))
}

// DrawIndexed is sugar for a draw_indexed_primitives command.
func (b *Builder) DrawIndexed(indexCount, instanceCount uint32) uint32 {
	return b.rec.Record(command.OpDrawIndexedPrimitives, pack32(indexCount, instanceCount))
}

// DispatchThreadgroups is sugar for a dispatch_threadgroups command.
func (b *Builder) DispatchThreadgroups(x, y, z uint32) uint32 {
	return b.rec.RecordWithPayload(command.OpDispatchThreadgroups, 0, encode3(x, y, z))
}

func pack32(hi, lo uint32) uint64 {
	return uint64(hi)<<32 | uint64(lo)
}

func encode3(x, y, z uint32) []byte {
	return []byte{
		byte(x), byte(x >> 8), byte(x >> 16), byte(x >> 24),
		byte(y), byte(y >> 8), byte(y >> 16), byte(y >> 24),
		byte(z), byte(z >> 8), byte(z >> 16), byte(z >> 24),
	}
}
