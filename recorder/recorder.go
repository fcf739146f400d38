// Package recorder implements the per-pass command recorder from
// spec.md §4.4: it owns arena space for a pass's opaque command stream
// and payloads, validates and appends resource-usage records, and keeps
// a batch-released list of owned references alongside the arena memory -
// generalising the per-encoder usedBuffers/usedTextures bookkeeping in
// the teacher's core/command.go to an arbitrary resource kind and an
// explicit usage timeline instead of a single current-usage bitmask.
package recorder

import (
	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/command"
	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/internal/diag"
	"github.com/gogpu/rendergraph/usage"
)

// Recorder is the per-pass command and usage recorder. It is not safe for
// concurrent use; one goroutine owns a Recorder for the lifetime of its
// pass's execute closure.
type Recorder struct {
	pass uint32
	view *arena.ThreadView

	commands []command.Command
	draws    int

	reads  map[handle.Handle]struct{}
	writes map[handle.Handle]struct{}

	usageByResource map[handle.Handle]*usage.List
	keepAlive       []any
}

// New creates a recorder for pass, backed by view. Callers recording
// real submission work must pass a view over the frame's
// arena.KindGraphExecution tag, since command payloads copied through
// RecordWithPayload/CopyBytes must stay valid through backend completion,
// well past the point any arena.KindPerPassScratch allocation would be
// freed.
func New(pass uint32, view *arena.ThreadView) *Recorder {
	return &Recorder{
		pass:            pass,
		view:            view,
		reads:           make(map[handle.Handle]struct{}),
		writes:          make(map[handle.Handle]struct{}),
		usageByResource: make(map[handle.Handle]*usage.List),
	}
}

// Pass returns the index of the pass this recorder belongs to.
func (r *Recorder) Pass() uint32 { return r.pass }

// Commands returns the recorded command stream in emission order.
func (r *Recorder) Commands() []command.Command { return r.commands }

// Draws returns the number of draw commands recorded so far.
func (r *Recorder) Draws() int { return r.draws }

// UsageByResource returns this pass's local usage lists, keyed by
// resource handle. The compiler consumes these at index-reassignment
// time (spec.md §4.6(h)) to build each resource's frame-global usage
// list.
func (r *Recorder) UsageByResource() map[handle.Handle]*usage.List { return r.usageByResource }

// ReadResources returns the set of resources this pass reads. The map is
// the recorder's own, not a copy.
func (r *Recorder) ReadResources() map[handle.Handle]struct{} { return r.reads }

// WrittenResources returns the set of resources this pass writes. The map
// is the recorder's own, not a copy.
func (r *Recorder) WrittenResources() map[handle.Handle]struct{} { return r.writes }

// Record appends a command with no arena payload.
func (r *Recorder) Record(op command.Op, inline uint64) uint32 {
	idx := uint32(len(r.commands))
	r.commands = append(r.commands, command.Command{Op: op, Inline: inline})
	if op == command.OpDrawPrimitives || op == command.OpDrawIndexedPrimitives {
		r.draws++
	}
	return idx
}

// RecordWithPayload appends a command whose payload is copied into the
// pass arena; the returned command's Payload is stable until the owning
// graph-execution tag is freed.
func (r *Recorder) RecordWithPayload(op command.Op, inline uint64, payload []byte) uint32 {
	idx := uint32(len(r.commands))
	r.commands = append(r.commands, command.Command{
		Op:      op,
		Inline:  inline,
		Payload: r.view.CopyBytes(payload),
	})
	if op == command.OpDrawPrimitives || op == command.OpDrawIndexedPrimitives {
		r.draws++
	}
	return idx
}

// CopyBytes copies src into the pass arena and returns the copy, for
// set_bytes-style commands that need arena-owned storage without
// recording a command around it directly.
func (r *Recorder) CopyBytes(src []byte) []byte {
	return r.view.CopyBytes(src)
}

// AddResourceUsage validates and records that this pass performs access
// on h over the active sub-range rng, from stages, starting at command
// index firstCmd. hint is h's resource descriptor's usage_hint.
// inArgumentBuffer marks a binding reached through an argument buffer;
// indirectlyBound marks a usage discovered by walking another resource's
// descriptor (see AddAccelerationStructureUsage) rather than declared
// directly by the pass.
//
// Any precondition violation here is a programming error and is fatal,
// per spec.md §4.4/§7.
func (r *Recorder) AddResourceUsage(
	h handle.Handle,
	hint usage.Hint,
	access usage.AccessKind,
	stages usage.Stages,
	rng usage.SubRange,
	firstCmd uint32,
	inArgumentBuffer bool,
	indirectlyBound bool,
) {
	if h.IsZero() {
		diag.Fatalf("recorder: add_resource_usage called with an invalid handle in pass %d", r.pass)
	}
	if !hint.Permits(access) {
		diag.Fatalf("recorder: access %s on %s is not permitted by its usage hint", access, h)
	}
	if h.Flags()&handle.FlagImmutableOnceInitialised != 0 && access.IsWrite() {
		if _, already := r.writes[h]; already {
			diag.Fatalf("recorder: %s is immutable-once-initialised and was already written in pass %d", h, r.pass)
		}
	}

	if access.IsRead() {
		r.reads[h] = struct{}{}
	}
	if access.IsWrite() {
		r.writes[h] = struct{}{}
	}

	list, ok := r.usageByResource[h]
	if !ok {
		list = &usage.List{}
		r.usageByResource[h] = list
	}
	list.Append(usage.Record{
		Pass:             r.pass,
		Commands:         usage.CommandRange{Start: firstCmd, End: uint32(len(r.commands))},
		Access:           access,
		Stages:           stages,
		Range:            rng,
		InArgumentBuffer: inArgumentBuffer,
		IndirectlyBound:  indirectlyBound,
	}, r.draws, r.view)
}

// AccelerationStructureBuffers lists the buffers an acceleration
// structure or intersection-function-table descriptor references. Zero
// handles are skipped.
type AccelerationStructureBuffers struct {
	Vertex             handle.Handle
	Index              handle.Handle
	BoundingBox        handle.Handle
	InstanceDescriptor handle.Handle
}

// AddAccelerationStructureUsage records a read usage on as itself plus an
// indirect read usage on every buffer its descriptor references, per
// spec.md §4.4's acceleration-structure walk. hintOf resolves each
// buffer's usage hint.
func (r *Recorder) AddAccelerationStructureUsage(
	as handle.Handle,
	asHint usage.Hint,
	stages usage.Stages,
	firstCmd uint32,
	buffers AccelerationStructureBuffers,
	hintOf func(handle.Handle) usage.Hint,
) {
	r.AddResourceUsage(as, asHint, usage.Read, stages, usage.Full(), firstCmd, false, false)

	for _, b := range []handle.Handle{buffers.Vertex, buffers.Index, buffers.BoundingBox, buffers.InstanceDescriptor} {
		if b.IsZero() {
			continue
		}
		r.AddResourceUsage(b, hintOf(b), usage.Read, stages, usage.Full(), firstCmd, false, true)
	}
}

// PromoteReadback marks h as also written by this pass, synthesizing a
// write usage record that spans the same commands and stages as h's
// recorded reads. This is the non-unified-memory readback promotion from
// spec.md §4.6(a): a CPU-visible read implies a GPU->CPU flush, which must
// appear in h's usage list as a write so the ordering stages treat it as a
// dependency edge and spec.md §8's per-pass write-usage invariant holds.
//
// h must already have at least one recorded read usage in this pass; it is
// a programming error to call this otherwise.
func (r *Recorder) PromoteReadback(h handle.Handle, view *arena.ThreadView) {
	if _, already := r.writes[h]; already {
		return
	}

	list, ok := r.usageByResource[h]
	if !ok || list.Len() == 0 {
		diag.Fatalf("recorder: promote_readback called for %s with no recorded read in pass %d", h, r.pass)
	}
	r.writes[h] = struct{}{}

	records := list.Records()
	rng := records[0].Commands
	var stages usage.Stages
	for _, rec := range records {
		rng = rng.Union(rec.Commands)
		stages |= rec.Stages
	}
	list.Append(usage.Record{
		Pass:     r.pass,
		Commands: rng,
		Access:   usage.Write,
		Stages:   stages,
		Range:    usage.Full(),
	}, r.draws, view)
}

// KeepAlive retains ref for the lifetime of this recorder, releasing it
// only when Release is called (batched on arena free, per spec.md §4.4's
// unmanaged_references list).
func (r *Recorder) KeepAlive(ref any) {
	r.keepAlive = append(r.keepAlive, ref)
}

// Release drops this recorder's keep-alive references. Called once the
// owning graph-execution tag has been (or is about to be) freed.
func (r *Recorder) Release() {
	r.keepAlive = nil
}
