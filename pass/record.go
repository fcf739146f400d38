package pass

import (
	"context"

	"github.com/gogpu/rendergraph/handle"
	"github.com/gogpu/rendergraph/recorder"
	"github.com/gogpu/rendergraph/usage"
)

// sideEffectFlags is the set of resource flags that make a write to that
// resource a side effect regardless of downstream readers (spec.md
// §4.6(c)).
const sideEffectFlags = handle.FlagPersistent | handle.FlagWindowHandle |
	handle.FlagHistoryBuffer | handle.FlagExternalOwnership

// Record is the per-pass metadata the compiler operates on: the user
// pass's declared kind and resource sets, plus the bits the compile
// stages fill in.
type Record struct {
	Index uint32
	Name  string
	Kind  Kind

	RenderTargets *RenderTargets // non-nil only for KindDraw

	Reads  map[handle.Handle]struct{}
	Writes map[handle.Handle]struct{}

	Recorder *recorder.Recorder

	// CPUExecute is the user closure for a KindCPU pass, invoked by the
	// submission driver in submission order ahead of the GPU pass list.
	// Unused for every other kind.
	CPUExecute func(ctx context.Context) error

	// Commands is the pass-local command range; rebased to frame-global
	// offsets during index reassignment (spec.md §4.6(h)).
	Commands usage.CommandRange

	Active            bool
	SideEffect        bool
	WindowTexture      bool
	RenderTargetGroup int32 // -1 until assigned by §4.6(e)
}

// New creates a pass record with the given index, name and kind. The
// resource sets are taken directly from r (reads/writes recorded while
// the pass's execute closure ran).
func New(index uint32, name string, kind Kind, r *recorder.Recorder) *Record {
	return &Record{
		Index:             index,
		Name:              name,
		Kind:              kind,
		Reads:             r.ReadResources(),
		Writes:            r.WrittenResources(),
		Recorder:          r,
		Commands:          usage.CommandRange{Start: 0, End: uint32(len(r.Commands()))},
		RenderTargetGroup: -1,
	}
}

// HasWindowTexture reports whether any of p's written resources carries
// the window-handle flag.
func (p *Record) HasWindowTexture() bool {
	for h := range p.Writes {
		if h.Flags()&handle.FlagWindowHandle != 0 {
			return true
		}
	}
	return false
}

// ComputeSideEffect evaluates spec.md §4.6(c): a pass has side effects if
// it writes a resource flagged persistent/window-handle/history-buffer/
// external-ownership, is a resourceless cpu pass, or is external.
//
// A read of one of those flagged resources counts too: a persistent
// resource's read_wait_indices (§4.2) must reflect this pass regardless
// of whether anything later in the same frame consumes it, since a
// future frame's write depends on that wait index. Without this, a
// lone trailing reader of a persistent resource would be culled and the
// resource's wait index would never advance.
func (p *Record) ComputeSideEffect() bool {
	if p.Kind == KindExternal {
		return true
	}
	if p.Kind == KindCPU && len(p.Reads) == 0 && len(p.Writes) == 0 {
		return true
	}
	for h := range p.Writes {
		if h.Flags()&sideEffectFlags != 0 {
			return true
		}
	}
	for h := range p.Reads {
		if h.Flags()&sideEffectFlags != 0 {
			return true
		}
	}
	return false
}

// Writer reports whether p writes resource h.
func (p *Record) Writer(h handle.Handle) bool {
	_, ok := p.Writes[h]
	return ok
}

// Reader reports whether p reads resource h.
func (p *Record) Reader(h handle.Handle) bool {
	_, ok := p.Reads[h]
	return ok
}
