package arena

import "fmt"

// Kind names the phase a Tag's bump-allocation pool is scoped to (spec.md
// §3's arena tag entity).
type Kind uint8

const (
	// KindGraphExecution scopes the whole compiled submission: per-pass
	// command payloads live here and stay valid until the submission
	// driver observes backend completion.
	KindGraphExecution Kind = iota

	// KindUsageNodes scopes the per-resource usage-record lists built
	// during recording and finalised during compilation.
	KindUsageNodes

	// KindPerPassScratch scopes one pass's recording-time scratch space;
	// freed as soon as that pass's execute closure returns.
	KindPerPassScratch
)

func (k Kind) String() string {
	switch k {
	case KindGraphExecution:
		return "graph-execution"
	case KindUsageNodes:
		return "usage-nodes"
	case KindPerPassScratch:
		return "per-pass-scratch"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Tag identifies a bump-allocation pool. Tags of kind KindPerPassScratch
// carry a pass index so that distinct passes never share a pool; the other
// kinds are singletons per frame and always carry index 0.
//
// A Tag is freed at most once (spec.md §3); freeing invalidates every
// pointer previously returned under it.
type Tag struct {
	kind  Kind
	index uint32
}

// NewTag constructs a Tag. index should be 0 for every kind except
// KindPerPassScratch; for the other kinds String leaves it out, but it is
// still part of the Tag's identity.
func NewTag(kind Kind, index uint32) Tag {
	return Tag{kind: kind, index: index}
}

// Kind returns the tag's phase.
func (t Tag) Kind() Kind { return t.kind }

// Index returns the tag's pass index (KindPerPassScratch only).
func (t Tag) Index() uint32 { return t.index }

func (t Tag) String() string {
	if t.kind == KindPerPassScratch {
		return fmt.Sprintf("%s(%d)", t.kind, t.index)
	}
	return t.kind.String()
}
