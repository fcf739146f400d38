package usage

import (
	"github.com/gogpu/rendergraph/arena"
	"github.com/gogpu/rendergraph/internal/diag"
)

// CommandRange is a half-open range of command indices, [Start, End),
// within a pass's recorded command stream.
type CommandRange struct {
	Start uint32
	End   uint32
}

// Overlaps reports whether r and o share any command index.
func (r CommandRange) Overlaps(o CommandRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Union returns the smallest range covering both r and o.
func (r CommandRange) Union(o CommandRange) CommandRange {
	start, end := r.Start, r.End
	if o.Start < start {
		start = o.Start
	}
	if o.End > end {
		end = o.End
	}
	return CommandRange{Start: start, End: end}
}

// Record is one entry in a resource's usage list: how a single pass
// touched the resource over some command range.
type Record struct {
	Pass             uint32
	Commands         CommandRange
	Access           AccessKind
	Stages           Stages
	Range            SubRange
	InArgumentBuffer bool
	IndirectlyBound  bool
}

// List is the per-resource append-only usage list from spec.md §4.3.
// Appends try to coalesce with the most recently appended record, since
// that is the only record an overlapping or render-target-chained append
// can ever apply to - usages are recorded in command order.
type List struct {
	records []Record
}

// Records returns the list's current entries. The returned slice aliases
// internal storage and must not be mutated.
func (l *List) Records() []Record { return l.records }

// Len returns the number of entries currently in the list.
func (l *List) Len() int { return len(l.records) }

// Append adds rec to the list, merging it into the previous record when
// the §4.3 merge rule applies. drawsInPass is the number of draw commands
// recorded so far in rec.Pass, used by the input-attachment promotion
// rule. view backs any new sub-range storage the merge needs to
// allocate.
func (l *List) Append(rec Record, drawsInPass int, view *arena.ThreadView) {
	n := len(l.records)
	if n == 0 {
		l.records = append(l.records, rec)
		return
	}
	prev := l.records[n-1]
	if prev.Pass != rec.Pass {
		l.records = append(l.records, rec)
		return
	}

	bothRT := prev.Access.IsRenderTarget() && rec.Access.IsRenderTarget()
	rtReadChain := (prev.Access.IsRenderTarget() && rec.Access == Read) ||
		(rec.Access.IsRenderTarget() && prev.Access == Read)
	overlap := prev.Commands.Overlaps(rec.Commands)
	if !bothRT && !rtReadChain && !overlap {
		l.records = append(l.records, rec)
		return
	}

	if bothRT {
		l.records[n-1] = mergeRenderTargets(prev, rec, view)
		return
	}

	if prev.Access.IsRenderTarget() != rec.Access.IsRenderTarget() {
		rt, other := prev, rec
		if rec.Access.IsRenderTarget() {
			rt, other = rec, prev
		}
		if rt.Access.IsWrite() && other.Access == Read {
			if drawsInPass > 1 {
				l.records[n-1] = mergeRenderTargets(rt, recordAsRenderTarget(other), view)
				return
			}
			// Single draw: trim the read's range to exclude what the
			// render target writes and keep the two records separate.
			trimmed := other
			trimmed.Range = other.Range.Subtract(rt.Range, view)
			l.records[n-1] = rt
			l.records = append(l.records, trimmed)
			return
		}
		l.records = append(l.records, rec)
		return
	}

	merged, ok := mergeSameFamily(prev, rec, view)
	if !ok {
		l.records = append(l.records, rec)
		return
	}
	l.records[n-1] = merged
}

// recordAsRenderTarget reinterprets a plain read usage as an input
// attachment read for the purpose of the render-target merge helper.
func recordAsRenderTarget(r Record) Record {
	r.Access = InputAttachment
	return r
}

func mergeRenderTargets(a, b Record, view *arena.ThreadView) Record {
	writeUnion := a.Access.IsWrite() || b.Access.IsWrite()
	readUnion := a.Access.IsRead() || b.Access.IsRead()

	var kind AccessKind
	switch {
	case writeUnion && readUnion:
		kind = InputAttachment
	case writeUnion:
		kind = ColorAttachment
		if a.Access == DepthStencilAttachment || b.Access == DepthStencilAttachment {
			kind = DepthStencilAttachment
		}
	default:
		kind = UnusedRenderTarget
	}

	return Record{
		Pass:             a.Pass,
		Commands:         a.Commands.Union(b.Commands),
		Access:           kind,
		Stages:           a.Stages | b.Stages,
		Range:            a.Range.Union(b.Range, view),
		InArgumentBuffer: a.InArgumentBuffer || b.InArgumentBuffer,
		IndirectlyBound:  a.IndirectlyBound && b.IndirectlyBound,
	}
}

// mergeSameFamily handles the remaining (non-render-target) merge cases:
// identical kinds merge outright, a read/write pair composes to
// read-write, and a write/write collision is a fatal programming error.
func mergeSameFamily(a, b Record, view *arena.ThreadView) (Record, bool) {
	combine := func(kind AccessKind) Record {
		return Record{
			Pass:             a.Pass,
			Commands:         a.Commands.Union(b.Commands),
			Access:           kind,
			Stages:           a.Stages | b.Stages,
			Range:            a.Range.Union(b.Range, view),
			InArgumentBuffer: a.InArgumentBuffer || b.InArgumentBuffer,
			IndirectlyBound:  a.IndirectlyBound && b.IndirectlyBound,
		}
	}

	if a.Access == Write && b.Access == Write {
		diag.Fatalf("usage: conflicting simultaneous writes to the same resource in pass %d", a.Pass)
	}
	if a.Access == b.Access {
		return combine(a.Access), true
	}
	if (a.Access == Read && b.Access == Write) || (a.Access == Write && b.Access == Read) {
		return combine(ReadWrite), true
	}
	return Record{}, false
}
