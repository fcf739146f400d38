package usage

import "github.com/gogpu/rendergraph/arena"

// RangeKind selects which shape a SubRange's active range takes.
type RangeKind uint8

const (
	RangeFull RangeKind = iota
	RangeBuffer
	RangeTexture
)

// SubRange is the active portion of a resource a usage record covers: the
// whole resource, a buffer byte interval, or a texture sub-resource mask
// over (slice × level) slots.
type SubRange struct {
	Kind RangeKind

	BufferOffset int64
	BufferLength int64

	TextureMask  []byte // one bit per slot, arena-backed
	TextureSlots int
}

// Full returns a SubRange covering an entire resource.
func Full() SubRange { return SubRange{Kind: RangeFull} }

// Buffer returns a SubRange covering [offset, offset+length) of a buffer.
func Buffer(offset, length int64) SubRange {
	return SubRange{Kind: RangeBuffer, BufferOffset: offset, BufferLength: length}
}

// NewTexture allocates a zeroed texture sub-resource mask with room for
// totalSlots (slice × level) entries from view.
func NewTexture(view *arena.ThreadView, totalSlots int) SubRange {
	n := (totalSlots + 7) / 8
	return SubRange{Kind: RangeTexture, TextureMask: view.Allocate(n, 1), TextureSlots: totalSlots}
}

// SetSlot marks slot i as part of the range. i must be < TextureSlots.
func (s SubRange) SetSlot(i int) {
	s.TextureMask[i/8] |= 1 << uint(i%8)
}

// HasSlot reports whether slot i is part of the range.
func (s SubRange) HasSlot(i int) bool {
	return s.TextureMask[i/8]&(1<<uint(i%8)) != 0
}

// Union returns the union of s and other. For texture ranges this
// allocates a fresh mask from view; for buffer ranges it widens the
// interval to the bounding envelope of both (an over-approximation when
// the two intervals are disjoint, which is the same trade-off the teacher
// makes between barrier precision and bookkeeping cost).
func (s SubRange) Union(other SubRange, view *arena.ThreadView) SubRange {
	switch s.Kind {
	case RangeFull:
		return s
	case RangeBuffer:
		if other.Kind != RangeBuffer {
			return s
		}
		lo := s.BufferOffset
		if other.BufferOffset < lo {
			lo = other.BufferOffset
		}
		hi := s.BufferOffset + s.BufferLength
		if oh := other.BufferOffset + other.BufferLength; oh > hi {
			hi = oh
		}
		return Buffer(lo, hi-lo)
	case RangeTexture:
		if other.Kind != RangeTexture {
			return s
		}
		out := NewTexture(view, s.TextureSlots)
		copy(out.TextureMask, s.TextureMask)
		for i, b := range other.TextureMask {
			if i < len(out.TextureMask) {
				out.TextureMask[i] |= b
			}
		}
		return out
	default:
		return s
	}
}

// Subtract removes other's coverage from s. For a texture range this
// clears the bits other sets; for a buffer range it only shrinks s when
// other fully contains it (a conservative approximation - a partial
// overlap keeps s's original bounds rather than splitting it in two).
func (s SubRange) Subtract(other SubRange, view *arena.ThreadView) SubRange {
	switch s.Kind {
	case RangeTexture:
		if other.Kind != RangeTexture {
			return s
		}
		out := NewTexture(view, s.TextureSlots)
		copy(out.TextureMask, s.TextureMask)
		for i, b := range other.TextureMask {
			if i < len(out.TextureMask) {
				out.TextureMask[i] &^= b
			}
		}
		return out
	case RangeBuffer:
		if other.Kind == RangeBuffer &&
			other.BufferOffset <= s.BufferOffset &&
			other.BufferOffset+other.BufferLength >= s.BufferOffset+s.BufferLength {
			return Buffer(s.BufferOffset, 0)
		}
		return s
	default:
		return s
	}
}
