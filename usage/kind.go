// Package usage implements the per-resource access record and merge rule
// from spec.md §4.3: an append-only list of how each pass touches a
// resource, coalesced during recording the way core/track's buffer usage
// scopes coalesce per-scope usage in the teacher, but keyed by pass and
// command range rather than by a single scope-wide OR of usage bits.
package usage

import "fmt"

// AccessKind is the access class a pass has on a resource for one usage
// record.
type AccessKind uint8

const (
	Read AccessKind = iota
	Write
	ReadWrite
	VertexBuffer
	IndexBuffer
	ConstantBuffer
	IndirectBuffer
	BlitSource
	BlitDestination
	ColorAttachment
	DepthStencilAttachment
	InputAttachment
	UnusedRenderTarget
	UnusedArgumentBuffer
	MipGeneration
	BlitSynchronisation
)

func (k AccessKind) String() string {
	switch k {
	case Read:
		return "read"
	case Write:
		return "write"
	case ReadWrite:
		return "read-write"
	case VertexBuffer:
		return "vertex-buffer"
	case IndexBuffer:
		return "index-buffer"
	case ConstantBuffer:
		return "constant-buffer"
	case IndirectBuffer:
		return "indirect-buffer"
	case BlitSource:
		return "blit-source"
	case BlitDestination:
		return "blit-destination"
	case ColorAttachment:
		return "color-attachment"
	case DepthStencilAttachment:
		return "depth-stencil-attachment"
	case InputAttachment:
		return "input-attachment"
	case UnusedRenderTarget:
		return "unused-render-target"
	case UnusedArgumentBuffer:
		return "unused-argument-buffer"
	case MipGeneration:
		return "mip-generation"
	case BlitSynchronisation:
		return "blit-synchronisation"
	default:
		return fmt.Sprintf("access-kind(%d)", uint8(k))
	}
}

// IsRenderTarget reports whether k is one of the render-target access
// classes, which merge by a dedicated rule (see List.Append).
func (k AccessKind) IsRenderTarget() bool {
	switch k {
	case ColorAttachment, DepthStencilAttachment, InputAttachment, UnusedRenderTarget:
		return true
	}
	return false
}

// IsWrite reports whether k implies the resource is written.
func (k AccessKind) IsWrite() bool {
	switch k {
	case Write, ReadWrite, ColorAttachment, DepthStencilAttachment, InputAttachment,
		BlitDestination, MipGeneration:
		return true
	}
	return false
}

// IsRead reports whether k implies the resource is read.
func (k AccessKind) IsRead() bool {
	switch k {
	case Read, ReadWrite, InputAttachment, VertexBuffer, IndexBuffer, ConstantBuffer,
		IndirectBuffer, BlitSource, BlitSynchronisation:
		return true
	}
	return false
}

// Stages is a bitmask of pipeline stages that perform the access.
type Stages uint32

const (
	StageVertex Stages = 1 << iota
	StageFragment
	StageCompute
	StageBlit
	StageAccelerationStructure
)
