package usage

// Hint is a resource descriptor's usage_hint bitset (spec.md §3): the set
// of access kinds a resource may legally be touched with. Persistent
// resources must carry a non-empty hint; it is validated against every
// recorded access at usage-record time.
type Hint uint16

const (
	HintShaderRead Hint = 1 << iota
	HintShaderWrite
	HintRenderTarget
	HintVertexBuffer
	HintIndexBuffer
	HintConstantBuffer
	HintIndirectBuffer
	HintBlitSource
	HintBlitDestination
	HintArgumentBuffer
)

// Permits reports whether k is an access class hint allows.
func (h Hint) Permits(k AccessKind) bool {
	switch k {
	case Read:
		return h&HintShaderRead != 0
	case Write:
		return h&HintShaderWrite != 0
	case ReadWrite:
		return h&HintShaderRead != 0 && h&HintShaderWrite != 0
	case VertexBuffer:
		return h&HintVertexBuffer != 0
	case IndexBuffer:
		return h&HintIndexBuffer != 0
	case ConstantBuffer:
		return h&HintConstantBuffer != 0
	case IndirectBuffer:
		return h&HintIndirectBuffer != 0
	case BlitSource:
		return h&HintBlitSource != 0
	case BlitDestination:
		return h&HintBlitDestination != 0
	case ColorAttachment, DepthStencilAttachment, InputAttachment, UnusedRenderTarget:
		return h&HintRenderTarget != 0
	case UnusedArgumentBuffer:
		return h&HintArgumentBuffer != 0
	case MipGeneration:
		return h&HintShaderWrite != 0
	case BlitSynchronisation:
		return true
	default:
		return false
	}
}
