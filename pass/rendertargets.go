package pass

import "github.com/gogpu/rendergraph/handle"

// LoadAction is the action taken on an attachment at the start of a pass.
type LoadAction uint8

const (
	LoadDontCare LoadAction = iota
	LoadLoad
	LoadClear
)

// StoreAction is the action taken on an attachment at the end of a pass.
type StoreAction uint8

const (
	StoreDontCare StoreAction = iota
	StoreStore
	StoreMultisampleResolve
)

// ColorAttachment describes one color render target slot.
type ColorAttachment struct {
	Texture        handle.Handle
	ResolveTexture handle.Handle
	Load           LoadAction
	Store          StoreAction
	ClearColor     [4]float64
}

// DepthStencilAttachment describes the depth/stencil render target.
type DepthStencilAttachment struct {
	Texture      handle.Handle
	DepthLoad    LoadAction
	DepthStore   StoreAction
	StencilLoad  LoadAction
	StencilStore StoreAction
	ClearDepth   float64
	ClearStencil uint32
	Format       uint32 // backend-defined depth/stencil format token
}

// RenderTargets is the builder-style render-targets descriptor for draw
// passes (spec.md §9's resolution of the DrawRenderPass migration:
// multi-target, builder-style only).
type RenderTargets struct {
	Colors       []ColorAttachment
	DepthStencil *DepthStencilAttachment
	SampleCount  uint32
	Width        uint32
	Height       uint32
}

// NewRenderTargets starts a render-targets descriptor with the given
// dimensions and sample count.
func NewRenderTargets(width, height, sampleCount uint32) *RenderTargets {
	return &RenderTargets{Width: width, Height: height, SampleCount: sampleCount}
}

// WithColor appends a color attachment and returns the receiver for
// chaining.
func (rt *RenderTargets) WithColor(a ColorAttachment) *RenderTargets {
	rt.Colors = append(rt.Colors, a)
	return rt
}

// WithDepthStencil sets the depth/stencil attachment and returns the
// receiver for chaining.
func (rt *RenderTargets) WithDepthStencil(a DepthStencilAttachment) *RenderTargets {
	rt.DepthStencil = &a
	return rt
}

// Mergeable reports whether rt and other can share a render-target group
// (spec.md §4.6(e)): compatible sizes and sample count, and no two
// distinct, conflicting textures bound to the same attachment slot.
func (rt *RenderTargets) Mergeable(other *RenderTargets) bool {
	if rt.Width != other.Width || rt.Height != other.Height || rt.SampleCount != other.SampleCount {
		return false
	}
	n := len(rt.Colors)
	if len(other.Colors) > n {
		n = len(other.Colors)
	}
	for i := 0; i < n; i++ {
		var a, b handle.Handle
		if i < len(rt.Colors) {
			a = rt.Colors[i].Texture
		}
		if i < len(other.Colors) {
			b = other.Colors[i].Texture
		}
		if !a.IsZero() && !b.IsZero() && a != b {
			return false
		}
	}
	if rt.DepthStencil != nil && other.DepthStencil != nil {
		if rt.DepthStencil.Format != other.DepthStencil.Format {
			return false
		}
		if !rt.DepthStencil.Texture.IsZero() && !other.DepthStencil.Texture.IsZero() &&
			rt.DepthStencil.Texture != other.DepthStencil.Texture {
			return false
		}
	}
	return true
}

// Merge folds other's attachments into rt in place, filling any slots rt
// left unbound. Callers must only call this after confirming Mergeable.
func (rt *RenderTargets) Merge(other *RenderTargets) {
	for len(rt.Colors) < len(other.Colors) {
		rt.Colors = append(rt.Colors, ColorAttachment{})
	}
	for i, c := range other.Colors {
		if rt.Colors[i].Texture.IsZero() {
			rt.Colors[i] = c
		}
	}
	if rt.DepthStencil == nil {
		rt.DepthStencil = other.DepthStencil
	}
}
