// Package command defines the tagged-union opcode set the recorder emits
// and the backend interprets, per spec.md §6. A Command carries no
// language type identity of its own - the backend switches on Op and
// interprets Inline/Payload accordingly, the same way the teacher's HAL
// barrier types are plain data consumed by a backend-specific encoder.
package command

import "fmt"

// Op is an opcode in the command tagged union.
type Op uint16

const (
	// General
	OpSetLabel Op = iota
	OpPushDebugGroup
	OpPopDebugGroup
	OpInsertDebugSignpost
	OpSetBytes
	OpSetBuffer
	OpSetBufferOffset
	OpSetTexture
	OpSetSampler
	OpSetArgumentBuffer
	OpSetArgumentBufferArray
	OpSetAccelerationStructure
	OpSetVisibleFunctionTable
	OpSetIntersectionFunctionTable

	// Render
	OpSetVertexBuffer
	OpSetVertexBufferOffset
	OpSetRenderPipelineDescriptor
	OpSetRenderPipelineState
	OpDrawPrimitives
	OpDrawIndexedPrimitives
	OpSetViewport
	OpSetFrontFacing
	OpSetCullMode
	OpSetTriangleFillMode
	OpSetDepthStencilDescriptor
	OpSetScissorRect
	OpSetDepthClipMode
	OpSetDepthBias
	OpSetStencilReferenceValue
	OpClearRenderTargets

	// Compute
	OpSetComputePipelineDescriptor
	OpSetComputePipelineState
	OpDispatchThreads
	OpDispatchThreadgroups
	OpDispatchThreadgroupsIndirect
	OpSetStageInRegion
	OpSetThreadgroupMemoryLength

	// Blit
	OpCopyBufferToBuffer
	OpCopyBufferToTexture
	OpCopyTextureToBuffer
	OpCopyTextureToTexture
	OpBlitTextureToTexture
	OpFillBuffer
	OpGenerateMipmaps
	OpSynchroniseBuffer
	OpSynchroniseTexture

	// Acceleration structure
	OpBuildAccelerationStructure
	OpRefitAccelerationStructure
	OpCopyAccelerationStructure
	OpCopyAndCompactAccelerationStructure
	OpWriteCompactedSize

	// External
	OpEncodeExternalCommand
)

var opNames = map[Op]string{
	OpSetLabel:                             "set_label",
	OpPushDebugGroup:                       "push_debug_group",
	OpPopDebugGroup:                        "pop_debug_group",
	OpInsertDebugSignpost:                  "insert_debug_signpost",
	OpSetBytes:                             "set_bytes",
	OpSetBuffer:                            "set_buffer",
	OpSetBufferOffset:                      "set_buffer_offset",
	OpSetTexture:                           "set_texture",
	OpSetSampler:                           "set_sampler",
	OpSetArgumentBuffer:                    "set_argument_buffer",
	OpSetArgumentBufferArray:               "set_argument_buffer_array",
	OpSetAccelerationStructure:             "set_acceleration_structure",
	OpSetVisibleFunctionTable:              "set_visible_function_table",
	OpSetIntersectionFunctionTable:         "set_intersection_function_table",
	OpSetVertexBuffer:                      "set_vertex_buffer",
	OpSetVertexBufferOffset:                "set_vertex_buffer_offset",
	OpSetRenderPipelineDescriptor:          "set_render_pipeline_descriptor",
	OpSetRenderPipelineState:               "set_render_pipeline_state",
	OpDrawPrimitives:                       "draw_primitives",
	OpDrawIndexedPrimitives:                "draw_indexed_primitives",
	OpSetViewport:                          "set_viewport",
	OpSetFrontFacing:                       "set_front_facing",
	OpSetCullMode:                          "set_cull_mode",
	OpSetTriangleFillMode:                  "set_triangle_fill_mode",
	OpSetDepthStencilDescriptor:            "set_depth_stencil_descriptor",
	OpSetScissorRect:                       "set_scissor_rect",
	OpSetDepthClipMode:                     "set_depth_clip_mode",
	OpSetDepthBias:                         "set_depth_bias",
	OpSetStencilReferenceValue:             "set_stencil_reference_value",
	OpClearRenderTargets:                   "clear_render_targets",
	OpSetComputePipelineDescriptor:         "set_compute_pipeline_descriptor",
	OpSetComputePipelineState:              "set_compute_pipeline_state",
	OpDispatchThreads:                      "dispatch_threads",
	OpDispatchThreadgroups:                 "dispatch_threadgroups",
	OpDispatchThreadgroupsIndirect:         "dispatch_threadgroups_indirect",
	OpSetStageInRegion:                     "set_stage_in_region",
	OpSetThreadgroupMemoryLength:           "set_threadgroup_memory_length",
	OpCopyBufferToBuffer:                   "copy_buffer_to_buffer",
	OpCopyBufferToTexture:                  "copy_buffer_to_texture",
	OpCopyTextureToBuffer:                  "copy_texture_to_buffer",
	OpCopyTextureToTexture:                 "copy_texture_to_texture",
	OpBlitTextureToTexture:                 "blit_texture_to_texture",
	OpFillBuffer:                           "fill_buffer",
	OpGenerateMipmaps:                      "generate_mipmaps",
	OpSynchroniseBuffer:                    "synchronise_buffer",
	OpSynchroniseTexture:                   "synchronise_texture",
	OpBuildAccelerationStructure:           "build",
	OpRefitAccelerationStructure:           "refit",
	OpCopyAccelerationStructure:            "copy",
	OpCopyAndCompactAccelerationStructure:  "copy_and_compact",
	OpWriteCompactedSize:                   "write_compacted_size",
	OpEncodeExternalCommand:                "encode_external_command",
}

func (op Op) String() string {
	if name, ok := opNames[op]; ok {
		return name
	}
	return fmt.Sprintf("op(%d)", uint16(op))
}

// Command is one entry in a pass's recorded command stream. Inline holds
// any payload that fits in 64 bits (a packed handle, a small scalar);
// Payload references arena-owned bytes for anything larger and is nil
// when unused. Payload's backing array is only valid for as long as the
// graph-execution arena tag that produced it is alive.
type Command struct {
	Op      Op
	Inline  uint64
	Payload []byte
}
