//go:build !nogpu

package pipeline

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// quadVertex is a clip-space position and a texture coordinate.
type quadVertex struct {
	x, y float32
	u, v float32
}

// Fullscreen quad. Texture row 0 is the top of the screen.
var (
	quadVertices = [4]quadVertex{
		{-1, -1, 0, 1},
		{-1, 1, 0, 0},
		{1, 1, 1, 0},
		{1, -1, 1, 1},
	}
	quadIndices = [6]uint16{0, 1, 2, 2, 3, 0}
)

const quadVertexStride = 16

func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1},
			},
		},
	}
}

func quadVertexBytes() []byte {
	buf := make([]byte, 0, len(quadVertices)*quadVertexStride)
	for _, q := range quadVertices {
		for _, f := range [4]float32{q.x, q.y, q.u, q.v} {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(f))
		}
	}
	return buf
}

func quadIndexBytes() []byte {
	buf := make([]byte, 0, len(quadIndices)*2)
	for _, i := range quadIndices {
		buf = binary.LittleEndian.AppendUint16(buf, i)
	}
	return buf
}

// blitPipeline draws a sampled texture over the whole render target.
// Its resources depend only on the target format, not on the buffer.
type blitPipeline struct {
	device hal.Device

	shader      hal.ShaderModule
	groupLayout hal.BindGroupLayout
	pipeLayout  hal.PipelineLayout
	sampler     hal.Sampler
	pipeline    hal.RenderPipeline
	vertices    hal.Buffer
	indices     hal.Buffer
}

func newBlitPipeline(device hal.Device, queue hal.Queue, target gputypes.TextureFormat) (*blitPipeline, error) {
	b := &blitPipeline{device: device}
	if err := b.create(queue, target); err != nil {
		b.destroy()
		return nil, err
	}
	return b, nil
}

func (b *blitPipeline) create(queue hal.Queue, target gputypes.TextureFormat) error {
	shader, err := b.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "pixbuf_blit_shader",
		Source: hal.ShaderSource{WGSL: blitShaderSource},
	})
	if err != nil {
		return fmt.Errorf("compile pixbuf_blit shader: %w", err)
	}
	b.shader = shader

	// Binding 0: buffer texture (texture_2d, fragment)
	// Binding 1: nearest sampler (fragment)
	groupLayout, err := b.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "pixbuf_blit_group_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeUnfilterableFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeNonFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_blit group layout: %w", err)
	}
	b.groupLayout = groupLayout

	pipeLayout, err := b.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "pixbuf_blit_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{b.groupLayout},
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_blit pipeline layout: %w", err)
	}
	b.pipeLayout = pipeLayout

	sampler, err := b.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "pixbuf_blit_sampler",
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_blit sampler: %w", err)
	}
	b.sampler = sampler

	pipeline, err := b.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "pixbuf_blit_pipeline",
		Layout: b.pipeLayout,
		Vertex: hal.VertexState{
			Module:     b.shader,
			EntryPoint: blitVertexEntry,
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     b.shader,
			EntryPoint: blitFragmentEntry,
			Targets: []gputypes.ColorTargetState{
				{
					Format:    target,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_blit pipeline: %w", err)
	}
	b.pipeline = pipeline

	vertexData := quadVertexBytes()
	vertices, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "pixbuf_quad_vertices",
		Size:  uint64(len(vertexData)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_quad vertex buffer: %w", err)
	}
	b.vertices = vertices
	if err := queue.WriteBuffer(b.vertices, 0, vertexData); err != nil {
		return fmt.Errorf("write pixbuf_quad vertices: %w", err)
	}

	// Index data is padded to 4 bytes for copy alignment.
	indexData := quadIndexBytes()
	indices, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "pixbuf_quad_indices",
		Size:  uint64(len(indexData)+3) &^ 3,
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("create pixbuf_quad index buffer: %w", err)
	}
	b.indices = indices
	if err := queue.WriteBuffer(b.indices, 0, indexData); err != nil {
		return fmt.Errorf("write pixbuf_quad indices: %w", err)
	}
	return nil
}

// bindTexture creates the bind group sampling view.
func (b *blitPipeline) bindTexture(view hal.TextureView) (hal.BindGroup, error) {
	group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "pixbuf_blit_group",
		Layout: b.groupLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.TextureViewBinding{TextureView: view.NativeHandle()}},
			{Binding: 1, Resource: gputypes.SamplerBinding{Sampler: b.sampler.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create pixbuf_blit bind group: %w", err)
	}
	return group, nil
}

// record draws the quad into pass with group bound, covering a
// width x height viewport.
func (b *blitPipeline) record(pass hal.RenderPassEncoder, group hal.BindGroup, width, height uint32) {
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, group, nil)
	pass.SetVertexBuffer(0, b.vertices, 0)
	pass.SetIndexBuffer(b.indices, gputypes.IndexFormatUint16, 0)
	pass.SetViewport(0, 0, float32(width), float32(height), 0, 1)
	pass.SetScissorRect(0, 0, width, height)
	pass.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
}

func (b *blitPipeline) destroy() {
	if b.device == nil {
		return
	}
	if b.indices != nil {
		b.device.DestroyBuffer(b.indices)
		b.indices = nil
	}
	if b.vertices != nil {
		b.device.DestroyBuffer(b.vertices)
		b.vertices = nil
	}
	if b.pipeline != nil {
		b.device.DestroyRenderPipeline(b.pipeline)
		b.pipeline = nil
	}
	if b.sampler != nil {
		b.device.DestroySampler(b.sampler)
		b.sampler = nil
	}
	if b.pipeLayout != nil {
		b.device.DestroyPipelineLayout(b.pipeLayout)
		b.pipeLayout = nil
	}
	if b.groupLayout != nil {
		b.device.DestroyBindGroupLayout(b.groupLayout)
		b.groupLayout = nil
	}
	if b.shader != nil {
		b.device.DestroyShaderModule(b.shader)
		b.shader = nil
	}
}
