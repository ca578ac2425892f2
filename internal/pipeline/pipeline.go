//go:build !nogpu

// Package pipeline implements pixbuf.Pipeline on top of the wgpu HAL.
//
// One Pipeline owns a HAL device, a render target (window surface or
// offscreen texture), the buffer memory and the texture it is copied into.
// Each Render uploads the buffer, draws it over the full display with a
// nearest-sampled quad and presents the result. At most two frames are in
// flight; the submission index of each frame is its completion fence.
package pipeline

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/interop"
	"github.com/gogpu/wgpu/hal"
)

// Pipeline presents a pixel buffer through one HAL backend.
type Pipeline struct {
	variant variant
	name    string
	cfg     pixbuf.PipelineConfig

	gpu     *gpuDevice
	surface hal.Surface
	target  renderTarget
	blit    *blitPipeline
	slots   [frameSlots]frameSlot
	current int

	// Buffer resources, recreated by Resize.
	desc         pixbuf.Descriptor
	layout       interop.Layout
	memory       interop.Memory
	texture      hal.Texture
	textureView  hal.TextureView
	group        hal.BindGroup
	textureUsage gputypes.TextureUsage

	// Display size the target is configured for; zero before the first frame.
	displayWidth  uint32
	displayHeight uint32

	// stale marks a target that must be recreated before the next frame.
	stale bool

	stats  pixbuf.Stats
	closed bool
}

var _ pixbuf.Pipeline = (*Pipeline)(nil)

// New creates a pipeline for cfg. It has the pixbuf.PipelineFactory
// signature; every failure is fatal.
func New(cfg pixbuf.PipelineConfig) pixbuf.Pipeline {
	v, ok := lookupVariant(cfg.API)
	if !ok {
		pixbuf.Fatal(cfg.API.String(), "pipeline.New", pixbuf.ErrNoPipeline)
	}
	return newPipeline(cfg, v)
}

func newPipeline(cfg pixbuf.PipelineConfig, v variant) *Pipeline {
	p := &Pipeline{
		variant: v,
		name:    v.api.String(),
		cfg:     cfg,
	}
	if !cfg.Descriptor.Valid() {
		pixbuf.Fatal(p.name, "pipeline.New", pixbuf.ErrInvalidDescriptor)
	}
	if cfg.Descriptor.Domain == pixbuf.DomainDevice && cfg.Accelerator == nil {
		pixbuf.Fatal(p.name, "pipeline.New", pixbuf.ErrNoAccelerator)
	}
	if cfg.Debug {
		if err := validateShader("pixbuf_blit", blitShaderSource); err != nil {
			pixbuf.Logger().Warn("pixbuf: blit shader validation failed", "backend", p.name, "err", err)
		}
	}

	gpu, surface, err := openDevice(v, cfg.Target, cfg.Debug)
	p.ensure("openDevice", err)
	p.gpu = gpu
	p.surface = surface
	if surface != nil {
		p.target = newSurfaceTarget(gpu, surface, v, cfg.VSync)
	} else {
		p.target = newOffscreenTarget(gpu, v)
	}

	p.blit, err = newBlitPipeline(gpu.device, gpu.queue, p.target.format())
	p.ensure("newBlitPipeline", err)
	p.createSlots()
	p.createBufferResources(cfg.Descriptor)

	pixbuf.Logger().Info("pixbuf: pipeline created",
		"backend", p.name,
		"adapter", gpu.info.Name,
		"target", p.target.format().String(),
		"offscreen", surface == nil,
		"desc", cfg.Descriptor.String(),
		"pitch", p.layout.Pitch)
	return p
}

func (p *Pipeline) ensure(op string, err error) {
	pixbuf.Ensure(p.name, op, err)
}

// createBufferResources allocates the memory, texture, view and bind group
// for desc.
func (p *Pipeline) createBufferResources(desc pixbuf.Descriptor) {
	p.desc = desc
	p.layout = interop.NewLayout(desc, p.gpu.pitchAlignment)

	tex, err := p.gpu.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "pixbuf_buffer_texture",
		Size:          hal.Extent3D{Width: desc.Width, Height: desc.Height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        textureFormat(desc.Format),
		Usage:         gputypes.TextureUsageCopyDst | gputypes.TextureUsageTextureBinding,
	})
	p.ensure("CreateTexture", err)
	p.texture = tex
	p.textureUsage = gputypes.TextureUsageNone

	view, err := p.gpu.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "pixbuf_buffer_view",
		Format:          textureFormat(desc.Format),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	p.ensure("CreateTextureView", err)
	p.textureView = view

	p.group, err = p.blit.bindTexture(view)
	p.ensure("CreateBindGroup", err)

	p.memory = interop.New(p.gpu.device, desc, p.layout, interop.Options{
		Backend:     p.name,
		Persistent:  p.variant.persistentMap,
		Accelerator: p.cfg.Accelerator,
	})
}

// destroyBufferResources releases what createBufferResources allocated.
// The device must be idle.
func (p *Pipeline) destroyBufferResources() {
	if p.memory != nil {
		p.memory.Close()
		p.memory = nil
	}
	if p.group != nil {
		p.gpu.device.DestroyBindGroup(p.group)
		p.group = nil
	}
	if p.textureView != nil {
		p.gpu.device.DestroyTextureView(p.textureView)
		p.textureView = nil
	}
	if p.texture != nil {
		p.gpu.device.DestroyTexture(p.texture)
		p.texture = nil
	}
}

// waitIdle drains the queue and recycles every frame slot.
func (p *Pipeline) waitIdle() {
	p.ensure("WaitIdle", p.gpu.device.WaitIdle())
	for i := range p.slots {
		p.waitSlot(&p.slots[i])
	}
}

// Resize recreates the buffer resources for desc. The render target is
// reconfigured on the next Render.
func (p *Pipeline) Resize(desc pixbuf.Descriptor) {
	if !desc.Valid() {
		pixbuf.Fatal(p.name, "Resize", pixbuf.ErrInvalidDescriptor)
	}
	p.waitIdle()
	p.destroyBufferResources()
	p.target.unconfigure()
	p.displayWidth, p.displayHeight = 0, 0
	p.stale = false
	p.createBufferResources(desc)
	p.stats.Recreated++
	pixbuf.Logger().Debug("pixbuf: buffer resized", "backend", p.name,
		"desc", desc.String(), "pitch", p.layout.Pitch)
}

// recreate destroys and recreates the target configuration and the buffer
// resources for a width x height display. Host contents are carried over.
func (p *Pipeline) recreate(width, height uint32) {
	p.waitIdle()

	var saved []byte
	if p.memory != nil {
		p.memory.Acquire()
		if b := p.memory.Bytes(); b != nil {
			saved = append([]byte(nil), b...)
		}
	}
	p.destroyBufferResources()
	p.target.unconfigure()
	p.configureTarget(width, height)
	p.createBufferResources(p.desc)
	p.stale = false
	if saved != nil {
		copy(p.memory.Bytes(), saved)
	}
	p.stats.Recreated++
	pixbuf.Logger().Debug("pixbuf: display changed, resources recreated",
		"backend", p.name, "width", width, "height", height)
}

func (p *Pipeline) configureTarget(width, height uint32) {
	p.ensure("Configure", p.target.configure(width, height))
	p.displayWidth, p.displayHeight = width, height
}

// Data returns the buffer address in its domain's address space.
func (p *Pipeline) Data() uintptr {
	if p.memory == nil {
		return 0
	}
	return p.memory.Address()
}

// Bytes returns the host view of a DomainHost buffer.
func (p *Pipeline) Bytes() []byte {
	if p.memory == nil || p.memory.Domain() != pixbuf.DomainHost {
		return nil
	}
	return p.memory.Bytes()
}

// Pitch returns the actual row size in bytes.
func (p *Pipeline) Pitch() uint32 { return p.layout.Pitch }

// Size returns the actual allocation size in bytes.
func (p *Pipeline) Size() uint32 { return p.layout.Size }

// Descriptor returns the active descriptor.
func (p *Pipeline) Descriptor() pixbuf.Descriptor { return p.desc }

// Stats returns the frame counters.
func (p *Pipeline) Stats() pixbuf.Stats { return p.stats }

// Close waits for the device to go idle and releases everything in reverse
// order of creation.
func (p *Pipeline) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.waitIdle()
	p.destroySlots()
	p.destroyBufferResources()
	if p.blit != nil {
		p.blit.destroy()
		p.blit = nil
	}
	if p.target != nil {
		p.target.destroy()
	}
	p.gpu.destroy(p.surface)
	pixbuf.Logger().Debug("pixbuf: pipeline closed", "backend", p.name,
		"frames", p.stats.Frames, "skipped", p.stats.Skipped, "recreated", p.stats.Recreated)
}
