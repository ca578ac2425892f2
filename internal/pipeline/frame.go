//go:build !nogpu

package pipeline

import (
	"errors"
	"runtime"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// frameSlots is the number of frames in flight.
const frameSlots = 2

// frameSlot holds the per-frame objects that live until the frame's
// submission completes.
type frameSlot struct {
	copyEncoder hal.CommandEncoder
	drawEncoder hal.CommandEncoder
	copyCmd     hal.CommandBuffer
	drawCmd     hal.CommandBuffer

	// view is the render target view of the frame's acquired texture.
	view hal.TextureView

	// index is the submission index of the frame's draw; 0 when unused.
	index uint64
}

const (
	spinYields    = 16
	maxFenceSleep = time.Millisecond
)

func (p *Pipeline) createSlots() {
	for i := range p.slots {
		s := &p.slots[i]
		var err error
		s.copyEncoder, err = p.gpu.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pixbuf_copy_encoder"})
		p.ensure("CreateCommandEncoder", err)
		s.drawEncoder, err = p.gpu.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "pixbuf_draw_encoder"})
		p.ensure("CreateCommandEncoder", err)
	}
}

func (p *Pipeline) destroySlots() {
	for i := range p.slots {
		s := &p.slots[i]
		if s.copyEncoder != nil {
			s.copyEncoder.Destroy()
			s.copyEncoder = nil
		}
		if s.drawEncoder != nil {
			s.drawEncoder.Destroy()
			s.drawEncoder = nil
		}
	}
}

// waitSubmission blocks until the queue has completed submission index.
func (p *Pipeline) waitSubmission(index uint64) {
	if index == 0 {
		return
	}
	sleep := time.Microsecond
	for spins := 0; p.gpu.queue.PollCompleted() < index; spins++ {
		if spins < spinYields {
			runtime.Gosched()
			continue
		}
		time.Sleep(sleep)
		if sleep < maxFenceSleep {
			sleep *= 2
		}
	}
}

// waitSlot waits for the slot's frame to complete and recycles its
// command buffers and view.
func (p *Pipeline) waitSlot(s *frameSlot) {
	p.waitSubmission(s.index)
	s.index = 0
	if s.copyCmd != nil {
		s.copyEncoder.ResetAll([]hal.CommandBuffer{s.copyCmd})
		s.copyCmd = nil
	}
	if s.drawCmd != nil {
		s.drawEncoder.ResetAll([]hal.CommandBuffer{s.drawCmd})
		s.drawCmd = nil
	}
	if s.view != nil {
		p.gpu.device.DestroyTextureView(s.view)
		s.view = nil
	}
}

func isSurfaceStale(err error) bool {
	return errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost)
}

// Render uploads the buffer and presents it over a displayWidth x
// displayHeight target.
//
// A zero display area or an unavailable target texture skips the frame.
// A display size change, or a stale surface, recreates the target and the
// buffer resources first. When Render returns, the buffer may be written
// again.
func (p *Pipeline) Render(displayWidth, displayHeight uint32) {
	if p.closed {
		return
	}
	if displayWidth == 0 || displayHeight == 0 {
		p.stats.Skipped++
		return
	}
	switch {
	case p.displayWidth == 0 && p.displayHeight == 0:
		p.configureTarget(displayWidth, displayHeight)
	case p.stale, displayWidth != p.displayWidth, displayHeight != p.displayHeight:
		p.recreate(displayWidth, displayHeight)
	}

	slot := &p.slots[p.current]
	p.waitSlot(slot)

	tex, err := p.target.acquire()
	switch {
	case err == nil:
	case errors.Is(err, hal.ErrNotReady), errors.Is(err, hal.ErrTimeout):
		p.stats.Skipped++
		return
	case isSurfaceStale(err):
		p.recreate(displayWidth, displayHeight)
		p.stats.Skipped++
		return
	default:
		pixbuf.Fatal(p.name, "AcquireTexture", err)
	}

	view, err := p.gpu.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:           "pixbuf_target_view",
		Format:          p.target.format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		p.target.discard(tex)
		pixbuf.Fatal(p.name, "CreateTextureView", err)
	}
	slot.view = view

	copyIndex := p.upload(slot)
	p.draw(slot, view, displayWidth, displayHeight)

	if err := p.target.present(tex); err != nil {
		if !isSurfaceStale(err) {
			pixbuf.Fatal(p.name, "Present", err)
		}
		p.stale = true
	}

	// The buffer is writable again once its copy has been consumed.
	p.waitSubmission(copyIndex)
	p.memory.Acquire()

	p.stats.Frames++
	p.current = (p.current + 1) % frameSlots
}

// upload moves the buffer into the texture. A recorded copy is submitted
// on its own so the buffer can be released before the draw completes; its
// submission index is returned, or 0 when the queue performed the upload.
func (p *Pipeline) upload(slot *frameSlot) uint64 {
	if !p.memory.RecordsCopy() {
		p.memory.Upload(nil, p.gpu.queue, p.texture)
		return 0
	}

	enc := slot.copyEncoder
	p.ensure("BeginEncoding", enc.BeginEncoding("pixbuf_copy"))
	enc.TransitionTextures([]hal.TextureBarrier{p.textureBarrier(gputypes.TextureUsageCopyDst)})
	p.memory.Upload(enc, p.gpu.queue, p.texture)
	enc.TransitionTextures([]hal.TextureBarrier{p.textureBarrier(gputypes.TextureUsageTextureBinding)})
	cmd, err := enc.EndEncoding()
	p.ensure("EndEncoding", err)
	slot.copyCmd = cmd

	// Per-frame mappings must be unmapped while the GPU reads them;
	// persistent ones stay mapped.
	p.memory.Release()
	index, err := p.gpu.queue.Submit([]hal.CommandBuffer{cmd})
	p.ensure("Submit", err)
	return index
}

// textureBarrier transitions the buffer texture to usage.
func (p *Pipeline) textureBarrier(usage gputypes.TextureUsage) hal.TextureBarrier {
	b := hal.TextureBarrier{
		Texture: p.texture,
		Range: hal.TextureRange{
			Aspect:          gputypes.TextureAspectAll,
			MipLevelCount:   1,
			ArrayLayerCount: 1,
		},
		Usage: hal.TextureUsageTransition{OldUsage: p.textureUsage, NewUsage: usage},
	}
	p.textureUsage = usage
	return b
}

// draw records and submits the clear and the fullscreen quad.
func (p *Pipeline) draw(slot *frameSlot, view hal.TextureView, width, height uint32) {
	enc := slot.drawEncoder
	p.ensure("BeginEncoding", enc.BeginEncoding("pixbuf_draw"))
	pass := enc.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "pixbuf_blit_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{
			{
				View:       view,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 1},
			},
		},
	})
	p.blit.record(pass, p.group, width, height)
	pass.End()
	cmd, err := enc.EndEncoding()
	p.ensure("EndEncoding", err)
	slot.drawCmd = cmd

	index, err := p.gpu.queue.Submit([]hal.CommandBuffer{cmd})
	p.ensure("Submit", err)
	slot.index = index
}
