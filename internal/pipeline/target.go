//go:build !nogpu

package pipeline

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// renderTarget is where frames are drawn: a window surface, or an
// offscreen texture when the pipeline has no window.
type renderTarget interface {
	// format returns the color format of acquired textures.
	format() gputypes.TextureFormat

	// configure sizes the target. It is called before the first acquire
	// and again after every recreate.
	configure(width, height uint32) error

	// acquire returns the next texture to draw into. hal.ErrNotReady
	// means no texture is available this frame.
	acquire() (hal.Texture, error)

	// present shows tex after the submitted frame that drew it.
	present(tex hal.Texture) error

	// discard returns an acquired texture that will not be presented.
	discard(tex hal.Texture)

	// unconfigure releases the textures of the current configuration.
	unconfigure()

	// destroy releases the target.
	destroy()
}

// surfaceTarget presents through a window surface.
type surfaceTarget struct {
	device  hal.Device
	queue   hal.Queue
	surface hal.Surface

	textureFormat gputypes.TextureFormat
	presentMode   gputypes.PresentMode
	alphaMode     gputypes.CompositeAlphaMode
}

func newSurfaceTarget(d *gpuDevice, surface hal.Surface, v variant, vsync bool) *surfaceTarget {
	t := &surfaceTarget{
		device:        d.device,
		queue:         d.queue,
		surface:       surface,
		textureFormat: v.formats[0],
		presentMode:   gputypes.PresentModeFifo,
		alphaMode:     gputypes.CompositeAlphaModeOpaque,
	}
	if caps := d.adapter.SurfaceCapabilities(surface); caps != nil {
		t.textureFormat = chooseFormat(v.formats, caps.Formats)
		t.presentMode = choosePresentMode(vsync, caps.PresentModes)
	}
	return t
}

func (t *surfaceTarget) format() gputypes.TextureFormat { return t.textureFormat }

func (t *surfaceTarget) configure(width, height uint32) error {
	err := t.surface.Configure(t.device, &hal.SurfaceConfiguration{
		Width:       width,
		Height:      height,
		Format:      t.textureFormat,
		Usage:       gputypes.TextureUsageRenderAttachment,
		PresentMode: t.presentMode,
		AlphaMode:   t.alphaMode,
	})
	if err != nil {
		return fmt.Errorf("configure surface %dx%d: %w", width, height, err)
	}
	return nil
}

func (t *surfaceTarget) acquire() (hal.Texture, error) {
	acquired, err := t.surface.AcquireTexture(nil)
	if err != nil {
		return nil, err
	}
	if acquired == nil || acquired.Texture == nil {
		return nil, hal.ErrNotReady
	}
	return acquired.Texture, nil
}

func (t *surfaceTarget) present(tex hal.Texture) error {
	st, ok := tex.(hal.SurfaceTexture)
	if !ok {
		return fmt.Errorf("present: %T is not a surface texture", tex)
	}
	return t.queue.Present(t.surface, st, nil)
}

func (t *surfaceTarget) discard(tex hal.Texture) {
	if st, ok := tex.(hal.SurfaceTexture); ok {
		t.surface.DiscardTexture(st)
	}
}

func (t *surfaceTarget) unconfigure() {
	t.surface.Unconfigure(t.device)
}

// destroy is a no-op; the surface is destroyed with the device.
func (t *surfaceTarget) destroy() {}

// offscreenTarget draws into a texture that is never presented.
type offscreenTarget struct {
	device        hal.Device
	texture       hal.Texture
	textureFormat gputypes.TextureFormat
}

func newOffscreenTarget(d *gpuDevice, v variant) *offscreenTarget {
	return &offscreenTarget{device: d.device, textureFormat: v.formats[0]}
}

func (t *offscreenTarget) format() gputypes.TextureFormat { return t.textureFormat }

func (t *offscreenTarget) configure(width, height uint32) error {
	t.unconfigure()
	tex, err := t.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "pixbuf_offscreen_target",
		Size:          hal.Extent3D{Width: width, Height: height, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        t.textureFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create offscreen target %dx%d: %w", width, height, err)
	}
	t.texture = tex
	return nil
}

func (t *offscreenTarget) acquire() (hal.Texture, error) {
	if t.texture == nil {
		return nil, hal.ErrNotReady
	}
	return t.texture, nil
}

func (t *offscreenTarget) present(hal.Texture) error { return nil }

func (t *offscreenTarget) discard(hal.Texture) {}

func (t *offscreenTarget) unconfigure() {
	if t.texture != nil {
		t.device.DestroyTexture(t.texture)
		t.texture = nil
	}
}

func (t *offscreenTarget) destroy() { t.unconfigure() }
