//go:build !nogpu

package interop

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// Host is a HAL staging buffer mapped into the process.
//
// The pipeline copies it into the texture with CopyBufferToTexture and
// calls Release before submitting the copy and Acquire once the copy has
// completed. A persistent Host ignores both and stays mapped from creation
// until Close, so its address never changes between frames.
type Host struct {
	device     hal.Device
	buffer     hal.Buffer
	layout     Layout
	backend    string
	persistent bool
	mapped     []byte
}

// NewHost allocates and maps a staging buffer of layout.Size bytes.
func NewHost(device hal.Device, layout Layout, backend string, persistent bool) *Host {
	buf, err := device.CreateBuffer(&hal.BufferDescriptor{
		Label: "pixbuf_host_staging",
		Size:  uint64(layout.Size),
		Usage: gputypes.BufferUsageMapWrite | gputypes.BufferUsageCopySrc,
	})
	pixbuf.Ensure(backend, "CreateBuffer", err)

	h := &Host{
		device:     device,
		buffer:     buf,
		layout:     layout,
		backend:    backend,
		persistent: persistent,
	}
	h.Acquire()
	return h
}

// Domain returns pixbuf.DomainHost.
func (h *Host) Domain() pixbuf.Domain { return pixbuf.DomainHost }

// Layout returns the allocation geometry.
func (h *Host) Layout() Layout { return h.layout }

// Persistent reports whether the buffer stays mapped across frames.
func (h *Host) Persistent() bool { return h.persistent }

// Address returns the mapped address, or 0 while released.
func (h *Host) Address() uintptr {
	return addressOf(h.mapped)
}

// Bytes returns the mapped memory, or nil while released.
func (h *Host) Bytes() []byte { return h.mapped }

// Acquire maps the staging buffer if it is not mapped.
func (h *Host) Acquire() {
	if h.mapped != nil {
		return
	}
	m, err := h.device.MapBuffer(h.buffer, 0, uint64(h.layout.Size))
	pixbuf.Ensure(h.backend, "MapBuffer", err)
	if m.Ptr == nil {
		pixbuf.Fatal(h.backend, "MapBuffer", hal.ErrInvalidMapRange)
	}
	h.mapped = unsafe.Slice((*byte)(m.Ptr), h.layout.Size)
}

// Release unmaps a per-frame staging buffer. It does nothing when the
// Host is persistent.
func (h *Host) Release() {
	if h.persistent {
		return
	}
	h.unmap()
}

func (h *Host) unmap() {
	if h.mapped == nil {
		return
	}
	h.mapped = nil
	pixbuf.Ensure(h.backend, "UnmapBuffer", h.device.UnmapBuffer(h.buffer))
}

// RecordsCopy returns true.
func (h *Host) RecordsCopy() bool { return true }

// Upload records a copy of the whole staging buffer into dst.
func (h *Host) Upload(enc hal.CommandEncoder, _ hal.Queue, dst hal.Texture) {
	enc.CopyBufferToTexture(h.buffer, dst, []hal.BufferTextureCopy{copyRegion(h.layout, dst)})
}

// Close unmaps and destroys the staging buffer.
func (h *Host) Close() {
	if h.buffer == nil {
		return
	}
	h.unmap()
	h.device.DestroyBuffer(h.buffer)
	h.buffer = nil
}

var _ Memory = (*Host)(nil)
