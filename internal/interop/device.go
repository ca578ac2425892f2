//go:build !nogpu

package interop

import (
	"fmt"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/shm"
	"github.com/gogpu/wgpu/hal"
)

// Device is a shared memory object exported by the graphics side and
// imported into an accelerator's address space.
//
// The accelerator writes through its device pointer. Each frame the
// pipeline uploads the shared bytes into the texture with Queue.WriteTexture
// before it records the frame's commands.
type Device struct {
	region  *shm.Region
	mapping pixbuf.DeviceMapping
	layout  Layout
	backend string
	accel   pixbuf.DeviceAccelerator
}

// NewDevice exports layout.Size bytes of shared memory and imports them
// into accel.
func NewDevice(layout Layout, backend string, accel pixbuf.DeviceAccelerator) *Device {
	region, err := shm.Create("pixbuf", uint64(layout.Size))
	pixbuf.Ensure(backend, "shm.Create", err)

	h := pixbuf.MemoryHandle{Handle: region.Handle(), Size: region.Size()}
	mapping, err := accel.Import(h)
	if err != nil {
		_ = region.Close()
		pixbuf.Fatal(accel.Name(), "Import", err)
	}
	if mapping.Size() != h.Size {
		_ = mapping.Release()
		_ = region.Close()
		pixbuf.Fatal(accel.Name(), "Import",
			fmt.Errorf("%w: mapped %d bytes, exported %d", shm.ErrSizeMismatch, mapping.Size(), h.Size))
	}
	pixbuf.Logger().Debug("pixbuf: device memory imported",
		"accelerator", accel.Name(), "size", h.Size, "pitch", layout.Pitch)

	return &Device{
		region:  region,
		mapping: mapping,
		layout:  layout,
		backend: backend,
		accel:   accel,
	}
}

// Domain returns pixbuf.DomainDevice.
func (d *Device) Domain() pixbuf.Domain { return pixbuf.DomainDevice }

// Layout returns the allocation geometry.
func (d *Device) Layout() Layout { return d.layout }

// Handle returns the exported handle.
func (d *Device) Handle() pixbuf.MemoryHandle {
	if d.region == nil {
		return pixbuf.MemoryHandle{}
	}
	return pixbuf.MemoryHandle{Handle: d.region.Handle(), Size: d.region.Size()}
}

// Address returns the accelerator device pointer.
func (d *Device) Address() uintptr {
	if d.mapping == nil {
		return 0
	}
	return d.mapping.DevicePointer()
}

// Bytes returns the graphics-side view of the shared memory.
func (d *Device) Bytes() []byte {
	if d.region == nil {
		return nil
	}
	return d.region.Bytes()
}

// Acquire is a no-op: the accelerator mapping lives as long as the memory.
func (d *Device) Acquire() {}

// Release is a no-op.
func (d *Device) Release() {}

// RecordsCopy returns false; the upload goes through the queue.
func (d *Device) RecordsCopy() bool { return false }

// Upload writes the shared memory into dst through the queue.
func (d *Device) Upload(_ hal.CommandEncoder, queue hal.Queue, dst hal.Texture) {
	data := d.Bytes()
	if data == nil {
		return
	}
	region := copyRegion(d.layout, dst)
	err := queue.WriteTexture(&region.TextureBase, data[:d.layout.Size], &region.BufferLayout, &region.Size)
	pixbuf.Ensure(d.backend, "WriteTexture", err)
}

// Close releases the accelerator mapping, then the shared memory.
func (d *Device) Close() {
	if d.mapping != nil {
		pixbuf.Ensure(d.accel.Name(), "Release", d.mapping.Release())
		d.mapping = nil
	}
	if d.region != nil {
		pixbuf.Ensure(d.backend, "shm.Close", d.region.Close())
		d.region = nil
	}
}

var _ Memory = (*Device)(nil)
