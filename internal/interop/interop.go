//go:build !nogpu

// Package interop maps a pixel buffer into the memory domain it is written
// from and hands it to the graphics pipeline each frame.
//
// Two implementations exist: Host, a HAL staging buffer mapped into the
// process, and Device, an OS shared memory object imported into an
// accelerator's address space.
package interop

import (
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// Layout is the actual geometry of a buffer allocation.
type Layout struct {
	Width  uint32
	Height uint32

	// Pitch is the row size in bytes, at least pixbuf.MinPitchBytes.
	Pitch uint32

	// Size is Height * Pitch.
	Size uint32
}

// NewLayout returns the layout of desc with rows aligned to alignment bytes.
func NewLayout(desc pixbuf.Descriptor, alignment uint32) Layout {
	pitch := pixbuf.AlignPitch(pixbuf.MinPitchBytes(desc), alignment)
	return Layout{
		Width:  desc.Width,
		Height: desc.Height,
		Pitch:  pitch,
		Size:   pitch * desc.Height,
	}
}

// Memory is the storage of one buffer, shared between the writer (the
// application or an accelerator) and the graphics pipeline.
//
// Backend failures are fatal and reported through pixbuf.Fatal.
type Memory interface {
	// Domain returns the writer's memory domain.
	Domain() pixbuf.Domain

	// Layout returns the allocation geometry.
	Layout() Layout

	// Address returns the writer-side address of the first byte, or 0 while
	// the memory is released.
	Address() uintptr

	// Bytes returns the process view of the memory, or nil while released.
	Bytes() []byte

	// Acquire makes the memory writable. It is a no-op when already acquired.
	Acquire()

	// Release revokes writer access. It is a no-op when already released
	// and for memory that stays mapped for its whole lifetime.
	Release()

	// Upload transfers the contents into dst. Copies that run on the GPU
	// are recorded into enc; the rest go through queue.
	Upload(enc hal.CommandEncoder, queue hal.Queue, dst hal.Texture)

	// RecordsCopy reports whether Upload records a copy into enc, which
	// requires dst to be in the copy destination state.
	RecordsCopy() bool

	// Close releases the memory. Accelerator mappings are freed before the
	// backing allocation.
	Close()
}

// Options selects how New allocates memory.
type Options struct {
	// Backend names the graphics backend for diagnostics.
	Backend string

	// Persistent keeps host memory mapped for the lifetime of the buffer.
	// Otherwise the pipeline releases it around each frame's transfer.
	Persistent bool

	// Accelerator imports device memory.
	Accelerator pixbuf.DeviceAccelerator
}

// New allocates memory for desc in desc.Domain.
func New(device hal.Device, desc pixbuf.Descriptor, layout Layout, opts Options) Memory {
	switch desc.Domain {
	case pixbuf.DomainHost:
		return NewHost(device, layout, opts.Backend, opts.Persistent)
	case pixbuf.DomainDevice:
		if opts.Accelerator == nil {
			pixbuf.Fatal(opts.Backend, "interop.New", pixbuf.ErrNoAccelerator)
		}
		return NewDevice(layout, opts.Backend, opts.Accelerator)
	}
	pixbuf.Fatal(opts.Backend, "interop.New", pixbuf.ErrInvalidDescriptor)
	return nil
}

// copyRegion describes a full-texture copy of layout.
func copyRegion(layout Layout, dst hal.Texture) hal.BufferTextureCopy {
	return hal.BufferTextureCopy{
		BufferLayout: hal.ImageDataLayout{
			Offset:       0,
			BytesPerRow:  layout.Pitch,
			RowsPerImage: layout.Height,
		},
		TextureBase: hal.ImageCopyTexture{
			Texture:  dst,
			MipLevel: 0,
			Aspect:   gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{
			Width:              layout.Width,
			Height:             layout.Height,
			DepthOrArrayLayers: 1,
		},
	}
}

// addressOf returns the address of the first byte of b, or 0.
func addressOf(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}
