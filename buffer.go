package pixbuf

import (
	"unsafe"
)

// Buffer is an application-writable pixel buffer presented to a display
// surface every frame.
//
// A Buffer forwards to exactly one Pipeline, chosen at creation from the
// graphics API and fixed for its lifetime. The zero Buffer has no pipeline:
// every accessor returns zero, None or nil and Render does nothing.
//
// Buffer is NOT safe for concurrent use. Drive each Buffer from a single
// goroutine; independent Buffers may run on different goroutines.
type Buffer struct {
	impl Pipeline
	api  GraphicsAPI
}

// NewBuffer creates a buffer for desc presenting to target.
//
// Backend failures are fatal (see Fatal): missing pipeline registration,
// a device buffer without an accelerator, or an invalid descriptor panic
// with a *FatalError. GraphicsAPINone returns a Buffer without implementation.
func NewBuffer(target SurfaceTarget, desc Descriptor, opts ...BufferOption) *Buffer {
	o := defaultBufferOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.api == GraphicsAPINone {
		return &Buffer{}
	}

	factory, api, err := resolvePipeline(o.api)
	Ensure(o.api.String(), "NewBuffer", err)
	checkDescriptor(api, "NewBuffer", desc)

	a := o.accelerator
	if a == nil {
		a = Accelerator()
	}
	if desc.Domain == DomainDevice && a == nil {
		Fatal(api.String(), "NewBuffer", ErrNoAccelerator)
	}

	p := factory(PipelineConfig{
		API:         api,
		Target:      target,
		Descriptor:  desc,
		Accelerator: a,
		VSync:       o.vsync,
		Debug:       o.debug,
	})
	Logger().Debug("pixbuf: buffer created", "api", api.String(), "desc", desc.String(),
		"pitch", p.Pitch(), "size", p.Size())
	return &Buffer{impl: p, api: api}
}

// newBufferWithPipeline wraps an existing pipeline.
func newBufferWithPipeline(p Pipeline, api GraphicsAPI) *Buffer {
	return &Buffer{impl: p, api: api}
}

func checkDescriptor(api GraphicsAPI, op string, desc Descriptor) {
	if !desc.Valid() {
		Fatal(api.String(), op, ErrInvalidDescriptor)
	}
}

// Resize destroys and recreates every resource of the buffer for desc.
// Resize is synchronous: on return the new configuration is active and any
// previously returned data pointer or slice is invalid.
func (b *Buffer) Resize(desc Descriptor) {
	if b == nil || b.impl == nil {
		Fatal(GraphicsAPINone.String(), "Resize", ErrNilImplementation)
		return
	}
	checkDescriptor(b.api, "Resize", desc)
	b.impl.Resize(desc)
}

// Render presents the current buffer contents scaled to a display of the
// given size. It blocks until the frame slot being reused is free.
func (b *Buffer) Render(displayWidth, displayHeight uint32) {
	if b == nil || b.impl == nil {
		return
	}
	b.impl.Render(displayWidth, displayHeight)
}

// Close releases the buffer's resources. The Buffer must not be used after.
func (b *Buffer) Close() {
	if b == nil || b.impl == nil {
		return
	}
	b.impl.Close()
	b.impl = nil
}

// Data returns the address of the buffer in its domain's address space:
// a process address for DomainHost, an accelerator address for DomainDevice.
// It returns 0 for a buffer without implementation.
func (b *Buffer) Data() uintptr {
	if b == nil || b.impl == nil {
		return 0
	}
	return b.impl.Data()
}

// Descriptor returns the active descriptor, or the invalid descriptor.
func (b *Buffer) Descriptor() Descriptor {
	if b == nil || b.impl == nil {
		return Descriptor{}
	}
	return b.impl.Descriptor()
}

// Width returns the logical width in pixels.
func (b *Buffer) Width() uint32 { return b.Descriptor().Width }

// Height returns the logical height in pixels.
func (b *Buffer) Height() uint32 { return b.Descriptor().Height }

// Format returns the pixel format.
func (b *Buffer) Format() Format { return b.Descriptor().Format }

// Interop returns the memory domain the buffer is written from.
func (b *Buffer) Interop() Domain { return b.Descriptor().Domain }

// API returns the resolved graphics API, or GraphicsAPINone.
func (b *Buffer) API() GraphicsAPI {
	if b == nil || b.impl == nil {
		return GraphicsAPINone
	}
	return b.api
}

// Pitch returns the actual row size in bytes. It may exceed MinPitchBytes;
// row y starts at byte y*Pitch().
func (b *Buffer) Pitch() uint32 {
	if b == nil || b.impl == nil {
		return 0
	}
	return b.impl.Pitch()
}

// Size returns the actual allocation size in bytes.
func (b *Buffer) Size() uint32 {
	if b == nil || b.impl == nil {
		return 0
	}
	return b.impl.Size()
}

// Stats returns the frame counters of the pipeline.
func (b *Buffer) Stats() Stats {
	if b == nil || b.impl == nil {
		return Stats{}
	}
	return b.impl.Stats()
}

// HostBytes returns the host view of a DomainHost buffer, nil otherwise.
// The slice covers Size() bytes and is valid until the next Resize or Close.
func (b *Buffer) HostBytes() []byte {
	if b == nil || b.impl == nil || b.impl.Descriptor().Domain != DomainHost {
		return nil
	}
	return b.impl.Bytes()
}

// Channel is the set of channel types a buffer can be accessed as.
// float32 maps to FormatRGBAFloat32, uint8 to FormatRGBAUint8 and uint16 to
// FormatRGBAUint16.
type Channel interface {
	float32 | uint8 | uint16
}

// FormatOf returns the format whose channels have type T.
func FormatOf[T Channel]() Format {
	var zero T
	switch any(zero).(type) {
	case float32:
		return FormatRGBAFloat32
	case uint8:
		return FormatRGBAUint8
	case uint16:
		return FormatRGBAUint16
	}
	return FormatNone
}

// GetData returns the buffer address if the buffer's format has channel type
// T and its memory domain is domain; otherwise it returns 0.
//
// For any buffer exactly one of GetData[T](b, DomainHost) and
// GetData[T](b, DomainDevice) is non-zero, for the T matching its format.
func GetData[T Channel](b *Buffer, domain Domain) uintptr {
	d := b.Descriptor()
	if d.Format == FormatNone || d.Format != FormatOf[T]() || d.Domain != domain {
		return 0
	}
	return b.Data()
}

// HostData returns the buffer as a slice of channels if it is a DomainHost
// buffer with channel type T, nil otherwise. The slice covers the actual
// allocation; pixel (x, y) channel c is at index
// y*Pitch()/sizeof(T) + x*4 + c.
func HostData[T Channel](b *Buffer) []T {
	if GetData[T](b, DomainHost) == 0 {
		return nil
	}
	raw := b.HostBytes()
	if len(raw) == 0 {
		return nil
	}
	var zero T
	n := len(raw) / int(unsafe.Sizeof(zero))
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n)
}
