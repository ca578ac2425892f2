package pixbuf

import (
	"errors"
	"slices"
	"testing"
	"unsafe"
)

// fakePipeline is a host-memory Pipeline for facade tests.
type fakePipeline struct {
	cfg     PipelineConfig
	desc    Descriptor
	pitch   uint32
	data    []byte
	stats   Stats
	renders [][2]uint32
	closed  int
}

func newFakePipeline(cfg PipelineConfig) *fakePipeline {
	p := &fakePipeline{cfg: cfg}
	p.alloc(cfg.Descriptor)
	return p
}

func (p *fakePipeline) alloc(desc Descriptor) {
	p.desc = desc
	p.pitch = AlignPitch(MinPitchBytes(desc), 256)
	p.data = make([]byte, p.pitch*desc.Height)
}

func (p *fakePipeline) Resize(desc Descriptor) {
	p.alloc(desc)
	p.stats.Recreated++
}

func (p *fakePipeline) Render(w, h uint32) {
	p.renders = append(p.renders, [2]uint32{w, h})
	if w == 0 || h == 0 {
		p.stats.Skipped++
		return
	}
	p.stats.Frames++
}

func (p *fakePipeline) Data() uintptr {
	if p.desc.Domain == DomainDevice {
		return 0xd0000000
	}
	return uintptr(unsafe.Pointer(unsafe.SliceData(p.data)))
}

func (p *fakePipeline) Bytes() []byte {
	if p.desc.Domain != DomainHost {
		return nil
	}
	return p.data
}

func (p *fakePipeline) Pitch() uint32          { return p.pitch }
func (p *fakePipeline) Size() uint32           { return uint32(len(p.data)) }
func (p *fakePipeline) Descriptor() Descriptor { return p.desc }
func (p *fakePipeline) Stats() Stats           { return p.stats }
func (p *fakePipeline) Close()                 { p.closed++ }

// registerFake registers a fakePipeline factory for api and returns a
// pointer to the last pipeline it created.
func registerFake(t *testing.T, api GraphicsAPI) **fakePipeline {
	t.Helper()
	var last *fakePipeline
	RegisterPipeline(api, func(cfg PipelineConfig) Pipeline {
		last = newFakePipeline(cfg)
		return last
	})
	t.Cleanup(func() { UnregisterPipeline(api) })
	return &last
}

// expectFatal runs fn and checks that it panics with a *FatalError wrapping
// target.
func expectFatal(t *testing.T, target error, fn func()) *FatalError {
	t.Helper()
	var fe *FatalError
	func() {
		defer func() {
			r := recover()
			if r == nil {
				t.Fatal("expected a fatal panic")
			}
			err, ok := r.(error)
			if !ok || !errors.As(err, &fe) {
				t.Fatalf("panic value %v is not a *FatalError", r)
			}
		}()
		fn()
	}()
	if target != nil && !errors.Is(fe, target) {
		t.Errorf("fatal error %v does not wrap %v", fe, target)
	}
	return fe
}

func hostDesc(w, h uint32, f Format) Descriptor {
	return Descriptor{Width: w, Height: h, Format: f, Domain: DomainHost}
}

func TestNewBufferForwardsConfig(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()
	last := registerFake(t, GraphicsAPIVulkan)

	target := SurfaceTarget{Display: 1, Window: 2}
	desc := hostDesc(100, 50, FormatRGBAUint8)
	b := NewBuffer(target, desc, WithGraphicsAPI(GraphicsAPIVulkan), WithVSync(false), WithDebug(true))
	defer b.Close()

	p := *last
	if p == nil {
		t.Fatal("factory was not called")
	}
	want := PipelineConfig{API: GraphicsAPIVulkan, Target: target, Descriptor: desc, VSync: false, Debug: true}
	if p.cfg != want {
		t.Errorf("config = %+v, want %+v", p.cfg, want)
	}
	if b.API() != GraphicsAPIVulkan {
		t.Errorf("API() = %v", b.API())
	}
	if b.Width() != 100 || b.Height() != 50 || b.Format() != FormatRGBAUint8 || b.Interop() != DomainHost {
		t.Errorf("accessors = %d %d %v %v", b.Width(), b.Height(), b.Format(), b.Interop())
	}
	if b.Pitch() != 512 || b.Size() != 512*50 {
		t.Errorf("Pitch() = %d, Size() = %d, want 512, %d", b.Pitch(), b.Size(), 512*50)
	}
	if b.Pitch() < MinPitchBytes(desc) || b.Size() < MinSizeBytes(desc) {
		t.Error("actual pitch or size below the minimum")
	}
}

func TestNewBufferNativeResolves(t *testing.T) {
	registerFake(t, GraphicsAPIOpenGL)
	registerFake(t, GraphicsAPIVulkan)

	b := NewBuffer(SurfaceTarget{}, hostDesc(8, 8, FormatRGBAUint8))
	defer b.Close()
	if b.API() != GraphicsAPIVulkan {
		t.Errorf("native resolved to %v, want vulkan", b.API())
	}
}

func TestNewBufferNoneHasNoImplementation(t *testing.T) {
	b := NewBuffer(SurfaceTarget{}, Descriptor{}, WithGraphicsAPI(GraphicsAPINone))
	if b.API() != GraphicsAPINone || b.Descriptor() != (Descriptor{}) || b.Data() != 0 {
		t.Error("buffer without implementation returned non-zero values")
	}
	b.Render(100, 100)
	b.Close()
}

func TestNewBufferFatal(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()
	registerFake(t, GraphicsAPIMetal)

	t.Run("unregistered API", func(t *testing.T) {
		expectFatal(t, ErrNoPipeline, func() {
			NewBuffer(SurfaceTarget{}, hostDesc(1, 1, FormatRGBAUint8), WithGraphicsAPI(GraphicsAPIDirectX12))
		})
	})
	t.Run("invalid descriptor", func(t *testing.T) {
		fe := expectFatal(t, ErrInvalidDescriptor, func() {
			NewBuffer(SurfaceTarget{}, Descriptor{}, WithGraphicsAPI(GraphicsAPIMetal))
		})
		if fe.Backend != "metal" || fe.Op != "NewBuffer" {
			t.Errorf("FatalError = %+v", fe)
		}
	})
	t.Run("device without accelerator", func(t *testing.T) {
		desc := Descriptor{Width: 4, Height: 4, Format: FormatRGBAFloat32, Domain: DomainDevice}
		expectFatal(t, ErrNoAccelerator, func() {
			NewBuffer(SurfaceTarget{}, desc, WithGraphicsAPI(GraphicsAPIMetal))
		})
	})
}

func TestNewBufferDeviceUsesAccelerator(t *testing.T) {
	t.Cleanup(resetAccelerator)
	resetAccelerator()
	last := registerFake(t, GraphicsAPIVulkan)

	registered := &mockAccelerator{name: "registered"}
	if err := RegisterAccelerator(registered); err != nil {
		t.Fatal(err)
	}
	desc := Descriptor{Width: 4, Height: 4, Format: FormatRGBAFloat32, Domain: DomainDevice}

	b := NewBuffer(SurfaceTarget{}, desc, WithGraphicsAPI(GraphicsAPIVulkan))
	if (*last).cfg.Accelerator != registered {
		t.Error("registered accelerator not passed to the pipeline")
	}
	b.Close()

	override := &mockAccelerator{name: "override"}
	b = NewBuffer(SurfaceTarget{}, desc, WithGraphicsAPI(GraphicsAPIVulkan), WithAccelerator(override))
	if (*last).cfg.Accelerator != override {
		t.Error("WithAccelerator did not override the registered accelerator")
	}
	b.Close()
}

func TestGetDataTypedAccess(t *testing.T) {
	registerFake(t, GraphicsAPIVulkan)
	t.Cleanup(resetAccelerator)
	if err := RegisterAccelerator(&mockAccelerator{name: "mock"}); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		desc Descriptor
	}{
		{"host rgba8", hostDesc(4, 4, FormatRGBAUint8)},
		{"host rgba16", hostDesc(4, 4, FormatRGBAUint16)},
		{"host rgba32f", hostDesc(4, 4, FormatRGBAFloat32)},
		{"device rgba8", Descriptor{4, 4, FormatRGBAUint8, DomainDevice}},
		{"device rgba32f", Descriptor{4, 4, FormatRGBAFloat32, DomainDevice}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewBuffer(SurfaceTarget{}, tt.desc, WithGraphicsAPI(GraphicsAPIVulkan))
			defer b.Close()

			nonZero := 0
			for _, dom := range []Domain{DomainHost, DomainDevice} {
				got := []uintptr{
					GetData[float32](b, dom),
					GetData[uint8](b, dom),
					GetData[uint16](b, dom),
				}
				for _, v := range got {
					if v != 0 {
						nonZero++
					}
				}
			}
			if nonZero != 1 {
				t.Errorf("%d non-zero typed accessors, want exactly 1", nonZero)
			}
		})
	}
}

func TestGetDataMatchesFormatAndDomain(t *testing.T) {
	registerFake(t, GraphicsAPIVulkan)
	b := NewBuffer(SurfaceTarget{}, hostDesc(4, 4, FormatRGBAUint16), WithGraphicsAPI(GraphicsAPIVulkan))
	defer b.Close()

	if GetData[uint16](b, DomainHost) != b.Data() {
		t.Error("GetData[uint16](host) != Data()")
	}
	if GetData[uint8](b, DomainHost) != 0 || GetData[float32](b, DomainHost) != 0 {
		t.Error("mismatched channel type returned non-zero")
	}
	if GetData[uint16](b, DomainDevice) != 0 {
		t.Error("mismatched domain returned non-zero")
	}
}

func TestHostData(t *testing.T) {
	registerFake(t, GraphicsAPIVulkan)
	b := NewBuffer(SurfaceTarget{}, hostDesc(3, 2, FormatRGBAUint16), WithGraphicsAPI(GraphicsAPIVulkan))
	defer b.Close()

	px := HostData[uint16](b)
	if len(px) != int(b.Size()/2) {
		t.Fatalf("len = %d, want %d", len(px), b.Size()/2)
	}
	// Pixel (1, 1) green channel.
	i := int(b.Pitch()/2) + 1*4 + 1
	px[i] = 0xBEEF
	raw := b.HostBytes()
	off := int(b.Pitch()) + 1*8 + 2
	if got := uint16(raw[off]) | uint16(raw[off+1])<<8; got != 0xBEEF {
		t.Errorf("raw bytes = %#x, want 0xbeef", got)
	}

	if HostData[uint8](b) != nil || HostData[float32](b) != nil {
		t.Error("HostData with mismatched type returned a slice")
	}
}

func TestHostDataDeviceIsNil(t *testing.T) {
	registerFake(t, GraphicsAPIVulkan)
	t.Cleanup(resetAccelerator)
	if err := RegisterAccelerator(&mockAccelerator{name: "mock"}); err != nil {
		t.Fatal(err)
	}
	b := NewBuffer(SurfaceTarget{}, Descriptor{4, 4, FormatRGBAUint8, DomainDevice}, WithGraphicsAPI(GraphicsAPIVulkan))
	defer b.Close()

	if b.HostBytes() != nil || HostData[uint8](b) != nil {
		t.Error("device buffer exposed a host view")
	}
	if GetData[uint8](b, DomainDevice) == 0 {
		t.Error("device buffer has no device address")
	}
}

func TestBufferResize(t *testing.T) {
	last := registerFake(t, GraphicsAPIVulkan)
	b := NewBuffer(SurfaceTarget{}, hostDesc(4, 4, FormatRGBAUint8), WithGraphicsAPI(GraphicsAPIVulkan))
	defer b.Close()

	next := hostDesc(300, 20, FormatRGBAFloat32)
	b.Resize(next)
	if b.Descriptor() != next {
		t.Errorf("Descriptor() = %v, want %v", b.Descriptor(), next)
	}
	if b.Pitch() != AlignPitch(300*16, 256) {
		t.Errorf("Pitch() = %d", b.Pitch())
	}
	if (*last).stats.Recreated != 1 {
		t.Errorf("Recreated = %d, want 1", (*last).stats.Recreated)
	}

	expectFatal(t, ErrInvalidDescriptor, func() { b.Resize(Descriptor{}) })
}

func TestBufferResizeWithoutImplementation(t *testing.T) {
	var b Buffer
	fe := expectFatal(t, ErrNilImplementation, func() { b.Resize(DefaultDescriptor()) })
	if fe.Op != "Resize" {
		t.Errorf("Op = %q, want Resize", fe.Op)
	}
}

func TestBufferRenderAndClose(t *testing.T) {
	last := registerFake(t, GraphicsAPIVulkan)
	b := NewBuffer(SurfaceTarget{}, hostDesc(4, 4, FormatRGBAUint8), WithGraphicsAPI(GraphicsAPIVulkan))
	p := *last

	b.Render(800, 600)
	b.Render(0, 600)
	if !slices.Equal(p.renders, [][2]uint32{{800, 600}, {0, 600}}) {
		t.Errorf("renders = %v", p.renders)
	}
	if st := b.Stats(); st.Frames != 1 || st.Skipped != 1 {
		t.Errorf("Stats() = %+v", st)
	}

	b.Close()
	b.Close()
	if p.closed != 1 {
		t.Errorf("pipeline closed %d times, want 1", p.closed)
	}
	// A closed buffer behaves like one without implementation.
	b.Render(1, 1)
	if b.Data() != 0 || b.API() != GraphicsAPINone || b.Stats() != (Stats{}) {
		t.Error("closed buffer returned non-zero values")
	}
}

func TestZeroBuffer(t *testing.T) {
	var b Buffer
	if b.Data() != 0 || b.Width() != 0 || b.Height() != 0 || b.Pitch() != 0 || b.Size() != 0 {
		t.Error("zero Buffer returned non-zero sizes")
	}
	if b.Format() != FormatNone || b.Interop() != DomainNone || b.API() != GraphicsAPINone {
		t.Error("zero Buffer returned non-None enums")
	}
	if b.HostBytes() != nil || HostData[uint8](&b) != nil {
		t.Error("zero Buffer returned a host view")
	}
	for _, d := range []Domain{DomainHost, DomainDevice} {
		if GetData[uint8](&b, d) != 0 || GetData[uint16](&b, d) != 0 || GetData[float32](&b, d) != 0 {
			t.Error("zero Buffer returned a typed address")
		}
	}
	b.Render(640, 480)
	b.Close()

	var nilBuf *Buffer
	if nilBuf.Data() != 0 || nilBuf.Descriptor() != (Descriptor{}) {
		t.Error("nil *Buffer returned non-zero values")
	}
}

func TestNewBufferWithPipeline(t *testing.T) {
	p := newFakePipeline(PipelineConfig{Descriptor: hostDesc(2, 2, FormatRGBAUint8)})
	b := newBufferWithPipeline(p, GraphicsAPISoftware)
	if b.API() != GraphicsAPISoftware || b.Width() != 2 {
		t.Errorf("API() = %v, Width() = %d", b.API(), b.Width())
	}
}

func TestFormatOf(t *testing.T) {
	if FormatOf[float32]() != FormatRGBAFloat32 || FormatOf[uint8]() != FormatRGBAUint8 || FormatOf[uint16]() != FormatRGBAUint16 {
		t.Error("FormatOf mapping wrong")
	}
}

func TestFatalError(t *testing.T) {
	native := errors.New("VK_ERROR_DEVICE_LOST")
	fe := expectFatal(t, native, func() { Fatal("vulkan", "Submit", native) })
	if fe.Backend != "vulkan" || fe.Op != "Submit" {
		t.Errorf("FatalError = %+v", fe)
	}
	want := "pixbuf: fatal vulkan error in Submit: VK_ERROR_DEVICE_LOST"
	if fe.Error() != want {
		t.Errorf("Error() = %q, want %q", fe.Error(), want)
	}

	// Ensure with a nil error does nothing.
	Ensure("vulkan", "Submit", nil)
	expectFatal(t, native, func() { Ensure("vulkan", "Submit", native) })
}
