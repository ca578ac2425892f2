//go:build !nogpu

package interop

import (
	"errors"
	"testing"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/shm"
	"github.com/gogpu/wgpu/hal"
)

// shmAccelerator imports handles by mapping a second view, the way a CUDA
// driver pins host memory.
type shmAccelerator struct {
	importErr error
	sizeDelta uint64
	imports   int
	released  int

	// handleOpenAtRelease records whether the exported fd was still open
	// when the mapping was released.
	handleOpenAtRelease bool
}

type shmMapping struct {
	a      *shmAccelerator
	region *shm.Region
	size   uint64
}

func (a *shmAccelerator) Name() string { return "shm-test" }
func (a *shmAccelerator) Init() error  { return nil }
func (a *shmAccelerator) Close()       {}

func (a *shmAccelerator) Import(h pixbuf.MemoryHandle) (pixbuf.DeviceMapping, error) {
	if a.importErr != nil {
		return nil, a.importErr
	}
	r, err := shm.Map(h.Handle, h.Size)
	if err != nil {
		return nil, err
	}
	a.imports++
	return &shmMapping{a: a, region: r, size: h.Size + a.sizeDelta}, nil
}

func (m *shmMapping) DevicePointer() uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(m.region.Bytes())))
}

func (m *shmMapping) Size() uint64 { return m.size }

func (m *shmMapping) Release() error {
	var st unix.Stat_t
	m.a.handleOpenAtRelease = unix.Fstat(int(m.region.Handle()), &st) == nil
	m.a.released++
	return m.region.Close()
}

func testDeviceLayout() Layout {
	desc := pixbuf.Descriptor{Width: 16, Height: 8, Format: pixbuf.FormatRGBAFloat32, Domain: pixbuf.DomainDevice}
	return NewLayout(desc, 256)
}

func TestDeviceAliasesAccelerator(t *testing.T) {
	accel := &shmAccelerator{}
	d := NewDevice(testDeviceLayout(), "test", accel)
	defer d.Close()

	if d.Domain() != pixbuf.DomainDevice {
		t.Errorf("Domain() = %v, want device", d.Domain())
	}
	if d.RecordsCopy() {
		t.Error("RecordsCopy() = true, want false")
	}
	if d.Address() == 0 {
		t.Fatal("Address() = 0")
	}
	if d.Handle().Size != uint64(d.Layout().Size) {
		t.Errorf("Handle().Size = %d, want %d", d.Handle().Size, d.Layout().Size)
	}

	// Write through the accelerator view.
	mapping := d.mapping.(*shmMapping)
	mapping.region.Bytes()[3] = 0x5A
	if d.Bytes()[3] != 0x5A {
		t.Error("graphics view does not see accelerator writes")
	}
}

func TestDeviceReleasesMappingBeforeHandle(t *testing.T) {
	accel := &shmAccelerator{}
	d := NewDevice(testDeviceLayout(), "test", accel)
	d.Close()

	if accel.released != 1 {
		t.Fatalf("released = %d, want 1", accel.released)
	}
	if !accel.handleOpenAtRelease {
		t.Error("handle was closed before the accelerator mapping was released")
	}
	if d.Address() != 0 || d.Bytes() != nil {
		t.Error("memory still visible after Close")
	}
	d.Close() // no-op
	if accel.released != 1 {
		t.Errorf("released = %d after second Close, want 1", accel.released)
	}
}

func TestDeviceImportFailureIsFatal(t *testing.T) {
	errImport := errors.New("import refused")
	accel := &shmAccelerator{importErr: errImport}
	expectFatal(t, errImport, func() {
		NewDevice(testDeviceLayout(), "test", accel)
	})
}

func TestDeviceSizeMismatchIsFatal(t *testing.T) {
	accel := &shmAccelerator{sizeDelta: 4096}
	expectFatal(t, shm.ErrSizeMismatch, func() {
		NewDevice(testDeviceLayout(), "test", accel)
	})
	if accel.released != 1 {
		t.Errorf("released = %d, want 1 after rejected import", accel.released)
	}
}

func TestDeviceUpload(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	desc := pixbuf.Descriptor{Width: 16, Height: 8, Format: pixbuf.FormatRGBAFloat32, Domain: pixbuf.DomainDevice}
	mem := New(device, desc, NewLayout(desc, 256), Options{Backend: "test", Accelerator: &shmAccelerator{}})
	defer mem.Close()

	tex, err := device.CreateTexture(&hal.TextureDescriptor{Label: "test"})
	if err != nil {
		t.Fatalf("CreateTexture failed: %v", err)
	}
	mem.Bytes()[0] = 1
	mem.Upload(nil, queue, tex)
}
