package cuda

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/shm"
)

// Accelerator imports shared memory handles into the primary context of
// one CUDA device. Imported pages are pinned and mapped into the device
// address space, so kernels and copies through the device pointer write
// the same pages the graphics side uploads from.
type Accelerator struct {
	ordinal int32

	mu     sync.Mutex
	ready  bool
	device int32
	ctx    uintptr
	name   string
	live   map[*mapping]struct{}

	logger atomic.Pointer[slog.Logger]
}

var _ pixbuf.DeviceAccelerator = (*Accelerator)(nil)

// New returns an accelerator for the CUDA device with the given ordinal.
// The driver is not touched until Init.
func New(ordinal int) *Accelerator {
	return &Accelerator{ordinal: int32(ordinal)}
}

// Name returns "cuda".
func (a *Accelerator) Name() string { return "cuda" }

// DeviceName returns the CUDA device name reported by the driver, or ""
// before Init.
func (a *Accelerator) DeviceName() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.name
}

// SetLogger sets the logger used by the accelerator.
func (a *Accelerator) SetLogger(l *slog.Logger) {
	a.logger.Store(l)
}

func (a *Accelerator) log() *slog.Logger {
	if l := a.logger.Load(); l != nil {
		return l
	}
	return pixbuf.Logger()
}

// Init loads the driver, initializes it and retains the device's primary
// context. Calling Init again after success is a no-op.
func (a *Accelerator) Init() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.ready {
		return nil
	}
	if err := load(); err != nil {
		return err
	}
	if err := cuInit(0); err != nil {
		return err
	}
	dev, err := cuDeviceGet(a.ordinal)
	if err != nil {
		return err
	}
	ctx, err := cuDevicePrimaryCtxRetain(dev)
	if err != nil {
		return err
	}
	a.device = dev
	a.ctx = ctx
	a.name = cuDeviceGetName(dev)
	a.live = make(map[*mapping]struct{})
	a.ready = true
	a.log().Info("cuda: device ready", "ordinal", a.ordinal, "name", a.name)
	return nil
}

// Close releases every mapping still alive and the primary context.
func (a *Accelerator) Close() {
	a.mu.Lock()
	if !a.ready {
		a.mu.Unlock()
		return
	}
	live := make([]*mapping, 0, len(a.live))
	for m := range a.live {
		live = append(live, m)
	}
	a.mu.Unlock()

	for _, m := range live {
		a.log().Warn("cuda: releasing mapping left open at close", "size", m.region.Size())
		_ = m.Release()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if err := cuDevicePrimaryCtxRelease(a.device); err != nil {
		a.log().Warn("cuda: primary context release failed", "err", err)
	}
	a.ready = false
	a.ctx = 0
}

// withContext runs fn on a locked OS thread with the primary context
// current.
func (a *Accelerator) withContext(fn func() error) error {
	a.mu.Lock()
	ready, ctx := a.ready, a.ctx
	a.mu.Unlock()
	if !ready {
		return ErrNotInitialized
	}
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if err := cuCtxSetCurrent(ctx); err != nil {
		return err
	}
	return fn()
}

// Import maps h, pins the view and returns its device pointer. It fails
// with shm.ErrSizeMismatch when the object behind h is not h.Size bytes.
func (a *Accelerator) Import(h pixbuf.MemoryHandle) (pixbuf.DeviceMapping, error) {
	if !a.initialized() {
		return nil, ErrNotInitialized
	}
	region, err := shm.Map(h.Handle, h.Size)
	if err != nil {
		return nil, fmt.Errorf("cuda: import: %w", err)
	}
	host := uintptr(unsafe.Pointer(unsafe.SliceData(region.Bytes())))

	m := &mapping{accel: a, region: region, host: host}
	err = a.withContext(func() error {
		if err := cuMemHostRegister(host, h.Size, memHostRegisterDeviceMap); err != nil {
			return err
		}
		dptr, err := cuMemHostGetDevicePointer(host)
		if err != nil {
			_ = cuMemHostUnregister(host)
			return err
		}
		m.device = dptr
		return nil
	})
	if err != nil {
		_ = region.Close()
		return nil, err
	}

	a.mu.Lock()
	a.live[m] = struct{}{}
	a.mu.Unlock()
	a.log().Debug("cuda: handle imported", "size", h.Size, "device_ptr", m.device)
	return m, nil
}

// CopyToDevice copies src to the device address dst.
func (a *Accelerator) CopyToDevice(dst uintptr, src []byte) error {
	if len(src) == 0 {
		return nil
	}
	return a.withContext(func() error {
		return cuMemcpyHtoD(uint64(dst), uintptr(unsafe.Pointer(unsafe.SliceData(src))), uint64(len(src)))
	})
}

func (a *Accelerator) initialized() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.ready
}

func (a *Accelerator) forget(m *mapping) {
	a.mu.Lock()
	delete(a.live, m)
	a.mu.Unlock()
}

// mapping is an imported handle: a pinned host view and its device alias.
type mapping struct {
	accel    *Accelerator
	region   *shm.Region
	host     uintptr
	device   uint64
	released bool
}

func (m *mapping) DevicePointer() uintptr { return uintptr(m.device) }

func (m *mapping) Size() uint64 { return m.region.Size() }

// Release unregisters the pinned view and unmaps it. Calling Release more
// than once is a no-op.
func (m *mapping) Release() error {
	if m.released {
		return nil
	}
	m.released = true
	m.accel.forget(m)
	err := m.accel.withContext(func() error { return cuMemHostUnregister(m.host) })
	if cerr := m.region.Close(); err == nil {
		err = cerr
	}
	return err
}
