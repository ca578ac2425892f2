package pixbuf

import (
	"sync"
)

// MemoryHandle identifies an OS shared memory object exported by the
// graphics side of a device buffer.
type MemoryHandle struct {
	// Handle is a file descriptor on Unix and a file mapping HANDLE on Windows.
	Handle uintptr

	// Size is the size advertised at export time. Importers must reject a
	// handle whose real size differs.
	Size uint64
}

// DeviceMapping is an accelerator-side view of an imported MemoryHandle.
type DeviceMapping interface {
	// DevicePointer returns the address of the first byte in the
	// accelerator's address space.
	DevicePointer() uintptr

	// Size returns the mapped size in bytes.
	Size() uint64

	// Release frees the accelerator-side mapping. It must be called before
	// the exported handle is closed.
	Release() error
}

// DeviceAccelerator imports graphics-side shared memory into an
// accelerator's address space.
//
// Implementations are provided by accelerator packages and registered via
// blank import:
//
//	import _ "github.com/gogpu/pixbuf/cuda" // enables DomainDevice buffers
type DeviceAccelerator interface {
	// Name returns the accelerator name (e.g. "cuda").
	Name() string

	// Init loads the accelerator runtime. Called once during registration.
	Init() error

	// Close releases the accelerator runtime.
	Close()

	// Import maps h into the accelerator's address space.
	Import(h MemoryHandle) (DeviceMapping, error)
}

var (
	accelMu sync.RWMutex
	accel   DeviceAccelerator
)

// RegisterAccelerator registers the accelerator used by DomainDevice buffers.
//
// Only one accelerator can be registered; a later call replaces and closes
// the previous one. Init is called first and, if it fails, the accelerator
// is not registered and the error is returned.
func RegisterAccelerator(a DeviceAccelerator) error {
	if a == nil {
		return ErrNilAccelerator
	}
	if err := a.Init(); err != nil {
		return err
	}
	propagateLogger(a, Logger())

	accelMu.Lock()
	old := accel
	accel = a
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
	Logger().Info("pixbuf: accelerator registered", "name", a.Name())
	return nil
}

// UnregisterAccelerator closes and removes the registered accelerator, if any.
func UnregisterAccelerator() {
	accelMu.Lock()
	old := accel
	accel = nil
	accelMu.Unlock()
	if old != nil {
		old.Close()
	}
}

// Accelerator returns the registered accelerator, or nil if none.
func Accelerator() DeviceAccelerator {
	accelMu.RLock()
	a := accel
	accelMu.RUnlock()
	return a
}
