package pixbuf

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by configuration and registration helpers.
var (
	// ErrUnknownFormat is returned by ParseFormat for an unrecognized name.
	ErrUnknownFormat = errors.New("pixbuf: unknown format")

	// ErrUnknownDomain is returned by ParseDomain for an unrecognized name.
	ErrUnknownDomain = errors.New("pixbuf: unknown domain")

	// ErrUnknownGraphicsAPI is returned by ParseGraphicsAPI for an unrecognized name.
	ErrUnknownGraphicsAPI = errors.New("pixbuf: unknown graphics API")

	// ErrNoPipeline is reported when no pipeline is registered for a graphics API.
	// Import github.com/gogpu/pixbuf/gpu to register the HAL pipelines.
	ErrNoPipeline = errors.New("pixbuf: no pipeline registered")

	// ErrNoAccelerator is reported when a device buffer is requested but no
	// accelerator is registered. Import github.com/gogpu/pixbuf/cuda.
	ErrNoAccelerator = errors.New("pixbuf: no accelerator registered")

	// ErrInvalidDescriptor is reported when a pipeline is asked to create an
	// invalid buffer.
	ErrInvalidDescriptor = errors.New("pixbuf: invalid descriptor")

	// ErrNilAccelerator is returned by RegisterAccelerator for a nil accelerator.
	ErrNilAccelerator = errors.New("pixbuf: accelerator must not be nil")

	// ErrNilImplementation is reported when an operation that needs a pipeline
	// is invoked on a Buffer without one.
	ErrNilImplementation = errors.New("pixbuf: buffer has no implementation")
)

// FatalError is the panic value raised for unrecoverable backend failures:
// device loss, allocation or handle import failures, and broken invariants.
//
// These are never returned as errors. A caller that must survive them (a
// test harness, a supervisor goroutine) can recover the panic and inspect
// the value with errors.As.
type FatalError struct {
	// Backend names the graphics or accelerator backend, e.g. "vulkan" or "cuda".
	Backend string

	// Op names the call site that failed, e.g. "CreateTexture".
	Op string

	// Err is the native error.
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("pixbuf: fatal %s error in %s: %v", e.Backend, e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// Fatal logs a failure of op on backend and panics with a *FatalError.
// Backend and accelerator packages call it for every failure that leaves
// the device or environment unusable.
func Fatal(backend, op string, err error) {
	Logger().Error("pixbuf: fatal backend failure",
		"backend", backend, "op", op, "err", err)
	panic(&FatalError{Backend: backend, Op: op, Err: err})
}

// Ensure calls Fatal when err is non-nil.
func Ensure(backend, op string, err error) {
	if err != nil {
		Fatal(backend, op, err)
	}
}
