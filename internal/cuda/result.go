// Package cuda binds the subset of the CUDA driver API that pixbuf needs to
// alias graphics-side shared memory into a device address space.
//
// The driver library (libcuda.so.1, nvcuda.dll) is loaded at runtime
// through goffi; no cgo and no CUDA toolkit are needed to build.
package cuda

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable is returned when the CUDA driver library cannot be
	// loaded on this system.
	ErrUnavailable = errors.New("cuda: driver not available")

	// ErrNotInitialized is returned by operations on an Accelerator whose
	// Init has not succeeded.
	ErrNotInitialized = errors.New("cuda: accelerator not initialized")
)

// Result is a CUresult status code.
type Result int32

// Status codes referenced by pixbuf.
const (
	Success                    Result = 0
	ErrorInvalidValue          Result = 1
	ErrorOutOfMemory           Result = 2
	ErrorNotInitialized        Result = 3
	ErrorNoDevice              Result = 100
	ErrorInvalidDevice         Result = 101
	ErrorHostMemoryAlreadyReg  Result = 712
	ErrorHostMemoryNotReg      Result = 713
	ErrorNotSupported          Result = 801
	ErrorOperatingSystem       Result = 304
	ErrorInvalidContext        Result = 201
	ErrorContextAlreadyCurrent Result = 202
)

var resultNames = map[Result]string{
	Success:                    "CUDA_SUCCESS",
	ErrorInvalidValue:          "CUDA_ERROR_INVALID_VALUE",
	ErrorOutOfMemory:           "CUDA_ERROR_OUT_OF_MEMORY",
	ErrorNotInitialized:        "CUDA_ERROR_NOT_INITIALIZED",
	ErrorNoDevice:              "CUDA_ERROR_NO_DEVICE",
	ErrorInvalidDevice:         "CUDA_ERROR_INVALID_DEVICE",
	ErrorHostMemoryAlreadyReg:  "CUDA_ERROR_HOST_MEMORY_ALREADY_REGISTERED",
	ErrorHostMemoryNotReg:      "CUDA_ERROR_HOST_MEMORY_NOT_REGISTERED",
	ErrorNotSupported:          "CUDA_ERROR_NOT_SUPPORTED",
	ErrorOperatingSystem:       "CUDA_ERROR_OPERATING_SYSTEM",
	ErrorInvalidContext:        "CUDA_ERROR_INVALID_CONTEXT",
	ErrorContextAlreadyCurrent: "CUDA_ERROR_CONTEXT_ALREADY_CURRENT",
}

// String returns the CUDA enumerator name of r.
func (r Result) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return fmt.Sprintf("CUresult(%d)", int32(r))
}

// Error is a failed driver call.
type Error struct {
	// Func is the driver entry point, e.g. "cuMemHostRegister".
	Func string

	// Code is the status it returned.
	Code Result

	// Message is the driver's description of Code, when available.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cuda: %s: %s (%s)", e.Func, e.Message, e.Code)
	}
	return fmt.Sprintf("cuda: %s: %s", e.Func, e.Code)
}

// Is matches another *Error with the same Code, ignoring Func and Message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// check converts a status into an error. The message lookup is injected so
// the mapping stays testable without a driver.
func check(fn string, r Result, describe func(Result) string) error {
	if r == Success {
		return nil
	}
	e := &Error{Func: fn, Code: r}
	if describe != nil {
		e.Message = describe(r)
	}
	return e
}
