// Package shm allocates anonymous OS shared memory that can be mapped by a
// second party through an inheritable handle.
//
// On Linux the handle is a memfd file descriptor, on other Unix systems an
// unlinked temporary file, and on Windows a pagefile-backed file mapping.
package shm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupported is returned on platforms without shared memory support.
	ErrUnsupported = errors.New("shm: shared memory not supported on this platform")

	// ErrSizeMismatch is returned by Map when the object behind a handle is
	// not the advertised size.
	ErrSizeMismatch = errors.New("shm: size mismatch")

	// ErrZeroSize is returned when creating or mapping an empty region.
	ErrZeroSize = errors.New("shm: zero size")
)

// Region is a mapped view of a shared memory object.
type Region struct {
	handle uintptr
	size   uint64
	data   []byte
	owner  bool
}

// Create allocates a shared memory object of size bytes and maps it
// read-write. The returned region owns the handle.
func Create(name string, size uint64) (*Region, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	r, err := create(name, size)
	if err != nil {
		return nil, fmt.Errorf("shm: create %q (%d bytes): %w", name, size, err)
	}
	return r, nil
}

// Map opens a second read-write view of the object behind handle. It fails
// with ErrSizeMismatch unless the object is exactly size bytes. The handle
// stays owned by its creator.
func Map(handle uintptr, size uint64) (*Region, error) {
	if size == 0 {
		return nil, ErrZeroSize
	}
	r, err := open(handle, size)
	if err != nil {
		return nil, fmt.Errorf("shm: map handle %d (%d bytes): %w", handle, size, err)
	}
	return r, nil
}

// Handle returns the OS handle of the object.
func (r *Region) Handle() uintptr { return r.handle }

// Size returns the mapped size.
func (r *Region) Size() uint64 { return r.size }

// Bytes returns the mapped view, or nil after Close.
func (r *Region) Bytes() []byte { return r.data }

// Close unmaps the view and, for a region returned by Create, closes the
// handle. Calling Close more than once is a no-op.
func (r *Region) Close() error {
	if r.data == nil {
		return nil
	}
	err := r.close()
	r.data = nil
	return err
}
