//go:build unix && !linux

package shm

import (
	"os"

	"golang.org/x/sys/unix"
)

// create backs the object with an unlinked temporary file; these systems
// have no anonymous file descriptor call in x/sys.
func create(name string, size uint64) (*Region, error) {
	f, err := os.CreateTemp("", name+"-*")
	if err != nil {
		return nil, err
	}
	_ = os.Remove(f.Name())

	fd, err := unix.Dup(int(f.Fd()))
	_ = f.Close()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(fd)
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	data, err := mapFD(fd, size)
	if err != nil {
		_ = unix.Close(fd)
		return nil, err
	}
	return &Region{handle: uintptr(fd), size: size, data: data, owner: true}, nil
}
