//go:build linux

package shm

import (
	"golang.org/x/sys/unix"
)

func create(name string, size uint64) (*Region, error) {
	fd, err := unix.MemfdCreate(name, unix.MFD_CLOEXEC)
	if err != nil {
		return nil, err
	}
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
