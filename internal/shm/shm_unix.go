//go:build unix

package shm

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func open(handle uintptr, size uint64) (*Region, error) {
	fd := int(handle)
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, err
	}
	if st.Size < 0 || uint64(st.Size) != size {
		return nil, fmt.Errorf("%w: object is %d bytes, handle advertises %d", ErrSizeMismatch, st.Size, size)
	}
	data, err := mapFD(fd, size)
	if err != nil {
		return nil, err
	}
	return &Region{handle: handle, size: size, data: data}, nil
}

func mapFD(fd int, size uint64) ([]byte, error) {
	return unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

func (r *Region) close() error {
	err := unix.Munmap(r.data)
	if r.owner {
		if cerr := unix.Close(int(r.handle)); err == nil {
			err = cerr
		}
	}
	return err
}
