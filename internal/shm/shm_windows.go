//go:build windows

package shm

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// pageSize is the allocation granularity VirtualQuery reports regions in.
const pageSize = 4096

func create(name string, size uint64) (*Region, error) {
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(size>>32), uint32(size), nil)
	if err != nil {
		return nil, err
	}
	data, err := mapView(h, size)
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}
	return &Region{handle: uintptr(h), size: size, data: data, owner: true}, nil
}

func open(handle uintptr, size uint64) (*Region, error) {
	h := windows.Handle(handle)
	data, err := mapView(h, 0)
	if err != nil {
		return nil, err
	}
	var info windows.MemoryBasicInformation
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(data)))
	if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
		_ = windows.UnmapViewOfFile(addr)
		return nil, err
	}
	if uint64(info.RegionSize) != roundPage(size) {
		_ = windows.UnmapViewOfFile(addr)
		return nil, fmt.Errorf("%w: region is %d bytes, handle advertises %d", ErrSizeMismatch, info.RegionSize, size)
	}
	return &Region{handle: handle, size: size, data: data[:size:size]}, nil
}

// mapView maps the whole object when size is 0; the slice then covers the
// page-rounded region.
func mapView(h windows.Handle, size uint64) ([]byte, error) {
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ|windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		return nil, err
	}
	n := size
	if n == 0 {
		var info windows.MemoryBasicInformation
		if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
			_ = windows.UnmapViewOfFile(addr)
			return nil, err
		}
		n = uint64(info.RegionSize)
	}
	var p unsafe.Pointer
	*(*uintptr)(unsafe.Pointer(&p)) = addr
	return unsafe.Slice((*byte)(p), n), nil
}

func roundPage(n uint64) uint64 {
	return (n + pageSize - 1) &^ (pageSize - 1)
}

func (r *Region) close() error {
	err := windows.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(r.data))))
	if r.owner {
		if cerr := windows.CloseHandle(windows.Handle(r.handle)); err == nil {
			err = cerr
		}
	}
	return err
}
