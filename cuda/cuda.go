// Package cuda registers the CUDA accelerator for DomainDevice buffers.
//
// Usage:
//
//	import _ "github.com/gogpu/pixbuf/cuda" // enable device buffers
//
// Registration needs the CUDA driver (libcuda.so.1 or nvcuda.dll) at
// runtime. Without it the package logs a warning and registers nothing;
// device buffers then fail with pixbuf.ErrNoAccelerator.
package cuda

import (
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/cuda"
)

func init() {
	if err := pixbuf.RegisterAccelerator(cuda.New(0)); err != nil {
		pixbuf.Logger().Warn("pixbuf: CUDA accelerator not registered", "err", err)
	}
}

// CopyToDevice copies src to the device address dst through the registered
// CUDA accelerator. dst is typically a buffer's Data() plus a row offset.
func CopyToDevice(dst uintptr, src []byte) error {
	a, ok := pixbuf.Accelerator().(*cuda.Accelerator)
	if !ok {
		return pixbuf.ErrNoAccelerator
	}
	return a.CopyToDevice(dst, src)
}
