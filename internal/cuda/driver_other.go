//go:build !linux && !windows

package cuda

const memHostRegisterDeviceMap = 0x02

// The CUDA driver ships for Linux and Windows only.
func load() error { return ErrUnavailable }

func cuInit(uint32) error                               { return ErrUnavailable }
func cuDeviceGet(int32) (int32, error)                  { return 0, ErrUnavailable }
func cuDeviceGetName(int32) string                      { return "" }
func cuDevicePrimaryCtxRetain(int32) (uintptr, error)   { return 0, ErrUnavailable }
func cuDevicePrimaryCtxRelease(int32) error             { return ErrUnavailable }
func cuCtxSetCurrent(uintptr) error                     { return ErrUnavailable }
func cuMemHostRegister(uintptr, uint64, uint32) error   { return ErrUnavailable }
func cuMemHostUnregister(uintptr) error                 { return ErrUnavailable }
func cuMemHostGetDevicePointer(uintptr) (uint64, error) { return 0, ErrUnavailable }
func cuMemcpyHtoD(uint64, uintptr, uint64) error        { return ErrUnavailable }
