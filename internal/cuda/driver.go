//go:build linux || windows

package cuda

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

// memHostRegisterDeviceMap is CU_MEMHOSTREGISTER_DEVICEMAP.
const memHostRegisterDeviceMap = 0x02

var (
	cudaLib unsafe.Pointer

	symCuInit                    unsafe.Pointer
	symCuDeviceGet               unsafe.Pointer
	symCuDeviceGetName           unsafe.Pointer
	symCuDevicePrimaryCtxRetain  unsafe.Pointer
	symCuDevicePrimaryCtxRelease unsafe.Pointer
	symCuCtxSetCurrent           unsafe.Pointer
	symCuMemHostRegister         unsafe.Pointer
	symCuMemHostUnregister       unsafe.Pointer
	symCuMemHostGetDevicePtr     unsafe.Pointer
	symCuMemcpyHtoD              unsafe.Pointer
	symCuGetErrorString          unsafe.Pointer

	cifCuInit                    types.CallInterface
	cifCuDeviceGet               types.CallInterface
	cifCuDeviceGetName           types.CallInterface
	cifCuDevicePrimaryCtxRetain  types.CallInterface
	cifCuDevicePrimaryCtxRelease types.CallInterface
	cifCuCtxSetCurrent           types.CallInterface
	cifCuMemHostRegister         types.CallInterface
	cifCuMemHostUnregister       types.CallInterface
	cifCuMemHostGetDevicePtr     types.CallInterface
	cifCuMemcpyHtoD              types.CallInterface
	cifCuGetErrorString          types.CallInterface

	loadOnce sync.Once
	loadErr  error
)

// load opens the driver library and prepares every call interface once per
// process.
func load() error {
	loadOnce.Do(func() {
		loadErr = loadLibrary()
		if loadErr == nil {
			loadErr = loadSymbols()
		}
		if loadErr == nil {
			loadErr = prepareCallInterfaces()
		}
	})
	return loadErr
}

func loadLibrary() error {
	var err error
	for _, name := range libraryNames() {
		cudaLib, err = ffi.LoadLibrary(name)
		if err == nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func libraryNames() []string {
	if runtime.GOOS == "windows" {
		return []string{"nvcuda.dll"}
	}
	return []string{"libcuda.so.1", "libcuda.so"}
}

func loadSymbols() error {
	syms := []struct {
		dst  *unsafe.Pointer
		name string
	}{
		{&symCuInit, "cuInit"},
		{&symCuDeviceGet, "cuDeviceGet"},
		{&symCuDeviceGetName, "cuDeviceGetName"},
		{&symCuDevicePrimaryCtxRetain, "cuDevicePrimaryCtxRetain"},
		{&symCuDevicePrimaryCtxRelease, "cuDevicePrimaryCtxRelease_v2"},
		{&symCuCtxSetCurrent, "cuCtxSetCurrent"},
		{&symCuMemHostRegister, "cuMemHostRegister_v2"},
		{&symCuMemHostUnregister, "cuMemHostUnregister"},
		{&symCuMemHostGetDevicePtr, "cuMemHostGetDevicePointer_v2"},
		{&symCuMemcpyHtoD, "cuMemcpyHtoD_v2"},
		{&symCuGetErrorString, "cuGetErrorString"},
	}
	for _, s := range syms {
		p, err := ffi.GetSymbol(cudaLib, s.name)
		if err != nil {
			return fmt.Errorf("%w: %s not found: %v", ErrUnavailable, s.name, err)
		}
		*s.dst = p
	}
	return nil
}

func prepareCallInterfaces() error {
	ret := types.SInt32TypeDescriptor // CUresult
	ptr := types.PointerTypeDescriptor
	u32 := types.UInt32TypeDescriptor
	i32 := types.SInt32TypeDescriptor
	u64 := types.UInt64TypeDescriptor

	cifs := []struct {
		cif  *types.CallInterface
		name string
		args []*types.TypeDescriptor
	}{
		// CUresult cuInit(unsigned int Flags)
		{&cifCuInit, "cuInit", []*types.TypeDescriptor{u32}},
		// CUresult cuDeviceGet(CUdevice*, int ordinal)
		{&cifCuDeviceGet, "cuDeviceGet", []*types.TypeDescriptor{ptr, i32}},
		// CUresult cuDeviceGetName(char*, int len, CUdevice)
		{&cifCuDeviceGetName, "cuDeviceGetName", []*types.TypeDescriptor{ptr, i32, i32}},
		// CUresult cuDevicePrimaryCtxRetain(CUcontext*, CUdevice)
		{&cifCuDevicePrimaryCtxRetain, "cuDevicePrimaryCtxRetain", []*types.TypeDescriptor{ptr, i32}},
		// CUresult cuDevicePrimaryCtxRelease(CUdevice)
		{&cifCuDevicePrimaryCtxRelease, "cuDevicePrimaryCtxRelease", []*types.TypeDescriptor{i32}},
		// CUresult cuCtxSetCurrent(CUcontext)
		{&cifCuCtxSetCurrent, "cuCtxSetCurrent", []*types.TypeDescriptor{ptr}},
		// CUresult cuMemHostRegister(void*, size_t, unsigned int Flags)
		{&cifCuMemHostRegister, "cuMemHostRegister", []*types.TypeDescriptor{ptr, u64, u32}},
		// CUresult cuMemHostUnregister(void*)
		{&cifCuMemHostUnregister, "cuMemHostUnregister", []*types.TypeDescriptor{ptr}},
		// CUresult cuMemHostGetDevicePointer(CUdeviceptr*, void*, unsigned int Flags)
		{&cifCuMemHostGetDevicePtr, "cuMemHostGetDevicePointer", []*types.TypeDescriptor{ptr, ptr, u32}},
		// CUresult cuMemcpyHtoD(CUdeviceptr, const void*, size_t)
		{&cifCuMemcpyHtoD, "cuMemcpyHtoD", []*types.TypeDescriptor{u64, ptr, u64}},
		// CUresult cuGetErrorString(CUresult, const char**)
		{&cifCuGetErrorString, "cuGetErrorString", []*types.TypeDescriptor{i32, ptr}},
	}
	for _, c := range cifs {
		if err := ffi.PrepareCallInterface(c.cif, types.DefaultCall, ret, c.args); err != nil {
			return fmt.Errorf("failed to prepare %s: %w", c.name, err)
		}
	}
	return nil
}

// call invokes fn with argument pointers and returns its CUresult.
func call(cif *types.CallInterface, fn unsafe.Pointer, args ...unsafe.Pointer) Result {
	var r int32
	if err := ffi.CallFunction(cif, fn, unsafe.Pointer(&r), args); err != nil {
		return ErrorOperatingSystem
	}
	return Result(r)
}

func cuInit(flags uint32) error {
	return check("cuInit", call(&cifCuInit, symCuInit, unsafe.Pointer(&flags)), errorString)
}

func cuDeviceGet(ordinal int32) (int32, error) {
	var dev int32
	devPtr := uintptr(unsafe.Pointer(&dev))
	r := call(&cifCuDeviceGet, symCuDeviceGet, unsafe.Pointer(&devPtr), unsafe.Pointer(&ordinal))
	return dev, check("cuDeviceGet", r, errorString)
}

func cuDeviceGetName(dev int32) string {
	var buf [256]byte
	bufPtr := uintptr(unsafe.Pointer(&buf[0]))
	n := int32(len(buf))
	r := call(&cifCuDeviceGetName, symCuDeviceGetName,
		unsafe.Pointer(&bufPtr), unsafe.Pointer(&n), unsafe.Pointer(&dev))
	if r != Success {
		return ""
	}
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf[:])
}

func cuDevicePrimaryCtxRetain(dev int32) (uintptr, error) {
	var ctx uintptr
	ctxPtr := uintptr(unsafe.Pointer(&ctx))
	r := call(&cifCuDevicePrimaryCtxRetain, symCuDevicePrimaryCtxRetain,
		unsafe.Pointer(&ctxPtr), unsafe.Pointer(&dev))
	return ctx, check("cuDevicePrimaryCtxRetain", r, errorString)
}

func cuDevicePrimaryCtxRelease(dev int32) error {
	r := call(&cifCuDevicePrimaryCtxRelease, symCuDevicePrimaryCtxRelease, unsafe.Pointer(&dev))
	return check("cuDevicePrimaryCtxRelease", r, errorString)
}

func cuCtxSetCurrent(ctx uintptr) error {
	return check("cuCtxSetCurrent", call(&cifCuCtxSetCurrent, symCuCtxSetCurrent, unsafe.Pointer(&ctx)), errorString)
}

func cuMemHostRegister(p uintptr, size uint64, flags uint32) error {
	r := call(&cifCuMemHostRegister, symCuMemHostRegister,
		unsafe.Pointer(&p), unsafe.Pointer(&size), unsafe.Pointer(&flags))
	return check("cuMemHostRegister", r, errorString)
}

func cuMemHostUnregister(p uintptr) error {
	return check("cuMemHostUnregister", call(&cifCuMemHostUnregister, symCuMemHostUnregister, unsafe.Pointer(&p)), errorString)
}

func cuMemHostGetDevicePointer(p uintptr) (uint64, error) {
	var dptr uint64
	dptrPtr := uintptr(unsafe.Pointer(&dptr))
	var flags uint32
	r := call(&cifCuMemHostGetDevicePtr, symCuMemHostGetDevicePtr,
		unsafe.Pointer(&dptrPtr), unsafe.Pointer(&p), unsafe.Pointer(&flags))
	return dptr, check("cuMemHostGetDevicePointer", r, errorString)
}

func cuMemcpyHtoD(dst uint64, src uintptr, size uint64) error {
	r := call(&cifCuMemcpyHtoD, symCuMemcpyHtoD,
		unsafe.Pointer(&dst), unsafe.Pointer(&src), unsafe.Pointer(&size))
	return check("cuMemcpyHtoD", r, errorString)
}

// errorString asks the driver to describe r.
func errorString(r Result) string {
	var cstr uintptr
	cstrPtr := uintptr(unsafe.Pointer(&cstr))
	code := int32(r)
	if call(&cifCuGetErrorString, symCuGetErrorString, unsafe.Pointer(&code), unsafe.Pointer(&cstrPtr)) != Success {
		return ""
	}
	return goString(cstr)
}

// goString converts a NUL-terminated C string to a Go string.
func goString(cstr uintptr) string {
	if cstr == 0 {
		return ""
	}
	//nolint:govet // C string address returned by the driver
	p := (*byte)(*(*unsafe.Pointer)(unsafe.Pointer(&cstr)))
	n := 0
	for n < 1024 && *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
