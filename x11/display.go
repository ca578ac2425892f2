//go:build linux

package x11

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
)

var (
	x11Lib unsafe.Pointer

	symXOpenDisplay  unsafe.Pointer
	symXCloseDisplay unsafe.Pointer

	cifXOpenDisplay  types.CallInterface
	cifXCloseDisplay types.CallInterface

	loadOnce sync.Once
	loadErr  error

	displayMu   sync.Mutex
	displayPtr  uintptr
	displayRefs int
)

func loadXlib() error {
	loadOnce.Do(func() {
		var err error
		x11Lib, err = ffi.LoadLibrary("libX11.so.6")
		if err != nil {
			x11Lib, err = ffi.LoadLibrary("libX11.so")
			if err != nil {
				loadErr = fmt.Errorf("%w: failed to load libX11.so: %v", ErrNoDisplay, err)
				return
			}
		}
		if symXOpenDisplay, err = ffi.GetSymbol(x11Lib, "XOpenDisplay"); err != nil {
			loadErr = fmt.Errorf("XOpenDisplay not found: %w", err)
			return
		}
		if symXCloseDisplay, err = ffi.GetSymbol(x11Lib, "XCloseDisplay"); err != nil {
			loadErr = fmt.Errorf("XCloseDisplay not found: %w", err)
			return
		}

		// Display* XOpenDisplay(const char*)
		err = ffi.PrepareCallInterface(&cifXOpenDisplay, types.DefaultCall,
			types.PointerTypeDescriptor,
			[]*types.TypeDescriptor{types.PointerTypeDescriptor})
		if err != nil {
			loadErr = fmt.Errorf("failed to prepare XOpenDisplay: %w", err)
			return
		}

		// int XCloseDisplay(Display*)
		err = ffi.PrepareCallInterface(&cifXCloseDisplay, types.DefaultCall,
			types.SInt32TypeDescriptor,
			[]*types.TypeDescriptor{types.PointerTypeDescriptor})
		if err != nil {
			loadErr = fmt.Errorf("failed to prepare XCloseDisplay: %w", err)
		}
	})
	return loadErr
}

// OpenDisplay returns the process-wide Xlib Display* for $DISPLAY, opening
// it on first use. Every successful call must be paired with CloseDisplay.
func OpenDisplay() (uintptr, error) {
	displayMu.Lock()
	defer displayMu.Unlock()
	if displayRefs > 0 {
		displayRefs++
		return displayPtr, nil
	}
	if os.Getenv("DISPLAY") == "" {
		return 0, fmt.Errorf("%w: DISPLAY is not set", ErrNoDisplay)
	}
	if err := loadXlib(); err != nil {
		return 0, err
	}

	// A NULL name makes Xlib read $DISPLAY.
	var name uintptr
	var dpy uintptr
	args := [1]unsafe.Pointer{unsafe.Pointer(&name)}
	_ = ffi.CallFunction(&cifXOpenDisplay, symXOpenDisplay, unsafe.Pointer(&dpy), args[:])
	if dpy == 0 {
		return 0, fmt.Errorf("%w: XOpenDisplay(%q) failed", ErrNoDisplay, os.Getenv("DISPLAY"))
	}
	displayPtr = dpy
	displayRefs = 1
	return dpy, nil
}

// CloseDisplay drops one reference taken by OpenDisplay and closes the
// connection when the last one is gone.
func CloseDisplay() {
	displayMu.Lock()
	defer displayMu.Unlock()
	if displayRefs == 0 {
		return
	}
	displayRefs--
	if displayRefs > 0 {
		return
	}
	dpy := displayPtr
	displayPtr = 0
	var result int32
	args := [1]unsafe.Pointer{unsafe.Pointer(&dpy)}
	_ = ffi.CallFunction(&cifXCloseDisplay, symXCloseDisplay, unsafe.Pointer(&result), args[:])
}
