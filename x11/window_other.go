//go:build !linux

package x11

import "github.com/gogpu/pixbuf"

// Window is unavailable on this platform; NewWindow always fails.
type Window struct{}

var _ pixbuf.Window = (*Window)(nil)

// NewWindow returns ErrUnsupported.
func NewWindow(pixbuf.WindowConfig) (*Window, error) { return nil, ErrUnsupported }

// OpenDisplay returns ErrUnsupported.
func OpenDisplay() (uintptr, error) { return 0, ErrUnsupported }

// CloseDisplay is a no-op.
func CloseDisplay() {}

func (*Window) SetTitle(string)                     {}
func (*Window) Show()                               {}
func (*Window) Hide()                               {}
func (*Window) Size() (int, int)                    { return 0, 0 }
func (*Window) ScaleFactor() float64                { return 1 }
func (*Window) RequestRedraw()                      {}
func (*Window) PumpEvents()                         {}
func (*Window) ShouldClose() bool                   { return true }
func (*Window) NativeHandles() pixbuf.SurfaceTarget { return pixbuf.SurfaceTarget{} }
func (*Window) Close()                              {}
