// Package x11 provides an X11 window for presenting pixbuf buffers.
//
// The window itself is created and driven over the X protocol with xgb.
// Graphics backends need an Xlib Display* to create a surface, so the
// package also keeps one process-wide Xlib connection, opened on first use
// with OpenDisplay and closed with CloseDisplay once no window uses it.
//
// Usage:
//
//	win, err := x11.NewWindow(pixbuf.DefaultWindowConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer win.Close()
//	ctx, err := pixbuf.NewContext(cfg, pixbuf.WithWindow(win))
package x11

import "errors"

var (
	// ErrUnsupported is returned on platforms without X11.
	ErrUnsupported = errors.New("x11: not supported on this platform")

	// ErrNoDisplay is returned when no X server can be reached.
	ErrNoDisplay = errors.New("x11: cannot open display")
)
