//go:build linux

package x11

import (
	"fmt"
	"sync"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"

	"github.com/gogpu/pixbuf"
)

// Window is a top-level X11 window.
//
// Events are read with PumpEvents from the goroutine that drives the
// frame loop; there is no background event goroutine.
type Window struct {
	mu sync.Mutex

	xc      *xgb.Conn
	xw      xproto.Window
	display uintptr

	atomWMProtocols    xproto.Atom
	atomWMDeleteWindow xproto.Atom

	width       int
	height      int
	visible     bool
	shouldClose bool
	closed      bool
}

var _ pixbuf.Window = (*Window)(nil)

// NewWindow opens a connection to the X server, creates a window for cfg
// and maps it unless cfg.Hidden is set.
func NewWindow(cfg pixbuf.WindowConfig) (*Window, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("x11: invalid window size %dx%d", cfg.Width, cfg.Height)
	}
	display, err := OpenDisplay()
	if err != nil {
		return nil, err
	}
	xc, err := xgb.NewConn()
	if err != nil {
		CloseDisplay()
		return nil, fmt.Errorf("%w: xgb.NewConn failed: %v", ErrNoDisplay, err)
	}

	w := &Window{xc: xc, display: display, width: cfg.Width, height: cfg.Height}
	if err := w.create(cfg); err != nil {
		xc.Close()
		CloseDisplay()
		return nil, err
	}
	pixbuf.Logger().Debug("x11: window created", "id", uint32(w.xw),
		"width", cfg.Width, "height", cfg.Height)
	return w, nil
}

func (w *Window) create(cfg pixbuf.WindowConfig) error {
	xsi := xproto.Setup(w.xc).DefaultScreen(w.xc)
	id, err := w.xc.NewId()
	if err != nil {
		return fmt.Errorf("x11: NewId failed: %w", err)
	}
	w.xw = xproto.Window(id)

	x, y := cfg.X, cfg.Y
	if x < 0 {
		x = 0
	}
	if y < 0 {
		y = 0
	}
	err = xproto.CreateWindowChecked(w.xc, xsi.RootDepth, w.xw, xsi.Root,
		int16(x), int16(y), uint16(cfg.Width), uint16(cfg.Height), 0,
		xproto.WindowClassInputOutput, xsi.RootVisual,
		xproto.CwBackPixel|xproto.CwEventMask,
		[]uint32{
			xsi.BlackPixel,
			xproto.EventMaskExposure | xproto.EventMaskStructureNotify,
		},
	).Check()
	if err != nil {
		return fmt.Errorf("x11: CreateWindow failed: %w", err)
	}

	if w.atomWMProtocols, err = internAtom(w.xc, "WM_PROTOCOLS"); err != nil {
		return err
	}
	if w.atomWMDeleteWindow, err = internAtom(w.xc, "WM_DELETE_WINDOW"); err != nil {
		return err
	}
	b := encodeAtoms(w.atomWMDeleteWindow)
	xproto.ChangeProperty(w.xc, xproto.PropModeReplace, w.xw, w.atomWMProtocols,
		xproto.AtomAtom, 32, 1, b)
	w.setTitle(cfg.Title)

	if !cfg.Hidden {
		w.Show()
	}
	return nil
}

func internAtom(xc *xgb.Conn, name string) (xproto.Atom, error) {
	r, err := xproto.InternAtom(xc, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, fmt.Errorf("x11: InternAtom %s failed: %w", name, err)
	}
	if r == nil {
		return 0, fmt.Errorf("x11: InternAtom %s failed", name)
	}
	return r.Atom, nil
}

// encodeAtoms packs atoms as a little-endian 32-bit property value.
func encodeAtoms(atoms ...xproto.Atom) []byte {
	b := make([]byte, len(atoms)*4)
	for i, v := range atoms {
		b[4*i+0] = uint8(v >> 0)
		b[4*i+1] = uint8(v >> 8)
		b[4*i+2] = uint8(v >> 16)
		b[4*i+3] = uint8(v >> 24)
	}
	return b
}

func (w *Window) setTitle(title string) {
	if title == "" {
		return
	}
	xproto.ChangeProperty(w.xc, xproto.PropModeReplace, w.xw, xproto.AtomWmName,
		xproto.AtomString, 8, uint32(len(title)), []byte(title))
}

// SetTitle changes the window title.
func (w *Window) SetTitle(title string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.setTitle(title)
}

// Show maps the window.
func (w *Window) Show() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || w.visible {
		return
	}
	xproto.MapWindow(w.xc, w.xw)
	w.visible = true
}

// Hide unmaps the window.
func (w *Window) Hide() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed || !w.visible {
		return
	}
	xproto.UnmapWindow(w.xc, w.xw)
	w.visible = false
}

// Size returns the client area in pixels as of the last PumpEvents.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// ScaleFactor returns 1; X11 sizes are already physical pixels.
func (w *Window) ScaleFactor() float64 { return 1 }

// RequestRedraw is a no-op: the frame loop renders continuously.
func (w *Window) RequestRedraw() {}

// PumpEvents processes every queued X event without blocking.
func (w *Window) PumpEvents() {
	w.mu.Lock()
	xc := w.xc
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return
	}
	for {
		ev, xerr := xc.PollForEvent()
		if xerr != nil {
			pixbuf.Logger().Warn("x11: protocol error", "err", xerr)
			continue
		}
		if ev == nil {
			return
		}
		w.handle(ev)
	}
}

// handle applies one event to the window state.
func (w *Window) handle(ev xgb.Event) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch ev := ev.(type) {
	case xproto.ConfigureNotifyEvent:
		if ev.Window != w.xw {
			return
		}
		width, height := int(ev.Width), int(ev.Height)
		if width != w.width || height != w.height {
			w.width, w.height = width, height
			pixbuf.Logger().Debug("x11: window resized", "width", width, "height", height)
		}
	case xproto.ClientMessageEvent:
		if ev.Window != w.xw || ev.Format != 32 || ev.Type != w.atomWMProtocols {
			return
		}
		if len(ev.Data.Data32) > 0 && xproto.Atom(ev.Data.Data32[0]) == w.atomWMDeleteWindow {
			w.shouldClose = true
		}
	case xproto.DestroyNotifyEvent:
		if ev.Window == w.xw {
			w.shouldClose = true
		}
	case xproto.UnmapNotifyEvent:
		if ev.Window == w.xw {
			w.visible = false
		}
	case xproto.MapNotifyEvent:
		if ev.Window == w.xw {
			w.visible = true
		}
	}
}

// ShouldClose reports whether the window manager asked to close the window.
func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldClose || w.closed
}

// NativeHandles returns the Xlib Display* and the X window id.
func (w *Window) NativeHandles() pixbuf.SurfaceTarget {
	return pixbuf.SurfaceTarget{Display: w.display, Window: uintptr(w.xw)}
}

// Close destroys the window and drops its display reference. Calling Close
// more than once is a no-op.
func (w *Window) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	xproto.DestroyWindow(w.xc, w.xw)
	w.xc.Close()
	CloseDisplay()
}
