package pixbuf

import (
	"sync"

	"github.com/gogpu/gpucontext"
)

// Default window configuration.
const (
	DefaultWindowTitle  = "pixbuf"
	DefaultWindowWidth  = 800
	DefaultWindowHeight = 600
)

// WindowConfig describes the window a Context creates or expects.
type WindowConfig struct {
	Title  string
	Width  int
	Height int

	// X and Y position the window; negative values let the platform decide.
	X, Y int

	// Hidden creates the window without showing it.
	Hidden bool
}

// DefaultWindowConfig returns an 800x600 window titled "pixbuf".
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{
		Title:  DefaultWindowTitle,
		Width:  DefaultWindowWidth,
		Height: DefaultWindowHeight,
		X:      -1,
		Y:      -1,
	}
}

// Window is the host window a buffer is presented in. Window creation and
// event pumping live outside pixbuf; the x11 package provides one
// implementation and HeadlessWindow another.
//
// Size reports physical pixels of the client area; pixbuf presents at
// that size.
type Window interface {
	gpucontext.WindowProvider

	// PumpEvents processes all pending window system events without blocking.
	PumpEvents()

	// ShouldClose reports whether the user asked to close the window.
	ShouldClose() bool

	// NativeHandles returns the platform display and window handles.
	NativeHandles() SurfaceTarget

	// Close destroys the window.
	Close()
}

// HeadlessWindow is a Window without a display. It reports a fixed size
// that tests and offscreen tools can change with SetSize.
type HeadlessWindow struct {
	mu          sync.Mutex
	width       int
	height      int
	closed      bool
	pumps       int
	redraws     int
	shouldClose bool
}

// NewHeadlessWindow returns a headless window of the configured size.
func NewHeadlessWindow(cfg WindowConfig) *HeadlessWindow {
	return &HeadlessWindow{width: cfg.Width, height: cfg.Height}
}

// Size returns the current size.
func (w *HeadlessWindow) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width, w.height
}

// ScaleFactor returns 1.
func (w *HeadlessWindow) ScaleFactor() float64 { return 1 }

// RequestRedraw counts redraw requests.
func (w *HeadlessWindow) RequestRedraw() {
	w.mu.Lock()
	w.redraws++
	w.mu.Unlock()
}

// PumpEvents counts pumps; there are no events.
func (w *HeadlessWindow) PumpEvents() {
	w.mu.Lock()
	w.pumps++
	w.mu.Unlock()
}

// Pumps returns how many times PumpEvents was called.
func (w *HeadlessWindow) Pumps() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pumps
}

// ShouldClose reports whether RequestClose or Close was called.
func (w *HeadlessWindow) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldClose || w.closed
}

// RequestClose makes ShouldClose return true.
func (w *HeadlessWindow) RequestClose() {
	w.mu.Lock()
	w.shouldClose = true
	w.mu.Unlock()
}

// SetSize changes the reported size, as a user resize would.
func (w *HeadlessWindow) SetSize(width, height int) {
	w.mu.Lock()
	w.width, w.height = width, height
	w.mu.Unlock()
}

// NativeHandles returns zero handles.
func (w *HeadlessWindow) NativeHandles() SurfaceTarget { return SurfaceTarget{} }

// Close marks the window closed.
func (w *HeadlessWindow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
}

var _ Window = (*HeadlessWindow)(nil)
