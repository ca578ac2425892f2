package pixbuf

import (
	"errors"
	"fmt"
	"math"
)

// ErrContextClosed is returned when a closed Context is used.
var ErrContextClosed = errors.New("pixbuf: context is closed")

// Config describes a Context: the buffer it presents, the window it
// presents in and the graphics API it presents with.
type Config struct {
	Buffer Descriptor
	Window WindowConfig
	API    GraphicsAPI
}

// DefaultConfig returns a 1920x1080 rgba8 host buffer in an 800x600 window
// on the native graphics API.
func DefaultConfig() Config {
	return Config{
		Buffer: DefaultDescriptor(),
		Window: DefaultWindowConfig(),
		API:    GraphicsAPINative,
	}
}

// emptyBuffer is returned by Context.Buffer when the context has no buffer.
var emptyBuffer Buffer

// Context composes a window and a buffer. The application calls
// OnFrameStart before writing the buffer and OnFrameEnded after, once per
// frame, from a single goroutine.
//
// Independent Contexts share no state and may run on different goroutines.
type Context struct {
	window     Window
	buffer     *Buffer
	ownsWindow bool
	closed     bool
}

// NewContext creates a context for cfg.
//
// Configuration errors are returned. Backend failures while creating the
// buffer are fatal, as for NewBuffer.
func NewContext(cfg Config, opts ...ContextOption) (*Context, error) {
	var o contextOptions
	for _, opt := range opts {
		opt(&o)
	}
	if cfg.API != GraphicsAPINone && !cfg.Buffer.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDescriptor, cfg.Buffer)
	}

	c := &Context{window: o.window}
	if c.window == nil {
		c.window = NewHeadlessWindow(cfg.Window)
		c.ownsWindow = true
	}
	if cfg.API != GraphicsAPINone {
		bopts := append([]BufferOption{WithGraphicsAPI(cfg.API)}, o.bufferOpts...)
		c.buffer = NewBuffer(c.window.NativeHandles(), cfg.Buffer, bopts...)
	}
	return c, nil
}

// MustNewContext is like NewContext but panics on error.
func MustNewContext(cfg Config, opts ...ContextOption) *Context {
	c, err := NewContext(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Buffer returns the context's buffer. A context without a buffer returns a
// shared empty Buffer whose accessors all return zero values.
func (c *Context) Buffer() *Buffer {
	if c.buffer == nil {
		return &emptyBuffer
	}
	return c.buffer
}

// Window returns the context's window.
func (c *Context) Window() Window {
	return c.window
}

// OnFrameStart pumps pending window events.
func (c *Context) OnFrameStart() error {
	if c.closed {
		return ErrContextClosed
	}
	c.window.PumpEvents()
	return nil
}

// OnFrameEnded presents the buffer at the window's current pixel size.
func (c *Context) OnFrameEnded() error {
	if c.closed {
		return ErrContextClosed
	}
	w, h := c.DisplaySize()
	c.Buffer().Render(w, h)
	return nil
}

// DisplaySize returns the window client area in physical pixels.
func (c *Context) DisplaySize() (width, height uint32) {
	w, h := c.window.Size()
	scale := c.window.ScaleFactor()
	return physical(w, scale), physical(h, scale)
}

func physical(v int, scale float64) uint32 {
	if v <= 0 {
		return 0
	}
	if scale <= 0 {
		scale = 1
	}
	return uint32(math.Round(float64(v) * scale))
}

// ShouldClose reports whether the window asked to close.
func (c *Context) ShouldClose() bool {
	return c.closed || c.window.ShouldClose()
}

// Close releases the buffer, and the window if the context created it.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true
	if c.buffer != nil {
		c.buffer.Close()
		c.buffer = nil
	}
	if c.ownsWindow {
		c.window.Close()
	}
}
