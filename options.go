package pixbuf

// BufferOption configures a Buffer during creation.
//
// Example:
//
//	buf := pixbuf.NewBuffer(target, desc,
//	    pixbuf.WithGraphicsAPI(pixbuf.GraphicsAPIVulkan),
//	    pixbuf.WithVSync(false))
type BufferOption func(*bufferOptions)

type bufferOptions struct {
	api         GraphicsAPI
	accelerator DeviceAccelerator
	vsync       bool
	debug       bool
}

func defaultBufferOptions() bufferOptions {
	return bufferOptions{
		api:   GraphicsAPINative,
		vsync: true,
	}
}

// WithGraphicsAPI selects the backend. The default is GraphicsAPINative.
func WithGraphicsAPI(api GraphicsAPI) BufferOption {
	return func(o *bufferOptions) {
		o.api = api
	}
}

// WithAccelerator sets the accelerator used for DomainDevice buffers,
// overriding the registered one.
func WithAccelerator(a DeviceAccelerator) BufferOption {
	return func(o *bufferOptions) {
		o.accelerator = a
	}
}

// WithVSync selects FIFO presentation (the default) or the lowest-latency
// mode the surface supports.
func WithVSync(enabled bool) BufferOption {
	return func(o *bufferOptions) {
		o.vsync = enabled
	}
}

// WithDebug enables backend validation layers and shader diagnostics.
func WithDebug(enabled bool) BufferOption {
	return func(o *bufferOptions) {
		o.debug = enabled
	}
}

// ContextOption configures a Context during creation.
type ContextOption func(*contextOptions)

type contextOptions struct {
	window     Window
	bufferOpts []BufferOption
}

// WithWindow sets the window the Context presents to. Without it the
// Context uses a HeadlessWindow sized from Config.Window.
func WithWindow(w Window) ContextOption {
	return func(o *contextOptions) {
		o.window = w
	}
}

// WithBufferOptions passes options through to the Context's Buffer.
// The Context's Config.API is applied first, so WithGraphicsAPI here wins.
func WithBufferOptions(opts ...BufferOption) ContextOption {
	return func(o *contextOptions) {
		o.bufferOpts = append(o.bufferOpts, opts...)
	}
}
