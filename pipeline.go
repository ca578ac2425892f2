package pixbuf

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"
)

// SurfaceTarget carries the platform-native handles a pipeline presents to.
// The handles are opaque: pipelines pass them to the graphics backend once
// at construction and never inspect them.
type SurfaceTarget struct {
	// Display is the native display connection (Xlib Display*, or 0).
	Display uintptr

	// Window is the native window (X11 Window, HWND, CAMetalLayer*, or 0).
	Window uintptr
}

// Stats counts what a pipeline did since it was created.
type Stats struct {
	// Frames is the number of frames submitted and presented.
	Frames uint64

	// Skipped is the number of Render calls that presented nothing
	// (zero display area, or no presentable image available).
	Skipped uint64

	// Recreated is the number of full resource recreations caused by
	// Resize or by a display size change.
	Recreated uint64
}

// Pipeline is the backend half of a Buffer: it owns every GPU resource of
// the buffer and performs the per-frame copy and present.
//
// Failures inside a Pipeline are fatal (see Fatal); the methods therefore
// have no error results.
type Pipeline interface {
	// Resize destroys and recreates all resources for desc. On return the
	// new configuration is active and earlier data pointers are invalid.
	Resize(desc Descriptor)

	// Render copies the buffer into the next presentable image, draws it
	// over the full display and presents it. It blocks until the frame slot
	// being reused is no longer read by the GPU.
	Render(displayWidth, displayHeight uint32)

	// Data returns the address of the first byte of the buffer in its
	// domain's address space, or 0.
	Data() uintptr

	// Bytes returns the host view of a DomainHost buffer, nil otherwise.
	Bytes() []byte

	// Pitch returns the actual row size in bytes.
	Pitch() uint32

	// Size returns the actual allocation size in bytes.
	Size() uint32

	// Descriptor returns the active descriptor.
	Descriptor() Descriptor

	// Stats returns frame counters.
	Stats() Stats

	// Close waits for the device to go idle and releases everything.
	Close()
}

// PipelineConfig is passed to a PipelineFactory.
type PipelineConfig struct {
	// API is the resolved graphics API (never GraphicsAPINative).
	API GraphicsAPI

	Target     SurfaceTarget
	Descriptor Descriptor

	// Accelerator imports device buffers. Nil unless a DeviceAccelerator is
	// registered.
	Accelerator DeviceAccelerator

	// VSync selects FIFO presentation; otherwise mailbox or immediate.
	VSync bool

	// Debug enables backend validation layers and shader validation logs.
	Debug bool
}

// PipelineFactory creates a Pipeline for cfg.
type PipelineFactory func(cfg PipelineConfig) Pipeline

var pipelines = gpucontext.NewRegistry[PipelineFactory](
	gpucontext.WithPriority(nativePriority...),
)

// RegisterPipeline registers the factory used for api.
// Registering GraphicsAPINone or GraphicsAPINative is a no-op.
//
// Backend packages call it from init:
//
//	func init() {
//	    pixbuf.RegisterPipeline(pixbuf.GraphicsAPIVulkan, pipeline.New)
//	}
func RegisterPipeline(api GraphicsAPI, f PipelineFactory) {
	if api == GraphicsAPINone || api == GraphicsAPINative || f == nil {
		return
	}
	pipelines.Register(api.String(), func() PipelineFactory { return f })
}

// UnregisterPipeline removes the factory registered for api.
func UnregisterPipeline(api GraphicsAPI) {
	pipelines.Unregister(api.String())
}

// AvailableGraphicsAPIs returns the APIs with a registered pipeline.
func AvailableGraphicsAPIs() []GraphicsAPI {
	names := pipelines.Available()
	apis := make([]GraphicsAPI, 0, len(names))
	for _, n := range names {
		if a, err := ParseGraphicsAPI(n); err == nil {
			apis = append(apis, a)
		}
	}
	slices.Sort(apis)
	return apis
}

// resolvePipeline returns the factory for api, resolving GraphicsAPINative
// to the highest-priority registered backend.
func resolvePipeline(api GraphicsAPI) (PipelineFactory, GraphicsAPI, error) {
	if api == GraphicsAPINative {
		name := pipelines.BestName()
		if name == "" {
			return nil, api, fmt.Errorf("%w: %s", ErrNoPipeline, api)
		}
		resolved, err := ParseGraphicsAPI(name)
		if err != nil {
			return nil, api, err
		}
		api = resolved
	}
	if !pipelines.Has(api.String()) {
		return nil, api, fmt.Errorf("%w: %s", ErrNoPipeline, api)
	}
	return pipelines.Get(api.String()), api, nil
}
