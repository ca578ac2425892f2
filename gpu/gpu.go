//go:build !nogpu

// Package gpu registers the HAL pipelines for every graphics API whose
// backend is compiled in.
//
// Vulkan and OpenGL ES are available on Linux, Metal and Vulkan on macOS,
// DirectX 12 and Vulkan on Windows, and the software rasterizer everywhere.
// Backends that register nothing on this platform are skipped; buffers
// requesting them fail with pixbuf.ErrNoPipeline.
//
// Usage:
//
//	import _ "github.com/gogpu/pixbuf/gpu" // enable GPU presentation
package gpu

import (
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/pipeline"

	// Import all HAL backends so they register via init().
	_ "github.com/gogpu/wgpu/hal/allbackends"
)

func init() {
	for _, api := range pipeline.APIs() {
		if !pipeline.Available(api) {
			pixbuf.Logger().Debug("pixbuf: graphics API not compiled in", "api", api.String())
			continue
		}
		pixbuf.RegisterPipeline(api, pipeline.New)
	}
}
