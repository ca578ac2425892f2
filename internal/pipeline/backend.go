//go:build !nogpu

package pipeline

import (
	"github.com/gogpu/gputypes"
	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// variant is the per-backend behavior of a pipeline.
type variant struct {
	api     pixbuf.GraphicsAPI
	backend gputypes.Backend

	// persistentMap keeps the host staging buffer mapped across frames.
	// GL maps through glMapBufferRange, which must be unmapped before the
	// buffer is read by a copy.
	persistentMap bool

	// formats lists acceptable surface formats in order of preference.
	formats []gputypes.TextureFormat
}

var (
	bgraFirst = []gputypes.TextureFormat{gputypes.TextureFormatBGRA8Unorm, gputypes.TextureFormatRGBA8Unorm}
	rgbaFirst = []gputypes.TextureFormat{gputypes.TextureFormatRGBA8Unorm, gputypes.TextureFormatBGRA8Unorm}
)

var variants = map[pixbuf.GraphicsAPI]variant{
	pixbuf.GraphicsAPIVulkan: {
		api: pixbuf.GraphicsAPIVulkan, backend: gputypes.BackendVulkan,
		persistentMap: true, formats: bgraFirst,
	},
	pixbuf.GraphicsAPIDirectX12: {
		api: pixbuf.GraphicsAPIDirectX12, backend: gputypes.BackendDX12,
		persistentMap: true, formats: bgraFirst,
	},
	pixbuf.GraphicsAPIMetal: {
		api: pixbuf.GraphicsAPIMetal, backend: gputypes.BackendMetal,
		persistentMap: true, formats: bgraFirst,
	},
	pixbuf.GraphicsAPIOpenGL: {
		api: pixbuf.GraphicsAPIOpenGL, backend: gputypes.BackendGL,
		persistentMap: false, formats: rgbaFirst,
	},
	pixbuf.GraphicsAPISoftware: {
		api: pixbuf.GraphicsAPISoftware, backend: gputypes.BackendEmpty,
		persistentMap: true, formats: bgraFirst,
	},
}

// lookupVariant returns the variant for api.
func lookupVariant(api pixbuf.GraphicsAPI) (variant, bool) {
	v, ok := variants[api]
	return v, ok
}

// APIs returns the graphics APIs this package implements.
func APIs() []pixbuf.GraphicsAPI {
	return []pixbuf.GraphicsAPI{
		pixbuf.GraphicsAPIVulkan,
		pixbuf.GraphicsAPIDirectX12,
		pixbuf.GraphicsAPIMetal,
		pixbuf.GraphicsAPIOpenGL,
		pixbuf.GraphicsAPISoftware,
	}
}

// Available reports whether api's HAL backend is registered.
func Available(api pixbuf.GraphicsAPI) bool {
	v, ok := lookupVariant(api)
	if !ok {
		return false
	}
	_, ok = hal.GetBackend(v.backend)
	return ok
}

// textureFormat maps a buffer format to the sampled texture format.
func textureFormat(f pixbuf.Format) gputypes.TextureFormat {
	switch f {
	case pixbuf.FormatRGBAFloat32:
		return gputypes.TextureFormatRGBA32Float
	case pixbuf.FormatRGBAUint8:
		return gputypes.TextureFormatRGBA8Unorm
	case pixbuf.FormatRGBAUint16:
		return gputypes.TextureFormatRGBA16Unorm
	}
	return gputypes.TextureFormatUndefined
}

// chooseFormat returns the first preferred format the surface supports.
func chooseFormat(preferred, supported []gputypes.TextureFormat) gputypes.TextureFormat {
	for _, p := range preferred {
		for _, s := range supported {
			if p == s {
				return p
			}
		}
	}
	if len(supported) > 0 {
		return supported[0]
	}
	return preferred[0]
}

// choosePresentMode returns FIFO for vsync, otherwise mailbox or immediate
// when supported.
func choosePresentMode(vsync bool, supported []gputypes.PresentMode) gputypes.PresentMode {
	if vsync {
		return gputypes.PresentModeFifo
	}
	for _, want := range []gputypes.PresentMode{gputypes.PresentModeMailbox, gputypes.PresentModeImmediate} {
		for _, s := range supported {
			if s == want {
				return want
			}
		}
	}
	return gputypes.PresentModeFifo
}
