package pixbuf

import (
	"fmt"
	"strings"
)

// GraphicsAPI selects the graphics backend that presents a buffer.
// The selection is made once when a Buffer is created.
type GraphicsAPI uint8

const (
	// GraphicsAPINone disables presentation; buffers have no implementation.
	GraphicsAPINone GraphicsAPI = iota

	// GraphicsAPINative picks the preferred registered backend for the platform.
	GraphicsAPINative

	// GraphicsAPIOpenGL selects OpenGL / OpenGL ES.
	GraphicsAPIOpenGL

	// GraphicsAPIVulkan selects Vulkan.
	GraphicsAPIVulkan

	// GraphicsAPIMetal selects Metal.
	GraphicsAPIMetal

	// GraphicsAPIDirectX12 selects Direct3D 12.
	GraphicsAPIDirectX12

	// GraphicsAPISoftware selects the CPU backend registered as the empty
	// HAL backend (the software rasterizer, or the noop device in tests).
	GraphicsAPISoftware
)

// nativePriority orders backends for GraphicsAPINative.
var nativePriority = []string{"vulkan", "dx12", "metal", "gl", "software"}

// String returns the registry name of the API.
func (a GraphicsAPI) String() string {
	switch a {
	case GraphicsAPINone:
		return "none"
	case GraphicsAPINative:
		return "native"
	case GraphicsAPIOpenGL:
		return "gl"
	case GraphicsAPIVulkan:
		return "vulkan"
	case GraphicsAPIMetal:
		return "metal"
	case GraphicsAPIDirectX12:
		return "dx12"
	case GraphicsAPISoftware:
		return "software"
	default:
		return fmt.Sprintf("GraphicsAPI(%d)", uint8(a))
	}
}

// ParseGraphicsAPI returns the API named by s.
func ParseGraphicsAPI(s string) (GraphicsAPI, error) {
	switch strings.ToLower(s) {
	case "none":
		return GraphicsAPINone, nil
	case "native", "":
		return GraphicsAPINative, nil
	case "gl", "opengl", "gles":
		return GraphicsAPIOpenGL, nil
	case "vulkan", "vk":
		return GraphicsAPIVulkan, nil
	case "metal", "mtl":
		return GraphicsAPIMetal, nil
	case "dx12", "d3d12", "directx12":
		return GraphicsAPIDirectX12, nil
	case "software", "sw", "cpu":
		return GraphicsAPISoftware, nil
	}
	return GraphicsAPINone, fmt.Errorf("%w: %q", ErrUnknownGraphicsAPI, s)
}
