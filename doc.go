// Package pixbuf presents an application-writable pixel buffer on screen
// every frame.
//
// # Overview
//
// A [Buffer] is a rectangle of RGBA pixels that the application fills, and
// that a [Pipeline] scales onto a window surface once per frame. The buffer
// lives either in host memory, where Go code writes it through
// [Buffer.HostBytes] or [HostData], or in device memory owned by a compute
// accelerator such as CUDA, where kernels write it through [Buffer.Data].
//
// Pipelines are registered per [GraphicsAPI]. Importing the gpu package
// registers a wgpu HAL pipeline for every backend the host supports:
//
//	import _ "github.com/gogpu/pixbuf/gpu"
//
// Importing the cuda package registers the CUDA driver as the device
// accelerator, which makes [DomainDevice] buffers available:
//
//	import _ "github.com/gogpu/pixbuf/cuda"
//
// # Quick Start
//
//	cfg := pixbuf.DefaultConfig()
//	cfg.Buffer = pixbuf.Descriptor{
//		Width:  640,
//		Height: 480,
//		Format: pixbuf.FormatRGBAUint8,
//		Domain: pixbuf.DomainHost,
//	}
//	ctx := pixbuf.MustNewContext(cfg)
//	defer ctx.Close()
//
//	for !ctx.ShouldClose() {
//		ctx.OnFrameStart()
//		px := pixbuf.HostData[uint8](ctx.Buffer())
//		// write rows of ctx.Buffer().Pitch() bytes into px
//		ctx.OnFrameEnded()
//	}
//
// # Pitch
//
// Rows are padded to the alignment the graphics API requires for copies, so
// a row starts every [Buffer.Pitch] bytes rather than every
// Width*[BytesPerPixel] bytes. Writers must honour the pitch.
//
// # Errors
//
// Invalid descriptors passed to [NewContext] are returned as errors. Failures
// inside a pipeline after construction are unrecoverable and panic with a
// [*FatalError] naming the backend and the failed operation.
//
// # Logging
//
// pixbuf is silent by default. Call [SetLogger] with an [log/slog.Logger] to
// see pipeline creation, surface recreation and accelerator events.
package pixbuf
