package pixbuf

import (
	"fmt"
	"strings"
)

// Format describes the channel layout of every pixel in a buffer.
type Format uint8

const (
	// FormatNone is the format of an invalid (absent) buffer.
	FormatNone Format = iota

	// FormatRGBAFloat32 is four 32-bit float channels per pixel.
	FormatRGBAFloat32

	// FormatRGBAUint8 is four 8-bit unsigned normalized channels per pixel.
	FormatRGBAUint8

	// FormatRGBAUint16 is four 16-bit unsigned normalized channels per pixel.
	FormatRGBAUint16
)

// String returns the short name of the format.
func (f Format) String() string {
	switch f {
	case FormatNone:
		return "none"
	case FormatRGBAFloat32:
		return "rgba32f"
	case FormatRGBAUint8:
		return "rgba8"
	case FormatRGBAUint16:
		return "rgba16"
	default:
		return fmt.Sprintf("Format(%d)", uint8(f))
	}
}

// ParseFormat returns the format named by s, as produced by Format.String.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return FormatNone, nil
	case "rgba32f", "float32", "f32":
		return FormatRGBAFloat32, nil
	case "rgba8", "uint8", "u8":
		return FormatRGBAUint8, nil
	case "rgba16", "uint16", "u16":
		return FormatRGBAUint16, nil
	}
	return FormatNone, fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Domain identifies the memory space in which the buffer is directly writable.
type Domain uint8

const (
	// DomainNone is the domain of an invalid (absent) buffer.
	DomainNone Domain = iota

	// DomainHost maps the buffer into the owning process.
	DomainHost

	// DomainDevice maps the buffer into an accelerator's address space
	// through a shared memory handle exported by the graphics side.
	DomainDevice
)

// String returns the short name of the domain.
func (d Domain) String() string {
	switch d {
	case DomainNone:
		return "none"
	case DomainHost:
		return "host"
	case DomainDevice:
		return "device"
	default:
		return fmt.Sprintf("Domain(%d)", uint8(d))
	}
}

// ParseDomain returns the domain named by s, as produced by Domain.String.
func ParseDomain(s string) (Domain, error) {
	switch strings.ToLower(s) {
	case "none", "":
		return DomainNone, nil
	case "host", "cpu":
		return DomainHost, nil
	case "device", "cuda":
		return DomainDevice, nil
	}
	return DomainNone, fmt.Errorf("%w: %q", ErrUnknownDomain, s)
}

// Descriptor describes a pixel buffer: its logical resolution, pixel format
// and the memory domain it is written from.
//
// The zero Descriptor is the invalid descriptor and stands for "no buffer".
type Descriptor struct {
	Width  uint32
	Height uint32
	Format Format
	Domain Domain
}

// Default buffer configuration.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// DefaultDescriptor returns a 1920x1080 RGBA uint8 host buffer descriptor.
func DefaultDescriptor() Descriptor {
	return Descriptor{
		Width:  DefaultWidth,
		Height: DefaultHeight,
		Format: FormatRGBAUint8,
		Domain: DomainHost,
	}
}

// Valid reports whether d describes an actual buffer.
func (d Descriptor) Valid() bool {
	return d.Width > 0 && d.Height > 0 && d.Format != FormatNone && d.Domain != DomainNone
}

// String implements fmt.Stringer.
func (d Descriptor) String() string {
	return fmt.Sprintf("%dx%d %s %s", d.Width, d.Height, d.Format, d.Domain)
}

// BytesPerChannel returns the byte width of one channel of f.
func BytesPerChannel(f Format) uint32 {
	switch f {
	case FormatRGBAFloat32:
		return 4
	case FormatRGBAUint8:
		return 1
	case FormatRGBAUint16:
		return 2
	default:
		return 0
	}
}

// ChannelsPerPixel returns the number of channels of f.
func ChannelsPerPixel(f Format) uint32 {
	switch f {
	case FormatRGBAFloat32, FormatRGBAUint8, FormatRGBAUint16:
		return 4
	default:
		return 0
	}
}

// BytesPerPixel returns the byte size of one pixel of f.
func BytesPerPixel(f Format) uint32 {
	return ChannelsPerPixel(f) * BytesPerChannel(f)
}

// MinPitchBytes returns the logical row size of d in bytes.
//
// Backends may allocate rows with a larger pitch; offsets into a live
// buffer must use Buffer.Pitch.
func MinPitchBytes(d Descriptor) uint32 {
	return d.Width * BytesPerPixel(d.Format)
}

// MinSizeBytes returns the logical size of d in bytes.
func MinSizeBytes(d Descriptor) uint32 {
	return d.Height * MinPitchBytes(d)
}

// AlignPitch rounds pitch up to a multiple of alignment.
// An alignment of 0 or 1 leaves pitch unchanged.
func AlignPitch(pitch, alignment uint32) uint32 {
	if alignment <= 1 {
		return pitch
	}
	if r := pitch % alignment; r != 0 {
		pitch += alignment - r
	}
	return pitch
}
