package pixbuf

import (
	"errors"
	"testing"
)

func TestFormatSizes(t *testing.T) {
	tests := []struct {
		f        Format
		channel  uint32
		channels uint32
		pixel    uint32
	}{
		{FormatNone, 0, 0, 0},
		{FormatRGBAFloat32, 4, 4, 16},
		{FormatRGBAUint8, 1, 4, 4},
		{FormatRGBAUint16, 2, 4, 8},
	}
	for _, tt := range tests {
		t.Run(tt.f.String(), func(t *testing.T) {
			if got := BytesPerChannel(tt.f); got != tt.channel {
				t.Errorf("BytesPerChannel = %d, want %d", got, tt.channel)
			}
			if got := ChannelsPerPixel(tt.f); got != tt.channels {
				t.Errorf("ChannelsPerPixel = %d, want %d", got, tt.channels)
			}
			if got := BytesPerPixel(tt.f); got != tt.pixel {
				t.Errorf("BytesPerPixel = %d, want %d", got, tt.pixel)
			}
		})
	}
}

func TestMinPitchAndSize(t *testing.T) {
	tests := []struct {
		name  string
		desc  Descriptor
		pitch uint32
		size  uint32
	}{
		{"default", DefaultDescriptor(), 7680, 8294400},
		{"float 100x50", Descriptor{100, 50, FormatRGBAFloat32, DomainHost}, 1600, 80000},
		{"uint16 3x3", Descriptor{3, 3, FormatRGBAUint16, DomainDevice}, 24, 72},
		{"invalid", Descriptor{}, 0, 0},
		{"no format", Descriptor{Width: 10, Height: 10, Domain: DomainHost}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MinPitchBytes(tt.desc); got != tt.pitch {
				t.Errorf("MinPitchBytes = %d, want %d", got, tt.pitch)
			}
			if got := MinSizeBytes(tt.desc); got != tt.size {
				t.Errorf("MinSizeBytes = %d, want %d", got, tt.size)
			}
		})
	}
}

func TestAlignPitch(t *testing.T) {
	tests := []struct {
		pitch, alignment, want uint32
	}{
		{400, 0, 400},
		{400, 1, 400},
		{400, 256, 512},
		{512, 256, 512},
		{7680, 256, 7680},
		{12, 256, 256},
		{0, 256, 0},
	}
	for _, tt := range tests {
		if got := AlignPitch(tt.pitch, tt.alignment); got != tt.want {
			t.Errorf("AlignPitch(%d, %d) = %d, want %d", tt.pitch, tt.alignment, got, tt.want)
		}
	}
}

func TestDescriptorValid(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		want bool
	}{
		{"zero", Descriptor{}, false},
		{"default", DefaultDescriptor(), true},
		{"zero width", Descriptor{0, 1, FormatRGBAUint8, DomainHost}, false},
		{"zero height", Descriptor{1, 0, FormatRGBAUint8, DomainHost}, false},
		{"no format", Descriptor{1, 1, FormatNone, DomainHost}, false},
		{"no domain", Descriptor{1, 1, FormatRGBAUint8, DomainNone}, false},
		{"device", Descriptor{1, 1, FormatRGBAFloat32, DomainDevice}, true},
	}
	for _, tt := range tests {
		if got := tt.desc.Valid(); got != tt.want {
			t.Errorf("%s: Valid() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDescriptorString(t *testing.T) {
	d := Descriptor{640, 480, FormatRGBAUint16, DomainDevice}
	if got, want := d.String(), "640x480 rgba16 device"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestParseRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatNone, FormatRGBAFloat32, FormatRGBAUint8, FormatRGBAUint16} {
		got, err := ParseFormat(f.String())
		if err != nil || got != f {
			t.Errorf("ParseFormat(%q) = %v, %v", f.String(), got, err)
		}
	}
	for _, d := range []Domain{DomainNone, DomainHost, DomainDevice} {
		got, err := ParseDomain(d.String())
		if err != nil || got != d {
			t.Errorf("ParseDomain(%q) = %v, %v", d.String(), got, err)
		}
	}
	for a := GraphicsAPINone; a <= GraphicsAPISoftware; a++ {
		got, err := ParseGraphicsAPI(a.String())
		if err != nil || got != a {
			t.Errorf("ParseGraphicsAPI(%q) = %v, %v", a.String(), got, err)
		}
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := ParseFormat("bgra"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("ParseFormat(bgra) error = %v", err)
	}
	if _, err := ParseDomain("gpu"); !errors.Is(err, ErrUnknownDomain) {
		t.Errorf("ParseDomain(gpu) error = %v", err)
	}
	if _, err := ParseGraphicsAPI("glide"); !errors.Is(err, ErrUnknownGraphicsAPI) {
		t.Errorf("ParseGraphicsAPI(glide) error = %v", err)
	}
}

func TestUnknownEnumStrings(t *testing.T) {
	if got := Format(99).String(); got != "Format(99)" {
		t.Errorf("Format(99).String() = %q", got)
	}
	if got := Domain(9).String(); got != "Domain(9)" {
		t.Errorf("Domain(9).String() = %q", got)
	}
	if got := GraphicsAPI(42).String(); got != "GraphicsAPI(42)" {
		t.Errorf("GraphicsAPI(42).String() = %q", got)
	}
}
