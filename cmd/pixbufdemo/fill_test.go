package main

import (
	"bytes"
	"testing"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/parallel"
)

func TestQuadrantColorCycles(t *testing.T) {
	// Each quadrant steps red, green, blue, black and wraps.
	for q := 0; q < 4; q++ {
		for phase := 0; phase < 8; phase++ {
			got := quadrantColor(q, phase)
			want := quadrantColors[(q+phase)%4]
			if got != want {
				t.Errorf("quadrantColor(%d, %d) = %v, want %v", q, phase, got, want)
			}
		}
	}
	if quadrantColor(0, 0) == quadrantColor(0, 1) {
		t.Error("colour did not change between phases")
	}
}

func TestFillBytesRGBA8(t *testing.T) {
	desc := pixbuf.Descriptor{Width: 4, Height: 4, Format: pixbuf.FormatRGBAUint8, Domain: pixbuf.DomainHost}
	const pitch = 32 // 16 bytes of pixels, 16 of padding
	raw := make([]byte, pitch*4)
	for i := range raw {
		raw[i] = 0xAA
	}
	fillBytes(nil, raw, desc, pitch, 0)

	pixel := func(x, y int) [4]byte {
		o := y*pitch + x*4
		return [4]byte{raw[o], raw[o+1], raw[o+2], raw[o+3]}
	}
	tests := []struct {
		x, y int
		want [4]byte
	}{
		{0, 0, [4]byte{255, 0, 0, 255}}, // red
		{3, 0, [4]byte{0, 255, 0, 255}}, // green
		{0, 3, [4]byte{0, 0, 255, 255}}, // blue
		{3, 3, [4]byte{0, 0, 0, 255}},   // black
	}
	for _, tt := range tests {
		if got := pixel(tt.x, tt.y); got != tt.want {
			t.Errorf("pixel(%d,%d) = %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
	// Row padding is left alone.
	if raw[16] != 0xAA || raw[pitch*3+31] != 0xAA {
		t.Error("fill wrote into row padding")
	}
}

func TestFillBytesWideFormats(t *testing.T) {
	t.Run("rgba16", func(t *testing.T) {
		desc := pixbuf.Descriptor{Width: 2, Height: 2, Format: pixbuf.FormatRGBAUint16, Domain: pixbuf.DomainHost}
		raw := make([]byte, 2*16)
		fillBytes(nil, raw, desc, 16, 1)
		ch := asChannels[uint16](raw)
		// Phase 1: top-left is green.
		if ch[0] != 0 || ch[1] != 0xffff || ch[2] != 0 || ch[3] != 0xffff {
			t.Errorf("top-left = %v", ch[:4])
		}
	})
	t.Run("rgba32f", func(t *testing.T) {
		desc := pixbuf.Descriptor{Width: 2, Height: 2, Format: pixbuf.FormatRGBAFloat32, Domain: pixbuf.DomainHost}
		raw := make([]byte, 2*32)
		fillBytes(nil, raw, desc, 32, 2)
		ch := asChannels[float32](raw)
		// Phase 2: bottom-right (quadrant 3) wraps to green.
		br := ch[8+4 : 8+8]
		if br[0] != 0 || br[1] != 1 || br[2] != 0 || br[3] != 1 {
			t.Errorf("bottom-right = %v", br)
		}
	})
}

func TestFillBytesParallelMatchesInline(t *testing.T) {
	pool := parallel.NewPool(4)
	defer pool.Close()

	desc := pixbuf.Descriptor{Width: 64, Height: 96, Format: pixbuf.FormatRGBAUint8, Domain: pixbuf.DomainHost}
	const pitch = 256 + 64
	inline := make([]byte, pitch*96)
	banded := make([]byte, pitch*96)
	fillBytes(nil, inline, desc, pitch, 3)
	fillBytes(pool, banded, desc, pitch, 3)

	if !bytes.Equal(inline, banded) {
		t.Error("banded fill differs from inline fill")
	}
	if pool.Bands() != 4 {
		t.Errorf("Bands() = %d, want 4", pool.Bands())
	}
}
