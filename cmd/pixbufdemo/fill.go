package main

import (
	"image/color"
	"unsafe"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/pixbuf/internal/parallel"
)

// quadrantColors is the colour sequence each quadrant steps through.
var quadrantColors = [4]color.RGBA{
	{R: 255, A: 255},
	{G: 255, A: 255},
	{B: 255, A: 255},
	{A: 255},
}

// quadrantColor returns the colour of quadrant q (0 top-left, 1 top-right,
// 2 bottom-left, 3 bottom-right) at the given phase.
func quadrantColor(q, phase int) color.RGBA {
	return quadrantColors[(q+phase)%len(quadrantColors)]
}

func channelMax[T pixbuf.Channel]() T {
	var zero T
	switch any(zero).(type) {
	case float32:
		return T(1)
	case uint16:
		m := uint16(0xffff)
		return T(m)
	}
	return T(0xff)
}

// scale maps an 8-bit channel onto T's range.
func scale[T pixbuf.Channel](v uint8) T {
	if v == 0 {
		return 0
	}
	return channelMax[T]()
}

// forRows runs fn over [0, height), in bands on pool when there is one.
func forRows(pool *parallel.Pool, height int, fn func(y0, y1 int)) {
	if pool == nil {
		fn(0, height)
		return
	}
	pool.Rows(height, fn)
}

// fillQuadrants writes the four quadrant colours into data, a buffer of
// width x height pixels whose rows are stride elements apart.
func fillQuadrants[T pixbuf.Channel](pool *parallel.Pool, data []T, stride, width, height, phase int) {
	var px [4][4]T
	for q := range px {
		c := quadrantColor(q, phase)
		px[q] = [4]T{scale[T](c.R), scale[T](c.G), scale[T](c.B), scale[T](c.A)}
	}
	halfW, halfH := width/2, height/2
	forRows(pool, height, func(y0, y1 int) {
		for y := y0; y < y1; y++ {
			row := data[y*stride : y*stride+width*4]
			q := 0
			if y >= halfH {
				q = 2
			}
			for x := 0; x < width; x++ {
				p := px[q]
				if x >= halfW {
					p = px[q+1]
				}
				copy(row[x*4:x*4+4], p[:])
			}
		}
	})
}

// fillBytes renders one frame into raw, a buffer laid out as desc with the
// given pitch in bytes. A nil pool fills on the calling goroutine.
func fillBytes(pool *parallel.Pool, raw []byte, desc pixbuf.Descriptor, pitch uint32, phase int) {
	w, h := int(desc.Width), int(desc.Height)
	switch desc.Format {
	case pixbuf.FormatRGBAUint8:
		fillQuadrants(pool, raw, int(pitch), w, h, phase)
	case pixbuf.FormatRGBAUint16:
		fillQuadrants(pool, asChannels[uint16](raw), int(pitch/2), w, h, phase)
	case pixbuf.FormatRGBAFloat32:
		fillQuadrants(pool, asChannels[float32](raw), int(pitch/4), w, h, phase)
	}
}

func asChannels[T pixbuf.Channel](raw []byte) []T {
	var zero T
	n := len(raw) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(unsafe.SliceData(raw))), n)
}
