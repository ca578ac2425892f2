package main

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/go-text/typesetting/di"
	gotext "github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const overlayPadding = 6

var panelColor = color.RGBA{A: 0xa0}

// overlay draws a few lines of status text on a translucent panel.
//
// Lines are shaped with HarfBuzz to size the panel and drawn with the
// matching OpenType face. Not safe for concurrent use.
type overlay struct {
	face   font.Face
	shaped *gotext.Face
	shaper shaping.HarfbuzzShaper
	size   fixed.Int26_6
}

func newOverlay(size float64) (*overlay, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("overlay: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("overlay: face: %w", err)
	}
	shaped, err := gotext.ParseTTF(bytes.NewReader(goregular.TTF))
	if err != nil {
		_ = face.Close()
		return nil, fmt.Errorf("overlay: shaping font: %w", err)
	}
	return &overlay{face: face, shaped: shaped, size: fixed.Int26_6(size * 64)}, nil
}

// advance returns the shaped width of s.
func (o *overlay) advance(s string) fixed.Int26_6 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	out := o.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      o.shaped,
		Size:      o.size,
		Script:    language.Latin,
		Language:  language.NewLanguage("en"),
	})
	var w fixed.Int26_6
	for _, g := range out.Glyphs {
		w += g.Advance
	}
	return w
}

// bounds returns the panel rectangle for lines, anchored at the top-left.
func (o *overlay) bounds(lines []string) image.Rectangle {
	var w fixed.Int26_6
	for _, line := range lines {
		w = max(w, o.advance(line))
	}
	lineH := o.face.Metrics().Height.Ceil()
	return image.Rect(0, 0, w.Ceil()+2*overlayPadding, len(lines)*lineH+2*overlayPadding)
}

// Draw renders lines into an rgba8 buffer with the given row pitch.
func (o *overlay) Draw(pix []byte, pitch, width, height int, lines []string) {
	if len(lines) == 0 {
		return
	}
	img := &image.RGBA{Pix: pix, Stride: pitch, Rect: image.Rect(0, 0, width, height)}
	panel := o.bounds(lines).Intersect(img.Rect)
	draw.Draw(img, panel, image.NewUniform(panelColor), image.Point{}, draw.Over)

	m := o.face.Metrics()
	d := &font.Drawer{Dst: img, Src: image.White, Face: o.face}
	for i, line := range lines {
		d.Dot = fixed.P(overlayPadding, overlayPadding+m.Ascent.Ceil()+i*m.Height.Ceil())
		d.DrawString(line)
	}
}

func (o *overlay) Close() error {
	return o.face.Close()
}
