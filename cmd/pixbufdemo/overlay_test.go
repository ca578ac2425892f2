package main

import "testing"

func TestOverlayBounds(t *testing.T) {
	ov, err := newOverlay(14)
	if err != nil {
		t.Fatalf("newOverlay() = %v", err)
	}
	defer ov.Close()

	if ov.advance("") != 0 {
		t.Error("empty string has an advance")
	}
	short := ov.bounds([]string{"fps"})
	long := ov.bounds([]string{"fps", "vulkan 1920x1080 rgba8 host"})
	if long.Dx() <= short.Dx() {
		t.Errorf("panel width %d for the longer line, want more than %d", long.Dx(), short.Dx())
	}
	if long.Dy() <= short.Dy() {
		t.Errorf("panel height %d for two lines, want more than %d", long.Dy(), short.Dy())
	}
}

func TestOverlayDraw(t *testing.T) {
	ov, err := newOverlay(14)
	if err != nil {
		t.Fatalf("newOverlay() = %v", err)
	}
	defer ov.Close()

	const w, h, pitch = 200, 40, 200*4 + 64
	raw := make([]byte, pitch*h)
	for i := range raw {
		raw[i] = 0x80
	}
	lines := []string{"frame 42"}
	ov.Draw(raw, pitch, w, h, lines)

	panel := ov.bounds(lines)
	if raw[0] >= 0x80 {
		t.Errorf("panel corner = %#x, want darkened", raw[0])
	}
	// Outside the panel and in the row padding nothing changes.
	if x := panel.Max.X + 1; x < w && raw[x*4] != 0x80 {
		t.Errorf("pixel right of the panel = %#x", raw[x*4])
	}
	if raw[w*4] != 0x80 {
		t.Error("overlay wrote into row padding")
	}

	lit := false
	for y := panel.Min.Y; y < panel.Max.Y && !lit; y++ {
		for x := panel.Min.X; x < panel.Max.X; x++ {
			if raw[y*pitch+x*4] > 0xc0 {
				lit = true
				break
			}
		}
	}
	if !lit {
		t.Error("overlay drew no text")
	}
}
