package pixbuf

import (
	"sync"
	"testing"
)

func TestHeadlessWindow(t *testing.T) {
	w := NewHeadlessWindow(DefaultWindowConfig())

	if width, height := w.Size(); width != 800 || height != 600 {
		t.Errorf("Size() = %dx%d, want 800x600", width, height)
	}
	if w.ScaleFactor() != 1 {
		t.Errorf("ScaleFactor() = %v", w.ScaleFactor())
	}
	if w.NativeHandles() != (SurfaceTarget{}) {
		t.Error("headless window has native handles")
	}

	w.SetSize(1024, 768)
	if width, height := w.Size(); width != 1024 || height != 768 {
		t.Errorf("Size() after SetSize = %dx%d", width, height)
	}

	w.PumpEvents()
	w.PumpEvents()
	if w.Pumps() != 2 {
		t.Errorf("Pumps() = %d, want 2", w.Pumps())
	}

	w.RequestRedraw()
	if w.ShouldClose() {
		t.Error("ShouldClose before RequestClose")
	}
	w.RequestClose()
	if !w.ShouldClose() {
		t.Error("ShouldClose after RequestClose")
	}
}

func TestHeadlessWindowClose(t *testing.T) {
	w := NewHeadlessWindow(WindowConfig{Width: 1, Height: 1})
	w.Close()
	if !w.ShouldClose() {
		t.Error("closed window does not report ShouldClose")
	}
}

func TestHeadlessWindowConcurrent(t *testing.T) {
	w := NewHeadlessWindow(DefaultWindowConfig())
	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			w.SetSize(100+i, 100+i)
		}()
		go func() {
			defer wg.Done()
			w.PumpEvents()
			_, _ = w.Size()
		}()
	}
	wg.Wait()
	if w.Pumps() != 20 {
		t.Errorf("Pumps() = %d, want 20", w.Pumps())
	}
}
