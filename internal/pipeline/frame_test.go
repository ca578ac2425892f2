//go:build !nogpu

package pipeline

import (
	"testing"

	"github.com/gogpu/pixbuf"
	"github.com/gogpu/wgpu/hal"
)

// countingDevice counts buffer mappings.
type countingDevice struct {
	hal.Device
	maps, unmaps int
}

func (d *countingDevice) MapBuffer(b hal.Buffer, offset, size uint64) (hal.BufferMapping, error) {
	d.maps++
	return d.Device.MapBuffer(b, offset, size)
}

func (d *countingDevice) UnmapBuffer(b hal.Buffer) error {
	d.unmaps++
	return d.Device.UnmapBuffer(b)
}

// slowQueue completes one submission per PollCompleted call, so frames
// overlap the way they do on a real GPU.
type slowQueue struct {
	hal.Queue
	submitted   uint64
	completed   uint64
	maxInFlight uint64

	beforeSubmit func(completed uint64)
}

func (q *slowQueue) Submit(cmds []hal.CommandBuffer) (uint64, error) {
	if q.beforeSubmit != nil {
		q.beforeSubmit(q.completed)
	}
	if _, err := q.Queue.Submit(cmds); err != nil {
		return 0, err
	}
	q.submitted++
	q.maxInFlight = max(q.maxInFlight, q.submitted-q.completed)
	return q.submitted, nil
}

func (q *slowQueue) PollCompleted() uint64 {
	if q.completed < q.submitted {
		q.completed++
	}
	return q.completed
}

func TestHostMappingPerVariant(t *testing.T) {
	tests := []struct {
		name       string
		persistent bool
		maps       int
		unmaps     int
	}{
		{"persistent", true, 1, 0},
		{"per-frame", false, 4, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := variants[pixbuf.GraphicsAPISoftware]
			v.persistentMap = tt.persistent
			desc := hostDesc(8, 8, pixbuf.FormatRGBAUint8)
			p := newPipeline(pixbuf.PipelineConfig{API: pixbuf.GraphicsAPISoftware, Descriptor: desc}, v)
			t.Cleanup(p.Close)

			dev := &countingDevice{Device: p.gpu.device}
			p.gpu.device = dev
			p.Resize(desc) // staging buffer now maps through dev

			addr := p.Data()
			for i := range 3 {
				p.Render(32, 32)
				if tt.persistent && p.Data() != addr {
					t.Fatalf("frame %d: Data() moved from %#x to %#x", i, addr, p.Data())
				}
			}
			if dev.maps != tt.maps || dev.unmaps != tt.unmaps {
				t.Errorf("over 3 frames: MapBuffer = %d, UnmapBuffer = %d, want %d and %d",
					dev.maps, dev.unmaps, tt.maps, tt.unmaps)
			}

			p.Close()
			if dev.unmaps != tt.unmaps+1 {
				t.Errorf("after Close: UnmapBuffer = %d, want %d", dev.unmaps, tt.unmaps+1)
			}
		})
	}
}

func TestRenderWaitsForReusedSlot(t *testing.T) {
	p := newTestPipeline(t, hostDesc(16, 16, pixbuf.FormatRGBAUint8), pixbuf.SurfaceTarget{})
	q := &slowQueue{Queue: p.gpu.queue}
	p.gpu.queue = q

	const frames = 10
	for i := range frames {
		reuse := p.slots[p.current].index
		first := true
		q.beforeSubmit = func(completed uint64) {
			if first && completed < reuse {
				t.Errorf("frame %d: upload submitted with slot fence %d pending (completed %d)", i, reuse, completed)
			}
			first = false
		}
		p.Render(64, 64)
	}
	q.beforeSubmit = nil

	if q.submitted != 2*frames {
		t.Errorf("submitted = %d, want %d", q.submitted, 2*frames)
	}
	if q.maxInFlight > 2*frameSlots {
		t.Errorf("max submissions in flight = %d, want at most %d", q.maxInFlight, 2*frameSlots)
	}
	if q.maxInFlight < 2 {
		t.Errorf("max submissions in flight = %d, frames never overlapped", q.maxInFlight)
	}
	if got := p.Stats().Frames; got != frames {
		t.Errorf("Frames = %d, want %d", got, frames)
	}
}
