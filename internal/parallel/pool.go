// Package parallel splits per-frame pixel work into row bands and runs
// them on a fixed set of worker goroutines.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// MinBandRows is the smallest band handed to a worker. Buffers shorter than
// two bands are filled on the calling goroutine.
const MinBandRows = 16

// band is a half-open row range [y0, y1) plus the frame it belongs to.
type band struct {
	y0, y1 int
	fn     func(y0, y1 int)
	wg     *sync.WaitGroup
}

// Pool fills row bands of a buffer concurrently.
//
// Workers pull bands from a shared queue. Rows runs one frame at a time per
// call and blocks until every band is done, so a caller can hand the buffer
// to the presenter right after it returns.
//
// Pool is safe for concurrent use.
type Pool struct {
	workers int
	queue   chan band
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.RWMutex // held shared while a frame is queued
	running atomic.Bool
	bands   atomic.Uint64
}

// NewPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	p := &Pool{
		workers: workers,
		queue:   make(chan band, workers*4),
		done:    make(chan struct{}),
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case b := <-p.queue:
			p.run(b)
		case <-p.done:
			// Finish what was queued before Close so no Rows caller hangs.
			for {
				select {
				case b := <-p.queue:
					p.run(b)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(b band) {
	defer b.wg.Done()
	b.fn(b.y0, b.y1)
	p.bands.Add(1)
}

// Rows calls fn over [0, height) split into contiguous bands, one band per
// worker at most, and waits for all of them. Bands never overlap, so fn may
// write its rows without locking. After Close, or for short buffers, fn runs
// once over the whole range on the calling goroutine.
func (p *Pool) Rows(height int, fn func(y0, y1 int)) {
	if height <= 0 || fn == nil {
		return
	}
	step := p.bandRows(height)
	p.mu.RLock()
	if step >= height || !p.running.Load() {
		p.mu.RUnlock()
		fn(0, height)
		return
	}

	var wg sync.WaitGroup
	wg.Add((height + step - 1) / step)
	for y := 0; y < height; y += step {
		p.queue <- band{y0: y, y1: min(y+step, height), fn: fn, wg: &wg}
	}
	p.mu.RUnlock()
	wg.Wait()
}

// bandRows returns the number of rows per band for a buffer of height rows.
func (p *Pool) bandRows(height int) int {
	n := min(height/MinBandRows, p.workers)
	if n <= 1 {
		return height
	}
	return (height + n - 1) / n
}

// Close stops the workers after draining queued bands. It is idempotent.
func (p *Pool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether Close has not been called yet.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}

// Bands returns how many bands workers have completed.
func (p *Pool) Bands() uint64 {
	return p.bands.Load()
}
