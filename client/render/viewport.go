package render

import (
	"math"
	"sync"
	"time"
)

const (
	// MinVisibleWidth is the narrowest slice of the world a window may show.
	// Smaller windows render a larger surface and get scaled down.
	MinVisibleWidth = 800

	ResizeDebounce = 40 * time.Millisecond
)

// SurfaceSize returns the drawing surface dimensions for a window of the
// given size.
func SurfaceSize(winW, winH int) (int, int) {
	if winW <= 0 || winH <= 0 {
		return 0, 0
	}
	scale := math.Max(1, MinVisibleWidth/float64(winW))
	return int(scale * float64(winW)), int(scale * float64(winH))
}

// Debouncer calls fn with the latest value once no new value has arrived
// for the wait period.
type Debouncer[T any] struct {
	wait time.Duration
	fn   func(T)

	mu      sync.Mutex
	timer   *time.Timer
	gen     uint64
	latest  T
	stopped bool
}

// NewDebouncer creates a debouncer that calls fn.
func NewDebouncer[T any](wait time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{wait: wait, fn: fn}
}

// Trigger records v and restarts the quiet period.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.latest = v
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
	}
	gen := d.gen
	d.timer = time.AfterFunc(d.wait, func() { d.fire(gen) })
}

func (d *Debouncer[T]) fire(gen uint64) {
	d.mu.Lock()
	if d.stopped || gen != d.gen {
		d.mu.Unlock()
		return
	}
	v := d.latest
	d.timer = nil
	d.mu.Unlock()

	d.fn(v)
}

// Stop drops any pending call.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
