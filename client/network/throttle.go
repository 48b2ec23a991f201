package network

import (
	"sync"
	"time"
)

// Throttle forwards at most one value per interval. The first call in a
// window arms a timer; when it fires, the latest value passed during the
// window is forwarded and the rest are dropped.
type Throttle[T any] struct {
	interval time.Duration
	fn       func(T)

	mu      sync.Mutex
	timer   *time.Timer
	latest  T
	stopped bool
}

// NewThrottle creates a throttle that calls fn.
func NewThrottle[T any](interval time.Duration, fn func(T)) *Throttle[T] {
	return &Throttle[T]{interval: interval, fn: fn}
}

// Call records v as the latest value for the current window.
func (t *Throttle[T]) Call(v T) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.stopped {
		return
	}
	t.latest = v
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval, t.flush)
	}
}

func (t *Throttle[T]) flush() {
	t.mu.Lock()
	if t.stopped {
		t.mu.Unlock()
		return
	}
	v := t.latest
	t.timer = nil
	t.mu.Unlock()

	t.fn(v)
}

// Stop drops any pending value. Later calls are ignored.
func (t *Throttle[T]) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopped = true
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
