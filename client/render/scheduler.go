package render

import (
	"sort"
	"sync"
	"time"
)

// FrameID identifies a requested frame. Zero is never issued.
type FrameID uint64

// FrameScheduler is the host's animation-frame facility. A requested
// callback runs once, on the next frame, unless it is cancelled first.
type FrameScheduler interface {
	RequestFrame(fn func(now time.Time)) FrameID
	CancelFrame(id FrameID)
}

// FrameQueue is a FrameScheduler driven by an external frame clock. The
// host calls Flush once per displayed frame.
type FrameQueue struct {
	mu      sync.Mutex
	next    FrameID
	pending map[FrameID]func(time.Time)
}

// NewFrameQueue creates an empty queue.
func NewFrameQueue() *FrameQueue {
	return &FrameQueue{pending: make(map[FrameID]func(time.Time))}
}

func (q *FrameQueue) RequestFrame(fn func(now time.Time)) FrameID {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.next++
	q.pending[q.next] = fn
	return q.next
}

func (q *FrameQueue) CancelFrame(id FrameID) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.pending, id)
}

// Flush runs every callback pending at the time of the call, oldest first,
// and returns how many ran. Callbacks requested while flushing wait for the
// next Flush.
func (q *FrameQueue) Flush(now time.Time) int {
	q.mu.Lock()
	ids := make([]FrameID, 0, len(q.pending))
	for id := range q.pending {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	fns := make([]func(time.Time), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, q.pending[id])
		delete(q.pending, id)
	}
	q.mu.Unlock()

	for _, fn := range fns {
		fn(now)
	}
	return len(fns)
}

// Len reports how many callbacks are waiting.
func (q *FrameQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
