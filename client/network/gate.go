package network

import (
	"context"
	"sync"
)

// ReadyGate is a signal that settles exactly once, either resolved or
// rejected with an error. It never re-arms.
type ReadyGate struct {
	once sync.Once
	done chan struct{}
	err  error
}

// NewReadyGate creates an unsettled gate.
func NewReadyGate() *ReadyGate {
	return &ReadyGate{done: make(chan struct{})}
}

// Resolve settles the gate successfully. Later calls do nothing.
func (g *ReadyGate) Resolve() {
	g.settle(nil)
}

// Reject settles the gate with err. Later calls do nothing.
func (g *ReadyGate) Reject(err error) {
	if err == nil {
		err = ErrNotConnected
	}
	g.settle(err)
}

func (g *ReadyGate) settle(err error) {
	g.once.Do(func() {
		g.err = err
		close(g.done)
	})
}

// Done is closed once the gate settles.
func (g *ReadyGate) Done() <-chan struct{} {
	return g.done
}

// Wait blocks until the gate settles or ctx ends. It returns the rejection
// error, or ctx.Err() if the context ends first.
func (g *ReadyGate) Wait(ctx context.Context) error {
	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Settled reports whether the gate has been resolved or rejected.
func (g *ReadyGate) Settled() bool {
	select {
	case <-g.done:
		return true
	default:
		return false
	}
}
