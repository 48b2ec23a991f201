// Package state holds the latest world snapshot seen by the client.
//
// A snapshot is replaced wholesale on every update and never merged. Readers
// get whatever is current; a replaced snapshot is never mutated afterwards.
package state

import (
	"sync/atomic"

	"github.com/wricardo/arena-io/protocol"
)

// Store keeps the most recent snapshot.
type Store struct {
	current atomic.Pointer[protocol.Snapshot]
	updates atomic.Uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{}
}

// Set replaces the current snapshot.
func (s *Store) Set(snap *protocol.Snapshot) {
	s.current.Store(snap)
	s.updates.Add(1)
}

// Current returns the latest snapshot, or nil before the first update.
func (s *Store) Current() *protocol.Snapshot {
	return s.current.Load()
}

// Clear drops the current snapshot.
func (s *Store) Clear() {
	s.current.Store(nil)
}

// Updates counts the snapshots received so far.
func (s *Store) Updates() uint64 {
	return s.updates.Load()
}
