package state

import (
	"sync"
	"testing"

	"github.com/wricardo/arena-io/protocol"
)

func TestStore(t *testing.T) {
	s := NewStore()
	if s.Current() != nil {
		t.Fatal("New store should be empty")
	}

	first := &protocol.Snapshot{T: 1, Me: &protocol.Entity{ID: "me", X: 1}}
	second := &protocol.Snapshot{T: 2, Others: []protocol.Entity{{ID: "other"}}}

	s.Set(first)
	s.Set(second)

	got := s.Current()
	if got != second {
		t.Fatalf("Expected the latest snapshot, got %+v", got)
	}
	if got.Me != nil {
		t.Error("Snapshots replace rather than merge; self should be absent")
	}
	if s.Updates() != 2 {
		t.Errorf("Expected 2 updates, got %d", s.Updates())
	}

	s.Clear()
	if s.Current() != nil {
		t.Error("Expected empty store after Clear")
	}
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := int64(0); i < 1000; i++ {
			s.Set(&protocol.Snapshot{T: i})
		}
	}()
	go func() {
		defer wg.Done()
		var last int64 = -1
		for i := 0; i < 1000; i++ {
			if snap := s.Current(); snap != nil {
				if snap.T < last {
					t.Errorf("Snapshot went backwards: %d after %d", snap.T, last)
					return
				}
				last = snap.T
			}
		}
	}()
	wg.Wait()

	if s.Current().T != 999 {
		t.Errorf("Expected final snapshot 999, got %d", s.Current().T)
	}
}
