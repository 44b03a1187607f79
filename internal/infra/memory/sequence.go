package memory

import (
	"context"
	"sync"
)

// Sequence hands out gap-free our-numbers and file sequences. One mutex
// serializes all scopes; allocation is a map bump, contention is not a
// concern at this volume.
type Sequence struct {
	mu   sync.Mutex
	next map[string]int64
}

// NewSequence creates an allocator starting every scope at 1.
func NewSequence() *Sequence {
	return &Sequence{next: make(map[string]int64)}
}

func (s *Sequence) Next(_ context.Context, scope string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next[scope]++
	return s.next[scope], nil
}
