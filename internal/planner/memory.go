// internal/planner/memory.go
package planner

import (
	"context"
	"sync"
)

// MemoryStore keeps saved itineraries in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	items []Itinerary
}

func (s *MemoryStore) List(ctx context.Context) ([]Itinerary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Itinerary, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out, nil
}

func (s *MemoryStore) Append(ctx context.Context, it Itinerary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, it.Clone())
	return nil
}
