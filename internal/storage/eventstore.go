// internal/storage/eventstore.go
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"heritage/internal/planner"
	"heritage/pkg/eventstore"
)

const (
	streamType          = "itinerary_list"
	eventItinerarySaved = "ItinerarySaved"
	maxAppendAttempts   = 5
)

// savedStream is the single stream holding every saved itinerary.
var savedStream = uuid.MustParse("5c0b7f3a-6f43-4d1e-9a51-3c2d8e1f0a77")

// EventStore records saves as ItinerarySaved events on one stream.
// Concurrent writers are serialized by the stream version.
type EventStore struct {
	es *eventstore.EventStore
}

func NewEventStore(es *eventstore.EventStore) *EventStore {
	return &EventStore{es: es}
}

func (s *EventStore) List(ctx context.Context) ([]planner.Itinerary, error) {
	events, err := s.es.Load(ctx, savedStream)
	if err != nil {
		return nil, fmt.Errorf("load saved itineraries: %w", err)
	}
	items := make([]planner.Itinerary, 0, len(events))
	for _, e := range events {
		if e.Type != eventItinerarySaved {
			continue
		}
		var it planner.Itinerary
		if err := json.Unmarshal(e.Data, &it); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", e.ID, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// Append retries on a version conflict with the new stream version.
func (s *EventStore) Append(ctx context.Context, it planner.Itinerary) error {
	data, err := json.Marshal(it)
	if err != nil {
		return fmt.Errorf("encode itinerary: %w", err)
	}
	event := eventstore.Event{
		Type:     eventItinerarySaved,
		Data:     data,
		Metadata: map[string]string{"itinerary_id": it.ID, "name": it.Name},
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		version, err := s.es.Version(ctx, savedStream)
		if err != nil {
			return fmt.Errorf("read stream version: %w", err)
		}
		err = s.es.Append(ctx, savedStream, streamType, version, []eventstore.Event{event})
		if err == nil {
			return nil
		}
		if !errors.Is(err, eventstore.ErrConcurrencyConflict) {
			return fmt.Errorf("append itinerary: %w", err)
		}
	}
	return fmt.Errorf("append itinerary: %w", eventstore.ErrConcurrencyConflict)
}
