package audit

import (
	"context"
	"sync"

	id "atrium/pkg/domain"
)

// InMemoryStore keeps events in append order. Used by tests and dev mode.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByActor(_ context.Context, actorID id.UserID, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Matches the SQL store's LIMIT semantics: non-positive yields nothing.
	var matched []Event
	for i := len(s.events) - 1; i >= 0 && len(matched) < limit; i-- {
		if s.events[i].ActorID == actorID {
			matched = append(matched, s.events[i])
		}
	}
	return matched, nil
}

func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}
	start := len(s.events) - limit
	if start < 0 {
		start = 0
	}
	recent := make([]Event, 0, len(s.events)-start)
	for i := len(s.events) - 1; i >= start; i-- {
		recent = append(recent, s.events[i])
	}
	return recent, nil
}

// All returns every stored event in append order. Test helper.
func (s *InMemoryStore) All() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}
