package memory

import (
	"context"
	"sort"
	"sync"

	"token-factory/internal/domain"
	"token-factory/internal/storage"
)

// IssuanceEventStore is an in-memory implementation of
// storage.IssuanceEventStore.
type IssuanceEventStore struct {
	mu     sync.RWMutex
	events []*domain.IssuanceEvent
}

// NewIssuanceEventStore creates a new in-memory issuance event store.
func NewIssuanceEventStore() *IssuanceEventStore {
	return &IssuanceEventStore{}
}

// Insert adds a new event.
func (s *IssuanceEventStore) Insert(_ context.Context, e *domain.IssuanceEvent) error {
	if e == nil || e.EventType == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	eventCopy := *e
	s.events = append(s.events, &eventCopy)
	return nil
}

// InsertBulk adds multiple events. Fails the entire batch on any error.
func (s *IssuanceEventStore) InsertBulk(_ context.Context, events []*domain.IssuanceEvent) error {
	for _, e := range events {
		if e == nil || e.EventType == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range events {
		eventCopy := *e
		s.events = append(s.events, &eventCopy)
	}
	return nil
}

// GetByToken retrieves all events for a token address, ordered by state
// version ASC.
func (s *IssuanceEventStore) GetByToken(_ context.Context, tokenAddress string) ([]*domain.IssuanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IssuanceEvent
	for _, e := range s.events {
		if e.TokenAddress == tokenAddress {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortEvents(result)
	return result, nil
}

// GetByTimeRange retrieves events within [start, end] inclusive.
func (s *IssuanceEventStore) GetByTimeRange(_ context.Context, start, end int64) ([]*domain.IssuanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.IssuanceEvent
	for _, e := range s.events {
		if e.Timestamp >= start && e.Timestamp <= end {
			eventCopy := *e
			result = append(result, &eventCopy)
		}
	}

	sortEvents(result)
	return result, nil
}

// TotalFeeRevenue returns the sum of fees across all events.
func (s *IssuanceEventStore) TotalFeeRevenue(_ context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total uint64
	for _, e := range s.events {
		total += e.FeePaid
	}
	return total, nil
}

// sortEvents orders by state version ASC.
func sortEvents(events []*domain.IssuanceEvent) {
	sort.Slice(events, func(i, j int) bool {
		return events[i].StateVersion < events[j].StateVersion
	})
}

// Verify interface compliance at compile time.
var _ storage.IssuanceEventStore = (*IssuanceEventStore)(nil)
