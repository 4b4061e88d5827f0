package memory

import (
	"context"
	"sort"
	"sync"

	"token-factory/internal/domain"
	"token-factory/internal/storage"
)

// RegistryStore is an in-memory implementation of storage.RegistryStore.
type RegistryStore struct {
	mu   sync.RWMutex
	data map[string]*domain.CreationRecord // keyed by token_address
}

// NewRegistryStore creates a new in-memory registry store.
func NewRegistryStore() *RegistryStore {
	return &RegistryStore{
		data: make(map[string]*domain.CreationRecord),
	}
}

// Insert adds a new creation record. Returns ErrDuplicateKey if the token
// address exists.
func (s *RegistryStore) Insert(_ context.Context, r *domain.CreationRecord) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.TokenAddress]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	recordCopy := *r
	s.data[r.TokenAddress] = &recordCopy
	return nil
}

// SetMetadata records the one-time metadata transition.
func (s *RegistryStore) SetMetadata(_ context.Context, tokenAddress, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[tokenAddress]
	if !exists {
		return storage.ErrNotFound
	}
	if r.Metadata.Present() {
		return storage.ErrMetadataRecorded
	}

	r.Metadata = domain.MetadataPresent(uri)
	return nil
}

// GetByAddress retrieves a record by token address. Returns ErrNotFound if
// not exists.
func (s *RegistryStore) GetByAddress(_ context.Context, tokenAddress string) (*domain.CreationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[tokenAddress]
	if !exists {
		return nil, storage.ErrNotFound
	}

	recordCopy := *r
	return &recordCopy, nil
}

// GetByCreator retrieves all records for a creator.
func (s *RegistryStore) GetByCreator(_ context.Context, creator string) ([]*domain.CreationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.CreationRecord
	for _, r := range s.data {
		if r.Creator == creator {
			recordCopy := *r
			result = append(result, &recordCopy)
		}
	}

	sortRecords(result)
	return result, nil
}

// List retrieves all records ordered by created_at ASC.
func (s *RegistryStore) List(_ context.Context) ([]*domain.CreationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.CreationRecord, 0, len(s.data))
	for _, r := range s.data {
		recordCopy := *r
		result = append(result, &recordCopy)
	}

	sortRecords(result)
	return result, nil
}

// sortRecords orders by created_at ASC, then token address.
func sortRecords(records []*domain.CreationRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].CreatedAt != records[j].CreatedAt {
			return records[i].CreatedAt < records[j].CreatedAt
		}
		return records[i].TokenAddress < records[j].TokenAddress
	})
}

// Verify interface compliance at compile time.
var _ storage.RegistryStore = (*RegistryStore)(nil)
