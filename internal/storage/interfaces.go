package storage

import (
	"context"

	"token-factory/internal/domain"
)

// RegistryStore mirrors the ledger's token registry durably. Records are
// append-only; the only permitted update is the one-time metadata write.
type RegistryStore interface {
	// Insert adds a new creation record. Returns ErrDuplicateKey if the
	// token address exists.
	Insert(ctx context.Context, r *domain.CreationRecord) error

	// SetMetadata records the one-time metadata transition. Returns
	// ErrNotFound if the token is unknown and ErrMetadataRecorded if the
	// field was already written.
	SetMetadata(ctx context.Context, tokenAddress, uri string) error

	// GetByAddress retrieves a record by token address. Returns
	// ErrNotFound if not exists.
	GetByAddress(ctx context.Context, tokenAddress string) (*domain.CreationRecord, error)

	// GetByCreator retrieves all records for a creator, ordered by
	// created_at ASC.
	GetByCreator(ctx context.Context, creator string) ([]*domain.CreationRecord, error)

	// List retrieves all records ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.CreationRecord, error)
}

// IssuanceEventStore provides access to issuance_events storage.
type IssuanceEventStore interface {
	// Insert adds a new event.
	Insert(ctx context.Context, e *domain.IssuanceEvent) error

	// InsertBulk adds multiple events. Fails the entire batch on any error.
	InsertBulk(ctx context.Context, events []*domain.IssuanceEvent) error

	// GetByToken retrieves all events for a token address, ordered by
	// state version ASC.
	GetByToken(ctx context.Context, tokenAddress string) ([]*domain.IssuanceEvent, error)

	// GetByTimeRange retrieves events within [start, end] inclusive,
	// ordered by state version ASC.
	GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.IssuanceEvent, error)

	// TotalFeeRevenue returns the sum of fees across all events.
	TotalFeeRevenue(ctx context.Context) (uint64, error)
}
