package clickhouse

import (
	"context"
	"fmt"
	"time"

	"token-factory/internal/domain"
	"token-factory/internal/observability"
	"token-factory/internal/storage"
)

// IssuanceEventStore implements storage.IssuanceEventStore using ClickHouse.
// Events are append-only; the state version is the commit sequence number and
// is unique per event.
type IssuanceEventStore struct {
	conn *Conn
}

// NewIssuanceEventStore creates a new IssuanceEventStore.
func NewIssuanceEventStore(conn *Conn) *IssuanceEventStore {
	return &IssuanceEventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.IssuanceEventStore = (*IssuanceEventStore)(nil)

// Insert adds a new event.
func (s *IssuanceEventStore) Insert(ctx context.Context, e *domain.IssuanceEvent) error {
	if e == nil {
		return storage.ErrInvalidInput
	}
	return s.InsertBulk(ctx, []*domain.IssuanceEvent{e})
}

// InsertBulk adds multiple events. Fails the entire batch on any error.
func (s *IssuanceEventStore) InsertBulk(ctx context.Context, events []*domain.IssuanceEvent) error {
	if len(events) == 0 {
		return nil
	}

	// State versions are unique per commit; reject batches that repeat one.
	seen := make(map[uint64]struct{}, len(events))
	for _, e := range events {
		if e == nil {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[e.StateVersion]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.StateVersion] = struct{}{}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO issuance_events (
			event_type, token_address, actor, amount, fee_paid, state_version, timestamp
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			string(e.EventType), e.TokenAddress, e.Actor,
			e.Amount, e.FeePaid, e.StateVersion, e.Timestamp,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	start := time.Now()
	err = batch.Send()
	observability.RecordDBQuery("clickhouse", "insert_issuance_events", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByToken retrieves all events for a token address, ordered by state
// version ASC.
func (s *IssuanceEventStore) GetByToken(ctx context.Context, tokenAddress string) ([]*domain.IssuanceEvent, error) {
	query := `
		SELECT event_type, token_address, actor, amount, fee_paid, state_version, timestamp
		FROM issuance_events
		WHERE token_address = ?
		ORDER BY state_version ASC
	`

	rows, err := s.conn.Query(ctx, query, tokenAddress)
	if err != nil {
		return nil, fmt.Errorf("query events by token: %w", err)
	}
	defer rows.Close()

	return scanIssuanceEvents(rows)
}

// GetByTimeRange retrieves events within [start, end] inclusive, ordered by
// state version ASC.
func (s *IssuanceEventStore) GetByTimeRange(ctx context.Context, start, end int64) ([]*domain.IssuanceEvent, error) {
	query := `
		SELECT event_type, token_address, actor, amount, fee_paid, state_version, timestamp
		FROM issuance_events
		WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY state_version ASC
	`

	rows, err := s.conn.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("query events by time range: %w", err)
	}
	defer rows.Close()

	return scanIssuanceEvents(rows)
}

// TotalFeeRevenue returns the sum of fees across all events.
func (s *IssuanceEventStore) TotalFeeRevenue(ctx context.Context) (uint64, error) {
	query := `SELECT sum(fee_paid) FROM issuance_events`

	var total uint64
	start := time.Now()
	err := s.conn.QueryRow(ctx, query).Scan(&total)
	observability.RecordDBQuery("clickhouse", "total_fee_revenue", time.Since(start).Seconds(), err)
	if err != nil {
		return 0, fmt.Errorf("query total fee revenue: %w", err)
	}
	return total, nil
}

// Rows interface for scanning
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

// scanIssuanceEvents scans multiple rows into a slice.
func scanIssuanceEvents(rows chRows) ([]*domain.IssuanceEvent, error) {
	var events []*domain.IssuanceEvent

	for rows.Next() {
		var e domain.IssuanceEvent
		var eventType string

		err := rows.Scan(
			&eventType, &e.TokenAddress, &e.Actor,
			&e.Amount, &e.FeePaid, &e.StateVersion, &e.Timestamp,
		)
		if err != nil {
			return nil, fmt.Errorf("scan issuance event row: %w", err)
		}

		e.EventType = domain.EventType(eventType)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuance event rows: %w", err)
	}

	return events, nil
}
