package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"token-factory/internal/domain"
	"token-factory/internal/observability"
	"token-factory/internal/storage"
)

// RegistryStore implements storage.RegistryStore using PostgreSQL.
// Supply and fee amounts are stored as NUMERIC(20,0) and moved through the
// driver as decimal strings so the full uint64 range round-trips.
type RegistryStore struct {
	pool *Pool
}

// NewRegistryStore creates a new RegistryStore.
func NewRegistryStore(pool *Pool) *RegistryStore {
	return &RegistryStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RegistryStore = (*RegistryStore)(nil)

// Insert adds a new creation record. Returns ErrDuplicateKey if the token
// address exists.
func (s *RegistryStore) Insert(ctx context.Context, r *domain.CreationRecord) error {
	if r == nil || r.TokenAddress == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO creation_records (
			token_address, creator, name, symbol, decimals,
			initial_supply, mint_authority, fee_paid, metadata_uri, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	var metadataURI *string
	if uri, present := r.Metadata.URI(); present {
		metadataURI = &uri
	}

	start := time.Now()
	_, err := s.pool.Exec(ctx, query,
		r.TokenAddress,
		r.Creator,
		r.Name,
		r.Symbol,
		int16(r.Decimals),
		formatUint(r.InitialSupply),
		r.MintAuthority,
		formatUint(r.FeePaid),
		metadataURI,
		r.CreatedAt,
	)
	observability.RecordDBQuery("postgres", "insert_creation_record", time.Since(start).Seconds(), err)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert creation record: %w", err)
	}
	return nil
}

// SetMetadata records the one-time metadata transition. The guard is in the
// statement itself: only a NULL metadata_uri row is updated, so concurrent
// writers cannot both succeed.
func (s *RegistryStore) SetMetadata(ctx context.Context, tokenAddress, uri string) error {
	query := `
		UPDATE creation_records
		SET metadata_uri = $2
		WHERE token_address = $1 AND metadata_uri IS NULL
	`

	start := time.Now()
	tag, err := s.pool.Exec(ctx, query, tokenAddress, uri)
	observability.RecordDBQuery("postgres", "set_metadata", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("set metadata: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// Nothing updated: distinguish unknown token from already-written field.
	if _, err := s.GetByAddress(ctx, tokenAddress); err != nil {
		return err
	}
	return storage.ErrMetadataRecorded
}

// GetByAddress retrieves a record by token address. Returns ErrNotFound if
// not exists.
func (s *RegistryStore) GetByAddress(ctx context.Context, tokenAddress string) (*domain.CreationRecord, error) {
	query := `
		SELECT token_address, creator, name, symbol, decimals,
		       initial_supply::text, mint_authority, fee_paid::text, metadata_uri, created_at
		FROM creation_records
		WHERE token_address = $1
	`

	row := s.pool.QueryRow(ctx, query, tokenAddress)
	r, err := scanCreationRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get creation record by address: %w", err)
	}
	return r, nil
}

// GetByCreator retrieves all records for a creator, ordered by created_at ASC.
func (s *RegistryStore) GetByCreator(ctx context.Context, creator string) ([]*domain.CreationRecord, error) {
	query := `
		SELECT token_address, creator, name, symbol, decimals,
		       initial_supply::text, mint_authority, fee_paid::text, metadata_uri, created_at
		FROM creation_records
		WHERE creator = $1
		ORDER BY created_at ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("get creation records by creator: %w", err)
	}
	defer rows.Close()

	return collectCreationRecords(rows)
}

// List retrieves all records ordered by created_at ASC.
func (s *RegistryStore) List(ctx context.Context) ([]*domain.CreationRecord, error) {
	query := `
		SELECT token_address, creator, name, symbol, decimals,
		       initial_supply::text, mint_authority, fee_paid::text, metadata_uri, created_at
		FROM creation_records
		ORDER BY created_at ASC, token_address ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list creation records: %w", err)
	}
	defer rows.Close()

	return collectCreationRecords(rows)
}

// scanCreationRecord scans a single row into a CreationRecord.
func scanCreationRecord(row pgx.Row) (*domain.CreationRecord, error) {
	var (
		r             domain.CreationRecord
		decimals      int16
		initialSupply string
		feePaid       string
		metadataURI   *string
	)

	err := row.Scan(
		&r.TokenAddress,
		&r.Creator,
		&r.Name,
		&r.Symbol,
		&decimals,
		&initialSupply,
		&r.MintAuthority,
		&feePaid,
		&metadataURI,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Decimals = uint8(decimals)
	if r.InitialSupply, err = parseUint(initialSupply); err != nil {
		return nil, fmt.Errorf("parse initial_supply: %w", err)
	}
	if r.FeePaid, err = parseUint(feePaid); err != nil {
		return nil, fmt.Errorf("parse fee_paid: %w", err)
	}
	if metadataURI != nil {
		r.Metadata = domain.MetadataPresent(*metadataURI)
	} else {
		r.Metadata = domain.MetadataAbsent()
	}

	return &r, nil
}

// collectCreationRecords scans all rows.
func collectCreationRecords(rows pgx.Rows) ([]*domain.CreationRecord, error) {
	var result []*domain.CreationRecord
	for rows.Next() {
		r, err := scanCreationRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan creation record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creation records: %w", err)
	}
	return result, nil
}

func formatUint(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
