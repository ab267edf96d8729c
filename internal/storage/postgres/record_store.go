package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

// RecordStore implements storage.RecordStore using PostgreSQL.
type RecordStore struct {
	pool *Pool
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(pool *Pool) *RecordStore {
	return &RecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

const recordColumns = `
	address, name, ticker, description, link_x, link_website, link_telegram,
	image_uri, metadata_uri, creator, initial_liquidity::text, category, verified,
	status, signatures, market_cap, holders, volume_24h, price_change_24h, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if address exists.
func (s *RecordStore) Insert(ctx context.Context, r *domain.LaunchRecord) (err error) {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_record", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO launch_records (
			address, name, ticker, description, link_x, link_website, link_telegram,
			image_uri, metadata_uri, creator, initial_liquidity, category, verified,
			status, signatures, market_cap, holders, volume_24h, price_change_24h, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::numeric, $12, $13, $14, $15, $16, $17, $18, $19, $20)
	`

	var liquidity *string
	if r.InitialLiquidity != nil {
		v := r.InitialLiquidity.String()
		liquidity = &v
	}
	signatures := r.Signatures
	if signatures == nil {
		signatures = []string{}
	}

	_, err = s.pool.Exec(ctx, query,
		r.Address,
		r.Name,
		r.Ticker,
		r.Description,
		r.Links.X,
		r.Links.Website,
		r.Links.Telegram,
		r.ImageURI,
		r.MetadataURI,
		r.Creator,
		liquidity,
		r.Category,
		r.Verified,
		string(r.Status),
		signatures,
		r.MarketCap,
		r.Holders,
		r.Volume24h,
		r.PriceChange24h,
		r.CreatedAt,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert launch record: %w", err)
	}
	return nil
}

// GetByAddress retrieves a record by address. Returns ErrNotFound if not exists.
func (s *RecordStore) GetByAddress(ctx context.Context, address string) (*domain.LaunchRecord, error) {
	query := `SELECT ` + recordColumns + ` FROM launch_records WHERE address = $1`

	row := s.pool.QueryRow(ctx, query, address)
	r, err := scanRecord(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get launch record by address: %w", err)
	}
	return r, nil
}

// GetByCreator retrieves all records of a creator, newest first.
func (s *RecordStore) GetByCreator(ctx context.Context, creator string) ([]*domain.LaunchRecord, error) {
	query := `SELECT ` + recordColumns + `
		FROM launch_records
		WHERE creator = $1
		ORDER BY created_at DESC, address ASC
	`

	rows, err := s.pool.Query(ctx, query, creator)
	if err != nil {
		return nil, fmt.Errorf("get launch records by creator: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// ListActive retrieves up to limit active records in the given order.
func (s *RecordStore) ListActive(ctx context.Context, order domain.ListingSort, limit int) ([]*domain.LaunchRecord, error) {
	var orderBy string
	switch order {
	case domain.SortByMarketCap:
		orderBy = "market_cap DESC, address ASC"
	case domain.SortByNewest:
		orderBy = "created_at DESC, address ASC"
	default:
		return nil, storage.ErrInvalidInput
	}

	query := `SELECT ` + recordColumns + `
		FROM launch_records
		WHERE status = $1
		ORDER BY ` + orderBy + `
		LIMIT $2
	`

	rows, err := s.pool.Query(ctx, query, string(domain.RecordStatusActive), storage.NormalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list active launch records: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

// scanRecord scans a single row into a LaunchRecord.
func scanRecord(row pgx.Row) (*domain.LaunchRecord, error) {
	var r domain.LaunchRecord
	var status string
	var liquidity *string

	err := row.Scan(
		&r.Address,
		&r.Name,
		&r.Ticker,
		&r.Description,
		&r.Links.X,
		&r.Links.Website,
		&r.Links.Telegram,
		&r.ImageURI,
		&r.MetadataURI,
		&r.Creator,
		&liquidity,
		&r.Category,
		&r.Verified,
		&status,
		&r.Signatures,
		&r.MarketCap,
		&r.Holders,
		&r.Volume24h,
		&r.PriceChange24h,
		&r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.Status = domain.RecordStatus(status)
	if liquidity != nil {
		d, err := decimal.NewFromString(*liquidity)
		if err != nil {
			return nil, fmt.Errorf("parse initial_liquidity %q: %w", *liquidity, err)
		}
		r.InitialLiquidity = &d
	}
	return &r, nil
}

// scanRecords scans multiple rows into LaunchRecords.
func scanRecords(rows pgx.Rows) ([]*domain.LaunchRecord, error) {
	var result []*domain.LaunchRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan launch record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch records: %w", err)
	}
	return result, nil
}
