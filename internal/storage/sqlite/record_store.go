package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

// launchRecordRow is the gorm model of launch_records.
type launchRecordRow struct {
	Address          string `gorm:"primaryKey"`
	Name             string `gorm:"not null"`
	Ticker           string `gorm:"not null"`
	Description      string
	LinkX            string
	LinkWebsite      string
	LinkTelegram     string
	ImageURI         string `gorm:"not null"`
	MetadataURI      string `gorm:"not null"`
	Creator          string `gorm:"not null;index"`
	InitialLiquidity *string
	Category         string `gorm:"not null"`
	Verified         bool
	Status           string `gorm:"not null;index"`
	Signatures       string `gorm:"not null"` // JSON array
	MarketCap        float64
	Holders          int64
	Volume24h        float64
	PriceChange24h   float64
	CreatedAt        int64 `gorm:"autoCreateTime:false;index"`
}

// TableName implements gorm's Tabler.
func (launchRecordRow) TableName() string {
	return "launch_records"
}

func toRow(r *domain.LaunchRecord) (*launchRecordRow, error) {
	sigs := r.Signatures
	if sigs == nil {
		sigs = []string{}
	}
	encoded, err := json.Marshal(sigs)
	if err != nil {
		return nil, fmt.Errorf("encode signatures: %w", err)
	}

	row := &launchRecordRow{
		Address:        r.Address,
		Name:           r.Name,
		Ticker:         r.Ticker,
		Description:    r.Description,
		LinkX:          r.Links.X,
		LinkWebsite:    r.Links.Website,
		LinkTelegram:   r.Links.Telegram,
		ImageURI:       r.ImageURI,
		MetadataURI:    r.MetadataURI,
		Creator:        r.Creator,
		Category:       r.Category,
		Verified:       r.Verified,
		Status:         string(r.Status),
		Signatures:     string(encoded),
		MarketCap:      r.MarketCap,
		Holders:        r.Holders,
		Volume24h:      r.Volume24h,
		PriceChange24h: r.PriceChange24h,
		CreatedAt:      r.CreatedAt,
	}
	if r.InitialLiquidity != nil {
		s := r.InitialLiquidity.String()
		row.InitialLiquidity = &s
	}
	return row, nil
}

func (row *launchRecordRow) toDomain() (*domain.LaunchRecord, error) {
	r := &domain.LaunchRecord{
		Address:     row.Address,
		Name:        row.Name,
		Ticker:      row.Ticker,
		Description: row.Description,
		Links: domain.Links{
			X:        row.LinkX,
			Website:  row.LinkWebsite,
			Telegram: row.LinkTelegram,
		},
		ImageURI:       row.ImageURI,
		MetadataURI:    row.MetadataURI,
		Creator:        row.Creator,
		Category:       row.Category,
		Verified:       row.Verified,
		Status:         domain.RecordStatus(row.Status),
		MarketCap:      row.MarketCap,
		Holders:        row.Holders,
		Volume24h:      row.Volume24h,
		PriceChange24h: row.PriceChange24h,
		CreatedAt:      row.CreatedAt,
	}
	if err := json.Unmarshal([]byte(row.Signatures), &r.Signatures); err != nil {
		return nil, fmt.Errorf("decode signatures of %s: %w", row.Address, err)
	}
	if row.InitialLiquidity != nil {
		d, err := decimal.NewFromString(*row.InitialLiquidity)
		if err != nil {
			return nil, fmt.Errorf("decode initial liquidity of %s: %w", row.Address, err)
		}
		r.InitialLiquidity = &d
	}
	return r, nil
}

// RecordStore implements storage.RecordStore using SQLite through gorm.
type RecordStore struct {
	db *gorm.DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *gorm.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Compile-time interface check.
var _ storage.RecordStore = (*RecordStore)(nil)

// Insert adds a new record. Returns ErrDuplicateKey if address exists.
func (s *RecordStore) Insert(ctx context.Context, r *domain.LaunchRecord) (err error) {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		if errors.Is(err, storage.ErrDuplicateKey) {
			observability.RecordDBQuery("sqlite", "insert_record", time.Since(start).Seconds(), nil)
			return
		}
		observability.RecordDBQuery("sqlite", "insert_record", time.Since(start).Seconds(), err)
	}()

	row, err := toRow(r)
	if err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row)
	if result.Error != nil {
		return fmt.Errorf("insert launch record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return storage.ErrDuplicateKey
	}
	return nil
}

// GetByAddress retrieves a record by address. Returns ErrNotFound if not exists.
func (s *RecordStore) GetByAddress(ctx context.Context, address string) (*domain.LaunchRecord, error) {
	var row launchRecordRow
	result := s.db.WithContext(ctx).Where("address = ?", address).First(&row)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get launch record: %w", result.Error)
	}
	return row.toDomain()
}

// GetByCreator retrieves all records of a creator, newest first.
func (s *RecordStore) GetByCreator(ctx context.Context, creator string) ([]*domain.LaunchRecord, error) {
	var rows []launchRecordRow
	result := s.db.WithContext(ctx).
		Where("creator = ?", creator).
		Order("created_at DESC").Order("address ASC").
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("get records by creator: %w", result.Error)
	}
	return toDomainSlice(rows)
}

// ListActive retrieves up to limit active records in the given order.
func (s *RecordStore) ListActive(ctx context.Context, order domain.ListingSort, limit int) ([]*domain.LaunchRecord, error) {
	var orderBy string
	switch order {
	case domain.SortByMarketCap:
		orderBy = "market_cap DESC"
	case domain.SortByNewest:
		orderBy = "created_at DESC"
	default:
		return nil, storage.ErrInvalidInput
	}

	var rows []launchRecordRow
	result := s.db.WithContext(ctx).
		Where("status = ?", string(domain.RecordStatusActive)).
		Order(orderBy).Order("address ASC").
		Limit(storage.NormalizeLimit(limit)).
		Find(&rows)
	if result.Error != nil {
		return nil, fmt.Errorf("list active records: %w", result.Error)
	}
	return toDomainSlice(rows)
}

func toDomainSlice(rows []launchRecordRow) ([]*domain.LaunchRecord, error) {
	records := make([]*domain.LaunchRecord, 0, len(rows))
	for i := range rows {
		r, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}
