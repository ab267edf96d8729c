package record

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/storage"
	"token-launchpad/internal/storage/memory"
)

type brokenStore struct {
	storage.RecordStore
	err error
}

func (b *brokenStore) Insert(context.Context, *domain.LaunchRecord) error { return b.err }

func newTestWriter(store storage.RecordStore) *Writer {
	logger, _ := test.NewNullLogger()
	w := NewWriter(store, logger)
	w.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return w
}

func request() *domain.LaunchRequest {
	liq := decimal.RequireFromString("0.25")
	return &domain.LaunchRequest{
		Name:             "Agent",
		Ticker:           "AGNT",
		Description:      "desc",
		Links:            domain.Links{Telegram: "https://t.me/agent"},
		InitialLiquidity: &liq,
	}
}

var ref = &domain.MetadataReference{ImageURI: "https://a/img.png", MetadataURI: "https://a/meta.json"}

func TestPersist(t *testing.T) {
	store := memory.NewRecordStore()
	w := newTestWriter(store)

	sigs := []string{"s1", "s2", "s3"}
	r, err := w.Persist(context.Background(), request(), ref, "Mint", "Creator", sigs)
	require.NoError(t, err)

	assert.Equal(t, domain.RecordStatusActive, r.Status)
	assert.Equal(t, domain.CategoryMeme, r.Category)
	assert.False(t, r.Verified)
	assert.Zero(t, r.MarketCap)
	assert.Zero(t, r.Holders)
	assert.Zero(t, r.Volume24h)
	assert.Zero(t, r.PriceChange24h)
	assert.Equal(t, int64(1700000000000), r.CreatedAt)
	assert.Equal(t, sigs, r.Signatures)
	assert.Equal(t, "https://a/meta.json", r.MetadataURI)
	assert.True(t, decimal.RequireFromString("0.25").Equal(*r.InitialLiquidity))

	stored, err := store.GetByAddress(context.Background(), "Mint")
	require.NoError(t, err)
	assert.Equal(t, r, stored)

	sigs[0] = "mutated"
	assert.Equal(t, "s1", r.Signatures[0])
}

func TestPersist_StoreFailure(t *testing.T) {
	w := newTestWriter(&brokenStore{err: errors.New("connection refused")})

	r, err := w.Persist(context.Background(), request(), ref, "Mint", "Creator", []string{"s1"})
	assert.ErrorIs(t, err, launch.ErrPersistence)
	require.NotNil(t, r, "record is returned for recovery")
	assert.Equal(t, "Mint", r.Address)
}

func TestPersist_Duplicate(t *testing.T) {
	store := memory.NewRecordStore()
	w := newTestWriter(store)

	_, err := w.Persist(context.Background(), request(), ref, "Mint", "Creator", nil)
	require.NoError(t, err)

	_, err = w.Persist(context.Background(), request(), ref, "Mint", "Creator", nil)
	assert.ErrorIs(t, err, launch.ErrPersistence)
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}
