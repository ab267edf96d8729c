// Package record writes the durable listing of a launched token.
package record

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/storage"
)

// Writer builds and inserts launch records.
type Writer struct {
	store  storage.RecordStore
	logger logrus.FieldLogger
	now    func() time.Time
}

// NewWriter creates a Writer on store.
func NewWriter(store storage.RecordStore, logger logrus.FieldLogger) *Writer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Writer{store: store, logger: logger, now: time.Now}
}

// Build assembles the record of a fully confirmed launch. Market fields start
// at zero and belong to market data collaborators from then on.
func (w *Writer) Build(
	req *domain.LaunchRequest,
	metadata *domain.MetadataReference,
	address, creator string,
	signatures []string,
) *domain.LaunchRecord {
	r := &domain.LaunchRecord{
		Address:     address,
		Name:        req.Name,
		Ticker:      req.Ticker,
		Description: req.Description,
		Links:       req.Links,
		ImageURI:    metadata.ImageURI,
		MetadataURI: metadata.MetadataURI,
		Creator:     creator,
		Category:    domain.CategoryMeme,
		Verified:    false,
		Status:      domain.RecordStatusActive,
		Signatures:  append([]string(nil), signatures...),
		CreatedAt:   w.now().UnixMilli(),
	}
	if req.InitialLiquidity != nil {
		liq := *req.InitialLiquidity
		r.InitialLiquidity = &liq
	}
	return r
}

// Persist builds the record and inserts it once. The record is returned
// together with any error so the caller can queue it for recovery.
func (w *Writer) Persist(
	ctx context.Context,
	req *domain.LaunchRequest,
	metadata *domain.MetadataReference,
	address, creator string,
	signatures []string,
) (*domain.LaunchRecord, error) {
	r := w.Build(req, metadata, address, creator, signatures)
	return r, w.Insert(ctx, r)
}

// Insert stores r. Every failure wraps launch.ErrPersistence.
func (w *Writer) Insert(ctx context.Context, r *domain.LaunchRecord) error {
	if err := w.store.Insert(ctx, r); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("%w: token %s already recorded: %w", launch.ErrPersistence, r.Address, err)
		}
		return fmt.Errorf("%w: insert record %s: %w", launch.ErrPersistence, r.Address, err)
	}

	w.logger.WithFields(logrus.Fields{
		"token_address": r.Address,
		"creator":       r.Creator,
		"signatures":    len(r.Signatures),
	}).Info("launch record stored")
	return nil
}
