package storage

import (
	"context"

	"token-launchpad/internal/domain"
)

// RecordStore provides access to launch_records storage.
type RecordStore interface {
	// Insert adds a new record. Returns ErrDuplicateKey if address exists.
	Insert(ctx context.Context, r *domain.LaunchRecord) error

	// GetByAddress retrieves a record by token address. Returns ErrNotFound if not exists.
	GetByAddress(ctx context.Context, address string) (*domain.LaunchRecord, error)

	// GetByCreator retrieves all records of a creator, newest first.
	GetByCreator(ctx context.Context, creator string) ([]*domain.LaunchRecord, error)

	// ListActive retrieves up to limit active records in the given order.
	// Ties are broken by address ASC.
	ListActive(ctx context.Context, sort domain.ListingSort, limit int) ([]*domain.LaunchRecord, error)
}

// AttemptStore provides access to launch_attempts storage.
type AttemptStore interface {
	// Insert appends an attempt row.
	Insert(ctx context.Context, a *domain.LaunchAttempt) error

	// GetByCreator retrieves all attempts of a creator, ordered by started_at ASC.
	GetByCreator(ctx context.Context, creator string) ([]*domain.LaunchAttempt, error)

	// GetByOutcome retrieves attempts with the given outcome, ordered by started_at ASC.
	GetByOutcome(ctx context.Context, outcome domain.AttemptOutcome) ([]*domain.LaunchAttempt, error)
}
