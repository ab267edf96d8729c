package memory

import (
	"context"
	"sort"
	"sync"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/storage"
)

// RecordStore is an in-memory implementation of storage.RecordStore.
type RecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.LaunchRecord // keyed by address
}

// NewRecordStore creates a new in-memory record store.
func NewRecordStore() *RecordStore {
	return &RecordStore{
		data: make(map[string]*domain.LaunchRecord),
	}
}

// Insert adds a new record. Returns ErrDuplicateKey if address exists.
func (s *RecordStore) Insert(_ context.Context, r *domain.LaunchRecord) error {
	if r == nil || r.Address == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.Address]; exists {
		return storage.ErrDuplicateKey
	}

	// Store a copy to prevent external mutation
	s.data[r.Address] = r.Clone()
	return nil
}

// GetByAddress retrieves a record by address. Returns ErrNotFound if not exists.
func (s *RecordStore) GetByAddress(_ context.Context, address string) (*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[address]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return r.Clone(), nil
}

// GetByCreator retrieves all records of a creator, newest first.
func (s *RecordStore) GetByCreator(_ context.Context, creator string) ([]*domain.LaunchRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchRecord
	for _, r := range s.data {
		if r.Creator == creator {
			result = append(result, r.Clone())
		}
	}

	storage.SortRecords(result, domain.SortByNewest)
	return result, nil
}

// ListActive retrieves up to limit active records in the given order.
func (s *RecordStore) ListActive(_ context.Context, order domain.ListingSort, limit int) ([]*domain.LaunchRecord, error) {
	if !order.IsValid() {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchRecord
	for _, r := range s.data {
		if r.Status == domain.RecordStatusActive {
			result = append(result, r.Clone())
		}
	}

	storage.SortRecords(result, order)
	if n := storage.NormalizeLimit(limit); len(result) > n {
		result = result[:n]
	}
	return result, nil
}

// Count returns the number of stored records.
func (s *RecordStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

// Verify interface compliance at compile time.
var _ storage.RecordStore = (*RecordStore)(nil)

// AttemptStore is an in-memory implementation of storage.AttemptStore.
type AttemptStore struct {
	mu   sync.RWMutex
	data []*domain.LaunchAttempt
}

// NewAttemptStore creates a new in-memory attempt store.
func NewAttemptStore() *AttemptStore {
	return &AttemptStore{}
}

// Insert appends an attempt row.
func (s *AttemptStore) Insert(_ context.Context, a *domain.LaunchAttempt) error {
	if a == nil || a.AttemptID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	attemptCopy := *a
	s.data = append(s.data, &attemptCopy)
	return nil
}

// GetByCreator retrieves all attempts of a creator, ordered by started_at ASC.
func (s *AttemptStore) GetByCreator(_ context.Context, creator string) ([]*domain.LaunchAttempt, error) {
	return s.filter(func(a *domain.LaunchAttempt) bool { return a.Creator == creator }), nil
}

// GetByOutcome retrieves attempts with the given outcome, ordered by started_at ASC.
func (s *AttemptStore) GetByOutcome(_ context.Context, outcome domain.AttemptOutcome) ([]*domain.LaunchAttempt, error) {
	return s.filter(func(a *domain.LaunchAttempt) bool { return a.Outcome == outcome }), nil
}

func (s *AttemptStore) filter(keep func(*domain.LaunchAttempt) bool) []*domain.LaunchAttempt {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.LaunchAttempt
	for _, a := range s.data {
		if keep(a) {
			attemptCopy := *a
			result = append(result, &attemptCopy)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].StartedAt < result[j].StartedAt
	})
	return result
}

// Verify interface compliance at compile time.
var _ storage.AttemptStore = (*AttemptStore)(nil)
