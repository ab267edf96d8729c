package clickhouse

import (
	"context"
	"fmt"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/storage"
)

// AttemptStore implements storage.AttemptStore using ClickHouse.
type AttemptStore struct {
	conn *Conn
}

// NewAttemptStore creates a new AttemptStore.
func NewAttemptStore(conn *Conn) *AttemptStore {
	return &AttemptStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AttemptStore = (*AttemptStore)(nil)

// Insert appends an attempt row. MergeTree has no uniqueness, rows are audit only.
func (s *AttemptStore) Insert(ctx context.Context, a *domain.LaunchAttempt) (err error) {
	if a == nil || a.AttemptID == "" {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_attempt", time.Since(start).Seconds(), err)
	}()

	query := `
		INSERT INTO launch_attempts (
			attempt_id, creator, token_address, name, ticker,
			outcome, stage, failed_index, confirmed, total, reason,
			started_at, finished_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err = s.conn.Exec(ctx, query,
		a.AttemptID, a.Creator, a.TokenAddress, a.Name, a.Ticker,
		string(a.Outcome), a.Stage, int32(a.FailedIndex), uint32(a.Confirmed), uint32(a.Total), a.Reason,
		uint64(a.StartedAt), uint64(a.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert launch attempt: %w", err)
	}
	return nil
}

// GetByCreator retrieves all attempts of a creator, ordered by started_at ASC.
func (s *AttemptStore) GetByCreator(ctx context.Context, creator string) ([]*domain.LaunchAttempt, error) {
	return s.query(ctx, "creator = ?", creator)
}

// GetByOutcome retrieves attempts with the given outcome, ordered by started_at ASC.
func (s *AttemptStore) GetByOutcome(ctx context.Context, outcome domain.AttemptOutcome) ([]*domain.LaunchAttempt, error) {
	return s.query(ctx, "outcome = ?", string(outcome))
}

func (s *AttemptStore) query(ctx context.Context, where string, arg interface{}) ([]*domain.LaunchAttempt, error) {
	query := `
		SELECT attempt_id, creator, token_address, name, ticker,
			outcome, stage, failed_index, confirmed, total, reason,
			started_at, finished_at
		FROM launch_attempts
		WHERE ` + where + `
		ORDER BY started_at ASC, attempt_id ASC
	`

	rows, err := s.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("query launch attempts: %w", err)
	}
	defer rows.Close()

	var result []*domain.LaunchAttempt
	for rows.Next() {
		var (
			a                     domain.LaunchAttempt
			outcome               string
			failedIndex           int32
			confirmed, total      uint32
			startedAt, finishedAt uint64
		)
		if err := rows.Scan(
			&a.AttemptID, &a.Creator, &a.TokenAddress, &a.Name, &a.Ticker,
			&outcome, &a.Stage, &failedIndex, &confirmed, &total, &a.Reason,
			&startedAt, &finishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan launch attempt: %w", err)
		}
		a.Outcome = domain.AttemptOutcome(outcome)
		a.FailedIndex = int(failedIndex)
		a.Confirmed = int(confirmed)
		a.Total = int(total)
		a.StartedAt = int64(startedAt)
		a.FinishedAt = int64(finishedAt)
		result = append(result, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate launch attempts: %w", err)
	}
	return result, nil
}
