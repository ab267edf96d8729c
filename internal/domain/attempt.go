package domain

// AttemptOutcome is the terminal result of one launch attempt.
type AttemptOutcome string

const (
	AttemptSucceeded AttemptOutcome = "succeeded"
	AttemptFailed    AttemptOutcome = "failed"
	AttemptOrphaned  AttemptOutcome = "orphaned" // on-chain complete, record not persisted
)

// LaunchAttempt is the append-only audit row of a launch attempt.
// Corresponds to launch_attempts table in ClickHouse.
type LaunchAttempt struct {
	AttemptID    string         // uuid
	Creator      string         // wallet address
	TokenAddress string         // empty if the pool stage never returned
	Name         string         // token name
	Ticker       string         // token symbol
	Outcome      AttemptOutcome // succeeded | failed | orphaned
	Stage        string         // failing stage, empty on success
	FailedIndex  int            // failing transaction index, -1 if n/a
	Confirmed    int            // transactions confirmed
	Total        int            // transactions in batch
	Reason       string         // error text, empty on success
	StartedAt    int64          // Unix ms
	FinishedAt   int64          // Unix ms
}
