// Package launch defines the error taxonomy and the input validation shared by
// every stage of the token launch pipeline.
package launch

import (
	"errors"
	"fmt"

	"token-launchpad/internal/domain"
)

// Pipeline errors. Every stage wraps exactly one of these.
var (
	// ErrValidation is returned when request fields violate length or range limits.
	// Always raised before any side effect.
	ErrValidation = errors.New("validation error")

	// ErrAssetUpload is returned when the image or metadata document cannot be uploaded.
	ErrAssetUpload = errors.New("asset upload error")

	// ErrPoolCreation is returned when the pool service fails or returns an unusable batch.
	ErrPoolCreation = errors.New("pool creation error")

	// ErrSigningRejected is returned when the wallet refuses to sign a transaction.
	ErrSigningRejected = errors.New("signing rejected")

	// ErrSubmission is returned when a signed transaction cannot be submitted.
	ErrSubmission = errors.New("submission error")

	// ErrConfirmationTimeout is returned when a transaction is not confirmed within the bounded wait.
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrConfirmationFailed is returned when the ledger reports the transaction as failed.
	ErrConfirmationFailed = errors.New("confirmation failed")

	// ErrPersistence is returned when the launch record cannot be durably written.
	ErrPersistence = errors.New("persistence error")

	// ErrCancelled is returned when the caller cancels before transactions are sent.
	ErrCancelled = errors.New("launch cancelled")
)

// Stage names a pipeline stage.
type Stage string

const (
	StageValidation  Stage = "validation"
	StageMetadata    Stage = "metadata"
	StagePool        Stage = "pool"
	StageSequencer   Stage = "sequencer"
	StagePersistence Stage = "persistence"
)

// Failure is the terminal error of a launch attempt.
type Failure struct {
	Stage        Stage
	Index        int   // failing transaction index, -1 outside the sequencer
	Reason       error // wraps one of the Err* sentinels
	Confirmed    int   // transactions confirmed before the failure
	Total        int   // transactions in the batch, 0 before the pool stage
	Signatures   []string
	TokenAddress string // known once the pool stage returned

	// PendingRecord is the record that could not be persisted. Set only for
	// persistence failures; it is the input for manual re-insertion.
	PendingRecord *domain.LaunchRecord
}

// Error implements error.
func (f *Failure) Error() string {
	switch {
	case f.Stage == StageSequencer:
		return fmt.Sprintf("launch failed at %s (transaction %d, %d of %d confirmed): %v",
			f.Stage, f.Index, f.Confirmed, f.Total, f.Reason)
	case f.Stage == StagePersistence:
		return fmt.Sprintf("launch failed at %s (token %s is live on-chain): %v",
			f.Stage, f.TokenAddress, f.Reason)
	default:
		return fmt.Sprintf("launch failed at %s: %v", f.Stage, f.Reason)
	}
}

// Unwrap returns the underlying reason.
func (f *Failure) Unwrap() error {
	return f.Reason
}

// OnChainStateMayExist reports whether some ledger state was created before the failure.
// No rollback is ever attempted, so the user must be told.
func (f *Failure) OnChainStateMayExist() bool {
	return f.Confirmed > 0
}

// Orphaned reports whether every transaction confirmed but the record was not written.
// The token is live but undiscoverable until re-inserted.
func (f *Failure) Orphaned() bool {
	return f.Stage == StagePersistence && f.Total > 0 && f.Confirmed == f.Total
}

// UserMessage returns the text shown to the user for this failure.
func (f *Failure) UserMessage() string {
	switch {
	case f.Orphaned():
		return fmt.Sprintf("Token %s was created on-chain but could not be saved. "+
			"It has been queued for manual recovery.", f.TokenAddress)
	case f.OnChainStateMayExist():
		return fmt.Sprintf("Launch failed at transaction %d of %d. "+
			"%d transaction(s) already confirmed on-chain and were not rolled back.",
			f.Index+1, f.Total, f.Confirmed)
	default:
		return fmt.Sprintf("Launch failed during %s: %v", f.Stage, f.Reason)
	}
}

// AsFailure extracts a *Failure from err.
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}
