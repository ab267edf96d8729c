// Package sequencer signs, submits and confirms a transaction batch strictly
// in order. Transaction i+1 is never signed before transaction i confirmed,
// and the first failure aborts the batch without rollback.
package sequencer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/solana"
)

// State is a sequencer state.
type State string

const (
	StateIdle       State = "idle"
	StateSigning    State = "signing"
	StateSubmitting State = "submitting"
	StateConfirming State = "confirming"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
)

// Terminal reports whether no further transition follows s.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// Event is emitted on every state transition.
type Event struct {
	State     State
	Index     int // current transaction, N when completed
	Total     int
	Confirmed int    // transactions confirmed so far
	Signature string // set from Confirming on
	Err       error  // set in Failed
}

// String renders the event as a progress line.
func (e Event) String() string {
	switch e.State {
	case StateSigning, StateSubmitting, StateConfirming:
		return fmt.Sprintf("transaction %d/%d: %s", e.Index+1, e.Total, e.State)
	case StateCompleted:
		return fmt.Sprintf("%d of %d confirmed", e.Confirmed, e.Total)
	case StateFailed:
		return fmt.Sprintf("transaction %d/%d failed (%d of %d confirmed): %v",
			e.Index+1, e.Total, e.Confirmed, e.Total, e.Err)
	default:
		return string(e.State)
	}
}

// Observer receives every event. It is called synchronously.
type Observer func(Event)

// Signer signs a transaction with the payer wallet and broadcasts it.
// A refusal by the wallet or its user must wrap launch.ErrSigningRejected;
// any other error is reported as launch.ErrSubmission.
type Signer interface {
	SignAndSubmit(ctx context.Context, raw []byte) (domain.SubmittedSignature, error)
}

// Confirmer waits until a signature reaches the wanted commitment.
type Confirmer interface {
	Confirm(ctx context.Context, signature string, commitment domain.Commitment) error
}

// CoSigner adds the token identity signature where the transaction needs it.
type CoSigner interface {
	CoSign(raw []byte) (signed []byte, applied bool, err error)
}

// Options configures a Sequencer.
type Options struct {
	Signer     Signer
	Confirmer  Confirmer
	Commitment domain.Commitment // defaults to confirmed
	Observer   Observer
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Result is the outcome of one run.
type Result struct {
	Results     []domain.SubmissionResult // one per transaction, in order
	Signatures  []string                  // confirmed signatures, in order
	FailedIndex int                       // -1 when completed
}

// Confirmed returns the number of confirmed transactions.
func (r *Result) Confirmed() int {
	return len(r.Signatures)
}

// Sequencer runs transaction batches.
type Sequencer struct {
	signer     Signer
	confirmer  Confirmer
	commitment domain.Commitment
	observer   Observer
	logger     logrus.FieldLogger
	now        func() time.Time
}

// New creates a Sequencer.
func New(opts Options) *Sequencer {
	commitment := opts.Commitment
	if !commitment.IsValid() {
		commitment = domain.CommitmentConfirmed
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Sequencer{
		signer:     opts.Signer,
		confirmer:  opts.Confirmer,
		commitment: commitment,
		observer:   opts.Observer,
		logger:     logger,
		now:        now,
	}
}

// Run processes batch in order. The returned Result always describes the
// confirmed prefix; on failure the error wraps the failing sentinel.
// Run ignores cancellation of ctx: once the first transaction may be on its
// way to the ledger, stopping midway would only add unknown state.
// observe, if not nil, receives every event after the configured Observer.
func (s *Sequencer) Run(ctx context.Context, batch *domain.TransactionBatch, cosigner CoSigner, observe Observer) (*Result, error) {
	ctx = context.WithoutCancel(ctx)
	total := batch.Len()
	emit := func(e Event) {
		if s.observer != nil {
			s.observer(e)
		}
		if observe != nil {
			observe(e)
		}
	}

	result := &Result{
		Results:     make([]domain.SubmissionResult, total),
		FailedIndex: -1,
	}
	for i := range result.Results {
		result.Results[i] = domain.SubmissionResult{Index: i, Status: domain.SubmissionPending}
	}

	emit(Event{State: StateIdle, Total: total})
	if total == 0 {
		err := fmt.Errorf("%w: empty transaction batch", launch.ErrSubmission)
		emit(Event{State: StateFailed, Total: total, Err: err})
		return result, err
	}

	for i, raw := range batch.Transactions {
		sig, err := s.step(ctx, i, total, raw, cosigner, result, emit)
		if err != nil {
			result.FailedIndex = i
			result.Results[i].Status = domain.SubmissionFailed
			result.Results[i].Signature = sig
			observability.RecordTransactionFailure(failureReason(err))
			s.logger.WithFields(logrus.Fields{
				"index":     i,
				"total":     total,
				"confirmed": result.Confirmed(),
				"signature": sig,
			}).WithError(err).Warn("launch transaction failed")
			emit(Event{State: StateFailed, Index: i, Total: total, Confirmed: result.Confirmed(), Signature: sig, Err: err})
			return result, err
		}

		result.Results[i].Status = domain.SubmissionConfirmed
		result.Results[i].Signature = sig
		result.Results[i].ConfirmedAt = s.now().UnixMilli()
		result.Signatures = append(result.Signatures, sig)
	}

	emit(Event{State: StateCompleted, Index: total, Total: total, Confirmed: total})
	return result, nil
}

// step drives transaction i through Signing, Submitting and Confirming.
// It returns the signature once known, also on a confirmation failure.
func (s *Sequencer) step(ctx context.Context, i, total int, raw []byte, cosigner CoSigner, result *Result, emit Observer) (string, error) {
	log := s.logger.WithFields(logrus.Fields{"index": i, "total": total})
	confirmed := result.Confirmed()

	emit(Event{State: StateSigning, Index: i, Total: total, Confirmed: confirmed})
	if cosigner != nil {
		signed, applied, err := cosigner.CoSign(raw)
		if err != nil {
			return "", fmt.Errorf("%w: co-sign transaction %d: %w", launch.ErrSigningRejected, i, err)
		}
		if applied {
			log.Debug("mint signature applied")
		}
		raw = signed
	}

	emit(Event{State: StateSubmitting, Index: i, Total: total, Confirmed: confirmed})
	submitted, err := s.signer.SignAndSubmit(ctx, raw)
	if err != nil {
		if errors.Is(err, launch.ErrSigningRejected) || errors.Is(err, launch.ErrSubmission) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", launch.ErrSubmission, err)
	}
	observability.RecordSubmitted()

	sig, err := solana.NormalizeSignature(submitted.Text, submitted.Bytes)
	if err != nil {
		return "", fmt.Errorf("%w: wallet signature: %w", launch.ErrSubmission, err)
	}

	emit(Event{State: StateConfirming, Index: i, Total: total, Confirmed: confirmed, Signature: sig})
	start := s.now()
	if err := s.confirmer.Confirm(ctx, sig, s.commitment); err != nil {
		if !errors.Is(err, launch.ErrConfirmationFailed) && !errors.Is(err, launch.ErrConfirmationTimeout) {
			err = fmt.Errorf("%w: %w", launch.ErrConfirmationTimeout, err)
		}
		return sig, err
	}
	observability.RecordConfirmed(s.now().Sub(start).Seconds())

	log.WithField("signature", sig).Info("launch transaction confirmed")
	return sig, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, launch.ErrSigningRejected):
		return "signing_rejected"
	case errors.Is(err, launch.ErrSubmission):
		return "submission"
	case errors.Is(err, launch.ErrConfirmationFailed):
		return "confirmation_failed"
	case errors.Is(err, launch.ErrConfirmationTimeout):
		return "confirmation_timeout"
	default:
		return "unknown"
	}
}
