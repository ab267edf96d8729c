// Package orchestrator runs one token launch end to end.
// It coordinates: metadata → pool → sequencer → record
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/observability"
	"token-launchpad/internal/recovery"
	"token-launchpad/internal/sequencer"
	"token-launchpad/internal/solana"
	"token-launchpad/internal/storage"
)

// Preparer produces the token identity and uploads its metadata.
type Preparer interface {
	Prepare(ctx context.Context, req *domain.LaunchRequest) (*domain.TokenIdentity, *domain.MetadataReference, error)
}

// PoolBuilder obtains the ordered launch transactions.
type PoolBuilder interface {
	Build(ctx context.Context, identity *domain.TokenIdentity, metadata *domain.MetadataReference,
		req *domain.LaunchRequest, payer string) (*domain.TransactionBatch, error)
}

// Sequencer signs, submits and confirms a batch in order.
type Sequencer interface {
	Run(ctx context.Context, batch *domain.TransactionBatch, cosigner sequencer.CoSigner,
		observe sequencer.Observer) (*sequencer.Result, error)
}

// RecordWriter persists the launch record.
type RecordWriter interface {
	Persist(ctx context.Context, req *domain.LaunchRequest, metadata *domain.MetadataReference,
		address, creator string, signatures []string) (*domain.LaunchRecord, error)
}

// Journal queues records that could not be persisted.
type Journal interface {
	Put(e *recovery.Entry) error
}

// Progress is reported at every stage boundary and sequencer transition.
type Progress struct {
	AttemptID string
	Stage     launch.Stage
	Message   string
	Sequencer *sequencer.Event // set during the sequencer stage
}

// ProgressFunc receives progress updates. It is called synchronously.
type ProgressFunc func(Progress)

// Orchestrator coordinates the launch pipeline.
// Flow: validate → prepare metadata → build pool → sequence → persist
type Orchestrator struct {
	preparer  Preparer
	builder   PoolBuilder
	sequencer Sequencer
	writer    RecordWriter

	attempts storage.AttemptStore
	journal  Journal

	creator     string
	newCoSigner func(*domain.TokenIdentity) sequencer.CoSigner
	progress    ProgressFunc
	logger      logrus.FieldLogger
	now         func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stages
	Preparer  Preparer
	Builder   PoolBuilder
	Sequencer Sequencer
	Writer    RecordWriter

	// Creator is the payer wallet address recorded as the token creator.
	Creator string

	// Optional
	Attempts    storage.AttemptStore // audit row per attempt
	Journal     Journal              // recovery queue for unpersisted records
	NewCoSigner func(*domain.TokenIdentity) sequencer.CoSigner
	Progress    ProgressFunc
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	newCoSigner := opts.NewCoSigner
	if newCoSigner == nil {
		newCoSigner = func(id *domain.TokenIdentity) sequencer.CoSigner { return solana.NewMintCoSigner(id) }
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Orchestrator{
		preparer:    opts.Preparer,
		builder:     opts.Builder,
		sequencer:   opts.Sequencer,
		writer:      opts.Writer,
		attempts:    opts.Attempts,
		journal:     opts.Journal,
		creator:     opts.Creator,
		newCoSigner: newCoSigner,
		progress:    opts.Progress,
		logger:      logger,
		now:         now,
	}
}

// NewAttemptID returns a fresh attempt identifier.
func NewAttemptID() string {
	return uuid.NewString()
}

// Launch runs one attempt under a fresh attempt id.
func (o *Orchestrator) Launch(ctx context.Context, req *domain.LaunchRequest) (*domain.LaunchRecord, error) {
	return o.Run(ctx, NewAttemptID(), req, nil)
}

// attempt carries the state of one Run.
type attempt struct {
	id        string
	req       *domain.LaunchRequest
	started   time.Time
	progress  ProgressFunc
	log       logrus.FieldLogger
	row       domain.LaunchAttempt
	stageFrom time.Time
}

// Run executes the pipeline for req. A failure is always a *launch.Failure.
// Cancelling ctx is honoured only until the sequencer starts; from then on
// the attempt runs to its terminal state.
func (o *Orchestrator) Run(ctx context.Context, attemptID string, req *domain.LaunchRequest, progress ProgressFunc) (*domain.LaunchRecord, error) {
	a := &attempt{
		id:       attemptID,
		req:      req,
		started:  o.now(),
		progress: progress,
		log:      o.logger.WithField("attempt_id", attemptID),
	}
	a.row = domain.LaunchAttempt{
		AttemptID:   attemptID,
		Creator:     o.creator,
		FailedIndex: -1,
		StartedAt:   a.started.UnixMilli(),
	}
	if req != nil {
		a.row.Name, a.row.Ticker = req.Name, req.Ticker
	}
	observability.RecordLaunchStarted()

	record, failure := o.run(ctx, a)
	if failure != nil {
		o.finish(ctx, a, failure)
		return nil, failure
	}
	o.finish(ctx, a, nil)
	return record, nil
}

func (o *Orchestrator) run(ctx context.Context, a *attempt) (*domain.LaunchRecord, *launch.Failure) {
	// Validation
	o.enter(a, launch.StageValidation, "Validating launch request...")
	if err := launch.ValidateRequest(a.req); err != nil {
		return nil, stageFailure(launch.StageValidation, err)
	}

	// Metadata
	if f := cancelled(ctx, launch.StageMetadata); f != nil {
		return nil, f
	}
	o.enter(a, launch.StageMetadata, "Uploading image and metadata...")
	identity, metadata, err := o.preparer.Prepare(ctx, a.req)
	if err != nil {
		return nil, stageFailure(launch.StageMetadata, err)
	}
	// The mint key never outlives the attempt
	defer identity.Wipe()
	a.log = a.log.WithField("token_address", identity.Address)

	// Pool
	if f := cancelled(ctx, launch.StagePool); f != nil {
		return nil, f
	}
	o.enter(a, launch.StagePool, "Creating pool...")
	batch, err := o.builder.Build(ctx, identity, metadata, a.req, o.creator)
	if err != nil {
		return nil, stageFailure(launch.StagePool, err)
	}
	a.row.TokenAddress = batch.TokenAddress

	// Sequencer: last point where cancellation is honoured
	if f := cancelled(ctx, launch.StageSequencer); f != nil {
		f.TokenAddress = batch.TokenAddress
		f.Total = batch.Len()
		return nil, f
	}
	ctx = context.WithoutCancel(ctx)

	o.enter(a, launch.StageSequencer, fmt.Sprintf("Signing %d transactions...", batch.Len()))
	result, err := o.sequencer.Run(ctx, batch, o.newCoSigner(identity), func(e sequencer.Event) {
		event := e
		o.report(a, Progress{Stage: launch.StageSequencer, Message: event.String(), Sequencer: &event})
	})
	if result == nil {
		result = &sequencer.Result{FailedIndex: -1}
	}
	if err != nil {
		return nil, &launch.Failure{
			Stage:        launch.StageSequencer,
			Index:        result.FailedIndex,
			Reason:       err,
			Confirmed:    result.Confirmed(),
			Total:        batch.Len(),
			Signatures:   result.Signatures,
			TokenAddress: batch.TokenAddress,
		}
	}

	// Persistence
	o.enter(a, launch.StagePersistence, "Saving token...")
	record, err := o.writer.Persist(ctx, a.req, metadata, batch.TokenAddress, o.creator, result.Signatures)
	if err != nil {
		f := &launch.Failure{
			Stage:         launch.StagePersistence,
			Index:         -1,
			Reason:        err,
			Confirmed:     result.Confirmed(),
			Total:         batch.Len(),
			Signatures:    result.Signatures,
			TokenAddress:  batch.TokenAddress,
			PendingRecord: record,
		}
		o.queueRecovery(a, f)
		return nil, f
	}

	a.row.Confirmed, a.row.Total = result.Confirmed(), batch.Len()
	return record, nil
}

// enter closes the running stage and starts the next one.
func (o *Orchestrator) enter(a *attempt, stage launch.Stage, message string) {
	o.closeStage(a)
	a.row.Stage = string(stage)
	a.stageFrom = o.now()
	o.report(a, Progress{Stage: stage, Message: message})
}

func (o *Orchestrator) closeStage(a *attempt) {
	if a.row.Stage != "" && !a.stageFrom.IsZero() {
		observability.RecordStage(a.row.Stage, o.now().Sub(a.stageFrom).Seconds())
	}
}

func (o *Orchestrator) report(a *attempt, p Progress) {
	p.AttemptID = a.id
	if o.progress != nil {
		o.progress(p)
	}
	if a.progress != nil {
		a.progress(p)
	}
}

func (o *Orchestrator) queueRecovery(a *attempt, f *launch.Failure) {
	if o.journal == nil || f.PendingRecord == nil {
		a.log.Error("launch record lost: no recovery journal configured")
		return
	}
	err := o.journal.Put(&recovery.Entry{
		Record:    f.PendingRecord,
		AttemptID: a.id,
		Reason:    f.Reason.Error(),
	})
	if err != nil {
		a.log.WithError(err).Error("queue launch record for recovery")
		return
	}
	a.log.Warn("launch record queued for recovery")
}

// finish records the terminal state: metrics, audit row and progress.
func (o *Orchestrator) finish(ctx context.Context, a *attempt, f *launch.Failure) {
	o.closeStage(a)
	finished := o.now()

	outcome := domain.AttemptSucceeded
	stage := ""
	if f != nil {
		outcome = domain.AttemptFailed
		if f.Orphaned() {
			outcome = domain.AttemptOrphaned
		}
		stage = string(f.Stage)
		a.row.Stage = stage
		a.row.FailedIndex = f.Index
		a.row.Confirmed = f.Confirmed
		a.row.Total = f.Total
		a.row.Reason = f.Reason.Error()
		if f.TokenAddress != "" {
			a.row.TokenAddress = f.TokenAddress
		}
	} else {
		a.row.Stage = ""
	}
	a.row.Outcome = outcome
	a.row.FinishedAt = finished.UnixMilli()

	observability.RecordLaunchFinished(string(outcome), stage, finished.Sub(a.started).Seconds(), finished.Unix())

	if o.attempts != nil {
		row := a.row
		if err := o.attempts.Insert(context.WithoutCancel(ctx), &row); err != nil {
			a.log.WithError(err).Warn("record launch attempt")
		}
	}

	log := a.log.WithFields(logrus.Fields{"outcome": outcome, "duration": finished.Sub(a.started).String()})
	if f != nil {
		log.WithFields(logrus.Fields{
			"stage":     f.Stage,
			"index":     f.Index,
			"confirmed": f.Confirmed,
			"total":     f.Total,
		}).WithError(f.Reason).Warn("launch failed")
		o.report(a, Progress{Stage: f.Stage, Message: f.UserMessage()})
		return
	}
	log.Info("launch completed")
	o.report(a, Progress{Stage: launch.StagePersistence, Message: "Token created successfully!"})
}

func stageFailure(stage launch.Stage, err error) *launch.Failure {
	return &launch.Failure{Stage: stage, Index: -1, Reason: err}
}

// cancelled returns a failure when ctx is done before stage starts.
func cancelled(ctx context.Context, stage launch.Stage) *launch.Failure {
	err := ctx.Err()
	if err == nil {
		return nil
	}
	return stageFailure(stage, fmt.Errorf("%w: %w", launch.ErrCancelled, err))
}

// IsCancelled reports whether err is a launch cancelled before sequencing.
func IsCancelled(err error) bool {
	return errors.Is(err, launch.ErrCancelled)
}
