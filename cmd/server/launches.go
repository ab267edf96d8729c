package main

import (
	"context"
	"errors"
	"sync"
	"time"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/orchestrator"
)

// Launch states reported by GET /launches/{id}.
const (
	launchRunning   = "running"
	launchSucceeded = "succeeded"
	launchFailed    = "failed"
)

var (
	errUnknownLaunch  = errors.New("unknown launch")
	errLaunchFinished = errors.New("launch already finished")
	errNotCancellable = errors.New("transactions already submitted, launch can no longer be cancelled")
)

// launcher runs one attempt.
type launcher interface {
	Run(ctx context.Context, attemptID string, req *domain.LaunchRequest, progress orchestrator.ProgressFunc) (*domain.LaunchRecord, error)
}

// launchState is the server side view of one attempt.
type launchState struct {
	AttemptID  string       `json:"attemptId"`
	State      string       `json:"state"`
	Stage      launch.Stage `json:"stage"`
	Message    string       `json:"message"`
	Progress   []string     `json:"progress"`
	Record     *recordView  `json:"record,omitempty"`
	Failure    *failureView `json:"failure,omitempty"`
	StartedAt  time.Time    `json:"startedAt"`
	FinishedAt *time.Time   `json:"finishedAt,omitempty"`

	cancel     context.CancelFunc
	sequencing bool
}

// defaultRetention is how long a finished attempt stays queryable.
const defaultRetention = time.Hour

// launchRegistry runs attempts in the background and keeps their state.
type launchRegistry struct {
	launcher  launcher
	base      context.Context
	now       func() time.Time
	retention time.Duration

	mu   sync.Mutex
	byID map[string]*launchState
	wg   sync.WaitGroup
}

func newLaunchRegistry(base context.Context, l launcher) *launchRegistry {
	return &launchRegistry{
		launcher:  l,
		base:      base,
		now:       time.Now,
		retention: defaultRetention,
		byID:      make(map[string]*launchState),
	}
}

// Start runs req under a fresh attempt id and returns immediately.
func (r *launchRegistry) Start(req *domain.LaunchRequest) string {
	id := orchestrator.NewAttemptID()
	ctx, cancel := context.WithCancel(r.base)

	r.mu.Lock()
	r.evictLocked()
	r.byID[id] = &launchState{
		AttemptID: id,
		State:     launchRunning,
		Stage:     launch.StageValidation,
		StartedAt: r.now(),
		cancel:    cancel,
	}
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer cancel()
		rec, err := r.launcher.Run(ctx, id, req, func(p orchestrator.Progress) { r.progress(id, p) })
		r.finish(id, rec, err)
	}()
	return id
}

// evictLocked drops finished attempts older than the retention window.
func (r *launchRegistry) evictLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, s := range r.byID {
		if s.FinishedAt != nil && s.FinishedAt.Before(cutoff) {
			delete(r.byID, id)
		}
	}
}

func (r *launchRegistry) progress(id string, p orchestrator.Progress) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return
	}
	s.Stage = p.Stage
	s.Message = p.Message
	s.Progress = append(s.Progress, p.Message)
	if p.Stage == launch.StageSequencer {
		s.sequencing = true
	}
}

func (r *launchRegistry) finish(id string, rec *domain.LaunchRecord, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return
	}
	finished := r.now()
	s.FinishedAt = &finished
	if err != nil {
		s.State = launchFailed
		s.Failure = newFailureView(err)
		return
	}
	s.State = launchSucceeded
	s.Record = newRecordView(rec)
}

// Get returns a copy of the attempt state.
func (r *launchRegistry) Get(id string) (launchState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	if !ok {
		return launchState{}, errUnknownLaunch
	}
	c := *s
	c.Progress = append([]string(nil), s.Progress...)
	return c, nil
}

// Cancel stops an attempt that has not reached the sequencer yet.
func (r *launchRegistry) Cancel(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[id]
	switch {
	case !ok:
		return errUnknownLaunch
	case s.State != launchRunning:
		return errLaunchFinished
	case s.sequencing:
		return errNotCancellable
	}
	s.cancel()
	return nil
}

// Counts returns the number of attempts per state.
func (r *launchRegistry) Counts() map[string]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := map[string]int{launchRunning: 0, launchSucceeded: 0, launchFailed: 0}
	for _, s := range r.byID {
		counts[s.State]++
	}
	return counts
}

// Drain cancels every attempt that has not reached the sequencer and waits,
// without a deadline, until all attempts finished. Sequencing attempts run to
// a terminal state, so the stores must stay open until Drain returns.
func (r *launchRegistry) Drain() (cancelled, sequencing int) {
	r.mu.Lock()
	for _, s := range r.byID {
		if s.State != launchRunning {
			continue
		}
		if s.sequencing {
			sequencing++
			continue
		}
		s.cancel()
		cancelled++
	}
	r.mu.Unlock()

	r.wg.Wait()
	return cancelled, sequencing
}

// Wait blocks until every attempt finished or ctx is done.
func (r *launchRegistry) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
