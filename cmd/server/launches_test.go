package main

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token-launchpad/internal/domain"
	"token-launchpad/internal/launch"
	"token-launchpad/internal/orchestrator"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func waitForProgress(t *testing.T, r *launchRegistry, id string) {
	t.Helper()
	require.Eventually(t, func() bool {
		s, err := r.Get(id)
		return err == nil && len(s.Progress) > 0
	}, time.Second, time.Millisecond)
}

func TestRegistryDrain_WaitsForSequencingAttempts(t *testing.T) {
	release := make(chan struct{})
	sequencing := blockingLauncher(launch.StageSequencer, release)
	preparing := blockingLauncher(launch.StagePool, nil)
	l := launcherFunc(func(ctx context.Context, id string, req *domain.LaunchRequest, progress orchestrator.ProgressFunc) (*domain.LaunchRecord, error) {
		if req.Ticker == "SEQ" {
			return sequencing(ctx, id, req, progress)
		}
		return preparing(ctx, id, req, progress)
	})

	r := newLaunchRegistry(context.Background(), l)
	seqID := r.Start(&domain.LaunchRequest{Ticker: "SEQ"})
	poolID := r.Start(&domain.LaunchRequest{Ticker: "POOL"})
	waitForProgress(t, r, seqID)
	waitForProgress(t, r, poolID)

	type counts struct{ cancelled, sequencing int }
	done := make(chan counts, 1)
	go func() {
		c, s := r.Drain()
		done <- counts{c, s}
	}()

	select {
	case <-done:
		t.Fatal("drain returned while an attempt was still sequencing")
	case <-time.After(50 * time.Millisecond):
	}

	var pool launchState
	require.Eventually(t, func() bool {
		var err error
		pool, err = r.Get(poolID)
		return err == nil && pool.State != launchRunning
	}, time.Second, time.Millisecond)
	assert.Equal(t, launchFailed, pool.State)
	assert.Equal(t, "cancelled", pool.Failure.Kind)

	close(release)
	select {
	case got := <-done:
		assert.Equal(t, counts{cancelled: 1, sequencing: 1}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("drain did not return after the sequencing attempt finished")
	}

	seq, err := r.Get(seqID)
	require.NoError(t, err)
	assert.Equal(t, launchSucceeded, seq.State)
}

func TestRegistryDrain_Idle(t *testing.T) {
	r := newLaunchRegistry(context.Background(), launcherFunc(instantLauncher))
	cancelled, sequencing := r.Drain()
	assert.Zero(t, cancelled)
	assert.Zero(t, sequencing)
}

func TestRegistry_EvictsFinishedAttempts(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	r := newLaunchRegistry(context.Background(), launcherFunc(instantLauncher))
	r.now = clock.Now
	ctx := context.Background()

	first := r.Start(&domain.LaunchRequest{Ticker: "ONE"})
	require.NoError(t, r.Wait(ctx))

	clock.Advance(defaultRetention + time.Minute)
	second := r.Start(&domain.LaunchRequest{Ticker: "TWO"})
	require.NoError(t, r.Wait(ctx))

	_, err := r.Get(first)
	assert.ErrorIs(t, err, errUnknownLaunch)
	_, err = r.Get(second)
	assert.NoError(t, err)

	clock.Advance(defaultRetention / 2)
	third := r.Start(&domain.LaunchRequest{Ticker: "THREE"})
	require.NoError(t, r.Wait(ctx))

	_, err = r.Get(second)
	assert.NoError(t, err, "still inside the retention window")
	_, err = r.Get(third)
	assert.NoError(t, err)
	assert.Equal(t, 2, r.Counts()[launchSucceeded])
}
