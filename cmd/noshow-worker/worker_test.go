package main

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakySweeper struct {
	failures int
	calls    int
	ids      []uuid.UUID
}

func (f *flakySweeper) SweepNoShows(context.Context, time.Time) ([]uuid.UUID, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("db timeout")
	}
	return f.ids, nil
}

func newTestWorker(s sweeper) *NoShowWorker {
	w := NewNoShowWorker(s, observability.NewNopLogger())
	w.backoff = time.Millisecond
	return w
}

func TestSweepWithRetry_RecoversFromTransientError(t *testing.T) {
	s := &flakySweeper{failures: 2, ids: []uuid.UUID{uuid.New()}}

	ids, err := newTestWorker(s).sweepWithRetry(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, s.ids, ids)
	assert.Equal(t, 3, s.calls)
}

func TestSweepWithRetry_GivesUp(t *testing.T) {
	s := &flakySweeper{failures: 10}

	_, err := newTestWorker(s).sweepWithRetry(context.Background(), time.Now())
	assert.Error(t, err)
	assert.Equal(t, 3, s.calls)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := &flakySweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		newTestWorker(s).Run(ctx, time.Millisecond)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
