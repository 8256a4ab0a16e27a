package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/robertarktes/event-registrations/internal/observability"
)

type sweeper interface {
	SweepNoShows(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type NoShowWorker struct {
	sweeper    sweeper
	logger     observability.Logger
	maxRetries int
	backoff    time.Duration
}

func NewNoShowWorker(s sweeper, logger observability.Logger) *NoShowWorker {
	return &NoShowWorker{sweeper: s, logger: logger, maxRetries: 3, backoff: time.Second}
}

func (w *NoShowWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			ids, err := w.sweepWithRetry(ctx, now)
			if err != nil {
				w.logger.WithError(err).Error("failed to sweep no-shows after retries")
				continue
			}
			if len(ids) > 0 {
				w.logger.WithField("events", len(ids)).Info("marked no-shows")
			}
		}
	}
}

// sweepWithRetry backs off exponentially between attempts.
func (w *NoShowWorker) sweepWithRetry(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var err error
	for i := 0; i < w.maxRetries; i++ {
		var ids []uuid.UUID
		ids, err = w.sweeper.SweepNoShows(ctx, now)
		if err == nil {
			return ids, nil
		}
		w.logger.WithField("attempt", i+1).WithError(err).Warn("no-show sweep failed")
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(1<<i) * w.backoff):
		}
	}
	return nil, errors.Wrapf(err, "failed after %d retries", w.maxRetries)
}
