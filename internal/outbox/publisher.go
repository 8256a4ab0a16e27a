// Package outbox relays committed outbox rows to the message broker.
package outbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/event-registrations/internal/adapters/postgres"
	"github.com/robertarktes/event-registrations/internal/adapters/rabbit"
	"github.com/robertarktes/event-registrations/internal/observability"
)

type store interface {
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	ClaimUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]postgres.OutboxRecord, error)
	MarkPublished(ctx context.Context, tx pgx.Tx, id uuid.UUID, publishedAt time.Time) error
}

type broker interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

type Publisher struct {
	repo   store
	broker broker
	logger observability.Logger
	batch  int
	now    func() time.Time
}

func NewPublisher(repo *postgres.Repository, broker *rabbit.Publisher, logger observability.Logger, batch int) *Publisher {
	return newPublisher(repo, broker, logger, batch)
}

func newPublisher(repo store, broker broker, logger observability.Logger, batch int) *Publisher {
	if batch <= 0 {
		batch = 50
	}
	return &Publisher{repo: repo, broker: broker, logger: logger, batch: batch, now: time.Now}
}

func (p *Publisher) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.RelayOnce(ctx)
			if err != nil {
				p.logger.WithError(err).Error("outbox relay failed")
				continue
			}
			if n > 0 {
				p.logger.WithField("published", n).Debug("outbox batch relayed")
			}
		}
	}
}

// RelayOnce publishes one claimed batch in creation order. The first publish
// failure ends the batch; rows marked before it are committed and the rest
// stay NEW for the next tick.
func (p *Publisher) RelayOnce(ctx context.Context) (int, error) {
	published := 0
	err := p.repo.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.ClaimUnpublished(ctx, tx, p.batch)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			observability.OutboxLag.Set(p.now().Sub(records[0].CreatedAt).Seconds())
		}
		for _, rec := range records {
			msg := rabbit.Message(rec.DedupeKey, rec.Payload, rec.CreatedAt)
			if err := p.broker.Publish(ctx, rec.EventType, msg); err != nil {
				p.logger.WithFields(map[string]interface{}{
					"outbox_id":  rec.ID,
					"event_type": rec.EventType,
				}).WithError(err).Warn("outbox publish failed")
				break
			}
			if err := p.repo.MarkPublished(ctx, tx, rec.ID, p.now()); err != nil {
				return err
			}
			published++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	observability.OutboxPublished.Add(float64(published))
	return published, nil
}
