package rabbit

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyChannel struct {
	failures int
	calls    int
	last     amqp.Publishing
	key      string
}

func (c *flakyChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	c.calls++
	if exchange != Exchange {
		return errors.New("wrong exchange")
	}
	if c.calls <= c.failures {
		return errors.New("channel closed")
	}
	c.key, c.last = key, msg
	return nil
}

func TestPublish_RetriesThenSucceeds(t *testing.T) {
	ch := &flakyChannel{failures: 2}
	p := &Publisher{ch: ch, backoff: time.Millisecond}

	msg := Message("dedupe-1", []byte(`{"a":1}`), time.Now())
	require.NoError(t, p.Publish(context.Background(), "attendee.registered", msg))

	assert.Equal(t, 3, ch.calls)
	assert.Equal(t, "attendee.registered", ch.key)
	assert.Equal(t, "dedupe-1", ch.last.MessageId)
	assert.Equal(t, amqp.Persistent, ch.last.DeliveryMode)
}

func TestPublish_GivesUp(t *testing.T) {
	ch := &flakyChannel{failures: 10}
	p := &Publisher{ch: ch, backoff: time.Millisecond}

	err := p.Publish(context.Background(), "attendee.checked_in", Message("k", nil, time.Now()))
	assert.Error(t, err)
	assert.Equal(t, publishAttempts, ch.calls)
}

func TestPublish_StopsOnCancel(t *testing.T) {
	ch := &flakyChannel{failures: 10}
	p := &Publisher{ch: ch, backoff: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Publish(ctx, "attendee.registered", Message("k", nil, time.Now()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, ch.calls)
}
