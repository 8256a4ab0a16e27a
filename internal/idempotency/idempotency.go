package idempotency

import (
	"context"
	"time"

	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
)

const inFlightTTL = 30 * time.Second

type store interface {
	Get(ctx context.Context, key string) (*redisadapter.IdempResponse, error)
	Set(ctx context.Context, key string, resp redisadapter.IdempResponse, ttl time.Duration) error
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

// Idempotency replays the first response stored under an Idempotency-Key.
type Idempotency struct {
	redis store
	ttl   time.Duration
}

func NewIdempotency(redis *redisadapter.Idempotency, ttl time.Duration) *Idempotency {
	return &Idempotency{redis: redis, ttl: ttl}
}

type Response struct {
	Status int
	Result []byte
}

// Scope namespaces a client key by caller and route so two wallets can reuse keys.
func Scope(key, caller, route string) string {
	return caller + ":" + route + ":" + key
}

func (i *Idempotency) Get(ctx context.Context, key string) (*Response, error) {
	if key == "" {
		return nil, nil
	}
	resp, err := i.redis.Get(ctx, key)
	if err != nil || resp == nil {
		return nil, err
	}
	return &Response{Status: resp.Status, Result: resp.Result}, nil
}

// Begin claims key for one in-flight request. False means a concurrent
// request with the same key is still running.
func (i *Idempotency) Begin(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return true, nil
	}
	return i.redis.Lock(ctx, key, inFlightTTL)
}

func (i *Idempotency) Set(ctx context.Context, key string, resp Response) error {
	if key == "" {
		return nil
	}
	err := i.redis.Set(ctx, key, redisadapter.IdempResponse{Status: resp.Status, Result: resp.Result}, i.ttl)
	_ = i.redis.Unlock(ctx, key)
	return err
}

// Release drops the in-flight claim without storing a response.
func (i *Idempotency) Release(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return i.redis.Unlock(ctx, key)
}
