package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"
)

const lockSuffix = ":lock"

type Idempotency struct {
	client redis.UniversalClient
}

func NewIdempotency(client redis.UniversalClient) *Idempotency {
	return &Idempotency{client: client}
}

type IdempResponse struct {
	Status int
	Result []byte
}

func (i *Idempotency) Get(ctx context.Context, key string) (*IdempResponse, error) {
	val, err := i.client.Get(ctx, "idemp:"+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "idempotency get")
	}
	var resp IdempResponse
	err = json.Unmarshal(val, &resp)
	return &resp, errors.Wrap(err, "idempotency decode")
}

func (i *Idempotency) Set(ctx context.Context, key string, resp IdempResponse, ttl time.Duration) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return errors.Wrap(i.client.Set(ctx, "idemp:"+key, data, ttl).Err(), "idempotency set")
}

// Lock marks key as in flight. It returns false if another request holds it.
func (i *Idempotency) Lock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := i.client.SetNX(ctx, "idemp:"+key+lockSuffix, 1, ttl).Result()
	return ok, errors.Wrap(err, "idempotency lock")
}

func (i *Idempotency) Unlock(ctx context.Context, key string) error {
	return errors.Wrap(i.client.Del(ctx, "idemp:"+key+lockSuffix).Err(), "idempotency unlock")
}
