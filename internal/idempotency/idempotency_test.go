package idempotency

import (
	"context"
	"sync"
	"testing"
	"time"

	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu    sync.Mutex
	data  map[string]redisadapter.IdempResponse
	locks map[string]bool
}

func newMemStore() *memStore {
	return &memStore{data: map[string]redisadapter.IdempResponse{}, locks: map[string]bool{}}
}

func (m *memStore) Get(_ context.Context, key string) (*redisadapter.IdempResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memStore) Set(_ context.Context, key string, resp redisadapter.IdempResponse, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = resp
	return nil
}

func (m *memStore) Lock(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *memStore) Unlock(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func TestIdempotency_ReplayAfterSet(t *testing.T) {
	i := &Idempotency{redis: newMemStore(), ttl: time.Hour}
	ctx := context.Background()
	key := Scope("k-1234567890", "wallet", "register")

	got, err := i.Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := i.Begin(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)

	again, err := i.Begin(ctx, key)
	require.NoError(t, err)
	assert.False(t, again, "second in-flight request must not start")

	require.NoError(t, i.Set(ctx, key, Response{Status: 201, Result: []byte(`{"success":true}`)}))

	got, err = i.Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 201, got.Status)
	assert.JSONEq(t, `{"success":true}`, string(got.Result))
}

func TestIdempotency_EmptyKeyIsPassThrough(t *testing.T) {
	i := &Idempotency{redis: newMemStore(), ttl: time.Hour}
	ctx := context.Background()

	ok, err := i.Begin(ctx, "")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, i.Set(ctx, "", Response{Status: 201}))

	got, err := i.Get(ctx, "")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestIdempotency_ReleaseAllowsRetry(t *testing.T) {
	i := &Idempotency{redis: newMemStore(), ttl: time.Hour}
	ctx := context.Background()

	ok, _ := i.Begin(ctx, "k")
	require.True(t, ok)
	require.NoError(t, i.Release(ctx, "k"))

	ok, _ = i.Begin(ctx, "k")
	assert.True(t, ok)
}
