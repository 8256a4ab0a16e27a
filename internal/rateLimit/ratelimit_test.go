package rateLimit

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redismock/v9"
	redisadapter "github.com/robertarktes/event-registrations/internal/adapters/redis"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_Allow(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(redisadapter.NewCache(db))

	mock.ExpectIncr("rl:wallet:abc").SetVal(3)
	mock.ExpectExpireNX("rl:wallet:abc", time.Minute).SetVal(false)

	ok, err := rl.Allow(context.Background(), "wallet:abc", 3, time.Minute)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiter_Deny(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(redisadapter.NewCache(db))

	mock.ExpectIncr("rl:ip:1.2.3.4").SetVal(4)
	mock.ExpectExpireNX("rl:ip:1.2.3.4", time.Minute).SetVal(false)

	ok, err := rl.Allow(context.Background(), "ip:1.2.3.4", 3, time.Minute)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestRateLimiter_BackendDownFailsOpen(t *testing.T) {
	db, mock := redismock.NewClientMock()
	rl := NewRateLimiter(redisadapter.NewCache(db))

	mock.ExpectIncr("rl:wallet:abc").SetErr(errors.New("dial tcp: refused"))

	ok, err := rl.Allow(context.Background(), "wallet:abc", 3, time.Minute)
	assert.Error(t, err)
	assert.True(t, ok)
}
