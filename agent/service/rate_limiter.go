package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"inbox-agent/backend/pkg/errors"
	"inbox-agent/backend/shared/redis"
)

// ErrRateLimitExceeded is returned once a user's hourly quota is spent. It is
// raised before any gateway call is made for the invocation.
var ErrRateLimitExceeded = errors.NewTooManyRequestsError(
	"RATE_LIMIT_EXCEEDED",
	"AI usage limit reached. Please try again later.",
)

// RateLimiter gates gateway-consuming calls behind a per-user hourly quota.
// CheckAndIncrement must be atomic across concurrent invocations for the same
// user; this gate is the only defense against runaway model-API spend.
type RateLimiter interface {
	CheckAndIncrement(ctx context.Context, userID string) error
}

// RedisRateLimiter counts invocations in Redis, keyed per user per hour
// window. INCR is atomic server-side, so concurrent callers cannot both slip
// under the cap.
type RedisRateLimiter struct {
	client *redis.RedisClient
	quota  int64
}

func NewRedisRateLimiter(client *redis.RedisClient, quota int) *RedisRateLimiter {
	return &RedisRateLimiter{client: client, quota: int64(quota)}
}

func (l *RedisRateLimiter) CheckAndIncrement(ctx context.Context, userID string) error {
	key := fmt.Sprintf("agent:quota:%s:%d", userID, time.Now().Unix()/3600)
	count, err := l.client.IncrWithExpiry(ctx, key, time.Hour)
	if err != nil {
		// Fail closed: if the counter store is unreachable we refuse to spend
		return fmt.Errorf("rate limit counter unavailable: %w", err)
	}
	if count > l.quota {
		return ErrRateLimitExceeded
	}
	return nil
}

// MemoryRateLimiter keeps the counters in process memory. Suitable for tests
// and single-instance deployments without Redis.
type MemoryRateLimiter struct {
	mu     sync.Mutex
	quota  int
	window int64
	counts map[string]int
}

func NewMemoryRateLimiter(quota int) *MemoryRateLimiter {
	return &MemoryRateLimiter{quota: quota, counts: make(map[string]int)}
}

func (l *MemoryRateLimiter) CheckAndIncrement(_ context.Context, userID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	window := time.Now().Unix() / 3600
	if window != l.window {
		l.window = window
		l.counts = make(map[string]int)
	}

	l.counts[userID]++
	if l.counts[userID] > l.quota {
		return ErrRateLimitExceeded
	}
	return nil
}
