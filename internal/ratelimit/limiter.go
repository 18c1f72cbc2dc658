// Package ratelimit throttles API traffic per actor, falling back to the
// client IP for unauthenticated callers.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is the number of requests allowed per window. A zero Requests value
// disables limiting.
type Limit struct {
	Requests int
	Window   time.Duration
}

type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int
}

// Store counts requests per key.
type Store interface {
	Allow(ctx context.Context, key string, limit Limit) (*Result, error)
}

// InMemory is a sliding window counter for single-node deployments.
type InMemory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	clock   func() time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{windows: make(map[string][]time.Time), clock: time.Now}
}

func (s *InMemory) Allow(_ context.Context, key string, limit Limit) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	cutoff := now.Add(-limit.Window)
	stamps := s.windows[key]
	i := 0
	for i < len(stamps) && !stamps[i].After(cutoff) {
		i++
	}
	stamps = stamps[i:]

	if len(stamps) >= limit.Requests {
		s.windows[key] = stamps
		resetAt := stamps[0].Add(limit.Window)
		return &Result{
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}

	stamps = append(stamps, now)
	s.windows[key] = stamps
	return &Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - len(stamps),
		ResetAt:   stamps[0].Add(limit.Window),
	}, nil
}

// Redis is a fixed window counter shared by every replica.
type Redis struct {
	client redis.UniversalClient
	prefix string
	clock  func() time.Time
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client, prefix: "ratelimit:", clock: time.Now}
}

func (s *Redis) Allow(ctx context.Context, key string, limit Limit) (*Result, error) {
	now := s.clock()
	windowStart := now.Truncate(limit.Window)
	resetAt := windowStart.Add(limit.Window)
	redisKey := fmt.Sprintf("%s%s:%d", s.prefix, key, windowStart.Unix())

	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, redisKey)
		pipe.ExpireAt(ctx, redisKey, resetAt)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ratelimit: redis incr: %w", err)
	}

	count := int(incr.Val())
	if count > limit.Requests {
		return &Result{
			Limit:      limit.Requests,
			ResetAt:    resetAt,
			RetryAfter: retryAfter(now, resetAt),
		}, nil
	}
	return &Result{
		Allowed:   true,
		Limit:     limit.Requests,
		Remaining: limit.Requests - count,
		ResetAt:   resetAt,
	}, nil
}

func retryAfter(now, resetAt time.Time) int {
	secs := int(resetAt.Sub(now).Round(time.Second).Seconds())
	if secs < 1 {
		return 1
	}
	return secs
}
