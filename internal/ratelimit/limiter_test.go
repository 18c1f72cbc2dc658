package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemorySlidingWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	s := NewInMemory()
	s.clock = func() time.Time { return now }
	limit := Limit{Requests: 2, Window: time.Minute}
	ctx := context.Background()

	r, err := s.Allow(ctx, "actor:a", limit)
	require.NoError(t, err)
	assert.True(t, r.Allowed)
	assert.Equal(t, 1, r.Remaining)

	now = now.Add(20 * time.Second)
	r, _ = s.Allow(ctx, "actor:a", limit)
	assert.True(t, r.Allowed)
	assert.Equal(t, 0, r.Remaining)

	r, _ = s.Allow(ctx, "actor:a", limit)
	assert.False(t, r.Allowed)
	assert.Equal(t, 40, r.RetryAfter)

	r, _ = s.Allow(ctx, "actor:b", limit)
	assert.True(t, r.Allowed, "keys are independent")

	now = now.Add(41 * time.Second)
	r, _ = s.Allow(ctx, "actor:a", limit)
	assert.True(t, r.Allowed, "oldest request slid out of the window")
}

func TestInMemoryConcurrent(t *testing.T) {
	s := NewInMemory()
	limit := Limit{Requests: 10, Window: time.Hour}

	var mu sync.Mutex
	allowed := 0
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := s.Allow(context.Background(), "k", limit)
			if err == nil && r.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, allowed)
}
