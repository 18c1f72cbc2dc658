// Package lock serializes mutations per entity id.
//
// Workflow services acquire a lock keyed by entity ("nc:<id>", "permit:<id>")
// around every read-validate-write sequence so at most one mutation per entity
// is in flight. The in-process locker covers a single replica; the Redis locker
// covers several replicas sharing one database.
package lock

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"complio/pkg/platform/sentinel"
)

// ErrLocked is returned when a lock is not acquired before the context ends.
var ErrLocked = sentinel.ErrLocked

// Locker acquires an exclusive lock on key. The returned release func must be
// called exactly once.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// numShards trades memory for contention: keys hashing to the same shard wait on
// each other even when they name different entities.
const numShards = 128

// defaultWait is the longest Lock blocks when ctx has no deadline.
const defaultWait = 5 * time.Second

// ShardedLocker is an in-process Locker backed by a fixed array of mutexes.
type ShardedLocker struct {
	shards [numShards]chan struct{}
}

func NewSharded() *ShardedLocker {
	s := &ShardedLocker{}
	for i := range s.shards {
		s.shards[i] = make(chan struct{}, 1)
	}
	return s
}

// Lock blocks until the shard for key is free or ctx is done.
func (s *ShardedLocker) Lock(ctx context.Context, key string) (func(), error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, defaultWait)
		defer cancel()
	}
	shard := s.shards[shardFor(key)]
	select {
	case shard <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-shard }) }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("lock %s: %w", key, ErrLocked)
	}
}

// shardFor uses FNV-1a for an even spread of entity ids.
func shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}
