// Package lock provides per-item mutual exclusion so that every mutation of
// one item, including gap changes and sweep re-derivation, is serialized.
package lock

import (
	"context"
	"sync"

	dErrors "complytrack/pkg/domain-errors"
)

// Unlock releases a held lock. It is safe to call once.
type Unlock func()

// Locker acquires an exclusive lock on a key.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

const numShards = 128

// Sharded serializes keys across a fixed set of mutexes. Keys that hash to
// the same shard also serialize with each other, which is harmless.
type Sharded struct {
	shards [numShards]shard
}

// shard is a mutex that can be acquired with a context.
type shard struct {
	once sync.Once
	ch   chan struct{}
}

func (s *shard) sem() chan struct{} {
	s.once.Do(func() {
		s.ch = make(chan struct{}, 1)
	})
	return s.ch
}

func NewSharded() *Sharded {
	return &Sharded{}
}

func (l *Sharded) Lock(ctx context.Context, key string) (Unlock, error) {
	sem := l.shards[hashKey(key)%numShards].sem()
	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return nil, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "timed out waiting for item lock").WithEntity(key)
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-sem })
	}, nil
}

// hashKey uses FNV-1a.
func hashKey(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
