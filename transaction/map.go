// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package transaction

import (
	"hash/fnv"
	"sync"
)

// numShards is the number of independent locked buckets the map is split
// across. Sharding by remote address lets transactions against different
// peers proceed without contending on a single mutex, the way a server
// fielding many concurrent connections needs to.
const numShards = 32

type shard[T any] struct {
	mu      sync.Mutex
	entries map[ID]T
}

// Map is a concurrent, sharded correlation table from [ID] to a caller-
// supplied value type T, typically the bookkeeping a caller needs to
// resolve a pending request (a response channel, a callback pair, a
// deadline). The zero value is not ready for use; call [NewMap].
type Map[T any] struct {
	shards [numShards]shard[T]
}

// NewMap constructs an empty transaction map.
func NewMap[T any]() *Map[T] {
	m := &Map[T]{}
	for i := range m.shards {
		m.shards[i].entries = make(map[ID]T)
	}
	return m
}

func (m *Map[T]) shardFor(id ID) *shard[T] {
	h := fnv.New32a()
	h.Write([]byte(id.Remote))
	return &m.shards[h.Sum32()%numShards]
}

// Insert records v under id. It reports false without modifying the map if
// id is already present -- a caller that sees false has a token collision
// with another in-flight transaction against the same remote.
func (m *Map[T]) Insert(id ID, v T) bool {
	s := m.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[id]; ok {
		return false
	}
	s.entries[id] = v
	return true
}

// Take removes and returns the value recorded under id, if any. This is
// the operation a response handler uses to pop the pending request it
// answers; a second Take for the same id reports false.
func (m *Map[T]) Take(id ID) (T, bool) {
	s := m.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	return v, ok
}

// DrainByRemote removes and returns every value whose ID.Remote equals
// remote, in no particular order. It is used to tear down the pending
// transactions for one connection -- on Abort or connection close --
// without disturbing transactions against any other remote.
func (m *Map[T]) DrainByRemote(remote string) []T {
	var out []T
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		for id, v := range s.entries {
			if id.Remote == remote {
				out = append(out, v)
				delete(s.entries, id)
			}
		}
		s.mu.Unlock()
	}
	return out
}

// Len reports the total number of pending transactions across all shards.
// It is intended for metrics and tests, not for control flow -- the count
// may be stale by the time the caller observes it.
func (m *Map[T]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		n += len(s.entries)
		s.mu.Unlock()
	}
	return n
}
