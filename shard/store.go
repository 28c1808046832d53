package shard

import (
	"strings"
	"sync"

	"github.com/krisalay/ephemeral-cache/types"
)

/*
This file defines how entries are actually held inside a shard.

Entries are immutable pointers. A write swaps the pointer under the
write lock, so a reader holding the read lock sees either the previous
entry or the new one, never a value from one write and a timestamp from another.
*/

// ShardStore is the interface used by a shard to store and retrieve cache entries.
type ShardStore interface {

	// Get retrieves an entry by key.
	Get(string) (*types.CacheEntry, bool)

	// Put inserts or replaces an entry.
	Put(string, *types.CacheEntry)

	// Delete removes an entry and reports whether one was present.
	Delete(string) bool

	// DeletePrefix removes every entry whose key starts with prefix.
	DeletePrefix(string) int

	// Clear removes every entry and reports how many were dropped.
	Clear() int

	// Size returns how many entries are stored.
	Size() int
}

/*
mapStore is a ShardStore backed by a plain map and a RWMutex.

Reads vastly outnumber writes in a UI data cache, so readers share the lock.
Every operation is O(1) except the prefix scan.
*/
type mapStore struct {
	mu   sync.RWMutex
	data map[string]*types.CacheEntry
}

func NewMapStore() *mapStore {
	return &mapStore{data: make(map[string]*types.CacheEntry)}
}

func (s *mapStore) Get(key string) (*types.CacheEntry, bool) {
	s.mu.RLock()
	ent, ok := s.data[key]
	s.mu.RUnlock()
	return ent, ok
}

func (s *mapStore) Put(key string, ent *types.CacheEntry) {
	s.mu.Lock()
	s.data[key] = ent
	s.mu.Unlock()
}

func (s *mapStore) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data[key]; !ok {
		return false
	}
	delete(s.data, key)
	return true
}

func (s *mapStore) DeletePrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for k := range s.data {
		if strings.HasPrefix(k, prefix) {
			delete(s.data, k)
			n++
		}
	}
	return n
}

// Clear swaps in a fresh map rather than deleting key by key.
func (s *mapStore) Clear() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.data)
	s.data = make(map[string]*types.CacheEntry)
	return n
}

func (s *mapStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
