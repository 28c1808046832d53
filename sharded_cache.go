package cache

import (
	"time"

	api "github.com/krisalay/ephemeral-cache/api"
	"github.com/krisalay/ephemeral-cache/engine"
	"github.com/krisalay/ephemeral-cache/shard"
)

var _ api.Cache = (*ShardedCache)(nil)

/*
ShardedCache is the main cache implementation.
This struct is the orchestrator that connects:
- shards (storage + locking)
- the engine (clock, staleness, hooks, metrics, logging)

It is meant to be constructed once by the application's composition root
and passed to whatever needs it. There is no package-level instance.
*/
type ShardedCache struct {
	// shards are the actual storage units. Each shard is an independent mini-cache.
	shards []*shard.Shard

	// engine contains the "rules" of the cache: clock, staleness, hooks, metrics.
	engine *engine.CacheEngine

	// selector decides which shard a key should go to.
	selector shard.Selector
}

/*
NewShardedCache builds an empty cache.
The shard count is rounded up to a power of two. A nil engine gets every default.
*/
func NewShardedCache(shards int, eng *engine.CacheEngine) *ShardedCache {
	if eng == nil {
		eng = engine.NewCacheEngine(nil, nil, 0, nil, nil, nil)
	}

	return &ShardedCache{
		shards:   shard.NewShards(shards),
		engine:   eng,
		selector: shard.HashSelector{},
	}
}

func (c *ShardedCache) shardFor(key string) *shard.Shard {
	return c.selector.Select(key, c.shards)
}

/*
Get returns the value stored under key, stale or not.
*/
func (c *ShardedCache) Get(key string) (any, bool) {
	ent, ok := c.shardFor(key).Store.Get(key)
	if !ok {
		c.engine.OnMiss()
		return nil, false
	}

	c.engine.OnRead(key, ent)
	return ent.Value, true
}

/*
Set stores value under key.
The entry (value + timestamp) is built first and published in one step,
so concurrent stores on a key leave exactly one of them in place.
*/
func (c *ShardedCache) Set(key string, value any) {
	ent := c.engine.NewEntry(key, value)
	c.shardFor(key).Store.Put(key, ent)
	c.engine.OnStore()
}

/*
Invalidate removes key. Absent keys are a no-op.
*/
func (c *ShardedCache) Invalidate(key string) {
	removed := 0
	if c.shardFor(key).Store.Delete(key) {
		removed = 1
	}
	c.engine.OnInvalidate("key", key, removed)
}

/*
InvalidatePrefix removes every key starting with prefix and returns how many went.
Useful when one user action dirties a whole family of keys ("products:").
*/
func (c *ShardedCache) InvalidatePrefix(prefix string) int {
	removed := 0
	for _, sh := range c.shards {
		removed += sh.Store.DeletePrefix(prefix)
	}
	c.engine.OnInvalidate("prefix", prefix, removed)
	return removed
}

/*
InvalidateAll clears every shard.
Shards are cleared one after another, not in a single atomic step: a Set on
another key racing with it may survive. Every key that was present when the
call started is absent when it returns.
*/
func (c *ShardedCache) InvalidateAll() {
	removed := 0
	for _, sh := range c.shards {
		removed += sh.Store.Clear()
	}
	c.engine.OnInvalidate("all", "", removed)
}

/*
IsStale checks key against the engine's default max age.
*/
func (c *ShardedCache) IsStale(key string) bool {
	return c.IsStaleAfter(key, c.engine.DefaultMaxAge)
}

/*
IsStaleAfter checks key against maxAge. Absent keys are stale.
*/
func (c *ShardedCache) IsStaleAfter(key string, maxAge time.Duration) bool {
	ent, _ := c.shardFor(key).Store.Get(key)
	return c.engine.IsStale(ent, maxAge)
}

/*
Age returns how long ago key was last stored, or false if it is absent.
*/
func (c *ShardedCache) Age(key string) (time.Duration, bool) {
	ent, ok := c.shardFor(key).Store.Get(key)
	if !ok {
		return 0, false
	}
	return c.engine.Age(ent), true
}

// Len returns the number of entries across all shards.
func (c *ShardedCache) Len() int {
	n := 0
	for _, sh := range c.shards {
		n += sh.Store.Size()
	}
	return n
}

// DefaultMaxAge returns the threshold IsStale uses.
func (c *ShardedCache) DefaultMaxAge() time.Duration {
	return c.engine.DefaultMaxAge
}
