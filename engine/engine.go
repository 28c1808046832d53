package engine

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/ephemeral-cache/refresh"
	"github.com/krisalay/ephemeral-cache/staleness"
	"github.com/krisalay/ephemeral-cache/types"
)

/*
CacheEngine is the policy layer of the cache.
It is responsible for the "behavior" of the cache, NOT storage.

It decides:
- What time it is
- When an entry is stale, and against which default threshold
- What runs after a successful read
- How events are reported (metrics, logs)

It does NOT:
- Store data
- Handle sharding
- Handle locking
- Fetch data
*/
type CacheEngine struct {

	// Clock supplies "now" for stamping entries and judging staleness.
	Clock types.Clock

	// Staleness judges an entry against a max age.
	Staleness staleness.Policy

	// DefaultMaxAge is used by IsStale when the caller gives no override.
	DefaultMaxAge time.Duration

	// Refresh is an optional hook that runs after a successful read.
	// It must be fast and non-blocking.
	Refresh refresh.Hook

	// Metrics receives hit/miss/store/invalidate/stale events.
	Metrics types.Metrics

	// Logger receives debug-level lifecycle events.
	Logger logrus.FieldLogger
}

/*
NewCacheEngine creates a CacheEngine.
Any nil argument is replaced by its default, so the cache can be built with
NewCacheEngine(nil, nil, 0, nil, nil, nil).
*/
func NewCacheEngine(
	clock types.Clock,
	policy staleness.Policy,
	defaultMaxAge time.Duration,
	hook refresh.Hook,
	metrics types.Metrics,
	logger logrus.FieldLogger,
) *CacheEngine {

	if clock == nil {
		clock = types.SystemClock{}
	}
	if policy == nil {
		policy = staleness.MaxAge{}
	}
	if defaultMaxAge <= 0 {
		defaultMaxAge = staleness.DefaultMaxAge
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = types.DiscardLogger()
	}

	return &CacheEngine{
		Clock:         clock,
		Staleness:     policy,
		DefaultMaxAge: defaultMaxAge,
		Refresh:       hook,
		Metrics:       metrics,
		Logger:        logger,
	}
}

// NewEntry stamps value with the current time.
func (e *CacheEngine) NewEntry(key string, value any) *types.CacheEntry {
	return &types.CacheEntry{
		Key:      key,
		Value:    value,
		StoredAt: e.Clock.Now(),
	}
}

/*
IsStale judges ent against maxAge at the current instant.
ent may be nil (absent key), which is always stale.
*/
func (e *CacheEngine) IsStale(ent *types.CacheEntry, maxAge time.Duration) bool {
	stale := e.Staleness.IsStale(ent, e.Clock.Now(), maxAge)
	if stale {
		e.Metrics.Stale()
	}
	return stale
}

// Age returns the elapsed time since ent was stored.
func (e *CacheEngine) Age(ent *types.CacheEntry) time.Duration {
	return ent.Age(e.Clock.Now())
}

/*
OnRead is called every time Get finds an entry.
The refresh hook, if any, runs here on the hot read path.
*/
func (e *CacheEngine) OnRead(key string, ent *types.CacheEntry) {
	e.Metrics.Hit()

	if e.Refresh != nil {
		e.Refresh.OnRead(key, ent)
	}
}

// OnMiss is called when Get finds nothing.
func (e *CacheEngine) OnMiss() {
	e.Metrics.Miss()
}

// OnStore is called after an entry has been published.
func (e *CacheEngine) OnStore() {
	e.Metrics.Store()
}

/*
OnInvalidate is called after an invalidation with the number of removed entries.
scope describes what was invalidated ("key", "prefix", "all") for the logs.
*/
func (e *CacheEngine) OnInvalidate(scope, target string, removed int) {
	e.Metrics.Invalidate(removed)

	if scope == "key" {
		return
	}
	e.Logger.WithFields(logrus.Fields{
		"scope":   scope,
		"target":  target,
		"removed": removed,
	}).Debug("cache invalidated")
}
