package types

// This file defines how the cache reports what it is doing.

/*
Metrics is the event sink of the cache.
Each method represents one event in the life of a key.
*/
type Metrics interface {

	// Hit is called when Get finds an entry.
	Hit()

	// Miss is called when Get finds nothing under the key.
	Miss()

	// Store is called on every Set.
	Store()

	// Invalidate is called with the number of entries an invalidation removed.
	Invalidate(removed int)

	// Stale is called when a staleness check reports true.
	Stale()
}

/*
NoopMetrics ignores every event.

The engine installs it when no sink is configured, so the hot path
never has to check for nil.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()           {}
func (NoopMetrics) Miss()          {}
func (NoopMetrics) Store()         {}
func (NoopMetrics) Invalidate(int) {}
func (NoopMetrics) Stale()         {}
