package cache

import "time"

/*
Cache defines the PUBLIC API of the keyed ephemeral cache.
This is a contract that guarantees certain behaviors, without exposing internals.
Sharding, locking, clocks and staleness rules are hidden behind this interface.

The cache only stores values and judges their freshness. It never fetches.
Callers read with Get, decide with IsStale whether to refetch, and hand the
new value back with Set (stale-while-revalidate).
*/
type Cache interface {

	/*
		Get returns the value currently stored under key.

		BEHAVIOR:
		---------
		- Present: (value, true), even when the value is stale
		- Absent (never set, or invalidated): (nil, false)

		Absence is a normal outcome, not an error.
	*/
	Get(key string) (any, bool)

	/*
		Set stores value under key, stamped with the current time.

		BEHAVIOR:
		---------
		- Fully replaces any prior entry (value and timestamp together, no merge)
		- Accepts any value type, even one different from the previous value under the key
		- No capacity limit: the caller owns the size of its key space
	*/
	Set(key string, value any)

	/*
		Invalidate removes the entry for key.
		This operation is idempotent: invalidating an absent key is a no-op.
	*/
	Invalidate(key string)

	/*
		InvalidateAll clears every entry. Idempotent.
	*/
	InvalidateAll()

	/*
		IsStale reports whether key should be refetched, using the cache's
		default max age. An absent key is always stale.
	*/
	IsStale(key string) bool

	/*
		IsStaleAfter is IsStale with an explicit threshold.
		An entry exactly maxAge old is still fresh; anything older is stale.
	*/
	IsStaleAfter(key string, maxAge time.Duration) bool
}
