// This file defines how the cache decides that an entry is too old to trust.

package staleness

import (
	"time"

	"github.com/krisalay/ephemeral-cache/types"
)

/*
Policy is the interface every staleness rule must follow.

Staleness is derived, never stored: a Policy is a pure function of the
entry, the current time and the age threshold. It must not mutate the entry.
*/
type Policy interface {

	// IsStale reports whether ent should be refetched. A nil entry is absent,
	// and absent is always stale.
	IsStale(ent *types.CacheEntry, now time.Time, maxAge time.Duration) bool
}

// DefaultMaxAge is the threshold used when nothing else is configured.
const DefaultMaxAge = 5 * time.Minute
