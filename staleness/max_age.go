package staleness

import (
	"time"

	"github.com/krisalay/ephemeral-cache/types"
)

/*
MaxAge is the reference staleness rule: an entry is stale once strictly
more than maxAge has elapsed since it was stored.

Exactly maxAge old is still fresh.
*/
type MaxAge struct{}

func (MaxAge) IsStale(ent *types.CacheEntry, now time.Time, maxAge time.Duration) bool {
	if ent == nil {
		return true
	}
	return ent.Age(now) > maxAge
}
