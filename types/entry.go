package types

import "time"

// CacheEntry is immutable once stored. A new Set builds a new entry,
// so Value and StoredAt always travel together.
type CacheEntry struct {
	Key      string
	Value    any
	StoredAt time.Time
}

// Age returns how long ago the entry was stored, relative to now.
func (e *CacheEntry) Age(now time.Time) time.Duration {
	return now.Sub(e.StoredAt)
}
