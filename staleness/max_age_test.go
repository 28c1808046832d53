package staleness_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/ephemeral-cache/staleness"
	"github.com/krisalay/ephemeral-cache/types"
)

func TestMaxAgeNilEntryIsStale(t *testing.T) {
	p := staleness.MaxAge{}
	assert.True(t, p.IsStale(nil, time.Now(), time.Hour))
	assert.True(t, p.IsStale(nil, time.Now(), 0))
}

func TestMaxAgeBoundary(t *testing.T) {
	p := staleness.MaxAge{}
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ent := &types.CacheEntry{Key: "k", Value: 1, StoredAt: t0}
	maxAge := 300000 * time.Millisecond

	cases := []struct {
		name  string
		now   time.Time
		stale bool
	}{
		{"just stored", t0, false},
		{"half way", t0.Add(maxAge / 2), false},
		{"exactly max age", t0.Add(maxAge), false},
		{"one nanosecond past", t0.Add(maxAge + time.Nanosecond), true},
		{"one millisecond past", t0.Add(maxAge + time.Millisecond), true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.stale, p.IsStale(ent, tc.now, maxAge))
		})
	}
}

func TestMaxAgeZeroAndNegative(t *testing.T) {
	p := staleness.MaxAge{}
	t0 := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	ent := &types.CacheEntry{Key: "k", StoredAt: t0}

	assert.False(t, p.IsStale(ent, t0, 0))
	assert.True(t, p.IsStale(ent, t0.Add(time.Nanosecond), 0))
	assert.True(t, p.IsStale(ent, t0, -time.Second))
}
