package types

import "time"

/*
Clock is where the cache gets "now" from.

Staleness is computed on every check from (now, StoredAt, maxAge),
so swapping the clock is all a test needs to move time forward.
*/
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a plain function to the Clock interface.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }
