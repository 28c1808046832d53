// This file defines the idea of a "refresh hook".
// The hook lets the cache do something extra WHEN data is read from the cache,
// such as noticing that the caller is rendering stale data.

package refresh

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/krisalay/ephemeral-cache/staleness"
	"github.com/krisalay/ephemeral-cache/types"
)

/*
Hook is the interface for read-side behavior.
If a hook is configured, it is called every time Get finds an entry.

The cache itself does NOT care what the hook does.
It just calls OnRead and moves on.
*/
type Hook interface {

	/*
		OnRead is called after a successful cache read.
		This method MUST be fast and non blocking because it runs on the hot read path.
	*/
	OnRead(key string, ent *types.CacheEntry)
}

// StaleLogger logs at debug level whenever a stale entry is served.
type StaleLogger struct {
	Clock  types.Clock
	MaxAge time.Duration
	Logger logrus.FieldLogger
}

func (s *StaleLogger) OnRead(key string, ent *types.CacheEntry) {
	now := s.Clock.Now()
	if !(staleness.MaxAge{}).IsStale(ent, now, s.MaxAge) {
		return
	}
	s.Logger.WithFields(logrus.Fields{
		"key": key,
		"age": ent.Age(now).String(),
	}).Debug("serving stale entry")
}
