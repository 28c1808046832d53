package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	api "github.com/krisalay/ephemeral-cache/api"
	"github.com/krisalay/ephemeral-cache/types"
)

// DefaultBackgroundTimeout bounds a background refetch.
const DefaultBackgroundTimeout = 30 * time.Second

/*
Revalidator runs the stale-while-revalidate protocol on behalf of a caller.

It only talks to the cache through its public API:
- Get to serve whatever is there right now
- IsStale / IsStaleAfter to decide whether to refetch
- Set to publish the refetched value

The cache itself stays ignorant of how data is produced.
*/
type Revalidator struct {
	cache   api.Cache
	fetcher types.Fetcher

	// maxAge overrides the cache's default threshold when > 0.
	maxAge time.Duration

	// timeout bounds each background refetch.
	timeout time.Duration

	logger logrus.FieldLogger

	// sf makes sure concurrent loads of one key hit the fetcher once.
	sf singleflight.Group

	// inflight holds keys with a background refetch already scheduled.
	inflight sync.Map

	// mu orders wg.Add against Close so no refetch is added once Close waits.
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

/*
NewRevalidator creates a Revalidator.
maxAge <= 0 uses the cache's own default threshold.
*/
func NewRevalidator(c api.Cache, f types.Fetcher, maxAge time.Duration, logger logrus.FieldLogger) *Revalidator {
	if logger == nil {
		logger = types.DiscardLogger()
	}
	return &Revalidator{
		cache:   c,
		fetcher: f,
		maxAge:  maxAge,
		timeout: DefaultBackgroundTimeout,
		logger:  logger,
	}
}

// SetBackgroundTimeout changes the bound on background refetches.
func (r *Revalidator) SetBackgroundTimeout(d time.Duration) {
	r.timeout = d
}

/*
Load returns the value for key.

BEHAVIOR:
---------
1. Present and fresh: return it.
2. Present but stale: return it immediately and refetch in the background.
3. Absent: fetch synchronously, store, return.

Errors from the fetcher are returned only in case 3. They never reach the cache.
*/
func (r *Revalidator) Load(ctx context.Context, key string) (any, error) {
	if v, ok := r.cache.Get(key); ok {
		if r.isStale(key) {
			r.refreshInBackground(key)
		}
		return v, nil
	}

	v, err, _ := r.sf.Do(key, func() (any, error) {
		return r.fetchAndStore(ctx, key)
	})
	if err != nil {
		return nil, fmt.Errorf("load %q: %w", key, err)
	}
	return v, nil
}

// Refresh fetches key synchronously and stores the result, regardless of staleness.
func (r *Revalidator) Refresh(ctx context.Context, key string) error {
	_, err, _ := r.sf.Do(key, func() (any, error) {
		return r.fetchAndStore(ctx, key)
	})
	if err != nil {
		return fmt.Errorf("refresh %q: %w", key, err)
	}
	return nil
}

/*
Wait blocks until every scheduled background refetch has finished.
Call it only at quiescent points where no Load runs concurrently; use Close
to shut down while other goroutines may still be loading.
*/
func (r *Revalidator) Wait() {
	r.wg.Wait()
}

/*
Close stops scheduling background refetches and waits for the in-flight ones.
Load keeps working afterwards: stale values are served without a refetch and
absent keys are still fetched synchronously. Close is idempotent.
*/
func (r *Revalidator) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	r.wg.Wait()
}

func (r *Revalidator) isStale(key string) bool {
	if r.maxAge > 0 {
		return r.cache.IsStaleAfter(key, r.maxAge)
	}
	return r.cache.IsStale(key)
}

func (r *Revalidator) refreshInBackground(key string) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	if _, scheduled := r.inflight.LoadOrStore(key, struct{}{}); scheduled {
		r.mu.Unlock()
		return
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		defer r.inflight.Delete(key)

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		_, err, _ := r.sf.Do(key, func() (any, error) {
			return r.fetchAndStore(ctx, key)
		})
		if err != nil {
			r.logger.WithError(err).WithField("key", key).Warn("background refresh failed")
			return
		}
		r.logger.WithField("key", key).Debug("background refresh stored")
	}()
}

// fetchAndStore only calls Set when the fetch succeeded and was not cancelled.
func (r *Revalidator) fetchAndStore(ctx context.Context, key string) (any, error) {
	v, err := r.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.cache.Set(key, v)
	return v, nil
}
