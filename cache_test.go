package cache_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cache "github.com/krisalay/ephemeral-cache"
	"github.com/krisalay/ephemeral-cache/engine"
	"github.com/krisalay/ephemeral-cache/types"
)

//
// ================= TEST CLOCK =================
//

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

//
// ================= HELPER: CREATE CACHE =================
//

func newTestCache() (*cache.ShardedCache, *manualClock) {
	clock := newManualClock()
	eng := engine.NewCacheEngine(clock, nil, 5*time.Minute, nil, nil, nil)
	return cache.NewShardedCache(4, eng), clock
}

//
// ================= BASIC OPERATIONS =================
//

func TestNeverSetKeyIsAbsentAndStale(t *testing.T) {
	c, _ := newTestCache()

	for _, key := range []string{"missing", "", "products:page1"} {
		v, ok := c.Get(key)
		assert.False(t, ok, "key %q", key)
		assert.Nil(t, v)
		assert.True(t, c.IsStale(key))
		assert.True(t, c.IsStaleAfter(key, time.Hour))
		assert.True(t, c.IsStaleAfter(key, 0))
	}
}

func TestSetThenGet(t *testing.T) {
	c, _ := newTestCache()

	c.Set("key1", "value1")

	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, "value1", v)
	assert.False(t, c.IsStale("key1"))
	assert.False(t, c.IsStaleAfter("key1", time.Nanosecond))
	assert.False(t, c.IsStaleAfter("key1", time.Hour))
}

func TestEmptyKeyIsOrdinary(t *testing.T) {
	c, _ := newTestCache()

	c.Set("", 42)
	v, ok := c.Get("")
	require.True(t, ok)
	assert.Equal(t, 42, v)

	c.Invalidate("")
	_, ok = c.Get("")
	assert.False(t, ok)
}

func TestNilValueIsPresent(t *testing.T) {
	c, _ := newTestCache()

	c.Set("nothing", nil)
	v, ok := c.Get("nothing")
	assert.True(t, ok)
	assert.Nil(t, v)
	assert.False(t, c.IsStale("nothing"))
}

func TestSetReplacesValueAndResetsClock(t *testing.T) {
	c, clock := newTestCache()

	c.Set("key1", []string{"A", "B"})
	clock.Advance(4 * time.Minute)
	c.Set("key1", map[string]int{"n": 2})

	v, ok := c.Get("key1")
	require.True(t, ok)
	assert.Equal(t, map[string]int{"n": 2}, v)

	age, ok := c.Age("key1")
	require.True(t, ok)
	assert.Equal(t, time.Duration(0), age)

	// 4m after the second store: would be 8m after the first.
	clock.Advance(4 * time.Minute)
	assert.False(t, c.IsStale("key1"))
	assert.Equal(t, 1, c.Len())
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache()

	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.True(t, c.IsStaleAfter("a", time.Hour))

	// idempotent
	c.Invalidate("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	v, ok := c.Get("b")
	require.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestInvalidateNeverSetKeyIsNoop(t *testing.T) {
	c, _ := newTestCache()

	assert.NotPanics(t, func() { c.Invalidate("cart:summary") })
	assert.Equal(t, 0, c.Len())
}

func TestInvalidateAll(t *testing.T) {
	c, _ := newTestCache()

	for i := 0; i < 50; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i)
	}
	require.Equal(t, 50, c.Len())

	c.InvalidateAll()
	assert.Equal(t, 0, c.Len())
	for i := 0; i < 50; i++ {
		_, ok := c.Get(fmt.Sprintf("key-%d", i))
		assert.False(t, ok)
	}

	assert.NotPanics(t, c.InvalidateAll)

	// keys can cycle back to present
	c.Set("key-1", "again")
	v, ok := c.Get("key-1")
	require.True(t, ok)
	assert.Equal(t, "again", v)
}

func TestInvalidatePrefix(t *testing.T) {
	c, _ := newTestCache()

	c.Set("products:page1", 1)
	c.Set("products:page2", 2)
	c.Set("product-detail:9", 3)
	c.Set("cart:summary", 4)

	assert.Equal(t, 2, c.InvalidatePrefix("products:"))
	assert.Equal(t, 0, c.InvalidatePrefix("products:"))
	assert.Equal(t, 2, c.Len())

	_, ok := c.Get("product-detail:9")
	assert.True(t, ok)
}

func TestAgeOfAbsentKey(t *testing.T) {
	c, _ := newTestCache()

	_, ok := c.Age("nope")
	assert.False(t, ok)
}

//
// ================= STALENESS =================
//

func TestStalenessBoundary(t *testing.T) {
	c, clock := newTestCache()
	maxAge := 2 * time.Second

	c.Set("k", "v")

	clock.Advance(maxAge)
	assert.False(t, c.IsStaleAfter("k", maxAge))

	clock.Advance(time.Nanosecond)
	assert.True(t, c.IsStaleAfter("k", maxAge))

	// stale data is still readable
	v, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", v)
}

func TestDefaultMaxAgeIsConfigurable(t *testing.T) {
	clock := newManualClock()
	c := cache.NewShardedCache(1, engine.NewCacheEngine(clock, nil, 30*time.Second, nil, nil, nil))
	assert.Equal(t, 30*time.Second, c.DefaultMaxAge())

	c.Set("k", 1)
	clock.Advance(31 * time.Second)
	assert.True(t, c.IsStale("k"))
	assert.False(t, c.IsStaleAfter("k", time.Minute))
}

func TestDefaultsWithNilEngine(t *testing.T) {
	c := cache.NewShardedCache(0, nil)
	assert.Equal(t, 5*time.Minute, c.DefaultMaxAge())

	c.Set("k", 1)
	assert.False(t, c.IsStale("k"))
}

func TestProductPageScenario(t *testing.T) {
	c, clock := newTestCache()
	key := "products:page1"

	c.Set(key, []string{"A", "B"})

	v, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B"}, v)
	assert.False(t, c.IsStaleAfter(key, 300000*time.Millisecond))

	clock.Advance(300001 * time.Millisecond)
	assert.True(t, c.IsStaleAfter(key, 300000*time.Millisecond))

	// caller refetches
	c.Set(key, []string{"A", "B", "C"})

	v, ok = c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, v)
	assert.False(t, c.IsStaleAfter(key, 300000*time.Millisecond))
}

//
// ================= TYPED ACCESS =================
//

type product struct {
	ID    string
	Price int
}

func TestGetAs(t *testing.T) {
	c, _ := newTestCache()

	c.Set("product:1", product{ID: "1", Price: 999})

	p, ok := cache.GetAs[product](c, "product:1")
	require.True(t, ok)
	assert.Equal(t, 999, p.Price)

	// wrong type at the call site
	s, ok := cache.GetAs[string](c, "product:1")
	assert.False(t, ok)
	assert.Empty(t, s)

	_, ok = cache.GetAs[product](c, "product:2")
	assert.False(t, ok)

	// the cache does not enforce per-key types
	c.Set("product:1", "now a string")
	s, ok = cache.GetAs[string](c, "product:1")
	require.True(t, ok)
	assert.Equal(t, "now a string", s)
}

//
// ================= HOOKS =================
//

type recordingHook struct {
	mu   sync.Mutex
	keys []string
}

func (h *recordingHook) OnRead(key string, _ *types.CacheEntry) {
	h.mu.Lock()
	h.keys = append(h.keys, key)
	h.mu.Unlock()
}

func TestRefreshHookRunsOnHitOnly(t *testing.T) {
	hook := &recordingHook{}
	c := cache.NewShardedCache(2, engine.NewCacheEngine(nil, nil, 0, hook, nil, nil))

	c.Set("a", 1)
	c.Get("a")
	c.Get("b")

	assert.Equal(t, []string{"a"}, hook.keys)
}

//
// ================= CONCURRENCY TEST =================
//

func TestConcurrentSetsOnOneKeyNeverTear(t *testing.T) {
	var tick int64
	var tickMu sync.Mutex
	clock := types.ClockFunc(func() time.Time {
		tickMu.Lock()
		defer tickMu.Unlock()
		tick++
		return time.Unix(0, tick)
	})
	c := cache.NewShardedCache(4, engine.NewCacheEngine(clock, nil, 0, nil, nil, nil))

	// Each writer stores its own id; readers must only ever see 1 or 2.
	wg := sync.WaitGroup{}
	for w := 1; w <= 2; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Set("x", id)
			}
		}(w)
	}

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if v, ok := c.Get("x"); ok {
					id, isInt := v.(int)
					if !isInt || (id != 1 && id != 2) {
						t.Errorf("unexpected value %v", v)
					}
				}
				c.IsStale("x")
			}
		}()
	}
	wg.Wait()

	v, ok := c.Get("x")
	require.True(t, ok)
	assert.Contains(t, []any{1, 2}, v)
	assert.Equal(t, 1, c.Len())
}

func TestConcurrentDistinctKeys(t *testing.T) {
	c, _ := newTestCache()

	wg := sync.WaitGroup{}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("g%d:key%d", g, i)
				c.Set(key, i)
				if v, ok := c.Get(key); !ok || v != i {
					t.Errorf("key %s: got %v, %v", key, v, ok)
				}
				if i%2 == 0 {
					c.Invalidate(key)
				}
			}
		}(g)
	}
	wg.Wait()

	assert.Equal(t, 8*100, c.Len())
}
