package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cache "github.com/krisalay/ephemeral-cache"
	"github.com/krisalay/ephemeral-cache/config"
	"github.com/krisalay/ephemeral-cache/engine"
	"github.com/krisalay/ephemeral-cache/metrics"
	"github.com/krisalay/ephemeral-cache/refresh"
	"github.com/krisalay/ephemeral-cache/types"
)

var version = "dev"

// ================= FAKE CATALOGUE API =================

// catalogue stands in for the remote commerce API. Every fetch of a
// products page returns one more product than the last.
type catalogue struct {
	calls atomic.Int32
	delay time.Duration
}

func (c *catalogue) Fetch(ctx context.Context, key string) (any, error) {
	n := int(c.calls.Add(1))
	fmt.Println("API    → fetch:", key)

	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if !strings.HasPrefix(key, "products:") {
		return nil, fmt.Errorf("unknown resource %q", key)
	}

	products := make([]string, 0, n+1)
	for i := 0; i <= n; i++ {
		products = append(products, string(rune('A'+i)))
	}
	return products, nil
}

// ================= COMMANDS =================

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ephemeral-cache",
		Short: "Keyed ephemeral cache",
		Long: `Keyed ephemeral cache - an in-memory, process-wide store that memoizes
fetched data and decides when it must be treated as stale.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newDemoCmd(), newVersionCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

// demoOptions are the walkthrough knobs that are not part of config.
type demoOptions struct {
	apiDelay        time.Duration
	revalidateAfter time.Duration
	linger          time.Duration
}

func newDemoCmd() *cobra.Command {
	var (
		maxAge time.Duration
		opts   demoOptions
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the products page stale-while-revalidate walkthrough",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadDemoConfig(cmd, maxAge)
			if err != nil {
				return err
			}
			return runDemo(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "cache default max age (overrides CACHE_DEFAULT_MAX_AGE)")
	cmd.Flags().DurationVar(&opts.revalidateAfter, "revalidate-after", time.Second, "max age the product screen revalidates after")
	cmd.Flags().DurationVar(&opts.apiDelay, "api-delay", 100*time.Millisecond, "simulated API latency")
	cmd.Flags().DurationVar(&opts.linger, "linger", 0, "keep serving /metrics this long after the walkthrough")
	return cmd
}

// loadDemoConfig loads config and applies --max-age only when it was given.
func loadDemoConfig(cmd *cobra.Command, maxAge time.Duration) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if cmd.Flags().Changed("max-age") {
		cfg.Cache.DefaultMaxAge = maxAge
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("--max-age: %w", err)
		}
	}
	return cfg, nil
}

// ================= DEMO =================

func runDemo(ctx context.Context, cfg *config.Config, opts demoOptions) error {
	logger := config.NewLogger(cfg.Log)

	prom, err := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("register metrics: %w", err)
	}

	stopMetrics := serveMetrics(cfg.Metrics.Addr, logger)
	defer stopMetrics()

	// ---------------- Composition root ----------------
	clock := types.SystemClock{}
	eng := engine.NewCacheEngine(
		clock,
		nil,
		cfg.Cache.DefaultMaxAge,
		&refresh.StaleLogger{Clock: clock, MaxAge: cfg.Cache.DefaultMaxAge, Logger: logger},
		prom,
		logger,
	)
	c := cache.NewShardedCache(cfg.Cache.Shards, eng)
	if err := prom.TrackEntries(c.Len); err != nil {
		return fmt.Errorf("register entries gauge: %w", err)
	}

	api := &catalogue{delay: opts.apiDelay}
	products := refresh.NewRevalidator(c, api, opts.revalidateAfter, logger)
	defer products.Close()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("SHARDS          :", cfg.Cache.Shards)
	fmt.Println("DEFAULT MAX AGE :", c.DefaultMaxAge())
	fmt.Println("REVALIDATE AFTER:", opts.revalidateAfter)
	fmt.Println("API LATENCY     :", opts.apiDelay)

	const page = "products:page1"

	// ====================================================
	fmt.Println("\n==================== 1) FIRST RENDER (ABSENT) ====================")
	if _, ok := c.Get(page); !ok {
		fmt.Println("SCREEN → nothing cached, render loading state")
	}
	v, err := products.Load(ctx, page)
	if err != nil {
		return err
	}
	fmt.Println("SCREEN → render", v)

	// ====================================================
	fmt.Println("\n==================== 2) SECOND RENDER (FRESH) ====================")
	v, _ = products.Load(ctx, page)
	fmt.Println("SCREEN → render", v, "stale =", c.IsStaleAfter(page, opts.revalidateAfter))

	// ====================================================
	fmt.Println("\n==================== 3) STALE-WHILE-REVALIDATE ====================")
	time.Sleep(opts.revalidateAfter + 10*time.Millisecond)
	fmt.Println("CACHE  → stale =", c.IsStaleAfter(page, opts.revalidateAfter))
	v, _ = products.Load(ctx, page)
	fmt.Println("SCREEN → render stale", v, "while refetching")
	products.Wait()
	v, _ = c.Get(page)
	fmt.Println("SCREEN → re-render", v)

	// ====================================================
	fmt.Println("\n==================== 4) TYPED READ ====================")
	if list, ok := cache.GetAs[[]string](c, page); ok {
		fmt.Println("SCREEN → product count =", len(list))
	}

	// ====================================================
	fmt.Println("\n==================== 5) PLACE ORDER (INVALIDATE) ====================")
	c.Set("cart:summary", map[string]int{"items": 3})
	removed := c.InvalidatePrefix("products:")
	c.Invalidate("cart:summary")
	fmt.Println("CACHE  → invalidated", removed, "product pages and the cart")
	fmt.Println("CACHE  →", page, "stale =", c.IsStale(page))

	// ====================================================
	fmt.Println("\n==================== 6) FETCH ERROR ====================")
	if _, err := products.Load(ctx, "reviews:page1"); err != nil {
		fmt.Println("SCREEN → render error state:", err)
	}

	// ====================================================
	fmt.Println("\n==================== 7) LOG OUT (INVALIDATE ALL) ====================")
	c.InvalidateAll()
	fmt.Println("CACHE  → entries =", c.Len())
	fmt.Println("API    → total fetches =", api.calls.Load())

	if opts.linger > 0 && cfg.Metrics.Addr != "" {
		fmt.Println("\nServing /metrics on", cfg.Metrics.Addr, "for", opts.linger)
		time.Sleep(opts.linger)
	}
	return nil
}

// serveMetrics exposes promhttp on addr. An empty addr disables it.
func serveMetrics(addr string, logger logrus.FieldLogger) func() {
	if addr == "" {
		return func() {}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.WithField("addr", addr).Info("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("metrics endpoint failed")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.WithError(err).Warn("metrics endpoint shutdown")
		}
		wg.Wait()
	}
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
