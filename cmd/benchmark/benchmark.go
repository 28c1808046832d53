package main

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"

	cache "github.com/krisalay/ephemeral-cache"
)

// ================= BENCHMARK =================

type benchConfig struct {
	shards      int
	preloadKeys int
	goroutines  int
	opsPerG     int
	writeEvery  int
}

func newBenchmarkCmd() *cobra.Command {
	cfg := benchConfig{}

	cmd := &cobra.Command{
		Use:   "benchmark",
		Short: "Concurrent load benchmark for the keyed ephemeral cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.goroutines <= 0 || cfg.opsPerG <= 0 || cfg.preloadKeys <= 0 {
				return errors.New("goroutines, ops and keys must be positive")
			}
			run(cfg)
			return nil
		},
	}

	cmd.Flags().IntVar(&cfg.shards, "shards", 16, "number of shards")
	cmd.Flags().IntVar(&cfg.preloadKeys, "keys", 100000, "keys stored before the run")
	cmd.Flags().IntVar(&cfg.goroutines, "goroutines", 200, "concurrent workers")
	cmd.Flags().IntVar(&cfg.opsPerG, "ops", 5000, "operations per worker")
	cmd.Flags().IntVar(&cfg.writeEvery, "write-every", 10, "every Nth operation is a Set (0 = read only)")
	return cmd
}

func run(cfg benchConfig) {
	fmt.Println("\n================ CACHE LOAD BENCHMARK =================")

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Shards       :", cfg.shards)
	fmt.Println("Preload Keys :", cfg.preloadKeys)
	fmt.Println("Goroutines   :", cfg.goroutines)
	fmt.Println("Ops/Goroutine:", cfg.opsPerG)
	fmt.Println("Write Every  :", cfg.writeEvery)
	fmt.Println("---------------------------------")

	c := cache.NewShardedCache(cfg.shards, nil)

	keys := make([]string, cfg.preloadKeys)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	// ---------------- Preload Cache ----------------
	fmt.Println("Preloading cache...")
	for i, k := range keys {
		c.Set(k, i)
	}
	fmt.Println("Preload complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(cfg.goroutines)

	for i := 0; i < cfg.goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < cfg.opsPerG; j++ {
				key := keys[(id+j)%len(keys)]
				if cfg.writeEvery > 0 && j%cfg.writeEvery == 0 {
					c.Set(key, j)
					continue
				}
				c.Get(key)
				c.IsStale(key)
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := cfg.goroutines * cfg.opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Printf("Entries          : %d\n", c.Len())
	fmt.Println("=========================================")
}

func main() {
	if err := newBenchmarkCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
