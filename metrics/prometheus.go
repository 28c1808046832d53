package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/krisalay/ephemeral-cache/types"
)

const namespace = "ephemeral_cache"

var _ types.Metrics = (*Prometheus)(nil)

// Prometheus is a types.Metrics sink backed by Prometheus collectors.
type Prometheus struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	stores        prometheus.Counter
	invalidations prometheus.Counter
	removed       prometheus.Counter
	stale         prometheus.Counter

	reg prometheus.Registerer
}

// NewPrometheus creates the collectors and registers them on reg.
// Pass prometheus.DefaultRegisterer to expose them on promhttp.Handler().
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	m := &Prometheus{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hits_total",
			Help:      "Total number of reads that found an entry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "misses_total",
			Help:      "Total number of reads of absent keys",
		}),
		stores: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stores_total",
			Help:      "Total number of Set calls",
		}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidations_total",
			Help:      "Total number of invalidation calls (single key, prefix or all)",
		}),
		removed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invalidated_entries_total",
			Help:      "Total number of entries removed by invalidation",
		}),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_checks_total",
			Help:      "Total number of staleness checks that reported stale",
		}),
		reg: reg,
	}

	for _, c := range []prometheus.Collector{m.hits, m.misses, m.stores, m.invalidations, m.removed, m.stale} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Prometheus) Hit()   { m.hits.Inc() }
func (m *Prometheus) Miss()  { m.misses.Inc() }
func (m *Prometheus) Store() { m.stores.Inc() }
func (m *Prometheus) Stale() { m.stale.Inc() }

func (m *Prometheus) Invalidate(removed int) {
	m.invalidations.Inc()
	m.removed.Add(float64(removed))
}

/*
TrackEntries registers an entries gauge that calls count on every scrape,
typically ShardedCache.Len. It can be registered once per registerer.
*/
func (m *Prometheus) TrackEntries(count func() int) error {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "entries",
		Help:      "Current number of cached entries",
	}, func() float64 {
		return float64(count())
	})
	return m.reg.Register(gauge)
}
