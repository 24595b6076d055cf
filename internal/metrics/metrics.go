package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	resolutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comparador",
		Name:      "resolutions_total",
		Help:      "Total number of query resolutions by backend and outcome",
	}, []string{"backend", "outcome"})
	tierFetches = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comparador",
		Name:      "tier_fetches_total",
		Help:      "Retrieval tier invocations by tier and outcome (hit, empty, error)",
	}, []string{"tier", "outcome"})
	cacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "comparador",
		Name:      "cache_lookups_total",
		Help:      "Resolution cache lookups by result (hit, miss, stale)",
	}, []string{"result"})
	resolutionDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "comparador",
		Name:      "resolution_duration_seconds",
		Help:      "Histogram of resolution durations in seconds by backend",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12), // 50ms up to ~100s for browser fallbacks
	}, []string{"backend"})
)

// Register initializes metrics with the global Prometheus registry (idempotent)
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(resolutions, tierFetches, cacheLookups, resolutionDuration)
	})
}

func IncResolution(backend, outcome string) { resolutions.WithLabelValues(backend, outcome).Inc() }
func IncTierFetch(tier, outcome string)     { tierFetches.WithLabelValues(tier, outcome).Inc() }
func IncCacheLookup(result string)          { cacheLookups.WithLabelValues(result).Inc() }
func ObserveResolutionDuration(backend string, d time.Duration) {
	resolutionDuration.WithLabelValues(backend).Observe(d.Seconds())
}
