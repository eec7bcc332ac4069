// # internal/observability/metrics.go
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	ParsingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "focal_parsing_seconds",
		Help:    "Time spent parsing a source file.",
		Buckets: prometheus.DefBuckets,
	})

	EntriesProcessedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focal_entries_processed_total",
		Help: "Total number of entry points whose context was written.",
	})

	EntriesFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focal_entries_failed_total",
		Help: "Total number of entry points skipped due to per-entry failures.",
	})

	ClosureSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "focal_closure_size",
		Help:    "Number of names in a computed dependency set.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"set"})

	ExtractionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "focal_extraction_seconds",
		Help:    "Time spent computing and rendering one entry point's context.",
		Buckets: prometheus.DefBuckets,
	})

	RunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "focal_run_seconds",
		Help:    "Wall-clock time of a full extraction run.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focal_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})

	RescansThrottledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "focal_rescans_throttled_total",
		Help: "Total number of re-runs delayed by the rescan rate limit.",
	})
)
