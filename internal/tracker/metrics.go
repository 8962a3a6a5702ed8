package tracker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rebuildsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_rebuilds_total",
		Help: "Completed population dominance rebuilds.",
	})
	rebuildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "frontier_rebuild_duration_seconds",
		Help:    "Wall time of one full dominance rebuild.",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
	})
	checkedPairsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_checked_pairs_total",
		Help: "Candidate/target pairs evaluated across all rebuilds.",
	})
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_cache_hits_total",
		Help: "Snapshot requests served from the block cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_cache_misses_total",
		Help: "Snapshot requests that triggered a rebuild.",
	})
	cacheEvictionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_cache_evictions_total",
		Help: "Cached snapshots discarded by a forced refresh.",
	})
	emptySnapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "frontier_empty_snapshots_total",
		Help: "Rebuilds that short-circuited to an empty snapshot.",
	})
)
