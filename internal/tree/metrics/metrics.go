package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for tree assembly.
type Metrics struct {
	CacheHits     prometheus.Counter
	CacheMisses   prometheus.Counter
	Invalidations prometheus.Counter
	BuildLatency  prometheus.Histogram
	NodesPerTree  prometheus.Histogram
}

// New registers and returns tree metrics collectors.
func New() *Metrics {
	return &Metrics{
		CacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_tree_cache_hits_total",
			Help: "Total number of tree reads served from cache",
		}),
		CacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_tree_cache_misses_total",
			Help: "Total number of tree reads that required a rebuild",
		}),
		Invalidations: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_tree_cache_invalidations_total",
			Help: "Total number of cache invalidations from record writes",
		}),
		BuildLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_tree_build_latency_seconds",
			Help:    "Latency of full tree assembly in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		NodesPerTree: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_tree_nodes_per_tree",
			Help:    "Distribution of node counts per assembled tree",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
	}
}
