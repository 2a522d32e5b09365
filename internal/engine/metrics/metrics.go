package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for the analysis engine.
type Metrics struct {
	AnalysesTotal   *prometheus.CounterVec
	MatchesFound    *prometheus.CounterVec
	TasksDropped    prometheus.Counter
	QueueDepth      prometheus.Gauge
	AnalysisLatency prometheus.Histogram
}

// New registers and returns engine metrics collectors.
func New() *Metrics {
	return &Metrics{
		AnalysesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_analyses_total",
			Help: "Total number of analysis runs, labeled by outcome",
		}, []string{"outcome"}),
		MatchesFound: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_analysis_matches_total",
			Help: "Total number of similar record pairs found, labeled by scope",
		}, []string{"scope"}),
		TasksDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_analysis_tasks_dropped_total",
			Help: "Total number of analysis tasks dropped because the queue was full",
		}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "lineage_analysis_queue_depth",
			Help: "Current number of analysis tasks waiting in the queue",
		}),
		AnalysisLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_analysis_latency_seconds",
			Help:    "Latency of full analysis runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
