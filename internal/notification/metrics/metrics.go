package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds Prometheus collectors for notification operations.
type Metrics struct {
	NotificationsCreated  *prometheus.CounterVec
	NotificationsRead     prometheus.Counter
	AccessRequestsCreated prometheus.Counter
	AccessRequestsAnswered *prometheus.CounterVec
	SuggestionsRedacted   prometheus.Counter
	ListLatency           prometheus.Histogram
}

// New registers and returns notification metrics collectors.
func New() *Metrics {
	return &Metrics{
		NotificationsCreated: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_notifications_created_total",
			Help: "Total number of notifications created, labeled by kind",
		}, []string{"kind"}),
		NotificationsRead: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_notifications_read_total",
			Help: "Total number of notifications marked read",
		}),
		AccessRequestsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_access_requests_created_total",
			Help: "Total number of suggestion access requests created",
		}),
		AccessRequestsAnswered: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "lineage_access_requests_answered_total",
			Help: "Total number of access requests answered, labeled by outcome",
		}, []string{"outcome"}),
		SuggestionsRedacted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "lineage_notification_suggestions_redacted_total",
			Help: "Total number of match groups whose suggestion details were withheld",
		}),
		ListLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "lineage_notification_list_latency_seconds",
			Help:    "Latency of notification list reads in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}
