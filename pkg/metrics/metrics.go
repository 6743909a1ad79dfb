package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all application metrics
type Metrics struct {
	ContactsDispatched *prometheus.CounterVec
	PassDuration       prometheus.Histogram
	PassErrors         prometheus.Counter
	QuotaSkips         prometheus.Counter
}

// New creates and registers all application metrics
func New(namespace string) *Metrics {
	return &Metrics{
		ContactsDispatched: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "contacts_dispatched_total",
			Help:      "Total number of dispatched contacts by terminal outcome",
		}, []string{"outcome"}),
		PassDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "scheduler_pass_duration_seconds",
			Help:      "Time spent on one scheduler pass over all accounts",
			Buckets:   prometheus.DefBuckets,
		}),
		PassErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_pass_errors_total",
			Help:      "Total number of scheduler passes aborted by an error",
		}),
		QuotaSkips: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scheduler_quota_skips_total",
			Help:      "Account turns skipped because a quota limit was reached",
		}),
	}
}
