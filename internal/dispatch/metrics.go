package dispatch

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "dispatch"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Number of write triggers, labelled by kind and outcome.
	Triggers metrics.Counter
	// Time spent in the signing surface per submitted write, in seconds.
	SubmitSeconds metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Triggers: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "triggers_total",
			Help:      "Number of write triggers by kind and outcome.",
		}, []string{"kind", "outcome"}),
		SubmitSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "submit_seconds",
			Help:      "Time spent handing a write to the signer.",
			Buckets:   stdprometheus.DefBuckets,
		}, []string{"kind"}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Triggers:      discard.NewCounter(),
		SubmitSeconds: discard.NewHistogram(),
	}
}
