package poller

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "poller"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Poll ticks by slot and result (accepted, stale, error, skipped).
	Polls metrics.Counter
	// Read latency per slot, in seconds.
	FetchSeconds metrics.Histogram
	// Number of fetches currently in flight.
	InFlight metrics.Gauge
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		Polls: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "polls_total",
			Help:      "Poll ticks by slot and result.",
		}, []string{"slot", "result"}),
		FetchSeconds: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "fetch_seconds",
			Help:      "Read endpoint latency.",
			Buckets:   stdprometheus.DefBuckets,
		}, []string{"slot"}),
		InFlight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "in_flight",
			Help:      "Fetches currently in flight.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Polls:        discard.NewCounter(),
		FetchSeconds: discard.NewHistogram(),
		InFlight:     discard.NewGauge(),
	}
}
