package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "wastedetect_requests_total",
	Help: "Requests handled per endpoint and outcome",
}, []string{"endpoint", "outcome"})

var UpstreamDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "wastedetect_upstream_duration_seconds",
	Help:    "Latency of calls to the classification model and the document store",
	Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
}, []string{"target", "outcome"})

// Outcome labels
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

func outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// ObserveRequest counts one finished request for endpoint
func ObserveRequest(endpoint string, err error) {
	RequestsTotal.WithLabelValues(endpoint, outcome(err)).Inc()
}

// ObserveUpstream records the duration of an outbound call started at start
func ObserveUpstream(target string, start time.Time, err error) {
	UpstreamDuration.WithLabelValues(target, outcome(err)).Observe(time.Since(start).Seconds())
}
