// Package observability exposes prometheus metrics for the client's
// REST traffic and polling loops.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mozart",
		Subsystem: "client",
		Name:      "requests_total",
		Help:      "REST requests issued against the cluster, by endpoint and status code.",
	}, []string{"endpoint", "code"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "mozart",
		Subsystem: "client",
		Name:      "request_duration_seconds",
		Help:      "REST request latency, by endpoint.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	pollTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "mozart",
		Subsystem: "client",
		Name:      "poll_ticks_total",
		Help:      "Status checks performed by completion-polling loops.",
	})
)

// ObserveRequest Records one REST round trip. A code of zero means the
// request never produced a response.
func ObserveRequest(endpoint string, code int, elapsed time.Duration) {
	requestsTotal.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ObservePollTick Records one polling status check
func ObservePollTick() {
	pollTicks.Inc()
}
