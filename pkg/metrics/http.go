package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// Latency of every HTTP handler, by route pattern
	HTTPRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "caption_http_request_duration_seconds",
		Help:    "Latency of HTTP handlers",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})

	// Total number of HTTP requests served
	HTTPRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "caption_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})
)

var once sync.Once

// Init registers the HTTP collectors with the default registry. Safe to call
// more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(
			HTTPRequestDuration,
			HTTPRequests,
		)
	})
}
