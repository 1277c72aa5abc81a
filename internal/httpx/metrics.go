package httpx

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records per-request counters and latencies.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the request collectors with registerer. A nil
// registerer falls back to prometheus.DefaultRegisterer. Collectors already
// registered by an earlier call are reused.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	return &Metrics{
		requestsTotal: register(registerer, prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cloudfiles_http_requests_total",
			Help: "Number of HTTP attempts issued, by client, method and status code",
		}, []string{"client", "method", "code"})),
		requestDuration: register(registerer, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cloudfiles_http_request_duration_seconds",
			Help:    "Latency of HTTP attempts in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}, []string{"client", "method"})),
	}
}

func register[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// observe records one attempt. code is 0 when the transport failed.
func (m *Metrics) observe(client, method string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requestsTotal.WithLabelValues(client, method, label).Inc()
	m.requestDuration.WithLabelValues(client, method).Observe(elapsed.Seconds())
}
