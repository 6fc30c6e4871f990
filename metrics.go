package toxiproxy

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// clientMetrics instruments API round trips. It is optional; a nil
// receiver records nothing, so the hot path carries no conditionals at
// call sites.
type clientMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

func newClientMetrics(reg prometheus.Registerer) *clientMetrics {
	factory := promauto.With(reg)
	return &clientMetrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "toxiproxy",
			Subsystem: "client",
			Name:      "requests_total",
			Help:      "Total API requests issued, by operation and response code.",
		}, []string{"operation", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "toxiproxy",
			Subsystem: "client",
			Name:      "request_duration_seconds",
			Help:      "API request round trip latency, by operation.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

// observe records one round trip. code 0 means the transport failed before
// a response was received.
func (m *clientMetrics) observe(op string, code int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(op, strconv.Itoa(code)).Inc()
	m.duration.WithLabelValues(op).Observe(elapsed.Seconds())
}
