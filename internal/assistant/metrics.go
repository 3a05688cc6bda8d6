package assistant

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome sources.
const (
	sourceModel    = "model"
	sourceFallback = "fallback"
)

// Metrics counts model calls and how their results were used.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the assistant collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "budget",
			Subsystem: "ai",
			Name:      "requests_total",
			Help:      "AI-assisted operations by operation, result source and reason.",
		}, []string{"operation", "source", "reason"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "budget",
			Subsystem: "ai",
			Name:      "call_duration_seconds",
			Help:      "Latency of language model calls.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

func (m *Metrics) observe(operation, source string, err error) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(operation, source, reasonOf(err)).Inc()
}

func (m *Metrics) since(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func reasonOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnavailable):
		return "unavailable"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrMalformed):
		return "malformed"
	case errors.Is(err, ErrDegenerate):
		return "degenerate"
	default:
		return "error"
	}
}
