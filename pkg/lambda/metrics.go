package lambda

import (
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	outcomeOK           = "ok"
	outcomeHandlerFault = "handler_fault"
	outcomeDrainError   = "drain_error"
)

// Metrics tracks adapter invocations. A nil *Metrics records nothing.
type Metrics struct {
	mu sync.Mutex

	invocationsTotal *prometheus.CounterVec
	durationSeconds  prometheus.Histogram
	responseBytes    prometheus.Histogram

	registerer prometheus.Registerer
	registered bool
}

// NewMetrics creates the adapter collectors. They are not registered until
// Register is called.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &Metrics{
		registerer: registerer,
		invocationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lambda_http",
				Subsystem: "adapter",
				Name:      "invocations_total",
				Help:      "Total number of adapter invocations by outcome",
			},
			[]string{"outcome"},
		),
		durationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lambda_http",
			Subsystem: "adapter",
			Name:      "invocation_duration_seconds",
			Help:      "Time from request translation to buffered response",
			Buckets:   prometheus.DefBuckets,
		}),
		responseBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "lambda_http",
			Subsystem: "adapter",
			Name:      "response_body_bytes",
			Help:      "Size of fully drained response bodies",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 10),
		}),
	}
}

// Register registers the collectors. Safe to call multiple times.
func (m *Metrics) Register() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.registered {
		return nil
	}

	collectors := []prometheus.Collector{
		m.invocationsTotal,
		m.durationSeconds,
		m.responseBytes,
	}
	for _, c := range collectors {
		if err := m.registerer.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if !errors.As(err, &are) {
				return err
			}
		}
	}

	m.registered = true
	return nil
}

func (m *Metrics) observe(outcome string, latency time.Duration, size int) {
	if m == nil {
		return
	}
	m.invocationsTotal.WithLabelValues(outcome).Inc()
	m.durationSeconds.Observe(latency.Seconds())
	if outcome == outcomeOK {
		m.responseBytes.Observe(float64(size))
	}
}
