package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics instruments strategy executions. Passing a nil registerer creates
// unregistered metrics, which keeps tests and embedders free of global
// registry collisions.
type Metrics struct {
	generations  *prometheus.CounterVec
	enhancements prometheus.Counter
	ttftSeconds  *prometheus.HistogramVec
}

// NewMetrics creates the execution metric set on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "swarm",
			Subsystem: "execution",
			Name:      "generations_total",
			Help:      "Generations by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		enhancements: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "swarm",
			Subsystem: "execution",
			Name:      "enhancements_total",
			Help:      "Speculative runs whose smart result was appended.",
		}),
		ttftSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "swarm",
			Subsystem: "execution",
			Name:      "time_to_first_token_seconds",
			Help:      "Latency from request start to first streamed fragment.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}, []string{"model"}),
	}
}

func (m *Metrics) observeOutcome(strategy, outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) observeEnhancement() {
	if m == nil {
		return
	}
	m.enhancements.Inc()
}

func (m *Metrics) observeTTFT(model string, seconds float64) {
	if m == nil {
		return
	}
	m.ttftSeconds.WithLabelValues(model).Observe(seconds)
}
