package engine

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "zarrdist"

// Metrics counts engine work.
type Metrics struct {
	// Tasks counts completed partition tasks by operation.
	Tasks *prometheus.CounterVec
	// ExchangedValues counts values placed by Exchange.
	ExchangedValues prometheus.Counter
	// MovedValues counts exchanged values that changed partition.
	MovedValues prometheus.Counter
	// MovedRows counts rows carried by moved values, reported by callers
	// that know the size of what they exchange.
	MovedRows prometheus.Counter
}

// NewMetrics creates the engine's collectors and registers them with reg
// when reg is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Tasks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "partition_tasks_total",
			Help:      "Number of completed partition tasks.",
		}, []string{"op"}),
		ExchangedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "exchanged_values_total",
			Help:      "Number of values placed by keyed exchanges.",
		}),
		MovedValues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "moved_values_total",
			Help:      "Number of exchanged values that changed partition.",
		}),
		MovedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "engine",
			Name:      "moved_rows_total",
			Help:      "Number of array rows that changed partition during realignment.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Tasks, m.ExchangedValues, m.MovedValues, m.MovedRows)
	}
	return m
}
