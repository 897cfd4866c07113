package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the import graph.
type Metrics struct {
	ImportsAdded    prometheus.Counter
	ImportsRemoved  prometheus.Counter
	CycleRejections prometheus.Counter
	ResolveDuration prometheus.Histogram
}

// New creates and registers all import graph metrics.
func New() *Metrics {
	return &Metrics{
		ImportsAdded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_imports_added_total",
			Help: "Total number of import edges added",
		}),
		ImportsRemoved: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_imports_removed_total",
			Help: "Total number of import edges removed",
		}),
		CycleRejections: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_import_cycle_rejections_total",
			Help: "Total number of import additions rejected for creating a cycle",
		}),
		ResolveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontoreg_resolver_closure_duration_seconds",
			Help:    "Duration of ancestor/descendant closure computations",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}
}

// IncrementImportsAdded records a successful edge addition.
func (m *Metrics) IncrementImportsAdded() {
	m.ImportsAdded.Inc()
}

// IncrementImportsRemoved records a successful edge removal.
func (m *Metrics) IncrementImportsRemoved() {
	m.ImportsRemoved.Inc()
}

// IncrementCycleRejections records an addition rejected by the cycle guard.
func (m *Metrics) IncrementCycleRejections() {
	m.CycleRejections.Inc()
}

// ObserveResolve records the duration of one closure computation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveResolve(start time.Time) {
	m.ResolveDuration.Observe(time.Since(start).Seconds())
}
