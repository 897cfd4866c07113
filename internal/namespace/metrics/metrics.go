package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the namespace registry.
type Metrics struct {
	Registered prometheus.Counter
	Deleted    prometheus.Counter
}

// New creates and registers all registry metrics.
func New() *Metrics {
	return &Metrics{
		Registered: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_namespaces_registered_total",
			Help: "Total number of namespaces registered",
		}),
		Deleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_namespaces_deleted_total",
			Help: "Total number of namespaces deleted",
		}),
	}
}

// IncrementRegistered records a successful registration.
func (m *Metrics) IncrementRegistered() {
	m.Registered.Inc()
}

// IncrementDeleted records a successful deletion.
func (m *Metrics) IncrementDeleted() {
	m.Deleted.Inc()
}
