package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the version store.
type Metrics struct {
	VersionsCreated    prometheus.Counter
	VersionsReleased   prometheus.Counter
	VersionsDeprecated prometheus.Counter
	ReleaseDuration    prometheus.Histogram
}

// New creates and registers all version store metrics.
func New() *Metrics {
	return &Metrics{
		VersionsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_versions_created_total",
			Help: "Total number of versions created",
		}),
		VersionsReleased: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_versions_released_total",
			Help: "Total number of versions released",
		}),
		VersionsDeprecated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_versions_deprecated_total",
			Help: "Total number of versions deprecated",
		}),
		ReleaseDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontoreg_release_duration_seconds",
			Help:    "Duration of release operations including dependency validation",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

// IncrementCreated records a version creation.
func (m *Metrics) IncrementCreated() {
	m.VersionsCreated.Inc()
}

// IncrementReleased records a successful release.
func (m *Metrics) IncrementReleased() {
	m.VersionsReleased.Inc()
}

// IncrementDeprecated records a successful deprecation.
func (m *Metrics) IncrementDeprecated() {
	m.VersionsDeprecated.Inc()
}

// ObserveRelease records the duration of a release operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveRelease(start time.Time) {
	m.ReleaseDuration.Observe(time.Since(start).Seconds())
}
