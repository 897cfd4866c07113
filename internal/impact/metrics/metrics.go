package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for impact analysis.
type Metrics struct {
	Analyses        prometheus.Counter
	AnalyzeDuration prometheus.Histogram
}

// New creates and registers all impact analyzer metrics.
func New() *Metrics {
	return &Metrics{
		Analyses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ontoreg_impact_analyses_total",
			Help: "Total number of impact analyses performed",
		}),
		AnalyzeDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "ontoreg_impact_analyze_duration_seconds",
			Help:    "Duration of impact analyses over the ancestor closure",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

// ObserveAnalyze records one completed analysis.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveAnalyze(start time.Time) {
	m.Analyses.Inc()
	m.AnalyzeDuration.Observe(time.Since(start).Seconds())
}
