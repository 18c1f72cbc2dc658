package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the non-conformance module.
type Metrics struct {
	CasesCreated    *prometheus.CounterVec
	CasesClosed     prometheus.Counter
	CloseRejected   prometheus.Counter
	CascadeFailures prometheus.Counter
	CloseDuration   prometheus.Histogram
}

// New registers the module's collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		CasesCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complio_nc_cases_created_total",
			Help: "Total non-conformance cases created by case type",
		}, []string{"case_type"}),
		CasesClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "complio_nc_cases_closed_total",
			Help: "Total non-conformance cases closed",
		}),
		CloseRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "complio_nc_close_rejected_total",
			Help: "Close attempts rejected because actions were still open",
		}),
		CascadeFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "complio_nc_cascade_failures_total",
			Help: "Linked global actions that could not be marked completed after a closure",
		}),
		CloseDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "complio_nc_close_duration_seconds",
			Help:    "Duration of Close including the global action cascade",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

func (m *Metrics) IncrementCreated(caseType string) {
	if m != nil {
		m.CasesCreated.WithLabelValues(caseType).Inc()
	}
}

func (m *Metrics) IncrementClosed() {
	if m != nil {
		m.CasesClosed.Inc()
	}
}

func (m *Metrics) IncrementCloseRejected() {
	if m != nil {
		m.CloseRejected.Inc()
	}
}

func (m *Metrics) AddCascadeFailures(n int) {
	if m != nil && n > 0 {
		m.CascadeFailures.Add(float64(n))
	}
}

// ObserveClose records the duration of a Close call started at start.
func (m *Metrics) ObserveClose(start time.Time) {
	if m != nil {
		m.CloseDuration.Observe(time.Since(start).Seconds())
	}
}
