package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the permit workflow.
type Metrics struct {
	PermitsCreated    prometheus.Counter
	ApprovalsRecorded *prometheus.CounterVec
	PermitsAdvanced   prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PermitsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "complio_permits_created_total",
			Help: "Total permits created",
		}),
		ApprovalsRecorded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "complio_permit_approvals_recorded_total",
			Help: "Total approval rows recorded by level and status",
		}, []string{"level", "status"}),
		PermitsAdvanced: factory.NewCounter(prometheus.CounterOpts{
			Name: "complio_permits_advanced_total",
			Help: "Approvals that changed the permit record",
		}),
	}
}

func (m *Metrics) IncrementCreated() {
	if m != nil {
		m.PermitsCreated.Inc()
	}
}

func (m *Metrics) IncrementApproval(level, status string) {
	if m != nil {
		m.ApprovalsRecorded.WithLabelValues(level, status).Inc()
	}
}

func (m *Metrics) IncrementAdvanced() {
	if m != nil {
		m.PermitsAdvanced.Inc()
	}
}
