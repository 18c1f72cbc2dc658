package publisher

import (
	audit "complio/pkg/platform/audit"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Emitted      *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	SinkFailures prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Emitted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complio_audit_events_emitted_total",
			Help: "Audit events written to the sink",
		}, []string{"stream"}),
		Dropped: f.NewCounterVec(prometheus.CounterOpts{
			Name: "complio_audit_events_dropped_total",
			Help: "Audit events dropped because the buffer was full",
		}, []string{"stream"}),
		SinkFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "complio_audit_sink_failures_total",
			Help: "Failed sink writes",
		}),
	}
}

func (m *Metrics) incEmitted(stream audit.Stream, n int) {
	if m == nil {
		return
	}
	m.Emitted.WithLabelValues(string(stream)).Add(float64(n))
}

func (m *Metrics) incDropped(stream audit.Stream) {
	if m == nil {
		return
	}
	m.Dropped.WithLabelValues(string(stream)).Inc()
}

func (m *Metrics) incSinkFailure() {
	if m == nil {
		return
	}
	m.SinkFailures.Inc()
}
