package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Blocked     prometheus.Counter
	StoreErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Blocked: f.NewCounter(prometheus.CounterOpts{
			Name: "complio_ratelimit_blocked_total",
			Help: "Requests rejected with 429",
		}),
		StoreErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "complio_ratelimit_store_errors_total",
			Help: "Limit checks that failed open because the store errored",
		}),
	}
}

func (m *Metrics) incBlocked() {
	if m != nil {
		m.Blocked.Inc()
	}
}

func (m *Metrics) incStoreError() {
	if m != nil {
		m.StoreErrors.Inc()
	}
}
