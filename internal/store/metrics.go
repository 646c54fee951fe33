package store

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics instruments store operations. All methods are nil-safe so the
// store can run without a registry (e.g. short-lived CLI invocations).
type Metrics struct {
	ops         *prometheus.CounterVec
	cacheHits   prometheus.Counter
	cacheMisses prometheus.Counter
}

// NewMetrics builds and registers the store metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "worldwise",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Settled store operations by operation and outcome.",
		}, []string{"op", "outcome"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldwise",
			Subsystem: "store",
			Name:      "city_cache_hits_total",
			Help:      "Single-city lookups served from the focused-city cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "worldwise",
			Subsystem: "store",
			Name:      "city_cache_misses_total",
			Help:      "Single-city lookups that went to the remote service.",
		}),
	}
	reg.MustRegister(m.ops, m.cacheHits, m.cacheMisses)
	return m
}

func (m *Metrics) observeOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.ops.WithLabelValues(op, outcome).Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
	} else {
		m.cacheMisses.Inc()
	}
}
