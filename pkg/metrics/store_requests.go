package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreRequestMetrics records lifecycle transitions and precondition
// rejections for the store request engine.
type StoreRequestMetrics struct {
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
}

// NewStoreRequestMetrics registers the engine metrics on the provided registerer.
func NewStoreRequestMetrics(reg prometheus.Registerer) *StoreRequestMetrics {
	if reg == nil {
		return &StoreRequestMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_request_transitions_total",
		Help: "Store request lifecycle transitions by target state.",
	}, []string{"transition"})
	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "store_request_conflicts_total",
		Help: "Store request creations refused by a precondition check.",
	}, []string{"check"})
	reg.MustRegister(transitions, conflicts)
	return &StoreRequestMetrics{
		transitions: transitions,
		conflicts:   conflicts,
	}
}

// IncTransition increments the counter for the named transition
// (created, updated, approved, rejected, deleted).
func (m *StoreRequestMetrics) IncTransition(transition string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}

// IncConflict increments the counter for the named precondition check.
func (m *StoreRequestMetrics) IncConflict(check string) {
	if m == nil || m.conflicts == nil {
		return
	}
	m.conflicts.WithLabelValues(normalizeLabel(check)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
