package recovery

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes the coordinator's retry/breaker/checkpoint activity as
// Prometheus collectors. Registration is the caller's choice; a nil
// *Metrics disables collection entirely.
type Metrics struct {
	Retries         *prometheus.CounterVec
	BreakerRejected prometheus.Counter
	Heals           prometheus.Counter
	CheckpointSaves prometheus.Counter
}

// NewMetrics constructs the collectors and, when reg is non-nil,
// registers them.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wipecore",
			Subsystem: "recovery",
			Name:      "retries_total",
			Help:      "Retries performed, by error class.",
		}, []string{"class"}),
		BreakerRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wipecore",
			Subsystem: "recovery",
			Name:      "breaker_rejected_total",
			Help:      "Calls rejected because the circuit breaker was open.",
		}),
		Heals: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wipecore",
			Subsystem: "recovery",
			Name:      "heals_total",
			Help:      "Successful self-heal attempts.",
		}),
		CheckpointSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wipecore",
			Subsystem: "recovery",
			Name:      "checkpoint_saves_total",
			Help:      "Checkpoint records saved.",
		}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.Retries, m.BreakerRejected, m.Heals, m.CheckpointSaves} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) retried(class string) {
	if m != nil {
		m.Retries.WithLabelValues(class).Inc()
	}
}

func (m *Metrics) rejected() {
	if m != nil {
		m.BreakerRejected.Inc()
	}
}

func (m *Metrics) healed() {
	if m != nil {
		m.Heals.Inc()
	}
}

func (m *Metrics) checkpointSaved() {
	if m != nil {
		m.CheckpointSaves.Inc()
	}
}
