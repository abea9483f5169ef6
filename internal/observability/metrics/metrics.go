package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the scheduling core.
type SchedulingMetrics struct {
	slotsGenerated    prometheus.Counter
	generationSeconds prometheus.Histogram
	transitionsTotal  *prometheus.CounterVec
	conflictsTotal    prometheus.Counter
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		slotsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nourish",
			Subsystem: "scheduling",
			Name:      "slots_generated_total",
			Help:      "Total bookable slots returned by the generator",
		}),
		generationSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nourish",
			Subsystem: "scheduling",
			Name:      "generation_seconds",
			Help:      "Latency of slot generation queries",
			Buckets:   prometheus.DefBuckets,
		}),
		transitionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nourish",
			Subsystem: "scheduling",
			Name:      "transitions_total",
			Help:      "Session request transitions by event and outcome",
		}, []string{"event", "outcome"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "nourish",
			Subsystem: "scheduling",
			Name:      "commit_conflicts_total",
			Help:      "Approvals that lost the race to a concurrent booking",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.slotsGenerated, m.generationSeconds, m.transitionsTotal, m.conflictsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveGeneration(slots int, seconds float64) {
	if m == nil {
		return
	}
	m.slotsGenerated.Add(float64(slots))
	m.generationSeconds.Observe(seconds)
}

func (m *SchedulingMetrics) ObserveTransition(event, outcome string) {
	if m == nil {
		return
	}
	m.transitionsTotal.WithLabelValues(event, outcome).Inc()
}

func (m *SchedulingMetrics) ObserveCommitConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}
