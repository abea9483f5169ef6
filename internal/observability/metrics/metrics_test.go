package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveTransition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveTransition("approve", "approved")
	m.ObserveTransition("approve", "approved")
	m.ObserveTransition("approve", "invalid_transition")

	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("approve", "approved")); got != 2 {
		t.Fatalf("expected 2 approved, got %v", got)
	}
	if got := testutil.ToFloat64(m.transitionsTotal.WithLabelValues("approve", "invalid_transition")); got != 1 {
		t.Fatalf("expected 1 invalid, got %v", got)
	}
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *SchedulingMetrics
	m.ObserveGeneration(3, 0.01)
	m.ObserveTransition("reject", "rejected")
	m.ObserveCommitConflict()
}

func TestObserveGeneration(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSchedulingMetrics(reg)

	m.ObserveGeneration(8, 0.002)
	if got := testutil.ToFloat64(m.slotsGenerated); got != 8 {
		t.Fatalf("expected 8 slots counted, got %v", got)
	}
}
