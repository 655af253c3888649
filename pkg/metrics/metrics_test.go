package metrics

import (
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}

	// Verify all metrics are initialized
	if r.RecalcsTotal == nil {
		t.Error("RecalcsTotal not initialized")
	}
	if r.RecalcDuration == nil {
		t.Error("RecalcDuration not initialized")
	}
	if r.ViolationsByType == nil {
		t.Error("ViolationsByType not initialized")
	}
	if r.NetworkNodesTotal == nil {
		t.Error("NetworkNodesTotal not initialized")
	}
	if r.registry == nil {
		t.Error("Prometheus registry not initialized")
	}
}

func TestDefaultRegistry(t *testing.T) {
	// Should return the same instance
	r1 := DefaultRegistry()
	r2 := DefaultRegistry()

	if r1 != r2 {
		t.Error("DefaultRegistry() should return the same instance")
	}
}

func TestRecordRecalc(t *testing.T) {
	r := NewRegistry()

	r.RecordRecalc("topology_changed", "ok", 100*time.Millisecond)
	r.RecordRecalc("topology_changed", "ok", 50*time.Millisecond)
	r.RecordRecalc("preset_changed", "error", 10*time.Millisecond)

	counter, err := r.RecalcsTotal.GetMetricWithLabelValues("topology_changed", "ok")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}

	var metric dto.Metric
	if err := counter.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetCounter().GetValue(); got != 2 {
		t.Errorf("RecalcsTotal = %v, want 2", got)
	}
}

func TestUpdateResultSummary(t *testing.T) {
	r := NewRegistry()

	r.UpdateResultSummary(
		map[string]int{"FillViolation": 3},
		map[string]int{"ok": 5, "error": 1},
	)

	gauge, err := r.ViolationsByType.GetMetricWithLabelValues("FillViolation")
	if err != nil {
		t.Fatalf("Failed to get metric: %v", err)
	}
	var metric dto.Metric
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 3 {
		t.Errorf("FillViolation gauge = %v, want 3", got)
	}

	// A second update resets counts that vanished
	r.UpdateResultSummary(nil, map[string]int{"ok": 6})
	if err := gauge.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 0 {
		t.Errorf("FillViolation gauge after reset = %v, want 0", got)
	}
}

func TestUpdateNetworkCounts(t *testing.T) {
	r := NewRegistry()

	r.UpdateNetworkCounts(10, 12, 7, 3)

	var metric dto.Metric
	if err := r.NetworkSegmentsTotal.Write(&metric); err != nil {
		t.Fatalf("Failed to write metric: %v", err)
	}
	if got := metric.GetGauge().GetValue(); got != 12 {
		t.Errorf("NetworkSegmentsTotal = %v, want 12", got)
	}
}
