package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPipelineMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPipelineMetrics(reg)

	m.IncImage("completed")
	m.IncImage("completed")
	m.IncImage("failed")
	m.IncDetection("animal")
	m.IncDetection("")
	m.ObserveDuration("completed", 2*time.Second)

	if got := testutil.ToFloat64(m.images.WithLabelValues("completed")); got != 2 {
		t.Fatalf("expected 2 completed images, got %v", got)
	}
	if got := testutil.ToFloat64(m.images.WithLabelValues("failed")); got != 1 {
		t.Fatalf("expected 1 failed image, got %v", got)
	}
	if got := testutil.ToFloat64(m.detections.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("empty category should normalize to unknown, got %v", got)
	}
}

func TestPipelineMetricsNilSafe(t *testing.T) {
	var m *PipelineMetrics
	m.IncImage("completed")
	m.IncDetection("animal")
	m.ObserveDuration("completed", time.Second)

	empty := NewPipelineMetrics(nil)
	empty.IncImage("completed")
}
