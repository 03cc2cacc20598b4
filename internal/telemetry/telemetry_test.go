package telemetry

import (
	"testing"
	"time"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(true)

	c.Counter("bftnet_nodes_spawned", 4, map[string]string{"component": "launcher"})
	c.Timer("bftnet_launch_duration", 120*time.Millisecond, map[string]string{"component": "launcher"})

	metrics := c.GetMetrics()
	if len(metrics) != 2 {
		t.Fatalf("Expected 2 metrics, got %d", len(metrics))
	}
	if metrics[0].Type != Counter || metrics[0].Value != 4 {
		t.Errorf("Unexpected counter metric: %+v", metrics[0])
	}
	if metrics[1].Type != Timer || metrics[1].Unit != "ms" {
		t.Errorf("Unexpected timer metric: %+v", metrics[1])
	}
}

func TestCollectorDisabled(t *testing.T) {
	c := NewCollector(false)
	c.Counter("bftnet_teardown_fired", 1, nil)
	if got := len(c.GetMetrics()); got != 0 {
		t.Errorf("Disabled collector recorded %d metrics", got)
	}
}

func TestFlushClears(t *testing.T) {
	c := NewCollector(true)
	c.Gauge("bftnet_cluster_size", 4, nil)
	if err := c.FlushMetrics(); err != nil {
		t.Fatalf("FlushMetrics failed: %v", err)
	}
	if got := len(c.GetMetrics()); got != 0 {
		t.Errorf("Expected empty collector after flush, got %d", got)
	}
}
