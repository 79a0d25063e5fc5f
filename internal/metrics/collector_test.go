package metrics

import (
	"strings"
	"testing"
)

func TestCounter_IncAndRender(t *testing.T) {
	c := NewMetricsCollector()
	ctr := c.Counter("test_messages_total", "Test messages")
	ctr.Inc()
	ctr.Inc()

	if ctr.Value() != 2 {
		t.Errorf("expected 2, got %d", ctr.Value())
	}
	out := c.Render()
	if !strings.Contains(out, "test_messages_total 2") {
		t.Errorf("counter missing from exposition output:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE test_messages_total counter") {
		t.Error("missing TYPE line")
	}
}

func TestCounter_SameNameSameInstance(t *testing.T) {
	c := NewMetricsCollector()
	a := c.Counter("dup_total", "h")
	b := c.Counter("dup_total", "h")
	a.Inc()
	if b.Value() != 1 {
		t.Error("same name must return the same counter")
	}
}

func TestGauge_SetIncDec(t *testing.T) {
	c := NewMetricsCollector()
	g := c.Gauge("inflight", "In flight")
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 4 {
		t.Errorf("expected 4, got %d", g.Value())
	}
}

func TestHistogram_Buckets(t *testing.T) {
	c := NewMetricsCollector()
	h := c.Histogram("latency_seconds", "Latency", []float64{1, 5})
	h.Observe(0.5)
	h.Observe(3)
	h.Observe(10)

	out := c.Render()
	if !strings.Contains(out, `latency_seconds_bucket{le="1"} 1`) {
		t.Errorf("le=1 bucket wrong:\n%s", out)
	}
	if !strings.Contains(out, `latency_seconds_bucket{le="5"} 2`) {
		t.Errorf("le=5 bucket wrong:\n%s", out)
	}
	if !strings.Contains(out, "latency_seconds_count 3") {
		t.Errorf("count wrong:\n%s", out)
	}
}

func TestRender_Uptime(t *testing.T) {
	out := NewMetricsCollector().Render()
	if !strings.Contains(out, "farmbot_uptime_seconds") {
		t.Error("missing uptime metric")
	}
}
