package observability

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c, err := NewCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}

	c.ObserveTick(3, 2, 1)
	c.ObserveTick(4, 0, 0)
	c.AddDiscoveries(2)
	c.JumpCompleted(true)
	c.JumpCompleted(false)
	c.MissionCompleted()

	if got := testutil.ToFloat64(c.Ticks); got != 2 {
		t.Fatalf("ticks = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.ActiveMissions); got != 4 {
		t.Fatalf("active missions = %v, want 4 (last set wins)", got)
	}
	if got := testutil.ToFloat64(c.JumpPointsDiscovered); got != 2 {
		t.Fatalf("discoveries = %v, want 2", got)
	}
	if got := testutil.ToFloat64(c.JumpsCompleted); got != 1 {
		t.Fatalf("jumps completed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.JumpsFailed); got != 1 {
		t.Fatalf("jumps failed = %v, want 1", got)
	}
	if got := testutil.ToFloat64(c.MissionsCompleted); got != 1 {
		t.Fatalf("missions completed = %v, want 1", got)
	}
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveTick(1, 1, 1)
	c.AddDiscoveries(5)
	c.JumpCompleted(true)
	c.MissionCompleted()
}

func TestDuplicateRegistrationTolerated(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("first NewCollector: %v", err)
	}
	second, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("second NewCollector: %v", err)
	}

	// Both handles observe the same underlying series.
	first.Ticks.Inc()
	second.Ticks.Inc()
	if got := testutil.ToFloat64(first.Ticks); got != 2 {
		t.Fatalf("ticks = %v, want 2 across shared collectors", got)
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	if err != nil {
		t.Fatalf("NewCollector: %v", err)
	}
	c.ObserveTick(0, 0, 0)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "jumpnet_ticks_total") {
		t.Fatal("metrics output missing jumpnet_ticks_total")
	}
}
