package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestLandingMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLandingMetrics(reg)

	m.ObserveAction("startTour", "ok", 0.01)
	m.ObserveTourEvent("start")
	m.ObserveTourStep(0)
	m.ObserveTourStep(0)
	m.ObserveChatMessage("bot", "precio")
	m.ObserveFunnelTransition("registered")
	m.ObserveValidationFailure("invalid_email")
	m.ObserveNotification("error")
	m.ObservePersist(true)
	m.ObservePersist(false)

	if got := testutil.ToFloat64(m.tourSteps.WithLabelValues("0")); got != 2 {
		t.Fatalf("expected 2 step views, got %v", got)
	}
	if got := testutil.ToFloat64(m.persistTotal.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected 1 failed write, got %v", got)
	}
	if got := testutil.ToFloat64(m.validationErrors.WithLabelValues("invalid_email")); got != 1 {
		t.Fatalf("expected 1 validation failure, got %v", got)
	}
}

func TestLandingMetricsSessions(t *testing.T) {
	m := NewLandingMetrics(prometheus.NewRegistry())
	m.SessionOpened()
	m.SessionOpened()
	m.SessionClosed("idle")

	if got := testutil.ToFloat64(m.sessionsActive); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}
	if got := testutil.ToFloat64(m.sessionsClosed.WithLabelValues("idle")); got != 1 {
		t.Fatalf("expected 1 idle close, got %v", got)
	}
}

func TestLandingMetricsNilSafe(t *testing.T) {
	var m *LandingMetrics
	m.ObserveAction("a", "ok", 0.1)
	m.ObserveTourEvent("start")
	m.ObserveTourStep(1)
	m.ObserveChatMessage("user", "")
	m.ObserveFunnelTransition("paid")
	m.ObserveValidationFailure("missing_fields")
	m.ObserveNotification("info")
	m.ObservePersist(true)
	m.SessionOpened()
	m.SessionClosed("idle")
}
