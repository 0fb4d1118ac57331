package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestPlatformMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPlatformMetrics(reg)

	m.ObserveBooking(true)
	m.ObserveBooking(false)
	m.ObserveCancellation()
	m.ObserveReschedule()
	m.ObserveTrackingTransition("assigned", "en_route")
	m.ObserveRecommendation("gemini", "ok", 0.42)
	m.ObservePaymentIntent("succeeded")

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	if got := counterValue(families, "physiohome_bookings_created_total"); got != 2 {
		t.Errorf("expected 2 bookings observed, got %v", got)
	}
	if got := counterValue(families, "physiohome_tracking_transitions_total"); got != 1 {
		t.Errorf("expected 1 tracking transition, got %v", got)
	}
}

func TestPlatformMetricsNilSafe(t *testing.T) {
	var m *PlatformMetrics
	m.ObserveBooking(true)
	m.ObserveCancellation()
	m.ObserveReschedule()
	m.ObserveTrackingTransition("assigned", "en_route")
	m.ObserveRecommendation("openai", "error", 0.1)
	m.ObservePaymentIntent("failed")
}

func counterValue(families []*dto.MetricFamily, name string) float64 {
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.GetMetric() {
			total += metric.GetCounter().GetValue()
		}
	}
	return total
}
