package physics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// gathered returns the metric families on reg keyed by name.
func gathered(t *testing.T, reg *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	out := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		out[f.GetName()] = f
	}
	return out
}

func gaugeWithLabel(f *dto.MetricFamily, value string) float64 {
	for _, m := range f.GetMetric() {
		for _, l := range m.GetLabel() {
			if l.GetValue() == value {
				return m.GetGauge().GetValue()
			}
		}
	}
	return -1
}

func TestWorldExportsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	w := newTestWorld(t, nil, WithMetrics(m))

	w.AddStaticBody(BodyDef{Collider: mustBox(t, 1, 1, 1)})
	w.AddStaticBody(BodyDef{Position: rl.Vector3{X: 40}, Collider: mustBox(t, 1, 1, 1)})
	w.AddBody(BodyDef{Position: rl.Vector3{X: 1.2, Y: 0.5}, Collider: mustSphere(t, 0.5)})
	w.AddBody(BodyDef{Tag: "broken"})

	w.Update(tick)
	w.Update(tick)

	families := gathered(t, reg)

	bodies := families["physics_bodies"]
	if bodies == nil {
		t.Fatal("physics_bodies not exported")
	}
	if got := gaugeWithLabel(bodies, "static"); got != 2 {
		t.Errorf("Expected 2 static bodies, got %v", got)
	}
	if got := gaugeWithLabel(bodies, "dynamic"); got != 1 {
		t.Errorf("Expected 1 dynamic body, got %v", got)
	}

	tickHist := families["physics_tick_duration_seconds"].GetMetric()[0].GetHistogram()
	if tickHist.GetSampleCount() != 2 {
		t.Errorf("Expected 2 tick observations, got %d", tickHist.GetSampleCount())
	}

	if got := families["physics_bodies_rejected_total"].GetMetric()[0].GetCounter().GetValue(); got != 1 {
		t.Errorf("Expected 1 rejected body, got %v", got)
	}
	if got := families["physics_collisions_total"].GetMetric()[0].GetCounter().GetValue(); got < 1 {
		t.Errorf("Expected the sphere resting against the box to count, got %v", got)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.observeTick(0, 3)
	m.observeCandidates(5)
	m.setPopulation(1, 2, 3)
	m.rejected()
}
