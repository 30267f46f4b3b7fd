package physics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics exports per-tick physics counters. Label values are bounded; no
// per-body labels. A nil *Metrics records nothing.
type Metrics struct {
	TickDuration prometheus.Histogram
	Bodies       *prometheus.GaugeVec
	Cells        prometheus.Gauge
	Collisions   prometheus.Counter
	Candidates   prometheus.Histogram
	Rejected     prometheus.Counter
}

// NewMetrics registers the physics collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		TickDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "physics_tick_duration_seconds",
			Help:    "Time spent in one physics update",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.002, 0.004, 0.008, 0.016},
		}),
		Bodies: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "physics_bodies",
			Help: "Registered bodies by kind",
		}, []string{"kind"}), // Bounded: "static", "dynamic"
		Cells: f.NewGauge(prometheus.GaugeOpts{
			Name: "physics_grid_cells",
			Help: "Non-empty spatial grid cells",
		}),
		Collisions: f.NewCounter(prometheus.CounterOpts{
			Name: "physics_collisions_total",
			Help: "Overlaps resolved by the collision resolver",
		}),
		Candidates: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "physics_broadphase_candidates",
			Help:    "Broad-phase candidates returned per resolver query",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64, 128},
		}),
		Rejected: f.NewCounter(prometheus.CounterOpts{
			Name: "physics_bodies_rejected_total",
			Help: "Body registrations rejected for invalid colliders",
		}),
	}
}

func (m *Metrics) observeTick(d time.Duration, collisions int) {
	if m == nil {
		return
	}
	m.TickDuration.Observe(d.Seconds())
	m.Collisions.Add(float64(collisions))
}

func (m *Metrics) observeCandidates(n int) {
	if m == nil {
		return
	}
	m.Candidates.Observe(float64(n))
}

func (m *Metrics) setPopulation(statics, dynamics, cells int) {
	if m == nil {
		return
	}
	m.Bodies.WithLabelValues("static").Set(float64(statics))
	m.Bodies.WithLabelValues("dynamic").Set(float64(dynamics))
	m.Cells.Set(float64(cells))
}

func (m *Metrics) rejected() {
	if m == nil {
		return
	}
	m.Rejected.Inc()
}
