package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/san-kum/forcelab/internal/graph"
)

// Collector exports layout progress as prometheus metrics. It is a
// sim.Observer and a sim.StepTimer.
type Collector struct {
	steps        prometheus.Counter
	stepDuration prometheus.Histogram
	energy       prometheus.Gauge
	vertices     prometheus.Gauge
	edgeRecords  prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)
	return &Collector{
		steps: f.NewCounter(prometheus.CounterOpts{
			Namespace: "forcelab",
			Subsystem: "layout",
			Name:      "steps_total",
			Help:      "Layout steps taken",
		}),
		stepDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forcelab",
			Subsystem: "layout",
			Name:      "step_duration_seconds",
			Help:      "Wall time of one layout step",
			Buckets:   prometheus.ExponentialBuckets(0.00005, 2, 14),
		}),
		energy: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "forcelab",
			Subsystem: "layout",
			Name:      "kinetic_energy",
			Help:      "Total kinetic energy after the last step",
		}),
		vertices: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "forcelab",
			Subsystem: "graph",
			Name:      "vertices",
			Help:      "Vertices in the graph",
		}),
		edgeRecords: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "forcelab",
			Subsystem: "graph",
			Name:      "edge_records",
			Help:      "Adjacency records, two per edge and one per self-loop",
		}),
	}
}

func (c *Collector) OnFrame(f graph.Frame) {
	c.steps.Inc()
	c.energy.Set(f.KineticEnergy())
	c.vertices.Set(float64(len(f.Vertices)))
	c.edgeRecords.Set(float64(f.EdgeCount))
}

func (c *Collector) OnStepDuration(d time.Duration) {
	c.stepDuration.Observe(d.Seconds())
}
