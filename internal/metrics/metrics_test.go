package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/sim"
)

var (
	_ sim.Metric = (*KineticEnergy)(nil)
	_ sim.Metric = (*Settling)(nil)
	_ sim.Metric = (*MaxSpeed)(nil)
	_ sim.Metric = (*EdgeStretch)(nil)
)

func frame(vs ...graph.VertexView) graph.Frame {
	return graph.Frame{Vertices: vs}
}

func TestKineticEnergy(t *testing.T) {
	m := NewKineticEnergy()

	m.Observe(frame(graph.VertexView{Key: "a", Mass: 2, VX: 3, VY: 4}))
	if math.Abs(m.Value()-25) > 1e-12 {
		t.Errorf("expected 25, got %v", m.Value())
	}
	m.Observe(frame(graph.VertexView{Key: "a", Mass: 2, VX: 1}))
	if m.Value() != 1 {
		t.Errorf("expected latest sample 1, got %v", m.Value())
	}
	if len(m.Series()) != 2 || len(m.Tail(1)) != 1 || len(m.Tail(10)) != 2 {
		t.Errorf("series = %v", m.Series())
	}

	m.Reset()
	if m.Value() != 0 || len(m.Series()) != 0 {
		t.Error("expected empty metric after reset")
	}
}

func TestKineticEnergyResetKeepsEarlierSeries(t *testing.T) {
	m := NewKineticEnergy()
	m.Observe(frame(graph.VertexView{Mass: 2, VX: 1}))
	m.Observe(frame(graph.VertexView{Mass: 2, VX: 2}))
	prev := m.Series()
	tail := m.Tail(1)

	m.Reset()
	m.Observe(frame(graph.VertexView{Mass: 2, VX: 10}))

	if prev[0] != 1 || prev[1] != 4 {
		t.Errorf("earlier series overwritten: %v", prev)
	}
	if tail[0] != 4 {
		t.Errorf("earlier tail overwritten: %v", tail)
	}
	if len(m.Series()) != 1 || m.Value() != 100 {
		t.Errorf("new run series = %v", m.Series())
	}
}

func TestSettling(t *testing.T) {
	m := NewSettling(1)
	moving := frame(graph.VertexView{Mass: 1, VX: 10})
	still := frame(graph.VertexView{Mass: 1, VX: 0.1})

	for _, f := range []graph.Frame{moving, still, moving, still, still} {
		m.Observe(f)
	}
	if m.Value() != 4 {
		t.Errorf("expected settling at step 4, got %v", m.Value())
	}
	m.Observe(moving)
	if m.Value() != -1 {
		t.Errorf("expected -1 after moving again, got %v", m.Value())
	}
}

func TestMaxSpeed(t *testing.T) {
	m := NewMaxSpeed()
	m.Observe(frame(graph.VertexView{VX: 3, VY: 4}, graph.VertexView{VX: 1}))
	m.Observe(frame(graph.VertexView{VX: 2}))
	if m.Value() != 5 {
		t.Errorf("expected 5, got %v", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected 0 after reset")
	}
}

func TestEdgeStretch(t *testing.T) {
	m := NewEdgeStretch()
	f := frame(
		graph.VertexView{Key: "a", X: 0, Y: 0, Edges: []graph.Neighbor{{Key: "b"}, {Key: "c"}, {Key: "a"}}},
		graph.VertexView{Key: "b", X: 3, Y: 4, Edges: []graph.Neighbor{{Key: "a"}}},
		graph.VertexView{Key: "c", X: 0, Y: 7, Edges: []graph.Neighbor{{Key: "a"}}},
	)
	m.Observe(f)
	if math.Abs(m.Value()-6) > 1e-12 {
		t.Errorf("expected mean length 6, got %v", m.Value())
	}

	m.Observe(frame(graph.VertexView{Key: "solo"}))
	if m.Value() != 0 {
		t.Errorf("expected 0 without edges, got %v", m.Value())
	}
}

func TestMetricsOnDriver(t *testing.T) {
	g := graph.New()
	g.InsertVertex("a")
	g.InsertVertex("b")
	g.InsertEdge("a", "b", 1)
	g.UpdateMasses()

	d := sim.New(g, sim.Config{Params: graph.Params{C1: 0.5, C2: 20, C3: 1000, C4: 1}})
	ke := NewKineticEnergy()
	d.AddMetric(ke)
	d.AddMetric(NewMaxSpeed())

	for i := 0; i < 5; i++ {
		if _, err := d.Step(); err != nil {
			t.Fatal(err)
		}
	}
	if len(ke.Series()) != 5 {
		t.Errorf("expected 5 samples, got %d", len(ke.Series()))
	}
}
