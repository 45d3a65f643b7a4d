package metrics

import (
	"math"

	"github.com/san-kum/forcelab/internal/graph"
)

// MaxSpeed is the highest vertex speed seen since the last Reset.
type MaxSpeed struct {
	name string
	peak float64
}

func NewMaxSpeed() *MaxSpeed {
	return &MaxSpeed{name: "max_speed"}
}

func (m *MaxSpeed) Name() string { return m.name }

func (m *MaxSpeed) Observe(f graph.Frame) {
	for _, v := range f.Vertices {
		m.peak = math.Max(m.peak, math.Hypot(v.VX, v.VY))
	}
}

func (m *MaxSpeed) Value() float64 { return m.peak }
func (m *MaxSpeed) Reset()         { m.peak = 0 }

// EdgeStretch is the mean length of the undirected edges in the latest
// frame. Self-loops are skipped.
type EdgeStretch struct {
	name  string
	value float64
}

func NewEdgeStretch() *EdgeStretch {
	return &EdgeStretch{name: "edge_stretch"}
}

func (e *EdgeStretch) Name() string { return e.name }

func (e *EdgeStretch) Observe(f graph.Frame) {
	pos := make(map[string]graph.VertexView, len(f.Vertices))
	for _, v := range f.Vertices {
		pos[v.Key] = v
	}

	sum, n := 0.0, 0
	for _, v := range f.Vertices {
		for _, nb := range v.Edges {
			// count each undirected edge from its lexically smaller end
			if nb.Key <= v.Key {
				continue
			}
			u := pos[nb.Key]
			sum += math.Hypot(u.X-v.X, u.Y-v.Y)
			n++
		}
	}
	if n == 0 {
		e.value = 0
		return
	}
	e.value = sum / float64(n)
}

func (e *EdgeStretch) Value() float64 { return e.value }
func (e *EdgeStretch) Reset()         { e.value = 0 }
