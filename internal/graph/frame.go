package graph

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// DefaultTopConnections is the number of neighbours the inspectors list.
const DefaultTopConnections = 5

// Neighbor is one adjacency record in a snapshot.
type Neighbor struct {
	Key    string  `json:"key"`
	Weight float64 `json:"weight"`
}

// VertexView is a copy of one vertex's state.
type VertexView struct {
	Key   string     `json:"key"`
	X     float64    `json:"x"`
	Y     float64    `json:"y"`
	VX    float64    `json:"vx"`
	VY    float64    `json:"vy"`
	Mass  float64    `json:"mass"`
	Edges []Neighbor `json:"edges"`
}

func (v VertexView) Position() r2.Vec { return r2.Vec{X: v.X, Y: v.Y} }
func (v VertexView) Velocity() r2.Vec { return r2.Vec{X: v.VX, Y: v.VY} }
func (v VertexView) Degree() int      { return len(v.Edges) }

// Top returns up to n neighbours by descending weight, ties by key.
func (v VertexView) Top(n int) []Neighbor {
	if n <= 0 {
		n = DefaultTopConnections
	}
	sorted := slices.Clone(v.Edges)
	slices.SortFunc(sorted, func(a, b Neighbor) int {
		if c := cmp.Compare(b.Weight, a.Weight); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// Frame is an immutable snapshot of the graph after a step. Vertices are in
// insertion order.
type Frame struct {
	Step      int          `json:"step"`
	EdgeCount int          `json:"edge_count"`
	Vertices  []VertexView `json:"vertices"`
}

// Vertex finds a vertex in the frame by key.
func (f Frame) Vertex(key string) (VertexView, bool) {
	for _, v := range f.Vertices {
		if v.Key == key {
			return v, true
		}
	}
	return VertexView{}, false
}

// Bounds returns the bounding box of all vertex positions.
func (f Frame) Bounds() (minPt, maxPt r2.Vec) {
	for i, v := range f.Vertices {
		if i == 0 {
			minPt, maxPt = v.Position(), v.Position()
			continue
		}
		minPt.X = min(minPt.X, v.X)
		minPt.Y = min(minPt.Y, v.Y)
		maxPt.X = max(maxPt.X, v.X)
		maxPt.Y = max(maxPt.Y, v.Y)
	}
	return minPt, maxPt
}

func (v *Vertex) view() VertexView {
	edges := make([]Neighbor, len(v.edges))
	for i, e := range v.edges {
		edges[i] = Neighbor{Key: e.target.key, Weight: e.link.weight}
	}
	return VertexView{
		Key:   v.key,
		X:     v.position.X,
		Y:     v.position.Y,
		VX:    v.velocity.X,
		VY:    v.velocity.Y,
		Mass:  v.mass,
		Edges: edges,
	}
}

// Frame copies the current state.
func (g *Graph) Frame() Frame {
	vs := make([]VertexView, len(g.order))
	for i, v := range g.order {
		vs[i] = v.view()
	}
	return Frame{Step: g.steps, EdgeCount: g.edgeCount, Vertices: vs}
}

// TopConnections returns up to n of the vertex's edges by descending weight.
func (g *Graph) TopConnections(key string, n int) ([]Neighbor, error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty vertex key", ErrInvalidArgument)
	}
	v, ok := g.vertices[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown vertex %q", ErrInvalidArgument, key)
	}
	return v.view().Top(n), nil
}

// KineticEnergy sums 0.5*m*|v|^2 over the frame.
func (f Frame) KineticEnergy() float64 {
	e := 0.0
	for _, v := range f.Vertices {
		e += 0.5 * v.Mass * (v.VX*v.VX + v.VY*v.VY)
	}
	return e
}
