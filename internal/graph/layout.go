package graph

import (
	"math"

	"github.com/san-kum/forcelab/internal/vec"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// Drag is the per-step velocity retention factor.
	Drag = 0.98
	// MaxSpeed caps |velocity| in world units per second.
	MaxSpeed = 5 * 60.0
	// TimeStep is the integration step in seconds.
	TimeStep = 1.0 / 60
	// MinMass keeps spring rest lengths and velocity gains finite.
	MinMass = 1e-9
)

// Params are the layout constants.
type Params struct {
	C1 float64 `json:"c1" yaml:"c1"` // spring stiffness
	C2 float64 `json:"c2" yaml:"c2"` // baseline rest length
	C3 float64 `json:"c3" yaml:"c3"` // repulsion strength
	C4 float64 `json:"c4" yaml:"c4"` // velocity gain
}

// AutoParams derives layout constants from the graph size.
func AutoParams(g *Graph) Params {
	e := float64(g.EdgeCount())
	v := math.Max(float64(g.Len()), 1)
	return Params{
		C1: 0.5,
		C2: 20 + math.Log10(e+1),
		C3: 200000 * e / v,
		C4: 1,
	}
}

// UpdatePositions advances the layout by one step. Forces for every vertex
// are computed from the current positions before any vertex moves.
func (g *Graph) UpdatePositions(p Params) {
	n := len(g.order)
	if n == 0 {
		return
	}

	rep := g.repulsion
	g.repulsionErr = g.repulsion.Prepare(g.order)
	if g.repulsionErr != nil {
		g.fallback.use(g.order)
		rep = &g.fallback
		g.fallbacks++
	}

	records := float64(g.edgeCount)
	forces := make([]r2.Vec, n)
	parallelFor(n, g.workers, func(start, end int) {
		for i := start; i < end; i++ {
			v := g.order[i]
			var f r2.Vec
			for _, e := range v.edges {
				u := e.target
				if u == v {
					continue
				}
				rest := p.C2 - math.Sqrt(records/(v.mass+u.mass))
				d := r2.Sub(u.position, v.position)
				f = r2.Add(f, vec.WithMagnitude(d, p.C1*(vec.Magnitude(d)-rest)))
			}
			forces[i] = r2.Sub(f, rep.Force(i, p.C3))
		}
	})

	for i, v := range g.order {
		v.velocity = vec.AddScaled(v.velocity, forces[i], p.C4/v.mass)
		v.updatePosition()
	}
	g.steps++
}

// RepulsionErr returns why the configured repulsion could not prepare the
// last step, or nil when it ran. A failed step uses the exact sum instead.
func (g *Graph) RepulsionErr() error { return g.repulsionErr }

// RepulsionFallbacks counts the steps that used the exact sum because the
// configured repulsion failed.
func (g *Graph) RepulsionFallbacks() int { return g.fallbacks }

func (v *Vertex) updatePosition() {
	v.velocity = r2.Scale(Drag, v.velocity)
	v.velocity = vec.ClampMagnitude(v.velocity, MaxSpeed)
	v.position = vec.AddScaled(v.position, v.velocity, TimeStep)
}
