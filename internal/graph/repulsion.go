package graph

import (
	"github.com/san-kum/forcelab/internal/vec"
	"gonum.org/v1/gonum/spatial/barneshut"
	"gonum.org/v1/gonum/spatial/r2"
)

// Repulsion computes the vertex-vertex repulsion of a layout step.
type Repulsion interface {
	// Prepare is called once per step with the vertices in iteration order,
	// before any call to Force.
	Prepare(vertices []*Vertex) error
	// Force returns the sum over every other vertex u of the vector from
	// vertices[i] to u rescaled to c3*m_i*m_u/|d|^2. The caller subtracts it.
	Force(i int, c3 float64) r2.Vec
}

// ExactRepulsion sums over all pairs.
type ExactRepulsion struct {
	vertices []*Vertex
}

func (r *ExactRepulsion) Prepare(vertices []*Vertex) error {
	r.use(vertices)
	return nil
}

func (r *ExactRepulsion) use(vertices []*Vertex) { r.vertices = vertices }

func (r *ExactRepulsion) Force(i int, c3 float64) r2.Vec {
	v := r.vertices[i]
	var f r2.Vec
	for j, u := range r.vertices {
		if j == i {
			continue
		}
		d := r2.Sub(u.position, v.position)
		d2 := r2.Dot(d, d)
		if d2 == 0 {
			continue
		}
		f = r2.Add(f, vec.WithMagnitude(d, c3*v.mass*u.mass/d2))
	}
	return f
}

// BarnesHutRepulsion approximates the all-pairs sum with a quadtree. Theta
// is the opening angle; 0 visits every vertex and matches ExactRepulsion.
type BarnesHutRepulsion struct {
	Theta float64

	bodies []body
	plane  *barneshut.Plane
}

type body struct{ v *Vertex }

func (b body) Coord2() r2.Vec { return b.v.position }
func (b body) Mass() float64  { return b.v.mass }

func (r *BarnesHutRepulsion) Prepare(vertices []*Vertex) error {
	r.bodies = r.bodies[:0]
	particles := make([]barneshut.Particle2, len(vertices))
	for i, v := range vertices {
		r.bodies = append(r.bodies, body{v: v})
		particles[i] = r.bodies[i]
	}
	plane, err := barneshut.NewPlane(particles)
	if err != nil {
		return err
	}
	r.plane = plane
	return nil
}

func (r *BarnesHutRepulsion) Force(i int, c3 float64) r2.Vec {
	self := r.bodies[i]
	return r.plane.ForceOn(self, r.Theta, func(p1, p2 barneshut.Particle2, m1, m2 float64, d r2.Vec) r2.Vec {
		if p2 != nil && p2 == p1 {
			return r2.Vec{}
		}
		d2 := r2.Dot(d, d)
		if d2 == 0 {
			return r2.Vec{}
		}
		return vec.WithMagnitude(d, c3*m1*m2/d2)
	})
}
