package graph

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// InsertVertex adds a vertex with mass 1, zero velocity and a position from
// the graph's placer. It reports false when key is already present.
func (g *Graph) InsertVertex(key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: empty vertex key", ErrInvalidArgument)
	}
	if _, ok := g.vertices[key]; ok {
		return false, nil
	}
	v := newVertex(key, g.placer.Place(key, g.inserted))
	g.inserted++
	g.vertices[key] = v
	g.order = append(g.order, v)
	return true, nil
}

// RemoveVertex deletes the vertex and every adjacency record that targets
// it. It reports false when key is absent.
func (g *Graph) RemoveVertex(key string) (bool, error) {
	if key == "" {
		return false, fmt.Errorf("%w: empty vertex key", ErrInvalidArgument)
	}
	v, ok := g.vertices[key]
	if !ok {
		return false, nil
	}

	// Adjacency is symmetric, so only neighbours can hold records into v.
	for _, e := range v.edges {
		if e.target != v && e.target.detach(key) {
			g.edgeCount--
		}
	}
	g.edgeCount -= len(v.edges)

	delete(g.vertices, key)
	if i := slices.Index(g.order, v); i >= 0 {
		g.order = slices.Delete(g.order, i, i+1)
	}
	return true, nil
}

// InsertEdge connects source and target with weight. An existing edge with
// the same weight is left alone and reports false; a different weight is
// written to both directions and reports true.
func (g *Graph) InsertEdge(source, target string, weight float64) (bool, error) {
	src, dst, err := g.endpoints(source, target)
	if err != nil {
		return false, err
	}
	if math.IsNaN(weight) || math.IsInf(weight, 0) || weight < 0 {
		return false, fmt.Errorf("%w: weight %v for edge %q-%q", ErrInvalidArgument, weight, source, target)
	}

	if e := src.edgeTo(target); e != nil {
		if e.link.weight == weight {
			return false, nil
		}
		e.link.weight = weight
		return true, nil
	}

	l := &link{weight: weight}
	src.attach(&Edge{target: dst, link: l})
	g.edgeCount++
	if src != dst {
		dst.attach(&Edge{target: src, link: l})
		g.edgeCount++
	}
	return true, nil
}

// RemoveEdge disconnects source and target in both directions. It reports
// false when no edge existed.
func (g *Graph) RemoveEdge(source, target string) (bool, error) {
	src, dst, err := g.endpoints(source, target)
	if err != nil {
		return false, err
	}
	if !src.detach(target) {
		return false, nil
	}
	g.edgeCount--
	if src != dst && dst.detach(source) {
		g.edgeCount--
	}
	return true, nil
}

func (g *Graph) endpoints(source, target string) (*Vertex, *Vertex, error) {
	if source == "" || target == "" {
		return nil, nil, fmt.Errorf("%w: empty edge endpoint", ErrInvalidArgument)
	}
	src, ok := g.vertices[source]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown vertex %q", ErrInvalidArgument, source)
	}
	dst, ok := g.vertices[target]
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown vertex %q", ErrInvalidArgument, target)
	}
	return src, dst, nil
}

func (g *Graph) ContainsVertex(key string) bool {
	_, ok := g.vertices[key]
	return ok
}

func (g *Graph) ContainsEdge(source, target string) bool {
	src, ok := g.vertices[source]
	if !ok {
		return false
	}
	return src.edgeTo(target) != nil
}

// Weight returns the weight of the edge between source and target.
func (g *Graph) Weight(source, target string) (float64, bool) {
	src, ok := g.vertices[source]
	if !ok {
		return 0, false
	}
	e := src.edgeTo(target)
	if e == nil {
		return 0, false
	}
	return e.link.weight, true
}

// UpdateMasses recomputes every mass from the incident edge weights,
// normalised by the average so the masses stay near 1.
func (g *Graph) UpdateMasses() {
	if len(g.order) == 0 {
		return
	}
	for _, v := range g.order {
		v.mass = 1.0
	}

	total := 0.0
	for _, v := range g.order {
		for _, e := range v.edges {
			w := e.link.weight
			e.target.mass += w
			if e.target == v {
				total += w
			} else {
				total += w / 2 // the mirror record adds the other half
			}
		}
	}

	avg := 1 + total/float64(len(g.order))
	for _, v := range g.order {
		v.mass = math.Max(v.mass/avg, MinMass)
	}
}

// ResetLayout moves every vertex to a fresh position from p, or from the
// graph's own placer when p is nil, and stops all motion.
func (g *Graph) ResetLayout(p Placer) {
	if p == nil {
		p = g.placer
	}
	for i, v := range g.order {
		v.position = p.Place(v.key, i)
		v.velocity = r2.Vec{}
	}
}
