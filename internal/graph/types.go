package graph

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/spatial/r2"
)

// Placer supplies the initial position of a newly inserted vertex. index is
// the number of vertices inserted into the graph before this one.
//
// Two vertices placed on the same point have no direction between them and
// exert no force on each other. They separate only if the rest of the graph
// acts on them differently, so placers should return distinct points.
type Placer interface {
	Place(key string, index int) r2.Vec
}

// PlacerFunc adapts an ordinary function to the Placer interface.
type PlacerFunc func(key string, index int) r2.Vec

func (f PlacerFunc) Place(key string, index int) r2.Vec { return f(key, index) }

// goldenAngle spreads spiral points so no two vertices start coincident.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// DefaultPlacer lays vertices out on a golden-angle spiral. Points are
// deterministic and distinct.
var DefaultPlacer Placer = PlacerFunc(spiral)

func spiral(_ string, index int) r2.Vec {
	r := 10 * math.Sqrt(float64(index+1))
	theta := float64(index) * goldenAngle
	return r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
}

// link is the weight shared by both records of one undirected edge.
type link struct {
	weight float64
}

// Edge is one adjacency record: the vertex it points at and the weight of
// the undirected edge it belongs to.
type Edge struct {
	target *Vertex
	link   *link
}

// Target returns the vertex this record points at.
func (e *Edge) Target() *Vertex { return e.target }

// Weight returns the weight shared by both directions of the edge.
func (e *Edge) Weight() float64 { return e.link.weight }

// Vertex is one graph node. Only the owning Graph mutates it.
type Vertex struct {
	key      string
	mass     float64
	position r2.Vec
	velocity r2.Vec

	edges []*Edge
	index map[string]int // target key -> position in edges
}

func newVertex(key string, pos r2.Vec) *Vertex {
	return &Vertex{
		key:      key,
		mass:     1.0,
		position: pos,
		index:    make(map[string]int),
	}
}

func (v *Vertex) Key() string      { return v.key }
func (v *Vertex) Mass() float64    { return v.mass }
func (v *Vertex) Position() r2.Vec { return v.position }
func (v *Vertex) Velocity() r2.Vec { return v.velocity }
func (v *Vertex) Degree() int      { return len(v.edges) }
func (v *Vertex) Edges() []*Edge   { return slices.Clone(v.edges) }

func (v *Vertex) edgeTo(key string) *Edge {
	if i, ok := v.index[key]; ok {
		return v.edges[i]
	}
	return nil
}

func (v *Vertex) attach(e *Edge) {
	v.index[e.target.key] = len(v.edges)
	v.edges = append(v.edges, e)
}

// detach removes the record pointing at key by moving the last record into
// its slot.
func (v *Vertex) detach(key string) bool {
	i, ok := v.index[key]
	if !ok {
		return false
	}
	last := len(v.edges) - 1
	if i != last {
		moved := v.edges[last]
		v.edges[i] = moved
		v.index[moved.target.key] = i
	}
	v.edges[last] = nil
	v.edges = v.edges[:last]
	delete(v.index, key)
	return true
}

// Option configures a Graph at construction.
type Option func(g *Graph)

// WithPlacer sets the initial-position supplier for inserted vertices.
func WithPlacer(p Placer) Option {
	return func(g *Graph) {
		if p != nil {
			g.placer = p
		}
	}
}

// WithRepulsion replaces the all-pairs repulsion pass.
func WithRepulsion(r Repulsion) Option {
	return func(g *Graph) {
		if r != nil {
			g.repulsion = r
		}
	}
}

// WithWorkers spreads the force pass of each step over n goroutines.
// Values below 2 keep it on the calling goroutine.
func WithWorkers(n int) Option {
	return func(g *Graph) { g.workers = n }
}

// Graph owns every vertex. Iteration follows insertion order so layout runs
// with the same inputs are reproducible.
type Graph struct {
	vertices  map[string]*Vertex
	order     []*Vertex
	edgeCount int // adjacency records, not undirected edges
	inserted  int
	steps     int

	placer       Placer
	repulsion    Repulsion
	fallback     ExactRepulsion
	repulsionErr error
	fallbacks    int
	workers      int
}

// New creates an empty Graph.
func New(opts ...Option) *Graph {
	g := &Graph{
		vertices:  make(map[string]*Vertex),
		placer:    DefaultPlacer,
		repulsion: &ExactRepulsion{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Len returns the number of vertices.
func (g *Graph) Len() int { return len(g.order) }

// EdgeCount returns the number of adjacency records: two per undirected
// edge and one per self-loop.
func (g *Graph) EdgeCount() int { return g.edgeCount }

// Steps returns how many layout steps have run.
func (g *Graph) Steps() int { return g.steps }

// Vertex returns the vertex stored under key.
func (g *Graph) Vertex(key string) (*Vertex, bool) {
	v, ok := g.vertices[key]
	return v, ok
}

// Vertices returns the vertices in insertion order.
func (g *Graph) Vertices() []*Vertex { return slices.Clone(g.order) }

// Keys returns the vertex keys in insertion order.
func (g *Graph) Keys() []string {
	keys := make([]string, len(g.order))
	for i, v := range g.order {
		keys[i] = v.key
	}
	return keys
}
