package graph

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/san-kum/forcelab/internal/vec"
	"gonum.org/v1/gonum/spatial/r2"
)

var testParams = Params{C1: 0.5, C2: 20, C3: 1000, C4: 1}

func at(points map[string]r2.Vec) Placer {
	return PlacerFunc(func(key string, _ int) r2.Vec { return points[key] })
}

func TestUpdatePositionDragAndClamp(t *testing.T) {
	tests := []struct {
		name    string
		vel     r2.Vec
		wantVel r2.Vec
	}{
		{"drag", r2.Vec{X: 100}, r2.Vec{X: 98}},
		{"clamp", r2.Vec{X: 1000}, r2.Vec{X: MaxSpeed}},
		{"clamp diagonal", r2.Vec{X: 1000, Y: -1000}, r2.Vec{X: MaxSpeed / math.Sqrt2, Y: -MaxSpeed / math.Sqrt2}},
		{"rest", r2.Vec{}, r2.Vec{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVertex("v", r2.Vec{})
			v.velocity = tt.vel
			v.updatePosition()

			if math.Abs(v.velocity.X-tt.wantVel.X) > 1e-9 || math.Abs(v.velocity.Y-tt.wantVel.Y) > 1e-9 {
				t.Errorf("velocity = %v, want %v", v.velocity, tt.wantVel)
			}
			want := r2.Scale(TimeStep, tt.wantVel)
			if math.Abs(v.position.X-want.X) > 1e-9 || math.Abs(v.position.Y-want.Y) > 1e-9 {
				t.Errorf("position = %v, want %v", v.position, want)
			}
			if vec.Magnitude(v.velocity) > MaxSpeed+1e-9 {
				t.Errorf("speed %v exceeds cap", vec.Magnitude(v.velocity))
			}
		})
	}
}

func TestIsolatedVertexStaysPut(t *testing.T) {
	g := New(WithPlacer(at(map[string]r2.Vec{"solo": {X: 3, Y: 4}})))
	g.InsertVertex("solo")
	for i := 0; i < 10; i++ {
		g.UpdatePositions(testParams)
	}
	v, _ := g.Vertex("solo")
	if v.Position() != (r2.Vec{X: 3, Y: 4}) {
		t.Errorf("isolated vertex moved to %v", v.Position())
	}
	if g.Steps() != 10 {
		t.Errorf("steps = %d, want 10", g.Steps())
	}
}

func TestRepulsionPushesApart(t *testing.T) {
	g := New(WithPlacer(at(map[string]r2.Vec{"a": {X: -1}, "b": {X: 1}})))
	g.InsertVertex("a")
	g.InsertVertex("b")
	g.UpdatePositions(testParams)

	a, _ := g.Vertex("a")
	b, _ := g.Vertex("b")
	if a.Position().X >= -1 || b.Position().X <= 1 {
		t.Errorf("expected separation, got a=%v b=%v", a.Position(), b.Position())
	}
	if a.Position().Y != 0 || b.Position().Y != 0 {
		t.Error("repulsion should act along the line between vertices")
	}
}

func TestSpringPullsTogether(t *testing.T) {
	g := New(WithPlacer(at(map[string]r2.Vec{"a": {X: -500}, "b": {X: 500}})))
	g.InsertVertex("a")
	g.InsertVertex("b")
	g.InsertEdge("a", "b", 1)
	g.UpdateMasses()

	p := testParams
	p.C3 = 0
	before := 1000.0
	g.UpdatePositions(p)

	a, _ := g.Vertex("a")
	b, _ := g.Vertex("b")
	if d := b.Position().X - a.Position().X; d >= before {
		t.Errorf("distance %v did not shrink", d)
	}
}

func TestCoincidentVerticesStayFinite(t *testing.T) {
	g := New(WithPlacer(PlacerFunc(func(string, int) r2.Vec { return r2.Vec{} })))
	g.InsertVertex("a")
	g.InsertVertex("b")
	g.InsertEdge("a", "b", 1)
	g.UpdateMasses()
	for i := 0; i < 5; i++ {
		g.UpdatePositions(testParams)
	}
	for _, v := range g.Vertices() {
		if !vec.IsFinite(v.Position()) || !vec.IsFinite(v.Velocity()) {
			t.Errorf("%s became non-finite: pos=%v vel=%v", v.Key(), v.Position(), v.Velocity())
		}
	}
	// no direction between them, so neither pair term acts
	a, _ := g.Vertex("a")
	b, _ := g.Vertex("b")
	if a.Position() != (r2.Vec{}) || b.Position() != (r2.Vec{}) {
		t.Errorf("coincident vertices moved: a=%v b=%v", a.Position(), b.Position())
	}
}

// One step from rest, computed term by term:
//
//	force  = sum over edges of (d/|d|) * c1*(|d| - (c2 - sqrt(records/(m_v+m_u))))
//	       - sum over others of (d/|d|) * c3*m_v*m_u/|d|^2
//	vel    = Drag * force * c4/m_v
//	pos    = pos0 + TimeStep*vel
func TestUpdatePositionsForceLaw(t *testing.T) {
	// A(0,0)-B(30,0) weight 4: both masses (1+4)/(1+4/2) = 5/3, records = 2.
	const m = 5.0 / 3.0
	springMag := 0.5 * (30 - (20 - math.Sqrt(2/(2*m))))
	repelMag := 1000 * m * m / (30 * 30)

	// A(0,0) B(30,0) C(0,40), no edges: unit masses, |BC| = 50.
	bx := 1000.0/900 + 1000.0/2500*0.6
	by := -1000.0 / 2500 * 0.8

	pair := map[string]r2.Vec{"a": {}, "b": {X: 30}}
	triple := map[string]r2.Vec{"a": {}, "b": {X: 30}, "c": {Y: 40}}

	tests := []struct {
		name    string
		points  map[string]r2.Vec
		edges   [][2]string
		params  Params
		wantVel map[string]r2.Vec
	}{
		{
			name:   "spring only",
			points: pair,
			edges:  [][2]string{{"a", "b"}},
			params: Params{C1: 0.5, C2: 20, C3: 0, C4: 1},
			wantVel: map[string]r2.Vec{
				"a": {X: Drag * springMag / m},
				"b": {X: -Drag * springMag / m},
			},
		},
		{
			name:   "spring with velocity gain",
			points: pair,
			edges:  [][2]string{{"a", "b"}},
			params: Params{C1: 0.5, C2: 20, C3: 0, C4: 3},
			wantVel: map[string]r2.Vec{
				"a": {X: Drag * 3 * springMag / m},
				"b": {X: -Drag * 3 * springMag / m},
			},
		},
		{
			name:   "repulsion only",
			points: pair,
			edges:  [][2]string{{"a", "b"}},
			params: Params{C1: 0, C2: 20, C3: 1000, C4: 1},
			wantVel: map[string]r2.Vec{
				"a": {X: -Drag * repelMag / m},
				"b": {X: Drag * repelMag / m},
			},
		},
		{
			name:   "repulsion sums all pairs",
			points: triple,
			params: Params{C1: 0.5, C2: 20, C3: 1000, C4: 1},
			wantVel: map[string]r2.Vec{
				"a": {X: -Drag * 1000 / 900, Y: -Drag * 1000 / 1600},
				"b": {X: Drag * bx, Y: Drag * by},
				"c": {X: -Drag * 1000 / 2500 * 0.6, Y: Drag * (1000.0/1600 + 1000.0/2500*0.8)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(WithPlacer(at(tt.points)))
			for _, k := range []string{"a", "b", "c"} {
				if _, ok := tt.points[k]; ok {
					g.InsertVertex(k)
				}
			}
			for _, e := range tt.edges {
				g.InsertEdge(e[0], e[1], 4)
			}
			g.UpdateMasses()
			g.UpdatePositions(tt.params)

			for k, want := range tt.wantVel {
				v, _ := g.Vertex(k)
				if d := vec.Magnitude(r2.Sub(v.Velocity(), want)); d > 1e-9 {
					t.Errorf("%s velocity = %v, want %v", k, v.Velocity(), want)
				}
				wantPos := vec.AddScaled(tt.points[k], want, TimeStep)
				if d := vec.Magnitude(r2.Sub(v.Position(), wantPos)); d > 1e-9 {
					t.Errorf("%s position = %v, want %v", k, v.Position(), wantPos)
				}
			}
		})
	}
}

type failingRepulsion struct{}

func (failingRepulsion) Prepare([]*Vertex) error { return errors.New("no tree") }
func (failingRepulsion) Force(int, float64) r2.Vec {
	panic("Force called after Prepare failed")
}

func TestRepulsionFallback(t *testing.T) {
	points := map[string]r2.Vec{"a": {}, "b": {X: 30}, "c": {Y: 40}}
	build := func(r Repulsion) *Graph {
		g := New(WithPlacer(at(points)), WithRepulsion(r))
		for _, k := range []string{"a", "b", "c"} {
			g.InsertVertex(k)
		}
		return g
	}

	exact := build(&ExactRepulsion{})
	broken := build(failingRepulsion{})
	for i := 0; i < 2; i++ {
		exact.UpdatePositions(testParams)
		broken.UpdatePositions(testParams)
	}

	if broken.RepulsionErr() == nil || broken.RepulsionFallbacks() != 2 {
		t.Errorf("fallback not recorded: err=%v steps=%d", broken.RepulsionErr(), broken.RepulsionFallbacks())
	}
	if exact.RepulsionErr() != nil || exact.RepulsionFallbacks() != 0 {
		t.Errorf("exact pass reported a fallback")
	}
	for _, k := range exact.Keys() {
		a, _ := exact.Vertex(k)
		b, _ := broken.Vertex(k)
		if a.Position() != b.Position() {
			t.Errorf("%s: exact %v, fallback %v", k, a.Position(), b.Position())
		}
	}
}

// Forces come from one snapshot, so the result for each key must not depend
// on the order vertices were inserted in.
func TestStepIndependentOfOrder(t *testing.T) {
	points := map[string]r2.Vec{
		"a": {X: 0, Y: 0}, "b": {X: 30, Y: 5}, "c": {X: -12, Y: 40}, "d": {X: 7, Y: -25},
	}
	build := func(keys []string) *Graph {
		g := New(WithPlacer(at(points)))
		for _, k := range keys {
			g.InsertVertex(k)
		}
		g.InsertEdge("a", "b", 2)
		g.InsertEdge("b", "c", 1)
		g.InsertEdge("c", "d", 3)
		g.UpdateMasses()
		g.UpdatePositions(testParams)
		return g
	}

	g1 := build([]string{"a", "b", "c", "d"})
	g2 := build([]string{"d", "c", "b", "a"})
	for _, k := range g1.Keys() {
		v1, _ := g1.Vertex(k)
		v2, _ := g2.Vertex(k)
		d := vec.Magnitude(r2.Sub(v1.Position(), v2.Position()))
		if d > 1e-9 {
			t.Errorf("%s diverged by %v: %v vs %v", k, d, v1.Position(), v2.Position())
		}
	}
}

func TestBarnesHutThetaZeroMatchesExact(t *testing.T) {
	build := func(r Repulsion) *Graph {
		g := New(WithRepulsion(r))
		for i := 0; i < 30; i++ {
			g.InsertVertex(fmt.Sprintf("v%d", i))
		}
		for i := 0; i < 30; i++ {
			g.InsertEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", (i*7+3)%30), float64(i%4+1))
		}
		g.UpdateMasses()
		return g
	}

	exact := build(&ExactRepulsion{})
	bh := build(&BarnesHutRepulsion{Theta: 0})
	for i := 0; i < 3; i++ {
		exact.UpdatePositions(testParams)
		bh.UpdatePositions(testParams)
	}

	for _, k := range exact.Keys() {
		a, _ := exact.Vertex(k)
		b, _ := bh.Vertex(k)
		if d := vec.Magnitude(r2.Sub(a.Position(), b.Position())); d > 1e-6 {
			t.Errorf("%s: exact %v, barnes-hut %v", k, a.Position(), b.Position())
		}
	}
}

func TestBarnesHutApproximates(t *testing.T) {
	g := New(WithRepulsion(&BarnesHutRepulsion{Theta: 0.5}))
	for i := 0; i < 50; i++ {
		g.InsertVertex(fmt.Sprintf("v%d", i))
	}
	for i := 0; i < 200; i++ {
		g.UpdatePositions(testParams)
	}
	for _, v := range g.Vertices() {
		if !vec.IsFinite(v.Position()) {
			t.Fatalf("%s non-finite", v.Key())
		}
	}
}

func TestAutoParams(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	g.InsertEdge("a", "b", 1)
	p := AutoParams(g)

	if p.C1 != 0.5 || p.C4 != 1 {
		t.Errorf("unexpected fixed constants %+v", p)
	}
	if math.Abs(p.C2-(20+math.Log10(3))) > 1e-12 {
		t.Errorf("c2 = %v", p.C2)
	}
	if p.C3 != 200000 {
		t.Errorf("c3 = %v, want 200000", p.C3)
	}

	if p := AutoParams(New()); math.IsNaN(p.C3) || p.C3 != 0 {
		t.Errorf("empty graph c3 = %v", p.C3)
	}
}

func TestResetLayout(t *testing.T) {
	g := newTestGraph(t, "a", "b")
	g.InsertEdge("a", "b", 1)
	g.UpdatePositions(testParams)

	g.ResetLayout(at(map[string]r2.Vec{"a": {X: 1}, "b": {X: 2}}))
	for _, v := range g.Vertices() {
		if v.Velocity() != (r2.Vec{}) {
			t.Errorf("%s still moving", v.Key())
		}
	}
	b, _ := g.Vertex("b")
	if b.Position() != (r2.Vec{X: 2}) {
		t.Errorf("b at %v", b.Position())
	}
}

func benchGraph(b *testing.B, n int, r Repulsion) *Graph {
	b.Helper()
	g := New(WithRepulsion(r))
	for i := 0; i < n; i++ {
		g.InsertVertex(fmt.Sprintf("v%d", i))
	}
	for i := 0; i < n; i++ {
		g.InsertEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", (i*13+1)%n), 1)
	}
	g.UpdateMasses()
	return g
}

func BenchmarkUpdatePositionsExact(b *testing.B) {
	g := benchGraph(b, 500, &ExactRepulsion{})
	p := AutoParams(g)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.UpdatePositions(p)
	}
}

func BenchmarkUpdatePositionsBarnesHut(b *testing.B) {
	g := benchGraph(b, 500, &BarnesHutRepulsion{Theta: 0.5})
	p := AutoParams(g)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		g.UpdatePositions(p)
	}
}

func TestParallelForCoversRange(t *testing.T) {
	for _, tc := range []struct{ n, workers int }{{0, 4}, {10, 4}, {500, 1}, {500, 4}, {1000, 7}} {
		hits := make([]int, tc.n)
		parallelFor(tc.n, tc.workers, func(start, end int) {
			for i := start; i < end; i++ {
				hits[i]++
			}
		})
		for i, h := range hits {
			if h != 1 {
				t.Fatalf("n=%d workers=%d: index %d visited %d times", tc.n, tc.workers, i, h)
			}
		}
	}
}

func TestParallelStepMatchesSequential(t *testing.T) {
	build := func(opts ...Option) *Graph {
		g := New(opts...)
		for i := 0; i < 300; i++ {
			g.InsertVertex(fmt.Sprintf("v%d", i))
		}
		for i := 0; i < 300; i++ {
			g.InsertEdge(fmt.Sprintf("v%d", i), fmt.Sprintf("v%d", (i*11+5)%300), float64(i%3+1))
		}
		g.UpdateMasses()
		return g
	}

	seq := build()
	par := build(WithWorkers(4))
	for i := 0; i < 3; i++ {
		seq.UpdatePositions(testParams)
		par.UpdatePositions(testParams)
	}
	for _, k := range seq.Keys() {
		a, _ := seq.Vertex(k)
		b, _ := par.Vertex(k)
		if a.Position() != b.Position() {
			t.Fatalf("%s: sequential %v, parallel %v", k, a.Position(), b.Position())
		}
	}
}
