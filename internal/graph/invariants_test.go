package graph_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/vec"
)

// symmetric reports whether every record u->v has a v->u twin with the same
// weight, and whether the record total matches EdgeCount.
func symmetric(g *graph.Graph) error {
	records := 0
	for _, v := range g.Vertices() {
		for _, e := range v.Edges() {
			records++
			w, ok := g.Weight(e.Target().Key(), v.Key())
			if !ok {
				return fmt.Errorf("%s->%s has no mirror", v.Key(), e.Target().Key())
			}
			if w != e.Weight() {
				return fmt.Errorf("%s-%s weights disagree: %v vs %v", v.Key(), e.Target().Key(), e.Weight(), w)
			}
		}
	}
	if records != g.EdgeCount() {
		return fmt.Errorf("edge count %d, counted %d records", g.EdgeCount(), records)
	}
	return nil
}

var _ = Describe("Graph", func() {
	var g *graph.Graph

	BeforeEach(func() {
		g = graph.New()
		for _, k := range []string{"a", "b", "c", "d"} {
			Expect(g.InsertVertex(k)).To(BeTrue())
		}
	})

	Describe("edge symmetry", func() {
		It("holds through inserts, updates and removals", func() {
			Expect(g.InsertEdge("a", "b", 1)).To(BeTrue())
			Expect(g.InsertEdge("b", "c", 2)).To(BeTrue())
			Expect(g.InsertEdge("c", "c", 3)).To(BeTrue())
			Expect(g.InsertEdge("d", "a", 4)).To(BeTrue())
			Expect(symmetric(g)).To(Succeed())

			Expect(g.InsertEdge("c", "b", 9)).To(BeTrue())
			Expect(symmetric(g)).To(Succeed())

			Expect(g.RemoveEdge("a", "d")).To(BeTrue())
			Expect(symmetric(g)).To(Succeed())

			Expect(g.RemoveVertex("c")).To(BeTrue())
			Expect(symmetric(g)).To(Succeed())
			Expect(g.EdgeCount()).To(Equal(2))
		})

		It("shares one weight between both directions", func() {
			Expect(g.InsertEdge("a", "b", 1)).To(BeTrue())
			Expect(g.InsertEdge("b", "a", 6)).To(BeTrue())

			a, _ := g.Vertex("a")
			Expect(a.Edges()).To(HaveLen(1))
			Expect(a.Edges()[0].Weight()).To(Equal(6.0))
		})
	})

	Describe("edge count accounting", func() {
		DescribeTable("records added per insert",
			func(source, target string, delta int) {
				before := g.EdgeCount()
				Expect(g.InsertEdge(source, target, 1)).To(BeTrue())
				Expect(g.EdgeCount() - before).To(Equal(delta))
			},
			Entry("distinct endpoints", "a", "b", 2),
			Entry("self-loop", "a", "a", 1),
		)

		It("does not count a duplicate insert", func() {
			Expect(g.InsertEdge("a", "b", 1)).To(BeTrue())
			Expect(g.InsertEdge("a", "b", 1)).To(BeFalse())
			Expect(g.EdgeCount()).To(Equal(2))
		})
	})

	Describe("validation", func() {
		It("rejects a bad weight without touching the graph", func() {
			before := g.Frame()
			ok, err := g.InsertEdge("a", "b", -2)
			Expect(err).To(MatchError(graph.ErrInvalidArgument))
			Expect(ok).To(BeFalse())
			Expect(g.Frame()).To(Equal(before))
		})

		It("rejects unknown endpoints", func() {
			_, err := g.InsertEdge("a", "missing", 1)
			Expect(err).To(MatchError(graph.ErrInvalidArgument))
			Expect(g.EdgeCount()).To(BeZero())
		})
	})

	Describe("cascading delete", func() {
		It("drops every record pointing at the removed vertex", func() {
			for _, k := range []string{"b", "c", "d"} {
				Expect(g.InsertEdge("a", k, 1)).To(BeTrue())
			}
			Expect(g.RemoveVertex("a")).To(BeTrue())

			for _, v := range g.Vertices() {
				Expect(v.Degree()).To(BeZero(), "vertex %s", v.Key())
			}
			Expect(g.EdgeCount()).To(BeZero())
		})
	})

	Describe("masses", func() {
		It("matches the documented two-vertex example", func() {
			h := graph.New()
			h.InsertVertex("a")
			h.InsertVertex("b")
			h.InsertEdge("a", "b", 4)
			h.UpdateMasses()

			for _, v := range h.Vertices() {
				Expect(v.Mass()).To(BeNumerically("~", 5.0/3.0, 1e-12))
			}
		})

		It("is positive for every vertex", func() {
			g.InsertEdge("a", "b", 100)
			g.UpdateMasses()
			for _, v := range g.Vertices() {
				Expect(v.Mass()).To(BeNumerically(">", 0))
			}
		})
	})

	Describe("layout", func() {
		It("never exceeds the speed cap", func() {
			g.InsertEdge("a", "b", 50)
			g.InsertEdge("c", "d", 50)
			g.UpdateMasses()
			p := graph.Params{C1: 5, C2: 20, C3: 1e7, C4: 10}
			for i := 0; i < 50; i++ {
				g.UpdatePositions(p)
				for _, v := range g.Vertices() {
					Expect(vec.Magnitude(v.Velocity())).To(BeNumerically("<=", graph.MaxSpeed+1e-9))
				}
			}
		})

		It("lists vertices in insertion order in frames", func() {
			f := g.Frame()
			keys := make([]string, len(f.Vertices))
			for i, v := range f.Vertices {
				keys[i] = v.Key
			}
			Expect(keys).To(Equal([]string{"a", "b", "c", "d"}))
		})
	})
})
