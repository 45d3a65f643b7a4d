// Package graph provides the weighted undirected graph and the
// force-directed layout engine that positions its vertices in the plane.
//
// The package defines:
//
//   - [Vertex]: a keyed node with mass, position, velocity and adjacency
//   - [Edge]: one directed adjacency record pointing at a target vertex
//   - [Graph]: the container owning every vertex, with the mutation API,
//     mass recomputation and the layout step
//   - [Frame]: an immutable per-frame snapshot for renderers
//
// An undirected edge u-v is stored as two adjacency records (u->v and v->u)
// that share a single weight, so both directions always agree. A self-loop
// is a single record.
//
// # Example
//
//	g := graph.New(graph.WithPlacer(placement.Uniform(1)))
//	g.InsertVertex("a")
//	g.InsertVertex("b")
//	g.InsertEdge("a", "b", 4)
//	g.UpdateMasses()
//	for i := 0; i < 600; i++ {
//	    g.UpdatePositions(graph.Params{C1: 0.5, C2: 20, C3: 1000, C4: 1})
//	}
//
// # Thread Safety
//
// Graph is NOT safe for concurrent use. A layout step reads every vertex, so
// no mutation may run while [Graph.UpdatePositions] is in progress. Use
// sim.Driver to own a graph from a single goroutine.
package graph
