// Package placement provides initial-position suppliers for graph vertices.
package placement

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/san-kum/forcelab/internal/graph"
)

// Extent is the half-width of the square the random placers draw from.
const Extent = 100.0

// Uniform draws each coordinate from [-Extent, Extent) with a seeded source.
func Uniform(seed int64) graph.Placer {
	rng := rand.New(rand.NewSource(seed))
	return graph.PlacerFunc(func(string, int) r2.Vec {
		return r2.Vec{
			X: rng.Float64()*2*Extent - Extent,
			Y: rng.Float64()*2*Extent - Extent,
		}
	})
}

// Noise samples 2D simplex noise along the insertion index. Nearby indices
// land near each other, which keeps freshly loaded chains untangled.
func Noise(seed int64, scale float64) graph.Placer {
	if scale <= 0 {
		scale = 0.1
	}
	noise := opensimplex.New(seed)
	return graph.PlacerFunc(func(_ string, index int) r2.Vec {
		t := float64(index) * scale
		return r2.Vec{
			X: noise.Eval2(t, 0) * Extent,
			Y: noise.Eval2(0, t+1000) * Extent,
		}
	})
}

// Circle spaces vertices evenly by index, 12 to a ring, adding rings
// outward as the index grows.
func Circle(radius float64) graph.Placer {
	if radius <= 0 {
		radius = Extent
	}
	const perRing = 12
	return graph.PlacerFunc(func(_ string, index int) r2.Vec {
		ring := index / perRing
		slot := index % perRing
		r := radius * float64(ring+1)
		theta := 2 * math.Pi * float64(slot) / perRing
		return r2.Vec{X: r * math.Cos(theta), Y: r * math.Sin(theta)}
	})
}

// Fixed returns the caller's coordinates, deferring to fallback for keys it
// does not know. Keys sharing a coordinate stay stacked, see graph.Placer.
func Fixed(points map[string]r2.Vec, fallback graph.Placer) graph.Placer {
	return graph.PlacerFunc(func(key string, index int) r2.Vec {
		if p, ok := points[key]; ok {
			return p
		}
		if fallback == nil {
			return r2.Vec{}
		}
		return fallback.Place(key, index)
	})
}

var byName = map[string]func(seed int64) graph.Placer{
	"uniform": Uniform,
	"noise":   func(seed int64) graph.Placer { return Noise(seed, 0.1) },
	"circle":  func(int64) graph.Placer { return Circle(Extent) },
}

// ByName resolves a placer from its configuration name.
func ByName(name string, seed int64) (graph.Placer, error) {
	f, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown placement: %s", name)
	}
	return f(seed), nil
}

// Names lists the configuration names ByName accepts.
func Names() []string {
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
