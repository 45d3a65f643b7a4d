// Package optim searches for layout constants that make a graph settle well.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/metrics"
	"github.com/san-kum/forcelab/internal/sim"
)

// ParamNames are the constants a GridSearch can vary.
var ParamNames = []string{"c1", "c2", "c3", "c4"}

// Objectives are the metric names Search can minimize.
var Objectives = []string{"kinetic_energy", "edge_stretch", "max_speed", "settling_step"}

// BuildFunc returns a fresh graph for one trial.
type BuildFunc func() (*graph.Graph, error)

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

// Trial is one evaluated combination.
type Trial struct {
	Params graph.Params
	Score  float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("got %d parameter names but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if !slices.Contains(ParamNames, name) {
			return nil, fmt.Errorf("unknown parameter %q", name)
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %s has no values", name)
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search lays out a fresh graph for every combination, starting from base,
// and returns the combination with the lowest value of metricName after
// steps steps, together with every trial in visiting order.
func (g *GridSearch) Search(
	ctx context.Context,
	build BuildFunc,
	base graph.Params,
	steps int,
	metricName string,
) (Trial, []Trial, error) {
	if !slices.Contains(Objectives, metricName) {
		return Trial{}, nil, fmt.Errorf("unknown objective %q", metricName)
	}
	if steps <= 0 {
		return Trial{}, nil, fmt.Errorf("steps must be positive, got %d", steps)
	}

	best := Trial{Score: math.Inf(1)}
	var trials []Trial
	err := g.searchRecursive(ctx, 0, base, func(p graph.Params) error {
		score, err := evaluate(ctx, build, p, steps, metricName)
		if err != nil {
			return err
		}
		t := Trial{Params: p, Score: score}
		trials = append(trials, t)
		if t.Score < best.Score {
			best = t
		}
		return nil
	})
	if err != nil {
		return Trial{}, trials, err
	}
	return best, trials, nil
}

func (g *GridSearch) searchRecursive(ctx context.Context, depth int, current graph.Params, leaf func(graph.Params) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		return leaf(current)
	}

	for _, val := range g.ranges[depth] {
		next := current
		set(&next, g.paramNames[depth], val)
		if err := g.searchRecursive(ctx, depth+1, next, leaf); err != nil {
			return err
		}
	}
	return nil
}

func set(p *graph.Params, name string, val float64) {
	switch name {
	case "c1":
		p.C1 = val
	case "c2":
		p.C2 = val
	case "c3":
		p.C3 = val
	case "c4":
		p.C4 = val
	}
}

func evaluate(ctx context.Context, build BuildFunc, p graph.Params, steps int, metricName string) (float64, error) {
	g, err := build()
	if err != nil {
		return 0, err
	}
	d := sim.New(g, sim.Config{Params: p})
	d.AddMetric(metrics.NewKineticEnergy())
	d.AddMetric(metrics.NewEdgeStretch())
	d.AddMetric(metrics.NewMaxSpeed())
	d.AddMetric(metrics.NewSettling(1e-3))

	result, err := d.Run(ctx, steps)
	if errors.Is(err, sim.ErrNonFinite) {
		return math.Inf(1), nil
	}
	if err != nil {
		return 0, err
	}
	score := result.Metrics[metricName]
	// a layout that never settled ranks behind every one that did
	if metricName == "settling_step" && score < 0 {
		score = float64(steps + 1)
	}
	if math.IsNaN(score) {
		score = math.Inf(1)
	}
	return score, nil
}
