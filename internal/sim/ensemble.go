package sim

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/forcelab/internal/graph"
)

// BuildFunc creates the graph for one ensemble member.
type BuildFunc func(seed int64) (*graph.Graph, error)

// Ensemble runs the same layout from several seeded placements at once.
type Ensemble struct {
	build     BuildFunc
	cfg       Config
	numRuns   int
	seedStart int64
}

type Member struct {
	Seed   int64
	Graph  *graph.Graph
	Result *Result
}

// NewEnsemble runs headless regardless of cfg.FPS.
func NewEnsemble(build BuildFunc, cfg Config, numRuns int, seedStart int64) *Ensemble {
	cfg.FPS = 0
	return &Ensemble{build: build, cfg: cfg, numRuns: numRuns, seedStart: seedStart}
}

func (e *Ensemble) Run(ctx context.Context, steps int) ([]Member, error) {
	if e.numRuns <= 0 {
		return nil, fmt.Errorf("ensemble needs at least one run, got %d", e.numRuns)
	}
	if steps <= 0 {
		return nil, fmt.Errorf("ensemble steps must be positive, got %d", steps)
	}

	members := make([]Member, e.numRuns)
	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < e.numRuns; i++ {
		eg.Go(func() error {
			seed := e.seedStart + int64(i)
			g, err := e.build(seed)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			result, err := New(g, e.cfg).Run(ctx, steps)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			members[i] = Member{Seed: seed, Graph: g, Result: result}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return members, nil
}

// Best returns the member that settled with the least kinetic energy.
func Best(members []Member) (Member, bool) {
	if len(members) == 0 {
		return Member{}, false
	}
	best := members[0]
	for _, m := range members[1:] {
		if m.Result.FinalEnergy() < best.Result.FinalEnergy() {
			best = m
		}
	}
	return best, true
}
