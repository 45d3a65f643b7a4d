package sim

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/vec"
)

// Driver owns a graph and serializes every step and mutation on it. Frames
// it publishes are copies and may be read from any goroutine.
type Driver struct {
	mu       sync.Mutex
	g        *graph.Graph
	stopped  bool
	fellBack bool
	done     chan struct{}

	cfg       Config
	logger    *zap.Logger
	metrics   []Metric
	observers []Observer

	frame atomic.Pointer[graph.Frame]
}

type Option func(d *Driver)

func WithLogger(l *zap.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

func New(g *graph.Graph, cfg Config, opts ...Option) *Driver {
	d := &Driver{
		g:         g,
		done:      make(chan struct{}),
		cfg:       cfg,
		logger:    zap.NewNop(),
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.publish()
	return d
}

// AddMetric and AddObserver must be called before the driver is shared.
func (d *Driver) AddMetric(m Metric)     { d.metrics = append(d.metrics, m) }
func (d *Driver) AddObserver(o Observer) { d.observers = append(d.observers, o) }

func (d *Driver) Metrics() []Metric { return d.metrics }

// Frame returns the most recently published snapshot.
func (d *Driver) Frame() graph.Frame {
	if f := d.frame.Load(); f != nil {
		return *f
	}
	return graph.Frame{}
}

// publish must be called with mu held or before the driver is shared.
func (d *Driver) publish() graph.Frame {
	f := d.g.Frame()
	d.frame.Store(&f)
	return f
}

// Do runs fn against the graph between steps and republishes the frame.
func (d *Driver) Do(fn func(g *graph.Graph) error) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	err := fn(d.g)
	d.publish()
	return err
}

// Replace swaps in a new graph, for example after the source file changed.
func (d *Driver) Replace(g *graph.Graph) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	d.g = g
	d.fellBack = false
	d.publish()
	d.logger.Info("graph replaced", zap.Int("vertices", g.Len()), zap.Int("edge_records", g.EdgeCount()))
	return nil
}

// Params returns the constants the next step will use.
func (d *Driver) Params() graph.Params {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.params()
}

func (d *Driver) params() graph.Params {
	if d.cfg.AutoTune {
		return graph.AutoParams(d.g)
	}
	return d.cfg.Params
}

// Step advances the layout once, publishes the new frame and notifies
// metrics and observers. A step that leaves any vertex with a non-finite
// position or velocity publishes its frame but stops the driver and returns
// ErrNonFinite.
func (d *Driver) Step() (graph.Frame, error) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return graph.Frame{}, ErrStopped
	}
	start := time.Now()
	d.g.UpdatePositions(d.params())
	took := time.Since(start)
	d.noteFallback()
	f := d.publish()
	if key, ok := nonFinite(f); ok {
		d.stopped = true
		close(d.done)
		d.mu.Unlock()
		d.logger.Error("layout diverged", zap.String("vertex", key), zap.Int("step", f.Step))
		return f, fmt.Errorf("%w: vertex %q at step %d", ErrNonFinite, key, f.Step)
	}
	d.mu.Unlock()

	for _, m := range d.metrics {
		m.Observe(f)
	}
	for _, obs := range d.observers {
		obs.OnFrame(f)
		if st, ok := obs.(StepTimer); ok {
			st.OnStepDuration(took)
		}
	}
	return f, nil
}

// noteFallback warns once per stretch of steps in which the configured
// repulsion could not prepare. mu must be held.
func (d *Driver) noteFallback() {
	err := d.g.RepulsionErr()
	if err != nil && !d.fellBack {
		d.logger.Warn("repulsion unavailable, using exact sum",
			zap.Error(err),
			zap.Int("fallback_steps", d.g.RepulsionFallbacks()))
	}
	d.fellBack = err != nil
}

func nonFinite(f graph.Frame) (string, bool) {
	for _, v := range f.Vertices {
		if !vec.IsFinite(v.Position()) || !vec.IsFinite(v.Velocity()) {
			return v.Key, true
		}
	}
	return "", false
}

// Stop makes every later call fail with ErrStopped and ends Run.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.stopped {
		d.stopped = true
		close(d.done)
	}
}

// Run steps the layout steps times, or until ctx is done when steps is 0.
// With a positive FPS steps are paced by a ticker. On cancellation the
// partial result is returned together with ctx.Err().
func (d *Driver) Run(ctx context.Context, steps int) (*Result, error) {
	if steps < 0 {
		return nil, fmt.Errorf("steps must be non-negative, got %d", steps)
	}

	result := &Result{
		Energy:  make([]float64, 0, steps),
		Metrics: make(map[string]float64),
	}
	for _, m := range d.metrics {
		m.Reset()
	}

	var tick <-chan time.Time
	if d.cfg.FPS > 0 {
		ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	d.logger.Debug("run started", zap.Int("steps", steps), zap.Int("fps", d.cfg.FPS))

	var runErr error
loop:
	for i := 0; steps == 0 || i < steps; i++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				runErr = ctx.Err()
				break loop
			case <-d.done:
				runErr = ErrStopped
				break loop
			case <-tick:
			}
		} else {
			select {
			case <-ctx.Done():
				runErr = ctx.Err()
				break loop
			case <-d.done:
				runErr = ErrStopped
				break loop
			default:
			}
		}

		f, err := d.Step()
		if err != nil {
			runErr = err
			break
		}
		result.StepsTaken++
		result.Energy = append(result.Energy, f.KineticEnergy())
		result.Final = f
	}

	result.Duration = time.Since(start)
	for _, m := range d.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	if result.StepsTaken == 0 {
		result.Final = d.Frame()
	}

	d.logger.Debug("run finished",
		zap.Int("steps_taken", result.StepsTaken),
		zap.Duration("elapsed", result.Duration),
		zap.Error(runErr))
	return result, runErr
}
