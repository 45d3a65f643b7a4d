package sim

import (
	"errors"
	"time"

	"github.com/san-kum/forcelab/internal/graph"
)

// ErrStopped is returned by a Driver after Stop.
var ErrStopped = errors.New("sim: driver stopped")

// ErrNonFinite is returned when a step produced a NaN or infinite state.
var ErrNonFinite = errors.New("sim: layout diverged")

type Metric interface {
	Name() string
	Observe(f graph.Frame)
	Value() float64
	Reset()
}

type Observer interface {
	OnFrame(f graph.Frame)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(f graph.Frame)

func (fn ObserverFunc) OnFrame(f graph.Frame) { fn(f) }

// StepTimer is implemented by observers that also want the wall time of
// each layout step.
type StepTimer interface {
	OnStepDuration(d time.Duration)
}

type Config struct {
	Steps    int
	FPS      int
	Params   graph.Params
	AutoTune bool
}

type Result struct {
	StepsTaken int
	Duration   time.Duration
	Energy     []float64
	Metrics    map[string]float64
	Final      graph.Frame
}

// FinalEnergy is the kinetic energy after the last step.
func (r *Result) FinalEnergy() float64 {
	if len(r.Energy) == 0 {
		return 0
	}
	return r.Energy[len(r.Energy)-1]
}
