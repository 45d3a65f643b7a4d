package metrics

import "github.com/san-kum/forcelab/internal/graph"

// KineticEnergy tracks the total kinetic energy of the layout. Value is the
// latest sample.
type KineticEnergy struct {
	name   string
	series []float64
}

func NewKineticEnergy() *KineticEnergy {
	return &KineticEnergy{name: "kinetic_energy"}
}

func (k *KineticEnergy) Name() string { return k.name }

func (k *KineticEnergy) Observe(f graph.Frame) {
	k.series = append(k.series, f.KineticEnergy())
}

func (k *KineticEnergy) Value() float64 {
	if len(k.series) == 0 {
		return 0
	}
	return k.series[len(k.series)-1]
}

// Series returns the samples observed since the last Reset. The returned
// slice must not be modified.
func (k *KineticEnergy) Series() []float64 { return k.series }

// Tail returns at most n of the most recent samples.
func (k *KineticEnergy) Tail(n int) []float64 {
	if len(k.series) <= n {
		return k.series
	}
	return k.series[len(k.series)-n:]
}

// Reset drops the series. Slices handed out earlier keep their samples.
func (k *KineticEnergy) Reset() { k.series = nil }

// Settling reports the first step at which kinetic energy fell below
// threshold and stayed there, or -1 while the layout is still moving.
type Settling struct {
	name      string
	threshold float64
	since     int
	steps     int
}

func NewSettling(threshold float64) *Settling {
	return &Settling{name: "settling_step", threshold: threshold, since: -1}
}

func (s *Settling) Name() string { return s.name }

func (s *Settling) Observe(f graph.Frame) {
	s.steps++
	if f.KineticEnergy() < s.threshold {
		if s.since < 0 {
			s.since = s.steps
		}
		return
	}
	s.since = -1
}

func (s *Settling) Value() float64 { return float64(s.since) }

func (s *Settling) Reset() {
	s.since = -1
	s.steps = 0
}
