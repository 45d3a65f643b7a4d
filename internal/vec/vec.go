// Package vec provides the small amount of planar vector math the layout
// engine needs on top of gonum's r2.Vec.
package vec

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Magnitude returns the Euclidean length of v.
func Magnitude(v r2.Vec) float64 {
	return math.Hypot(v.X, v.Y)
}

// WithMagnitude returns v rescaled to length m, keeping its direction.
// A negative m flips the sense of the vector. The zero vector has no
// direction and is returned unchanged.
func WithMagnitude(v r2.Vec, m float64) r2.Vec {
	mag := Magnitude(v)
	if mag == 0 {
		return r2.Vec{}
	}
	return r2.Scale(m/mag, v)
}

// AddScaled returns a + c*b.
func AddScaled(a, b r2.Vec, c float64) r2.Vec {
	return r2.Add(a, r2.Scale(c, b))
}

// ClampMagnitude rescales v to limit when it is longer than limit.
func ClampMagnitude(v r2.Vec, limit float64) r2.Vec {
	if Magnitude(v) > limit {
		return WithMagnitude(v, limit)
	}
	return v
}

// IsFinite reports whether both components are neither NaN nor Inf.
func IsFinite(v r2.Vec) bool {
	return !math.IsNaN(v.X) && !math.IsInf(v.X, 0) && !math.IsNaN(v.Y) && !math.IsInf(v.Y, 0)
}
