package viz

import "gonum.org/v1/gonum/spatial/r2"

const (
	ZoomStep = 0.05
	MinZoom  = 0.05
	MaxZoom  = 20.0
)

// Camera maps world coordinates to canvas dots: screen = offset + zoom*world.
type Camera struct {
	X, Y float64
	Zoom float64
}

// NewCamera centres the world origin on a canvas of w by h dots.
func NewCamera(w, h int) Camera {
	return Camera{X: float64(w) / 2, Y: float64(h) / 2, Zoom: 1}
}

func (c Camera) WorldToScreen(p r2.Vec) (float64, float64) {
	return c.X + c.Zoom*p.X, c.Y + c.Zoom*p.Y
}

func (c Camera) ScreenToWorld(sx, sy float64) r2.Vec {
	return r2.Vec{X: (sx - c.X) / c.Zoom, Y: (sy - c.Y) / c.Zoom}
}

// ZoomAt zooms in (direction > 0) or out by one step while keeping the
// world point under (sx, sy) fixed on screen.
func (c *Camera) ZoomAt(sx, sy float64, direction int) {
	dz := ZoomStep
	if direction < 0 {
		dz = -ZoomStep
	}
	next := c.Zoom + dz
	if next < MinZoom || next > MaxZoom {
		return
	}
	wx := (sx - c.X) / c.Zoom
	wy := (sy - c.Y) / c.Zoom
	c.X -= wx * dz
	c.Y -= wy * dz
	c.Zoom = next
}

func (c *Camera) Pan(dx, dy float64) {
	c.X += dx
	c.Y += dy
}

// Fit frames the box [lo, hi] on a w by h dot canvas with margin dots on
// every side.
func (c *Camera) Fit(lo, hi r2.Vec, w, h int, margin float64) {
	spanX := hi.X - lo.X
	spanY := hi.Y - lo.Y
	availX := float64(w) - 2*margin
	availY := float64(h) - 2*margin
	zoom := 1.0
	if spanX > 0 || spanY > 0 {
		zoom = MaxZoom
		if spanX > 0 {
			zoom = min(zoom, availX/spanX)
		}
		if spanY > 0 {
			zoom = min(zoom, availY/spanY)
		}
	}
	c.Zoom = max(zoom, MinZoom)
	mid := r2.Scale(0.5, r2.Add(lo, hi))
	c.X = float64(w)/2 - c.Zoom*mid.X
	c.Y = float64(h)/2 - c.Zoom*mid.Y
}
