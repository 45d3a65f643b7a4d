package viz

import (
	"image"
	"image/color"
	"math"
	"strings"
)

// Each cell is a Braille pattern holding 2x4 dots:
//
//	1 4
//	2 5
//	3 6
//	7 8
const brailleBase = 0x2800

var dotBits = [4][2]rune{
	{0x01, 0x08},
	{0x02, 0x10},
	{0x04, 0x20},
	{0x40, 0x80},
}

// Canvas is a monochrome dot canvas addressed in sub-cell coordinates.
type Canvas struct {
	Width, Height int // in cells
	cells         [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{Width: w, Height: h, cells: make([][]rune, h)}
	for i := range c.cells {
		c.cells[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in dots.
func (c *Canvas) Dots() (w, h int) { return c.Width * 2, c.Height * 4 }

func (c *Canvas) cell(x, y int) (*rune, rune, bool) {
	if x < 0 || y < 0 {
		return nil, 0, false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return nil, 0, false
	}
	return &c.cells[row][col], dotBits[y%4][x%2], true
}

func (c *Canvas) Set(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r |= bit
	}
}

func (c *Canvas) Unset(x, y int) {
	if r, bit, ok := c.cell(x, y); ok {
		*r &^= bit
	}
}

// IsSet reports whether the dot at (x, y) is on.
func (c *Canvas) IsSet(x, y int) bool {
	r, bit, ok := c.cell(x, y)
	return ok && *r&bit != 0
}

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for j := range row {
			row[j] = brailleBase
		}
	}
}

// Line draws from (x0, y0) to (x1, y1) with Bresenham's algorithm.
func (c *Canvas) Line(x0, y0, x1, y1 int) {
	dx, dy := absInt(x1-x0), absInt(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Segment clips a line given in fractional dots to the canvas before
// drawing it, so far off-screen endpoints cost nothing.
func (c *Canvas) Segment(x0, y0, x1, y1 float64) {
	w, h := c.Dots()
	t0, t1 := 0.0, 1.0
	dx, dy := x1-x0, y1-y0
	// Liang-Barsky against [0, w-1] x [0, h-1]
	for _, e := range [4][2]float64{
		{-dx, x0},
		{dx, float64(w-1) - x0},
		{-dy, y0},
		{dy, float64(h-1) - y0},
	} {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return
			}
			t0 = max(t0, r)
		} else {
			if r < t0 {
				return
			}
			t1 = min(t1, r)
		}
	}
	c.Line(
		int(math.Round(x0+t0*dx)), int(math.Round(y0+t0*dy)),
		int(math.Round(x0+t1*dx)), int(math.Round(y0+t1*dy)),
	)
}

// Disk fills a circle of radius r dots centred on (cx, cy).
func (c *Canvas) Disk(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	for y := -r; y <= r; y++ {
		for x := -r; x <= r; x++ {
			if x*x+y*y <= r*r {
				c.Set(cx+x, cy+y)
			}
		}
	}
}

// Ring outlines a square of half-width r around (cx, cy).
func (c *Canvas) Ring(cx, cy, r int) {
	c.Line(cx-r, cy-r, cx+r, cy-r)
	c.Line(cx+r, cy-r, cx+r, cy+r)
	c.Line(cx+r, cy+r, cx-r, cy+r)
	c.Line(cx-r, cy+r, cx-r, cy-r)
}

func (c *Canvas) String() string {
	var b strings.Builder
	b.Grow(c.Height * (c.Width*3 + 1))
	for _, row := range c.cells {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Image rasterizes the canvas with each dot drawn as a dotSize square.
func (c *Canvas) Image(dotSize int, fg, bg color.Color) *image.Paletted {
	w, h := c.Dots()
	img := image.NewPaletted(image.Rect(0, 0, w*dotSize, h*dotSize), color.Palette{bg, fg})
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if !c.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotSize; py++ {
				for px := 0; px < dotSize; px++ {
					img.SetColorIndex(x*dotSize+px, y*dotSize+py, 1)
				}
			}
		}
	}
	return img
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
