package export

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/san-kum/forcelab/internal/graph"
)

// VertexRadius maps a mass to a drawing radius in world units.
func VertexRadius(mass float64) float64 {
	return 8 * (math.Log(math.Floor(mass+1)) + 1)
}

// EdgeWidth maps an edge weight to a stroke width.
func EdgeWidth(weight float64) float64 {
	return math.Sqrt(weight)/3 + 1
}

type Options struct {
	Width, Height int
	// Fit scales the layout to the canvas. Otherwise the world origin sits
	// at the canvas centre at scale 1.
	Fit    bool
	Labels bool

	Background string
	Node       string
	Edge       string
	Text       string
}

func DefaultOptions() Options {
	return Options{
		Width:      1200,
		Height:     800,
		Labels:     true,
		Background: "#0a0a0a",
		Node:       "#ffffff",
		Edge:       "#888888",
		Text:       "#ff00ff",
	}
}

// FrameToSVG draws every edge, then every vertex, of one frame.
func FrameToSVG(f graph.Frame, opts Options) string {
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	scale, offX, offY := 1.0, float64(opts.Width)/2, float64(opts.Height)/2
	if opts.Fit && len(f.Vertices) > 0 {
		lo, hi := f.Bounds()
		pad := VertexRadius(1) * 2
		rangeX := math.Max(hi.X-lo.X, 1) + 2*pad
		rangeY := math.Max(hi.Y-lo.Y, 1) + 2*pad
		scale = math.Min(float64(opts.Width)/rangeX, float64(opts.Height)/rangeY)
		offX = float64(opts.Width)/2 - scale*(lo.X+hi.X)/2
		offY = float64(opts.Height)/2 - scale*(lo.Y+hi.Y)/2
	}
	toScreen := func(x, y float64) (float64, float64) {
		return offX + scale*x, offY + scale*y
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Width, opts.Height, opts.Width, opts.Height, opts.Background))

	pos := make(map[string][2]float64, len(f.Vertices))
	for _, v := range f.Vertices {
		x, y := toScreen(v.X, v.Y)
		pos[v.Key] = [2]float64{x, y}
	}

	sb.WriteString(fmt.Sprintf(`<g stroke="%s" stroke-linecap="round">`+"\n", opts.Edge))
	for _, v := range f.Vertices {
		for _, nb := range v.Edges {
			if nb.Key <= v.Key {
				continue
			}
			a, b := pos[v.Key], pos[nb.Key]
			sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke-width="%.2f"/>`+"\n",
				a[0], a[1], b[0], b[1], EdgeWidth(nb.Weight)*scale))
		}
	}
	sb.WriteString("</g>\n")

	sb.WriteString(fmt.Sprintf(`<g fill="%s">`+"\n", opts.Node))
	for _, v := range f.Vertices {
		p := pos[v.Key]
		sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", p[0], p[1], VertexRadius(v.Mass)*scale))
	}
	sb.WriteString("</g>\n")

	if opts.Labels {
		sb.WriteString(fmt.Sprintf(`<g fill="%s" font-family="monospace" font-size="12" text-anchor="middle">`+"\n", opts.Text))
		for _, v := range f.Vertices {
			p := pos[v.Key]
			sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f">%s</text>`+"\n", p[0], p[1]+4, html.EscapeString(v.Key)))
		}
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	return sb.String()
}

// SeriesToSVG plots a series, such as a run's kinetic energy, as a line.
func SeriesToSVG(values []float64, width, height int, strokeColor string) string {
	if len(values) < 2 {
		return ""
	}

	minV, maxV := values[0], values[0]
	for _, v := range values {
		minV = math.Min(minV, v)
		maxV = math.Max(maxV, v)
	}
	rangeV := maxV - minV
	if rangeV == 0 {
		rangeV = 1
	}
	minV -= rangeV * 0.1
	rangeV *= 1.2

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor))

	last := float64(len(values) - 1)
	for i, v := range values {
		x := float64(i) / last * float64(width)
		y := float64(height) - (v-minV)/rangeV*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}

	sb.WriteString(`"/>
</svg>
`)
	return sb.String()
}
