package export

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/forcelab/internal/graph"
)

func TestVertexRadius(t *testing.T) {
	tests := []struct {
		mass float64
		want float64
	}{
		{0.5, 8},
		{1, 8 * (math.Log(2) + 1)},
		{1.9, 8 * (math.Log(2) + 1)},
		{4, 8 * (math.Log(5) + 1)},
	}
	for _, tt := range tests {
		if got := VertexRadius(tt.mass); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("VertexRadius(%v) = %v, want %v", tt.mass, got, tt.want)
		}
	}
	if got := EdgeWidth(9); got != 2 {
		t.Errorf("EdgeWidth(9) = %v, want 2", got)
	}
}

func testFrame() graph.Frame {
	return graph.Frame{
		Vertices: []graph.VertexView{
			{Key: "a", X: -10, Y: 0, Mass: 1, Edges: []graph.Neighbor{{Key: "b", Weight: 4}}},
			{Key: "b", X: 10, Y: 0, Mass: 1, Edges: []graph.Neighbor{{Key: "a", Weight: 4}}},
			{Key: "<c>", X: 0, Y: 5, Mass: 1},
		},
	}
}

func TestFrameToSVG(t *testing.T) {
	svg := FrameToSVG(testFrame(), DefaultOptions())

	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>\n") {
		t.Fatal("not a complete svg document")
	}
	if n := strings.Count(svg, "<line "); n != 1 {
		t.Errorf("expected one line per undirected edge, got %d", n)
	}
	if n := strings.Count(svg, "<circle "); n != 3 {
		t.Errorf("expected 3 circles, got %d", n)
	}
	if !strings.Contains(svg, `cx="590.0" cy="400.0"`) {
		t.Error("vertex a should sit left of the canvas centre at scale 1")
	}
	if !strings.Contains(svg, "&lt;c&gt;") {
		t.Error("labels must be escaped")
	}

	opts := DefaultOptions()
	opts.Labels = false
	if strings.Contains(FrameToSVG(testFrame(), opts), "<text") {
		t.Error("labels drawn when disabled")
	}
}

func TestFrameToSVGFit(t *testing.T) {
	opts := DefaultOptions()
	opts.Fit = true
	f := testFrame()
	for i := range f.Vertices {
		f.Vertices[i].X *= 1000
		f.Vertices[i].Y *= 1000
	}
	svg := FrameToSVG(f, opts)
	for _, line := range strings.Split(svg, "\n") {
		if !strings.HasPrefix(line, "<circle ") {
			continue
		}
		var cx, cy, r float64
		if _, err := fmt.Sscanf(line, `<circle cx="%f" cy="%f" r="%f"/>`, &cx, &cy, &r); err != nil {
			t.Fatalf("parse %q: %v", line, err)
		}
		if cx < 0 || cx > float64(opts.Width) || cy < 0 || cy > float64(opts.Height) {
			t.Errorf("circle at (%v, %v) outside canvas", cx, cy)
		}
	}
}

func TestSeriesToSVG(t *testing.T) {
	if SeriesToSVG([]float64{1}, 100, 50, "#fff") != "" {
		t.Error("single point should produce no chart")
	}
	svg := SeriesToSVG([]float64{3, 2, 1, 1}, 100, 50, "#00ff00")
	if !strings.Contains(svg, `stroke="#00ff00"`) || strings.Count(svg, " L") != 3 {
		t.Errorf("unexpected chart: %s", svg)
	}
}
