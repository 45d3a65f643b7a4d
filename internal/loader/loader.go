// Package loader builds graphs from declarative vertex and edge lists.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/placement"
	"github.com/san-kum/forcelab/internal/vec"
)

// ErrLoad wraps every failure to build a graph from a Spec.
var ErrLoad = errors.New("loader: load failed")

// Spec is the on-disk graph description. Positions optionally pins the
// starting point of some vertices.
type Spec struct {
	Vertices  []string              `json:"vertices" yaml:"vertices"`
	Edges     []EdgeSpec            `json:"edges" yaml:"edges"`
	Positions map[string][2]float64 `json:"positions,omitempty" yaml:"positions,omitempty"`
}

// Placer starts vertices listed in Positions at their coordinates and the
// rest from fallback, or graph.DefaultPlacer when fallback is nil.
func (s Spec) Placer(fallback graph.Placer) graph.Placer {
	if fallback == nil {
		fallback = graph.DefaultPlacer
	}
	if len(s.Positions) == 0 {
		return fallback
	}
	points := make(map[string]r2.Vec, len(s.Positions))
	for k, p := range s.Positions {
		points[k] = r2.Vec{X: p[0], Y: p[1]}
	}
	return placement.Fixed(points, fallback)
}

func (s Spec) checkPositions() error {
	if len(s.Positions) == 0 {
		return nil
	}
	known := make(map[string]bool, len(s.Vertices))
	for _, k := range s.Vertices {
		known[k] = true
	}
	for k, p := range s.Positions {
		if !known[k] {
			return fmt.Errorf("%w: position for unknown vertex %q", ErrLoad, k)
		}
		if !vec.IsFinite(r2.Vec{X: p[0], Y: p[1]}) {
			return fmt.Errorf("%w: vertex %q has non-finite position %v", ErrLoad, k, p)
		}
	}
	return nil
}

type EdgeSpec struct {
	Source string  `json:"source" yaml:"source"`
	Target string  `json:"target" yaml:"target"`
	Weight float64 `json:"weight" yaml:"weight"`
}

// Load inserts every vertex, then every edge, then computes masses once.
// Duplicate vertices are ignored. On any error no graph is returned. Load
// checks Positions but does not apply them; pass Spec.Placer through
// graph.WithPlacer for that.
func Load(spec Spec, opts ...graph.Option) (*graph.Graph, error) {
	if err := spec.checkPositions(); err != nil {
		return nil, err
	}
	g := graph.New(opts...)
	for i, key := range spec.Vertices {
		if _, err := g.InsertVertex(key); err != nil {
			return nil, fmt.Errorf("%w: vertex %d: %w", ErrLoad, i, err)
		}
	}
	for i, e := range spec.Edges {
		if _, err := g.InsertEdge(e.Source, e.Target, e.Weight); err != nil {
			return nil, fmt.Errorf("%w: edge %d (%s-%s): %w", ErrLoad, i, e.Source, e.Target, err)
		}
	}
	g.UpdateMasses()
	return g, nil
}

// Format is a serialization of a Spec.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: unsupported extension %q", ErrLoad, filepath.Ext(path))
	}
}

// Decode reads a Spec in the given format.
func Decode(r io.Reader, format Format) (Spec, error) {
	var spec Spec
	switch format {
	case JSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&spec); err != nil {
			return Spec{}, fmt.Errorf("%w: decode json: %w", ErrLoad, err)
		}
	case YAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
			return Spec{}, fmt.Errorf("%w: decode yaml: %w", ErrLoad, err)
		}
	default:
		return Spec{}, fmt.Errorf("%w: unknown format %q", ErrLoad, format)
	}
	return spec, nil
}

// ReadFile decodes the Spec stored at path.
func ReadFile(path string) (Spec, error) {
	format, err := FormatOf(path)
	if err != nil {
		return Spec{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	defer f.Close()
	return Decode(f, format)
}

// LoadFile reads and loads the graph stored at path. Vertices with stored
// positions start there; the others use placer.
func LoadFile(path string, placer graph.Placer, opts ...graph.Option) (*graph.Graph, error) {
	spec, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	opts = append(opts, graph.WithPlacer(spec.Placer(placer)))
	return Load(spec, opts...)
}

// Encode writes spec in the given format.
func Encode(w io.Writer, spec Spec, format Format) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(spec)
	case YAML:
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(spec); err != nil {
			enc.Close()
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("%w: unknown format %q", ErrLoad, format)
	}
}

// FromGraph describes g as a Spec, listing each undirected edge once.
func FromGraph(g *graph.Graph) Spec {
	spec := Spec{Vertices: g.Keys()}
	seen := make(map[[2]string]bool)
	for _, v := range g.Vertices() {
		for _, e := range v.Edges() {
			a, b := v.Key(), e.Target().Key()
			if b < a {
				a, b = b, a
			}
			if seen[[2]string{a, b}] {
				continue
			}
			seen[[2]string{a, b}] = true
			spec.Edges = append(spec.Edges, EdgeSpec{Source: v.Key(), Target: e.Target().Key(), Weight: e.Weight()})
		}
	}
	return spec
}
