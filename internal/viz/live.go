package viz

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/forcelab/internal/export"
	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/metrics"
	"github.com/san-kum/forcelab/internal/sim"
)

const (
	width      = 80
	height     = 24
	panelWidth = 48

	panStep     = 8
	fitMargin   = 6
	chartWidth  = 30
	chartPoints = 60

	// braille dots are far denser than pixels
	dotRadiusScale = 0.25

	maxGIFFrames = 600
)

type TickMsg time.Time

// ReloadMsg carries a graph re-read from disk. A nil Graph with a non-nil
// Err reports a failed reload and leaves the current layout running.
type ReloadMsg struct {
	Path  string
	Graph *graph.Graph
	Err   error
}

type Options struct {
	Title   string
	FPS     int
	Theme   string
	GIFPath string
	// Placer is used by the reset key. Nil means the graph's own placement.
	Placer graph.Placer
}

// Model is the interactive layout view.
type Model struct {
	driver *sim.Driver
	energy *metrics.KineticEnergy
	opts   Options

	width, height int
	canvas        *Canvas
	camera        Camera
	fitted        bool

	running  bool
	selected string
	theme    Theme
	styles   styles
	showHelp bool
	status   string

	recording bool
	frames    []*image.Paletted
}

func NewModel(d *sim.Driver, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 60
	}
	if opts.Title == "" {
		opts.Title = "forcelab"
	}
	if opts.GIFPath == "" {
		opts.GIFPath = "layout.gif"
	}
	energy := metrics.NewKineticEnergy()
	d.AddMetric(energy)

	theme := GetTheme(opts.Theme)
	return Model{
		driver:  d,
		energy:  energy,
		opts:    opts,
		width:   width,
		height:  height,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(width*2, height*4),
		running: true,
		theme:   theme,
		styles:  newStyles(theme),
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.resize(msg.Width-panelWidth-2, msg.Height-2)
	case ReloadMsg:
		if msg.Err != nil {
			m.status = "reload failed: " + msg.Err.Error()
			break
		}
		if err := m.driver.Replace(msg.Graph); err != nil {
			m.status = "reload failed: " + err.Error()
			break
		}
		m.energy.Reset()
		m.fitted = false
		m.status = "reloaded " + msg.Path
		if _, ok := m.driver.Frame().Vertex(m.selected); !ok {
			m.selected = ""
		}
	case TickMsg:
		if m.running {
			if _, err := m.driver.Step(); err != nil {
				m.status = err.Error()
				m.running = false
			}
		}
		if !m.fitted {
			m.fit()
			m.fitted = true
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cx, cy := float64(m.width), float64(m.height*2)
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ":
		m.running = !m.running
	case "left", "h":
		m.camera.Pan(panStep, 0)
	case "right", "l":
		m.camera.Pan(-panStep, 0)
	case "up", "k":
		m.camera.Pan(0, panStep)
	case "down", "j":
		m.camera.Pan(0, -panStep)
	case "+", "=":
		m.camera.ZoomAt(cx, cy, 1)
	case "-", "_":
		m.camera.ZoomAt(cx, cy, -1)
	case "f":
		m.fit()
	case "tab":
		m.cycleSelection(1)
	case "shift+tab":
		m.cycleSelection(-1)
	case "esc":
		m.selected = ""
	case "r":
		m.reset()
	case "t":
		m.theme = NextTheme(m.theme)
		m.styles = newStyles(m.theme)
	case "g":
		if m.recording {
			m.status = m.saveGIF()
			m.recording = false
			m.frames = nil
		} else {
			m.recording = true
			m.frames = make([]*image.Paletted, 0, maxGIFFrames)
			m.status = "recording"
		}
	case "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *Model) resize(w, h int) {
	w, h = max(w, 20), max(h, 8)
	if w == m.width && h == m.height {
		return
	}
	m.width, m.height = w, h
	m.canvas = NewCanvas(w, h)
	m.fitted = false
}

func (m *Model) fit() {
	f := m.driver.Frame()
	if len(f.Vertices) == 0 {
		m.camera = NewCamera(m.canvas.Dots())
		return
	}
	lo, hi := f.Bounds()
	w, h := m.canvas.Dots()
	m.camera.Fit(lo, hi, w, h, fitMargin)
}

func (m *Model) cycleSelection(dir int) {
	f := m.driver.Frame()
	n := len(f.Vertices)
	if n == 0 {
		m.selected = ""
		return
	}
	idx := -1
	for i, v := range f.Vertices {
		if v.Key == m.selected {
			idx = i
			break
		}
	}
	switch {
	case idx < 0 && dir > 0:
		idx = 0
	case idx < 0:
		idx = n - 1
	default:
		idx = (idx + dir + n) % n
	}
	m.selected = f.Vertices[idx].Key
}

func (m *Model) reset() {
	err := m.driver.Do(func(g *graph.Graph) error {
		g.ResetLayout(m.opts.Placer)
		return nil
	})
	if err != nil {
		m.status = err.Error()
		return
	}
	m.energy.Reset()
	m.fitted = false
	m.status = "layout reset"
}

func (m *Model) draw() {
	m.canvas.Clear()
	f := m.driver.Frame()

	screen := make(map[string][2]float64, len(f.Vertices))
	for _, v := range f.Vertices {
		x, y := m.camera.WorldToScreen(v.Position())
		screen[v.Key] = [2]float64{x, y}
	}

	for _, v := range f.Vertices {
		a := screen[v.Key]
		for _, nb := range v.Edges {
			if nb.Key <= v.Key {
				continue
			}
			b := screen[nb.Key]
			m.canvas.Segment(a[0], a[1], b[0], b[1])
		}
	}

	w, h := m.canvas.Dots()
	for _, v := range f.Vertices {
		p := screen[v.Key]
		r := export.VertexRadius(v.Mass) * m.camera.Zoom * dotRadiusScale
		if p[0]+r < 0 || p[1]+r < 0 || p[0]-r > float64(w) || p[1]-r > float64(h) {
			continue
		}
		cx, cy := int(math.Round(p[0])), int(math.Round(p[1]))
		m.canvas.Disk(cx, cy, int(r))
		if v.Key == m.selected {
			m.canvas.Ring(cx, cy, int(r)+3)
		}
	}
}

func (m *Model) captureFrame() {
	if len(m.frames) >= maxGIFFrames {
		m.status = m.saveGIF()
		m.recording = false
		m.frames = nil
		return
	}
	m.frames = append(m.frames, m.canvas.Image(2, color.White, color.Black))
}

func (m *Model) saveGIF() string {
	if len(m.frames) == 0 {
		return "nothing recorded"
	}
	if err := SaveGIF(m.opts.GIFPath, m.frames, 100/m.opts.FPS); err != nil {
		return "gif: " + err.Error()
	}
	return fmt.Sprintf("saved %d frames to %s", len(m.frames), m.opts.GIFPath)
}

func (m Model) View() string {
	f := m.driver.Frame()
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.opts.Title)) + "\n")
	switch {
	case m.recording:
		s.WriteString(st.warning.Render(fmt.Sprintf("REC %d", len(m.frames))) + "\n\n")
	case m.running:
		s.WriteString(st.running.Render("RUNNING") + "\n\n")
	default:
		s.WriteString(st.paused.Render("PAUSED") + "\n\n")
	}

	if tail := m.energy.Tail(chartPoints); len(tail) > 1 {
		chart := asciigraph.Plot(tail, asciigraph.Height(4), asciigraph.Width(chartWidth), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.chart.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	params := m.driver.Params()
	row("Step", fmt.Sprintf("%d", f.Step))
	row("Vertices", fmt.Sprintf("%d", len(f.Vertices)))
	row("Edge records", fmt.Sprintf("%d", f.EdgeCount))
	row("Energy", fmt.Sprintf("%.3f", f.KineticEnergy()))
	row("Zoom", fmt.Sprintf("%.2fx", m.camera.Zoom))
	row("Params", fmt.Sprintf("%.2g %.3g %.3g %.2g", params.C1, params.C2, params.C3, params.C4))

	s.WriteString("\n" + st.header.Render("INSPECTOR") + "\n")
	if v, ok := f.Vertex(m.selected); ok {
		s.WriteString(st.selected.Render("> "+v.Key) + "\n")
		row("Mass", fmt.Sprintf("%.3f", v.Mass))
		row("Position", fmt.Sprintf("(%.1f, %.1f)", v.X, v.Y))
		row("Speed", fmt.Sprintf("%.1f %s", math.Hypot(v.VX, v.VY), bar(math.Hypot(v.VX, v.VY), graph.MaxSpeed, 10)))
		row("Degree", fmt.Sprintf("%d", v.Degree()))
		for _, nb := range v.Top(graph.DefaultTopConnections) {
			s.WriteString(st.label.Render("  "+truncate(nb.Key, 12)) + st.value.Render(fmt.Sprintf("%g", nb.Weight)) + "\n")
		}
	} else {
		s.WriteString(st.label.Render("  (tab to select)") + "\n")
	}

	if m.status != "" {
		s.WriteString("\n" + st.warning.Render(truncate(m.status, panelWidth-6)) + "\n")
	}
	s.WriteString(st.help.Render("SP:Pause R:Reset F:Fit Q:Quit\nTAB:Select T:Theme G:Record ?:Help"))

	view := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + view
	}
	return view
}

const helpText = `
  Space        pause or resume
  Arrows/hjkl  pan
  + / -        zoom around the centre
  F            fit the layout to the view
  Tab/S-Tab    select the next or previous vertex
  Esc          clear the selection
  R            place every vertex again and stop all motion
  T            cycle themes
  G            start or stop GIF recording
  Q            quit
`

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "~"
}

// NewProgram wraps the model in a full-screen bubbletea program.
func NewProgram(m Model) *tea.Program {
	return tea.NewProgram(m, tea.WithAltScreen())
}
