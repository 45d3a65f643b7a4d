package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/forcelab/internal/config"
	"github.com/san-kum/forcelab/internal/export"
	"github.com/san-kum/forcelab/internal/graph"
	"github.com/san-kum/forcelab/internal/loader"
	"github.com/san-kum/forcelab/internal/logging"
	"github.com/san-kum/forcelab/internal/metrics"
	"github.com/san-kum/forcelab/internal/optim"
	placementpkg "github.com/san-kum/forcelab/internal/placement"
	"github.com/san-kum/forcelab/internal/server"
	"github.com/san-kum/forcelab/internal/sim"
	"github.com/san-kum/forcelab/internal/storage"
	"github.com/san-kum/forcelab/internal/viz"
	"github.com/san-kum/forcelab/internal/watch"
)

// settleThreshold is the kinetic energy below which a run counts as settled.
const settleThreshold = 1e-3

// resolveConfig layers the preset, the config file, explicitly set flags
// and the graph argument, in that order.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}
	if configFile != "" {
		loaded, err := config.LoadOnto(cfg, configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("placement") {
		cfg.Placement = placement
	}
	if flags.Changed("repulsion") {
		cfg.Repulsion.Mode = repulsion
	}
	if flags.Changed("theta") {
		cfg.Repulsion.Theta = theta
	}
	if flags.Changed("fps") {
		cfg.FPS = fps
	}
	if flags.Changed("addr") {
		cfg.Server.Addr = addr
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if len(args) > 0 {
		cfg.Graph = args[0]
	}

	if cfg.Graph == "" {
		return nil, errors.New("no graph given: pass a file or set graph in the config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildGraph(cfg *config.Config, path string, seed int64) (*graph.Graph, error) {
	placer, err := placementpkg.ByName(cfg.Placement, seed)
	if err != nil {
		return nil, err
	}
	return loader.LoadFile(path, placer,
		graph.WithRepulsion(cfg.NewRepulsion()),
		graph.WithWorkers(cfg.WorkerCount()),
	)
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runLayout(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Steps == 0 {
		return errors.New("run needs a positive --steps")
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	simCfg := cfg.SimConfig()
	simCfg.FPS = 0

	ctx, cancel := signalContext()
	defer cancel()

	var (
		g      *graph.Graph
		result *sim.Result
		used   = cfg.Seed
	)
	if restarts > 1 {
		build := func(s int64) (*graph.Graph, error) { return buildGraph(cfg, cfg.Graph, s) }
		members, err := sim.NewEnsemble(build, simCfg, restarts, cfg.Seed).Run(ctx, cfg.Steps)
		if err != nil {
			return err
		}
		best, _ := sim.Best(members)
		g, result, used = best.Graph, best.Result, best.Seed
		logger.Info("ensemble finished", zap.Int("runs", restarts), zap.Int64("best_seed", used))
	} else {
		g, err = buildGraph(cfg, cfg.Graph, cfg.Seed)
		if err != nil {
			return err
		}
		d := sim.New(g, simCfg, sim.WithLogger(logger))
		d.AddMetric(metrics.NewMaxSpeed())
		d.AddMetric(metrics.NewEdgeStretch())
		d.AddMetric(metrics.NewSettling(settleThreshold))

		fmt.Printf("laying out %s (%d vertices)...\n", filepath.Base(cfg.Graph), g.Len())
		result, err = d.Run(ctx, cfg.Steps)
		if err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
	}

	st := storage.New(dataDir)
	runID, err := st.Save(storage.RunMetadata{
		Graph:       cfg.Graph,
		Seed:        used,
		Placement:   cfg.Placement,
		Repulsion:   cfg.Repulsion.Mode,
		Vertices:    g.Len(),
		EdgeRecords: g.EdgeCount(),
	}, result)
	if err != nil {
		return err
	}

	if svgPath != "" {
		opts := export.DefaultOptions()
		opts.Fit = svgFit
		if err := os.WriteFile(svgPath, []byte(export.FrameToSVG(result.Final, opts)), 0644); err != nil {
			return err
		}
		fmt.Printf("svg: %s\n", svgPath)
	}

	printSummary(runID, result)
	return nil
}

func printSummary(runID string, result *sim.Result) {
	fmt.Printf("completed in %v\n", result.Duration)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("kinetic energy: %.6f\n", result.FinalEnergy())

	if len(result.Metrics) > 0 {
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Println("\nmetrics:")
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
		}
	}

	vs := result.Final.Vertices
	if len(vs) == 0 {
		return
	}
	sorted := make([]graph.VertexView, len(vs))
	copy(sorted, vs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Mass > sorted[j].Mass })
	if len(sorted) > 10 {
		sorted = sorted[:10]
	}

	fmt.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VERTEX\tMASS\tX\tY\tDEGREE\tTOP")
	for _, v := range sorted {
		top := ""
		if t := v.Top(1); len(t) > 0 {
			top = fmt.Sprintf("%s (%g)", t[0].Key, t[0].Weight)
		}
		fmt.Fprintf(w, "%s\t%.3f\t%.1f\t%.1f\t%d\t%s\n", v.Key, v.Mass, v.X, v.Y, v.Degree(), top)
	}
	w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	// the terminal belongs to the viewer, so logs go to a file
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, false, filepath.Join(dataDir, "live.log"))
	if err != nil {
		return err
	}
	defer logger.Sync()

	g, err := buildGraph(cfg, cfg.Graph, cfg.Seed)
	if err != nil {
		return err
	}
	placer, err := placementpkg.ByName(cfg.Placement, cfg.Seed)
	if err != nil {
		return err
	}

	d := sim.New(g, cfg.SimConfig(), sim.WithLogger(logger))
	model := viz.NewModel(d, viz.Options{
		Title:   filepath.Base(cfg.Graph),
		FPS:     cfg.FPS,
		Theme:   theme,
		GIFPath: gifPath,
		Placer:  placer,
	})
	p := viz.NewProgram(model)

	if watchFile {
		w, err := watch.New(cfg.Graph, logger, func(path string) {
			g, err := buildGraph(cfg, path, cfg.Seed)
			p.Send(viz.ReloadMsg{Path: path, Graph: g, Err: err})
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	_, err = p.Run()
	d.Stop()
	return err
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	g, err := buildGraph(cfg, cfg.Graph, cfg.Seed)
	if err != nil {
		return err
	}

	simCfg := cfg.SimConfig()
	if simCfg.FPS == 0 {
		simCfg.FPS = config.DefaultFPS
	}
	d := sim.New(g, simCfg, sim.WithLogger(logger))
	srv := server.New(d, server.Options{PublishFPS: cfg.Server.PublishFPS, Logger: logger})

	if watchFile {
		w, err := watch.New(cfg.Graph, logger, func(path string) {
			g, err := buildGraph(cfg, path, cfg.Seed)
			if err != nil {
				logger.Warn("reload failed, keeping the current graph", zap.String("path", path), zap.Error(err))
				return
			}
			if err := d.Replace(g); err != nil {
				logger.Warn("reload rejected", zap.Error(err))
			}
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	ctx, cancel := signalContext()
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		_, err := d.Run(ctx, 0)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	})
	err = eg.Wait()
	d.Stop()
	return err
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tGRAPH\tTIME\tVERTICES\tSTEPS\tREPULSION\tENERGY")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%.4g\n",
			run.ID,
			filepath.Base(run.Graph),
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Vertices,
			run.Steps,
			run.Repulsion,
			run.FinalEnergy,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	energy, err := st.LoadEnergy(runID)
	if err != nil {
		return err
	}
	if len(energy) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("graph: %s\n", meta.Graph)
	fmt.Printf("samples: %d\n\n", len(energy))

	chart := asciigraph.Plot(energy,
		asciigraph.Height(plotHeight),
		asciigraph.Width(80),
		asciigraph.Caption("kinetic energy vs step"),
	)
	fmt.Println(chart)

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.SeriesToSVG(energy, 800, 300, "#00c832")), 0644); err != nil {
			return err
		}
		fmt.Printf("\nsvg: %s\n", svgPath)
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

func convertGraph(cmd *cobra.Command, args []string) error {
	in, out := args[0], args[1]
	spec, err := loader.ReadFile(in)
	if err != nil {
		return err
	}
	// a spec that cannot build a graph is not worth writing
	if _, err := loader.Load(spec); err != nil {
		return err
	}
	format, err := loader.FormatOf(out)
	if err != nil {
		return err
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := loader.Encode(f, spec, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func tuneParams(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cfg.Steps == 0 {
		return errors.New("tune needs a positive --steps")
	}

	var (
		names  []string
		ranges [][]float64
	)
	for i, values := range [][]float64{tuneC1, tuneC2, tuneC3, tuneC4} {
		if len(values) > 0 {
			names = append(names, optim.ParamNames[i])
			ranges = append(ranges, values)
		}
	}
	if len(names) == 0 {
		return errors.New("give at least one of --c1, --c2, --c3, --c4")
	}
	gs, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	build := func() (*graph.Graph, error) { return buildGraph(cfg, cfg.Graph, cfg.Seed) }
	base := cfg.SimConfig().Params
	best, trials, err := gs.Search(ctx, build, base, cfg.Steps, tuneMetric)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "C1\tC2\tC3\tC4\t%s\n", strings.ToUpper(tuneMetric))
	for _, t := range trials {
		mark := ""
		if t == best {
			mark = " *"
		}
		fmt.Fprintf(w, "%g\t%g\t%g\t%g\t%.6g%s\n", t.Params.C1, t.Params.C2, t.Params.C3, t.Params.C4, t.Score, mark)
	}
	return w.Flush()
}
