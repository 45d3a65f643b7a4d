package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/forcelab/internal/config"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string

	steps      int
	seed       int64
	placement  string
	repulsion  string
	theta      float64
	fps        int
	restarts   int
	svgPath    string
	svgFit     bool
	watchFile  bool
	addr       string
	theme      string
	gifPath    string
	plotHeight int

	tuneC1     []float64
	tuneC2     []float64
	tuneC3     []float64
	tuneC4     []float64
	tuneMetric string
)

// main registers the forcelab commands and exits with status 1 when the
// selected command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "forcelab",
		Short:        "force-directed graph layout lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".forcelab", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [graph]",
		Short: "lay out a graph headless and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLayout,
	}
	addLayoutFlags(runCmd)
	runCmd.Flags().IntVar(&restarts, "restarts", 1, "independent seeded runs, the calmest is kept")
	runCmd.Flags().StringVar(&svgPath, "svg", "", "write the final layout as SVG")
	runCmd.Flags().BoolVar(&svgFit, "fit", true, "scale the SVG to fit the layout")

	liveCmd := &cobra.Command{
		Use:   "live [graph]",
		Short: "watch the layout in the terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addLayoutFlags(liveCmd)
	liveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "frame rate")
	liveCmd.Flags().BoolVar(&watchFile, "watch", false, "reload the graph when its file changes")
	liveCmd.Flags().StringVar(&theme, "theme", "", "color theme")
	liveCmd.Flags().StringVar(&gifPath, "gif", "layout.gif", "GIF recording path")

	serveCmd := &cobra.Command{
		Use:   "serve [graph]",
		Short: "run the layout behind an HTTP and WebSocket API",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runServe,
	}
	addLayoutFlags(serveCmd)
	serveCmd.Flags().IntVar(&fps, "fps", config.DefaultFPS, "steps per second")
	serveCmd.Flags().BoolVar(&watchFile, "watch", false, "reload the graph when its file changes")
	serveCmd.Flags().StringVar(&addr, "addr", config.DefaultAddr, "listen address")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the kinetic energy of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "chart height")
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the chart as SVG")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	convertCmd := &cobra.Command{
		Use:   "convert [in] [out]",
		Short: "validate a graph file and rewrite it, changing format by extension",
		Args:  cobra.ExactArgs(2),
		RunE:  convertGraph,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune [graph]",
		Short: "grid search the layout constants",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneParams,
	}
	addLayoutFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&tuneC1, "c1", nil, "spring stiffness values")
	tuneCmd.Flags().Float64SliceVar(&tuneC2, "c2", nil, "rest length values")
	tuneCmd.Flags().Float64SliceVar(&tuneC3, "c3", nil, "repulsion strength values")
	tuneCmd.Flags().Float64SliceVar(&tuneC4, "c4", nil, "velocity gain values")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "edge_stretch", "objective to minimize")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPLACEMENT\tREPULSION\tSTEPS\tFPS\tAUTO")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				rep := p.Repulsion.Mode
				if rep == "barneshut" {
					rep = fmt.Sprintf("barneshut(%.1f)", p.Repulsion.Theta)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%v\n", name, p.Placement, rep, p.Steps, p.FPS, p.AutoTune)
			}
			return w.Flush()
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, serveCmd, listCmd, plotCmd, exportJSONCmd, convertCmd, tuneCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addLayoutFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "layout steps (0 runs until interrupted)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "placement seed")
	cmd.Flags().StringVar(&placement, "placement", "uniform", "initial placement (uniform, noise, circle)")
	cmd.Flags().StringVar(&repulsion, "repulsion", "exact", "repulsion pass (exact, barneshut)")
	cmd.Flags().Float64Var(&theta, "theta", config.DefaultTheta, "barnes-hut opening angle")
}
