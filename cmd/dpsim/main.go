package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dpsim/internal/analysis"
	"github.com/san-kum/dpsim/internal/config"
	"github.com/san-kum/dpsim/internal/dynamo"
	"github.com/san-kum/dpsim/internal/experiment"
	"github.com/san-kum/dpsim/internal/logging"
	"github.com/san-kum/dpsim/internal/optim"
	"github.com/san-kum/dpsim/internal/physics"
	"github.com/san-kum/dpsim/internal/storage"
	"github.com/san-kum/dpsim/internal/viz"
)

var (
	dataDir string
	logger  *logging.Logger
)

func main() {
	logger = logging.NewLogger()

	rootCmd := &cobra.Command{
		Use:          "dpsim",
		Short:        "double pendulum trajectory lab",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dpsim", "data directory")

	var runFlags simFlags
	var playAfter bool
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run simulation and store the trajectory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(cmd, &runFlags, playAfter)
		},
	}
	runFlags.bind(runCmd)
	runCmd.Flags().BoolVar(&playAfter, "play", false, "play the trajectory when done")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the lower bob position over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id] [file]",
		Short: "export the x1,y1,x2,y2 table",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	var sweepFlags simFlags
	var sweepParam string
	var sweepValues []float64
	var sweepWorkers int
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one simulation per parameter value in parallel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, &sweepFlags, sweepParam, sweepValues, sweepWorkers)
		},
	}
	sweepFlags.bind(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "l2", "physical parameter to sweep")
	sweepCmd.Flags().Float64SliceVar(&sweepValues, "values", []float64{0.5, 1, 1.5, 2}, "parameter values")
	sweepCmd.Flags().IntVar(&sweepWorkers, "workers", 0, "max parallel runs (0 = unlimited)")

	var compareFlags simFlags
	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return compareIntegrators(cmd, &compareFlags, args)
		},
	}
	compareFlags.bind(compareCmd)

	var searchFlags simFlags
	var searchGrid []string
	var searchMetric string
	var searchMax bool
	var searchWorkers int
	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "grid search physical parameters for the best metric value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, &searchFlags, searchGrid, searchMetric, searchMax, searchWorkers)
		},
	}
	searchFlags.bind(searchCmd)
	searchCmd.Flags().StringArrayVar(&searchGrid, "grid", nil, "parameter range as name=v1,v2,... (repeatable)")
	searchCmd.Flags().StringVar(&searchMetric, "metric", "energy_drift", "metric to optimize")
	searchCmd.Flags().BoolVar(&searchMax, "max", false, "maximize instead of minimize")
	searchCmd.Flags().IntVar(&searchWorkers, "workers", 0, "max parallel runs (0 = unlimited)")

	var benchFlags simFlags
	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark trajectory generation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return benchSequence(cmd, &benchFlags)
		},
	}
	benchFlags.bind(benchCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	var initFlags simFlags
	initCmd := &cobra.Command{
		Use:   "init-config [file]",
		Short: "write the resolved configuration to a yaml file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := initFlags.resolve(cmd)
			if err != nil {
				return err
			}
			if err := config.Save(args[0], cfg); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}
	initFlags.bind(initCmd)

	var playFlags simFlags
	playCmd := &cobra.Command{
		Use:   "play [run_id|file.csv]",
		Short: "play a stored run or an x1,y1,x2,y2 table in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return playTrajectory(cmd, &playFlags, args[0])
		},
	}
	playFlags.bind(playCmd)

	var (
		phaseFlags  simFlags
		phaseArm    int
		phaseStride int
	)
	phaseCmd := &cobra.Command{
		Use:   "phase",
		Short: "draw the angle/angular velocity portrait of one arm",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return phasePortrait(cmd, &phaseFlags, phaseArm, phaseStride)
		},
	}
	phaseFlags.bind(phaseCmd)
	phaseCmd.Flags().IntVar(&phaseArm, "arm", 1, "arm to plot (1 or 2)")
	phaseCmd.Flags().IntVar(&phaseStride, "stride", 100, "record every n-th step")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, exportCSVCmd, exportJSONCmd,
		sweepCmd, searchCmd, compareCmd, benchCmd, presetsCmd, initCmd, playCmd, phaseCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runSimulation(cmd *cobra.Command, flags *simFlags, playAfter bool) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, "")

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running double pendulum (%s, dt=%g, %gs)...\n", cfg.Integrator, cfg.Dt, cfg.TimeMax)
	start := time.Now()

	result, err := experiment.New(cfg, nil, logger).Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save("run", cfg, result)
	if err != nil {
		logger.Error(ctx, "save failed", err)
		return logging.WrapError(err, "save run")
	}
	logger.Info(ctx, "run stored", "id", runID, "dir", dataDir)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("samples: %d\n", result.StepsTaken)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	printMetrics(result.Metrics)

	if playAfter {
		return viz.Play(viz.NewPlayer(runID, cfg.SceneConfig(), result.Trajectory, cfg.Dt))
	}
	return nil
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range []string{"energy", "energy_drift", "peak_speed", "revolutions"} {
		if v, ok := m[name]; ok {
			fmt.Printf("  %s: %.6f\n", name, v)
		}
	}
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
	fmt.Fprintln(w, "ID\tTIME\tSAMPLES\tDT\tINTEG\tL2\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%gs\t%s\t%g\t%.2e\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Samples,
			run.Dt,
			run.Integrator,
			run.Params["l2"],
			run.EnergyDrift,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return err
	}
	if len(tr) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(tr))

	xs, ys := tr.Tip()
	for _, series := range []struct {
		data    []float64
		caption string
	}{
		{xs, "x2 (lower bob)"},
		{ys, "y2 (lower bob)"},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	tr, err := storage.New(dataDir).LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	if len(args) == 1 {
		return storage.WriteTrajectoryCSV(os.Stdout, tr)
	}

	f, err := os.Create(args[1])
	if err != nil {
		return err
	}
	defer f.Close()

	if err := storage.WriteTrajectoryCSV(f, tr); err != nil {
		return err
	}
	return f.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	tr, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, tr)
}

func runSweep(cmd *cobra.Command, flags *simFlags, param string, values []float64, workers int) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no values to sweep")
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, "")

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("sweeping %s over %v...\n", param, values)
	start := time.Now()

	results, err := experiment.Sweep(ctx, cfg, param, values, workers, logger)
	if err != nil {
		return err
	}
	logger.Info(ctx, "sweep finished", "param", param, "runs", len(results), "elapsed", time.Since(start).String())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tRUN\tDRIFT\tPEAK SPEED\tREVS\n", strings.ToUpper(param))
	for i, res := range results {
		runCfg := *cfg
		if err := setParam(&runCfg, param, values[i]); err != nil {
			return err
		}
		runID, err := st.Save("sweep", &runCfg, res)
		if err != nil {
			return logging.WrapError(err, "save %s=%g", param, values[i])
		}
		fmt.Fprintf(w, "%g\t%s\t%.2e\t%.3f\t%.0f\n",
			values[i], runID, res.EnergyDrift, res.Metrics["peak_speed"], res.Metrics["revolutions"])
	}
	return w.Flush()
}

// setParam mirrors a swept value into the stored configuration.
func setParam(cfg *config.Config, name string, v float64) error {
	dp := cfg.System()
	if err := dp.SetParam(name, v); err != nil {
		return err
	}
	cfg.Pendulum = config.PendulumConfig{
		M1: dp.M1, M2: dp.M2, L1: dp.L1, L2: dp.L2,
		G: dp.Gravity, Dissipation: dp.Dissipation,
	}
	return nil
}

func parseGrid(specs []string) ([]string, [][]float64, error) {
	names := make([]string, 0, len(specs))
	ranges := make([][]float64, 0, len(specs))
	for _, spec := range specs {
		name, list, ok := strings.Cut(spec, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad grid %q: want name=v1,v2", spec)
		}
		var values []float64
		for _, field := range strings.Split(list, ",") {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad grid %q: %w", spec, err)
			}
			values = append(values, v)
		}
		names = append(names, strings.TrimSpace(name))
		ranges = append(ranges, values)
	}
	return names, ranges, nil
}

func runSearch(cmd *cobra.Command, flags *simFlags, grid []string, metric string, maximize bool, workers int) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("at least one --grid is required")
	}

	ctx, cancel := signalContext()
	defer cancel()
	ctx = logging.WithRunID(ctx, "")

	g := optim.NewGridSearch(names, ranges).WithWorkers(workers)
	goal := "min"
	if maximize {
		goal = "max"
	}
	fmt.Printf("searching %d points for %s %s...\n", len(g.Points()), goal, metric)

	start := time.Now()
	best, err := g.Search(ctx, cfg, metric, maximize, logger)
	if err != nil {
		return err
	}
	logger.Info(ctx, "search finished", "metric", metric, "value", best.Value, "elapsed", time.Since(start).String())

	fmt.Printf("best %s: %.6g\n", metric, best.Value)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	return nil
}

func compareIntegrators(cmd *cobra.Command, flags *simFlags, names []string) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		names = []string{"rk4", "euler", "dopri5"}
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("comparing %v (dt=%g, %gs, dissipation=%g)\n\n", names, cfg.Dt, cfg.TimeMax, cfg.Pendulum.Dissipation)

	results, err := experiment.Compare(ctx, cfg, names, logger)
	if err != nil {
		return err
	}

	ref := results[0].Trajectory
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "INTEGRATOR\tDRIFT\tMAX DRIFT\tLOCAL ERR\tFINAL x2\tFINAL y2\tMAX DIST TO %s\n", strings.ToUpper(names[0]))

	series := make([][]float64, len(results))
	for i, res := range results {
		last := res.Trajectory[len(res.Trajectory)-1]
		localErr := "-"
		if v, ok := res.Metrics["local_error"]; ok {
			localErr = fmt.Sprintf("%.3e", v)
		}
		fmt.Fprintf(w, "%s\t%.3e\t%.3e\t%s\t%.4f\t%.4f\t%.4f\n",
			names[i], res.EnergyDrift, res.Metrics["energy_drift"], localErr, last.X2, last.Y2, maxDistance(ref, res.Trajectory))
		_, series[i] = res.Trajectory.Tip()
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(asciigraph.PlotMany(series,
		asciigraph.Height(12),
		asciigraph.Width(80),
		asciigraph.SeriesColors(asciigraph.Green, asciigraph.Red, asciigraph.Blue, asciigraph.Yellow),
		asciigraph.Caption("y2 per integrator"),
	))
	return nil
}

func maxDistance(a, b dynamo.Trajectory) float64 {
	d := 0.0
	for i := 0; i < len(a) && i < len(b); i++ {
		d = math.Max(d, math.Hypot(a[i].X2-b[i].X2, a[i].Y2-b[i].Y2))
	}
	return d
}

func phasePortrait(cmd *cobra.Command, flags *simFlags, arm, stride int) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}

	var thetaIdx, omegaIdx int
	switch arm {
	case 1:
		thetaIdx, omegaIdx = physics.IdxTheta1, physics.IdxOmega1
	case 2:
		thetaIdx, omegaIdx = physics.IdxTheta2, physics.IdxOmega2
	default:
		return fmt.Errorf("%w: arm must be 1 or 2, got %d", dynamo.ErrInvalidConfig, arm)
	}

	seq, err := experiment.New(cfg, nil, logger).Build()
	if err != nil {
		return err
	}
	portrait, err := analysis.GeneratePhasePortrait(seq, thetaIdx, omegaIdx, stride)
	if err != nil {
		return err
	}

	minX, maxX, minY, maxY := portrait.Bounds()
	fmt.Printf("arm %d: theta in [%.3f, %.3f] rad, omega in [%.3f, %.3f] rad/s\n\n", arm, minX, maxX, minY, maxY)
	fmt.Print(analysis.PhasePortraitToASCII(portrait, cfg.Playback.Columns, cfg.Playback.Rows))
	return nil
}

func benchSequence(cmd *cobra.Command, flags *simFlags) error {
	base, err := flags.resolve(cmd)
	if err != nil {
		return err
	}

	durations := []float64{1.0, 5.0, 10.0}
	dts := []float64{0.0001, 0.001, 0.01}

	fmt.Printf("benchmarking %s\n\n", base.Integrator)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DURATION\tDT\tSTEPS\tTIME\tSTEPS/SEC")

	for _, dur := range durations {
		for _, dt := range dts {
			cfg := *base
			cfg.TimeMax = dur
			cfg.Dt = dt
			if cfg.Playback.TrailSeconds >= dur {
				cfg.Playback.TrailSeconds = dur / 2
			}

			start := time.Now()
			result, err := experiment.New(&cfg, nil, nil).Run(context.Background())
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			steps := result.StepsTaken
			fmt.Fprintf(w, "%.1fs\t%gs\t%d\t%v\t%.0f\n",
				dur, dt, steps, elapsed, float64(steps)/elapsed.Seconds())
		}
	}

	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tDT\tTIME\tTHETA1\tTHETA2\tDISSIPATION\tFPS\tTRAIL")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%g\t%g\t%.4f\t%.4f\t%g\t%d\t%g\n",
			name, p.Dt, p.TimeMax, p.InitState.Theta1, p.InitState.Theta2,
			p.Pendulum.Dissipation, p.Playback.FrameRate, p.Playback.TrailSeconds)
	}
	return w.Flush()
}

// playTrajectory accepts a stored run ID or a path to any table with
// x1,y1,x2,y2 columns. Playback timing is validated before anything is
// loaded.
func playTrajectory(cmd *cobra.Command, flags *simFlags, src string) error {
	cfg, err := flags.resolve(cmd)
	if err != nil {
		return err
	}

	var (
		tr    dynamo.Trajectory
		title string
	)
	if info, statErr := os.Stat(src); statErr == nil && !info.IsDir() {
		if err := cfg.SceneConfig().Validate(); err != nil {
			return err
		}
		f, err := os.Open(src)
		if err != nil {
			return err
		}
		defer f.Close()
		if tr, err = storage.ReadTrajectoryCSV(f); err != nil {
			return logging.WrapError(err, "read %s", src)
		}
		title = src
	} else {
		st := storage.New(dataDir)
		meta, err := st.Load(src)
		if err != nil {
			return err
		}
		cfg.Dt, cfg.TimeMax = meta.Dt, meta.TimeMax
		if err := cfg.SceneConfig().Validate(); err != nil {
			return err
		}
		if tr, err = st.LoadTrajectory(src); err != nil {
			return err
		}
		title = meta.ID
	}

	if len(tr) == 0 {
		return fmt.Errorf("no samples to play")
	}
	return viz.Play(viz.NewPlayer(title, cfg.SceneConfig(), tr, cfg.Dt))
}
