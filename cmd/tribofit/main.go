package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"

	"github.com/san-kum/tribofit/internal/calib"
	"github.com/san-kum/tribofit/internal/config"
	"github.com/san-kum/tribofit/internal/export"
	"github.com/san-kum/tribofit/internal/friction"
	"github.com/san-kum/tribofit/internal/ivp"
	"github.com/san-kum/tribofit/internal/params"
	"github.com/san-kum/tribofit/internal/signal"
	"github.com/san-kum/tribofit/internal/storage"
	"github.com/san-kum/tribofit/internal/tui"
)

var (
	dataDir    string
	configFile string
	modelName  string
	verbose    bool
	// simulate
	duration  float64
	sampleDt  float64
	amplitude float64
	frequency float64
	normal    float64
	// fit
	live       bool
	plotPath   string
	gridPoints int
	starts     int
	seed       int64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tribofit",
		Short: "friction-model evaluation and calibration",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(
				tint.NewHandler(os.Stderr, &tint.Options{
					Level:      level,
					TimeFormat: "15:04:05",
				}),
			))
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".tribofit", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&modelName, "model", "", "model variant (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	simulateCmd := &cobra.Command{
		Use:   "simulate",
		Short: "evaluate a model over a sinusoidal velocity profile",
		RunE:  runSimulate,
	}
	simulateCmd.Flags().Float64Var(&duration, "time", 2.0, "duration [s]")
	simulateCmd.Flags().Float64Var(&sampleDt, "dt", 0.002, "output sample spacing [s]")
	simulateCmd.Flags().Float64Var(&amplitude, "amplitude", 0.1, "velocity amplitude [m/s]")
	simulateCmd.Flags().Float64Var(&frequency, "freq", 1.0, "velocity frequency [Hz]")
	simulateCmd.Flags().Float64Var(&normal, "normal", 100.0, "normal load [N]")
	simulateCmd.Flags().StringVar(&plotPath, "plot", "", "write a plot image (.png/.svg/.pdf)")

	fitCmd := &cobra.Command{
		Use:   "fit [measurements.csv]",
		Short: "calibrate model parameters against measured data",
		Args:  cobra.ExactArgs(1),
		RunE:  runFit,
	}
	fitCmd.Flags().BoolVar(&live, "live", false, "live progress view")
	fitCmd.Flags().StringVar(&plotPath, "plot", "", "write a measured-vs-fit plot image")
	fitCmd.Flags().IntVar(&gridPoints, "grid", 0, "seed from the best of an NxN... grid over the bounds")
	fitCmd.Flags().IntVar(&starts, "starts", 1, "random restarts inside the bounds, keeping the best fit")
	fitCmd.Flags().Int64Var(&seed, "seed", 1, "random-restart seed")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&plotPath, "out", "", "also write a plot image")

	modelsCmd := &cobra.Command{
		Use:   "models",
		Short: "list model variants and their parameter order",
		Run: func(cmd *cobra.Command, args []string) {
			for _, kind := range friction.Kinds() {
				cfg := config.DefaultConfig()
				cfg.Model = string(kind)
				m, _ := cfg.BuildModel()
				fmt.Println(tui.TitleStyle.Render(string(kind)))
				for i, name := range params.Names(m) {
					fmt.Printf("  [%d] %s\n", i, name)
				}
			}
		},
	}

	rootCmd.AddCommand(simulateCmd, fitCmd, listCmd, plotCmd, modelsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if modelName != "" {
		cfg.Model = modelName
		if cmd.Flags().Changed("model") && configFile == "" {
			cfg.Params = nil
		}
	}
	return cfg, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m, err := cfg.BuildModel()
	if err != nil {
		return err
	}

	steps := int(duration/sampleDt) + 1
	if steps < 3 {
		return fmt.Errorf("duration/dt gives %d output points, need at least 3", steps)
	}
	times := make([]float64, steps)
	for i := range times {
		times[i] = float64(i) * sampleDt
	}
	normalFn := func(float64) float64 { return normal }
	velocityFn := func(t float64) float64 { return amplitude * math.Sin(2*math.Pi*frequency*t) }
	positionFn := func(t float64) float64 {
		w := 2 * math.Pi * frequency
		return amplitude / w * (1 - math.Cos(w*t))
	}

	var forces []float64
	var warnings []string
	switch mm := m.(type) {
	case friction.Instantaneous:
		forces, err = friction.Evaluate(mm, times, normalFn, velocityFn)
		if err != nil {
			return err
		}
	case friction.Stateful:
		sol, err := ivp.Integrate(mm, times, normalFn, positionFn, velocityFn, ivp.Options{
			RelTol:  cfg.RelTol,
			AbsTol:  cfg.AbsTol,
			MaxStep: cfg.MaxStep,
			Method:  cfg.Method,
			Z0:      cfg.Z0,
		})
		if err != nil {
			return err
		}
		forces = sol.Forces
		warnings = sol.Warnings
		times = sol.Times
	}
	for _, w := range warnings {
		slog.Warn("solver", "msg", w)
	}

	fmt.Println(asciigraph.Plot(forces,
		asciigraph.Height(15),
		asciigraph.Width(70),
		asciigraph.Caption(fmt.Sprintf("%s force [N]", m.Kind()))))

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.SaveRun(storage.RunMetadata{
		Kind:     "simulate",
		Model:    string(m.Kind()),
		Params:   params.Encode(m),
		Warnings: warnings,
		RelTol:   cfg.RelTol,
		AbsTol:   cfg.AbsTol,
		MaxStep:  cfg.MaxStep,
	}, storage.Trace{Times: times, Predicted: forces})
	if err != nil {
		return err
	}
	slog.Info("run saved", "id", runID, "points", len(times))

	if plotPath != "" {
		if err := export.ForcePlot(plotPath, times, nil, forces); err != nil {
			return err
		}
		slog.Info("plot written", "path", plotPath)
	}
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	m0, err := cfg.BuildModel()
	if err != nil {
		return err
	}

	times, measured, data, err := readMeasurements(args[0])
	if err != nil {
		return err
	}
	slog.Info("measurements loaded", "path", args[0], "points", len(times))

	opts := calib.Options{
		Lower:         cfg.Lower,
		Upper:         cfg.Upper,
		Z0:            cfg.Z0,
		RelTol:        cfg.RelTol,
		AbsTol:        cfg.AbsTol,
		MaxStep:       cfg.MaxStep,
		Method:        cfg.Method,
		MaxIterations: cfg.MaxIter,
		GridPoints:    gridPoints,
		Starts:        starts,
		Seed:          seed,
	}

	var res *calib.Result
	if live {
		updates := make(chan tui.Progress, 16)
		opts.OnIteration = func(iter int, cost float64, x []float64) {
			tui.Notify(updates, tui.Progress{Iteration: iter, Cost: cost})
		}
		done := make(chan error, 1)
		go func() {
			r, err := calib.Fit(m0, times, measured, data, opts)
			res = r
			close(updates)
			done <- err
		}()
		if err := tui.RunLive(updates); err != nil {
			return err
		}
		if err := <-done; err != nil {
			return err
		}
	} else {
		opts.OnIteration = func(iter int, cost float64, x []float64) {
			slog.Debug("iteration", "n", iter, "cost", cost)
		}
		res, err = calib.Fit(m0, times, measured, data, opts)
		if err != nil {
			return err
		}
	}

	fmt.Println(tui.FitReport(res))

	predicted, err := predictFitted(res.Model, times, data, opts)
	if err != nil {
		return err
	}

	store := storage.New(dataDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.SaveRun(storage.RunMetadata{
		Kind:      "fit",
		Model:     string(res.Model.Kind()),
		Params:    params.Encode(res.Model),
		Cost:      res.Diagnostics.Cost,
		RMS:       res.Diagnostics.RMS,
		Converged: res.Diagnostics.Converged,
		Status:    res.Diagnostics.Status,
		Warnings:  res.Diagnostics.Warnings,
		RelTol:    cfg.RelTol,
		AbsTol:    cfg.AbsTol,
		MaxStep:   cfg.MaxStep,
	}, storage.Trace{Times: times, Measured: measured, Predicted: predicted})
	if err != nil {
		return err
	}
	slog.Info("run saved", "id", runID)

	if plotPath != "" {
		if err := export.ForcePlot(plotPath, times, measured, predicted); err != nil {
			return err
		}
		slog.Info("plot written", "path", plotPath)
	}
	return nil
}

// predictFitted re-evaluates the fitted model on the measurement grid for
// storage and plotting.
func predictFitted(m friction.Model, times []float64, data calib.Data, opts calib.Options) ([]float64, error) {
	normalFn := interpolantOrConst(times, data.Normal)
	velocityFn := interpolantOrConst(times, data.Velocity)
	positionFn := interpolantOrConst(times, data.Position)

	switch mm := m.(type) {
	case friction.Instantaneous:
		return friction.Evaluate(mm, times, normalFn, velocityFn)
	case friction.Stateful:
		sol, err := ivp.Integrate(mm, times, normalFn, positionFn, velocityFn, ivp.Options{
			RelTol:  opts.RelTol,
			AbsTol:  opts.AbsTol,
			MaxStep: opts.MaxStep,
			Method:  opts.Method,
			Z0:      opts.Z0,
		})
		if err != nil {
			return nil, err
		}
		return sol.Forces, nil
	}
	return nil, fmt.Errorf("model %s supports no evaluation capability", m.Kind())
}

func interpolantOrConst(times, values []float64) friction.Func {
	if values == nil || len(times) < 2 {
		return signal.Constant(0)
	}
	in, err := signal.NewInterpolant(times, values)
	if err != nil {
		return signal.Constant(0)
	}
	return in.At
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tMODEL\tRMS\tCONVERGED\tTIME")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4g\t%v\t%s\n",
			r.ID, r.Kind, r.Model, r.RMS, r.Converged, r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	trace, err := store.LoadTrace(args[0])
	if err != nil {
		return err
	}
	if trace.Measured != nil {
		fmt.Println(asciigraph.PlotMany([][]float64{trace.Measured, trace.Predicted},
			asciigraph.Height(15),
			asciigraph.Width(70),
			asciigraph.SeriesColors(asciigraph.Gray, asciigraph.Cyan),
			asciigraph.Caption("measured (gray) vs predicted (cyan) force [N]")))
	} else {
		fmt.Println(asciigraph.Plot(trace.Predicted,
			asciigraph.Height(15),
			asciigraph.Width(70),
			asciigraph.Caption("force [N]")))
	}
	if plotPath != "" {
		return export.ForcePlot(plotPath, trace.Times, trace.Measured, trace.Predicted)
	}
	return nil
}

// readMeasurements loads a CSV with columns t,force,normal,velocity and an
// optional fifth position column. A non-numeric first row is treated as a
// header.
func readMeasurements(path string) (times, measured []float64, data calib.Data, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, data, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, data, err
	}
	for i, rec := range records {
		if len(rec) < 4 {
			return nil, nil, data, fmt.Errorf("%s: row %d has %d columns, need t,force,normal,velocity[,position]", path, i+1, len(rec))
		}
		vals := make([]float64, len(rec))
		ok := true
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			vals[j] = v
		}
		if !ok {
			if i == 0 {
				continue // header
			}
			return nil, nil, data, fmt.Errorf("%s: row %d is not numeric", path, i+1)
		}
		times = append(times, vals[0])
		measured = append(measured, vals[1])
		data.Normal = append(data.Normal, vals[2])
		data.Velocity = append(data.Velocity, vals[3])
		if len(vals) >= 5 {
			data.Position = append(data.Position, vals[4])
		}
	}
	return times, measured, data, nil
}
