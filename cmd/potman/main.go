package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/san-kum/potman/internal/config"
	"github.com/san-kum/potman/internal/dispatch"
	"github.com/san-kum/potman/internal/logging"
	"github.com/san-kum/potman/internal/metrics"
	"github.com/san-kum/potman/internal/potential"
	"github.com/san-kum/potman/internal/potentials"
	"github.com/san-kum/potman/internal/viz"
)

const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitResolution = 2
	ExitPool       = 3
	ExitEvaluation = 4
	ExitConfig     = 5
)

var (
	dataDir     string
	configFile  string
	preset      string
	logLevel    string
	potDir      string
	potFile     string
	potFunc     string
	pool        int
	maxWorkers  int
	timing      bool
	units       string
	save        bool
	plot        bool
	chartFile   string
	metricsAddr string
	numRandom   int
	numAtoms    int
	seed        int64
	scale       float64
	showRows    int
	writeXYZ    string
	jsonOut     bool
	repeat      int
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(stderr, viz.Failure.Render("error:"), err)
		return exitCode(err)
	}
	return ExitOK
}

func exitCode(err error) int {
	var (
		rerr *potential.ResolutionError
		perr *dispatch.PoolInitError
		eerr *dispatch.EvaluationError
	)
	switch {
	case errors.As(err, &rerr):
		return ExitResolution
	case errors.As(err, &perr):
		return ExitPool
	case errors.As(err, &eerr), errors.Is(err, dispatch.ErrClosed):
		return ExitEvaluation
	case errors.Is(err, config.ErrInvalidConfig):
		return ExitConfig
	default:
		return ExitFailure
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "potman",
		Short:         "batch potential energy evaluation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	evalCmd := &cobra.Command{
		Use:   "eval [xyz]",
		Short: "evaluate energies for an xyz file or a random batch",
		Args:  cobra.MaximumNArgs(1),
		RunE:  evalBatch,
	}
	addPotentialFlags(evalCmd)
	evalCmd.Flags().BoolVar(&timing, "timing", false, "report wall time")
	evalCmd.Flags().StringVar(&units, "units", config.UnitsHartree, "display units (hartree, cm-1)")
	evalCmd.Flags().BoolVar(&save, "save", false, "save the run to the data directory")
	evalCmd.Flags().BoolVar(&plot, "plot", false, "plot energies")
	evalCmd.Flags().StringVar(&chartFile, "chart", "", "save an energy chart (png, svg or pdf) to this file")
	evalCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	evalCmd.Flags().IntVar(&showRows, "show", 20, "energies to print (-1 for all)")
	evalCmd.Flags().StringVar(&writeXYZ, "write-xyz", "", "write geometries with energies to this xyz file")
	evalCmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as json")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list built-in potentials",
		RunE:  listPotentials,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE:  listPresets,
	}

	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "export the run as json")
	showCmd.Flags().StringVar(&units, "units", config.UnitsHartree, "display units (hartree, cm-1)")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "compare serial and pooled evaluation",
		RunE:  benchPotential,
	}
	addPotentialFlags(benchCmd)
	benchCmd.Flags().IntVar(&repeat, "repeat", 3, "evaluations per pool size, best time wins")
	benchCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")

	rootCmd.AddCommand(evalCmd, listCmd, presetsCmd, runsCmd, showCmd, benchCmd)
	return rootCmd
}

func addPotentialFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset configuration")
	cmd.Flags().StringVar(&potDir, "dir", "", "directory holding the potential module")
	cmd.Flags().StringVar(&potFile, "file", "", "potential module file")
	cmd.Flags().StringVar(&potFunc, "func", "", "potential function name")
	cmd.Flags().IntVar(&pool, "pool", 0, "worker pool size (0 or 1 is serial)")
	cmd.Flags().IntVar(&maxWorkers, "max-workers", 0, "upper bound on the pool size")
	cmd.Flags().IntVar(&numRandom, "random", 0, "number of random geometries")
	cmd.Flags().IntVar(&numAtoms, "atoms", 0, "atoms per random geometry")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().Float64Var(&scale, "scale", 0, "random coordinate range in angstrom")
}

// loadConfig layers defaults, the config file, POTMAN_ environment, a preset
// and finally explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	if preset != "" {
		p := config.GetPreset(preset)
		if p == nil {
			return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", config.ErrInvalidConfig, preset, config.ListPresets())
		}
		cfg.Potential = p.Potential
		cfg.Random = p.Random
		cfg.Units = p.Units
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if flags.Changed("dir") {
		cfg.Potential.Directory = potDir
	}
	if flags.Changed("file") {
		if potFile != cfg.Potential.File {
			cfg.Potential.Params = nil
		}
		cfg.Potential.File = potFile
	}
	if flags.Changed("func") {
		cfg.Potential.Function = potFunc
	}
	if flags.Changed("pool") {
		cfg.Pool = pool
	}
	if flags.Changed("max-workers") {
		cfg.MaxWorkers = maxWorkers
	}
	if flags.Changed("units") {
		cfg.Units = units
	}
	if flags.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if flags.Changed("random") {
		cfg.Random.Geometries = numRandom
	}
	if flags.Changed("atoms") {
		cfg.Random.Atoms = numAtoms
	}
	if flags.Changed("seed") {
		cfg.Random.Seed = seed
	}
	if flags.Changed("scale") {
		cfg.Random.Scale = scale
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) logging.Logger {
	if cfg.Log.Format == "json" {
		return logging.NewWithWriter(cmd.ErrOrStderr(), "potman", cfg.Log.Level)
	}
	return logging.NewConsole(cmd.ErrOrStderr(), "potman", cfg.Log.Level)
}

func newResolver(cfg *config.Config, log logging.Logger) *potential.Resolver {
	return potential.NewResolver(potentials.NewRegistry(),
		potential.WithResolverLogger(log),
		potential.WithProbeTimeout(cfg.ProbeTimeout),
	)
}

// startMetrics returns a nil collector when no address is configured.
func startMetrics(ctx context.Context, cfg *config.Config, log logging.Logger) (*metrics.Collector, func(), error) {
	if cfg.Metrics.Addr == "" {
		return nil, func() {}, nil
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	c, err := metrics.NewCollector(reg)
	if err != nil {
		return nil, nil, err
	}
	srv, err := metrics.StartServer(ctx, cfg.Metrics.Addr, reg, log)
	if err != nil {
		return nil, nil, err
	}
	return c, srv.Shutdown, nil
}
