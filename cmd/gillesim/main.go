// Command gillesim is the ambient CLI surface over the simulation core:
// it populates a config.Config from flags (optionally overlaid by a
// config file via viper), builds one of the §8 demo models, and drives
// internal/simulation.Runner against stdout or a named output file.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/StochSS/GillesPy2-sub000/internal/config"
	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/models"
	"github.com/StochSS/GillesPy2-sub000/internal/simulation"
)

var (
	flagSolver       string
	flagModelName    string
	flagSeed         int64
	flagTimesteps    uint
	flagTrajectories uint
	flagEndTime      float64
	flagTauTol       float64
	flagRelTol       float64
	flagAbsTol       float64
	flagSwitchTol    float64
	flagOutputEvery  int
	flagVerbose      bool
	flagOutputFile   string
	flagOverlay      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gillesim",
		Short: "Run SSA, tau-leaping, ODE or tau-hybrid reaction network simulations",
		RunE:  run,
	}
	root.Flags().StringVar(&flagSolver, "solver", config.SSA, "solver: ssa, tau-leaping, ode, tau-hybrid")
	root.Flags().StringVar(&flagModelName, "model", "decay", "demo model: decay, michaelis-menten, dimerization, event-delay, vilar")
	root.Flags().Int64Var(&flagSeed, "seed", config.SeedSentinel, "random seed, -1 samples from the clock")
	root.Flags().UintVar(&flagTimesteps, "timesteps", 21, "number of output grid points")
	root.Flags().UintVar(&flagTrajectories, "trajectories", 1, "number of trajectories")
	root.Flags().Float64Var(&flagEndTime, "end-time", 20, "simulation end time")
	root.Flags().Float64Var(&flagTauTol, "tau-tol", config.DefaultTauTol, "tau-leaping/hybrid tolerance")
	root.Flags().Float64Var(&flagRelTol, "rel-tol", config.DefaultRelTol, "ODE relative tolerance")
	root.Flags().Float64Var(&flagAbsTol, "abs-tol", config.DefaultAbsTol, "ODE absolute tolerance")
	root.Flags().Float64Var(&flagSwitchTol, "switch-tol", config.DefaultSwitchTol, "hybrid partitioner switch tolerance")
	root.Flags().IntVar(&flagOutputEvery, "output-interval", 1, "flush every N emitted rows")
	root.Flags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	root.Flags().StringVar(&flagOutputFile, "output", "", "output file, defaults to stdout")
	root.Flags().StringVar(&flagOverlay, "config", "", "optional config file overlay (yaml/json/toml)")
	return root
}

func run(cmd *cobra.Command, args []string) error {
	log := logrus.StandardLogger()
	if flagVerbose {
		log.SetLevel(logrus.DebugLevel)
	}

	m, err := buildModel(flagModelName)
	if err != nil {
		return err
	}

	cfg := config.Default()
	cfg.Solver = flagSolver
	cfg.Seed = flagSeed
	cfg.NumberTimesteps = flagTimesteps
	cfg.NumberTrajectories = flagTrajectories
	cfg.EndTime = flagEndTime
	cfg.TauTol = flagTauTol
	cfg.RelTol = flagRelTol
	cfg.AbsTol = flagAbsTol
	cfg.SwitchTol = flagSwitchTol
	cfg.OutputInterval = flagOutputEvery
	cfg.Verbose = flagVerbose

	if flagOverlay != "" {
		cfg, err = config.LoadOverlay(cfg, flagOverlay)
		if err != nil {
			return err
		}
	}
	if err := cfg.Resolve(); err != nil {
		return err
	}

	sink := cmd.OutOrStdout()
	var outFile *os.File
	if flagOutputFile != "" {
		outFile, err = os.Create(flagOutputFile)
		if err != nil {
			return err
		}
		sink = outFile
	}

	runner := simulation.New(m, cfg)
	runner.Log = log
	status, runErr := runner.Run(sink)
	if outFile != nil {
		outFile.Close()
	}
	if runErr != nil {
		return runErr
	}
	log.WithField("status", status.String()).Info("simulation complete")
	os.Exit(status.ExitCode())
	return nil
}

func buildModel(name string) (*model.Model, error) {
	switch name {
	case "decay":
		return models.Decay()
	case "michaelis-menten":
		return models.MichaelisMenten()
	case "dimerization":
		return models.Dimerization()
	case "event-delay":
		return models.EventDelay()
	case "vilar":
		return models.Vilar()
	default:
		return nil, fmt.Errorf("gillesim: unknown model %q", name)
	}
}
