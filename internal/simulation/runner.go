// Package simulation is the top-level orchestrator: it selects a solver per
// the driver configuration and drives the sequential, per-trajectory loop
// described in §5, owning the cooperative interrupt flag and the seed
// sequence each trajectory's RNG is drawn from.
package simulation

import (
	"io"
	"sync/atomic"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/StochSS/GillesPy2-sub000/internal/config"
	"github.com/StochSS/GillesPy2-sub000/internal/hybrid/solver"
	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
	"github.com/StochSS/GillesPy2-sub000/internal/rng"
	"github.com/StochSS/GillesPy2-sub000/internal/solver/ode"
	"github.com/StochSS/GillesPy2-sub000/internal/solver/ssa"
	"github.com/StochSS/GillesPy2-sub000/internal/solver/tauleap"
)

// Runner drives a Config's solver across every requested trajectory,
// writing each to sink in sequence (§5: "trajectory k+1 begins emission
// only after trajectory k has emitted its terminal marker").
type Runner struct {
	Model *model.Model
	Cfg   config.Config
	Log   *logrus.Logger

	interrupted atomic.Bool
}

// New returns a Runner for m under cfg. cfg must already have passed
// Resolve.
func New(m *model.Model, cfg config.Config) *Runner {
	return &Runner{Model: m, Cfg: cfg, Log: logrus.StandardLogger()}
}

// Interrupt sets the cooperative cancellation flag checked once per solver
// outer-loop iteration (§5 Cancellation): the current trajectory finishes
// flushing what it has and the loop stops before starting another.
func (r *Runner) Interrupt() {
	r.interrupted.Store(true)
}

// Run executes Cfg.NumberTrajectories trajectories against m, writing the
// §6 CSV-like stream to sink. It returns the first non-OK status
// encountered, if any (the run as a whole succeeds iff every trajectory's
// status is OK).
func (r *Runner) Run(sink io.Writer) (output.Status, error) {
	applyOverrides(r.Model, r.Cfg)

	grid := output.Timeline(r.Cfg.EndTime, int(r.Cfg.NumberTimesteps))
	buf := output.New(sink, int(r.Cfg.NumberTimesteps), r.Cfg.OutputInterval)

	seed := r.Cfg.Seed
	worst := output.OK
	for traj := uint(0); traj < r.Cfg.NumberTrajectories; traj++ {
		if r.interrupted.Load() {
			break
		}
		trajSeed, resolved := rng.New64(seed)
		seed = resolved + 1 // deterministic, non-colliding per-trajectory seeds

		status, stopTime, err := r.runOne(trajSeed, grid, buf)
		if err != nil {
			return status, err
		}
		if err := buf.EndTrajectory(status, stopTime); err != nil {
			return output.NumericalError, err
		}
		if status != output.OK && worst == output.OK {
			worst = status
		}
		r.Log.WithFields(logrus.Fields{"trajectory": traj, "status": status.String()}).Debug("trajectory complete")
	}
	return worst, nil
}

func (r *Runner) runOne(rnd *rng.MT19937_64, grid []float64, buf *output.Buffer) (output.Status, float64, error) {
	interrupt := r.interrupted.Load
	switch r.Cfg.Solver {
	case config.SSA:
		s := ssa.New(r.Model, grid)
		status, err := s.Run(rnd, buf, interrupt)
		return status, grid[buf.LastTimestep()], err
	case config.TauLeap:
		s := tauleap.New(r.Model, grid, r.Cfg.TauTol)
		status, err := s.Run(rnd, buf, interrupt)
		return status, grid[buf.LastTimestep()], err
	case config.Hybrid:
		s := solver.New(r.Model, grid, r.Cfg.TauTol, r.Cfg.SwitchTol, r.Cfg.SwitchMin)
		status, err := s.Run(rnd, buf, interrupt)
		return status, grid[buf.LastTimestep()], err
	case config.ODE:
		cfg := ode.DefaultConfig()
		cfg.RelTol = r.Cfg.RelTol
		cfg.AbsTol = r.Cfg.AbsTol
		cfg.MaxStep = r.Cfg.MaxStep
		s := ode.New(r.Model, grid, cfg)
		status, err := s.Run(buf, interrupt)
		return status, grid[buf.LastTimestep()], err
	default:
		return output.NumericalError, 0, errors.Errorf("simulation: unknown solver %q", r.Cfg.Solver)
	}
}

func applyOverrides(m *model.Model, cfg config.Config) {
	for id, v := range cfg.VariableOverrides {
		_ = m.OverrideVariable(id, v)
	}
	for id, v := range cfg.InitialPopulationOverrides {
		if id < len(m.Species) {
			m.Species[id].InitialPopulation = v
		}
	}
}
