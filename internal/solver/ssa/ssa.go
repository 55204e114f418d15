// Package ssa implements the direct-method Stochastic Simulation Algorithm
// (§4.5): exact discrete-event simulation with no approximation.
package ssa

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
	"github.com/StochSS/GillesPy2-sub000/internal/rng"
)

// Solver runs SSA trajectories against a fixed output grid.
type Solver struct {
	Model *model.Model
	Grid  []float64
	Log   *logrus.Logger
}

// New returns a Solver for m sampling onto grid.
func New(m *model.Model, grid []float64) *Solver {
	return &Solver{Model: m, Grid: grid, Log: logrus.StandardLogger()}
}

// Run executes one trajectory, seeded by r, writing rows to buf and
// returning the terminal status. Interrupt, if non-nil, is polled once per
// event and causes a graceful OK stop (§5 Cancellation).
func (s *Solver) Run(r *rng.MT19937_64, buf *output.Buffer, interrupt func() bool) (output.Status, error) {
	vars, consts := s.Model.LoadParameters()
	state := s.Model.InitialState()
	nr := len(s.Model.Reactions)
	propensities := make([]float64, nr)
	for i := range s.Model.Reactions {
		propensities[i] = s.Model.Propensity[i](state, vars, consts)
		if err := checkPropensity(propensities[i]); err != nil {
			return output.PropensityError, err
		}
	}

	buf.BeginTrajectory()
	t := 0.0
	gridIdx := 0
	var err error
	if gridIdx, err = emitCovered(buf, s.Grid, gridIdx, t, state); err != nil {
		return output.NumericalError, err
	}

	for gridIdx < len(s.Grid) {
		if interrupt != nil && interrupt() {
			if _, err := freezeRemaining(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		a0 := 0.0
		for _, a := range propensities {
			a0 += a
		}
		if a0 <= 0 {
			if _, err := freezeRemaining(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		u1 := r.Uniform01()
		u2 := r.Uniform01()
		dt := -math.Log(u2) / a0
		tNext := t + dt

		if tNext > s.Grid[len(s.Grid)-1] {
			if _, err := freezeRemaining(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		rxn := selectReaction(propensities, u1*a0)
		applyReaction(state, &s.Model.Reactions[rxn])

		t = tNext
		if gridIdx, err = emitCovered(buf, s.Grid, gridIdx, t, state); err != nil {
			return output.NumericalError, err
		}

		for _, affected := range s.Model.Reactions[rxn].AffectedReactions {
			propensities[affected] = s.Model.Propensity[affected](state, vars, consts)
			if err := checkPropensity(propensities[affected]); err != nil {
				return output.PropensityError, err
			}
		}
	}
	return output.OK, nil
}

// selectReaction scans the cumulative sum, firing the first reaction whose
// running total brings the target at or below zero (stable, ascending-id
// order for reproducibility, §4.5 tie-break rule).
func selectReaction(propensities []float64, target float64) int {
	cumulative := target
	for i, a := range propensities {
		if a <= 0 {
			continue
		}
		cumulative -= a
		if cumulative <= 0 {
			return i
		}
	}
	// Numerical edge case: floating point round-off left a residual; fire
	// the last reaction with positive propensity.
	for i := len(propensities) - 1; i >= 0; i-- {
		if propensities[i] > 0 {
			return i
		}
	}
	return 0
}

func applyReaction(state []float64, r *model.Reaction) {
	for s, delta := range r.SpeciesChange {
		state[s] += float64(delta)
	}
}

func checkPropensity(a float64) error {
	if math.IsNaN(a) || a < 0 {
		return errors.Errorf("ssa: propensity evaluated to invalid value %v", a)
	}
	return nil
}

// emitCovered writes every grid row whose time has been reached by t,
// returning the next unemitted grid index.
func emitCovered(buf *output.Buffer, grid []float64, gridIdx int, t float64, state []float64) (int, error) {
	for gridIdx < len(grid) && grid[gridIdx] <= t {
		if err := buf.WriteRow(grid[gridIdx], state, gridIdx); err != nil {
			return gridIdx, err
		}
		gridIdx++
	}
	return gridIdx, nil
}

// freezeRemaining writes the current (frozen) state for every remaining
// grid point, used when propensity sum hits zero or an interrupt lands.
func freezeRemaining(buf *output.Buffer, grid []float64, gridIdx int, state []float64) (int, error) {
	for gridIdx < len(grid) {
		if err := buf.WriteRow(grid[gridIdx], state, gridIdx); err != nil {
			return gridIdx, err
		}
		gridIdx++
	}
	return gridIdx, nil
}
