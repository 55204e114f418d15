// Package tauleap implements the explicit tau-leaping solver (§4.6):
// adaptive-step Poisson firings with negative-state rejection and step
// halving.
package tauleap

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
	"github.com/StochSS/GillesPy2-sub000/internal/rng"
	"github.com/StochSS/GillesPy2-sub000/internal/tau"
)

// MaxHalvings bounds the negative-state retry loop (§4.6, §7): exceeding it
// is a fatal numerical error.
const MaxHalvings = 100

// Solver runs tau-leaping trajectories against a fixed output grid.
type Solver struct {
	Model    *model.Model
	Grid     []float64
	TauTol   float64
	Log      *logrus.Logger
	selector *tau.Selector

	// RejectionCount records how many halving retries the most recent Run
	// performed, exposed for tests asserting rejection behavior (§8 scenario 3).
	RejectionCount int
}

// New returns a Solver for m sampling onto grid with the given tau
// tolerance (<=0 uses tau.DefaultTol).
func New(m *model.Model, grid []float64, tauTol float64) *Solver {
	return &Solver{Model: m, Grid: grid, TauTol: tauTol, Log: logrus.StandardLogger(), selector: tau.New(m, tauTol)}
}

// Run executes one trajectory.
func (s *Solver) Run(r *rng.MT19937_64, buf *output.Buffer, interrupt func() bool) (output.Status, error) {
	vars, consts := s.Model.LoadParameters()
	state := s.Model.InitialState()
	nr := len(s.Model.Reactions)
	n := len(s.Model.Species)
	s.RejectionCount = 0

	buf.BeginTrajectory()
	t := 0.0
	gridIdx := 0
	var err error
	if gridIdx, err = emit(buf, s.Grid, gridIdx, t, state); err != nil {
		return output.NumericalError, err
	}

	propensities := make([]float64, nr)
	for gridIdx < len(s.Grid) {
		if interrupt != nil && interrupt() {
			if gridIdx, err = emitFrozen(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		a0 := 0.0
		for i := range s.Model.Reactions {
			propensities[i] = s.Model.Propensity[i](state, vars, consts)
			if math.IsNaN(propensities[i]) || propensities[i] < 0 {
				return output.PropensityError, errors.Errorf("tauleap: invalid propensity for reaction %d: %v", i, propensities[i])
			}
			a0 += propensities[i]
		}
		if a0 <= 0 {
			if gridIdx, err = emitFrozen(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		saveTime := s.Grid[gridIdx]
		selected := s.selector.Select(state, propensities, t, saveTime)
		candidateTau := selected.Tau

		next := make([]float64, n)
		counts := make([]int, nr)
		accepted := false
		for attempt := 0; attempt <= MaxHalvings; attempt++ {
			copy(next, state)
			for rx := 0; rx < nr; rx++ {
				if propensities[rx] <= 0 {
					counts[rx] = 0
					continue
				}
				counts[rx] = r.Poisson(propensities[rx] * candidateTau)
			}
			negative := false
			for rx := 0; rx < nr; rx++ {
				if counts[rx] == 0 {
					continue
				}
				rxn := &s.Model.Reactions[rx]
				for sp, delta := range rxn.SpeciesChange {
					next[sp] += float64(delta) * float64(counts[rx])
				}
			}
			for sp := 0; sp < n; sp++ {
				if s.Model.Species[sp].BoundaryCondition {
					continue
				}
				if next[sp] < 0 {
					negative = true
					break
				}
			}
			if !negative {
				accepted = true
				break
			}
			s.RejectionCount++
			candidateTau /= 2
			if candidateTau < tau.MinTau {
				candidateTau = tau.MinTau
			}
		}
		if !accepted {
			return output.NumericalError, errors.New("tauleap: exceeded maximum halving attempts without a non-negative state")
		}

		state, next = next, state
		t += candidateTau
		if gridIdx, err = emit(buf, s.Grid, gridIdx, t, state); err != nil {
			return output.NumericalError, err
		}
	}
	return output.OK, nil
}

func emit(buf *output.Buffer, grid []float64, gridIdx int, t float64, state []float64) (int, error) {
	for gridIdx < len(grid) && grid[gridIdx] <= t {
		if err := buf.WriteRow(grid[gridIdx], state, gridIdx); err != nil {
			return gridIdx, err
		}
		gridIdx++
	}
	return gridIdx, nil
}

func emitFrozen(buf *output.Buffer, grid []float64, gridIdx int, state []float64) (int, error) {
	for gridIdx < len(grid) {
		if err := buf.WriteRow(grid[gridIdx], state, gridIdx); err != nil {
			return gridIdx, err
		}
		gridIdx++
	}
	return gridIdx, nil
}
