// Package solver implements the tau-hybrid driver of §4.11: partitioned
// continuous/discrete integration with root-finding for stochastic
// reaction firings and SBML-style events, falling back to a single SSA
// step whenever a hybrid step would commit a negative population.
package solver

import (
	"math"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/StochSS/GillesPy2-sub000/internal/hybrid/diffeq"
	"github.com/StochSS/GillesPy2-sub000/internal/hybrid/event"
	"github.com/StochSS/GillesPy2-sub000/internal/hybrid/partition"
	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
	"github.com/StochSS/GillesPy2-sub000/internal/rng"
	"github.com/StochSS/GillesPy2-sub000/internal/tau"
)

// MicroSteps bounds how finely the integrator subdivides each tau-selected
// window while scanning for root crossings (event triggers and discrete
// reaction clocks reaching zero). A fixed subdivision stands in for the
// reference's continuous root-finder — see DESIGN.md.
const MicroSteps = 200

// Solver runs tau-hybrid trajectories.
type Solver struct {
	Model     *model.Model
	Grid      []float64
	TauTol    float64
	SwitchTol float64
	SwitchMin float64
	Log       *logrus.Logger
}

// New returns a Solver for m sampling onto grid.
func New(m *model.Model, grid []float64, tauTol, switchTol, switchMin float64) *Solver {
	return &Solver{Model: m, Grid: grid, TauTol: tauTol, SwitchTol: switchTol, SwitchMin: switchMin, Log: logrus.StandardLogger()}
}

// Run executes one trajectory, seeded by r, writing rows to buf.
func (s *Solver) Run(r *rng.MT19937_64, buf *output.Buffer, interrupt func() bool) (output.Status, error) {
	m := s.Model
	n := len(m.Species)
	nr := len(m.Reactions)
	vars, consts := m.LoadParameters()

	state := m.InitialState()
	clocks := make([]float64, nr)
	for i := range clocks {
		clocks[i] = math.Log(r.Uniform01())
	}

	selector := tau.New(m, s.TauTol)
	partitioner := partition.New(m, s.SwitchTol, s.SwitchMin)
	assembler := diffeq.New(m)
	events := event.New(m)

	buf.BeginTrajectory()
	events.InitTriggers(0, state, vars, consts)
	events.Step(0, state, vars, consts)

	t := 0.0
	gridIdx := 0
	var err error
	if gridIdx, err = emit(buf, s.Grid, gridIdx, t, state); err != nil {
		return output.NumericalError, err
	}

	for gridIdx < len(s.Grid) {
		if interrupt != nil && interrupt() {
			if gridIdx, err = emitFrozen(buf, s.Grid, gridIdx, state); err != nil {
				return output.NumericalError, err
			}
			return output.OK, nil
		}

		propensities := make([]float64, nr)
		for i := range m.Reactions {
			propensities[i] = m.Propensity[i](state, vars, consts)
			if math.IsNaN(propensities[i]) || propensities[i] < 0 {
				return output.PropensityError, errors.Errorf("hybrid: invalid propensity for reaction %d: %v", i, propensities[i])
			}
		}

		saveTime := s.Grid[gridIdx]
		selected := selector.Select(state, propensities, t, saveTime)
		tauStep := selected.Tau

		speciesModes := partitioner.Classify(state, propensities)
		partition.RoundDiscrete(state, speciesModes)
		reactionModes := partition.ReactionModes(m, speciesModes)
		diffSet := assembler.Build(reactionModes)

		savedState := append([]float64(nil), state...)
		savedClocks := append([]float64(nil), clocks...)

		nextState, nextClocks, popChange, crossedAt := s.advance(r, state, clocks, diffSet, reactionModes, vars, consts, t, tauStep, events)

		if !commitOK(nextState, popChange, m) {
			copy(state, savedState)
			copy(clocks, savedClocks)
			advanced, newT, err := s.ssaFallback(state, clocks, propensities, t, saveTime)
			if err != nil {
				return output.LoopOverIntegrate, err
			}
			if !advanced {
				return output.LoopOverIntegrate, errors.New("hybrid: SSA fallback also produced an invalid state")
			}
			t = newT
			if gridIdx, err = emit(buf, s.Grid, gridIdx, t, state); err != nil {
				return output.NumericalError, err
			}
			continue
		}

		for sp := 0; sp < n; sp++ {
			if m.Species[sp].BoundaryCondition {
				continue
			}
			state[sp] = nextState[sp] + popChange[sp]
		}
		clocks = nextClocks
		t = crossedAt

		events.Step(t, state, vars, consts)

		if gridIdx, err = emit(buf, s.Grid, gridIdx, t, state); err != nil {
			return output.NumericalError, err
		}
	}
	return output.OK, nil
}

// advance integrates continuous concentrations and discrete-reaction
// clocks across at most [t, t+tauStep], stopping at the first root
// crossing — a discrete reaction's clock reaching zero, or an event
// trigger's rising edge — and accumulating any fired reaction's count into
// popChange (§4.11, "one root per active event trigger ... one root per
// DISCRETE reaction's clock R_r. Integrator returns early on any
// crossing."). If nothing crosses within the window, it returns the
// full-window state with an empty popChange.
func (s *Solver) advance(r *rng.MT19937_64, state, clocks []float64, diffSet diffeq.Set, reactionModes []model.ReactionMode, vars, consts []float64, t, tauStep float64, events *event.List) (nextState, nextClocks, popChange []float64, crossedAt float64) {
	n := len(state)
	nr := len(clocks)
	y := append([]float64(nil), state...)
	c := append([]float64(nil), clocks...)
	popChange = make([]float64, n)

	if tauStep <= 0 {
		return y, c, popChange, t
	}
	h := tauStep / float64(MicroSteps)

	cur := t
	for step := 0; step < MicroSteps; step++ {
		dydt := diffSet.Evaluate(cur, y, vars, consts)
		for i := 0; i < n; i++ {
			y[i] += h * dydt[i]
		}
		prev := append([]float64(nil), c...)
		for rxn := 0; rxn < nr; rxn++ {
			if reactionModes[rxn] != model.ReactionDiscrete {
				continue
			}
			a := s.Model.Propensity[rxn](y, vars, consts)
			c[rxn] += h * a
		}
		cur += h

		crossedAny := false
		for rxn := 0; rxn < nr; rxn++ {
			if reactionModes[rxn] != model.ReactionDiscrete {
				continue
			}
			if !(prev[rxn] < 0 && c[rxn] >= 0) {
				continue
			}
			crossedAny = true
			k, remaining := countFirings(r, c[rxn])
			c[rxn] = remaining
			rx := &s.Model.Reactions[rxn]
			for sp, delta := range rx.SpeciesChange {
				popChange[sp] += float64(delta) * float64(k)
			}
		}
		if crossedAny {
			return y, c, popChange, cur
		}
		if events.WouldTrigger(cur, y, vars, consts) {
			return y, c, popChange, cur
		}
	}
	return y, c, popChange, cur
}

// countFirings resamples clock += ln(u) while clock stays non-negative,
// counting the firings this crossing represents (§4.11).
func countFirings(r *rng.MT19937_64, clock float64) (k int, remaining float64) {
	for clock >= 0 {
		k++
		clock += math.Log(r.Uniform01())
	}
	return k, clock
}

// ssaFallback runs when a hybrid step would commit a negative population:
// restore the saved state (done by the caller), estimate each reaction's
// time-to-fire from its current clock and propensity (est_tau_r =
// -R_r/a_r), advance to the smallest positive estimate (capped at
// saveTime), and fire exactly that reaction once (§4.11).
func (s *Solver) ssaFallback(state, clocks []float64, propensities []float64, t, saveTime float64) (bool, float64, error) {
	best := -1
	bestTau := math.Inf(1)
	for rxn, a := range propensities {
		if a <= 0 {
			continue
		}
		estTau := -clocks[rxn] / a
		if estTau > 0 && estTau < bestTau {
			bestTau = estTau
			best = rxn
		}
	}
	if best < 0 {
		return false, t, nil
	}
	tNext := t + bestTau
	if tNext > saveTime {
		tNext = saveTime
	}
	rx := &s.Model.Reactions[best]
	trial := append([]float64(nil), state...)
	for sp, delta := range rx.SpeciesChange {
		trial[sp] += float64(delta)
	}
	for sp, species := range s.Model.Species {
		if species.BoundaryCondition {
			continue
		}
		if trial[sp] < 0 {
			return false, t, nil
		}
	}
	copy(state, trial)
	return true, tNext, nil
}

// commitOK reports whether applying popChange to nextState would keep
// every non-boundary species non-negative (§3, §7 "state violation").
func commitOK(nextState, popChange []float64, m *model.Model) bool {
	for sp := range nextState {
		if m.Species[sp].BoundaryCondition {
			continue
		}
		if nextState[sp]+popChange[sp] < 0 {
			return false
		}
	}
	return true
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
