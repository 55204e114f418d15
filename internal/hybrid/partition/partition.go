// Package partition implements the hybrid species/reaction classifier of
// §4.8: a rolling coefficient-of-variation window decides, per species,
// whether the hybrid solver should treat it as CONTINUOUS or DISCRETE this
// step, and a reaction inherits DISCRETE from any DISCRETE species it
// touches.
package partition

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
)

// WindowSize is the rolling smoothing window's length (§4.8).
const WindowSize = 12

// DefaultSwitchTol is the §6 default switch_tol.
const DefaultSwitchTol = 0.03

// Partitioner tracks each species' rolling CV window across successive
// calls to Classify, one Partitioner per trajectory.
type Partitioner struct {
	m         *model.Model
	switchTol float64
	switchMin float64

	windows [][]float64 // per-species ring of recent CV samples, len<=WindowSize
}

// New returns a Partitioner for m. switchTol<=0 uses DefaultSwitchTol;
// switchMin<=0 disables the mean-based override (§4.8).
func New(m *model.Model, switchTol, switchMin float64) *Partitioner {
	if switchTol <= 0 {
		switchTol = DefaultSwitchTol
	}
	return &Partitioner{
		m:         m,
		switchTol: switchTol,
		switchMin: switchMin,
		windows:   make([][]float64, len(m.Species)),
	}
}

// Classify computes this step's per-species mean/variance of propensity
// flux (the same mu_s/sigma2_s accumulation the tau selector uses),
// appends the resulting CV to each species' rolling window, and returns
// the smoothed CONTINUOUS/DISCRETE verdict for every species. User-fixed
// species (Species.Mode != model.Dynamic) always override the computed
// verdict.
func (p *Partitioner) Classify(state, propensities []float64) []model.SpeciesMode {
	n := len(p.m.Species)
	nr := len(p.m.Reactions)

	mu := make([]float64, n)
	sigma2 := make([]float64, n)
	for r := 0; r < nr; r++ {
		a := propensities[r]
		if a <= 0 {
			continue
		}
		rxn := &p.m.Reactions[r]
		for s := 0; s < n; s++ {
			if !rxn.Consumes(s) {
				continue
			}
			d := absInt(rxn.SpeciesChange[s])
			mu[s] += d * a
			sigma2[s] += d * d * a
		}
	}

	modes := make([]model.SpeciesMode, n)
	for s := 0; s < n; s++ {
		sp := &p.m.Species[s]
		cv := 1.0
		if mu[s] != 0 {
			cv = math.Sqrt(sigma2[s]) / mu[s]
		}
		p.windows[s] = pushWindow(p.windows[s], cv)

		smoothed, _ := stat.MeanVariance(p.windows[s], nil)
		continuous := smoothed < p.switchTol
		if p.switchMin > 0 && mu[s] > p.switchMin {
			continuous = true
		}

		switch {
		case sp.Mode == model.Continuous:
			modes[s] = model.Continuous
		case sp.Mode == model.Discrete:
			modes[s] = model.Discrete
		case continuous:
			modes[s] = model.Continuous
		default:
			modes[s] = model.Discrete
		}
	}
	return modes
}

// ReactionModes derives each reaction's continuous/discrete flag from the
// species verdict: a reaction stays CONTINUOUS only if every species it
// touches (reactant or product) is CONTINUOUS this step; any DISCRETE
// touched species demotes it (§4.8).
func ReactionModes(m *model.Model, speciesModes []model.SpeciesMode) []model.ReactionMode {
	modes := make([]model.ReactionMode, len(m.Reactions))
	for r := range m.Reactions {
		rxn := &m.Reactions[r]
		continuous := true
		for s := range speciesModes {
			if !rxn.TouchesSpecies(s) {
				continue
			}
			if speciesModes[s] != model.Continuous {
				continuous = false
				break
			}
		}
		if continuous {
			modes[r] = model.ReactionContinuous
		} else {
			modes[r] = model.ReactionDiscrete
		}
	}
	return modes
}

// RoundDiscrete rounds every species flagged DISCRETE in state to the
// nearest non-negative integer, the commit-time rule §4.8 requires.
func RoundDiscrete(state []float64, speciesModes []model.SpeciesMode) {
	for s, mode := range speciesModes {
		if mode != model.Discrete {
			continue
		}
		v := roundHalfAwayFromZero(state[s])
		if v < 0 {
			v = 0
		}
		state[s] = v
	}
}

func pushWindow(w []float64, v float64) []float64 {
	w = append(w, v)
	if len(w) > WindowSize {
		w = w[len(w)-WindowSize:]
	}
	return w
}

func absInt(x int) float64 {
	if x < 0 {
		return float64(-x)
	}
	return float64(x)
}

func roundHalfAwayFromZero(x float64) float64 {
	if x >= 0 {
		return math.Floor(x + 0.5)
	}
	return math.Ceil(x - 0.5)
}
