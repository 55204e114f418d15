// Package tau implements the adaptive leap-size selection of §4.4: the
// Cao-Gillespie-Petzold tau-leaping step-size formula plus critical
// reaction detection, shared by the tau-leaping solver and the tau-hybrid
// solver's discrete-regime stepping.
package tau

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
)

// DefaultCriticalThreshold is the population/stoichiometry ratio below
// which a reaction with positive propensity is flagged critical (§4.4.3).
const DefaultCriticalThreshold = 10.0

// DefaultTol is the tau-tolerance default from §6.
const DefaultTol = 0.03

// MinTau is the floor enforced on every computed step (§4.4.7, §8).
const MinTau = 1e-10

// Selector precomputes the highest-order-reaction data for a model and then
// answers tau-selection queries for successive states.
type Selector struct {
	m                 *model.Model
	tol               float64
	criticalThreshold float64

	// g[s] is the error-control coefficient for species s (Cao-Gillespie-
	// Petzold's g_i), derived once from the model's stoichiometry.
	g []float64
}

// New precomputes HOR/g_i data for m. tol is the tau tolerance (epsilon);
// pass <= 0 to use DefaultTol.
func New(m *model.Model, tol float64) *Selector {
	if tol <= 0 {
		tol = DefaultTol
	}
	s := &Selector{m: m, tol: tol, criticalThreshold: DefaultCriticalThreshold}
	s.g = computeG(m)
	return s
}

// computeG derives each species' highest-order-reaction correction g_s: a
// species whose highest-order reaction has order 1 gets g_s=1; for order>=2,
// stoichiometry 1 gives g_s equal to the order, stoichiometry 2 gives the
// constant 3 and stoichiometry 3 the constant 5. These values are fixed at
// construction and do not vary with the species population x_s. Species
// never consumed default to 1.
func computeG(m *model.Model) []float64 {
	n := len(m.Species)
	order := make([]int, n)   // highest reaction order touching s as reactant
	coeff := make([]int, n)   // stoichiometric coefficient of s in that reaction
	for s := 0; s < n; s++ {
		order[s] = 1
		coeff[s] = 1
	}
	for i := range m.Reactions {
		r := &m.Reactions[i]
		rxnOrder := 0
		for s := 0; s < n; s++ {
			rxnOrder += r.ReactantsChange[s]
		}
		for s := 0; s < n; s++ {
			if r.ReactantsChange[s] <= 0 {
				continue
			}
			if rxnOrder > order[s] || (rxnOrder == order[s] && r.ReactantsChange[s] > coeff[s]) {
				order[s] = rxnOrder
				coeff[s] = r.ReactantsChange[s]
			}
		}
	}
	g := make([]float64, n)
	for s := 0; s < n; s++ {
		g[s] = gFor(order[s], coeff[s])
	}
	return g
}

func gFor(order, coeff int) float64 {
	if order <= 1 {
		return 1
	}
	switch coeff {
	case 1:
		return float64(order)
	case 2:
		return 2 + 1
	case 3:
		return 3 + 1.5 + 0.5
	default:
		return float64(order)
	}
}

// Result is the outcome of one tau-selection query.
type Result struct {
	Tau      float64
	Critical []bool // indexed by reaction id
}

// Select computes tau for the given state and propensities, per §4.4.
// saveTime is the next output-grid boundary; if it is closer than the
// computed tau, tau is clamped to it (still never below MinTau).
func (s *Selector) Select(state, propensities []float64, t, saveTime float64) Result {
	n := len(s.m.Species)
	nr := len(s.m.Reactions)

	critical := make([]bool, nr)
	for r := 0; r < nr; r++ {
		if propensities[r] <= 0 {
			continue
		}
		rx := &s.m.Reactions[r]
		for sp := 0; sp < n; sp++ {
			if s.m.Species[sp].BoundaryCondition {
				continue
			}
			if rx.ReactantsChange[sp] > 0 {
				ratio := state[sp] / float64(rx.ReactantsChange[sp])
				if ratio < s.criticalThreshold {
					critical[r] = true
				}
			}
		}
	}

	mu := make([]float64, n)
	sigma2 := make([]float64, n)
	absDelta := make([]float64, n)
	sqDelta := make([]float64, n)
	for r := 0; r < nr; r++ {
		if critical[r] {
			continue
		}
		a := propensities[r]
		if a <= 0 {
			continue
		}
		rx := &s.m.Reactions[r]
		for sp := range absDelta {
			absDelta[sp] = 0
			sqDelta[sp] = 0
		}
		for sp := 0; sp < n; sp++ {
			if !rx.Consumes(sp) {
				continue
			}
			d := math.Abs(float64(rx.SpeciesChange[sp]))
			absDelta[sp] = d
			sqDelta[sp] = d * d
		}
		// mu += a*absDelta, sigma2 += a*sqDelta: the per-reaction
		// contribution to each species' expected and squared leap size.
		floats.AddScaled(mu, a, absDelta)
		floats.AddScaled(sigma2, a, sqDelta)
	}

	tauNC := math.Inf(1)
	anyNonCritical := false
	for sp := 0; sp < n; sp++ {
		if s.m.Species[sp].BoundaryCondition {
			continue
		}
		if mu[sp] == 0 && sigma2[sp] == 0 {
			continue
		}
		anyNonCritical = true
		eps := s.tol / s.g[sp]
		x := state[sp]
		bound := math.Abs(eps * x)
		if bound <= 0 {
			bound = 1
		}
		var t1, t2 float64
		if mu[sp] > 0 {
			t1 = bound / mu[sp]
		} else {
			t1 = math.Inf(1)
		}
		if sigma2[sp] > 0 {
			t2 = (bound * bound) / sigma2[sp]
		} else {
			t2 = math.Inf(1)
		}
		cand := math.Min(t1, t2)
		if cand < tauNC {
			tauNC = cand
		}
	}
	if tauNC > 1 {
		tauNC = 1
	}

	tauC := math.Inf(1)
	anyCritical := false
	for r := 0; r < nr; r++ {
		if critical[r] && propensities[r] > 0 {
			anyCritical = true
			cand := 1.0 / propensities[r]
			if cand < tauC {
				tauC = cand
			}
		}
	}

	var chosen float64
	switch {
	case !anyCritical && anyNonCritical:
		chosen = tauNC
	case anyCritical && !anyNonCritical:
		chosen = tauC
	case anyCritical && anyNonCritical:
		chosen = math.Min(tauNC, tauC)
	default:
		chosen = 1
	}

	if saveTime > t {
		if rem := saveTime - t; rem < chosen {
			chosen = rem
		}
	}
	if chosen < MinTau {
		chosen = MinTau
	}
	return Result{Tau: chosen, Critical: critical}
}
