// Package ode implements the deterministic ODE integrator of §4.7: a
// first-order backward-differentiation-formula (implicit Euler) stiff
// integrator whose Newton correction is solved with a dense direct linear
// solve (gonum/mat). No iterative Krylov (SPGMR) solver is used.
package ode

import "github.com/StochSS/GillesPy2-sub000/internal/model"

// RHS assembles dy/dt for every species: the sum of
// SpeciesChange[r,s]*ODEPropensity[r](y) over every reaction currently
// flagged continuous (active[r]==true), plus any rate-rule contribution.
// Boundary-condition species always get dy/dt==0, regardless of active
// flags or rate rules, per §4.7.
func RHS(t float64, y []float64, m *model.Model, vars, consts []float64, active []bool) []float64 {
	dydt := make([]float64, len(y))
	for r := range m.Reactions {
		if active != nil && !active[r] {
			continue
		}
		a := m.ODEPropensity[r](y, vars, consts)
		rxn := &m.Reactions[r]
		for s, delta := range rxn.SpeciesChange {
			if delta == 0 {
				continue
			}
			dydt[s] += float64(delta) * a
		}
	}
	for s, rule := range m.RateRules {
		if rule == nil {
			continue
		}
		dydt[s] += rule(t, y, vars, consts)
	}
	for s, sp := range m.Species {
		if sp.BoundaryCondition {
			dydt[s] = 0
		}
	}
	return dydt
}

// AllActive returns a slice flagging every reaction active, the mode a pure
// ODE run uses (as opposed to the hybrid solver's partial activation).
func AllActive(m *model.Model) []bool {
	active := make([]bool, len(m.Reactions))
	for i := range active {
		active[i] = true
	}
	return active
}
