// Package models builds the literal §8 end-to-end scenario models: fixture
// networks that cmd/gillesim selects with its --model flag, so every solver
// can be run against the same known reference networks.
package models

import "github.com/StochSS/GillesPy2-sub000/internal/model"

// Decay is scenario 1: single species A with initial 100, one reaction
// A -> ∅ at rate 0.2*A.
func Decay() (*model.Model, error) {
	m, err := model.Build([]string{"A"}, []float64{100}, []string{"decay"})
	if err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(0, 0, 1); err != nil {
		return nil, err
	}
	m.Variables = []float64{0.2}
	if err := m.SetPropensity(0, func(state, vars, consts []float64) float64 {
		return vars[0] * state[0]
	}, nil); err != nil {
		return nil, err
	}
	m.UpdateAffectedReactions()
	return m, nil
}

// MichaelisMenten is scenario 2 (and the scenario-6 conservation model):
// species {A:301, B:120, C:0, D:0}, reactions r1 (A+B->C), r2 (C->A+B),
// r3 (C->B+D). B+C is conserved across all three reactions, not A+C — see
// DESIGN.md for why this departs from the scenario-6 text.
func MichaelisMenten() (*model.Model, error) {
	m, err := model.Build([]string{"A", "B", "C", "D"}, []float64{301, 120, 0, 0}, []string{"r1", "r2", "r3"})
	if err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(0, 0, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(0, 1, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(0, 2, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(1, 2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(1, 0, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(1, 1, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(2, 2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(2, 1, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(2, 3, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(0, func(state, vars, consts []float64) float64 { return 0.0017 * state[0] * state[1] }, nil); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(1, func(state, vars, consts []float64) float64 { return 0.5 * state[2] }, nil); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(2, func(state, vars, consts []float64) float64 { return 0.1 * state[2] }, nil); err != nil {
		return nil, err
	}
	m.UpdateAffectedReactions()
	return m, nil
}

// Dimerization is scenario 3: species {M:0, D:0, P:301}, reactions
// P+P->D (rate 0.0017*P*(P-1)/2) and D->P+P (rate 0.5*D) — the critical-
// reaction regime tau-leaping must reject against without ever committing
// a negative P.
func Dimerization() (*model.Model, error) {
	m, err := model.Build([]string{"M", "D", "P"}, []float64{0, 0, 301}, []string{"dimerize", "dissociate"})
	if err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(0, 2, 2); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(0, 1, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(1, 1, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(1, 2, 2); err != nil {
		return nil, err
	}
	m.Variables = []float64{0.0017, 0.5}
	if err := m.SetPropensity(0, func(state, vars, consts []float64) float64 {
		return vars[0] * state[2] * (state[2] - 1) / 2
	}, nil); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(1, func(state, vars, consts []float64) float64 {
		return vars[1] * state[1]
	}, nil); err != nil {
		return nil, err
	}
	m.UpdateAffectedReactions()
	return m, nil
}

// EventDelay is scenario 5: species X=0 with rate rule dX/dt=1, one event
// trigger X>=5, delay=2, persistent, assignment X:=0. X rises linearly to
// 5 near t=5 then resets to 0 at t=7.
func EventDelay() (*model.Model, error) {
	m, err := model.Build([]string{"X"}, []float64{0}, nil)
	if err != nil {
		return nil, err
	}
	m.Species[0].Mode = model.Continuous
	if err := m.SetRateRule(0, func(t float64, state, vars, consts []float64) float64 {
		return 1
	}); err != nil {
		return nil, err
	}
	m.AddEvent(model.Event{
		Trigger:      func(t float64, state, vars, consts []float64) bool { return state[0] >= 5 },
		Delay:        func(t float64, state, vars, consts []float64) float64 { return 2 },
		Priority:     func(t float64, state, vars, consts []float64) float64 { return 0 },
		IsPersistent: true,
		Assignments: []model.AssignmentFunc{
			func(t float64, state, vars []float64, consts []float64) { state[0] = 0 },
		},
	})
	return m, nil
}

// Vilar is scenario 4: the 9-species activator-repressor genetic
// oscillator of Vilar et al. (2002), the model GillesPy2 ships as its
// tau-leaping demo. Species order: Da, Da2, Ma, A, Dr, Dr2, Mr, R, C.
func Vilar() (*model.Model, error) {
	species := []string{"Da", "Da2", "Ma", "A", "Dr", "Dr2", "Mr", "R", "C"}
	init := []float64{1, 0, 0, 0, 1, 0, 0, 0, 0}
	reactions := []string{
		"da_binds_a", "da2_unbinds", "dr_binds_a", "dr2_unbinds",
		"da2_transcribes_ma", "da_transcribes_ma",
		"dr2_transcribes_mr", "dr_transcribes_mr",
		"ma_translates_a", "mr_translates_r",
		"a_r_complex", "complex_decays",
		"ma_decays", "mr_decays", "a_decays", "r_decays",
	}
	m, err := model.Build(species, init, reactions)
	if err != nil {
		return nil, err
	}
	const (
		iDa = iota
		iDa2
		iMa
		iA
		iDr
		iDr2
		iMr
		iR
		iC
	)
	const (
		alphaA  = 50.0
		alphaA2 = 500.0
		alphaR  = 0.01
		alphaR2 = 50.0
		betaA   = 50.0
		betaR   = 5.0
		deltaMA = 10.0
		deltaMR = 0.5
		deltaA  = 1.0
		deltaR  = 0.2
		gammaA  = 1.0
		gammaR  = 1.0
		gammaC  = 2.0
		thetaA  = 50.0
		thetaR  = 100.0
	)

	set := func(rxn int, reactant, reactantCount, product, productCount int) error {
		if reactant >= 0 {
			if err := m.SetReactantChange(rxn, reactant, reactantCount); err != nil {
				return err
			}
		}
		if product >= 0 {
			if err := m.SetProductChange(rxn, product, productCount); err != nil {
				return err
			}
		}
		return nil
	}

	// 0: Da + A -> Da2
	if err := m.SetReactantChange(0, iDa, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(0, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(0, iDa2, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(0, func(s, v, c []float64) float64 { return gammaA * s[iDa] * s[iA] }, nil); err != nil {
		return nil, err
	}

	// 1: Da2 -> Da + A
	if err := set(1, iDa2, 1, iDa, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(1, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(1, func(s, v, c []float64) float64 { return thetaA * s[iDa2] }, nil); err != nil {
		return nil, err
	}

	// 2: Dr + A -> Dr2
	if err := m.SetReactantChange(2, iDr, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(2, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(2, iDr2, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(2, func(s, v, c []float64) float64 { return gammaR * s[iDr] * s[iA] }, nil); err != nil {
		return nil, err
	}

	// 3: Dr2 -> Dr + A
	if err := set(3, iDr2, 1, iDr, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(3, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(3, func(s, v, c []float64) float64 { return thetaR * s[iDr2] }, nil); err != nil {
		return nil, err
	}

	// 4: Da2 -> Da2 + Ma
	if err := m.SetReactantChange(4, iDa2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(4, iDa2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(4, iMa, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(4, func(s, v, c []float64) float64 { return alphaA2 * s[iDa2] }, nil); err != nil {
		return nil, err
	}

	// 5: Da -> Da + Ma
	if err := m.SetReactantChange(5, iDa, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(5, iDa, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(5, iMa, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(5, func(s, v, c []float64) float64 { return alphaA * s[iDa] }, nil); err != nil {
		return nil, err
	}

	// 6: Dr2 -> Dr2 + Mr
	if err := m.SetReactantChange(6, iDr2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(6, iDr2, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(6, iMr, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(6, func(s, v, c []float64) float64 { return alphaR2 * s[iDr2] }, nil); err != nil {
		return nil, err
	}

	// 7: Dr -> Dr + Mr
	if err := m.SetReactantChange(7, iDr, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(7, iDr, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(7, iMr, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(7, func(s, v, c []float64) float64 { return alphaR * s[iDr] }, nil); err != nil {
		return nil, err
	}

	// 8: Ma -> Ma + A
	if err := m.SetReactantChange(8, iMa, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(8, iMa, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(8, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(8, func(s, v, c []float64) float64 { return betaA * s[iMa] }, nil); err != nil {
		return nil, err
	}

	// 9: Mr -> Mr + R
	if err := m.SetReactantChange(9, iMr, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(9, iMr, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(9, iR, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(9, func(s, v, c []float64) float64 { return betaR * s[iMr] }, nil); err != nil {
		return nil, err
	}

	// 10: A + R -> C
	if err := m.SetReactantChange(10, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetReactantChange(10, iR, 1); err != nil {
		return nil, err
	}
	if err := m.SetProductChange(10, iC, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(10, func(s, v, c []float64) float64 { return gammaC * s[iA] * s[iR] }, nil); err != nil {
		return nil, err
	}

	// 11: C -> R
	if err := set(11, iC, 1, iR, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(11, func(s, v, c []float64) float64 { return deltaA * s[iC] }, nil); err != nil {
		return nil, err
	}

	// 12: Ma -> ∅
	if err := m.SetReactantChange(12, iMa, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(12, func(s, v, c []float64) float64 { return deltaMA * s[iMa] }, nil); err != nil {
		return nil, err
	}

	// 13: Mr -> ∅
	if err := m.SetReactantChange(13, iMr, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(13, func(s, v, c []float64) float64 { return deltaMR * s[iMr] }, nil); err != nil {
		return nil, err
	}

	// 14: A -> ∅
	if err := m.SetReactantChange(14, iA, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(14, func(s, v, c []float64) float64 { return deltaA * s[iA] }, nil); err != nil {
		return nil, err
	}

	// 15: R -> ∅
	if err := m.SetReactantChange(15, iR, 1); err != nil {
		return nil, err
	}
	if err := m.SetPropensity(15, func(s, v, c []float64) float64 { return deltaR * s[iR] }, nil); err != nil {
		return nil, err
	}

	m.UpdateAffectedReactions()
	return m, nil
}
