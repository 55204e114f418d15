// Package diffeq implements the differential-equation assembler of §4.9:
// per-species dy/dt formula sets built from whichever reactions the hybrid
// partitioner currently flags continuous, plus any rate rules.
package diffeq

import (
	"gonum.org/v1/gonum/floats"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
)

// Formula is one term contributing to a species' dy/dt.
type Formula func(t float64, state, vars, consts []float64) float64

// Set is the assembled per-species formula collection: Set[s] sums to
// species s's dy/dt.
type Set [][]Formula

// Assembler builds Sets from a model's stoichiometry and rate rules.
// Reassembly is a cheap slice walk, so the hybrid solver calls Build fresh
// whenever the partitioner changes any reaction's mode (§4.9).
type Assembler struct {
	m *model.Model
}

// New returns an Assembler for m.
func New(m *model.Model) *Assembler {
	return &Assembler{m: m}
}

// Build returns the formula set implied by reactionModes: one closure per
// continuous reaction with a nonzero SpeciesChange on a species, plus that
// species' rate rule if any. Boundary-condition species always get an
// empty set (dy/dt ≡ 0, per §4.7/§4.9).
func (asm *Assembler) Build(reactionModes []model.ReactionMode) Set {
	n := len(asm.m.Species)
	sets := make(Set, n)
	for r := range asm.m.Reactions {
		if reactionModes[r] != model.ReactionContinuous {
			continue
		}
		rxn := &asm.m.Reactions[r]
		propensity := asm.m.ODEPropensity[r]
		for s, delta := range rxn.SpeciesChange {
			if delta == 0 {
				continue
			}
			coeff := float64(delta)
			sets[s] = append(sets[s], func(t float64, state, vars, consts []float64) float64 {
				return coeff * propensity(state, vars, consts)
			})
		}
	}
	for s, rule := range asm.m.RateRules {
		if rule == nil {
			continue
		}
		rule := rule
		sets[s] = append(sets[s], func(t float64, state, vars, consts []float64) float64 {
			return rule(t, state, vars, consts)
		})
	}
	for s, sp := range asm.m.Species {
		if sp.BoundaryCondition {
			sets[s] = nil
		}
	}
	return sets
}

// Evaluate sums every species' formula set into a dy/dt vector at (t,
// state).
func (s Set) Evaluate(t float64, state, vars, consts []float64) []float64 {
	dydt := make([]float64, len(s))
	var terms []float64
	for i, formulas := range s {
		terms = terms[:0]
		for _, f := range formulas {
			terms = append(terms, f(t, state, vars, consts))
		}
		dydt[i] = floats.Sum(terms)
	}
	return dydt
}
