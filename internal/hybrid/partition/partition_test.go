package partition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
)

func dimerizationModel(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.Build([]string{"M", "D", "P"}, []float64{0, 0, 301}, []string{"dimerize", "dissociate"})
	require.NoError(t, err)
	require.NoError(t, m.SetReactantChange(0, 2, 2))
	require.NoError(t, m.SetProductChange(0, 1, 1))
	require.NoError(t, m.SetReactantChange(1, 1, 1))
	require.NoError(t, m.SetProductChange(1, 2, 2))
	m.Variables = []float64{0.0017, 0.5}
	require.NoError(t, m.SetPropensity(0, func(state, vars, consts []float64) float64 {
		return vars[0] * state[2] * (state[2] - 1) / 2
	}, nil))
	require.NoError(t, m.SetPropensity(1, func(state, vars, consts []float64) float64 {
		return vars[1] * state[1]
	}, nil))
	m.UpdateAffectedReactions()
	return m
}

func TestUserFixedDiscreteNeverBecomesContinuous(t *testing.T) {
	m := dimerizationModel(t)
	m.Species[2].Mode = model.Discrete
	p := New(m, DefaultSwitchTol, 0)

	state := m.InitialState()
	for i := 0; i < 50; i++ {
		props := []float64{m.Propensity[0](state, m.Variables, nil), m.Propensity[1](state, m.Variables, nil)}
		modes := p.Classify(state, props)
		assert.Equal(t, model.Discrete, modes[2])
	}
}

func TestUserFixedContinuousNeverBecomesDiscrete(t *testing.T) {
	m := dimerizationModel(t)
	m.Species[2].Mode = model.Continuous
	p := New(m, DefaultSwitchTol, 0)

	state := m.InitialState()
	props := []float64{m.Propensity[0](state, m.Variables, nil), m.Propensity[1](state, m.Variables, nil)}
	modes := p.Classify(state, props)
	assert.Equal(t, model.Continuous, modes[2])
}

func TestReactionDemotedByAnyDiscreteSpecies(t *testing.T) {
	m := dimerizationModel(t)
	modes := []model.SpeciesMode{model.Continuous, model.Discrete, model.Continuous}
	rxnModes := ReactionModes(m, modes)
	// "dimerize" touches P (continuous) and D (discrete) -> demoted.
	assert.Equal(t, model.ReactionDiscrete, rxnModes[0])
}

func TestReactionContinuousWhenAllTouchedSpeciesContinuous(t *testing.T) {
	m := dimerizationModel(t)
	modes := []model.SpeciesMode{model.Continuous, model.Continuous, model.Continuous}
	rxnModes := ReactionModes(m, modes)
	assert.Equal(t, model.ReactionContinuous, rxnModes[0])
	assert.Equal(t, model.ReactionContinuous, rxnModes[1])
}

func TestRoundDiscreteClampsNonNegativeIntegers(t *testing.T) {
	state := []float64{3.6, 2.2, -0.3}
	modes := []model.SpeciesMode{model.Discrete, model.Discrete, model.Discrete}
	RoundDiscrete(state, modes)
	assert.Equal(t, []float64{4, 2, 0}, state)
}

func TestRoundDiscreteLeavesContinuousSpeciesUntouched(t *testing.T) {
	state := []float64{3.6, 2.2}
	modes := []model.SpeciesMode{model.Continuous, model.Discrete}
	RoundDiscrete(state, modes)
	assert.Equal(t, 3.6, state[0])
	assert.Equal(t, 2.0, state[1])
}
