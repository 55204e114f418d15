package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decayModel(t *testing.T) *Model {
	t.Helper()
	m, err := Build([]string{"A"}, []float64{100}, []string{"r1"})
	require.NoError(t, err)
	require.NoError(t, m.SetReactantChange(0, 0, 1))
	require.NoError(t, m.SetProductChange(0, 0, 0))
	m.Variables = []float64{0.2}
	require.NoError(t, m.SetPropensity(0, func(state, vars, consts []float64) float64 {
		return vars[0] * state[0]
	}, nil))
	m.UpdateAffectedReactions()
	return m
}

func TestBuildValidatesLengths(t *testing.T) {
	_, err := Build([]string{"A", "B"}, []float64{1}, nil)
	assert.Error(t, err)
}

func TestBuildRejectsNegativePopulation(t *testing.T) {
	_, err := Build([]string{"A"}, []float64{-1}, nil)
	assert.Error(t, err)
}

func TestSpeciesChangeDerivedFromReactantsProducts(t *testing.T) {
	m := decayModel(t)
	assert.Equal(t, -1, m.Reactions[0].SpeciesChange[0])
}

func TestUpdateAffectedReactionsSelfLoop(t *testing.T) {
	m := decayModel(t)
	// A -> nothing still consumes A, so the reaction affects itself.
	assert.Contains(t, m.Reactions[0].AffectedReactions, 0)
}

func TestUpdateAffectedReactionsTwoReactions(t *testing.T) {
	// A+B -> C (r1); C -> A+B (r2). Firing r1 changes A,B,C and must list r2
	// (consumes C) and itself (consumes A,B).
	m, err := Build([]string{"A", "B", "C"}, []float64{10, 10, 0}, []string{"r1", "r2"})
	require.NoError(t, err)
	require.NoError(t, m.SetReactantChange(0, 0, 1))
	require.NoError(t, m.SetReactantChange(0, 1, 1))
	require.NoError(t, m.SetProductChange(0, 2, 1))
	require.NoError(t, m.SetReactantChange(1, 2, 1))
	require.NoError(t, m.SetProductChange(1, 0, 1))
	require.NoError(t, m.SetProductChange(1, 1, 1))
	m.UpdateAffectedReactions()

	assert.Contains(t, m.Reactions[0].AffectedReactions, 0)
	assert.Contains(t, m.Reactions[0].AffectedReactions, 1)
	assert.Contains(t, m.Reactions[1].AffectedReactions, 0)
}

func TestOverrideVariableOutOfRange(t *testing.T) {
	m := decayModel(t)
	assert.Error(t, m.OverrideVariable(5, 1.0))
	assert.NoError(t, m.OverrideVariable(0, 0.5))
	assert.Equal(t, 0.5, m.Variables[0])
}

func TestInitialState(t *testing.T) {
	m := decayModel(t)
	assert.Equal(t, []float64{100}, m.InitialState())
}
