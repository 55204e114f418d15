package tau

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

func TestSelectRespectsMinTau(t *testing.T) {
	m := dimerizationModel(t)
	s := New(m, DefaultTol)
	state := m.InitialState()
	props := []float64{s.m.Propensity[0](state, m.Variables, nil), s.m.Propensity[1](state, m.Variables, nil)}
	res := s.Select(state, props, 0, 10)
	assert.GreaterOrEqual(t, res.Tau, MinTau)
}

func TestSelectClampsToSaveBoundary(t *testing.T) {
	m := dimerizationModel(t)
	s := New(m, DefaultTol)
	state := m.InitialState()
	props := []float64{s.m.Propensity[0](state, m.Variables, nil), s.m.Propensity[1](state, m.Variables, nil)}
	res := s.Select(state, props, 9.9999999, 10)
	assert.LessOrEqual(t, res.Tau, 10-9.9999999+1e-12)
}

func TestSelectFlagsCriticalNearExhaustion(t *testing.T) {
	m := dimerizationModel(t)
	s := New(m, DefaultTol)
	// D population of 3 with stoichiometric coefficient 1 and threshold 10
	// must be flagged critical.
	state := []float64{0, 3, 301}
	props := []float64{s.m.Propensity[0](state, m.Variables, nil), s.m.Propensity[1](state, m.Variables, nil)}
	res := s.Select(state, props, 0, 10)
	assert.True(t, res.Critical[1])
}

func TestSelectNotCriticalWithAbundantReactant(t *testing.T) {
	m := dimerizationModel(t)
	s := New(m, DefaultTol)
	state := m.InitialState()
	props := []float64{s.m.Propensity[0](state, m.Variables, nil), s.m.Propensity[1](state, m.Variables, nil)}
	res := s.Select(state, props, 0, 10)
	assert.False(t, res.Critical[0])
}
