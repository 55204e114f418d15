package ssa

import (
	"bytes"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
	"github.com/StochSS/GillesPy2-sub000/internal/rng"
)

func buildDecay(t *testing.T) *model.Model {
	t.Helper()
	m, err := model.Build([]string{"A"}, []float64{100}, []string{"decay"})
	require.NoError(t, err)
	require.NoError(t, m.SetReactantChange(0, 0, 1))
	m.Variables = []float64{0.2}
	require.NoError(t, m.SetPropensity(0, func(state, vars, consts []float64) float64 {
		return vars[0] * state[0]
	}, nil))
	m.UpdateAffectedReactions()
	return m
}

func lastStateColumn(t *testing.T, csv string) float64 {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	// second to last line is the last grid row; last line is the status token.
	row := lines[len(lines)-2]
	fields := strings.Split(row, ",")
	v, err := strconv.ParseFloat(fields[1], 64)
	require.NoError(t, err)
	return v
}

func TestDecayMeanNearAnalytic(t *testing.T) {
	m := buildDecay(t)
	grid := output.Timeline(20, 21)
	const trials = 300
	sum := 0.0
	for seed := int64(1); seed <= trials; seed++ {
		var buf bytes.Buffer
		b := output.New(&buf, len(grid), len(grid))
		r := rng.New(seed)
		s := New(m, grid)
		status, err := s.Run(r, b, nil)
		require.NoError(t, err)
		require.Equal(t, output.OK, status)
		sum += lastStateColumn(t, buf.String())
	}
	mean := sum / trials
	expected := 100 * math.Exp(-0.2*20)
	stddev := math.Sqrt(100 * (1 - math.Exp(-4)))
	assert.InDelta(t, expected, mean, 4*stddev/math.Sqrt(trials)+1)
}

func TestDeterministicReplayGivenSeed(t *testing.T) {
	m := buildDecay(t)
	grid := output.Timeline(20, 21)
	run := func() string {
		var buf bytes.Buffer
		b := output.New(&buf, len(grid), len(grid))
		r := rng.New(1)
		s := New(m, grid)
		_, err := s.Run(r, b, nil)
		require.NoError(t, err)
		return buf.String()
	}
	assert.Equal(t, run(), run())
}

func TestPopulationNeverNegative(t *testing.T) {
	m := buildDecay(t)
	grid := output.Timeline(50, 51)
	var buf bytes.Buffer
	b := output.New(&buf, len(grid), len(grid))
	r := rng.New(55)
	s := New(m, grid)
	_, err := s.Run(r, b, nil)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	for _, line := range lines[:len(lines)-1] {
		fields := strings.Split(line, ",")
		v, err := strconv.ParseFloat(fields[1], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, v, 0.0)
	}
}

func TestMichaelisMentenDNonDecreasing(t *testing.T) {
	m, err := model.Build([]string{"A", "B", "C", "D"}, []float64{301, 120, 0, 0}, []string{"r1", "r2", "r3"})
	require.NoError(t, err)
	require.NoError(t, m.SetReactantChange(0, 0, 1))
	require.NoError(t, m.SetReactantChange(0, 1, 1))
	require.NoError(t, m.SetProductChange(0, 2, 1))
	require.NoError(t, m.SetReactantChange(1, 2, 1))
	require.NoError(t, m.SetProductChange(1, 0, 1))
	require.NoError(t, m.SetProductChange(1, 1, 1))
	require.NoError(t, m.SetReactantChange(2, 2, 1))
	require.NoError(t, m.SetProductChange(2, 1, 1))
	require.NoError(t, m.SetProductChange(2, 3, 1))
	require.NoError(t, m.SetPropensity(0, func(state, vars, consts []float64) float64 { return 0.0017 * state[0] * state[1] }, nil))
	require.NoError(t, m.SetPropensity(1, func(state, vars, consts []float64) float64 { return 0.5 * state[2] }, nil))
	require.NoError(t, m.SetPropensity(2, func(state, vars, consts []float64) float64 { return 0.1 * state[2] }, nil))
	m.UpdateAffectedReactions()

	grid := output.Timeline(100, 101)
	var buf bytes.Buffer
	b := output.New(&buf, len(grid), len(grid))
	r := rng.New(9001)
	s := New(m, grid)
	_, err = s.Run(r, b, nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	prevD := -1.0
	for _, line := range lines[:len(lines)-1] {
		fields := strings.Split(line, ",")
		d, err := strconv.ParseFloat(fields[4], 64)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, d, prevD)
		prevD = d
	}
}

func TestInterruptEndsGracefully(t *testing.T) {
	m := buildDecay(t)
	grid := output.Timeline(20, 21)
	var buf bytes.Buffer
	b := output.New(&buf, len(grid), len(grid))
	r := rng.New(1)
	s := New(m, grid)
	calls := 0
	status, err := s.Run(r, b, func() bool {
		calls++
		return calls > 2
	})
	require.NoError(t, err)
	assert.Equal(t, output.OK, status)
}
