package ode

import (
	"github.com/StochSS/GillesPy2-sub000/internal/model"
	"github.com/StochSS/GillesPy2-sub000/internal/output"
)

// Solver drives the ODE integrator across a fixed output grid, deterministic
// (no RNG involvement — §4.7 is the purely continuous branch of the core).
type Solver struct {
	Model *model.Model
	Grid  []float64
	Cfg   Config
}

// New returns a Solver for m sampling onto grid with the given tolerances.
func New(m *model.Model, grid []float64, cfg Config) *Solver {
	return &Solver{Model: m, Grid: grid, Cfg: cfg}
}

// Run integrates the model's reaction-rate equations across the grid and
// writes one row per grid point.
func (s *Solver) Run(buf *output.Buffer, interrupt func() bool) (output.Status, error) {
	vars, consts := s.Model.LoadParameters()
	active := AllActive(s.Model)
	rhs := func(t float64, y []float64) []float64 {
		return RHS(t, y, s.Model, vars, consts, active)
	}
	integrator := New(rhs, s.Cfg)

	buf.BeginTrajectory()
	y := s.Model.InitialState()
	if err := buf.WriteRow(s.Grid[0], y, 0); err != nil {
		return output.NumericalError, err
	}

	t := s.Grid[0]
	for i := 1; i < len(s.Grid); i++ {
		if interrupt != nil && interrupt() {
			for j := i; j < len(s.Grid); j++ {
				if err := buf.WriteRow(s.Grid[j], y, j); err != nil {
					return output.NumericalError, err
				}
			}
			return output.OK, nil
		}
		next, err := integrator.AdvanceTo(t, y, s.Grid[i])
		if err != nil {
			return output.NumericalError, err
		}
		y = next
		t = s.Grid[i]
		if err := buf.WriteRow(t, y, i); err != nil {
			return output.NumericalError, err
		}
	}
	return output.OK, nil
}
