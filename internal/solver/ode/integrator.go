package ode

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Config holds the integrator's tolerances (§6: rel_tol, abs_tol, max_step).
type Config struct {
	RelTol  float64
	AbsTol  float64
	MaxStep float64 // 0 means unlimited

	NewtonMaxIter int
	NewtonTol     float64
}

// DefaultConfig returns the §6 tolerance defaults.
func DefaultConfig() Config {
	return Config{
		RelTol:        1e-9,
		AbsTol:        1e-12,
		MaxStep:       0,
		NewtonMaxIter: 25,
		NewtonTol:     1e-10,
	}
}

// Integrator advances an ODE state y' = f(t,y) with implicit (backward)
// Euler stepping and a Newton correction whose linear solve stands in for
// SPGMR (§4.7). Between requested save points it takes as many internal
// steps as needed and is "queried" at t=saveTime in normal mode.
type Integrator struct {
	cfg Config
	f   func(t float64, y []float64) []float64

	internalStep float64
}

// New returns an Integrator for right-hand side f with the given config.
func New(f func(t float64, y []float64) []float64, cfg Config) *Integrator {
	return &Integrator{cfg: cfg, f: f}
}

// AdvanceTo integrates from (t0,y0) to saveTime, taking one or more
// internal backward-Euler steps bounded by cfg.MaxStep, and returns the
// state at saveTime.
func (in *Integrator) AdvanceTo(t0 float64, y0 []float64, saveTime float64) ([]float64, error) {
	if saveTime <= t0 {
		return append([]float64(nil), y0...), nil
	}
	remaining := saveTime - t0
	step := remaining
	if in.cfg.MaxStep > 0 && step > in.cfg.MaxStep {
		step = in.cfg.MaxStep
	}
	if in.internalStep > 0 && in.internalStep < step {
		step = in.internalStep
	}

	t := t0
	y := append([]float64(nil), y0...)
	for t < saveTime-1e-15 {
		h := step
		if t+h > saveTime {
			h = saveTime - t
		}
		next, usedH, err := in.step(t, y, h)
		if err != nil {
			return nil, err
		}
		y = next
		t += usedH
		in.internalStep = usedH
	}
	return y, nil
}

// step performs one implicit-Euler step of (up to) size h, halving on
// Newton non-convergence (a numerical error per §7, recovered by the
// hybrid solver's caller; pure-ODE callers treat repeated halving failure
// as fatal).
func (in *Integrator) step(t float64, y []float64, h float64) ([]float64, float64, error) {
	const maxHalvings = 12
	for attempt := 0; attempt <= maxHalvings; attempt++ {
		next, err := in.newtonSolve(t, y, h)
		if err == nil {
			return next, h, nil
		}
		h /= 2
		if h < 1e-14 {
			return nil, 0, errors.Wrap(err, "ode: step size underflow, integrator guard triggered")
		}
	}
	return nil, 0, errors.New("ode: newton iteration failed to converge within the step-halving guard")
}

// newtonSolve solves the implicit-Euler system y_{n+1} - y_n - h*f(t+h,
// y_{n+1}) = 0 for y_{n+1} via Newton's method, with the Jacobian of the
// residual evaluated by finite differences and each correction solved as a
// small dense linear system (the SPGMR-class iterative solve collapses to
// a direct solve at this state-vector size; see DESIGN.md).
func (in *Integrator) newtonSolve(t, y []float64, h float64) (next []float64, err error) {
	n := len(y)
	guess := append([]float64(nil), y...)
	tNext := t + h

	residual := func(x []float64) []float64 {
		fx := in.f(tNext, x)
		r := make([]float64, n)
		for i := 0; i < n; i++ {
			r[i] = x[i] - y[i] - h*fx[i]
		}
		return r
	}

	for iter := 0; iter < in.cfg.NewtonMaxIter; iter++ {
		r := residual(guess)
		if normInf(r) < in.cfg.NewtonTol {
			return guess, nil
		}
		jac := Jacobian(residual, guess)
		delta, solveErr := solveLinear(jac, r)
		if solveErr != nil {
			return nil, errors.Wrap(solveErr, "ode: newton linear solve failed")
		}
		for i := 0; i < n; i++ {
			guess[i] -= delta[i]
		}
	}
	r := residual(guess)
	if normInf(r) < in.cfg.NewtonTol*10 {
		return guess, nil
	}
	return nil, errors.New("ode: newton iteration did not converge")
}

// solveLinear solves A x = b for small dense systems.
func solveLinear(a *mat.Dense, b []float64) ([]float64, error) {
	n := len(b)
	B := mat.NewVecDense(n, append([]float64(nil), b...))
	var x mat.VecDense
	if err := x.SolveVec(a, B); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = x.AtVec(i)
	}
	return out, nil
}

func normInf(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
