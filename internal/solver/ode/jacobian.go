package ode

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// Func is the ODE right-hand side signature used by the Newton/Jacobian
// machinery: f(y) at fixed t, with all other closure-bound arguments
// captured by the caller.
type Func func(y []float64) []float64

// Jacobian computes df/dy at y via gonum's finite-difference Jacobian
// (gonum.org/v1/gonum/diff/fd), the same fallback soypat-godesim reaches
// for when no analytic derivative is supplied; propensities here are
// arbitrary host callables, so no analytic Jacobian is ever available.
func Jacobian(f Func, y []float64) *mat.Dense {
	n := len(y)
	dst := mat.NewDense(n, n, nil)
	settings := &fd.JacobianSettings{
		Formula: fd.Central,
		Step:    1e-6,
	}
	fd.Jacobian(dst, func(yOut, x []float64) {
		copy(yOut, f(x))
	}, y, settings)
	return dst
}
