package solver

import (
	"errors"
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"
)

// System is a nonlinear system F(y) = 0 with its Jacobian
type System interface {
	Residual(y []float64) ([]float64, error)
	Jacobian(y []float64) (*sparse.CSR, error)
}

// NewtonError carries where and how a nonlinear solve failed, it unwraps to the cause
type NewtonError struct {
	Step         int
	Time         float64
	Iteration    int
	ResidualNorm float64
	Last         []float64 // Last accepted iterate
	Err          error
}

func (e *NewtonError) Error() string {
	return fmt.Sprintf("step %d at t = %g: iteration %d, |R| = %.6e: %v",
		e.Step, e.Time, e.Iteration, e.ResidualNorm, e.Err)
}

func (e *NewtonError) Unwrap() error { return e.Err }

/*
Newton solves F(y) = 0 with a backtracking line search on phi = 1/2 |F|^2.
Along the Newton direction the slope of phi at zero is -|F|^2, so every
accepted step strictly reduces the residual norm. History holds the residual
norms of the most recent solve, the initial one first.
*/
type Newton struct {
	FTol          float64
	MaxIterations int
	LinearSolver  LinearSolver
	Linesearch    *optimize.Backtracking
	History       []float64
}

const DefaultMaxIterations = 50

func NewNewton(ftol float64, maxIterations int, ls LinearSolver) *Newton {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	if ls == nil {
		ls = DenseLU{}
	}
	return &Newton{
		FTol:          ftol,
		MaxIterations: maxIterations,
		LinearSolver:  ls,
		Linesearch:    &optimize.Backtracking{},
	}
}

func (nt *Newton) Solve(sys System, y0 []float64) (y []float64, iterations int, err error) {
	y = append([]float64(nil), y0...)
	nt.History = nt.History[:0]
	r, err := sys.Residual(y)
	if err != nil {
		return y, 0, &NewtonError{Err: err, Last: y}
	}
	norm := floats.Norm(r, 2)
	nt.History = append(nt.History, norm)
	fail := func(cause error) (ne *NewtonError) {
		return &NewtonError{Iteration: iterations, ResidualNorm: norm, Last: y, Err: cause}
	}
	for iterations = 0; iterations < nt.MaxIterations; iterations++ {
		if norm < nt.FTol {
			return
		}
		var (
			J     *sparse.CSR
			delta []float64
		)
		if J, err = sys.Jacobian(y); err != nil {
			return y, iterations, fail(err)
		}
		floats.Scale(-1, r)
		if delta, err = nt.LinearSolver.Solve(J, r); err != nil {
			return y, iterations, fail(err)
		}
		if r, norm, err = nt.linesearch(sys, y, delta, norm); err != nil {
			iterations++
			return y, iterations, fail(err)
		}
		nt.History = append(nt.History, norm)
	}
	if norm < nt.FTol {
		return
	}
	return y, iterations, fail(ErrNotConverged)
}

/*
linesearch moves y along delta until the Armijo condition holds for phi. On
success y holds the accepted point and the residual there is returned.
*/
func (nt *Newton) linesearch(sys System, y, delta []float64, norm0 float64) (r []float64, norm float64, err error) {
	var (
		phi0  = 0.5 * norm0 * norm0
		slope = -norm0 * norm0
		trial = make([]float64, len(y))
		step  = 1.
		op    optimize.Operation
	)
	if !(slope < 0) {
		return nil, norm0, fmt.Errorf("%w: no descent direction", ErrNotConverged)
	}
	op = nt.Linesearch.Init(phi0, slope, step)
	for op == optimize.FuncEvaluation {
		floats.AddScaledTo(trial, y, step, delta)
		if r, err = sys.Residual(trial); err != nil {
			return nil, norm0, err
		}
		norm = floats.Norm(r, 2)
		var lsErr error
		if op, step, lsErr = nt.Linesearch.Iterate(0.5*norm*norm, 0); lsErr != nil {
			if errors.Is(lsErr, optimize.ErrLinesearcherFailure) {
				return nil, norm0, fmt.Errorf("%w: line search could not reduce |R| = %.6e", ErrNotConverged, norm0)
			}
			return nil, norm0, lsErr
		}
	}
	copy(y, trial)
	return
}
