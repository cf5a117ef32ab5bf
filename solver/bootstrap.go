package solver

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/floats"
)

// SteadyOperator is an operator without time dependence in its unknowns
type SteadyOperator interface {
	NumDofs() int
	Residual(t float64, x, xt []float64) ([]float64, error)
	Jacobian(t float64, x, xt []float64) (*sparse.CSR, error)
}

/*
SolveLinear solves an affine steady problem with one assembly and one linear
solve, x = -J(0)^-1 R(0). The result only depends on the operator and t0.
*/
func SolveLinear(op SteadyOperator, t0 float64, ls LinearSolver) (x []float64, err error) {
	N := op.NumDofs()
	if N == 0 {
		return []float64{}, nil
	}
	if ls == nil {
		ls = DenseLU{}
	}
	var (
		zero = make([]float64, N)
		r    []float64
		J    *sparse.CSR
	)
	if r, err = op.Residual(t0, zero, nil); err != nil {
		return nil, fmt.Errorf("bootstrap residual: %w", err)
	}
	if J, err = op.Jacobian(t0, zero, nil); err != nil {
		return nil, fmt.Errorf("bootstrap Jacobian: %w", err)
	}
	floats.Scale(-1, r)
	if x, err = ls.Solve(J, r); err != nil {
		return nil, fmt.Errorf("bootstrap solve: %w", err)
	}
	return
}
