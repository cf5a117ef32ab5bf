package solver

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"

	"github.com/notargets/gofsi/utils"
)

var (
	ErrSingular     = errors.New("singular linear system")
	ErrNotConverged = errors.New("nonlinear iteration did not converge")
)

// LinearSolver solves A x = b for an assembled sparse matrix
type LinearSolver interface {
	Solve(A *sparse.CSR, b []float64) (x []float64, err error)
}

// MaxDenseDofs bounds DenseLU, the expanded matrix takes 8 n^2 bytes (512 MiB at the bound)
const MaxDenseDofs = 8192

/*
DenseLU expands the matrix and factorizes it with partial pivoting. Memory is
O(n^2) and time O(n^3), so systems above MaxDenseDofs are refused. A 32x32
mesh gives 4*33^2 = 4356 unknowns. The BLAS behind it can be swapped for
netlib with the netlib build tag.
*/
type DenseLU struct{}

func (DenseLU) Solve(A *sparse.CSR, b []float64) (x []float64, err error) {
	n, nc := A.Dims()
	if n != nc || len(b) != n {
		return nil, fmt.Errorf("cannot solve %dx%d system with %d right hand side entries", n, nc, len(b))
	}
	if n == 0 {
		return []float64{}, nil
	}
	if n > MaxDenseDofs {
		return nil, fmt.Errorf("%d unknowns exceed the dense LU limit of %d", n, MaxDenseDofs)
	}
	D := mat.NewDense(n, n, nil)
	A.DoNonZero(func(i, j int, v float64) { D.Set(i, j, v) })
	var lu mat.LU
	lu.Factorize(D)
	if math.IsInf(lu.Cond(), 1) {
		return nil, ErrSingular
	}
	xv := mat.NewVecDense(n, nil)
	if err = lu.SolveVecTo(xv, false, mat.NewVecDense(n, append([]float64(nil), b...))); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return nil, fmt.Errorf("%w: %v", ErrSingular, err)
		}
		// Ill conditioned but solvable
		err = nil
	}
	x = xv.RawVector().Data
	if utils.IsNan(x) {
		return nil, fmt.Errorf("%w: solution contains NaN", ErrSingular)
	}
	return
}
