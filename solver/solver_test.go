package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gofsi/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scalar is F(y) = f(y) with derivative df
type scalar struct {
	f, df func(y float64) float64
}

func (s scalar) Residual(y []float64) ([]float64, error) {
	return []float64{s.f(y[0])}, nil
}

func (s scalar) Jacobian(y []float64) (*sparse.CSR, error) {
	return sparse.NewCSR(1, 1, []int{0, 1}, []int{0}, []float64{s.df(y[0])}), nil
}

var sqrt2 = scalar{
	f:  func(y float64) float64 { return y*y - 2 },
	df: func(y float64) float64 { return 2 * y },
}

func assertDescent(t *testing.T, history []float64) {
	t.Helper()
	for i := 1; i < len(history); i++ {
		assert.Less(t, history[i], history[i-1], "residual history %v", history)
	}
}

func TestNewtonConverges(t *testing.T) {
	nt := NewNewton(1e-12, 0, nil)
	assert.Equal(t, DefaultMaxIterations, nt.MaxIterations)
	y, it, err := nt.Solve(sqrt2, []float64{1})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, y[0], 1e-12)
	assert.Less(t, it, 10)
	assert.Len(t, nt.History, it+1)
	assertDescent(t, nt.History)

	// Already converged
	_, it, err = nt.Solve(sqrt2, []float64{math.Sqrt2})
	require.NoError(t, err)
	assert.Equal(t, 0, it)
}

func TestNewtonReportsNonConvergence(t *testing.T) {
	nt := NewNewton(1e-12, 1, DenseLU{})
	y0 := []float64{1}
	y, _, err := nt.Solve(sqrt2, y0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))
	var ne *NewtonError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 1, ne.Iteration)
	assert.InDelta(t, 0.25, ne.ResidualNorm, 1e-14)
	assert.Equal(t, []float64{1.5}, ne.Last)
	assert.Equal(t, []float64{1.5}, y)
	assert.Equal(t, []float64{1}, y0)
}

func TestNewtonSingular(t *testing.T) {
	nt := NewNewton(1e-12, 10, nil)
	noRoot := scalar{
		f:  func(y float64) float64 { return y*y + 1 },
		df: func(y float64) float64 { return 2 * y },
	}
	_, _, err := nt.Solve(noRoot, []float64{0})
	assert.True(t, errors.Is(err, ErrSingular))
	var ne *NewtonError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 0, ne.Iteration)
}

func TestNewtonLineSearch(t *testing.T) {
	// A full Newton step from 1.5 overshoots and grows the residual
	atan := scalar{
		f:  math.Atan,
		df: func(y float64) float64 { return 1 / (1 + y*y) },
	}
	nt := NewNewton(1e-12, 50, nil)
	y, _, err := nt.Solve(atan, []float64{1.5})
	require.NoError(t, err)
	assert.InDelta(t, 0, y[0], 1e-12)
	assertDescent(t, nt.History)
	assert.Less(t, math.Abs(nt.History[1]), 0.2)
}

func TestDenseLU(t *testing.T) {
	// [[4 1][2 3]] x = [1 2]
	A := sparse.NewCSR(2, 2, []int{0, 2, 4}, []int{0, 1, 0, 1}, []float64{4, 1, 2, 3})
	x, err := DenseLU{}.Solve(A, []float64{1, 2})
	require.NoError(t, err)
	assert.InDelta(t, 0.1, x[0], 1e-14)
	assert.InDelta(t, 0.6, x[1], 1e-14)

	S := sparse.NewCSR(2, 2, []int{0, 2, 4}, []int{0, 1, 0, 1}, []float64{1, 2, 2, 4})
	_, err = DenseLU{}.Solve(S, []float64{1, 2})
	assert.True(t, errors.Is(err, ErrSingular))

	_, err = DenseLU{}.Solve(A, []float64{1})
	assert.Error(t, err)

	x, err = DenseLU{}.Solve(sparse.NewCSR(0, 0, []int{0}, nil, nil), nil)
	require.NoError(t, err)
	assert.Empty(t, x)

	// Too large to expand, refused before any allocation
	n := MaxDenseDofs + 1
	ptr, ind, val := make([]int, n+1), make([]int, n), make([]float64, n)
	for i := 0; i < n; i++ {
		ptr[i+1], ind[i], val[i] = i+1, i, 1
	}
	_, err = DenseLU{}.Solve(sparse.NewCSR(n, n, ptr, ind, val), make([]float64, n))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dense LU limit")
}

/*
decay is x0' + lambda x0 + c x0^3 = 0 with x1 held at g(t) = t^2, laid out the
way the assembled operators lay out constrained rows.
*/
type decay struct {
	lambda, c float64
}

func (d decay) NumDofs() int { return 2 }

func (d decay) Residual(t float64, x, xt []float64) ([]float64, error) {
	return []float64{xt[0] + d.lambda*x[0] + d.c*x[0]*x[0]*x[0], x[1] - t*t}, nil
}

func (d decay) ShiftedJacobian(t float64, x, xt []float64, shift float64) (*sparse.CSR, error) {
	return sparse.NewCSR(2, 2, []int{0, 1, 2}, []int{0, 1},
		[]float64{d.lambda + 3*d.c*x[0]*x[0] + shift, 1}), nil
}

type squareTime struct{}

func (squareTime) ApplyDirichlet(t float64, x []float64)      { x[1] = t * t }
func (squareTime) ApplyDirichletRates(t float64, xt []float64) { xt[1] = 2 * t }
func (squareTime) IsDirichlet(dof int) bool                    { return dof == 1 }

func TestThetaMethodMidpoint(t *testing.T) {
	var (
		lambda = 3.
		tm     = &ThetaMethod{Theta: 0.5, T0: 0, Tf: 0.25, Dt: 0.1, Newton: NewNewton(1e-12, 50, nil), Quiet: true}
		tr     output.Trajectory
	)
	final, err := tm.Run(decay{lambda: lambda}, squareTime{}, []float64{1, 0}, &tr)
	require.NoError(t, err)

	assert.Equal(t, []float64{0.1, 0.2, 0.25}, tr.Times())
	want := 1.
	for _, dt := range []float64{0.1, 0.1, 0.05} {
		want *= (1 - lambda*dt/2) / (1 + lambda*dt/2)
	}
	assert.InDelta(t, want, final.X[0], 1e-12)
	assert.InDelta(t, 0.0625, final.X[1], 1e-15)
	assert.Equal(t, 3, final.Step)
	assert.InDelta(t, 0.05, final.Dt, 1e-15)
	for _, s := range tr.Snapshots {
		assert.Equal(t, 1, s.Iterations)
		assert.InDelta(t, s.Time*s.Time, s.X[1], 1e-15)
	}
}

func TestThetaMethodAborts(t *testing.T) {
	x0 := []float64{2, 0}
	tm := &ThetaMethod{Theta: 0.5, T0: 0, Tf: 1, Dt: 0.5, Newton: NewNewton(1e-12, 1, nil), Quiet: true}
	var tr output.Trajectory
	_, err := tm.Run(decay{lambda: 1, c: 5}, squareTime{}, x0, &tr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotConverged))
	var ne *NewtonError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 1, ne.Step)
	assert.Equal(t, 0.5, ne.Time)
	assert.Equal(t, 0, tr.Len())

	tm.Theta = 1
	_, err = tm.Run(decay{lambda: 1}, squareTime{}, x0, nil)
	assert.Error(t, err)

	tm.Theta, tm.Newton = 0.5, NewNewton(1e-12, 50, nil)
	_, err = tm.Run(decay{lambda: 1}, squareTime{}, x0[:1], nil)
	assert.Error(t, err)

	late := &output.Trajectory{}
	require.NoError(t, late.Append(output.Snapshot{Time: 10}))
	_, err = tm.Run(decay{lambda: 1}, squareTime{}, x0, late)
	assert.True(t, errors.Is(err, output.ErrNonMonotonic))
}

// affine is R(x) = A x - b
type affine struct {
	A *sparse.CSR
	b []float64
}

func (a affine) NumDofs() int {
	n, _ := a.A.Dims()
	return n
}

func (a affine) Residual(t float64, x, xt []float64) ([]float64, error) {
	r := make([]float64, len(a.b))
	a.A.DoNonZero(func(i, j int, v float64) { r[i] += v * x[j] })
	for i := range r {
		r[i] -= a.b[i]
	}
	return r, nil
}

func (a affine) Jacobian(t float64, x, xt []float64) (*sparse.CSR, error) { return a.A, nil }

func TestSolveLinear(t *testing.T) {
	op := affine{
		A: sparse.NewCSR(2, 2, []int{0, 2, 4}, []int{0, 1, 0, 1}, []float64{4, 1, 2, 3}),
		b: []float64{1, 2},
	}
	x1, err := SolveLinear(op, 0, nil)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.1, 0.6}, x1, 1e-14)
	x2, err := SolveLinear(op, 0, DenseLU{})
	require.NoError(t, err)
	assert.Equal(t, x1, x2)

	empty := affine{A: sparse.NewCSR(0, 0, []int{0}, nil, nil)}
	x, err := SolveLinear(empty, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, x)

	singular := affine{
		A: sparse.NewCSR(2, 2, []int{0, 2, 4}, []int{0, 1, 0, 1}, []float64{1, 2, 2, 4}),
		b: []float64{1, 2},
	}
	_, err = SolveLinear(singular, 0, nil)
	assert.True(t, errors.Is(err, ErrSingular))
}
