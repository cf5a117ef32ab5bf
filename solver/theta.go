package solver

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/james-bowman/sparse"

	"github.com/notargets/gofsi/output"
)

// TransientOperator is R(t, x, xt) with the combined Jacobian dR/dx + shift dR/dxt
type TransientOperator interface {
	NumDofs() int
	Residual(t float64, x, xt []float64) ([]float64, error)
	ShiftedJacobian(t float64, x, xt []float64, shift float64) (*sparse.CSR, error)
}

// Constraints supplies the prescribed values and rates of the constrained unknowns
type Constraints interface {
	ApplyDirichlet(t float64, x []float64)
	ApplyDirichletRates(t float64, xt []float64)
	IsDirichlet(dof int) bool
}

// State is the solution accepted at the end of a time step
type State struct {
	Step         int
	Time         float64
	Dt           float64
	X            []float64
	Iterations   int
	ResidualNorm float64
}

/*
ThetaMethod integrates R(t, x, xt) = 0 from T0 to Tf with fixed step Dt, the
final step is shortened to land on Tf. Each step solves for the intermediate
state y = x(t + Theta Dt) with xt = (y - x)/(Theta Dt), then extrapolates to
the end of the step. Theta = 0.5 is the implicit midpoint rule. A failed
nonlinear solve aborts the run.
*/
type ThetaMethod struct {
	Theta      float64
	T0, Tf, Dt float64
	Newton     *Newton
	Quiet      bool
}

type stepSystem struct {
	op      TransientOperator
	cons    Constraints
	xn      []float64
	t, rate float64 // Stage time and 1/(Theta Dt)
	xt      []float64
}

func (ss *stepSystem) rates(y []float64) []float64 {
	for i := range y {
		if !ss.cons.IsDirichlet(i) {
			ss.xt[i] = (y[i] - ss.xn[i]) * ss.rate
		}
	}
	return ss.xt
}

func (ss *stepSystem) Residual(y []float64) ([]float64, error) {
	return ss.op.Residual(ss.t, y, ss.rates(y))
}

func (ss *stepSystem) Jacobian(y []float64) (*sparse.CSR, error) {
	return ss.op.ShiftedJacobian(ss.t, y, ss.rates(y), ss.rate)
}

func (tm *ThetaMethod) validate() error {
	switch {
	case tm.Theta != 0.5:
		return fmt.Errorf("theta method supports Theta = 0.5, have %g", tm.Theta)
	case !(tm.Dt > 0):
		return fmt.Errorf("time step must be positive, have %g", tm.Dt)
	case tm.Tf < tm.T0:
		return fmt.Errorf("final time %g before initial time %g", tm.Tf, tm.T0)
	case tm.Newton == nil:
		return fmt.Errorf("theta method needs a nonlinear solver")
	}
	return nil
}

// Run advances x0 from T0 and appends every accepted state to w, the last one is returned
func (tm *ThetaMethod) Run(op TransientOperator, cons Constraints, x0 []float64, w output.Writer) (final State, err error) {
	if err = tm.validate(); err != nil {
		return
	}
	if len(x0) != op.NumDofs() {
		err = fmt.Errorf("initial state has %d entries, operator has %d dofs", len(x0), op.NumDofs())
		return
	}
	var (
		N     = op.NumDofs()
		xn    = append([]float64(nil), x0...)
		tn    = tm.T0
		eps   = 1e-10 * tm.Dt
		start = time.Now()
	)
	final = State{Time: tn, X: xn}
	for step := 1; tm.Tf-tn > eps; step++ {
		dt := math.Min(tm.Dt, tm.Tf-tn)
		ss := &stepSystem{
			op:   op,
			cons: cons,
			xn:   xn,
			t:    tn + tm.Theta*dt,
			rate: 1 / (tm.Theta * dt),
			xt:   make([]float64, N),
		}
		cons.ApplyDirichletRates(ss.t, ss.xt)
		y0 := append([]float64(nil), xn...)
		cons.ApplyDirichlet(ss.t, y0)

		y, iterations, nerr := tm.Newton.Solve(ss, y0)
		if nerr != nil {
			var ne *NewtonError
			if errors.As(nerr, &ne) {
				ne.Step, ne.Time = step, tn+dt
			}
			err = nerr
			return
		}
		xnew := make([]float64, N)
		for i := range xnew {
			xnew[i] = xn[i] + (y[i]-xn[i])/tm.Theta
		}
		tn += dt
		if tm.Tf-tn <= eps {
			tn = tm.Tf
		}
		cons.ApplyDirichlet(tn, xnew)
		xn = xnew
		final = State{
			Step:         step,
			Time:         tn,
			Dt:           dt,
			X:            xn,
			Iterations:   iterations,
			ResidualNorm: tm.Newton.History[len(tm.Newton.History)-1],
		}
		if !tm.Quiet {
			fmt.Printf("Step %5d, time = %10.6f, dt = %8.5f, Newton iterations = %2d, |R| = %10.4e, elapsed = %v\n",
				step, tn, dt, iterations, final.ResidualNorm, time.Since(start).Round(time.Millisecond))
		}
		if w != nil {
			if err = w.Append(final.Snapshot()); err != nil {
				err = fmt.Errorf("writing snapshot at t = %g: %w", tn, err)
				return
			}
		}
	}
	return
}

func (s State) Snapshot() output.Snapshot {
	return output.Snapshot{
		Step:         s.Step,
		Time:         s.Time,
		X:            s.X,
		Iterations:   s.Iterations,
		ResidualNorm: s.ResidualNorm,
	}
}
