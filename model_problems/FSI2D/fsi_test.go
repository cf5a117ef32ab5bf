package FSI2D

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gofsi/InputParameters"
	"github.com/notargets/gofsi/fespace"
	"github.com/notargets/gofsi/output/store"
	"github.com/notargets/gofsi/solver"
	"github.com/notargets/gofsi/types"
)

func input(radius float64) *InputParameters.InputParametersFSI {
	ip := &InputParameters.InputParametersFSI{
		Es:             100,
		NuS:            0.3,
		RhoS:           10,
		RhoF:           1,
		MuF:            0.1,
		Em:             1,
		NuM:            0.2,
		Nm:             4,
		Radius:         radius,
		Tf:             0.1,
		Dt:             0.05,
		InflowVelocity: 1,
		RampTime:       0.1,
		ParallelDegree: 2,
	}
	ip.SetDefaults()
	return ip
}

func TestNewFSI(t *testing.T) {
	c, err := NewFSI(input(0.5), Options{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 4, c.Split.Solid.NumCells())
	assert.Equal(t, 12, c.Split.Fluid.NumCells())
	assert.Equal(t, 8, c.Interface.NumEdges())
	assert.InDelta(t, 4., c.Measures.Parent[0]*16, 1e-14)

	// Combined unknowns live on all 25 parent vertices, the bootstrap on the 24 fluid ones
	assert.Equal(t, 100, c.Space.NumDofs())
	assert.Equal(t, 96, c.BootstrapSpace.NumDofs())
	assert.Len(t, c.Operator.Terms, 4)
	assert.True(t, c.Operator.Transient)
	assert.False(t, c.BootstrapOperator.Transient)
}

func TestNewFSIRejectsBadInput(t *testing.T) {
	ip := input(0.5)
	ip.Nm = 0
	_, err := NewFSI(ip, Options{Quiet: true})
	var ce *types.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "Nm", ce.Param)
}

func TestBootstrap(t *testing.T) {
	c, err := NewFSI(input(0.5), Options{Quiet: true})
	require.NoError(t, err)
	x1, err := c.Bootstrap()
	require.NoError(t, err)
	x2, err := c.Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, x1, x2)

	// The interface is at rest and the inflow is off at T0
	for _, pv := range c.Interface.ParentFacets[0] {
		assert.Equal(t, [2]float64{}, c.Space.NodalValue(x1, fespace.FieldV, pv))
		assert.Equal(t, [2]float64{}, c.Space.NodalValue(x1, fespace.FieldU, pv))
	}
	for _, v := range x1 {
		assert.False(t, math.IsNaN(v))
	}
}

func TestBootstrapDrivenFlow(t *testing.T) {
	// A finer mesh has free fluid velocities, started after the ramp the inflow is fully on
	driven := func(parallelDegree int) *InputParameters.InputParametersFSI {
		ip := input(0.5)
		ip.Nm, ip.T0, ip.Tf, ip.ParallelDegree = 8, 0.2, 0.3, parallelDegree
		return ip
	}
	c, err := NewFSI(driven(1), Options{Quiet: true})
	require.NoError(t, err)
	var (
		bs = c.BootstrapSpace
		t0 = c.Input.T0
	)
	xf, err := solver.SolveLinear(c.BootstrapOperator, t0, nil)
	require.NoError(t, err)

	var nonZero int
	for dof := bs.Offset(fespace.FieldV); dof < bs.NumDofs(); dof++ {
		if !bs.IsDirichlet(dof) && xf[dof] != 0 {
			nonZero++
		}
	}
	assert.Greater(t, nonZero, 0)

	// The linear problem is solved on every row
	r, err := c.BootstrapOperator.Residual(t0, xf, nil)
	require.NoError(t, err)
	for dof, val := range r {
		assert.InDelta(t, 0., val, 1e-10, "dof %d", dof)
	}

	// Repeated solves agree exactly, other goroutine counts to rounding
	x1, err := c.Bootstrap()
	require.NoError(t, err)
	x2, err := c.Bootstrap()
	require.NoError(t, err)
	assert.Equal(t, x1, x2)
	cp, err := NewFSI(driven(4), Options{Quiet: true})
	require.NoError(t, err)
	xp, err := cp.Bootstrap()
	require.NoError(t, err)
	assert.InDeltaSlice(t, x1, xp, 1e-12)

	final, err := c.Run()
	require.NoError(t, err)
	assert.InDelta(t, 0.3, final.Time, 1e-12)
	assert.Less(t, final.ResidualNorm, c.Input.FTol)
	assert.Equal(t, 3, c.Trajectory.Len())
}

func TestRun(t *testing.T) {
	var (
		dir = t.TempDir()
		db  = filepath.Join(dir, "fsi.db")
	)
	c, err := NewFSI(input(0.5), Options{VTKDir: dir, DBFile: db, Quiet: true})
	require.NoError(t, err)
	final, err := c.Run()
	require.NoError(t, err)

	assert.Equal(t, []float64{0, 0.05, 0.1}, c.Trajectory.Times())
	assert.Equal(t, 2, final.Step)
	assert.Equal(t, 0.1, final.Time)
	assert.Less(t, final.ResidualNorm, c.Input.FTol)

	// Constraints hold at the end, the inflow is fully ramped up
	ramp := Ramp{U: 1, RampTime: 0.1, YMin: -1, YMax: 1}
	m := c.Space.Mesh
	left := m.Labels.TagMask(0, "left")
	boundary := m.Labels.TagMask(0, "boundary")
	for n := range m.Vertices {
		if boundary[n] {
			assert.Equal(t, [2]float64{}, c.Space.NodalValue(final.X, fespace.FieldU, n))
		}
		if left[n] {
			want := ramp.Value(m.Vertices[n], 0.1)
			got := c.Space.NodalValue(final.X, fespace.FieldV, n)
			assert.InDeltaSlice(t, want[:], got[:], 1e-14)
		}
	}
	// The flow has moved the interior
	var speed float64
	for n := range m.Vertices {
		if !boundary[n] {
			v := c.Space.NodalValue(final.X, fespace.FieldV, n)
			speed = math.Max(speed, math.Hypot(v[0], v[1]))
		}
	}
	assert.Greater(t, speed, 0.)

	for _, name := range []string{"fsi_00000.vtu", "fsi_00002.vtu", "fsi.pvd"} {
		_, err = os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
	st, err := store.Open(db)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, c.Space.NumDofs(), runs[0].NumDofs)
	snaps, err := st.Snapshots(runs[0].ID)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, final.X, snaps[2].X)
}

func TestRunAllSolid(t *testing.T) {
	// A disc covering the domain leaves no fluid and no interface
	c, err := NewFSI(input(10), Options{Quiet: true})
	require.NoError(t, err)
	assert.Equal(t, 16, c.Split.Solid.NumCells())
	assert.Equal(t, 0, c.Split.Fluid.NumCells())
	assert.Equal(t, 0, c.Interface.NumEdges())
	assert.Equal(t, 0, c.BootstrapSpace.NumDofs())

	x0, err := c.Bootstrap()
	require.NoError(t, err)
	assert.Len(t, x0, c.Space.NumDofs())

	final, err := c.Run()
	require.NoError(t, err)
	assert.Equal(t, 0.1, final.Time)
}

func TestRunReportsNonConvergence(t *testing.T) {
	ip := input(0.5)
	ip.MaxIterations = 1
	ip.FTol = 1e-14
	c, err := NewFSI(ip, Options{Quiet: true})
	require.NoError(t, err)
	_, err = c.Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, solver.ErrNotConverged))
	var ne *solver.NewtonError
	require.True(t, errors.As(err, &ne))
	assert.Equal(t, 1, ne.Step)
	assert.InDelta(t, 0.05, ne.Time, 1e-15)
	assert.Equal(t, 1, ne.Iteration)
	assert.Greater(t, ne.ResidualNorm, ip.FTol)
	// Only the bootstrap state was accepted
	assert.Equal(t, 1, c.Trajectory.Len())
}

func TestRamp(t *testing.T) {
	r := Ramp{U: 2, RampTime: 1, YMin: 0, YMax: 4}
	assert.Equal(t, [2]float64{}, r.Value([2]float64{0, 2}, 0))
	assert.Equal(t, [2]float64{2, 0}, r.Value([2]float64{0, 2}, 1))
	assert.Equal(t, [2]float64{2, 0}, r.Value([2]float64{0, 2}, 5))
	assert.Equal(t, [2]float64{}, r.Value([2]float64{0, 4}, 5))
	assert.Equal(t, [2]float64{}, r.TimeDerivative([2]float64{0, 2}, 5))

	// The supplied rate matches the value
	x, eps := [2]float64{0, 1}, 1e-6
	for _, tt := range []float64{0.1, 0.5, 0.9} {
		fd := (r.Value(x, tt+eps)[0] - r.Value(x, tt-eps)[0]) / (2 * eps)
		assert.InDelta(t, fd, r.TimeDerivative(x, tt)[0], 1e-8)
	}
	assert.Equal(t, [2]float64{}, Zero{}.Value(x, 1))
}
