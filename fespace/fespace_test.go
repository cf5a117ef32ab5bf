package fespace

import (
	"errors"
	"math"
	"testing"

	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grid(t *testing.T, n int) *mesh.Mesh {
	t.Helper()
	m, err := mesh.NewCartesianMesh([4]float64{-1, 1, -1, 1}, n, n)
	require.NoError(t, err)
	return m
}

func TestQ1Shape(t *testing.T) {
	for i, node := range Q1Nodes {
		N, _ := Q1Shape(node[0], node[1])
		for j := range N {
			if i == j {
				assert.InDelta(t, 1, N[j], 1e-15)
			} else {
				assert.InDelta(t, 0, N[j], 1e-15)
			}
		}
	}
	N, dN := Q1Shape(0.3, -0.7)
	var sum float64
	var dsum [2]float64
	for i := range N {
		sum += N[i]
		dsum[0] += dN[i][0]
		dsum[1] += dN[i][1]
	}
	assert.InDelta(t, 1, sum, 1e-15)
	assert.InDelta(t, 0, dsum[0], 1e-15)
	assert.InDelta(t, 0, dsum[1], 1e-15)
}

func TestQuadrature(t *testing.T) {
	assert.Equal(t, 1, NumPoints(0))
	assert.Equal(t, 2, NumPoints(2))
	assert.Equal(t, 3, NumPoints(4))
	// x^4 y^2 over the reference square
	pts, w := CellQuadrature(4)
	require.Len(t, pts, 9)
	var I float64
	for q, p := range pts {
		I += w[q] * math.Pow(p[0], 4) * p[1] * p[1]
	}
	assert.InDelta(t, 2./5*2./3, I, 1e-13)

	pts, w = EdgeQuadrature(2, 1)
	for _, p := range pts {
		assert.Equal(t, 1., p[0])
	}
	assert.InDelta(t, 2, w[0]+w[1], 1e-14)
	assert.Panics(t, func() { EdgeQuadrature(2, 4) })
}

func TestCellAndEdgePoints(t *testing.T) {
	X := [][2]float64{{0, 0}, {2, 0}, {2.5, 1}, {0, 1.5}}
	pvs, err := CellPoints(X, 2)
	require.NoError(t, err)
	var area float64
	for _, pv := range pvs {
		area += pv.JxW
		var gsum [2]float64
		for i := range pv.Grad {
			gsum[0] += pv.Grad[i][0]
			gsum[1] += pv.Grad[i][1]
		}
		assert.InDelta(t, 0, gsum[0], 1e-14)
		assert.InDelta(t, 0, gsum[1], 1e-14)
		// The basis reproduces the linear function x exactly
		var gx [2]float64
		for i := range pv.Grad {
			gx[0] += X[i][0] * pv.Grad[i][0]
			gx[1] += X[i][0] * pv.Grad[i][1]
		}
		assert.InDelta(t, 1, gx[0], 1e-13)
		assert.InDelta(t, 0, gx[1], 1e-13)
	}
	assert.InDelta(t, mesh.PolygonArea(X), area, 1e-13)

	wantNormals := [][2]float64{{0, -1}, {0.8944271909999159, -0.4472135954999579}}
	for le, want := range wantNormals {
		epv, err := EdgePoints(X, le, 2)
		require.NoError(t, err)
		var length float64
		for _, pv := range epv {
			length += pv.JxW
			assert.InDelta(t, want[0], pv.Normal[0], 1e-13)
			assert.InDelta(t, want[1], pv.Normal[1], 1e-13)
		}
		a, b := X[le], X[(le+1)%4]
		assert.InDelta(t, math.Hypot(b[0]-a[0], b[1]-a[1]), length, 1e-13)
	}

	// Clockwise vertices are rejected
	_, err = CellPoints([][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}, 2)
	assert.Error(t, err)
	_, err = CellPoints(X[:3], 2)
	assert.Error(t, err)
}

func TestBoundaryFuncs(t *testing.T) {
	ramp := Funcs{
		F:  func(x [2]float64, t float64) [2]float64 { return [2]float64{t * x[1], 0} },
		Dt: func(x [2]float64, t float64) [2]float64 { return [2]float64{x[1], 0} },
	}
	x := [2]float64{0, 2}
	assert.Equal(t, [2]float64{6, 0}, ramp.Value(x, 3))
	assert.Equal(t, [2]float64{2, 0}, ramp.TimeDerivative(x, 3))
	fr := Frozen(ramp, 1)
	assert.Equal(t, [2]float64{2, 0}, fr.Value(x, 3))
	assert.Equal(t, [2]float64{}, fr.TimeDerivative(x, 3))
	assert.Equal(t, [2]float64{}, Funcs{F: ramp.F}.TimeDerivative(x, 3))
	assert.Equal(t, [2]float64{1, 2}, Constant{1, 2}.Value(x, 9))
}

func TestValidate(t *testing.T) {
	m := grid(t, 2)
	ok := BCSpec{
		U: FieldBC{Tags: []string{"boundary"}, Values: []BoundaryFunc{Constant{}}},
		V: FieldBC{Tags: []string{"left", "top"}, Values: []BoundaryFunc{Constant{1, 0}, Constant{}}},
	}
	require.NoError(t, ok.Validate(m.Labels))

	bad := ok
	bad.V = FieldBC{Tags: []string{"left", "nowhere"}, Values: []BoundaryFunc{Constant{}, Constant{}}}
	err := bad.Validate(m.Labels)
	var ce *types.ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "v.nowhere", ce.Param)

	bad.V = FieldBC{Tags: []string{"left"}}
	err = bad.Validate(m.Labels)
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "v", ce.Param)

	bad.V = FieldBC{Tags: []string{"left"}, Values: []BoundaryFunc{nil}}
	assert.True(t, errors.Is(bad.Validate(m.Labels), types.ErrConfig))

	_, err = Build(m, BCSpec{U: FieldBC{Tags: []string{"interface"}, Values: []BoundaryFunc{Constant{}}}})
	assert.True(t, errors.Is(err, types.ErrConfig))
}

func TestDirichletClosure(t *testing.T) {
	m := grid(t, 4)
	bc := BCSpec{
		U: FieldBC{Tags: []string{"boundary"}, Values: []BoundaryFunc{Constant{}}},
		V: FieldBC{Tags: []string{"left", "bottom"}, Values: []BoundaryFunc{Constant{1, 0}, Constant{0, 0}}},
	}
	ms, err := Build(m, bc)
	require.NoError(t, err)
	assert.Equal(t, 100, ms.NumDofs())
	assert.Equal(t, 50, ms.Offset(FieldV))

	u, v := ms.Fields[FieldU], ms.Fields[FieldV]
	outer := m.IsBoundaryFacet(0)
	for n, isB := range outer {
		if isB {
			assert.Equal(t, 0, u.Dirichlet[n])
		} else {
			assert.Equal(t, -1, u.Dirichlet[n])
		}
	}
	// Vertex 0 is labeled bottom but touches a left edge, left is listed first
	assert.Equal(t, 0, v.Dirichlet[0])
	// Vertex 20 is the top left corner, reached through its left edge
	assert.Equal(t, 0, v.Dirichlet[20])
	assert.Equal(t, 1, v.Dirichlet[2])
	assert.Equal(t, -1, v.Dirichlet[24])
	assert.Equal(t, -1, v.Dirichlet[9])

	x := make([]float64, ms.NumDofs())
	ms.ApplyDirichlet(0, x)
	assert.Equal(t, [2]float64{1, 0}, ms.NodalValue(x, FieldV, 0))
	assert.Equal(t, [2]float64{1, 0}, ms.NodalValue(x, FieldV, 10))
	assert.Equal(t, [2]float64{0, 0}, ms.NodalValue(x, FieldV, 2))
	assert.True(t, ms.IsDirichlet(ms.Dof(FieldV, 10, 1)))
	assert.False(t, ms.IsDirichlet(ms.Dof(FieldV, 12, 0)))
	assert.Len(t, ms.Dirichlet, 2*16+2*(5+4))

	dofs := ms.CellDofs(0)
	assert.Equal(t, []int{0, 1, 2, 3, 12, 13, 10, 11, 50, 51, 52, 53, 62, 63, 60, 61}, dofs)
}

func TestInterpolate(t *testing.T) {
	m := grid(t, 4)
	sm, err := m.Restrict([]int{0, 1, 4, 5})
	require.NoError(t, err)
	none := BCSpec{}
	from, err := Build(sm.Mesh, none)
	require.NoError(t, err)
	to, err := Build(m, BCSpec{U: FieldBC{Tags: []string{"right"}, Values: []BoundaryFunc{Constant{7, 7}}}})
	require.NoError(t, err)

	xFrom := make([]float64, from.NumDofs())
	for i := range xFrom {
		xFrom[i] = float64(i + 1)
	}
	x, err := to.Interpolate(from, xFrom, sm.VertexToParent, 0)
	require.NoError(t, err)
	for n, pn := range sm.VertexToParent {
		assert.Equal(t, from.NodalValue(xFrom, FieldV, n), to.NodalValue(x, FieldV, pn))
		assert.Equal(t, from.NodalValue(xFrom, FieldU, n), to.NodalValue(x, FieldU, pn))
	}
	assert.Equal(t, [2]float64{}, to.NodalValue(x, FieldU, 18))
	assert.Equal(t, [2]float64{7, 7}, to.NodalValue(x, FieldU, 19))

	_, err = to.Interpolate(from, xFrom[1:], sm.VertexToParent, 0)
	assert.Error(t, err)
}

func TestBuildBootstrap(t *testing.T) {
	m := grid(t, 2)
	outer := BCSpec{
		U: FieldBC{Tags: []string{"boundary"}, Values: []BoundaryFunc{Constant{}}},
		V: FieldBC{Tags: []string{"left"}, Values: []BoundaryFunc{Funcs{
			F:  func(_ [2]float64, t float64) [2]float64 { return [2]float64{t, 0} },
			Dt: func([2]float64, float64) [2]float64 { return [2]float64{1, 0} },
		}}},
	}
	labels := m.Labels.WithTag("interface", 9)
	mm := *m
	mm.Labels = labels
	ms, err := BuildBootstrap(&mm, outer, "interface", 0.5)
	require.NoError(t, err)
	assert.Equal(t, []string{"left", "interface"}, ms.Fields[FieldV].BC.Tags)
	x := make([]float64, ms.NumDofs())
	ms.ApplyDirichlet(3, x)
	assert.Equal(t, [2]float64{0.5, 0}, ms.NodalValue(x, FieldV, 3))
	xt := make([]float64, ms.NumDofs())
	ms.ApplyDirichletRates(3, xt)
	for _, r := range xt {
		assert.Equal(t, 0., r)
	}

	_, err = BuildBootstrap(m, outer, "interface", 0)
	assert.Error(t, err)
}
