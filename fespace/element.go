package fespace

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate/quad"
)

// Reference vertices of the bilinear quad, counter clockwise
var Q1Nodes = [4][2]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}

// Q1Shape evaluates the bilinear shape functions and their reference derivatives at (r,s)
func Q1Shape(r, s float64) (N [4]float64, dN [4][2]float64) {
	for i, node := range Q1Nodes {
		a, b := 1+r*node[0], 1+s*node[1]
		N[i] = 0.25 * a * b
		dN[i][0] = 0.25 * node[0] * b
		dN[i][1] = 0.25 * node[1] * a
	}
	return
}

// GaussLegendre returns the n point rule on [-1,1]
func GaussLegendre(n int) (x, w []float64) {
	x, w = make([]float64, n), make([]float64, n)
	quad.Legendre{}.FixedLocations(x, w, -1, 1)
	return
}

// NumPoints is the per direction point count that integrates polynomials of the given order exactly
func NumPoints(order int) int {
	if order < 0 {
		order = 0
	}
	return order/2 + 1
}

// CellQuadrature is the tensor product rule on the reference quad
func CellQuadrature(order int) (pts [][2]float64, w []float64) {
	x, wx := GaussLegendre(NumPoints(order))
	for j := range x {
		for i := range x {
			pts = append(pts, [2]float64{x[i], x[j]})
			w = append(w, wx[i]*wx[j])
		}
	}
	return
}

// EdgeQuadrature maps the line rule onto local edge le of the reference quad, weights are on [-1,1]
func EdgeQuadrature(order, le int) (pts [][2]float64, w []float64) {
	if le < 0 || le > 3 {
		panic(fmt.Errorf("quad has local edges 0..3, have %d", le))
	}
	var (
		a, b  = Q1Nodes[le], Q1Nodes[(le+1)%4]
		x, wx = GaussLegendre(NumPoints(order))
	)
	for i := range x {
		pts = append(pts, [2]float64{
			0.5*(a[0]+b[0]) + 0.5*x[i]*(b[0]-a[0]),
			0.5*(a[1]+b[1]) + 0.5*x[i]*(b[1]-a[1]),
		})
	}
	w = wx
	return
}

/*
PointValues is the bilinear basis evaluated at one quadrature point of a
physical cell. Grad holds the physical gradients, JxW the quadrature weight
times the cell (or edge) Jacobian determinant.
*/
type PointValues struct {
	X      [2]float64
	N      [4]float64
	Grad   [4][2]float64
	JxW    float64
	Normal [2]float64 // Outward unit normal, edge points only
}

func mapPoint(X [][2]float64, r, s float64) (pv PointValues, J [2][2]float64, err error) {
	var dN [4][2]float64
	pv.N, dN = Q1Shape(r, s)
	for i := range X {
		pv.X[0] += pv.N[i] * X[i][0]
		pv.X[1] += pv.N[i] * X[i][1]
		for a := 0; a < 2; a++ {
			for b := 0; b < 2; b++ {
				J[a][b] += X[i][a] * dN[i][b]
			}
		}
	}
	det := J[0][0]*J[1][1] - J[0][1]*J[1][0]
	if !(det > 0) {
		err = fmt.Errorf("non positive cell Jacobian %g at (%g,%g)", det, r, s)
		return
	}
	// Grad = J^-T dN
	for i := range dN {
		pv.Grad[i][0] = (J[1][1]*dN[i][0] - J[1][0]*dN[i][1]) / det
		pv.Grad[i][1] = (-J[0][1]*dN[i][0] + J[0][0]*dN[i][1]) / det
	}
	pv.JxW = det
	return
}

// CellPoints evaluates the basis at the cell quadrature points of the quad with vertices X
func CellPoints(X [][2]float64, order int) (pvs []PointValues, err error) {
	if len(X) != 4 {
		return nil, fmt.Errorf("bilinear element needs 4 vertices, have %d", len(X))
	}
	pts, w := CellQuadrature(order)
	pvs = make([]PointValues, len(pts))
	for q, p := range pts {
		if pvs[q], _, err = mapPoint(X, p[0], p[1]); err != nil {
			return nil, err
		}
		pvs[q].JxW *= w[q]
	}
	return
}

// EdgePoints evaluates the basis at the quadrature points of local edge le of the quad with vertices X
func EdgePoints(X [][2]float64, le, order int) (pvs []PointValues, err error) {
	if len(X) != 4 {
		return nil, fmt.Errorf("bilinear element needs 4 vertices, have %d", len(X))
	}
	pts, w := EdgeQuadrature(order, le)
	var (
		a, b = Q1Nodes[le], Q1Nodes[(le+1)%4]
		dxi  = [2]float64{0.5 * (b[0] - a[0]), 0.5 * (b[1] - a[1])}
	)
	pvs = make([]PointValues, len(pts))
	for q, p := range pts {
		var J [2][2]float64
		if pvs[q], J, err = mapPoint(X, p[0], p[1]); err != nil {
			return nil, err
		}
		tx := J[0][0]*dxi[0] + J[0][1]*dxi[1]
		ty := J[1][0]*dxi[0] + J[1][1]*dxi[1]
		ds := math.Hypot(tx, ty)
		pvs[q].JxW = w[q] * ds
		pvs[q].Normal = [2]float64{ty / ds, -tx / ds}
	}
	return
}
