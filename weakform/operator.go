package weakform

import (
	"fmt"
	"log"

	"github.com/james-bowman/sparse"

	"github.com/notargets/gofsi/fespace"
	"github.com/notargets/gofsi/utils"
)

type Options struct {
	Transient      bool
	ParallelDegree int
}

// element is the fixed data of one integration entity: its unknowns, their positions in the pattern and the basis at its points
type element struct {
	term   int
	cell   int
	weight float64
	dofs   []int
	pos    []int
	points []fespace.PointValues
}

/*
Operator assembles residuals and Jacobians of an ordered list of terms over a
multi-field space. The sparsity pattern and all element geometry are built
once by BuildOperator, every assembly after that only fills value arrays.
Constrained unknowns get the residual row x_i - g_i(t), an identity row in
the Jacobian and an empty row in the time Jacobian.
*/
type Operator struct {
	Space     *fespace.MultiSpace
	Terms     []Term
	Transient bool
	Pattern   *utils.SparsityPattern
	elements  []element
	pm        *utils.PartitionMap
}

func BuildOperator(space *fespace.MultiSpace, terms []Term, opts Options) (op *Operator, err error) {
	if space == nil {
		return nil, fmt.Errorf("operator needs a space")
	}
	var (
		m      = space.Mesh
		groups [][]int
	)
	op = &Operator{
		Space:     space,
		Terms:     terms,
		Transient: opts.Transient,
	}
	for ti, term := range terms {
		if err = term.validate(m.NumCells()); err != nil {
			return nil, err
		}
		d := term.Domain
		for i := 0; i < d.Len(); i++ {
			el := element{
				term:   ti,
				cell:   d.cell(i),
				weight: d.weight(i),
			}
			X := m.CellVertices(el.cell)
			if d.Kind == Facets {
				el.points, err = fespace.EdgePoints(X, d.Facets[i].Local, d.Order)
			} else {
				el.points, err = fespace.CellPoints(X, d.Order)
			}
			if err != nil {
				return nil, fmt.Errorf("term %q cell %d: %w", term.Name, el.cell, err)
			}
			el.dofs = space.CellDofs(el.cell)
			groups = append(groups, el.dofs)
			op.elements = append(op.elements, el)
		}
	}
	if op.Pattern, err = utils.NewSparsityPattern(space.NumDofs(), groups); err != nil {
		return nil, err
	}
	for i := range op.elements {
		op.elements[i].pos = op.Pattern.GroupIndices(op.elements[i].dofs)
	}
	op.pm = utils.NewPartitionMap(
		utils.DefaultParallelDegree(opts.ParallelDegree, len(op.elements)), len(op.elements))
	return
}

func (op *Operator) NumDofs() int { return op.Space.NumDofs() }

// Residual assembles R(t, x, xt)
func (op *Operator) Residual(t float64, x, xt []float64) (r []float64, err error) {
	r, _, err = op.assemble(t, x, xt, true, 0, 0)
	return
}

// Jacobian assembles dR/dx
func (op *Operator) Jacobian(t float64, x, xt []float64) (*sparse.CSR, error) {
	return op.matrix(t, x, xt, 1, 0)
}

// JacobianT assembles dR/dxt
func (op *Operator) JacobianT(t float64, x, xt []float64) (*sparse.CSR, error) {
	return op.matrix(t, x, xt, 0, 1)
}

// ShiftedJacobian assembles dR/dx + shift dR/dxt in one pass
func (op *Operator) ShiftedJacobian(t float64, x, xt []float64, shift float64) (*sparse.CSR, error) {
	return op.matrix(t, x, xt, 1, shift)
}

func (op *Operator) matrix(t float64, x, xt []float64, a, b float64) (*sparse.CSR, error) {
	_, data, err := op.assemble(t, x, xt, false, a, b)
	if err != nil {
		return nil, err
	}
	return op.Pattern.NewCSR(data), nil
}

/*
assemble fills the residual, or the values of a*J + b*Jt, with one goroutine
per bucket of elements. Each goroutine accumulates into its own arrays, they
are summed afterwards in bucket order so the result does not depend on
scheduling.
*/
func (op *Operator) assemble(t float64, x, xt []float64, wantResidual bool, a, b float64) (r, data []float64, err error) {
	N := op.NumDofs()
	if len(x) != N {
		return nil, nil, fmt.Errorf("state has %d entries, operator has %d dofs", len(x), N)
	}
	if xt == nil {
		xt = make([]float64, N)
	}
	if len(xt) != N {
		return nil, nil, fmt.Errorf("rate has %d entries, operator has %d dofs", len(xt), N)
	}
	if !op.Transient {
		b = 0
	}
	var (
		np      = op.pm.ParallelDegree
		partial = make([][]float64, np)
	)
	op.pm.ForEachBucket(func(bn, kMin, kMax int) {
		var acc []float64
		if wantResidual {
			acc = make([]float64, N)
		} else {
			acc = make([]float64, op.Pattern.NNZ())
		}
		for k := kMin; k < kMax; k++ {
			op.integrate(k, t, x, xt, wantResidual, a, b, acc)
		}
		partial[bn] = acc
	})
	var out []float64
	if wantResidual {
		out = make([]float64, N)
	} else {
		out = make([]float64, op.Pattern.NNZ())
	}
	for _, acc := range partial {
		for i, val := range acc {
			out[i] += val
		}
	}
	if wantResidual {
		for _, d := range op.Space.Dirichlet {
			out[d.Dof] = x[d.Dof] - d.Value(t)
		}
		if utils.IsNan(out) {
			return nil, nil, fmt.Errorf("residual at t = %g contains NaN", t)
		}
		return out, nil, nil
	}
	for _, d := range op.Space.Dirichlet {
		op.Pattern.ZeroRow(out, d.Dof)
		out[op.Pattern.Index(d.Dof, d.Dof)] = a
	}
	return nil, out, nil
}

func (op *Operator) integrate(k int, t float64, x, xt []float64, wantResidual bool, a, b float64, acc []float64) {
	var (
		el      = &op.elements[k]
		term    = &op.Terms[el.term]
		xe, xte [elementDofs]float64
		s       = State{T: t, Weight: el.weight, Cell: el.cell}
	)
	for i, dof := range el.dofs {
		xe[i], xte[i] = x[dof], xt[dof]
	}
	for q := range el.points {
		pv := &el.points[q]
		s.X, s.Normal = pv.X, pv.Normal
		interpolate(&s, pv, &xe, &xte)
		for i := 0; i < elementDofs; i++ {
			w := basisAt(pv, i)
			if wantResidual {
				acc[el.dofs[i]] += pv.JxW * term.Residual(&s, w)
				continue
			}
			for j := 0; j < elementDofs; j++ {
				du := basisAt(pv, j)
				var val float64
				if a != 0 {
					val += a * term.Jacobian(&s, du, w)
				}
				if b != 0 && term.JacobianT != nil {
					val += b * term.JacobianT(&s, du, w)
				}
				acc[el.pos[i*elementDofs+j]] += pv.JxW * val
			}
		}
	}
}

func interpolate(s *State, pv *fespace.PointValues, xe, xte *[elementDofs]float64) {
	s.U, s.V, s.Ut, s.Vt = [2]float64{}, [2]float64{}, [2]float64{}, [2]float64{}
	s.GradU, s.GradV = [2][2]float64{}, [2][2]float64{}
	const vOff = fespace.NumComponents * 4
	for a := 0; a < 4; a++ {
		for c := 0; c < fespace.NumComponents; c++ {
			iu := fespace.NumComponents*a + c
			iv := vOff + iu
			s.U[c] += pv.N[a] * xe[iu]
			s.V[c] += pv.N[a] * xe[iv]
			s.Ut[c] += pv.N[a] * xte[iu]
			s.Vt[c] += pv.N[a] * xte[iv]
			for j := 0; j < 2; j++ {
				s.GradU[c][j] += xe[iu] * pv.Grad[a][j]
				s.GradV[c][j] += xe[iv] * pv.Grad[a][j]
			}
		}
	}
}

func (op *Operator) PrintStatistics(name string) {
	log.Printf("Operator %s: %d terms, %d elements, %d dofs, %d nonzeros, %d workers of up to %d elements",
		name, len(op.Terms), len(op.elements), op.NumDofs(), op.Pattern.NNZ(), op.pm.ParallelDegree,
		op.pm.GetBucketDimension(0))
}
