package weakform

import (
	"fmt"

	"github.com/notargets/gofsi/fespace"
	"github.com/notargets/gofsi/types"
)

type DomainKind uint8

const (
	Cells DomainKind = iota
	Facets
)

func (k DomainKind) String() string {
	return [...]string{"Cells", "Facets"}[k]
}

/*
Domain is the integration region of a term: a list of cells, or a list of
edges each addressed through one adjacent cell. Weights carries one measure
per entity, it is handed to the kernels as State.Weight.
*/
type Domain struct {
	Kind    DomainKind
	Cells   []int
	Facets  []types.CellFacet
	Weights []float64
	Order   int // Polynomial order integrated exactly
}

func CellDomain(cells []int, weights []float64, order int) *Domain {
	return &Domain{Kind: Cells, Cells: cells, Weights: weights, Order: order}
}

func FacetDomain(facets []types.CellFacet, weights []float64, order int) *Domain {
	return &Domain{Kind: Facets, Facets: facets, Weights: weights, Order: order}
}

func (d *Domain) Len() int {
	if d.Kind == Facets {
		return len(d.Facets)
	}
	return len(d.Cells)
}

func (d *Domain) cell(i int) int {
	if d.Kind == Facets {
		return d.Facets[i].Cell
	}
	return d.Cells[i]
}

func (d *Domain) weight(i int) float64 {
	if d.Weights == nil {
		return 1
	}
	return d.Weights[i]
}

func (d *Domain) validate(nCells int) error {
	if d.Weights != nil && len(d.Weights) != d.Len() {
		return fmt.Errorf("%d weights for %d entities", len(d.Weights), d.Len())
	}
	for i := 0; i < d.Len(); i++ {
		if c := d.cell(i); c < 0 || c >= nCells {
			return fmt.Errorf("entity %d references cell %d outside [0,%d)", i, c, nCells)
		}
		if d.Kind == Facets {
			if le := d.Facets[i].Local; le < 0 || le > 3 {
				return fmt.Errorf("entity %d references local edge %d", i, le)
			}
		}
	}
	return nil
}

/*
Basis is one scalar shape function of the multi-field space placed in one
vector component of one field, the value is N e_Comp for field Field and zero
for the other field.
*/
type Basis struct {
	Field int
	Comp  int
	N     float64
	Grad  [2]float64
}

// Value returns the vector value of the basis function within field f
func (b Basis) Value(f int) (w [2]float64) {
	if b.Field == f {
		w[b.Comp] = b.N
	}
	return
}

// Gradient returns G[i][j] = dw_i/dx_j within field f
func (b Basis) Gradient(f int) (G [2][2]float64) {
	if b.Field == f {
		G[b.Comp] = b.Grad
	}
	return
}

// State is the solution at one quadrature point. Gradients are G[i][j] = du_i/dx_j
type State struct {
	X      [2]float64
	T      float64
	U, V   [2]float64
	Ut, Vt [2]float64
	GradU  [2][2]float64
	GradV  [2][2]float64
	Weight float64
	Normal [2]float64
	Cell   int
}

type ResidualKernel func(s *State, w Basis) float64

// JacobianKernel is the derivative of a ResidualKernel in the direction du
type JacobianKernel func(s *State, du, w Basis) float64

/*
Term is one integral contribution to the coupled operator. Jacobian is the
derivative with respect to the unknowns, JacobianT with respect to their time
derivatives, a nil JacobianT contributes nothing.
*/
type Term struct {
	Name      string
	Domain    *Domain
	Residual  ResidualKernel
	Jacobian  JacobianKernel
	JacobianT JacobianKernel
}

func (t Term) validate(nCells int) error {
	switch {
	case t.Domain == nil:
		return fmt.Errorf("term %q has no domain", t.Name)
	case t.Residual == nil:
		return fmt.Errorf("term %q has no residual kernel", t.Name)
	case t.Jacobian == nil:
		return fmt.Errorf("term %q has no Jacobian kernel", t.Name)
	}
	if err := t.Domain.validate(nCells); err != nil {
		return fmt.Errorf("term %q: %w", t.Name, err)
	}
	return nil
}

const elementDofs = fespace.NumFields * fespace.NumComponents * 4

func basisAt(pv *fespace.PointValues, k int) Basis {
	a := (k / fespace.NumComponents) % 4
	return Basis{
		Field: k / (fespace.NumComponents * 4),
		Comp:  k % fespace.NumComponents,
		N:     pv.N[a],
		Grad:  pv.Grad[a],
	}
}
