package fespace

import (
	"fmt"

	"github.com/notargets/gofsi/mesh"
)

// Field slots of a MultiSpace
const (
	FieldU = iota // Displacement
	FieldV        // Velocity
	NumFields
)

// NumComponents is the number of vector components per node
const NumComponents = 2

/*
Space is a vector valued bilinear Lagrange space on the vertices of a quad
mesh. Dirichlet[v] is the index of the tag in BC that constrains vertex v, or
-1 for a free vertex.
*/
type Space struct {
	Name      string
	Mesh      *mesh.Mesh
	BC        FieldBC
	Dirichlet []int
}

/*
NewSpace builds the space and resolves its Dirichlet vertices. A vertex is
constrained by a tag when its own entity, or the entity of any edge touching
it, is one of the tag's entities. Tags are tried in order, so on a vertex
shared by two tags the first one listed wins.
*/
func NewSpace(m *mesh.Mesh, name string, bc FieldBC) (s *Space, err error) {
	for c, et := range m.ElementTypes {
		if et != mesh.Quad {
			return nil, fmt.Errorf("space %s: cell %d is a %s, only quads are supported", name, c, et)
		}
	}
	if err = bc.validate(name, m.Labels); err != nil {
		return
	}
	s = &Space{
		Name:      name,
		Mesh:      m,
		BC:        bc,
		Dirichlet: make([]int, m.NumVertices()),
	}
	for v := range s.Dirichlet {
		s.Dirichlet[v] = -1
	}
	labels := m.Labels
	for ti, tag := range bc.Tags {
		ents, _ := labels.TagEntities(tag)
		inTag := make(map[int]bool, len(ents))
		for _, e := range ents {
			inTag[e] = true
		}
		for v := range s.Dirichlet {
			if s.Dirichlet[v] != -1 {
				continue
			}
			if inTag[labels.Entities[0][v]] {
				s.Dirichlet[v] = ti
				continue
			}
			for _, e := range m.VertexToEdges[v] {
				if inTag[labels.Entities[1][e]] {
					s.Dirichlet[v] = ti
					break
				}
			}
		}
	}
	return
}

func (s *Space) NumNodes() int { return s.Mesh.NumVertices() }

// DirichletDof is one constrained scalar unknown of a MultiSpace
type DirichletDof struct {
	Dof  int
	Comp int
	X    [2]float64
	Fn   BoundaryFunc
}

func (d DirichletDof) Value(t float64) float64 { return d.Fn.Value(d.X, t)[d.Comp] }

func (d DirichletDof) Rate(t float64) float64 { return d.Fn.TimeDerivative(d.X, t)[d.Comp] }

/*
MultiSpace stacks the displacement and velocity spaces of one mesh in the
block layout [u | v]. The global index of component c at node n of field f is
Offset(f) + 2n + c.
*/
type MultiSpace struct {
	Mesh      *mesh.Mesh
	Fields    [NumFields]*Space
	Dirichlet []DirichletDof
	isDir     []bool
}

func NewMultiSpace(u, v *Space) (ms *MultiSpace, err error) {
	if u == nil || v == nil {
		return nil, fmt.Errorf("multi-field space needs both fields")
	}
	if u.Mesh != v.Mesh {
		return nil, fmt.Errorf("fields %s and %s live on different meshes", u.Name, v.Name)
	}
	ms = &MultiSpace{
		Mesh:   u.Mesh,
		Fields: [NumFields]*Space{FieldU: u, FieldV: v},
	}
	ms.isDir = make([]bool, ms.NumDofs())
	for f, s := range ms.Fields {
		for node, ti := range s.Dirichlet {
			if ti < 0 {
				continue
			}
			for c := 0; c < NumComponents; c++ {
				dof := ms.Dof(f, node, c)
				ms.isDir[dof] = true
				ms.Dirichlet = append(ms.Dirichlet, DirichletDof{
					Dof:  dof,
					Comp: c,
					X:    ms.Mesh.Vertices[node],
					Fn:   s.BC.Values[ti],
				})
			}
		}
	}
	return
}

// Build validates the bindings against the mesh labeling and builds the u and v spaces
func Build(m *mesh.Mesh, bc BCSpec) (ms *MultiSpace, err error) {
	if err = bc.Validate(m.Labels); err != nil {
		return
	}
	var u, v *Space
	if u, err = NewSpace(m, "u", bc.U); err != nil {
		return
	}
	if v, err = NewSpace(m, "v", bc.V); err != nil {
		return
	}
	return NewMultiSpace(u, v)
}

// BuildBootstrap builds the fluid pair, constrained on the outer and interface tags with values frozen at t0
func BuildBootstrap(fluid *mesh.Mesh, outer BCSpec, interfaceTag string, t0 float64) (*MultiSpace, error) {
	bc := outer.Frozen(t0)
	bc.U = bc.U.With(interfaceTag, Constant{})
	bc.V = bc.V.With(interfaceTag, Constant{})
	return Build(fluid, bc)
}

func (ms *MultiSpace) NumNodes() int { return ms.Mesh.NumVertices() }

func (ms *MultiSpace) NumDofs() int { return NumFields * NumComponents * ms.NumNodes() }

func (ms *MultiSpace) Offset(field int) int { return field * NumComponents * ms.NumNodes() }

func (ms *MultiSpace) Dof(field, node, comp int) int {
	return ms.Offset(field) + NumComponents*node + comp
}

func (ms *MultiSpace) IsDirichlet(dof int) bool { return ms.isDir[dof] }

// CellDofs lists the unknowns of cell c ordered field, local node, component
func (ms *MultiSpace) CellDofs(c int) (dofs []int) {
	verts := ms.Mesh.Cells[c]
	dofs = make([]int, 0, NumFields*NumComponents*len(verts))
	for f := 0; f < NumFields; f++ {
		for _, v := range verts {
			for comp := 0; comp < NumComponents; comp++ {
				dofs = append(dofs, ms.Dof(f, v, comp))
			}
		}
	}
	return
}

// ApplyDirichlet overwrites the constrained entries of x with their values at t
func (ms *MultiSpace) ApplyDirichlet(t float64, x []float64) {
	for _, d := range ms.Dirichlet {
		x[d.Dof] = d.Value(t)
	}
}

// ApplyDirichletRates overwrites the constrained entries of xt with their time derivatives at t
func (ms *MultiSpace) ApplyDirichletRates(t float64, xt []float64) {
	for _, d := range ms.Dirichlet {
		xt[d.Dof] = d.Rate(t)
	}
}

// NodalValue returns the vector of field f at node n
func (ms *MultiSpace) NodalValue(x []float64, f, n int) [2]float64 {
	i := ms.Dof(f, n, 0)
	return [2]float64{x[i], x[i+1]}
}

/*
Interpolate transfers a solution of a space whose vertices map into this one
through toVertex. Nodes not reached by the map start at zero, constrained
entries take their values at t.
*/
func (ms *MultiSpace) Interpolate(from *MultiSpace, xFrom []float64, toVertex []int, t float64) (x []float64, err error) {
	if len(xFrom) != from.NumDofs() {
		return nil, fmt.Errorf("source vector has %d entries, space has %d dofs", len(xFrom), from.NumDofs())
	}
	if len(toVertex) != from.NumNodes() {
		return nil, fmt.Errorf("vertex map has %d entries, source space has %d nodes", len(toVertex), from.NumNodes())
	}
	x = make([]float64, ms.NumDofs())
	for n, tn := range toVertex {
		if tn < 0 || tn >= ms.NumNodes() {
			return nil, fmt.Errorf("node %d maps to %d outside [0,%d)", n, tn, ms.NumNodes())
		}
		for f := 0; f < NumFields; f++ {
			for c := 0; c < NumComponents; c++ {
				x[ms.Dof(f, tn, c)] = xFrom[from.Dof(f, n, c)]
			}
		}
	}
	ms.ApplyDirichlet(t, x)
	return
}
