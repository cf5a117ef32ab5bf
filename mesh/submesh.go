package mesh

import (
	"fmt"
)

/*
SubMesh is the mesh induced by a subset of the cells of a parent mesh. Vertices
and edges are renumbered locally, the maps below relate every local entity to
its parent counterpart.
*/
type SubMesh struct {
	*Mesh
	Parent         *Mesh
	CellToParent   []int   // local_to_parent for cells
	ParentToCell   []int   // -1 where the parent cell is not part of this sub-mesh
	VertexToParent []int   // local vertex -> parent vertex
	FacetToParent  [][]int // [dim][local facet] -> parent facet, dims 0..2
}

// Restrict builds the sub-mesh induced by the given parent cells, labels are inherited
func (m *Mesh) Restrict(cells []int) (sm *SubMesh, err error) {
	sm = &SubMesh{
		Parent:       m,
		CellToParent: append([]int(nil), cells...),
		ParentToCell: make([]int, m.NumCells()),
	}
	for i := range sm.ParentToCell {
		sm.ParentToCell[i] = -1
	}
	usedVertex := make([]bool, m.NumVertices())
	for lc, pc := range cells {
		if pc < 0 || pc >= m.NumCells() {
			return nil, fmt.Errorf("cell %d outside parent mesh of %d cells", pc, m.NumCells())
		}
		if sm.ParentToCell[pc] != -1 {
			return nil, fmt.Errorf("cell %d listed twice", pc)
		}
		sm.ParentToCell[pc] = lc
		for _, v := range m.Cells[pc] {
			usedVertex[v] = true
		}
	}
	parentToVertex := make([]int, m.NumVertices())
	var vertices [][2]float64
	for pv, used := range usedVertex {
		parentToVertex[pv] = -1
		if used {
			parentToVertex[pv] = len(sm.VertexToParent)
			sm.VertexToParent = append(sm.VertexToParent, pv)
			vertices = append(vertices, m.Vertices[pv])
		}
	}
	var (
		localCells = make([][]int, len(cells))
		eTypes     = make([]ElementType, len(cells))
	)
	for lc, pc := range cells {
		localCells[lc] = make([]int, len(m.Cells[pc]))
		for i, pv := range m.Cells[pc] {
			localCells[lc][i] = parentToVertex[pv]
		}
		eTypes[lc] = m.ElementTypes[pc]
	}
	if sm.Mesh, err = NewMesh(vertices, localCells, eTypes); err != nil {
		return nil, err
	}
	edgeToParent := make([]int, sm.NumEdges())
	for e, verts := range sm.Edges {
		pe, ok := m.EdgeIndex(sm.VertexToParent[verts[0]], sm.VertexToParent[verts[1]])
		if !ok {
			return nil, fmt.Errorf("edge %v has no parent edge", verts)
		}
		edgeToParent[e] = pe
	}
	sm.FacetToParent = [][]int{sm.VertexToParent, edgeToParent, sm.CellToParent}
	if m.Labels != nil {
		sm.Labels = m.Labels.Restrict(sm.FacetToParent)
	}
	return
}

// WithLabels returns a shallow copy of the sub-mesh that uses the given labeling
func (sm *SubMesh) WithLabels(l *Labeling) *SubMesh {
	m := *sm.Mesh
	m.Labels = l
	c := *sm
	c.Mesh = &m
	return &c
}
