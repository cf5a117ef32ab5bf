package mesh

import (
	"fmt"
	"math"

	"github.com/notargets/gofsi/types"
)

// ElementType represents the supported 2D cell shapes
type ElementType uint8

const (
	Triangle ElementType = iota
	Quad
)

func (e ElementType) String() string {
	return [...]string{"Triangle", "Quad"}[e]
}

func (e ElementType) NumVertices() int {
	switch e {
	case Triangle:
		return 3
	default:
		return 4
	}
}

// LocalEdges lists the local vertex pairs of each edge, counter clockwise
func (e ElementType) LocalEdges() [][2]int {
	switch e {
	case Triangle:
		return [][2]int{{0, 1}, {1, 2}, {2, 0}}
	default:
		return [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}}
	}
}

// Mesh is a 2D unstructured mesh with facet topology for every dimension below the cells
type Mesh struct {
	// Geometry
	Vertices [][2]float64

	// Cell data
	Cells        [][]int       // Cell to vertex connectivity, counter clockwise
	ElementTypes []ElementType // Element type for each cell

	// Edge topology (built by BuildTopology)
	Edges         [][2]int // Edge to vertex connectivity, ascending
	EdgeToCells   [][]int  // One cell on the boundary, two in the interior
	CellToEdges   [][]int  // Edge index for each local edge of a cell
	VertexToCells [][]int
	VertexToEdges [][]int
	edgeMap       map[types.EdgeKey]int

	// Entity labeling for vertices, edges and cells
	Labels *Labeling
}

// Dim is the topological dimension of the cells
func (m *Mesh) Dim() int { return 2 }

func (m *Mesh) NumCells() int    { return len(m.Cells) }
func (m *Mesh) NumVertices() int { return len(m.Vertices) }
func (m *Mesh) NumEdges() int    { return len(m.Edges) }

// NewMesh builds the topology of the given cells and an all-interior labeling
func NewMesh(vertices [][2]float64, cells [][]int, elementTypes []ElementType) (m *Mesh, err error) {
	if len(cells) != len(elementTypes) {
		err = fmt.Errorf("have %d cells but %d element types", len(cells), len(elementTypes))
		return
	}
	m = &Mesh{
		Vertices:     vertices,
		Cells:        cells,
		ElementTypes: elementTypes,
	}
	for c, verts := range cells {
		if len(verts) != elementTypes[c].NumVertices() {
			err = fmt.Errorf("cell %d is a %s with %d vertices", c, elementTypes[c], len(verts))
			return
		}
		for _, v := range verts {
			if v < 0 || v >= len(vertices) {
				err = fmt.Errorf("cell %d references vertex %d outside [0,%d)", c, v, len(vertices))
				return
			}
		}
	}
	m.BuildTopology()
	m.Labels = NewLabeling(m.facetCounts())
	return
}

// BuildTopology derives edges and all adjacency maps from the cell connectivity
func (m *Mesh) BuildTopology() {
	var (
		nc = len(m.Cells)
		nv = len(m.Vertices)
	)
	m.edgeMap = make(map[types.EdgeKey]int)
	m.Edges = m.Edges[:0]
	m.EdgeToCells = m.EdgeToCells[:0]
	m.CellToEdges = make([][]int, nc)
	m.VertexToCells = make([][]int, nv)
	m.VertexToEdges = make([][]int, nv)
	for c, verts := range m.Cells {
		for _, v := range verts {
			m.VertexToCells[v] = append(m.VertexToCells[v], c)
		}
		local := m.ElementTypes[c].LocalEdges()
		m.CellToEdges[c] = make([]int, len(local))
		for le, pair := range local {
			ek := types.NewEdgeKey([2]int{verts[pair[0]], verts[pair[1]]})
			e, exists := m.edgeMap[ek]
			if !exists {
				e = len(m.Edges)
				m.edgeMap[ek] = e
				m.Edges = append(m.Edges, ek.Vertices(false))
				m.EdgeToCells = append(m.EdgeToCells, nil)
			}
			m.EdgeToCells[e] = append(m.EdgeToCells[e], c)
			m.CellToEdges[c][le] = e
		}
	}
	for e, verts := range m.Edges {
		for _, v := range verts {
			m.VertexToEdges[v] = append(m.VertexToEdges[v], e)
		}
	}
}

func (m *Mesh) facetCounts() []int {
	return []int{m.NumVertices(), m.NumEdges(), m.NumCells()}
}

// NumFacets returns the number of entities of dimension d
func (m *Mesh) NumFacets(d int) int {
	return m.facetCounts()[d]
}

// EdgeIndex looks up the edge joining two vertices
func (m *Mesh) EdgeIndex(v1, v2 int) (e int, ok bool) {
	e, ok = m.edgeMap[types.NewEdgeKey([2]int{v1, v2})]
	return
}

// LocalEdge returns the local edge number of edge e within cell c, -1 if not adjacent
func (m *Mesh) LocalEdge(c, e int) int {
	for le, ee := range m.CellToEdges[c] {
		if ee == e {
			return le
		}
	}
	return -1
}

/*
IsBoundaryFacet marks the facets of dimension d on the boundary of this mesh.
An edge is on the boundary when it borders exactly one cell, a vertex when it
belongs to any boundary edge.
*/
func (m *Mesh) IsBoundaryFacet(d int) (mask []bool) {
	edges := make([]bool, m.NumEdges())
	for e, cells := range m.EdgeToCells {
		edges[e] = len(cells) == 1
	}
	switch d {
	case 1:
		return edges
	case 0:
		mask = make([]bool, m.NumVertices())
		for e, isB := range edges {
			if isB {
				mask[m.Edges[e][0]] = true
				mask[m.Edges[e][1]] = true
			}
		}
		return
	default:
		panic(fmt.Errorf("boundary facets are defined for dimensions 0 and 1, have %d", d))
	}
}

// CellVertices returns the coordinates of the vertices of cell c
func (m *Mesh) CellVertices(c int) (X [][2]float64) {
	X = make([][2]float64, len(m.Cells[c]))
	for i, v := range m.Cells[c] {
		X[i] = m.Vertices[v]
	}
	return
}

// CellCenter is the vertex average of cell c
func (m *Mesh) CellCenter(c int) [2]float64 {
	return Centroid(m.CellVertices(c))
}

func Centroid(X [][2]float64) (xc [2]float64) {
	if len(X) == 0 {
		return
	}
	for _, x := range X {
		xc[0] += x[0]
		xc[1] += x[1]
	}
	xc[0] /= float64(len(X))
	xc[1] /= float64(len(X))
	return
}

// CellMeasure is the area of cell c
func (m *Mesh) CellMeasure(c int) float64 {
	return PolygonArea(m.CellVertices(c))
}

// CellMeasures computes the area of every cell
func (m *Mesh) CellMeasures() (measures []float64) {
	measures = make([]float64, m.NumCells())
	for c := range m.Cells {
		measures[c] = m.CellMeasure(c)
	}
	return
}

func PolygonArea(X [][2]float64) float64 {
	var sum float64
	for i := range X {
		j := (i + 1) % len(X)
		sum += X[i][0]*X[j][1] - X[j][0]*X[i][1]
	}
	return math.Abs(0.5 * sum)
}

// EdgeLength is the length of edge e
func (m *Mesh) EdgeLength(e int) float64 {
	a, b := m.Vertices[m.Edges[e][0]], m.Vertices[m.Edges[e][1]]
	return math.Hypot(b[0]-a[0], b[1]-a[1])
}

// BoundingBox returns [xmin, xmax, ymin, ymax]
func (m *Mesh) BoundingBox() (box [4]float64) {
	box = [4]float64{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, x := range m.Vertices {
		box[0], box[1] = math.Min(box[0], x[0]), math.Max(box[1], x[0])
		box[2], box[3] = math.Min(box[2], x[1]), math.Max(box[3], x[1])
	}
	return
}

func (m *Mesh) PrintStatistics() {
	fmt.Printf("Mesh Statistics:\n")
	fmt.Printf("  Vertices: %d\n", m.NumVertices())
	fmt.Printf("  Cells: %d\n", m.NumCells())
	fmt.Printf("  Edges: %d\n", m.NumEdges())
	var boundaryEdges int
	for _, isB := range m.IsBoundaryFacet(1) {
		if isB {
			boundaryEdges++
		}
	}
	fmt.Printf("  Boundary edges: %d\n", boundaryEdges)
	if m.Labels != nil {
		for _, name := range m.Labels.TagNames() {
			ents, _ := m.Labels.TagEntities(name)
			fmt.Printf("  Tag %-10s entities %v\n", name, ents)
		}
	}
}
