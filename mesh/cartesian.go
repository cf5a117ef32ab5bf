package mesh

import (
	"github.com/notargets/gofsi/types"
)

// Outer boundary entities of a Cartesian mesh
const (
	EntityInterior = iota
	EntityBottom
	EntityRight
	EntityTop
	EntityLeft
)

/*
NewCartesianMesh builds a uniform nx by ny quad grid over domain
[xmin, xmax, ymin, ymax]. Every outer edge and vertex is labeled with the side
it lies on, corners belong to the bottom and top sides. The side tags are
"bottom", "right", "top" and "left", "boundary" collects all four.
*/
func NewCartesianMesh(domain [4]float64, nx, ny int) (m *Mesh, err error) {
	if nx <= 0 {
		return nil, types.NewConfigError("Nm", nx, "mesh resolution must be positive")
	}
	if ny <= 0 {
		return nil, types.NewConfigError("Nm", ny, "mesh resolution must be positive")
	}
	if !(domain[1] > domain[0]) || !(domain[3] > domain[2]) {
		return nil, types.NewConfigError("Domain", domain, "domain extents must be increasing")
	}
	var (
		nvx      = nx + 1
		dx       = (domain[1] - domain[0]) / float64(nx)
		dy       = (domain[3] - domain[2]) / float64(ny)
		vertices = make([][2]float64, nvx*(ny+1))
		cells    = make([][]int, nx*ny)
		eTypes   = make([]ElementType, nx*ny)
	)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			vertices[i+j*nvx] = [2]float64{domain[0] + float64(i)*dx, domain[2] + float64(j)*dy}
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			v0 := i + j*nvx
			cells[i+j*nx] = []int{v0, v0 + 1, v0 + 1 + nvx, v0 + nvx}
			eTypes[i+j*nx] = Quad
		}
	}
	if m, err = NewMesh(vertices, cells, eTypes); err != nil {
		return
	}
	side := func(v int) int {
		i, j := v%nvx, v/nvx
		switch {
		case j == 0:
			return EntityBottom
		case j == ny:
			return EntityTop
		case i == nx:
			return EntityRight
		case i == 0:
			return EntityLeft
		}
		return EntityInterior
	}
	labels := m.Labels
	for v := range m.Vertices {
		labels.Entities[0][v] = side(v)
	}
	for e, verts := range m.Edges {
		if len(m.EdgeToCells[e]) != 1 {
			continue
		}
		i0, j0 := verts[0]%nvx, verts[0]/nvx
		i1, j1 := verts[1]%nvx, verts[1]/nvx
		switch {
		case j0 == 0 && j1 == 0:
			labels.Entities[1][e] = EntityBottom
		case j0 == ny && j1 == ny:
			labels.Entities[1][e] = EntityTop
		case i0 == nx && i1 == nx:
			labels.Entities[1][e] = EntityRight
		case i0 == 0 && i1 == 0:
			labels.Entities[1][e] = EntityLeft
		}
	}
	labels.Tags["bottom"] = []int{EntityBottom}
	labels.Tags["right"] = []int{EntityRight}
	labels.Tags["top"] = []int{EntityTop}
	labels.Tags["left"] = []int{EntityLeft}
	labels.Tags["boundary"] = []int{EntityBottom, EntityRight, EntityTop, EntityLeft}
	return
}
