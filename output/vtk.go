package output

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/notargets/gofsi/fespace"
)

// VTK cell type codes
const (
	vtkTriangle = 5
	vtkQuad     = 9
)

/*
VTKWriter writes each snapshot as a VTK XML unstructured grid holding the
displacement and velocity at the vertices, plus a region flag per cell. Close
writes the .pvd collection that ties the files to their times.
*/
type VTKWriter struct {
	Dir    string
	Prefix string
	Space  *fespace.MultiSpace
	Region []int // Per cell, 1 for solid and 0 for fluid
	files  []string
	times  []float64
	clock
}

func NewVTKWriter(dir, prefix string, space *fespace.MultiSpace, region []int) (vw *VTKWriter, err error) {
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating vtk directory: %w", err)
	}
	if region != nil && len(region) != space.Mesh.NumCells() {
		return nil, fmt.Errorf("region flag has %d entries for %d cells", len(region), space.Mesh.NumCells())
	}
	vw = &VTKWriter{
		Dir:    dir,
		Prefix: prefix,
		Space:  space,
		Region: region,
	}
	return
}

func formatFloats(vals []float64) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', 12, 64))
	}
	return sb.String()
}

func formatInts(vals []int) string {
	var sb strings.Builder
	for i, v := range vals {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	return sb.String()
}

func dataArray(parent *etree.Element, typ, name string, components int, text string) {
	da := parent.CreateElement("DataArray")
	da.CreateAttr("type", typ)
	if name != "" {
		da.CreateAttr("Name", name)
	}
	if components > 1 {
		da.CreateAttr("NumberOfComponents", strconv.Itoa(components))
	}
	da.CreateAttr("format", "ascii")
	da.SetText(text)
}

// field returns the 3 component vertex values of field f, VTK vectors are 3D
func (vw *VTKWriter) field(x []float64, f int) []float64 {
	n := vw.Space.NumNodes()
	vals := make([]float64, 0, 3*n)
	for node := 0; node < n; node++ {
		v := vw.Space.NodalValue(x, f, node)
		vals = append(vals, v[0], v[1], 0)
	}
	return vals
}

func (vw *VTKWriter) document(s Snapshot) *etree.Document {
	var (
		m   = vw.Space.Mesh
		doc = etree.NewDocument()
	)
	doc.CreateProcInst("xml", `version="1.0"`)
	root := doc.CreateElement("VTKFile")
	root.CreateAttr("type", "UnstructuredGrid")
	root.CreateAttr("version", "0.1")
	root.CreateAttr("byte_order", "LittleEndian")
	piece := root.CreateElement("UnstructuredGrid").CreateElement("Piece")
	piece.CreateAttr("NumberOfPoints", strconv.Itoa(m.NumVertices()))
	piece.CreateAttr("NumberOfCells", strconv.Itoa(m.NumCells()))

	points := make([]float64, 0, 3*m.NumVertices())
	for _, x := range m.Vertices {
		points = append(points, x[0], x[1], 0)
	}
	dataArray(piece.CreateElement("Points"), "Float64", "", 3, formatFloats(points))

	var (
		conn, offsets, types []int
	)
	for c, verts := range m.Cells {
		conn = append(conn, verts...)
		offsets = append(offsets, len(conn))
		if m.ElementTypes[c].NumVertices() == 3 {
			types = append(types, vtkTriangle)
		} else {
			types = append(types, vtkQuad)
		}
	}
	cells := piece.CreateElement("Cells")
	dataArray(cells, "Int64", "connectivity", 1, formatInts(conn))
	dataArray(cells, "Int64", "offsets", 1, formatInts(offsets))
	dataArray(cells, "UInt8", "types", 1, formatInts(types))

	pd := piece.CreateElement("PointData")
	pd.CreateAttr("Vectors", "velocity")
	dataArray(pd, "Float64", "displacement", 3, formatFloats(vw.field(s.X, fespace.FieldU)))
	dataArray(pd, "Float64", "velocity", 3, formatFloats(vw.field(s.X, fespace.FieldV)))
	if vw.Region != nil {
		cd := piece.CreateElement("CellData")
		dataArray(cd, "Int32", "solid", 1, formatInts(vw.Region))
	}
	doc.Indent(2)
	return doc
}

func (vw *VTKWriter) Append(s Snapshot) (err error) {
	if len(s.X) != vw.Space.NumDofs() {
		return fmt.Errorf("snapshot has %d entries, space has %d dofs", len(s.X), vw.Space.NumDofs())
	}
	if err = vw.advance(s.Time); err != nil {
		return
	}
	name := fmt.Sprintf("%s_%05d.vtu", vw.Prefix, len(vw.files))
	if err = vw.document(s).WriteToFile(filepath.Join(vw.Dir, name)); err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}
	vw.files = append(vw.files, name)
	vw.times = append(vw.times, s.Time)
	return
}

// Close writes the time collection of every file appended so far
func (vw *VTKWriter) Close() error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0"`)
	root := doc.CreateElement("VTKFile")
	root.CreateAttr("type", "Collection")
	root.CreateAttr("version", "0.1")
	coll := root.CreateElement("Collection")
	for i, name := range vw.files {
		ds := coll.CreateElement("DataSet")
		ds.CreateAttr("timestep", strconv.FormatFloat(vw.times[i], 'g', -1, 64))
		ds.CreateAttr("part", "0")
		ds.CreateAttr("file", name)
	}
	doc.Indent(2)
	return doc.WriteToFile(filepath.Join(vw.Dir, vw.Prefix+".pvd"))
}
