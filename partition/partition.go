package partition

import (
	"fmt"
	"log"

	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/utils"
)

// Classifier decides membership of a cell in the solid region from its vertex coordinates
type Classifier interface {
	IsIn(cellVertices [][2]float64) bool
}

// ClassifierFunc adapts a plain function to a Classifier
type ClassifierFunc func(cellVertices [][2]float64) bool

func (f ClassifierFunc) IsIn(cellVertices [][2]float64) bool { return f(cellVertices) }

// CellCenterInCircle tests the vertex average of a cell against a circle
type CellCenterInCircle struct {
	Center [2]float64
	Radius float64
}

func (c CellCenterInCircle) IsIn(cellVertices [][2]float64) bool {
	xc := mesh.Centroid(cellVertices)
	dx, dy := xc[0]-c.Center[0], xc[1]-c.Center[1]
	return dx*dx+dy*dy < c.Radius*c.Radius
}

// CellCenterInBox tests the vertex average of a cell against [xmin, xmax, ymin, ymax]
type CellCenterInBox struct {
	Box [4]float64
}

func (b CellCenterInBox) IsIn(cellVertices [][2]float64) bool {
	xc := mesh.Centroid(cellVertices)
	return xc[0] > b.Box[0] && xc[0] < b.Box[1] && xc[1] > b.Box[2] && xc[1] < b.Box[3]
}

// Split is the partition of a parent mesh into a solid and a fluid sub-mesh
type Split struct {
	Parent *mesh.Mesh
	Mask   []bool // True where the cell is solid
	Solid  *mesh.SubMesh
	Fluid  *mesh.SubMesh
}

// InCellToCell is the solid local to parent cell map
func (s *Split) InCellToCell() []int { return s.Solid.CellToParent }

// OutCellToCell is the fluid local to parent cell map
func (s *Split) OutCellToCell() []int { return s.Fluid.CellToParent }

/*
Partition evaluates the classifier on every cell of the parent mesh and builds
the induced solid (classifier true) and fluid (classifier false) sub-meshes.
Evaluation is spread over ParallelDegree goroutines, each writing only its own
range of the mask. Either region may come out empty.
*/
func Partition(parent *mesh.Mesh, classifier Classifier, parallelDegree int) (s *Split, err error) {
	if classifier == nil {
		return nil, fmt.Errorf("partition requires a classifier")
	}
	var (
		nc = parent.NumCells()
		pm = utils.NewPartitionMap(utils.DefaultParallelDegree(parallelDegree, nc), nc)
	)
	s = &Split{
		Parent: parent,
		Mask:   make([]bool, nc),
	}
	pm.ForEachBucket(func(bn, kMin, kMax int) {
		for c := kMin; c < kMax; c++ {
			s.Mask[c] = classifier.IsIn(parent.CellVertices(c))
		}
	})
	var inCells, outCells []int
	for c, isIn := range s.Mask {
		if isIn {
			inCells = append(inCells, c)
		} else {
			outCells = append(outCells, c)
		}
	}
	if s.Solid, err = parent.Restrict(inCells); err != nil {
		return nil, fmt.Errorf("building solid sub-mesh: %w", err)
	}
	if s.Fluid, err = parent.Restrict(outCells); err != nil {
		return nil, fmt.Errorf("building fluid sub-mesh: %w", err)
	}
	return
}

func (s *Split) PrintStatistics() {
	log.Printf("Partition: %d cells, solid %d, fluid %d",
		s.Parent.NumCells(), s.Solid.NumCells(), s.Fluid.NumCells())
	if s.Solid.NumCells() == 0 || s.Fluid.NumCells() == 0 {
		log.Printf("  one region is empty, its terms contribute nothing")
	}
}
