package coupling

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gofsi/mesh"
	"github.com/notargets/gofsi/partition"
)

/*
RegionMeasures holds the parent cell measures and their read-only projections
onto the fluid cells, the solid cells and the interface edges. An interface
edge takes the measure of the fluid cell adjacent to it.
*/
type RegionMeasures struct {
	Parent    []float64
	Fluid     []float64
	Solid     []float64
	Interface []float64
}

func NewRegionMeasures(parent *mesh.Mesh, split *partition.Split, iface *Interface) (rm *RegionMeasures, err error) {
	if split.Parent != parent {
		return nil, fmt.Errorf("partition was built on a different parent mesh")
	}
	rm = &RegionMeasures{
		Parent: parent.CellMeasures(),
	}
	rm.Fluid = reindex(rm.Parent, split.Fluid.CellToParent)
	rm.Solid = reindex(rm.Parent, split.Solid.CellToParent)
	if iface != nil {
		adj := iface.ParentAdjacent()
		rm.Interface = make([]float64, len(adj))
		for i, a := range adj {
			rm.Interface[i] = rm.Parent[a.Cell]
		}
	}
	return
}

func reindex(values []float64, toParent []int) (r []float64) {
	r = make([]float64, len(toParent))
	for i, p := range toParent {
		r[i] = values[p]
	}
	return
}

func Sum(x []float64) float64 { return floats.Sum(x) }

// Mean is zero for an empty region
func Mean(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return floats.Sum(x) / float64(len(x))
}
