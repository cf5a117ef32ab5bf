package types

import (
	"fmt"
	"math"
)

/*
EdgeKey identifies an edge by its two vertex indices independent of direction.
The smaller index is stored in the low 32 bits, so an edge between vertices
[4] and [0] packs to the same key as [0] and [4].
*/
type EdgeKey uint64

func NewEdgeKey(verts [2]int) EdgeKey {
	for _, v := range verts {
		if v < 0 || v > math.MaxUint32 {
			panic(fmt.Errorf("vertex index out of range for edge key, have %d and %d",
				verts[0], verts[1]))
		}
	}
	lo, hi := verts[0], verts[1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return EdgeKey(uint64(lo) | uint64(hi)<<32)
}

// Vertices returns the ascending vertex pair, or the descending one when rev is set
func (ek EdgeKey) Vertices(rev bool) (verts [2]int) {
	verts[0] = int(ek & math.MaxUint32)
	verts[1] = int(ek >> 32)
	if rev {
		verts[0], verts[1] = verts[1], verts[0]
	}
	return
}

// CellFacet addresses a facet through one of its adjacent cells
type CellFacet struct {
	Cell  int // Cell index in the owning mesh
	Local int // Local facet number within the cell
}
