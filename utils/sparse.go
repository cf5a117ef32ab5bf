package utils

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
)

/*
SparsityPattern is the CSR row/column structure of an assembled system. It is
computed once from the coupling groups (the DOFs of each cell) and shared by
every matrix assembled afterwards, only the value array changes.
*/
type SparsityPattern struct {
	N      int
	RowPtr []int // Length N+1
	Cols   []int // Sorted within each row
}

// NewSparsityPattern couples every pair of DOFs within each group, the diagonal is always present
func NewSparsityPattern(N int, groups [][]int) (sp *SparsityPattern, err error) {
	rows := make([]map[int]struct{}, N)
	for i := range rows {
		rows[i] = map[int]struct{}{i: {}}
	}
	for g, dofs := range groups {
		for _, i := range dofs {
			if i < 0 || i >= N {
				err = fmt.Errorf("group %d references dof %d outside [0,%d)", g, i, N)
				return
			}
			for _, j := range dofs {
				rows[i][j] = struct{}{}
			}
		}
	}
	sp = &SparsityPattern{
		N:      N,
		RowPtr: make([]int, N+1),
	}
	for i, row := range rows {
		cols := make([]int, 0, len(row))
		for j := range row {
			cols = append(cols, j)
		}
		sort.Ints(cols)
		sp.Cols = append(sp.Cols, cols...)
		sp.RowPtr[i+1] = len(sp.Cols)
	}
	return
}

func (sp *SparsityPattern) NNZ() int { return len(sp.Cols) }

// Index returns the position of (i,j) in the value array, -1 when outside the pattern
func (sp *SparsityPattern) Index(i, j int) int {
	row := sp.Cols[sp.RowPtr[i]:sp.RowPtr[i+1]]
	k := sort.SearchInts(row, j)
	if k < len(row) && row[k] == j {
		return sp.RowPtr[i] + k
	}
	return -1
}

// GroupIndices returns the value positions of the dense block dofs x dofs, row major
func (sp *SparsityPattern) GroupIndices(dofs []int) (pos []int) {
	pos = make([]int, len(dofs)*len(dofs))
	for a, i := range dofs {
		for b, j := range dofs {
			pos[a*len(dofs)+b] = sp.Index(i, j)
		}
	}
	return
}

// ZeroRow clears row i
func (sp *SparsityPattern) ZeroRow(data []float64, i int) {
	for k := sp.RowPtr[i]; k < sp.RowPtr[i+1]; k++ {
		data[k] = 0
	}
}

// NewCSR wraps the values as a sparse matrix sharing this pattern's index arrays
func (sp *SparsityPattern) NewCSR(data []float64) *sparse.CSR {
	if len(data) != sp.NNZ() {
		panic(fmt.Errorf("value array length %d does not match pattern nnz %d", len(data), sp.NNZ()))
	}
	return sparse.NewCSR(sp.N, sp.N, sp.RowPtr, sp.Cols, data)
}
