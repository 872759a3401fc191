package utils

import (
	"sort"

	"github.com/james-bowman/sparse"
)

// Incidence is a sparse boolean row -> column relation stored in compressed
// sparse row form, e.g. vertex -> cells containing that vertex.
type Incidence struct {
	NRows, NCols int
	M            *sparse.CSR
}

// NewIncidence builds the relation from the (row, col) pairs passed to add by
// visit. Repeated pairs are stored once.
func NewIncidence(nRows, nCols int, visit func(add func(row, col int))) (inc Incidence) {
	inc = Incidence{NRows: nRows, NCols: nCols}
	if nRows == 0 || nCols == 0 {
		return
	}
	dok := sparse.NewDOK(nRows, nCols)
	visit(func(row, col int) {
		dok.Set(row, col, 1)
	})
	inc.M = dok.ToCSR()
	return
}

// Row appends the sorted columns related to row to dst[:0].
func (inc Incidence) Row(row int, dst []int) []int {
	dst = dst[:0]
	if inc.M == nil || row < 0 || row >= inc.NRows {
		return dst
	}
	raw := inc.M.RawMatrix()
	dst = append(dst, raw.Ind[raw.Indptr[row]:raw.Indptr[row+1]]...)
	sort.Ints(dst)
	return dst
}

// RowLen returns the number of columns related to row.
func (inc Incidence) RowLen(row int) int {
	if inc.M == nil || row < 0 || row >= inc.NRows {
		return 0
	}
	raw := inc.M.RawMatrix()
	return raw.Indptr[row+1] - raw.Indptr[row]
}
