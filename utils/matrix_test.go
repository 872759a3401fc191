package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearSystem(t *testing.T) {
	ls := NewLinearSystem(3)
	// A = diag(2, 4, 8) plus an off diagonal term
	ls.A.Set(0, 0, 2)
	ls.A.Set(1, 1, 4)
	ls.A.Set(2, 2, 8)
	ls.A.Set(0, 2, 1)
	ls.B.SetVec(0, 3)
	ls.B.SetVec(1, 4)
	ls.B.SetVec(2, 8)
	require.True(t, ls.Solve())
	assert.InDelta(t, 1., ls.X.AtVec(0), 1e-14)
	assert.InDelta(t, 1., ls.X.AtVec(1), 1e-14)
	assert.InDelta(t, 1., ls.X.AtVec(2), 1e-14)

	// Singular system
	ls2 := NewLinearSystem(2)
	ls2.A.Set(0, 0, 1)
	ls2.A.Set(0, 1, 1)
	ls2.A.Set(1, 0, 1)
	ls2.A.Set(1, 1, 1)
	assert.False(t, ls2.Solve())
}

func TestNormalEquations(t *testing.T) {
	ne := NewNormalEquations(2)
	// Rows sampled from f(x,y) = 3x - 2y
	pts := [][2]float64{{1, 0}, {0, 1}, {1, 1}, {-1, 2}}
	_, ok := ne.Solve()
	assert.False(t, ok)
	for _, p := range pts {
		ne.AddRow(p[:], 3*p[0]-2*p[1])
	}
	x, ok := ne.Solve()
	require.True(t, ok)
	assert.InDelta(t, 3., x[0], 1e-12)
	assert.InDelta(t, -2., x[1], 1e-12)

	// Collinear rows are rank deficient
	ne.Reset()
	ne.AddRow([]float64{1, 1}, 1)
	ne.AddRow([]float64{2, 2}, 2)
	_, ok = ne.Solve()
	assert.False(t, ok)
}

func TestIncidence(t *testing.T) {
	cells := [][]int{{0, 1, 2}, {1, 2, 3}, {2, 3, 4}}
	inc := NewIncidence(5, len(cells), func(add func(row, col int)) {
		for c, verts := range cells {
			for _, v := range verts {
				add(v, c)
			}
		}
	})
	var buf []int
	assert.Equal(t, []int{0}, inc.Row(0, buf))
	assert.Equal(t, []int{0, 1, 2}, inc.Row(2, buf))
	assert.Equal(t, []int{1, 2}, inc.Row(3, buf))
	assert.Equal(t, 3, inc.RowLen(2))
	assert.Empty(t, inc.Row(9, buf))

	empty := NewIncidence(0, 0, func(add func(row, col int)) {})
	assert.Empty(t, empty.Row(0, nil))
	assert.Equal(t, 0, empty.RowLen(0))
}
