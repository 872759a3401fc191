package curvilinear

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

// twoBlocks builds an annular sector r in [1,2], theta in [0,pi/2] next to a
// sheared rectangle to its right. Values come from f.
func twoBlocks(t *testing.T, f func(p types.Point) float64) *MultiCurvilinear[float64] {
	mc := New[float64](2)
	annulus := mc.AddGrid(types.Index{3, 5})
	for j := 0; j < 5; j++ {
		for i := 0; i < 3; i++ {
			r, th := 1+0.5*float64(i), math.Pi/8*float64(j)
			p := types.Point{r * math.Cos(th), r * math.Sin(th), 0}
			require.NoError(t, mc.SetVertex(annulus, types.Index{i, j}, p, f(p)))
		}
	}
	shear := mc.AddGrid(types.Index{5, 3})
	for j := 0; j < 3; j++ {
		for i := 0; i < 5; i++ {
			p := types.Point{2.5 + 0.5*float64(i) + 0.1*float64(j), 0.5 * float64(j), 0}
			require.NoError(t, mc.SetVertex(shear, types.Index{i, j}, p, f(p)))
		}
	}
	mc.FinalizeGrid()
	return mc
}

func linear(p types.Point) float64 { return 3*p[0] - 2*p[1] }

func TestMultiCurvilinearStructure(t *testing.T) {
	mc := twoBlocks(t, linear)
	assert.Equal(t, 2, mc.NumBlocks())
	assert.Equal(t, 30, mc.NumVertices())
	assert.Equal(t, 8+8, mc.NumCells())
	assert.Equal(t, 15, mc.Block(1).VertexOffset)
	assert.Equal(t, 8, mc.Block(1).CellOffset)
	box := mc.DomainBox()
	assert.InDelta(t, 0., box.Min[0], 1e-12)
	assert.InDelta(t, 4.7, box.Max[0], 1e-12)
	assert.InDelta(t, 2., box.Max[1], 1e-12)
	assert.Greater(t, mc.AverageCellSize(), 0.)
	// Cells average a radius of roughly 0.4
	assert.InDelta(t, 0.4*grid.EpsilonFactor, mc.LocatorEpsilon(), 0.1*grid.EpsilonFactor)
	mc.SetLocatorEpsilon(1e-10)
	assert.Equal(t, 1e-10, mc.LocatorEpsilon())

	{ // Round trip IDs
		for v := 0; v < mc.NumVertices(); v++ {
			vert, err := grid.GetVertex(mc, grid.VertexID(v))
			require.NoError(t, err)
			again, _ := grid.GetVertex(mc, vert.ID)
			assert.Equal(t, vert, again)
		}
		for c := 0; c < mc.NumCells(); c++ {
			cell, err := grid.GetCell(mc, grid.CellID(c))
			require.NoError(t, err)
			again, _ := grid.GetCell(mc, cell.ID)
			assert.Equal(t, cell, again)
		}
	}
	{ // Adjacency is symmetric and never crosses blocks
		for c := 0; c < mc.NumCells(); c++ {
			for f := 0; f < 4; f++ {
				n := mc.CellNeighbour(grid.CellID(c), f)
				if n == grid.InvalidCell {
					continue
				}
				assert.Equal(t, grid.CellID(c), mc.CellNeighbour(n, f^1))
				assert.Equal(t, c < 8, int(n) < 8)
			}
		}
	}
	{ // Addressing errors
		_, err := mc.BlockVertex(2, types.Index{})
		assert.True(t, errors.Is(err, grid.ErrOutOfRange))
		_, err = mc.BlockVertex(0, types.Index{3, 0})
		assert.True(t, errors.Is(err, grid.ErrOutOfRange))
		v, err := mc.BlockVertex(1, types.Index{1, 1})
		require.NoError(t, err)
		assert.Equal(t, grid.VertexID(15+6), v)
	}
	{ // Lifecycle contract
		assert.PanicsWithValue(t, grid.ErrFinalized, func() { mc.AddGrid(types.Index{2, 2}) })
		assert.PanicsWithValue(t, grid.ErrFinalized, func() { mc.FinalizeGrid() })
		open := New[float64](3)
		open.AddGrid(types.Index{2, 2, 2})
		assert.PanicsWithValue(t, grid.ErrNotFinalized, func() { open.NewLocator() })
		assert.Panics(t, func() { open.AddGrid(types.Index{2, 1, 2}) })
	}
}

func TestMultiCurvilinearLocate(t *testing.T) {
	var (
		mc    = twoBlocks(t, linear)
		f     = mc.ScalarExtractor(grid.Identity)
		pos   = grid.VectorFunc(func(v grid.VertexID) types.Vector { return types.Vector(mc.VertexPosition(v)) })
		stats = &grid.Stats{}
		loc   = mc.NewLocator()
	)
	loc.SetStats(stats)
	{ // Vertex exactness in both blocks
		for v := 0; v < mc.NumVertices(); v++ {
			id := grid.VertexID(v)
			require.True(t, loc.Locate(mc.VertexPosition(id), false), "vertex %d", v)
			assert.InDelta(t, f.ScalarValue(id), loc.CalcScalar(f), 1e-6*math.Max(1, math.Abs(f.ScalarValue(id))))
		}
	}
	{ // Curved cells: the multilinear map reproduces the target position
		p := types.Point{1.3 * math.Cos(0.3), 1.3 * math.Sin(0.3), 0}
		require.True(t, loc.Locate(p, false))
		assert.Equal(t, grid.Tracing, loc.State())
		assert.Equal(t, grid.CellID(0), loc.Cell())
		q := loc.CalcVector(pos)
		assert.InDelta(t, p[0], q[0], 1e-6)
		assert.InDelta(t, p[1], q[1], 1e-6)
		cell, local := loc.Cell(), loc.LocalCoords()
		require.True(t, loc.Locate(p, true))
		assert.Equal(t, cell, loc.Cell())
		assert.Equal(t, local, loc.LocalCoords())
	}
	{ // Tracing within the annulus steps across cells
		transitions := stats.Transitions.Load()
		p := types.Point{1.3 * math.Cos(0.5), 1.3 * math.Sin(0.5), 0}
		require.True(t, loc.Locate(p, true))
		assert.Greater(t, stats.Transitions.Load(), transitions)
		q := loc.CalcVector(pos)
		assert.InDelta(t, p[0], q[0], 1e-6)
		assert.InDelta(t, p[1], q[1], 1e-6)
	}
	{ // Tracing into the other block falls back to a kd-tree seed
		reseeds := stats.Reseeds.Load()
		require.True(t, loc.Locate(types.Point{3, 0.3, 0}, true))
		assert.Greater(t, stats.Reseeds.Load(), reseeds)
		assert.GreaterOrEqual(t, int(loc.Cell()), 8)
		assert.InDelta(t, 8.4, loc.CalcScalar(f), 1e-9)
		grad := loc.CalcGradient(f)
		assert.InDelta(t, 3., grad[0], 1e-9)
		assert.InDelta(t, -2., grad[1], 1e-9)
	}
	{ // Outside the grid
		assert.False(t, loc.Locate(types.Point{0, 0, 0}, true))
		assert.Equal(t, grid.Failed, loc.State())
		assert.False(t, loc.Locate(types.Point{10, 10, 0}, false))
		assert.False(t, loc.Locate(types.Point{2.25, 1.5, 0}, false))
	}
	{ // Vertex gradients reproduce linear fields in every block
		for v := 0; v < mc.NumVertices(); v++ {
			grad := mc.VertexGradient(grid.VertexID(v), f)
			assert.InDelta(t, 3., grad[0], 1e-9)
			assert.InDelta(t, -2., grad[1], 1e-9)
		}
	}
}

func TestSlicedMultiCurvilinear(t *testing.T) {
	sc := NewSliced(3)
	b := sc.AddGrid(types.Index{3, 2, 2})
	rho, err := sc.AddSlice("rho", nil)
	require.NoError(t, err)
	arr := sc.Block(b).Vertices
	var idx types.Index
	for ok := true; ok; ok = arr.Next(&idx) {
		// Twisted box: x is stretched with z
		p := types.Point{float64(idx[0]) * (1 + 0.25*float64(idx[2])), float64(idx[1]), float64(idx[2])}
		require.NoError(t, sc.SetVertexPosition(b, idx, p))
		require.NoError(t, sc.SetVertexValue(rho, b, idx, p[0]+p[1]+p[2]))
	}
	// A second block added later grows the slices
	b2 := sc.AddGrid(types.Index{2, 2, 2})
	assert.Len(t, sc.Slices.Slice(rho), 20)
	idx = types.Index{}
	for ok := true; ok; ok = sc.Block(b2).Vertices.Next(&idx) {
		p := types.Point{float64(idx[0]), float64(idx[1]), 5 + float64(idx[2])}
		require.NoError(t, sc.SetVertexPosition(b2, idx, p))
		require.NoError(t, sc.SetVertexValue(rho, b2, idx, p[0]+p[1]+p[2]))
	}
	assert.True(t, errors.Is(sc.SetVertexValue(3, b, types.Index{}, 1), grid.ErrOutOfRange))
	sc.FinalizeGrid()
	f, err := sc.ScalarExtractor(rho)
	require.NoError(t, err)
	loc := sc.NewLocator()
	for v := 0; v < sc.NumVertices(); v++ {
		id := grid.VertexID(v)
		require.True(t, loc.Locate(sc.VertexPosition(id), false))
		assert.InDelta(t, f.ScalarValue(id), loc.CalcScalar(f), 1e-6)
	}
	require.True(t, loc.Locate(types.Point{0.5, 0.5, 5.5}, false))
	assert.InDelta(t, 6.5, loc.CalcScalar(f), 1e-9)
	assert.False(t, loc.Locate(types.Point{0.5, 0.5, 3}, false))
	ve, err := sc.VectorExtractor(rho, rho)
	require.NoError(t, err)
	require.True(t, loc.Locate(types.Point{0.5, 0.5, 5.5}, true))
	vec := loc.CalcVector(ve)
	assert.InDelta(t, 6.5, vec[1], 1e-9)
	assert.Equal(t, 0., vec[2])
}
