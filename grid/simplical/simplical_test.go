package simplical

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
)

// kuhnBox fills [0,n]^3 with unit cubes each split into six tetrahedra along
// the main diagonal, carrying the values of f.
func kuhnBox(t *testing.T, n int, f func(p types.Point) float64) *Simplical[float64] {
	var (
		s    = New[float64](3)
		arr  = types.NewArray(3, types.Index{n + 1, n + 1, n + 1})
		cube = topology.Tesseract(3)
		idx  types.Index
	)
	for ok := true; ok; ok = arr.Next(&idx) {
		p := types.Point{float64(idx[0]), float64(idx[1]), float64(idx[2])}
		assert.Equal(t, grid.VertexID(arr.Linear(idx)), s.AddVertex(p, f(p)))
	}
	cells := arr.Shrink()
	idx = types.Index{}
	for ok := true; ok; ok = cells.Next(&idx) {
		for _, simplex := range cube.Simplices {
			verts := make([]grid.VertexID, len(simplex))
			for i, corner := range simplex {
				c := idx
				for k := 0; k < 3; k++ {
					c[k] += (corner >> k) & 1
				}
				verts[i] = grid.VertexID(arr.Linear(c))
			}
			_, err := s.AddCell(verts...)
			require.NoError(t, err)
		}
	}
	s.FinalizeGrid()
	return s
}

func linear(p types.Point) float64 { return 2*p[0] + 3*p[1] - p[2] }

func TestTwoTriangles(t *testing.T) {
	s := New[float64](2)
	for _, p := range []types.Point{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		s.AddVertex(p, p[0]+p[1])
	}
	_, err := s.AddCell(0, 1, 2)
	require.NoError(t, err)
	_, err = s.AddCell(1, 3, 2)
	require.NoError(t, err)
	s.FinalizeGrid()
	for c := 0; c < 2; c++ {
		var valid, boundary int
		for f := 0; f < 3; f++ {
			if n := s.CellNeighbour(grid.CellID(c), f); n == grid.InvalidCell {
				boundary++
			} else {
				valid++
				assert.Equal(t, grid.CellID(1-c), n)
			}
		}
		assert.Equal(t, 1, valid)
		assert.Equal(t, 2, boundary)
	}
	// Shared edge 1-2 is opposite vertex 0 of the first triangle and vertex 1 of the second
	assert.Equal(t, grid.CellID(1), s.CellNeighbour(0, 0))
	assert.Equal(t, grid.CellID(0), s.CellNeighbour(1, 1))
	assert.Equal(t, types.NewBox(types.Point{}, types.Point{1, 1, 0}), s.DomainBox())
	assert.Equal(t, []grid.CellID{0, 1}, s.VertexCells(2, nil))
	assert.Equal(t, []grid.CellID{1}, s.VertexCells(3, nil))

	loc := s.NewLocator()
	f := s.ScalarExtractor(grid.Identity)
	require.True(t, loc.Locate(types.Point{0.8, 0.7, 0}, false))
	assert.Equal(t, grid.CellID(1), loc.Cell())
	assert.InDelta(t, 1.5, loc.CalcScalar(f), 1e-12)
	grad := loc.CalcGradient(f)
	assert.InDelta(t, 1., grad[0], 1e-12)
	assert.InDelta(t, 1., grad[1], 1e-12)
}

func TestKuhnBox(t *testing.T) {
	s := kuhnBox(t, 2, linear)
	assert.Equal(t, 27, s.NumVertices())
	assert.Equal(t, 48, s.NumCells())
	{ // Adjacency symmetry and the boundary face count
		var boundary int
		for c := 0; c < s.NumCells(); c++ {
			cell, err := grid.GetCell(s, grid.CellID(c))
			require.NoError(t, err)
			for f := 0; f < cell.NumFaces(); f++ {
				n, ok := cell.Neighbour(f)
				if !ok {
					boundary++
					continue
				}
				found := false
				for f2 := 0; f2 < n.NumFaces(); f2++ {
					found = found || n.NeighbourID(f2) == cell.ID
				}
				assert.True(t, found, "cell %d face %d", c, f)
			}
		}
		// Six box faces of four squares, two triangles each
		assert.Equal(t, 48, boundary)
	}
	{ // Round trip IDs
		for v := 0; v < s.NumVertices(); v++ {
			vert, err := grid.GetVertex(s, grid.VertexID(v))
			require.NoError(t, err)
			again, _ := grid.GetVertex(s, vert.ID)
			assert.Equal(t, vert, again)
		}
		_, err := grid.GetVertex(s, 27)
		assert.True(t, errors.Is(err, grid.ErrOutOfRange))
	}
	var (
		f     = s.ScalarExtractor(grid.Identity)
		loc   = s.NewLocator()
		stats = &grid.Stats{}
	)
	loc.SetStats(stats)
	{ // Vertex exactness
		for v := 0; v < s.NumVertices(); v++ {
			id := grid.VertexID(v)
			require.True(t, loc.Locate(s.VertexPosition(id), false))
			assert.InDelta(t, f.ScalarValue(id), loc.CalcScalar(f), 1e-9)
		}
	}
	{ // Linear fields are reproduced, along with their gradient
		p := types.Point{0.7, 1.2, 0.4}
		require.True(t, loc.Locate(p, false))
		assert.InDelta(t, linear(p), loc.CalcScalar(f), 1e-12)
		grad := loc.CalcGradient(f)
		assert.InDelta(t, 2., grad[0], 1e-9)
		assert.InDelta(t, 3., grad[1], 1e-9)
		assert.InDelta(t, -1., grad[2], 1e-9)
		assert.Equal(t, int64(4), stats.Gradients.Load())
		ids, w := loc.Weights()
		assert.Len(t, ids, 4)
		assert.InDelta(t, 1., w[0]+w[1]+w[2]+w[3], 1e-12)
		for _, wi := range w {
			assert.GreaterOrEqual(t, wi, -1e-12)
		}
	}
	{ // Idempotent location
		p := types.Point{1.1, 0.3, 1.9}
		require.True(t, loc.Locate(p, true))
		cell, local := loc.Cell(), loc.LocalCoords()
		require.True(t, loc.Locate(p, true))
		assert.Equal(t, cell, loc.Cell())
		assert.Equal(t, local, loc.LocalCoords())
	}
	{ // Tracing walks across cells
		transitions := stats.Transitions.Load()
		require.True(t, loc.Locate(types.Point{0.3, 0.3, 0.3}, false))
		require.True(t, loc.Locate(types.Point{1.6, 0.4, 0.5}, true))
		assert.Greater(t, stats.Transitions.Load(), transitions)
		assert.InDelta(t, linear(types.Point{1.6, 0.4, 0.5}), loc.CalcScalar(f), 1e-12)
	}
	{ // Leaving the mesh stops on a boundary cell
		assert.False(t, loc.Locate(types.Point{2.3, 1, 1}, true))
		assert.Equal(t, grid.Failed, loc.State())
		require.NotEqual(t, grid.InvalidCell, loc.Cell())
		onBoundary := false
		for f := 0; f < 4; f++ {
			onBoundary = onBoundary || s.CellNeighbour(loc.Cell(), f) == grid.InvalidCell
		}
		assert.True(t, onBoundary)
		assert.False(t, loc.Locate(types.Point{30, 1, 1}, false))
	}
	{ // Vertex gradients
		for v := 0; v < s.NumVertices(); v++ {
			grad := s.VertexGradient(grid.VertexID(v), f)
			assert.InDelta(t, 2., grad[0], 1e-9)
			assert.InDelta(t, 3., grad[1], 1e-9)
			assert.InDelta(t, -1., grad[2], 1e-9)
		}
	}
}

func TestGradientWidening(t *testing.T) {
	// Vertex 0 only touches a flat triangle, its star spans one direction
	s := New[float64](2)
	for _, p := range []types.Point{{0, 0}, {1, 0}, {2, 0}, {1, 1}} {
		s.AddVertex(p, 2*p[0]+3*p[1])
	}
	_, err := s.AddCell(0, 1, 2)
	require.NoError(t, err)
	_, err = s.AddCell(1, 2, 3)
	require.NoError(t, err)
	s.FinalizeGrid()
	grad := s.VertexGradient(0, s.ScalarExtractor(grid.Identity))
	assert.InDelta(t, 2., grad[0], 1e-9)
	assert.InDelta(t, 3., grad[1], 1e-9)
}

func TestSimplicalContract(t *testing.T) {
	s := New[float64](3)
	for i := 0; i < 4; i++ {
		s.AddVertex(types.Point{float64(i & 1), float64(i >> 1 & 1), float64(i / 3)}, 0)
	}
	_, err := s.AddCell(0, 1, 2)
	assert.Error(t, err)
	_, err = s.AddCell(0, 1, 2, 9)
	assert.True(t, errors.Is(err, grid.ErrOutOfRange))
	_, err = s.AddCell(0, 1, 1, 2)
	assert.Error(t, err)
	c, err := s.AddCell(0, 1, 2, 3)
	require.NoError(t, err)
	assert.Equal(t, grid.CellID(0), c)
	assert.PanicsWithValue(t, grid.ErrNotFinalized, func() { s.NewLocator() })
	s.FinalizeGrid()
	assert.PanicsWithValue(t, grid.ErrFinalized, func() { s.AddVertex(types.Point{}, 0) })
	assert.PanicsWithValue(t, grid.ErrFinalized, func() { _, _ = s.AddCell(0, 1, 2, 3) })
	for f := 0; f < 4; f++ {
		assert.Equal(t, grid.InvalidCell, s.CellNeighbour(0, f))
	}
	assert.Greater(t, s.LocatorEpsilon(), 0.)
	assert.Greater(t, s.AverageCellSize(), 0.)
}
