package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
)

// shearGrid is a structured 2D quad grid with x sheared by y, so every cell
// is a parallelogram and the multilinear map is affine.
type shearGrid struct {
	nx, ny int
	shear  float64
}

func (g *shearGrid) Dimension() int { return 2 }
func (g *shearGrid) Topology() *topology.Topology { return topology.Tesseract(2) }
func (g *shearGrid) NumVertices() int { return g.nx * g.ny }
func (g *shearGrid) NumCells() int { return (g.nx - 1) * (g.ny - 1) }
func (g *shearGrid) DomainBox() types.Box { return types.NewEmptyBox() }
func (g *shearGrid) AverageCellSize() float64 { return 1 }
func (g *shearGrid) NewLocator() Locator { return nil }
func (g *shearGrid) cellIndex(c CellID) (ci, cj int) { return int(c) % (g.nx - 1), int(c) / (g.nx - 1) }

func (g *shearGrid) VertexPosition(v VertexID) types.Point {
	i, j := float64(int(v)%g.nx), float64(int(v)/g.nx)
	return types.Point{i + g.shear*j, j, 0}
}

func (g *shearGrid) CellVertex(c CellID, i int) VertexID {
	ci, cj := g.cellIndex(c)
	return VertexID(ci + i&1 + g.nx*(cj+(i>>1)&1))
}

func (g *shearGrid) CellNeighbour(c CellID, face int) CellID {
	ci, cj := g.cellIndex(c)
	idx := [2]int{ci, cj}
	axis, side := face>>1, face&1
	idx[axis] += 2*side - 1
	if idx[0] < 0 || idx[0] >= g.nx-1 || idx[1] < 0 || idx[1] >= g.ny-1 {
		return InvalidCell
	}
	return CellID(idx[0] + (g.nx-1)*idx[1])
}

func (g *shearGrid) VertexGradient(v VertexID, e ScalarExtractor) types.Vector {
	var nbrs []VertexID
	i, j := int(v)%g.nx, int(v)/g.nx
	for _, d := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
		ii, jj := i+d[0], j+d[1]
		if ii >= 0 && ii < g.nx && jj >= 0 && jj < g.ny {
			nbrs = append(nbrs, VertexID(ii+g.nx*jj))
		}
	}
	grad, _ := VertexNeighbourGradient(g, v, nbrs, e, NewLeastSquaresGradient(2))
	return grad
}

func linearField(g *shearGrid) ScalarExtractor {
	return ScalarFunc(func(v VertexID) float64 {
		p := g.VertexPosition(v)
		return 2*p[0] - p[1]
	})
}

func TestTesseractWalk(t *testing.T) {
	var (
		g     = &shearGrid{nx: 5, ny: 4, shear: 0.2}
		index = NewCellIndex(g)
		stats = &Stats{}
		f     = linearField(g)
	)
	tw := NewTesseractWalk(g, index, index.Epsilon())
	tw.SetStats(stats)
	assert.Equal(t, Untraced, tw.State())
	{ // Seeded location lands in cell (2,1) at local (0.25, 0.75)
		p := types.Point{2.25 + 0.2*1.75, 1.75, 0}
		require.True(t, tw.Locate(p, false))
		assert.Equal(t, Tracing, tw.State())
		assert.Equal(t, CellID(2+4*1), tw.Cell())
		local := tw.LocalCoords()
		assert.InDelta(t, 0.25, local[0], 1e-9)
		assert.InDelta(t, 0.75, local[1], 1e-9)
		assert.InDelta(t, 2*p[0]-p[1], tw.CalcScalar(f), 1e-9)
		grad := tw.CalcGradient(f)
		assert.InDelta(t, 2., grad[0], 1e-9)
		assert.InDelta(t, -1., grad[1], 1e-9)
		ids, w := tw.Weights()
		assert.Len(t, ids, 4)
		assert.InDelta(t, 1., w[0]+w[1]+w[2]+w[3], 1e-12)
		assert.InDelta(t, tw.CalcScalar(f), InterpolateScalar(ids, w, f), 1e-12)
	}
	{ // Repeated location of the same point is idempotent
		p := types.Point{1.6, 2.4, 0}
		require.True(t, tw.Locate(p, true))
		cell, local := tw.Cell(), tw.LocalCoords()
		require.True(t, tw.Locate(p, true))
		assert.Equal(t, cell, tw.Cell())
		assert.Equal(t, local, tw.LocalCoords())
	}
	{ // Tracing walks across cells
		transitions := stats.Transitions.Load()
		require.True(t, tw.Locate(types.Point{0.3, 0.2, 0}, false))
		require.True(t, tw.Locate(types.Point{1.3, 0.4, 0}, true))
		assert.Greater(t, stats.Transitions.Load(), transitions)
		assert.Equal(t, CellID(1), tw.Cell())
		assert.InDelta(t, 2*1.3-0.4, tw.CalcScalar(f), 1e-9)
	}
	{ // Outside the domain
		assert.False(t, tw.Locate(types.Point{-5, -5, 0}, true))
		assert.Equal(t, Failed, tw.State())
		assert.False(t, tw.Locate(types.Point{4.5, 1, 0}, false))
	}
	{ // Every vertex is reproduced exactly
		for v := 0; v < g.NumVertices(); v++ {
			p := g.VertexPosition(VertexID(v))
			require.True(t, tw.Locate(p, false), "vertex %d", v)
			assert.InDelta(t, f.ScalarValue(VertexID(v)), tw.CalcScalar(f), 1e-9)
		}
	}
	assert.Greater(t, stats.Locates.Load(), int64(0))
	assert.Greater(t, stats.Failures.Load(), int64(0))
	assert.Greater(t, stats.NewtonSteps.Load(), int64(0))
}

// quadChain is a row of unit height quads with their own x extents, joined
// through faces 0 and 1 whether or not the shared faces coincide.
type quadChain struct {
	x0, x1 []float64
}

func (g *quadChain) Dimension() int { return 2 }
func (g *quadChain) Topology() *topology.Topology { return topology.Tesseract(2) }
func (g *quadChain) NumVertices() int { return 4 * len(g.x0) }
func (g *quadChain) NumCells() int { return len(g.x0) }
func (g *quadChain) CellVertex(c CellID, i int) VertexID { return VertexID(4*int(c) + i) }

func (g *quadChain) VertexPosition(v VertexID) types.Point {
	c, i := int(v)/4, int(v)%4
	x := g.x0[c]
	if i&1 == 1 {
		x = g.x1[c]
	}
	return types.Point{x, float64(i >> 1), 0}
}

func (g *quadChain) CellNeighbour(c CellID, face int) CellID {
	next := int(c) + 2*face - 1
	if face > 1 || next < 0 || next >= len(g.x0) {
		return InvalidCell
	}
	return CellID(next)
}

func (g *quadChain) VertexGradient(VertexID, ScalarExtractor) types.Vector { return types.Vector{} }

func TestWalkGuards(t *testing.T) {
	stacked := func(n int) *quadChain {
		g := &quadChain{}
		for i := 0; i < n; i++ {
			g.x0, g.x1 = append(g.x0, 0), append(g.x1, 1)
		}
		return g
	}
	tests := []struct {
		name        string
		g           *quadChain
		x           float64
		found       bool
		cell        CellID
		transitions int64
	}{
		{"gap between faces, shrinking overshoot", &quadChain{x0: []float64{0, 1.08}, x1: []float64{1, 2.08}}, 1.05, true, 1, 1},
		{"gap between faces, growing overshoot", &quadChain{x0: []float64{0, 1.2}, x1: []float64{1, 2.2}}, 1.05, true, 0, 2},
		{"transition cap within the fudge", stacked(12), 1 + TransitionFudge/2, true, MaxCellTransitions, MaxCellTransitions},
		{"transition cap past the fudge", stacked(12), 1 + 50*TransitionFudge, false, MaxCellTransitions, MaxCellTransitions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stats := &Stats{}
			tw := NewTesseractWalk(tt.g, NewCellIndex(tt.g), 1e-12)
			tw.SetStats(stats)
			tw.loadCell(0)
			assert.Equal(t, tt.found, tw.walk(types.Point{tt.x, 0.5, 0}))
			assert.Equal(t, tt.cell, tw.Cell())
			assert.Equal(t, tt.transitions, stats.Transitions.Load())
		})
	}
}

func TestTracedReseed(t *testing.T) {
	var (
		g     = &shearGrid{nx: 9, ny: 2}
		index = NewCellIndex(g)
		stats = &Stats{}
	)
	tw := NewTesseractWalk(g, index, index.Epsilon())
	tw.SetStats(stats)
	require.True(t, tw.Locate(types.Point{0.5, 0.5, 0}, false))
	assert.Zero(t, stats.Reseeds.Load())
	// One cell over stays within the overshoot and walks
	require.True(t, tw.Locate(types.Point{1.5, 0.5, 0}, true))
	assert.Equal(t, CellID(1), tw.Cell())
	assert.Zero(t, stats.Reseeds.Load())
	assert.Equal(t, int64(1), stats.Transitions.Load())
	// Six cells over is abandoned for the kd-tree
	require.True(t, tw.Locate(types.Point{7.5, 0.5, 0}, true))
	assert.Equal(t, CellID(7), tw.Cell())
	assert.Equal(t, int64(1), stats.Reseeds.Load())
	assert.Equal(t, int64(1), stats.Transitions.Load())
	assert.Zero(t, stats.Failures.Load())
}

func TestCellTree(t *testing.T) {
	centers := []types.Point{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {0, 1, 0}, {1, 1, 0}}
	tree := NewCellTree(2, centers)
	c, d2 := tree.Nearest(types.Point{1.1, 0.9, 7})
	assert.Equal(t, CellID(4), c)
	assert.InDelta(t, 0.02, d2, 1e-12)
	cells := tree.NearestN(types.Point{0.9, 0.1, 0}, 3, 10, nil)
	assert.Equal(t, []CellID{1, 0, 4}, cells)
	// Radius bounded
	cells = tree.NearestN(types.Point{0.9, 0.1, 0}, 3, 0.05, cells)
	assert.Equal(t, []CellID{1}, cells)

	empty := NewCellTree(3, nil)
	c, d2 = empty.Nearest(types.Point{})
	assert.Equal(t, InvalidCell, c)
	assert.True(t, math.IsInf(d2, 1))
	assert.Empty(t, empty.NearestN(types.Point{}, 2, 1, nil))
}

func TestCellIndex(t *testing.T) {
	g := &shearGrid{nx: 3, ny: 3}
	index := NewCellIndex(g)
	// Unit squares have radius sqrt(2)/2
	assert.InDelta(t, 0.5, index.MaxRadius2, 1e-12)
	assert.InDelta(t, math.Sqrt(0.5), index.AverageRadius, 1e-12)
	assert.InDelta(t, 1., index.AverageCellSize(2), 1e-12)
	c, _ := index.Tree.Nearest(types.Point{1.6, 1.7, 0})
	assert.Equal(t, CellID(3), c)
}

func TestCellHandles(t *testing.T) {
	g := &shearGrid{nx: 3, ny: 3}
	for v := 0; v < g.NumVertices(); v++ {
		vert, err := GetVertex(g, VertexID(v))
		require.NoError(t, err)
		again, err := GetVertex(g, vert.ID)
		require.NoError(t, err)
		assert.Equal(t, vert, again)
	}
	for c := 0; c < g.NumCells(); c++ {
		cell, err := GetCell(g, CellID(c))
		require.NoError(t, err)
		again, err := GetCell(g, cell.ID)
		require.NoError(t, err)
		assert.Equal(t, cell, again)
		// Adjacency is symmetric
		for f := 0; f < cell.NumFaces(); f++ {
			n, ok := cell.Neighbour(f)
			if !ok {
				continue
			}
			found := false
			for f2 := 0; f2 < n.NumFaces(); f2++ {
				found = found || n.NeighbourID(f2) == cell.ID
			}
			assert.True(t, found)
		}
	}
	cell, _ := GetCell(g, 3)
	assert.Equal(t, types.Point{1.5, 1.5, 0}, cell.Center())
	f := linearField(g)
	min, max := cell.ValueRange(f)
	assert.Equal(t, 0., min)
	assert.Equal(t, 3., max)
	_, err := GetVertex(g, 9)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = GetCell(g, -1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	v0, v1 := NewEdgeID(7, 3).Vertices()
	assert.Equal(t, VertexID(3), v0)
	assert.Equal(t, VertexID(7), v1)
	assert.Equal(t, NewEdgeID(3, 7), NewEdgeID(7, 3))
}

func TestValueStores(t *testing.T) {
	{ // Compound values
		type flow struct {
			Rho float64
			U   types.Vector
		}
		var vs ValueStore[flow]
		vs.Resize(3)
		require.NoError(t, vs.SetValue(1, flow{Rho: 2, U: types.Vector{1, 2, 3}}))
		assert.True(t, errors.Is(vs.SetValue(3, flow{}), ErrOutOfRange))
		rho := vs.ScalarExtractor(func(f flow) float64 { return f.Rho })
		u := vs.VectorExtractor(func(f flow) types.Vector { return f.U })
		assert.Equal(t, 2., rho.ScalarValue(1))
		assert.Equal(t, types.Vector{1, 2, 3}, u.VectorValue(1))
		// Extractors see later updates
		vs.Resize(5)
		require.NoError(t, vs.SetValue(4, flow{Rho: 7}))
		assert.Equal(t, 7., rho.ScalarValue(4))
		assert.Equal(t, 2., rho.ScalarValue(1))
	}
	{ // Slices
		ss := NewSliceStore(4)
		p, err := ss.AddSlice("p", []float64{1, 2, 3, 4})
		require.NoError(t, err)
		u, err := ss.AddSlice("u", nil)
		require.NoError(t, err)
		_, err = ss.AddSlice("bad", []float64{1})
		assert.Error(t, err)
		assert.Equal(t, 2, ss.NumSlices())
		assert.Equal(t, "u", ss.SliceName(u))
		assert.Equal(t, u, ss.SliceIndex("u"))
		assert.Equal(t, -1, ss.SliceIndex("w"))
		require.NoError(t, ss.SetValue(u, 2, -1))
		assert.True(t, errors.Is(ss.SetValue(5, 0, 1), ErrOutOfRange))
		assert.True(t, errors.Is(ss.SetValue(p, 4, 1), ErrOutOfRange))
		val, err := ss.Value(u, 2)
		require.NoError(t, err)
		assert.Equal(t, -1., val)
		_, err = ss.Value(p, -1)
		assert.True(t, errors.Is(err, ErrOutOfRange))

		se, err := ss.ScalarExtractor(p)
		require.NoError(t, err)
		ve, err := ss.VectorExtractor(p, u)
		require.NoError(t, err)
		assert.Equal(t, 3., se.ScalarValue(2))
		assert.Equal(t, types.Vector{3, -1, 0}, ve.VectorValue(2))
		_, err = ss.ScalarExtractor(2)
		assert.True(t, errors.Is(err, ErrOutOfRange))
		_, err = ss.VectorExtractor()
		assert.Error(t, err)

		// Growth keeps values and covers the new vertices
		ss.Resize(9)
		require.NoError(t, ss.SetValue(p, 8, 42))
		assert.Equal(t, 42., se.ScalarValue(8))
		assert.Equal(t, 4., se.ScalarValue(3))
		assert.Len(t, ss.Slice(p), 9)
		assert.GreaterOrEqual(t, cap(ss.Slice(p)), 11)
	}
}

func TestLeastSquaresGradient(t *testing.T) {
	lsg := NewLeastSquaresGradient(3)
	_, ok := lsg.Solve()
	assert.False(t, ok)
	grad := types.Vector{2, 3, -1}
	for _, d := range []types.Vector{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {-1, 1, 0.5}} {
		lsg.AddSample(d, grad.Dot(d))
	}
	assert.Equal(t, 4, lsg.NumSamples())
	fit, ok := lsg.Solve()
	require.True(t, ok)
	for k := range grad {
		assert.InDelta(t, grad[k], fit[k], 1e-10)
	}
	// Coplanar samples leave the normal component undetermined
	lsg.Reset()
	for _, d := range []types.Vector{{1, 0, 0}, {0, 1, 0}, {1, 1, 0}} {
		lsg.AddSample(d, grad.Dot(d))
	}
	_, ok = lsg.Solve()
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	var nilStats *Stats
	nilStats.countLocate(true)
	nilStats.CountGradient()
	assert.Equal(t, "no stats", nilStats.String())

	s := &Stats{}
	lb := NewLocatorBase()
	lb.SetStats(s)
	assert.True(t, lb.Finish(true))
	assert.Equal(t, Tracing, lb.State())
	assert.False(t, lb.Finish(false))
	assert.Equal(t, Failed, lb.State())
	lb.CountReseed()
	lb.Reset()
	assert.Equal(t, Untraced, lb.State())
	assert.Equal(t, InvalidCell, lb.Cell())
	assert.Equal(t, int64(2), s.Locates.Load())
	assert.Equal(t, int64(1), s.Failures.Load())
	assert.Equal(t, int64(1), s.Reseeds.Load())
	assert.Contains(t, s.String(), "locates = 2")
}
