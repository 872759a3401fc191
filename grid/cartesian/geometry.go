// Package cartesian implements axis aligned regular grids. Vertex positions are
// never stored: vertex index i sits at origin + i*cellSize, which makes point
// location a division.
package cartesian

import (
	"fmt"
	"math"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
)

// Geometry is the lattice shared by Cartesian and SlicedCartesian.
type Geometry struct {
	dim        int
	vertices   types.Array
	cells      types.Array
	cellSize   types.Vector
	origin     types.Point
	topo       *topology.Topology
	generation int
}

func (g *Geometry) setGeometry(dim int, numVertices types.Index, cellSize types.Vector) {
	for k := 0; k < dim; k++ {
		if numVertices[k] < 2 {
			panic(fmt.Errorf("cartesian grid needs two vertices per axis, have %v", numVertices))
		}
		if !(cellSize[k] > 0) {
			panic(fmt.Errorf("cartesian grid cell size %v must be positive", cellSize))
		}
	}
	g.dim = dim
	g.vertices = types.NewArray(dim, numVertices)
	g.cells = g.vertices.Shrink()
	g.cellSize = types.Vector{}
	copy(g.cellSize[:dim], cellSize[:dim])
	g.topo = topology.Tesseract(dim)
	g.generation++
}

// SetOrigin moves the position of vertex (0,0,0).
func (g *Geometry) SetOrigin(origin types.Point) { g.origin = origin }

func (g *Geometry) Origin() types.Point { return g.origin }

func (g *Geometry) CellSize() types.Vector { return g.cellSize }

func (g *Geometry) Dimension() int { return g.dim }

func (g *Geometry) Topology() *topology.Topology { return g.topo }

func (g *Geometry) NumVertices() int { return g.vertices.Len() }

func (g *Geometry) NumCells() int { return g.cells.Len() }

func (g *Geometry) VertexArray() types.Array { return g.vertices }

func (g *Geometry) CellArray() types.Array { return g.cells }

func (g *Geometry) VertexAt(idx types.Index) grid.VertexID {
	return grid.VertexID(g.vertices.Linear(idx))
}

func (g *Geometry) VertexIndex(v grid.VertexID) types.Index {
	return g.vertices.Unlinear(int(v))
}

func (g *Geometry) CellAt(idx types.Index) grid.CellID {
	return grid.CellID(g.cells.Linear(idx))
}

func (g *Geometry) CellIndex(c grid.CellID) types.Index {
	return g.cells.Unlinear(int(c))
}

func (g *Geometry) PositionAt(idx types.Index) (p types.Point) {
	p = g.origin
	for k := 0; k < g.dim; k++ {
		p[k] += float64(idx[k]) * g.cellSize[k]
	}
	return
}

func (g *Geometry) VertexPosition(v grid.VertexID) types.Point {
	return g.PositionAt(g.VertexIndex(v))
}

// cornerIndex returns the vertex index of corner i of the cell at idx.
func (g *Geometry) cornerIndex(idx types.Index, i int) types.Index {
	for k := 0; k < g.dim; k++ {
		idx[k] += (i >> k) & 1
	}
	return idx
}

func (g *Geometry) CellVertex(c grid.CellID, i int) grid.VertexID {
	return g.VertexAt(g.cornerIndex(g.CellIndex(c), i))
}

func (g *Geometry) CellNeighbour(c grid.CellID, face int) grid.CellID {
	axis, side := g.topo.FaceAxis(face)
	idx := g.CellIndex(c).Offset(axis, 2*side-1)
	if !g.cells.Contains(idx) {
		return grid.InvalidCell
	}
	return g.CellAt(idx)
}

func (g *Geometry) DomainBox() types.Box {
	var last types.Index
	for k := 0; k < g.dim; k++ {
		last[k] = g.vertices.Size[k] - 1
	}
	return types.NewBox(g.origin, g.PositionAt(last))
}

// AverageCellSize is the mean edge length over the grid axes.
func (g *Geometry) AverageCellSize() (size float64) {
	for k := 0; k < g.dim; k++ {
		size += g.cellSize[k]
	}
	return size / float64(g.dim)
}

// VertexGradient differences the scalar along each axis: centered two point
// differences inside, one sided three point differences on the boundary, and
// a two point difference on axes with only two vertices.
func (g *Geometry) VertexGradient(v grid.VertexID, e grid.ScalarExtractor) (grad types.Vector) {
	idx := g.VertexIndex(v)
	f := func(axis, delta int) float64 {
		return e.ScalarValue(g.VertexAt(idx.Offset(axis, delta)))
	}
	for k := 0; k < g.dim; k++ {
		var (
			n = g.vertices.Size[k]
			h = g.cellSize[k]
		)
		switch i := idx[k]; {
		case i > 0 && i < n-1:
			grad[k] = (f(k, 1) - f(k, -1)) / (2 * h)
		case n == 2 && i == 0:
			grad[k] = (f(k, 1) - f(k, 0)) / h
		case n == 2:
			grad[k] = (f(k, 0) - f(k, -1)) / h
		case i == 0:
			grad[k] = (-3*f(k, 0) + 4*f(k, 1) - f(k, 2)) / (2 * h)
		default:
			grad[k] = (3*f(k, 0) - 4*f(k, -1) + f(k, -2)) / (2 * h)
		}
	}
	return
}

// Locator finds cells by dividing by the cell size. The trace hint is ignored
// since recomputing is cheaper than tracing. Points outside the domain are
// clamped onto the nearest boundary cell, so interpolation stays defined.
type Locator struct {
	grid.LocatorBase
	geom       *Geometry
	generation int
	ids        [1 << types.MaxDim]grid.VertexID
	w          [1 << types.MaxDim]float64
}

func (g *Geometry) NewLocator() grid.Locator { return g.newLocator() }

func (g *Geometry) newLocator() *Locator {
	if g.topo == nil {
		panic(grid.ErrNotFinalized)
	}
	return &Locator{
		LocatorBase: grid.NewLocatorBase(),
		geom:        g,
		generation:  g.generation,
	}
}

func (l *Locator) checkGeneration() {
	if l.generation != l.geom.generation {
		panic(grid.ErrStaleLocator)
	}
}

func (l *Locator) Locate(p types.Point, _ bool) bool {
	l.checkGeneration()
	var (
		g     = l.geom
		ok    = true
		idx   types.Index
		local types.Point
	)
	for k := 0; k < g.dim; k++ {
		x := (p[k] - g.origin[k]) / g.cellSize[k]
		n := g.cells.Size[k]
		if !(x >= 0 && x <= float64(n)) {
			ok = false
		}
		ci := 0
		if x > 0 {
			ci = int(math.Min(math.Floor(x), float64(n-1)))
		}
		t := x - float64(ci)
		switch {
		case !(t > 0):
			t = 0
		case t > 1:
			t = 1
		}
		idx[k], local[k] = ci, t
	}
	c := g.CellAt(idx)
	for i := 0; i < g.topo.NumVertices; i++ {
		l.ids[i] = g.VertexAt(g.cornerIndex(idx, i))
	}
	l.SetCell(c, local)
	return l.Finish(ok)
}

func (l *Locator) CellIndex() types.Index {
	return l.geom.CellIndex(l.Cell())
}

func (l *Locator) Weights() ([]grid.VertexID, []float64) {
	l.checkGeneration()
	nv := l.geom.topo.NumVertices
	return l.ids[:nv], topology.MultilinearWeights(l.geom.dim, l.LocalCoords(), l.w[:])
}

func (l *Locator) CalcScalar(e grid.ScalarExtractor) float64 {
	l.checkGeneration()
	var (
		values [1 << types.MaxDim]float64
		nv     = l.geom.topo.NumVertices
	)
	for i := 0; i < nv; i++ {
		values[i] = e.ScalarValue(l.ids[i])
	}
	return topology.Blend(l.geom.dim, values[:nv], l.LocalCoords())
}

func (l *Locator) CalcVector(e grid.VectorExtractor) types.Vector {
	l.checkGeneration()
	var (
		values [1 << types.MaxDim]types.Vector
		nv     = l.geom.topo.NumVertices
	)
	for i := 0; i < nv; i++ {
		values[i] = e.VectorValue(l.ids[i])
	}
	return topology.BlendVectors(l.geom.dim, values[:nv], l.LocalCoords())
}

// CalcGradient interpolates the vertex gradients multilinearly.
func (l *Locator) CalcGradient(e grid.ScalarExtractor) types.Vector {
	l.checkGeneration()
	var (
		grads [1 << types.MaxDim]types.Vector
		nv    = l.geom.topo.NumVertices
	)
	for i := 0; i < nv; i++ {
		grads[i] = l.geom.VertexGradient(l.ids[i], e)
		l.Stats().CountGradient()
	}
	return topology.BlendVectors(l.geom.dim, grads[:nv], l.LocalCoords())
}
