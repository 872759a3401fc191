// Package curvilinear implements multi-block structured grids whose vertices
// are placed explicitly. Each block is a logically regular lattice; blocks are
// not connected to each other, a point near a block seam is found through the
// kd-tree seed instead.
package curvilinear

import (
	"fmt"
	"sort"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
)

// Block is one logical lattice of a multi-block grid. Global IDs are the
// block's offsets plus the linear index inside the block.
type Block struct {
	VertexOffset int
	CellOffset   int
	Vertices     types.Array
	Cells        types.Array
	Box          types.Box
}

// Geometry holds the blocks and vertex positions shared by MultiCurvilinear and
// SlicedMultiCurvilinear.
type Geometry struct {
	dim       int
	topo      *topology.Topology
	blocks    []Block
	positions []types.Point
	numCells  int
	finalized bool
	domain    types.Box
	index     *grid.CellIndex
	epsilon   float64
}

func (g *Geometry) init(dim int) {
	g.dim = dim
	g.topo = topology.Tesseract(dim)
	g.domain = types.NewEmptyBox()
}

func (g *Geometry) addBlock(numVertices types.Index) (block int) {
	if g.finalized {
		panic(grid.ErrFinalized)
	}
	for k := 0; k < g.dim; k++ {
		if numVertices[k] < 2 {
			panic(fmt.Errorf("curvilinear block needs two vertices per axis, have %v", numVertices))
		}
	}
	b := Block{
		VertexOffset: len(g.positions),
		CellOffset:   g.numCells,
		Vertices:     types.NewArray(g.dim, numVertices),
		Box:          types.NewEmptyBox(),
	}
	b.Cells = b.Vertices.Shrink()
	g.blocks = append(g.blocks, b)
	g.positions = append(g.positions, make([]types.Point, b.Vertices.Len())...)
	g.numCells += b.Cells.Len()
	return len(g.blocks) - 1
}

func (g *Geometry) checkBlock(block int, idx types.Index) error {
	if block < 0 || block >= len(g.blocks) {
		return grid.OutOfRange("block", block, len(g.blocks))
	}
	if b := &g.blocks[block]; !b.Vertices.Contains(idx) {
		return grid.OutOfRange("block vertex", b.Vertices.Linear(idx), b.Vertices.Len())
	}
	return nil
}

// BlockVertex returns the global ID of vertex idx of block.
func (g *Geometry) BlockVertex(block int, idx types.Index) (v grid.VertexID, err error) {
	if err = g.checkBlock(block, idx); err != nil {
		return grid.InvalidVertex, err
	}
	b := &g.blocks[block]
	return grid.VertexID(b.VertexOffset + b.Vertices.Linear(idx)), nil
}

// SetVertexPosition places vertex idx of block. Positions are frozen by
// FinalizeGrid.
func (g *Geometry) SetVertexPosition(block int, idx types.Index, p types.Point) error {
	if g.finalized {
		panic(grid.ErrFinalized)
	}
	v, err := g.BlockVertex(block, idx)
	if err != nil {
		return err
	}
	g.positions[v] = p
	return nil
}

// FinalizeGrid computes the block and domain boxes, the cell-center kd-tree
// and the default locator epsilon. It must be called once, after all
// positions are set and before any locator is created.
func (g *Geometry) FinalizeGrid() {
	if g.finalized {
		panic(grid.ErrFinalized)
	}
	g.domain = types.NewEmptyBox()
	for i := range g.blocks {
		b := &g.blocks[i]
		b.Box = types.NewEmptyBox()
		for v := 0; v < b.Vertices.Len(); v++ {
			b.Box.AddPoint(g.positions[b.VertexOffset+v])
		}
		g.domain.AddBox(b.Box)
	}
	g.index = grid.NewCellIndex(g)
	g.epsilon = g.index.Epsilon()
	g.finalized = true
}

func (g *Geometry) IsFinalized() bool { return g.finalized }

func (g *Geometry) NumBlocks() int { return len(g.blocks) }

func (g *Geometry) Block(block int) Block { return g.blocks[block] }

func (g *Geometry) Dimension() int { return g.dim }

func (g *Geometry) Topology() *topology.Topology { return g.topo }

func (g *Geometry) NumVertices() int { return len(g.positions) }

func (g *Geometry) NumCells() int { return g.numCells }

func (g *Geometry) VertexPosition(v grid.VertexID) types.Point { return g.positions[v] }

func (g *Geometry) DomainBox() types.Box { return g.domain }

func (g *Geometry) AverageCellSize() float64 {
	if g.index == nil {
		panic(grid.ErrNotFinalized)
	}
	return g.index.AverageCellSize(g.dim)
}

func (g *Geometry) LocatorEpsilon() float64 { return g.epsilon }

// SetLocatorEpsilon overrides the position tolerance of locators created
// afterwards.
func (g *Geometry) SetLocatorEpsilon(eps float64) { g.epsilon = eps }

// vertexBlock returns the block holding vertex v and v's index inside it.
func (g *Geometry) vertexBlock(v grid.VertexID) (b *Block, idx types.Index) {
	i := sort.Search(len(g.blocks), func(i int) bool { return g.blocks[i].VertexOffset > int(v) }) - 1
	b = &g.blocks[i]
	return b, b.Vertices.Unlinear(int(v) - b.VertexOffset)
}

func (g *Geometry) cellBlock(c grid.CellID) (b *Block, idx types.Index) {
	i := sort.Search(len(g.blocks), func(i int) bool { return g.blocks[i].CellOffset > int(c) }) - 1
	b = &g.blocks[i]
	return b, b.Cells.Unlinear(int(c) - b.CellOffset)
}

func (g *Geometry) CellVertex(c grid.CellID, i int) grid.VertexID {
	b, idx := g.cellBlock(c)
	for k := 0; k < g.dim; k++ {
		idx[k] += (i >> k) & 1
	}
	return grid.VertexID(b.VertexOffset + b.Vertices.Linear(idx))
}

// CellNeighbour stays inside the cell's block.
func (g *Geometry) CellNeighbour(c grid.CellID, face int) grid.CellID {
	b, idx := g.cellBlock(c)
	axis, side := g.topo.FaceAxis(face)
	idx = idx.Offset(axis, 2*side-1)
	if !b.Cells.Contains(idx) {
		return grid.InvalidCell
	}
	return grid.CellID(b.CellOffset + b.Cells.Linear(idx))
}

// VertexGradient fits a least squares gradient to the vertex's logical
// neighbours along every block axis.
func (g *Geometry) VertexGradient(v grid.VertexID, e grid.ScalarExtractor) types.Vector {
	var (
		b, idx = g.vertexBlock(v)
		nbrs   = make([]grid.VertexID, 0, 2*types.MaxDim)
	)
	for k := 0; k < g.dim; k++ {
		for _, d := range [2]int{-1, 1} {
			if n := idx.Offset(k, d); b.Vertices.Contains(n) {
				nbrs = append(nbrs, grid.VertexID(b.VertexOffset+b.Vertices.Linear(n)))
			}
		}
	}
	grad, _ := grid.VertexNeighbourGradient(g, v, nbrs, e, grid.NewLeastSquaresGradient(g.dim))
	return grad
}

// NewLocator returns a Newton-Raphson cell walker over the grid.
func (g *Geometry) NewLocator() grid.Locator {
	if !g.finalized {
		panic(grid.ErrNotFinalized)
	}
	return grid.NewTesseractWalk(g, g.index, g.epsilon)
}
