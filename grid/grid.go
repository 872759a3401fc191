// Package grid defines the Vertex/Cell/Locator protocol shared by every grid
// representation, the value stores and extractors bound to grid vertices, and
// the location machinery (cell-center kd-tree, hypercube Newton-Raphson walk,
// least squares gradients) reused by the concrete grid packages.
package grid

import (
	"fmt"

	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
)

// VertexID and CellID are dense handles, valid for the lifetime of the grid
// that issued them.
type VertexID int

type CellID int

const (
	InvalidVertex VertexID = -1
	InvalidCell   CellID   = -1
)

// EdgeID names the grid edge between two vertices independent of direction.
type EdgeID types.EdgeKey

func NewEdgeID(v0, v1 VertexID) EdgeID {
	return EdgeID(types.NewEdgeKey([2]int{int(v0), int(v1)}))
}

func (e EdgeID) Vertices() (v0, v1 VertexID) {
	verts := types.EdgeKey(e).GetVertices()
	return VertexID(verts[0]), VertexID(verts[1])
}

// Grid is implemented by every finalized grid representation. Cell IDs run
// from 0 to NumCells()-1 and vertex IDs from 0 to NumVertices()-1. Cell
// vertices are listed in the order of the grid's Topology.
type Grid interface {
	Dimension() int
	Topology() *topology.Topology
	NumVertices() int
	NumCells() int
	VertexPosition(v VertexID) types.Point
	CellVertex(c CellID, i int) VertexID
	// CellNeighbour returns the cell across face, or InvalidCell on the domain boundary
	CellNeighbour(c CellID, face int) CellID
	DomainBox() types.Box
	AverageCellSize() float64
	NewLocator() Locator
	VertexGradient(v VertexID, e ScalarExtractor) types.Vector
}

// Vertex is a value snapshot of one grid vertex.
type Vertex struct {
	ID       VertexID
	Position types.Point
}

// GetVertex returns the vertex with the given ID.
func GetVertex(g Grid, id VertexID) (v Vertex, err error) {
	if id < 0 || int(id) >= g.NumVertices() {
		err = outOfRange("vertex", int(id), g.NumVertices())
		return
	}
	return Vertex{ID: id, Position: g.VertexPosition(id)}, nil
}

// Cell is a handle on one cell of a grid.
type Cell struct {
	Grid Grid
	ID   CellID
}

// GetCell returns the cell with the given ID.
func GetCell(g Grid, id CellID) (c Cell, err error) {
	if id < 0 || int(id) >= g.NumCells() {
		err = outOfRange("cell", int(id), g.NumCells())
		return
	}
	return Cell{Grid: g, ID: id}, nil
}

func (c Cell) IsValid() bool { return c.Grid != nil && c.ID != InvalidCell }

func (c Cell) NumVertices() int { return c.Grid.Topology().NumVertices }

func (c Cell) NumFaces() int { return c.Grid.Topology().NumFaces }

func (c Cell) VertexID(i int) VertexID { return c.Grid.CellVertex(c.ID, i) }

func (c Cell) Vertex(i int) Vertex {
	id := c.Grid.CellVertex(c.ID, i)
	return Vertex{ID: id, Position: c.Grid.VertexPosition(id)}
}

func (c Cell) NeighbourID(face int) CellID { return c.Grid.CellNeighbour(c.ID, face) }

// Neighbour returns the cell across face and false on the domain boundary.
func (c Cell) Neighbour(face int) (Cell, bool) {
	n := c.Grid.CellNeighbour(c.ID, face)
	return Cell{Grid: c.Grid, ID: n}, n != InvalidCell
}

// Positions appends the positions of the cell's vertices to dst[:0].
func (c Cell) Positions(dst []types.Point) []types.Point {
	dst = dst[:0]
	n := c.NumVertices()
	for i := 0; i < n; i++ {
		dst = append(dst, c.Grid.VertexPosition(c.Grid.CellVertex(c.ID, i)))
	}
	return dst
}

// Center returns the equally weighted centroid of the cell's vertices.
func (c Cell) Center() types.Point {
	var buf [1 << types.MaxDim]types.Point
	return types.Centroid(c.Positions(buf[:0]))
}

// ValueRange returns the extent of the scalar over the cell's vertices.
func (c Cell) ValueRange(e ScalarExtractor) (min, max float64) {
	n := c.NumVertices()
	for i := 0; i < n; i++ {
		val := e.ScalarValue(c.Grid.CellVertex(c.ID, i))
		if i == 0 || val < min {
			min = val
		}
		if i == 0 || val > max {
			max = val
		}
	}
	return
}

func (c Cell) String() string {
	return fmt.Sprintf("Cell[%d]", c.ID)
}
