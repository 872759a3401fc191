// Package simplical implements unstructured meshes of simplices: triangles in
// 2D and tetrahedra in 3D.
package simplical

import (
	"fmt"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

// MaxGradientRings bounds the breadth-first vertex gathering of
// VertexGradient: the cells around the vertex, then one more ring if those do
// not determine a gradient.
const MaxGradientRings = 2

// Mesh is the value independent part of a Simplical grid.
type Mesh struct {
	dim        int
	topo       *topology.Topology
	positions  []types.Point
	cells      []grid.VertexID // NumVertices per cell
	neighbours []grid.CellID   // NumFaces per cell
	finalized  bool
	domain     types.Box
	index      *grid.CellIndex
	incidence  utils.Incidence // vertex -> cells
	epsilon    float64
}

func (m *Mesh) init(dim int) {
	m.dim = dim
	m.topo = topology.Simplex(dim)
	m.domain = types.NewEmptyBox()
}

func (m *Mesh) addVertex(p types.Point) grid.VertexID {
	if m.finalized {
		panic(grid.ErrFinalized)
	}
	m.positions = append(m.positions, p)
	return grid.VertexID(len(m.positions) - 1)
}

// AddCell appends a simplex of Dimension()+1 distinct vertices. Adjacency is
// computed by FinalizeGrid.
func (m *Mesh) AddCell(verts ...grid.VertexID) (c grid.CellID, err error) {
	if m.finalized {
		panic(grid.ErrFinalized)
	}
	if len(verts) != m.topo.NumVertices {
		err = fmt.Errorf("%s cell needs %d vertices, have %d", m.topo, m.topo.NumVertices, len(verts))
		return grid.InvalidCell, err
	}
	for i, v := range verts {
		if v < 0 || int(v) >= len(m.positions) {
			return grid.InvalidCell, grid.OutOfRange("vertex", int(v), len(m.positions))
		}
		for _, u := range verts[:i] {
			if u == v {
				return grid.InvalidCell, fmt.Errorf("cell repeats vertex %d", v)
			}
		}
	}
	m.cells = append(m.cells, verts...)
	return grid.CellID(m.NumCells() - 1), nil
}

// FinalizeGrid connects the cells, computes the domain box, the vertex to cell
// incidence and the cell-center kd-tree. It must be called exactly once.
func (m *Mesh) FinalizeGrid() {
	if m.finalized {
		panic(grid.ErrFinalized)
	}
	m.connectCells()
	m.domain = types.NewEmptyBox()
	for _, p := range m.positions {
		m.domain.AddPoint(p)
	}
	nv := m.topo.NumVertices
	m.incidence = utils.NewIncidence(m.NumVertices(), m.NumCells(), func(add func(row, col int)) {
		for i, v := range m.cells {
			add(int(v), i/nv)
		}
	})
	m.index = grid.NewCellIndex(m)
	m.epsilon = m.index.Epsilon()
	m.finalized = true
}

type pendingFace struct {
	cell grid.CellID
	face int
}

// connectCells pairs cells through a hash of their faces keyed by sorted vertex
// indices. The first cell presenting a face leaves a pending entry; the second
// links both cells and removes it. Faces left pending lie on the boundary.
func (m *Mesh) connectCells() {
	var (
		nf      = m.topo.NumFaces
		pending = make(map[types.FaceKey]pendingFace)
		verts   = make([]int, 0, types.MaxFaceVertices)
	)
	m.neighbours = make([]grid.CellID, m.NumCells()*nf)
	for i := range m.neighbours {
		m.neighbours[i] = grid.InvalidCell
	}
	for c := 0; c < m.NumCells(); c++ {
		for f := 0; f < nf; f++ {
			verts = verts[:0]
			for _, i := range m.topo.Faces[f] {
				verts = append(verts, int(m.CellVertex(grid.CellID(c), i)))
			}
			key := types.NewFaceKey(verts)
			if other, found := pending[key]; found {
				m.neighbours[c*nf+f] = other.cell
				m.neighbours[int(other.cell)*nf+other.face] = grid.CellID(c)
				delete(pending, key)
			} else {
				pending[key] = pendingFace{cell: grid.CellID(c), face: f}
			}
		}
	}
}

func (m *Mesh) IsFinalized() bool { return m.finalized }

func (m *Mesh) Dimension() int { return m.dim }

func (m *Mesh) Topology() *topology.Topology { return m.topo }

func (m *Mesh) NumVertices() int { return len(m.positions) }

func (m *Mesh) NumCells() int { return len(m.cells) / m.topo.NumVertices }

func (m *Mesh) VertexPosition(v grid.VertexID) types.Point { return m.positions[v] }

func (m *Mesh) CellVertex(c grid.CellID, i int) grid.VertexID {
	return m.cells[int(c)*m.topo.NumVertices+i]
}

func (m *Mesh) CellNeighbour(c grid.CellID, face int) grid.CellID {
	if !m.finalized {
		panic(grid.ErrNotFinalized)
	}
	return m.neighbours[int(c)*m.topo.NumFaces+face]
}

func (m *Mesh) DomainBox() types.Box { return m.domain }

func (m *Mesh) AverageCellSize() float64 {
	if !m.finalized {
		panic(grid.ErrNotFinalized)
	}
	return m.index.AverageCellSize(m.dim)
}

// VertexCells appends the cells containing v to dst[:0].
func (m *Mesh) VertexCells(v grid.VertexID, dst []grid.CellID) []grid.CellID {
	dst = dst[:0]
	for _, c := range m.incidence.Row(int(v), nil) {
		dst = append(dst, grid.CellID(c))
	}
	return dst
}

func (m *Mesh) LocatorEpsilon() float64 { return m.epsilon }

func (m *Mesh) SetLocatorEpsilon(eps float64) { m.epsilon = eps }

// VertexGradient fits a least squares gradient to the vertices gathered
// breadth first from v: first those of the cells containing v, widened by one
// ring of cells when they leave the system rank deficient.
func (m *Mesh) VertexGradient(v grid.VertexID, e grid.ScalarExtractor) (grad types.Vector) {
	if !m.finalized {
		panic(grid.ErrNotFinalized)
	}
	var (
		lsg          = grid.NewLeastSquaresGradient(m.dim)
		p0, f0       = m.positions[v], e.ScalarValue(v)
		seen         = map[grid.VertexID]struct{}{v: {}}
		visitedCells = make(map[int]struct{})
		ring         = []grid.VertexID{v}
		cells        []int
	)
	for r := 0; r < MaxGradientRings; r++ {
		var next []grid.VertexID
		for _, u := range ring {
			cells = m.incidence.Row(int(u), cells)
			for _, c := range cells {
				if _, done := visitedCells[c]; done {
					continue
				}
				visitedCells[c] = struct{}{}
				for i := 0; i < m.topo.NumVertices; i++ {
					w := m.CellVertex(grid.CellID(c), i)
					if _, done := seen[w]; done {
						continue
					}
					seen[w] = struct{}{}
					lsg.AddSample(m.positions[w].Sub(p0), e.ScalarValue(w)-f0)
					next = append(next, w)
				}
			}
		}
		if g, ok := lsg.Solve(); ok {
			return g
		}
		ring = next
	}
	return
}

// NewLocator returns a barycentric walker over the mesh.
func (m *Mesh) NewLocator() grid.Locator {
	if !m.finalized {
		panic(grid.ErrNotFinalized)
	}
	return newLocator(m)
}
