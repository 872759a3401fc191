// Package hypercubic implements unstructured meshes of quadrilaterals or
// hexahedra with any number of scalar slices per vertex.
package hypercubic

import (
	"fmt"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

var _ grid.Grid = &SlicedHypercubic{}

type pendingFace struct {
	cell grid.CellID
	face int
}

// SlicedHypercubic connects cells as they are added: every face is hashed by
// its sorted vertex IDs and paired with the earlier cell presenting it.
type SlicedHypercubic struct {
	dim        int
	topo       *topology.Topology
	positions  []types.Point
	Slices     *grid.SliceStore
	cells      []grid.VertexID
	neighbours []grid.CellID
	pending    map[types.FaceKey]pendingFace
	finalized  bool
	domain     types.Box
	index      *grid.CellIndex
	incidence  utils.Incidence
	epsilon    float64
}

func New(dim int) *SlicedHypercubic {
	return &SlicedHypercubic{
		dim:     dim,
		topo:    topology.Tesseract(dim),
		Slices:  grid.NewSliceStore(0),
		pending: make(map[types.FaceKey]pendingFace),
		domain:  types.NewEmptyBox(),
	}
}

// AddVertex appends a vertex. Slices grow lazily with over-allocation, so
// vertex by vertex construction stays amortized linear.
func (h *SlicedHypercubic) AddVertex(p types.Point) grid.VertexID {
	if h.finalized {
		panic(grid.ErrFinalized)
	}
	h.positions = append(h.positions, p)
	h.Slices.Resize(len(h.positions))
	return grid.VertexID(len(h.positions) - 1)
}

func (h *SlicedHypercubic) AddSlice(name string, values []float64) (int, error) {
	return h.Slices.AddSlice(name, values)
}

func (h *SlicedHypercubic) SetVertexValue(slice int, v grid.VertexID, val float64) error {
	return h.Slices.SetValue(slice, v, val)
}

func (h *SlicedHypercubic) ScalarExtractor(slice int) (grid.ScalarExtractor, error) {
	return h.Slices.ScalarExtractor(slice)
}

func (h *SlicedHypercubic) VectorExtractor(slices ...int) (grid.VectorExtractor, error) {
	return h.Slices.VectorExtractor(slices...)
}

// AddCell appends a cell whose 2^dim vertices are listed in hypercube order:
// vertex i sits at logical offset bit k of i along axis k.
func (h *SlicedHypercubic) AddCell(verts ...grid.VertexID) (c grid.CellID, err error) {
	if h.finalized {
		panic(grid.ErrFinalized)
	}
	if len(verts) != h.topo.NumVertices {
		err = fmt.Errorf("%s cell needs %d vertices, have %d", h.topo, h.topo.NumVertices, len(verts))
		return grid.InvalidCell, err
	}
	for i, v := range verts {
		if v < 0 || int(v) >= len(h.positions) {
			return grid.InvalidCell, grid.OutOfRange("vertex", int(v), len(h.positions))
		}
		for _, u := range verts[:i] {
			if u == v {
				return grid.InvalidCell, fmt.Errorf("cell repeats vertex %d", v)
			}
		}
	}
	c = grid.CellID(h.NumCells())
	h.cells = append(h.cells, verts...)
	var (
		nf      = h.topo.NumFaces
		faceIDs = make([]int, 0, types.MaxFaceVertices)
	)
	for f := 0; f < nf; f++ {
		h.neighbours = append(h.neighbours, grid.InvalidCell)
		faceIDs = faceIDs[:0]
		for _, i := range h.topo.Faces[f] {
			faceIDs = append(faceIDs, int(verts[i]))
		}
		key := types.NewFaceKey(faceIDs)
		if other, found := h.pending[key]; found {
			h.neighbours[int(c)*nf+f] = other.cell
			h.neighbours[int(other.cell)*nf+other.face] = c
			delete(h.pending, key)
		} else {
			h.pending[key] = pendingFace{cell: c, face: f}
		}
	}
	return c, nil
}

// FinalizeGrid computes the domain box, vertex to cell incidence, the
// cell-center kd-tree and the locator epsilon.
func (h *SlicedHypercubic) FinalizeGrid() {
	if h.finalized {
		panic(grid.ErrFinalized)
	}
	h.pending = nil
	h.domain = types.NewEmptyBox()
	for _, p := range h.positions {
		h.domain.AddPoint(p)
	}
	nv := h.topo.NumVertices
	h.incidence = utils.NewIncidence(len(h.positions), h.NumCells(), func(add func(row, col int)) {
		for i, v := range h.cells {
			add(int(v), i/nv)
		}
	})
	h.index = grid.NewCellIndex(h)
	h.epsilon = h.index.Epsilon()
	h.finalized = true
}

func (h *SlicedHypercubic) IsFinalized() bool { return h.finalized }

func (h *SlicedHypercubic) Dimension() int { return h.dim }

func (h *SlicedHypercubic) Topology() *topology.Topology { return h.topo }

func (h *SlicedHypercubic) NumVertices() int { return len(h.positions) }

func (h *SlicedHypercubic) NumCells() int { return len(h.cells) / h.topo.NumVertices }

func (h *SlicedHypercubic) VertexPosition(v grid.VertexID) types.Point { return h.positions[v] }

func (h *SlicedHypercubic) CellVertex(c grid.CellID, i int) grid.VertexID {
	return h.cells[int(c)*h.topo.NumVertices+i]
}

// CellNeighbour is valid during construction too, for the cells added so far.
func (h *SlicedHypercubic) CellNeighbour(c grid.CellID, face int) grid.CellID {
	return h.neighbours[int(c)*h.topo.NumFaces+face]
}

func (h *SlicedHypercubic) DomainBox() types.Box { return h.domain }

func (h *SlicedHypercubic) AverageCellSize() float64 {
	if !h.finalized {
		panic(grid.ErrNotFinalized)
	}
	return h.index.AverageCellSize(h.dim)
}

func (h *SlicedHypercubic) LocatorEpsilon() float64 { return h.epsilon }

func (h *SlicedHypercubic) SetLocatorEpsilon(eps float64) { h.epsilon = eps }

// VertexGradient fits a least squares gradient to the vertices sharing a cell
// edge with v.
func (h *SlicedHypercubic) VertexGradient(v grid.VertexID, e grid.ScalarExtractor) types.Vector {
	if !h.finalized {
		panic(grid.ErrNotFinalized)
	}
	var (
		seen = map[grid.VertexID]struct{}{v: {}}
		nbrs []grid.VertexID
	)
	for _, c := range h.incidence.Row(int(v), nil) {
		base := c * h.topo.NumVertices
		for _, edge := range h.topo.Edges {
			var other grid.VertexID
			switch v {
			case h.cells[base+edge[0]]:
				other = h.cells[base+edge[1]]
			case h.cells[base+edge[1]]:
				other = h.cells[base+edge[0]]
			default:
				continue
			}
			if _, done := seen[other]; !done {
				seen[other] = struct{}{}
				nbrs = append(nbrs, other)
			}
		}
	}
	grad, _ := grid.VertexNeighbourGradient(h, v, nbrs, e, grid.NewLeastSquaresGradient(h.dim))
	return grad
}

// NewLocator returns the Newton-Raphson cell walker shared with the
// curvilinear grids.
func (h *SlicedHypercubic) NewLocator() grid.Locator {
	if !h.finalized {
		panic(grid.ErrNotFinalized)
	}
	return grid.NewTesseractWalk(h, h.index, h.epsilon)
}
