package grid

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

var (
	_ kdtree.Interface  = cellCenters{}
	_ kdtree.Comparable = cellCenter{}
)

// CellSource is the part of a grid needed to index its cells.
type CellSource interface {
	Dimension() int
	Topology() *topology.Topology
	NumCells() int
	CellVertex(c CellID, i int) VertexID
	VertexPosition(v VertexID) types.Point
}

// CellIndex is the cell-center kd-tree used to seed point location, plus the
// cell size statistics gathered while building it.
type CellIndex struct {
	Tree          *CellTree
	MaxRadius2    float64 // Largest squared center-to-vertex distance of any cell
	AverageRadius float64
}

// NewCellIndex computes every cell's center and bounding radius in parallel and
// builds the kd-tree over the centers.
func NewCellIndex(g CellSource) (ci *CellIndex) {
	var (
		nc      = g.NumCells()
		nv      = g.Topology().NumVertices
		centers = make([]types.Point, nc)
		radii2  = make([]float64, nc)
	)
	utils.ParallelFor(nc, func(kMin, kMax int) {
		pts := make([]types.Point, nv)
		for c := kMin; c < kMax; c++ {
			for i := range pts {
				pts[i] = g.VertexPosition(g.CellVertex(CellID(c), i))
			}
			centers[c] = types.Centroid(pts)
			for _, p := range pts {
				radii2[c] = math.Max(radii2[c], centers[c].Dist2(p))
			}
		}
	})
	ci = &CellIndex{Tree: NewCellTree(g.Dimension(), centers)}
	for _, r2 := range radii2 {
		ci.MaxRadius2 = math.Max(ci.MaxRadius2, r2)
		ci.AverageRadius += math.Sqrt(r2)
	}
	if nc > 0 {
		ci.AverageRadius /= float64(nc)
	}
	return
}

// AverageCellSize converts the average cell radius into an edge length: a unit
// hypercube in dim dimensions has radius sqrt(dim)/2.
func (ci *CellIndex) AverageCellSize(dim int) float64 {
	return 2 * ci.AverageRadius / math.Sqrt(float64(dim))
}

// Epsilon returns the default locator position tolerance.
func (ci *CellIndex) Epsilon() float64 {
	return EpsilonFactor * ci.AverageRadius
}

// CellTree is a kd-tree over cell centers, keyed by cell ID.
type CellTree struct {
	tree *kdtree.Tree
	dim  int
}

// NewCellTree builds the tree; centers[i] is the center of cell i.
func NewCellTree(dim int, centers []types.Point) *CellTree {
	list := make(cellCenters, len(centers))
	for i, c := range centers {
		list[i] = cellCenter{pos: c, dim: dim, cell: CellID(i)}
	}
	t := &CellTree{dim: dim}
	if len(list) > 0 {
		t.tree = kdtree.New(list, false)
	}
	return t
}

// Nearest returns the cell whose center is closest to p and the squared
// distance to it, or InvalidCell for an empty tree.
func (t *CellTree) Nearest(p types.Point) (CellID, float64) {
	if t.tree == nil {
		return InvalidCell, math.Inf(1)
	}
	c, d2 := t.tree.Nearest(cellCenter{pos: t.clip(p), dim: t.dim})
	if c == nil {
		return InvalidCell, math.Inf(1)
	}
	return c.(cellCenter).cell, d2
}

// NearestN appends up to n cells to dst[:0] in order of increasing center
// distance from p, skipping any farther than maxDist2.
func (t *CellTree) NearestN(p types.Point, n int, maxDist2 float64, dst []CellID) []CellID {
	dst = dst[:0]
	if t.tree == nil || n <= 0 {
		return dst
	}
	keep := kdtree.NewNKeeper(n)
	t.tree.NearestSet(keep, cellCenter{pos: t.clip(p), dim: t.dim})
	found := make([]kdtree.ComparableDist, 0, n)
	for _, cd := range keep.Heap {
		if cd.Comparable != nil && cd.Dist <= maxDist2 {
			found = append(found, cd)
		}
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].Dist != found[j].Dist {
			return found[i].Dist < found[j].Dist
		}
		return found[i].Comparable.(cellCenter).cell < found[j].Comparable.(cellCenter).cell
	})
	for _, cd := range found {
		dst = append(dst, cd.Comparable.(cellCenter).cell)
	}
	return dst
}

// clip zeroes the components beyond the tree's dimension.
func (t *CellTree) clip(p types.Point) types.Point {
	for k := t.dim; k < types.MaxDim; k++ {
		p[k] = 0
	}
	return p
}

type cellCenter struct {
	pos  types.Point
	dim  int
	cell CellID
}

// Compare returns the signed distance of a from the plane through b
// perpendicular to axis d.
func (a cellCenter) Compare(b kdtree.Comparable, d kdtree.Dim) float64 {
	return a.pos[d] - b.(cellCenter).pos[d]
}

func (a cellCenter) Dims() int { return a.dim }

// Distance returns the squared Euclidean distance between the centers.
func (a cellCenter) Distance(b kdtree.Comparable) float64 {
	return a.pos.Dist2(b.(cellCenter).pos)
}

type cellCenters []cellCenter

func (cc cellCenters) Index(i int) kdtree.Comparable { return cc[i] }

func (cc cellCenters) Len() int { return len(cc) }

func (cc cellCenters) Pivot(d kdtree.Dim) int {
	p := centerPlane{dim: int(d), centers: cc}
	return kdtree.Partition(p, kdtree.MedianOfMedians(p))
}

func (cc cellCenters) Slice(start, end int) kdtree.Interface { return cc[start:end] }

type centerPlane struct {
	dim     int
	centers cellCenters
}

func (p centerPlane) Less(i, j int) bool {
	return p.centers[i].pos[p.dim] < p.centers[j].pos[p.dim]
}

func (p centerPlane) Swap(i, j int) {
	p.centers[i], p.centers[j] = p.centers[j], p.centers[i]
}

func (p centerPlane) Len() int { return len(p.centers) }

func (p centerPlane) Slice(start, end int) kdtree.SortSlicer {
	p.centers = p.centers[start:end]
	return p
}
