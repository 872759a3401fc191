package grid

import (
	"math"

	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

// HypercubeGrid is a grid of hypercube cells with face adjacency, as walked by
// TesseractWalk.
type HypercubeGrid interface {
	CellSource
	CellNeighbour(c CellID, face int) CellID
	VertexGradient(v VertexID, e ScalarExtractor) types.Vector
}

// TesseractWalk locates points in grids of deformed hypercube cells. Inside a
// cell it solves position(local) = p by Newton-Raphson on the multilinear map;
// when the solution leaves the cell it steps across the most violated face and
// starts over, with a guard against thrashing between two cells.
type TesseractWalk struct {
	LocatorBase
	grid     HypercubeGrid
	index    *CellIndex
	epsilon2 float64
	dim, nv  int
	ids      [1 << types.MaxDim]VertexID
	corners  [1 << types.MaxDim]types.Point
	w        [1 << types.MaxDim]float64
	dw       [types.MaxDim][]float64
	sys      *utils.LinearSystem
	seeds    []CellID
}

func NewTesseractWalk(g HypercubeGrid, index *CellIndex, epsilon float64) (tw *TesseractWalk) {
	dim := g.Dimension()
	tw = &TesseractWalk{
		LocatorBase: NewLocatorBase(),
		grid:        g,
		index:       index,
		epsilon2:    epsilon * epsilon,
		dim:         dim,
		nv:          1 << dim,
		sys:         utils.NewLinearSystem(dim),
	}
	return
}

func (tw *TesseractWalk) Epsilon() float64 { return math.Sqrt(tw.epsilon2) }

func (tw *TesseractWalk) Locate(p types.Point, traceHint bool) bool {
	if traceHint && tw.state == Tracing {
		if tw.walk(p) {
			return tw.Finish(true)
		}
		tw.CountReseed()
	}
	return tw.Finish(tw.seed(p))
}

func (tw *TesseractWalk) seed(p types.Point) bool {
	tw.seeds = tw.index.Tree.NearestN(p, MaxSeedCandidates, tw.index.MaxRadius2, tw.seeds)
	for i, c := range tw.seeds {
		if i > 0 {
			tw.CountReseed()
		}
		tw.loadCell(c)
		if tw.walk(p) {
			return true
		}
	}
	return false
}

func (tw *TesseractWalk) loadCell(c CellID) {
	tw.cell = c
	for i := 0; i < tw.nv; i++ {
		tw.ids[i] = tw.grid.CellVertex(c, i)
		tw.corners[i] = tw.grid.VertexPosition(tw.ids[i])
	}
	tw.local = types.Point{}
	for k := 0; k < tw.dim; k++ {
		tw.local[k] = 0.5
	}
}

// walk runs Newton-Raphson from the current cell and local coordinates. It
// gives up when the solution runs off by more than one cell width or reaches
// the domain boundary; the caller reseeds from the kd-tree, since block
// boundaries and concave boundaries stop a walk even when p is inside the grid.
func (tw *TesseractWalk) walk(p types.Point) bool {
	var (
		prevCell = InvalidCell
		prevMove = math.Inf(1)
	)
	for transitions := 0; ; transitions++ {
		converged := tw.newton(p)
		move, face := tw.violation()
		switch {
		case move <= InsideTolerance:
			return converged
		case move > ReseedOvershoot:
			return false
		}
		next := tw.grid.CellNeighbour(tw.cell, face)
		switch {
		case next == InvalidCell:
			return false
		case next == prevCell && move <= prevMove:
			// Oscillating across a shared face, p lies on it
			return converged
		case transitions == MaxCellTransitions:
			return converged && move <= TransitionFudge
		}
		prevCell, prevMove = tw.cell, move
		tw.CountTransition()
		tw.loadCell(next)
	}
}

// newton iterates in the current cell until the position residual falls
// below epsilon. Iterates may wander outside the cell on the way; walk tests
// only where they end up.
func (tw *TesseractWalk) newton(p types.Point) bool {
	for iter := 0; ; iter++ {
		f := tw.position().Sub(p)
		if f.Norm2() <= tw.epsilon2 {
			return true
		}
		if iter == MaxNewtonIterations {
			return false
		}
		tw.jacobian(false)
		for j := 0; j < tw.dim; j++ {
			tw.sys.B.SetVec(j, f[j])
		}
		if !tw.sys.Solve() {
			return false
		}
		tw.stats.countNewtonStep()
		for k := 0; k < tw.dim; k++ {
			tw.local[k] -= tw.sys.X.AtVec(k)
		}
	}
}

// position evaluates the multilinear map at the current local coordinates.
func (tw *TesseractWalk) position() types.Point {
	w := topology.MultilinearWeights(tw.dim, tw.local, tw.w[:])
	return types.AffineCombination(tw.corners[:tw.nv], w)
}

// jacobian loads d position[j] / d local[k] into the system matrix, or its
// transpose.
func (tw *TesseractWalk) jacobian(transpose bool) {
	topology.MultilinearDerivatives(tw.dim, tw.local, &tw.dw)
	for j := 0; j < tw.dim; j++ {
		for k := 0; k < tw.dim; k++ {
			var d float64
			for i := 0; i < tw.nv; i++ {
				d += tw.dw[k][i] * tw.corners[i][j]
			}
			if transpose {
				tw.sys.A.Set(k, j, d)
			} else {
				tw.sys.A.Set(j, k, d)
			}
		}
	}
}

// violation returns how far the local coordinates lie outside [0,1] and the
// face they cross.
func (tw *TesseractWalk) violation() (move float64, face int) {
	move, face = math.Inf(-1), -1
	for k := 0; k < tw.dim; k++ {
		if v := -tw.local[k]; v > move {
			move, face = v, 2*k
		}
		if v := tw.local[k] - 1; v > move {
			move, face = v, 2*k+1
		}
	}
	return
}

func (tw *TesseractWalk) Weights() ([]VertexID, []float64) {
	return tw.ids[:tw.nv], topology.MultilinearWeights(tw.dim, tw.local, tw.w[:])
}

func (tw *TesseractWalk) CalcScalar(e ScalarExtractor) float64 {
	var values [1 << types.MaxDim]float64
	for i := 0; i < tw.nv; i++ {
		values[i] = e.ScalarValue(tw.ids[i])
	}
	return topology.Blend(tw.dim, values[:tw.nv], tw.local)
}

func (tw *TesseractWalk) CalcVector(e VectorExtractor) types.Vector {
	var values [1 << types.MaxDim]types.Vector
	for i := 0; i < tw.nv; i++ {
		values[i] = e.VectorValue(tw.ids[i])
	}
	return topology.BlendVectors(tw.dim, values[:tw.nv], tw.local)
}

// CalcGradient differentiates the interpolant: with J the Jacobian of the
// cell map, J^T grad = d value / d local. A degenerate cell falls back to
// blending the vertex gradients.
func (tw *TesseractWalk) CalcGradient(e ScalarExtractor) (grad types.Vector) {
	tw.jacobian(true)
	for k := 0; k < tw.dim; k++ {
		var d float64
		for i := 0; i < tw.nv; i++ {
			d += tw.dw[k][i] * e.ScalarValue(tw.ids[i])
		}
		tw.sys.B.SetVec(k, d)
	}
	if !tw.sys.Solve() {
		ids, w := tw.Weights()
		return InterpolateGradient(tw.grid, ids, w, e)
	}
	for j := 0; j < tw.dim; j++ {
		grad[j] = tw.sys.X.AtVec(j)
	}
	return
}
