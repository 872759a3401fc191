package simplical

import (
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

// Locator walks from a seed simplex toward the point, each step crossing the
// face opposite the most negative barycentric coordinate.
type Locator struct {
	grid.LocatorBase
	mesh      *Mesh
	tolerance float64 // in barycentric units
	sys       *utils.LinearSystem
	ids       [types.MaxDim + 1]grid.VertexID
	bary      [types.MaxDim + 1]float64
	seeds     []grid.CellID
}

func newLocator(m *Mesh) *Locator {
	l := &Locator{
		LocatorBase: grid.NewLocatorBase(),
		mesh:        m,
		tolerance:   grid.InsideTolerance,
		sys:         utils.NewLinearSystem(m.dim),
	}
	if m.index.AverageRadius > 0 {
		l.tolerance = m.epsilon / m.index.AverageRadius
	}
	return l
}

// Locate traces from the current simplex when asked and able. A failed trace
// is retried once from the kd-tree.
func (l *Locator) Locate(p types.Point, traceHint bool) bool {
	if traceHint && l.State() == grid.Tracing {
		if l.walk(p) {
			return l.Finish(true)
		}
		l.CountReseed()
	}
	l.seeds = l.mesh.index.Tree.NearestN(p, grid.MaxSeedCandidates, l.mesh.index.MaxRadius2, l.seeds)
	for i, c := range l.seeds {
		if i > 0 {
			l.CountReseed()
		}
		l.SetCell(c, l.LocalCoords())
		if l.walk(p) {
			return l.Finish(true)
		}
	}
	return l.Finish(false)
}

// walk stops inside the simplex containing p, or at the boundary simplex
// where the walk leaves the mesh.
func (l *Locator) walk(p types.Point) bool {
	prev := grid.InvalidCell
	for steps := 0; steps <= l.mesh.NumCells(); steps++ {
		if !l.barycentric(p) {
			return false
		}
		var (
			minB = -l.tolerance
			face = -1
		)
		for i := 0; i <= l.mesh.dim; i++ {
			if l.bary[i] < minB {
				minB, face = l.bary[i], i
			}
		}
		if face < 0 {
			return true
		}
		next := l.mesh.CellNeighbour(l.Cell(), face)
		if next == grid.InvalidCell || next == prev {
			return false
		}
		prev = l.Cell()
		l.CountTransition()
		l.SetCell(next, l.LocalCoords())
	}
	return false
}

// barycentric solves sum(b_i (c_i - c_0)) = p - c_0 for the current cell and
// stores b_1..b_d as local coordinates.
func (l *Locator) barycentric(p types.Point) bool {
	var (
		m   = l.mesh
		c   = l.Cell()
		dim = m.dim
	)
	for i := 0; i <= dim; i++ {
		l.ids[i] = m.CellVertex(c, i)
	}
	c0 := m.positions[l.ids[0]]
	for i := 1; i <= dim; i++ {
		edge := m.positions[l.ids[i]].Sub(c0)
		for j := 0; j < dim; j++ {
			l.sys.A.Set(j, i-1, edge[j])
		}
	}
	d := p.Sub(c0)
	for j := 0; j < dim; j++ {
		l.sys.B.SetVec(j, d[j])
	}
	if !l.sys.Solve() {
		return false
	}
	var local types.Point
	l.bary[0] = 1
	for i := 1; i <= dim; i++ {
		l.bary[i] = l.sys.X.AtVec(i - 1)
		l.bary[0] -= l.bary[i]
		local[i-1] = l.bary[i]
	}
	l.SetCell(c, local)
	return true
}

func (l *Locator) Weights() ([]grid.VertexID, []float64) {
	n := l.mesh.dim + 1
	return l.ids[:n], l.bary[:n]
}

func (l *Locator) CalcScalar(e grid.ScalarExtractor) float64 {
	ids, w := l.Weights()
	return grid.InterpolateScalar(ids, w, e)
}

func (l *Locator) CalcVector(e grid.VectorExtractor) types.Vector {
	ids, w := l.Weights()
	return grid.InterpolateVector(ids, w, e)
}

// CalcGradient blends the least squares vertex gradients barycentrically.
func (l *Locator) CalcGradient(e grid.ScalarExtractor) types.Vector {
	ids, w := l.Weights()
	for range ids {
		l.Stats().CountGradient()
	}
	return grid.InterpolateGradient(l.mesh, ids, w, e)
}
