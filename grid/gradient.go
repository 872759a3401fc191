package grid

import (
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

// LeastSquaresGradient fits grad . (x_i - x_0) = f_i - f_0 over the samples
// added since the last Reset.
type LeastSquaresGradient struct {
	dim int
	ne  *utils.NormalEquations
	row [types.MaxDim]float64
}

func NewLeastSquaresGradient(dim int) *LeastSquaresGradient {
	return &LeastSquaresGradient{dim: dim, ne: utils.NewNormalEquations(dim)}
}

func (lsg *LeastSquaresGradient) Reset() { lsg.ne.Reset() }

func (lsg *LeastSquaresGradient) NumSamples() int { return lsg.ne.Rows }

func (lsg *LeastSquaresGradient) AddSample(dx types.Vector, df float64) {
	copy(lsg.row[:lsg.dim], dx[:lsg.dim])
	lsg.ne.AddRow(lsg.row[:lsg.dim], df)
}

// Solve returns false when the samples do not span the grid dimension.
func (lsg *LeastSquaresGradient) Solve() (grad types.Vector, ok bool) {
	x, ok := lsg.ne.Solve()
	if !ok {
		return
	}
	copy(grad[:lsg.dim], x)
	return
}

// VertexNeighbourGradient fits the gradient at v from the values at the given
// neighbouring vertices.
func VertexNeighbourGradient(g CellSource, v VertexID, neighbours []VertexID, e ScalarExtractor,
	lsg *LeastSquaresGradient) (grad types.Vector, ok bool) {
	lsg.Reset()
	var (
		p0 = g.VertexPosition(v)
		f0 = e.ScalarValue(v)
	)
	for _, n := range neighbours {
		if n == v {
			continue
		}
		lsg.AddSample(g.VertexPosition(n).Sub(p0), e.ScalarValue(n)-f0)
	}
	return lsg.Solve()
}
