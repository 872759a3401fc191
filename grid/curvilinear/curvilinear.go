package curvilinear

import (
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

var (
	_ grid.Grid = &MultiCurvilinear[float64]{}
	_ grid.Grid = &SlicedMultiCurvilinear{}
)

// MultiCurvilinear carries one compound value V per vertex.
type MultiCurvilinear[V any] struct {
	Geometry
	grid.ValueStore[V]
}

func New[V any](dim int) (mc *MultiCurvilinear[V]) {
	mc = &MultiCurvilinear[V]{}
	mc.init(dim)
	return
}

// AddGrid appends a block of numVertices vertices and returns its index.
func (mc *MultiCurvilinear[V]) AddGrid(numVertices types.Index) int {
	b := mc.addBlock(numVertices)
	mc.Resize(mc.NumVertices())
	return b
}

// SetVertex places vertex idx of block and sets its value.
func (mc *MultiCurvilinear[V]) SetVertex(block int, idx types.Index, p types.Point, val V) error {
	if err := mc.SetVertexPosition(block, idx, p); err != nil {
		return err
	}
	v, _ := mc.BlockVertex(block, idx)
	mc.Values[v] = val
	return nil
}

// SlicedMultiCurvilinear carries any number of scalar slices.
type SlicedMultiCurvilinear struct {
	Geometry
	Slices *grid.SliceStore
}

func NewSliced(dim int) (sc *SlicedMultiCurvilinear) {
	sc = &SlicedMultiCurvilinear{Slices: grid.NewSliceStore(0)}
	sc.init(dim)
	return
}

// AddGrid appends a block; every slice grows to cover its vertices.
func (sc *SlicedMultiCurvilinear) AddGrid(numVertices types.Index) int {
	b := sc.addBlock(numVertices)
	sc.Slices.Resize(sc.NumVertices())
	return b
}

func (sc *SlicedMultiCurvilinear) AddSlice(name string, values []float64) (int, error) {
	return sc.Slices.AddSlice(name, values)
}

func (sc *SlicedMultiCurvilinear) SetVertexValue(slice, block int, idx types.Index, val float64) error {
	v, err := sc.BlockVertex(block, idx)
	if err != nil {
		return err
	}
	return sc.Slices.SetValue(slice, v, val)
}

func (sc *SlicedMultiCurvilinear) ScalarExtractor(slice int) (grid.ScalarExtractor, error) {
	return sc.Slices.ScalarExtractor(slice)
}

func (sc *SlicedMultiCurvilinear) VectorExtractor(slices ...int) (grid.VectorExtractor, error) {
	return sc.Slices.VectorExtractor(slices...)
}
