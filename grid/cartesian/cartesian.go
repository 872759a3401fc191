package cartesian

import (
	"fmt"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

var (
	_ grid.Grid    = &Cartesian[float64]{}
	_ grid.Grid    = &SlicedCartesian{}
	_ grid.Locator = &Locator{}
)

// Cartesian is a regular grid carrying one compound value V per vertex.
type Cartesian[V any] struct {
	Geometry
	grid.ValueStore[V]
}

// New returns a grid of numVertices vertices spaced cellSize apart. A nil values
// slice is zero filled, otherwise it must hold one value per vertex in
// storage order.
func New[V any](dim int, numVertices types.Index, cellSize types.Vector, values []V) (c *Cartesian[V]) {
	c = &Cartesian[V]{}
	c.SetData(dim, numVertices, cellSize, values)
	return
}

// SetData replaces the lattice and the vertex values. Locators created before
// the call panic on their next use.
func (c *Cartesian[V]) SetData(dim int, numVertices types.Index, cellSize types.Vector, values []V) {
	c.setGeometry(dim, numVertices, cellSize)
	n := c.NumVertices()
	switch {
	case values == nil:
		c.Values = make([]V, n)
	case len(values) != n:
		panic(fmt.Errorf("%d values for %d vertices", len(values), n))
	default:
		c.Values = values
	}
}

// VertexValue returns the value of the vertex at idx.
func (c *Cartesian[V]) VertexValue(idx types.Index) (val V, err error) {
	if !c.vertices.Contains(idx) {
		err = grid.OutOfRange("vertex", c.vertices.Linear(idx), c.NumVertices())
		return
	}
	return c.Values[c.VertexAt(idx)], nil
}

func (c *Cartesian[V]) SetVertexValue(idx types.Index, val V) error {
	if !c.vertices.Contains(idx) {
		return grid.OutOfRange("vertex", c.vertices.Linear(idx), c.NumVertices())
	}
	c.Values[c.VertexAt(idx)] = val
	return nil
}

// SlicedCartesian is a regular grid carrying any number of scalar slices.
type SlicedCartesian struct {
	Geometry
	Slices *grid.SliceStore
}

func NewSliced(dim int, numVertices types.Index, cellSize types.Vector) (sc *SlicedCartesian) {
	sc = &SlicedCartesian{Slices: grid.NewSliceStore(0)}
	sc.SetData(dim, numVertices, cellSize)
	return
}

// SetData replaces the lattice and zeroes every slice. Locators created
// before the call panic on their next use.
func (sc *SlicedCartesian) SetData(dim int, numVertices types.Index, cellSize types.Vector) {
	sc.setGeometry(dim, numVertices, cellSize)
	sc.Slices.Reset(sc.NumVertices())
}

func (sc *SlicedCartesian) AddSlice(name string, values []float64) (int, error) {
	return sc.Slices.AddSlice(name, values)
}

// AddSliceFunc adds a slice sampled from f at every vertex position.
func (sc *SlicedCartesian) AddSliceFunc(name string, f func(p types.Point) float64) (slice int, err error) {
	values := make([]float64, sc.NumVertices())
	for v := range values {
		values[v] = f(sc.VertexPosition(grid.VertexID(v)))
	}
	return sc.Slices.AddSlice(name, values)
}

func (sc *SlicedCartesian) SetVertexValue(slice int, idx types.Index, val float64) error {
	if !sc.vertices.Contains(idx) {
		return grid.OutOfRange("vertex", sc.vertices.Linear(idx), sc.NumVertices())
	}
	return sc.Slices.SetValue(slice, sc.VertexAt(idx), val)
}

func (sc *SlicedCartesian) VertexValue(slice int, idx types.Index) (float64, error) {
	if !sc.vertices.Contains(idx) {
		return 0, grid.OutOfRange("vertex", sc.vertices.Linear(idx), sc.NumVertices())
	}
	return sc.Slices.Value(slice, sc.VertexAt(idx))
}

func (sc *SlicedCartesian) ScalarExtractor(slice int) (grid.ScalarExtractor, error) {
	return sc.Slices.ScalarExtractor(slice)
}

func (sc *SlicedCartesian) VectorExtractor(slices ...int) (grid.VectorExtractor, error) {
	return sc.Slices.VectorExtractor(slices...)
}
