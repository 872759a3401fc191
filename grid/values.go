package grid

import (
	"fmt"

	"github.com/notargets/govis/types"
)

// ScalarExtractor reads one scalar per grid vertex.
type ScalarExtractor interface {
	ScalarValue(v VertexID) float64
}

// VectorExtractor reads one vector per grid vertex.
type VectorExtractor interface {
	VectorValue(v VertexID) types.Vector
}

// ScalarFunc adapts an ordinary function to a ScalarExtractor.
type ScalarFunc func(v VertexID) float64

func (f ScalarFunc) ScalarValue(v VertexID) float64 { return f(v) }

// VectorFunc adapts an ordinary function to a VectorExtractor.
type VectorFunc func(v VertexID) types.Vector

func (f VectorFunc) VectorValue(v VertexID) types.Vector { return f(v) }

// ValueStore holds one V per vertex, indexed by VertexID.
type ValueStore[V any] struct {
	Values []V
}

// Resize sets the number of stored values, keeping existing ones.
func (s *ValueStore[V]) Resize(n int) {
	s.Values = types.GrowSlice(s.Values, n)
}

func (s *ValueStore[V]) Len() int { return len(s.Values) }

func (s *ValueStore[V]) SetValue(v VertexID, val V) error {
	if v < 0 || int(v) >= len(s.Values) {
		return outOfRange("vertex", int(v), len(s.Values))
	}
	s.Values[v] = val
	return nil
}

func (s *ValueStore[V]) Value(v VertexID) V { return s.Values[v] }

// ScalarExtractor binds project to the store; later value updates are visible
// through the returned extractor.
func (s *ValueStore[V]) ScalarExtractor(project func(V) float64) ScalarExtractor {
	return ScalarFunc(func(v VertexID) float64 { return project(s.Values[v]) })
}

func (s *ValueStore[V]) VectorExtractor(project func(V) types.Vector) VectorExtractor {
	return VectorFunc(func(v VertexID) types.Vector { return project(s.Values[v]) })
}

// Identity is the projection of a float64 store onto its scalar extractor.
func Identity(v float64) float64 { return v }

// SliceStore holds any number of named scalar slices, each with one value per
// vertex. Vector fields are assembled from up to three slices.
type SliceStore struct {
	numVertices int
	names       []string
	slices      [][]float64
}

func NewSliceStore(numVertices int) *SliceStore {
	return &SliceStore{numVertices: numVertices}
}

func (s *SliceStore) NumVertices() int { return s.numVertices }

func (s *SliceStore) NumSlices() int { return len(s.slices) }

// Resize changes the number of vertices of every slice. Storage grows by a
// factor of 1.25 beyond the requested size to amortize incremental growth.
func (s *SliceStore) Resize(numVertices int) {
	s.numVertices = numVertices
	for i := range s.slices {
		s.slices[i] = types.GrowSlice(s.slices[i], numVertices)
	}
}

// Reset reallocates every slice for numVertices zero values, keeping names.
func (s *SliceStore) Reset(numVertices int) {
	s.numVertices = numVertices
	for i := range s.slices {
		s.slices[i] = make([]float64, numVertices)
	}
}

// AddSlice appends a named slice and returns its index. A nil values slice is
// zero filled, otherwise it must hold one value per vertex.
func (s *SliceStore) AddSlice(name string, values []float64) (index int, err error) {
	switch {
	case values == nil:
		values = make([]float64, s.numVertices)
	case len(values) != s.numVertices:
		err = fmt.Errorf("slice %q has %d values for %d vertices", name, len(values), s.numVertices)
		return
	}
	index = len(s.slices)
	s.names = append(s.names, name)
	s.slices = append(s.slices, values)
	return
}

func (s *SliceStore) SliceName(slice int) string { return s.names[slice] }

// SliceIndex returns the index of the named slice, or -1.
func (s *SliceStore) SliceIndex(name string) int {
	for i, n := range s.names {
		if n == name {
			return i
		}
	}
	return -1
}

// Slice returns the raw values of one slice.
func (s *SliceStore) Slice(slice int) []float64 { return s.slices[slice][:s.numVertices] }

func (s *SliceStore) checkIndex(slice int, v VertexID) error {
	if slice < 0 || slice >= len(s.slices) {
		return outOfRange("slice", slice, len(s.slices))
	}
	if v < 0 || int(v) >= s.numVertices {
		return outOfRange("vertex", int(v), s.numVertices)
	}
	return nil
}

func (s *SliceStore) SetValue(slice int, v VertexID, val float64) (err error) {
	if err = s.checkIndex(slice, v); err != nil {
		return
	}
	s.slices[slice][v] = val
	return
}

func (s *SliceStore) Value(slice int, v VertexID) (val float64, err error) {
	if err = s.checkIndex(slice, v); err != nil {
		return
	}
	return s.slices[slice][v], nil
}

// ScalarExtractor reads slice through the store, so it follows Resize.
func (s *SliceStore) ScalarExtractor(slice int) (ScalarExtractor, error) {
	if slice < 0 || slice >= len(s.slices) {
		return nil, outOfRange("slice", slice, len(s.slices))
	}
	return ScalarFunc(func(v VertexID) float64 { return s.slices[slice][v] }), nil
}

// VectorExtractor assembles vector components from the listed slices; missing
// components are zero.
func (s *SliceStore) VectorExtractor(slices ...int) (VectorExtractor, error) {
	if len(slices) == 0 || len(slices) > types.MaxDim {
		return nil, fmt.Errorf("vector extractor needs 1 to %d slices, have %d", types.MaxDim, len(slices))
	}
	for _, slice := range slices {
		if slice < 0 || slice >= len(s.slices) {
			return nil, outOfRange("slice", slice, len(s.slices))
		}
	}
	comps := append([]int(nil), slices...)
	return VectorFunc(func(v VertexID) (vec types.Vector) {
		for k, slice := range comps {
			vec[k] = s.slices[slice][v]
		}
		return
	}), nil
}
