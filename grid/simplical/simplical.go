package simplical

import (
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

var (
	_ grid.Grid    = &Simplical[float64]{}
	_ grid.Locator = &Locator{}
)

// Simplical is a simplex mesh carrying one compound value V per vertex.
type Simplical[V any] struct {
	Mesh
	grid.ValueStore[V]
}

func New[V any](dim int) (s *Simplical[V]) {
	s = &Simplical[V]{}
	s.init(dim)
	return
}

// AddVertex appends a vertex and returns its ID.
func (s *Simplical[V]) AddVertex(p types.Point, val V) grid.VertexID {
	v := s.addVertex(p)
	s.Values = append(s.Values, val)
	return v
}
