package extract

import (
	"fmt"

	"github.com/notargets/govis/types"
)

// Surface is an indexed mesh of triangles (Arity 3) or line segments
// (Arity 2, the contours of two dimensional grids). Normals and Scalars
// carry one entry per vertex.
type Surface struct {
	Arity     int
	Positions []types.Point
	Normals   []types.Vector
	Scalars   []float64
	Indices   []int
}

func NewSurface(arity int) *Surface {
	if arity != 2 && arity != 3 {
		panic(fmt.Errorf("surface primitives have 2 or 3 vertices, not %d", arity))
	}
	return &Surface{Arity: arity}
}

func (s *Surface) NumVertices() int { return len(s.Positions) }

func (s *Surface) NumPrimitives() int { return len(s.Indices) / s.Arity }

// AddVertex appends a vertex and returns its index.
func (s *Surface) AddVertex(p types.Point, n types.Vector, scalar float64) int {
	s.Positions = append(s.Positions, p)
	s.Normals = append(s.Normals, n)
	s.Scalars = append(s.Scalars, scalar)
	return len(s.Positions) - 1
}

// AddPrimitive appends one triangle or segment.
func (s *Surface) AddPrimitive(verts ...int) {
	if len(verts) != s.Arity {
		panic(fmt.Errorf("primitive has %d vertices, surface arity is %d", len(verts), s.Arity))
	}
	s.Indices = append(s.Indices, verts...)
}

// Primitive returns the vertex indices of primitive i.
func (s *Surface) Primitive(i int) []int { return s.Indices[i*s.Arity : (i+1)*s.Arity] }

// PrimitiveNormal returns the area weighted normal of primitive i: the cross
// product of two triangle edges, or the segment direction turned clockwise in
// the xy plane.
func (s *Surface) PrimitiveNormal(i int) types.Vector {
	prim := s.Primitive(i)
	e1 := s.Positions[prim[1]].Sub(s.Positions[prim[0]])
	if s.Arity == 2 {
		return types.Vector{e1[1], -e1[0], 0}
	}
	e2 := s.Positions[prim[2]].Sub(s.Positions[prim[0]])
	return e1.Cross(e2)
}

// ComputeNormals replaces the vertex normals with the normalized sum of the
// normals of the primitives using each vertex.
func (s *Surface) ComputeNormals() {
	s.Normals = types.GrowSlice(s.Normals[:0], len(s.Positions))
	for i := range s.Normals {
		s.Normals[i] = types.Vector{}
	}
	for i := 0; i < s.NumPrimitives(); i++ {
		n := s.PrimitiveNormal(i)
		for _, v := range s.Primitive(i) {
			s.Normals[v] = s.Normals[v].Add(n)
		}
	}
	for i := range s.Normals {
		s.Normals[i] = s.Normals[i].Normalize()
	}
}

// Area returns the total triangle area, or the total segment length.
func (s *Surface) Area() (area float64) {
	for i := 0; i < s.NumPrimitives(); i++ {
		n := s.PrimitiveNormal(i).Norm()
		if s.Arity == 3 {
			n *= 0.5
		}
		area += n
	}
	return
}

// Bounds returns the box around the surface's vertices.
func (s *Surface) Bounds() types.Box {
	b := types.NewEmptyBox()
	for _, p := range s.Positions {
		b.AddPoint(p)
	}
	return b
}

// Polyline is one integrated curve with a scalar sampled at every point.
type Polyline struct {
	Points  []types.Point
	Scalars []float64
}

func (pl *Polyline) Add(p types.Point, scalar float64) {
	pl.Points = append(pl.Points, p)
	pl.Scalars = append(pl.Scalars, scalar)
}

func (pl *Polyline) Len() int { return len(pl.Points) }

// Length returns the arc length of the polyline.
func (pl *Polyline) Length() (l float64) {
	for i := 1; i < len(pl.Points); i++ {
		l += pl.Points[i].Dist(pl.Points[i-1])
	}
	return
}

// Fragment is the output of one extraction.
type Fragment struct {
	Kind      Kind
	Surface   *Surface
	Polylines []*Polyline
}

// Size returns the number of output primitives held by the fragment.
func (f *Fragment) Size() (n int) {
	if f.Surface != nil {
		n += f.Surface.NumPrimitives()
	}
	for _, pl := range f.Polylines {
		n += pl.Len()
	}
	return
}

func (f *Fragment) String() string {
	var nv, np int
	if f.Surface != nil {
		nv, np = f.Surface.NumVertices(), f.Surface.NumPrimitives()
	}
	return fmt.Sprintf("%s: %d vertices, %d primitives, %d polylines", f.Kind, nv, np, len(f.Polylines))
}
