package types

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxDim is the largest grid dimension supported. Two dimensional data carries
// a zero third component.
const MaxDim = 3

// Point is a position in model space.
type Point [MaxDim]float64

// Vector is a displacement, gradient or field value in model space.
type Vector [MaxDim]float64

func (p Point) Add(v Vector) (r Point) {
	for i := range p {
		r[i] = p[i] + v[i]
	}
	return
}

func (p Point) Sub(q Point) (v Vector) {
	for i := range p {
		v[i] = p[i] - q[i]
	}
	return
}

func (p Point) Dist2(q Point) (d2 float64) {
	for i := range p {
		d := p[i] - q[i]
		d2 += d * d
	}
	return
}

func (p Point) Dist(q Point) float64 { return math.Sqrt(p.Dist2(q)) }

// Lerp returns the affine combination (1-t)*p + t*q.
func (p Point) Lerp(q Point, t float64) (r Point) {
	for i := range p {
		r[i] = p[i] + (q[i]-p[i])*t
	}
	return
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p[0], p[1], p[2])
}

func (v Vector) Add(w Vector) (r Vector) {
	for i := range v {
		r[i] = v[i] + w[i]
	}
	return
}

func (v Vector) Sub(w Vector) (r Vector) {
	for i := range v {
		r[i] = v[i] - w[i]
	}
	return
}

func (v Vector) Scale(a float64) (r Vector) {
	for i := range v {
		r[i] = v[i] * a
	}
	return
}

func (v Vector) Dot(w Vector) (d float64) {
	for i := range v {
		d += v[i] * w[i]
	}
	return
}

func (v Vector) Cross(w Vector) Vector {
	return VectorFromR3(r3.Cross(v.R3(), w.R3()))
}

func (v Vector) Norm2() float64 { return v.Dot(v) }

func (v Vector) Norm() float64 { return math.Sqrt(v.Dot(v)) }

// Normalize returns v scaled to unit length, or v unchanged if it has zero length.
func (v Vector) Normalize() Vector {
	n := v.Norm()
	if n == 0 {
		return v
	}
	return v.Scale(1 / n)
}

func (v Vector) R3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func VectorFromR3(v r3.Vec) Vector { return Vector{v.X, v.Y, v.Z} }

// AffineCombination returns sum(w[i]*pts[i]), the weights are assumed to sum to one.
func AffineCombination(pts []Point, w []float64) (r Point) {
	for i, p := range pts {
		for k := range r {
			r[k] += w[i] * p[k]
		}
	}
	return
}

// Centroid returns the equally weighted affine combination of pts.
func Centroid(pts []Point) (c Point) {
	if len(pts) == 0 {
		return
	}
	for _, p := range pts {
		for k := range c {
			c[k] += p[k]
		}
	}
	inv := 1. / float64(len(pts))
	for k := range c {
		c[k] *= inv
	}
	return
}

// Box is an axis aligned bounding box. The zero value is not empty, use NewEmptyBox.
type Box struct {
	Min, Max Point
}

func NewEmptyBox() Box {
	var b Box
	for i := 0; i < MaxDim; i++ {
		b.Min[i] = math.MaxFloat64
		b.Max[i] = -math.MaxFloat64
	}
	return b
}

func NewBox(min, max Point) Box { return Box{Min: min, Max: max} }

func (b Box) IsEmpty() bool {
	for i := 0; i < MaxDim; i++ {
		if b.Min[i] > b.Max[i] {
			return true
		}
	}
	return false
}

// AddPoint grows the box to contain p.
func (b *Box) AddPoint(p Point) {
	for i := 0; i < MaxDim; i++ {
		if p[i] < b.Min[i] {
			b.Min[i] = p[i]
		}
		if p[i] > b.Max[i] {
			b.Max[i] = p[i]
		}
	}
}

// AddBox grows the box to contain o.
func (b *Box) AddBox(o Box) {
	if o.IsEmpty() {
		return
	}
	b.AddPoint(o.Min)
	b.AddPoint(o.Max)
}

// Contains tests the first dim components of p against the box.
func (b Box) Contains(p Point, dim int) bool {
	for i := 0; i < dim; i++ {
		if p[i] < b.Min[i] || p[i] > b.Max[i] {
			return false
		}
	}
	return true
}

func (b Box) Size() Vector { return b.Max.Sub(b.Min) }

func (b Box) Center() Point { return b.Min.Lerp(b.Max, 0.5) }

func (b Box) String() string {
	return fmt.Sprintf("[%v - %v]", b.Min, b.Max)
}
