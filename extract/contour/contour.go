// Package contour extracts level sets of a vertex scalar by marching
// simplices: every cell is split into simplices (a Kuhn decomposition for
// hypercube cells) and each simplex crossing the level contributes one
// segment in 2D, or one or two triangles in 3D. Vertices on grid edges are
// shared between neighbouring cells, so the result is a welded mesh.
package contour

import (
	"fmt"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

type Options struct {
	Kind extract.Kind
	// Color is interpolated onto the surface vertices, the contoured field
	// when nil.
	Color grid.ScalarExtractor
	// Smooth takes vertex normals from interpolated vertex gradients instead
	// of averaged primitive normals.
	Smooth bool
}

// Contour accumulates the level set field == Isovalue over the cells handed
// to AddCell.
type Contour struct {
	grid      grid.Grid
	field     grid.ScalarExtractor
	isovalue  float64
	opts      Options
	dim       int
	simplices [][]int
	surface   *extract.Surface
	welded    map[grid.EdgeID]int
	gradients map[grid.VertexID]types.Vector
	// scratch for one simplex
	ids    [types.MaxDim + 1]grid.VertexID
	vals   [types.MaxDim + 1]float64
	above  []int
	below  []int
	corner [4]int
}

func New(g grid.Grid, field grid.ScalarExtractor, isovalue float64, opts Options) (c *Contour) {
	dim := g.Dimension()
	if dim != 2 && dim != 3 {
		panic(fmt.Errorf("contours need a 2D or 3D grid, have %dD", dim))
	}
	if opts.Color == nil {
		opts.Color = field
	}
	c = &Contour{
		grid:      g,
		field:     field,
		isovalue:  isovalue,
		opts:      opts,
		dim:       dim,
		simplices: g.Topology().Simplices,
		surface:   extract.NewSurface(dim),
		welded:    make(map[grid.EdgeID]int),
		above:     make([]int, 0, types.MaxDim+1),
		below:     make([]int, 0, types.MaxDim+1),
	}
	if opts.Smooth {
		c.gradients = make(map[grid.VertexID]types.Vector)
	}
	return
}

func (c *Contour) Grid() grid.Grid { return c.grid }

func (c *Contour) Isovalue() float64 { return c.isovalue }

func (c *Contour) Surface() *extract.Surface { return c.surface }

// Crosses reports whether the cell's vertex values bracket the isovalue.
// Constant cells never cross.
func (c *Contour) Crosses(cell grid.CellID) bool {
	lo, hi := grid.Cell{Grid: c.grid, ID: cell}.ValueRange(c.field)
	return lo <= c.isovalue && c.isovalue <= hi && lo < hi
}

// AddCell contours one cell and returns the number of primitives added.
func (c *Contour) AddCell(cell grid.CellID) (added int) {
	for _, simplex := range c.simplices {
		c.above, c.below = c.above[:0], c.below[:0]
		for i, corner := range simplex {
			c.ids[i] = c.grid.CellVertex(cell, corner)
			c.vals[i] = c.field.ScalarValue(c.ids[i])
			if c.vals[i] > c.isovalue {
				c.above = append(c.above, i)
			} else {
				c.below = append(c.below, i)
			}
		}
		if len(c.above) == 0 || len(c.below) == 0 {
			continue
		}
		added += c.addSimplex()
	}
	return
}

func (c *Contour) addSimplex() int {
	up := c.uphill()
	switch {
	case c.dim == 2:
		// One vertex alone on its side, the segment joins its two edges
		lone, others := c.split()
		a := c.edgeVertex(lone, others[0])
		b := c.edgeVertex(lone, others[1])
		c.emit(up, a, b)
		return 1
	case len(c.above) == 2:
		a0, a1, b0, b1 := c.above[0], c.above[1], c.below[0], c.below[1]
		c.corner = [4]int{
			c.edgeVertex(a0, b0), c.edgeVertex(a0, b1),
			c.edgeVertex(a1, b1), c.edgeVertex(a1, b0),
		}
		c.emitQuad(up)
		return 2
	default:
		lone, others := c.split()
		c.emit(up, c.edgeVertex(lone, others[0]), c.edgeVertex(lone, others[1]), c.edgeVertex(lone, others[2]))
		return 1
	}
}

// split returns the simplex vertex alone on its side of the level and the
// rest.
func (c *Contour) split() (lone int, others []int) {
	if len(c.above) == 1 {
		return c.above[0], c.below
	}
	return c.below[0], c.above
}

// uphill points from the centroid of the vertices below the level to the
// centroid of those above.
func (c *Contour) uphill() types.Vector {
	var hi, lo types.Vector
	for _, i := range c.above {
		hi = hi.Add(types.Vector(c.grid.VertexPosition(c.ids[i])))
	}
	for _, i := range c.below {
		lo = lo.Add(types.Vector(c.grid.VertexPosition(c.ids[i])))
	}
	return hi.Scale(1 / float64(len(c.above))).Sub(lo.Scale(1 / float64(len(c.below))))
}

// emit adds a primitive oriented so its normal points uphill.
func (c *Contour) emit(up types.Vector, verts ...int) {
	s := c.surface
	s.AddPrimitive(verts...)
	if s.PrimitiveNormal(s.NumPrimitives()-1).Dot(up) < 0 {
		prim := s.Primitive(s.NumPrimitives() - 1)
		prim[0], prim[1] = prim[1], prim[0]
	}
}

// emitQuad splits the cyclic quad in c.corner into two triangles, oriented
// by the quad's diagonal normal.
func (c *Contour) emitQuad(up types.Vector) {
	var (
		s  = c.surface
		q  = c.corner
		d0 = s.Positions[q[2]].Sub(s.Positions[q[0]])
		d1 = s.Positions[q[3]].Sub(s.Positions[q[1]])
	)
	if d0.Cross(d1).Dot(up) < 0 {
		q[1], q[3] = q[3], q[1]
	}
	s.AddPrimitive(q[0], q[1], q[2])
	s.AddPrimitive(q[0], q[2], q[3])
}

// edgeVertex returns the surface vertex where the level crosses the edge
// between simplex vertices i and j, creating it on first use. The crossing is
// computed from the edge's lower vertex ID so both cells sharing the edge
// produce the same point.
func (c *Contour) edgeVertex(i, j int) int {
	edge := grid.NewEdgeID(c.ids[i], c.ids[j])
	if v, found := c.welded[edge]; found {
		return v
	}
	v0, v1 := edge.Vertices()
	var (
		f0, f1 = c.field.ScalarValue(v0), c.field.ScalarValue(v1)
		t      = (c.isovalue - f0) / (f1 - f0)
		p      = c.grid.VertexPosition(v0).Lerp(c.grid.VertexPosition(v1), t)
		color  = c.opts.Color.ScalarValue(v0)
		normal types.Vector
	)
	color += t * (c.opts.Color.ScalarValue(v1) - color)
	if c.opts.Smooth {
		g0, g1 := c.gradient(v0), c.gradient(v1)
		normal = g0.Add(g1.Sub(g0).Scale(t)).Normalize()
	}
	v := c.surface.AddVertex(p, normal, color)
	c.welded[edge] = v
	return v
}

func (c *Contour) gradient(v grid.VertexID) types.Vector {
	g, found := c.gradients[v]
	if !found {
		g = c.grid.VertexGradient(v, c.field)
		c.gradients[v] = g
	}
	return g
}

// Finish completes the vertex normals and wraps the surface in a fragment.
func (c *Contour) Finish() *extract.Fragment {
	if !c.opts.Smooth {
		c.surface.ComputeNormals()
	}
	return &extract.Fragment{Kind: c.opts.Kind, Surface: c.surface}
}
