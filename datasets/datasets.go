package datasets

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/pradeep-pyro/triangle"
	log "github.com/sirupsen/logrus"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/grid/cartesian"
	"github.com/notargets/govis/grid/curvilinear"
	"github.com/notargets/govis/grid/hypercubic"
	"github.com/notargets/govis/grid/simplical"
	"github.com/notargets/govis/readers"
	"github.com/notargets/govis/topology"
	"github.com/notargets/govis/types"
	"github.com/notargets/govis/utils"
)

// Dataset is a finalized grid with named scalar fields.
type Dataset struct {
	Grid    grid.Grid
	Fields  []string
	scalars []grid.ScalarExtractor
}

func (d *Dataset) Scalar(name string) (grid.ScalarExtractor, error) {
	for i, f := range d.Fields {
		if f == name {
			return d.scalars[i], nil
		}
	}
	return nil, fmt.Errorf("no field named %q", name)
}

// Vector combines scalar fields into a vector field, one per component.
func (d *Dataset) Vector(names ...string) (grid.VectorExtractor, error) {
	if len(names) == 0 || len(names) > types.MaxDim {
		return nil, fmt.Errorf("a vector needs 1 to %d components, have %d", types.MaxDim, len(names))
	}
	comps := make([]grid.ScalarExtractor, len(names))
	for k, name := range names {
		var err error
		if comps[k], err = d.Scalar(name); err != nil {
			return nil, err
		}
	}
	return grid.VectorFunc(func(v grid.VertexID) (vec types.Vector) {
		for k, e := range comps {
			vec[k] = e.ScalarValue(v)
		}
		return
	}), nil
}

// sample evaluates every field at every vertex of g.
func sample(g grid.Grid, fields []Field) [][]float64 {
	values := make([][]float64, len(fields))
	for i := range values {
		values[i] = make([]float64, g.NumVertices())
	}
	utils.ParallelFor(g.NumVertices(), func(kMin, kMax int) {
		for v := kMin; v < kMax; v++ {
			p := g.VertexPosition(grid.VertexID(v))
			for i, f := range fields {
				values[i][v] = f.At(p)
			}
		}
	})
	for i, f := range fields {
		if utils.IsNan(values[i]) {
			log.WithField("field", f.Name).Warn("field is undefined at some vertices")
		}
	}
	return values
}

type slicedGrid interface {
	grid.Grid
	AddSlice(name string, values []float64) (int, error)
	ScalarExtractor(slice int) (grid.ScalarExtractor, error)
}

func fromSlices(g slicedGrid, fields []Field) (*Dataset, error) {
	d := &Dataset{Grid: g}
	for i, values := range sample(g, fields) {
		slice, err := g.AddSlice(fields[i].Name, values)
		if err != nil {
			return nil, err
		}
		e, err := g.ScalarExtractor(slice)
		if err != nil {
			return nil, err
		}
		d.Fields = append(d.Fields, fields[i].Name)
		d.scalars = append(d.scalars, e)
	}
	return d, nil
}

// fromValues stores the field values of each vertex together.
func fromValues(s *simplical.Simplical[[]float64], fields []Field) *Dataset {
	d := &Dataset{Grid: s}
	values := sample(s, fields)
	for v := range s.Values {
		s.Values[v] = make([]float64, len(fields))
		for i := range fields {
			s.Values[v][i] = values[i][v]
		}
	}
	for i, f := range fields {
		d.Fields = append(d.Fields, f.Name)
		d.scalars = append(d.scalars, s.ScalarExtractor(func(vals []float64) float64 { return vals[i] }))
	}
	return d
}

func checkBox(dim int, size types.Index, lo, hi types.Point) error {
	if dim < 1 || dim > types.MaxDim {
		return fmt.Errorf("dimension %d not in [1,%d]", dim, types.MaxDim)
	}
	for k := 0; k < dim; k++ {
		if size[k] < 2 {
			return fmt.Errorf("need two vertices per axis, have %v", size)
		}
		if !(hi[k] > lo[k]) {
			return fmt.Errorf("empty box %v - %v", lo, hi)
		}
	}
	return nil
}

// lattice returns the position of lattice vertex idx of a size lattice
// spanning lo to hi, displaced inside the box by warp times the box size.
func lattice(dim int, size types.Index, lo, hi types.Point, warp float64, idx types.Index) (p types.Point) {
	var (
		t    types.Point
		bump = warp
	)
	for k := 0; k < dim; k++ {
		t[k] = float64(idx[k]) / float64(size[k]-1)
		bump *= math.Sin(math.Pi * t[k])
	}
	for k := 0; k < dim; k++ {
		p[k] = lo[k] + (t[k]+bump)*(hi[k]-lo[k])
	}
	return
}

// Cartesian samples the fields on a regular lattice of size vertices spanning
// lo to hi.
func Cartesian(dim int, size types.Index, lo, hi types.Point, fields []Field) (*Dataset, error) {
	if err := checkBox(dim, size, lo, hi); err != nil {
		return nil, err
	}
	var cellSize types.Vector
	for k := 0; k < dim; k++ {
		cellSize[k] = (hi[k] - lo[k]) / float64(size[k]-1)
	}
	g := cartesian.NewSliced(dim, size, cellSize)
	g.SetOrigin(lo)
	return fromSlices(g, fields)
}

// Curvilinear splits a warped lattice into blocks along the first axis. The
// blocks duplicate the vertices of their shared faces.
func Curvilinear(dim int, size types.Index, lo, hi types.Point, blocks int, warp float64, fields []Field) (*Dataset, error) {
	if err := checkBox(dim, size, lo, hi); err != nil {
		return nil, err
	}
	cells := size[0] - 1
	if blocks < 1 || blocks > cells {
		return nil, fmt.Errorf("cannot split %d cells into %d blocks", cells, blocks)
	}
	g := curvilinear.NewSliced(dim)
	for b, start := 0, 0; b < blocks; b++ {
		n := cells / blocks
		if b < cells%blocks {
			n++
		}
		bsize := size
		bsize[0] = n + 1
		block := g.AddGrid(bsize)
		arr := types.NewArray(dim, bsize)
		var idx types.Index
		for ok := true; ok; ok = arr.Next(&idx) {
			global := idx.Offset(0, start)
			if err := g.SetVertexPosition(block, idx, lattice(dim, size, lo, hi, warp, global)); err != nil {
				return nil, err
			}
		}
		start += n
	}
	g.FinalizeGrid()
	return fromSlices(g, fields)
}

// Annulus builds a two dimensional ring between radii r0 and r1 from blocks
// curvilinear blocks of size[0] radial by size[1] angular vertices each.
func Annulus(size types.Index, r0, r1 float64, blocks int, fields []Field) (*Dataset, error) {
	if !(r0 > 0 && r1 > r0) {
		return nil, fmt.Errorf("annulus radii %g, %g must satisfy 0 < r0 < r1", r0, r1)
	}
	if size[0] < 2 || size[1] < 2 || blocks < 1 {
		return nil, fmt.Errorf("annulus needs two vertices per axis and a block, have %v and %d", size, blocks)
	}
	var (
		g     = curvilinear.NewSliced(2)
		arr   = types.NewArray(2, size)
		sweep = 2 * math.Pi / float64(blocks)
	)
	for b := 0; b < blocks; b++ {
		block := g.AddGrid(size)
		var idx types.Index
		for ok := true; ok; ok = arr.Next(&idx) {
			r := r0 + (r1-r0)*float64(idx[0])/float64(size[0]-1)
			theta := sweep * (float64(b) + float64(idx[1])/float64(size[1]-1))
			p := types.Point{r * math.Cos(theta), r * math.Sin(theta)}
			if err := g.SetVertexPosition(block, idx, p); err != nil {
				return nil, err
			}
		}
	}
	g.FinalizeGrid()
	return fromSlices(g, fields)
}

// HexBox lists every cell of a warped lattice explicitly as an unstructured
// hypercube mesh.
func HexBox(dim int, size types.Index, lo, hi types.Point, warp float64, fields []Field) (*Dataset, error) {
	if err := checkBox(dim, size, lo, hi); err != nil {
		return nil, err
	}
	var (
		h    = hypercubic.New(dim)
		arr  = types.NewArray(dim, size)
		topo = topology.Tesseract(dim)
		idx  types.Index
	)
	for ok := true; ok; ok = arr.Next(&idx) {
		h.AddVertex(lattice(dim, size, lo, hi, warp, idx))
	}
	cells := arr.Shrink()
	verts := make([]grid.VertexID, topo.NumVertices)
	idx = types.Index{}
	for ok := true; ok; ok = cells.Next(&idx) {
		for i := range verts {
			verts[i] = grid.VertexID(arr.Linear(corner(dim, idx, i)))
		}
		if _, err := h.AddCell(verts...); err != nil {
			return nil, err
		}
	}
	h.FinalizeGrid()
	return fromSlices(h, fields)
}

// corner returns the lattice index of hypercube vertex i of cell idx.
func corner(dim int, idx types.Index, i int) types.Index {
	for k := 0; k < dim; k++ {
		idx[k] += (i >> k) & 1
	}
	return idx
}

// SimplexBox splits every cell of a lattice into the simplices of its Kuhn
// decomposition.
func SimplexBox(dim int, size types.Index, lo, hi types.Point, fields []Field) (*Dataset, error) {
	if err := checkBox(dim, size, lo, hi); err != nil {
		return nil, err
	}
	var (
		s    = simplical.New[[]float64](dim)
		arr  = types.NewArray(dim, size)
		cube = topology.Tesseract(dim)
		idx  types.Index
	)
	for ok := true; ok; ok = arr.Next(&idx) {
		s.AddVertex(lattice(dim, size, lo, hi, 0, idx), nil)
	}
	cells := arr.Shrink()
	idx = types.Index{}
	for ok := true; ok; ok = cells.Next(&idx) {
		for _, simplex := range cube.Simplices {
			verts := make([]grid.VertexID, len(simplex))
			for i, c := range simplex {
				verts[i] = grid.VertexID(arr.Linear(corner(dim, idx, c)))
			}
			if _, err := s.AddCell(verts...); err != nil {
				return nil, err
			}
		}
	}
	s.FinalizeGrid()
	return fromValues(s, fields), nil
}

// ScatteredPoints returns the corners of the rectangle lo-hi followed by n
// uniformly random points inside it.
func ScatteredPoints(n int, lo, hi types.Point, seed int64) (pts []types.Point) {
	rng := rand.New(rand.NewSource(seed))
	for i := 0; i < 4; i++ {
		pts = append(pts, types.Point{
			lo[0] + float64(i&1)*(hi[0]-lo[0]),
			lo[1] + float64(i>>1)*(hi[1]-lo[1]),
		})
	}
	for i := 0; i < n; i++ {
		pts = append(pts, types.Point{
			lo[0] + rng.Float64()*(hi[0]-lo[0]),
			lo[1] + rng.Float64()*(hi[1]-lo[1]),
		})
	}
	return
}

// Delaunay2D triangulates scattered points in the xy plane.
func Delaunay2D(pts []types.Point, fields []Field) (*Dataset, error) {
	if len(pts) < 3 {
		return nil, fmt.Errorf("need three points to triangulate, have %d", len(pts))
	}
	var (
		xy = make([][2]float64, len(pts))
		s  = simplical.New[[]float64](2)
	)
	for i, p := range pts {
		xy[i] = [2]float64{p[0], p[1]}
		s.AddVertex(types.Point{p[0], p[1]}, nil)
	}
	for _, tri := range triangle.Delaunay(xy) {
		if _, err := s.AddCell(grid.VertexID(tri[0]), grid.VertexID(tri[1]), grid.VertexID(tri[2])); err != nil {
			return nil, err
		}
	}
	if s.NumCells() == 0 {
		return nil, fmt.Errorf("points are collinear")
	}
	s.FinalizeGrid()
	return fromValues(s, fields), nil
}

// FromSU2 samples the fields on each cell family of an SU2 mesh.
func FromSU2(m *readers.Mesh, fields []Field) (sets []*Dataset, err error) {
	if m.Simplices != nil {
		d := &Dataset{Grid: m.Simplices}
		for i, values := range sample(m.Simplices, fields) {
			d.Fields = append(d.Fields, fields[i].Name)
			d.scalars = append(d.scalars, grid.ScalarFunc(func(v grid.VertexID) float64 { return values[v] }))
		}
		sets = append(sets, d)
	}
	if m.Hypercubes != nil {
		d, err := fromSlices(m.Hypercubes, fields)
		if err != nil {
			return nil, err
		}
		sets = append(sets, d)
	}
	if len(sets) == 0 {
		return nil, fmt.Errorf("mesh has no supported cells")
	}
	return
}
