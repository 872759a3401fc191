// Package readers loads unstructured meshes from files into govis grids.
package readers

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/grid/hypercubic"
	"github.com/notargets/govis/grid/simplical"
	"github.com/notargets/govis/types"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
	ELType_Tetrahedral   SU2ElementType = 10
	ELType_Hexahedral    SU2ElementType = 12
	ELType_Prism         SU2ElementType = 13
	ELType_Pyramid       SU2ElementType = 14
)

var su2NumNodes = map[SU2ElementType]int{
	ELType_LINE:          2,
	ELType_Triangle:      3,
	ELType_Quadrilateral: 4,
	ELType_Tetrahedral:   4,
	ELType_Hexahedral:    8,
	ELType_Prism:         6,
	ELType_Pyramid:       5,
}

// VTK corner order to hypercube bit order: the corners of each face run
// around the face in VTK and along the axes in the grids.
var (
	quadCorners = []int{0, 1, 3, 2}
	hexCorners  = []int{0, 1, 3, 2, 4, 5, 7, 6}
)

type element struct {
	kind  SU2ElementType
	nodes []int
}

// Mesh is an SU2 mesh split by cell family. Each grid holds only the points
// its cells use, in file order; PointIDs map grid vertices back to file
// points. When every element belongs to one family the grid's vertex IDs are
// the file's point numbers.
type Mesh struct {
	Dim               int
	NumPoints         int
	Simplices         *simplical.Simplical[float64] // nil without triangles or tetrahedra
	Hypercubes        *hypercubic.SlicedHypercubic  // nil without quadrilaterals or hexahedra
	SimplexPointIDs   []int
	HypercubePointIDs []int
	// Markers are the boundary elements per tag as lists of file points.
	Markers map[string][][]int
	// Skipped counts volume elements of unsupported kinds (prisms, pyramids).
	Skipped int
}

// ReadSU2 reads an SU2 native format file
func ReadSU2(filename string) (*Mesh, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	m, err := ParseSU2(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return m, nil
}

type su2Scanner struct {
	*bufio.Scanner
	line int
}

// next returns the following non-empty line with comments removed.
func (s *su2Scanner) next() (string, bool) {
	for s.Scan() {
		s.line++
		line := s.Text()
		if idx := strings.Index(line, "%"); idx >= 0 {
			line = line[:idx]
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}

func (s *su2Scanner) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s", s.line, fmt.Sprintf(format, args...))
}

// keyword splits "KEY= value" lines.
func keyword(line string) (key, value string, ok bool) {
	key, value, ok = strings.Cut(line, "=")
	return strings.TrimSpace(key), strings.TrimSpace(value), ok
}

func (s *su2Scanner) count(value string) (int, error) {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return 0, s.errorf("missing count")
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, s.errorf("invalid count %q", fields[0])
	}
	return n, nil
}

// ParseSU2 reads an SU2 mesh from r.
func ParseSU2(r io.Reader) (*Mesh, error) {
	var (
		s        = &su2Scanner{Scanner: bufio.NewScanner(r)}
		m        = &Mesh{Markers: make(map[string][][]int)}
		points   []types.Point
		elements []element
		err      error
	)
	for {
		line, ok := s.next()
		if !ok {
			break
		}
		key, value, ok := keyword(line)
		if !ok {
			return nil, s.errorf("expected a KEY= line, have %q", line)
		}
		switch key {
		case "NDIME":
			if m.Dim, err = s.count(value); err != nil {
				return nil, err
			}
			if m.Dim != 2 && m.Dim != 3 {
				return nil, s.errorf("unsupported dimension: NDIME=%d", m.Dim)
			}
		case "NELEM":
			if elements, err = s.readElements(value, m.Dim); err != nil {
				return nil, err
			}
		case "NPOIN":
			if points, err = s.readPoints(value, m.Dim); err != nil {
				return nil, err
			}
		case "NMARK":
			if err = s.readMarkers(value, m.Markers); err != nil {
				return nil, err
			}
		}
	}
	if err = s.Err(); err != nil {
		return nil, err
	}
	if m.Dim == 0 {
		return nil, fmt.Errorf("missing NDIME")
	}
	m.NumPoints = len(points)
	if err = m.build(points, elements); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *su2Scanner) readElements(value string, dim int) (elements []element, err error) {
	if dim == 0 {
		return nil, s.errorf("NELEM before NDIME")
	}
	nelem, err := s.count(value)
	if err != nil {
		return
	}
	elements = make([]element, 0, nelem)
	for i := 0; i < nelem; i++ {
		line, ok := s.next()
		if !ok {
			return nil, s.errorf("unexpected EOF reading element %d of %d", i, nelem)
		}
		fields := strings.Fields(line)
		kind, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, s.errorf("invalid element type %q", fields[0])
		}
		e := element{kind: SU2ElementType(kind)}
		nn, known := su2NumNodes[e.kind]
		if !known {
			return nil, s.errorf("unknown element type %d", kind)
		}
		if len(fields) < nn+1 {
			return nil, s.errorf("element type %d expects %d nodes, got %d fields", kind, nn, len(fields)-1)
		}
		e.nodes = make([]int, nn)
		for j := range e.nodes {
			if e.nodes[j], err = strconv.Atoi(fields[1+j]); err != nil {
				return nil, s.errorf("invalid node index %q", fields[1+j])
			}
		}
		elements = append(elements, e)
	}
	return
}

func (s *su2Scanner) readPoints(value string, dim int) (points []types.Point, err error) {
	if dim == 0 {
		return nil, s.errorf("NPOIN before NDIME")
	}
	npoin, err := s.count(value)
	if err != nil {
		return
	}
	points = make([]types.Point, npoin)
	for i := range points {
		line, ok := s.next()
		if !ok {
			return nil, s.errorf("unexpected EOF reading point %d of %d", i, npoin)
		}
		// A trailing point number is allowed and ignored
		fields := strings.Fields(line)
		if len(fields) < dim {
			return nil, s.errorf("point %d needs %d coordinates", i, dim)
		}
		for k := 0; k < dim; k++ {
			if points[i][k], err = strconv.ParseFloat(fields[k], 64); err != nil {
				return nil, s.errorf("invalid coordinate %q", fields[k])
			}
		}
	}
	return
}

func (s *su2Scanner) readMarkers(value string, markers map[string][][]int) error {
	nmark, err := s.count(value)
	if err != nil {
		return err
	}
	for i := 0; i < nmark; i++ {
		line, _ := s.next()
		key, tag, ok := keyword(line)
		if !ok || key != "MARKER_TAG" {
			return s.errorf("expected MARKER_TAG=, have %q", line)
		}
		line, _ = s.next()
		key, value, ok = keyword(line)
		if !ok || key != "MARKER_ELEMS" {
			return s.errorf("expected MARKER_ELEMS=, have %q", line)
		}
		n, err := s.count(value)
		if err != nil {
			return err
		}
		for j := 0; j < n; j++ {
			line, ok := s.next()
			if !ok {
				return s.errorf("unexpected EOF in marker %s", tag)
			}
			fields := strings.Fields(line)
			kind, _ := strconv.Atoi(fields[0])
			nn, known := su2NumNodes[SU2ElementType(kind)]
			if !known || len(fields) < nn+1 {
				return s.errorf("invalid element in marker %s", tag)
			}
			nodes := make([]int, nn)
			for k := range nodes {
				if nodes[k], err = strconv.Atoi(fields[1+k]); err != nil {
					return s.errorf("invalid node index %q", fields[1+k])
				}
			}
			markers[tag] = append(markers[tag], nodes)
		}
	}
	return nil
}

// cellFamily sorts elements into simplices and hypercubes of the mesh
// dimension. Lower dimensional elements are boundary elements and ignored.
func cellFamily(kind SU2ElementType, dim int) (simplex, hypercube, skipped bool) {
	switch {
	case dim == 2 && kind == ELType_Triangle, dim == 3 && kind == ELType_Tetrahedral:
		return true, false, false
	case dim == 2 && kind == ELType_Quadrilateral, dim == 3 && kind == ELType_Hexahedral:
		return false, true, false
	case dim == 3 && (kind == ELType_Prism || kind == ELType_Pyramid):
		return false, false, true
	}
	return
}

func (m *Mesh) build(points []types.Point, elements []element) error {
	var simplices, hypercubes []element
	for i, e := range elements {
		for _, n := range e.nodes {
			if n < 0 || n >= len(points) {
				return fmt.Errorf("element %d: %w", i, grid.OutOfRange("point", n, len(points)))
			}
		}
		simplex, hypercube, skipped := cellFamily(e.kind, m.Dim)
		switch {
		case simplex:
			simplices = append(simplices, e)
		case hypercube:
			hypercubes = append(hypercubes, e)
		case skipped:
			m.Skipped++
		}
	}
	if len(simplices) != 0 {
		s := simplical.New[float64](m.Dim)
		ids, remap := usedPoints(simplices, len(points))
		for _, id := range ids {
			s.AddVertex(points[id], 0)
		}
		for i, e := range simplices {
			if _, err := s.AddCell(remap(e.nodes, nil)...); err != nil {
				return fmt.Errorf("simplex %d: %w", i, err)
			}
		}
		s.FinalizeGrid()
		m.Simplices, m.SimplexPointIDs = s, ids
	}
	if len(hypercubes) != 0 {
		h := hypercubic.New(m.Dim)
		ids, remap := usedPoints(hypercubes, len(points))
		for _, id := range ids {
			h.AddVertex(points[id])
		}
		for i, e := range hypercubes {
			order := quadCorners
			if m.Dim == 3 {
				order = hexCorners
			}
			if _, err := h.AddCell(remap(e.nodes, order)...); err != nil {
				return fmt.Errorf("hypercube %d: %w", i, err)
			}
		}
		h.FinalizeGrid()
		m.Hypercubes, m.HypercubePointIDs = h, ids
	}
	return nil
}

// usedPoints returns the sorted file points referenced by elements and a
// function translating element nodes to grid vertices, optionally reordered.
func usedPoints(elements []element, numPoints int) (ids []int, remap func(nodes, order []int) []grid.VertexID) {
	vertex := make([]grid.VertexID, numPoints)
	for i := range vertex {
		vertex[i] = grid.InvalidVertex
	}
	for _, e := range elements {
		for _, n := range e.nodes {
			if vertex[n] == grid.InvalidVertex {
				vertex[n] = 0
				ids = append(ids, n)
			}
		}
	}
	sort.Ints(ids)
	for i, id := range ids {
		vertex[id] = grid.VertexID(i)
	}
	remap = func(nodes, order []int) []grid.VertexID {
		verts := make([]grid.VertexID, len(nodes))
		for i := range verts {
			j := i
			if order != nil {
				j = order[i]
			}
			verts[i] = vertex[nodes[j]]
		}
		return verts
	}
	return
}
