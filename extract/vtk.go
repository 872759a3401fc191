package extract

import (
	"bufio"
	"fmt"
	"io"
)

// WriteVTK writes the fragment as a legacy ASCII VTK polydata file. Surface
// triangles become POLYGONS, surface segments and polylines become LINES.
func (f *Fragment) WriteVTK(w io.Writer) error {
	var (
		bw                  = bufio.NewWriter(w)
		nSurf, nLine, nPoly int
		lineSize            int
	)
	if s := f.Surface; s != nil {
		nSurf = s.NumVertices()
		if s.Arity == 2 {
			nLine = s.NumPrimitives()
			lineSize = 3 * nLine
		} else {
			nPoly = s.NumPrimitives()
		}
	}
	nPoints := nSurf
	for _, pl := range f.Polylines {
		nPoints += pl.Len()
		nLine++
		lineSize += pl.Len() + 1
	}
	fmt.Fprintf(bw, "# vtk DataFile Version 3.0\n")
	fmt.Fprintf(bw, "%s\n", f)
	fmt.Fprintf(bw, "ASCII\nDATASET POLYDATA\n")
	fmt.Fprintf(bw, "POINTS %d double\n", nPoints)
	if s := f.Surface; s != nil {
		for _, p := range s.Positions {
			fmt.Fprintf(bw, "%g %g %g\n", p[0], p[1], p[2])
		}
	}
	for _, pl := range f.Polylines {
		for _, p := range pl.Points {
			fmt.Fprintf(bw, "%g %g %g\n", p[0], p[1], p[2])
		}
	}
	if nPoly > 0 {
		fmt.Fprintf(bw, "POLYGONS %d %d\n", nPoly, 4*nPoly)
		for i := 0; i < nPoly; i++ {
			prim := f.Surface.Primitive(i)
			fmt.Fprintf(bw, "3 %d %d %d\n", prim[0], prim[1], prim[2])
		}
	}
	if nLine > 0 {
		fmt.Fprintf(bw, "LINES %d %d\n", nLine, lineSize)
		if s := f.Surface; s != nil && s.Arity == 2 {
			for i := 0; i < s.NumPrimitives(); i++ {
				prim := s.Primitive(i)
				fmt.Fprintf(bw, "2 %d %d\n", prim[0], prim[1])
			}
		}
		offset := nSurf
		for _, pl := range f.Polylines {
			fmt.Fprintf(bw, "%d", pl.Len())
			for i := 0; i < pl.Len(); i++ {
				fmt.Fprintf(bw, " %d", offset+i)
			}
			fmt.Fprintln(bw)
			offset += pl.Len()
		}
	}
	if nPoints > 0 {
		fmt.Fprintf(bw, "POINT_DATA %d\nSCALARS scalar double 1\nLOOKUP_TABLE default\n", nPoints)
		if s := f.Surface; s != nil {
			for _, v := range s.Scalars {
				fmt.Fprintf(bw, "%g\n", v)
			}
		}
		for _, pl := range f.Polylines {
			for _, v := range pl.Scalars {
				fmt.Fprintf(bw, "%g\n", v)
			}
		}
		if nSurf == nPoints {
			fmt.Fprintf(bw, "NORMALS normal double\n")
			for _, n := range f.Surface.Normals {
				fmt.Fprintf(bw, "%g %g %g\n", n[0], n[1], n[2])
			}
		}
	}
	return bw.Flush()
}
