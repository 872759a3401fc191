// Package slice cuts grids with planes. The cut is the zero level of the
// signed distance to the plane, contoured like an isosurface and colored with
// an interpolated scalar.
package slice

import (
	"fmt"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/extract/contour"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

type Plane struct {
	Origin types.Point
	Normal types.Vector
}

// NewPlane returns the plane through origin with the given normal, which is
// normalized.
func NewPlane(origin types.Point, normal types.Vector) (Plane, error) {
	if normal.Norm2() == 0 {
		return Plane{}, fmt.Errorf("plane through %v has a zero normal", origin)
	}
	return Plane{Origin: origin, Normal: normal.Normalize()}, nil
}

// Distance returns the signed distance of p from the plane.
func (pl Plane) Distance(p types.Point) float64 {
	return p.Sub(pl.Origin).Dot(pl.Normal)
}

// Extractor cuts one grid, coloring the cut with Color.
type Extractor struct {
	Grid  grid.Grid
	Color grid.ScalarExtractor
	loc   grid.Locator
}

func New(g grid.Grid, color grid.ScalarExtractor) *Extractor {
	return &Extractor{Grid: g, Color: color, loc: g.NewLocator()}
}

func (x *Extractor) contour(pl Plane) *contour.Contour {
	dist := grid.ScalarFunc(func(v grid.VertexID) float64 {
		return pl.Distance(x.Grid.VertexPosition(v))
	})
	return contour.New(x.Grid, dist, 0, contour.Options{Kind: extract.Slice, Color: x.Color})
}

// StartGlobal cuts every cell the plane passes through.
func (x *Extractor) StartGlobal(pl Plane) *contour.Global {
	return contour.NewGlobal(x.contour(pl))
}

// StartSeeded cuts the connected part of the plane through seed with the
// given normal, grown from the cell containing seed. It returns false when
// seed is outside the grid.
func (x *Extractor) StartSeeded(seed types.Point, normal types.Vector) (*contour.Seeded, bool, error) {
	pl, err := NewPlane(seed, normal)
	if err != nil {
		return nil, false, err
	}
	if !x.loc.Locate(seed, true) {
		return nil, false, nil
	}
	return contour.NewSeeded(x.contour(pl), x.loc.Cell()), true, nil
}
