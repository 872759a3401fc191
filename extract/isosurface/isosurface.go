// Package isosurface extracts surfaces of constant scalar value, either over
// the whole grid or grown from a seed point.
package isosurface

import (
	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/extract/contour"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

// Extractor binds a grid and the scalar field to contour. Color and Smooth
// apply to the extractions started afterwards.
type Extractor struct {
	Grid   grid.Grid
	Field  grid.ScalarExtractor
	Color  grid.ScalarExtractor
	Smooth bool
	loc    grid.Locator
}

func New(g grid.Grid, field grid.ScalarExtractor) *Extractor {
	return &Extractor{Grid: g, Field: field, loc: g.NewLocator()}
}

func (x *Extractor) options() contour.Options {
	return contour.Options{Kind: extract.Isosurface, Color: x.Color, Smooth: x.Smooth}
}

// StartGlobal contours every cell of the grid at isovalue.
func (x *Extractor) StartGlobal(isovalue float64) *contour.Global {
	return contour.NewGlobal(contour.New(x.Grid, x.Field, isovalue, x.options()))
}

// StartSeeded contours the connected patch of the isosurface through seed,
// at the field value interpolated at seed. It returns false when seed is
// outside the grid.
func (x *Extractor) StartSeeded(seed types.Point) (*contour.Seeded, bool) {
	if !x.loc.Locate(seed, true) {
		return nil, false
	}
	isovalue := x.loc.CalcScalar(x.Field)
	return contour.NewSeeded(contour.New(x.Grid, x.Field, isovalue, x.options()), x.loc.Cell()), true
}

// StartSeededAt contours the patch of the isovalue surface grown from the
// cell containing seed.
func (x *Extractor) StartSeededAt(seed types.Point, isovalue float64) (*contour.Seeded, bool) {
	if !x.loc.Locate(seed, true) {
		return nil, false
	}
	return contour.NewSeeded(contour.New(x.Grid, x.Field, isovalue, x.options()), x.loc.Cell()), true
}
