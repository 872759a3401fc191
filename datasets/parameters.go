package datasets

import (
	"fmt"

	"github.com/notargets/govis/InputParameters"
	"github.com/notargets/govis/readers"
	"github.com/notargets/govis/types"
)

// FromParameters builds the datasets described by a job file: one, or one
// per cell family of an SU2 mesh.
func FromParameters(ip *InputParameters.InputParameters) ([]*Dataset, error) {
	fields, err := ParseFields(ip.Fields)
	if err != nil {
		return nil, err
	}
	var (
		gp     = &ip.Grid
		size   = types.Index{gp.Size[0], gp.Size[1], gp.Size[2]}
		lo, hi = types.Point(gp.Min), types.Point(gp.Max)
		d      *Dataset
	)
	switch gp.Kind {
	case "cartesian":
		d, err = Cartesian(gp.Dim, size, lo, hi, fields)
	case "curvilinear":
		d, err = Curvilinear(gp.Dim, size, lo, hi, max(gp.Blocks, 1), gp.Warp, fields)
	case "annulus":
		d, err = Annulus(size, gp.Min[0], gp.Max[0], max(gp.Blocks, 1), fields)
	case "simplex":
		d, err = SimplexBox(gp.Dim, size, lo, hi, fields)
	case "hexahedral":
		d, err = HexBox(gp.Dim, size, lo, hi, gp.Warp, fields)
	case "delaunay":
		d, err = Delaunay2D(ScatteredPoints(gp.Points, lo, hi, gp.Seed), fields)
	case "su2":
		var m *readers.Mesh
		if m, err = readers.ReadSU2(gp.File); err != nil {
			return nil, err
		}
		return FromSU2(m, fields)
	default:
		return nil, fmt.Errorf("unknown grid kind %q", gp.Kind)
	}
	if err != nil {
		return nil, err
	}
	return []*Dataset{d}, nil
}
