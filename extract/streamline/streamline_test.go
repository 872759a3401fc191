package streamline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/grid/cartesian"
	"github.com/notargets/govis/types"
)

type component func(p types.Point) float64

// field builds a unit cell grid of n vertices per axis carrying the vector
// field given by its components, plus the x coordinate as a color.
func field(t *testing.T, n int, comps ...component) (*cartesian.SlicedCartesian, grid.VectorExtractor, grid.ScalarExtractor) {
	dim := len(comps)
	g := cartesian.NewSliced(dim, types.Index{n, n, n}, types.Vector{1, 1, 1})
	slices := make([]int, dim)
	for k, c := range comps {
		var err error
		slices[k], err = g.AddSliceFunc(string(rune('u'+k)), c)
		require.NoError(t, err)
	}
	vec, err := g.VectorExtractor(slices...)
	require.NoError(t, err)
	x, err := g.AddSliceFunc("x", func(p types.Point) float64 { return p[0] })
	require.NoError(t, err)
	color, err := g.ScalarExtractor(x)
	require.NoError(t, err)
	return g, vec, color
}

func constant(c float64) component { return func(types.Point) float64 { return c } }

func TestUniformField(t *testing.T) {
	g, vec, color := field(t, 5, constant(1), constant(0), constant(0))
	tests := []struct {
		name     string
		seed     types.Point
		backward bool
		wantX    float64
	}{
		{"forward", types.Point{0.5, 2, 2}, false, 4},
		{"backward", types.Point{3.5, 2, 2}, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := New(g, vec)
			x.Color = color
			x.Params.Backward = tt.backward
			line, ok := x.Start(tt.seed)
			require.True(t, ok)
			assert.Equal(t, Running, line.Status())
			assert.True(t, line.Continue(extract.Unlimited))
			assert.Equal(t, LeftDomain, line.Status())
			assert.False(t, line.Step())

			p := line.Position()
			assert.InDelta(t, tt.wantX, p[0], 1e-3)
			assert.Equal(t, 2., p[1])
			assert.Equal(t, 2., p[2])
			pl := line.Polyline()
			assert.Equal(t, line.Steps()+1, pl.Len())
			assert.InDelta(t, 3.5, pl.Length(), 1e-3)
			for i, q := range pl.Points {
				assert.InDelta(t, q[0], pl.Scalars[i], 1e-12)
			}
			// Shortened below the minimum step at the boundary
			assert.Less(t, line.StepSize(), x.Params.WithDefaults(1).MinStep)
		})
	}
}

func TestStepTo(t *testing.T) {
	g, vec, _ := field(t, 5, constant(2), constant(0), constant(0))
	line, ok := New(g, vec).Start(types.Point{0.5, 2, 2})
	require.True(t, ok)
	for _, target := range []float64{0.05, 0.37, 1.2, 1.2, 2.9} {
		require.True(t, line.StepTo(target), target)
		assert.InDelta(t, target, line.Length(), 1e-6, target)
		assert.InDelta(t, 0.5+target, line.Position()[0], 1e-6, target)
		// the shortened last step leaves the adaptive step size alone
		assert.GreaterOrEqual(t, line.StepSize(), 0.1, target)
	}
	assert.False(t, line.StepTo(10))
	assert.Equal(t, LeftDomain, line.Status())
	assert.InDelta(t, 4., line.Position()[0], 1e-3)
	assert.InDelta(t, 3.5, line.Length(), 1e-3)
}

func TestCircularField(t *testing.T) {
	center := types.Point{2, 2}
	g, vec, _ := field(t, 5,
		func(p types.Point) float64 { return center[1] - p[1] },
		func(p types.Point) float64 { return p[0] - center[0] },
	)
	x := New(g, vec)
	x.Params = Params{MaxSteps: 200, Tolerance: 1e-9}
	line, ok := x.Start(types.Point{3, 2})
	require.True(t, ok)
	assert.True(t, line.Continue(extract.Unlimited))
	assert.Equal(t, StepLimit, line.Status())
	full := line.Finish()
	assert.Equal(t, extract.Streamline, full.Kind)
	pl := full.Polylines[0]
	require.Equal(t, 201, pl.Len())
	for _, p := range pl.Points {
		assert.InDelta(t, 1., p.Dist(center), 1e-4)
	}
	// Counterclockwise from (3,2)
	assert.Greater(t, pl.Points[1][1], 2.)

	t.Run("budgeted runs match", func(t *testing.T) {
		for _, b := range []extract.Budget{{MaxSize: 1}, {MaxSize: 7}} {
			line, ok := x.Start(types.Point{3, 2})
			require.True(t, ok)
			f, calls := extract.Run(line, b)
			assert.Greater(t, calls, 1)
			assert.Equal(t, pl.Points, f.Polylines[0].Points)
		}
	})
}

func TestTermination(t *testing.T) {
	g, vec, _ := field(t, 3, constant(0), constant(0), constant(0))
	x := New(g, vec)
	line, ok := x.Start(types.Point{1, 1, 1})
	require.True(t, ok)
	assert.False(t, line.Step())
	assert.Equal(t, Stagnated, line.Status())
	assert.Zero(t, line.Steps())
	assert.Equal(t, 1, line.Polyline().Len())

	_, ok = x.Start(types.Point{-0.5, 1, 1})
	assert.False(t, ok)

	p := Params{}.WithDefaults(2)
	assert.Equal(t, Params{
		InitialStep: 0.2,
		MinStep:     2e-4,
		MaxStep:     2,
		Tolerance:   2e-6,
		MaxSteps:    DefaultMaxSteps,
		MinSpeed:    1e-12,
	}, p)
	assert.Equal(t, "LeftDomain", LeftDomain.String())
}
