package InputParameters

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	fileInput := []byte(`
Title: Test Case
Grid:
  Kind: curvilinear
  Dim: 3
  Size: [9, 9, 9]
  Min: [0, 0, 0]
  Max: [2, 2, 2]
  Blocks: 2
  Warp: 0.05
Fields:
  r2: (x-1)**2 + (y-1)**2 + (z-1)**2
  u: "1"
  v: 0.5*(y-1)
  w: "0"
Jobs:
  - Kind: isosurface
    Field: r2
    Isovalue: 0.3
    Global: true
    MaxSize: 100
    Output: sphere.vtk
  - Kind: streamsurface
    Vector: [u, v, w]
    Color: r2
    Rake: [[0.2, 0.8, 1], [0.2, 1.2, 1]]
    MaxTime: 50ms
`)
	var input InputParameters
	require.NoError(t, input.Parse(fileInput))
	assert.Equal(t, "curvilinear", input.Grid.Kind)
	assert.Equal(t, [3]int{9, 9, 9}, input.Grid.Size)
	assert.Equal(t, [3]float64{2, 2, 2}, input.Grid.Max)
	assert.Equal(t, 0.05, input.Grid.Warp)
	assert.Equal(t, "0.5*(y-1)", input.Fields["v"])
	require.Len(t, input.Jobs, 2)
	require.NotNil(t, input.Jobs[0].Isovalue)
	assert.Equal(t, 0.3, *input.Jobs[0].Isovalue)
	assert.True(t, input.Jobs[0].Global)
	assert.Equal(t, [][3]float64{{0.2, 0.8, 1}, {0.2, 1.2, 1}}, input.Jobs[1].Rake)
	d, err := input.Jobs[1].MaxDuration()
	require.NoError(t, err)
	assert.Equal(t, 50*time.Millisecond, d)
	input.Print()
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name, input, errMsg string
	}{
		{"no grid", "Title: x\n", "missing Grid.Kind"},
		{"bad dimension", "Grid: {Kind: cartesian, Dim: 4}\n", "dimension 4"},
		{"unknown job", "Grid: {Kind: cartesian, Dim: 2}\nJobs: [{Kind: volume}]\n", "unknown kind"},
		{"unknown field", "Grid: {Kind: cartesian, Dim: 2}\nJobs: [{Kind: isosurface, Field: p}]\n", `unknown field "p"`},
		{"slice without normal", "Grid: {Kind: cartesian, Dim: 2}\nJobs: [{Kind: slice}]\n", "needs a Normal"},
		{"short vector", "Grid: {Kind: cartesian, Dim: 2}\nFields: {u: x}\nJobs: [{Kind: streamline, Vector: [u]}]\n", "needs a Vector"},
		{"short rake", "Grid: {Kind: cartesian, Dim: 2}\nFields: {u: x}\nJobs: [{Kind: streamsurface, Vector: [u, u]}]\n", "needs a Rake"},
		{"bad time", "Grid: {Kind: cartesian, Dim: 2}\nFields: {u: x}\nJobs: [{Kind: isosurface, Field: u, MaxTime: soon}]\n", "job 0"},
		{"bad color", "Grid: {Kind: cartesian, Dim: 2}\nJobs: [{Kind: slice, Normal: [1], Color: c}]\n", "unknown color field"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var input InputParameters
			err := input.Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
