package grid

import (
	"fmt"

	"github.com/notargets/govis/types"
)

// LocatorState tracks whether a Locator holds a usable cell for tracing.
type LocatorState uint8

const (
	Untraced LocatorState = iota
	Tracing
	Failed
)

func (s LocatorState) String() string {
	return [...]string{"Untraced", "Tracing", "Failed"}[s]
}

const (
	// MaxCellTransitions caps the cell-to-cell steps of one hypercube walk.
	MaxCellTransitions = 10
	// TransitionFudge is the local coordinate overshoot still accepted when a
	// walk runs out of transitions.
	TransitionFudge = 1e-4
	// ReseedOvershoot is the local coordinate violation, in cell widths, past
	// which a traced walk is abandoned and the kd-tree consulted instead.
	ReseedOvershoot = 1.
	// MaxNewtonIterations caps the Newton-Raphson iterations inside one cell.
	MaxNewtonIterations = 16
	// InsideTolerance is the local coordinate slack of the containment test.
	InsideTolerance = 1e-6
	// EpsilonFactor scales the average cell radius into the default locator
	// position tolerance.
	EpsilonFactor = 1e-8
	// MaxSeedCandidates is the number of nearest cell centers tried when
	// seeding a search from the kd-tree.
	MaxSeedCandidates = 4
)

// Locator finds the cell containing a point and interpolates vertex values at
// that point. A Locator is owned by one goroutine; any number of Locators may
// query one finalized grid concurrently.
type Locator interface {
	// Locate moves the locator to p. With traceHint set and the locator in the
	// Tracing state the search starts from the current cell, which pays off
	// when p lies near the previous point. It returns false if p is outside
	// the grid; the cell then holds the best candidate found.
	Locate(p types.Point, traceHint bool) bool
	State() LocatorState
	Cell() CellID
	LocalCoords() types.Point
	// Weights returns the current cell's vertices and interpolation weights.
	Weights() ([]VertexID, []float64)
	CalcScalar(e ScalarExtractor) float64
	CalcVector(e VectorExtractor) types.Vector
	CalcGradient(e ScalarExtractor) types.Vector
	SetStats(s *Stats)
}

// LocatorBase carries the state every locator shares.
type LocatorBase struct {
	state LocatorState
	cell  CellID
	local types.Point
	stats *Stats
}

func NewLocatorBase() LocatorBase {
	return LocatorBase{state: Untraced, cell: InvalidCell}
}

func (lb *LocatorBase) State() LocatorState { return lb.state }

func (lb *LocatorBase) Cell() CellID { return lb.cell }

func (lb *LocatorBase) LocalCoords() types.Point { return lb.local }

func (lb *LocatorBase) SetStats(s *Stats) { lb.stats = s }

func (lb *LocatorBase) Stats() *Stats { return lb.stats }

// SetCell places the locator without changing its state.
func (lb *LocatorBase) SetCell(c CellID, local types.Point) {
	lb.cell, lb.local = c, local
}

// Finish records the outcome of a Locate call and returns ok.
func (lb *LocatorBase) Finish(ok bool) bool {
	if ok {
		lb.state = Tracing
	} else {
		lb.state = Failed
	}
	lb.stats.countLocate(ok)
	return ok
}

// CountReseed records a trace abandoned for a fresh kd-tree seed.
func (lb *LocatorBase) CountReseed() { lb.stats.countReseed() }

// CountTransition records one cell-to-cell step.
func (lb *LocatorBase) CountTransition() { lb.stats.countTransition() }

// Reset returns the locator to the Untraced state.
func (lb *LocatorBase) Reset() {
	lb.state, lb.cell, lb.local = Untraced, InvalidCell, types.Point{}
}

func (lb *LocatorBase) String() string {
	return fmt.Sprintf("%s cell %d local %v", lb.state, lb.cell, lb.local)
}

// InterpolateScalar returns sum(w[i] * e(ids[i])).
func InterpolateScalar(ids []VertexID, w []float64, e ScalarExtractor) (val float64) {
	for i, id := range ids {
		val += w[i] * e.ScalarValue(id)
	}
	return
}

// InterpolateVector returns sum(w[i] * e(ids[i])).
func InterpolateVector(ids []VertexID, w []float64, e VectorExtractor) (val types.Vector) {
	for i, id := range ids {
		val = val.Add(e.VectorValue(id).Scale(w[i]))
	}
	return
}

// GradientSource reconstructs gradients at grid vertices.
type GradientSource interface {
	VertexGradient(v VertexID, e ScalarExtractor) types.Vector
}

// InterpolateGradient blends vertex gradients with the interpolation weights.
func InterpolateGradient(g GradientSource, ids []VertexID, w []float64, e ScalarExtractor) (grad types.Vector) {
	for i, id := range ids {
		if w[i] == 0 {
			continue
		}
		grad = grad.Add(g.VertexGradient(id, e).Scale(w[i]))
	}
	return
}
