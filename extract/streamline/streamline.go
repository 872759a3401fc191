// Package streamline integrates curves tangent to a vector field with the
// Dormand-Prince 5(4) embedded Runge-Kutta pair. The point is relocated in the
// grid at every stage; a curve ends when it leaves the grid, reaches the step
// limit or stagnates.
package streamline

import (
	"math"
	"time"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

var _ extract.Extraction = &Streamline{}

// Dormand-Prince tableau
var (
	dpA = [7][6]float64{
		{},
		{1. / 5},
		{3. / 40, 9. / 40},
		{44. / 45, -56. / 15, 32. / 9},
		{19372. / 6561, -25360. / 2187, 64448. / 6561, -212. / 729},
		{9017. / 3168, -355. / 33, 46732. / 5247, 49. / 176, -5103. / 18656},
		{35. / 384, 0, 500. / 1113, 125. / 192, -2187. / 6784, 11. / 84},
	}
	// Difference between the fifth and fourth order weights
	dpE = [7]float64{71. / 57600, 0, -71. / 16695, 71. / 1920, -17253. / 339200, 22. / 525, -1. / 40}
)

const (
	safety    = 0.9
	minFactor = 0.2
	maxFactor = 5.
)

// Params control the integration. Lengths are in model units; zero values
// are replaced by defaults scaled to the grid's average cell size.
type Params struct {
	InitialStep float64 // 0.1 cell
	MinStep     float64 // 1e-4 cell
	MaxStep     float64 // 1 cell
	Tolerance   float64 // 1e-6 cell, position error per step
	MaxSteps    int     // 10000
	MinSpeed    float64 // 1e-12, below which the field counts as stagnant
	Backward    bool
}

const DefaultMaxSteps = 10000

// WithDefaults fills the zero fields of p for a grid of the given average
// cell size.
func (p Params) WithDefaults(cellSize float64) Params {
	if p.InitialStep <= 0 {
		p.InitialStep = 0.1 * cellSize
	}
	if p.MinStep <= 0 {
		p.MinStep = 1e-4 * cellSize
	}
	if p.MaxStep <= 0 {
		p.MaxStep = cellSize
	}
	if p.Tolerance <= 0 {
		p.Tolerance = 1e-6 * cellSize
	}
	if p.MaxSteps <= 0 {
		p.MaxSteps = DefaultMaxSteps
	}
	if p.MinSpeed <= 0 {
		p.MinSpeed = 1e-12
	}
	return p
}

// Termination records why a streamline stopped.
type Termination uint8

const (
	Running Termination = iota
	LeftDomain
	StepLimit
	Stagnated
)

func (t Termination) String() string {
	return [...]string{"Running", "LeftDomain", "StepLimit", "Stagnated"}[t]
}

// Extractor integrates streamlines of one vector field.
type Extractor struct {
	Grid   grid.Grid
	Field  grid.VectorExtractor
	Color  grid.ScalarExtractor // sampled along the curve when set
	Params Params
	Stats  *grid.Stats // handed to the locators of new streamlines
}

func New(g grid.Grid, field grid.VectorExtractor) *Extractor {
	return &Extractor{Grid: g, Field: field}
}

// Streamline is one curve being integrated. It may be advanced step by step
// or through the Extraction interface.
type Streamline struct {
	x      *Extractor
	params Params
	loc    grid.Locator
	p      types.Point
	scalar float64
	h      float64
	length float64 // integration length covered
	steps  int
	k      [7]types.Vector
	fsal   bool
	status Termination
	line   *extract.Polyline
}

// Start locates seed and returns the streamline through it, or false when
// seed is outside the grid.
func (x *Extractor) Start(seed types.Point) (*Streamline, bool) {
	s := &Streamline{
		x:      x,
		params: x.Params.WithDefaults(x.Grid.AverageCellSize()),
		loc:    x.Grid.NewLocator(),
		p:      seed,
		line:   &extract.Polyline{},
	}
	if x.Stats != nil {
		s.loc.SetStats(x.Stats)
	}
	s.h = s.params.InitialStep
	if !s.loc.Locate(seed, false) {
		return nil, false
	}
	s.sample()
	s.line.Add(seed, s.scalar)
	return s, true
}

func (s *Streamline) sample() {
	if s.x.Color != nil {
		s.scalar = s.loc.CalcScalar(s.x.Color)
	}
}

func (s *Streamline) Position() types.Point { return s.p }

func (s *Streamline) Scalar() float64 { return s.scalar }

func (s *Streamline) Steps() int { return s.steps }

func (s *Streamline) StepSize() float64 { return s.h }

// Length is the integration length covered, the arc length of the exact
// curve since the tangent has unit length.
func (s *Streamline) Length() float64 { return s.length }

func (s *Streamline) Status() Termination { return s.status }

func (s *Streamline) Polyline() *extract.Polyline { return s.line }

// direction evaluates the unit tangent at p, relocating the locator there.
func (s *Streamline) direction(p types.Point) (dir types.Vector, ok bool) {
	if !s.loc.Locate(p, true) {
		return
	}
	v := s.loc.CalcVector(s.x.Field)
	speed := v.Norm()
	if speed < s.params.MinSpeed {
		return types.Vector{}, true
	}
	if s.params.Backward {
		speed = -speed
	}
	return v.Scale(1 / speed), true
}

// Step advances the streamline by one accepted step and appends the new
// point. It returns false once the streamline has terminated.
func (s *Streamline) Step() bool {
	if s.status != Running {
		return false
	}
	if s.steps >= s.params.MaxSteps {
		s.status = StepLimit
		return false
	}
	if !s.fsal {
		dir, ok := s.direction(s.p)
		if !ok {
			s.status = LeftDomain
			return false
		}
		s.k[0], s.fsal = dir, true
	}
	if s.k[0].Norm2() == 0 {
		s.status = Stagnated
		return false
	}
	for {
		next, errNorm, ok := s.attempt()
		if !ok {
			// A stage left the grid, retry shorter to approach the boundary
			if s.h *= 0.5; s.h < s.params.MinStep {
				s.status = LeftDomain
				return false
			}
			continue
		}
		factor := maxFactor
		if errNorm > 0 {
			factor = math.Min(maxFactor, math.Max(minFactor, safety*math.Pow(s.params.Tolerance/errNorm, 0.2)))
		}
		if errNorm > s.params.Tolerance && s.h > s.params.MinStep {
			s.h = math.Max(s.h*factor, s.params.MinStep)
			continue
		}
		s.p = next
		s.k[0] = s.k[6]
		s.steps++
		s.sample()
		s.line.Add(s.p, s.scalar)
		s.length += s.h
		s.h = math.Min(s.h*factor, s.params.MaxStep)
		return true
	}
}

// StepTo takes accepted steps until the integration length reaches target,
// shortening the last one to land on it. It returns false once the
// streamline has terminated.
func (s *Streamline) StepTo(target float64) bool {
	for target-s.length > 1e-3*s.params.MinStep {
		h := s.h
		last := target-s.length < h
		if last {
			s.h = target - s.length
		}
		if !s.Step() {
			return false
		}
		if last && s.h < h {
			s.h = h
		}
	}
	return s.status == Running
}

// attempt evaluates stages 2 to 7 from s.p with step s.h and returns the
// fifth order solution and its error estimate. The locator ends at the
// returned point, where k[6] was evaluated.
func (s *Streamline) attempt() (next types.Point, errNorm float64, ok bool) {
	for i := 1; i < 7; i++ {
		var incr types.Vector
		for j := 0; j < i; j++ {
			incr = incr.Add(s.k[j].Scale(dpA[i][j]))
		}
		stage := s.p.Add(incr.Scale(s.h))
		if i == 6 {
			next = stage
		}
		if s.k[i], ok = s.direction(stage); !ok {
			return
		}
	}
	var e types.Vector
	for i := range dpE {
		e = e.Add(s.k[i].Scale(dpE[i]))
	}
	return next, e.Scale(s.h).Norm(), true
}

func (s *Streamline) Continue(b extract.Budget) bool {
	start := time.Now()
	for added := 0; ; {
		if !s.Step() {
			return true
		}
		added++
		if b.Exceeded(start, added) {
			return false
		}
	}
}

func (s *Streamline) Finish() *extract.Fragment {
	return &extract.Fragment{Kind: extract.Streamline, Polylines: []*extract.Polyline{s.line}}
}
