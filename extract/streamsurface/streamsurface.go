// Package streamsurface sweeps a rake of seed points through a vector field.
// Every round advances the rake's streamlines by a common integration length,
// the smallest step any of them proposes, and adds a strip of triangles
// between neighbouring lines. When two neighbours drift apart a new
// streamline is seeded between them.
package streamsurface

import (
	"math"
	"time"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/extract/streamline"
	"github.com/notargets/govis/grid"
	"github.com/notargets/govis/types"
)

var _ extract.Extraction = &Streamsurface{}

// Extractor sweeps rakes through one vector field.
type Extractor struct {
	streamline.Extractor
	// MaxSpacing is the front edge length that triggers a midpoint reseed,
	// two average cells when zero.
	MaxSpacing float64
	// MaxLines bounds the number of streamlines, reseeds included. Zero
	// allows four times the rake size.
	MaxLines int
}

func New(g grid.Grid, field grid.VectorExtractor) *Extractor {
	return &Extractor{Extractor: *streamline.New(g, field)}
}

type particle struct {
	line   *streamline.Streamline
	vertex int     // surface vertex at the current front
	offset float64 // front length when the line was seeded
	moved  bool
}

// Streamsurface is a surface being swept.
type Streamsurface struct {
	x          *Extractor
	front      []*particle
	surface    *extract.Surface
	maxSpacing float64
	maxLines   int
	numLines   int
	rounds     int
	length     float64 // integration length of the front
}

// Start seeds one streamline per rake point inside the grid. Rake points
// outside the grid split the front.
func (x *Extractor) Start(rake []types.Point) *Streamsurface {
	s := &Streamsurface{
		x:          x,
		surface:    extract.NewSurface(3),
		maxSpacing: x.MaxSpacing,
		maxLines:   x.MaxLines,
	}
	if s.maxSpacing <= 0 {
		s.maxSpacing = 2 * x.Grid.AverageCellSize()
	}
	if s.maxLines <= 0 {
		s.maxLines = 4 * len(rake)
	}
	for _, p := range rake {
		s.front = append(s.front, s.seed(p))
	}
	return s
}

// seed returns nil when p is outside the grid.
func (s *Streamsurface) seed(p types.Point) *particle {
	line, ok := s.x.Extractor.Start(p)
	if !ok {
		return nil
	}
	s.numLines++
	return &particle{
		line:   line,
		vertex: s.surface.AddVertex(p, types.Vector{}, line.Scalar()),
		offset: s.length,
	}
}

func (s *Streamsurface) NumLines() int { return s.numLines }

func (s *Streamsurface) Rounds() int { return s.rounds }

// Advance moves the front and stitches the new strip. It returns the number
// of triangles added, or -1 once every line has terminated.
func (s *Streamsurface) Advance() int {
	var (
		alive  bool
		before = s.surface.NumPrimitives()
		prev   = make([]int, len(s.front))
		delta  = math.Inf(1)
	)
	for _, pt := range s.front {
		if pt != nil {
			delta = math.Min(delta, pt.line.StepSize())
		}
	}
	if math.IsInf(delta, 1) {
		return -1
	}
	s.length += delta
	for i, pt := range s.front {
		if pt == nil {
			continue
		}
		prev[i] = pt.vertex
		steps := pt.line.Steps()
		pt.line.StepTo(s.length - pt.offset)
		if pt.moved = pt.line.Steps() > steps; pt.moved {
			alive = true
			pt.vertex = s.surface.AddVertex(pt.line.Position(), types.Vector{}, pt.line.Scalar())
		}
	}
	if !alive {
		return -1
	}
	s.rounds++
	for i := 0; i+1 < len(s.front); i++ {
		a, b := s.front[i], s.front[i+1]
		if a == nil || b == nil {
			continue
		}
		switch {
		case a.moved && b.moved:
			s.quad(prev[i], a.vertex, b.vertex, prev[i+1])
		case a.moved:
			s.surface.AddPrimitive(prev[i], a.vertex, b.vertex)
		case b.moved:
			s.surface.AddPrimitive(a.vertex, b.vertex, prev[i+1])
		}
	}
	s.dropDead()
	s.refine()
	return s.surface.NumPrimitives() - before
}

// quad splits the strip cell p0 a b p1 along its shorter diagonal.
func (s *Streamsurface) quad(p0, a, b, p1 int) {
	pos := s.surface.Positions
	if pos[p0].Dist2(pos[b]) < pos[p1].Dist2(pos[a]) {
		s.surface.AddPrimitive(p0, a, b)
		s.surface.AddPrimitive(p0, b, p1)
		return
	}
	s.surface.AddPrimitive(p0, a, p1)
	s.surface.AddPrimitive(p1, a, b)
}

// dropDead replaces terminated streamlines by gaps in the front.
func (s *Streamsurface) dropDead() {
	for i, pt := range s.front {
		if pt != nil && pt.line.Status() != streamline.Running {
			s.front[i] = nil
		}
	}
}

// refine seeds a streamline at the midpoint of every front edge longer than
// the maximum spacing.
func (s *Streamsurface) refine() {
	for i := 0; i+1 < len(s.front) && s.numLines < s.maxLines; i++ {
		a, b := s.front[i], s.front[i+1]
		if a == nil || b == nil {
			continue
		}
		pa, pb := a.line.Position(), b.line.Position()
		if pa.Dist(pb) <= s.maxSpacing {
			continue
		}
		mid := s.seed(pa.Lerp(pb, 0.5))
		if mid == nil {
			continue
		}
		s.front = append(s.front, nil)
		copy(s.front[i+2:], s.front[i+1:])
		s.front[i+1] = mid
		i++
	}
}

func (s *Streamsurface) Continue(b extract.Budget) bool {
	start := time.Now()
	for added := 0; ; {
		n := s.Advance()
		if n < 0 {
			return true
		}
		added += n
		if b.Exceeded(start, added) {
			return false
		}
	}
}

func (s *Streamsurface) Finish() *extract.Fragment {
	s.surface.ComputeNormals()
	return &extract.Fragment{Kind: extract.Streamsurface, Surface: s.surface}
}
