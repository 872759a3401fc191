package contour

import (
	"time"

	"github.com/notargets/govis/extract"
	"github.com/notargets/govis/grid"
)

var (
	_ extract.Extraction = &Global{}
	_ extract.Extraction = &Seeded{}
)

// Global visits every cell of the grid in ID order.
type Global struct {
	*Contour
	next grid.CellID
}

func NewGlobal(c *Contour) *Global {
	return &Global{Contour: c}
}

func (g *Global) Continue(b extract.Budget) bool {
	var (
		start = time.Now()
		added int
		n     = grid.CellID(g.grid.NumCells())
	)
	for g.next < n {
		c := g.next
		g.next++
		if g.Crosses(c) {
			added += g.AddCell(c)
		}
		if g.next < n && b.Exceeded(start, added) {
			return false
		}
	}
	return true
}

// Progress returns the fraction of cells visited.
func (g *Global) Progress() float64 {
	if n := g.grid.NumCells(); n > 0 {
		return float64(g.next) / float64(n)
	}
	return 1
}

// Seeded grows the contour breadth first from a seed cell, entering only
// neighbours whose value range brackets the isovalue. The result is the
// connected component of crossing cells around the seed.
type Seeded struct {
	*Contour
	queue   []grid.CellID
	visited map[grid.CellID]struct{}
}

// NewSeeded starts from seed. A seed cell that does not cross the level
// yields an empty contour.
func NewSeeded(c *Contour, seed grid.CellID) (s *Seeded) {
	s = &Seeded{
		Contour: c,
		visited: map[grid.CellID]struct{}{seed: {}},
	}
	if c.Crosses(seed) {
		s.queue = append(s.queue, seed)
	}
	return
}

// Pending returns the number of cells queued for contouring.
func (s *Seeded) Pending() int { return len(s.queue) }

// Visited returns the number of cells entered so far.
func (s *Seeded) Visited() int { return len(s.visited) }

func (s *Seeded) Continue(b extract.Budget) bool {
	var (
		start = time.Now()
		added int
		nf    = s.grid.Topology().NumFaces
	)
	for len(s.queue) > 0 {
		c := s.queue[0]
		s.queue = s.queue[1:]
		added += s.AddCell(c)
		for f := 0; f < nf; f++ {
			n := s.grid.CellNeighbour(c, f)
			if n == grid.InvalidCell {
				continue
			}
			if _, done := s.visited[n]; done {
				continue
			}
			s.visited[n] = struct{}{}
			if s.Crosses(n) {
				s.queue = append(s.queue, n)
			}
		}
		if len(s.queue) > 0 && b.Exceeded(start, added) {
			return false
		}
	}
	return true
}
