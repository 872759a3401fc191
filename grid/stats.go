package grid

import (
	"fmt"
	"sync/atomic"
)

// Stats collects location and gradient counters. A nil *Stats is valid and
// counts nothing. One Stats may be shared by locators running concurrently.
type Stats struct {
	Locates     atomic.Int64
	Failures    atomic.Int64
	Reseeds     atomic.Int64
	Transitions atomic.Int64
	NewtonSteps atomic.Int64
	Gradients   atomic.Int64
}

func (s *Stats) countLocate(ok bool) {
	if s == nil {
		return
	}
	s.Locates.Add(1)
	if !ok {
		s.Failures.Add(1)
	}
}

func (s *Stats) countReseed() {
	if s != nil {
		s.Reseeds.Add(1)
	}
}

func (s *Stats) countTransition() {
	if s != nil {
		s.Transitions.Add(1)
	}
}

func (s *Stats) countNewtonStep() {
	if s != nil {
		s.NewtonSteps.Add(1)
	}
}

// CountGradient records one vertex gradient reconstruction.
func (s *Stats) CountGradient() {
	if s != nil {
		s.Gradients.Add(1)
	}
}

func (s *Stats) String() string {
	if s == nil {
		return "no stats"
	}
	return fmt.Sprintf("locates = %d failures = %d reseeds = %d transitions = %d newton = %d gradients = %d",
		s.Locates.Load(), s.Failures.Load(), s.Reseeds.Load(), s.Transitions.Load(),
		s.NewtonSteps.Load(), s.Gradients.Load())
}
