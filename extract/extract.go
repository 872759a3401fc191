// Package extract holds the geometry produced by the extraction algorithms
// (isosurfaces, slices, streamlines and streamsurfaces), the budgets that
// bound one incremental extraction step and the fragment encodings.
//
// Every algorithm is incremental: a Start function returns an Extraction,
// Continue is called until it reports completion, then Finish hands over the
// geometry. Each Continue call does at least one unit of work (one cell or one
// integration step) before checking its Budget.
package extract

import (
	"fmt"
	"time"
)

type Kind uint8

const (
	Isosurface Kind = iota
	Slice
	Streamline
	Streamsurface
)

func (k Kind) String() string {
	switch k {
	case Isosurface:
		return "Isosurface"
	case Slice:
		return "Slice"
	case Streamline:
		return "Streamline"
	case Streamsurface:
		return "Streamsurface"
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Budget bounds one Continue call. MaxSize counts the output primitives
// (triangles, segments or polyline points) added by the call. Zero fields
// are unbounded.
type Budget struct {
	MaxTime time.Duration
	MaxSize int
}

// Unlimited lets Continue run to completion.
var Unlimited = Budget{}

// Exceeded reports whether a call that began at start and has added size
// primitives must yield.
func (b Budget) Exceeded(start time.Time, size int) bool {
	if b.MaxSize > 0 && size >= b.MaxSize {
		return true
	}
	return b.MaxTime > 0 && time.Since(start) >= b.MaxTime
}

// Extraction is an extraction in progress. Continue returns true once the
// extraction is complete; Finish may be called at any time and returns the
// geometry gathered so far.
type Extraction interface {
	Continue(b Budget) bool
	Finish() *Fragment
}

// Run drives x to completion in slices bounded by b.
func Run(x Extraction, b Budget) (f *Fragment, calls int) {
	for {
		calls++
		if x.Continue(b) {
			return x.Finish(), calls
		}
	}
}
