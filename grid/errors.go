package grid

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfRange is wrapped by every error reporting a bad vertex, cell,
	// slice or component index.
	ErrOutOfRange = errors.New("index out of range")
	// ErrNotFinalized is the panic value raised when a grid is queried before
	// FinalizeGrid, or modified after it.
	ErrNotFinalized = errors.New("grid is not finalized")
	ErrFinalized    = errors.New("grid is already finalized")
	// ErrStaleLocator is the panic value raised when a locator outlives a
	// SetData call on its grid.
	ErrStaleLocator = errors.New("locator refers to replaced grid data")
)

func outOfRange(what string, index, limit int) error {
	return fmt.Errorf("%s %d not in [0,%d): %w", what, index, limit, ErrOutOfRange)
}

// OutOfRange builds an ErrOutOfRange error for the grid packages.
func OutOfRange(what string, index, limit int) error {
	return outOfRange(what, index, limit)
}
