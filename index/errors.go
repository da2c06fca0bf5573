package index

import "github.com/pkg/errors"

var (
	// ErrOutOfBounds is returned when a coordinate does not map into any bin of the grid.
	ErrOutOfBounds = errors.New("coordinate out of grid bounds")

	// ErrNotFound is returned by a deletion when the target bin holds no point within DeleteTolerance.
	ErrNotFound = errors.New("point not found")

	// ErrInvalidGrid is returned when a grid is constructed with unusable bounds or resolution.
	ErrInvalidGrid = errors.New("invalid grid definition")
)
