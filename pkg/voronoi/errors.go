package voronoi

import "errors"

// Common sentinel errors.
var (
	// ErrNoNeighbors indicates that a site has no neighbor candidates
	// within the tessellation distance cutoff.
	ErrNoNeighbors = errors.New("no neighbors found within distance cutoff")

	// ErrOutOfRange indicates a parameter point outside the scanned
	// (distance factor, angle factor) domain.
	ErrOutOfRange = errors.New("parameter point outside computed grid")
)
