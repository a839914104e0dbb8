// Package vnadata: sentinel error set, matched via errors.Is.

package vnadata

import "errors"

var (
	// ErrBadShape is returned for non-positive dimensions.
	ErrBadShape = errors.New("vnadata: invalid shape")

	// ErrOutOfRange indicates a frequency, row or column index outside
	// valid bounds.
	ErrOutOfRange = errors.New("vnadata: index out of range")

	// ErrDimensionMismatch indicates a vector or matrix of the wrong size
	// for this container.
	ErrDimensionMismatch = errors.New("vnadata: dimension mismatch")

	// ErrNotAscending indicates a frequency vector that is not strictly
	// ascending or starts below zero.
	ErrNotAscending = errors.New("vnadata: frequencies must be ascending and non-negative")

	// ErrZ0Mode indicates a reference-impedance accessor used in the
	// wrong mode (global vs per-frequency) or a conversion that would
	// lose information.
	ErrZ0Mode = errors.New("vnadata: wrong reference-impedance mode")
)
