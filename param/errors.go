// Package param: sentinel error set, matched via errors.Is.

package param

import "errors"

var (
	// ErrBadInput indicates nil or length-mismatched inputs to a
	// constructor or SetSolved.
	ErrBadInput = errors.New("param: invalid input")

	// ErrNotAscending indicates a frequency vector that is not strictly
	// ascending or starts below zero.
	ErrNotAscending = errors.New("param: frequencies must be ascending and non-negative")

	// ErrNotUnknown is returned when SetSolved is called on a parameter
	// that is neither Unknown nor Correlated.
	ErrNotUnknown = errors.New("param: parameter has no solvable value")

	// ErrNotCorrelated is returned when SigmaAt is called on a parameter
	// without uncertainty data.
	ErrNotCorrelated = errors.New("param: parameter has no sigma")

	// ErrPermanent is returned when deleting one of the predefined
	// Match/Open/Short singletons.
	ErrPermanent = errors.New("param: predefined parameter cannot be deleted")
)
