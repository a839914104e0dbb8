// Package vnacal: sentinel error set and the error-callback surface.
// All operations return these sentinels (possibly wrapped with context);
// tests match them via errors.Is. Usage and domain errors never panic;
// internal contract violations (use of a freed session, corrupted state)
// do.

package vnacal

import (
	"errors"

	"github.com/vnakit/vnakit/cmatrix"
)

// Usage errors: caller-fixable, never retried internally.
var (
	// ErrBadType indicates an unsupported calibration family or a family
	// incompatible with the requested dimensions.
	ErrBadType = errors.New("vnacal: invalid calibration type")

	// ErrBadDimensions indicates non-positive or incompatible row/column
	// counts, or a measurement matrix of the wrong size.
	ErrBadDimensions = errors.New("vnacal: invalid dimensions")

	// ErrBadPort indicates a port number outside the VNA dimensions or a
	// duplicate entry in a port map.
	ErrBadPort = errors.New("vnacal: invalid port")

	// ErrBadFrequency indicates an unset, misordered or negative
	// frequency vector, or evaluation outside the calibrated range.
	ErrBadFrequency = errors.New("vnacal: invalid frequency")

	// ErrBadArgument indicates a nil or malformed required argument.
	ErrBadArgument = errors.New("vnacal: invalid argument")

	// ErrNotFound indicates an unknown calibration handle or name.
	ErrNotFound = errors.New("vnacal: calibration not found")
)

// Domain errors: the data cannot support a solution; the session remains
// valid, the caller may add more standards and retry.
var (
	// ErrInsufficientStandards indicates fewer equations than unknowns.
	ErrInsufficientStandards = errors.New("vnacal: insufficient calibration standards")

	// ErrSingular indicates a singular or rank-deficient system.
	ErrSingular = errors.New("vnacal: singular system")

	// ErrConvergence indicates the iteration limit was reached before
	// the error terms and unknown parameters settled.
	ErrConvergence = errors.New("vnacal: failed to converge")

	// ErrPValue indicates the solved residuals are inconsistent with the
	// declared measurement-error model.
	ErrPValue = errors.New("vnacal: measurements inconsistent with error model")

	// ErrCoverage indicates a DUT S-parameter cell not covered by any
	// correction equation.
	ErrCoverage = errors.New("vnacal: s-parameter cell not covered by measurements")
)

// Category classifies a failure for the error callback.
type Category int

// Failure categories, mirroring the library-wide error taxonomy.
const (
	CategoryUsage Category = iota
	CategorySystem
	CategoryDomain
	CategorySyntax
	CategoryInternal
)

var categoryNames = [...]string{"usage", "system", "domain", "syntax", "internal"}

// String implements fmt.Stringer.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}

	return categoryNames[c]
}

// ErrorFunc observes every failure path of a session or registry, in
// addition to the returned error. It must not retain msg beyond the
// call.
type ErrorFunc func(category Category, msg string)

// categoryFor classifies err for the error callback: domain sentinels
// map to CategoryDomain, everything else is a usage error.
func categoryFor(err error) Category {
	domain := []error{
		ErrInsufficientStandards, ErrSingular, ErrConvergence, ErrPValue, ErrCoverage,
		cmatrix.ErrSingular, cmatrix.ErrUnderdetermined,
	}
	for _, d := range domain {
		if errors.Is(err, d) {
			return CategoryDomain
		}
	}

	return CategoryUsage
}
