// Package param implements the calibration parameter store: a registry
// of standard parameters describing the reflection or transmission
// coefficient of one port of a calibration standard as a function of
// frequency.
//
// Parameter kinds:
//   - Scalar     — frequency-independent constant (ideal open = +1,
//     short = −1, match = 0);
//   - Vector     — complex values tabulated on a strictly ascending,
//     non-negative frequency list, evaluated between samples by
//     rational-function interpolation (package rfi);
//   - Unknown    — a value the calibration solver refines; wraps an
//     underlying Scalar/Vector holding the initial guess, and carries
//     the solved per-frequency estimates after a successful solve;
//   - Correlated — an Unknown that additionally carries an uncertainty
//     (sigma) versus frequency, used to weight its prior in the solver.
//
// Each kind is an unexported value implementation behind the Parameter
// handle, so illegal states (a Scalar with a frequency vector) are
// unrepresentable.
//
// Lifecycle: parameters are reference counted. The store holds one
// reference from creation; users of a parameter call Hold/Release around
// their use; Delete marks the parameter deleted and drops the store's
// reference. Storage is reclaimed when the hold count reaches zero AND
// the parameter is marked deleted. A hold-count underflow or any use of
// a freed parameter is a programming-contract violation and panics.
//
// Every store carries the permanent singletons Match (0), Open (+1) and
// Short (−1); they cannot be deleted.
package param
