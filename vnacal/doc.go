// Package vnacal derives and applies vector network analyzer error
// corrections.
//
// A Session accumulates measurements of calibration standards against a
// chosen error-term family (T8, U8, TE10, UE10, T16, U16, UE14 or E12)
// and solves for the per-frequency error terms by iterative linearized
// least squares. The result is an immutable Calibration that the apply
// engine uses to correct raw DUT measurements into true S-parameters,
// interpolating error terms between calibrated frequencies.
//
// Standards may carry unknown or correlated parameters from a
// param.Store; the solver estimates those alongside the error terms and
// writes the estimates back into the store. An optional measurement
// error model weights the equations and gates the solution on a
// chi-squared p-value test.
//
// Calibrations are grouped in a Set, addressable by handle or name,
// each carrying a hierarchical string property tree for user metadata.
package vnacal
