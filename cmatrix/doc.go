// Package cmatrix provides dense complex linear-algebra kernels for
// VNA calibration work: LU factorization with row-scaled partial
// pivoting, forward/back substitution (left and right matrix division),
// matrix inversion, Householder QR decomposition and QR-based
// least-squares solving.
//
// ✨ Key properties:
//   - all kernels operate on IEEE double-precision complex numbers
//     (complex128), row-major flat storage;
//   - destructive contracts are explicit: LUFactor, QRFactor, MLDivide
//     and QRSolve overwrite their inputs and say so in their docs;
//   - singularity is reported through the returned determinant, never
//     through a panic — a (near-)zero determinant means the factors are
//     unusable and the caller decides the tolerance;
//   - deterministic loop orders: identical inputs produce bit-identical
//     results across runs.
//
// The package targets modest sizes (tens of rows/columns) factored many
// times, once per frequency point. There is no sparse storage, no
// iterative refinement and no internal parallelism.
//
// ⚙️ Usage:
//
//	a, _ := cmatrix.FromRows([][]complex128{{2, 1}, {1, 3}})
//	b, _ := cmatrix.FromRows([][]complex128{{1}, {0}})
//	x, det, err := cmatrix.MLDivide(a, b) // a is destroyed
//
// All fallible operations return sentinel errors from errors.go; match
// them with errors.Is.
package cmatrix
