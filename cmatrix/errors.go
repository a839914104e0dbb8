// Package cmatrix: sentinel error set.
// All kernels return these sentinels (wrapped with an operation tag at
// the facade); tests match them via errors.Is. Kernels never panic on
// caller-triggered conditions.

package cmatrix

import "errors"

var (
	// ErrNilMatrix indicates that a nil *CMatrix was passed where a value
	// is required.
	ErrNilMatrix = errors.New("cmatrix: nil matrix")

	// ErrBadShape is returned when a requested shape is invalid
	// (rows <= 0, cols <= 0, or ragged input rows).
	ErrBadShape = errors.New("cmatrix: invalid shape")

	// ErrOutOfRange indicates a row or column index outside valid bounds.
	ErrOutOfRange = errors.New("cmatrix: index out of range")

	// ErrDimensionMismatch indicates incompatible operand dimensions,
	// e.g. Mul where a.Cols != b.Rows, or solves where row counts differ.
	ErrDimensionMismatch = errors.New("cmatrix: dimension mismatch")

	// ErrNonSquare signals that a square matrix was required.
	ErrNonSquare = errors.New("cmatrix: matrix is not square")

	// ErrUnderdetermined is returned by QRSolve when the system has fewer
	// rows than unknowns (m < n).
	ErrUnderdetermined = errors.New("cmatrix: underdetermined system")

	// ErrSingular is returned when a zero diagonal is met during
	// back substitution in QRSolve (rank-deficient system). The LU-based
	// kernels signal singularity through the returned determinant instead.
	ErrSingular = errors.New("cmatrix: singular system")
)
