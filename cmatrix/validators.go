// Package cmatrix: canonical validation helpers. Validators return plain
// sentinels; call sites wrap them with an operation tag via kernelErrorf.

package cmatrix

// ValidateNotNil ensures the matrix reference is non-nil.
func ValidateNotNil(m *CMatrix) error {
	if m == nil {
		return ErrNilMatrix
	}

	return nil
}

// ValidateSquare checks that m is square. Assumes m is not nil.
func ValidateSquare(m *CMatrix) error {
	if m.r != m.c {
		return ErrNonSquare
	}

	return nil
}

// ValidateSameRows ensures a and b have the same row count (solve
// compatibility). Assumes both are not nil.
func ValidateSameRows(a, b *CMatrix) error {
	if a.r != b.r {
		return ErrDimensionMismatch
	}

	return nil
}
