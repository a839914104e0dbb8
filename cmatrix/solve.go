// Package cmatrix: left/right matrix division and inversion on top of the
// LU kernel.

package cmatrix

// MLDivide solves A·X = B for X. A must be square (m×m) and is destroyed:
// its storage is overwritten by the packed LU factors. B (m×n) is left
// untouched; a fresh X (m×n) is returned.
//
// The determinant of A is returned as a side product so callers can
// detect singular systems: a (near-)zero determinant means X holds
// garbage (NaN/Inf from the zero pivots) and must not be used. No error
// is raised for singularity; errors cover shape problems only.
func MLDivide(a, b *CMatrix) (x *CMatrix, det complex128, err error) {
	if err = ValidateNotNil(a); err != nil {
		return nil, 0, kernelErrorf(opMLDiv, err)
	}
	if err = ValidateNotNil(b); err != nil {
		return nil, 0, kernelErrorf(opMLDiv, err)
	}
	if err = ValidateSquare(a); err != nil {
		return nil, 0, kernelErrorf(opMLDiv, err)
	}
	if err = ValidateSameRows(a, b); err != nil {
		return nil, 0, kernelErrorf(opMLDiv, err)
	}

	perm, det, err := LUFactor(a)
	if err != nil {
		return nil, 0, kernelErrorf(opMLDiv, err)
	}

	n, p := a.r, b.c
	x = &CMatrix{r: n, c: p, data: make([]complex128, n*p)}
	y := make([]complex128, n)
	var (
		i, k, col int
		sum       complex128
	)
	for col = 0; col < p; col++ {
		// Forward: L·y = P·b (the permutation applied through perm).
		for i = 0; i < n; i++ {
			sum = b.data[perm[i]*p+col]
			for k = 0; k < i; k++ {
				sum -= a.data[i*n+k] * y[k]
			}
			y[i] = sum
		}
		// Back: U·x = y.
		for i = n - 1; i >= 0; i-- {
			sum = y[i]
			for k = i + 1; k < n; k++ {
				sum -= a.data[i*n+k] * x.data[k*p+col]
			}
			x.data[i*p+col] = sum / a.data[i*n+i]
		}
	}

	return x, det, nil
}

// MRDivide solves X·A = B for X, given B (m×n) and A (n×n). It works on
// the transposed problem Aᵀ·Xᵀ = Bᵀ and produces results numerically
// identical to solving that system with MLDivide. A and B are preserved;
// the factorization destroys internal transposed copies.
func MRDivide(b, a *CMatrix) (x *CMatrix, det complex128, err error) {
	if err = ValidateNotNil(b); err != nil {
		return nil, 0, kernelErrorf(opMRDiv, err)
	}
	if err = ValidateNotNil(a); err != nil {
		return nil, 0, kernelErrorf(opMRDiv, err)
	}
	if err = ValidateSquare(a); err != nil {
		return nil, 0, kernelErrorf(opMRDiv, err)
	}
	if b.c != a.r {
		return nil, 0, kernelErrorf(opMRDiv, ErrDimensionMismatch)
	}

	xt, det, err := MLDivide(a.Transpose(), b.Transpose())
	if err != nil {
		return nil, 0, kernelErrorf(opMRDiv, err)
	}

	return xt.Transpose(), det, nil
}

// Inverse computes A⁻¹ as the special case of MLDivide with B = I.
// A is destroyed. The determinant is returned for singularity checks,
// with the same contract as MLDivide.
func Inverse(a *CMatrix) (inv *CMatrix, det complex128, err error) {
	if err = ValidateNotNil(a); err != nil {
		return nil, 0, kernelErrorf(opInverse, err)
	}
	if err = ValidateSquare(a); err != nil {
		return nil, 0, kernelErrorf(opInverse, err)
	}

	eye, err := Identity(a.r)
	if err != nil {
		return nil, 0, kernelErrorf(opInverse, err)
	}

	return MLDivide(a, eye)
}
