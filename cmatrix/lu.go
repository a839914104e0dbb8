// Package cmatrix: LU factorization with row-scaled partial pivoting.

package cmatrix

import "math/cmplx"

// LUFactor computes an in-place LU factorization of the square matrix a
// using Crout's column ordering with row-scaled partial pivoting.
//
// Algorithm outline:
//  1. Record each row's largest original magnitude as its scale.
//  2. For each pivot column j: finish the U entries above the diagonal,
//     then compute the tentative diagonal/sub-diagonal column.
//  3. Select as pivot the row (among j..n-1) maximizing |value|/scale,
//     swap data, permutation and scale entries when it differs from j,
//     and divide the sub-diagonal entries by the pivot.
//
// On return a holds both factors packed in place: U on and above the
// diagonal, L strictly below it with an implicit unit diagonal. perm maps
// factored positions back to input rows: row i of the packed factors came
// from row perm[i] of the original matrix; perm is always a permutation
// of 0..n-1. det is the product of the pivots times -1 per row swap.
//
// A singular or near-singular input is not an error: det comes back
// (near) zero and the packed factors are unusable. Callers must check det
// against their own tolerance before substituting.
func LUFactor(a *CMatrix) (perm []int, det complex128, err error) {
	if err = ValidateNotNil(a); err != nil {
		return nil, 0, kernelErrorf(opLU, err)
	}
	if err = ValidateSquare(a); err != nil {
		return nil, 0, kernelErrorf(opLU, err)
	}

	n := a.r
	perm = make([]int, n)
	scale := make([]float64, n)
	for i := 0; i < n; i++ {
		perm[i] = i
		rmax := 0.0
		for j := 0; j < n; j++ {
			if v := cmplx.Abs(a.data[i*n+j]); v > rmax {
				rmax = v
			}
		}
		if rmax == 0 {
			// All-zero row: keep factoring, the determinant goes to zero.
			rmax = 1
		}
		scale[i] = rmax
	}

	det = 1
	var (
		i, j, k int
		sum     complex128
	)
	for j = 0; j < n; j++ {
		// U entries above the diagonal of column j.
		for i = 0; i < j; i++ {
			sum = a.data[i*n+j]
			for k = 0; k < i; k++ {
				sum -= a.data[i*n+k] * a.data[k*n+j]
			}
			a.data[i*n+j] = sum
		}

		// Tentative diagonal and sub-diagonal entries, tracking the row
		// with the best scaled magnitude as pivot candidate.
		best, bestMag := j, -1.0
		for i = j; i < n; i++ {
			sum = a.data[i*n+j]
			for k = 0; k < j; k++ {
				sum -= a.data[i*n+k] * a.data[k*n+j]
			}
			a.data[i*n+j] = sum
			if mag := cmplx.Abs(sum) / scale[i]; mag > bestMag {
				best, bestMag = i, mag
			}
		}

		if best != j {
			a.swapRows(best, j)
			perm[best], perm[j] = perm[j], perm[best]
			scale[best], scale[j] = scale[j], scale[best]
			det = -det
		}

		pivot := a.data[j*n+j]
		det *= pivot
		if pivot != 0 {
			for i = j + 1; i < n; i++ {
				a.data[i*n+j] /= pivot
			}
		}
	}

	return perm, det, nil
}
