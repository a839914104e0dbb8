// Package cmatrix: Householder QR decomposition and least-squares solve.

package cmatrix

import (
	"math"
	"math/cmplx"
)

// QRFactor computes an in-place Householder QR decomposition of the m×n
// matrix a.
//
// Storage on return:
//   - entries on and below the diagonal of each leading column k hold the
//     normalized reflector vector v_k (entries above the active window
//     are implicitly zero and not stored);
//   - entries strictly above the diagonal hold R's off-diagonal entries;
//   - the returned d (length min(m,n)) holds R's diagonal.
//
// The reflector direction is chosen opposite the phase of the pivot
// element to avoid catastrophic cancellation: alpha = -sign(a_kk)·‖tail‖.
// Each reflector is applied to the remaining columns as
// A := A − 2·v·(vᴴ·A) restricted to the active row window. A zero column
// tail leaves d[k] = 0 and skips the reflection.
func QRFactor(a *CMatrix) ([]complex128, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, kernelErrorf(opQR, err)
	}

	m, n := a.r, a.c
	kmax := min(m, n)
	d := make([]complex128, kmax)
	var (
		i, j, k int
		sum     complex128
	)
	for k = 0; k < kmax; k++ {
		// Norm of the active column tail a[k:m, k].
		norm := 0.0
		for i = k; i < m; i++ {
			norm = math.Hypot(norm, cmplx.Abs(a.data[i*n+k]))
		}
		if norm == 0 {
			d[k] = 0
			continue
		}

		// alpha opposite the pivot's phase; a zero pivot reflects along
		// the negative real axis.
		sign := complex(1, 0)
		if pivot := a.data[k*n+k]; pivot != 0 {
			sign = pivot / complex(cmplx.Abs(pivot), 0)
		}
		alpha := -sign * complex(norm, 0)
		d[k] = alpha

		// Build and normalize the reflector in the column tail.
		a.data[k*n+k] -= alpha
		vnorm := 0.0
		for i = k; i < m; i++ {
			vnorm = math.Hypot(vnorm, cmplx.Abs(a.data[i*n+k]))
		}
		for i = k; i < m; i++ {
			a.data[i*n+k] /= complex(vnorm, 0)
		}

		// Apply H = I − 2·v·vᴴ to the remaining columns.
		for j = k + 1; j < n; j++ {
			sum = 0
			for i = k; i < m; i++ {
				sum += cmplx.Conj(a.data[i*n+k]) * a.data[i*n+j]
			}
			sum *= 2
			for i = k; i < m; i++ {
				a.data[i*n+j] -= sum * a.data[i*n+k]
			}
		}
	}

	return d, nil
}

// QRSolve solves the overdetermined system A·X = B in the least-squares
// sense via Householder QR. A (m×n, m ≥ n) and B (m×p) are both
// destroyed: A is overwritten by its packed QR factors and B by Qᴴ·B.
// A fresh X (n×p) is returned.
//
// Errors: ErrUnderdetermined when m < n; ErrSingular when a zero R
// diagonal is met during back substitution (rank-deficient system).
func QRSolve(a, b *CMatrix) (*CMatrix, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, kernelErrorf(opQRSolve, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, kernelErrorf(opQRSolve, err)
	}
	if a.r < a.c {
		return nil, kernelErrorf(opQRSolve, ErrUnderdetermined)
	}
	if err := ValidateSameRows(a, b); err != nil {
		return nil, kernelErrorf(opQRSolve, err)
	}

	m, n, p := a.r, a.c, b.c
	d, err := QRFactor(a)
	if err != nil {
		return nil, kernelErrorf(opQRSolve, err)
	}

	// Form Qᴴ·B by applying the stored reflectors to B in order.
	var (
		i, k, col int
		sum       complex128
	)
	for k = 0; k < n; k++ {
		if d[k] == 0 {
			continue // the reflection was skipped for a zero column
		}
		for col = 0; col < p; col++ {
			sum = 0
			for i = k; i < m; i++ {
				sum += cmplx.Conj(a.data[i*n+k]) * b.data[i*p+col]
			}
			sum *= 2
			for i = k; i < m; i++ {
				b.data[i*p+col] -= sum * a.data[i*n+k]
			}
		}
	}

	// Back-substitute R·X = (Qᴴ·B)[0:n].
	x := &CMatrix{r: n, c: p, data: make([]complex128, n*p)}
	for col = 0; col < p; col++ {
		for i = n - 1; i >= 0; i-- {
			sum = b.data[i*p+col]
			for k = i + 1; k < n; k++ {
				sum -= a.data[i*n+k] * x.data[k*p+col]
			}
			if d[i] == 0 {
				return nil, kernelErrorf(opQRSolve, ErrSingular)
			}
			x.data[i*p+col] = sum / d[i]
		}
	}

	return x, nil
}
