package cmatrix_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnakit/vnakit/cmatrix"
)

// assertClose fails unless got ≈ want elementwise within reconstructTol.
func assertClose(t *testing.T, want, got *cmatrix.CMatrix) {
	t.Helper()
	require.Equal(t, want.Rows(), got.Rows())
	require.Equal(t, want.Cols(), got.Cols())
	for i := 0; i < want.Rows(); i++ {
		for j := 0; j < want.Cols(); j++ {
			w, err := want.At(i, j)
			require.NoError(t, err)
			g, err := got.At(i, j)
			require.NoError(t, err)
			assert.InDelta(t, 0, cmplx.Abs(g-w), reconstructTol, "(%d,%d)", i, j)
		}
	}
}

// TestMLDivide_RoundTrip solves A·X = A·T for random A and T and expects
// to recover T, skipping near-singular draws of A.
func TestMLDivide_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(10))
	for _, dims := range [][2]int{{1, 1}, {2, 3}, {3, 2}, {5, 5}} {
		n, p := dims[0], dims[1]
		for trial := 0; trial < 5; trial++ {
			a := randCMatrix(t, rng, n, n)
			want := randCMatrix(t, rng, n, p)
			b, err := cmatrix.Mul(a, want)
			require.NoError(t, err)

			got, det, err := cmatrix.MLDivide(a.Clone(), b)
			require.NoError(t, err)
			if cmplx.Abs(det) <= reconstructTol {
				continue
			}
			assertClose(t, want, got)
		}
	}
}

// TestMLDivide_DestroysA documents the in-place contract: the A argument
// holds the packed factors after the call, not the original values.
func TestMLDivide_DestroysA(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	a := randCMatrix(t, rng, 3, 3)
	saved := a.Clone()
	b := randCMatrix(t, rng, 3, 1)

	_, _, err := cmatrix.MLDivide(a, b)
	require.NoError(t, err)

	changed := false
	for i := 0; i < 3 && !changed; i++ {
		for j := 0; j < 3 && !changed; j++ {
			sv, _ := saved.At(i, j)
			av, _ := a.At(i, j)
			changed = sv != av
		}
	}
	assert.True(t, changed, "A must be overwritten by the factorization")
}

// TestMRDivide_RoundTrip solves X·A = T·A for random A and T and expects
// to recover T.
func TestMRDivide_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	for _, dims := range [][2]int{{1, 1}, {2, 2}, {3, 4}} {
		p, n := dims[0], dims[1]
		for trial := 0; trial < 5; trial++ {
			a := randCMatrix(t, rng, n, n)
			want := randCMatrix(t, rng, p, n)
			b, err := cmatrix.Mul(want, a)
			require.NoError(t, err)

			got, det, err := cmatrix.MRDivide(b, a)
			require.NoError(t, err)
			if cmplx.Abs(det) <= reconstructTol {
				continue
			}
			assertClose(t, want, got)
		}
	}
}

// TestMRDivide_MatchesTransposedProblem pins the contract that MRDivide
// is numerically identical to solving Aᵀ·Xᵀ = Bᵀ with MLDivide.
func TestMRDivide_MatchesTransposedProblem(t *testing.T) {
	rng := rand.New(rand.NewSource(13))
	a := randCMatrix(t, rng, 4, 4)
	b := randCMatrix(t, rng, 3, 4)

	viaRight, detR, err := cmatrix.MRDivide(b, a)
	require.NoError(t, err)
	viaLeft, detL, err := cmatrix.MLDivide(a.Transpose(), b.Transpose())
	require.NoError(t, err)

	assert.Equal(t, detL, detR)
	lt := viaLeft.Transpose()
	require.Equal(t, lt.Rows(), viaRight.Rows())
	for i := 0; i < lt.Rows(); i++ {
		for j := 0; j < lt.Cols(); j++ {
			lv, _ := lt.At(i, j)
			rv, _ := viaRight.At(i, j)
			assert.Equal(t, lv, rv, "(%d,%d) must match bit for bit", i, j)
		}
	}
}

// TestInverse_RoundTrip checks A·A⁻¹ ≈ I for well-conditioned draws of
// sizes 1, 2, 3 and 5.
func TestInverse_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(14))
	for _, n := range []int{1, 2, 3, 5} {
		a := wellConditioned(t, rng, n)
		inv, det, err := cmatrix.Inverse(a.Clone())
		require.NoError(t, err)
		require.Greater(t, cmplx.Abs(det), reconstructTol)

		prod, err := cmatrix.Mul(a, inv)
		require.NoError(t, err)
		eye, err := cmatrix.Identity(n)
		require.NoError(t, err)
		assertClose(t, eye, prod)
	}
}

// TestSolve_ShapeErrors exercises the usage-error paths of the division
// kernels.
func TestSolve_ShapeErrors(t *testing.T) {
	sq, err := cmatrix.New(2, 2)
	require.NoError(t, err)
	rect, err := cmatrix.New(2, 3)
	require.NoError(t, err)
	tall, err := cmatrix.New(3, 2)
	require.NoError(t, err)

	_, _, err = cmatrix.MLDivide(nil, sq)
	assert.ErrorIs(t, err, cmatrix.ErrNilMatrix)
	_, _, err = cmatrix.MLDivide(rect, sq)
	assert.ErrorIs(t, err, cmatrix.ErrNonSquare)
	_, _, err = cmatrix.MLDivide(sq.Clone(), tall)
	assert.ErrorIs(t, err, cmatrix.ErrDimensionMismatch)
	_, _, err = cmatrix.MRDivide(rect, sq)
	assert.ErrorIs(t, err, cmatrix.ErrDimensionMismatch)
	_, _, err = cmatrix.Inverse(rect)
	assert.ErrorIs(t, err, cmatrix.ErrNonSquare)
}
