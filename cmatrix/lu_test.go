package cmatrix_test

import (
	"math/cmplx"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"
	"gonum.org/v1/gonum/mat"

	"github.com/vnakit/vnakit/cmatrix"
)

// reconstructTol is the relative tolerance for factor reconstruction.
const reconstructTol = 1e-4

// TestLUFactor_Reconstruction verifies that unpacking the in-place factors
// and multiplying L·U reproduces the permuted rows of the original matrix
// for several sizes, skipping near-singular draws.
func TestLUFactor_Reconstruction(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, n := range []int{1, 2, 3, 10} {
		for trial := 0; trial < 5; trial++ {
			orig := randCMatrix(t, rng, n, n)
			packed := orig.Clone()
			perm, det, err := cmatrix.LUFactor(packed)
			require.NoError(t, err, "n=%d", n)
			if cmplx.Abs(det) <= reconstructTol {
				continue // near-singular draw, factors unusable per contract
			}

			// Unpack L (unit diagonal) and U from the shared storage.
			l, err := cmatrix.Identity(n)
			require.NoError(t, err)
			u, err := cmatrix.New(n, n)
			require.NoError(t, err)
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					v, aerr := packed.At(i, j)
					require.NoError(t, aerr)
					if j < i {
						require.NoError(t, l.Set(i, j, v))
					} else {
						require.NoError(t, u.Set(i, j, v))
					}
				}
			}

			// Oracle product via gonum.
			lc, uc := toCDense(t, l), toCDense(t, u)
			prod := mat.NewCDense(n, n, nil)
			cblas128.Gemm(blas.NoTrans, blas.NoTrans, 1,
				lc.RawCMatrix(), uc.RawCMatrix(), 0, prod.RawCMatrix())

			// Row i of L·U must match row perm[i] of the original.
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					want, aerr := orig.At(perm[i], j)
					require.NoError(t, aerr)
					got := prod.At(i, j)
					assert.InDelta(t, 0, cmplx.Abs(got-want), reconstructTol,
						"n=%d row %d col %d", n, i, j)
				}
			}
		}
	}
}

// TestLUFactor_PermutationInvariant checks that the returned permutation
// vector is always a permutation of 0..n-1.
func TestLUFactor_PermutationInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	for _, n := range []int{1, 3, 10} {
		perm, _, err := cmatrix.LUFactor(randCMatrix(t, rng, n, n))
		require.NoError(t, err)
		require.Len(t, perm, n)
		seen := make([]bool, n)
		for _, p := range perm {
			require.GreaterOrEqual(t, p, 0)
			require.Less(t, p, n)
			assert.False(t, seen[p], "duplicate permutation entry %d", p)
			seen[p] = true
		}
	}
}

// TestLUFactor_SingularDeterminant verifies that a rank-deficient matrix
// reports a (near-)zero determinant instead of an error.
func TestLUFactor_SingularDeterminant(t *testing.T) {
	m, err := cmatrix.FromRows([][]complex128{
		{1, 2, 3},
		{2, 4, 6}, // 2× row 0
		{0, 1, 1},
	})
	require.NoError(t, err)

	_, det, err := cmatrix.LUFactor(m)
	require.NoError(t, err, "singularity is not an error")
	assert.InDelta(t, 0, cmplx.Abs(det), 1e-12)
}

// TestLUFactor_ShapeErrors verifies nil and non-square rejection.
func TestLUFactor_ShapeErrors(t *testing.T) {
	_, _, err := cmatrix.LUFactor(nil)
	assert.ErrorIs(t, err, cmatrix.ErrNilMatrix)

	rect, err := cmatrix.New(2, 3)
	require.NoError(t, err)
	_, _, err = cmatrix.LUFactor(rect)
	assert.ErrorIs(t, err, cmatrix.ErrNonSquare)
}

// TestLUFactor_Determinism verifies that repeated factorizations of the
// same input produce bit-identical determinants and permutations.
func TestLUFactor_Determinism(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	orig := randCMatrix(t, rng, 6, 6)

	perm1, det1, err := cmatrix.LUFactor(orig.Clone())
	require.NoError(t, err)
	perm2, det2, err := cmatrix.LUFactor(orig.Clone())
	require.NoError(t, err)

	assert.Equal(t, perm1, perm2)
	assert.Equal(t, det1, det2)
}
