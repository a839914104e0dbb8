package rfi_test

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnakit/vnakit/rfi"
)

// TestEval_KnotHitsAreExact verifies that evaluating exactly at a sample
// point returns the tabulated value bit for bit.
func TestEval_KnotHitsAreExact(t *testing.T) {
	xs := []float64{1e9, 2e9, 3e9, 4e9}
	ys := []complex128{1 + 1i, 2 - 1i, -0.5, 0.25i}

	for i, x := range xs {
		got, err := rfi.Eval(xs, ys, x, nil)
		require.NoError(t, err)
		assert.Equal(t, ys[i], got, "knot %d", i)
	}
}

// TestEval_RationalRecovery interpolates samples of 1/(2-x) and expects
// the rational interpolant to reproduce the function closely between
// knots, where a cubic polynomial would visibly deviate.
func TestEval_RationalRecovery(t *testing.T) {
	f := func(x float64) complex128 { return complex(1/(2-x), 0) }
	xs := []float64{0, 0.25, 0.5, 0.75, 1.0, 1.25}
	ys := make([]complex128, len(xs))
	for i, x := range xs {
		ys[i] = f(x)
	}

	for _, x := range []float64{0.1, 0.6, 1.1} {
		got, err := rfi.Eval(xs, ys, x, nil)
		require.NoError(t, err)
		assert.InDelta(t, 0, cmplx.Abs(got-f(x)), 1e-6, "x=%v", x)
	}
}

// TestEval_CursorConsistency checks that sweeping with a persistent
// cursor yields the same values as fresh evaluations.
func TestEval_CursorConsistency(t *testing.T) {
	xs := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	ys := make([]complex128, len(xs))
	for i := range ys {
		ys[i] = complex(float64(i*i), float64(i))
	}

	cursor := 0
	for x := 1.0; x <= 8.0; x += 0.37 {
		withCursor, err := rfi.Eval(xs, ys, x, &cursor)
		require.NoError(t, err)
		fresh, err := rfi.Eval(xs, ys, x, nil)
		require.NoError(t, err)
		assert.Equal(t, fresh, withCursor, "x=%v", x)
	}
}

// TestEval_OutOfRange rejects extrapolation on both sides.
func TestEval_OutOfRange(t *testing.T) {
	xs := []float64{1, 2}
	ys := []complex128{1, 2}

	_, err := rfi.Eval(xs, ys, 0.5, nil)
	assert.ErrorIs(t, err, rfi.ErrOutOfRange)
	_, err = rfi.Eval(xs, ys, 2.5, nil)
	assert.ErrorIs(t, err, rfi.ErrOutOfRange)
}

// TestEval_InputValidation covers empty, mismatched and non-ascending
// sample sets.
func TestEval_InputValidation(t *testing.T) {
	_, err := rfi.Eval(nil, nil, 0, nil)
	assert.ErrorIs(t, err, rfi.ErrBadInput)

	_, err = rfi.Eval([]float64{1, 2}, []complex128{1}, 1.5, nil)
	assert.ErrorIs(t, err, rfi.ErrBadInput)

	_, err = rfi.Eval([]float64{1, 1}, []complex128{1, 2}, 1, nil)
	assert.ErrorIs(t, err, rfi.ErrNotAscending)
}

// TestEval_SinglePoint allows a one-sample table only at its own x.
func TestEval_SinglePoint(t *testing.T) {
	got, err := rfi.Eval([]float64{5}, []complex128{3 - 2i}, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, 3-2i, got)

	_, err = rfi.Eval([]float64{5}, []complex128{3 - 2i}, 5.1, nil)
	assert.ErrorIs(t, err, rfi.ErrOutOfRange)
}
