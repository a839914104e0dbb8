package vnadata_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/vnadata"
)

// TestNew_Defaults verifies shape validation and the default global z0.
func TestNew_Defaults(t *testing.T) {
	_, err := vnadata.New(0, 2, 2, vnadata.S)
	assert.ErrorIs(t, err, vnadata.ErrBadShape)

	d, err := vnadata.New(3, 2, 2, vnadata.S)
	require.NoError(t, err)
	assert.Equal(t, 3, d.Frequencies())
	assert.Equal(t, vnadata.S, d.Type())

	z0, err := d.Z0Vector()
	require.NoError(t, err)
	assert.Equal(t, []complex128{50, 50}, z0)
}

// TestCell_RoundTrip exercises cell get/set and bounds checks.
func TestCell_RoundTrip(t *testing.T) {
	d, err := vnadata.New(2, 2, 3, vnadata.S)
	require.NoError(t, err)

	require.NoError(t, d.SetCell(1, 0, 2, 0.5-0.5i))
	v, err := d.Cell(1, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.5-0.5i, v)

	_, err = d.Cell(2, 0, 0)
	assert.ErrorIs(t, err, vnadata.ErrOutOfRange)
	err = d.SetCell(0, 2, 0, 1)
	assert.ErrorIs(t, err, vnadata.ErrOutOfRange)
}

// TestMatrix_RoundTrip copies a whole per-frequency matrix in and out.
func TestMatrix_RoundTrip(t *testing.T) {
	d, err := vnadata.New(2, 2, 2, vnadata.S)
	require.NoError(t, err)
	m, err := cmatrix.FromRows([][]complex128{{1, 2i}, {3, 4}})
	require.NoError(t, err)

	require.NoError(t, d.SetMatrix(1, m))
	got, err := d.Matrix(1)
	require.NoError(t, err)
	v, err := got.At(0, 1)
	require.NoError(t, err)
	assert.Equal(t, 2i, v)

	// Frequency 0 stays untouched.
	v, err = d.Cell(0, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, complex128(0), v)

	wrong, err := cmatrix.New(3, 2)
	require.NoError(t, err)
	assert.ErrorIs(t, d.SetMatrix(0, wrong), vnadata.ErrDimensionMismatch)
}

// TestResize_RowAndFrequencyPreserved checks value-preserving resizes.
func TestResize_RowAndFrequencyPreserved(t *testing.T) {
	d, err := vnadata.New(2, 2, 2, vnadata.S)
	require.NoError(t, err)
	require.NoError(t, d.SetCell(1, 1, 1, 7i))

	// Grow rows and frequencies: old cells keep their coordinates.
	require.NoError(t, d.Resize(3, 3, 2))
	v, err := d.Cell(1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 7i, v)
	v, err = d.Cell(2, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, complex128(0), v, "new cells zero-filled")
}

// TestResize_ColumnCountDoesNotReindex pins the documented surprising
// behavior: cells keep their flat offset when the column count changes,
// so their (row, col) coordinates shift.
func TestResize_ColumnCountDoesNotReindex(t *testing.T) {
	d, err := vnadata.New(1, 2, 2, vnadata.S)
	require.NoError(t, err)
	// Flat layout before: (0,0) (0,1) (1,0) (1,1).
	require.NoError(t, d.SetCell(0, 1, 0, 3+0i)) // flat offset 2

	require.NoError(t, d.Resize(1, 2, 3))
	// Flat offset 2 is now coordinate (0, 2).
	v, err := d.Cell(0, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3+0i, v)
	v, err = d.Cell(0, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, complex128(0), v)
}

// TestFrequencyVector_Validation enforces ascending non-negative order.
func TestFrequencyVector_Validation(t *testing.T) {
	d, err := vnadata.New(3, 1, 1, vnadata.S)
	require.NoError(t, err)

	assert.ErrorIs(t, d.SetFrequencyVector([]float64{1, 2}), vnadata.ErrDimensionMismatch)
	assert.ErrorIs(t, d.SetFrequencyVector([]float64{2, 1, 3}), vnadata.ErrNotAscending)
	assert.ErrorIs(t, d.SetFrequencyVector([]float64{-1, 1, 2}), vnadata.ErrNotAscending)

	require.NoError(t, d.SetFrequencyVector([]float64{1e9, 2e9, 3e9}))
	f, err := d.Frequency(1)
	require.NoError(t, err)
	assert.Equal(t, 2e9, f)

	require.NoError(t, d.SetFrequency(1, 2.5e9))
	f, err = d.Frequency(1)
	require.NoError(t, err)
	assert.Equal(t, 2.5e9, f)
}

// TestZ0_Modes walks the global/per-frequency mode state machine and the
// lossless-conversion rule.
func TestZ0_Modes(t *testing.T) {
	d, err := vnadata.New(2, 2, 2, vnadata.S)
	require.NoError(t, err)

	// Global mode accessors work; per-frequency ones do not.
	require.NoError(t, d.SetZ0Vector([]complex128{75, 50}))
	_, err = d.Z0VectorAt(0)
	assert.ErrorIs(t, err, vnadata.ErrZ0Mode)

	// Convert to per-frequency: every frequency starts with the global
	// vector.
	require.NoError(t, d.ConvertToPerFrequencyZ0())
	_, err = d.Z0Vector()
	assert.ErrorIs(t, err, vnadata.ErrZ0Mode)
	z, err := d.Z0VectorAt(1)
	require.NoError(t, err)
	assert.Equal(t, []complex128{75, 50}, z)

	// Diverging vectors block the conversion back.
	require.NoError(t, d.SetZ0VectorAt(1, []complex128{75, 42}))
	assert.ErrorIs(t, d.ConvertToGlobalZ0(), vnadata.ErrZ0Mode)

	// Restoring uniformity allows it.
	require.NoError(t, d.SetZ0VectorAt(1, []complex128{75, 50}))
	require.NoError(t, d.ConvertToGlobalZ0())
	z, err = d.Z0Vector()
	require.NoError(t, err)
	assert.Equal(t, []complex128{75, 50}, z)
}

// TestFormats_RoundTrip covers the save-layer format list accessors.
func TestFormats_RoundTrip(t *testing.T) {
	d, err := vnadata.New(1, 1, 1, vnadata.Zin)
	require.NoError(t, err)

	d.SetFormats([]string{"ri", "db"})
	assert.Equal(t, []string{"ri", "db"}, d.Formats())
	assert.Equal(t, "Zin", d.Type().String())
}
