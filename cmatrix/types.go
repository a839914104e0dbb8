// Package cmatrix: the CMatrix storage type and elementary operations.
// Kernels live in dedicated files (lu.go, solve.go, qr.go).

package cmatrix

import (
	"fmt"
	"math/cmplx"
)

// CMatrix is a row-major matrix of complex128 values. Row and column
// counts are carried explicitly; they are never inferred from the slice
// length alone.
type CMatrix struct {
	r, c int          // number of rows and columns
	data []complex128 // flat backing storage, length == r*c
}

// kernelErrorf wraps err with an operation tag, preserving the sentinel
// for errors.Is. Call only with err != nil.
func kernelErrorf(tag string, err error) error {
	return fmt.Errorf("%s: %w", tag, err)
}

// Operation tags for unified error wrapping.
const (
	opNew      = "New"
	opFromRows = "FromRows"
	opMul      = "Mul"
	opLU       = "LUFactor"
	opMLDiv    = "MLDivide"
	opMRDiv    = "MRDivide"
	opInverse  = "Inverse"
	opQR       = "QRFactor"
	opQRSolve  = "QRSolve"
)

// New creates a rows×cols CMatrix initialized to zeros.
func New(rows, cols int) (*CMatrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, kernelErrorf(opNew, ErrBadShape)
	}

	return &CMatrix{r: rows, c: cols, data: make([]complex128, rows*cols)}, nil
}

// Identity creates the n×n identity matrix.
func Identity(n int) (*CMatrix, error) {
	m, err := New(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		m.data[i*n+i] = 1
	}

	return m, nil
}

// FromRows builds a CMatrix from row slices. All rows must have the same
// non-zero length; the input is copied, never aliased.
func FromRows(rows [][]complex128) (*CMatrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, kernelErrorf(opFromRows, ErrBadShape)
	}
	c := len(rows[0])
	m, err := New(len(rows), c)
	if err != nil {
		return nil, err
	}
	for i, row := range rows {
		if len(row) != c {
			return nil, kernelErrorf(opFromRows, ErrBadShape)
		}
		copy(m.data[i*c:(i+1)*c], row)
	}

	return m, nil
}

// Rows returns the number of rows.
func (m *CMatrix) Rows() int { return m.r }

// Cols returns the number of columns.
func (m *CMatrix) Cols() int { return m.c }

// indexOf computes the flat index for (row, col) or returns ErrOutOfRange.
func (m *CMatrix) indexOf(row, col int) (int, error) {
	if row < 0 || row >= m.r || col < 0 || col >= m.c {
		return 0, ErrOutOfRange
	}

	return row*m.c + col, nil
}

// At retrieves the element at (row, col).
func (m *CMatrix) At(row, col int) (complex128, error) {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return 0, fmt.Errorf("At(%d,%d): %w", row, col, err)
	}

	return m.data[idx], nil
}

// Set assigns v at (row, col).
func (m *CMatrix) Set(row, col int, v complex128) error {
	idx, err := m.indexOf(row, col)
	if err != nil {
		return fmt.Errorf("Set(%d,%d): %w", row, col, err)
	}
	m.data[idx] = v

	return nil
}

// Clone returns a deep copy of m.
func (m *CMatrix) Clone() *CMatrix {
	cp := make([]complex128, len(m.data))
	copy(cp, m.data)

	return &CMatrix{r: m.r, c: m.c, data: cp}
}

// Transpose returns a new matrix with rows and columns swapped. The
// elements are not conjugated; see ConjTranspose.
func (m *CMatrix) Transpose() *CMatrix {
	t := &CMatrix{r: m.c, c: m.r, data: make([]complex128, len(m.data))}
	for i := 0; i < m.r; i++ {
		base := i * m.c
		for j := 0; j < m.c; j++ {
			t.data[j*m.r+i] = m.data[base+j]
		}
	}

	return t
}

// ConjTranspose returns the Hermitian transpose of m.
func (m *CMatrix) ConjTranspose() *CMatrix {
	t := &CMatrix{r: m.c, c: m.r, data: make([]complex128, len(m.data))}
	for i := 0; i < m.r; i++ {
		base := i * m.c
		for j := 0; j < m.c; j++ {
			t.data[j*m.r+i] = cmplx.Conj(m.data[base+j])
		}
	}

	return t
}

// String implements fmt.Stringer for debugging.
func (m *CMatrix) String() string {
	s := ""
	for i := 0; i < m.r; i++ {
		for j := 0; j < m.c; j++ {
			s += fmt.Sprintf("%v ", m.data[i*m.c+j])
		}
		s += "\n"
	}

	return s
}

// Mul performs matrix multiplication C = A × B into a fresh CMatrix.
// Deterministic i→k→j loop order on the flat slices.
func Mul(a, b *CMatrix) (*CMatrix, error) {
	if err := ValidateNotNil(a); err != nil {
		return nil, kernelErrorf(opMul, err)
	}
	if err := ValidateNotNil(b); err != nil {
		return nil, kernelErrorf(opMul, err)
	}
	if a.c != b.r {
		return nil, kernelErrorf(opMul, ErrDimensionMismatch)
	}
	res, err := New(a.r, b.c)
	if err != nil {
		return nil, kernelErrorf(opMul, err)
	}
	var i, j, k int
	var av complex128
	for i = 0; i < a.r; i++ {
		for k = 0; k < a.c; k++ {
			av = a.data[i*a.c+k]
			if av == 0 {
				continue
			}
			for j = 0; j < b.c; j++ {
				res.data[i*b.c+j] += av * b.data[k*b.c+j]
			}
		}
	}

	return res, nil
}

// swapRows exchanges rows i and j of m in place.
func (m *CMatrix) swapRows(i, j int) {
	bi, bj := i*m.c, j*m.c
	for k := 0; k < m.c; k++ {
		m.data[bi+k], m.data[bj+k] = m.data[bj+k], m.data[bi+k]
	}
}
