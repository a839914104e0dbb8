package cmatrix_test

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/vnakit/vnakit/cmatrix"
)

// randCMatrix builds an r×c matrix with uniform complex entries in the
// unit square, from the given deterministic source.
func randCMatrix(t *testing.T, rng *rand.Rand, r, c int) *cmatrix.CMatrix {
	t.Helper()
	rows := make([][]complex128, r)
	for i := range rows {
		rows[i] = make([]complex128, c)
		for j := range rows[i] {
			rows[i][j] = complex(2*rng.Float64()-1, 2*rng.Float64()-1)
		}
	}
	m, err := cmatrix.FromRows(rows)
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}

	return m
}

// wellConditioned builds I + 0.5·R for a random R, keeping the draw far
// from singular for inverse round-trip tests.
func wellConditioned(t *testing.T, rng *rand.Rand, n int) *cmatrix.CMatrix {
	t.Helper()
	m := randCMatrix(t, rng, n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			v, _ := m.At(i, j)
			if i == j {
				_ = m.Set(i, j, 1+0.5*v)
			} else {
				_ = m.Set(i, j, 0.5*v)
			}
		}
	}

	return m
}

// toCDense converts a CMatrix into a gonum CDense used as the oracle for
// matrix products in reconstruction checks.
func toCDense(t *testing.T, m *cmatrix.CMatrix) *mat.CDense {
	t.Helper()
	d := mat.NewCDense(m.Rows(), m.Cols(), nil)
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Cols(); j++ {
			v, err := m.At(i, j)
			if err != nil {
				t.Fatalf("At(%d,%d): %v", i, j, err)
			}
			d.Set(i, j, v)
		}
	}

	return d
}
