package vnacal_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/vnacal"
	"github.com/vnakit/vnakit/vnadata"
)

// tvAt reads one synthetic error term, substituting the implicit unit
// us term of E12.
func tvAt(t *testing.T, lay vnacal.Layout, tv []complex128, class vnacal.TermClass, a, b int) complex128 {
	t.Helper()
	if lay.Type() == vnacal.E12 && class == vnacal.TermUs {
		return 1
	}
	idx, err := lay.TermIndex(class, a, b)
	require.NoError(t, err)

	return tv[idx]
}

// termsFor fabricates a plausible imperfect-VNA term vector at
// frequency f. Every term is distinct and varies linearly with
// frequency; the pinned terms are exactly one so solved vectors can be
// compared against the fabricated truth directly.
func termsFor(t *testing.T, lay vnacal.Layout, f float64) []complex128 {
	t.Helper()
	g := f / 1e9
	tv := make([]complex128, lay.Terms())
	set := func(class vnacal.TermClass, a, b int, v complex128) {
		idx, err := lay.TermIndex(class, a, b)
		require.NoError(t, err)
		tv[idx] = v
	}
	rows, cols := lay.Rows(), lay.Cols()
	switch lay.Type() {
	case vnacal.T8, vnacal.TE10:
		for i := 0; i < rows; i++ {
			set(vnacal.TermTs, i, 0, complex(1+0.05*float64(i+1)+0.01*g, 0.04-0.01*g))
			set(vnacal.TermTi, i, 0, complex(0.02*float64(i+1), 0.01*g))
		}
		for k := 0; k < cols; k++ {
			set(vnacal.TermTx, k, 0, complex(0.03+0.01*float64(k), -0.02+0.005*g))
		}
		for j := 0; j < cols-1; j++ {
			set(vnacal.TermTm, j, 0, complex(0.95-0.02*float64(j), 0.03+0.01*g))
		}
		set(vnacal.TermTm, cols-1, 0, 1)
	case vnacal.U8, vnacal.UE10:
		for i := 0; i < rows; i++ {
			set(vnacal.TermUm, i, 0, complex(1+0.05*float64(i+1)+0.01*g, -0.03+0.01*g))
			set(vnacal.TermUx, i, 0, complex(0.04+0.01*float64(i), 0.02-0.005*g))
		}
		for j := 0; j < cols; j++ {
			set(vnacal.TermUi, j, 0, complex(0.02+0.01*float64(j), -0.01*g))
		}
		for j := 0; j < cols-1; j++ {
			set(vnacal.TermUs, j, 0, complex(0.96-0.02*float64(j), 0.02+0.01*g))
		}
		set(vnacal.TermUs, cols-1, 0, 1)
	case vnacal.T16:
		for i := 0; i < rows; i++ {
			for k := 0; k < rows; k++ {
				if i == k {
					set(vnacal.TermTs, i, k, complex(1+0.05*float64(i+1), 0.03*g))
					set(vnacal.TermTm, i, k, complex(0.95-0.02*float64(i), 0.02+0.01*g))
					set(vnacal.TermTi, i, k, complex(0.03*float64(i+1), 0.01*g))
					set(vnacal.TermTx, i, k, complex(0.04+0.01*float64(i), -0.02))
				} else {
					set(vnacal.TermTs, i, k, complex(0.02+0.01*float64(i), 0.005*float64(k)+0.004*g))
					set(vnacal.TermTm, i, k, complex(0.015+0.008*float64(i), -0.01*float64(k+1)))
					set(vnacal.TermTi, i, k, complex(0.025+0.007*float64(k), 0.006*g))
					set(vnacal.TermTx, i, k, complex(0.018+0.006*float64(i), 0.009*float64(k)-0.003*g))
				}
			}
		}
		set(vnacal.TermTm, rows-1, rows-1, 1)
	case vnacal.U16:
		for i := 0; i < rows; i++ {
			for k := 0; k < rows; k++ {
				if i == k {
					set(vnacal.TermUm, i, k, complex(1+0.05*float64(i+1), -0.03*g))
					set(vnacal.TermUs, i, k, complex(0.96-0.02*float64(i), 0.02+0.008*g))
					set(vnacal.TermUi, i, k, complex(0.03*float64(i+1), -0.01*g))
					set(vnacal.TermUx, i, k, complex(0.035+0.01*float64(i), 0.02))
				} else {
					set(vnacal.TermUm, i, k, complex(0.02+0.009*float64(i), 0.006*float64(k)))
					set(vnacal.TermUs, i, k, complex(0.017+0.007*float64(i), -0.008*float64(k+1)+0.003*g))
					set(vnacal.TermUi, i, k, complex(0.022+0.008*float64(k), 0.005*g))
					set(vnacal.TermUx, i, k, complex(0.019+0.005*float64(i), 0.007*float64(k)))
				}
			}
		}
		set(vnacal.TermUs, rows-1, rows-1, 1)
	case vnacal.UE14, vnacal.E12:
		for j := 0; j < cols; j++ {
			for i := 0; i < rows; i++ {
				set(vnacal.TermUm, i, j, complex(1+0.04*float64(i+1)+0.02*float64(j)+0.01*g, 0.03))
				set(vnacal.TermUx, i, j, complex(0.04+0.01*float64(i)+0.005*float64(j), -0.02+0.004*g))
			}
			set(vnacal.TermUi, 0, j, complex(0.02+0.01*float64(j), 0.01*g))
			if lay.Type() == vnacal.UE14 {
				set(vnacal.TermUs, 0, j, 1)
			}
		}
	}
	if lay.Type() == vnacal.TE10 || lay.Type() == vnacal.UE10 || lay.Type() == vnacal.UE14 || lay.Type() == vnacal.E12 {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if i != j {
					set(vnacal.TermEl, i, j, complex(0.012+0.005*float64(i), -0.009+0.002*g-0.003*float64(j)))
				}
			}
		}
	}

	return tv
}

// synthMeasurement forward-models the full rows×cols measurement of a
// standard with true S matrix s (nports×nports) under error terms tv.
func synthMeasurement(t *testing.T, lay vnacal.Layout, tv []complex128, s [][]complex128) *cmatrix.CMatrix {
	t.Helper()
	rows, cols := lay.Rows(), lay.Cols()
	np := rows
	if cols > np {
		np = cols
	}
	var m *cmatrix.CMatrix
	switch lay.Type() {
	case vnacal.T8, vnacal.TE10, vnacal.T16:
		full := lay.Type() == vnacal.T16
		num, err := cmatrix.New(rows, np)
		require.NoError(t, err)
		den, err := cmatrix.New(np, np)
		require.NoError(t, err)
		for i := 0; i < rows; i++ {
			for j := 0; j < np; j++ {
				var v complex128
				if full {
					for l := 0; l < np; l++ {
						v += tvAt(t, lay, tv, vnacal.TermTs, i, l) * s[l][j]
					}
					v += tvAt(t, lay, tv, vnacal.TermTi, i, j)
				} else {
					v = tvAt(t, lay, tv, vnacal.TermTs, i, 0) * s[i][j]
					if i == j {
						v += tvAt(t, lay, tv, vnacal.TermTi, i, 0)
					}
				}
				require.NoError(t, num.Set(i, j, v))
			}
		}
		for k := 0; k < np; k++ {
			for j := 0; j < np; j++ {
				var v complex128
				if full {
					for l := 0; l < np; l++ {
						v += tvAt(t, lay, tv, vnacal.TermTx, k, l) * s[l][j]
					}
					v += tvAt(t, lay, tv, vnacal.TermTm, k, j)
				} else {
					v = tvAt(t, lay, tv, vnacal.TermTx, k, 0) * s[k][j]
					if k == j {
						v += tvAt(t, lay, tv, vnacal.TermTm, j, 0)
					}
				}
				require.NoError(t, den.Set(k, j, v))
			}
		}
		x, det, err := cmatrix.MRDivide(num, den)
		require.NoError(t, err)
		require.NotEqual(t, complex(0, 0), det)
		m = x
	case vnacal.U8, vnacal.UE10, vnacal.U16:
		full := lay.Type() == vnacal.U16
		lhs, err := cmatrix.New(np, np)
		require.NoError(t, err)
		rhs, err := cmatrix.New(np, cols)
		require.NoError(t, err)
		for i := 0; i < np; i++ {
			for k := 0; k < np; k++ {
				var v complex128
				if full {
					v = tvAt(t, lay, tv, vnacal.TermUm, i, k)
					for l := 0; l < np; l++ {
						v -= s[i][l] * tvAt(t, lay, tv, vnacal.TermUx, l, k)
					}
				} else {
					if i == k {
						v = tvAt(t, lay, tv, vnacal.TermUm, i, 0)
					}
					v -= s[i][k] * tvAt(t, lay, tv, vnacal.TermUx, k, 0)
				}
				require.NoError(t, lhs.Set(i, k, v))
			}
			for j := 0; j < cols; j++ {
				var v complex128
				if full {
					for l := 0; l < np; l++ {
						v += s[i][l] * tvAt(t, lay, tv, vnacal.TermUs, l, j)
					}
					v -= tvAt(t, lay, tv, vnacal.TermUi, i, j)
				} else {
					v = s[i][j] * tvAt(t, lay, tv, vnacal.TermUs, j, 0)
					if i == j {
						v -= tvAt(t, lay, tv, vnacal.TermUi, j, 0)
					}
				}
				require.NoError(t, rhs.Set(i, j, v))
			}
		}
		x, det, err := cmatrix.MLDivide(lhs, rhs)
		require.NoError(t, err)
		require.NotEqual(t, complex(0, 0), det)
		m = x
	case vnacal.UE14, vnacal.E12:
		var err error
		m, err = cmatrix.New(rows, cols)
		require.NoError(t, err)
		for j := 0; j < cols; j++ {
			lhs, err := cmatrix.New(np, np)
			require.NoError(t, err)
			rhs, err := cmatrix.New(np, 1)
			require.NoError(t, err)
			for i := 0; i < np; i++ {
				for k := 0; k < np; k++ {
					var v complex128
					if i == k {
						v = tvAt(t, lay, tv, vnacal.TermUm, i, j)
					}
					v -= s[i][k] * tvAt(t, lay, tv, vnacal.TermUx, k, j)
					require.NoError(t, lhs.Set(i, k, v))
				}
				v := s[i][j] * tvAt(t, lay, tv, vnacal.TermUs, 0, j)
				if i == j {
					v -= tvAt(t, lay, tv, vnacal.TermUi, 0, j)
				}
				require.NoError(t, rhs.Set(i, 0, v))
			}
			col, det, err := cmatrix.MLDivide(lhs, rhs)
			require.NoError(t, err)
			require.NotEqual(t, complex(0, 0), det)
			for i := 0; i < rows; i++ {
				v, err := col.At(i, 0)
				require.NoError(t, err)
				require.NoError(t, m.Set(i, j, v))
			}
		}
	default:
		t.Fatalf("synthMeasurement: unsupported type %v", lay.Type())
	}
	if lay.Leakages() > 0 {
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				if i == j {
					continue
				}
				v, err := m.At(i, j)
				require.NoError(t, err)
				require.NoError(t, m.Set(i, j, v+tvAt(t, lay, tv, vnacal.TermEl, i, j)))
			}
		}
	}

	return m
}

// diagS builds a full S matrix with the given reflection coefficients
// on the diagonal.
func diagS(np int, gammas ...complex128) [][]complex128 {
	s := make([][]complex128, np)
	for i := range s {
		s[i] = make([]complex128, np)
		if i < len(gammas) {
			s[i][i] = gammas[i]
		}
	}

	return s
}

// throughS builds the full S matrix of an ideal through between ports
// p1 and p2.
func throughS(np, p1, p2 int) [][]complex128 {
	s := diagS(np)
	s[p1][p2], s[p2][p1] = 1, 1

	return s
}

// lineS builds the full S matrix of a matched line with transmission
// coefficient l between ports p1 and p2.
func lineS(np, p1, p2 int, l complex128) [][]complex128 {
	s := diagS(np)
	s[p1][p2], s[p2][p1] = l, l

	return s
}

// stdData synthesizes the full measured data of a standard with true S
// matrix s across all frequencies.
func stdData(t *testing.T, lay vnacal.Layout, fs []float64, s [][]complex128) *vnadata.Data {
	t.Helper()
	d, err := vnadata.New(len(fs), lay.Rows(), lay.Cols(), vnadata.S)
	require.NoError(t, err)
	require.NoError(t, d.SetFrequencyVector(fs))
	for fi, f := range fs {
		m := synthMeasurement(t, lay, termsFor(t, lay, f), s)
		require.NoError(t, d.SetMatrix(fi, m))
	}

	return d
}

// abbrevData is stdData narrowed to the measurable cells of the given
// VNA ports, rows and columns in ascending port order.
func abbrevData(t *testing.T, lay vnacal.Layout, fs []float64, s [][]complex128, ports []int) *vnadata.Data {
	t.Helper()
	np := lay.Rows()
	if lay.Cols() > np {
		np = lay.Cols()
	}
	var ra, ca []int
	for v := 0; v < np; v++ {
		for _, pp := range ports {
			if pp != v {
				continue
			}
			if v < lay.Rows() {
				ra = append(ra, v)
			}
			if v < lay.Cols() {
				ca = append(ca, v)
			}
		}
	}
	d, err := vnadata.New(len(fs), len(ra), len(ca), vnadata.S)
	require.NoError(t, err)
	require.NoError(t, d.SetFrequencyVector(fs))
	for fi, f := range fs {
		m := synthMeasurement(t, lay, termsFor(t, lay, f), s)
		ab, err := cmatrix.New(len(ra), len(ca))
		require.NoError(t, err)
		for a, i := range ra {
			for b, j := range ca {
				v, err := m.At(i, j)
				require.NoError(t, err)
				require.NoError(t, ab.Set(a, b, v))
			}
		}
		require.NoError(t, d.SetMatrix(fi, ab))
	}

	return d
}

// assertVecClose compares complex vectors elementwise within tol.
func assertVecClose(t *testing.T, want, got []complex128, tol float64) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		d := got[i] - want[i]
		if real(d)*real(d)+imag(d)*imag(d) > tol*tol {
			t.Fatalf("element %d: want %v, got %v", i, want[i], got[i])
		}
	}
}

// assertMatrixClose compares a corrected matrix to the expected cells.
func assertMatrixClose(t *testing.T, want [][]complex128, d *vnadata.Data, fidx int, tol float64) {
	t.Helper()
	m, err := d.Matrix(fidx)
	require.NoError(t, err)
	require.Equal(t, len(want), m.Rows())
	for i := range want {
		require.Equal(t, len(want[i]), m.Cols())
		for j := range want[i] {
			v, err := m.At(i, j)
			require.NoError(t, err)
			dd := v - want[i][j]
			if real(dd)*real(dd)+imag(dd)*imag(dd) > tol*tol {
				t.Fatalf("cell (%d,%d) at %d: want %v, got %v", i, j, fidx, want[i][j], v)
			}
		}
	}
}
