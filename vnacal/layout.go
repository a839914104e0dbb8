package vnacal

import "fmt"

// CalType selects the error-term model of a calibration.
type CalType int

// Supported calibration families. T families place the unknown error
// boxes on the measurement side (rows ≤ columns); U families place them
// on the reference side (rows ≥ columns). The *E10 variants add
// off-diagonal leakage terms, UE14 solves one independent system per
// driven column, and E12 is the UE14 solution reformatted into the
// classic twelve-term layout.
const (
	T8 CalType = iota
	U8
	TE10
	UE10
	T16
	U16
	UE14
	E12
)

var calTypeNames = [...]string{"T8", "U8", "TE10", "UE10", "T16", "U16", "UE14", "E12"}

// String implements fmt.Stringer.
func (t CalType) String() string {
	if t < 0 || int(t) >= len(calTypeNames) {
		return "invalid"
	}

	return calTypeNames[t]
}

// Layout describes how the error terms of one calibration family, at
// given VNA dimensions, pack into a flat per-frequency vector. The
// packing order is fixed per family:
//
//	T8/TE10:  ts[rows], ti[rows], tx[cols], tm[cols], el[off-diagonal]
//	U8/UE10:  um[rows], ui[cols], ux[rows], us[cols], el[off-diagonal]
//	T16:      Ts, Ti, Tx, Tm (each rows×rows, row-major; rows == cols)
//	U16:      Um, Ui, Ux, Us (each rows×rows, row-major; rows == cols)
//	UE14:     per column j: um[rows], ui, ux[rows], us, el[rows-1]
//	E12:      per column j: um[rows], ux[rows], ui, el[rows-1]
//
// Leakage (el) entries cover the off-diagonal cells in row-major order,
// skipping the diagonal; the per-column families store only the entries
// of their own column.
type Layout struct {
	typ        CalType
	rows, cols int
	terms      int
	free       int
	leakages   int
}

// NewLayout validates the family against the VNA dimensions and returns
// the term layout. T families require rows ≤ cols, U families (and
// UE14/E12) require rows ≥ cols, and the sixteen-term families require
// square dimensions with full port coverage.
func NewLayout(typ CalType, rows, cols int) (Layout, error) {
	if rows < 1 || cols < 1 {
		return Layout{}, fmt.Errorf("NewLayout: %dx%d: %w", rows, cols, ErrBadDimensions)
	}
	l := Layout{typ: typ, rows: rows, cols: cols}
	off := rows*cols - minInt(rows, cols)
	switch typ {
	case T8, TE10:
		if rows > cols {
			return Layout{}, fmt.Errorf("NewLayout: %v requires rows <= cols: %w", typ, ErrBadDimensions)
		}
		l.terms, l.free = 2*rows+2*cols, 1
		if typ == TE10 {
			l.terms += off
			l.leakages = off
		}
	case U8, UE10:
		if rows < cols {
			return Layout{}, fmt.Errorf("NewLayout: %v requires rows >= cols: %w", typ, ErrBadDimensions)
		}
		l.terms, l.free = 2*rows+2*cols, 1
		if typ == UE10 {
			l.terms += off
			l.leakages = off
		}
	case T16, U16:
		if rows != cols {
			return Layout{}, fmt.Errorf("NewLayout: %v requires square dimensions: %w", typ, ErrBadDimensions)
		}
		l.terms, l.free = 4*rows*rows, 1
	case UE14:
		if rows < cols {
			return Layout{}, fmt.Errorf("NewLayout: %v requires rows >= cols: %w", typ, ErrBadDimensions)
		}
		l.terms, l.free = cols*(3*rows+1), cols
		l.leakages = cols * (rows - 1)
	case E12:
		if rows < cols {
			return Layout{}, fmt.Errorf("NewLayout: %v requires rows >= cols: %w", typ, ErrBadDimensions)
		}
		l.terms, l.free = 3*rows*cols, 0
		l.leakages = cols * (rows - 1)
	default:
		return Layout{}, fmt.Errorf("NewLayout: type %d: %w", typ, ErrBadType)
	}

	return l, nil
}

// Type returns the calibration family.
func (l Layout) Type() CalType { return l.typ }

// Rows returns the VNA row (detector) count.
func (l Layout) Rows() int { return l.rows }

// Cols returns the VNA column (driver) count.
func (l Layout) Cols() int { return l.cols }

// Terms returns the total per-frequency error-term count, free and
// leakage terms included.
func (l Layout) Terms() int { return l.terms }

// FreeTerms returns the number of terms pinned to one to fix the
// otherwise arbitrary scale of the model.
func (l Layout) FreeTerms() int { return l.free }

// Leakages returns the number of leakage terms solved outside the
// least-squares system.
func (l Layout) Leakages() int { return l.leakages }

// Unknowns returns the number of terms determined by the least-squares
// system at each frequency.
func (l Layout) Unknowns() int { return l.terms - l.free - l.leakages }

// TermClass names one class of error terms for TermIndex.
type TermClass int

// Term classes. The T classes apply to T8/TE10/T16, the U classes to
// U8/UE10/U16/UE14/E12, and TermEl to every family with leakage terms.
const (
	TermTs TermClass = iota
	TermTi
	TermTx
	TermTm
	TermUm
	TermUi
	TermUx
	TermUs
	TermEl
)

// TermIndex returns the position of one error term in the flat
// per-frequency vector. For the scalar families (T8/TE10/U8/UE10) the
// a argument selects the diagonal entry and b is ignored. For T16/U16
// both arguments index the full term matrices. For UE14/E12, b selects
// the driven column and a the row within it (TermUi and TermUs ignore
// a). TermEl always takes the measurement cell (a, b), a != b.
func (l Layout) TermIndex(class TermClass, a, b int) (int, error) {
	bad := func() (int, error) {
		return 0, fmt.Errorf("TermIndex: no term class %d at (%d, %d) in %v: %w",
			class, a, b, l.typ, ErrBadArgument)
	}
	inRows := a >= 0 && a < l.rows
	inCols := func(v int) bool { return v >= 0 && v < l.cols }
	switch l.typ {
	case T8, TE10:
		switch class {
		case TermTs:
			if inRows {
				return l.tsIdx(a), nil
			}
		case TermTi:
			if inRows {
				return l.tiIdx(a), nil
			}
		case TermTx:
			if inCols(a) {
				return l.txIdx(a), nil
			}
		case TermTm:
			if inCols(a) {
				return l.tmIdx(a), nil
			}
		case TermEl:
			if l.typ == TE10 && inRows && inCols(b) && a != b {
				return l.elIdx(a, b), nil
			}
		}
	case U8, UE10:
		switch class {
		case TermUm:
			if inRows {
				return l.umIdx(a), nil
			}
		case TermUi:
			if inCols(a) {
				return l.uiIdx(a), nil
			}
		case TermUx:
			if inRows {
				return l.uxIdx(a), nil
			}
		case TermUs:
			if inCols(a) {
				return l.usIdx(a), nil
			}
		case TermEl:
			if l.typ == UE10 && inRows && inCols(b) && a != b {
				return l.elIdx(a, b), nil
			}
		}
	case T16:
		if !inRows || b < 0 || b >= l.rows {
			return bad()
		}
		switch class {
		case TermTs:
			return l.ts16Idx(a, b), nil
		case TermTi:
			return l.ti16Idx(a, b), nil
		case TermTx:
			return l.tx16Idx(a, b), nil
		case TermTm:
			return l.tm16Idx(a, b), nil
		}
	case U16:
		if !inRows || b < 0 || b >= l.rows {
			return bad()
		}
		switch class {
		case TermUm:
			return l.um16Idx(a, b), nil
		case TermUi:
			return l.ui16Idx(a, b), nil
		case TermUx:
			return l.ux16Idx(a, b), nil
		case TermUs:
			return l.us16Idx(a, b), nil
		}
	case UE14, E12:
		if !inCols(b) {
			return bad()
		}
		switch class {
		case TermUm:
			if inRows {
				return l.umColIdx(b, a), nil
			}
		case TermUi:
			return l.uiColIdx(b), nil
		case TermUx:
			if inRows {
				return l.uxColIdx(b, a), nil
			}
		case TermUs:
			if l.typ == UE14 {
				return l.usColIdx(b), nil
			}
		case TermEl:
			if inRows && a != b {
				return l.elColIdx(b, a), nil
			}
		}
	}

	return bad()
}

// perColumn reports whether the family solves one independent system
// per driven column.
func (l Layout) perColumn() bool { return l.typ == UE14 || l.typ == E12 }

// tGroup reports whether the family follows the T (measurement-side)
// equation form.
func (l Layout) tGroup() bool { return l.typ == T8 || l.typ == TE10 || l.typ == T16 }

// hasLeakage reports whether off-diagonal leakage is modeled outside
// the linear system.
func (l Layout) hasLeakage() bool { return l.leakages > 0 }

// Flat term indices per family. The e-suffixed helpers address the
// per-column families; the 16-suffixed ones the full-matrix families.

func (l Layout) tsIdx(i int) int { return i }
func (l Layout) tiIdx(i int) int { return l.rows + i }
func (l Layout) txIdx(k int) int { return 2*l.rows + k }
func (l Layout) tmIdx(j int) int { return 2*l.rows + l.cols + j }

func (l Layout) umIdx(i int) int { return i }
func (l Layout) uiIdx(j int) int { return l.rows + j }
func (l Layout) uxIdx(k int) int { return l.rows + l.cols + k }
func (l Layout) usIdx(j int) int { return 2*l.rows + l.cols + j }

// elIdx addresses the leakage term of off-diagonal cell (i, j) for the
// TE10/UE10 families.
func (l Layout) elIdx(i, j int) int {
	pos := 0
	for r := 0; r < l.rows; r++ {
		for c := 0; c < l.cols; c++ {
			if r == c {
				continue
			}
			if r == i && c == j {
				return 2*l.rows + 2*l.cols + pos
			}
			pos++
		}
	}
	panic(fmt.Sprintf("vnacal: elIdx(%d, %d) on diagonal or out of range", i, j))
}

func (l Layout) ts16Idx(i, k int) int { return i*l.rows + k }
func (l Layout) ti16Idx(i, j int) int { return l.rows*l.rows + i*l.rows + j }
func (l Layout) tx16Idx(k, q int) int { return 2*l.rows*l.rows + k*l.rows + q }
func (l Layout) tm16Idx(k, j int) int { return 3*l.rows*l.rows + k*l.rows + j }

func (l Layout) um16Idx(i, k int) int { return i*l.rows + k }
func (l Layout) ui16Idx(i, j int) int { return l.rows*l.rows + i*l.rows + j }
func (l Layout) ux16Idx(k, q int) int { return 2*l.rows*l.rows + k*l.rows + q }
func (l Layout) us16Idx(k, j int) int { return 3*l.rows*l.rows + k*l.rows + j }

// Per-column families: UE14 packs um, ui, ux, us, el; E12 packs um, ux,
// ui, el with us implicitly one.

func (l Layout) colBase(j int) int {
	if l.typ == E12 {
		return j * 3 * l.rows
	}

	return j * (3*l.rows + 1)
}

func (l Layout) umColIdx(j, i int) int { return l.colBase(j) + i }

func (l Layout) uiColIdx(j int) int {
	if l.typ == E12 {
		return l.colBase(j) + 2*l.rows
	}

	return l.colBase(j) + l.rows
}

func (l Layout) uxColIdx(j, k int) int {
	if l.typ == E12 {
		return l.colBase(j) + l.rows + k
	}

	return l.colBase(j) + l.rows + 1 + k
}

// usColIdx is only valid for UE14; E12 has no stored us term.
func (l Layout) usColIdx(j int) int { return l.colBase(j) + 2*l.rows + 1 }

// elColIdx addresses the leakage term of row i within column j (i != j).
func (l Layout) elColIdx(j, i int) int {
	pos := i
	if i > j {
		pos--
	}
	if l.typ == E12 {
		return l.colBase(j) + 2*l.rows + 1 + pos
	}

	return l.colBase(j) + 2*l.rows + 2 + pos
}

// freeIdx reports the indices of the terms pinned to one.
func (l Layout) freeIdx() []int {
	switch l.typ {
	case T8, TE10:
		return []int{l.tmIdx(l.cols - 1)}
	case U8, UE10:
		return []int{l.usIdx(l.cols - 1)}
	case T16:
		return []int{l.tm16Idx(l.rows-1, l.rows-1)}
	case U16:
		return []int{l.us16Idx(l.rows-1, l.rows-1)}
	case UE14:
		free := make([]int, l.cols)
		for j := range free {
			free[j] = l.usColIdx(j)
		}

		return free
	}

	return nil
}

// identityTerms returns the initial guess: a perfect VNA with unit
// reference terms, zero directivity and zero leakage.
func (l Layout) identityTerms() []complex128 {
	tv := make([]complex128, l.terms)
	switch l.typ {
	case T8, TE10:
		for i := 0; i < l.rows; i++ {
			tv[l.tsIdx(i)] = 1
		}
		for j := 0; j < l.cols; j++ {
			tv[l.tmIdx(j)] = 1
		}
	case U8, UE10:
		for i := 0; i < l.rows; i++ {
			tv[l.umIdx(i)] = 1
		}
		for j := 0; j < l.cols; j++ {
			tv[l.usIdx(j)] = 1
		}
	case T16:
		for i := 0; i < l.rows; i++ {
			tv[l.ts16Idx(i, i)] = 1
			tv[l.tm16Idx(i, i)] = 1
		}
	case U16:
		for i := 0; i < l.rows; i++ {
			tv[l.um16Idx(i, i)] = 1
			tv[l.us16Idx(i, i)] = 1
		}
	case UE14:
		for j := 0; j < l.cols; j++ {
			for i := 0; i < l.rows; i++ {
				tv[l.umColIdx(j, i)] = 1
			}
			tv[l.usColIdx(j)] = 1
		}
	case E12:
		for j := 0; j < l.cols; j++ {
			for i := 0; i < l.rows; i++ {
				tv[l.umColIdx(j, i)] = 1
			}
		}
	}

	return tv
}

func minInt(a, b int) int {
	if a < b {
		return a
	}

	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}

	return b
}
