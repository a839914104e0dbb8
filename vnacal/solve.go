// Package vnacal: the per-frequency iterative least-squares solver.

package vnacal

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/param"
	"github.com/vnakit/vnakit/rfi"
)

// stdEval is one standard evaluated at a single frequency, everything
// in VNA coordinates (nports × nports, only mapped cells meaningful).
type stdEval struct {
	ports   []int
	mapped  []bool
	sv      [][]complex128
	solv    [][]int
	m       [][]complex128
	mp      [][]complex128
	present [][]bool
	// diagonal marks standards whose expected S matrix is structurally
	// diagonal; their off-diagonal measurements estimate leakage.
	diagonal bool
}

// termSystem is one least-squares system over a subset of the error
// terms: the whole non-free set for most families, one driven column
// for UE14/E12.
type termSystem struct {
	column  int
	termCol []int
	colTerm []int
	x       []complex128
	// weighted system kept for the chi-squared consistency test.
	aKeep, bKeep *cmatrix.CMatrix
}

// Solve determines the error terms at every calibration frequency,
// refines any unknown standard parameters, and returns the resulting
// Calibration. The session stays valid: more standards may be added
// and Solve called again.
func (s *Session) Solve() (*Calibration, error) {
	s.checkValid()
	if s.freqs == nil {
		return nil, s.fail(CategoryUsage, fmt.Errorf("Solve: frequency vector not set: %w", ErrBadFrequency))
	}
	if len(s.standards) == 0 {
		return nil, s.fail(CategoryDomain, fmt.Errorf("Solve: no standards: %w", ErrInsufficientStandards))
	}
	solvable, solvIdx := s.collectSolvable()
	terms := make([][]complex128, s.nfreq)
	solved := make([][]complex128, len(solvable))
	for i := range solved {
		solved[i] = make([]complex128, s.nfreq)
	}
	for fi, f := range s.freqs {
		tv, est, err := s.solveFrequency(fi, f, solvable, solvIdx)
		if err != nil {
			return nil, s.fail(categoryFor(err), err)
		}
		if s.layout.typ == E12 {
			tv = ue14ToE12(s.work, s.layout, tv)
		}
		terms[fi] = tv
		for i, v := range est {
			solved[i][fi] = v
		}
	}
	for i, p := range solvable {
		if err := p.SetSolved(s.freqs, solved[i]); err != nil {
			return nil, s.fail(CategoryInternal, fmt.Errorf("Solve: record estimates: %w", err))
		}
	}

	return &Calibration{
		lay:   s.layout,
		freqs: append([]float64(nil), s.freqs...),
		z0:    s.z0,
		terms: terms,
	}, nil
}

// collectSolvable lists the distinct solvable parameters across all
// standards and maps each standard cell to its index (-1 if fixed).
func (s *Session) collectSolvable() ([]*param.Parameter, [][][]int) {
	var list []*param.Parameter
	seen := make(map[*param.Parameter]int)
	idx := make([][][]int, len(s.standards))
	for si, std := range s.standards {
		idx[si] = make([][]int, len(std.s))
		for a := range std.s {
			idx[si][a] = make([]int, len(std.s[a]))
			for b, p := range std.s[a] {
				idx[si][a][b] = -1
				if !p.Solvable() {
					continue
				}
				k, ok := seen[p]
				if !ok {
					k = len(list)
					seen[p] = k
					list = append(list, p)
				}
				idx[si][a][b] = k
			}
		}
	}

	return list, idx
}

// solveFrequency runs the linearize/solve cycle at one frequency and
// returns the full working-layout term vector plus the final unknown
// parameter estimates.
func (s *Session) solveFrequency(fi int, f float64, solvable []*param.Parameter, solvIdx [][][]int) ([]complex128, []complex128, error) {
	lay := s.work
	evals := make([]*stdEval, len(s.standards))
	for si, std := range s.standards {
		se, err := s.evalStandard(std, fi, f, solvIdx[si])
		if err != nil {
			return nil, nil, err
		}
		evals[si] = se
	}
	el := s.applyLeakage(evals)
	systems := buildTermSystems(lay)
	est := make([]complex128, len(solvable))
	for i, p := range solvable {
		v, err := p.Evaluate(f)
		if err != nil {
			return nil, nil, fmt.Errorf("Solve: parameter guess at %g Hz: %w", f, ErrBadFrequency)
		}
		est[i] = v
	}

	var (
		prevX, tv []complex128
		converged bool
	)
	for iter := 0; iter < s.iterLimit; iter++ {
		for _, se := range evals {
			for i := range se.solv {
				for j, k := range se.solv[i] {
					if k >= 0 {
						se.sv[i][j] = est[k]
					}
				}
			}
		}
		xAll, tvNow, err := s.solveTermSystems(f, lay, evals, systems, el)
		if err != nil {
			return nil, nil, err
		}
		tv = tvNow
		etChange := math.Inf(1)
		if prevX != nil {
			etChange = rmsRel(xAll, prevX)
		}
		prevX = xAll
		if len(solvable) == 0 {
			converged = true
			break
		}
		newEst, err := s.solveParamSystem(f, lay, evals, tv, solvable)
		if err != nil {
			return nil, nil, err
		}
		pChange := rmsRel(newEst, est)
		est = newEst
		if etChange <= s.etTol && pChange <= s.pTol {
			converged = true
			break
		}
	}
	if !converged {
		return nil, nil, fmt.Errorf("Solve: frequency %g Hz: %w", f, ErrConvergence)
	}
	if s.merr != nil {
		if err := s.pValueTest(f, systems); err != nil {
			return nil, nil, err
		}
	}

	return tv, est, nil
}

// evalStandard evaluates one standard's expected S values and spreads
// its measurement into VNA coordinates.
func (s *Session) evalStandard(std *standard, fi int, f float64, solv [][]int) (*stdEval, error) {
	np := s.nports
	se := &stdEval{
		ports:   std.connected(),
		mapped:  make([]bool, np),
		sv:      zeros2c(np),
		solv:    fillNeg2i(np),
		m:       zeros2c(np),
		present: zeros2b(np),
	}
	for _, v := range se.ports {
		se.mapped[v] = true
	}
	se.diagonal = true
	for a, va := range std.ports {
		if va < 0 {
			continue
		}
		for b, vb := range std.ports {
			if vb < 0 {
				continue
			}
			v, err := std.s[a][b].Evaluate(f)
			if err != nil {
				return nil, fmt.Errorf("Solve: standard parameter at %g Hz: %w", f, ErrBadFrequency)
			}
			se.sv[va][vb] = v
			se.solv[va][vb] = solv[a][b]
			if va != vb && (solv[a][b] >= 0 || v != 0) {
				se.diagonal = false
			}
		}
	}
	mm := std.m[fi]
	if std.full {
		for i := 0; i < s.layout.rows; i++ {
			for j := 0; j < s.layout.cols; j++ {
				v, _ := mm.At(i, j)
				se.m[i][j] = v
				se.present[i][j] = true
			}
		}
	} else {
		ra, ca := std.measuredAxes(s.layout.rows, s.layout.cols)
		for a, i := range ra {
			for b, j := range ca {
				v, _ := mm.At(a, b)
				se.m[i][j] = v
				se.present[i][j] = true
			}
		}
	}

	return se, nil
}

// applyLeakage estimates the off-diagonal leakage terms from the
// structurally diagonal standards and subtracts them from every
// measurement. Uncovered leakage cells default to zero.
func (s *Session) applyLeakage(evals []*stdEval) [][]complex128 {
	np := s.nports
	el := zeros2c(np)
	if !s.work.hasLeakage() {
		for _, se := range evals {
			se.mp = se.m
		}

		return el
	}
	cnt := make([][]int, np)
	for i := range cnt {
		cnt[i] = make([]int, np)
	}
	for _, se := range evals {
		if !se.diagonal {
			continue
		}
		for i := 0; i < s.layout.rows; i++ {
			for j := 0; j < s.layout.cols; j++ {
				if i == j || !se.present[i][j] {
					continue
				}
				el[i][j] += se.m[i][j]
				cnt[i][j]++
			}
		}
	}
	for i := range el {
		for j := range el[i] {
			if cnt[i][j] > 0 {
				el[i][j] /= complex(float64(cnt[i][j]), 0)
			}
		}
	}
	for _, se := range evals {
		se.mp = zeros2c(np)
		for i := range se.m {
			copy(se.mp[i], se.m[i])
		}
		for i := 0; i < s.layout.rows; i++ {
			for j := 0; j < s.layout.cols; j++ {
				if i != j && se.present[i][j] {
					se.mp[i][j] -= el[i][j]
				}
			}
		}
	}

	return el
}

// buildTermSystems enumerates the solvable terms of each least-squares
// system in a fixed canonical order.
func buildTermSystems(lay Layout) []*termSystem {
	newSystem := func(column int) *termSystem {
		return &termSystem{column: column, termCol: fillNeg(lay.terms)}
	}
	take := func(sys *termSystem, t int) {
		sys.termCol[t] = len(sys.colTerm)
		sys.colTerm = append(sys.colTerm, t)
	}
	switch lay.typ {
	case T8, TE10:
		sys := newSystem(-1)
		for i := 0; i < lay.rows; i++ {
			take(sys, lay.tsIdx(i))
			take(sys, lay.tiIdx(i))
		}
		for k := 0; k < lay.cols; k++ {
			take(sys, lay.txIdx(k))
		}
		for j := 0; j < lay.cols-1; j++ {
			take(sys, lay.tmIdx(j))
		}

		return []*termSystem{sys}
	case U8, UE10:
		sys := newSystem(-1)
		for i := 0; i < lay.rows; i++ {
			take(sys, lay.umIdx(i))
			take(sys, lay.uxIdx(i))
		}
		for j := 0; j < lay.cols; j++ {
			take(sys, lay.uiIdx(j))
		}
		for j := 0; j < lay.cols-1; j++ {
			take(sys, lay.usIdx(j))
		}

		return []*termSystem{sys}
	case T16, U16:
		sys := newSystem(-1)
		for t := 0; t < lay.terms; t++ {
			if t != lay.freeIdx()[0] {
				take(sys, t)
			}
		}

		return []*termSystem{sys}
	case UE14:
		systems := make([]*termSystem, lay.cols)
		for j := range systems {
			sys := newSystem(j)
			for i := 0; i < lay.rows; i++ {
				take(sys, lay.umColIdx(j, i))
				take(sys, lay.uxColIdx(j, i))
			}
			take(sys, lay.uiColIdx(j))
			systems[j] = sys
		}

		return systems
	}
	panic("vnacal: buildTermSystems on unsupported layout " + lay.typ.String())
}

// solveTermSystems assembles and solves every term system at the
// current parameter estimates, returning the concatenated unknown
// vector and the full term vector (free terms pinned, leakage filled).
func (s *Session) solveTermSystems(f float64, lay Layout, evals []*stdEval, systems []*termSystem, el [][]complex128) ([]complex128, []complex128, error) {
	var xAll []complex128
	for _, sys := range systems {
		if err := s.solveOneTermSystem(f, lay, evals, sys); err != nil {
			return nil, nil, err
		}
		xAll = append(xAll, sys.x...)
	}
	tv := lay.identityTerms()
	for _, sys := range systems {
		for col, t := range sys.colTerm {
			tv[t] = sys.x[col]
		}
	}
	if lay.hasLeakage() {
		for i := 0; i < lay.rows; i++ {
			for j := 0; j < lay.cols; j++ {
				if i == j {
					continue
				}
				if lay.perColumn() {
					tv[lay.elColIdx(j, i)] = el[i][j]
				} else {
					tv[lay.elIdx(i, j)] = el[i][j]
				}
			}
		}
	}

	return xAll, tv, nil
}

func (s *Session) solveOneTermSystem(f float64, lay Layout, evals []*stdEval, sys *termSystem) error {
	nu := len(sys.colTerm)
	var (
		rows [][]complex128
		rhs  []complex128
	)
	for _, se := range evals {
		for i := 0; i < lay.rows; i++ {
			for j := 0; j < lay.cols; j++ {
				if !se.present[i][j] || !se.mapped[i] || !se.mapped[j] {
					continue
				}
				if sys.column >= 0 && j != sys.column {
					continue
				}
				eq := termEquation(lay, se.ports, se.mp, se.sv, i, j)
				row := make([]complex128, nu)
				var b complex128
				for t, term := range eq.idx {
					if col := sys.termCol[term]; col >= 0 {
						row[col] += eq.coef[t]
					} else {
						// Pinned unit term moves to the right-hand side.
						b -= eq.coef[t]
					}
				}
				w, err := s.weightAt(f, se.m[i][j])
				if err != nil {
					return err
				}
				if w != 1 {
					for c := range row {
						row[c] *= complex(w, 0)
					}
					b *= complex(w, 0)
				}
				rows = append(rows, row)
				rhs = append(rhs, b)
			}
		}
	}
	if len(rows) < nu {
		return fmt.Errorf("Solve: %d equations for %d error terms: %w", len(rows), nu, ErrInsufficientStandards)
	}
	a, bm, err := toSystem(rows, rhs)
	if err != nil {
		return err
	}
	if s.merr != nil {
		sys.aKeep, sys.bKeep = a.Clone(), bm.Clone()
	}
	xm, err := cmatrix.QRSolve(a, bm)
	if err != nil {
		return fmt.Errorf("Solve: %w", err)
	}
	sys.x = columnOf(xm)

	return nil
}

// solveParamSystem re-estimates the unknown standard parameters with
// the error terms held fixed. Correlated parameters contribute a prior
// equation pulling the estimate toward the initial guess, weighted by
// the inverse of the declared uncertainty.
func (s *Session) solveParamSystem(f float64, lay Layout, evals []*stdEval, tv []complex128, solvable []*param.Parameter) ([]complex128, error) {
	np := len(solvable)
	var (
		rows [][]complex128
		rhs  []complex128
	)
	for _, se := range evals {
		for i := 0; i < lay.rows; i++ {
			for j := 0; j < lay.cols; j++ {
				if !se.present[i][j] || !se.mapped[i] || !se.mapped[j] {
					continue
				}
				terms, b := sEquation(lay, tv, se.ports, se.mp, i, j)
				row := make([]complex128, np)
				for _, t := range terms {
					if k := se.solv[t.row][t.col]; k >= 0 {
						row[k] += t.coef
					} else {
						b -= t.coef * se.sv[t.row][t.col]
					}
				}
				w, err := s.weightAt(f, se.m[i][j])
				if err != nil {
					return nil, err
				}
				if w != 1 {
					for c := range row {
						row[c] *= complex(w, 0)
					}
					b *= complex(w, 0)
				}
				rows = append(rows, row)
				rhs = append(rhs, b)
			}
		}
	}
	for k, p := range solvable {
		if p.Kind() != param.KindCorrelated {
			continue
		}
		sigma, err := p.SigmaAt(f)
		if err != nil {
			return nil, fmt.Errorf("Solve: sigma at %g Hz: %w", f, ErrBadFrequency)
		}
		guess, err := p.GuessAt(f)
		if err != nil {
			return nil, fmt.Errorf("Solve: guess at %g Hz: %w", f, ErrBadFrequency)
		}
		row := make([]complex128, np)
		row[k] = complex(1/sigma, 0)
		rows = append(rows, row)
		rhs = append(rhs, guess*complex(1/sigma, 0))
	}
	if len(rows) < np {
		return nil, fmt.Errorf("Solve: %d equations for %d unknown parameters: %w",
			len(rows), np, ErrInsufficientStandards)
	}
	a, bm, err := toSystem(rows, rhs)
	if err != nil {
		return nil, err
	}
	xm, err := cmatrix.QRSolve(a, bm)
	if err != nil {
		return nil, fmt.Errorf("Solve: %w", err)
	}

	return columnOf(xm), nil
}

// weightAt returns the equation weight 1/sigma for a measurement of
// magnitude |m| at frequency f, or 1 when no error model is set.
func (s *Session) weightAt(f float64, m complex128) (float64, error) {
	if s.merr == nil {
		return 1, nil
	}
	n, err := rfi.Eval(s.merr.fs, s.merr.noise, f, &s.merr.ncur)
	if err != nil {
		return 0, fmt.Errorf("Solve: error model at %g Hz: %w", f, ErrBadFrequency)
	}
	sigma := real(n)
	if s.merr.tracking != nil {
		t, err := rfi.Eval(s.merr.fs, s.merr.tracking, f, &s.merr.tcur)
		if err != nil {
			return 0, fmt.Errorf("Solve: error model at %g Hz: %w", f, ErrBadFrequency)
		}
		sigma += real(t) * cAbs(m)
	}

	return 1 / sigma, nil
}

// pValueTest compares the weighted residuals of the final solution
// against the chi-squared distribution implied by the error model.
func (s *Session) pValueTest(f float64, systems []*termSystem) error {
	var (
		chi2     float64
		neq, nun int
	)
	for _, sys := range systems {
		if sys.aKeep == nil {
			continue
		}
		xm, err := cmatrix.New(len(sys.x), 1)
		if err != nil {
			return err
		}
		for i, v := range sys.x {
			_ = xm.Set(i, 0, v)
		}
		ax, err := cmatrix.Mul(sys.aKeep, xm)
		if err != nil {
			return err
		}
		for i := 0; i < ax.Rows(); i++ {
			av, _ := ax.At(i, 0)
			bv, _ := sys.bKeep.At(i, 0)
			d := av - bv
			chi2 += real(d)*real(d) + imag(d)*imag(d)
		}
		neq += ax.Rows()
		nun += len(sys.x)
	}
	dof := 2 * (neq - nun)
	if dof <= 0 {
		return nil
	}
	p := distuv.ChiSquared{K: float64(dof)}.Survival(chi2)
	if p < s.sig {
		return fmt.Errorf("Solve: frequency %g Hz: p-value %.3g below %.3g: %w", f, p, s.sig, ErrPValue)
	}

	return nil
}

// toSystem packs equation rows into coefficient and right-hand-side
// matrices.
func toSystem(rows [][]complex128, rhs []complex128) (*cmatrix.CMatrix, *cmatrix.CMatrix, error) {
	a, err := cmatrix.New(len(rows), len(rows[0]))
	if err != nil {
		return nil, nil, err
	}
	b, err := cmatrix.New(len(rows), 1)
	if err != nil {
		return nil, nil, err
	}
	for i, row := range rows {
		for j, v := range row {
			_ = a.Set(i, j, v)
		}
		_ = b.Set(i, 0, rhs[i])
	}

	return a, b, nil
}

// columnOf extracts the single column of a solution matrix.
func columnOf(m *cmatrix.CMatrix) []complex128 {
	out := make([]complex128, m.Rows())
	for i := range out {
		v, _ := m.At(i, 0)
		out[i] = v
	}

	return out
}

// rmsRel is the root-mean-square change of next relative to its own
// magnitude.
func rmsRel(next, prev []complex128) float64 {
	var num, den float64
	for i := range next {
		d := next[i] - prev[i]
		num += real(d)*real(d) + imag(d)*imag(d)
		den += real(next[i])*real(next[i]) + imag(next[i])*imag(next[i])
	}
	if den == 0 {
		if num == 0 {
			return 0
		}

		return math.Inf(1)
	}

	return math.Sqrt(num / den)
}

func cAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

func zeros2c(n int) [][]complex128 {
	m := make([][]complex128, n)
	for i := range m {
		m[i] = make([]complex128, n)
	}

	return m
}

func zeros2b(n int) [][]bool {
	m := make([][]bool, n)
	for i := range m {
		m[i] = make([]bool, n)
	}

	return m
}

func fillNeg(n int) []int {
	v := make([]int, n)
	for i := range v {
		v[i] = -1
	}

	return v
}

func fillNeg2i(n int) [][]int {
	m := make([][]int, n)
	for i := range m {
		m[i] = fillNeg(n)
	}

	return m
}
