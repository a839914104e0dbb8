// Package vnacal: the correction engine turning raw DUT measurements
// into true S-parameters.

package vnacal

import (
	"fmt"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/rfi"
	"github.com/vnakit/vnakit/vnadata"
)

// ApplyM corrects raw measured DUT data into true S-parameters.
// portMap maps each DUT port to the VNA port it was connected to. The
// measurement must be either abbreviated to the mapped ports (rows and
// columns in ascending VNA-port order) or span the full VNA
// dimensions. Error terms are interpolated to the measurement
// frequencies, which must lie within the calibrated range.
func (c *Calibration) ApplyM(portMap []int, m *vnadata.Data) (*vnadata.Data, error) {
	if m == nil {
		return nil, fmt.Errorf("ApplyM: nil measurement data: %w", ErrBadArgument)
	}
	ms := make([]*cmatrix.CMatrix, m.Frequencies())
	for fi := range ms {
		mm, err := m.Matrix(fi)
		if err != nil {
			return nil, fmt.Errorf("ApplyM: %w", err)
		}
		ms[fi] = mm
	}

	return c.apply("ApplyM", portMap, m.FrequencyVector(), ms)
}

// Apply is ApplyM with the measurement given as raw incident (a) and
// reflected (b) wave data; the measured matrix is B·A⁻¹ per frequency.
func (c *Calibration) Apply(portMap []int, a, b *vnadata.Data) (*vnadata.Data, error) {
	ms, fs, err := waveRatios("Apply", a, b)
	if err != nil {
		return nil, err
	}

	return c.apply("Apply", portMap, fs, ms)
}

// waveRatios forms M = B·A⁻¹ per frequency from raw wave data.
func waveRatios(op string, a, b *vnadata.Data) ([]*cmatrix.CMatrix, []float64, error) {
	if a == nil || b == nil {
		return nil, nil, fmt.Errorf("%s: nil wave data: %w", op, ErrBadArgument)
	}
	if a.Rows() != a.Cols() || b.Rows() != a.Rows() || b.Cols() != a.Cols() {
		return nil, nil, fmt.Errorf("%s: a/b dimensions %dx%d, %dx%d: %w",
			op, a.Rows(), a.Cols(), b.Rows(), b.Cols(), ErrBadDimensions)
	}
	if b.Frequencies() != a.Frequencies() {
		return nil, nil, fmt.Errorf("%s: a and b frequency counts differ: %w", op, ErrBadDimensions)
	}
	ms := make([]*cmatrix.CMatrix, a.Frequencies())
	for fi := range ms {
		am, err := a.Matrix(fi)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		bm, err := b.Matrix(fi)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		mm, det, err := cmatrix.MRDivide(bm, am)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", op, err)
		}
		if det == 0 {
			return nil, nil, fmt.Errorf("%s: a-wave matrix not invertible: %w", op, ErrSingular)
		}
		ms[fi] = mm
	}

	return ms, a.FrequencyVector(), nil
}

// mapPorts validates a DUT-to-VNA port map and splits the mapped VNA
// ports into ascending order plus the abbreviated measurement axes.
// With partial set, -1 entries mark DUT ports not connected.
func (c *Calibration) mapPorts(op string, portMap []int, partial bool) (ports, ra, ca, dutOf []int, err error) {
	nports := maxInt(c.lay.rows, c.lay.cols)
	if len(portMap) < 1 {
		return nil, nil, nil, nil, fmt.Errorf("%s: empty port map: %w", op, ErrBadPort)
	}
	connected := 0
	for a, va := range portMap {
		if va == -1 && partial {
			continue
		}
		if va < 0 || va >= nports {
			return nil, nil, nil, nil, fmt.Errorf("%s: port %d out of range: %w", op, va, ErrBadPort)
		}
		for b := 0; b < a; b++ {
			if portMap[b] == va {
				return nil, nil, nil, nil, fmt.Errorf("%s: duplicate port %d: %w", op, va, ErrBadPort)
			}
		}
		connected++
	}
	if (c.lay.typ == T16 || c.lay.typ == U16) && connected != nports {
		return nil, nil, nil, nil, fmt.Errorf("%s: %v requires all %d ports mapped: %w",
			op, c.lay.typ, nports, ErrBadPort)
	}

	dutOf = fillNeg(nports)
	for a, va := range portMap {
		if va >= 0 {
			dutOf[va] = a
		}
	}
	for v := 0; v < nports; v++ {
		if dutOf[v] < 0 {
			continue
		}
		ports = append(ports, v)
		if v < c.lay.rows {
			ra = append(ra, v)
		}
		if v < c.lay.cols {
			ca = append(ca, v)
		}
	}
	if len(ra) == 0 || len(ca) == 0 {
		return nil, nil, nil, nil, fmt.Errorf("%s: port map has no measurable cell: %w", op, ErrBadPort)
	}

	return ports, ra, ca, dutOf, nil
}

func (c *Calibration) apply(op string, portMap []int, fs []float64, ms []*cmatrix.CMatrix) (*vnadata.Data, error) {
	ports, ra, ca, dutOf, err := c.mapPorts(op, portMap, false)
	if err != nil {
		return nil, err
	}
	p := len(portMap)
	if len(ms) == 0 {
		return nil, fmt.Errorf("%s: no measurements: %w", op, ErrBadDimensions)
	}

	interp := newTermInterp(c)
	out, err := c.newResult(op, p, fs)
	if err != nil {
		return nil, err
	}
	for fi, mm := range ms {
		tv, err := interp.at(fs[fi])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		covered := make([]bool, p*p)
		rows, rhs, err := c.cellEquations(op, tv, mm, ports, ra, ca, dutOf, p, covered)
		if err != nil {
			return nil, err
		}
		sm, err := solveCells(op, rows, rhs, covered, p)
		if err != nil {
			return nil, err
		}
		if err = out.SetMatrix(fi, sm); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}

	return out, nil
}

// newResult allocates the corrected output data carrying the
// calibration's reference impedance on every DUT port.
func (c *Calibration) newResult(op string, p int, fs []float64) (*vnadata.Data, error) {
	out, err := vnadata.New(len(fs), p, p, vnadata.S)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = out.SetFrequencyVector(fs); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	z0 := make([]complex128, p)
	for i := range z0 {
		z0[i] = c.z0
	}
	if err = out.SetZ0Vector(z0); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// cellEquations emits one linear equation per measured cell relating
// the raw ratios to the unknown DUT S-cells, marking each referenced
// cell in covered. The unknown vector is the row-major p×p DUT matrix.
func (c *Calibration) cellEquations(op string, tv []complex128, mm *cmatrix.CMatrix,
	ports, ra, ca, dutOf []int, p int, covered []bool) ([][]complex128, []complex128, error) {
	nports := maxInt(c.lay.rows, c.lay.cols)
	full := mm.Rows() == c.lay.rows && mm.Cols() == c.lay.cols
	if !full && (mm.Rows() != len(ra) || mm.Cols() != len(ca)) {
		return nil, nil, fmt.Errorf("%s: measurement is %dx%d, want %dx%d or %dx%d: %w",
			op, mm.Rows(), mm.Cols(), c.lay.rows, c.lay.cols, len(ra), len(ca), ErrBadDimensions)
	}

	// Spread into VNA coordinates and take out leakage.
	mp := zeros2c(nports)
	present := zeros2b(nports)
	if full {
		for i := 0; i < c.lay.rows; i++ {
			for j := 0; j < c.lay.cols; j++ {
				v, _ := mm.At(i, j)
				mp[i][j] = v
				present[i][j] = true
			}
		}
	} else {
		for a, i := range ra {
			for b, j := range ca {
				v, _ := mm.At(a, b)
				mp[i][j] = v
				present[i][j] = true
			}
		}
	}
	if c.lay.hasLeakage() {
		for i := 0; i < c.lay.rows; i++ {
			for j := 0; j < c.lay.cols; j++ {
				if i == j || !present[i][j] {
					continue
				}
				if c.lay.perColumn() {
					mp[i][j] -= tv[c.lay.elColIdx(j, i)]
				} else {
					mp[i][j] -= tv[c.lay.elIdx(i, j)]
				}
			}
		}
	}

	nu := p * p
	var (
		rows [][]complex128
		rhs  []complex128
	)
	for _, i := range ra {
		for _, j := range ca {
			if !present[i][j] {
				continue
			}
			terms, b := sEquation(c.lay, tv, ports, mp, i, j)
			row := make([]complex128, nu)
			for _, t := range terms {
				cell := dutOf[t.row]*p + dutOf[t.col]
				row[cell] += t.coef
				covered[cell] = true
			}
			rows = append(rows, row)
			rhs = append(rhs, b)
		}
	}

	return rows, rhs, nil
}

// solveCells checks coverage and solves the accumulated correction
// system into the p×p DUT matrix of one frequency.
func solveCells(op string, rows [][]complex128, rhs []complex128, covered []bool, p int) (*cmatrix.CMatrix, error) {
	nu := p * p
	for cell, ok := range covered {
		if !ok {
			return nil, fmt.Errorf("%s: S%d%d not determined by any measurement: %w",
				op, cell/p+1, cell%p+1, ErrCoverage)
		}
	}
	if len(rows) < nu {
		return nil, fmt.Errorf("%s: %d equations for %d cells: %w", op, len(rows), nu, ErrInsufficientStandards)
	}
	a, bm, err := toSystem(rows, rhs)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	xm, err := cmatrix.QRSolve(a, bm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sm, err := cmatrix.New(p, p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	for a0 := 0; a0 < p; a0++ {
		for b0 := 0; b0 < p; b0++ {
			v, _ := xm.At(a0*p+b0, 0)
			_ = sm.Set(a0, b0, v)
		}
	}

	return sm, nil
}

// Applier corrects a DUT measured in several takes. Each added
// measurement connects a subset of the DUT's ports to the VNA; Solve
// combines the equations of every take into one least-squares
// correction per frequency, so a DUT with more ports than the VNA can
// still be fully characterized.
type Applier struct {
	cal  *Calibration
	p    int
	fs   []float64
	meas []applierMeas
}

type applierMeas struct {
	ports, ra, ca, dutOf []int
	ms                   []*cmatrix.CMatrix
}

// Applier starts a multi-measurement correction for a DUT with the
// given port count.
func (c *Calibration) Applier(dutPorts int) (*Applier, error) {
	if dutPorts < 1 {
		return nil, fmt.Errorf("Applier: %d DUT ports: %w", dutPorts, ErrBadDimensions)
	}

	return &Applier{cal: c, p: dutPorts}, nil
}

// AddM records one measurement take. portMap has one entry per DUT
// port naming the VNA port it was connected to, -1 for DUT ports left
// unconnected in this take (assumed terminated in the reference
// impedance). All takes must share one frequency vector.
func (ap *Applier) AddM(portMap []int, m *vnadata.Data) error {
	if m == nil {
		return fmt.Errorf("AddM: nil measurement data: %w", ErrBadArgument)
	}
	ms := make([]*cmatrix.CMatrix, m.Frequencies())
	for fi := range ms {
		mm, err := m.Matrix(fi)
		if err != nil {
			return fmt.Errorf("AddM: %w", err)
		}
		ms[fi] = mm
	}

	return ap.add("AddM", portMap, m.FrequencyVector(), ms)
}

// Add is AddM with the take given as raw a/b wave data.
func (ap *Applier) Add(portMap []int, a, b *vnadata.Data) error {
	ms, fs, err := waveRatios("Add", a, b)
	if err != nil {
		return err
	}

	return ap.add("Add", portMap, fs, ms)
}

func (ap *Applier) add(op string, portMap []int, fs []float64, ms []*cmatrix.CMatrix) error {
	if len(portMap) != ap.p {
		return fmt.Errorf("%s: port map has %d entries, want %d: %w", op, len(portMap), ap.p, ErrBadPort)
	}
	ports, ra, ca, dutOf, err := ap.cal.mapPorts(op, portMap, true)
	if err != nil {
		return err
	}
	if len(ms) == 0 {
		return fmt.Errorf("%s: no frequency points: %w", op, ErrBadDimensions)
	}
	if ap.fs == nil {
		ap.fs = append([]float64(nil), fs...)
	} else if !sameFreqs(fs, ap.fs) {
		return fmt.Errorf("%s: frequency vector differs from earlier takes: %w", op, ErrBadFrequency)
	}
	ap.meas = append(ap.meas, applierMeas{ports: ports, ra: ra, ca: ca, dutOf: dutOf, ms: ms})

	return nil
}

// Solve corrects the accumulated takes into the DUT's S-parameters.
// Every DUT S-cell must be reached by at least one take.
func (ap *Applier) Solve() (*vnadata.Data, error) {
	if len(ap.meas) == 0 {
		return nil, fmt.Errorf("Solve: no measurements: %w", ErrBadDimensions)
	}
	interp := newTermInterp(ap.cal)
	out, err := ap.cal.newResult("Solve", ap.p, ap.fs)
	if err != nil {
		return nil, err
	}
	for fi, f := range ap.fs {
		tv, err := interp.at(f)
		if err != nil {
			return nil, fmt.Errorf("Solve: %w", err)
		}
		covered := make([]bool, ap.p*ap.p)
		var (
			rows [][]complex128
			rhs  []complex128
		)
		for _, me := range ap.meas {
			r, b, err := ap.cal.cellEquations("Solve", tv, me.ms[fi], me.ports, me.ra, me.ca, me.dutOf, ap.p, covered)
			if err != nil {
				return nil, err
			}
			rows = append(rows, r...)
			rhs = append(rhs, b...)
		}
		sm, err := solveCells("Solve", rows, rhs, covered, ap.p)
		if err != nil {
			return nil, err
		}
		if err = out.SetMatrix(fi, sm); err != nil {
			return nil, fmt.Errorf("Solve: %w", err)
		}
	}

	return out, nil
}

func sameFreqs(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// termInterp interpolates the calibration's error terms to arbitrary
// in-range frequencies, keeping one cursor per term for amortized
// sweeps.
type termInterp struct {
	cal     *Calibration
	series  [][]complex128
	cursors []int
}

func newTermInterp(c *Calibration) *termInterp {
	ti := &termInterp{
		cal:     c,
		series:  make([][]complex128, c.lay.terms),
		cursors: make([]int, c.lay.terms),
	}
	for t := range ti.series {
		ti.series[t] = make([]complex128, len(c.freqs))
		for fi := range c.freqs {
			ti.series[t][fi] = c.terms[fi][t]
		}
	}

	return ti
}

func (ti *termInterp) at(f float64) ([]complex128, error) {
	tv := make([]complex128, len(ti.series))
	for t := range ti.series {
		v, err := rfi.Eval(ti.cal.freqs, ti.series[t], f, &ti.cursors[t])
		if err != nil {
			return nil, fmt.Errorf("error terms at %g Hz: %w", f, ErrBadFrequency)
		}
		tv[t] = v
	}

	return tv, nil
}
