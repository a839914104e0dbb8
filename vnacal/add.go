// Package vnacal: accumulation of calibration standards into a session.

package vnacal

import (
	"fmt"
	"sort"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/param"
	"github.com/vnakit/vnakit/vnadata"
)

// addStandard validates and records one standard measurement. ports
// maps standard ports to VNA ports (-1 marks an unconnected standard
// port). ms holds one matrix per calibration frequency, either over the
// full VNA dimensions or abbreviated to the connected ports in
// ascending VNA-port order.
func (s *Session) addStandard(op string, ms []*cmatrix.CMatrix, sp [][]*param.Parameter, ports []int) error {
	s.checkValid()
	p := len(ports)
	if p < 1 {
		return s.fail(CategoryUsage, fmt.Errorf("%s: empty port map: %w", op, ErrBadPort))
	}
	connected, mrows, mcols := 0, 0, 0
	for a, va := range ports {
		if va == -1 {
			continue
		}
		if va < 0 || va >= s.nports {
			return s.fail(CategoryUsage, fmt.Errorf("%s: port %d out of range: %w", op, va, ErrBadPort))
		}
		for b := 0; b < a; b++ {
			if ports[b] == va {
				return s.fail(CategoryUsage, fmt.Errorf("%s: duplicate port %d: %w", op, va, ErrBadPort))
			}
		}
		connected++
		if va < s.layout.rows {
			mrows++
		}
		if va < s.layout.cols {
			mcols++
		}
	}
	if mrows == 0 || mcols == 0 {
		return s.fail(CategoryUsage, fmt.Errorf("%s: standard has no measurable cell: %w", op, ErrBadPort))
	}
	if len(sp) != p {
		return s.fail(CategoryUsage, fmt.Errorf("%s: parameter matrix is %dx, want %dx%d: %w",
			op, len(sp), p, p, ErrBadDimensions))
	}
	for _, row := range sp {
		if len(row) != p {
			return s.fail(CategoryUsage, fmt.Errorf("%s: ragged parameter matrix: %w", op, ErrBadDimensions))
		}
		for _, pp := range row {
			if pp == nil {
				return s.fail(CategoryUsage, fmt.Errorf("%s: nil parameter: %w", op, ErrBadArgument))
			}
		}
	}
	if len(ms) != s.nfreq {
		return s.fail(CategoryUsage, fmt.Errorf("%s: got %d matrices, want %d: %w",
			op, len(ms), s.nfreq, ErrBadDimensions))
	}
	full := false
	for _, m := range ms {
		if m == nil {
			return s.fail(CategoryUsage, fmt.Errorf("%s: nil measurement: %w", op, ErrBadArgument))
		}
		switch {
		case m.Rows() == s.layout.rows && m.Cols() == s.layout.cols:
			full = true
		case m.Rows() == mrows && m.Cols() == mcols:
			full = false
		default:
			return s.fail(CategoryUsage, fmt.Errorf("%s: measurement is %dx%d, want %dx%d or %dx%d: %w",
				op, m.Rows(), m.Cols(), s.layout.rows, s.layout.cols, mrows, mcols, ErrBadDimensions))
		}
	}
	// The sixteen-term families model leakage inside the linear system,
	// which needs every cell of the measurement matrix present.
	if (s.layout.typ == T16 || s.layout.typ == U16) && connected != s.nports {
		return s.fail(CategoryUsage, fmt.Errorf("%s: %v requires all %d ports connected: %w",
			op, s.layout.typ, s.nports, ErrBadPort))
	}
	std := &standard{
		ports: append([]int(nil), ports...),
		s:     make([][]*param.Parameter, p),
		m:     ms,
		full:  full,
	}
	for a := range sp {
		std.s[a] = append([]*param.Parameter(nil), sp[a]...)
		for _, pp := range std.s[a] {
			pp.Hold()
			s.held = append(s.held, pp)
		}
	}
	s.standards = append(s.standards, std)

	return nil
}

// connected returns the standard's connected VNA ports in ascending
// order, the order abbreviated measurement matrices follow.
func (std *standard) connected() []int {
	var vna []int
	for _, v := range std.ports {
		if v >= 0 {
			vna = append(vna, v)
		}
	}
	sort.Ints(vna)

	return vna
}

// measuredAxes splits the connected ports into the receiver rows and
// driver columns of an abbreviated measurement matrix.
func (std *standard) measuredAxes(rows, cols int) (ra, ca []int) {
	for _, v := range std.connected() {
		if v < rows {
			ra = append(ra, v)
		}
		if v < cols {
			ca = append(ca, v)
		}
	}

	return ra, ca
}

// measurements extracts one matrix per frequency from measured data,
// validating the frequency count.
func (s *Session) measurements(op string, d *vnadata.Data) ([]*cmatrix.CMatrix, error) {
	if d == nil {
		return nil, fmt.Errorf("%s: nil measurement data: %w", op, ErrBadArgument)
	}
	if d.Frequencies() != s.nfreq {
		return nil, fmt.Errorf("%s: got %d frequencies, want %d: %w",
			op, d.Frequencies(), s.nfreq, ErrBadDimensions)
	}
	ms := make([]*cmatrix.CMatrix, s.nfreq)
	for fi := range ms {
		m, err := d.Matrix(fi)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ms[fi] = m
	}

	return ms, nil
}

// measurementsAB forms M = B·A⁻¹ per frequency from raw incident (a)
// and reflected (b) wave data.
func (s *Session) measurementsAB(op string, a, b *vnadata.Data) ([]*cmatrix.CMatrix, error) {
	if a == nil || b == nil {
		return nil, fmt.Errorf("%s: nil wave data: %w", op, ErrBadArgument)
	}
	if a.Rows() != a.Cols() {
		return nil, fmt.Errorf("%s: a-wave matrix is %dx%d, want square: %w",
			op, a.Rows(), a.Cols(), ErrBadDimensions)
	}
	if b.Rows() != a.Rows() || b.Cols() != a.Cols() {
		return nil, fmt.Errorf("%s: a and b dimensions differ: %w", op, ErrBadDimensions)
	}
	if a.Frequencies() != s.nfreq || b.Frequencies() != s.nfreq {
		return nil, fmt.Errorf("%s: got %d/%d frequencies, want %d: %w",
			op, a.Frequencies(), b.Frequencies(), s.nfreq, ErrBadDimensions)
	}
	ms := make([]*cmatrix.CMatrix, s.nfreq)
	for fi := range ms {
		am, err := a.Matrix(fi)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		bm, err := b.Matrix(fi)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		m, det, err := cmatrix.MRDivide(bm, am)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if det == 0 {
			return nil, fmt.Errorf("%s: a-wave matrix not invertible: %w", op, ErrSingular)
		}
		ms[fi] = m
	}

	return ms, nil
}

// AddSingleReflectM measures a one-port reflect standard with
// reflection coefficient gamma on the given VNA port.
func (s *Session) AddSingleReflectM(m *vnadata.Data, gamma *param.Parameter, port int) error {
	s.checkValid()
	ms, err := s.measurements("AddSingleReflectM", m)
	if err != nil {
		return s.fail(CategoryUsage, err)
	}

	return s.addStandard("AddSingleReflectM", ms, [][]*param.Parameter{{gamma}}, []int{port})
}

// AddSingleReflect is AddSingleReflectM with the measurement given as
// raw a/b wave data.
func (s *Session) AddSingleReflect(a, b *vnadata.Data, gamma *param.Parameter, port int) error {
	s.checkValid()
	ms, err := s.measurementsAB("AddSingleReflect", a, b)
	if err != nil {
		return s.fail(categoryFor(err), err)
	}

	return s.addStandard("AddSingleReflect", ms, [][]*param.Parameter{{gamma}}, []int{port})
}

// AddDoubleReflectM measures two independent reflect standards on two
// VNA ports at once; the cross terms are ideal isolation.
func (s *Session) AddDoubleReflectM(m *vnadata.Data, gamma1, gamma2 *param.Parameter, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurements("AddDoubleReflectM", m)
	if err != nil {
		return s.fail(CategoryUsage, err)
	}
	match := s.store.Match()
	sp := [][]*param.Parameter{{gamma1, match}, {match, gamma2}}

	return s.addStandard("AddDoubleReflectM", ms, sp, []int{port1, port2})
}

// AddDoubleReflect is AddDoubleReflectM with raw a/b wave data.
func (s *Session) AddDoubleReflect(a, b *vnadata.Data, gamma1, gamma2 *param.Parameter, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurementsAB("AddDoubleReflect", a, b)
	if err != nil {
		return s.fail(categoryFor(err), err)
	}
	match := s.store.Match()
	sp := [][]*param.Parameter{{gamma1, match}, {match, gamma2}}

	return s.addStandard("AddDoubleReflect", ms, sp, []int{port1, port2})
}

// AddThroughM measures an ideal zero-length through between two VNA
// ports.
func (s *Session) AddThroughM(m *vnadata.Data, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurements("AddThroughM", m)
	if err != nil {
		return s.fail(CategoryUsage, err)
	}

	return s.addStandard("AddThroughM", ms, s.throughParameters(), []int{port1, port2})
}

// AddThrough is AddThroughM with raw a/b wave data.
func (s *Session) AddThrough(a, b *vnadata.Data, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurementsAB("AddThrough", a, b)
	if err != nil {
		return s.fail(categoryFor(err), err)
	}

	return s.addStandard("AddThrough", ms, s.throughParameters(), []int{port1, port2})
}

// throughParameters builds the S matrix of an ideal through. The unit
// transmission parameter is owned by the session and reclaimed at Free.
func (s *Session) throughParameters() [][]*param.Parameter {
	one := s.store.MakeScalar(1)
	s.owned = append(s.owned, one)
	match := s.store.Match()

	return [][]*param.Parameter{{match, one}, {one, match}}
}

// AddLineM measures an arbitrary known or partially known two-port
// standard between two VNA ports; sp is its 2x2 S-parameter matrix.
func (s *Session) AddLineM(m *vnadata.Data, sp [][]*param.Parameter, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurements("AddLineM", m)
	if err != nil {
		return s.fail(CategoryUsage, err)
	}

	return s.addStandard("AddLineM", ms, sp, []int{port1, port2})
}

// AddLine is AddLineM with raw a/b wave data.
func (s *Session) AddLine(a, b *vnadata.Data, sp [][]*param.Parameter, port1, port2 int) error {
	s.checkValid()
	ms, err := s.measurementsAB("AddLine", a, b)
	if err != nil {
		return s.fail(categoryFor(err), err)
	}

	return s.addStandard("AddLine", ms, sp, []int{port1, port2})
}

// AddMappedMatrixM measures an arbitrary multi-port standard. sp is the
// standard's S matrix over its own ports; portMap maps each standard
// port to a VNA port, -1 marking unconnected ports. Abbreviated
// measurement matrices order rows and columns by ascending VNA port.
func (s *Session) AddMappedMatrixM(m *vnadata.Data, sp [][]*param.Parameter, portMap []int) error {
	s.checkValid()
	ms, err := s.measurements("AddMappedMatrixM", m)
	if err != nil {
		return s.fail(CategoryUsage, err)
	}

	return s.addStandard("AddMappedMatrixM", ms, sp, portMap)
}

// AddMappedMatrix is AddMappedMatrixM with raw a/b wave data.
func (s *Session) AddMappedMatrix(a, b *vnadata.Data, sp [][]*param.Parameter, portMap []int) error {
	s.checkValid()
	ms, err := s.measurementsAB("AddMappedMatrix", a, b)
	if err != nil {
		return s.fail(categoryFor(err), err)
	}

	return s.addStandard("AddMappedMatrix", ms, sp, portMap)
}
