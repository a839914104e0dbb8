package vnacal

import (
	"fmt"

	"github.com/vnakit/vnakit/cmatrix"
	"github.com/vnakit/vnakit/param"
	"github.com/vnakit/vnakit/vnadata"
)

// Solver defaults.
const (
	// DefaultEtTolerance bounds the RMS relative change of the error-term
	// vector at convergence.
	DefaultEtTolerance = 1e-6

	// DefaultPTolerance bounds the RMS relative change of the unknown
	// parameter estimates at convergence.
	DefaultPTolerance = 1e-6

	// DefaultIterationLimit caps the linearize/solve cycles per frequency.
	DefaultIterationLimit = 50

	// DefaultSignificance is the p-value below which a solution is
	// rejected as inconsistent with the measurement-error model.
	DefaultSignificance = 0.001
)

// standard is one calibration measurement: the expected S parameters of
// the standard, the map from its ports to VNA ports, and the measured
// matrix per frequency. full marks measurements spanning the whole VNA
// matrix rather than the mapped subset.
type standard struct {
	ports []int
	s     [][]*param.Parameter
	m     []*cmatrix.CMatrix
	full  bool
}

// mError is the declared measurement-error model: a noise floor and a
// signal-proportional tracking error, each tabulated versus frequency.
type mError struct {
	fs       []float64
	noise    []complex128
	tracking []complex128
	ncur     int
	tcur     int
}

// Session accumulates calibration standards and solves them into a
// Calibration. Sessions are not safe for concurrent use. A solved
// session remains usable: more standards may be added and Solve called
// again.
type Session struct {
	store  *param.Store
	layout Layout
	// work is the layout the solver operates on; it differs from layout
	// only for E12, which is solved as UE14 and reformatted.
	work      Layout
	nports    int
	nfreq     int
	freqs     []float64
	z0        complex128
	standards []*standard
	held      []*param.Parameter
	owned     []*param.Parameter
	etTol     float64
	pTol      float64
	iterLimit int
	sig       float64
	merr      *mError
	errFunc   ErrorFunc
	freed     bool
}

// NewSession starts a calibration of the given family and VNA
// dimensions, with room for nfreq frequency points. Standard parameters
// are drawn from store and held until Free.
func NewSession(store *param.Store, typ CalType, rows, cols, nfreq int) (*Session, error) {
	if store == nil {
		return nil, fmt.Errorf("NewSession: nil store: %w", ErrBadArgument)
	}
	if nfreq < 1 {
		return nil, fmt.Errorf("NewSession: %d frequencies: %w", nfreq, ErrBadDimensions)
	}
	layout, err := NewLayout(typ, rows, cols)
	if err != nil {
		return nil, fmt.Errorf("NewSession: %w", err)
	}
	work := layout
	if typ == E12 {
		if work, err = NewLayout(UE14, rows, cols); err != nil {
			return nil, fmt.Errorf("NewSession: %w", err)
		}
	}

	return &Session{
		store:     store,
		layout:    layout,
		work:      work,
		nports:    maxInt(rows, cols),
		nfreq:     nfreq,
		z0:        vnadata.DefaultZ0,
		etTol:     DefaultEtTolerance,
		pTol:      DefaultPTolerance,
		iterLimit: DefaultIterationLimit,
		sig:       DefaultSignificance,
	}, nil
}

// checkValid panics on use after Free: a programming error, not an
// input error.
func (s *Session) checkValid() {
	if s.freed {
		panic("vnacal: use of freed session")
	}
}

// fail reports err through the error callback, if any, and returns it.
func (s *Session) fail(cat Category, err error) error {
	if s.errFunc != nil {
		s.errFunc(cat, err.Error())
	}

	return err
}

// SetErrorFunc installs a callback observing every failure of this
// session. Pass nil to remove it.
func (s *Session) SetErrorFunc(fn ErrorFunc) {
	s.checkValid()
	s.errFunc = fn
}

// Layout returns the error-term layout the session solves for.
func (s *Session) Layout() Layout {
	s.checkValid()

	return s.layout
}

// SetFrequencyVector installs the calibration frequencies. The length
// was fixed at session creation; values must be strictly ascending and
// non-negative.
func (s *Session) SetFrequencyVector(fs []float64) error {
	s.checkValid()
	if len(fs) != s.nfreq {
		return s.fail(CategoryUsage,
			fmt.Errorf("SetFrequencyVector: got %d frequencies, want %d: %w", len(fs), s.nfreq, ErrBadFrequency))
	}
	if fs[0] < 0 {
		return s.fail(CategoryUsage,
			fmt.Errorf("SetFrequencyVector: negative frequency: %w", ErrBadFrequency))
	}
	for i := 1; i < len(fs); i++ {
		if fs[i] <= fs[i-1] {
			return s.fail(CategoryUsage,
				fmt.Errorf("SetFrequencyVector: not strictly ascending: %w", ErrBadFrequency))
		}
	}
	s.freqs = append(s.freqs[:0], fs...)

	return nil
}

// SetZ0 sets the uniform reference impedance the standards are defined
// against. The default is 50 ohms.
func (s *Session) SetZ0(z0 complex128) error {
	s.checkValid()
	if real(z0) <= 0 {
		return s.fail(CategoryUsage, fmt.Errorf("SetZ0: non-positive resistance: %w", ErrBadArgument))
	}
	s.z0 = z0

	return nil
}

// SetEtTolerance overrides the error-term convergence tolerance.
func (s *Session) SetEtTolerance(tol float64) error {
	s.checkValid()
	if tol <= 0 {
		return s.fail(CategoryUsage, fmt.Errorf("SetEtTolerance: %v: %w", tol, ErrBadArgument))
	}
	s.etTol = tol

	return nil
}

// SetPTolerance overrides the unknown-parameter convergence tolerance.
func (s *Session) SetPTolerance(tol float64) error {
	s.checkValid()
	if tol <= 0 {
		return s.fail(CategoryUsage, fmt.Errorf("SetPTolerance: %v: %w", tol, ErrBadArgument))
	}
	s.pTol = tol

	return nil
}

// SetIterationLimit overrides the per-frequency iteration cap.
func (s *Session) SetIterationLimit(n int) error {
	s.checkValid()
	if n < 1 {
		return s.fail(CategoryUsage, fmt.Errorf("SetIterationLimit: %d: %w", n, ErrBadArgument))
	}
	s.iterLimit = n

	return nil
}

// SetPValueLimit overrides the significance level of the chi-squared
// consistency test applied when a measurement-error model is set.
func (s *Session) SetPValueLimit(significance float64) error {
	s.checkValid()
	if significance <= 0 || significance >= 1 {
		return s.fail(CategoryUsage, fmt.Errorf("SetPValueLimit: %v: %w", significance, ErrBadArgument))
	}
	s.sig = significance

	return nil
}

// SetMError declares the measurement-error model: noise is the additive
// noise floor and tracking the signal-proportional error, both one
// standard deviation, tabulated over fs. tracking may be nil. Setting a
// model makes the solver weight equations by expected error and gate
// the solution on a p-value test.
func (s *Session) SetMError(fs, noise, tracking []float64) error {
	s.checkValid()
	if len(fs) == 0 || len(noise) != len(fs) || (tracking != nil && len(tracking) != len(fs)) {
		return s.fail(CategoryUsage, fmt.Errorf("SetMError: mismatched lengths: %w", ErrBadArgument))
	}
	if fs[0] < 0 {
		return s.fail(CategoryUsage, fmt.Errorf("SetMError: negative frequency: %w", ErrBadFrequency))
	}
	for i := 1; i < len(fs); i++ {
		if fs[i] <= fs[i-1] {
			return s.fail(CategoryUsage, fmt.Errorf("SetMError: not strictly ascending: %w", ErrBadFrequency))
		}
	}
	me := &mError{
		fs:    append([]float64(nil), fs...),
		noise: make([]complex128, len(fs)),
	}
	for i, v := range noise {
		if v <= 0 {
			return s.fail(CategoryUsage, fmt.Errorf("SetMError: non-positive noise floor: %w", ErrBadArgument))
		}
		me.noise[i] = complex(v, 0)
	}
	if tracking != nil {
		me.tracking = make([]complex128, len(fs))
		for i, v := range tracking {
			if v < 0 {
				return s.fail(CategoryUsage, fmt.Errorf("SetMError: negative tracking error: %w", ErrBadArgument))
			}
			me.tracking[i] = complex(v, 0)
		}
	}
	s.merr = me

	return nil
}

// Free releases every parameter reference the session holds and
// invalidates it. Calibrations produced by Solve are unaffected.
func (s *Session) Free() {
	s.checkValid()
	for _, p := range s.held {
		p.Release()
	}
	for _, p := range s.owned {
		_ = p.Delete()
	}
	s.held, s.owned, s.standards = nil, nil, nil
	s.freed = true
}
