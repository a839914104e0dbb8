// Package param: the Store and the Parameter lifecycle.

package param

// Kind discriminates the parameter variants.
type Kind int

const (
	// KindScalar is a frequency-independent constant.
	KindScalar Kind = iota
	// KindVector is tabulated versus frequency.
	KindVector
	// KindUnknown is refined by the calibration solver.
	KindUnknown
	// KindCorrelated is an Unknown carrying an uncertainty.
	KindCorrelated
)

// Store owns a set of parameters shared across calibration sessions.
// Stores are not safe for concurrent use; a solve mutating unknown
// estimates must not race another solve against the same store.
type Store struct {
	match, open, short *Parameter
}

// Parameter is a refcounted handle to one standard parameter. The zero
// value is invalid; obtain parameters through a Store.
type Parameter struct {
	store *Store
	kind  Kind
	holds int
	// deleted marks the parameter for reclamation once holds reaches 0.
	deleted bool
	// permanent marks the Match/Open/Short singletons.
	permanent bool
	value     value
}

// NewStore creates a Store populated with the permanent Match, Open and
// Short singletons.
func NewStore() *Store {
	s := &Store{}
	s.match = s.newParameter(KindScalar, &scalarValue{v: 0}, true)
	s.open = s.newParameter(KindScalar, &scalarValue{v: 1}, true)
	s.short = s.newParameter(KindScalar, &scalarValue{v: -1}, true)

	return s
}

func (s *Store) newParameter(kind Kind, v value, permanent bool) *Parameter {
	// holds starts at 1: the store's own reference.
	return &Parameter{store: s, kind: kind, holds: 1, permanent: permanent, value: v}
}

// Match returns the permanent ideal-match singleton (0).
func (s *Store) Match() *Parameter { return s.match }

// Open returns the permanent ideal-open singleton (+1).
func (s *Store) Open() *Parameter { return s.open }

// Short returns the permanent ideal-short singleton (−1).
func (s *Store) Short() *Parameter { return s.short }

// MakeScalar allocates a frequency-independent parameter.
func (s *Store) MakeScalar(v complex128) *Parameter {
	return s.newParameter(KindScalar, &scalarValue{v: v}, false)
}

// MakeVector allocates a tabulated parameter. freqs must be strictly
// ascending and non-negative; values are copied.
func (s *Store) MakeVector(freqs []float64, values []complex128) (*Parameter, error) {
	if len(freqs) == 0 || len(freqs) != len(values) {
		return nil, ErrBadInput
	}
	if err := checkFreqs(freqs); err != nil {
		return nil, err
	}
	fv := &vectorValue{
		fs: append([]float64(nil), freqs...),
		vs: append([]complex128(nil), values...),
	}

	return s.newParameter(KindVector, fv, false), nil
}

// MakeUnknown allocates a parameter to be solved by the calibration,
// starting from the given initial-guess parameter. The guess is held for
// the lifetime of the new parameter.
func (s *Store) MakeUnknown(guess *Parameter) (*Parameter, error) {
	if guess == nil {
		return nil, ErrBadInput
	}
	guess.checkValid()
	guess.Hold()

	return s.newParameter(KindUnknown, &unknownValue{guess: guess}, false), nil
}

// MakeCorrelated allocates an Unknown-like parameter with an uncertainty
// (sigma, one standard deviation) versus frequency. Pass a single sigma
// with nil sigmaFreqs for a frequency-independent uncertainty.
func (s *Store) MakeCorrelated(guess *Parameter, sigmaFreqs []float64, sigmas []float64) (*Parameter, error) {
	if guess == nil || len(sigmas) == 0 {
		return nil, ErrBadInput
	}
	if sigmaFreqs == nil {
		if len(sigmas) != 1 {
			return nil, ErrBadInput
		}
	} else {
		if len(sigmaFreqs) != len(sigmas) {
			return nil, ErrBadInput
		}
		if err := checkFreqs(sigmaFreqs); err != nil {
			return nil, err
		}
	}
	for _, sg := range sigmas {
		if sg <= 0 {
			return nil, ErrBadInput
		}
	}
	guess.checkValid()
	guess.Hold()
	cv := &correlatedValue{
		unknownValue: unknownValue{guess: guess},
		sigmaFs:      append([]float64(nil), sigmaFreqs...),
		sigmas:       append([]float64(nil), sigmas...),
	}

	return s.newParameter(KindCorrelated, cv, false), nil
}

// checkFreqs validates strict ascent and non-negativity.
func checkFreqs(fs []float64) error {
	if fs[0] < 0 {
		return ErrNotAscending
	}
	for i := 1; i < len(fs); i++ {
		if fs[i] <= fs[i-1] {
			return ErrNotAscending
		}
	}

	return nil
}

// checkValid panics on use of a freed or zero-value parameter. This is
// an internal contract violation, not recoverable input error.
func (p *Parameter) checkValid() {
	if p == nil || p.value == nil || p.store == nil {
		panic("param: use of freed or invalid parameter")
	}
}

// Kind reports the parameter variant.
func (p *Parameter) Kind() Kind {
	p.checkValid()

	return p.kind
}

// Solvable reports whether the solver may refine this parameter
// (Unknown or Correlated).
func (p *Parameter) Solvable() bool {
	p.checkValid()

	return p.kind == KindUnknown || p.kind == KindCorrelated
}

// Hold takes an additional reference on p.
func (p *Parameter) Hold() {
	p.checkValid()
	p.holds++
}

// Release drops one reference. When the count reaches zero and the
// parameter has been deleted, its storage is reclaimed and any further
// use panics. Releasing below zero panics immediately (double free).
func (p *Parameter) Release() {
	p.checkValid()
	p.holds--
	if p.holds < 0 {
		panic("param: hold count underflow (double release)")
	}
	if p.holds == 0 && p.deleted {
		if u := p.value.underlying(); u != nil {
			u.Release()
		}
		p.value = nil
		p.store = nil
	}
}

// Delete marks p deleted and drops the store's own reference. The
// parameter survives until all other holders release it. Deleting a
// predefined singleton fails with ErrPermanent.
func (p *Parameter) Delete() error {
	p.checkValid()
	if p.permanent {
		return ErrPermanent
	}
	if !p.deleted {
		p.deleted = true
		p.Release()
	}

	return nil
}

// Evaluate resolves the parameter's value at frequency f, following
// Unknown/Correlated indirection down to the underlying Scalar/Vector
// (or to solved estimates when present). Vector evaluation outside the
// tabulated range fails with rfi.ErrOutOfRange.
func (p *Parameter) Evaluate(f float64) (complex128, error) {
	p.checkValid()

	return p.value.eval(f)
}

// SetSolved installs the solver's per-frequency estimates on an Unknown
// or Correlated parameter. Slices are copied.
func (p *Parameter) SetSolved(freqs []float64, values []complex128) error {
	p.checkValid()
	if len(freqs) == 0 || len(freqs) != len(values) {
		return ErrBadInput
	}
	if err := checkFreqs(freqs); err != nil {
		return err
	}
	switch v := p.value.(type) {
	case *unknownValue:
		v.setSolved(freqs, values)
	case *correlatedValue:
		v.setSolved(freqs, values)
	default:
		return ErrNotUnknown
	}

	return nil
}

// GuessAt evaluates the initial-guess value of an Unknown or Correlated
// parameter at f, ignoring any solved estimates.
func (p *Parameter) GuessAt(f float64) (complex128, error) {
	p.checkValid()
	u := p.value.underlying()
	if u == nil {
		return 0, ErrNotUnknown
	}

	return u.Evaluate(f)
}

// SigmaAt evaluates a Correlated parameter's uncertainty at f.
func (p *Parameter) SigmaAt(f float64) (float64, error) {
	p.checkValid()
	cv, ok := p.value.(*correlatedValue)
	if !ok {
		return 0, ErrNotCorrelated
	}

	return cv.sigmaAt(f)
}
