// Package param: the unexported value variants behind Parameter.

package param

import "github.com/vnakit/vnakit/rfi"

// value is the variant interface. underlying exposes a held child
// parameter (the Unknown's guess) for lifecycle bookkeeping.
type value interface {
	eval(f float64) (complex128, error)
	underlying() *Parameter
}

// scalarValue is a frequency-independent constant.
type scalarValue struct {
	v complex128
}

func (s *scalarValue) eval(float64) (complex128, error) { return s.v, nil }
func (s *scalarValue) underlying() *Parameter           { return nil }

// vectorValue is tabulated versus frequency; cursor caches the last
// interpolation segment for amortized O(1) sweeps.
type vectorValue struct {
	fs     []float64
	vs     []complex128
	cursor int
}

func (v *vectorValue) eval(f float64) (complex128, error) {
	return rfi.Eval(v.fs, v.vs, f, &v.cursor)
}

func (v *vectorValue) underlying() *Parameter { return nil }

// unknownValue wraps a guess parameter and, once solved, the estimates
// produced by the calibration solver.
type unknownValue struct {
	guess   *Parameter
	solvedF []float64
	solvedV []complex128
	cursor  int
}

func (u *unknownValue) eval(f float64) (complex128, error) {
	if u.solvedF != nil {
		return rfi.Eval(u.solvedF, u.solvedV, f, &u.cursor)
	}

	return u.guess.Evaluate(f)
}

func (u *unknownValue) underlying() *Parameter { return u.guess }

func (u *unknownValue) setSolved(freqs []float64, values []complex128) {
	u.solvedF = append([]float64(nil), freqs...)
	u.solvedV = append([]complex128(nil), values...)
	u.cursor = 0
}

// correlatedValue extends unknownValue with an uncertainty curve. The
// sigma samples are kept as complex values so the shared interpolator
// can evaluate them; sigma itself is real.
type correlatedValue struct {
	unknownValue
	sigmaFs     []float64
	sigmas      []float64
	sigmaC      []complex128
	sigmaCursor int
}

func (c *correlatedValue) sigmaAt(f float64) (float64, error) {
	if c.sigmaFs == nil {
		return c.sigmas[0], nil
	}
	if c.sigmaC == nil {
		c.sigmaC = make([]complex128, len(c.sigmas))
		for i, s := range c.sigmas {
			c.sigmaC[i] = complex(s, 0)
		}
	}
	v, err := rfi.Eval(c.sigmaFs, c.sigmaC, f, &c.sigmaCursor)
	if err != nil {
		return 0, err
	}

	return real(v), nil
}
