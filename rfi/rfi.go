// Package rfi evaluates tabulated complex frequency data between its
// sample points using rational-function interpolation.
//
// The interpolant is a diagonal Bulirsch–Stoer rational function built
// over a sliding window of up to four samples around the evaluation
// point. Rational forms track the pole-like behavior of reflection and
// transmission coefficients far better than plain polynomials of the
// same order; when the rational recurrence degenerates (a coincident
// pole), the evaluator falls back to Neville polynomial interpolation on
// the same window.
//
// Evaluation is interpolation only: a point outside [xs[0], xs[n-1]]
// returns ErrOutOfRange, never an extrapolated value.
//
// Callers that sweep a frequency axis should pass a persistent cursor:
// the previous segment index is cached there, making repeated nearby
// evaluations O(1) amortized instead of a fresh search per call.
package rfi

import "errors"

var (
	// ErrBadInput indicates empty or length-mismatched sample slices.
	ErrBadInput = errors.New("rfi: need equal-length, non-empty samples")

	// ErrNotAscending indicates the sample axis is not strictly ascending.
	ErrNotAscending = errors.New("rfi: x values must be strictly ascending")

	// ErrOutOfRange indicates the evaluation point lies outside the
	// tabulated range (extrapolation is not supported).
	ErrOutOfRange = errors.New("rfi: x outside tabulated range")
)

// window is the maximum number of samples the interpolant uses.
const window = 4

// Eval interpolates ys (tabulated at strictly ascending xs) at x.
//
// cursor may be nil; when non-nil it carries the last segment index
// between calls and is updated before returning.
func Eval(xs []float64, ys []complex128, x float64, cursor *int) (complex128, error) {
	n := len(xs)
	if n == 0 || len(ys) != n {
		return 0, ErrBadInput
	}
	for i := 1; i < n; i++ {
		if xs[i] <= xs[i-1] {
			return 0, ErrNotAscending
		}
	}
	if x < xs[0] || x > xs[n-1] {
		return 0, ErrOutOfRange
	}

	// Locate the segment [xs[s], xs[s+1]] containing x, starting from the
	// cached cursor when available.
	s := 0
	if cursor != nil && *cursor >= 0 && *cursor < n-1 {
		s = *cursor
	}
	for s > 0 && x < xs[s] {
		s--
	}
	for s < n-2 && x > xs[s+1] {
		s++
	}
	if cursor != nil {
		*cursor = s
	}

	// An exact knot hit needs no interpolation (and avoids the h=0 terms
	// of the rational recurrence).
	for i := s; i <= s+1 && i < n; i++ {
		if xs[i] == x {
			return ys[i], nil
		}
	}

	// Select up to `window` samples centered on the segment.
	lo := s - 1
	if lo < 0 {
		lo = 0
	}
	hi := lo + window - 1
	if hi > n-1 {
		hi = n - 1
		if lo = hi - window + 1; lo < 0 {
			lo = 0
		}
	}

	y, ok := ratint(xs[lo:hi+1], ys[lo:hi+1], x)
	if !ok {
		y = neville(xs[lo:hi+1], ys[lo:hi+1], x)
	}

	return y, nil
}

// ratint runs the diagonal Bulirsch–Stoer rational recurrence over the
// window. ok is false when a coincident pole degenerates the recurrence.
func ratint(xs []float64, ys []complex128, x float64) (complex128, bool) {
	n := len(xs)
	c := make([]complex128, n)
	d := make([]complex128, n)
	copy(c, ys)
	copy(d, ys)

	// Start from the sample nearest to x.
	ns := 0
	best := xs[n-1] - xs[0]
	for i := 0; i < n; i++ {
		if dist := abs64(x - xs[i]); dist < best {
			best, ns = dist, i
		}
	}
	y := ys[ns]
	ns--

	for m := 1; m < n; m++ {
		for i := 0; i < n-m; i++ {
			w := c[i+1] - d[i]
			h := xs[i+m] - x // nonzero: exact knots returned earlier
			tt := complex((xs[i]-x)/h, 0) * d[i]
			dd := tt - c[i+1]
			if dd == 0 {
				return 0, false // pole at the evaluation point
			}
			dd = w / dd
			d[i] = c[i+1] * dd
			c[i] = tt * dd
		}
		if 2*(ns+1) < n-m {
			y += c[ns+1]
		} else {
			y += d[ns]
			ns--
		}
	}

	return y, true
}

// neville is the polynomial fallback on the same window.
func neville(xs []float64, ys []complex128, x float64) complex128 {
	n := len(xs)
	p := make([]complex128, n)
	copy(p, ys)
	for m := 1; m < n; m++ {
		for i := 0; i < n-m; i++ {
			num := complex(x-xs[i+m], 0)*p[i] - complex(x-xs[i], 0)*p[i+1]
			p[i] = num / complex(xs[i]-xs[i+m], 0)
		}
	}

	return p[0]
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}
