package vnacal

import "fmt"

// Calibration is an immutable solved error-term set: one term vector
// per calibration frequency, laid out per the family (see Layout).
type Calibration struct {
	lay   Layout
	freqs []float64
	z0    complex128
	terms [][]complex128
}

// Type returns the calibration family.
func (c *Calibration) Type() CalType { return c.lay.typ }

// Rows returns the VNA row (detector) count.
func (c *Calibration) Rows() int { return c.lay.rows }

// Cols returns the VNA column (driver) count.
func (c *Calibration) Cols() int { return c.lay.cols }

// Layout returns the error-term layout.
func (c *Calibration) Layout() Layout { return c.lay }

// Frequencies returns the calibration frequency count.
func (c *Calibration) Frequencies() int { return len(c.freqs) }

// FrequencyVector returns a copy of the calibration frequencies.
func (c *Calibration) FrequencyVector() []float64 {
	return append([]float64(nil), c.freqs...)
}

// Z0 returns the reference impedance the calibration was made against.
func (c *Calibration) Z0() complex128 { return c.z0 }

// TermVector returns a copy of the error terms at frequency index fidx.
func (c *Calibration) TermVector(fidx int) ([]complex128, error) {
	if fidx < 0 || fidx >= len(c.freqs) {
		return nil, fmt.Errorf("TermVector: index %d of %d: %w", fidx, len(c.freqs), ErrBadFrequency)
	}

	return append([]complex128(nil), c.terms[fidx]...), nil
}

// ue14ToE12 reformats a solved UE14 term vector into the twelve-term
// layout: the pinned unit us terms are dropped, everything else is
// repacked per column.
func ue14ToE12(work, lay Layout, tv []complex128) []complex128 {
	out := make([]complex128, lay.terms)
	for j := 0; j < lay.cols; j++ {
		for i := 0; i < lay.rows; i++ {
			out[lay.umColIdx(j, i)] = tv[work.umColIdx(j, i)]
			out[lay.uxColIdx(j, i)] = tv[work.uxColIdx(j, i)]
			if i != j {
				out[lay.elColIdx(j, i)] = tv[work.elColIdx(j, i)]
			}
		}
		out[lay.uiColIdx(j)] = tv[work.uiColIdx(j)]
	}

	return out
}
