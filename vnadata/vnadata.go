// Package vnadata: the Data container.

package vnadata

import (
	"fmt"

	"github.com/vnakit/vnakit/cmatrix"
)

// ParameterType tags the network-parameter family stored in a Data
// container; the excluded save/convert layers dispatch on it.
type ParameterType int

// Network-parameter families.
const (
	Undef ParameterType = iota
	S
	Z
	Y
	T
	U
	H
	G
	A
	B
	Zin
)

var typeNames = [...]string{"undef", "S", "Z", "Y", "T", "U", "H", "G", "A", "B", "Zin"}

// String implements fmt.Stringer.
func (t ParameterType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return fmt.Sprintf("ParameterType(%d)", int(t))
	}

	return typeNames[t]
}

// DefaultZ0 is the reference impedance applied to every port unless the
// caller supplies its own.
const DefaultZ0 = complex(50, 0)

// Data holds (frequencies × rows × cols) complex cells, frequency-major,
// with either one global reference-impedance vector or one per frequency.
type Data struct {
	typ        ParameterType
	rows, cols int
	freqs      []float64
	data       []complex128 // len == len(freqs)*rows*cols
	z0Global   []complex128 // len == ports, nil in per-frequency mode
	z0PerF     []complex128 // len == len(freqs)*ports, nil in global mode
	formats    []string     // output-format list for the save layer
}

// New creates a container with the given counts; all cells zero, all
// frequencies zero, global z0 of DefaultZ0 per port.
func New(nfreq, rows, cols int, typ ParameterType) (*Data, error) {
	if nfreq <= 0 || rows <= 0 || cols <= 0 {
		return nil, ErrBadShape
	}
	d := &Data{
		typ:   typ,
		rows:  rows,
		cols:  cols,
		freqs: make([]float64, nfreq),
		data:  make([]complex128, nfreq*rows*cols),
	}
	d.z0Global = make([]complex128, d.Ports())
	for i := range d.z0Global {
		d.z0Global[i] = DefaultZ0
	}

	return d, nil
}

// Frequencies returns the number of frequency points.
func (d *Data) Frequencies() int { return len(d.freqs) }

// Rows returns the row count.
func (d *Data) Rows() int { return d.rows }

// Cols returns the column count.
func (d *Data) Cols() int { return d.cols }

// Ports returns the per-port vector length used for z0: max(rows, cols).
func (d *Data) Ports() int { return max(d.rows, d.cols) }

// Type returns the parameter-type tag.
func (d *Data) Type() ParameterType { return d.typ }

// SetType replaces the parameter-type tag. The cells are not converted;
// conversion belongs to the excluded collaborator layer.
func (d *Data) SetType(t ParameterType) { d.typ = t }

// Formats returns the named output-format list (save layer only).
func (d *Data) Formats() []string { return append([]string(nil), d.formats...) }

// SetFormats replaces the named output-format list.
func (d *Data) SetFormats(fs []string) { d.formats = append([]string(nil), fs...) }

// Resize changes the dimensions in place. Cells are preserved per
// frequency block by flat offset and zero-filled beyond the old extent;
// see the package doc for the column-count caveat. Reference impedances
// are preserved per port index, new ports default to DefaultZ0.
func (d *Data) Resize(nfreq, rows, cols int) error {
	if nfreq <= 0 || rows <= 0 || cols <= 0 {
		return ErrBadShape
	}
	oldBlock := d.rows * d.cols
	newBlock := rows * cols
	oldN := len(d.freqs)
	oldPorts := d.Ports()

	newData := make([]complex128, nfreq*newBlock)
	for f := 0; f < min(nfreq, oldN); f++ {
		copy(newData[f*newBlock:(f+1)*newBlock], d.data[f*oldBlock:f*oldBlock+min(oldBlock, newBlock)])
	}

	newFreqs := make([]float64, nfreq)
	copy(newFreqs, d.freqs)

	ports := max(rows, cols)
	if d.z0Global != nil {
		z := make([]complex128, ports)
		for i := range z {
			if i < oldPorts {
				z[i] = d.z0Global[i]
			} else {
				z[i] = DefaultZ0
			}
		}
		d.z0Global = z
	} else {
		z := make([]complex128, nfreq*ports)
		for f := 0; f < nfreq; f++ {
			for p := 0; p < ports; p++ {
				if f < oldN && p < oldPorts {
					z[f*ports+p] = d.z0PerF[f*oldPorts+p]
				} else {
					z[f*ports+p] = DefaultZ0
				}
			}
		}
		d.z0PerF = z
	}

	d.rows, d.cols = rows, cols
	d.freqs = newFreqs
	d.data = newData

	return nil
}

func (d *Data) cellIndex(fidx, row, col int) (int, error) {
	if fidx < 0 || fidx >= len(d.freqs) || row < 0 || row >= d.rows || col < 0 || col >= d.cols {
		return 0, ErrOutOfRange
	}

	return (fidx*d.rows+row)*d.cols + col, nil
}

// Cell returns the value at (fidx, row, col).
func (d *Data) Cell(fidx, row, col int) (complex128, error) {
	i, err := d.cellIndex(fidx, row, col)
	if err != nil {
		return 0, err
	}

	return d.data[i], nil
}

// SetCell assigns the value at (fidx, row, col).
func (d *Data) SetCell(fidx, row, col int, v complex128) error {
	i, err := d.cellIndex(fidx, row, col)
	if err != nil {
		return err
	}
	d.data[i] = v

	return nil
}

// Matrix returns a copy of the rows×cols matrix at frequency fidx.
func (d *Data) Matrix(fidx int) (*cmatrix.CMatrix, error) {
	if fidx < 0 || fidx >= len(d.freqs) {
		return nil, ErrOutOfRange
	}
	m, err := cmatrix.New(d.rows, d.cols)
	if err != nil {
		return nil, err
	}
	base := fidx * d.rows * d.cols
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			if err = m.Set(r, c, d.data[base+r*d.cols+c]); err != nil {
				return nil, err
			}
		}
	}

	return m, nil
}

// SetMatrix copies m into the block at frequency fidx.
func (d *Data) SetMatrix(fidx int, m *cmatrix.CMatrix) error {
	if fidx < 0 || fidx >= len(d.freqs) {
		return ErrOutOfRange
	}
	if m == nil || m.Rows() != d.rows || m.Cols() != d.cols {
		return ErrDimensionMismatch
	}
	base := fidx * d.rows * d.cols
	for r := 0; r < d.rows; r++ {
		for c := 0; c < d.cols; c++ {
			v, err := m.At(r, c)
			if err != nil {
				return err
			}
			d.data[base+r*d.cols+c] = v
		}
	}

	return nil
}

// FrequencyVector returns a copy of the frequency vector.
func (d *Data) FrequencyVector() []float64 {
	return append([]float64(nil), d.freqs...)
}

// SetFrequencyVector replaces the whole frequency vector; it must be
// strictly ascending, non-negative and of the current length.
func (d *Data) SetFrequencyVector(fs []float64) error {
	if len(fs) != len(d.freqs) {
		return ErrDimensionMismatch
	}
	if fs[0] < 0 {
		return ErrNotAscending
	}
	for i := 1; i < len(fs); i++ {
		if fs[i] <= fs[i-1] {
			return ErrNotAscending
		}
	}
	copy(d.freqs, fs)

	return nil
}

// Frequency returns the frequency at index fidx.
func (d *Data) Frequency(fidx int) (float64, error) {
	if fidx < 0 || fidx >= len(d.freqs) {
		return 0, ErrOutOfRange
	}

	return d.freqs[fidx], nil
}

// SetFrequency assigns a single frequency point. Ordering is only
// enforced by SetFrequencyVector; scalar writes allow incremental fills.
func (d *Data) SetFrequency(fidx int, f float64) error {
	if fidx < 0 || fidx >= len(d.freqs) {
		return ErrOutOfRange
	}
	if f < 0 {
		return ErrNotAscending
	}
	d.freqs[fidx] = f

	return nil
}

// Z0Vector returns a copy of the global reference-impedance vector.
// Fails with ErrZ0Mode in per-frequency mode.
func (d *Data) Z0Vector() ([]complex128, error) {
	if d.z0Global == nil {
		return nil, ErrZ0Mode
	}

	return append([]complex128(nil), d.z0Global...), nil
}

// SetZ0Vector replaces the global vector (one entry per port). Fails
// with ErrZ0Mode in per-frequency mode.
func (d *Data) SetZ0Vector(z []complex128) error {
	if d.z0Global == nil {
		return ErrZ0Mode
	}
	if len(z) != d.Ports() {
		return ErrDimensionMismatch
	}
	copy(d.z0Global, z)

	return nil
}

// Z0VectorAt returns a copy of the per-frequency vector at fidx. Fails
// with ErrZ0Mode in global mode.
func (d *Data) Z0VectorAt(fidx int) ([]complex128, error) {
	if d.z0PerF == nil {
		return nil, ErrZ0Mode
	}
	if fidx < 0 || fidx >= len(d.freqs) {
		return nil, ErrOutOfRange
	}
	p := d.Ports()

	return append([]complex128(nil), d.z0PerF[fidx*p:(fidx+1)*p]...), nil
}

// SetZ0VectorAt replaces the per-frequency vector at fidx. Fails with
// ErrZ0Mode in global mode.
func (d *Data) SetZ0VectorAt(fidx int, z []complex128) error {
	if d.z0PerF == nil {
		return ErrZ0Mode
	}
	if fidx < 0 || fidx >= len(d.freqs) {
		return ErrOutOfRange
	}
	p := d.Ports()
	if len(z) != p {
		return ErrDimensionMismatch
	}
	copy(d.z0PerF[fidx*p:(fidx+1)*p], z)

	return nil
}

// ConvertToPerFrequencyZ0 switches to per-frequency mode, replicating
// the current global vector to every frequency. No-op reports ErrZ0Mode
// when already per-frequency.
func (d *Data) ConvertToPerFrequencyZ0() error {
	if d.z0Global == nil {
		return ErrZ0Mode
	}
	p := d.Ports()
	z := make([]complex128, len(d.freqs)*p)
	for f := range d.freqs {
		copy(z[f*p:(f+1)*p], d.z0Global)
	}
	d.z0PerF = z
	d.z0Global = nil

	return nil
}

// ConvertToGlobalZ0 switches to global mode. All per-frequency vectors
// must be identical; otherwise the conversion would lose information and
// fails with ErrZ0Mode.
func (d *Data) ConvertToGlobalZ0() error {
	if d.z0PerF == nil {
		return ErrZ0Mode
	}
	p := d.Ports()
	for f := 1; f < len(d.freqs); f++ {
		for i := 0; i < p; i++ {
			if d.z0PerF[f*p+i] != d.z0PerF[i] {
				return ErrZ0Mode
			}
		}
	}
	d.z0Global = append([]complex128(nil), d.z0PerF[:p]...)
	d.z0PerF = nil

	return nil
}
