package windowing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Hann is a cached Hann taper. Spectral estimators use the periodic form
// (denominator N), filter design and plotting the symmetric one (N-1).
type Hann struct {
	size         int
	symmetric    bool
	coefficients []float64
	sumSquares   float64
}

// NewHann creates a Hann window of size samples
func NewHann(size int, symmetric bool) *Hann {
	h := &Hann{
		size:      size,
		symmetric: symmetric,
	}
	h.generate()
	return h
}

// NewPeriodicHann is the DFT-even window used by Welch and STFT
func NewPeriodicHann(size int) *Hann {
	return NewHann(size, false)
}

func (h *Hann) generate() {
	h.coefficients = make([]float64, h.size)
	if h.size == 1 {
		h.coefficients[0] = 1
		h.sumSquares = 1
		return
	}

	denominator := float64(h.size)
	if h.symmetric {
		denominator = float64(h.size - 1)
	}

	for i := range h.size {
		h.coefficients[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/denominator))
	}
	h.sumSquares = floats.Dot(h.coefficients, h.coefficients)
}

// Apply returns a windowed copy of signal
func (h *Hann) Apply(signal []float64) ([]float64, error) {
	if len(signal) != h.size {
		return nil, fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	windowed := make([]float64, h.size)
	floats.MulTo(windowed, signal, h.coefficients)
	return windowed, nil
}

// ApplyInPlace windows signal in place
func (h *Hann) ApplyInPlace(signal []float64) error {
	if len(signal) != h.size {
		return fmt.Errorf("signal length (%d) doesn't match window size (%d)", len(signal), h.size)
	}

	floats.Mul(signal, h.coefficients)
	return nil
}

// Coefficients returns a copy of the window coefficients
func (h *Hann) Coefficients() []float64 {
	coeffs := make([]float64, len(h.coefficients))
	copy(coeffs, h.coefficients)
	return coeffs
}

// SumSquares returns Σw², the power normalisation for density scaling
func (h *Hann) SumSquares() float64 {
	return h.sumSquares
}

// Size returns the window length
func (h *Hann) Size() int {
	return h.size
}
