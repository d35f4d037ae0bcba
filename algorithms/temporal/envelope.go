package temporal

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// Envelope provides amplitude envelope extraction
type Envelope struct {
	// No state needed - stateless calculation
}

// NewEnvelope creates a new envelope extractor
func NewEnvelope() *Envelope {
	return &Envelope{}
}

// AnalyticSignal returns x + i·H{x} computed in the frequency domain:
// positive frequencies are doubled, negative ones zeroed, DC and (for even
// lengths) Nyquist kept as is.
func (e *Envelope) AnalyticSignal(signal []float64) ([]complex128, error) {
	n := len(signal)
	if n == 0 {
		return nil, fmt.Errorf("empty signal")
	}

	seq := make([]complex128, n)
	for i, v := range signal {
		seq[i] = complex(v, 0)
	}

	fft := fourier.NewCmplxFFT(n)
	coeffs := fft.Coefficients(nil, seq)

	half := (n + 1) / 2
	for k := 1; k < n; k++ {
		switch {
		case k < half:
			coeffs[k] *= 2
		case n%2 == 0 && k == n/2:
			// Nyquist bin stays
		default:
			coeffs[k] = 0
		}
	}

	analytic := fft.Sequence(nil, coeffs)
	scale := complex(1/float64(n), 0)
	for i := range analytic {
		analytic[i] *= scale
	}
	return analytic, nil
}

// ComputeHilbert returns the instantaneous amplitude |x + i·H{x}|
func (e *Envelope) ComputeHilbert(signal []float64) ([]float64, error) {
	analytic, err := e.AnalyticSignal(signal)
	if err != nil {
		return nil, err
	}

	envelope := make([]float64, len(analytic))
	for i, z := range analytic {
		envelope[i] = cmplx.Abs(z)
	}
	return envelope, nil
}
