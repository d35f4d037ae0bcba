package spectral

import (
	"gonum.org/v1/gonum/floats"
)

// SpectralEdge finds the frequency below which a fraction of the total
// power lies. SEF90 uses fraction 0.9.
type SpectralEdge struct {
	fraction float64
}

// NewSpectralEdge creates an edge-frequency calculator
func NewSpectralEdge(fraction float64) *SpectralEdge {
	return &SpectralEdge{fraction: fraction}
}

// Compute returns the first bin whose cumulative power reaches
// fraction·total. The last bin is returned if none does.
func (se *SpectralEdge) Compute(freqs, power []float64) float64 {
	if len(power) == 0 {
		return 0.0
	}

	cumulative := floats.CumSum(make([]float64, len(power)), power)
	target := se.fraction * cumulative[len(cumulative)-1]

	for i, c := range cumulative {
		if c >= target {
			return freqs[i]
		}
	}
	return freqs[len(freqs)-1]
}
