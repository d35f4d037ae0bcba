package spectral

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// SpectralEntropy is the Shannon entropy of a power spectrum treated as a
// probability distribution, normalised to [0, 1] by log2 of the bin count.
type SpectralEntropy struct {
	epsilon float64
}

// NewSpectralEntropy creates an entropy calculator
func NewSpectralEntropy(epsilon float64) *SpectralEntropy {
	return &SpectralEntropy{epsilon: epsilon}
}

// Compute returns -Σ p·log2(p+ε) / log2(n) with p = P/(ΣP+ε).
// A single-bin spectrum has no spread and yields 0.
func (se *SpectralEntropy) Compute(power []float64) float64 {
	if len(power) < 2 {
		return 0.0
	}

	total := floats.Sum(power) + se.epsilon
	entropy := 0.0
	for _, v := range power {
		p := v / total
		entropy -= p * math.Log2(p+se.epsilon)
	}

	return entropy / math.Log2(float64(len(power)))
}
