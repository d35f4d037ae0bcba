package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// ShannonEntropy returns -Σ p·log_base(p) of a probability distribution.
// Zero probabilities contribute nothing.
func ShannonEntropy(probabilities []float64, base float64) float64 {
	entropy := 0.0
	for _, p := range probabilities {
		if p > 0 {
			entropy -= p * math.Log(p)
		}
	}
	return entropy / math.Log(base)
}

// NormalizeToProbabilities scales non-negative weights to sum to 1. It
// returns nil when the weights sum to zero.
func NormalizeToProbabilities(weights []float64) []float64 {
	total := floats.Sum(weights)
	if total <= 0 {
		return nil
	}

	probabilities := make([]float64, len(weights))
	floats.ScaleTo(probabilities, 1/total, weights)
	return probabilities
}
