package spectral

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// SpectralFlatness is the ratio of geometric to arithmetic mean of a power
// spectrum (Wiener entropy). 1 means white, values near 0 mean peaked.
type SpectralFlatness struct {
	epsilon float64 // keeps log(0) finite
}

// NewSpectralFlatness creates a flatness calculator
func NewSpectralFlatness(epsilon float64) *SpectralFlatness {
	return &SpectralFlatness{epsilon: epsilon}
}

// Compute returns exp(mean(log(P+ε))) / (mean(P) + ε)
func (sf *SpectralFlatness) Compute(power []float64) float64 {
	if len(power) == 0 {
		return 0.0
	}

	logSum := 0.0
	for _, p := range power {
		logSum += math.Log(p + sf.epsilon)
	}
	geometricMean := math.Exp(logSum / float64(len(power)))

	return geometricMean / (stat.Mean(power, nil) + sf.epsilon)
}
