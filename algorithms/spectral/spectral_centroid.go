package spectral

// SpectralCentroid computes the power-weighted mean frequency of a density
type SpectralCentroid struct {
	epsilon float64
}

// NewSpectralCentroid creates a centroid calculator. epsilon guards the
// denominator of an all-zero spectrum.
func NewSpectralCentroid(epsilon float64) *SpectralCentroid {
	return &SpectralCentroid{epsilon: epsilon}
}

// Compute returns Σ f·P / (Σ P + ε)
func (sc *SpectralCentroid) Compute(freqs, power []float64) float64 {
	if len(power) == 0 {
		return 0.0
	}

	numerator := 0.0
	denominator := 0.0
	for i := range power {
		numerator += freqs[i] * power[i]
		denominator += power[i]
	}

	return numerator / (denominator + sc.epsilon)
}

// PeakFrequency returns the frequency of the largest bin. Ties resolve to
// the lowest frequency.
func PeakFrequency(freqs, power []float64) float64 {
	if len(power) == 0 {
		return 0.0
	}

	peak := 0
	for i := 1; i < len(power); i++ {
		if power[i] > power[peak] {
			peak = i
		}
	}
	return freqs[peak]
}
