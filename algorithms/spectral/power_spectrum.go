package spectral

// PowerSpectrum turns spectrogram magnitudes into one-sided densities
type PowerSpectrum struct {
	// No state needed - stateless calculation
}

// NewPowerSpectrum creates a new power spectrum calculator
func NewPowerSpectrum() *PowerSpectrum {
	return &PowerSpectrum{}
}

// Compute squares a magnitude spectrum
func (ps *PowerSpectrum) Compute(magnitudeSpectrum []float64) []float64 {
	if len(magnitudeSpectrum) == 0 {
		return []float64{}
	}

	power := make([]float64, len(magnitudeSpectrum))
	for i, mag := range magnitudeSpectrum {
		power[i] = mag * mag
	}

	return power
}

// DensityFromSTFT converts every frame of an STFT into a one-sided density
// (units²/Hz), given Σw² of the analysis window. The scaling matches
// Welch.PSD so band powers of the two are comparable.
func (ps *PowerSpectrum) DensityFromSTFT(stftResult *STFTResult, windowSumSquares float64) [][]float64 {
	plan := welchPlan{
		nperseg:    stftResult.WindowSize,
		bins:       stftResult.FreqBins,
		sampleRate: stftResult.SampleRate,
		sumSquares: windowSumSquares,
	}

	density := make([][]float64, stftResult.TimeFrames)
	for t := range stftResult.TimeFrames {
		density[t] = ps.Compute(stftResult.Magnitude[t])
		for k := range density[t] {
			density[t][k] *= plan.scale(k)
		}
	}

	return density
}
