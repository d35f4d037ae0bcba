package spectral

import (
	"github.com/mjibson/go-dsp/fft"
)

// FFT wraps go-dsp's real and inverse transforms
type FFT struct {
	// No state needed
}

// NewFFT creates a new FFT calculator
func NewFFT() *FFT {
	return &FFT{}
}

// Compute returns the full complex spectrum of a real signal.
// go-dsp handles non-power-of-2 lengths.
func (f *FFT) Compute(x []float64) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.FFTReal(x)
}

// ComputeOneSided returns bins 0..n/2 of the spectrum of x
func (f *FFT) ComputeOneSided(x []float64) []complex128 {
	full := f.Compute(x)
	if len(full) == 0 {
		return full
	}
	return full[:len(x)/2+1]
}

// ComputeInverse computes the (normalised) inverse FFT
func (f *FFT) ComputeInverse(x []complex128) []complex128 {
	if len(x) == 0 {
		return []complex128{}
	}
	return fft.IFFT(x)
}

// Frequencies returns the centre frequency of each one-sided bin for an
// n-point transform, k·fs/n for k = 0..n/2.
func Frequencies(n int, sampleRate float64) []float64 {
	if n <= 0 {
		return []float64{}
	}
	freqs := make([]float64, n/2+1)
	for k := range freqs {
		freqs[k] = float64(k) * sampleRate / float64(n)
	}
	return freqs
}
