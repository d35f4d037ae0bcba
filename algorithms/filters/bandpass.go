package filters

import (
	"fmt"
	"math"
)

// BandpassFilter implements a digital bandpass filter using biquad topology.
//
// This implementation uses the cookbook formulas from Robert Bristow-Johnson's
// "Cookbook formulae for audio EQ biquad filter coefficients" (constant 0 dB
// peak gain variant).
// Reference: https://webaudio.github.io/Audio-EQ-Cookbook/audio-eq-cookbook.html
type BandpassFilter struct {
	sampleRate float64
	centerFreq float64 // Center frequency in Hz
	bandwidth  float64 // Bandwidth in Hz
	qFactor    float64 // Quality factor (centerFreq/bandwidth)

	// Biquad coefficients, normalised so a0 = 1
	b0, b1, b2 float64
	a1, a2     float64

	// Direct form II delay line
	w1, w2 float64
}

// NewBandpassFilter creates a bandpass filter centred on centerFreq.
//
// Parameters:
//   - sampleRate: Sample rate in Hz
//   - centerFreq: Center frequency in Hz
//   - bandwidth: Bandwidth in Hz
//
// The Q factor is calculated as centerFreq/bandwidth.
func NewBandpassFilter(sampleRate, centerFreq, bandwidth float64) (*BandpassFilter, error) {
	if !(sampleRate > 0) {
		return nil, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}
	if centerFreq <= 0 || centerFreq >= sampleRate/2 {
		return nil, fmt.Errorf("center frequency must be between 0 and Nyquist frequency (%.1f Hz)", sampleRate/2)
	}
	if bandwidth <= 0 {
		return nil, fmt.Errorf("bandwidth must be positive")
	}

	bf := &BandpassFilter{
		sampleRate: sampleRate,
		centerFreq: centerFreq,
		bandwidth:  bandwidth,
		qFactor:    centerFreq / bandwidth,
	}
	bf.computeCoefficients()
	return bf, nil
}

// NewBandpassFromEdges creates a bandpass filter passing [low, high] Hz.
// The centre is the geometric mean of the edges, where the -3 dB points of
// the cookbook design sit symmetric on a log axis.
func NewBandpassFromEdges(sampleRate, low, high float64) (*BandpassFilter, error) {
	if low <= 0 || high <= low {
		return nil, fmt.Errorf("invalid band edges [%.2f, %.2f] Hz", low, high)
	}
	return NewBandpassFilter(sampleRate, math.Sqrt(low*high), high-low)
}

// computeCoefficients calculates the biquad coefficients using the cookbook formula.
func (bf *BandpassFilter) computeCoefficients() {
	// Normalize frequency: w0 = 2*pi*f0/Fs
	w0 := 2.0 * math.Pi * bf.centerFreq / bf.sampleRate

	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)

	// Alpha parameter: alpha = sin(w0)/(2*Q)
	alpha := sinW0 / (2.0 * bf.qFactor)
	a0 := 1.0 + alpha

	bf.b0 = alpha / a0
	bf.b1 = 0.0
	bf.b2 = -alpha / a0
	bf.a1 = -2.0 * cosW0 / a0
	bf.a2 = (1.0 - alpha) / a0
}

// Process applies the bandpass filter to a single sample.
//
// The difference equation is:
// y[n] = b0*x[n] + b1*x[n-1] + b2*x[n-2] - a1*y[n-1] - a2*y[n-2]
func (bf *BandpassFilter) Process(input float64) float64 {
	// w[n] = x[n] - a1*w[n-1] - a2*w[n-2]
	w := input - bf.a1*bf.w1 - bf.a2*bf.w2

	// y[n] = b0*w[n] + b1*w[n-1] + b2*w[n-2]
	output := bf.b0*w + bf.b1*bf.w1 + bf.b2*bf.w2

	bf.w2 = bf.w1
	bf.w1 = w

	return output
}

// ProcessBuffer applies the bandpass filter to an entire buffer of samples.
func (bf *BandpassFilter) ProcessBuffer(input []float64) []float64 {
	output := make([]float64, len(input))
	for i, sample := range input {
		output[i] = bf.Process(sample)
	}
	return output
}

// Reset clears the filter's delay line.
// Call this between discontinuous segments.
func (bf *BandpassFilter) Reset() {
	bf.w1, bf.w2 = 0.0, 0.0
}

// FrequencyResponse returns the linear magnitude response at frequency.
//
// H(e^jw) = (b0 + b1*e^-jw + b2*e^-j2w) / (1 + a1*e^-jw + a2*e^-j2w)
func (bf *BandpassFilter) FrequencyResponse(frequency float64) float64 {
	w := 2.0 * math.Pi * frequency / bf.sampleRate

	cosW, sinW := math.Cos(w), math.Sin(w)
	cos2W, sin2W := math.Cos(2*w), math.Sin(2*w)

	numReal := bf.b0 + bf.b1*cosW + bf.b2*cos2W
	numImag := -bf.b1*sinW - bf.b2*sin2W

	denReal := 1.0 + bf.a1*cosW + bf.a2*cos2W
	denImag := -bf.a1*sinW - bf.a2*sin2W

	return math.Sqrt((numReal*numReal + numImag*numImag) / (denReal*denReal + denImag*denImag))
}

// Parameters returns the current filter parameters.
func (bf *BandpassFilter) Parameters() (centerFreq, bandwidth, qFactor float64) {
	return bf.centerFreq, bf.bandwidth, bf.qFactor
}
