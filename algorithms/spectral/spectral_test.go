package spectral_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/algorithms/windowing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fs = 250.0

func sine(freq, amp float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * math.Sin(2*math.Pi*freq*float64(i)/fs)
	}
	return x
}

func noise(seed int64, amp float64, n int) []float64 {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	for i := range x {
		x[i] = amp * rng.NormFloat64()
	}
	return x
}

func TestFrequencies(t *testing.T) {
	assert.Equal(t, []float64{0, 62.5, 125}, spectral.Frequencies(4, fs))
	assert.Len(t, spectral.Frequencies(5, fs), 3)
	assert.Empty(t, spectral.Frequencies(0, fs))
}

func TestWelchPeakAndParseval(t *testing.T) {
	x := sine(10, 2, 1250)
	psd, err := spectral.NewWelch().PSD(x, fs, 500)
	require.NoError(t, err)

	assert.Equal(t, 500, psd.SegmentLength)
	assert.Equal(t, 4, psd.Segments, "half-overlapping 2 s segments over 5 s")
	assert.Len(t, psd.Power, 251)
	assert.InDelta(t, 0.5, psd.Resolution(), 1e-12)
	assert.InDelta(t, 10.0, spectral.PeakFrequency(psd.Freqs, psd.Power), 1e-9)

	// integrated density recovers the sine's variance amp²/2
	total := 0.0
	for _, p := range psd.Power {
		total += p * psd.Resolution()
	}
	assert.InDelta(t, 2.0, total, 0.05)
}

func TestWelchClampsAndValidates(t *testing.T) {
	w := spectral.NewWelch()

	psd, err := w.PSD(sine(10, 1, 100), fs, 500)
	require.NoError(t, err)
	assert.Equal(t, 100, psd.SegmentLength)
	assert.Equal(t, 1, psd.Segments)

	_, err = w.PSD(nil, fs, 10)
	assert.Error(t, err)
	_, err = w.PSD([]float64{1, math.NaN(), 2}, fs, 2)
	assert.Error(t, err)
	_, err = w.PSD([]float64{1, 2}, 0, 2)
	assert.Error(t, err)
}

func TestCoherence(t *testing.T) {
	x := make([]float64, 1250)
	a, b := sine(10, 1, 1250), noise(1, 0.5, 1250)
	for i := range x {
		x[i] = a[i] + b[i]
	}

	cs, err := spectral.NewWelch().CSD(x, x, fs, 500)
	require.NoError(t, err)
	for k, c := range cs.Coherence() {
		if cs.Freqs[k] == 0 {
			continue
		}
		assert.InDelta(t, 1.0, c, 1e-9, "bin %d", k)
	}

	y := noise(2, 0.5, 1250)
	cs, err = spectral.NewWelch().CSD(x, y, fs, 500)
	require.NoError(t, err)
	coh := cs.Coherence()
	assert.Less(t, coh[20], 0.9, "independent noise at 10 Hz")

	_, err = spectral.NewWelch().CSD(x, y[:10], fs, 500)
	assert.Error(t, err)
}

func TestBandPower(t *testing.T) {
	freqs := []float64{0, 1, 2, 3, 4, 5}
	power := []float64{1, 1, 1, 1, 1, 1}
	bp := spectral.NewBandPower()

	assert.InDelta(t, 4.0, bp.Compute(freqs, power, 1, 5), 1e-12)
	assert.InDelta(t, 1.0, bp.Compute(freqs, power, 1, 2), 1e-12, "two bins: trapezoid")
	assert.Equal(t, 0.0, bp.Compute(freqs, power, 2.5, 2.9), "no bins")
	assert.Equal(t, 0.0, bp.Compute(freqs, power, 3, 3), "single bin")

	mean, ok := bp.Mean(freqs, []float64{1, 2, math.NaN(), 4, 5, 6}, 1, 3)
	require.True(t, ok)
	assert.InDelta(t, 3.0, mean, 1e-12)
	_, ok = bp.Mean(freqs, power, 10, 20)
	assert.False(t, ok)
}

func TestSpectralShape(t *testing.T) {
	freqs := []float64{0, 1, 2, 3}
	power := []float64{0, 1, 0, 1}

	assert.InDelta(t, 2.0, spectral.NewSpectralCentroid(1e-10).Compute(freqs, power), 1e-8)
	assert.Equal(t, 1.0, spectral.PeakFrequency(freqs, power))
	assert.Equal(t, 3.0, spectral.NewSpectralEdge(0.9).Compute(freqs, power))
	assert.Equal(t, 1.0, spectral.NewSpectralEdge(0.5).Compute(freqs, power))

	flat := []float64{2, 2, 2, 2}
	assert.InDelta(t, 1.0, spectral.NewSpectralFlatness(1e-10).Compute(flat), 1e-8)
	assert.InDelta(t, 1.0, spectral.NewSpectralEntropy(1e-10).Compute(flat), 1e-8)

	peaked := []float64{0, 0, 5, 0}
	assert.Less(t, spectral.NewSpectralFlatness(1e-10).Compute(peaked), 1e-6)
	assert.InDelta(t, 0.0, spectral.NewSpectralEntropy(1e-10).Compute(peaked), 1e-6)
}

func TestAperiodicFit(t *testing.T) {
	freqs := make([]float64, 80)
	power := make([]float64, 80)
	for i := range freqs {
		freqs[i] = float64(i) * 0.5
		if freqs[i] > 0 {
			power[i] = math.Pow(10, 2.0) * math.Pow(freqs[i], -1.5)
		}
	}

	params, err := spectral.NewAperiodicFit(1, 30, false).Compute(freqs, power)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, params.Exponent, 1e-9)
	assert.InDelta(t, 2.0, params.Offset, 1e-9)

	// an alpha peak biases plain regression but not the robust refit
	withPeak := make([]float64, len(power))
	copy(withPeak, power)
	for i, f := range freqs {
		if f >= 8 && f <= 12 {
			withPeak[i] *= 20
		}
	}
	robust, err := spectral.NewAperiodicFit(1, 30, true).Compute(freqs, withPeak)
	require.NoError(t, err)
	plain, err := spectral.NewAperiodicFit(1, 30, false).Compute(freqs, withPeak)
	require.NoError(t, err)
	assert.Less(t, math.Abs(robust.Exponent-1.5), math.Abs(plain.Exponent-1.5))
	assert.Less(t, robust.Bins, plain.Bins)

	_, err = spectral.NewAperiodicFit(50, 60, false).Compute(freqs, power)
	assert.Error(t, err)
}

func TestSTFTDensityMatchesWelch(t *testing.T) {
	x := sine(10, 1, 1250)
	hann := windowing.NewPeriodicHann(250)

	res, err := spectral.NewSTFT().ComputeWithWindow(x, 250, 125, fs, hann)
	require.NoError(t, err)
	assert.Equal(t, 9, res.TimeFrames)
	assert.Equal(t, 126, res.FreqBins)
	assert.Len(t, res.Frequencies(), 126)

	// every 1 s frame holds whole cycles, so each frame density equals the
	// Welch estimate with the same segment length
	welch, err := spectral.NewWelch().PSD(x, fs, 250)
	require.NoError(t, err)

	density := spectral.NewPowerSpectrum().DensityFromSTFT(res, hann.SumSquares())
	for _, frame := range density {
		assert.InDeltaSlice(t, welch.Power, frame, 1e-9)
	}

	_, err = spectral.NewSTFT().ComputeWithWindow(x[:100], 250, 125, fs, hann)
	assert.Error(t, err)
	_, err = spectral.NewSTFT().ComputeWithWindow(x, 250, 0, fs, hann)
	assert.Error(t, err)
}
