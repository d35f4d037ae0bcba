package spectral

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-kpi/algorithms/windowing"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PSD is a one-sided power spectral density in units²/Hz
type PSD struct {
	Freqs         []float64 `json:"freqs"`
	Power         []float64 `json:"power"`
	SampleRate    float64   `json:"sample_rate"`
	SegmentLength int       `json:"segment_length"`
	Segments      int       `json:"segments"`
}

// Resolution returns the bin spacing in Hz
func (p *PSD) Resolution() float64 {
	return p.SampleRate / float64(p.SegmentLength)
}

// CrossSpectrum holds the auto and cross densities of a signal pair,
// averaged over the same Welch segments.
type CrossSpectrum struct {
	Freqs    []float64
	Pxx      []float64
	Pyy      []float64
	Pxy      []complex128
	Segments int
}

// Coherence returns the magnitude-squared coherence |Pxy|²/(Pxx·Pyy) per
// bin. Bins where either auto-spectrum is zero are NaN.
func (c *CrossSpectrum) Coherence() []float64 {
	coh := make([]float64, len(c.Freqs))
	for k := range coh {
		den := c.Pxx[k] * c.Pyy[k]
		if den <= 0 {
			coh[k] = math.NaN()
			continue
		}
		mag := cmplx.Abs(c.Pxy[k])
		coh[k] = mag * mag / den
	}
	return coh
}

// Welch estimates spectra by averaging modified periodograms of half-
// overlapping Hann segments. Each segment has its mean removed before
// tapering.
type Welch struct {
	fft *FFT
}

// NewWelch creates a Welch estimator
func NewWelch() *Welch {
	return &Welch{fft: NewFFT()}
}

// PSD estimates the density of x. nperseg is clamped to len(x).
func (w *Welch) PSD(x []float64, sampleRate float64, nperseg int) (*PSD, error) {
	segments, plan, err := w.segmentSpectra(x, sampleRate, nperseg)
	if err != nil {
		return nil, err
	}

	power := make([]float64, plan.bins)
	for _, spec := range segments {
		for k, v := range spec {
			power[k] += real(cmplx.Conj(v) * v)
		}
	}
	for k := range power {
		power[k] *= plan.scale(k) / float64(len(segments))
	}

	return &PSD{
		Freqs:         Frequencies(plan.nperseg, sampleRate),
		Power:         power,
		SampleRate:    sampleRate,
		SegmentLength: plan.nperseg,
		Segments:      len(segments),
	}, nil
}

// CSD estimates the auto and cross densities of x and y. Pxy is
// conj(X)·Y, matching the usual cross-spectral convention.
func (w *Welch) CSD(x, y []float64, sampleRate float64, nperseg int) (*CrossSpectrum, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("signal lengths differ: %d vs %d", len(x), len(y))
	}

	segX, plan, err := w.segmentSpectra(x, sampleRate, nperseg)
	if err != nil {
		return nil, err
	}
	segY, _, err := w.segmentSpectra(y, sampleRate, nperseg)
	if err != nil {
		return nil, err
	}

	cs := &CrossSpectrum{
		Freqs:    Frequencies(plan.nperseg, sampleRate),
		Pxx:      make([]float64, plan.bins),
		Pyy:      make([]float64, plan.bins),
		Pxy:      make([]complex128, plan.bins),
		Segments: len(segX),
	}

	for s := range segX {
		for k := range plan.bins {
			X, Y := segX[s][k], segY[s][k]
			cs.Pxx[k] += real(cmplx.Conj(X) * X)
			cs.Pyy[k] += real(cmplx.Conj(Y) * Y)
			cs.Pxy[k] += cmplx.Conj(X) * Y
		}
	}

	n := float64(len(segX))
	for k := range plan.bins {
		scale := plan.scale(k) / n
		cs.Pxx[k] *= scale
		cs.Pyy[k] *= scale
		cs.Pxy[k] *= complex(scale, 0)
	}

	return cs, nil
}

type welchPlan struct {
	nperseg    int
	bins       int
	sampleRate float64
	sumSquares float64
}

// scale converts |X_k|² into a one-sided density. DC and, for even
// segment lengths, the Nyquist bin are not doubled.
func (p welchPlan) scale(k int) float64 {
	s := 1.0 / (p.sampleRate * p.sumSquares)
	if k == 0 || (p.nperseg%2 == 0 && k == p.bins-1) {
		return s
	}
	return 2 * s
}

func (w *Welch) segmentSpectra(x []float64, sampleRate float64, nperseg int) ([][]complex128, welchPlan, error) {
	if len(x) == 0 {
		return nil, welchPlan{}, fmt.Errorf("empty signal")
	}
	if !(sampleRate > 0) {
		return nil, welchPlan{}, fmt.Errorf("sample rate must be positive, got %v", sampleRate)
	}
	if nperseg <= 0 {
		return nil, welchPlan{}, fmt.Errorf("segment length must be positive, got %d", nperseg)
	}
	if floats.HasNaN(x) || math.IsInf(floats.Max(x), 1) || math.IsInf(floats.Min(x), -1) {
		return nil, welchPlan{}, fmt.Errorf("signal contains non-finite samples")
	}

	nperseg = min(nperseg, len(x))
	hann := windowing.NewPeriodicHann(nperseg)
	plan := welchPlan{
		nperseg:    nperseg,
		bins:       nperseg/2 + 1,
		sampleRate: sampleRate,
		sumSquares: hann.SumSquares(),
	}

	step := nperseg - nperseg/2
	count := (len(x)-nperseg)/step + 1

	spectra := make([][]complex128, count)
	frame := make([]float64, nperseg)
	for s := range count {
		copy(frame, x[s*step:s*step+nperseg])
		floats.AddConst(-stat.Mean(frame, nil), frame)
		if err := hann.ApplyInPlace(frame); err != nil {
			return nil, welchPlan{}, err
		}
		spectra[s] = w.fft.ComputeOneSided(frame)
	}

	return spectra, plan, nil
}
