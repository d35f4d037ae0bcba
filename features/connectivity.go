package features

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/algorithms/windowing"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PhaseSpectrum holds per-bin phase synchronisation between two channels
type PhaseSpectrum struct {
	Freqs  []float64
	PLV    []float64 // phase-locking value
	WPLI   []float64 // weighted phase-lag index, NaN where undefined
	Trials int
}

// PhaseEstimator estimates phase synchronisation of a channel pair
type PhaseEstimator interface {
	Estimate(x, y []float64) (*PhaseSpectrum, error)
}

// Connectivity is either an available phase estimator or the reason none
// is available. It is resolved once per run.
type Connectivity struct {
	estimator PhaseEstimator
	reason    error
}

// Available wraps a working estimator
func Available(estimator PhaseEstimator) Connectivity {
	return Connectivity{estimator: estimator}
}

// Unavailable records why phase metrics will be NaN
func Unavailable(reason error) Connectivity {
	return Connectivity{reason: reason}
}

// IsAvailable reports whether an estimator is present
func (c Connectivity) IsAvailable() bool {
	return c.estimator != nil
}

// Estimate runs the estimator or returns the unavailability reason
func (c Connectivity) Estimate(x, y []float64) (*PhaseSpectrum, error) {
	if c.estimator == nil {
		if c.reason == nil {
			return nil, fmt.Errorf("connectivity %w", ErrEstimatorUnavailable)
		}
		return nil, c.reason
	}
	return c.estimator.Estimate(x, y)
}

// NewConnectivity resolves the configured connectivity method
func NewConnectivity(cfg config.Config, logger logging.Logger) (Connectivity, error) {
	logger = logger.WithFields(logging.Fields{
		"component": "connectivity",
		"function":  "NewConnectivity",
		"method":    cfg.Connectivity.Method,
	})

	switch cfg.Connectivity.Method {
	case config.ConnectivitySegmented:
		nperseg := int(math.Round(cfg.Connectivity.WindowSec * cfg.SampleRate))
		logger.Debug("Using segmented cross-spectral connectivity", logging.Fields{
			"segment_samples": nperseg,
		})
		return Available(NewSegmentedPhase(cfg.SampleRate, nperseg)), nil

	case config.ConnectivityNone:
		logger.Debug("Connectivity estimator disabled")
		return Unavailable(fmt.Errorf("connectivity %w", ErrEstimatorUnavailable)), nil

	default:
		return Connectivity{}, fmt.Errorf("unknown connectivity method %q", cfg.Connectivity.Method)
	}
}

// SegmentedPhase treats non-overlapping segments of one epoch as trials.
// For each bin it averages the per-trial cross-spectrum Sxy = conj(X)·Y:
//
//	PLV  = |E[Sxy/|Sxy|]|
//	wPLI = |E[Im Sxy]| / E[|Im Sxy|]
//
// References:
// - Lachaux, J.P. et al. (1999). "Measuring phase synchrony in brain signals"
// - Vinck, M. et al. (2011). "An improved index of phase-synchronization for electrophysiological data"
type SegmentedPhase struct {
	sampleRate float64
	nperseg    int
	fft        *spectral.FFT
}

// NewSegmentedPhase creates a segmented estimator with trials of nperseg
// samples
func NewSegmentedPhase(sampleRate float64, nperseg int) *SegmentedPhase {
	return &SegmentedPhase{sampleRate: sampleRate, nperseg: nperseg, fft: spectral.NewFFT()}
}

// Estimate computes PLV and wPLI per frequency bin
func (sp *SegmentedPhase) Estimate(x, y []float64) (*PhaseSpectrum, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("signal lengths differ: %d vs %d", len(x), len(y))
	}
	if sp.nperseg <= 0 {
		return nil, fmt.Errorf("segment length must be positive, got %d", sp.nperseg)
	}

	nperseg := min(sp.nperseg, len(x))
	trials := len(x) / nperseg
	if trials < 2 {
		return nil, fmt.Errorf("need at least 2 trials, got %d", trials)
	}

	hann := windowing.NewPeriodicHann(nperseg)
	bins := nperseg/2 + 1

	phase := make([]complex128, bins)
	imSum := make([]float64, bins)
	absImag := make([]float64, bins)
	count := make([]int, bins)

	fx := make([]float64, nperseg)
	fy := make([]float64, nperseg)
	for t := range trials {
		copy(fx, x[t*nperseg:(t+1)*nperseg])
		copy(fy, y[t*nperseg:(t+1)*nperseg])
		floats.AddConst(-stat.Mean(fx, nil), fx)
		floats.AddConst(-stat.Mean(fy, nil), fy)
		if err := hann.ApplyInPlace(fx); err != nil {
			return nil, err
		}
		if err := hann.ApplyInPlace(fy); err != nil {
			return nil, err
		}

		X := sp.fft.ComputeOneSided(fx)
		Y := sp.fft.ComputeOneSided(fy)
		for k := range bins {
			sxy := cmplx.Conj(X[k]) * Y[k]
			imSum[k] += imag(sxy)
			absImag[k] += math.Abs(imag(sxy))
			if mag := cmplx.Abs(sxy); mag > 0 {
				phase[k] += sxy / complex(mag, 0)
				count[k]++
			}
		}
	}

	ps := &PhaseSpectrum{
		Freqs:  spectral.Frequencies(nperseg, sp.sampleRate),
		PLV:    make([]float64, bins),
		WPLI:   make([]float64, bins),
		Trials: trials,
	}
	for k := range bins {
		if count[k] == 0 {
			ps.PLV[k] = math.NaN()
		} else {
			ps.PLV[k] = cmplx.Abs(phase[k]) / float64(count[k])
		}
		if absImag[k] == 0 {
			ps.WPLI[k] = math.NaN()
		} else {
			ps.WPLI[k] = math.Abs(imSum[k]) / absImag[k]
		}
	}
	return ps, nil
}
