package features

import (
	"errors"
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/spectral"
	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
)

// BandPowers holds the absolute power of every configured band, NaN when
// the density could not be estimated
type BandPowers map[string]float64

// ratio is num/(Σ den + ε) over named bands
type ratio struct {
	metric string
	num    string
	den    []string
}

var bandRatios = []ratio{
	{"ratio_theta_beta", "theta", []string{"beta"}},
	{"ratio_engagement", "beta", []string{"alpha", "theta"}},
	{"ratio_delta_alpha", "delta", []string{"alpha"}},
	{"ratio_alpha_beta", "alpha", []string{"beta"}},
}

// FrequencyDomain extracts Welch band powers, spectral shape, aperiodic
// parameters and band ratios (Family B).
type FrequencyDomain struct {
	sampleRate float64
	nperseg    int
	registry   *bands.Registry
	metrics    []string

	welch     *spectral.Welch
	bandPower *spectral.BandPower
	centroid  *spectral.SpectralCentroid
	edge      *spectral.SpectralEdge
	entropy   *spectral.SpectralEntropy
	flatness  *spectral.SpectralFlatness
	aperiodic AperiodicEstimator
}

// NewFrequencyDomain creates a Family B extractor
func NewFrequencyDomain(cfg config.Config, reg *bands.Registry, aperiodic AperiodicEstimator) *FrequencyDomain {
	return &FrequencyDomain{
		sampleRate: cfg.SampleRate,
		nperseg:    int(math.Round(cfg.Spectral.WelchWindowSec * cfg.SampleRate)),
		registry:   reg,
		metrics:    FrequencyMetrics(reg),
		welch:      spectral.NewWelch(),
		bandPower:  spectral.NewBandPower(),
		centroid:   spectral.NewSpectralCentroid(Epsilon),
		edge:       spectral.NewSpectralEdge(0.9),
		entropy:    spectral.NewSpectralEntropy(Epsilon),
		flatness:   spectral.NewSpectralFlatness(Epsilon),
		aperiodic:  aperiodic,
	}
}

// Metrics returns the metric names in output order
func (fd *FrequencyDomain) Metrics() []string {
	return append([]string(nil), fd.metrics...)
}

// Extract computes Family B for one channel. The returned band powers feed
// the cross-channel asymmetry.
func (fd *FrequencyDomain) Extract(x []float64) (*Vector, BandPowers) {
	v := NewVector(len(fd.metrics))
	powers := make(BandPowers, fd.registry.Len())
	for _, name := range fd.registry.Names() {
		powers[name] = nan
	}

	psd, err := fd.density(x)
	if err != nil {
		for _, m := range fd.metrics {
			v.SetResult(m, Fail(FamilyFrequency, m, err))
		}
		return v, powers
	}

	res := make(results, len(fd.metrics))

	total := 0.0
	for _, b := range fd.registry.Bands() {
		p := fd.bandPower.Compute(psd.Freqs, psd.Power, b.Low, b.High)
		powers[b.Name] = p
		total += p
	}
	res["pow_total"] = Ok(total)
	for name, p := range powers {
		res["pow_abs_"+name] = Ok(p)
		res["pow_rel_"+name] = Ok(100 * p / (total + Epsilon))
	}

	res["peak_freq_hz"] = fd.guard("peak_freq_hz", func() (float64, error) {
		return spectral.PeakFrequency(psd.Freqs, psd.Power), nil
	})
	res["centroid_hz"] = fd.guard("centroid_hz", func() (float64, error) {
		return fd.centroid.Compute(psd.Freqs, psd.Power), nil
	})
	res["sef90_hz"] = fd.guard("sef90_hz", func() (float64, error) {
		return fd.edge.Compute(psd.Freqs, psd.Power), nil
	})
	res["spec_entropy"] = fd.guard("spec_entropy", func() (float64, error) {
		return fd.entropy.Compute(psd.Power), nil
	})
	res["spec_flatness"] = fd.guard("spec_flatness", func() (float64, error) {
		return fd.flatness.Compute(psd.Power), nil
	})

	fd.fitAperiodic(psd, res)

	for _, r := range bandRatios {
		res[r.metric] = fd.bandRatio(r, powers)
	}

	res.fill(v, FamilyFrequency, fd.metrics)
	return v, powers
}

// density runs Welch with panics converted to errors
func (fd *FrequencyDomain) density(x []float64) (psd *spectral.PSD, err error) {
	defer func() {
		if p := recover(); p != nil {
			psd, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	psd, err = fd.welch.PSD(x, fd.sampleRate, fd.nperseg)
	if err != nil {
		return nil, fmt.Errorf("welch density: %w", err)
	}
	return psd, nil
}

func (fd *FrequencyDomain) guard(metric string, fn func() (float64, error)) Result {
	return GuardFinite(FamilyFrequency, metric, fn)
}

// fitAperiodic sets both aperiodic metrics together: a failed fit leaves
// both NaN
func (fd *FrequencyDomain) fitAperiodic(psd *spectral.PSD, res results) {
	var params spectral.AperiodicParams
	fit := Guard(FamilyFrequency, "aperiodic_exponent", func() (float64, error) {
		var err error
		params, err = fd.aperiodic.Fit(psd.Freqs, psd.Power)
		if err != nil {
			return 0, fmt.Errorf("%s fit: %w", fd.aperiodic.Name(), err)
		}
		return params.Exponent, nil
	})

	if fit.Failed() {
		res["aperiodic_exponent"] = fit
		res["aperiodic_offset"] = Fail(FamilyFrequency, "aperiodic_offset", errors.Unwrap(fit.Err))
		return
	}
	res["aperiodic_exponent"] = Ok(params.Exponent)
	res["aperiodic_offset"] = Ok(params.Offset)
}

func (fd *FrequencyDomain) bandRatio(r ratio, powers BandPowers) Result {
	num, ok := powers[r.num]
	if !ok {
		return Fail(FamilyFrequency, r.metric, fmt.Errorf("band %q not configured", r.num))
	}

	den := 0.0
	for _, name := range r.den {
		p, ok := powers[name]
		if !ok {
			return Fail(FamilyFrequency, r.metric, fmt.Errorf("band %q not configured", name))
		}
		den += p
	}
	return Ok(num / (den + Epsilon))
}
