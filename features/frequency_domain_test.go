package features_test

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFrequencyDomain(t *testing.T, cfg config.Config, reg *bands.Registry) *features.FrequencyDomain {
	t.Helper()
	ap, err := features.NewAperiodicEstimator(cfg.Spectral, logging.GetGlobalLogger())
	require.NoError(t, err)
	return features.NewFrequencyDomain(cfg, reg, ap)
}

func TestFrequencyDomainPeakAndRelativePower(t *testing.T) {
	cfg, reg := defaultSetup(t)
	fd := newFrequencyDomain(t, cfg, reg)

	x := addNoise(tones(1250, 10, 20, 20, 5), 1, 0.5)
	v, powers := fd.Extract(x)

	require.Equal(t, fd.Metrics(), v.Keys())
	assert.Empty(t, v.Failures())
	assertNoInf(t, v)

	assert.Equal(t, 10.0, value(t, v, "peak_freq_hz"))

	sum := 0.0
	for _, b := range reg.Names() {
		sum += value(t, v, "pow_rel_"+b)
		assert.Equal(t, powers[b], value(t, v, "pow_abs_"+b))
	}
	assert.InDelta(t, 100.0, sum, 1e-6)

	total := value(t, v, "pow_total")
	assert.InDelta(t, 200+12.5, total, 40, "power of both tones is recovered")
	assert.Greater(t, value(t, v, "ratio_alpha_beta"), 5.0)
	assert.Greater(t, value(t, v, "pow_rel_alpha"), 80.0)

	centroid := value(t, v, "centroid_hz")
	assert.Greater(t, centroid, 9.0)
	assert.Less(t, centroid, 20.0)
	assert.GreaterOrEqual(t, value(t, v, "sef90_hz"), 10.0)

	entropy := value(t, v, "spec_entropy")
	assert.Greater(t, entropy, 0.0)
	assert.Less(t, entropy, 1.0)
	flatness := value(t, v, "spec_flatness")
	assert.Greater(t, flatness, 0.0)
	assert.Less(t, flatness, 0.5)

	assert.False(t, math.IsNaN(value(t, v, "aperiodic_exponent")))
	assert.False(t, math.IsNaN(value(t, v, "aperiodic_offset")))
}

func TestFrequencyDomainRatios(t *testing.T) {
	cfg, reg := defaultSetup(t)
	fd := newFrequencyDomain(t, cfg, reg)

	v, p := fd.Extract(addNoise(tones(1250, 6, 10, 10, 10, 20, 10), 2, 1))
	eps := features.Epsilon
	assert.InDelta(t, p["theta"]/(p["beta"]+eps), value(t, v, "ratio_theta_beta"), 1e-12)
	assert.InDelta(t, p["beta"]/(p["alpha"]+p["theta"]+eps), value(t, v, "ratio_engagement"), 1e-12)
	assert.InDelta(t, p["delta"]/(p["alpha"]+eps), value(t, v, "ratio_delta_alpha"), 1e-12)
	assert.InDelta(t, p["alpha"]/(p["beta"]+eps), value(t, v, "ratio_alpha_beta"), 1e-12)
}

func TestFrequencyDomainMissingBandRatio(t *testing.T) {
	cfg, _ := defaultSetup(t)
	reg, err := bands.New(
		bands.Band{Name: "delta", Low: 1, High: 4},
		bands.Band{Name: "alpha", Low: 8, High: 13},
		bands.Band{Name: "beta", Low: 13, High: 30},
	)
	require.NoError(t, err)
	fd := newFrequencyDomain(t, cfg, reg)

	v, _ := fd.Extract(addNoise(tones(1250, 10, 20), 3, 1))
	assert.True(t, math.IsNaN(value(t, v, "ratio_theta_beta")))
	assert.True(t, math.IsNaN(value(t, v, "ratio_engagement")))
	assert.False(t, math.IsNaN(value(t, v, "ratio_delta_alpha")))
	assert.Len(t, v.Failures(), 2)
	_, ok := v.Get("pow_abs_theta")
	assert.False(t, ok)
}

func TestFrequencyDomainAperiodicStrategies(t *testing.T) {
	cfg, reg := defaultSetup(t)
	x := addNoise(tones(1250, 10, 20), 4, 5)

	cfg.Spectral.AperiodicMethod = config.AperiodicNone
	v, _ := newFrequencyDomain(t, cfg, reg).Extract(x)
	assert.True(t, math.IsNaN(value(t, v, "aperiodic_exponent")))
	assert.True(t, math.IsNaN(value(t, v, "aperiodic_offset")))
	require.Len(t, v.Failures(), 2)
	for _, f := range v.Failures() {
		assert.True(t, errors.Is(f, features.ErrEstimatorUnavailable), f.Error())
	}

	// white noise has a flat background
	cfg.Spectral.AperiodicMethod = config.AperiodicLogLog
	v, _ = newFrequencyDomain(t, cfg, reg).Extract(addNoise(make([]float64, 1250), 5, 1))
	assert.InDelta(t, 0.0, value(t, v, "aperiodic_exponent"), 0.5)

	cfg.Spectral.AperiodicMethod = "fooof"
	_, err := features.NewAperiodicEstimator(cfg.Spectral, logging.GetGlobalLogger())
	assert.Error(t, err)
}

func TestFrequencyDomainDensityFailure(t *testing.T) {
	cfg, reg := defaultSetup(t)
	fd := newFrequencyDomain(t, cfg, reg)

	x := tones(1250, 10, 20)
	x[17] = math.NaN()
	v, powers := fd.Extract(x)

	require.Equal(t, fd.Metrics(), v.Keys())
	assert.True(t, v.AllFailed())
	for _, b := range reg.Names() {
		assert.True(t, math.IsNaN(powers[b]))
	}
}

func TestFrequencyDomainShortWindowClampsSegment(t *testing.T) {
	cfg, reg := defaultSetup(t)
	fd := newFrequencyDomain(t, cfg, reg)

	// shorter than the 2 s Welch segment
	v, _ := fd.Extract(addNoise(tones(300, 10, 20), 6, 1))
	assert.False(t, math.IsNaN(value(t, v, "pow_total")))
	assert.InDelta(t, 10.0, value(t, v, "peak_freq_hz"), 1)
}
