package features_test

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/RyanBlaney/sonido-kpi/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type crossSetup struct {
	fd *features.FrequencyDomain
	cc *features.CrossChannel
}

func newCross(t *testing.T, mutate func(*config.Config)) crossSetup {
	t.Helper()
	cfg, _ := defaultSetup(t)
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())
	reg, err := cfg.Registry()
	require.NoError(t, err)

	conn, err := features.NewConnectivity(cfg, logging.GetGlobalLogger())
	require.NoError(t, err)
	return crossSetup{
		fd: newFrequencyDomain(t, cfg, reg),
		cc: features.NewCrossChannel(cfg, reg, conn),
	}
}

func (s crossSetup) extract(data ...[]float64) *features.Vector {
	powers := make([]features.BandPowers, len(data))
	for i, x := range data {
		_, powers[i] = s.fd.Extract(x)
	}
	return s.cc.Extract(data, powers)
}

func TestIdenticalChannels(t *testing.T) {
	s := newCross(t, nil)
	x := addNoise(tones(1250, 10, 20, 20, 5), 1, 2)
	v := s.extract(x, append([]float64(nil), x...))

	assert.Equal(t, crossMetrics(t), v.Keys())
	for _, b := range []string{"delta", "theta", "alpha", "beta", "gamma"} {
		assert.InDelta(t, 0.0, value(t, v, "asym_"+b), 1e-9, b)
		assert.InDelta(t, 1.0, value(t, v, "coh_"+b), 1e-9, b)
		assert.InDelta(t, 1.0, value(t, v, "plv_"+b), 1e-9, b)
	}
	assert.InDelta(t, 1.0, value(t, v, "pearson_corr"), 1e-12)
}

func TestScaledAndIndependentChannels(t *testing.T) {
	s := newCross(t, nil)
	x := addNoise(tones(1250, 10, 20), 2, 2)

	scaled := make([]float64, len(x))
	for i, v := range x {
		scaled[i] = 0.8 * v
	}
	v := s.extract(x, addNoise(scaled, 3, 1))
	assert.Greater(t, value(t, v, "pearson_corr"), 0.8)
	assert.InDelta(t, 2*math.Log(0.8), value(t, v, "asym_alpha"), 0.1)

	a := addNoise(tones(1250, 10, 20), 4, 5)
	b := addNoise(tones(1250, 23, 20), 5, 5)
	v = s.extract(a, b)
	assert.InDelta(t, 0.0, value(t, v, "pearson_corr"), 0.1)
	assert.Less(t, value(t, v, "coh_alpha"), 0.8)
}

func TestLaggedChannelsHaveWPLI(t *testing.T) {
	s := newCross(t, nil)
	x := addNoise(tones(1250, 10, 20), 6, 1)
	// quarter period lag at 10 Hz
	lagged := make([]float64, len(x))
	copy(lagged[6:], x)

	v := s.extract(x, lagged)
	assert.Greater(t, value(t, v, "wpli_alpha"), 0.5)
	assert.Greater(t, value(t, v, "plv_alpha"), 0.5)
}

func TestConnectivityUnavailable(t *testing.T) {
	s := newCross(t, func(c *config.Config) { c.Connectivity.Method = config.ConnectivityNone })
	x := addNoise(tones(1250, 10, 20), 7, 1)
	v := s.extract(x, addNoise(x, 8, 1))

	assert.True(t, math.IsNaN(value(t, v, "plv_alpha")))
	assert.True(t, math.IsNaN(value(t, v, "wpli_beta")))
	assert.False(t, math.IsNaN(value(t, v, "coh_alpha")))

	unavailable := 0
	for _, f := range v.Failures() {
		if errors.Is(f, features.ErrEstimatorUnavailable) {
			unavailable++
		}
	}
	assert.Equal(t, 10, unavailable)

	conn := features.Unavailable(errors.New("no mne"))
	assert.False(t, conn.IsAvailable())
	_, err := conn.Estimate(x, x)
	assert.EqualError(t, err, "no mne")

	_, err = features.NewConnectivity(config.Config{Connectivity: config.ConnectivityConfig{Method: "pli"}}, logging.GetGlobalLogger())
	assert.Error(t, err)
}

func TestSegmentedPhaseNeedsTwoTrials(t *testing.T) {
	sp := features.NewSegmentedPhase(fs, 500)
	_, err := sp.Estimate(make([]float64, 600), make([]float64, 600))
	assert.Error(t, err)
	_, err = sp.Estimate(make([]float64, 1000), make([]float64, 999))
	assert.Error(t, err)

	ps, err := sp.Estimate(tones(1000, 10, 1), tones(1000, 10, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, ps.Trials)
	assert.Len(t, ps.PLV, 251)
}

func TestThreeChannelPairs(t *testing.T) {
	s := newCross(t, func(c *config.Config) { c.Channels = []string{"F3", "F4", "Cz"} })
	x := addNoise(tones(1250, 10, 20), 9, 1)
	v := s.extract(x, addNoise(x, 10, 1), addNoise(x, 11, 1))

	assert.Len(t, v.Keys(), 3*21)
	_, ok := v.Get("F4_Cz_pearson_corr")
	assert.True(t, ok)
}

func TestSingleChannelHasNoCrossFeatures(t *testing.T) {
	s := newCross(t, func(c *config.Config) { c.Channels = []string{"Cz"} })
	v := s.extract(tones(1250, 10, 20))
	assert.Zero(t, v.Len())
}

func crossMetrics(t *testing.T) []string {
	t.Helper()
	_, reg := defaultSetup(t)
	return features.CrossChannelMetrics(reg)
}
