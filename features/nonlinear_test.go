package features_test

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bursts puts 0.4 s alpha bursts at 0.3 s into every second
func bursts(n int, amplitude float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / fs
		phase := t - math.Floor(t)
		if phase >= 0.3 && phase < 0.7 {
			x[i] = amplitude * math.Sin(2*math.Pi*10*t)
		}
	}
	return x
}

func TestNonlinearRegularSignal(t *testing.T) {
	cfg, reg := defaultSetup(t)
	nl := features.NewNonlinear(cfg, reg)

	v := nl.Extract(addNoise(tones(1250, 10, 20, 20, 5), 1, 1))
	require.Equal(t, nl.Metrics(), v.Keys())
	assert.Empty(t, v.Failures())
	assertNoInf(t, v)

	for _, k := range []string{"perm_ent", "svd_ent"} {
		got := value(t, v, k)
		assert.GreaterOrEqual(t, got, 0.0, k)
		assert.LessOrEqual(t, got, 1.0, k)
	}
	assert.Greater(t, value(t, v, "higuchi_fd"), 1.0)
	assert.Less(t, value(t, v, "higuchi_fd"), 2.1)
}

func TestNonlinearFailuresAreIsolated(t *testing.T) {
	cfg, reg := defaultSetup(t)
	nl := features.NewNonlinear(cfg, reg)

	x := make([]float64, 1250)
	for i := range x {
		x[i] = 3
	}
	v := nl.Extract(x)

	require.Equal(t, nl.Metrics(), v.Keys())
	assertNoInf(t, v)
	assert.False(t, v.AllFailed())
	for _, k := range []string{"sampen", "higuchi_fd", "katz_fd", "dfa"} {
		assert.True(t, math.IsNaN(value(t, v, k)), k)
	}
	assert.InDelta(t, 1.0, value(t, v, "petrosian_fd"), 1e-12)
	assert.False(t, math.IsNaN(value(t, v, "lzc")))

	failed := map[string]bool{}
	for _, f := range v.Failures() {
		assert.Equal(t, features.FamilyNonlinear, f.Family)
		failed[f.Metric] = true
	}
	assert.True(t, failed["sampen"])
	assert.False(t, failed["lzc"])
}

func TestNonlinearNonFiniteInput(t *testing.T) {
	cfg, reg := defaultSetup(t)
	nl := features.NewNonlinear(cfg, reg)

	x := tones(1250, 10, 20)
	x[5] = math.Inf(-1)
	v := nl.Extract(x)
	assert.True(t, v.AllFailed())
	assert.Len(t, v.Keys(), len(nl.Metrics()))
}

func TestBurstRate(t *testing.T) {
	cfg, reg := defaultSetup(t)
	cfg.Nonlinear.BurstThresholdSD = 0.5
	nl := features.NewNonlinear(cfg, reg)

	rate, err := nl.BurstRate(addNoise(bursts(1250, 20), 7, 0.1))
	require.NoError(t, err)
	assert.InDelta(t, 1.0, rate, 0.2, "five bursts in five seconds")

	cfg.Nonlinear.BurstBand = "mu"
	_, err = features.NewNonlinear(cfg, reg).BurstRate(bursts(1250, 20))
	assert.Error(t, err)
}

func TestPowerVariability(t *testing.T) {
	cfg, reg := defaultSetup(t)
	nl := features.NewNonlinear(cfg, reg)

	steady := nl.Extract(addNoise(tones(1250, 10, 20), 8, 0.1))
	bursty := nl.Extract(addNoise(bursts(1250, 20), 8, 0.1))

	assert.Greater(t, value(t, bursty, "powvar_alpha"), value(t, steady, "powvar_alpha"))
	assert.GreaterOrEqual(t, value(t, steady, "powvar_beta"), 0.0)

	// a window longer than the epoch leaves every band undefined
	cfg.Nonlinear.PowerVarWindowSec = 10
	v := features.NewNonlinear(cfg, reg).Extract(tones(1250, 10, 20))
	for _, b := range reg.Names() {
		assert.True(t, math.IsNaN(value(t, v, "powvar_"+b)), b)
	}
}

func TestNonlinearFollowsRegistry(t *testing.T) {
	cfg := config.Default()
	reg, err := bands.New(bands.Band{Name: "alpha", Low: 8, High: 13})
	require.NoError(t, err)

	nl := features.NewNonlinear(cfg, reg)
	assert.Equal(t, "powvar_alpha", nl.Metrics()[len(nl.Metrics())-1])
	assert.Len(t, nl.Metrics(), 10)
}
