package features_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/bands"
	"github.com/RyanBlaney/sonido-kpi/config"
	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fs = 250.0

func defaultSetup(t *testing.T) (config.Config, *bands.Registry) {
	t.Helper()
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	reg, err := cfg.Registry()
	require.NoError(t, err)
	return cfg, reg
}

// tones sums amplitude·sin(2π·freq·t) pairs over n samples
func tones(n int, freqAmp ...float64) []float64 {
	x := make([]float64, n)
	for i := range x {
		t := float64(i) / fs
		for k := 0; k+1 < len(freqAmp); k += 2 {
			x[i] += freqAmp[k+1] * math.Sin(2*math.Pi*freqAmp[k]*t)
		}
	}
	return x
}

func addNoise(x []float64, seed int64, scale float64) []float64 {
	r := rand.New(rand.NewSource(seed))
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = v + scale*r.NormFloat64()
	}
	return out
}

func value(t *testing.T, v *features.Vector, key string) float64 {
	t.Helper()
	got, ok := v.Get(key)
	require.True(t, ok, "missing key %s", key)
	return got
}

func assertNoInf(t *testing.T, v *features.Vector) {
	t.Helper()
	for _, k := range v.Keys() {
		assert.False(t, math.IsInf(value(t, v, k), 0), "%s is infinite", k)
	}
}
