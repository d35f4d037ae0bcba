package features_test

import (
	"errors"
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/features"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard(t *testing.T) {
	ok := features.Guard("time", "x", func() (float64, error) { return 2, nil })
	assert.False(t, ok.Failed())
	assert.Equal(t, 2.0, ok.Value)

	boom := errors.New("boom")
	failed := features.Guard("time", "x", func() (float64, error) { return 0, boom })
	assert.True(t, failed.Failed())
	assert.True(t, math.IsNaN(failed.Value))
	assert.ErrorIs(t, failed.Err, boom)

	var fe *features.FeatureError
	require.ErrorAs(t, failed.Err, &fe)
	assert.Equal(t, "time", fe.Family)
	assert.Equal(t, "x", fe.Metric)

	panicked := features.Guard("freq", "y", func() (float64, error) {
		var s []float64
		return s[3], nil
	})
	assert.True(t, panicked.Failed())
	assert.Contains(t, panicked.Err.Error(), "panic")

	nan := features.Guard("freq", "y", func() (float64, error) { return math.NaN(), nil })
	assert.False(t, nan.Failed(), "NaN is a legitimate value")

	inf := features.GuardFinite("freq", "y", func() (float64, error) { return math.Inf(1), nil })
	assert.ErrorIs(t, inf.Err, features.ErrNonFinite)
}

func TestVector(t *testing.T) {
	v := features.NewVector(4)
	v.Set("b", 1)
	v.Set("a", 2)
	v.SetResult("c", features.Fail("time", "c", errors.New("bad")))
	v.Set("b", 3)

	assert.Equal(t, []string{"b", "a", "c"}, v.Keys())
	assert.Equal(t, 3, v.Len())
	got, _ := v.Get("b")
	assert.Equal(t, 3.0, got)
	got, _ = v.Get("c")
	assert.True(t, math.IsNaN(got))
	_, ok := v.Get("missing")
	assert.False(t, ok)
	require.Len(t, v.Failures(), 1)
	assert.Equal(t, "c", v.Failures()[0].Metric)
	assert.False(t, v.AllFailed())

	merged := features.NewVector(0)
	merged.Merge("Fp1_time", v)
	merged.Merge("", v)
	assert.Equal(t, []string{"Fp1_time_b", "Fp1_time_a", "Fp1_time_c", "b", "a", "c"}, merged.Keys())
	assert.Len(t, merged.Failures(), 2)

	allBad := features.NewVector(1)
	allBad.SetResult("x", features.Fail("time", "x", errors.New("bad")))
	assert.True(t, allBad.AllFailed())
	assert.False(t, features.NewVector(0).AllFailed())
}
