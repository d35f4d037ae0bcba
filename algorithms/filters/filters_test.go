package filters_test

import (
	"math"
	"testing"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"github.com/RyanBlaney/sonido-kpi/algorithms/filters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fs = 250.0

func sine(freq float64, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * freq * float64(i) / fs)
	}
	return x
}

func TestBandpassResponse(t *testing.T) {
	bf, err := filters.NewBandpassFromEdges(fs, 8, 13)
	require.NoError(t, err)

	center, bandwidth, q := bf.Parameters()
	assert.InDelta(t, math.Sqrt(104), center, 1e-12)
	assert.Equal(t, 5.0, bandwidth)
	assert.InDelta(t, center/5, q, 1e-12)

	assert.InDelta(t, 1.0, bf.FrequencyResponse(center), 1e-9)
	assert.Less(t, bf.FrequencyResponse(30), 0.3)
	assert.Less(t, bf.FrequencyResponse(1), 0.3)
}

func TestBandpassRejectsBadParameters(t *testing.T) {
	_, err := filters.NewBandpassFilter(0, 10, 2)
	assert.Error(t, err)
	_, err = filters.NewBandpassFilter(fs, 200, 2)
	assert.Error(t, err)
	_, err = filters.NewBandpassFilter(fs, 10, 0)
	assert.Error(t, err)
	_, err = filters.NewBandpassFromEdges(fs, 13, 8)
	assert.Error(t, err)
}

func TestProcessBufferAndReset(t *testing.T) {
	bf, err := filters.NewBandpassFilter(fs, 10, 4)
	require.NoError(t, err)

	impulse := make([]float64, 8)
	impulse[0] = 1
	first := bf.ProcessBuffer(impulse)

	bf.Reset()
	second := bf.ProcessBuffer(impulse)
	assert.Equal(t, first, second)
}

func TestZeroPhaseBandpass(t *testing.T) {
	zp, err := filters.NewZeroPhaseBandpass(fs, 8, 13, 2)
	require.NoError(t, err)

	in := sine(10, 1250)
	out, err := zp.Apply(in)
	require.NoError(t, err)
	require.Len(t, out, len(in))

	// no phase lag in the steady-state middle section
	for i := 500; i < 750; i++ {
		assert.InDelta(t, in[i], out[i], 0.05, "sample %d", i)
	}

	stop, err := zp.Apply(sine(30, 1250))
	require.NoError(t, err)
	assert.Less(t, common.RMS(stop[250:1000]), 0.01)

	assert.Equal(t, sine(10, 1250), in, "input untouched")

	_, err = zp.Apply([]float64{1})
	assert.Error(t, err)
	_, err = filters.NewZeroPhaseBandpass(fs, 8, 13, 0)
	assert.Error(t, err)
}
