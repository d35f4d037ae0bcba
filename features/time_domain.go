package features

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"github.com/RyanBlaney/sonido-kpi/algorithms/stats"
	"github.com/RyanBlaney/sonido-kpi/algorithms/temporal"
	"gonum.org/v1/gonum/floats"
)

// TimeDomain extracts amplitude, moment, pattern and Hjorth descriptors
// from raw samples (Family A). The family is computed as a unit: any
// failure sets every metric of the channel to NaN.
type TimeDomain struct {
	moments *stats.Moments
	zcr     *temporal.ZeroCrossingRate
}

// NewTimeDomain creates a Family A extractor
func NewTimeDomain() *TimeDomain {
	return &TimeDomain{
		moments: stats.NewMoments(),
		zcr:     temporal.NewZeroCrossingRate(),
	}
}

// Metrics returns the metric names in output order
func (td *TimeDomain) Metrics() []string {
	return TimeMetrics()
}

// Extract computes Family A for one channel of a window
func (td *TimeDomain) Extract(x []float64) *Vector {
	v := NewVector(len(timeMetrics))

	values, err := td.compute(x)
	if err != nil {
		for _, m := range timeMetrics {
			v.SetResult(m, Fail(FamilyTime, m, err))
		}
		return v
	}

	for _, m := range timeMetrics {
		v.Set(m, values[m])
	}
	return v
}

func (td *TimeDomain) compute(x []float64) (values map[string]float64, err error) {
	defer func() {
		if p := recover(); p != nil {
			values, err = nil, fmt.Errorf("panic: %v", p)
		}
	}()

	if len(x) < 3 {
		return nil, fmt.Errorf("need at least 3 samples, got %d", len(x))
	}
	if !common.AllFinite(x) {
		return nil, fmt.Errorf("window contains non-finite samples")
	}

	m, err := td.moments.Analyze(x)
	if err != nil {
		return nil, err
	}

	hi, lo := floats.Max(x), floats.Min(x)
	dx := common.Diff(x)
	ddx := common.Diff(dx)

	slope := 0.0
	for _, d := range dx {
		slope += math.Abs(d)
	}
	slope /= float64(len(dx))

	// peaks above half a standard deviation
	peaks := common.LocalMaxima(x, 0.5*m.StdDev)
	peakHeight := nan
	if len(peaks) > 0 {
		sum := 0.0
		for _, p := range peaks {
			sum += x[p]
		}
		peakHeight = sum / float64(len(peaks))
	}

	varDx := common.PopVariance(dx)
	mobility := math.Sqrt(varDx / (m.Variance + Epsilon))
	mobilityDx := math.Sqrt(common.PopVariance(ddx) / (varDx + Epsilon))

	return map[string]float64{
		"amp_max":           hi,
		"amp_min":           lo,
		"amp_p2p":           hi - lo,
		"amp_mean":          m.Mean,
		"amp_rms":           common.RMS(x),
		"stat_mean":         m.Mean,
		"stat_std":          m.StdDev,
		"stat_variance":     m.Variance,
		"stat_median":       m.Median,
		"stat_skewness":     m.Skewness,
		"stat_kurtosis":     m.Kurtosis,
		"zcr":               td.zcr.Compute(x),
		"slope_mean":        slope,
		"peak_count":        float64(len(peaks)),
		"peak_mean_height":  peakHeight,
		"hjorth_mobility":   mobility,
		"hjorth_complexity": mobilityDx / (mobility + Epsilon),
	}, nil
}
