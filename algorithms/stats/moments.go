package stats

import (
	"fmt"
	"math"

	"github.com/RyanBlaney/sonido-kpi/algorithms/common"
	"gonum.org/v1/gonum/stat"
)

// MomentResult contains the descriptive statistics of one signal
type MomentResult struct {
	Mean     float64 `json:"mean"`     // First raw moment (μ₁)
	Variance float64 `json:"variance"` // Second central moment (σ²), population
	StdDev   float64 `json:"std_dev"`  // Standard deviation (σ)
	Skewness float64 `json:"skewness"` // Third standardized moment
	Kurtosis float64 `json:"kurtosis"` // Fourth standardized moment (excess)
	Median   float64 `json:"median"`

	NumSamples int `json:"num_samples"`
}

// Moments computes population (biased) moments, the convention used by
// EEG feature tables: variance divides by N, skewness is m3/m2^1.5 and
// kurtosis is the excess m4/m2² - 3.
//
// References:
// - Kendall, M., Stuart, A. (1977). "The Advanced Theory of Statistics, Volume 1"
// - Joanes, D.N., Gill, C.A. (1998). "Comparing measures of sample skewness and kurtosis"
//
// A constant signal has zero variance, so skewness and kurtosis are
// undefined and returned as NaN rather than Inf.
type Moments struct {
	// No state needed
}

// NewMoments creates a new moment analyzer
func NewMoments() *Moments {
	return &Moments{}
}

// Analyze computes the moments of data
func (m *Moments) Analyze(data []float64) (*MomentResult, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty data")
	}

	mean, variance := stat.PopMeanVariance(data, nil)

	skewness := math.NaN()
	kurtosis := math.NaN()
	if variance > 0 {
		m3 := stat.Moment(3, data, nil)
		m4 := stat.Moment(4, data, nil)
		skewness = m3 / math.Pow(variance, 1.5)
		kurtosis = m4/(variance*variance) - 3.0
	}

	return &MomentResult{
		Mean:       mean,
		Variance:   variance,
		StdDev:     math.Sqrt(variance),
		Skewness:   skewness,
		Kurtosis:   kurtosis,
		Median:     common.Median(data),
		NumSamples: len(data),
	}, nil
}
